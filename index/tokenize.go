package index

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase search tokens. Runs of letters and
// digits are split on every other character (including `.`), and camelCase
// runs additionally contribute their segments, so "enableCompletion" yields
// "enablecompletion", "enable" and "completion". The same tokenizer is used
// at build time and at query time.
func Tokenize(text string) []string {
	seen := make(map[string]struct{})
	var tokens []string

	add := func(tok string) {
		if len(tok) < 2 {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, run := range splitRuns(text) {
		add(strings.ToLower(run))
		parts := splitCamel(run)
		if len(parts) > 1 {
			for _, p := range parts {
				add(strings.ToLower(p))
			}
		}
	}

	return tokens
}

// splitRuns extracts maximal runs of letters and digits.
func splitRuns(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// splitCamel splits a run at lower-to-upper and letter-to-digit boundaries.
func splitCamel(run string) []string {
	var parts []string
	var cur strings.Builder

	runes := []rune(run)
	for i, r := range runes {
		if i > 0 && boundary(runes[i-1], r) {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func boundary(prev, r rune) bool {
	if unicode.IsLower(prev) && unicode.IsUpper(r) {
		return true
	}
	if unicode.IsLetter(prev) && unicode.IsDigit(r) {
		return true
	}
	if unicode.IsDigit(prev) && unicode.IsLetter(r) {
		return true
	}
	return false
}
