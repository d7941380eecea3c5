// Package goquery extracts structured option records from documentation
// HTML using CSS selectors. The published Home Manager, NixOS-module and
// nix-darwin option references all share the same definition-list shape
// (dl/dt/dd), so one extractor serves every flavor.
package goquery

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/optnix/optnix"
)

// Ensure Extractor implements optnix.Extractor at compile time.
var _ optnix.Extractor = (*Extractor)(nil)

// headingSelector matches any heading element for category inference.
const headingSelector = "h1, h2, h3, h4, h5, h6"

// pathRe accepts dot-separated option paths. Home Manager paths may carry
// placeholder segments like <name> or quoted attribute names.
var pathRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_'"<>*-]*(\.[A-Za-z0-9_'"<>*-]+)*$`)

// Extractor parses definition-list-shaped documentation into option
// records. Extraction is pure: the same bytes yield the same records, and
// a single malformed entry is skipped and counted rather than failing the
// document.
type Extractor struct {
	source       optnix.Source
	conv         optnix.Converter
	listSelector string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithConverter renders rich description markup through conv (markdown)
// instead of flattening it to plain text.
func WithConverter(conv optnix.Converter) Option {
	return func(e *Extractor) {
		e.conv = conv
	}
}

// WithListSelector overrides the CSS selector locating definition lists.
// Defaults to "dl".
func WithListSelector(sel string) Option {
	return func(e *Extractor) {
		e.listSelector = sel
	}
}

// NewExtractor creates an extractor tagging every record with source.
func NewExtractor(source optnix.Source, opts ...Option) *Extractor {
	e := &Extractor{
		source:       source,
		listSelector: "dl",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses raw HTML into option records in document order.
func (e *Extractor) Extract(html []byte) (*optnix.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, optnix.Errorf(optnix.EINVALID, "failed to parse HTML: %v", err)
	}

	result := &optnix.ExtractResult{}
	doc.Find(e.listSelector).Each(func(_ int, dl *goquery.Selection) {
		category := categoryFor(dl)
		// Direct children only, so a definition list nested inside a
		// description is not double-counted.
		dl.ChildrenFiltered("dt").Each(func(_ int, dt *goquery.Selection) {
			opt, ok := e.parseEntry(dt, category)
			if !ok {
				result.Skipped++
				return
			}
			result.Options = append(result.Options, opt)
		})
	})
	return result, nil
}

// parseEntry turns one dt plus its trailing dd into an option record.
func (e *Extractor) parseEntry(dt *goquery.Selection, category string) (optnix.Option, bool) {
	name := strings.TrimRight(normalizeSpace(dt.Text()), " ¶§")
	if name == "" || !pathRe.MatchString(name) {
		return optnix.Option{}, false
	}

	dd := dt.NextUntil("dt").Filter("dd").First()
	if dd.Length() == 0 {
		return optnix.Option{}, false
	}

	opt := optnix.Option{
		Path:     name,
		Category: category,
		Source:   e.source,
	}

	paras := dd.ChildrenFiltered("p")
	if paras.Length() == 0 {
		// Compact form: fields inline in one sentence
		// ("Type: boolean. Default: false. Whether to enable Git.").
		typ, def, example, desc := parseInline(normalizeSpace(dd.Text()))
		opt.Type = typ
		opt.Default = def
		opt.Example = example
		opt.Description = desc
	} else {
		var desc []string
		paras.Each(func(_ int, p *goquery.Selection) {
			text := normalizeSpace(p.Text())
			switch {
			case strings.HasPrefix(text, "Type:"):
				opt.Type = strings.TrimSpace(strings.TrimPrefix(text, "Type:"))
			case strings.HasPrefix(text, "Default:"):
				opt.Default = strings.TrimSpace(strings.TrimPrefix(text, "Default:"))
			case strings.HasPrefix(text, "Example:"):
				opt.Example = strings.TrimSpace(strings.TrimPrefix(text, "Example:"))
			case strings.HasPrefix(text, "Declared by:"), strings.HasPrefix(text, "Declared in:"):
				// Source-file attribution, not useful in query output.
			case text != "":
				desc = append(desc, e.renderDescription(p, text))
			}
		})
		opt.Description = strings.Join(desc, "\n\n")
	}

	return opt, true
}

// renderDescription converts a description paragraph through the markdown
// converter when one is configured, falling back to its plain text.
func (e *Extractor) renderDescription(p *goquery.Selection, fallback string) string {
	if e.conv == nil {
		return fallback
	}
	html, err := goquery.OuterHtml(p)
	if err != nil {
		return fallback
	}
	md, err := e.conv.Convert(html)
	if err != nil || md == "" {
		return fallback
	}
	return md
}

// categoryFor infers a category from the nearest preceding heading or,
// failing that, the id of the closest ancestor container.
func categoryFor(dl *goquery.Selection) string {
	if h := dl.PrevAllFiltered(headingSelector).First(); h.Length() > 0 {
		return headingText(h)
	}
	for p := dl.Parent(); p.Length() > 0; p = p.Parent() {
		if h := p.PrevAllFiltered(headingSelector).First(); h.Length() > 0 {
			return headingText(h)
		}
		if h := p.Find(headingSelector).First(); h.Length() > 0 {
			return headingText(h)
		}
		if id, ok := p.Attr("id"); ok && id != "" {
			return id
		}
	}
	return ""
}

func headingText(h *goquery.Selection) string {
	return strings.TrimRight(normalizeSpace(h.Text()), " ¶§")
}

// parseInline pulls "Label: value" fields out of a single flat sentence.
// A field value runs to the next label or the next sentence boundary;
// everything left over is the description.
func parseInline(text string) (typ, def, example, desc string) {
	labels := map[string]*string{
		"Type:":    &typ,
		"Default:": &def,
		"Example:": &example,
	}

	var descParts []string
	for {
		best := -1
		var bestLabel string
		for label := range labels {
			if i := strings.Index(text, label); i >= 0 && (best < 0 || i < best) {
				best, bestLabel = i, label
			}
		}
		if best < 0 {
			break
		}

		if lead := strings.TrimSpace(text[:best]); lead != "" {
			descParts = append(descParts, lead)
		}

		rest := text[best+len(bestLabel):]
		end := len(rest)
		for label := range labels {
			if i := strings.Index(rest, label); i >= 0 && i < end {
				end = i
			}
		}
		if i := strings.Index(rest, ". "); i >= 0 && i+1 < end {
			end = i + 1
		}

		value := strings.TrimSuffix(strings.TrimSpace(rest[:end]), ".")
		if dst := labels[bestLabel]; *dst == "" {
			*dst = strings.TrimSpace(value)
		}
		text = rest[end:]
	}

	if tail := strings.TrimSpace(text); tail != "" {
		descParts = append(descParts, tail)
	}
	desc = strings.Join(descParts, " ")
	return typ, def, example, desc
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
