package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optnix/optnix/index"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	t.Run("splits on dots and lowercases", func(t *testing.T) {
		t.Parallel()

		tokens := index.Tokenize("programs.git.enable")
		assert.Equal(t, []string{"programs", "git", "enable"}, tokens)
	})

	t.Run("camelCase yields whole token and segments", func(t *testing.T) {
		t.Parallel()

		tokens := index.Tokenize("enableCompletion")
		assert.Contains(t, tokens, "enablecompletion")
		assert.Contains(t, tokens, "enable")
		assert.Contains(t, tokens, "completion")
	})

	t.Run("splits prose on punctuation and whitespace", func(t *testing.T) {
		t.Parallel()

		tokens := index.Tokenize("Whether to enable Git, the version-control system.")
		assert.Contains(t, tokens, "whether")
		assert.Contains(t, tokens, "git")
		assert.Contains(t, tokens, "version")
		assert.Contains(t, tokens, "control")
	})

	t.Run("deduplicates repeated words", func(t *testing.T) {
		t.Parallel()

		tokens := index.Tokenize("git git GIT")
		assert.Equal(t, []string{"git"}, tokens)
	})

	t.Run("drops single-character fragments", func(t *testing.T) {
		t.Parallel()

		tokens := index.Tokenize("a b console")
		assert.Equal(t, []string{"console"}, tokens)
	})

	t.Run("splits letter-digit boundaries", func(t *testing.T) {
		t.Parallel()

		tokens := index.Tokenize("sha256")
		assert.Contains(t, tokens, "sha256")
		assert.Contains(t, tokens, "sha")
		assert.Contains(t, tokens, "256")
	})
}
