package optnix

// ExtractResult holds the option records extracted from one document.
type ExtractResult struct {
	// Options in document order.
	Options []Option

	// Skipped counts entries that failed to parse individually and were
	// dropped. A non-zero count is logged by the caller, never fatal.
	Skipped int
}

// Extractor parses raw documentation HTML into structured option records.
// Implementations must be pure (no side effects) and tolerant of malformed
// markup: a single bad entry is skipped and counted, not fatal.
type Extractor interface {
	Extract(html []byte) (*ExtractResult, error)
}

// Converter transforms an HTML fragment into readable plain text
// (markdown). Used to render rich option descriptions.
type Converter interface {
	Convert(html string) (string, error)
}
