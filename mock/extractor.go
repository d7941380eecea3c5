package mock

import "github.com/optnix/optnix"

var _ optnix.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of optnix.Extractor.
type Extractor struct {
	ExtractFn func(html []byte) (*optnix.ExtractResult, error)
}

func (e *Extractor) Extract(html []byte) (*optnix.ExtractResult, error) {
	return e.ExtractFn(html)
}
