package mock

import "github.com/optnix/optnix"

var _ optnix.Converter = (*Converter)(nil)

// Converter is a mock implementation of optnix.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
