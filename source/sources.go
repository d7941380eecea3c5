package source

import (
	"github.com/optnix/optnix"
	optgoquery "github.com/optnix/optnix/goquery"
	"github.com/optnix/optnix/htmltomarkdown"
)

// Published documentation URLs. The Home Manager manual ships three option
// references: the generic Home Manager options plus the NixOS-module and
// nix-darwin-module integration options.
const (
	HomeManagerOptionsURL       = "https://nix-community.github.io/home-manager/options.xhtml"
	HomeManagerNixOSOptionsURL  = "https://nix-community.github.io/home-manager/nixos-options.xhtml"
	HomeManagerDarwinOptionsURL = "https://nix-community.github.io/home-manager/nix-darwin-options.xhtml"

	DarwinManualURL = "https://nix-darwin.github.io/nix-darwin/manual/index.html"
)

// NewHomeManager builds the Home Manager context over all three published
// option references.
func NewHomeManager(fetcher optnix.Fetcher, opts ...Option) *Context {
	conv := htmltomarkdown.NewConverter()
	extractor := optgoquery.NewExtractor(optnix.SourceHomeManager, optgoquery.WithConverter(conv))

	docs := []Document{
		{URL: HomeManagerOptionsURL, Extractor: extractor},
		{URL: HomeManagerNixOSOptionsURL, Extractor: extractor},
		{URL: HomeManagerDarwinOptionsURL, Extractor: extractor},
	}
	return New(optnix.SourceHomeManager, fetcher, docs, opts...)
}

// NewDarwin builds the nix-darwin context over its single-page manual.
func NewDarwin(fetcher optnix.Fetcher, opts ...Option) *Context {
	conv := htmltomarkdown.NewConverter()
	extractor := optgoquery.NewExtractor(optnix.SourceDarwin, optgoquery.WithConverter(conv))

	docs := []Document{
		{URL: DarwinManualURL, Extractor: extractor},
	}
	return New(optnix.SourceDarwin, fetcher, docs, opts...)
}
