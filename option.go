package optnix

// Source identifies which documentation corpus an option came from.
type Source string

// Known documentation sources.
const (
	SourceHomeManager Source = "home-manager"
	SourceDarwin      Source = "darwin"
	SourceNixOS       Source = "nixos"
)

// Option is a single named, typed configuration setting extracted from
// documentation. Path is the dot-separated hierarchical name
// (e.g. "programs.git.enable") and is unique within one index generation;
// Default, Example and Category are optional ("" means absent).
type Option struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Example     string `json:"example,omitempty"`
	Category    string `json:"category,omitempty"`
	Source      Source `json:"source"`
}

// Validate returns an error if the option contains invalid fields.
func (o *Option) Validate() error {
	if o.Path == "" {
		return Errorf(EINVALID, "option path required")
	}
	if o.Source == "" {
		return Errorf(EINVALID, "option source required")
	}
	return nil
}
