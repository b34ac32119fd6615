package cli

import _ "embed"

// defaultConfigurationDocument holds the gh-container defaults; user files and GHCONTAINER_* variables override it.
//
//go:embed default_config.yaml
var defaultConfigurationDocument []byte

// DefaultConfigurationDocument returns a copy of the embedded YAML defaults.
func DefaultConfigurationDocument() []byte {
	return append([]byte(nil), defaultConfigurationDocument...)
}
