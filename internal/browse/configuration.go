package browse

import "strings"

const (
	defaultFinderConstant    = "fzf"
	defaultHelpKeyConstant   = "?"
	defaultReloadKeyConstant = "ctrl-r"
	defaultDeleteKeyConstant = "ctrl-d"
)

// Configuration selects the finder executable and its key bindings.
type Configuration struct {
	Finder string      `mapstructure:"finder"`
	Keys   KeyBindings `mapstructure:"keys"`
}

// KeyBindings names the fzf keys handled by a session.
type KeyBindings struct {
	Help   string `mapstructure:"help"`
	Reload string `mapstructure:"reload"`
	Delete string `mapstructure:"delete"`
}

// DefaultConfiguration returns the fzf bindings used when nothing is configured.
func DefaultConfiguration() Configuration {
	return Configuration{
		Finder: defaultFinderConstant,
		Keys: KeyBindings{
			Help:   defaultHelpKeyConstant,
			Reload: defaultReloadKeyConstant,
			Delete: defaultDeleteKeyConstant,
		},
	}
}

// Sanitize trims values and restores defaults for blank entries.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	return Configuration{
		Finder: fallback(configuration.Finder, defaults.Finder),
		Keys: KeyBindings{
			Help:   fallback(configuration.Keys.Help, defaults.Keys.Help),
			Reload: fallback(configuration.Keys.Reload, defaults.Keys.Reload),
			Delete: fallback(configuration.Keys.Delete, defaults.Keys.Delete),
		},
	}
}

func fallback(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
