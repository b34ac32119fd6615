package packages

import (
	"strings"
	"time"

	"github.com/temirov/gh-container/internal/browse"
	"github.com/temirov/gh-container/internal/ghcr"
)

const (
	// BackendGitHubCLI serves registry calls through gh api.
	BackendGitHubCLI = "gh"
	// BackendRESTAPI serves registry calls through the GitHub REST API.
	BackendRESTAPI = "api"

	defaultTokenSourceValueConstant   = "env:GITHUB_TOKEN"
	defaultAPIBaseURLConstant         = "https://api.github.com/"
	defaultAPIPageSizeConstant        = 100
	defaultAPITimeoutConstant         = 30 * time.Second
	registryBackendKeyConstant        = "registry.backend"
	registryPackageTypeKeyConstant    = "registry.package_type"
	registryOwnerKeyConstant          = "registry.owner"
	registryAPIBaseURLKeyConstant     = "registry.api.base_url"
	registryAPITokenSourceKeyConstant = "registry.api.token_source"
	registryAPIPageSizeKeyConstant    = "registry.api.page_size"
	registryAPITimeoutKeyConstant     = "registry.api.timeout"
	cleanDryRunKeyConstant            = "clean.dry_run"
	cleanRequestsPerSecondKeyConstant = "clean.requests_per_second"
	browseFinderKeyConstant           = "browse.finder"
	browseHelpKeyConfigKeyConstant    = "browse.keys.help"
	browseReloadKeyConfigKeyConstant  = "browse.keys.reload"
	browseDeleteKeyConfigKeyConstant  = "browse.keys.delete"
)

// Configuration aggregates settings for the package commands.
type Configuration struct {
	Registry RegistryConfiguration `mapstructure:"registry"`
	Clean    CleanConfiguration    `mapstructure:"clean"`
	Browse   browse.Configuration  `mapstructure:"browse"`
}

// RegistryConfiguration selects and tunes the registry backend.
type RegistryConfiguration struct {
	Backend     string           `mapstructure:"backend"`
	PackageType string           `mapstructure:"package_type"`
	Owner       string           `mapstructure:"owner"`
	API         APIConfiguration `mapstructure:"api"`
}

// APIConfiguration stores REST backend settings.
type APIConfiguration struct {
	BaseURL     string        `mapstructure:"base_url"`
	TokenSource string        `mapstructure:"token_source"`
	PageSize    int           `mapstructure:"page_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CleanConfiguration stores defaults for the clean command.
type CleanConfiguration struct {
	DryRun            bool    `mapstructure:"dry_run"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// DefaultConfiguration supplies baseline values for package commands.
func DefaultConfiguration() Configuration {
	return Configuration{
		Registry: RegistryConfiguration{
			Backend:     BackendGitHubCLI,
			PackageType: ghcr.ContainerPackageType,
			API: APIConfiguration{
				BaseURL:     defaultAPIBaseURLConstant,
				TokenSource: defaultTokenSourceValueConstant,
				PageSize:    defaultAPIPageSizeConstant,
				Timeout:     defaultAPITimeoutConstant,
			},
		},
		Browse: browse.DefaultConfiguration(),
	}
}

// DefaultConfigurationValues exposes DefaultConfiguration as configuration loader defaults.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		registryBackendKeyConstant:        defaults.Registry.Backend,
		registryPackageTypeKeyConstant:    defaults.Registry.PackageType,
		registryOwnerKeyConstant:          defaults.Registry.Owner,
		registryAPIBaseURLKeyConstant:     defaults.Registry.API.BaseURL,
		registryAPITokenSourceKeyConstant: defaults.Registry.API.TokenSource,
		registryAPIPageSizeKeyConstant:    defaults.Registry.API.PageSize,
		registryAPITimeoutKeyConstant:     defaults.Registry.API.Timeout.String(),
		cleanDryRunKeyConstant:            defaults.Clean.DryRun,
		cleanRequestsPerSecondKeyConstant: defaults.Clean.RequestsPerSecond,
		browseFinderKeyConstant:           defaults.Browse.Finder,
		browseHelpKeyConfigKeyConstant:    defaults.Browse.Keys.Help,
		browseReloadKeyConfigKeyConstant:  defaults.Browse.Keys.Reload,
		browseDeleteKeyConfigKeyConstant:  defaults.Browse.Keys.Delete,
	}
}

// Sanitize trims configured values and fills blanks with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.Registry.Backend = strings.ToLower(selectStringValue(configuration.Registry.Backend, defaults.Registry.Backend))
	sanitized.Registry.PackageType = selectStringValue(configuration.Registry.PackageType, defaults.Registry.PackageType)
	sanitized.Registry.Owner = strings.TrimSpace(configuration.Registry.Owner)
	sanitized.Registry.API.BaseURL = selectStringValue(configuration.Registry.API.BaseURL, defaults.Registry.API.BaseURL)
	sanitized.Registry.API.TokenSource = selectStringValue(configuration.Registry.API.TokenSource, defaults.Registry.API.TokenSource)
	if sanitized.Registry.API.PageSize <= 0 {
		sanitized.Registry.API.PageSize = defaults.Registry.API.PageSize
	}
	if sanitized.Registry.API.Timeout <= 0 {
		sanitized.Registry.API.Timeout = defaults.Registry.API.Timeout
	}
	if sanitized.Clean.RequestsPerSecond < 0 {
		sanitized.Clean.RequestsPerSecond = 0
	}
	sanitized.Browse = configuration.Browse.Sanitize()

	return sanitized
}

func selectStringValue(preferredValue string, fallbackValue string) string {
	trimmedPreferredValue := strings.TrimSpace(preferredValue)
	if len(trimmedPreferredValue) > 0 {
		return trimmedPreferredValue
	}

	return strings.TrimSpace(fallbackValue)
}
