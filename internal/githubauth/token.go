package githubauth

import (
	"os"
	"strings"
)

// Environment variable names used by GitHub authentication helpers.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// ResolveToken returns the first non-empty token among GH_TOKEN, GITHUB_TOKEN and GITHUB_API_TOKEN,
// together with the variable that supplied it. A nil lookup reads the process environment.
func ResolveToken(lookup EnvironmentLookup) (string, string, bool) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range tokenPreference {
		value, found := lookup(key)
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) > 0 {
			return value, key, true
		}
	}
	return "", "", false
}

// CandidateVariables lists the variables ResolveToken inspects, in order.
func CandidateVariables() []string {
	return append([]string{}, tokenPreference...)
}
