package githubauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveToken(testInstance *testing.T) {
	testCases := []struct {
		name             string
		environment      map[string]string
		expectedToken    string
		expectedVariable string
		expectedFound    bool
	}{
		{
			name:             "cli_token_preferred",
			environment:      map[string]string{EnvGitHubCLIToken: "cli", EnvGitHubToken: "actions"},
			expectedToken:    "cli",
			expectedVariable: EnvGitHubCLIToken,
			expectedFound:    true,
		},
		{
			name:             "blank_values_skipped",
			environment:      map[string]string{EnvGitHubCLIToken: "  ", EnvGitHubAPIToken: " api "},
			expectedToken:    "api",
			expectedVariable: EnvGitHubAPIToken,
			expectedFound:    true,
		},
		{
			name:        "nothing_set",
			environment: map[string]string{"OTHER": "value"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			lookup := func(key string) (string, bool) {
				value, found := testCase.environment[key]
				return value, found
			}
			token, variable, found := ResolveToken(lookup)
			require.Equal(subtest, testCase.expectedFound, found)
			require.Equal(subtest, testCase.expectedToken, token)
			require.Equal(subtest, testCase.expectedVariable, variable)
		})
	}
}

func TestCandidateVariablesReturnsCopy(testInstance *testing.T) {
	variables := CandidateVariables()
	variables[0] = "CHANGED"
	require.Equal(testInstance, []string{EnvGitHubCLIToken, EnvGitHubToken, EnvGitHubAPIToken}, CandidateVariables())
}
