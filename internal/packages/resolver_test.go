package packages_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gh-container/internal/ghcr"
	"github.com/temirov/gh-container/internal/packages"
)

func TestDefaultRegistryResolverResolveRegistry(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, "/token", []byte("file-token"), 0o600))
	lookup := func(key string) (string, bool) {
		if key == "GITHUB_TOKEN" {
			return "env-token", true
		}
		return "", false
	}

	testCases := []struct {
		name         string
		backend      string
		tokenSource  string
		expectedType any
		expectError  bool
	}{
		{
			name:         "gh_backend",
			backend:      packages.BackendGitHubCLI,
			expectedType: &ghcr.CLIRegistry{},
		},
		{
			name:         "api_backend_environment_token",
			backend:      packages.BackendRESTAPI,
			tokenSource:  "env:GITHUB_TOKEN",
			expectedType: &ghcr.RESTRegistry{},
		},
		{
			name:         "api_backend_file_token",
			backend:      packages.BackendRESTAPI,
			tokenSource:  "file:/token",
			expectedType: &ghcr.RESTRegistry{},
		},
		{
			name:        "api_backend_missing_token",
			backend:     packages.BackendRESTAPI,
			tokenSource: "env:ABSENT_TOKEN",
			expectError: true,
		},
		{
			name:        "api_backend_invalid_token_source",
			backend:     packages.BackendRESTAPI,
			tokenSource: "vault:token",
			expectError: true,
		},
		{
			name:        "unsupported_backend",
			backend:     "graphql",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			resolver := &packages.DefaultRegistryResolver{
				CommandRunner:     &recordingRunner{},
				EnvironmentLookup: lookup,
				FileSystem:        fileSystem,
			}
			registry, resolveError := resolver.ResolveRegistry(context.Background(), zap.NewNop(), packages.RegistryConfiguration{
				Backend: testCase.backend,
				API:     packages.APIConfiguration{TokenSource: testCase.tokenSource},
			})
			if testCase.expectError {
				require.Error(subtest, resolveError)
				require.Nil(subtest, registry)
				return
			}
			require.NoError(subtest, resolveError)
			require.IsType(subtest, testCase.expectedType, registry)
		})
	}
}
