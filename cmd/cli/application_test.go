package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gh-container/internal/ghcr"
	"github.com/temirov/gh-container/internal/packages"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testPackageNameConstant           = "my-pkg"
)

type recordingRegistry struct {
	deleted []ghcr.DeleteRequest
	owners  []ghcr.Owner
}

func (registry *recordingRegistry) ListPackages(_ context.Context, owner ghcr.Owner, _ string) ([]string, error) {
	registry.owners = append(registry.owners, owner)
	return []string{"api"}, nil
}

func (registry *recordingRegistry) ListVersions(_ context.Context, owner ghcr.Owner, _ string, _ string, _ ghcr.VersionQuery) ([]ghcr.PackageVersion, error) {
	registry.owners = append(registry.owners, owner)
	return []ghcr.PackageVersion{}, nil
}

func (registry *recordingRegistry) DeleteVersion(_ context.Context, request ghcr.DeleteRequest) error {
	registry.deleted = append(registry.deleted, request)
	return nil
}

func (registry *recordingRegistry) CurrentUsername(_ context.Context) (string, error) {
	return "octocat", nil
}

type recordingResolver struct {
	registry      *recordingRegistry
	configuration packages.RegistryConfiguration
}

func (resolver *recordingResolver) ResolveRegistry(_ context.Context, _ *zap.Logger, configuration packages.RegistryConfiguration) (ghcr.Registry, error) {
	resolver.configuration = configuration
	return resolver.registry, nil
}

func newTestApplication(resolver *recordingResolver) (*Application, *bytes.Buffer) {
	application := NewApplication(func(builder *packages.CommandBuilder) {
		builder.RegistryResolver = resolver
	})
	output := &bytes.Buffer{}
	application.rootCommand.SetOut(output)
	application.rootCommand.SetErr(&bytes.Buffer{})
	return application, output
}

func writeConfigurationFile(t *testing.T, content string) string {
	t.Helper()
	configurationPath := filepath.Join(t.TempDir(), testConfigurationFileNameConstant)
	require.NoError(t, os.WriteFile(configurationPath, []byte(content), 0o600))
	return configurationPath
}

func TestApplicationRejectsUnknownAction(t *testing.T) {
	resolver := &recordingResolver{registry: &recordingRegistry{}}
	application, _ := newTestApplication(resolver)
	application.rootCommand.SetArgs([]string{"frobnicate"})

	executionError := application.Execute()
	require.Error(t, executionError)
	require.Equal(t, packages.UnknownActionError{Action: "frobnicate"}, executionError)
	require.Equal(t, "Unknown action: frobnicate", executionError.Error())
}

func TestApplicationHelp(t *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		fragments []string
	}{
		{
			name:      "no_arguments",
			arguments: []string{},
			fragments: []string{"list", "versions", "clean", "browse"},
		},
		{
			name:      "root_help_flag",
			arguments: []string{"--help"},
			fragments: []string{"--backend", "--org", "--log-file"},
		},
		{
			name:      "clean_help",
			arguments: []string{"clean", "-h"},
			fragments: []string{"--untagged", "--dry-run"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(subtest *testing.T) {
			application, output := newTestApplication(&recordingResolver{registry: &recordingRegistry{}})
			application.rootCommand.SetArgs(testCase.arguments)

			require.NoError(subtest, application.Execute())
			for _, fragment := range testCase.fragments {
				require.Contains(subtest, output.String(), fragment)
			}
		})
	}
}

func TestApplicationMissingPackageName(t *testing.T) {
	application, output := newTestApplication(&recordingResolver{registry: &recordingRegistry{}})
	application.rootCommand.SetArgs([]string{"clean"})

	executionError := application.Execute()
	var missingError packages.MissingArgumentError
	require.ErrorAs(t, executionError, &missingError)
	require.Equal(t, "clean", missingError.Command)
	require.Contains(t, output.String(), "Usage:")
}

func TestApplicationConfigurationPrecedence(t *testing.T) {
	configurationPath := writeConfigurationFile(t, "registry:\n  backend: api\n  owner: acme\nclean:\n  dry_run: true\n")

	testCases := []struct {
		name            string
		arguments       []string
		environment     map[string]string
		expectedBackend string
		expectedOwner   ghcr.Owner
		expectedDeletes int
	}{
		{
			name:            "configuration_file",
			arguments:       []string{"clean", testPackageNameConstant, "10", "--config", configurationPath},
			expectedBackend: packages.BackendRESTAPI,
			expectedOwner:   ghcr.Organization("acme"),
			expectedDeletes: 0,
		},
		{
			name:            "flags_override_file",
			arguments:       []string{"clean", testPackageNameConstant, "10", "--config", configurationPath, "--org", "beta", "--backend", "gh", "--dry-run=false"},
			expectedBackend: packages.BackendGitHubCLI,
			expectedOwner:   ghcr.Organization("beta"),
			expectedDeletes: 1,
		},
		{
			name:            "environment_overrides_defaults",
			arguments:       []string{"clean", testPackageNameConstant, "10"},
			environment:     map[string]string{"GHCONTAINER_REGISTRY_OWNER": "gamma"},
			expectedBackend: packages.BackendGitHubCLI,
			expectedOwner:   ghcr.Organization("gamma"),
			expectedDeletes: 1,
		},
		{
			name:            "defaults",
			arguments:       []string{"clean", testPackageNameConstant, "10"},
			expectedBackend: packages.BackendGitHubCLI,
			expectedOwner:   ghcr.Owner{Type: ghcr.UserOwnerType, Name: "octocat"},
			expectedDeletes: 1,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(subtest *testing.T) {
			for environmentKey, environmentValue := range testCase.environment {
				subtest.Setenv(environmentKey, environmentValue)
			}

			registry := &recordingRegistry{}
			resolver := &recordingResolver{registry: registry}
			application, output := newTestApplication(resolver)
			application.rootCommand.SetArgs(testCase.arguments)

			require.NoError(subtest, application.Execute())
			require.Equal(subtest, "clean my-pkg 10\n", output.String())
			require.Equal(subtest, testCase.expectedBackend, resolver.configuration.Backend)
			require.Len(subtest, registry.deleted, testCase.expectedDeletes)
			for _, request := range registry.deleted {
				require.Equal(subtest, testCase.expectedOwner, request.Owner)
			}
		})
	}
}

func TestApplicationRejectsInvalidLogLevel(t *testing.T) {
	application, _ := newTestApplication(&recordingResolver{registry: &recordingRegistry{}})
	application.rootCommand.SetArgs([]string{"list", "--log-level", "verbose"})

	executionError := application.Execute()
	require.Error(t, executionError)
	require.Contains(t, executionError.Error(), "unable to create logger")
}

func TestApplicationWritesLogFile(t *testing.T) {
	logFilePath := filepath.Join(t.TempDir(), "gh-container.log")
	application, _ := newTestApplication(&recordingResolver{registry: &recordingRegistry{}})
	application.rootCommand.SetArgs([]string{"list", "--log-level", "debug", "--log-file", logFilePath})

	require.NoError(t, application.Execute())

	logContent, readError := os.ReadFile(logFilePath)
	require.NoError(t, readError)
	require.Contains(t, string(logContent), "configuration initialized")
}

func TestDefaultConfigurationDocumentMatchesDefaults(t *testing.T) {
	content := DefaultConfigurationDocument()
	content[0] = '#'
	require.NotEqual(t, content, DefaultConfigurationDocument())
	content = DefaultConfigurationDocument()

	var document struct {
		Common struct {
			LogLevel  string `yaml:"log_level"`
			LogFormat string `yaml:"log_format"`
		} `yaml:"common"`
		Registry struct {
			Backend string `yaml:"backend"`
			API     struct {
				TokenSource string `yaml:"token_source"`
				PageSize    int    `yaml:"page_size"`
			} `yaml:"api"`
		} `yaml:"registry"`
		Browse struct {
			Finder string `yaml:"finder"`
		} `yaml:"browse"`
	}
	require.NoError(t, yaml.Unmarshal(content, &document))

	defaults := packages.DefaultConfiguration()
	require.Equal(t, "warn", document.Common.LogLevel)
	require.Equal(t, "console", document.Common.LogFormat)
	require.Equal(t, defaults.Registry.Backend, document.Registry.Backend)
	require.Equal(t, defaults.Registry.API.TokenSource, document.Registry.API.TokenSource)
	require.Equal(t, defaults.Registry.API.PageSize, document.Registry.API.PageSize)
	require.Equal(t, defaults.Browse.Finder, document.Browse.Finder)
}

type failingCommandSetBuilder struct {
	err error
}

func (builder failingCommandSetBuilder) Build() ([]*cobra.Command, error) {
	return nil, builder.err
}

func TestAttachCommandsReportsBuildFailure(t *testing.T) {
	buildError := errors.New("duplicate command")
	rootCommand := &cobra.Command{Use: applicationNameConstant}

	attachError := attachCommands(rootCommand, failingCommandSetBuilder{err: buildError})
	require.ErrorIs(t, attachError, buildError)
	require.Empty(t, rootCommand.Commands())

	application, _ := newTestApplication(&recordingResolver{registry: &recordingRegistry{}})
	application.commandsBuildError = attachError
	application.rootCommand.SetArgs([]string{"list"})
	require.ErrorIs(t, application.Execute(), buildError)
}

func TestRunReportsUnknownAction(t *testing.T) {
	errorOutput := &bytes.Buffer{}

	code := Run([]string{"frobnicate"}, errorOutput)
	require.Equal(t, 1, code)
	require.Equal(t, "Error: Unknown action: frobnicate\n", errorOutput.String())
}

func TestReportExecutionExitCodes(t *testing.T) {
	testCases := []struct {
		name           string
		executionError error
		expectedCode   int
		expectedOutput string
	}{
		{
			name:           "success",
			expectedCode:   0,
			expectedOutput: "",
		},
		{
			name:           "plain_failure",
			executionError: packages.MissingArgumentError{Command: "clean", Argument: "package-name"},
			expectedCode:   1,
			expectedOutput: "Error: missing required argument <package-name> for clean\n",
		},
		{
			name:           "gh_exit_code",
			executionError: fmt.Errorf("unable to clean: %w", ghcr.HTTPError{Operation: "delete version", StatusCode: 404, Message: "Not Found", Cause: exitCodeError{code: 4}}),
			expectedCode:   4,
		},
		{
			name:           "zero_exit_code_falls_back",
			executionError: exitCodeError{code: 0},
			expectedCode:   1,
			expectedOutput: "Error: exit status 0\n",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(subtest *testing.T) {
			errorOutput := &bytes.Buffer{}
			require.Equal(subtest, testCase.expectedCode, reportExecution(testCase.executionError, errorOutput))
			if testCase.executionError == nil {
				require.Empty(subtest, errorOutput.String())
				return
			}
			require.Equal(subtest, fmt.Sprintf("Error: %v\n", testCase.executionError), errorOutput.String())
			if len(testCase.expectedOutput) > 0 {
				require.Equal(subtest, testCase.expectedOutput, errorOutput.String())
			}
		})
	}
}

type exitCodeError struct {
	code int
}

func (failure exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", failure.code)
}

func (failure exitCodeError) ExitCode() int {
	return failure.code
}
