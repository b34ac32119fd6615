package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMessageFormatterDescribesRegistryCalls(testInstance *testing.T) {
	testCases := []struct {
		name            string
		command         ShellCommand
		build           func(formatter CommandMessageFormatter, command ShellCommand) string
		expectedMessage string
	}{
		{
			name: "list_user_packages",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments: []string{"api", "--paginate", "/user/packages?package_type=container", "--jq", ".[].name"},
			}},
			build:           CommandMessageFormatter.BuildStartedMessage,
			expectedMessage: "Listing packages of the authenticated user",
		},
		{
			name: "list_organization_packages",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments: []string{"api", "--paginate", "/orgs/acme/packages?package_type=container"},
			}},
			build:           CommandMessageFormatter.BuildSuccessMessage,
			expectedMessage: "Listed packages of acme",
		},
		{
			name: "list_versions",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments: []string{"api", "--paginate", "--jq", ".[]", "/user/packages/container/my-pkg/versions"},
			}},
			build:           CommandMessageFormatter.BuildStartedMessage,
			expectedMessage: "Listing versions of my-pkg",
		},
		{
			name: "delete_version_failure",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments: []string{"api", "-X", "DELETE", "-H", "Accept: application/vnd.github+json", "/users/octocat/packages/container/my-pkg/versions/10"},
			}},
			build: func(formatter CommandMessageFormatter, command ShellCommand) string {
				return formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 1, StandardError: "gh: Not Found (HTTP 404)"})
			},
			expectedMessage: "Failed to delete version 10 of my-pkg (exit code 1: gh: Not Found (HTTP 404))",
		},
		{
			name: "auth_status",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments: []string{"auth", "status"},
			}},
			build:           CommandMessageFormatter.BuildStartedMessage,
			expectedMessage: "Checking GitHub CLI authentication",
		},
		{
			name:    "finder_execution_failure",
			command: ShellCommand{Name: CommandFuzzyFinder},
			build: func(formatter CommandMessageFormatter, command ShellCommand) string {
				return formatter.BuildExecutionFailureMessage(command, errors.New("executable file not found"))
			},
			expectedMessage: "Unable to open fzf: executable file not found",
		},
		{
			name: "generic_fallback",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments:        []string{"repo", "view"},
				WorkingDirectory: "/workspace",
			}},
			build:           CommandMessageFormatter.BuildStartedMessage,
			expectedMessage: "Running gh repo view (in /workspace)",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			message := testCase.build(CommandMessageFormatter{}, testCase.command)
			require.Equal(testInstance, testCase.expectedMessage, message)
		})
	}
}
