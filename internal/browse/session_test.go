package browse

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gh-container/internal/execshell"
)

const (
	testPackageNameConstant  = "my-pkg"
	testVersionTableConstant = "PACKAGE ID SHA256 LAST UPDATE TAGS\nmy-pkg 10 sha256:aaa 2024-01-01T00:00:00Z\nmy-pkg 11 sha256:bbb 2024-01-02T00:00:00Z v1\n"
	testFirstRowConstant     = "my-pkg 10 sha256:aaa 2024-01-01T00:00:00Z"
	testSecondRowConstant    = "my-pkg 11 sha256:bbb 2024-01-02T00:00:00Z v1"
)

type recordingCatalog struct {
	tableCalls   int
	deletedIDs   []string
	tableError   error
	deleteError  error
	tableContent string
}

func (catalog *recordingCatalog) VersionTable(_ context.Context, packageName string) (string, error) {
	catalog.tableCalls++
	if catalog.tableError != nil {
		return "", catalog.tableError
	}
	if len(catalog.tableContent) > 0 {
		return catalog.tableContent, nil
	}
	return testVersionTableConstant, nil
}

func (catalog *recordingCatalog) DeleteVersion(_ context.Context, packageName string, versionID string) error {
	catalog.deletedIDs = append(catalog.deletedIDs, packageName+"/"+versionID)
	return catalog.deleteError
}

type finderResponse struct {
	output   string
	exitCode int
	err      error
}

type scriptedFinder struct {
	responses []finderResponse
	finders   []string
	details   []execshell.CommandDetails
}

func (finder *scriptedFinder) ExecuteFuzzyFinder(_ context.Context, finderName string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	finder.finders = append(finder.finders, finderName)
	finder.details = append(finder.details, details)
	if len(finder.responses) == 0 {
		return execshell.ExecutionResult{}, errors.New("unexpected finder launch")
	}
	response := finder.responses[0]
	finder.responses = finder.responses[1:]
	if response.err != nil {
		return execshell.ExecutionResult{}, response.err
	}
	result := execshell.ExecutionResult{StandardOutput: response.output, ExitCode: response.exitCode}
	if response.exitCode != 0 {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandName(finderName), Details: details},
			Result:  result,
		}
	}
	return result, nil
}

func TestSessionRun(testInstance *testing.T) {
	testCases := []struct {
		name               string
		responses          []finderResponse
		catalogDeleteError error
		expectedDeleted    []string
		expectedTableCalls int
		expectedOutput     string
		expectError        bool
	}{
		{
			name: "enter_prints_selected_row",
			responses: []finderResponse{
				{output: "\n" + testSecondRowConstant + "\n"},
			},
			expectedTableCalls: 1,
			expectedOutput:     testSecondRowConstant + "\n",
		},
		{
			name: "delete_key_deletes_and_relaunches",
			responses: []finderResponse{
				{output: "ctrl-d\n" + testFirstRowConstant + "\n"},
				{exitCode: 130},
			},
			expectedDeleted:    []string{"my-pkg/10"},
			expectedTableCalls: 2,
		},
		{
			name: "reload_key_relaunches",
			responses: []finderResponse{
				{output: "ctrl-r\n" + testFirstRowConstant + "\n"},
				{output: "\n" + testFirstRowConstant + "\n"},
			},
			expectedTableCalls: 2,
			expectedOutput:     testFirstRowConstant + "\n",
		},
		{
			name: "delete_key_without_selection_relaunches",
			responses: []finderResponse{
				{output: "ctrl-d\n"},
				{exitCode: 130},
			},
			expectedTableCalls: 2,
		},
		{
			name: "escape_ends_session",
			responses: []finderResponse{
				{exitCode: 130},
			},
			expectedTableCalls: 1,
		},
		{
			name: "no_match_ends_session",
			responses: []finderResponse{
				{output: "\n", exitCode: 1},
			},
			expectedTableCalls: 1,
		},
		{
			name: "finder_failure_is_returned",
			responses: []finderResponse{
				{exitCode: 2},
			},
			expectedTableCalls: 1,
			expectError:        true,
		},
		{
			name: "finder_launch_failure_is_returned",
			responses: []finderResponse{
				{err: errors.New("fzf not found")},
			},
			expectedTableCalls: 1,
			expectError:        true,
		},
		{
			name: "delete_failure_is_returned",
			responses: []finderResponse{
				{output: "ctrl-d\n" + testFirstRowConstant + "\n"},
			},
			catalogDeleteError: errors.New("gh failed with exit code 1: Not Found (HTTP 404)"),
			expectedDeleted:    []string{"my-pkg/10"},
			expectedTableCalls: 1,
			expectError:        true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			catalog := &recordingCatalog{deleteError: testCase.catalogDeleteError}
			finder := &scriptedFinder{responses: testCase.responses}
			output := &bytes.Buffer{}

			session, sessionError := NewSession(zap.NewNop(), catalog, finder, Configuration{}, WithTerminalDetector(func() bool { return true }), WithOutput(output))
			require.NoError(subtest, sessionError)

			runError := session.Run(context.Background(), testPackageNameConstant)
			if testCase.expectError {
				require.Error(subtest, runError)
			} else {
				require.NoError(subtest, runError)
			}

			require.Equal(subtest, testCase.expectedDeleted, catalog.deletedIDs)
			require.Equal(subtest, testCase.expectedTableCalls, catalog.tableCalls)
			require.Equal(subtest, testCase.expectedOutput, output.String())
			require.Empty(subtest, finder.responses)
		})
	}
}

func TestSessionRunRequiresTerminal(testInstance *testing.T) {
	catalog := &recordingCatalog{}
	finder := &scriptedFinder{}

	session, sessionError := NewSession(zap.NewNop(), catalog, finder, DefaultConfiguration(), WithTerminalDetector(func() bool { return false }))
	require.NoError(testInstance, sessionError)

	runError := session.Run(context.Background(), testPackageNameConstant)
	require.ErrorIs(testInstance, runError, ErrTerminalRequired)
	require.Zero(testInstance, catalog.tableCalls)
	require.Empty(testInstance, finder.finders)
}

func TestSessionRunReportsListingFailure(testInstance *testing.T) {
	listingError := errors.New("gh failed with exit code 1")
	catalog := &recordingCatalog{tableError: listingError}

	session, sessionError := NewSession(zap.NewNop(), catalog, &scriptedFinder{}, DefaultConfiguration(), WithTerminalDetector(func() bool { return true }))
	require.NoError(testInstance, sessionError)

	runError := session.Run(context.Background(), testPackageNameConstant)
	require.ErrorIs(testInstance, runError, listingError)
}

func TestSessionFinderInvocation(testInstance *testing.T) {
	testCases := []struct {
		name             string
		configuration    Configuration
		expectedFinder   string
		expectedExpect   string
		expectedBinding  string
		expectedHelpLine string
	}{
		{
			name:             "defaults",
			configuration:    Configuration{},
			expectedFinder:   "fzf",
			expectedExpect:   "--expect=ctrl-r,ctrl-d",
			expectedBinding:  "?:toggle-preview",
			expectedHelpLine: "ctrl-d   delete the selected version",
		},
		{
			name: "custom_keys",
			configuration: Configuration{
				Finder: "sk",
				Keys:   KeyBindings{Help: "f1", Reload: "ctrl-l", Delete: "del"},
			},
			expectedFinder:   "sk",
			expectedExpect:   "--expect=ctrl-l,del",
			expectedBinding:  "f1:toggle-preview",
			expectedHelpLine: "del      delete the selected version",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			catalog := &recordingCatalog{}
			finder := &scriptedFinder{responses: []finderResponse{{exitCode: 130}}}

			session, sessionError := NewSession(zap.NewNop(), catalog, finder, testCase.configuration, WithTerminalDetector(func() bool { return true }))
			require.NoError(subtest, sessionError)
			require.NoError(subtest, session.Run(context.Background(), testPackageNameConstant))

			require.Equal(subtest, []string{testCase.expectedFinder}, finder.finders)
			details := finder.details[0]
			require.True(subtest, details.Interactive)
			require.Equal(subtest, testVersionTableConstant, string(details.StandardInput))
			require.Contains(subtest, details.Arguments, "--header-lines=1")
			require.Contains(subtest, details.Arguments, testCase.expectedExpect)
			require.Contains(subtest, details.Arguments, testCase.expectedBinding)
			require.Contains(subtest, details.EnvironmentVariables[helpEnvironmentVariableConstant], testCase.expectedHelpLine)
		})
	}
}

func TestNewSessionValidatesCollaborators(testInstance *testing.T) {
	_, loggerError := NewSession(nil, &recordingCatalog{}, &scriptedFinder{}, Configuration{})
	require.ErrorIs(testInstance, loggerError, ErrSessionLoggerNotConfigured)

	_, catalogError := NewSession(zap.NewNop(), nil, &scriptedFinder{}, Configuration{})
	require.ErrorIs(testInstance, catalogError, ErrSessionCatalogNotConfigured)

	_, executorError := NewSession(zap.NewNop(), &recordingCatalog{}, nil, Configuration{})
	require.ErrorIs(testInstance, executorError, ErrSessionExecutorNotConfigured)
}
