package ghcr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gh-container/internal/execshell"
	"github.com/temirov/gh-container/internal/ghcr"
)

func TestParseHTTPStatus(testInstance *testing.T) {
	testCases := []struct {
		name           string
		message        string
		expectedStatus int
	}{
		{name: "not_found", message: "gh: Not Found (HTTP 404)", expectedStatus: 404},
		{name: "forbidden_multiline", message: "{\"message\":\"denied\"}\ngh: Forbidden (HTTP 403)\n", expectedStatus: 403},
		{name: "absent", message: "could not resolve host", expectedStatus: 0},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedStatus, ghcr.ParseHTTPStatus(testCase.message))
		})
	}
}

func TestHTTPErrorExitCode(testInstance *testing.T) {
	commandError := execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 4}}

	withCommandCause := ghcr.HTTPError{Operation: "delete version", StatusCode: 404, Message: "gh: Not Found (HTTP 404)", Cause: commandError}
	require.Equal(testInstance, 4, withCommandCause.ExitCode())
	require.Equal(testInstance, "delete version failed with HTTP 404: gh: Not Found (HTTP 404)", withCommandCause.Error())
	require.True(testInstance, errors.As(error(withCommandCause), &commandError))

	withoutCause := ghcr.HTTPError{Operation: "list versions", Message: "boom"}
	require.Equal(testInstance, 1, withoutCause.ExitCode())
	require.Equal(testInstance, "list versions failed: boom", withoutCause.Error())
}

func TestDeleteRequestNumericVersionID(testInstance *testing.T) {
	identifier, parseError := ghcr.DeleteRequest{VersionID: " 42 "}.NumericVersionID()
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, int64(42), identifier)

	for _, invalidValue := range []string{"", "abc", "-1", "0"} {
		_, parseError = ghcr.DeleteRequest{VersionID: invalidValue}.NumericVersionID()
		var identifierError ghcr.InvalidVersionIDError
		require.ErrorAs(testInstance, parseError, &identifierError)
	}
}
