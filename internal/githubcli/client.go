package githubcli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/gh-container/internal/execshell"
)

const (
	apiSubcommandConstant                      = "api"
	authSubcommandConstant                     = "auth"
	statusSubcommandConstant                   = "status"
	paginateFlagConstant                       = "--paginate"
	jqFlagConstant                             = "--jq"
	methodFlagConstant                         = "-X"
	headerFlagConstant                         = "-H"
	acceptHeaderValueConstant                  = "Accept: application/vnd.github+json"
	httpMethodDeleteConstant                   = "DELETE"
	packageNamesJQExpressionConstant           = ".[].name"
	endpointFieldNameConstant                  = "endpoint"
	jqExpressionFieldNameConstant              = "jq_expression"
	requiredValueMessageConstant               = "value required"
	executorNotConfiguredMessageConstant       = "github cli executor not configured"
	operationErrorMessageTemplateConstant      = "%s operation failed"
	operationErrorWithCauseTemplateConstant    = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant      = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant          = "%s: %s"
	outputLineSeparatorConstant                = "\n"
	listPackagesOperationNameConstant          = OperationName("ListPackages")
	listPackageVersionsOperationNameConstant   = OperationName("ListPackageVersions")
	deletePackageVersionOperationNameConstant  = OperationName("DeletePackageVersion")
	authenticationStatusOperationNameConstant  = OperationName("AuthStatus")
	maximumVersionRecordLineBytesConstant      = 1 << 20
	initialVersionRecordLineBufferSizeConstant = 64 * 1024
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// PackageVersionRecord is one version emitted by the version listing query.
type PackageVersionRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []string  `json:"tags"`
}

// AuthenticationStatus captures the combined output of gh auth status.
type AuthenticationStatus struct {
	StandardOutput string
	StandardError  string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// ListPackageNames walks every page of a package listing endpoint and returns the package names.
func (client *Client) ListPackageNames(executionContext context.Context, endpoint string) ([]string, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if len(trimmedEndpoint) == 0 {
		return nil, InvalidInputError{FieldName: endpointFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			paginateFlagConstant,
			trimmedEndpoint,
			jqFlagConstant,
			packageNamesJQExpressionConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listPackagesOperationNameConstant, Cause: executionError}
	}

	packageNames := make([]string, 0)
	for _, outputLine := range strings.Split(executionResult.StandardOutput, outputLineSeparatorConstant) {
		packageName := strings.TrimSpace(outputLine)
		if len(packageName) == 0 {
			continue
		}
		packageNames = append(packageNames, packageName)
	}

	return packageNames, nil
}

// ListPackageVersions walks every page of a version listing endpoint, applying jqExpression to each page.
// The expression must emit one JSON object per line shaped like PackageVersionRecord.
func (client *Client) ListPackageVersions(executionContext context.Context, endpoint string, jqExpression string) ([]PackageVersionRecord, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if len(trimmedEndpoint) == 0 {
		return nil, InvalidInputError{FieldName: endpointFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedExpression := strings.TrimSpace(jqExpression)
	if len(trimmedExpression) == 0 {
		return nil, InvalidInputError{FieldName: jqExpressionFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			paginateFlagConstant,
			trimmedEndpoint,
			jqFlagConstant,
			trimmedExpression,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listPackageVersionsOperationNameConstant, Cause: executionError}
	}

	versionRecords := make([]PackageVersionRecord, 0)
	lineScanner := bufio.NewScanner(strings.NewReader(executionResult.StandardOutput))
	lineScanner.Buffer(make([]byte, 0, initialVersionRecordLineBufferSizeConstant), maximumVersionRecordLineBytesConstant)
	for lineScanner.Scan() {
		outputLine := strings.TrimSpace(lineScanner.Text())
		if len(outputLine) == 0 {
			continue
		}

		var versionRecord PackageVersionRecord
		if decodingError := json.Unmarshal([]byte(outputLine), &versionRecord); decodingError != nil {
			return nil, ResponseDecodingError{Operation: listPackageVersionsOperationNameConstant, Cause: decodingError}
		}
		if versionRecord.Tags == nil {
			versionRecord.Tags = []string{}
		}
		versionRecords = append(versionRecords, versionRecord)
	}
	if scanError := lineScanner.Err(); scanError != nil {
		return nil, ResponseDecodingError{Operation: listPackageVersionsOperationNameConstant, Cause: scanError}
	}

	return versionRecords, nil
}

// DeletePackageVersion issues a DELETE against the supplied package version endpoint.
func (client *Client) DeletePackageVersion(executionContext context.Context, endpoint string) error {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if len(trimmedEndpoint) == 0 {
		return InvalidInputError{FieldName: endpointFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			methodFlagConstant,
			httpMethodDeleteConstant,
			headerFlagConstant,
			acceptHeaderValueConstant,
			trimmedEndpoint,
		},
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: deletePackageVersionOperationNameConstant, Cause: executionError}
	}

	return nil
}

// AuthStatus runs gh auth status. Older gh releases print the report on standard error, so both streams are returned.
func (client *Client) AuthStatus(executionContext context.Context) (AuthenticationStatus, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{authSubcommandConstant, statusSubcommandConstant},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return AuthenticationStatus{}, OperationError{Operation: authenticationStatusOperationNameConstant, Cause: executionError}
	}

	return AuthenticationStatus{
		StandardOutput: executionResult.StandardOutput,
		StandardError:  executionResult.StandardError,
	}, nil
}
