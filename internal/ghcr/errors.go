package ghcr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	conflictingFiltersMessageConstant          = "--untagged and --tagged cannot be combined"
	httpErrorTemplateConstant                  = "%s failed with HTTP %d: %s"
	httpErrorWithoutStatusTemplateConstant     = "%s failed: %s"
	authLookupErrorMessageConstant             = "unable to determine the authenticated GitHub user"
	authLookupErrorWithCauseTemplateConstant   = "unable to determine the authenticated GitHub user: %v"
	defaultHTTPErrorExitCodeConstant           = 1
	httpStatusSubmatchIndexConstant            = 1
	httpStatusPatternConstant                  = `\(HTTP (\d{3})\)`
	unknownHTTPErrorMessageConstant            = "unknown error"
	invalidVersionIdentifierTemplateConstant   = "invalid version id %q"
	missingPackageNameErrorMessageConstant     = "package name must be provided"
	missingDeleteOwnerNameErrorMessageConstant = "owner name must be provided for deletion"
)

var (
	// ErrConflictingFilters indicates that untagged-only and tagged-only filters were requested together.
	ErrConflictingFilters = errors.New(conflictingFiltersMessageConstant)
	// ErrPackageNameRequired indicates a registry call without a package name.
	ErrPackageNameRequired = errors.New(missingPackageNameErrorMessageConstant)
	// ErrDeleteOwnerRequired indicates a delete request without a resolved owner name.
	ErrDeleteOwnerRequired = errors.New(missingDeleteOwnerNameErrorMessageConstant)

	httpStatusPattern = regexp.MustCompile(httpStatusPatternConstant)
)

// HTTPError reports a registry call that ended with a non-success response.
type HTTPError struct {
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

// Error describes the failed call.
func (httpError HTTPError) Error() string {
	message := strings.TrimSpace(httpError.Message)
	if len(message) == 0 {
		message = unknownHTTPErrorMessageConstant
	}
	if httpError.StatusCode == 0 {
		return fmt.Sprintf(httpErrorWithoutStatusTemplateConstant, httpError.Operation, message)
	}
	return fmt.Sprintf(httpErrorTemplateConstant, httpError.Operation, httpError.StatusCode, message)
}

// Unwrap exposes the underlying cause.
func (httpError HTTPError) Unwrap() error {
	return httpError.Cause
}

// ExitCode propagates the exit code of a failed gh invocation, defaulting to 1.
func (httpError HTTPError) ExitCode() int {
	var exitCoder interface{ ExitCode() int }
	if httpError.Cause != nil && errors.As(httpError.Cause, &exitCoder) {
		if exitCode := exitCoder.ExitCode(); exitCode != 0 {
			return exitCode
		}
	}
	return defaultHTTPErrorExitCodeConstant
}

// ParseHTTPStatus extracts the status code gh appends to API failures, for example "(HTTP 404)".
// It returns 0 when no status is present.
func ParseHTTPStatus(message string) int {
	matches := httpStatusPattern.FindStringSubmatch(message)
	if len(matches) <= httpStatusSubmatchIndexConstant {
		return 0
	}
	statusCode, parseError := strconv.Atoi(matches[httpStatusSubmatchIndexConstant])
	if parseError != nil {
		return 0
	}
	return statusCode
}

// AuthLookupError reports that the authenticated user could not be resolved.
type AuthLookupError struct {
	Output string
	Cause  error
}

// Error describes the lookup failure.
func (lookupError AuthLookupError) Error() string {
	if lookupError.Cause != nil {
		return fmt.Sprintf(authLookupErrorWithCauseTemplateConstant, lookupError.Cause)
	}
	return authLookupErrorMessageConstant
}

// Unwrap exposes the underlying cause.
func (lookupError AuthLookupError) Unwrap() error {
	return lookupError.Cause
}

// InvalidVersionIDError reports a version identifier that is not a positive integer.
type InvalidVersionIDError struct {
	Value string
}

// Error describes the invalid identifier.
func (identifierError InvalidVersionIDError) Error() string {
	return fmt.Sprintf(invalidVersionIdentifierTemplateConstant, identifierError.Value)
}
