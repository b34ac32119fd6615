package ghcr

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gh-container/internal/execshell"
	"github.com/temirov/gh-container/internal/githubcli"
)

const (
	cliRegistryLoggerNotConfiguredMessageConstant = "gh registry logger not configured"
	cliRegistryClientNotConfiguredMessageConstant = "gh registry client not configured"
	listPackagesOperationNameConstant             = "list packages"
	listVersionsOperationNameConstant             = "list versions"
	deleteVersionOperationNameConstant            = "delete version"
	authenticatedUserPatternConstant              = `Logged in (?:to \S+ (?:account|as) |as )([^\s()]+)`
	authenticatedUserSubmatchIndexConstant        = 1
	registryCallFailedTemplateConstant            = "%s: %w"
	versionsListedLogMessageConstant              = "package versions listed"
	packagesListedLogMessageConstant              = "packages listed"
	usernameResolvedLogMessageConstant            = "authenticated user resolved"
	logFieldOwnerConstant                         = "owner"
	logFieldPackageConstant                       = "package"
	logFieldCountConstant                         = "count"
	logFieldFilterConstant                        = "filter"
	logFieldUsernameConstant                      = "username"
	logFieldBackendConstant                       = "backend"
	cliBackendLogValueConstant                    = "gh"
)

var (
	// ErrCLIRegistryLoggerNotConfigured indicates a missing logger.
	ErrCLIRegistryLoggerNotConfigured = errors.New(cliRegistryLoggerNotConfiguredMessageConstant)
	// ErrCLIRegistryClientNotConfigured indicates a missing GitHub CLI client.
	ErrCLIRegistryClientNotConfigured = errors.New(cliRegistryClientNotConfiguredMessageConstant)

	authenticatedUserPattern = regexp.MustCompile(authenticatedUserPatternConstant)
)

// GitHubCLIClient is the subset of githubcli.Client used by CLIRegistry.
type GitHubCLIClient interface {
	ListPackageNames(executionContext context.Context, endpoint string) ([]string, error)
	ListPackageVersions(executionContext context.Context, endpoint string, jqExpression string) ([]githubcli.PackageVersionRecord, error)
	DeletePackageVersion(executionContext context.Context, endpoint string) error
	AuthStatus(executionContext context.Context) (githubcli.AuthenticationStatus, error)
}

// CLIRegistry serves registry calls through gh api, relying on gh for authentication and pagination.
type CLIRegistry struct {
	logger *zap.Logger
	client GitHubCLIClient
}

// NewCLIRegistry constructs a CLIRegistry.
func NewCLIRegistry(logger *zap.Logger, client GitHubCLIClient) (*CLIRegistry, error) {
	if logger == nil {
		return nil, ErrCLIRegistryLoggerNotConfigured
	}
	if client == nil {
		return nil, ErrCLIRegistryClientNotConfigured
	}
	return &CLIRegistry{logger: logger, client: client}, nil
}

// ListPackages returns the names of every package of packageType owned by owner.
func (registry *CLIRegistry) ListPackages(executionContext context.Context, owner Owner, packageType string) ([]string, error) {
	packageNames, listError := registry.client.ListPackageNames(executionContext, owner.PackagesEndpoint(packageType))
	if listError != nil {
		return nil, translateCLIError(listPackagesOperationNameConstant, listError)
	}

	registry.logger.Debug(
		packagesListedLogMessageConstant,
		zap.String(logFieldBackendConstant, cliBackendLogValueConstant),
		zap.Stringer(logFieldOwnerConstant, owner),
		zap.Int(logFieldCountConstant, len(packageNames)),
	)
	return packageNames, nil
}

// ListVersions returns the versions of packageName selected by query, filtered by gh through the query's jq expression.
func (registry *CLIRegistry) ListVersions(executionContext context.Context, owner Owner, packageType string, packageName string, query VersionQuery) ([]PackageVersion, error) {
	if len(strings.TrimSpace(packageName)) == 0 {
		return nil, ErrPackageNameRequired
	}

	versionRecords, listError := registry.client.ListPackageVersions(executionContext, owner.VersionsEndpoint(packageType, packageName), query.JQExpression())
	if listError != nil {
		return nil, translateCLIError(listVersionsOperationNameConstant, listError)
	}

	versions := make([]PackageVersion, 0, len(versionRecords))
	for _, versionRecord := range versionRecords {
		versions = append(versions, PackageVersion{
			ID:        versionRecord.ID,
			Digest:    versionRecord.Name,
			UpdatedAt: versionRecord.UpdatedAt,
			Tags:      versionRecord.Tags,
		})
	}

	registry.logger.Debug(
		versionsListedLogMessageConstant,
		zap.String(logFieldBackendConstant, cliBackendLogValueConstant),
		zap.Stringer(logFieldOwnerConstant, owner),
		zap.String(logFieldPackageConstant, packageName),
		zap.Stringer(logFieldFilterConstant, query.Filter.Mode),
		zap.Int(logFieldCountConstant, len(versions)),
	)
	return versions, nil
}

// DeleteVersion deletes a single package version.
func (registry *CLIRegistry) DeleteVersion(executionContext context.Context, request DeleteRequest) error {
	if len(strings.TrimSpace(request.PackageName)) == 0 {
		return ErrPackageNameRequired
	}
	if len(strings.TrimSpace(request.Owner.Name)) == 0 {
		return ErrDeleteOwnerRequired
	}
	if _, identifierError := request.NumericVersionID(); identifierError != nil {
		return identifierError
	}

	deleteError := registry.client.DeletePackageVersion(
		executionContext,
		request.Owner.VersionEndpoint(request.PackageType, request.PackageName, strings.TrimSpace(request.VersionID)),
	)
	if deleteError != nil {
		return translateCLIError(deleteVersionOperationNameConstant, deleteError)
	}
	return nil
}

// CurrentUsername resolves the login reported by gh auth status.
func (registry *CLIRegistry) CurrentUsername(executionContext context.Context) (string, error) {
	status, statusError := registry.client.AuthStatus(executionContext)
	if statusError != nil {
		return "", AuthLookupError{Output: commandStandardError(statusError), Cause: statusError}
	}

	combinedOutput := status.StandardOutput + "\n" + status.StandardError
	username, found := ParseAuthenticatedUsername(combinedOutput)
	if !found {
		return "", AuthLookupError{Output: combinedOutput}
	}

	registry.logger.Debug(usernameResolvedLogMessageConstant, zap.String(logFieldUsernameConstant, username))
	return username, nil
}

// ParseAuthenticatedUsername finds the first "Logged in ..." line in gh auth status output and returns the account name.
func ParseAuthenticatedUsername(authStatusOutput string) (string, bool) {
	matches := authenticatedUserPattern.FindStringSubmatch(authStatusOutput)
	if len(matches) <= authenticatedUserSubmatchIndexConstant {
		return "", false
	}
	return matches[authenticatedUserSubmatchIndexConstant], true
}

func translateCLIError(operation string, callError error) error {
	var failedError execshell.CommandFailedError
	if errors.As(callError, &failedError) {
		standardError := strings.TrimSpace(failedError.Result.StandardError)
		return HTTPError{
			Operation:  operation,
			StatusCode: ParseHTTPStatus(standardError),
			Message:    standardError,
			Cause:      callError,
		}
	}
	return fmt.Errorf(registryCallFailedTemplateConstant, operation, callError)
}

func commandStandardError(callError error) string {
	var failedError execshell.CommandFailedError
	if errors.As(callError, &failedError) {
		return failedError.Result.StandardError
	}
	return ""
}
