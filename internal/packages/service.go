package packages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/temirov/gh-container/internal/ghcr"
	"github.com/temirov/gh-container/internal/utils"
)

const (
	serviceLoggerNotConfiguredMessageConstant   = "package service logger not configured"
	serviceRegistryNotConfiguredMessageConstant = "package service registry not configured"
	serviceOutputNotConfiguredMessageConstant   = "package service output not configured"
	cleanProgressTemplateConstant               = "clean %s %s\n"
	resolveOwnerErrorTemplateConstant           = "unable to resolve package owner: %w"
	listUntaggedErrorTemplateConstant           = "unable to list untagged versions of %s: %w"
	rateLimitWaitErrorTemplateConstant          = "clean of %s interrupted: %w"
	nothingToCleanLogMessageConstant            = "no version selected; pass a version id or --untagged"
	dryRunSkippedLogMessageConstant             = "dry run: version not deleted"
	versionDeletedLogMessageConstant            = "package version deleted"
	cleanCompletedLogMessageConstant            = "clean completed"
	logFieldPackageConstant                     = "package"
	logFieldVersionIDConstant                   = "version_id"
	logFieldOwnerConstant                       = "owner"
	logFieldRequestedCountConstant              = "requested"
	logFieldDeletedCountConstant                = "deleted"
)

var (
	// ErrServiceLoggerNotConfigured indicates a missing logger.
	ErrServiceLoggerNotConfigured = errors.New(serviceLoggerNotConfiguredMessageConstant)
	// ErrServiceRegistryNotConfigured indicates a missing registry.
	ErrServiceRegistryNotConfigured = errors.New(serviceRegistryNotConfiguredMessageConstant)
	// ErrServiceOutputNotConfigured indicates a missing progress writer.
	ErrServiceOutputNotConfigured = errors.New(serviceOutputNotConfiguredMessageConstant)
)

// ServiceConfiguration tunes a Service.
type ServiceConfiguration struct {
	PackageType string
	// Organization scopes every call to an organization; empty means the authenticated user.
	Organization string
	// RequestsPerSecond paces deletes; zero or less leaves them unpaced.
	RequestsPerSecond float64
	Output            io.Writer
}

// VersionsOptions selects the versions listed for a package.
type VersionsOptions struct {
	PackageName     string
	UntaggedOnly    bool
	TaggedOnly      bool
	ShowPackageName bool
}

// CleanOptions selects the versions deleted from a package.
type CleanOptions struct {
	PackageName  string
	VersionID    string
	UntaggedOnly bool
	DryRun       bool
}

// CleanResult lists the version identifiers a clean selected and the ones it removed.
type CleanResult struct {
	Requested []string
	Deleted   []string
}

// Service runs package operations against a registry.
type Service struct {
	logger       *zap.Logger
	registry     ghcr.Registry
	packageType  string
	organization string
	limiter      *rate.Limiter
	output       io.Writer
}

// NewService constructs a Service.
func NewService(logger *zap.Logger, registry ghcr.Registry, configuration ServiceConfiguration) (*Service, error) {
	if logger == nil {
		return nil, ErrServiceLoggerNotConfigured
	}
	if registry == nil {
		return nil, ErrServiceRegistryNotConfigured
	}
	if configuration.Output == nil {
		return nil, ErrServiceOutputNotConfigured
	}

	packageType := strings.TrimSpace(configuration.PackageType)
	if len(packageType) == 0 {
		packageType = ghcr.ContainerPackageType
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if configuration.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(configuration.RequestsPerSecond), 1)
	}

	return &Service{
		logger:       logger,
		registry:     registry,
		packageType:  packageType,
		organization: strings.TrimSpace(configuration.Organization),
		limiter:      limiter,
		output:       utils.NewProgressWriter(configuration.Output),
	}, nil
}

// ListPackages returns the names of the owner's packages.
func (service *Service) ListPackages(executionContext context.Context) ([]string, error) {
	return service.registry.ListPackages(executionContext, service.listingOwner(), service.packageType)
}

// ListVersions returns the matching versions of a package together with the query that selected them.
func (service *Service) ListVersions(executionContext context.Context, options VersionsOptions) ([]ghcr.PackageVersion, ghcr.VersionQuery, error) {
	if len(strings.TrimSpace(options.PackageName)) == 0 {
		return nil, ghcr.VersionQuery{}, ghcr.ErrPackageNameRequired
	}

	filter, filterError := ghcr.NewFilterSpec(options.UntaggedOnly, options.TaggedOnly, options.ShowPackageName)
	if filterError != nil {
		return nil, ghcr.VersionQuery{}, filterError
	}

	query := ghcr.NewVersionQuery(filter, options.PackageName)
	versions, listError := service.registry.ListVersions(executionContext, service.listingOwner(), service.packageType, options.PackageName, query)
	if listError != nil {
		return nil, query, listError
	}
	return versions, query, nil
}

// Clean deletes the selected versions one at a time, in order, printing a progress line before each.
// The first failure aborts the remaining deletes.
func (service *Service) Clean(executionContext context.Context, options CleanOptions) (CleanResult, error) {
	result := CleanResult{Requested: []string{}, Deleted: []string{}}
	if len(strings.TrimSpace(options.PackageName)) == 0 {
		return result, ghcr.ErrPackageNameRequired
	}

	owner, ownerError := service.deleteOwner(executionContext)
	if ownerError != nil {
		return result, fmt.Errorf(resolveOwnerErrorTemplateConstant, ownerError)
	}

	identifiers, selectionError := service.selectIdentifiers(executionContext, owner, options)
	if selectionError != nil {
		return result, selectionError
	}
	result.Requested = identifiers

	packageField := zap.String(logFieldPackageConstant, options.PackageName)
	if len(identifiers) == 0 {
		service.logger.Warn(nothingToCleanLogMessageConstant, packageField)
		return result, nil
	}

	for _, versionID := range identifiers {
		if _, writeError := fmt.Fprintf(service.output, cleanProgressTemplateConstant, options.PackageName, versionID); writeError != nil {
			return result, writeError
		}

		versionField := zap.String(logFieldVersionIDConstant, versionID)
		if options.DryRun {
			service.logger.Info(dryRunSkippedLogMessageConstant, packageField, versionField)
			continue
		}

		if waitError := service.limiter.Wait(executionContext); waitError != nil {
			return result, fmt.Errorf(rateLimitWaitErrorTemplateConstant, options.PackageName, waitError)
		}

		deleteError := service.registry.DeleteVersion(executionContext, ghcr.DeleteRequest{
			Owner:       owner,
			PackageType: service.packageType,
			PackageName: options.PackageName,
			VersionID:   versionID,
		})
		if deleteError != nil {
			return result, deleteError
		}

		result.Deleted = append(result.Deleted, versionID)
		service.logger.Debug(versionDeletedLogMessageConstant, packageField, versionField, zap.String(logFieldOwnerConstant, owner.String()))
	}

	service.logger.Info(
		cleanCompletedLogMessageConstant,
		packageField,
		zap.Int(logFieldRequestedCountConstant, len(result.Requested)),
		zap.Int(logFieldDeletedCountConstant, len(result.Deleted)),
	)
	return result, nil
}

func (service *Service) selectIdentifiers(executionContext context.Context, owner ghcr.Owner, options CleanOptions) ([]string, error) {
	if options.UntaggedOnly {
		filter, filterError := ghcr.NewFilterSpec(true, false, false)
		if filterError != nil {
			return nil, filterError
		}
		versions, listError := service.registry.ListVersions(executionContext, owner, service.packageType, options.PackageName, ghcr.NewVersionQuery(filter, options.PackageName))
		if listError != nil {
			return nil, fmt.Errorf(listUntaggedErrorTemplateConstant, options.PackageName, listError)
		}
		identifiers := make([]string, 0, len(versions))
		for _, version := range versions {
			identifiers = append(identifiers, strconv.FormatInt(version.ID, 10))
		}
		return identifiers, nil
	}

	versionID := strings.TrimSpace(options.VersionID)
	if len(versionID) == 0 {
		return []string{}, nil
	}
	return []string{versionID}, nil
}

func (service *Service) listingOwner() ghcr.Owner {
	if len(service.organization) > 0 {
		return ghcr.Organization(service.organization)
	}
	return ghcr.AuthenticatedUser()
}

// deleteOwner names the owner explicitly since delete endpoints address users by login.
func (service *Service) deleteOwner(executionContext context.Context) (ghcr.Owner, error) {
	if len(service.organization) > 0 {
		return ghcr.Organization(service.organization), nil
	}
	username, usernameError := service.registry.CurrentUsername(executionContext)
	if usernameError != nil {
		return ghcr.Owner{}, usernameError
	}
	return ghcr.Owner{Type: ghcr.UserOwnerType, Name: username}, nil
}
