package ghcr

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// ContainerPackageType is the GitHub Packages type managed by the CLI.
const ContainerPackageType = "container"

// PackageVersion is one registry-reported version of a package.
type PackageVersion struct {
	ID        int64     `json:"id" yaml:"id"`
	Digest    string    `json:"digest" yaml:"digest"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Tags      []string  `json:"tags" yaml:"tags"`
}

// IsTagged reports whether the version carries at least one tag.
func (version PackageVersion) IsTagged() bool {
	return len(version.Tags) > 0
}

// DeleteRequest addresses a single package version for deletion.
type DeleteRequest struct {
	Owner       Owner
	PackageType string
	PackageName string
	VersionID   string
}

// NumericVersionID parses VersionID as the positive integer the registry expects.
func (request DeleteRequest) NumericVersionID() (int64, error) {
	trimmedIdentifier := strings.TrimSpace(request.VersionID)
	versionIdentifier, parseError := strconv.ParseInt(trimmedIdentifier, 10, 64)
	if parseError != nil || versionIdentifier <= 0 {
		return 0, InvalidVersionIDError{Value: request.VersionID}
	}
	return versionIdentifier, nil
}

// Registry executes package registry calls on behalf of an owner.
type Registry interface {
	ListPackages(executionContext context.Context, owner Owner, packageType string) ([]string, error)
	ListVersions(executionContext context.Context, owner Owner, packageType string, packageName string, query VersionQuery) ([]PackageVersion, error)
	DeleteVersion(executionContext context.Context, request DeleteRequest) error
	CurrentUsername(executionContext context.Context) (string, error)
}
