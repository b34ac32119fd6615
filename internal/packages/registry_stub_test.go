package packages_test

import (
	"context"
	"strconv"

	"github.com/temirov/gh-container/internal/ghcr"
)

type stubRegistry struct {
	packageNames     []string
	versions         []ghcr.PackageVersion
	username         string
	usernameError    error
	listError        error
	deleteErrors     map[string]error
	listedOwners     []ghcr.Owner
	listedQueries    []ghcr.VersionQuery
	deleteRequests   []ghcr.DeleteRequest
	usernameLookups  int
	listPackagesCall int
}

func (registry *stubRegistry) ListPackages(_ context.Context, owner ghcr.Owner, _ string) ([]string, error) {
	registry.listPackagesCall++
	registry.listedOwners = append(registry.listedOwners, owner)
	if registry.listError != nil {
		return nil, registry.listError
	}
	return registry.packageNames, nil
}

func (registry *stubRegistry) ListVersions(_ context.Context, owner ghcr.Owner, _ string, _ string, query ghcr.VersionQuery) ([]ghcr.PackageVersion, error) {
	registry.listedOwners = append(registry.listedOwners, owner)
	registry.listedQueries = append(registry.listedQueries, query)
	if registry.listError != nil {
		return nil, registry.listError
	}
	matching := make([]ghcr.PackageVersion, 0, len(registry.versions))
	for _, version := range registry.versions {
		if query.Matches(version) {
			matching = append(matching, version)
		}
	}
	return matching, nil
}

func (registry *stubRegistry) DeleteVersion(_ context.Context, request ghcr.DeleteRequest) error {
	registry.deleteRequests = append(registry.deleteRequests, request)
	if deleteError, found := registry.deleteErrors[request.VersionID]; found {
		return deleteError
	}
	return nil
}

func (registry *stubRegistry) CurrentUsername(_ context.Context) (string, error) {
	registry.usernameLookups++
	if registry.usernameError != nil {
		return "", registry.usernameError
	}
	return registry.username, nil
}

func (registry *stubRegistry) deletedIdentifiers() []string {
	identifiers := make([]string, 0, len(registry.deleteRequests))
	for _, request := range registry.deleteRequests {
		identifiers = append(identifiers, request.VersionID)
	}
	return identifiers
}

func versionFixture(identifier int64, tags ...string) ghcr.PackageVersion {
	if tags == nil {
		tags = []string{}
	}
	return ghcr.PackageVersion{
		ID:     identifier,
		Digest: "sha256:" + strconv.FormatInt(identifier, 10),
		Tags:   tags,
	}
}
