package ghcr

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	ownerTypeUserConstant              OwnerType = "user"
	ownerTypeOrganizationConstant      OwnerType = "org"
	usersPathSegmentConstant                     = "users"
	organizationsPathSegmentConstant             = "orgs"
	authenticatedUserPathSegment                 = "user"
	ownerTypeEmptyErrorMessageConstant           = "owner type must be provided"
	ownerTypeInvalidTemplateConstant             = "owner type %q is not supported"
	packagesEndpointTemplateConstant             = "/%s/packages?package_type=%s"
	versionsEndpointTemplateConstant             = "/%s/packages/%s/%s/versions"
	versionEndpointTemplateConstant              = "/%s/packages/%s/%s/versions/%s"
	ownerScopeTemplateConstant                   = "%s/%s"
)

// OwnerType enumerates supported GHCR owner scopes.
type OwnerType string

// UserOwnerType identifies GitHub user-owned container packages.
const UserOwnerType OwnerType = ownerTypeUserConstant

// OrganizationOwnerType identifies organization-owned container packages.
const OrganizationOwnerType OwnerType = ownerTypeOrganizationConstant

// ParseOwnerType normalizes textual owner type values.
func ParseOwnerType(ownerTypeValue string) (OwnerType, error) {
	trimmedValue := strings.TrimSpace(ownerTypeValue)
	if len(trimmedValue) == 0 {
		return "", fmt.Errorf(ownerTypeEmptyErrorMessageConstant)
	}

	lowerCasedValue := strings.ToLower(trimmedValue)
	switch OwnerType(lowerCasedValue) {
	case UserOwnerType:
		return UserOwnerType, nil
	case OrganizationOwnerType:
		return OrganizationOwnerType, nil
	default:
		return "", fmt.Errorf(ownerTypeInvalidTemplateConstant, ownerTypeValue)
	}
}

// PathSegment resolves the REST API segment for the owner type.
func (ownerType OwnerType) PathSegment() string {
	switch ownerType {
	case OrganizationOwnerType:
		return organizationsPathSegmentConstant
	default:
		return usersPathSegmentConstant
	}
}

// Owner identifies the account whose packages are managed.
// A user owner with an empty Name refers to the authenticated user.
type Owner struct {
	Type OwnerType
	Name string
}

// AuthenticatedUser returns the owner for the identity behind the current credentials.
func AuthenticatedUser() Owner {
	return Owner{Type: UserOwnerType}
}

// Organization returns an organization owner.
func Organization(organizationName string) Owner {
	return Owner{Type: OrganizationOwnerType, Name: strings.TrimSpace(organizationName)}
}

// IsOrganization reports whether the owner is an organization.
func (owner Owner) IsOrganization() bool {
	return owner.Type == OrganizationOwnerType
}

// String renders the owner for log output.
func (owner Owner) String() string {
	if len(owner.Name) == 0 {
		return authenticatedUserPathSegment
	}
	return fmt.Sprintf(ownerScopeTemplateConstant, owner.Type.PathSegment(), owner.Name)
}

// PackagesEndpoint returns the package listing endpoint for packageType.
func (owner Owner) PackagesEndpoint(packageType string) string {
	return fmt.Sprintf(packagesEndpointTemplateConstant, owner.listingScope(), url.QueryEscape(packageType))
}

// VersionsEndpoint returns the version listing endpoint of a package.
func (owner Owner) VersionsEndpoint(packageType string, packageName string) string {
	return fmt.Sprintf(versionsEndpointTemplateConstant, owner.listingScope(), url.PathEscape(packageType), url.PathEscape(packageName))
}

// VersionEndpoint returns the endpoint addressing a single package version.
// User owners are addressed by name so the call names the account explicitly.
func (owner Owner) VersionEndpoint(packageType string, packageName string, versionID string) string {
	scope := owner.listingScope()
	if len(owner.Name) > 0 {
		scope = fmt.Sprintf(ownerScopeTemplateConstant, owner.Type.PathSegment(), url.PathEscape(owner.Name))
	}
	return fmt.Sprintf(versionEndpointTemplateConstant, scope, url.PathEscape(packageType), url.PathEscape(packageName), url.PathEscape(versionID))
}

func (owner Owner) listingScope() string {
	if owner.IsOrganization() {
		return fmt.Sprintf(ownerScopeTemplateConstant, organizationsPathSegmentConstant, url.PathEscape(owner.Name))
	}
	return authenticatedUserPathSegment
}
