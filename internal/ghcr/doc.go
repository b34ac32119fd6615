// Package ghcr models GitHub Container Registry packages and the calls made against them.
//
// It defines the Owner and PackageVersion types, the VersionQuery that turns
// listing flags into a jq filter and table projection, and two Registry
// implementations: CLIRegistry, which shells out to gh api, and RESTRegistry,
// which talks to the REST API directly through go-github.
package ghcr
