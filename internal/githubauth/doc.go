// Package githubauth locates GitHub API tokens in the conventional environment variables.
package githubauth
