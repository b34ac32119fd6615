// Package browse drives an interactive fuzzy finder over the versions of a container package.
package browse
