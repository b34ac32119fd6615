package utils

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// ExpandHomeDirectory resolves a leading tilde to the user's home directory.
func ExpandHomeDirectory(candidatePath string) string {
	return ExpandHomeDirectoryWithProvider(candidatePath, os.UserHomeDir)
}

// ExpandHomeDirectoryWithProvider resolves a leading tilde using the supplied provider.
// Paths such as "~other/file" and lookups that fail are returned unchanged.
func ExpandHomeDirectoryWithProvider(candidatePath string, provider HomeDirectoryProvider) string {
	if provider == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	var relativePath string
	switch {
	case candidatePath == tildeSymbolConstant:
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		relativePath = strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant)
	case strings.HasPrefix(candidatePath, tildeSymbolConstant+string(os.PathSeparator)):
		relativePath = strings.TrimPrefix(candidatePath, tildeSymbolConstant+string(os.PathSeparator))
	default:
		return candidatePath
	}

	homeDirectory, homeDirectoryError := provider()
	if homeDirectoryError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, relativePath)
}
