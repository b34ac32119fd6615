// Package ui provides helpers for formatting human-readable console output.
//
// It renders aligned tables and structured JSON or YAML documents, and
// translates external command events into concise log messages so that
// registry calls remain visible without drowning the primary output.
package ui
