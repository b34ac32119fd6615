package ghcr

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	headerPackageConstant            = "PACKAGE"
	headerIdentifierConstant         = "ID"
	headerDigestConstant             = "SHA256"
	headerLastUpdateConstant         = "LAST UPDATE"
	headerTagsConstant               = "TAGS"
	tagSeparatorConstant             = " "
	untaggedPredicateConstant        = "(.metadata.container.tags | length) == 0"
	taggedPredicateConstant          = "(.metadata.container.tags | length) != 0"
	allVersionsPredicateConstant     = "true"
	versionProjectionConstant        = "{id, name, updated_at, tags: (.metadata.container.tags // [])}"
	jqExpressionTemplateConstant     = ".[] | select(%s) | %s | @json"
	filterModeAllStringConstant      = "all"
	filterModeUntaggedStringConstant = "untagged"
	filterModeTaggedStringConstant   = "tagged"
)

// FilterMode selects which versions a query returns.
type FilterMode int

// Supported filter modes.
const (
	FilterModeAll FilterMode = iota
	FilterModeUntaggedOnly
	FilterModeTaggedOnly
)

// String renders the mode for log output.
func (mode FilterMode) String() string {
	switch mode {
	case FilterModeUntaggedOnly:
		return filterModeUntaggedStringConstant
	case FilterModeTaggedOnly:
		return filterModeTaggedStringConstant
	default:
		return filterModeAllStringConstant
	}
}

// FilterSpec describes the filtering and projection requested for a version listing.
type FilterSpec struct {
	Mode               FilterMode
	IncludePackageName bool
}

// NewFilterSpec derives a FilterSpec from the listing flags.
func NewFilterSpec(untaggedOnly bool, taggedOnly bool, includePackageName bool) (FilterSpec, error) {
	if untaggedOnly && taggedOnly {
		return FilterSpec{}, ErrConflictingFilters
	}

	filterSpec := FilterSpec{Mode: FilterModeAll, IncludePackageName: includePackageName}
	switch {
	case untaggedOnly:
		filterSpec.Mode = FilterModeUntaggedOnly
	case taggedOnly:
		filterSpec.Mode = FilterModeTaggedOnly
	}
	return filterSpec, nil
}

// VersionQuery couples a FilterSpec with the package it projects rows for.
// The jq expression and Matches apply the same predicate so every backend filters identically.
type VersionQuery struct {
	Filter      FilterSpec
	PackageName string
}

// NewVersionQuery builds a query for packageName.
func NewVersionQuery(filter FilterSpec, packageName string) VersionQuery {
	return VersionQuery{Filter: filter, PackageName: packageName}
}

// Headers returns the table header row.
func (query VersionQuery) Headers() []string {
	headers := []string{headerIdentifierConstant, headerDigestConstant, headerLastUpdateConstant, headerTagsConstant}
	if query.Filter.IncludePackageName {
		return append([]string{headerPackageConstant}, headers...)
	}
	return headers
}

// Predicate returns the jq boolean expression selecting versions.
func (query VersionQuery) Predicate() string {
	switch query.Filter.Mode {
	case FilterModeUntaggedOnly:
		return untaggedPredicateConstant
	case FilterModeTaggedOnly:
		return taggedPredicateConstant
	default:
		return allVersionsPredicateConstant
	}
}

// JQExpression returns the filter and projection evaluated by gh api --jq, emitting one JSON object per version.
func (query VersionQuery) JQExpression() string {
	return fmt.Sprintf(jqExpressionTemplateConstant, query.Predicate(), versionProjectionConstant)
}

// Matches evaluates the query predicate against an already decoded version.
func (query VersionQuery) Matches(version PackageVersion) bool {
	switch query.Filter.Mode {
	case FilterModeUntaggedOnly:
		return !version.IsTagged()
	case FilterModeTaggedOnly:
		return version.IsTagged()
	default:
		return true
	}
}

// Row projects a version into table cells aligned with Headers.
func (query VersionQuery) Row(version PackageVersion) []string {
	row := make([]string, 0, len(query.Headers()))
	if query.Filter.IncludePackageName {
		row = append(row, query.PackageName)
	}
	return append(row,
		strconv.FormatInt(version.ID, 10),
		version.Digest,
		version.UpdatedAt.UTC().Format(time.RFC3339),
		strings.Join(version.Tags, tagSeparatorConstant),
	)
}

// Rows projects every version, preserving order.
func (query VersionQuery) Rows(versions []PackageVersion) [][]string {
	rows := make([][]string, 0, len(versions))
	for _, version := range versions {
		rows = append(rows, query.Row(version))
	}
	return rows
}

// IdentifierColumn returns the index of the ID column in Headers.
func (query VersionQuery) IdentifierColumn() int {
	if query.Filter.IncludePackageName {
		return 1
	}
	return 0
}
