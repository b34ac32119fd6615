package ui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gh-container/internal/ui"
)

func TestFormatTableAlignsColumns(testInstance *testing.T) {
	testCases := []struct {
		name           string
		headers        []string
		rows           [][]string
		expectedOutput string
	}{
		{
			name:    "single_row",
			headers: []string{"ID", "SHA256", "LAST UPDATE", "TAGS"},
			rows:    [][]string{{"123", "abc", "2024-01-01T00:00:00Z", "v1 v2"}},
			expectedOutput: "ID  SHA256 LAST UPDATE          TAGS\n" +
				"123 abc    2024-01-01T00:00:00Z v1 v2\n",
		},
		{
			name:    "wide_last_column_not_padded",
			headers: []string{"ID", "TAGS"},
			rows:    [][]string{{"1", "latest stable"}, {"22", ""}},
			expectedOutput: "ID TAGS\n" +
				"1  latest stable\n" +
				"22\n",
		},
		{
			name:           "header_only",
			headers:        []string{"PACKAGE", "ID"},
			expectedOutput: "PACKAGE ID\n",
		},
		{
			name:    "multibyte_cells",
			headers: []string{"NAME", "ID"},
			rows:    [][]string{{"café", "1"}},
			expectedOutput: "NAME ID\n" +
				"café 1\n",
		},
		{
			name:           "empty",
			expectedOutput: "",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedOutput, ui.FormatTable(testCase.headers, testCase.rows))
		})
	}
}

func TestFormatTableColumnsAreAtLeastAsWideAsCells(testInstance *testing.T) {
	headers := []string{"ID", "SHA256", "LAST UPDATE", "TAGS"}
	row := []string{"123", "abc", "2024-01-01T00:00:00Z", "v1 v2"}

	lines := strings.Split(strings.TrimSuffix(ui.FormatTable(headers, [][]string{row}), "\n"), "\n")
	require.Len(testInstance, lines, 2)

	columnStart := 0
	for columnIndex := range headers {
		require.True(testInstance, strings.HasPrefix(lines[0][columnStart:], headers[columnIndex]))
		require.True(testInstance, strings.HasPrefix(lines[1][columnStart:], row[columnIndex]))
		if columnIndex == len(headers)-1 {
			break
		}
		columnWidth := len(headers[columnIndex])
		if len(row[columnIndex]) > columnWidth {
			columnWidth = len(row[columnIndex])
		}
		require.Equal(testInstance, byte(' '), lines[0][columnStart+columnWidth])
		require.Equal(testInstance, byte(' '), lines[1][columnStart+columnWidth])
		columnStart += columnWidth + 1
	}
}

func TestRenderStructured(testInstance *testing.T) {
	value := []map[string]any{{"id": 10, "tags": []string{"latest"}}}

	testCases := []struct {
		name           string
		format         ui.OutputFormat
		expectedOutput []string
		expectError    bool
	}{
		{
			name:           "json",
			format:         ui.OutputFormatJSON,
			expectedOutput: []string{"[\n  {\n    \"id\": 10,\n    \"tags\": [\n      \"latest\"\n    ]\n  }\n]\n"},
		},
		{
			name:           "yaml",
			format:         ui.OutputFormatYAML,
			expectedOutput: []string{"- id: 10\n", "  tags:\n", "- latest\n"},
		},
		{
			name:        "unsupported",
			format:      ui.OutputFormat("csv"),
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var output bytes.Buffer
			renderError := ui.RenderStructured(&output, testCase.format, value)
			if testCase.expectError {
				require.Error(testInstance, renderError)
				return
			}
			require.NoError(testInstance, renderError)
			for _, expectedFragment := range testCase.expectedOutput {
				require.Contains(testInstance, output.String(), expectedFragment)
			}
		})
	}
}
