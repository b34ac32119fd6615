package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	columnSeparatorConstant                 = " "
	lineTerminatorConstant                  = "\n"
	jsonIndentConstant                      = "  "
	yamlIndentConstant                      = 2
	unsupportedOutputFormatTemplateConstant = "unsupported output format: %s"
	tableWriteErrorTemplateConstant         = "unable to write table: %w"
	structuredWriteErrorTemplateConstant    = "unable to write %s output: %w"
	outputFormatTableStringConstant         = "table"
	outputFormatJSONStringConstant          = "json"
	outputFormatYAMLStringConstant          = "yaml"
)

// OutputFormat enumerates the renderings supported by listing commands.
type OutputFormat string

// Supported output formats.
const (
	OutputFormatTable OutputFormat = OutputFormat(outputFormatTableStringConstant)
	OutputFormatJSON  OutputFormat = OutputFormat(outputFormatJSONStringConstant)
	OutputFormatYAML  OutputFormat = OutputFormat(outputFormatYAMLStringConstant)
)

// OutputFormatChoices lists the accepted --format values in display order.
func OutputFormatChoices() []string {
	return []string{outputFormatTableStringConstant, outputFormatJSONStringConstant, outputFormatYAMLStringConstant}
}

// FormatTable aligns headers and rows into fixed-width columns.
// Each column is as wide as its longest cell, columns are separated by a single space,
// and the last column is never padded. Rows shorter than the header leave trailing columns empty.
func FormatTable(headers []string, rows [][]string) string {
	columnCount := len(headers)
	for _, row := range rows {
		if len(row) > columnCount {
			columnCount = len(row)
		}
	}
	if columnCount == 0 {
		return ""
	}

	columnWidths := make([]int, columnCount)
	measure := func(cells []string) {
		for columnIndex, cell := range cells {
			if cellWidth := utf8.RuneCountInString(cell); cellWidth > columnWidths[columnIndex] {
				columnWidths[columnIndex] = cellWidth
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	var builder strings.Builder
	writeLine := func(cells []string) {
		var lineBuilder strings.Builder
		for columnIndex := 0; columnIndex < columnCount; columnIndex++ {
			cell := ""
			if columnIndex < len(cells) {
				cell = cells[columnIndex]
			}
			if columnIndex > 0 {
				lineBuilder.WriteString(columnSeparatorConstant)
			}
			lineBuilder.WriteString(cell)
			if columnIndex < columnCount-1 {
				lineBuilder.WriteString(strings.Repeat(columnSeparatorConstant, columnWidths[columnIndex]-utf8.RuneCountInString(cell)))
			}
		}
		builder.WriteString(strings.TrimRight(lineBuilder.String(), columnSeparatorConstant))
		builder.WriteString(lineTerminatorConstant)
	}

	writeLine(headers)
	for _, row := range rows {
		writeLine(row)
	}
	return builder.String()
}

// RenderTable writes the aligned table to writer.
func RenderTable(writer io.Writer, headers []string, rows [][]string) error {
	if _, writeError := io.WriteString(writer, FormatTable(headers, rows)); writeError != nil {
		return fmt.Errorf(tableWriteErrorTemplateConstant, writeError)
	}
	return nil
}

// RenderStructured writes value as indented JSON or YAML.
func RenderStructured(writer io.Writer, format OutputFormat, value any) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		if encodeError := encoder.Encode(value); encodeError != nil {
			return fmt.Errorf(structuredWriteErrorTemplateConstant, format, encodeError)
		}
		return nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(value); encodeError != nil {
			return fmt.Errorf(structuredWriteErrorTemplateConstant, format, encodeError)
		}
		if closeError := encoder.Close(); closeError != nil {
			return fmt.Errorf(structuredWriteErrorTemplateConstant, format, closeError)
		}
		return nil
	default:
		return fmt.Errorf(unsupportedOutputFormatTemplateConstant, format)
	}
}
