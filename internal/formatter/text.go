package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *metadata.Schema) error {
	for i, table := range s.Tables() {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.formatTable(table)
	}
	return nil
}

func (f *TextFormatter) formatTable(table *metadata.Table) {
	header := "TABLE " + table.FullName()
	if table.Type() != metadata.TableTypeTable {
		header += fmt.Sprintf(" [%s]", table.Type())
	}
	if table.Description != "" {
		header += " -- " + table.Description
	}
	_, _ = fmt.Fprintln(f.writer, header)

	for _, col := range table.Columns() {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	if keys := table.ForeignKeys(); len(keys) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  FOREIGN KEYS:")
		for _, k := range keys {
			local, remote := splitPairs(k)
			_, _ = fmt.Fprintf(f.writer, "    %s: (%s) → %s(%s)\n", k.ID(), local, k.To().FullName(), remote)
		}
	}

	if keys := incomingKeys(table); len(keys) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  REFERENCED BY:")
		for _, k := range keys {
			local, remote := splitPairs(k)
			_, _ = fmt.Fprintf(f.writer, "    %s: %s(%s) → (%s)\n", k.ID(), k.From().FullName(), local, remote)
		}
	}
}

func (f *TextFormatter) formatColumn(col *metadata.Column) string {
	parts := []string{col.ADQLName() + ":", col.DataType.String()}
	if col.DBName() != col.ADQLName() {
		parts = append(parts, "db="+col.DBName())
	}
	parts = append(parts, columnFlags(col)...)
	if col.Description != "" {
		parts = append(parts, "-- "+col.Description)
	}
	return strings.Join(parts, " ")
}
