package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/tapmeta/internal/metadata"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *metadata.Schema) error {
	_, _ = fmt.Fprintf(f.writer, "# Schema %s\n\n", s.ADQLName())
	if s.Description != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n\n", s.Description)
	}

	for _, table := range s.Tables() {
		f.formatTable(table)
	}
	return nil
}

func (f *MarkdownFormatter) formatTable(table *metadata.Table) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.FullName())
	if table.Type() != metadata.TableTypeTable {
		_, _ = fmt.Fprintf(f.writer, "Type: %s\n\n", table.Type())
	}
	if table.Description != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n\n", table.Description)
	}

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range table.Columns() {
		line := fmt.Sprintf("- **%s:** %s", col.ADQLName(), col.DataType)
		if flags := columnFlags(col); len(flags) > 0 {
			line += ", " + strings.Join(flags, ", ")
		}
		if col.Description != "" {
			line += " (" + col.Description + ")"
		}
		_, _ = fmt.Fprintln(f.writer, line)
	}
	_, _ = fmt.Fprintln(f.writer)

	if keys := table.ForeignKeys(); len(keys) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, k := range keys {
			local, remote := splitPairs(k)
			_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s (%s)\n", local, k.To().FullName(), remote, k.ID())
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if keys := incomingKeys(table); len(keys) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Referenced by")
		_, _ = fmt.Fprintln(f.writer)
		for _, k := range keys {
			local, remote := splitPairs(k)
			_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s (%s)\n", k.From().FullName(), local, remote, k.ID())
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}
