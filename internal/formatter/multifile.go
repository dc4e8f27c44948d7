package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tordrt/tapmeta/internal/metadata"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
)

// MultiFileFormatter writes schema to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes an overview file and one file per table
func (f *MultiFileFormatter) Format(s *metadata.Schema) error {
	if f.OutputFormat != formatText && f.OutputFormat != formatMarkdown {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", f.OutputFormat)
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeFile("_overview", func(w io.Writer) { f.writeOverview(w, s) }); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range s.Tables() {
		err := f.writeFile(table.ADQLName(), func(w io.Writer) {
			if f.OutputFormat == formatMarkdown {
				NewMarkdownFormatter(w).formatTable(table)
				return
			}
			NewTextFormatter(w).formatTable(table)
		})
		if err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.ADQLName(), err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeFile(name string, write func(io.Writer)) error {
	file, err := os.Create(filepath.Join(f.OutputDir, name+f.getFileExtension()))
	if err != nil {
		return err
	}
	write(file)
	return file.Close()
}

// writeOverview lists the tables alphabetically with the tables they reference
func (f *MultiFileFormatter) writeOverview(w io.Writer, s *metadata.Schema) {
	tables := s.Tables()
	slices.SortFunc(tables, func(a, b *metadata.Table) int {
		return strings.Compare(a.ADQLName(), b.ADQLName())
	})

	if f.OutputFormat == formatMarkdown {
		_, _ = fmt.Fprintf(w, "# Schema Overview: %s\n\n", s.ADQLName())
		_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<table_name>%s`\n\n", f.getFileExtension())
		_, _ = fmt.Fprintf(w, "## Tables\n\n")
		for _, table := range tables {
			_, _ = fmt.Fprintf(w, "- **%s**", table.ADQLName())
			if targets := referencedTables(table); len(targets) > 0 {
				_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ", "))
			}
			_, _ = fmt.Fprintln(w)
		}
		return
	}

	_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW %s\n", s.ADQLName())
	_, _ = fmt.Fprintf(w, "Each table has a file: <table_name>%s\n\n", f.getFileExtension())
	for _, table := range tables {
		_, _ = fmt.Fprint(w, table.ADQLName())
		if targets := referencedTables(table); len(targets) > 0 {
			_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ","))
		}
		_, _ = fmt.Fprintln(w)
	}
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}
