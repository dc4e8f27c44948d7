package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tordrt/tapmeta/internal/cursor"
)

// Row output formats accepted by NewRowWriter.
const (
	RowFormatTSV      = "tsv"
	RowFormatMarkdown = "markdown"
	// RowFormatTable draws a bordered table. It buffers every row, so it
	// suits interactive use rather than large results.
	RowFormatTable = "table"
)

var cellEscaper = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// RowWriter renders the rows of a table cursor
type RowWriter struct {
	writer io.Writer
	format string
}

// NewRowWriter creates a row writer for one of the RowFormat values
func NewRowWriter(w io.Writer, format string) (*RowWriter, error) {
	switch format {
	case RowFormatTSV, RowFormatMarkdown, RowFormatTable:
	default:
		return nil, fmt.Errorf("invalid row format: %s (must be 'tsv', 'markdown' or 'table')", format)
	}
	return &RowWriter{writer: w, format: format}, nil
}

// Write drains c and returns the number of rows written. The cursor is
// closed on every path, including errors.
func (rw *RowWriter) Write(c *cursor.TableCursor) (n int, err error) {
	defer func() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()

	meta := c.Metadata()
	headers := make([]string, len(meta))
	for i, m := range meta {
		headers[i] = m.Name
	}

	var emit func([]string) error
	var flush func() error
	switch rw.format {
	case RowFormatTSV:
		if _, err := fmt.Fprintln(rw.writer, strings.Join(headers, "\t")); err != nil {
			return n, fmt.Errorf("failed to write header: %w", err)
		}
		emit = func(cells []string) error {
			_, err := fmt.Fprintln(rw.writer, strings.Join(cells, "\t"))
			return err
		}
	case RowFormatMarkdown:
		if _, err := fmt.Fprintf(rw.writer, "| %s |\n|%s\n", strings.Join(headers, " | "), strings.Repeat(" --- |", len(headers))); err != nil {
			return n, fmt.Errorf("failed to write header: %w", err)
		}
		emit = func(cells []string) error {
			for i := range cells {
				cells[i] = strings.ReplaceAll(cells[i], "|", `\|`)
			}
			_, err := fmt.Fprintf(rw.writer, "| %s |\n", strings.Join(cells, " | "))
			return err
		}
	case RowFormatTable:
		t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
		emit = func(cells []string) error {
			t.Row(cells...)
			return nil
		}
		flush = func() error {
			_, err := fmt.Fprintln(rw.writer, t.String())
			return err
		}
	}

	for {
		ok, err := c.NextRow()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}

		cells := make([]string, 0, len(meta))
		for c.HasNextColumn() {
			v, err := c.NextColumn()
			if err != nil {
				return n, err
			}
			cells = append(cells, formatValue(v))
		}
		if err := emit(cells); err != nil {
			return n, fmt.Errorf("failed to write row %d: %w", n+1, err)
		}
		n++
	}

	if flush != nil {
		if err := flush(); err != nil {
			return n, fmt.Errorf("failed to write table: %w", err)
		}
	}
	return n, nil
}

// formatValue renders a cell; nil is NULL
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return cellEscaper.Replace(string(v))
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case string:
		return cellEscaper.Replace(v)
	default:
		return cellEscaper.Replace(fmt.Sprint(v))
	}
}
