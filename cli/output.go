package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nasermirzaei89/postapi/contents"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle      = lipgloss.NewStyle()
)

type UnknownOutputFormatError struct {
	Format string
}

func (err UnknownOutputFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q: must be one of table, json, yaml", err.Format)
}

func renderPost(w io.Writer, format string, post *contents.Post) error {
	if format == outputTable {
		return renderPosts(w, format, []*contents.Post{post})
	}

	return encode(w, format, post)
}

func renderPosts(w io.Writer, format string, posts []*contents.Post) error {
	if format != outputTable {
		return encode(w, format, posts)
	}

	if len(posts) == 0 {
		_, err := fmt.Fprintln(w, "No posts found.")

		return err
	}

	rows := make([][]string, len(posts))
	for i, p := range posts {
		rows[i] = []string{strconv.Itoa(p.ID), p.Title, p.Content}
	}

	t := table.New().
		Headers("ID", "Title", "Content").
		Rows(rows...).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerRowStyle
			}

			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.Render())

	return err
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}

		return enc.Close()
	default:
		return UnknownOutputFormatError{Format: format}
	}
}
