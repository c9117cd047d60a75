package output

import (
	"fmt"
	"io"
)

// Formatter renders an audit report document to a writer.
type Formatter interface {
	Format(w io.Writer, doc Document) error
}

// Formats lists the supported output formats.
var Formats = []string{"table", "json", "markdown", "html"}

// GetFormatter returns the appropriate formatter for the given format string.
func GetFormatter(format string) (Formatter, error) {
	switch format {
	case "table":
		return &TableFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: table, json, markdown, html)", format)
	}
}
