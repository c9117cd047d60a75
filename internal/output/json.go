package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter renders the document as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, doc Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
