package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/class-inspect/internal/inspector"
)

// JSONFormatter renders the class summary as indented JSON, one
// document per result.
type JSONFormatter struct{}

// Name returns the format name.
func (f *JSONFormatter) Name() string { return FormatJSON }

// Format writes the summary JSON to w.
func (f *JSONFormatter) Format(w io.Writer, result *inspector.Result) error {
	if result.Summary == nil {
		return fmt.Errorf("no summary to format")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Summary)
}
