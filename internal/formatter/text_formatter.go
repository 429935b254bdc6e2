package formatter

import (
	"fmt"
	"io"

	"github.com/class-inspect/internal/inspector"
	"github.com/class-inspect/internal/printer"
)

// TextFormatter renders the full javap-style disassembly. It is the
// default format and the registry fallback.
type TextFormatter struct{}

// Name returns the format name.
func (f *TextFormatter) Name() string { return FormatText }

// Format writes the disassembly listing to w.
func (f *TextFormatter) Format(w io.Writer, result *inspector.Result) error {
	if result.Class == nil {
		return fmt.Errorf("no parsed class to format")
	}
	return printer.Fprint(w, result.Class)
}
