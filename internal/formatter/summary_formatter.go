package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/class-inspect/internal/inspector"
)

// SummaryFormatter renders a condensed human-readable block: the class
// identity, shape counts, and any advisory findings. It skips the
// member-by-member detail the text format carries.
type SummaryFormatter struct{}

// Name returns the format name.
func (f *SummaryFormatter) Name() string { return FormatSummary }

// Format writes the summary block to w.
func (f *SummaryFormatter) Format(w io.Writer, result *inspector.Result) error {
	s := result.Summary
	if s == nil {
		return fmt.Errorf("no summary to format")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Class:          %s\n", s.ClassName)
	if s.SuperClass != "" {
		fmt.Fprintf(&b, "Super class:    %s\n", s.SuperClass)
	}
	if len(s.Interfaces) > 0 {
		fmt.Fprintf(&b, "Interfaces:     %s\n", strings.Join(s.Interfaces, ", "))
	}
	fmt.Fprintf(&b, "Version:        %d.%d (%s)\n", s.MajorVersion, s.MinorVersion, s.JavaRelease)
	if len(s.AccessFlags) > 0 {
		fmt.Fprintf(&b, "Flags:          %s\n", strings.Join(s.AccessFlags, ", "))
	}
	if s.SourceFile != "" {
		fmt.Fprintf(&b, "Source file:    %s\n", s.SourceFile)
	}
	fmt.Fprintf(&b, "Constant pool:  %d entries\n", s.ConstantCount)
	if s.SizeBytes > 0 {
		fmt.Fprintf(&b, "File size:      %d bytes\n", s.SizeBytes)
	}
	fmt.Fprintf(&b, "Fields:         %d\n", s.FieldCount())
	fmt.Fprintf(&b, "Methods:        %d (%d bytes of bytecode)\n", s.MethodCount(), s.TotalCodeSize)

	if len(s.Findings) > 0 {
		fmt.Fprintf(&b, "\nFindings:\n")
		for _, finding := range s.Findings {
			fmt.Fprintf(&b, "  [%s] %s: %s", finding.Severity, finding.Rule, finding.Message)
			if finding.Method != "" {
				fmt.Fprintf(&b, " (%s)", finding.Method)
			}
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
