// Package formatter provides output formatting for inspection results.
package formatter

import (
	"fmt"
	"io"
	"sort"

	"github.com/class-inspect/internal/inspector"
)

// Format names accepted by the --format flag.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatSummary = "summary"
)

// Formatter renders one inspection result in a particular output format.
type Formatter interface {
	// Name returns the format name used for registry lookup.
	Name() string

	// Format writes the rendered result to w.
	Format(w io.Writer, result *inspector.Result) error
}

// Registry manages formatter instances.
type Registry struct {
	formatters map[string]Formatter
	fallback   Formatter
}

// NewRegistry creates a new formatter registry with default formatters.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[string]Formatter),
		fallback:   &TextFormatter{},
	}

	r.Register(&TextFormatter{})
	r.Register(&JSONFormatter{})
	r.Register(&SummaryFormatter{})

	return r
}

// Register registers a formatter under its name.
func (r *Registry) Register(f Formatter) {
	r.formatters[f.Name()] = f
}

// Get returns the formatter for a format name, or the fallback when the
// name is not registered.
func (r *Registry) Get(name string) Formatter {
	if f, ok := r.formatters[name]; ok {
		return f
	}
	return r.fallback
}

// Lookup returns the formatter for a format name and whether it exists.
// The CLI uses this to reject unknown --format values.
func (r *Registry) Lookup(name string) (Formatter, bool) {
	f, ok := r.formatters[name]
	return f, ok
}

// Names returns the registered format names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Format renders the result in the named format.
func (r *Registry) Format(w io.Writer, name string, result *inspector.Result) error {
	if result == nil {
		return fmt.Errorf("nothing to format")
	}
	return r.Get(name).Format(w, result)
}
