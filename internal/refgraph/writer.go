package refgraph

import (
	"fmt"
	"io"

	"github.com/class-inspect/pkg/writer"
)

// WriteJSON writes the graph as indented JSON.
func WriteJSON(g *RefGraph, w io.Writer) error {
	return writer.NewPrettyJSONWriter[*RefGraph]().Write(g, w)
}

// WriteJSONFile writes the graph as indented JSON to a file.
func WriteJSONFile(g *RefGraph, path string) error {
	return writer.NewPrettyJSONWriter[*RefGraph]().WriteToFile(g, path)
}

// WriteGzipFile writes the graph as gzipped JSON to a file and returns
// size statistics. This is the artifact the web UI serves.
func WriteGzipFile(g *RefGraph, path string) (*writer.WriteResult, error) {
	return writer.NewGzipWriter[*RefGraph]().WriteToFileWithStats(g, path)
}

// DOTWriter writes reference graph data in DOT format for graphviz.
type DOTWriter struct{}

// NewDOTWriter creates a new DOT format writer.
func NewDOTWriter() *DOTWriter {
	return &DOTWriter{}
}

// Write writes the reference graph in DOT format.
func (w *DOTWriter) Write(g *RefGraph, out io.Writer) error {
	if _, err := fmt.Fprintln(out, "digraph refs {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, "  node [shape=box];"); err != nil {
		return err
	}

	for _, node := range g.Nodes {
		style := ""
		if !node.Scanned {
			style = ", style=dashed"
		}
		if _, err := fmt.Fprintf(out, "  %q [label=%q%s];\n", node.ID, node.Label, style); err != nil {
			return err
		}
	}

	for _, edge := range g.Edges {
		label := edge.Kind
		if edge.Count > 1 {
			label = fmt.Sprintf("%s (%d)", edge.Kind, edge.Count)
		}
		if _, err := fmt.Fprintf(out, "  %q -> %q [label=%q];\n", edge.Source, edge.Target, label); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(out, "}"); err != nil {
		return err
	}

	return nil
}
