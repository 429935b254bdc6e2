package scanner

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/class-inspect/internal/inspector"
	"github.com/class-inspect/internal/printer"
	"github.com/class-inspect/internal/refgraph"
	"github.com/class-inspect/pkg/compression"
	"github.com/class-inspect/pkg/model"
	"github.com/class-inspect/pkg/writer"
)

const (
	// classesDir holds per-class artifacts under the output directory.
	classesDir = "classes"

	// reportArtifact and refGraphArtifact are the scan-level outputs
	// the web UI serves.
	reportArtifact   = "report.json"
	refGraphArtifact = "refgraph.json.gz"
)

// artifactWriter writes per-class and scan-level artifacts under the
// output directory. Artifact names in reports are slash-separated
// relative paths, which double as upload keys.
type artifactWriter struct {
	dir              string
	writeDisassembly bool
	writeSummaries   bool
	compressor       compression.Compressor
	summaryWriter    *writer.JSONWriter[*model.ClassSummary]
	reportWriter     *writer.JSONWriter[*model.ScanReport]
}

func newArtifactWriter(config *Config) (*artifactWriter, error) {
	if err := os.MkdirAll(filepath.Join(config.OutputDir, classesDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	aw := &artifactWriter{
		dir:              config.OutputDir,
		writeDisassembly: config.WriteDisassembly,
		writeSummaries:   config.WriteSummaries,
		summaryWriter:    writer.NewPrettyJSONWriter[*model.ClassSummary](),
		reportWriter:     writer.NewPrettyJSONWriter[*model.ScanReport](),
	}

	if config.Compress {
		comp, err := compression.New(config.CompressionType, compression.LevelDefault)
		if err != nil {
			return nil, fmt.Errorf("failed to create compressor: %w", err)
		}
		aw.compressor = comp
	}

	return aw, nil
}

// Close releases the compressor, if any.
func (aw *artifactWriter) Close() {
	if aw.compressor != nil {
		compression.Close(aw.compressor)
	}
}

// writeClassArtifacts writes the configured artifacts for one inspected
// class and returns their relative names.
func (aw *artifactWriter) writeClassArtifacts(res *inspector.Result) ([]string, error) {
	base, err := classArtifactBase(res.Summary.ClassName)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Dir(filepath.Join(aw.dir, classesDir, filepath.FromSlash(base)))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	var names []string

	if aw.writeDisassembly {
		rel := path.Join(classesDir, base+".txt")
		data := []byte(printer.Print(res.Class))
		if aw.compressor != nil {
			compressed, err := aw.compressor.Compress(data)
			if err != nil {
				return nil, fmt.Errorf("failed to compress disassembly: %w", err)
			}
			data = compressed
			rel += aw.compressor.Type().Extension()
		}
		if err := os.WriteFile(aw.localPath(rel), data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write disassembly: %w", err)
		}
		names = append(names, rel)
	}

	if aw.writeSummaries {
		rel := path.Join(classesDir, base+".json")
		if err := aw.summaryWriter.WriteToFile(res.Summary, aw.localPath(rel)); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
		names = append(names, rel)
	}

	return names, nil
}

// writeScanArtifacts writes the reference graph and then the report.
// The graph artifact is appended to the report before the report is
// written, so the report lists everything except itself.
func (aw *artifactWriter) writeScanArtifacts(report *model.ScanReport, graph *refgraph.RefGraph) error {
	if _, err := refgraph.WriteGzipFile(graph, filepath.Join(aw.dir, refGraphArtifact)); err != nil {
		return fmt.Errorf("failed to write reference graph: %w", err)
	}
	report.Artifacts = append(report.Artifacts, refGraphArtifact)

	if err := aw.reportWriter.WriteToFile(report, filepath.Join(aw.dir, reportArtifact)); err != nil {
		return fmt.Errorf("failed to write scan report: %w", err)
	}
	return nil
}

// localPath converts a slash-separated artifact name to a path under
// the output directory.
func (aw *artifactWriter) localPath(rel string) string {
	return filepath.Join(aw.dir, filepath.FromSlash(rel))
}

// classArtifactBase maps a binary class name onto a relative path.
// Cleaning against a rooted path keeps hostile names like "../../x"
// inside the classes directory.
func classArtifactBase(className string) (string, error) {
	cleaned := path.Clean("/" + className)
	if cleaned == "/" {
		return "", fmt.Errorf("unusable class name %q", className)
	}
	return cleaned[1:], nil
}
