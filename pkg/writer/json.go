// Package writer provides generic JSON and gzipped-JSON writers for
// scan artifacts: class summaries, scan reports, and reference graphs.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// JSONWriter writes values of one document type as JSON.
type JSONWriter[T any] struct {
	// Indent is the indentation for pretty printing. Empty means
	// compact output.
	Indent string
}

// NewJSONWriter creates a writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a writer with two-space indentation.
// Scan artifacts use this form so they stay diffable and greppable.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write encodes the document to out.
func (w *JSONWriter[T]) Write(data T, out io.Writer) error {
	enc := json.NewEncoder(out)
	if w.Indent != "" {
		enc.SetIndent("", w.Indent)
	}
	return enc.Encode(data)
}

// WriteToFile encodes the document to a file.
func (w *JSONWriter[T]) WriteToFile(data T, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

// GzipWriter writes documents as gzipped compact JSON. Reference
// graphs use it because they dwarf the other artifacts on large
// corpora.
type GzipWriter[T any] struct {
	// CompressionLevel is the gzip level, 1 through 9.
	CompressionLevel int
}

// NewGzipWriter creates a gzip writer at the default level.
func NewGzipWriter[T any]() *GzipWriter[T] {
	return &GzipWriter[T]{CompressionLevel: gzip.DefaultCompression}
}

// NewGzipWriterWithLevel creates a gzip writer at the given level.
func NewGzipWriterWithLevel[T any](level int) *GzipWriter[T] {
	return &GzipWriter[T]{CompressionLevel: level}
}

// Write encodes the document as gzipped JSON to out.
func (w *GzipWriter[T]) Write(data T, out io.Writer) error {
	gz, err := gzip.NewWriterLevel(out, w.CompressionLevel)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush gzip data: %w", err)
	}
	return nil
}

// WriteToFile encodes the document as gzipped JSON to a file.
func (w *GzipWriter[T]) WriteToFile(data T, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

// WriteResult reports the sizes of a written artifact.
type WriteResult struct {
	// JSONSize is the encoded size before compression.
	JSONSize int64
	// CompressedSize is the size on disk.
	CompressedSize int64
	// CompressionPct is CompressedSize as a percentage of JSONSize.
	CompressionPct float64
}

// WriteToFileWithStats writes the document and reports how much the
// artifact compressed. The scanner logs the result for the reference
// graph, which is the artifact worth watching.
func (w *GzipWriter[T]) WriteToFileWithStats(data T, path string) (*WriteResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewWriterLevel(file, w.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := gz.Write(jsonData); err != nil {
		gz.Close()
		return nil, fmt.Errorf("failed to write gzip data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush gzip data: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	res := &WriteResult{
		JSONSize:       int64(len(jsonData)),
		CompressedSize: info.Size(),
	}
	if res.JSONSize > 0 {
		res.CompressionPct = float64(res.CompressedSize) / float64(res.JSONSize) * 100
	}
	return res, nil
}
