// Package compression provides the codecs used for scan artifacts.
// Disassembly listings and reference graphs are written as zstd by
// default, with gzip kept for tooling that cannot read zstd.
package compression

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Type identifies an artifact codec.
type Type uint8

const (
	// TypeGzip stays readable by zcat and browsers.
	TypeGzip Type = 0
	// TypeZstd compresses faster than gzip at a better ratio.
	TypeZstd Type = 1
	// TypeNone writes artifacts as plain files.
	TypeNone Type = 255
)

// String returns the codec name as it appears in configuration.
func (t Type) String() string {
	switch t {
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	case TypeNone:
		return "none"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Extension returns the file name suffix for artifacts written with
// this codec. TypeNone adds no suffix.
func (t Type) Extension() string {
	switch t {
	case TypeGzip:
		return ".gz"
	case TypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// Level trades compression speed against ratio.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBest    Level = 9
)

// Compressor is one artifact codec. Implementations are safe for
// concurrent use, so the scanner shares a single compressor across
// its workers.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Type() Type
}

// New creates the compressor for a codec.
func New(t Type, level Level) (Compressor, error) {
	switch t {
	case TypeGzip:
		return NewGzipCompressor(level), nil
	case TypeZstd:
		return NewZstdCompressor(level)
	case TypeNone:
		return nopCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// Closeable marks compressors that hold resources beyond a call.
type Closeable interface {
	Close()
}

// Close releases a compressor's resources, if it holds any.
func Close(c Compressor) {
	if closer, ok := c.(Closeable); ok {
		closer.Close()
	}
}

// GzipCompressor writes RFC 1952 gzip members.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor creates a gzip compressor at the given level.
func NewGzipCompressor(level Level) *GzipCompressor {
	return &GzipCompressor{level: gzipLevel(level)}
}

func gzipLevel(level Level) int {
	switch level {
	case LevelFastest:
		return gzip.BestSpeed
	case LevelBest:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write gzip data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip data: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *GzipCompressor) Type() Type { return TypeGzip }

// ZstdCompressor holds a persistent encoder and decoder pair.
// EncodeAll and DecodeAll on a shared pair are safe for concurrent
// use; Close releases the encoder goroutines once a scan is done.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor creates a zstd compressor at the given level.
func NewZstdCompressor(level Level) (*ZstdCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompressor{encoder: enc, decoder: dec}, nil
}

func zstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// Compress encodes data as a single zstd frame. Disassembly is text,
// so the destination is sized at half the input.
func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

func (c *ZstdCompressor) Type() Type { return TypeZstd }

// Close releases the encoder and decoder. The compressor must not be
// used afterwards.
func (c *ZstdCompressor) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// nopCompressor passes data through unchanged for TypeNone.
type nopCompressor struct{}

func (nopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (nopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (nopCompressor) Type() Type                             { return TypeNone }

// Frame headers: zstd frames open with 0x28b52ffd, gzip members with
// 0x1f8b.
var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// DetectType sniffs the codec from an artifact's leading bytes.
// Anything that is not a zstd frame maps to TypeGzip, so corrupt data
// ends up at the gzip reader and is rejected with a header error.
func DetectType(data []byte) Type {
	if bytes.HasPrefix(data, zstdMagic) {
		return TypeZstd
	}
	return TypeGzip
}

// autoDecoder is built once and shared by AutoDecompress. The web UI
// decompresses an artifact per request, and DecodeAll on a shared
// decoder is safe for concurrent use.
var (
	autoDecoderOnce sync.Once
	autoDecoder     *zstd.Decoder
	autoDecoderErr  error
)

func sharedZstdDecoder() (*zstd.Decoder, error) {
	autoDecoderOnce.Do(func() {
		autoDecoder, autoDecoderErr = zstd.NewReader(nil)
	})
	return autoDecoder, autoDecoderErr
}

// AutoDecompress sniffs the codec and decompresses data. Artifact
// readers use it so a scan directory can mix zstd and gzip outputs.
func AutoDecompress(data []byte) ([]byte, error) {
	if DetectType(data) == TypeZstd {
		dec, err := sharedZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return dec.DecodeAll(data, nil)
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip data: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
