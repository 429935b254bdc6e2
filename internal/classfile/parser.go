package classfile

import (
	"fmt"
	"io"
	"os"

	"github.com/class-inspect/pkg/utils"
)

// Magic is the four-byte signature every class file starts with.
const Magic uint32 = 0xCAFEBABE

// Major version numbers for reference when configuring a version gate.
// Major 45 is JDK 1.1; each release since JDK 9 increments by one.
const (
	MajorJava5  = 49
	MajorJava8  = 52
	MajorJava11 = 55
	MajorJava17 = 61
	MajorJava21 = 65
)

// ParserOptions configures the class file parser.
type ParserOptions struct {
	// MinMajorVersion and MaxMajorVersion bound the accepted class file
	// versions when EnforceVersion is set. Both bounds are inclusive.
	MinMajorVersion uint16
	MaxMajorVersion uint16
	// EnforceVersion rejects class files outside the version bounds with
	// ErrUnsupportedVersion. Off by default: the structures parsed here
	// are stable across format versions, so old and new files alike
	// usually parse fine.
	EnforceVersion bool
	// Logger is used for debug logging. If nil, debug logs are suppressed.
	Logger utils.Logger
}

// DefaultParserOptions returns default parser options.
func DefaultParserOptions() *ParserOptions {
	return &ParserOptions{
		MinMajorVersion: 45, // JDK 1.1
		MaxMajorVersion: MajorJava21,
	}
}

// Parser parses JVM class files.
type Parser struct {
	opts *ParserOptions
}

// NewParser creates a new class file parser.
func NewParser(opts *ParserOptions) *Parser {
	if opts == nil {
		opts = DefaultParserOptions()
	}
	return &Parser{opts: opts}
}

// debugf logs a debug message if a logger is configured.
func (p *Parser) debugf(format string, args ...interface{}) {
	if p.opts.Logger != nil {
		p.opts.Logger.Debug(format, args...)
	}
}

// Parse parses a complete class file from raw bytes.
//
// The record order is fixed by the format: magic, version, constant
// pool, access flags, this/super class, interfaces, fields, methods,
// and finally class-level attributes. Trailing bytes after the last
// attribute are tolerated.
func (p *Parser) Parse(data []byte) (*ClassFile, error) {
	r := newReader(data)

	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, errAt(0, fmt.Errorf("got 0x%08X, want 0xCAFEBABE: %w", magic, ErrInvalidMagic))
	}

	c := &ClassFile{}
	if c.MinorVersion, err = r.u2(); err != nil {
		return nil, err
	}
	if c.MajorVersion, err = r.u2(); err != nil {
		return nil, err
	}
	if p.opts.EnforceVersion {
		if c.MajorVersion < p.opts.MinMajorVersion || c.MajorVersion > p.opts.MaxMajorVersion {
			return nil, fmt.Errorf("version %d.%d outside [%d, %d]: %w",
				c.MajorVersion, c.MinorVersion,
				p.opts.MinMajorVersion, p.opts.MaxMajorVersion,
				ErrUnsupportedVersion)
		}
	}
	p.debugf("class file version %d.%d", c.MajorVersion, c.MinorVersion)

	if c.ConstantPool, err = parseConstantPool(r); err != nil {
		return nil, err
	}
	p.debugf("constant pool count %d", c.ConstantPool.Count())

	accessFlags, err := r.u2()
	if err != nil {
		return nil, err
	}
	c.AccessFlags = ClassAccessFlags(accessFlags)

	if c.ThisClass, err = r.u2(); err != nil {
		return nil, err
	}
	if c.SuperClass, err = r.u2(); err != nil {
		return nil, err
	}

	interfaceCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	c.Interfaces = make([]uint16, 0, interfaceCount)
	for i := uint16(0); i < interfaceCount; i++ {
		index, err := r.u2()
		if err != nil {
			return nil, err
		}
		c.Interfaces = append(c.Interfaces, index)
	}

	if c.Fields, err = parseFields(r); err != nil {
		return nil, err
	}
	if c.Methods, err = parseMethods(r); err != nil {
		return nil, err
	}
	if c.Attributes, err = parseAttributes(r); err != nil {
		return nil, err
	}

	p.debugf("parsed %d fields, %d methods, %d class attributes",
		len(c.Fields), len(c.Methods), len(c.Attributes))
	return c, nil
}

// ParseReader parses a class file from an io.Reader. Read failures are
// wrapped in ErrReadFailed so callers can distinguish I/O problems from
// malformed data.
func (p *Parser) ParseReader(reader io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return p.Parse(data)
}

// ParseFile parses a class file from disk.
func (p *Parser) ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return p.Parse(data)
}

// Parse parses a class file with default options.
func Parse(data []byte) (*ClassFile, error) {
	return NewParser(nil).Parse(data)
}

// parseFields reads the fields_count and field_info records.
func parseFields(r *reader) ([]Field, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, count)
	for i := uint16(0); i < count; i++ {
		var f Field
		flags, err := r.u2()
		if err != nil {
			return nil, err
		}
		f.AccessFlags = FieldAccessFlags(flags)
		if f.NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if f.DescriptorIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if f.Attributes, err = parseAttributes(r); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// parseMethods reads the methods_count and method_info records.
func parseMethods(r *reader) ([]Method, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	methods := make([]Method, 0, count)
	for i := uint16(0); i < count; i++ {
		var m Method
		flags, err := r.u2()
		if err != nil {
			return nil, err
		}
		m.AccessFlags = MethodAccessFlags(flags)
		if m.NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if m.DescriptorIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if m.Attributes, err = parseAttributes(r); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}
