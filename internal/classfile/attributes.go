package classfile

import "fmt"

// Standard attribute names the package knows how to decode. Attributes
// with any other name are kept as raw payload bytes.
const (
	AttrCode             = "Code"
	AttrSourceFile       = "SourceFile"
	AttrConstantValue    = "ConstantValue"
	AttrExceptions       = "Exceptions"
	AttrLineNumberTable  = "LineNumberTable"
	AttrInnerClasses     = "InnerClasses"
	AttrBootstrapMethods = "BootstrapMethods"
)

// Attribute is the raw attribute envelope: the constant pool index of the
// attribute name, and the undecoded payload. Unknown attributes are
// preserved as-is rather than rejected, since the format allows any tool
// to define its own.
type Attribute struct {
	NameIndex uint16
	Info      []byte
}

// Name resolves the attribute name through the constant pool.
func (a Attribute) Name(pool *ConstantPool) (string, error) {
	return pool.Utf8(a.NameIndex)
}

// ExceptionTableEntry describes one protected region of a Code attribute.
// CatchType is the constant pool index of the caught class, or zero for a
// catch-all handler (finally).
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// CodeAttribute is the decoded Code attribute of a method: operand stack
// and local variable sizes, the raw bytecode, the exception table, and
// any nested attributes such as LineNumberTable.
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []Attribute
}

// LineNumberEntry maps a bytecode offset to a source line.
type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

// InnerClass is one entry of an InnerClasses attribute.
type InnerClass struct {
	InnerClassIndex uint16
	OuterClassIndex uint16
	InnerNameIndex  uint16
	AccessFlags     ClassAccessFlags
}

// BootstrapMethod is one entry of a BootstrapMethods attribute. MethodRef
// is a MethodHandle constant index; Arguments are loadable constant
// indexes passed to the bootstrap method.
type BootstrapMethod struct {
	MethodRef uint16
	Arguments []uint16
}

// parseAttributes reads an attributes_count followed by that many
// attribute envelopes.
func parseAttributes(r *reader) ([]Attribute, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	attributes := make([]Attribute, 0, count)
	for i := uint16(0); i < count; i++ {
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		info, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, Attribute{NameIndex: nameIndex, Info: info})
	}
	return attributes, nil
}

// ParseCodeAttribute decodes a Code attribute payload. The bytecode is
// kept raw; disassembly is a separate concern.
func ParseCodeAttribute(info []byte) (*CodeAttribute, error) {
	r := newReader(info)

	code := &CodeAttribute{}
	var err error
	if code.MaxStack, err = r.u2(); err != nil {
		return nil, err
	}
	if code.MaxLocals, err = r.u2(); err != nil {
		return nil, err
	}

	codeLength, err := r.u4()
	if err != nil {
		return nil, err
	}
	if code.Code, err = r.bytes(int(codeLength)); err != nil {
		return nil, err
	}

	exceptionCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	code.ExceptionTable = make([]ExceptionTableEntry, 0, exceptionCount)
	for i := uint16(0); i < exceptionCount; i++ {
		var entry ExceptionTableEntry
		if entry.StartPC, err = r.u2(); err != nil {
			return nil, err
		}
		if entry.EndPC, err = r.u2(); err != nil {
			return nil, err
		}
		if entry.HandlerPC, err = r.u2(); err != nil {
			return nil, err
		}
		if entry.CatchType, err = r.u2(); err != nil {
			return nil, err
		}
		code.ExceptionTable = append(code.ExceptionTable, entry)
	}

	if code.Attributes, err = parseAttributes(r); err != nil {
		return nil, err
	}
	return code, nil
}

// ParseSourceFileAttribute decodes a SourceFile payload to the constant
// pool index of the source file name.
func ParseSourceFileAttribute(info []byte) (uint16, error) {
	if len(info) != 2 {
		return 0, fmt.Errorf("SourceFile payload is %d bytes, want 2: %w", len(info), ErrMalformedAttribute)
	}
	r := newReader(info)
	return r.u2()
}

// ParseConstantValueAttribute decodes a ConstantValue payload to the
// constant pool index of the value.
func ParseConstantValueAttribute(info []byte) (uint16, error) {
	if len(info) != 2 {
		return 0, fmt.Errorf("ConstantValue payload is %d bytes, want 2: %w", len(info), ErrMalformedAttribute)
	}
	r := newReader(info)
	return r.u2()
}

// ParseExceptionsAttribute decodes an Exceptions payload to the constant
// pool indexes of the declared thrown classes.
func ParseExceptionsAttribute(info []byte) ([]uint16, error) {
	r := newReader(info)
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	indexes := make([]uint16, 0, count)
	for i := uint16(0); i < count; i++ {
		index, err := r.u2()
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}

// ParseLineNumberTableAttribute decodes a LineNumberTable payload.
func ParseLineNumberTableAttribute(info []byte) ([]LineNumberEntry, error) {
	r := newReader(info)
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	entries := make([]LineNumberEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		var entry LineNumberEntry
		if entry.StartPC, err = r.u2(); err != nil {
			return nil, err
		}
		if entry.LineNumber, err = r.u2(); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseInnerClassesAttribute decodes an InnerClasses payload.
func ParseInnerClassesAttribute(info []byte) ([]InnerClass, error) {
	r := newReader(info)
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	classes := make([]InnerClass, 0, count)
	for i := uint16(0); i < count; i++ {
		var inner InnerClass
		if inner.InnerClassIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if inner.OuterClassIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if inner.InnerNameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		flags, err := r.u2()
		if err != nil {
			return nil, err
		}
		inner.AccessFlags = ClassAccessFlags(flags)
		classes = append(classes, inner)
	}
	return classes, nil
}

// ParseBootstrapMethodsAttribute decodes a BootstrapMethods payload.
func ParseBootstrapMethodsAttribute(info []byte) ([]BootstrapMethod, error) {
	r := newReader(info)
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, 0, count)
	for i := uint16(0); i < count; i++ {
		var bm BootstrapMethod
		if bm.MethodRef, err = r.u2(); err != nil {
			return nil, err
		}
		argCount, err := r.u2()
		if err != nil {
			return nil, err
		}
		bm.Arguments = make([]uint16, 0, argCount)
		for j := uint16(0); j < argCount; j++ {
			arg, err := r.u2()
			if err != nil {
				return nil, err
			}
			bm.Arguments = append(bm.Arguments, arg)
		}
		methods = append(methods, bm)
	}
	return methods, nil
}
