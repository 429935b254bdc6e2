package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
)

// ClassBuilder assembles a structurally valid JVM class file in memory so
// tests do not need compiled .class fixtures on disk. Constants are
// deduplicated the way javac emits them; every Add method returns the
// 1-based constant pool index it resolved to.
type ClassBuilder struct {
	minor uint16
	major uint16

	// Encoded pool entries, 1-based. A nil entry is the reserved slot
	// after a Long or Double.
	pool [][]byte

	utf8Index  map[string]uint16
	classIndex map[string]uint16
	natIndex   map[string]uint16

	accessFlags uint16
	thisClass   uint16
	superClass  uint16
	interfaces  []uint16
	fields      []memberInfo
	methods     []memberInfo
	attributes  []attributeInfo
}

type memberInfo struct {
	accessFlags     uint16
	nameIndex       uint16
	descriptorIndex uint16
	attributes      []attributeInfo
}

type attributeInfo struct {
	nameIndex uint16
	info      []byte
}

// CodeSpec describes a Code attribute for AddMethodWithCode.
type CodeSpec struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionSpec
	LineNumbers    []LineNumberSpec
}

// ExceptionSpec is one exception table entry. CatchClass "" produces a
// catch-all entry (catch_type zero).
type ExceptionSpec struct {
	StartPC    uint16
	EndPC      uint16
	HandlerPC  uint16
	CatchClass string
}

// LineNumberSpec is one LineNumberTable entry.
type LineNumberSpec struct {
	StartPC uint16
	Line    uint16
}

// NewClassBuilder creates a builder for a class with the given binary
// name, defaulting to version 52.0 (Java 8), flags public+super, and
// java/lang/Object as the superclass.
func NewClassBuilder(name string) *ClassBuilder {
	b := &ClassBuilder{
		minor:      0,
		major:      52,
		pool:       make([][]byte, 1), // slot 0 is unused
		utf8Index:  make(map[string]uint16),
		classIndex: make(map[string]uint16),
		natIndex:   make(map[string]uint16),
	}
	b.accessFlags = 0x0021 // ACC_PUBLIC | ACC_SUPER
	b.thisClass = b.AddClass(name)
	b.superClass = b.AddClass("java/lang/Object")
	return b
}

// Version overrides the class file version.
func (b *ClassBuilder) Version(major, minor uint16) *ClassBuilder {
	b.major, b.minor = major, minor
	return b
}

// AccessFlags overrides the class access flags.
func (b *ClassBuilder) AccessFlags(flags uint16) *ClassBuilder {
	b.accessFlags = flags
	return b
}

// NoSuperClass clears the super_class index, as for java/lang/Object.
func (b *ClassBuilder) NoSuperClass() *ClassBuilder {
	b.superClass = 0
	return b
}

// SuperClass replaces the superclass.
func (b *ClassBuilder) SuperClass(name string) *ClassBuilder {
	b.superClass = b.AddClass(name)
	return b
}

// AddInterface appends an implemented interface.
func (b *ClassBuilder) AddInterface(name string) *ClassBuilder {
	b.interfaces = append(b.interfaces, b.AddClass(name))
	return b
}

// AddUtf8 interns a Utf8 constant and returns its index.
func (b *ClassBuilder) AddUtf8(s string) uint16 {
	if index, ok := b.utf8Index[s]; ok {
		return index
	}
	var buf bytes.Buffer
	buf.WriteByte(1) // CONSTANT_Utf8
	writeU16(&buf, uint16(len(s)))
	buf.WriteString(s)
	index := b.appendEntry(buf.Bytes())
	b.utf8Index[s] = index
	return index
}

// AddInteger appends an Integer constant.
func (b *ClassBuilder) AddInteger(v int32) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(3)
	writeU32(&buf, uint32(v))
	return b.appendEntry(buf.Bytes())
}

// AddFloat appends a Float constant.
func (b *ClassBuilder) AddFloat(v float32) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(4)
	writeU32(&buf, math.Float32bits(v))
	return b.appendEntry(buf.Bytes())
}

// AddLong appends a Long constant. It occupies two pool slots.
func (b *ClassBuilder) AddLong(v int64) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(5)
	writeU64(&buf, uint64(v))
	index := b.appendEntry(buf.Bytes())
	b.pool = append(b.pool, nil) // reserved slot
	return index
}

// AddDouble appends a Double constant. It occupies two pool slots.
func (b *ClassBuilder) AddDouble(v float64) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(6)
	writeU64(&buf, math.Float64bits(v))
	index := b.appendEntry(buf.Bytes())
	b.pool = append(b.pool, nil) // reserved slot
	return index
}

// AddClass interns a Class constant for the given binary name.
func (b *ClassBuilder) AddClass(name string) uint16 {
	if index, ok := b.classIndex[name]; ok {
		return index
	}
	nameIndex := b.AddUtf8(name)
	var buf bytes.Buffer
	buf.WriteByte(7)
	writeU16(&buf, nameIndex)
	index := b.appendEntry(buf.Bytes())
	b.classIndex[name] = index
	return index
}

// AddString appends a String constant for the given literal.
func (b *ClassBuilder) AddString(s string) uint16 {
	stringIndex := b.AddUtf8(s)
	var buf bytes.Buffer
	buf.WriteByte(8)
	writeU16(&buf, stringIndex)
	return b.appendEntry(buf.Bytes())
}

// AddNameAndType interns a NameAndType constant.
func (b *ClassBuilder) AddNameAndType(name, descriptor string) uint16 {
	key := name + ":" + descriptor
	if index, ok := b.natIndex[key]; ok {
		return index
	}
	nameIndex := b.AddUtf8(name)
	descriptorIndex := b.AddUtf8(descriptor)
	var buf bytes.Buffer
	buf.WriteByte(12)
	writeU16(&buf, nameIndex)
	writeU16(&buf, descriptorIndex)
	index := b.appendEntry(buf.Bytes())
	b.natIndex[key] = index
	return index
}

// AddFieldref appends a Fieldref constant.
func (b *ClassBuilder) AddFieldref(owner, name, descriptor string) uint16 {
	return b.addRef(9, owner, name, descriptor)
}

// AddMethodref appends a Methodref constant.
func (b *ClassBuilder) AddMethodref(owner, name, descriptor string) uint16 {
	return b.addRef(10, owner, name, descriptor)
}

// AddInterfaceMethodref appends an InterfaceMethodref constant.
func (b *ClassBuilder) AddInterfaceMethodref(owner, name, descriptor string) uint16 {
	return b.addRef(11, owner, name, descriptor)
}

func (b *ClassBuilder) addRef(tag byte, owner, name, descriptor string) uint16 {
	classIndex := b.AddClass(owner)
	natIndex := b.AddNameAndType(name, descriptor)
	var buf bytes.Buffer
	buf.WriteByte(tag)
	writeU16(&buf, classIndex)
	writeU16(&buf, natIndex)
	return b.appendEntry(buf.Bytes())
}

// AddInvokeDynamic appends an InvokeDynamic constant pointing at the
// given bootstrap method index.
func (b *ClassBuilder) AddInvokeDynamic(bootstrapIndex uint16, name, descriptor string) uint16 {
	natIndex := b.AddNameAndType(name, descriptor)
	var buf bytes.Buffer
	buf.WriteByte(18)
	writeU16(&buf, bootstrapIndex)
	writeU16(&buf, natIndex)
	return b.appendEntry(buf.Bytes())
}

// AddRawConstant appends pre-encoded constant bytes without validation.
// Useful for producing deliberately malformed pools.
func (b *ClassBuilder) AddRawConstant(raw []byte) uint16 {
	return b.appendEntry(raw)
}

func (b *ClassBuilder) appendEntry(encoded []byte) uint16 {
	index := uint16(len(b.pool))
	b.pool = append(b.pool, encoded)
	return index
}

// AddField appends a field with no attributes.
func (b *ClassBuilder) AddField(flags uint16, name, descriptor string) *ClassBuilder {
	b.fields = append(b.fields, memberInfo{
		accessFlags:     flags,
		nameIndex:       b.AddUtf8(name),
		descriptorIndex: b.AddUtf8(descriptor),
	})
	return b
}

// AddFieldWithConstant appends a field carrying a ConstantValue attribute
// pointing at the given pool index.
func (b *ClassBuilder) AddFieldWithConstant(flags uint16, name, descriptor string, valueIndex uint16) *ClassBuilder {
	var info bytes.Buffer
	writeU16(&info, valueIndex)
	b.fields = append(b.fields, memberInfo{
		accessFlags:     flags,
		nameIndex:       b.AddUtf8(name),
		descriptorIndex: b.AddUtf8(descriptor),
		attributes: []attributeInfo{
			{nameIndex: b.AddUtf8("ConstantValue"), info: info.Bytes()},
		},
	})
	return b
}

// AddMethod appends a method with no attributes, as for abstract or
// native methods.
func (b *ClassBuilder) AddMethod(flags uint16, name, descriptor string) *ClassBuilder {
	b.methods = append(b.methods, memberInfo{
		accessFlags:     flags,
		nameIndex:       b.AddUtf8(name),
		descriptorIndex: b.AddUtf8(descriptor),
	})
	return b
}

// AddMethodWithAttribute appends a method carrying one raw attribute,
// such as Exceptions or Signature.
func (b *ClassBuilder) AddMethodWithAttribute(flags uint16, name, descriptor, attrName string, info []byte) *ClassBuilder {
	b.methods = append(b.methods, memberInfo{
		accessFlags:     flags,
		nameIndex:       b.AddUtf8(name),
		descriptorIndex: b.AddUtf8(descriptor),
		attributes: []attributeInfo{
			{nameIndex: b.AddUtf8(attrName), info: info},
		},
	})
	return b
}

// AddMethodWithCode appends a method carrying a Code attribute.
func (b *ClassBuilder) AddMethodWithCode(flags uint16, name, descriptor string, code CodeSpec) *ClassBuilder {
	var info bytes.Buffer
	writeU16(&info, code.MaxStack)
	writeU16(&info, code.MaxLocals)
	writeU32(&info, uint32(len(code.Code)))
	info.Write(code.Code)

	writeU16(&info, uint16(len(code.ExceptionTable)))
	for _, e := range code.ExceptionTable {
		writeU16(&info, e.StartPC)
		writeU16(&info, e.EndPC)
		writeU16(&info, e.HandlerPC)
		if e.CatchClass == "" {
			writeU16(&info, 0)
		} else {
			writeU16(&info, b.AddClass(e.CatchClass))
		}
	}

	var nested []attributeInfo
	if len(code.LineNumbers) > 0 {
		var lnt bytes.Buffer
		writeU16(&lnt, uint16(len(code.LineNumbers)))
		for _, ln := range code.LineNumbers {
			writeU16(&lnt, ln.StartPC)
			writeU16(&lnt, ln.Line)
		}
		nested = append(nested, attributeInfo{nameIndex: b.AddUtf8("LineNumberTable"), info: lnt.Bytes()})
	}
	writeU16(&info, uint16(len(nested)))
	for _, a := range nested {
		writeU16(&info, a.nameIndex)
		writeU32(&info, uint32(len(a.info)))
		info.Write(a.info)
	}

	b.methods = append(b.methods, memberInfo{
		accessFlags:     flags,
		nameIndex:       b.AddUtf8(name),
		descriptorIndex: b.AddUtf8(descriptor),
		attributes: []attributeInfo{
			{nameIndex: b.AddUtf8("Code"), info: info.Bytes()},
		},
	})
	return b
}

// AddDefaultConstructor appends the standard no-arg constructor that
// javac generates: aload_0, invokespecial Object.<init>, return.
func (b *ClassBuilder) AddDefaultConstructor() *ClassBuilder {
	superInit := b.AddMethodref("java/lang/Object", "<init>", "()V")
	code := []byte{
		0x2a, // aload_0
		0xb7, byte(superInit >> 8), byte(superInit & 0xff), // invokespecial
		0xb1, // return
	}
	return b.AddMethodWithCode(0x0001, "<init>", "()V", CodeSpec{
		MaxStack:    1,
		MaxLocals:   1,
		Code:        code,
		LineNumbers: []LineNumberSpec{{StartPC: 0, Line: 1}},
	})
}

// SourceFile attaches a SourceFile attribute.
func (b *ClassBuilder) SourceFile(name string) *ClassBuilder {
	var info bytes.Buffer
	writeU16(&info, b.AddUtf8(name))
	b.attributes = append(b.attributes, attributeInfo{
		nameIndex: b.AddUtf8("SourceFile"),
		info:      info.Bytes(),
	})
	return b
}

// AddClassAttribute attaches an arbitrary class-level attribute.
func (b *ClassBuilder) AddClassAttribute(name string, info []byte) *ClassBuilder {
	b.attributes = append(b.attributes, attributeInfo{
		nameIndex: b.AddUtf8(name),
		info:      info,
	})
	return b
}

// Build serializes the class file.
func (b *ClassBuilder) Build() []byte {
	var buf bytes.Buffer
	writeU32(&buf, 0xCAFEBABE)
	writeU16(&buf, b.minor)
	writeU16(&buf, b.major)

	// constant_pool_count is the slot count plus one; len(b.pool)
	// already includes the unused slot 0.
	writeU16(&buf, uint16(len(b.pool)))
	for _, entry := range b.pool[1:] {
		buf.Write(entry) // nil (reserved) slots write nothing
	}

	writeU16(&buf, b.accessFlags)
	writeU16(&buf, b.thisClass)
	writeU16(&buf, b.superClass)

	writeU16(&buf, uint16(len(b.interfaces)))
	for _, index := range b.interfaces {
		writeU16(&buf, index)
	}

	writeMembers(&buf, b.fields)
	writeMembers(&buf, b.methods)
	writeAttributes(&buf, b.attributes)
	return buf.Bytes()
}

func writeMembers(buf *bytes.Buffer, members []memberInfo) {
	writeU16(buf, uint16(len(members)))
	for _, m := range members {
		writeU16(buf, m.accessFlags)
		writeU16(buf, m.nameIndex)
		writeU16(buf, m.descriptorIndex)
		writeAttributes(buf, m.attributes)
	}
}

func writeAttributes(buf *bytes.Buffer, attributes []attributeInfo) {
	writeU16(buf, uint16(len(attributes)))
	for _, a := range attributes {
		writeU16(buf, a.nameIndex)
		writeU32(buf, uint32(len(a.info)))
		buf.Write(a.info)
	}
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// MinimalClassBytes builds the smallest useful fixture: a public class
// with a default constructor and a SourceFile attribute.
func MinimalClassBytes(name string) []byte {
	return NewClassBuilder(name).
		AddDefaultConstructor().
		SourceFile(name + ".java").
		Build()
}
