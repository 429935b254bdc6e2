package classfile

import (
	"fmt"
	"math"
)

// Constant pool tags from Table 4.4-A of the class file format.
const (
	TagUtf8               uint8 = 1
	TagInteger            uint8 = 3
	TagFloat              uint8 = 4
	TagLong               uint8 = 5
	TagDouble             uint8 = 6
	TagClass              uint8 = 7
	TagString             uint8 = 8
	TagFieldref           uint8 = 9
	TagMethodref          uint8 = 10
	TagInterfaceMethodref uint8 = 11
	TagNameAndType        uint8 = 12
	TagMethodHandle       uint8 = 15
	TagMethodType         uint8 = 16
	TagDynamic            uint8 = 17
	TagInvokeDynamic      uint8 = 18
	TagModule             uint8 = 19
	TagPackage            uint8 = 20
)

// TagName returns the display name for a constant pool tag, matching the
// names used in the "Constant pool:" section of disassembly output.
func TagName(tag uint8) string {
	switch tag {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return fmt.Sprintf("Unknown(%d)", tag)
	}
}

// Constant is implemented by every constant pool entry type.
type Constant interface {
	Tag() uint8
}

// Utf8Constant holds a string value. Interpreted as standard UTF-8, which
// matches modified UTF-8 for all strings without embedded NULs or
// supplementary characters.
type Utf8Constant struct {
	Value string
}

// IntegerConstant holds a 32-bit integer value.
type IntegerConstant struct {
	Value int32
}

// FloatConstant holds a 32-bit float value.
type FloatConstant struct {
	Value float32
}

// LongConstant holds a 64-bit integer value. It occupies two constant
// pool slots; the slot after it is unusable.
type LongConstant struct {
	Value int64
}

// DoubleConstant holds a 64-bit float value. It occupies two constant
// pool slots; the slot after it is unusable.
type DoubleConstant struct {
	Value float64
}

// ClassConstant refers to a class or interface by the Utf8 index of its
// binary name.
type ClassConstant struct {
	NameIndex uint16
}

// StringConstant refers to a java.lang.String literal via a Utf8 index.
type StringConstant struct {
	StringIndex uint16
}

// FieldrefConstant refers to a field of a class.
type FieldrefConstant struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// MethodrefConstant refers to a method of a class.
type MethodrefConstant struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// InterfaceMethodrefConstant refers to a method of an interface.
type InterfaceMethodrefConstant struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// NameAndTypeConstant pairs a name with a field or method descriptor.
type NameAndTypeConstant struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

// MethodHandleConstant describes a method handle. ReferenceKind is in the
// range 1-9 and determines how ReferenceIndex is interpreted.
type MethodHandleConstant struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

// MethodTypeConstant refers to a method descriptor via a Utf8 index.
type MethodTypeConstant struct {
	DescriptorIndex uint16
}

// DynamicConstant describes a dynamically computed constant.
type DynamicConstant struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

// InvokeDynamicConstant describes a dynamically computed call site.
type InvokeDynamicConstant struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

// ModuleConstant refers to a module by the Utf8 index of its name.
type ModuleConstant struct {
	NameIndex uint16
}

// PackageConstant refers to a package by the Utf8 index of its name.
type PackageConstant struct {
	NameIndex uint16
}

func (Utf8Constant) Tag() uint8               { return TagUtf8 }
func (IntegerConstant) Tag() uint8            { return TagInteger }
func (FloatConstant) Tag() uint8              { return TagFloat }
func (LongConstant) Tag() uint8               { return TagLong }
func (DoubleConstant) Tag() uint8             { return TagDouble }
func (ClassConstant) Tag() uint8              { return TagClass }
func (StringConstant) Tag() uint8             { return TagString }
func (FieldrefConstant) Tag() uint8           { return TagFieldref }
func (MethodrefConstant) Tag() uint8          { return TagMethodref }
func (InterfaceMethodrefConstant) Tag() uint8 { return TagInterfaceMethodref }
func (NameAndTypeConstant) Tag() uint8        { return TagNameAndType }
func (MethodHandleConstant) Tag() uint8       { return TagMethodHandle }
func (MethodTypeConstant) Tag() uint8         { return TagMethodType }
func (DynamicConstant) Tag() uint8            { return TagDynamic }
func (InvokeDynamicConstant) Tag() uint8      { return TagInvokeDynamic }
func (ModuleConstant) Tag() uint8             { return TagModule }
func (PackageConstant) Tag() uint8            { return TagPackage }

// ConstantPool holds the constant pool of a class file. Indexes are
// 1-based as in the class file format: valid indexes run from 1 to
// count-1, where count is the declared constant_pool_count. Slot 0 is
// never usable, and the slot following a Long or Double entry is
// reserved and holds no entry.
type ConstantPool struct {
	entries []Constant
}

// Count returns the declared constant_pool_count, which is one more than
// the number of slots in the pool.
func (p *ConstantPool) Count() int {
	return len(p.entries)
}

// Get returns the constant at the given 1-based index. It fails with
// ErrIndexOutOfRange for index zero, indexes at or beyond the pool count,
// and the reserved slot after a Long or Double entry.
func (p *ConstantPool) Get(index uint16) (Constant, error) {
	if index == 0 || int(index) >= len(p.entries) {
		return nil, fmt.Errorf("constant #%d: %w", index, ErrIndexOutOfRange)
	}
	c := p.entries[index]
	if c == nil {
		// Reserved slot following a Long or Double entry.
		return nil, fmt.Errorf("constant #%d: %w", index, ErrIndexOutOfRange)
	}
	return c, nil
}

// Utf8 resolves the Utf8 constant at the given index.
func (p *ConstantPool) Utf8(index uint16) (string, error) {
	c, err := p.Get(index)
	if err != nil {
		return "", err
	}
	utf8, ok := c.(Utf8Constant)
	if !ok {
		return "", fmt.Errorf("constant #%d is %s, want Utf8: %w", index, TagName(c.Tag()), ErrConstantTypeMismatch)
	}
	return utf8.Value, nil
}

// ClassName resolves the Class constant at the given index to the binary
// name of the class, for example "java/lang/Object".
func (p *ConstantPool) ClassName(index uint16) (string, error) {
	c, err := p.Get(index)
	if err != nil {
		return "", err
	}
	class, ok := c.(ClassConstant)
	if !ok {
		return "", fmt.Errorf("constant #%d is %s, want Class: %w", index, TagName(c.Tag()), ErrConstantTypeMismatch)
	}
	return p.Utf8(class.NameIndex)
}

// NameAndType resolves the NameAndType constant at the given index to its
// name and descriptor strings.
func (p *ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	c, err := p.Get(index)
	if err != nil {
		return "", "", err
	}
	nat, ok := c.(NameAndTypeConstant)
	if !ok {
		return "", "", fmt.Errorf("constant #%d is %s, want NameAndType: %w", index, TagName(c.Tag()), ErrConstantTypeMismatch)
	}
	if name, err = p.Utf8(nat.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = p.Utf8(nat.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// NameAndTypeString resolves a NameAndType constant to the display form
// used in disassembly comments: the name is always quoted, for example
// "\"<init>\":()V".
func (p *ConstantPool) NameAndTypeString(index uint16) (string, error) {
	name, descriptor, err := p.NameAndType(index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%q:%s", name, descriptor), nil
}

// MemberRef is a resolved field, method, or interface method reference.
type MemberRef struct {
	Tag        uint8
	Owner      string
	Name       string
	Descriptor string
}

// String returns the display form used in disassembly comments, for
// example `java/lang/Object."<init>":()V`.
func (r MemberRef) String() string {
	return fmt.Sprintf("%s.%q:%s", r.Owner, r.Name, r.Descriptor)
}

// Ref resolves a Fieldref, Methodref, or InterfaceMethodref constant at
// the given index to the owning class, member name, and descriptor.
func (p *ConstantPool) Ref(index uint16) (MemberRef, error) {
	c, err := p.Get(index)
	if err != nil {
		return MemberRef{}, err
	}

	var classIndex, natIndex uint16
	switch ref := c.(type) {
	case FieldrefConstant:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case MethodrefConstant:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case InterfaceMethodrefConstant:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	default:
		return MemberRef{}, fmt.Errorf("constant #%d is %s, want a member reference: %w", index, TagName(c.Tag()), ErrConstantTypeMismatch)
	}

	ref := MemberRef{Tag: c.Tag()}
	if ref.Owner, err = p.ClassName(classIndex); err != nil {
		return MemberRef{}, err
	}
	if ref.Name, ref.Descriptor, err = p.NameAndType(natIndex); err != nil {
		return MemberRef{}, err
	}
	return ref, nil
}

// StringValue resolves the String constant at the given index to its
// literal value.
func (p *ConstantPool) StringValue(index uint16) (string, error) {
	c, err := p.Get(index)
	if err != nil {
		return "", err
	}
	s, ok := c.(StringConstant)
	if !ok {
		return "", fmt.Errorf("constant #%d is %s, want String: %w", index, TagName(c.Tag()), ErrConstantTypeMismatch)
	}
	return p.Utf8(s.StringIndex)
}

// parseConstantPool reads the constant_pool_count and all entries. Long
// and Double entries occupy two slots; the second slot stays nil.
func parseConstantPool(r *reader) (*ConstantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	pool := &ConstantPool{entries: make([]Constant, count)}
	for i := uint16(1); i < count; i++ {
		tagOffset := r.offset()
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}

		entry, err := parseConstant(r, tag)
		if err != nil {
			if _, ok := err.(*ParseError); ok {
				return nil, err
			}
			return nil, errAt(tagOffset, err)
		}
		pool.entries[i] = entry

		// 8-byte constants take up two slots.
		if tag == TagLong || tag == TagDouble {
			i++
		}
	}
	return pool, nil
}

// parseConstant reads the body of a single constant pool entry.
func parseConstant(r *reader, tag uint8) (Constant, error) {
	switch tag {
	case TagUtf8:
		length, err := r.u2()
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		return Utf8Constant{Value: string(b)}, nil

	case TagInteger:
		v, err := r.u4()
		if err != nil {
			return nil, err
		}
		return IntegerConstant{Value: int32(v)}, nil

	case TagFloat:
		v, err := r.u4()
		if err != nil {
			return nil, err
		}
		return FloatConstant{Value: math.Float32frombits(v)}, nil

	case TagLong:
		v, err := r.u8()
		if err != nil {
			return nil, err
		}
		return LongConstant{Value: int64(v)}, nil

	case TagDouble:
		v, err := r.u8()
		if err != nil {
			return nil, err
		}
		return DoubleConstant{Value: math.Float64frombits(v)}, nil

	case TagClass:
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		return ClassConstant{NameIndex: nameIndex}, nil

	case TagString:
		stringIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		return StringConstant{StringIndex: stringIndex}, nil

	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		classIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		natIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagFieldref:
			return FieldrefConstant{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		case TagMethodref:
			return MethodrefConstant{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		default:
			return InterfaceMethodrefConstant{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		}

	case TagNameAndType:
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		descriptorIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		return NameAndTypeConstant{NameIndex: nameIndex, DescriptorIndex: descriptorIndex}, nil

	case TagMethodHandle:
		kind, err := r.u1()
		if err != nil {
			return nil, err
		}
		refIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		return MethodHandleConstant{ReferenceKind: kind, ReferenceIndex: refIndex}, nil

	case TagMethodType:
		descriptorIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		return MethodTypeConstant{DescriptorIndex: descriptorIndex}, nil

	case TagDynamic, TagInvokeDynamic:
		bootstrapIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		natIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		if tag == TagDynamic {
			return DynamicConstant{BootstrapMethodAttrIndex: bootstrapIndex, NameAndTypeIndex: natIndex}, nil
		}
		return InvokeDynamicConstant{BootstrapMethodAttrIndex: bootstrapIndex, NameAndTypeIndex: natIndex}, nil

	case TagModule:
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		return ModuleConstant{NameIndex: nameIndex}, nil

	case TagPackage:
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		return PackageConstant{NameIndex: nameIndex}, nil

	default:
		// There is no way to know the entry size, so parsing cannot
		// continue past an unknown tag.
		return nil, fmt.Errorf("tag %d: %w", tag, ErrInvalidConstantTag)
	}
}
