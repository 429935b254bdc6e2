package classfile

import (
	"errors"
	"fmt"
)

// ClassFile is the parsed representation of a JVM class file, mirroring
// the top-level structure of the format: version, constant pool, access
// flags, this/super class, interfaces, fields, methods, and class-level
// attributes.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool *ConstantPool
	AccessFlags  ClassAccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Field
	Methods      []Method
	Attributes   []Attribute
}

// Field is a field_info record.
type Field struct {
	AccessFlags     FieldAccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Method is a method_info record.
type Method struct {
	AccessFlags     MethodAccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// ClassName returns the binary name of this class, for example
// "java/lang/String".
func (c *ClassFile) ClassName() (string, error) {
	return c.ConstantPool.ClassName(c.ThisClass)
}

// SuperClassName returns the binary name of the direct superclass, or ""
// when super_class is zero, which only happens for java/lang/Object and
// module-info.
func (c *ClassFile) SuperClassName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	return c.ConstantPool.ClassName(c.SuperClass)
}

// InterfaceNames returns the binary names of the directly implemented
// interfaces, in declaration order.
func (c *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(c.Interfaces))
	for _, index := range c.Interfaces {
		name, err := c.ConstantPool.ClassName(index)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// SourceFileName returns the value of the SourceFile attribute, or ""
// when the class carries none.
func (c *ClassFile) SourceFileName() (string, error) {
	attr, err := findAttribute(c.Attributes, c.ConstantPool, AttrSourceFile)
	if err != nil || attr == nil {
		return "", err
	}
	index, err := ParseSourceFileAttribute(attr.Info)
	if err != nil {
		return "", err
	}
	return c.ConstantPool.Utf8(index)
}

// BootstrapMethods returns the decoded BootstrapMethods attribute, or nil
// when the class carries none.
func (c *ClassFile) BootstrapMethods() ([]BootstrapMethod, error) {
	attr, err := findAttribute(c.Attributes, c.ConstantPool, AttrBootstrapMethods)
	if err != nil || attr == nil {
		return nil, err
	}
	return ParseBootstrapMethodsAttribute(attr.Info)
}

// InnerClasses returns the decoded InnerClasses attribute, or nil when
// the class carries none.
func (c *ClassFile) InnerClasses() ([]InnerClass, error) {
	attr, err := findAttribute(c.Attributes, c.ConstantPool, AttrInnerClasses)
	if err != nil || attr == nil {
		return nil, err
	}
	return ParseInnerClassesAttribute(attr.Info)
}

// IsInterface reports whether this class file describes an interface.
func (c *ClassFile) IsInterface() bool {
	return c.AccessFlags.Has(ClassAccInterface)
}

// Name resolves the field name through the constant pool.
func (f *Field) Name(pool *ConstantPool) (string, error) {
	return pool.Utf8(f.NameIndex)
}

// Descriptor resolves the field descriptor through the constant pool.
func (f *Field) Descriptor(pool *ConstantPool) (string, error) {
	return pool.Utf8(f.DescriptorIndex)
}

// ConstantValue returns the constant pool index from the field's
// ConstantValue attribute, or zero when the field carries none.
func (f *Field) ConstantValue(pool *ConstantPool) (uint16, error) {
	attr, err := findAttribute(f.Attributes, pool, AttrConstantValue)
	if err != nil || attr == nil {
		return 0, err
	}
	return ParseConstantValueAttribute(attr.Info)
}

// Name resolves the method name through the constant pool.
func (m *Method) Name(pool *ConstantPool) (string, error) {
	return pool.Utf8(m.NameIndex)
}

// Descriptor resolves the method descriptor through the constant pool.
func (m *Method) Descriptor(pool *ConstantPool) (string, error) {
	return pool.Utf8(m.DescriptorIndex)
}

// Code returns the decoded Code attribute, or nil when the method has
// none, which is the case for abstract and native methods.
func (m *Method) Code(pool *ConstantPool) (*CodeAttribute, error) {
	attr, err := findAttribute(m.Attributes, pool, AttrCode)
	if err != nil || attr == nil {
		return nil, err
	}
	return ParseCodeAttribute(attr.Info)
}

// Exceptions returns the binary names of the declared thrown exception
// classes, or nil when the method has no Exceptions attribute.
func (m *Method) Exceptions(pool *ConstantPool) ([]string, error) {
	attr, err := findAttribute(m.Attributes, pool, AttrExceptions)
	if err != nil || attr == nil {
		return nil, err
	}
	indexes, err := ParseExceptionsAttribute(attr.Info)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(indexes))
	for _, index := range indexes {
		name, err := pool.ClassName(index)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// IsConstructor reports whether the method is an instance initializer.
func (m *Method) IsConstructor(pool *ConstantPool) bool {
	name, err := m.Name(pool)
	return err == nil && name == "<init>"
}

// findAttribute returns the first attribute with the given name, or nil
// when absent. Attributes whose name index cannot be resolved are an
// error except when the name resolves to a different string.
func findAttribute(attributes []Attribute, pool *ConstantPool, name string) (*Attribute, error) {
	for i := range attributes {
		attrName, err := attributes[i].Name(pool)
		if err != nil {
			return nil, fmt.Errorf("attribute name: %w", err)
		}
		if attrName == name {
			return &attributes[i], nil
		}
	}
	return nil, nil
}

// IsParseError reports whether err is a structural class file error,
// as opposed to an I/O failure.
func IsParseError(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, ErrInvalidMagic) ||
		errors.Is(err, ErrUnsupportedVersion) ||
		errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrInvalidConstantTag) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrConstantTypeMismatch) ||
		errors.Is(err, ErrMalformedAttribute)
}
