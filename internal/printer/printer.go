// Package printer renders parsed class files as javap-style text:
// a header block, the constant pool listing, per-member blocks with
// disassembled bytecode, and the trailing class attributes.
//
// Rendering never fails on input the parser accepted. Constant pool
// references that do not resolve simply lose their comment, and a
// malformed instruction stream is rendered up to the offending byte.
package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/class-inspect/internal/bytecode"
	"github.com/class-inspect/internal/classfile"
)

// Print renders the class file as disassembly text.
func Print(cf *classfile.ClassFile) string {
	p := &printer{cf: cf, pool: cf.ConstantPool}
	p.header()
	p.constantPool()
	p.members()
	p.trailer()
	return p.b.String()
}

// Fprint renders the class file to w.
func Fprint(w io.Writer, cf *classfile.ClassFile) error {
	_, err := io.WriteString(w, Print(cf))
	return err
}

type printer struct {
	b    strings.Builder
	cf   *classfile.ClassFile
	pool *classfile.ConstantPool
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(&p.b, format, args...)
}

func (p *printer) header() {
	p.printf("%s\n", p.classDeclaration())
	p.printf("  minor version: %d\n", p.cf.MinorVersion)
	p.printf("  major version: %d\n", p.cf.MajorVersion)
	p.printf("%s\n", flagsLine("  ", uint16(p.cf.AccessFlags), p.cf.AccessFlags.String()))
	p.printf("%s\n", withComment(fmt.Sprintf("  this_class: #%d", p.cf.ThisClass), p.className(p.cf.ThisClass)))
	if p.cf.SuperClass == 0 {
		p.printf("  super_class: #0\n")
	} else {
		p.printf("%s\n", withComment(fmt.Sprintf("  super_class: #%d", p.cf.SuperClass), p.className(p.cf.SuperClass)))
	}
	p.printf("  interfaces: %d, fields: %d, methods: %d, attributes: %d\n",
		len(p.cf.Interfaces), len(p.cf.Fields), len(p.cf.Methods), len(p.cf.Attributes))
}

// classDeclaration builds the first line, for example
// "public class Dummy" or "public interface Runner".
func (p *printer) classDeclaration() string {
	flags := p.cf.AccessFlags
	words := make([]string, 0, 4)
	if flags.Has(classfile.ClassAccPublic) {
		words = append(words, "public")
	}
	if flags.Has(classfile.ClassAccFinal) {
		words = append(words, "final")
	}

	switch {
	case flags.Has(classfile.ClassAccAnnotation):
		words = append(words, "@interface")
	case flags.Has(classfile.ClassAccInterface):
		words = append(words, "interface")
	case flags.Has(classfile.ClassAccEnum):
		words = append(words, "enum")
	default:
		if flags.Has(classfile.ClassAccAbstract) {
			words = append(words, "abstract")
		}
		words = append(words, "class")
	}

	words = append(words, p.className(p.cf.ThisClass))

	if len(p.cf.Interfaces) > 0 {
		names := make([]string, 0, len(p.cf.Interfaces))
		for _, index := range p.cf.Interfaces {
			names = append(names, p.className(index))
		}
		words = append(words, "implements", strings.Join(names, ", "))
	}
	return strings.Join(words, " ")
}

func (p *printer) constantPool() {
	p.printf("Constant pool:\n")
	for i := uint16(1); i < uint16(p.pool.Count()); i++ {
		c, err := p.pool.Get(i)
		if err != nil {
			// Reserved slot after a Long or Double.
			continue
		}
		operand, comment := p.constantText(c)
		line := fmt.Sprintf("%5s = %-19s%s", "#"+strconv.Itoa(int(i)), classfile.TagName(c.Tag()), operand)
		p.printf("%s\n", withComment(line, comment))
	}
}

// constantText returns the operand column and the resolved comment for
// one pool entry.
func (p *printer) constantText(c classfile.Constant) (string, string) {
	switch e := c.(type) {
	case classfile.Utf8Constant:
		return e.Value, ""
	case classfile.IntegerConstant:
		return strconv.FormatInt(int64(e.Value), 10), ""
	case classfile.FloatConstant:
		return formatFloat(float64(e.Value), 32) + "f", ""
	case classfile.LongConstant:
		return strconv.FormatInt(e.Value, 10) + "l", ""
	case classfile.DoubleConstant:
		return formatFloat(e.Value, 64) + "d", ""
	case classfile.ClassConstant:
		return fmt.Sprintf("#%d", e.NameIndex), p.utf8(e.NameIndex)
	case classfile.StringConstant:
		return fmt.Sprintf("#%d", e.StringIndex), p.utf8(e.StringIndex)
	case classfile.FieldrefConstant:
		return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex), p.refComment(c)
	case classfile.MethodrefConstant:
		return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex), p.refComment(c)
	case classfile.InterfaceMethodrefConstant:
		return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex), p.refComment(c)
	case classfile.NameAndTypeConstant:
		return fmt.Sprintf("#%d:#%d", e.NameIndex, e.DescriptorIndex), p.nameAndType(c)
	case classfile.MethodHandleConstant:
		return fmt.Sprintf("%d:#%d", e.ReferenceKind, e.ReferenceIndex),
			strings.TrimSpace(referenceKindName(e.ReferenceKind) + " " + p.poolComment(e.ReferenceIndex))
	case classfile.MethodTypeConstant:
		return fmt.Sprintf("#%d", e.DescriptorIndex), p.utf8(e.DescriptorIndex)
	case classfile.DynamicConstant:
		return fmt.Sprintf("#%d:#%d", e.BootstrapMethodAttrIndex, e.NameAndTypeIndex),
			fmt.Sprintf("#%d:%s", e.BootstrapMethodAttrIndex, p.nameAndTypeAt(e.NameAndTypeIndex))
	case classfile.InvokeDynamicConstant:
		return fmt.Sprintf("#%d:#%d", e.BootstrapMethodAttrIndex, e.NameAndTypeIndex),
			fmt.Sprintf("#%d:%s", e.BootstrapMethodAttrIndex, p.nameAndTypeAt(e.NameAndTypeIndex))
	case classfile.ModuleConstant:
		return fmt.Sprintf("#%d", e.NameIndex), p.utf8(e.NameIndex)
	case classfile.PackageConstant:
		return fmt.Sprintf("#%d", e.NameIndex), p.utf8(e.NameIndex)
	default:
		return "", ""
	}
}

func (p *printer) members() {
	p.printf("{\n")
	for i := range p.cf.Fields {
		if i > 0 {
			p.printf("\n")
		}
		p.field(&p.cf.Fields[i])
	}
	if len(p.cf.Fields) > 0 && len(p.cf.Methods) > 0 {
		p.printf("\n")
	}
	for i := range p.cf.Methods {
		if i > 0 {
			p.printf("\n")
		}
		p.method(&p.cf.Methods[i])
	}
	p.printf("}\n")
}

func (p *printer) field(f *classfile.Field) {
	name, _ := f.Name(p.pool)
	descriptor, _ := f.Descriptor(p.pool)

	decl := strings.Join(append(f.AccessFlags.Keywords(), name), " ")
	p.printf("  %s;\n", decl)
	p.printf("    descriptor: %s\n", descriptor)
	p.printf("%s\n", flagsLine("    ", uint16(f.AccessFlags), f.AccessFlags.String()))

	if valueIndex, err := f.ConstantValue(p.pool); err == nil && valueIndex != 0 {
		p.printf("    ConstantValue: %s\n", p.constantValueText(valueIndex))
	}
}

// constantValueText renders a ConstantValue target the way the pool
// comment for an ldc of the same constant would read.
func (p *printer) constantValueText(index uint16) string {
	c, err := p.pool.Get(index)
	if err != nil {
		return fmt.Sprintf("#%d", index)
	}
	switch e := c.(type) {
	case classfile.IntegerConstant:
		return fmt.Sprintf("int %d", e.Value)
	case classfile.FloatConstant:
		return fmt.Sprintf("float %sf", formatFloat(float64(e.Value), 32))
	case classfile.LongConstant:
		return fmt.Sprintf("long %dl", e.Value)
	case classfile.DoubleConstant:
		return fmt.Sprintf("double %sd", formatFloat(e.Value, 64))
	case classfile.StringConstant:
		return fmt.Sprintf("String %s", p.utf8(e.StringIndex))
	default:
		return fmt.Sprintf("#%d", index)
	}
}

func (p *printer) method(m *classfile.Method) {
	name, _ := m.Name(p.pool)
	descriptor, _ := m.Descriptor(p.pool)

	decl := strings.Join(append(m.AccessFlags.Keywords(), name), " ")
	p.printf("  %s;\n", decl)
	p.printf("    descriptor: %s\n", descriptor)
	p.printf("%s\n", flagsLine("    ", uint16(m.AccessFlags), m.AccessFlags.String()))

	if code, err := m.Code(p.pool); err == nil && code != nil {
		p.code(code)
	}

	if exceptions, err := m.Exceptions(p.pool); err == nil && len(exceptions) > 0 {
		p.printf("    Exceptions:\n")
		p.printf("      throws %s\n", strings.Join(exceptions, ", "))
	}
}

func (p *printer) code(code *classfile.CodeAttribute) {
	p.printf("    Code:\n")
	p.printf("      stack=%d, locals=%d, code_length=%d\n", code.MaxStack, code.MaxLocals, len(code.Code))

	it := bytecode.NewIterator(code.Code)
	for it.Next() {
		p.instruction(it.Instruction())
	}
	if err := it.Err(); err != nil {
		p.printf("      (disassembly stopped: %v)\n", err)
	}

	if len(code.ExceptionTable) > 0 {
		p.printf("      Exception table:\n")
		p.printf("         from    to  target type\n")
		for _, entry := range code.ExceptionTable {
			p.printf("        %6d%6d%8d   %s\n", entry.StartPC, entry.EndPC, entry.HandlerPC, p.catchType(entry.CatchType))
		}
	}

	for _, attr := range code.Attributes {
		name, err := attr.Name(p.pool)
		if err != nil || name != classfile.AttrLineNumberTable {
			continue
		}
		lines, err := classfile.ParseLineNumberTableAttribute(attr.Info)
		if err != nil {
			continue
		}
		p.printf("      LineNumberTable:\n")
		for _, line := range lines {
			p.printf("        line %d: %d\n", line.LineNumber, line.StartPC)
		}
	}
}

func (p *printer) catchType(index uint16) string {
	if index == 0 {
		return "any"
	}
	name := p.className(index)
	if name == "" {
		return fmt.Sprintf("Class #%d", index)
	}
	return "Class " + name
}

func (p *printer) trailer() {
	if sourceFile, err := p.cf.SourceFileName(); err == nil && sourceFile != "" {
		p.printf("SourceFile: %q\n", sourceFile)
	}

	if inner, err := p.cf.InnerClasses(); err == nil && len(inner) > 0 {
		p.printf("InnerClasses:\n")
		for _, ic := range inner {
			p.printf("%s\n", withComment(
				fmt.Sprintf("  #%d of #%d", ic.InnerClassIndex, ic.OuterClassIndex),
				p.className(ic.InnerClassIndex)))
		}
	}

	if methods, err := p.cf.BootstrapMethods(); err == nil && len(methods) > 0 {
		p.printf("BootstrapMethods:\n")
		for i, bm := range methods {
			p.printf("%s\n", withComment(fmt.Sprintf("  %d: #%d", i, bm.MethodRef), p.poolComment(bm.MethodRef)))
			if len(bm.Arguments) > 0 {
				p.printf("    Method arguments:\n")
				for _, arg := range bm.Arguments {
					p.printf("%s\n", withComment(fmt.Sprintf("      #%d", arg), p.poolComment(arg)))
				}
			}
		}
	}
}

// Resolution helpers. Each returns "" when the index does not resolve;
// the caller then renders without a comment.

func (p *printer) utf8(index uint16) string {
	s, err := p.pool.Utf8(index)
	if err != nil {
		return ""
	}
	return s
}

func (p *printer) className(index uint16) string {
	name, err := p.pool.ClassName(index)
	if err != nil {
		return ""
	}
	return name
}

func (p *printer) nameAndType(c classfile.Constant) string {
	nat, ok := c.(classfile.NameAndTypeConstant)
	if !ok {
		return ""
	}
	name := p.utf8(nat.NameIndex)
	descriptor := p.utf8(nat.DescriptorIndex)
	if name == "" && descriptor == "" {
		return ""
	}
	return fmt.Sprintf("%q:%s", name, descriptor)
}

func (p *printer) nameAndTypeAt(index uint16) string {
	s, err := p.pool.NameAndTypeString(index)
	if err != nil {
		return fmt.Sprintf("#%d", index)
	}
	return s
}

func (p *printer) refComment(c classfile.Constant) string {
	var classIndex, natIndex uint16
	switch e := c.(type) {
	case classfile.FieldrefConstant:
		classIndex, natIndex = e.ClassIndex, e.NameAndTypeIndex
	case classfile.MethodrefConstant:
		classIndex, natIndex = e.ClassIndex, e.NameAndTypeIndex
	case classfile.InterfaceMethodrefConstant:
		classIndex, natIndex = e.ClassIndex, e.NameAndTypeIndex
	default:
		return ""
	}
	owner := p.className(classIndex)
	nat := p.nameAndTypeAt(natIndex)
	if owner == "" {
		return ""
	}
	return owner + "." + nat
}

// poolComment resolves the comment shown next to an instruction or
// attribute operand that references the pool.
func (p *printer) poolComment(index uint16) string {
	c, err := p.pool.Get(index)
	if err != nil {
		return ""
	}
	switch e := c.(type) {
	case classfile.FieldrefConstant, classfile.MethodrefConstant, classfile.InterfaceMethodrefConstant:
		return p.refComment(c)
	case classfile.ClassConstant:
		return "class " + p.utf8(e.NameIndex)
	case classfile.StringConstant:
		return "String " + p.utf8(e.StringIndex)
	case classfile.IntegerConstant:
		return fmt.Sprintf("int %d", e.Value)
	case classfile.FloatConstant:
		return fmt.Sprintf("float %sf", formatFloat(float64(e.Value), 32))
	case classfile.LongConstant:
		return fmt.Sprintf("long %dl", e.Value)
	case classfile.DoubleConstant:
		return fmt.Sprintf("double %sd", formatFloat(e.Value, 64))
	case classfile.MethodHandleConstant:
		return strings.TrimSpace(referenceKindName(e.ReferenceKind) + " " + p.poolComment(e.ReferenceIndex))
	case classfile.MethodTypeConstant:
		return "MethodType " + p.utf8(e.DescriptorIndex)
	case classfile.DynamicConstant:
		return fmt.Sprintf("#%d:%s", e.BootstrapMethodAttrIndex, p.nameAndTypeAt(e.NameAndTypeIndex))
	case classfile.InvokeDynamicConstant:
		return fmt.Sprintf("#%d:%s", e.BootstrapMethodAttrIndex, p.nameAndTypeAt(e.NameAndTypeIndex))
	default:
		return ""
	}
}

// referenceKindName maps method handle kinds to their JVMS names.
func referenceKindName(kind uint8) string {
	switch kind {
	case 1:
		return "REF_getField"
	case 2:
		return "REF_getStatic"
	case 3:
		return "REF_putField"
	case 4:
		return "REF_putStatic"
	case 5:
		return "REF_invokeVirtual"
	case 6:
		return "REF_invokeStatic"
	case 7:
		return "REF_invokeSpecial"
	case 8:
		return "REF_newInvokeSpecial"
	case 9:
		return "REF_invokeInterface"
	default:
		return fmt.Sprintf("REF_%d", kind)
	}
}

// withComment appends a "// comment" column at a fixed offset, or
// returns the line untouched when there is nothing to say.
func withComment(line, comment string) string {
	if comment == "" {
		return line
	}
	return fmt.Sprintf("%-42s // %s", line, comment)
}

// flagsLine renders a "flags: (0xNNNN) ACC_..." line without a trailing
// space when no flags are set.
func flagsLine(indent string, raw uint16, names string) string {
	if names == "" {
		return fmt.Sprintf("%sflags: (0x%04x)", indent, raw)
	}
	return fmt.Sprintf("%sflags: (0x%04x) %s", indent, raw, names)
}

// formatFloat renders float constants with a trailing ".0" for whole
// numbers, the way disassemblers conventionally print them.
func formatFloat(v float64, bits int) string {
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
