package inspector

import (
	"strconv"

	"github.com/class-inspect/internal/bytecode"
	"github.com/class-inspect/internal/classfile"
	"github.com/class-inspect/pkg/model"
)

// Summarize builds the condensed view of a parsed class file. It never
// fails: names that do not resolve through the constant pool are left
// empty rather than aborting the summary.
func Summarize(cf *classfile.ClassFile) *model.ClassSummary {
	className, _ := cf.ClassName()
	superClass, _ := cf.SuperClassName()
	interfaces, _ := cf.InterfaceNames()
	sourceFile, _ := cf.SourceFileName()

	summary := &model.ClassSummary{
		ClassName:     className,
		SuperClass:    superClass,
		Interfaces:    interfaces,
		MajorVersion:  cf.MajorVersion,
		MinorVersion:  cf.MinorVersion,
		JavaRelease:   model.JavaReleaseName(cf.MajorVersion, cf.MinorVersion),
		AccessFlags:   cf.AccessFlags.Names(),
		SourceFile:    sourceFile,
		ConstantCount: cf.ConstantPool.Count(),
	}

	for idx := range cf.Fields {
		summary.Fields = append(summary.Fields, summarizeField(cf, &cf.Fields[idx]))
	}
	for idx := range cf.Methods {
		ms := summarizeMethod(cf, &cf.Methods[idx])
		summary.TotalCodeSize += ms.CodeSize
		summary.Methods = append(summary.Methods, ms)
	}

	return summary
}

func summarizeField(cf *classfile.ClassFile, f *classfile.Field) model.FieldSummary {
	name, _ := f.Name(cf.ConstantPool)
	descriptor, _ := f.Descriptor(cf.ConstantPool)

	fs := model.FieldSummary{
		Name:        name,
		Descriptor:  descriptor,
		AccessFlags: f.AccessFlags.Names(),
	}
	if valueIndex, err := f.ConstantValue(cf.ConstantPool); err == nil && valueIndex != 0 {
		fs.ConstantValue = constantValueString(cf.ConstantPool, valueIndex)
	}
	return fs
}

func summarizeMethod(cf *classfile.ClassFile, m *classfile.Method) model.MethodSummary {
	name, _ := m.Name(cf.ConstantPool)
	descriptor, _ := m.Descriptor(cf.ConstantPool)

	ms := model.MethodSummary{
		Name:        name,
		Descriptor:  descriptor,
		AccessFlags: m.AccessFlags.Names(),
	}

	code, err := m.Code(cf.ConstantPool)
	if err != nil || code == nil {
		return ms
	}
	ms.CodeSize = len(code.Code)
	ms.MaxStack = code.MaxStack
	ms.MaxLocals = code.MaxLocals
	ms.InstructionCount = countInstructions(code.Code)
	ms.HasLineNumbers = hasLineNumberTable(code, cf.ConstantPool)
	return ms
}

// countInstructions decodes the code stream and counts instructions. A
// malformed tail yields a partial count, matching the disassembler's
// stop-at-error behavior.
func countInstructions(code []byte) int {
	it := bytecode.NewIterator(code)
	n := 0
	for it.Next() {
		n++
	}
	return n
}

func hasLineNumberTable(code *classfile.CodeAttribute, pool *classfile.ConstantPool) bool {
	for _, attr := range code.Attributes {
		name, err := attr.Name(pool)
		if err == nil && name == classfile.AttrLineNumberTable {
			return true
		}
	}
	return false
}

// constantValueString renders a ConstantValue operand as plain text for
// the summary, without the javap type prefix.
func constantValueString(pool *classfile.ConstantPool, index uint16) string {
	c, err := pool.Get(index)
	if err != nil {
		return ""
	}
	switch e := c.(type) {
	case classfile.IntegerConstant:
		return strconv.FormatInt(int64(e.Value), 10)
	case classfile.FloatConstant:
		return strconv.FormatFloat(float64(e.Value), 'g', -1, 32)
	case classfile.LongConstant:
		return strconv.FormatInt(e.Value, 10)
	case classfile.DoubleConstant:
		return strconv.FormatFloat(e.Value, 'g', -1, 64)
	case classfile.StringConstant:
		s, _ := pool.Utf8(e.StringIndex)
		return s
	default:
		return ""
	}
}
