package printer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-inspect/internal/classfile"
	"github.com/class-inspect/internal/testutil"
)

func printClass(t *testing.T, data []byte) string {
	t.Helper()
	cf, err := classfile.Parse(data)
	require.NoError(t, err)
	return Print(cf)
}

// lineContaining returns the first output line containing substr.
func lineContaining(t *testing.T, output, substr string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	t.Fatalf("no line containing %q in output:\n%s", substr, output)
	return ""
}

func TestPrintMinimalClass(t *testing.T) {
	b := testutil.NewClassBuilder("Dummy")
	initRef := b.AddMethodref("java/lang/Object", "<init>", "()V")
	b.AddMethodWithCode(0x0001, "<init>", "()V", testutil.CodeSpec{
		MaxStack:  1,
		MaxLocals: 1,
		Code:      []byte{0x2a, 0xb7, byte(initRef >> 8), byte(initRef), 0xb1},
		LineNumbers: []testutil.LineNumberSpec{
			{StartPC: 0, Line: 1},
		},
	})
	b.SourceFile("Dummy.java")
	output := printClass(t, b.Build())

	assert.True(t, strings.HasPrefix(output, "public class Dummy\n"))
	assert.Contains(t, output, "  minor version: 0\n")
	assert.Contains(t, output, "  major version: 52\n")
	assert.Contains(t, output, "  flags: (0x0021) ACC_PUBLIC, ACC_SUPER\n")
	assert.Contains(t, output, "Constant pool:\n")
	assert.Contains(t, output, "  public <init>;\n")
	assert.Contains(t, output, "    descriptor: ()V\n")
	assert.Contains(t, output, "    flags: (0x0001) ACC_PUBLIC\n")
	assert.Contains(t, output, "    Code:\n")
	assert.Contains(t, output, "      stack=1, locals=1, code_length=5\n")
	assert.Contains(t, output, "        0: aload_0\n")
	assert.Contains(t, output, "        4: return\n")
	assert.Contains(t, output, "      LineNumberTable:\n")
	assert.Contains(t, output, "        line 1: 0\n")
	assert.Contains(t, output, "SourceFile: \"Dummy.java\"\n")

	// The invoke of the superclass constructor resolves through the
	// pool into a trailing comment.
	line := lineContaining(t, output, "invokespecial")
	assert.True(t, strings.HasPrefix(line, fmt.Sprintf("        1: invokespecial #%d", initRef)), "line %q", line)
	assert.True(t, strings.HasSuffix(line, `// java/lang/Object."<init>":()V`), "line %q", line)

	// Members render inside braces.
	assert.Contains(t, output, "{\n")
	assert.Contains(t, output, "}\n")
}

func TestPrintConstantPool(t *testing.T) {
	b := testutil.NewClassBuilder("Pool")
	intIndex := b.AddInteger(65535)
	floatIndex := b.AddFloat(42.0)
	longIndex := b.AddLong(42)
	doubleIndex := b.AddDouble(-1)
	stringIndex := b.AddString("fourty two")
	fieldRef := b.AddFieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
	output := printClass(t, b.Build())

	assert.Contains(t, output, "Utf8               java/lang/Object")
	assert.Contains(t, output, lineFor(intIndex, "Integer", "65535"))
	assert.Contains(t, output, lineFor(floatIndex, "Float", "42.0f"))
	assert.Contains(t, output, lineFor(longIndex, "Long", "42l"))
	assert.Contains(t, output, lineFor(doubleIndex, "Double", "-1.0d"))

	stringLine := lineContaining(t, output, lineFor(stringIndex, "String", "#"))
	assert.True(t, strings.HasSuffix(stringLine, "// fourty two"), "line %q", stringLine)

	refLine := lineContaining(t, output, lineFor(fieldRef, "Fieldref", "#"))
	assert.True(t, strings.HasSuffix(refLine, `// java/lang/System."out":Ljava/io/PrintStream;`), "line %q", refLine)

	natLine := lineContaining(t, output, "NameAndType")
	assert.True(t, strings.HasSuffix(natLine, `// "out":Ljava/io/PrintStream;`), "line %q", natLine)

	// The slots after Long and Double entries are reserved and do not
	// produce a listing line.
	assert.NotContains(t, output, fmt.Sprintf("#%d =", longIndex+1))
	assert.NotContains(t, output, fmt.Sprintf("#%d =", doubleIndex+1))
}

// lineFor builds the fixed-width prefix of one constant pool listing
// line: an index column five wide, then the tag name nineteen wide.
func lineFor(index uint16, tag, operand string) string {
	return fmt.Sprintf("%5s = %-19s%s", fmt.Sprintf("#%d", index), tag, operand)
}

func TestPrintInstructionFormats(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want string
	}{
		{
			// Document the layout: mnemonic padded to thirteen
			// columns, branch target absolute.
			name: "branch target is absolute",
			code: append(bytes.Repeat([]byte{0x00}, 10), 0x99, 0x00, 0x05),
			want: "       10: ifeq          15",
		},
		{
			name: "bipush",
			code: []byte{0x10, 42, 0xb1},
			want: "bipush        42",
		},
		{
			name: "sipush negative",
			code: []byte{0x11, 0xff, 0x38, 0xb1},
			want: "sipush        -200",
		},
		{
			name: "load with local index",
			code: []byte{0x15, 0x05, 0xb1},
			want: "iload         5",
		},
		{
			name: "iinc",
			code: []byte{0x84, 0x02, 0xff, 0xb1},
			want: "iinc          2, -1",
		},
		{
			name: "newarray element type",
			code: []byte{0x10, 1, 0xbc, 10, 0xb1},
			want: "newarray      int",
		},
		{
			name: "wide load",
			code: []byte{0xc4, 0x15, 0x01, 0x00, 0xb1},
			want: "iload_w       256",
		},
		{
			name: "wide iinc",
			code: []byte{0xc4, 0x84, 0x01, 0x00, 0xff, 0x9c, 0xb1},
			want: "iinc_w        256, -100",
		},
		{
			name: "goto_w",
			code: []byte{0xc8, 0x00, 0x01, 0x00, 0x00, 0xb1},
			want: "goto_w        65536",
		},
		{
			name: "no operand",
			code: []byte{0x59, 0xb1},
			want: "        0: dup\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewClassBuilder("Ops")
			b.AddMethodWithCode(0x0009, "run", "()V", testutil.CodeSpec{
				MaxStack:  4,
				MaxLocals: 300,
				Code:      tt.code,
			})
			output := printClass(t, b.Build())
			assert.Contains(t, output, tt.want)
		})
	}
}

func TestPrintPoolOperands(t *testing.T) {
	b := testutil.NewClassBuilder("Calls")
	methodRef := b.AddMethodref("java/util/List", "size", "()I")
	ifaceRef := b.AddInterfaceMethodref("java/util/List", "get", "(I)Ljava/lang/Object;")
	arrayClass := b.AddClass("[[I")

	code := []byte{
		0xb6, byte(methodRef >> 8), byte(methodRef), // invokevirtual
		0xb9, byte(ifaceRef >> 8), byte(ifaceRef), 2, 0, // invokeinterface
		0xc5, byte(arrayClass >> 8), byte(arrayClass), 2, // multianewarray
		0xb1,
	}
	b.AddMethodWithCode(0x0009, "run", "()V", testutil.CodeSpec{MaxStack: 4, MaxLocals: 1, Code: code})
	output := printClass(t, b.Build())

	virtualLine := lineContaining(t, output, "invokevirtual")
	assert.Contains(t, virtualLine, fmt.Sprintf("invokevirtual #%d", methodRef))
	assert.True(t, strings.HasSuffix(virtualLine, `// java/util/List."size":()I`), "line %q", virtualLine)

	ifaceLine := lineContaining(t, output, "invokeinterface")
	assert.Contains(t, ifaceLine, fmt.Sprintf("invokeinterface #%d,  2", ifaceRef))
	assert.True(t, strings.HasSuffix(ifaceLine, `// java/util/List."get":(I)Ljava/lang/Object;`), "line %q", ifaceLine)

	arrayLine := lineContaining(t, output, "multianewarray")
	assert.Contains(t, arrayLine, fmt.Sprintf("multianewarray #%d,  2", arrayClass))
	assert.True(t, strings.HasSuffix(arrayLine, "// class [[I"), "line %q", arrayLine)
}

func TestPrintLoadableConstantComments(t *testing.T) {
	b := testutil.NewClassBuilder("Loads")
	stringIndex := b.AddString("hello")
	longIndex := b.AddLong(86400)

	code := []byte{
		0x12, byte(stringIndex), // ldc
		0x14, byte(longIndex >> 8), byte(longIndex), // ldc2_w
		0xb1,
	}
	b.AddMethodWithCode(0x0009, "run", "()V", testutil.CodeSpec{MaxStack: 2, MaxLocals: 1, Code: code})
	output := printClass(t, b.Build())

	ldcLine := lineContaining(t, output, "ldc  ")
	assert.True(t, strings.HasSuffix(ldcLine, "// String hello"), "line %q", ldcLine)

	ldc2Line := lineContaining(t, output, "ldc2_w")
	assert.True(t, strings.HasSuffix(ldc2Line, "// long 86400l"), "line %q", ldc2Line)
}

func TestPrintTableSwitch(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0xaa)                   // tableswitch at offset 0
	buf.Write([]byte{0, 0, 0})            // padding to a 4-byte boundary
	buf.Write([]byte{0, 0, 0, 28})        // default
	buf.Write([]byte{0, 0, 0, 1})         // low
	buf.Write([]byte{0, 0, 0, 3})         // high
	buf.Write([]byte{0, 0, 0, 16})        // case 1
	buf.Write([]byte{0, 0, 0, 20})        // case 2
	buf.Write([]byte{0, 0, 0, 24})        // case 3
	buf.Write(bytes.Repeat([]byte{0}, 1)) // nop filler
	buf.WriteByte(0xb1)

	b := testutil.NewClassBuilder("Switches")
	b.AddMethodWithCode(0x0009, "run", "()V", testutil.CodeSpec{MaxStack: 1, MaxLocals: 1, Code: buf.Bytes()})
	output := printClass(t, b.Build())

	assert.Contains(t, output, "        0: tableswitch   { // 1 to 3\n")
	assert.Contains(t, output, fmt.Sprintf("%20d: %d\n", 1, 16))
	assert.Contains(t, output, fmt.Sprintf("%20d: %d\n", 2, 20))
	assert.Contains(t, output, fmt.Sprintf("%20d: %d\n", 3, 24))
	assert.Contains(t, output, fmt.Sprintf("%20s: %d\n", "default", 28))
	assert.Contains(t, output, "            }\n")
}

func TestPrintLookupSwitch(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0x00)            // nop shifts the switch to offset 1
	buf.WriteByte(0xab)            // lookupswitch
	buf.Write([]byte{0, 0})        // padding
	buf.Write([]byte{0, 0, 0, 30}) // default
	buf.Write([]byte{0, 0, 0, 2})  // npairs
	buf.Write([]byte{0, 0, 0, 1, 0, 0, 0, 20})
	buf.Write([]byte{0, 0, 0, 100, 0, 0, 0, 24})
	buf.WriteByte(0xb1)

	b := testutil.NewClassBuilder("Switches")
	b.AddMethodWithCode(0x0009, "run", "()V", testutil.CodeSpec{MaxStack: 1, MaxLocals: 1, Code: buf.Bytes()})
	output := printClass(t, b.Build())

	assert.Contains(t, output, "        1: lookupswitch  { // 2\n")
	assert.Contains(t, output, fmt.Sprintf("%20d: %d\n", 1, 21))
	assert.Contains(t, output, fmt.Sprintf("%20d: %d\n", 100, 25))
	assert.Contains(t, output, fmt.Sprintf("%20s: %d\n", "default", 31))
}

func TestPrintFieldConstantValues(t *testing.T) {
	b := testutil.NewClassBuilder("Constants")
	b.AddFieldWithConstant(0x0019, "MAX", "I", b.AddInteger(65535))
	b.AddFieldWithConstant(0x0019, "RATE", "F", b.AddFloat(42.0))
	b.AddFieldWithConstant(0x0019, "NAME", "Ljava/lang/String;", b.AddString("fourty two"))
	output := printClass(t, b.Build())

	assert.Contains(t, output, "  public static final MAX;\n")
	assert.Contains(t, output, "    descriptor: I\n")
	assert.Contains(t, output, "    flags: (0x0019) ACC_PUBLIC, ACC_STATIC, ACC_FINAL\n")
	assert.Contains(t, output, "    ConstantValue: int 65535\n")
	assert.Contains(t, output, "    ConstantValue: float 42.0f\n")
	assert.Contains(t, output, "    ConstantValue: String fourty two\n")
}

func TestPrintExceptionTable(t *testing.T) {
	b := testutil.NewClassBuilder("Catches")
	b.AddMethodWithCode(0x0001, "risky", "()V", testutil.CodeSpec{
		MaxStack:  1,
		MaxLocals: 1,
		Code:      bytes.Repeat([]byte{0x00}, 8),
		ExceptionTable: []testutil.ExceptionSpec{
			{StartPC: 0, EndPC: 4, HandlerPC: 5, CatchClass: "java/io/IOException"},
			{StartPC: 0, EndPC: 4, HandlerPC: 7},
		},
	})
	output := printClass(t, b.Build())

	assert.Contains(t, output, "      Exception table:\n")
	assert.Contains(t, output, "         from    to  target type\n")
	ioLine := lineContaining(t, output, "java/io/IOException")
	assert.Contains(t, ioLine, "Class java/io/IOException")
	anyLine := lineContaining(t, output, "   any")
	assert.Contains(t, anyLine, "7   any")
}

func TestPrintInterfaceDeclaration(t *testing.T) {
	b := testutil.NewClassBuilder("Runner").AccessFlags(0x0601)
	b.AddInterface("java/lang/Runnable")
	b.AddMethod(0x0401, "run", "()V")
	output := printClass(t, b.Build())

	assert.True(t, strings.HasPrefix(output, "public interface Runner implements java/lang/Runnable\n"))
	assert.Contains(t, output, "  public abstract run;\n")
	// No Code attribute, so no Code block.
	assert.NotContains(t, output, "Code:")
}

func TestPrintMethodExceptions(t *testing.T) {
	b := testutil.NewClassBuilder("Thrower")
	exceptionClass := b.AddClass("java/io/IOException")
	payload := []byte{0x00, 0x01, byte(exceptionClass >> 8), byte(exceptionClass)}
	b.AddMethodWithAttribute(0x0401, "read", "()I", "Exceptions", payload)
	output := printClass(t, b.Build())

	assert.Contains(t, output, "  public abstract read;\n")
	assert.Contains(t, output, "    Exceptions:\n")
	assert.Contains(t, output, "      throws java/io/IOException\n")
}

func TestPrintNeverFailsOnHostileCode(t *testing.T) {
	t.Run("unknown opcode stops disassembly with a note", func(t *testing.T) {
		b := testutil.NewClassBuilder("Hostile")
		b.AddMethodWithCode(0x0009, "run", "()V", testutil.CodeSpec{
			MaxStack:  1,
			MaxLocals: 1,
			Code:      []byte{0x03, 0xcb},
		})
		output := printClass(t, b.Build())

		assert.Contains(t, output, "        0: iconst_0\n")
		assert.Contains(t, output, "(disassembly stopped:")
		// The document still completes.
		assert.Contains(t, output, "}\n")
	})

	t.Run("unresolvable pool operand loses only its comment", func(t *testing.T) {
		b := testutil.NewClassBuilder("Hostile")
		b.AddMethodWithCode(0x0009, "run", "()V", testutil.CodeSpec{
			MaxStack:  1,
			MaxLocals: 1,
			Code:      []byte{0xb7, 0xff, 0xfe, 0xb1}, // invokespecial #65534
		})
		output := printClass(t, b.Build())

		line := lineContaining(t, output, "invokespecial")
		assert.Contains(t, line, "invokespecial #65534")
		assert.NotContains(t, line, "//")
		assert.Contains(t, output, "        3: return\n")
	})
}

func TestPrintInvokeDynamicAndBootstrap(t *testing.T) {
	b := testutil.NewClassBuilder("Indy")
	targetRef := b.AddMethodref("Indy", "lambda$run$0", "()V")
	handleIndex := b.AddRawConstant([]byte{15, 6, byte(targetRef >> 8), byte(targetRef)})
	indyIndex := b.AddInvokeDynamic(0, "run", "()Ljava/lang/Runnable;")

	var bsm bytes.Buffer
	binary.Write(&bsm, binary.BigEndian, uint16(1)) // num_bootstrap_methods
	binary.Write(&bsm, binary.BigEndian, handleIndex)
	binary.Write(&bsm, binary.BigEndian, uint16(1)) // num_bootstrap_arguments
	binary.Write(&bsm, binary.BigEndian, targetRef)
	b.AddClassAttribute("BootstrapMethods", bsm.Bytes())

	b.AddMethodWithCode(0x0009, "factory", "()Ljava/lang/Runnable;", testutil.CodeSpec{
		MaxStack:  1,
		MaxLocals: 0,
		Code:      []byte{0xba, byte(indyIndex >> 8), byte(indyIndex), 0, 0, 0xb0},
	})
	output := printClass(t, b.Build())

	indyLine := lineContaining(t, output, "invokedynamic")
	assert.Contains(t, indyLine, fmt.Sprintf("invokedynamic #%d,  0", indyIndex))
	assert.True(t, strings.HasSuffix(indyLine, `// #0:"run":()Ljava/lang/Runnable;`), "line %q", indyLine)

	poolLine := lineContaining(t, output, "MethodHandle")
	assert.True(t, strings.HasSuffix(poolLine, `// REF_invokeStatic Indy."lambda$run$0":()V`), "line %q", poolLine)

	assert.Contains(t, output, "BootstrapMethods:\n")
	bootstrapLine := lineContaining(t, output, fmt.Sprintf("  0: #%d", handleIndex))
	assert.True(t, strings.HasSuffix(bootstrapLine, `// REF_invokeStatic Indy."lambda$run$0":()V`), "line %q", bootstrapLine)
	assert.Contains(t, output, "    Method arguments:\n")
	argLine := lineContaining(t, output, fmt.Sprintf("      #%d", targetRef))
	assert.True(t, strings.HasSuffix(argLine, `// Indy."lambda$run$0":()V`), "line %q", argLine)
}

func TestPrintHeaderCounts(t *testing.T) {
	b := testutil.NewClassBuilder("Counted")
	b.AddInterface("java/io/Serializable")
	b.AddField(0x0002, "value", "I")
	b.AddDefaultConstructor()
	b.AddMethod(0x0401, "run", "()V")
	b.SourceFile("Counted.java")
	output := printClass(t, b.Build())

	assert.Contains(t, output, "  interfaces: 1, fields: 1, methods: 2, attributes: 1\n")
	thisLine := lineContaining(t, output, "this_class:")
	assert.True(t, strings.HasSuffix(thisLine, "// Counted"), "line %q", thisLine)
	superLine := lineContaining(t, output, "super_class:")
	assert.True(t, strings.HasSuffix(superLine, "// java/lang/Object"), "line %q", superLine)
}

func TestPrintNoSuperClass(t *testing.T) {
	b := testutil.NewClassBuilder("java/lang/Object").NoSuperClass()
	output := printClass(t, b.Build())
	assert.Contains(t, output, "  super_class: #0\n")
}

func TestFprint(t *testing.T) {
	cf, err := classfile.Parse(testutil.MinimalClassBytes("Dummy"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, cf))
	assert.Equal(t, Print(cf), buf.String())

	werr := errors.New("sink closed")
	assert.ErrorIs(t, Fprint(failWriter{err: werr}, cf), werr)
}

type failWriter struct {
	err error
}

func (w failWriter) Write(p []byte) (int, error) {
	return 0, w.err
}
