package bytecode

import "fmt"

// Opcode is a single JVM instruction byte.
type Opcode byte

// Opcodes the disassembler treats specially. All other opcodes are fully
// described by their table entry.
const (
	opTableswitch  Opcode = 0xaa
	opLookupswitch Opcode = 0xab
	opWide         Opcode = 0xc4
)

// OperandKind describes the layout of the bytes following an opcode.
type OperandKind int

const (
	// OperandNone: the opcode stands alone.
	OperandNone OperandKind = iota
	// OperandLocal: unsigned local variable index, u1 (u2 after wide).
	OperandLocal
	// OperandImmediate: signed immediate value, s1 for bipush, s2 for sipush.
	OperandImmediate
	// OperandPool: constant pool index, u1 for ldc, u2 otherwise.
	OperandPool
	// OperandBranch: signed offset relative to this instruction, s2
	// (s4 for goto_w and jsr_w).
	OperandBranch
	// OperandIinc: u1 local index + s1 increment (u2 + s2 after wide).
	OperandIinc
	// OperandArrayType: u1 primitive element type code for newarray.
	OperandArrayType
	// OperandPoolCount: u2 pool index + u1 count + u1 zero, for
	// invokeinterface.
	OperandPoolCount
	// OperandPoolZero: u2 pool index + two zero bytes, for invokedynamic.
	OperandPoolZero
	// OperandPoolDims: u2 pool index + u1 dimension count, for
	// multianewarray.
	OperandPoolDims
	// OperandTableSwitch: variable-length padded jump table.
	OperandTableSwitch
	// OperandLookupSwitch: variable-length padded match/offset pairs.
	OperandLookupSwitch
	// OperandWide: prefix widening the following instruction's operands.
	OperandWide
)

// opcodeInfo is one row of the instruction table. width disambiguates
// operand size where the kind alone does not determine it: pool index
// bytes for OperandPool, branch offset bytes for OperandBranch.
type opcodeInfo struct {
	mnemonic string
	kind     OperandKind
	width    int
}

// Mnemonic returns the instruction name, or "" for a byte that is not an
// assigned instruction.
func (op Opcode) Mnemonic() string {
	return opcodeTable[op].mnemonic
}

// Kind returns the operand layout for the instruction.
func (op Opcode) Kind() OperandKind {
	return opcodeTable[op].kind
}

// IsValid reports whether the byte is an assigned instruction.
func (op Opcode) IsValid() bool {
	return opcodeTable[op].mnemonic != ""
}

// ArrayTypeName returns the primitive element type name for a newarray
// operand code.
func ArrayTypeName(code byte) string {
	switch code {
	case 4:
		return "boolean"
	case 5:
		return "char"
	case 6:
		return "float"
	case 7:
		return "double"
	case 8:
		return "byte"
	case 9:
		return "short"
	case 10:
		return "int"
	case 11:
		return "long"
	default:
		return fmt.Sprintf("unknown(%d)", code)
	}
}

// opcodeTable covers all assigned instructions of the class file format.
// Unassigned bytes (including the reserved breakpoint/impdep opcodes,
// which never appear in a class file) have a zero entry.
var opcodeTable = [256]opcodeInfo{
	0x00: {"nop", OperandNone, 0},
	0x01: {"aconst_null", OperandNone, 0},
	0x02: {"iconst_m1", OperandNone, 0},
	0x03: {"iconst_0", OperandNone, 0},
	0x04: {"iconst_1", OperandNone, 0},
	0x05: {"iconst_2", OperandNone, 0},
	0x06: {"iconst_3", OperandNone, 0},
	0x07: {"iconst_4", OperandNone, 0},
	0x08: {"iconst_5", OperandNone, 0},
	0x09: {"lconst_0", OperandNone, 0},
	0x0a: {"lconst_1", OperandNone, 0},
	0x0b: {"fconst_0", OperandNone, 0},
	0x0c: {"fconst_1", OperandNone, 0},
	0x0d: {"fconst_2", OperandNone, 0},
	0x0e: {"dconst_0", OperandNone, 0},
	0x0f: {"dconst_1", OperandNone, 0},
	0x10: {"bipush", OperandImmediate, 1},
	0x11: {"sipush", OperandImmediate, 2},
	0x12: {"ldc", OperandPool, 1},
	0x13: {"ldc_w", OperandPool, 2},
	0x14: {"ldc2_w", OperandPool, 2},
	0x15: {"iload", OperandLocal, 1},
	0x16: {"lload", OperandLocal, 1},
	0x17: {"fload", OperandLocal, 1},
	0x18: {"dload", OperandLocal, 1},
	0x19: {"aload", OperandLocal, 1},
	0x1a: {"iload_0", OperandNone, 0},
	0x1b: {"iload_1", OperandNone, 0},
	0x1c: {"iload_2", OperandNone, 0},
	0x1d: {"iload_3", OperandNone, 0},
	0x1e: {"lload_0", OperandNone, 0},
	0x1f: {"lload_1", OperandNone, 0},
	0x20: {"lload_2", OperandNone, 0},
	0x21: {"lload_3", OperandNone, 0},
	0x22: {"fload_0", OperandNone, 0},
	0x23: {"fload_1", OperandNone, 0},
	0x24: {"fload_2", OperandNone, 0},
	0x25: {"fload_3", OperandNone, 0},
	0x26: {"dload_0", OperandNone, 0},
	0x27: {"dload_1", OperandNone, 0},
	0x28: {"dload_2", OperandNone, 0},
	0x29: {"dload_3", OperandNone, 0},
	0x2a: {"aload_0", OperandNone, 0},
	0x2b: {"aload_1", OperandNone, 0},
	0x2c: {"aload_2", OperandNone, 0},
	0x2d: {"aload_3", OperandNone, 0},
	0x2e: {"iaload", OperandNone, 0},
	0x2f: {"laload", OperandNone, 0},
	0x30: {"faload", OperandNone, 0},
	0x31: {"daload", OperandNone, 0},
	0x32: {"aaload", OperandNone, 0},
	0x33: {"baload", OperandNone, 0},
	0x34: {"caload", OperandNone, 0},
	0x35: {"saload", OperandNone, 0},
	0x36: {"istore", OperandLocal, 1},
	0x37: {"lstore", OperandLocal, 1},
	0x38: {"fstore", OperandLocal, 1},
	0x39: {"dstore", OperandLocal, 1},
	0x3a: {"astore", OperandLocal, 1},
	0x3b: {"istore_0", OperandNone, 0},
	0x3c: {"istore_1", OperandNone, 0},
	0x3d: {"istore_2", OperandNone, 0},
	0x3e: {"istore_3", OperandNone, 0},
	0x3f: {"lstore_0", OperandNone, 0},
	0x40: {"lstore_1", OperandNone, 0},
	0x41: {"lstore_2", OperandNone, 0},
	0x42: {"lstore_3", OperandNone, 0},
	0x43: {"fstore_0", OperandNone, 0},
	0x44: {"fstore_1", OperandNone, 0},
	0x45: {"fstore_2", OperandNone, 0},
	0x46: {"fstore_3", OperandNone, 0},
	0x47: {"dstore_0", OperandNone, 0},
	0x48: {"dstore_1", OperandNone, 0},
	0x49: {"dstore_2", OperandNone, 0},
	0x4a: {"dstore_3", OperandNone, 0},
	0x4b: {"astore_0", OperandNone, 0},
	0x4c: {"astore_1", OperandNone, 0},
	0x4d: {"astore_2", OperandNone, 0},
	0x4e: {"astore_3", OperandNone, 0},
	0x4f: {"iastore", OperandNone, 0},
	0x50: {"lastore", OperandNone, 0},
	0x51: {"fastore", OperandNone, 0},
	0x52: {"dastore", OperandNone, 0},
	0x53: {"aastore", OperandNone, 0},
	0x54: {"bastore", OperandNone, 0},
	0x55: {"castore", OperandNone, 0},
	0x56: {"sastore", OperandNone, 0},
	0x57: {"pop", OperandNone, 0},
	0x58: {"pop2", OperandNone, 0},
	0x59: {"dup", OperandNone, 0},
	0x5a: {"dup_x1", OperandNone, 0},
	0x5b: {"dup_x2", OperandNone, 0},
	0x5c: {"dup2", OperandNone, 0},
	0x5d: {"dup2_x1", OperandNone, 0},
	0x5e: {"dup2_x2", OperandNone, 0},
	0x5f: {"swap", OperandNone, 0},
	0x60: {"iadd", OperandNone, 0},
	0x61: {"ladd", OperandNone, 0},
	0x62: {"fadd", OperandNone, 0},
	0x63: {"dadd", OperandNone, 0},
	0x64: {"isub", OperandNone, 0},
	0x65: {"lsub", OperandNone, 0},
	0x66: {"fsub", OperandNone, 0},
	0x67: {"dsub", OperandNone, 0},
	0x68: {"imul", OperandNone, 0},
	0x69: {"lmul", OperandNone, 0},
	0x6a: {"fmul", OperandNone, 0},
	0x6b: {"dmul", OperandNone, 0},
	0x6c: {"idiv", OperandNone, 0},
	0x6d: {"ldiv", OperandNone, 0},
	0x6e: {"fdiv", OperandNone, 0},
	0x6f: {"ddiv", OperandNone, 0},
	0x70: {"irem", OperandNone, 0},
	0x71: {"lrem", OperandNone, 0},
	0x72: {"frem", OperandNone, 0},
	0x73: {"drem", OperandNone, 0},
	0x74: {"ineg", OperandNone, 0},
	0x75: {"lneg", OperandNone, 0},
	0x76: {"fneg", OperandNone, 0},
	0x77: {"dneg", OperandNone, 0},
	0x78: {"ishl", OperandNone, 0},
	0x79: {"lshl", OperandNone, 0},
	0x7a: {"ishr", OperandNone, 0},
	0x7b: {"lshr", OperandNone, 0},
	0x7c: {"iushr", OperandNone, 0},
	0x7d: {"lushr", OperandNone, 0},
	0x7e: {"iand", OperandNone, 0},
	0x7f: {"land", OperandNone, 0},
	0x80: {"ior", OperandNone, 0},
	0x81: {"lor", OperandNone, 0},
	0x82: {"ixor", OperandNone, 0},
	0x83: {"lxor", OperandNone, 0},
	0x84: {"iinc", OperandIinc, 0},
	0x85: {"i2l", OperandNone, 0},
	0x86: {"i2f", OperandNone, 0},
	0x87: {"i2d", OperandNone, 0},
	0x88: {"l2i", OperandNone, 0},
	0x89: {"l2f", OperandNone, 0},
	0x8a: {"l2d", OperandNone, 0},
	0x8b: {"f2i", OperandNone, 0},
	0x8c: {"f2l", OperandNone, 0},
	0x8d: {"f2d", OperandNone, 0},
	0x8e: {"d2i", OperandNone, 0},
	0x8f: {"d2l", OperandNone, 0},
	0x90: {"d2f", OperandNone, 0},
	0x91: {"i2b", OperandNone, 0},
	0x92: {"i2c", OperandNone, 0},
	0x93: {"i2s", OperandNone, 0},
	0x94: {"lcmp", OperandNone, 0},
	0x95: {"fcmpl", OperandNone, 0},
	0x96: {"fcmpg", OperandNone, 0},
	0x97: {"dcmpl", OperandNone, 0},
	0x98: {"dcmpg", OperandNone, 0},
	0x99: {"ifeq", OperandBranch, 2},
	0x9a: {"ifne", OperandBranch, 2},
	0x9b: {"iflt", OperandBranch, 2},
	0x9c: {"ifge", OperandBranch, 2},
	0x9d: {"ifgt", OperandBranch, 2},
	0x9e: {"ifle", OperandBranch, 2},
	0x9f: {"if_icmpeq", OperandBranch, 2},
	0xa0: {"if_icmpne", OperandBranch, 2},
	0xa1: {"if_icmplt", OperandBranch, 2},
	0xa2: {"if_icmpge", OperandBranch, 2},
	0xa3: {"if_icmpgt", OperandBranch, 2},
	0xa4: {"if_icmple", OperandBranch, 2},
	0xa5: {"if_acmpeq", OperandBranch, 2},
	0xa6: {"if_acmpne", OperandBranch, 2},
	0xa7: {"goto", OperandBranch, 2},
	0xa8: {"jsr", OperandBranch, 2},
	0xa9: {"ret", OperandLocal, 1},
	0xaa: {"tableswitch", OperandTableSwitch, 0},
	0xab: {"lookupswitch", OperandLookupSwitch, 0},
	0xac: {"ireturn", OperandNone, 0},
	0xad: {"lreturn", OperandNone, 0},
	0xae: {"freturn", OperandNone, 0},
	0xaf: {"dreturn", OperandNone, 0},
	0xb0: {"areturn", OperandNone, 0},
	0xb1: {"return", OperandNone, 0},
	0xb2: {"getstatic", OperandPool, 2},
	0xb3: {"putstatic", OperandPool, 2},
	0xb4: {"getfield", OperandPool, 2},
	0xb5: {"putfield", OperandPool, 2},
	0xb6: {"invokevirtual", OperandPool, 2},
	0xb7: {"invokespecial", OperandPool, 2},
	0xb8: {"invokestatic", OperandPool, 2},
	0xb9: {"invokeinterface", OperandPoolCount, 2},
	0xba: {"invokedynamic", OperandPoolZero, 2},
	0xbb: {"new", OperandPool, 2},
	0xbc: {"newarray", OperandArrayType, 1},
	0xbd: {"anewarray", OperandPool, 2},
	0xbe: {"arraylength", OperandNone, 0},
	0xbf: {"athrow", OperandNone, 0},
	0xc0: {"checkcast", OperandPool, 2},
	0xc1: {"instanceof", OperandPool, 2},
	0xc2: {"monitorenter", OperandNone, 0},
	0xc3: {"monitorexit", OperandNone, 0},
	0xc4: {"wide", OperandWide, 0},
	0xc5: {"multianewarray", OperandPoolDims, 2},
	0xc6: {"ifnull", OperandBranch, 2},
	0xc7: {"ifnonnull", OperandBranch, 2},
	0xc8: {"goto_w", OperandBranch, 4},
	0xc9: {"jsr_w", OperandBranch, 4},
}
