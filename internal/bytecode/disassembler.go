// Package bytecode decodes the instruction stream of a method's Code
// attribute into structured instructions.
//
// Decoding walks the code array exactly once with no gaps and no
// overlap: each instruction starts where the previous one ended, and the
// final instruction ends at the last byte. Constant pool operands are
// kept as raw indices; resolving them against the pool is the caller's
// concern.
package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownOpcode indicates a byte that is not an assigned
	// instruction, or a wide prefix before an instruction that cannot
	// be widened.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrTruncatedCode indicates the code array ended inside an
	// instruction's operands, or a switch payload that cannot fit in
	// the remaining bytes.
	ErrTruncatedCode = errors.New("truncated bytecode")
)

// Instruction is one decoded instruction. Operand fields are populated
// according to the opcode's OperandKind; unrelated fields stay zero.
type Instruction struct {
	// Offset of the opcode byte within the code array. For a
	// wide-prefixed instruction this is the offset of the prefix.
	Offset int
	// Opcode is the instruction byte. For a wide-prefixed instruction
	// this is the widened opcode, with Wide set.
	Opcode Opcode
	// Wide marks an instruction widened by the wide prefix.
	Wide bool

	// Index is the constant pool operand.
	Index uint16
	// Local is the local variable operand.
	Local uint16
	// Value is the signed immediate: bipush/sipush value, iinc
	// increment, or newarray element type code.
	Value int32
	// BranchOffset is the jump distance relative to Offset.
	BranchOffset int32
	// Count is the invokeinterface nargs operand.
	Count uint8
	// Dimensions is the multianewarray dimension operand.
	Dimensions uint8

	Table  *TableSwitch
	Lookup *LookupSwitch
}

// Mnemonic returns the instruction name.
func (in Instruction) Mnemonic() string { return in.Opcode.Mnemonic() }

// Kind returns the operand layout of the instruction.
func (in Instruction) Kind() OperandKind { return in.Opcode.Kind() }

// Target returns the absolute code offset a branch instruction jumps to.
func (in Instruction) Target() int { return in.Offset + int(in.BranchOffset) }

// TableSwitch is the decoded payload of a tableswitch instruction.
// Jump offsets are relative to the instruction's own offset.
type TableSwitch struct {
	Default int32
	Low     int32
	High    int32
	Offsets []int32
}

// LookupSwitch is the decoded payload of a lookupswitch instruction.
// Jump offsets are relative to the instruction's own offset.
type LookupSwitch struct {
	Default int32
	Pairs   []MatchOffset
}

// MatchOffset is one lookupswitch case.
type MatchOffset struct {
	Match  int32
	Offset int32
}

// Iterator walks an instruction stream one instruction at a time in the
// style of bufio.Scanner. It never mutates the code slice, so a fresh
// iterator over the same bytes replays the same sequence.
type Iterator struct {
	code []byte
	pos  int
	inst Instruction
	err  error
}

// NewIterator returns an iterator over a method's code array.
func NewIterator(code []byte) *Iterator {
	return &Iterator{code: code}
}

// Next advances to the next instruction. It returns false when the
// stream is exhausted or decoding failed; Err distinguishes the two.
func (it *Iterator) Next() bool {
	if it.err != nil || it.pos >= len(it.code) {
		return false
	}
	inst, next, err := decode(it.code, it.pos)
	if err != nil {
		it.err = err
		return false
	}
	it.inst = inst
	it.pos = next
	return true
}

// Instruction returns the instruction decoded by the last call to Next.
func (it *Iterator) Instruction() Instruction { return it.inst }

// Err returns the first decoding error, or nil.
func (it *Iterator) Err() error { return it.err }

// Disassemble decodes a complete code array in one shot.
func Disassemble(code []byte) ([]Instruction, error) {
	instructions := make([]Instruction, 0, len(code)/2)
	it := NewIterator(code)
	for it.Next() {
		instructions = append(instructions, it.Instruction())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return instructions, nil
}

// codeReader is a cursor over the code array, shaped like the class file
// reader but scoped to one method's bytecode.
type codeReader struct {
	code []byte
	pos  int
}

func (r *codeReader) remaining() int {
	return len(r.code) - r.pos
}

func (r *codeReader) u1() (uint8, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("offset %d: %w", r.pos, ErrTruncatedCode)
	}
	v := r.code[r.pos]
	r.pos++
	return v, nil
}

func (r *codeReader) u2() (uint16, error) {
	if r.remaining() < 2 {
		return 0, fmt.Errorf("offset %d: %w", r.pos, ErrTruncatedCode)
	}
	v := binary.BigEndian.Uint16(r.code[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *codeReader) s1() (int8, error) {
	v, err := r.u1()
	return int8(v), err
}

func (r *codeReader) s2() (int16, error) {
	v, err := r.u2()
	return int16(v), err
}

func (r *codeReader) s4() (int32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("offset %d: %w", r.pos, ErrTruncatedCode)
	}
	v := int32(binary.BigEndian.Uint32(r.code[r.pos:]))
	r.pos += 4
	return v, nil
}

// skip discards n bytes.
func (r *codeReader) skip(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("offset %d: %w", r.pos, ErrTruncatedCode)
	}
	r.pos += n
	return nil
}

// decode reads the instruction at pos and returns it along with the
// offset of the next instruction.
func decode(code []byte, pos int) (Instruction, int, error) {
	r := &codeReader{code: code, pos: pos}

	op, err := r.u1()
	if err != nil {
		return Instruction{}, 0, err
	}

	opcode := Opcode(op)
	if opcode == opWide {
		return decodeWide(r, pos)
	}
	if !opcode.IsValid() {
		return Instruction{}, 0, fmt.Errorf("offset %d: byte 0x%02x: %w", pos, op, ErrUnknownOpcode)
	}

	inst := Instruction{Offset: pos, Opcode: opcode}
	info := opcodeTable[op]

	switch info.kind {
	case OperandNone:

	case OperandLocal:
		local, err := r.u1()
		if err != nil {
			return Instruction{}, 0, err
		}
		inst.Local = uint16(local)

	case OperandImmediate:
		if info.width == 1 {
			v, err := r.s1()
			if err != nil {
				return Instruction{}, 0, err
			}
			inst.Value = int32(v)
		} else {
			v, err := r.s2()
			if err != nil {
				return Instruction{}, 0, err
			}
			inst.Value = int32(v)
		}

	case OperandPool:
		if info.width == 1 {
			index, err := r.u1()
			if err != nil {
				return Instruction{}, 0, err
			}
			inst.Index = uint16(index)
		} else {
			index, err := r.u2()
			if err != nil {
				return Instruction{}, 0, err
			}
			inst.Index = index
		}

	case OperandBranch:
		if info.width == 2 {
			offset, err := r.s2()
			if err != nil {
				return Instruction{}, 0, err
			}
			inst.BranchOffset = int32(offset)
		} else {
			offset, err := r.s4()
			if err != nil {
				return Instruction{}, 0, err
			}
			inst.BranchOffset = offset
		}

	case OperandIinc:
		local, err := r.u1()
		if err != nil {
			return Instruction{}, 0, err
		}
		delta, err := r.s1()
		if err != nil {
			return Instruction{}, 0, err
		}
		inst.Local = uint16(local)
		inst.Value = int32(delta)

	case OperandArrayType:
		atype, err := r.u1()
		if err != nil {
			return Instruction{}, 0, err
		}
		inst.Value = int32(atype)

	case OperandPoolCount:
		index, err := r.u2()
		if err != nil {
			return Instruction{}, 0, err
		}
		count, err := r.u1()
		if err != nil {
			return Instruction{}, 0, err
		}
		// The fourth operand byte is always zero.
		if err := r.skip(1); err != nil {
			return Instruction{}, 0, err
		}
		inst.Index = index
		inst.Count = count

	case OperandPoolZero:
		index, err := r.u2()
		if err != nil {
			return Instruction{}, 0, err
		}
		if err := r.skip(2); err != nil {
			return Instruction{}, 0, err
		}
		inst.Index = index

	case OperandPoolDims:
		index, err := r.u2()
		if err != nil {
			return Instruction{}, 0, err
		}
		dims, err := r.u1()
		if err != nil {
			return Instruction{}, 0, err
		}
		inst.Index = index
		inst.Dimensions = dims

	case OperandTableSwitch:
		table, err := decodeTableSwitch(r, pos)
		if err != nil {
			return Instruction{}, 0, err
		}
		inst.Table = table

	case OperandLookupSwitch:
		lookup, err := decodeLookupSwitch(r, pos)
		if err != nil {
			return Instruction{}, 0, err
		}
		inst.Lookup = lookup
	}

	return inst, r.pos, nil
}

// decodeWide handles the wide prefix: the widened opcode follows with a
// u2 local index, plus an s2 increment for iinc. Only the local-variable
// instructions and iinc can be widened.
func decodeWide(r *codeReader, pos int) (Instruction, int, error) {
	op, err := r.u1()
	if err != nil {
		return Instruction{}, 0, err
	}

	opcode := Opcode(op)
	kind := opcode.Kind()
	if kind != OperandLocal && kind != OperandIinc {
		return Instruction{}, 0, fmt.Errorf("offset %d: wide prefix before 0x%02x: %w", pos, op, ErrUnknownOpcode)
	}

	inst := Instruction{Offset: pos, Opcode: opcode, Wide: true}

	local, err := r.u2()
	if err != nil {
		return Instruction{}, 0, err
	}
	inst.Local = local

	if kind == OperandIinc {
		delta, err := r.s2()
		if err != nil {
			return Instruction{}, 0, err
		}
		inst.Value = int32(delta)
	}
	return inst, r.pos, nil
}

// switchPadding returns the number of padding bytes between a switch
// opcode at the given offset and its 4-byte-aligned payload.
func switchPadding(opcodeOffset int) int {
	pad := (3 - opcodeOffset) % 4
	if pad < 0 {
		pad += 4
	}
	return pad
}

func decodeTableSwitch(r *codeReader, pos int) (*TableSwitch, error) {
	if err := r.skip(switchPadding(pos)); err != nil {
		return nil, err
	}

	table := &TableSwitch{}
	var err error
	if table.Default, err = r.s4(); err != nil {
		return nil, err
	}
	if table.Low, err = r.s4(); err != nil {
		return nil, err
	}
	if table.High, err = r.s4(); err != nil {
		return nil, err
	}

	count := int64(table.High) - int64(table.Low) + 1
	if count < 0 || count > int64(r.remaining()/4) {
		return nil, fmt.Errorf("offset %d: tableswitch range %d..%d does not fit: %w",
			pos, table.Low, table.High, ErrTruncatedCode)
	}

	table.Offsets = make([]int32, 0, count)
	for i := int64(0); i < count; i++ {
		offset, err := r.s4()
		if err != nil {
			return nil, err
		}
		table.Offsets = append(table.Offsets, offset)
	}
	return table, nil
}

func decodeLookupSwitch(r *codeReader, pos int) (*LookupSwitch, error) {
	if err := r.skip(switchPadding(pos)); err != nil {
		return nil, err
	}

	lookup := &LookupSwitch{}
	var err error
	if lookup.Default, err = r.s4(); err != nil {
		return nil, err
	}

	npairs, err := r.s4()
	if err != nil {
		return nil, err
	}
	if npairs < 0 || int64(npairs) > int64(r.remaining()/8) {
		return nil, fmt.Errorf("offset %d: lookupswitch with %d pairs does not fit: %w",
			pos, npairs, ErrTruncatedCode)
	}

	lookup.Pairs = make([]MatchOffset, 0, npairs)
	for i := int32(0); i < npairs; i++ {
		var pair MatchOffset
		if pair.Match, err = r.s4(); err != nil {
			return nil, err
		}
		if pair.Offset, err = r.s4(); err != nil {
			return nil, err
		}
		lookup.Pairs = append(lookup.Pairs, pair)
	}
	return lookup, nil
}
