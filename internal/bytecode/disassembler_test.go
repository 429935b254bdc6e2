package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassembleConstructor(t *testing.T) {
	// javac output for an empty class: aload_0, invokespecial #1, return.
	code := []byte{0x2a, 0xb7, 0x00, 0x01, 0xb1}

	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, instructions, 3)

	assert.Equal(t, 0, instructions[0].Offset)
	assert.Equal(t, "aload_0", instructions[0].Mnemonic())
	assert.Equal(t, OperandNone, instructions[0].Kind())

	assert.Equal(t, 1, instructions[1].Offset)
	assert.Equal(t, "invokespecial", instructions[1].Mnemonic())
	assert.Equal(t, OperandPool, instructions[1].Kind())
	assert.Equal(t, uint16(1), instructions[1].Index)

	assert.Equal(t, 4, instructions[2].Offset)
	assert.Equal(t, "return", instructions[2].Mnemonic())
}

func TestDisassembleOperandKinds(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		check func(t *testing.T, inst Instruction)
	}{
		{
			name: "bipush positive",
			code: []byte{0x10, 0x7f},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "bipush", inst.Mnemonic())
				assert.Equal(t, int32(127), inst.Value)
			},
		},
		{
			name: "bipush negative",
			code: []byte{0x10, 0x80},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, int32(-128), inst.Value)
			},
		},
		{
			name: "sipush negative",
			code: []byte{0x11, 0xff, 0x38},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "sipush", inst.Mnemonic())
				assert.Equal(t, int32(-200), inst.Value)
			},
		},
		{
			name: "ldc uses a one-byte pool index",
			code: []byte{0x12, 0x08},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "ldc", inst.Mnemonic())
				assert.Equal(t, uint16(8), inst.Index)
			},
		},
		{
			name: "ldc2_w uses a two-byte pool index",
			code: []byte{0x14, 0x01, 0x02},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, uint16(0x0102), inst.Index)
			},
		},
		{
			name: "iload carries a local index",
			code: []byte{0x15, 0x05},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "iload", inst.Mnemonic())
				assert.Equal(t, uint16(5), inst.Local)
				assert.False(t, inst.Wide)
			},
		},
		{
			name: "iinc carries index and increment",
			code: []byte{0x84, 0x02, 0xff},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "iinc", inst.Mnemonic())
				assert.Equal(t, uint16(2), inst.Local)
				assert.Equal(t, int32(-1), inst.Value)
			},
		},
		{
			name: "newarray element type",
			code: []byte{0xbc, 0x0a},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "newarray", inst.Mnemonic())
				assert.Equal(t, int32(10), inst.Value)
				assert.Equal(t, "int", ArrayTypeName(byte(inst.Value)))
			},
		},
		{
			name: "invokeinterface carries count",
			code: []byte{0xb9, 0x00, 0x04, 0x02, 0x00},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "invokeinterface", inst.Mnemonic())
				assert.Equal(t, uint16(4), inst.Index)
				assert.Equal(t, uint8(2), inst.Count)
			},
		},
		{
			name: "invokedynamic skips the zero bytes",
			code: []byte{0xba, 0x00, 0x07, 0x00, 0x00},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "invokedynamic", inst.Mnemonic())
				assert.Equal(t, uint16(7), inst.Index)
			},
		},
		{
			name: "multianewarray carries dimensions",
			code: []byte{0xc5, 0x00, 0x09, 0x02},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "multianewarray", inst.Mnemonic())
				assert.Equal(t, uint16(9), inst.Index)
				assert.Equal(t, uint8(2), inst.Dimensions)
			},
		},
		{
			name: "checkcast keeps its own mnemonic",
			code: []byte{0xc0, 0x00, 0x05},
			check: func(t *testing.T, inst Instruction) {
				assert.Equal(t, "checkcast", inst.Mnemonic())
				assert.Equal(t, uint16(5), inst.Index)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instructions, err := Disassemble(tt.code)
			require.NoError(t, err)
			require.Len(t, instructions, 1)
			tt.check(t, instructions[0])
		})
	}
}

func TestDisassembleBranches(t *testing.T) {
	// 0: iconst_0
	// 1: ifne 5 (relative +4)
	// 4: nop
	// 5: goto 1 (relative -4)
	code := []byte{0x03, 0x9a, 0x00, 0x04, 0x00, 0xa7, 0xff, 0xfc}

	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, instructions, 4)

	ifne := instructions[1]
	assert.Equal(t, "ifne", ifne.Mnemonic())
	assert.Equal(t, int32(4), ifne.BranchOffset)
	assert.Equal(t, 5, ifne.Target())

	gotoInst := instructions[3]
	assert.Equal(t, "goto", gotoInst.Mnemonic())
	assert.Equal(t, int32(-4), gotoInst.BranchOffset)
	assert.Equal(t, 1, gotoInst.Target())
}

func TestDisassembleWideBranch(t *testing.T) {
	code := []byte{0xc8, 0x00, 0x01, 0x00, 0x00}

	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.Equal(t, "goto_w", instructions[0].Mnemonic())
	assert.Equal(t, int32(0x00010000), instructions[0].BranchOffset)
}

func TestDisassembleWidePrefix(t *testing.T) {
	t.Run("wide iload", func(t *testing.T) {
		instructions, err := Disassemble([]byte{0xc4, 0x15, 0x01, 0x00})
		require.NoError(t, err)
		require.Len(t, instructions, 1)

		inst := instructions[0]
		assert.Equal(t, "iload", inst.Mnemonic())
		assert.True(t, inst.Wide)
		assert.Equal(t, 0, inst.Offset)
		assert.Equal(t, uint16(256), inst.Local)
	})

	t.Run("wide iinc", func(t *testing.T) {
		instructions, err := Disassemble([]byte{0xc4, 0x84, 0x01, 0x00, 0xff, 0x9c})
		require.NoError(t, err)
		require.Len(t, instructions, 1)

		inst := instructions[0]
		assert.Equal(t, "iinc", inst.Mnemonic())
		assert.True(t, inst.Wide)
		assert.Equal(t, uint16(256), inst.Local)
		assert.Equal(t, int32(-100), inst.Value)
	})

	t.Run("wide before a non-widenable opcode", func(t *testing.T) {
		_, err := Disassemble([]byte{0xc4, 0xb1})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownOpcode)
	})
}

func TestDisassembleTableSwitch(t *testing.T) {
	// tableswitch at offset 0 needs 3 padding bytes so the payload
	// starts at offset 4.
	code := []byte{
		0xaa, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x14, // default +20
		0x00, 0x00, 0x00, 0x01, // low 1
		0x00, 0x00, 0x00, 0x03, // high 3
		0x00, 0x00, 0x00, 0x08,
		0x00, 0x00, 0x00, 0x0c,
		0x00, 0x00, 0x00, 0x10,
	}

	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, instructions, 1)

	inst := instructions[0]
	assert.Equal(t, "tableswitch", inst.Mnemonic())
	require.NotNil(t, inst.Table)
	assert.Equal(t, int32(20), inst.Table.Default)
	assert.Equal(t, int32(1), inst.Table.Low)
	assert.Equal(t, int32(3), inst.Table.High)
	assert.Equal(t, []int32{8, 12, 16}, inst.Table.Offsets)
}

func TestDisassembleTableSwitchAlignment(t *testing.T) {
	// With the opcode at offset 1 only 2 padding bytes are needed.
	code := []byte{
		0x03, // iconst_0 at 0
		0xaa, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x0c, // default +12
		0x00, 0x00, 0x00, 0x00, // low 0
		0x00, 0x00, 0x00, 0x00, // high 0
		0x00, 0x00, 0x00, 0x08,
	}

	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, instructions, 2)

	inst := instructions[1]
	assert.Equal(t, 1, inst.Offset)
	require.NotNil(t, inst.Table)
	assert.Equal(t, []int32{8}, inst.Table.Offsets)
}

func TestDisassembleLookupSwitch(t *testing.T) {
	code := []byte{
		0xab, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x1c, // default +28
		0x00, 0x00, 0x00, 0x02, // npairs 2
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x0a, // 1 -> +10
		0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x14, // 100 -> +20
	}

	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, instructions, 1)

	inst := instructions[0]
	assert.Equal(t, "lookupswitch", inst.Mnemonic())
	require.NotNil(t, inst.Lookup)
	assert.Equal(t, int32(28), inst.Lookup.Default)
	assert.Equal(t, []MatchOffset{
		{Match: 1, Offset: 10},
		{Match: 100, Offset: 20},
	}, inst.Lookup.Pairs)
}

func TestDisassembleErrors(t *testing.T) {
	t.Run("unknown opcode", func(t *testing.T) {
		_, err := Disassemble([]byte{0xcb})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownOpcode)
	})

	t.Run("reserved opcodes are rejected", func(t *testing.T) {
		for _, op := range []byte{0xca, 0xfe, 0xff} {
			_, err := Disassemble([]byte{op})
			assert.ErrorIs(t, err, ErrUnknownOpcode, "opcode 0x%02x", op)
		}
	})

	t.Run("truncated operands", func(t *testing.T) {
		truncated := [][]byte{
			{0x10},             // bipush without value
			{0xb7, 0x00},       // invokespecial with half an index
			{0xc4, 0x15, 0x01}, // wide iload with half an index
			{0xaa, 0x00},       // tableswitch cut in the padding
		}
		for _, code := range truncated {
			_, err := Disassemble(code)
			assert.ErrorIs(t, err, ErrTruncatedCode, "code % x", code)
		}
	})

	t.Run("tableswitch range beyond the code array", func(t *testing.T) {
		code := []byte{
			0xaa, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x10, // default
			0x00, 0x00, 0x00, 0x00, // low 0
			0x7f, 0xff, 0xff, 0xff, // high MaxInt32
		}
		_, err := Disassemble(code)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTruncatedCode)
	})

	t.Run("lookupswitch negative pair count", func(t *testing.T) {
		code := []byte{
			0xab, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x10, // default
			0xff, 0xff, 0xff, 0xff, // npairs -1
		}
		_, err := Disassemble(code)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTruncatedCode)
	})
}

func TestDisassembleEmpty(t *testing.T) {
	instructions, err := Disassemble(nil)
	require.NoError(t, err)
	assert.Empty(t, instructions)
}

func TestIteratorIsRestartable(t *testing.T) {
	code := []byte{0x2a, 0xb7, 0x00, 0x01, 0xb1}

	first, err := Disassemble(code)
	require.NoError(t, err)
	second, err := Disassemble(code)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIteratorCoversExactly(t *testing.T) {
	// A mix of operand layouts; the iterator must consume every byte
	// with no gap and no overlap.
	code := []byte{
		0x10, 0x2a, // bipush 42
		0x3c,             // istore_1
		0x84, 0x01, 0x01, // iinc 1, 1
		0x1b,                   // iload_1
		0x11, 0x00, 0x64,       // sipush 100
		0xa1, 0xff, 0xf9,       // if_icmplt -7
		0xb2, 0x00, 0x02,       // getstatic #2
		0x12, 0x03,             // ldc #3
		0xb6, 0x00, 0x04,       // invokevirtual #4
		0xb1,                   // return
	}

	it := NewIterator(code)
	expected := 0
	for it.Next() {
		inst := it.Instruction()
		assert.Equal(t, expected, inst.Offset, "instruction must start where the previous ended")
		expected = it.pos
	}
	require.NoError(t, it.Err())
	assert.Equal(t, len(code), expected, "stream must end at the last byte")
}

func TestOpcodeTableCoverage(t *testing.T) {
	// Every opcode assigned by the format, and nothing else.
	for op := 0; op <= 0xc9; op++ {
		assert.True(t, Opcode(op).IsValid(), "opcode 0x%02x", op)
		assert.NotEmpty(t, Opcode(op).Mnemonic(), "opcode 0x%02x", op)
	}
	for op := 0xca; op <= 0xff; op++ {
		assert.False(t, Opcode(op).IsValid(), "opcode 0x%02x", op)
	}
}

func TestArrayTypeName(t *testing.T) {
	tests := []struct {
		code byte
		name string
	}{
		{4, "boolean"},
		{5, "char"},
		{6, "float"},
		{7, "double"},
		{8, "byte"},
		{9, "short"},
		{10, "int"},
		{11, "long"},
		{12, "unknown(12)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, ArrayTypeName(tt.code))
	}
}
