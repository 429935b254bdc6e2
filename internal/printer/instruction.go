package printer

import (
	"fmt"
	"strconv"

	"github.com/class-inspect/internal/bytecode"
)

// instruction renders one decoded instruction. The switch instructions
// get a multi-line block; everything else is a single line.
func (p *printer) instruction(inst bytecode.Instruction) {
	switch inst.Kind() {
	case bytecode.OperandTableSwitch:
		p.tableSwitch(inst)
	case bytecode.OperandLookupSwitch:
		p.lookupSwitch(inst)
	default:
		operand, comment := p.operandText(inst)
		p.printf("%s\n", instructionLine(inst.Offset, mnemonic(inst), operand, comment))
	}
}

// mnemonic returns the display name, with the conventional _w suffix for
// wide-prefixed instructions.
func mnemonic(inst bytecode.Instruction) string {
	if inst.Wide {
		return inst.Mnemonic() + "_w"
	}
	return inst.Mnemonic()
}

// instructionLine lays out "offset: mnemonic operand // comment". The
// mnemonic is left-aligned to a fixed width so operands line up, and
// branch targets have already been made absolute by the caller.
func instructionLine(offset int, mnemonic, operand, comment string) string {
	line := fmt.Sprintf("%9d: %s", offset, mnemonic)
	if operand != "" {
		line = fmt.Sprintf("%9d: %-13s %s", offset, mnemonic, operand)
	}
	if comment != "" {
		line = fmt.Sprintf("%-44s // %s", line, comment)
	}
	return line
}

// operandText returns the operand column and the resolved pool comment
// for one instruction.
func (p *printer) operandText(inst bytecode.Instruction) (string, string) {
	switch inst.Kind() {
	case bytecode.OperandLocal:
		return strconv.Itoa(int(inst.Local)), ""
	case bytecode.OperandImmediate:
		return strconv.FormatInt(int64(inst.Value), 10), ""
	case bytecode.OperandPool:
		return fmt.Sprintf("#%d", inst.Index), p.poolComment(inst.Index)
	case bytecode.OperandBranch:
		return strconv.Itoa(inst.Target()), ""
	case bytecode.OperandIinc:
		return fmt.Sprintf("%d, %d", inst.Local, inst.Value), ""
	case bytecode.OperandArrayType:
		return bytecode.ArrayTypeName(byte(inst.Value)), ""
	case bytecode.OperandPoolCount:
		return fmt.Sprintf("#%d,  %d", inst.Index, inst.Count), p.poolComment(inst.Index)
	case bytecode.OperandPoolZero:
		return fmt.Sprintf("#%d,  0", inst.Index), p.poolComment(inst.Index)
	case bytecode.OperandPoolDims:
		return fmt.Sprintf("#%d,  %d", inst.Index, inst.Dimensions), p.poolComment(inst.Index)
	default:
		return "", ""
	}
}

func (p *printer) tableSwitch(inst bytecode.Instruction) {
	t := inst.Table
	p.printf("%9d: %-13s { // %d to %d\n", inst.Offset, "tableswitch", t.Low, t.High)
	for i, rel := range t.Offsets {
		p.printf("%20d: %d\n", t.Low+int32(i), inst.Offset+int(rel))
	}
	p.printf("%20s: %d\n", "default", inst.Offset+int(t.Default))
	p.printf("%12s}\n", "")
}

func (p *printer) lookupSwitch(inst bytecode.Instruction) {
	l := inst.Lookup
	p.printf("%9d: %-13s { // %d\n", inst.Offset, "lookupswitch", len(l.Pairs))
	for _, pair := range l.Pairs {
		p.printf("%20d: %d\n", pair.Match, inst.Offset+int(pair.Offset))
	}
	p.printf("%20s: %d\n", "default", inst.Offset+int(l.Default))
	p.printf("%12s}\n", "")
}
