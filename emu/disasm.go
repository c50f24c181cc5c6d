package emu

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Mnemonic returns the assembler name of an opcode. Names come from the
// retrogolib CHIP-8 opcode table; opcodes it does not match (the loosely
// decoded 0NN0/0NNE forms) fall back to the decoder's own name.
func Mnemonic(raw uint16) string {
	for _, op := range chip8.Opcodes[int(raw>>12)] {
		if op.Instruction != nil && raw&op.Info.Mask == op.Info.Value {
			return op.Instruction.Name
		}
	}
	return Decode(raw).Op.String()
}

// Disassemble formats an opcode as assembler text, e.g. "ld I, $22A".
// Unknown opcodes are rendered as a data word.
func Disassemble(raw uint16) string {
	in := Decode(raw)
	if in.Op == OpUnknown {
		return fmt.Sprintf("dw $%04X", raw)
	}

	name := Mnemonic(raw)
	if params := formatOperands(in); params != "" {
		return name + " " + params
	}
	return name
}

func formatOperands(in Instruction) string {
	switch in.Op {
	case OpCLS, OpRET:
		return ""
	case OpJP, OpCALL:
		return fmt.Sprintf("$%03X", in.NNN)
	case OpJPV:
		// Offset register is VX, matching the default jump quirk.
		return fmt.Sprintf("V%X, $%03X", in.X, in.NNN)
	case OpSEImm, OpSNEImm, OpLDImm, OpADDImm, OpRND:
		return fmt.Sprintf("V%X, $%02X", in.X, in.NN)
	case OpSEReg, OpSNEReg, OpLDReg, OpOR, OpAND, OpXOR, OpADDReg, OpSUB, OpSUBN:
		return fmt.Sprintf("V%X, V%X", in.X, in.Y)
	case OpSHR, OpSHL, OpSKP, OpSKNP:
		return fmt.Sprintf("V%X", in.X)
	case OpLDI:
		return fmt.Sprintf("I, $%03X", in.NNN)
	case OpDRW:
		return fmt.Sprintf("V%X, V%X, $%X", in.X, in.Y, in.N)
	case OpLDVxDT:
		return fmt.Sprintf("V%X, DT", in.X)
	case OpLDKey:
		return fmt.Sprintf("V%X, K", in.X)
	case OpLDDTVx:
		return fmt.Sprintf("DT, V%X", in.X)
	case OpLDSTVx:
		return fmt.Sprintf("ST, V%X", in.X)
	case OpADDI:
		return fmt.Sprintf("I, V%X", in.X)
	case OpLDF:
		return fmt.Sprintf("F, V%X", in.X)
	case OpLDB:
		return fmt.Sprintf("B, V%X", in.X)
	case OpSTORE:
		return fmt.Sprintf("[I], V%X", in.X)
	case OpLOAD:
		return fmt.Sprintf("V%X, [I]", in.X)
	}
	return ""
}
