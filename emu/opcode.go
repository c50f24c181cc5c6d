package emu

// Op identifies one CHIP-8 instruction form.
type Op uint8

const (
	OpUnknown Op = iota
	OpCLS        // 00E0
	OpRET        // 00EE
	OpJP         // 1NNN
	OpCALL       // 2NNN
	OpSEImm      // 3XNN
	OpSNEImm     // 4XNN
	OpSEReg      // 5XY0
	OpLDImm      // 6XNN
	OpADDImm     // 7XNN
	OpLDReg      // 8XY0
	OpOR         // 8XY1
	OpAND        // 8XY2
	OpXOR        // 8XY3
	OpADDReg     // 8XY4
	OpSUB        // 8XY5
	OpSHR        // 8XY6
	OpSUBN       // 8XY7
	OpSHL        // 8XYE
	OpSNEReg     // 9XY0
	OpLDI        // ANNN
	OpJPV        // BNNN
	OpRND        // CXNN
	OpDRW        // DXYN
	OpSKP        // EX9E
	OpSKNP       // EXA1
	OpLDVxDT     // FX07
	OpLDKey      // FX0A
	OpLDDTVx     // FX15
	OpLDSTVx     // FX18
	OpADDI       // FX1E
	OpLDF        // FX29
	OpLDB        // FX33
	OpSTORE      // FX55
	OpLOAD       // FX65
)

var opNames = [...]string{
	OpUnknown: "unknown",
	OpCLS:     "cls",
	OpRET:     "ret",
	OpJP:      "jp",
	OpCALL:    "call",
	OpSEImm:   "se",
	OpSNEImm:  "sne",
	OpSEReg:   "se",
	OpLDImm:   "ld",
	OpADDImm:  "add",
	OpLDReg:   "ld",
	OpOR:      "or",
	OpAND:     "and",
	OpXOR:     "xor",
	OpADDReg:  "add",
	OpSUB:     "sub",
	OpSHR:     "shr",
	OpSUBN:    "subn",
	OpSHL:     "shl",
	OpSNEReg:  "sne",
	OpLDI:     "ld",
	OpJPV:     "jp",
	OpRND:     "rnd",
	OpDRW:     "drw",
	OpSKP:     "skp",
	OpSKNP:    "sknp",
	OpLDVxDT:  "ld",
	OpLDKey:   "ld",
	OpLDDTVx:  "ld",
	OpLDSTVx:  "ld",
	OpADDI:    "add",
	OpLDF:     "ld",
	OpLDB:     "ld",
	OpSTORE:   "ld",
	OpLOAD:    "ld",
}

// String returns the assembler mnemonic of the instruction form.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return opNames[OpUnknown]
}

// Instruction is a decoded opcode with all operand fields extracted.
type Instruction struct {
	Op  Op
	Raw uint16
	X   uint8  // second nibble, register index
	Y   uint8  // third nibble, register index
	N   uint8  // low nibble
	NN  uint8  // low byte
	NNN uint16 // low 12 bits
}

// Decode splits a raw opcode into its fields and identifies the form.
// Groups 0x0, 0x8 and 0xE are matched on the low nibble and group 0xF on
// the low byte, so e.g. 0x0000 decodes as cls.
func Decode(raw uint16) Instruction {
	in := Instruction{
		Raw: raw,
		X:   uint8(raw>>8) & 0x0F,
		Y:   uint8(raw>>4) & 0x0F,
		N:   uint8(raw) & 0x0F,
		NN:  uint8(raw),
		NNN: raw & 0x0FFF,
	}
	in.Op = decodeOp(raw>>12, in.N, in.NN)
	return in
}

func decodeOp(group uint16, n, nn uint8) Op {
	switch group {
	case 0x0:
		switch n {
		case 0x0:
			return OpCLS
		case 0xE:
			return OpRET
		}
	case 0x1:
		return OpJP
	case 0x2:
		return OpCALL
	case 0x3:
		return OpSEImm
	case 0x4:
		return OpSNEImm
	case 0x5:
		return OpSEReg
	case 0x6:
		return OpLDImm
	case 0x7:
		return OpADDImm
	case 0x8:
		switch n {
		case 0x0:
			return OpLDReg
		case 0x1:
			return OpOR
		case 0x2:
			return OpAND
		case 0x3:
			return OpXOR
		case 0x4:
			return OpADDReg
		case 0x5:
			return OpSUB
		case 0x6:
			return OpSHR
		case 0x7:
			return OpSUBN
		case 0xE:
			return OpSHL
		}
	case 0x9:
		return OpSNEReg
	case 0xA:
		return OpLDI
	case 0xB:
		return OpJPV
	case 0xC:
		return OpRND
	case 0xD:
		return OpDRW
	case 0xE:
		switch n {
		case 0xE:
			return OpSKP
		case 0x1:
			return OpSKNP
		}
	case 0xF:
		switch nn {
		case 0x07:
			return OpLDVxDT
		case 0x0A:
			return OpLDKey
		case 0x15:
			return OpLDDTVx
		case 0x18:
			return OpLDSTVx
		case 0x1E:
			return OpADDI
		case 0x29:
			return OpLDF
		case 0x33:
			return OpLDB
		case 0x55:
			return OpSTORE
		case 0x65:
			return OpLOAD
		}
	}
	return OpUnknown
}
