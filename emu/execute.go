package emu

import "github.com/retroenv/retrogolib/log"

// instructionSize is the width of every CHIP-8 opcode in bytes.
const instructionSize = 2

// execute applies one decoded instruction. Every path ends in the shared
// pc advance at the bottom, so jumps store their target minus 2.
func (vm *VM) execute(in Instruction) {
	if vm.trace && vm.logger != nil {
		vm.logger.Debug("Executing",
			log.Hex("pc", vm.pc),
			log.Hex("opcode", in.Raw),
			log.String("instruction", Disassemble(in.Raw)))
	}

	x, y := in.X, in.Y

	switch in.Op {
	case OpCLS:
		if in.Raw == 0x0000 {
			vm.logUnknown(in)
		}
		vm.screen = [ScreenSize]uint8{}

	case OpRET:
		vm.ret()

	case OpJP:
		vm.pc = in.NNN - instructionSize

	case OpCALL:
		vm.call(in.NNN)

	case OpSEImm:
		if vm.v[x] == in.NN {
			vm.pc += instructionSize
		}

	case OpSNEImm:
		if vm.v[x] != in.NN {
			vm.pc += instructionSize
		}

	case OpSEReg:
		if vm.v[x] == vm.v[y] {
			vm.pc += instructionSize
		}

	case OpSNEReg:
		if vm.v[x] != vm.v[y] {
			vm.pc += instructionSize
		}

	case OpLDImm:
		vm.v[x] = in.NN

	case OpADDImm:
		vm.v[x] += in.NN // no carry flag

	case OpLDReg:
		vm.v[x] = vm.v[y]

	case OpOR:
		vm.v[x] |= vm.v[y]

	case OpAND:
		vm.v[x] &= vm.v[y]

	case OpXOR:
		vm.v[x] ^= vm.v[y]

	case OpADDReg:
		orig := vm.v[x]
		vm.v[x] += vm.v[y]
		vm.v[FlagRegister] = boolToFlag(vm.v[x] < orig)

	case OpSUB:
		flag := boolToFlag(vm.v[x] > vm.v[y])
		vm.v[x] -= vm.v[y]
		vm.v[FlagRegister] = flag

	case OpSUBN:
		flag := boolToFlag(vm.v[y] >= vm.v[x])
		vm.v[x] = vm.v[y] - vm.v[x]
		vm.v[FlagRegister] = flag

	case OpSHR:
		if vm.quirks.ShiftUsesVY {
			vm.v[x] = vm.v[y]
		}
		flag := vm.v[x] & 0x01
		vm.v[x] >>= 1
		vm.v[FlagRegister] = flag

	case OpSHL:
		if vm.quirks.ShiftUsesVY {
			vm.v[x] = vm.v[y]
		}
		flag := vm.v[x] >> 7
		vm.v[x] <<= 1
		vm.v[FlagRegister] = flag

	case OpLDI:
		vm.index = in.NNN

	case OpJPV:
		offset := vm.v[0]
		if vm.quirks.JumpUsesVX {
			offset = vm.v[x]
		}
		vm.pc = in.NNN + uint16(offset) - instructionSize

	case OpRND:
		vm.v[x] = uint8(vm.cycles%256) & in.NN

	case OpDRW:
		vm.draw(vm.v[x], vm.v[y], in.N)

	case OpSKP:
		if key := vm.v[x]; key < NumKeys && vm.keys[key] {
			vm.pc += instructionSize
		}

	case OpSKNP:
		if key := vm.v[x]; key < NumKeys && !vm.keys[key] {
			vm.pc += instructionSize
		}

	case OpLDVxDT:
		vm.v[x] = vm.delayTimer

	case OpLDKey:
		if vm.keyPressed {
			vm.v[x] = vm.lastKey
		} else {
			vm.pc -= instructionSize // re-run this instruction next tick
		}

	case OpLDDTVx:
		vm.delayTimer = vm.v[x]

	case OpLDSTVx:
		vm.soundTimer = vm.v[x]

	case OpADDI:
		vm.index += uint16(vm.v[x]) // VF unaffected

	case OpLDF:
		if digit := vm.v[x]; digit < 16 {
			vm.index = FontStart + 5*uint16(digit)
		}

	case OpLDB:
		val := vm.v[x]
		vm.mem.Set(vm.index, val/100)
		vm.mem.Set(vm.index+1, (val/10)%10)
		vm.mem.Set(vm.index+2, val%10)

	case OpSTORE:
		for i := uint16(0); i <= uint16(x); i++ {
			vm.mem.Set(vm.index+i, vm.v[i])
		}
		if vm.quirks.LoadStoreIncrementsIndex {
			vm.index += uint16(x)
		}

	case OpLOAD:
		for i := uint16(0); i <= uint16(x); i++ {
			vm.v[i] = vm.mem.Get(vm.index + i)
		}
		if vm.quirks.LoadStoreIncrementsIndex {
			vm.index += uint16(x)
		}

	default:
		vm.logUnknown(in)
	}

	vm.pc += instructionSize
}

// call pushes the current pc and jumps to addr. Without BoundsCheck the
// depth is unchecked and slots are reused modulo StackSize.
func (vm *VM) call(addr uint16) {
	if vm.sp >= StackSize {
		if vm.logger != nil {
			vm.logger.Warn("Stack overflow",
				log.Hex("pc", vm.pc),
				log.Hex("target", addr),
				log.Uint16("depth", vm.sp))
		}
		if vm.quirks.BoundsCheck {
			return
		}
	}
	vm.stack[vm.sp%StackSize] = vm.pc
	vm.sp++
	vm.pc = addr - instructionSize
}

// ret pops the return address pushed by the matching call. The shared
// pc advance then steps over the call instruction.
func (vm *VM) ret() {
	if vm.sp == 0 {
		if vm.logger != nil {
			vm.logger.Warn("Stack underflow", log.Hex("pc", vm.pc))
		}
		if vm.quirks.BoundsCheck {
			return
		}
	}
	vm.sp--
	vm.pc = vm.stack[vm.sp%StackSize]
}

// draw XORs an N row sprite from memory[I] onto the display at (vx, vy).
// VF reports whether any lit pixel was turned off. Coordinates are not
// wrapped; without BoundsCheck the buffer index wraps instead.
func (vm *VM) draw(vx, vy, rows uint8) {
	vm.v[FlagRegister] = 0
	for row := uint16(0); row < uint16(rows); row++ {
		sprite := vm.mem.Get(vm.index + row)
		py := int(vy) + int(row)
		for col := 0; col < 8; col++ {
			if sprite&(0x80>>col) == 0 {
				continue
			}
			px := int(vx) + col
			if vm.quirks.BoundsCheck && (px >= ScreenWidth || py >= ScreenHeight) {
				continue
			}
			idx := (px + py*ScreenWidth) % ScreenSize
			if vm.screen[idx] != 0 {
				vm.v[FlagRegister] = 1
			}
			vm.screen[idx] ^= 1
		}
	}
}

func (vm *VM) logUnknown(in Instruction) {
	if vm.logger == nil {
		return
	}
	vm.logger.Warn("Unknown or unimplemented opcode",
		log.Hex("opcode", in.Raw),
		log.Hex("previous", vm.prevOpcode),
		log.Hex("pc", vm.pc))
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
