package emu

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// assemble encodes opcodes as a big-endian program image.
func assemble(ops ...uint16) []byte {
	rom := make([]byte, 0, len(ops)*2)
	for _, op := range ops {
		rom = append(rom, byte(op>>8), byte(op))
	}
	return rom
}

// newTestVM creates a VM logging to the test, with program loaded and reset.
func newTestVM(t *testing.T, program ...uint16) *VM {
	t.Helper()
	vm := NewVM(log.NewTestLogger(t))
	if len(program) > 0 {
		assert.NoError(t, vm.LoadROM(assemble(program...)))
		vm.Reset()
	}
	return vm
}

// runTicks executes n instructions with an increasing cycle counter.
func runTicks(vm *VM, n int) {
	for i := 0; i < n; i++ {
		vm.Tick(vm.cycles + 1)
	}
}

// createTestEmulator returns an emulator running a tight loop at 0x200.
func createTestEmulator(t *testing.T) *Emulator {
	t.Helper()
	e, err := NewEmulator(assemble(0x1200), RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator failed: %v", err)
	}
	return &e
}
