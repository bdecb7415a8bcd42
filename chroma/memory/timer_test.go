package memory

import (
	"testing"

	"github.com/marcval/go-chroma/chroma/addr"
)

func TestDividerIncrements(t *testing.T) {
	timer := &Timer{}
	// 256 T-cycles increment DIV by one, so 320 leave it at 1 and 0x500 at 5.
	timer.Tick(320)
	if got := timer.Read(addr.DIV); got != 1 {
		t.Errorf("DIV after 320 cycles = %d; want 1", got)
	}
	timer.Tick(0x500 - 320)
	if got := timer.Read(addr.DIV); got != 5 {
		t.Errorf("DIV after 0x500 cycles = %d; want 5", got)
	}
}

func TestDividerWriteResets(t *testing.T) {
	timer := &Timer{}
	timer.Tick(0x1234)
	timer.Write(addr.DIV, 0xAB)
	if got := timer.Read(addr.DIV); got != 0 {
		t.Errorf("DIV after write = %d; want 0", got)
	}
}

func TestTIMARates(t *testing.T) {
	tests := []struct {
		name   string
		tac    byte
		cycles int
	}{
		{"4096 Hz", 0x04, 1024},
		{"262144 Hz", 0x05, 16},
		{"65536 Hz", 0x06, 64},
		{"16384 Hz", 0x07, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := &Timer{}
			timer.Write(addr.TAC, tt.tac)
			timer.Tick(tt.cycles - 1)
			if got := timer.Read(addr.TIMA); got != 0 {
				t.Fatalf("TIMA after %d cycles = %d; want 0", tt.cycles-1, got)
			}
			timer.Tick(1)
			if got := timer.Read(addr.TIMA); got != 1 {
				t.Fatalf("TIMA after %d cycles = %d; want 1", tt.cycles, got)
			}
			timer.Tick(tt.cycles)
			if got := timer.Read(addr.TIMA); got != 2 {
				t.Fatalf("TIMA after %d cycles = %d; want 2", 2*tt.cycles, got)
			}
		})
	}
}

func TestOverflowLoadsModuloAndInterrupts(t *testing.T) {
	timer := &Timer{}
	requested := 0
	timer.TimerInterruptHandler = func() { requested++ }

	timer.Write(addr.TMA, 0xAB)
	timer.Write(addr.TAC, 0x07)

	// 0x4000 m-cycles at 16384 Hz wrap TIMA exactly once.
	timer.Tick(0x10000)
	if got := timer.Read(addr.TIMA); got != 0xAB {
		t.Errorf("TIMA after overflow = 0x%02X; want TMA 0xAB", got)
	}
	if requested != 1 {
		t.Errorf("TimerOverflow requested %d times; want exactly 1", requested)
	}
}

func TestDividerResetSpuriousEdge(t *testing.T) {
	timer := &Timer{}
	timer.Write(addr.TAC, 0x05) // bit 3
	timer.Tick(8)               // counter = 8, selected bit high
	if got := timer.Read(addr.TIMA); got != 0 {
		t.Fatalf("TIMA before reset = %d; want 0", got)
	}
	// Resetting DIV drops the selected bit from 1 to 0: TIMA must clock.
	timer.Write(addr.DIV, 0x00)
	if got := timer.Read(addr.TIMA); got != 1 {
		t.Errorf("TIMA after DIV reset = %d; want 1 (spurious edge)", got)
	}
}

func TestTACChangeSpuriousEdge(t *testing.T) {
	timer := &Timer{}
	timer.Write(addr.TAC, 0x05) // bit 3
	timer.Tick(8)               // selected bit high
	// Switching the selector to bit 9 (low) produces a falling edge.
	timer.Write(addr.TAC, 0x04)
	if got := timer.Read(addr.TIMA); got != 1 {
		t.Errorf("TIMA after TAC change = %d; want 1 (spurious edge)", got)
	}
}

func TestDisabledTimerDoesNotCount(t *testing.T) {
	timer := &Timer{}
	timer.Write(addr.TAC, 0x01) // fastest clock but disabled
	timer.Tick(4096)
	if got := timer.Read(addr.TIMA); got != 0 {
		t.Errorf("TIMA with disabled timer = %d; want 0", got)
	}
}

func TestTACReadsUpperBitsSet(t *testing.T) {
	timer := &Timer{}
	timer.Write(addr.TAC, 0x07)
	if got := timer.Read(addr.TAC); got != 0xFF {
		t.Errorf("TAC read = 0x%02X; want 0xFF", got)
	}
}
