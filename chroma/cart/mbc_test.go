package cart

import (
	"testing"
	"time"
)

// makeROM builds a fake ROM where every byte of a bank holds the bank number.
func makeROM(banks int) []byte {
	rom := make([]byte, banks*0x4000)
	for i := range rom {
		rom[i] = byte(i / 0x4000)
	}
	return rom
}

func TestMBC1(t *testing.T) {
	t.Run("Bank 0 Is Fixed", func(t *testing.T) {
		mbc := NewMBC1(makeROM(4), 0)
		if got := mbc.Read(0x2000); got != 0 {
			t.Errorf("Read(0x2000) = %d; want bank 0", got)
		}
	})

	t.Run("Bank 0 Coerces To 1", func(t *testing.T) {
		mbc := NewMBC1(makeROM(4), 0)
		mbc.Write(0x2000, 0x00)
		if got := mbc.Read(0x4000); got != 1 {
			t.Errorf("after writing bank 0, Read(0x4000) = %d; want bank 1", got)
		}
	})

	t.Run("Only Low 5 Bits Select The Bank", func(t *testing.T) {
		mbc := NewMBC1(makeROM(4), 0)
		mbc.Write(0x2000, 0x21) // low 5 bits = 1
		if got := mbc.Read(0x4000); got != 1 {
			t.Errorf("after writing 0x21, Read(0x4000) = %d; want bank 1", got)
		}
	})

	t.Run("Bank Switching", func(t *testing.T) {
		mbc := NewMBC1(makeROM(8), 0)
		for _, bank := range []byte{2, 3, 7} {
			mbc.Write(0x2000, bank)
			if got := mbc.Read(0x4000); got != bank {
				t.Errorf("bank %d: Read(0x4000) = %d", bank, got)
			}
		}
	})

	t.Run("RAM Enable Gate", func(t *testing.T) {
		mbc := NewMBC1(makeROM(2), 0x8000)
		if got := mbc.Read(0xA000); got != 0xFF {
			t.Errorf("disabled RAM read = 0x%02X; want 0xFF", got)
		}
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA000, 0x42)
		if got := mbc.Read(0xA000); got != 0x42 {
			t.Errorf("enabled RAM read = 0x%02X; want 0x42", got)
		}
		mbc.Write(0x0000, 0x00)
		if got := mbc.Read(0xA000); got != 0xFF {
			t.Errorf("re-disabled RAM read = 0x%02X; want 0xFF", got)
		}
	})

	t.Run("RAM Banking Needs Mode 1", func(t *testing.T) {
		mbc := NewMBC1(makeROM(2), 0x8000)
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0x6000, 0x01)
		for bank := byte(0); bank < 4; bank++ {
			mbc.Write(0x4000, bank)
			mbc.Write(0xA000, 0x40+bank)
		}
		for bank := byte(0); bank < 4; bank++ {
			mbc.Write(0x4000, bank)
			if got := mbc.Read(0xA000); got != 0x40+bank {
				t.Errorf("RAM bank %d: got 0x%02X; want 0x%02X", bank, got, 0x40+bank)
			}
		}
	})

	t.Run("Mode 1 Applies Bank2 To Lower Window", func(t *testing.T) {
		mbc := NewMBC1(makeROM(0x80), 0)
		mbc.Write(0x4000, 0x01) // bank2 = 1
		if got := mbc.Read(0x0000); got != 0 {
			t.Errorf("mode 0 lower window = bank %d; want 0", got)
		}
		mbc.Write(0x6000, 0x01)
		if got := mbc.Read(0x0000); got != 0x20 {
			t.Errorf("mode 1 lower window = bank %d; want 0x20", got)
		}
	})
}

func TestMBC2(t *testing.T) {
	t.Run("Address Bit 8 Selects Register", func(t *testing.T) {
		mbc := NewMBC2(makeROM(8))
		// Bit 8 clear: RAM enable register.
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA000, 0x05)
		if got := mbc.Read(0xA000); got != 0xF5 {
			t.Errorf("RAM read = 0x%02X; want 0xF5", got)
		}
		// Bit 8 set: ROM bank register.
		mbc.Write(0x0100, 0x03)
		if got := mbc.Read(0x4000); got != 3 {
			t.Errorf("Read(0x4000) = %d; want bank 3", got)
		}
	})

	t.Run("RAM Holds Only 4 Bits", func(t *testing.T) {
		mbc := NewMBC2(makeROM(2))
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA010, 0xFF)
		if got := mbc.Read(0xA010); got != 0xFF {
			t.Errorf("Read = 0x%02X; want 0xFF (0x0F stored, upper nibble open bus)", got)
		}
		mbc.Write(0xA010, 0xA5)
		if got := mbc.Read(0xA010); got != 0xF5 {
			t.Errorf("Read = 0x%02X; want 0xF5", got)
		}
	})

	t.Run("RAM Echoes Every 512 Bytes", func(t *testing.T) {
		mbc := NewMBC2(makeROM(2))
		mbc.Write(0x0000, 0x0A)
		mbc.Write(0xA000, 0x01)
		if got := mbc.Read(0xA200); got != 0xF1 {
			t.Errorf("echo read = 0x%02X; want 0xF1", got)
		}
	})
}

func TestMBC5(t *testing.T) {
	t.Run("Nine Bit Bank Select", func(t *testing.T) {
		mbc := NewMBC5(makeROM(0x200), 0)
		mbc.Write(0x2000, 0x44)
		if got := mbc.Read(0x4000); got != 0x44 {
			t.Errorf("Read(0x4000) = 0x%02X; want bank 0x44", got)
		}
		mbc.Write(0x3000, 0x01)
		if got := mbc.Read(0x4000); got != 0x44 {
			t.Errorf("bank 0x144 (pattern byte 0x44): Read(0x4000) = 0x%02X; want 0x44", got)
		}
		mbc.Write(0x2000, 0x00)
		mbc.Write(0x3000, 0x01)
		if got := mbc.Read(0x4000); got != 0x00 {
			t.Errorf("bank 0x100: Read(0x4000) = 0x%02X; want 0x00 pattern", got)
		}
	})

	t.Run("Bank 0 Is Selectable", func(t *testing.T) {
		mbc := NewMBC5(makeROM(4), 0)
		mbc.Write(0x2000, 0x00)
		mbc.Write(0x3000, 0x00)
		if got := mbc.Read(0x4000); got != 0 {
			t.Errorf("Read(0x4000) = %d; want bank 0", got)
		}
	})

	t.Run("RAM Banking", func(t *testing.T) {
		mbc := NewMBC5(makeROM(2), 0x20000)
		mbc.Write(0x0000, 0x0A)
		for bank := byte(0); bank < 16; bank++ {
			mbc.Write(0x4000, bank)
			mbc.Write(0xA000, 0x80+bank)
		}
		for bank := byte(0); bank < 16; bank++ {
			mbc.Write(0x4000, bank)
			if got := mbc.Read(0xA000); got != 0x80+bank {
				t.Errorf("RAM bank %d: got 0x%02X; want 0x%02X", bank, got, 0x80+bank)
			}
		}
	})
}

func TestMBC5BankWrap(t *testing.T) {
	mbc := NewMBC5(makeROM(8), 0)
	mbc.Write(0x2000, 0x0B) // bank 11 in an 8 bank ROM wraps to 3
	if got := mbc.Read(0x4000); got != 3 {
		t.Errorf("Read(0x4000) = %d; want wrapped bank 3", got)
	}
}

func TestBatterySnapshots(t *testing.T) {
	mbc := NewMBC1(makeROM(2), 0x2000)
	mbc.Write(0x0000, 0x0A)
	mbc.Write(0xA123, 0x77)

	snap := mbc.SnapshotRAM()
	if len(snap) != 0x2000 {
		t.Fatalf("snapshot size = %d; want 0x2000", len(snap))
	}

	other := NewMBC1(makeROM(2), 0x2000)
	if err := other.RestoreRAM(snap); err != nil {
		t.Fatalf("RestoreRAM: %v", err)
	}
	other.Write(0x0000, 0x0A)
	if got := other.Read(0xA123); got != 0x77 {
		t.Errorf("restored RAM read = 0x%02X; want 0x77", got)
	}

	if err := other.RestoreRAM(make([]byte, 16)); err == nil {
		t.Error("RestoreRAM with wrong size should fail")
	}
}

func writeRTCRegister(m *MBC3, register, value byte) {
	m.Write(0x4000, register)
	m.Write(0xA000, value)
}

func readRTCRegister(m *MBC3, register byte) byte {
	m.Write(0x4000, register)
	return m.Read(0xA000)
}

func TestMBC3RTC(t *testing.T) {
	t.Run("Round Trip Through A Day", func(t *testing.T) {
		mbc := NewMBC3(makeROM(16), 0x8000, true)
		mbc.Write(0x0000, 0x0A)
		writeRTCRegister(mbc, 0x08, 56)
		writeRTCRegister(mbc, 0x09, 34)
		writeRTCRegister(mbc, 0x0A, 12)
		writeRTCRegister(mbc, 0x0B, 105)
		writeRTCRegister(mbc, 0x0C, 0x01)

		mbc.AdvanceRTC(86400)
		mbc.Write(0x6000, 0x00)
		mbc.Write(0x6000, 0x01)

		if got := readRTCRegister(mbc, 0x08); got != 56 {
			t.Errorf("seconds = %d; want 56", got)
		}
		if got := readRTCRegister(mbc, 0x09); got != 34 {
			t.Errorf("minutes = %d; want 34", got)
		}
		if got := readRTCRegister(mbc, 0x0A); got != 12 {
			t.Errorf("hours = %d; want 12", got)
		}
		if got := readRTCRegister(mbc, 0x0B); got != 106 {
			t.Errorf("days low = %d; want 106", got)
		}
		if got := readRTCRegister(mbc, 0x0C); got != 0x01 {
			t.Errorf("days high = 0x%02X; want 0x01", got)
		}
	})

	t.Run("Day Counter Crosses 256", func(t *testing.T) {
		mbc := NewMBC3(makeROM(16), 0x8000, true)
		mbc.Write(0x0000, 0x0A)
		writeRTCRegister(mbc, 0x0B, 0xFF)
		writeRTCRegister(mbc, 0x0C, 0x00)

		mbc.AdvanceRTC(86400)
		mbc.Write(0x6000, 0x00)
		mbc.Write(0x6000, 0x01)

		if got := readRTCRegister(mbc, 0x0B); got != 0x00 {
			t.Errorf("days low = 0x%02X; want 0x00", got)
		}
		if got := readRTCRegister(mbc, 0x0C); got != 0x01 {
			t.Errorf("days high = 0x%02X; want bit 0 set", got)
		}
	})

	t.Run("Day Carry Sticks Past 512", func(t *testing.T) {
		mbc := NewMBC3(makeROM(16), 0x8000, true)
		mbc.Write(0x0000, 0x0A)
		writeRTCRegister(mbc, 0x0B, 0xFF)
		writeRTCRegister(mbc, 0x0C, 0x01) // day 511

		mbc.AdvanceRTC(86400)
		mbc.Write(0x6000, 0x00)
		mbc.Write(0x6000, 0x01)
		if got := readRTCRegister(mbc, 0x0C); got&0x80 == 0 {
			t.Errorf("days high = 0x%02X; want carry bit set", got)
		}

		mbc.AdvanceRTC(86400)
		mbc.Write(0x6000, 0x00)
		mbc.Write(0x6000, 0x01)
		if got := readRTCRegister(mbc, 0x0C); got&0x80 == 0 {
			t.Errorf("carry bit must be preserved; got 0x%02X", got)
		}
	})

	t.Run("Halt Flag Freezes The Clock", func(t *testing.T) {
		mbc := NewMBC3(makeROM(16), 0x8000, true)
		mbc.Write(0x0000, 0x0A)
		writeRTCRegister(mbc, 0x08, 30)
		writeRTCRegister(mbc, 0x0C, 0x40)

		mbc.AdvanceRTC(1000)
		mbc.Write(0x6000, 0x00)
		mbc.Write(0x6000, 0x01)
		if got := readRTCRegister(mbc, 0x08); got != 30 {
			t.Errorf("halted clock moved: seconds = %d; want 30", got)
		}
	})

	t.Run("Latch Only On Zero To One", func(t *testing.T) {
		mbc := NewMBC3(makeROM(16), 0x8000, true)
		mbc.Write(0x0000, 0x0A)
		writeRTCRegister(mbc, 0x08, 10)

		mbc.Write(0x6000, 0x00)
		mbc.Write(0x6000, 0x01)
		mbc.AdvanceRTC(5)

		// Still latched at the old value until the next 0->1 edge.
		if got := readRTCRegister(mbc, 0x08); got != 10 {
			t.Errorf("seconds = %d; want latched 10", got)
		}
		mbc.Write(0x6000, 0x01) // no edge
		if got := readRTCRegister(mbc, 0x08); got != 10 {
			t.Errorf("seconds = %d; want latched 10 (no edge)", got)
		}
		mbc.Write(0x6000, 0x00)
		mbc.Write(0x6000, 0x01)
		if got := readRTCRegister(mbc, 0x08); got != 15 {
			t.Errorf("seconds = %d; want 15 after re-latch", got)
		}
	})

	t.Run("Snapshot Restore Credits Elapsed Time", func(t *testing.T) {
		mbc := NewMBC3(makeROM(16), 0x8000, true)
		mbc.Write(0x0000, 0x0A)
		writeRTCRegister(mbc, 0x08, 0)

		saved := time.Unix(1_000_000, 0)
		snap := mbc.SnapshotRTC(saved)

		restored := NewMBC3(makeROM(16), 0x8000, true)
		if err := restored.RestoreRTC(snap, saved.Add(90*time.Second)); err != nil {
			t.Fatalf("RestoreRTC: %v", err)
		}
		restored.Write(0x0000, 0x0A)
		restored.Write(0x6000, 0x00)
		restored.Write(0x6000, 0x01)
		if got := readRTCRegister(restored, 0x08); got != 30 {
			t.Errorf("seconds = %d; want 30 (90s credited)", got)
		}
		if got := readRTCRegister(restored, 0x09); got != 1 {
			t.Errorf("minutes = %d; want 1", got)
		}
	})
}

func TestMBC3TickCountsSeconds(t *testing.T) {
	mbc := NewMBC3(makeROM(16), 0, true)
	for range 1024 {
		mbc.Tick(4096)
	}
	mbc.Write(0x0000, 0x0A)
	mbc.Write(0x6000, 0x00)
	mbc.Write(0x6000, 0x01)
	if got := readRTCRegister(mbc, 0x08); got != 1 {
		t.Errorf("seconds = %d; want 1 after 4194304 cycles", got)
	}
}
