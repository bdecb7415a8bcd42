package bit

import (
	"testing"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		value    uint8
		index    uint8
		expected bool
	}{
		{0b10101010, 0, false},
		{0b10101010, 1, true},
		{0b10101010, 2, false},
		{0b10101010, 7, true},
	}

	for _, tt := range tests {
		if got := IsSet(tt.index, tt.value); got != tt.expected {
			t.Errorf("IsSet(%d, %08b) = %v; want %v", tt.index, tt.value, got, tt.expected)
		}
	}
}

func TestIsSet16(t *testing.T) {
	tests := []struct {
		value    uint16
		index    uint8
		expected bool
	}{
		{0x0200, 9, true},
		{0x0200, 8, false},
		{0x8000, 15, true},
		{0x0008, 3, true},
	}

	for _, tt := range tests {
		if got := IsSet16(tt.index, tt.value); got != tt.expected {
			t.Errorf("IsSet16(%d, %04X) = %v; want %v", tt.index, tt.value, got, tt.expected)
		}
	}
}

func TestSetAndReset(t *testing.T) {
	if got := Set(3, 0x00); got != 0x08 {
		t.Errorf("Set(3, 0x00) = %02X; want 0x08", got)
	}
	if got := Reset(3, 0xFF); got != 0xF7 {
		t.Errorf("Reset(3, 0xFF) = %02X; want 0xF7", got)
	}
}

func TestHighLow(t *testing.T) {
	if High(0xABCD) != 0xAB || Low(0xABCD) != 0xCD {
		t.Errorf("High/Low(0xABCD) = (%02X, %02X); want (AB, CD)", High(0xABCD), Low(0xABCD))
	}
}

func TestExtractBits(t *testing.T) {
	tests := []struct {
		value           uint8
		highBit, lowBit uint8
		expected        uint8
	}{
		{0b11010110, 6, 4, 0b101},
		{0b11010110, 7, 6, 0b11},
		{0b11010110, 2, 0, 0b110},
		{0xFF, 5, 0, 0x3F},
	}

	for _, tt := range tests {
		if got := ExtractBits(tt.value, tt.highBit, tt.lowBit); got != tt.expected {
			t.Errorf("ExtractBits(%08b, %d, %d) = %b; want %b", tt.value, tt.highBit, tt.lowBit, got, tt.expected)
		}
	}
}
