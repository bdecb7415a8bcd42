package addr

// lcd registers
const (
	// LCD Control register.
	LCDC uint16 = 0xFF40
	// LCDC Status register.
	STAT uint16 = 0xFF41
	// Scroll Y (SCY) register.
	SCY uint16 = 0xFF42
	// Scroll X (SCX) register.
	SCX uint16 = 0xFF43
	// LCDC Y-Coordinate (readonly) register.
	LY uint16 = 0xFF44
	// LY Compare register.
	LYC uint16 = 0xFF45
	// OAM DMA Transfer and Start register.
	DMA uint16 = 0xFF46
	// BG Palette register (DMG).
	BGP uint16 = 0xFF47
	// Object Palette 0 register (DMG).
	OBP0 uint16 = 0xFF48
	// Object Palette 1 register (DMG).
	OBP1 uint16 = 0xFF49
	// Window Y Position register.
	WY uint16 = 0xFF4A
	// Window X Position register.
	WX uint16 = 0xFF4B
)

// CGB registers
const (
	// KEY0 selects DMG compatibility mode; written by the boot ROM.
	KEY0 uint16 = 0xFF4C
	// KEY1 arms and reports the double-speed switch.
	KEY1 uint16 = 0xFF4D
	// VBK selects the VRAM bank (bit 0).
	VBK uint16 = 0xFF4F
	// BANK unmaps the boot ROM on the first non-zero write.
	BANK uint16 = 0xFF50

	// VRAM DMA source/destination and control.
	HDMA1 uint16 = 0xFF51 // source high
	HDMA2 uint16 = 0xFF52 // source low
	HDMA3 uint16 = 0xFF53 // destination high
	HDMA4 uint16 = 0xFF54 // destination low
	HDMA5 uint16 = 0xFF55 // length/mode/start

	// BCPS/BCPD and OCPS/OCPD access background and object palette memory.
	BCPS uint16 = 0xFF68
	BCPD uint16 = 0xFF69
	OCPS uint16 = 0xFF6A
	OCPD uint16 = 0xFF6B

	// OPRI selects object priority mode (0 = by X coordinate, 1 = by OAM order).
	OPRI uint16 = 0xFF6C
	// SVBK selects the WRAM bank at 0xD000 (bits 0-2, 0 acts as 1).
	SVBK uint16 = 0xFF70
)

// Audio registers - APU
// Reference: https://gbdev.io/pandocs/Audio_Registers.html
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	// Channel 1 - Square wave with wavelength sweep
	NR10 uint16 = 0xFF10 // Channel 1 sweep
	NR11 uint16 = 0xFF11 // Channel 1 length timer & duty cycle
	NR12 uint16 = 0xFF12 // Channel 1 volume & envelope
	NR13 uint16 = 0xFF13 // Channel 1 period low
	NR14 uint16 = 0xFF14 // Channel 1 period high & control

	// Channel 2 - Square wave
	NR21 uint16 = 0xFF16 // Channel 2 length timer & duty cycle
	NR22 uint16 = 0xFF17 // Channel 2 volume & envelope
	NR23 uint16 = 0xFF18 // Channel 2 period low
	NR24 uint16 = 0xFF19 // Channel 2 period high & control

	// Channel 3 - Custom wave
	NR30 uint16 = 0xFF1A // Channel 3 DAC enable
	NR31 uint16 = 0xFF1B // Channel 3 length timer
	NR32 uint16 = 0xFF1C // Channel 3 output level
	NR33 uint16 = 0xFF1D // Channel 3 period low
	NR34 uint16 = 0xFF1E // Channel 3 period high & control

	// Channel 4 - Noise
	NR41 uint16 = 0xFF20 // Channel 4 length timer
	NR42 uint16 = 0xFF21 // Channel 4 volume & envelope
	NR43 uint16 = 0xFF22 // Channel 4 frequency & randomness
	NR44 uint16 = 0xFF23 // Channel 4 control

	// Global sound control
	NR50 uint16 = 0xFF24 // Master volume & VIN panning
	NR51 uint16 = 0xFF25 // Sound panning
	NR52 uint16 = 0xFF26 // Sound on/off and channel status

	// Wave pattern RAM (32 samples, 4-bit each)
	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// OAM (Object Attribute Memory) - sprite data
const (
	// OAMStart is the start of OAM memory (40 objects * 4 bytes each)
	OAMStart uint16 = 0xFE00
	// OAMEnd is the end of OAM memory
	OAMEnd uint16 = 0xFE9F
)

// tile data and tile maps
const (
	// TileData0 is the start of unsigned tile data (tiles 0-255)
	TileData0 uint16 = 0x8000
	// TileData1 is the start of signed tile data region (tiles -128 to -1)
	TileData1 uint16 = 0x8800
	// TileData2 is the continuation of signed tile data (tiles 0-127)
	TileData2 uint16 = 0x9000

	// TileMap0 is background/window tile map 0
	TileMap0 uint16 = 0x9800
	// TileMap1 is background/window tile map 1
	TileMap1 uint16 = 0x9C00
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// joypad
const (
	// P1 is used to read the Joypad state.
	P1 uint16 = 0xFF00
)

// serial I/O
const (
	// SB holds the 8-bit data to be transmitted over the link port.
	SB uint16 = 0xFF01
	// SC is the serial transfer control register (bit 7 start, bit 0 clock source).
	SC uint16 = 0xFF02
)

// timers
const (
	// DIV is the divider register. Upper byte of the internal 16-bit counter; writing resets it.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter register. Generates an interrupt when it overflows.
	TIMA uint16 = 0xFF05
	// TMA is the timer modulo register. Loaded into TIMA on overflow.
	TMA uint16 = 0xFF06
	// TAC is the timer control register. Enable bit and clock select.
	TAC uint16 = 0xFF07
)
