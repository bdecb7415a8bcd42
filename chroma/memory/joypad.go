package memory

// JoypadKey represents a key on the joypad.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Joypad models the P1 register. The register is a selector (bits 4-5,
// active low) that maps either the d-pad or the button group onto bits
// 0-3, also active low. A 1-to-0 transition on any selected line requests
// the Button interrupt.
type Joypad struct {
	selector byte // last written bits 4-5
	buttons  byte // A/B/Select/Start lines, 1 = released
	dpad     byte // direction lines, 1 = released

	// ButtonInterruptHandler is invoked when a selected line falls.
	ButtonInterruptHandler func()
}

func NewJoypad() *Joypad {
	return &Joypad{
		selector: 0x30,
		buttons:  0x0F,
		dpad:     0x0F,
	}
}

func (j *Joypad) Read() byte {
	// Bits 6-7 are unused and read as 1.
	result := byte(0xC0) | j.selector
	result |= j.selectedLines()
	return result
}

func (j *Joypad) Write(value byte) {
	old := j.selectedLines()
	j.selector = value & 0x30
	j.detectFall(old)
}

func (j *Joypad) selectedLines() byte {
	selectDpad := j.selector&0x10 == 0
	selectButtons := j.selector&0x20 == 0

	switch {
	case selectButtons && selectDpad:
		return j.buttons & j.dpad
	case selectButtons:
		return j.buttons
	case selectDpad:
		return j.dpad
	default:
		return 0x0F
	}
}

// Press marks a key as held down.
func (j *Joypad) Press(key JoypadKey) {
	old := j.selectedLines()
	if key >= JoypadA {
		j.buttons &^= 1 << (key - JoypadA)
	} else {
		j.dpad &^= 1 << key
	}
	j.detectFall(old)
}

// Release marks a key as let go.
func (j *Joypad) Release(key JoypadKey) {
	if key >= JoypadA {
		j.buttons |= 1 << (key - JoypadA)
	} else {
		j.dpad |= 1 << key
	}
}

func (j *Joypad) detectFall(oldLines byte) {
	falling := oldLines &^ j.selectedLines()
	if falling != 0 && j.ButtonInterruptHandler != nil {
		j.ButtonInterruptHandler()
	}
}
