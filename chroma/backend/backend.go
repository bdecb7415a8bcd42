// Package backend hosts the platform surfaces of the emulator: rendering
// a finished frame somewhere visible, collecting input, and playing the
// APU's channel descriptors. The core never imports this package; it only
// sees the small interfaces in video and audio.
package backend

import (
	"github.com/marcval/go-chroma/chroma/memory"
	"github.com/marcval/go-chroma/chroma/video"
)

// InputEvent is a button transition collected by a backend.
type InputEvent struct {
	Key     memory.JoypadKey
	Pressed bool
}

// QuitRequested marks an event stream where the user asked to leave.
type QuitRequested struct{}

func (QuitRequested) Error() string { return "quit requested" }

// Backend is a complete platform: it renders frames and reports input.
type Backend interface {
	// Init prepares the platform surface.
	Init() error
	// Update renders the frame and returns the input events that occurred.
	// It returns QuitRequested when the user closed the surface.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)
	// Cleanup releases platform resources.
	Cleanup() error
}

// Headless is the no-op backend used for batch runs and tests.
type Headless struct{}

func (Headless) Init() error { return nil }

func (Headless) Update(frame *video.FrameBuffer) ([]InputEvent, error) {
	return nil, nil
}

func (Headless) Cleanup() error { return nil }
