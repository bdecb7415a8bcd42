// Package terminal renders the emulator into a tcell screen using
// half-block glyphs, one text row per two pixel rows, with true-color
// foreground/background pairs.
package terminal

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/marcval/go-chroma/chroma/backend"
	"github.com/marcval/go-chroma/chroma/memory"
	"github.com/marcval/go-chroma/chroma/video"
)

// keyHoldDuration approximates a button hold: terminals only deliver
// key-down events, so a pressed key is released after this long without a
// repeat.
const keyHoldDuration = 120 * time.Millisecond

type Terminal struct {
	screen tcell.Screen
	events chan tcell.Event
	quit   chan struct{}

	held map[memory.JoypadKey]time.Time
}

func New() *Terminal {
	return &Terminal{
		events: make(chan tcell.Event, 64),
		quit:   make(chan struct{}),
		held:   make(map[memory.JoypadKey]time.Time),
	}
}

func (t *Terminal) Init() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.Clear()
	t.screen = screen

	go func() {
		for {
			select {
			case <-t.quit:
				return
			default:
			}
			event := screen.PollEvent()
			if event == nil {
				return
			}
			select {
			case t.events <- event:
			default:
				// input faster than the frame loop drains; drop
			}
		}
	}()
	return nil
}

func (t *Terminal) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	t.draw(frame)
	t.screen.Show()

	var out []backend.InputEvent
	now := time.Now()

	for {
		select {
		case event := <-t.events:
			keyEvent, ok := event.(*tcell.EventKey)
			if !ok {
				continue
			}
			key, quit := mapKey(keyEvent)
			if quit {
				return out, backend.QuitRequested{}
			}
			if key < 0 {
				continue
			}
			joypadKey := memory.JoypadKey(key)
			if _, holding := t.held[joypadKey]; !holding {
				out = append(out, backend.InputEvent{Key: joypadKey, Pressed: true})
			}
			t.held[joypadKey] = now
		default:
			// Release keys whose hold window expired.
			for key, since := range t.held {
				if now.Sub(since) > keyHoldDuration {
					delete(t.held, key)
					out = append(out, backend.InputEvent{Key: key, Pressed: false})
				}
			}
			return out, nil
		}
	}
}

func (t *Terminal) Cleanup() error {
	close(t.quit)
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// draw paints the frame with upper-half-block glyphs: the foreground color
// carries the even pixel row, the background the odd one.
func (t *Terminal) draw(frame *video.FrameBuffer) {
	for y := 0; y < video.ScreenHeight; y += 2 {
		for x := 0; x < video.ScreenWidth; x++ {
			tr, tg, tb := frame.Pixel(x, y).RGB888()
			br, bg, bb := frame.Pixel(x, y+1).RGB888()
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(tr), int32(tg), int32(tb))).
				Background(tcell.NewRGBColor(int32(br), int32(bg), int32(bb)))
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
}

// mapKey translates terminal keys to joypad lines. Returns -1 for keys the
// emulator does not care about, and quit=true for the exit chords.
func mapKey(event *tcell.EventKey) (int, bool) {
	switch event.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return -1, true
	case tcell.KeyUp:
		return int(memory.JoypadUp), false
	case tcell.KeyDown:
		return int(memory.JoypadDown), false
	case tcell.KeyLeft:
		return int(memory.JoypadLeft), false
	case tcell.KeyRight:
		return int(memory.JoypadRight), false
	case tcell.KeyEnter:
		return int(memory.JoypadStart), false
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return int(memory.JoypadSelect), false
	case tcell.KeyRune:
		switch event.Rune() {
		case 'a', 'z':
			return int(memory.JoypadA), false
		case 's', 'x':
			return int(memory.JoypadB), false
		}
	}
	return -1, false
}
