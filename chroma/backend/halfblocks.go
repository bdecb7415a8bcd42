package backend

import (
	"strings"

	"github.com/marcval/go-chroma/chroma/video"
)

var shadeChars = []rune{' ', '░', '▒', '▓', '█'}

// luma reduces a color to a 0-255 brightness value.
func luma(c video.Color) int {
	r, g, b := c.RGB888()
	return (int(r)*299 + int(g)*587 + int(b)*114) / 1000
}

// RenderFrameToText converts a frame into 72 lines of shade characters,
// two pixel rows per text line. Used for headless snapshots.
func RenderFrameToText(frame *video.FrameBuffer) []string {
	lines := make([]string, 0, video.ScreenHeight/2)
	for y := 0; y < video.ScreenHeight; y += 2 {
		var sb strings.Builder
		for x := 0; x < video.ScreenWidth; x++ {
			brightness := (luma(frame.Pixel(x, y)) + luma(frame.Pixel(x, y+1))) / 2
			// Darker pixels get denser glyphs.
			index := (255 - brightness) * (len(shadeChars) - 1) / 255
			sb.WriteRune(shadeChars[index])
		}
		lines = append(lines, sb.String())
	}
	return lines
}
