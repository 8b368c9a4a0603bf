package renderer

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// WrapText greedily packs space-separated words into lines no wider than
// maxWidth as reported by measure. The first word of a line is always placed,
// so a single word wider than maxWidth overflows rather than being split.
func WrapText(text string, maxWidth int, measure func(string) int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && measure(candidate) > maxWidth {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// measureText returns the advance width of text in whole pixels.
func measureText(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

// Caption describes one block of wrapped, horizontally centred text.
type Caption struct {
	Text       string
	Face       font.Face
	Color      color.Color
	CenterX    int
	Top        int // top of the first line
	MaxWidth   int
	LineHeight int
}

// Lines returns the wrapped lines for the caption.
func (c Caption) Lines() []string {
	return WrapText(c.Text, c.MaxWidth, func(s string) int { return measureText(c.Face, s) })
}

// drawCaption renders the caption onto img and returns the lines drawn.
func drawCaption(img *image.RGBA, c Caption) []string {
	lines := c.Lines()
	if len(lines) == 0 {
		return nil
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.Color),
		Face: c.Face,
	}

	// Top-aligned: the baseline sits one ascent below the line top
	ascent := c.Face.Metrics().Ascent
	top := fixed.I(c.Top)
	for _, line := range lines {
		width := d.MeasureString(line)
		d.Dot = fixed.Point26_6{
			X: fixed.I(c.CenterX) - width/2,
			Y: top + ascent,
		}
		d.DrawString(line)
		top += fixed.I(c.LineHeight)
	}
	return lines
}
