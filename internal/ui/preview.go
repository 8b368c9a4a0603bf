package ui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// PreviewConfig holds configuration for the poster preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig returns a preview that looks square: terminal cells
// are roughly twice as tall as they are wide.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  48,
		Height: 24,
	}
}

// FitPreviewConfig shrinks the default preview to fit a terminal of the given
// size, keeping the 2:1 cell ratio.
func FitPreviewConfig(termWidth, termHeight int) PreviewConfig {
	cfg := DefaultPreviewConfig()
	if termWidth <= 0 || termHeight <= 0 {
		return cfg
	}
	// Leave room for the border and the form beside the preview
	maxW := (termWidth - 50) &^ 1
	maxH := termHeight - 6
	if maxW < cfg.Width {
		cfg.Width = maxW
	}
	if maxH*2 < cfg.Width {
		cfg.Width = maxH * 2
	}
	if cfg.Width < 8 {
		cfg.Width = 8
	}
	cfg.Height = cfg.Width / 2
	return cfg
}

// DownsampleFrame reduces a full-resolution poster to preview size. Each
// terminal cell is the average of the source region it covers, composited
// over white so transparent pixels read as paper.
func DownsampleFrame(frame *image.RGBA, config PreviewConfig) [][]color.RGBA {
	bounds := frame.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if config.Width <= 0 || config.Height <= 0 || srcWidth == 0 || srcHeight == 0 {
		return nil
	}

	preview := make([][]color.RGBA, config.Height)
	for row := 0; row < config.Height; row++ {
		preview[row] = make([]color.RGBA, config.Width)
		y0 := row * srcHeight / config.Height
		y1 := (row + 1) * srcHeight / config.Height
		for col := 0; col < config.Width; col++ {
			x0 := col * srcWidth / config.Width
			x1 := (col + 1) * srcWidth / config.Width

			var sumR, sumG, sumB, n uint32
			for y := y0; y < y1; y++ {
				off := frame.PixOffset(bounds.Min.X+x0, bounds.Min.Y+y)
				for x := x0; x < x1; x++ {
					// Premultiplied, so adding (255 - a) lays the pixel over white
					pr, pg, pb, pa := frame.Pix[off], frame.Pix[off+1], frame.Pix[off+2], frame.Pix[off+3]
					sumR += uint32(pr) + 255 - uint32(pa)
					sumG += uint32(pg) + 255 - uint32(pa)
					sumB += uint32(pb) + 255 - uint32(pa)
					n++
					off += 4
				}
			}

			if n > 0 {
				preview[row][col] = color.RGBA{
					R: uint8(sumR / n),
					G: uint8(sumG / n),
					B: uint8(sumB / n),
					A: 255,
				}
			}
		}
	}

	return preview
}

// RenderPreview converts a preview grid to a string using ANSI 24-bit
// background colours, one space per cell.
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	width := len(preview[0])
	var b strings.Builder

	b.WriteString("┌" + strings.Repeat("─", width) + "┐\n")
	for _, row := range preview {
		b.WriteString("│")
		for _, pixel := range row {
			fmt.Fprintf(&b, "\x1b[48;2;%d;%d;%dm \x1b[0m", pixel.R, pixel.G, pixel.B)
		}
		b.WriteString("│\n")
	}
	b.WriteString("└" + strings.Repeat("─", width) + "┘")

	return b.String()
}

// qrCells is the width of the QR preview in terminal cells.
const qrCells = 40

// qrPreview renders a QR code PNG as black and white cells.
func qrPreview(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding QR code: %w", err)
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)

	cells := DownsampleFrame(rgba, PreviewConfig{Width: qrCells, Height: qrCells / 2})
	for _, row := range cells {
		for i, c := range row {
			if int(c.R)+int(c.G)+int(c.B) < 3*128 {
				row[i] = color.RGBA{A: 255}
			} else {
				row[i] = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
		}
	}
	return RenderPreview(cells), nil
}
