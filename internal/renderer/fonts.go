package renderer

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// ParseFont parses TrueType data from path, or fallback when path is empty.
func ParseFont(path string, fallback []byte) (*truetype.Font, error) {
	data := fallback
	if path != "" {
		custom, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading font %s: %w", path, err)
		}
		data = custom
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return f, nil
}

// BoldFont returns the built-in bold face used for the name caption.
func BoldFont() []byte { return gobold.TTF }

// RegularFont returns the built-in regular face used for the company caption.
func RegularFont() []byte { return goregular.TTF }

// newFace creates a face where one point equals one pixel.
func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
