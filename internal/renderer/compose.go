package renderer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/wckerala/framegen/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// Options configures a Compositor.
type Options struct {
	NameFont    string // TrueType path; empty uses the built-in bold font
	CompanyFont string // TrueType path; empty uses the built-in regular font
	TextColor   color.Color
}

// Compositor draws the poster: cropped photo, frame overlay and captions.
type Compositor struct {
	// truetype faces cache glyphs and are not safe for concurrent use
	mu          sync.Mutex
	nameFace    font.Face
	companyFace font.Face
	textColor   color.Color
}

// NewCompositor parses the caption fonts.
func NewCompositor(opts Options) (*Compositor, error) {
	nameFont, err := ParseFont(opts.NameFont, BoldFont())
	if err != nil {
		return nil, fmt.Errorf("name font: %w", err)
	}
	companyFont, err := ParseFont(opts.CompanyFont, RegularFont())
	if err != nil {
		return nil, fmt.Errorf("company font: %w", err)
	}
	return newCompositor(nameFont, companyFont, opts.TextColor), nil
}

func newCompositor(nameFont, companyFont *truetype.Font, textColor color.Color) *Compositor {
	if textColor == nil {
		textColor = color.RGBA{R: config.CaptionColorR, G: config.CaptionColorG, B: config.CaptionColorB, A: 255}
	}
	return &Compositor{
		nameFace:    newFace(nameFont, config.NameFontSize),
		companyFace: newFace(companyFont, config.CompanyFontSize),
		textColor:   textColor,
	}
}

// Layout reports where text was placed during a Compose call.
type Layout struct {
	NameLines    []string
	CompanyLines []string
	Crop         image.Rectangle // region of the photo that was used
}

// Compose renders a fresh canvas.
func (c *Compositor) Compose(photo, frame image.Image, name, company string) (*image.RGBA, Layout) {
	dst := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
	layout := c.ComposeInto(dst, photo, frame, name, company)
	return dst, layout
}

// ComposeInto clears dst and redraws the whole poster onto it. dst must be
// config.Width x config.Height. Output depends only on the inputs.
func (c *Compositor) ComposeInto(dst *image.RGBA, photo, frame image.Image, name, company string) Layout {
	var layout Layout

	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)

	if photo != nil && !photo.Bounds().Empty() {
		layout.Crop = CropRect(photo.Bounds(), config.PhotoWidth, config.PhotoHeight)
		target := image.Rect(config.PhotoX, config.PhotoY, config.PhotoX+config.PhotoWidth, config.PhotoY+config.PhotoHeight)
		draw.CatmullRom.Scale(dst, target, photo, layout.Crop, draw.Src, nil)
	}

	if frame != nil {
		drawFrame(dst, frame)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	layout.NameLines = drawCaption(dst, Caption{
		Text:       name,
		Face:       c.nameFace,
		Color:      c.textColor,
		CenterX:    config.CaptionCenterX,
		Top:        config.NameY,
		MaxWidth:   config.CaptionMaxWidth,
		LineHeight: config.CaptionLineHeight,
	})
	layout.CompanyLines = drawCaption(dst, Caption{
		Text:       company,
		Face:       c.companyFace,
		Color:      c.textColor,
		CenterX:    config.CaptionCenterX,
		Top:        config.CompanyY,
		MaxWidth:   config.CaptionMaxWidth,
		LineHeight: config.CaptionLineHeight,
	})

	return layout
}

// drawFrame stretches the frame over the whole canvas on top of the photo.
func drawFrame(dst *image.RGBA, frame image.Image) {
	fb := frame.Bounds()
	if fb.Dx() == dst.Bounds().Dx() && fb.Dy() == dst.Bounds().Dy() {
		draw.Draw(dst, dst.Bounds(), frame, fb.Min, draw.Over)
		return
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), frame, fb, draw.Over, nil)
}

// CropRect returns the largest rectangle of aspect targetW:targetH centred in
// b. A source wider than the target keeps its full height; a taller one keeps
// its full width.
func CropRect(b image.Rectangle, targetW, targetH int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w*targetH > h*targetW {
		cw := h * targetW / targetH
		x := b.Min.X + (w-cw)/2
		return image.Rect(x, b.Min.Y, x+cw, b.Max.Y)
	}
	ch := w * targetH / targetW
	y := b.Min.Y + (h-ch)/2
	return image.Rect(b.Min.X, y, b.Max.X, y+ch)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL returns data as a base64 data URL of the given MIME type.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
