package renderer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wckerala/framegen/internal/config"
	"github.com/wckerala/framegen/internal/frames"
	"github.com/wckerala/framegen/internal/imageload"
)

// createTestImage creates a gradient so crops and scaling are observable.
func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8(float64(x) / float64(width) * 255)
			g := uint8(float64(y) / float64(height) * 255)
			b := uint8((float64(x+y) / float64(width+height)) * 255)
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}

func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// testFrame is opaque except for a transparent photo window.
func testFrame() *image.RGBA {
	img := solidImage(config.Width, config.Height, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	for y := config.PhotoY; y < config.PhotoY+config.PhotoHeight; y++ {
		for x := config.PhotoX; x < config.PhotoX+config.PhotoWidth; x++ {
			img.SetRGBA(x, y, color.RGBA{})
		}
	}
	return img
}

func newTestCompositor(t testing.TB) *Compositor {
	t.Helper()
	c, err := NewCompositor(Options{})
	if err != nil {
		t.Fatalf("NewCompositor() returned error: %v", err)
	}
	return c
}

func TestCropRect(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		want   image.Rectangle
	}{
		{
			name:   "wider than tall keeps full height",
			bounds: image.Rect(0, 0, 1000, 600),
			want:   image.Rect(200, 0, 800, 600),
		},
		{
			name:   "taller than wide keeps full width",
			bounds: image.Rect(0, 0, 400, 1000),
			want:   image.Rect(0, 300, 400, 700),
		},
		{
			name:   "square is untouched",
			bounds: image.Rect(0, 0, 560, 560),
			want:   image.Rect(0, 0, 560, 560),
		},
		{
			name:   "non-zero origin",
			bounds: image.Rect(10, 20, 310, 120),
			want:   image.Rect(110, 20, 210, 120),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CropRect(tc.bounds, config.PhotoWidth, config.PhotoHeight)
			if got != tc.want {
				t.Errorf("CropRect(%v) = %v, want %v", tc.bounds, got, tc.want)
			}
			if got.Dx() != got.Dy() {
				t.Errorf("crop %v is not square", got)
			}
			// Centred: equal margins on both sides of the cropped axis
			left, right := got.Min.X-tc.bounds.Min.X, tc.bounds.Max.X-got.Max.X
			top, bottom := got.Min.Y-tc.bounds.Min.Y, tc.bounds.Max.Y-got.Max.Y
			if left != right || top != bottom {
				t.Errorf("crop %v not centred in %v", got, tc.bounds)
			}
		})
	}
}

// fixedMeasure treats every rune as 10 pixels wide.
func fixedMeasure(s string) int { return 10 * len([]rune(s)) }

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		want     []string
	}{
		{
			name:     "fits on one line",
			text:     "Jane Doe",
			maxWidth: 560,
			want:     []string{"Jane Doe"},
		},
		{
			name:     "breaks at word boundaries",
			text:     "Alice Wonderland Extra Long Company Name",
			maxWidth: 200,
			want:     []string{"Alice Wonderland", "Extra Long Company", "Name"},
		},
		{
			name:     "single long word overflows alone",
			text:     "Supercalifragilistic Inc",
			maxWidth: 100,
			want:     []string{"Supercalifragilistic", "Inc"},
		},
		{
			name:     "extra whitespace collapses",
			text:     "  Acme   Inc  ",
			maxWidth: 560,
			want:     []string{"Acme Inc"},
		},
		{
			name:     "empty text draws nothing",
			text:     "",
			maxWidth: 560,
			want:     nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := WrapText(tc.text, tc.maxWidth, fixedMeasure)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
				t.Errorf("WrapText(%q, %d) = %q, want %q", tc.text, tc.maxWidth, got, tc.want)
			}
		})
	}
}

// TestWrapText_RealFont checks the wrap invariants with the caption font:
// no word is split and no multi-word line exceeds the maximum width.
func TestWrapText_RealFont(t *testing.T) {
	c := newTestCompositor(t)
	text := "Alice Wonderland Extra Long Company Name"
	maxWidth := 300

	lines := WrapText(text, maxWidth, func(s string) int { return measureText(c.nameFace, s) })
	if len(lines) < 2 {
		t.Fatalf("expected a break, got %q", lines)
	}

	if got := strings.Join(lines, " "); got != text {
		t.Errorf("rejoined lines = %q, want %q", got, text)
	}
	for _, line := range lines {
		if w := measureText(c.nameFace, line); w > maxWidth && strings.Contains(line, " ") {
			t.Errorf("line %q is %dpx wide, max %d", line, w, maxWidth)
		}
	}
}

func TestCompose_Layers(t *testing.T) {
	c := newTestCompositor(t)
	photo := solidImage(800, 600, color.RGBA{R: 200, A: 255})

	img, layout := c.Compose(photo, testFrame(), "", "")

	if img.Bounds() != image.Rect(0, 0, config.Width, config.Height) {
		t.Fatalf("canvas bounds = %v", img.Bounds())
	}
	if layout.Crop != image.Rect(100, 0, 700, 600) {
		t.Errorf("crop = %v, want (100,0)-(700,600)", layout.Crop)
	}

	// Photo shows through the frame window
	if got := img.RGBAAt(config.PhotoX+280, config.PhotoY+280); got != (color.RGBA{R: 200, A: 255}) {
		t.Errorf("photo centre = %v, want red photo", got)
	}
	// Frame covers everything else
	if got := img.RGBAAt(10, 10); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("frame corner = %v, want white frame", got)
	}
}

func TestCompose_NilPhotoLeavesWindowClear(t *testing.T) {
	c := newTestCompositor(t)
	img, _ := c.Compose(nil, testFrame(), "", "")

	if got := img.RGBAAt(config.PhotoX+10, config.PhotoY+10); got.A != 0 {
		t.Errorf("window pixel = %v, want transparent", got)
	}
}

func TestCompose_Captions(t *testing.T) {
	c := newTestCompositor(t)
	white := solidImage(config.Width, config.Height, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	img, layout := c.Compose(nil, white, "Jane Doe", "Acme Inc")

	if len(layout.NameLines) != 1 || layout.NameLines[0] != "Jane Doe" {
		t.Errorf("name lines = %q", layout.NameLines)
	}
	if len(layout.CompanyLines) != 1 || layout.CompanyLines[0] != "Acme Inc" {
		t.Errorf("company lines = %q", layout.CompanyLines)
	}

	nameBand := image.Rect(config.PhotoX, config.NameY, config.PhotoX+config.PhotoWidth, config.NameY+config.CaptionLineHeight)
	companyBand := image.Rect(config.PhotoX, config.CompanyY, config.PhotoX+config.PhotoWidth, config.CompanyY+config.CaptionLineHeight)
	if n := darkPixels(img, nameBand); n == 0 {
		t.Error("no caption pixels in the name band")
	}
	if n := darkPixels(img, companyBand); n == 0 {
		t.Error("no caption pixels in the company band")
	}

	// Text stays centred on the photo region
	left := image.Rect(0, config.NameY, config.PhotoX-40, config.CompanyY+config.CaptionLineHeight)
	if n := darkPixels(img, left); n != 0 {
		t.Errorf("%d caption pixels left of the photo region", n)
	}
}

func TestCompose_WrappedNameAdvancesLines(t *testing.T) {
	c := newTestCompositor(t)
	_, layout := c.Compose(nil, nil, "Alice Wonderland Extra Long Company Name Goes Here", "")

	if len(layout.NameLines) < 2 {
		t.Fatalf("expected wrapped name, got %q", layout.NameLines)
	}
	for _, line := range layout.NameLines {
		if w := measureText(c.nameFace, line); w > config.CaptionMaxWidth && strings.Contains(line, " ") {
			t.Errorf("line %q is %dpx wide", line, w)
		}
	}
}

// TestCompose_Idempotent verifies repeated renders produce identical pixels.
func TestCompose_Idempotent(t *testing.T) {
	c := newTestCompositor(t)
	photo := createTestImage(1200, 900)
	frame := testFrame()

	first, _ := c.Compose(photo, frame, "Jane Doe", "Acme Inc")

	// Reuse a dirty canvas to prove the clear step
	second := solidImage(config.Width, config.Height, color.RGBA{G: 99, A: 255})
	c.ComposeInto(second, photo, frame, "Jane Doe", "Acme Inc")

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Fatal("second render differs from the first")
	}

	a, err := EncodePNG(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodePNG(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("encoded PNGs differ")
	}
}

func TestDataURL(t *testing.T) {
	got := DataURL("image/png", []byte{0x89, 'P', 'N', 'G'})
	if got != "data:image/png;base64,iVBORw==" {
		t.Errorf("DataURL() = %s", got)
	}
}

// TestGenerateSamplePoster renders every shipped frame for visual review.
func TestGenerateSamplePoster(t *testing.T) {
	c := newTestCompositor(t)
	loader := imageload.New(imageload.WithAssets(frames.Assets()))
	catalog, err := frames.Load(context.Background(), loader, config.DefaultAssetBase, nil)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	photo := createTestImage(900, 1200)
	for _, f := range catalog.Visible() {
		t.Run(f.Name, func(t *testing.T) {
			img, _ := c.Compose(photo, f.Image, "Jane Doe", "Acme Inc")
			data, err := EncodePNG(img)
			if err != nil {
				t.Fatalf("failed to encode poster: %v", err)
			}
			out := filepath.Join(dir, f.Name+".png")
			if err := os.WriteFile(out, data, 0o644); err != nil {
				t.Fatal(err)
			}
			t.Logf("✓ Generated sample poster: %s", out)
		})
	}
}

func darkPixels(img *image.RGBA, r image.Rectangle) int {
	n := 0
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := img.RGBAAt(x, y)
			if p.A > 0 && p.R < 128 && p.G < 128 && p.B < 128 {
				n++
			}
		}
	}
	return n
}
