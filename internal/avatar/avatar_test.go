package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/wckerala/framegen/internal/config"
	"github.com/wckerala/framegen/internal/imageload"
)

// fakeFetcher returns canned images by URL and records every request.
type fakeFetcher struct {
	mu       sync.Mutex
	images   map[string]image.Image
	requests []string
}

func (f *fakeFetcher) Load(_ context.Context, rawURL string) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, rawURL)
	if img, ok := f.images[rawURL]; ok {
		return img, nil
	}
	return nil, imageload.ErrNotFound
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"jane@example.com", true},
		{"  Jane.Doe@Example.co.in  ", true},
		{"a@b.c", true},
		{"", false},
		{"   ", false},
		{"jane.example.com", false},     // missing @
		{"jane@example", false},         // missing domain dot
		{"jane doe@example.com", false}, // whitespace
		{"jane@exa mple.com", false},    // whitespace in domain
		{"jane@@example.com", false},    // double @
		{"@example.com", false},         // empty local part
		{"jane@.com", false},            // empty domain label
	}

	for _, tc := range tests {
		t.Run(tc.email, func(t *testing.T) {
			if got := IsValidEmail(tc.email); got != tc.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tc.email, got, tc.want)
			}
		})
	}
}

func TestHash_NormalisesEmail(t *testing.T) {
	want := md5.Sum([]byte("jane@example.com"))
	wantHex := hex.EncodeToString(want[:])

	for _, in := range []string{"jane@example.com", "  JANE@Example.COM ", "Jane@example.com\n"} {
		if got := Hash(in); got != wantHex {
			t.Errorf("Hash(%q) = %s, want %s", in, got, wantHex)
		}
	}
}

func TestURLs(t *testing.T) {
	r := NewResolver(&fakeFetcher{})

	got := r.URL(" Jane@Example.com ")
	want := config.AvatarBaseURL + Hash("jane@example.com") + "?s=560&d=404"
	if got != want {
		t.Errorf("URL() = %s, want %s", got, want)
	}

	wantDefault := "https://secure.gravatar.com/avatar/" + strings.Repeat("0", 32) + "?s=560&d=mp"
	if got := r.DefaultURL(); got != wantDefault {
		t.Errorf("DefaultURL() = %s, want %s", got, wantDefault)
	}
}

func TestResolve_Priority(t *testing.T) {
	upload := solid(10, 10, color.RGBA{R: 255, A: 255})
	avatarImg := solid(560, 560, color.RGBA{G: 255, A: 255})
	defaultImg := solid(560, 560, color.RGBA{B: 255, A: 255})

	base := NewResolver(nil)
	avatarURL := base.URL("jane@example.com")
	defaultURL := base.DefaultURL()

	tests := []struct {
		name       string
		upload     image.Image
		email      string
		available  map[string]image.Image
		wantSource Source
		wantImage  image.Image
		wantFetch  []string
	}{
		{
			name:       "upload wins over valid email",
			upload:     upload,
			email:      "jane@example.com",
			available:  map[string]image.Image{avatarURL: avatarImg, defaultURL: defaultImg},
			wantSource: SourceUpload,
			wantImage:  upload,
			wantFetch:  nil,
		},
		{
			name:       "valid email uses avatar",
			email:      "jane@example.com",
			available:  map[string]image.Image{avatarURL: avatarImg, defaultURL: defaultImg},
			wantSource: SourceAvatar,
			wantImage:  avatarImg,
			wantFetch:  []string{avatarURL},
		},
		{
			name:       "missing avatar falls back to default",
			email:      "jane@example.com",
			available:  map[string]image.Image{defaultURL: defaultImg},
			wantSource: SourceDefault,
			wantImage:  defaultImg,
			wantFetch:  []string{avatarURL, defaultURL},
		},
		{
			name:       "invalid email skips lookup",
			email:      "jane at example",
			available:  map[string]image.Image{avatarURL: avatarImg, defaultURL: defaultImg},
			wantSource: SourceDefault,
			wantImage:  defaultImg,
			wantFetch:  []string{defaultURL},
		},
		{
			name:       "empty email uses default",
			available:  map[string]image.Image{defaultURL: defaultImg},
			wantSource: SourceDefault,
			wantImage:  defaultImg,
			wantFetch:  []string{defaultURL},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeFetcher{images: tc.available}
			r := NewResolver(f)

			got, err := r.Resolve(context.Background(), tc.upload, tc.email)
			if err != nil {
				t.Fatalf("Resolve() returned error: %v", err)
			}
			if got.Source != tc.wantSource {
				t.Errorf("Source = %s, want %s", got.Source, tc.wantSource)
			}
			if got.Image != tc.wantImage {
				t.Errorf("Resolve() returned unexpected image")
			}
			if strings.Join(f.requests, ",") != strings.Join(tc.wantFetch, ",") {
				t.Errorf("requests = %v, want %v", f.requests, tc.wantFetch)
			}
		})
	}
}

func TestResolve_PlaceholderWhenDefaultFails(t *testing.T) {
	r := NewResolver(&fakeFetcher{}, WithPlaceholderColor(color.NRGBA{R: 1, G: 2, B: 3, A: 255}))

	got, err := r.Resolve(context.Background(), nil, "jane@example.com")
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if got.Source != SourcePlaceholder {
		t.Fatalf("Source = %s, want placeholder", got.Source)
	}
	b := got.Image.Bounds()
	if b.Dx() != config.PhotoWidth || b.Dy() != config.PhotoHeight {
		t.Errorf("placeholder bounds = %v, want %dx%d", b, config.PhotoWidth, config.PhotoHeight)
	}
	cr, cg, cb, _ := got.Image.At(b.Min.X+5, b.Min.Y+5).RGBA()
	if cr>>8 != 1 || cg>>8 != 2 || cb>>8 != 3 {
		t.Errorf("placeholder colour = (%d, %d, %d), want (1, 2, 3)", cr>>8, cg>>8, cb>>8)
	}
}

type cancelFetcher struct{}

func (cancelFetcher) Load(ctx context.Context, _ string) (image.Image, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(cancelFetcher{}).Resolve(ctx, nil, "jane@example.com")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestDecodeUpload_Invalid(t *testing.T) {
	if _, err := DecodeUpload(strings.NewReader("not an image")); err == nil {
		t.Error("DecodeUpload() expected error for garbage input")
	}
}
