package imageload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoad_HTTP(t *testing.T) {
	data := encodeTestPNG(t, 40, 30)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "" || r.Header.Get("Authorization") != "" {
			t.Errorf("request carried credentials: %v", r.Header)
		}
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(data)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := New(WithHTTPClient(srv.Client()))

	img, err := l.Load(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("decoded bounds = %v, want 40x30", b)
	}

	_, err = l.Load(context.Background(), srv.URL+"/missing.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}

	_, err = l.Load(context.Background(), srv.URL+"/broken")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Load(broken) error = %v, want status error", err)
	}
}

func TestLoad_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	l := New(WithHTTPClient(srv.Client()), WithTimeout(50*time.Millisecond))
	start := time.Now()
	if _, err := l.Load(context.Background(), srv.URL+"/slow.png"); err == nil {
		t.Fatal("Load() expected timeout error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Load() took %v, timeout not applied", elapsed)
	}
}

func TestLoad_Embed(t *testing.T) {
	assets := fstest.MapFS{
		"assets/frames/a.png": &fstest.MapFile{Data: encodeTestPNG(t, 8, 8)},
	}
	l := New(WithAssets(assets))

	if _, err := l.Load(context.Background(), "embed:///assets/frames/a.png"); err != nil {
		t.Fatalf("Load(embed) returned error: %v", err)
	}

	_, err := l.Load(context.Background(), "embed:///assets/frames/missing.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(embed missing) error = %v, want ErrNotFound", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, encodeTestPNG(t, 12, 20), 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := New().Load(context.Background(), "file://"+filepath.ToSlash(path))
	if err != nil {
		t.Fatalf("Load(file) returned error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 20 {
		t.Errorf("decoded bounds = %v, want 12x20", b)
	}
}

func TestLoad_Errors(t *testing.T) {
	l := New()
	tests := []struct {
		name string
		url  string
	}{
		{name: "unsupported scheme", url: "ftp://example.com/a.png"},
		{name: "embed without assets", url: "embed:///a.png"},
		{name: "unparsable url", url: "http://[::1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := l.Load(context.Background(), tc.url); err == nil {
				t.Errorf("Load(%q) expected error, got nil", tc.url)
			}
		})
	}
}

func TestDecode_NotAnImage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("definitely not an image"))); err == nil {
		t.Error("Decode() expected error for garbage input")
	}
}
