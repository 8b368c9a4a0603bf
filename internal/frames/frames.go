// Package frames loads the fixed set of decorative frame overlays and tracks
// which of them can be offered to the user.
package frames

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/wckerala/framegen/internal/config"
)

//go:embed assets/frames/*.png
var embeddedAssets embed.FS

// Assets returns the built-in asset tree, rooted so that config.FramePaths
// resolve inside it.
func Assets() fs.FS {
	return embeddedAssets
}

// ErrUnknownFrame is returned by Lookup for names that are not selectable.
var ErrUnknownFrame = errors.New("unknown frame")

// Frame is one decorative overlay. Frames are immutable once loaded.
type Frame struct {
	Name   string      // e.g. "speaker-tag"
	URL    string      // absolute URL the frame was loaded from
	Image  image.Image // nil when Loaded is false
	Loaded bool
}

// Loader loads an image by absolute URL.
type Loader interface {
	Load(ctx context.Context, rawURL string) (image.Image, error)
}

// Catalog is the ordered set of frames.
type Catalog struct {
	frames []*Frame
}

// Name derives a frame name from its path: "assets/frames/speaker-tag.png"
// becomes "speaker-tag".
func Name(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

// ResolveURLs resolves the relative frame paths against base, so the result
// does not depend on how deep the base page sits.
func ResolveURLs(base *url.URL, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		ref, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("parsing frame path %q: %w", p, err)
		}
		out = append(out, base.ResolveReference(ref).String())
	}
	return out, nil
}

// Load loads every frame in config.FramePaths relative to base. Frames that
// fail to load are kept as not Loaded and are never offered; Load itself only
// fails when base cannot be used.
func Load(ctx context.Context, loader Loader, base string, logger *slog.Logger) (*Catalog, error) {
	return LoadPaths(ctx, loader, base, config.FramePaths, logger)
}

// LoadPaths is Load with an explicit path list.
func LoadPaths(ctx context.Context, loader Loader, base string, paths []string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing asset base: %w", err)
	}
	urls, err := ResolveURLs(baseURL, paths)
	if err != nil {
		return nil, err
	}

	c := &Catalog{frames: make([]*Frame, len(paths))}
	var wg sync.WaitGroup
	for i := range paths {
		c.frames[i] = &Frame{Name: Name(paths[i]), URL: urls[i]}
		wg.Add(1)
		go func(f *Frame) {
			defer wg.Done()
			img, err := loader.Load(ctx, f.URL)
			if err != nil {
				logger.Warn("frame unavailable", "frame", f.Name, "url", f.URL, "error", err)
				return
			}
			f.Image = img
			f.Loaded = true
		}(c.frames[i])
	}
	wg.Wait()

	return c, nil
}

// All returns every frame in order, loaded or not.
func (c *Catalog) All() []*Frame {
	out := make([]*Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// Visible returns the frames that loaded and can be selected, in order.
func (c *Catalog) Visible() []*Frame {
	var out []*Frame
	for _, f := range c.frames {
		if f.Loaded {
			out = append(out, f)
		}
	}
	return out
}

// Lookup finds a selectable frame by name or by its 1-based position among
// the visible frames, the same numbering Visible callers display.
func (c *Catalog) Lookup(key string) (*Frame, error) {
	key = strings.TrimSpace(key)
	visible := c.Visible()
	if n, err := strconv.Atoi(key); err == nil {
		if n >= 1 && n <= len(visible) {
			return visible[n-1], nil
		}
		return nil, fmt.Errorf("frame %s: %w", key, ErrUnknownFrame)
	}
	for _, f := range visible {
		if f.Name == key {
			return f, nil
		}
	}
	return nil, fmt.Errorf("frame %q: %w", key, ErrUnknownFrame)
}
