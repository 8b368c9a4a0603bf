// Package imageload fetches and decodes images addressed by URL.
//
// Supported schemes:
//   - http, https: anonymous GET (no cookies, no credentials)
//   - embed: a path inside the FS given to the Loader
//   - file: a path on the local filesystem
package imageload

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// ErrNotFound is returned when the remote service answers 404 or an
// embedded/local asset does not exist.
var ErrNotFound = errors.New("image not found")

// Loader loads images from URLs.
type Loader struct {
	client  *http.Client
	assets  fs.FS
	timeout time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for http and https URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithAssets sets the filesystem served by the embed scheme.
func WithAssets(assets fs.FS) Option {
	return func(l *Loader) { l.assets = assets }
}

// WithTimeout bounds each Load call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{client: &http.Client{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches rawURL and decodes it into an image.
func (l *Loader) Load(ctx context.Context, rawURL string) (image.Image, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing image url: %w", err)
	}

	rc, err := l.open(ctx, u)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", rawURL, err)
	}
	return img, nil
}

func (l *Loader) open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	switch u.Scheme {
	case "http", "https":
		return l.openHTTP(ctx, u)
	case "embed":
		if l.assets == nil {
			return nil, fmt.Errorf("no embedded assets for %s", u)
		}
		f, err := l.assets.Open(strings.TrimPrefix(u.Path, "/"))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w", u, ErrNotFound)
			}
			return nil, err
		}
		return f, nil
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w", u, ErrNotFound)
			}
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported image url scheme %q", u.Scheme)
	}
}

func (l *Loader) openHTTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u.Redacted(), err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", u.Redacted(), ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	}
	return resp.Body, nil
}

// Decode decodes an image honouring EXIF orientation, which phone uploads
// rely on.
func Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}
