// Package avatar decides which photo goes into the frame: an uploaded
// image, the Gravatar for the user's email, or the universal default.
package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/wckerala/framegen/internal/config"
	"github.com/wckerala/framegen/internal/imageload"
)

// Source identifies which branch of the fallback chain produced an image.
type Source string

const (
	SourceUpload      Source = "upload"
	SourceAvatar      Source = "avatar"
	SourceDefault     Source = "default"
	SourcePlaceholder Source = "placeholder"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether the trimmed email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && emailPattern.MatchString(email)
}

// Hash returns the hex MD5 digest of the trimmed, lowercased email, which is
// the key the avatar service expects.
func Hash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Fetcher loads an image by URL.
type Fetcher interface {
	Load(ctx context.Context, rawURL string) (image.Image, error)
}

// Resolved is the image chosen for compositing.
type Resolved struct {
	Image  image.Image
	Source Source
	URL    string // empty for uploads and placeholders
}

// Resolver resolves the photo with priority upload > avatar > default.
type Resolver struct {
	fetch       Fetcher
	baseURL     string
	placeholder color.Color
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL overrides the avatar service base URL (must end with '/').
func WithBaseURL(base string) Option {
	return func(r *Resolver) { r.baseURL = base }
}

// WithPlaceholderColor sets the colour of the last-resort placeholder.
func WithPlaceholderColor(c color.Color) Option {
	return func(r *Resolver) { r.placeholder = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver that loads remote images through fetch.
func NewResolver(fetch Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetch:   fetch,
		baseURL: config.AvatarBaseURL,
		placeholder: color.NRGBA{
			R: config.PlaceholderColorR,
			G: config.PlaceholderColorG,
			B: config.PlaceholderColorB,
			A: 255,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// URL returns the avatar lookup URL for email. The service is asked to
// answer 404 when no avatar exists so the default fallback can take over.
func (r *Resolver) URL(email string) string {
	return r.build(Hash(email), config.AvatarProbeMode)
}

// DefaultURL returns the universal default avatar URL.
func (r *Resolver) DefaultURL() string {
	return r.build(config.AvatarDefaultHash, config.AvatarDefaultMode)
}

func (r *Resolver) build(hash, mode string) string {
	return r.baseURL + hash + "?s=" + strconv.Itoa(config.AvatarSize) + "&d=" + url.QueryEscape(mode)
}

// Resolve picks the image to composite. It never returns a nil image unless
// ctx is cancelled: when every remote load fails a solid placeholder is used.
func (r *Resolver) Resolve(ctx context.Context, upload image.Image, email string) (Resolved, error) {
	if upload != nil {
		return Resolved{Image: upload, Source: SourceUpload}, nil
	}

	if IsValidEmail(email) {
		u := r.URL(email)
		img, err := r.fetch.Load(ctx, u)
		if err == nil {
			return Resolved{Image: img, Source: SourceAvatar, URL: u}, nil
		}
		if ctx.Err() != nil {
			return Resolved{}, ctx.Err()
		}
		r.logger.Debug("avatar lookup failed, using default", "error", err)
	}

	u := r.DefaultURL()
	img, err := r.fetch.Load(ctx, u)
	if err == nil {
		return Resolved{Image: img, Source: SourceDefault, URL: u}, nil
	}
	if ctx.Err() != nil {
		return Resolved{}, ctx.Err()
	}
	r.logger.Warn("default avatar unavailable, using placeholder", "url", u, "error", err)

	return Resolved{Image: r.Placeholder(), Source: SourcePlaceholder}, nil
}

// Placeholder returns a solid square the size of the photo region.
func (r *Resolver) Placeholder() image.Image {
	return imaging.New(config.PhotoWidth, config.PhotoHeight, r.placeholder)
}

// DecodeUpload decodes a user-supplied image file.
func DecodeUpload(rd io.Reader) (image.Image, error) {
	img, err := imageload.Decode(rd)
	if err != nil {
		return nil, fmt.Errorf("decoding upload: %w", err)
	}
	return img, nil
}
