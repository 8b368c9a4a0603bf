// Package share exports the finished poster: as a downloadable PNG, through a
// native share sheet, or as a panel of social-network fallback links.
package share

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/wckerala/framegen/internal/config"
	"github.com/wckerala/framegen/internal/renderer"
)

// Artifact is an encoded poster ready to be saved.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DataURL returns the artifact as an "image/octet-stream" data URL, which a
// browser saves instead of displaying.
func (a Artifact) DataURL() string {
	return renderer.DataURL("image/octet-stream", a.Data)
}

// Download encodes img as the PNG download artifact.
func Download(img image.Image) (Artifact, error) {
	data, err := renderer.EncodePNG(img)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Filename:    config.DownloadFilename,
		ContentType: "image/png",
		Data:        data,
	}, nil
}

// File is a named blob handed to a native share sheet.
type File struct {
	Name string
	Type string
	Data []byte
}

// Payload is what a native share sheet receives.
type Payload struct {
	Files []File
	Title string
	Text  string
	URL   string
}

// NativeSharer is a platform share capability.
type NativeSharer interface {
	// CanShare reports whether files can be shared on this platform.
	CanShare() bool
	Share(ctx context.Context, p Payload) error
}

// Mode says which share path was taken.
type Mode string

const (
	ModeNative   Mode = "native"
	ModeFallback Mode = "fallback"
)

// Outcome describes a Share call.
type Outcome struct {
	Mode Mode
	// Err is the native share failure, if any. It has already been logged.
	Err error
	// Links and QR are set for ModeFallback.
	Links []config.ShareLink
	QR    []byte // PNG of a QR code for the event URL
}

// Adapter shares posters.
type Adapter struct {
	native NativeSharer
	links  []config.ShareLink
	title  string
	text   string
	url    string
	logger *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithNative sets the platform share capability.
func WithNative(n NativeSharer) Option {
	return func(a *Adapter) { a.native = n }
}

// WithLinks replaces the fallback link templates.
func WithLinks(links []config.ShareLink) Option {
	return func(a *Adapter) { a.links = links }
}

// WithMeta sets the title, text and url passed to the native share sheet.
func WithMeta(title, text, url string) Option {
	return func(a *Adapter) { a.title, a.text, a.url = title, text, url }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter creates an Adapter with the stock event metadata and links.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		links:  config.DefaultShareLinks(),
		title:  config.ShareTitle,
		text:   config.ShareText,
		url:    config.ShareURL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Share shares img natively when possible, otherwise it prepares the
// fallback link panel. A native failure is logged only; there is no retry.
func (a *Adapter) Share(ctx context.Context, img image.Image) (Outcome, error) {
	data, err := renderer.EncodePNG(img)
	if err != nil {
		return Outcome{}, err
	}

	if a.native != nil && a.native.CanShare() {
		p := Payload{
			Files: []File{{Name: config.DownloadFilename, Type: "image/png", Data: data}},
			Title: a.title,
			Text:  a.text,
			URL:   a.url,
		}
		if err := a.native.Share(ctx, p); err != nil {
			a.logger.Error("share failed", "error", err)
			return Outcome{Mode: ModeNative, Err: err}, nil
		}
		a.logger.Info("share was successful")
		return Outcome{Mode: ModeNative}, nil
	}

	qr, err := QRCode(a.url, config.QRSize)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Mode:  ModeFallback,
		Links: FallbackLinks(a.links, renderer.DataURL("image/png", data)),
		QR:    qr,
	}, nil
}

// Recognized reports whether label names a service whose link template
// takes the image URL.
func Recognized(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "facebook", "twitter", "linkedin":
		return true
	}
	return false
}

// FallbackLinks substitutes the percent-encoded image URL for the first URL
// token in each recognized link. Other links are returned unchanged.
func FallbackLinks(templates []config.ShareLink, imageURL string) []config.ShareLink {
	encoded := EncodeURIComponent(imageURL)
	out := make([]config.ShareLink, len(templates))
	for i, l := range templates {
		out[i] = l
		if Recognized(l.Label) {
			out[i].Href = strings.Replace(l.Href, config.ShareURLToken, encoded, 1)
		}
	}
	return out
}

// EncodeURIComponent percent-encodes s for use inside a URL component,
// leaving only A-Z a-z 0-9 - _ . ! ~ * ' ( ) unescaped.
func EncodeURIComponent(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	for _, keep := range []string{"!", "*", "'", "(", ")"} {
		e = strings.ReplaceAll(e, url.QueryEscape(keep), keep)
	}
	return e
}

// QRCode returns a PNG QR code for text.
func QRCode(text string, size int) ([]byte, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}
	return png, nil
}
