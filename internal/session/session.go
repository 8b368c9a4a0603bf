// Package session owns the per-user poster state and turns user events into
// full re-renders.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/wckerala/framegen/internal/avatar"
	"github.com/wckerala/framegen/internal/frames"
	"github.com/wckerala/framegen/internal/renderer"
	"github.com/wckerala/framegen/internal/share"
)

var (
	// ErrNoFrame means no frame has been selected yet; nothing was drawn.
	ErrNoFrame = errors.New("no frame selected")

	// ErrStale means a newer render was requested while this one was in
	// flight; its pixels were discarded.
	ErrStale = errors.New("render superseded")
)

// Fields are the text inputs of the form.
type Fields struct {
	Name    string
	Company string
	Email   string
}

// State is everything a render depends on.
type State struct {
	Upload image.Image // decoded user upload, nil when cleared
	Frame  *frames.Frame
	Fields Fields
}

// Result is one committed render.
type Result struct {
	Image      *image.RGBA
	Source     avatar.Source
	Layout     renderer.Layout
	Generation uint64
	// PNG and DataURL hold the encoded preview.
	PNG     []byte
	DataURL string
}

// Resolver picks the photo for a render.
type Resolver interface {
	Resolve(ctx context.Context, upload image.Image, email string) (avatar.Resolved, error)
}

// Controller owns a session's State. Its methods are safe for concurrent use.
type Controller struct {
	resolver   Resolver
	compositor *renderer.Compositor
	catalog    *frames.Catalog
	logger     *slog.Logger

	mu       sync.Mutex
	state    State
	latest   *Result
	handlers map[Event]Handler
	exporter *share.Adapter

	generation atomic.Uint64
}

// New creates a Controller with the default event table registered.
func New(resolver Resolver, compositor *renderer.Compositor, catalog *frames.Catalog, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		resolver:   resolver,
		compositor: compositor,
		catalog:    catalog,
		logger:     logger,
		handlers:   make(map[Event]Handler),
	}
	registerDefaults(c)
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Update mutates the state under the controller lock.
func (c *Controller) Update(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}

// Catalog returns the frame catalog the controller selects from.
func (c *Controller) Catalog() *frames.Catalog {
	return c.catalog
}

// SelectFrame makes the named frame active.
func (c *Controller) SelectFrame(key string) error {
	f, err := c.catalog.Lookup(key)
	if err != nil {
		return err
	}
	c.Update(func(s *State) { s.Frame = f })
	return nil
}

// Latest returns the most recently committed render, or nil.
func (c *Controller) Latest() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Render redraws the poster from scratch. It returns ErrNoFrame when no frame
// is selected and ErrStale when a newer Render started before this one
// finished; in both cases the last committed result is left untouched.
func (c *Controller) Render(ctx context.Context) (*Result, error) {
	gen := c.generation.Add(1)
	st := c.State()
	if st.Frame == nil {
		return nil, ErrNoFrame
	}

	resolved, err := c.resolver.Resolve(ctx, st.Upload, st.Fields.Email)
	if err != nil {
		return nil, fmt.Errorf("resolving photo: %w", err)
	}
	if c.generation.Load() != gen {
		return nil, ErrStale
	}

	img, layout := c.compositor.Compose(resolved.Image, st.Frame.Image, st.Fields.Name, st.Fields.Company)
	data, err := renderer.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Image:      img,
		Source:     resolved.Source,
		Layout:     layout,
		Generation: gen,
		PNG:        data,
		DataURL:    renderer.DataURL("image/png", data),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation.Load() != gen {
		return nil, ErrStale
	}
	c.latest = res
	c.logger.Debug("render committed", "generation", gen, "frame", st.Frame.Name, "source", resolved.Source)
	return res, nil
}
