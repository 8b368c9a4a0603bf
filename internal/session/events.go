package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/wckerala/framegen/internal/avatar"
	"github.com/wckerala/framegen/internal/share"
)

// Event names a user action.
type Event string

const (
	EventUpload      Event = "upload"
	EventClearUpload Event = "clear-upload"
	EventName        Event = "name"
	EventCompany     Event = "company"
	EventEmail       Event = "email"
	EventFrame       Event = "frame"
	EventDownload    Event = "download"
	EventShare       Event = "share"
)

// ErrNotRendered is returned by export events before anything was drawn.
var ErrNotRendered = errors.New("nothing rendered yet")

// Input carries the event payload.
type Input struct {
	Text string    // field value or frame key
	File io.Reader // upload contents
}

// Output is what a handler produced. Result is nil when the render was a
// no-op (no frame) or was superseded.
type Output struct {
	Result   *Result
	Artifact *share.Artifact
	Share    *share.Outcome
}

// Handler reacts to one event.
type Handler func(ctx context.Context, c *Controller, in Input) (Output, error)

// Handle registers h for event, replacing any previous handler.
func (c *Controller) Handle(event Event, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

// Dispatch runs the handler registered for event.
func (c *Controller) Dispatch(ctx context.Context, event Event, in Input) (Output, error) {
	c.mu.Lock()
	h, ok := c.handlers[event]
	c.mu.Unlock()
	if !ok {
		return Output{}, fmt.Errorf("no handler for event %q", event)
	}
	return h(ctx, c, in)
}

// Autofill pre-populates the form from query parameters and triggers the
// initial render, which is a no-op until a frame is chosen.
func (c *Controller) Autofill(ctx context.Context, q url.Values) (Output, error) {
	c.Update(func(s *State) {
		if v := q.Get("name"); v != "" {
			s.Fields.Name = v
		}
		if v := q.Get("company"); v != "" {
			s.Fields.Company = v
		}
		if v := q.Get("email"); v != "" {
			s.Fields.Email = v
		}
	})
	return c.rerender(ctx)
}

// SetExporter sets the adapter used by the download and share events.
func (c *Controller) SetExporter(a *share.Adapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exporter = a
}

// rerender renders and folds the expected no-op outcomes into a nil Result.
func (c *Controller) rerender(ctx context.Context) (Output, error) {
	res, err := c.Render(ctx)
	switch {
	case errors.Is(err, ErrNoFrame), errors.Is(err, ErrStale):
		return Output{}, nil
	case err != nil:
		return Output{}, err
	}
	return Output{Result: res}, nil
}

func setField(apply func(*Fields, string)) Handler {
	return func(ctx context.Context, c *Controller, in Input) (Output, error) {
		c.Update(func(s *State) { apply(&s.Fields, in.Text) })
		return c.rerender(ctx)
	}
}

func registerDefaults(c *Controller) {
	c.handlers[EventName] = setField(func(f *Fields, v string) { f.Name = v })
	c.handlers[EventCompany] = setField(func(f *Fields, v string) { f.Company = v })
	c.handlers[EventEmail] = setField(func(f *Fields, v string) { f.Email = v })

	c.handlers[EventUpload] = func(ctx context.Context, c *Controller, in Input) (Output, error) {
		if in.File == nil {
			return Output{}, errors.New("upload event without a file")
		}
		img, err := avatar.DecodeUpload(in.File)
		if err != nil {
			return Output{}, err
		}
		c.Update(func(s *State) { s.Upload = img })
		return c.rerender(ctx)
	}

	c.handlers[EventClearUpload] = func(ctx context.Context, c *Controller, _ Input) (Output, error) {
		c.Update(func(s *State) { s.Upload = nil })
		return c.rerender(ctx)
	}

	c.handlers[EventFrame] = func(ctx context.Context, c *Controller, in Input) (Output, error) {
		if err := c.SelectFrame(in.Text); err != nil {
			return Output{}, err
		}
		return c.rerender(ctx)
	}

	c.handlers[EventDownload] = func(_ context.Context, c *Controller, _ Input) (Output, error) {
		latest := c.Latest()
		if latest == nil {
			return Output{}, ErrNotRendered
		}
		a, err := share.Download(latest.Image)
		if err != nil {
			return Output{}, err
		}
		return Output{Artifact: &a}, nil
	}

	c.handlers[EventShare] = func(ctx context.Context, c *Controller, _ Input) (Output, error) {
		latest := c.Latest()
		if latest == nil {
			return Output{}, ErrNotRendered
		}
		c.mu.Lock()
		exporter := c.exporter
		c.mu.Unlock()
		if exporter == nil {
			exporter = share.NewAdapter(share.WithLogger(c.logger))
		}
		out, err := exporter.Share(ctx, latest.Image)
		if err != nil {
			return Output{}, err
		}
		return Output{Share: &out}, nil
	}
}
