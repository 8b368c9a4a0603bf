package server

import (
	"errors"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wckerala/framegen/internal/avatar"
	"github.com/wckerala/framegen/internal/config"
	"github.com/wckerala/framegen/internal/frames"
	"github.com/wckerala/framegen/internal/renderer"
	"github.com/wckerala/framegen/internal/session"
	"github.com/wckerala/framegen/internal/share"
)

const (
	minQRSize = 64
	maxQRSize = 1024
)

type frameView struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	URL   string `json:"url"`
}

func (s *Server) frameViews() []frameView {
	visible := s.catalog.Visible()
	out := make([]frameView, 0, len(visible))
	for i, f := range visible {
		out = append(out, frameView{Name: f.Name, Index: i + 1, URL: frameURL(f)})
	}
	return out
}

// frameURL points remote frames at their origin and embedded ones at the
// static asset route.
func frameURL(f *frames.Frame) string {
	if u, err := url.Parse(f.URL); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.URL
	}
	return "/assets/frames/" + f.Name + ".png"
}

func (s *Server) newSession() *session.Controller {
	ctl := session.New(s.resolver, s.compositor, s.catalog, s.logger)
	ctl.SetExporter(s.exporter)
	return ctl
}

// index pre-fills the form from the query and, when a frame is named,
// embeds the initial render.
func (s *Server) index(c *gin.Context) {
	q := c.Request.URL.Query()
	ctl := s.newSession()
	if key := q.Get("frame"); key != "" {
		if err := ctl.SelectFrame(key); err != nil {
			s.logger.Debug("ignoring frame from query", "frame", key, "error", err)
		}
	}
	out, err := ctl.Autofill(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
	}

	st := ctl.State()
	data := gin.H{
		"Title":   config.ShareTitle,
		"Name":    st.Fields.Name,
		"Company": st.Fields.Company,
		"Email":   st.Fields.Email,
		"Frame":   "",
		"Frames":  s.frameViews(),
	}
	if st.Frame != nil {
		data["Frame"] = st.Frame.Name
	}
	if out.Result != nil {
		data["Preview"] = template.URL(out.Result.DataURL)
	}
	c.HTML(http.StatusOK, "index", data)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "frames": len(s.catalog.Visible())})
}

func (s *Server) listFrames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"frames": s.frameViews()})
}

func fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// prepare builds a session from the submitted form and renders it once.
// On failure the error response has already been written.
func (s *Server) prepare(c *gin.Context) (*session.Controller, *session.Result, bool) {
	if err := s.parseForm(c); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		fail(c, status, err)
		return nil, nil, false
	}

	ctl := s.newSession()
	ctl.Update(func(st *session.State) {
		st.Fields = session.Fields{
			Name:    c.PostForm("name"),
			Company: c.PostForm("company"),
			Email:   c.PostForm("email"),
		}
	})

	key := c.PostForm("frame")
	if key == "" {
		fail(c, http.StatusBadRequest, session.ErrNoFrame)
		return nil, nil, false
	}
	if err := ctl.SelectFrame(key); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, frames.ErrUnknownFrame) {
			status = http.StatusNotFound
		}
		fail(c, status, err)
		return nil, nil, false
	}

	fh, err := c.FormFile("photo")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, err)
			return nil, nil, false
		}
		defer f.Close()
		img, err := avatar.DecodeUpload(f)
		if err != nil {
			fail(c, http.StatusBadRequest, err)
			return nil, nil, false
		}
		ctl.Update(func(st *session.State) { st.Upload = img })
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// No photo: the resolver falls back to the avatar
	default:
		fail(c, http.StatusBadRequest, err)
		return nil, nil, false
	}

	res, err := ctl.Render(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return nil, nil, false
	}
	return ctl, res, true
}

// parseForm reads the request body up front so that a body cut short by
// limitBody surfaces as an error instead of an empty form.
func (s *Server) parseForm(c *gin.Context) error {
	if err := c.Request.ParseForm(); err != nil {
		return err
	}
	if err := c.Request.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

func (s *Server) render(c *gin.Context) {
	ctl, res, ok := s.prepare(c)
	if !ok {
		return
	}
	c.Header("X-Photo-Source", string(res.Source))

	if c.Query("download") != "1" {
		c.Data(http.StatusOK, "image/png", res.PNG)
		return
	}

	out, err := ctl.Dispatch(c.Request.Context(), session.EventDownload, session.Input{})
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Artifact.Filename}))
	c.Data(http.StatusOK, out.Artifact.ContentType, out.Artifact.Data)
}

func (s *Server) share(c *gin.Context) {
	ctl, _, ok := s.prepare(c)
	if !ok {
		return
	}
	out, err := ctl.Dispatch(c.Request.Context(), session.EventShare, session.Input{})
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	resp := gin.H{"mode": out.Share.Mode}
	if out.Share.Mode == share.ModeFallback {
		resp["links"] = out.Share.Links
		resp["qr"] = renderer.DataURL("image/png", out.Share.QR)
	}
	c.JSON(http.StatusOK, resp)
}

// qr returns a PNG of a QR code for the "text" query parameter.
func (s *Server) qr(c *gin.Context) {
	text := c.DefaultQuery("text", config.ShareURL)
	size := config.QRSize
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minQRSize || n > maxQRSize {
			fail(c, http.StatusBadRequest, errors.New("size must be between 64 and 1024"))
			return
		}
		size = n
	}

	b, err := share.QRCode(text, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
