// Package ui is the interactive terminal front end: a form beside a live
// true-colour preview of the poster.
package ui

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wckerala/framegen/internal/cli"
	"github.com/wckerala/framegen/internal/frames"
	"github.com/wckerala/framegen/internal/session"
	"github.com/wckerala/framegen/internal/share"
)

// Form fields, in focus order.
const (
	fieldName = iota
	fieldCompany
	fieldEmail
	fieldPhoto
	fieldCount
)

// renderDoneMsg carries the outcome of a dispatched edit.
type renderDoneMsg struct {
	out session.Output
	err error
}

// savedMsg reports a finished download.
type savedMsg struct {
	path string
	size int64
	err  error
}

// sharedMsg reports a finished share. In fallback mode linksPath is the
// file the share links were written to.
type sharedMsg struct {
	outcome   *share.Outcome
	linksPath string
	err       error
}

// linksFilename holds the fallback share links, next to the saved poster.
const linksFilename = "share_links.txt"

// Options configures a Model.
type Options struct {
	Controller *session.Controller
	OutDir     string // where downloads are written
	Fields     session.Fields
	Frame      string // initial frame key, may be empty
}

// Model implements the Bubbletea model for the poster form.
type Model struct {
	ctl    *session.Controller
	outDir string

	inputs  []textinput.Model
	focus   int
	frames  []*frames.Frame
	frameIx int // -1 until a frame is picked
	spinner spinner.Model
	pending int

	result        *session.Result
	cachedPreview string
	cachedGen     uint64
	preview       PreviewConfig

	status string
	err    error
	links  []string
	qr     string // rendered fallback QR code

	initial url.Values // applied by Init

	width  int
	height int
}

// NewModel creates the form with any initial values applied.
func NewModel(opts Options) *Model {
	placeholders := [fieldCount]string{"Your name", "Company", "Email for your avatar", "Path to a photo"}
	m := &Model{
		ctl:     opts.Controller,
		outDir:  opts.OutDir,
		frames:  opts.Controller.Catalog().Visible(),
		frameIx: -1,
		preview: DefaultPreviewConfig(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(cli.PosterAmber))),
	}
	for i := 0; i < fieldCount; i++ {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 128
		in.Width = 36
		m.inputs = append(m.inputs, in)
	}
	m.inputs[fieldName].SetValue(opts.Fields.Name)
	m.inputs[fieldCompany].SetValue(opts.Fields.Company)
	m.inputs[fieldEmail].SetValue(opts.Fields.Email)
	m.inputs[fieldName].Focus()

	m.initial = url.Values{}
	for k, v := range map[string]string{"name": opts.Fields.Name, "company": opts.Fields.Company, "email": opts.Fields.Email} {
		if v != "" {
			m.initial.Set(k, v)
		}
	}
	if opts.Frame != "" && m.ctl.SelectFrame(opts.Frame) == nil {
		selected := m.ctl.State().Frame
		for i, f := range m.frames {
			if f == selected {
				m.frameIx = i
			}
		}
	}
	return m
}

// Init starts the cursor blink and applies the initial values, which renders
// straight away when a frame was preselected.
func (m *Model) Init() tea.Cmd {
	m.pending++
	ctl, q := m.ctl, m.initial
	autofill := func() tea.Msg {
		out, err := ctl.Autofill(context.Background(), q)
		return renderDoneMsg{out: out, err: err}
	}
	return tea.Batch(textinput.Blink, m.spinner.Tick, autofill)
}

// dispatch runs an event off the UI goroutine.
func (m *Model) dispatch(ev session.Event, in session.Input) tea.Cmd {
	m.pending++
	ctl := m.ctl
	return func() tea.Msg {
		out, err := ctl.Dispatch(context.Background(), ev, in)
		return renderDoneMsg{out: out, err: err}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.preview = FitPreviewConfig(msg.Width, msg.Height)
		m.cachedGen = 0
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case renderDoneMsg:
		m.pending--
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		// Superseded renders come back empty; older generations are dropped
		if r := msg.out.Result; r != nil && (m.result == nil || r.Generation > m.result.Generation) {
			m.result = r
			m.err = nil
			m.status = fmt.Sprintf("Photo: %s", r.Source)
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Saved %s (%s)", msg.path, cli.FormatBytes(msg.size))
		return m, nil

	case sharedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.links = m.links[:0]
		m.qr = ""
		switch msg.outcome.Mode {
		case share.ModeFallback:
			m.status = fmt.Sprintf("Share links written to %s", msg.linksPath)
			for _, l := range msg.outcome.Links {
				m.links = append(m.links, l.Label)
			}
			qr, err := qrPreview(msg.outcome.QR)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.qr = qr
		default:
			m.status = "Shared"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab", "down":
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil

	case "shift+tab", "up":
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil

	case "ctrl+n", "ctrl+p":
		if len(m.frames) == 0 {
			m.err = frames.ErrUnknownFrame
			return m, nil
		}
		step := 1
		if msg.String() == "ctrl+p" {
			step = len(m.frames) - 1
		}
		if m.frameIx < 0 {
			m.frameIx = 0
		} else {
			m.frameIx = (m.frameIx + step) % len(m.frames)
		}
		return m, m.dispatch(session.EventFrame, session.Input{Text: m.frames[m.frameIx].Name})

	case "ctrl+s":
		return m, m.save()

	case "ctrl+t":
		return m, m.share()

	case "ctrl+u":
		m.inputs[fieldPhoto].SetValue("")
		return m, m.dispatch(session.EventClearUpload, session.Input{})

	case "enter":
		if m.focus == fieldPhoto {
			return m, m.upload(m.inputs[fieldPhoto].Value())
		}
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	after := m.inputs[m.focus].Value()
	if before == after {
		return m, cmd
	}

	var ev session.Event
	switch m.focus {
	case fieldName:
		ev = session.EventName
	case fieldCompany:
		ev = session.EventCompany
	case fieldEmail:
		ev = session.EventEmail
	default:
		return m, cmd
	}
	return m, tea.Batch(cmd, m.dispatch(ev, session.Input{Text: after}))
}

func (m *Model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m *Model) upload(path string) tea.Cmd {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	m.pending++
	ctl := m.ctl
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return renderDoneMsg{err: fmt.Errorf("opening photo: %w", err)}
		}
		defer f.Close()
		out, err := ctl.Dispatch(context.Background(), session.EventUpload, session.Input{File: f})
		return renderDoneMsg{out: out, err: err}
	}
}

func (m *Model) save() tea.Cmd {
	ctl, dir := m.ctl, m.outDir
	return func() tea.Msg {
		out, err := ctl.Dispatch(context.Background(), session.EventDownload, session.Input{})
		if err != nil {
			return savedMsg{err: err}
		}
		path := filepath.Join(dir, out.Artifact.Filename)
		if err := os.WriteFile(path, out.Artifact.Data, 0o644); err != nil {
			return savedMsg{err: fmt.Errorf("writing poster: %w", err)}
		}
		return savedMsg{path: path, size: int64(len(out.Artifact.Data))}
	}
}

func (m *Model) share() tea.Cmd {
	ctl, dir := m.ctl, m.outDir
	return func() tea.Msg {
		out, err := ctl.Dispatch(context.Background(), session.EventShare, session.Input{})
		if err != nil {
			return sharedMsg{err: err}
		}
		if out.Share.Mode != share.ModeFallback {
			return sharedMsg{outcome: out.Share}
		}

		var b strings.Builder
		for _, l := range out.Share.Links {
			fmt.Fprintf(&b, "%s: %s\n", l.Label, l.Href)
		}
		path := filepath.Join(dir, linksFilename)
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return sharedMsg{err: fmt.Errorf("writing share links: %w", err)}
		}
		return sharedMsg{outcome: out.Share, linksPath: path}
	}
}

// Result returns the poster currently on screen.
func (m *Model) Result() *session.Result {
	return m.result
}

// View renders the UI
func (m *Model) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderForm(), "  ", m.renderPreview())
}

func (m *Model) renderForm() string {
	var s strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(cli.PosterBlue).Render(cli.Name)
	s.WriteString(title)
	s.WriteString("\n\n")

	labels := [fieldCount]string{"Name", "Company", "Email", "Photo"}
	labelStyle := lipgloss.NewStyle().Faint(true).Width(9)
	for i, in := range m.inputs {
		s.WriteString(labelStyle.Render(labels[i]))
		s.WriteString(in.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Frame"))
	if m.frameIx < 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("none (ctrl+n to pick)"))
	} else {
		s.WriteString(lipgloss.NewStyle().Bold(true).Render(m.frames[m.frameIx].Name))
	}
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(cli.ErrorStyle.Render("Error: ") + m.err.Error())
	case m.pending > 0:
		s.WriteString(m.spinner.View() + " Rendering...")
	case m.status != "":
		s.WriteString(m.status)
		for _, l := range m.links {
			s.WriteString("\n  • " + l)
		}
		if m.qr != "" {
			s.WriteString("\n" + m.qr)
		}
	}
	s.WriteString("\n\n")

	help := "tab next • ctrl+n/p frame • enter upload • ctrl+u clear photo\nctrl+s save • ctrl+t share • esc quit"
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(help))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.PosterBlue).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderPreview() string {
	if m.result == nil {
		return ""
	}
	if m.cachedGen != m.result.Generation {
		m.cachedPreview = RenderPreview(DownsampleFrame(m.result.Image, m.preview))
		m.cachedGen = m.result.Generation
	}
	return m.cachedPreview
}
