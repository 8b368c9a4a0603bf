package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"

	"github.com/wckerala/framegen/internal/cli"
	"github.com/wckerala/framegen/internal/server"
	"github.com/wckerala/framegen/internal/session"
	"github.com/wckerala/framegen/internal/ui"
)

// RenderCmd renders one poster without any interaction.
type RenderCmd struct {
	Frame   string `help:"Frame name or 1-based index" required:"" short:"f"`
	Name    string `help:"Name caption" short:"n"`
	Company string `help:"Company caption" short:"c"`
	Email   string `help:"Email used to look up an avatar" short:"e"`
	Photo   string `help:"Photo to use instead of the avatar" type:"existingfile" placeholder:"path"`
	Output  string `help:"Output PNG file" short:"o" default:"${output}"`
	Preview bool   `help:"Print a colour preview to the terminal"`
}

// Run renders and writes the poster.
func (r *RenderCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	start := time.Now()
	ctx := context.Background()

	ctl := a.session()
	ctl.Update(func(s *session.State) {
		s.Fields = session.Fields{Name: r.Name, Company: r.Company, Email: r.Email}
	})
	if err := ctl.SelectFrame(r.Frame); err != nil {
		return fmt.Errorf("%w: %q (see 'framegen frames')", err, r.Frame)
	}

	if r.Photo != "" {
		f, err := os.Open(r.Photo)
		if err != nil {
			return fmt.Errorf("opening photo: %w", err)
		}
		_, err = ctl.Dispatch(ctx, session.EventUpload, session.Input{File: f})
		f.Close()
		if err != nil {
			return err
		}
	} else if _, err := ctl.Render(ctx); err != nil {
		return err
	}

	res := ctl.Latest()
	out, err := ctl.Dispatch(ctx, session.EventDownload, session.Input{})
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.Output, out.Artifact.Data, 0o644); err != nil {
		return fmt.Errorf("writing poster: %w", err)
	}

	if r.Preview {
		fmt.Println(ui.RenderPreview(ui.DownsampleFrame(res.Image, ui.DefaultPreviewConfig())))
	}
	cli.PrintRenderSummary(cli.RenderSummary{
		Output:  r.Output,
		Frame:   ctl.State().Frame.Name,
		Source:  string(res.Source),
		Size:    int64(len(out.Artifact.Data)),
		Elapsed: time.Since(start),
	})
	return nil
}

// FramesCmd lists the selectable frames.
type FramesCmd struct{}

// Run prints one line per frame.
func (f *FramesCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	cli.PrintSection("Frames")
	for i, fr := range a.catalog.Visible() {
		cli.PrintInfo(strconv.Itoa(i+1), fr.Name)
	}
	if hidden := len(a.catalog.All()) - len(a.catalog.Visible()); hidden > 0 {
		cli.PrintWarning(fmt.Sprintf("%d frame(s) failed to load and are hidden", hidden))
	}
	return nil
}

// TUICmd starts the interactive editor.
type TUICmd struct {
	Name    string `help:"Initial name caption"`
	Company string `help:"Initial company caption"`
	Email   string `help:"Initial email"`
	Frame   string `help:"Initial frame name or 1-based index"`
	OutDir  string `help:"Directory downloads are saved to" type:"existingdir" default:"."`
}

// Run blocks until the user quits.
func (t *TUICmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	model := ui.NewModel(ui.Options{
		Controller: a.session(),
		OutDir:     t.OutDir,
		Fields:     session.Fields{Name: t.Name, Company: t.Company, Email: t.Email},
		Frame:      t.Frame,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	if res := model.Result(); res != nil {
		cli.PrintSuccess(fmt.Sprintf("Last preview used the %s photo", res.Source))
	}
	return nil
}

// ServeCmd runs the HTTP front end.
type ServeCmd struct {
	Addr      string `help:"Listen address" default:":8080" env:"FRAMEGEN_ADDR"`
	MaxUpload int64  `help:"Largest accepted upload in bytes" default:"16777216"`
}

// Run serves until interrupted.
func (s *ServeCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	if g.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.catalog, a.resolver, a.compositor,
		server.WithExporter(a.exporter),
		server.WithLogger(a.logger),
		server.WithMaxUpload(s.MaxUpload),
	)
	cli.PrintBanner()
	cli.PrintInfo("Listening", s.Addr)
	return srv.ListenAndServe(ctx, s.Addr)
}
