package main

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/wckerala/framegen/internal/avatar"
	"github.com/wckerala/framegen/internal/cli"
	"github.com/wckerala/framegen/internal/config"
	"github.com/wckerala/framegen/internal/frames"
	"github.com/wckerala/framegen/internal/imageload"
	"github.com/wckerala/framegen/internal/renderer"
	"github.com/wckerala/framegen/internal/session"
	"github.com/wckerala/framegen/internal/share"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// versionFlag prints the styled version banner and exits.
type versionFlag bool

func (v versionFlag) BeforeReset(app *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(vars["version"])
	app.Exit(0)
	return nil
}

// Globals are flags shared by every command.
type Globals struct {
	Config   string      `help:"YAML settings file" type:"existingfile" placeholder:"path"`
	LogLevel string      `help:"Diagnostic log level" enum:"debug,info,warn,error" default:"warn"`
	Version  versionFlag `help:"Show version information"`
}

// CLI is the command tree.
type CLI struct {
	Globals

	Render RenderCmd `cmd:"" help:"Render a poster to a PNG file"`
	Frames FramesCmd `cmd:"" help:"List the available frames"`
	TUI    TUICmd    `cmd:"" name:"tui" help:"Edit a poster interactively in the terminal"`
	Serve  ServeCmd  `cmd:"" help:"Serve the poster form over HTTP"`
}

func vars() kong.Vars {
	return kong.Vars{"version": version, "output": config.DownloadFilename}
}

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("framegen"),
		kong.Description(cli.Tagline),
		vars(),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if err := ctx.Run(&c.Globals); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// app is everything a command needs, built from the settings file.
type app struct {
	settings   *config.Settings
	logger     *slog.Logger
	catalog    *frames.Catalog
	resolver   *avatar.Resolver
	compositor *renderer.Compositor
	exporter   *share.Adapter
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func (g *Globals) setup() (*app, error) {
	settings, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	logger := newLogger(g.LogLevel)

	loader := imageload.New(
		imageload.WithAssets(frames.Assets()),
		imageload.WithTimeout(settings.GetFetchTimeout()),
	)

	catalog, err := frames.Load(context.Background(), loader, settings.GetAssetBase(), logger)
	if err != nil {
		return nil, fmt.Errorf("loading frames: %w", err)
	}
	if len(catalog.Visible()) == 0 {
		return nil, fmt.Errorf("no frames could be loaded from %s", settings.GetAssetBase())
	}

	pr, pg, pb := settings.GetPlaceholderColor()
	resolver := avatar.NewResolver(loader,
		avatar.WithBaseURL(settings.GetAvatarBase()),
		avatar.WithPlaceholderColor(color.RGBA{R: pr, G: pg, B: pb, A: 255}),
		avatar.WithLogger(logger),
	)

	cr, cg, cb := settings.GetCaptionColor()
	compositor, err := renderer.NewCompositor(renderer.Options{
		NameFont:    settings.NameFont,
		CompanyFont: settings.CompanyFont,
		TextColor:   color.RGBA{R: cr, G: cg, B: cb, A: 255},
	})
	if err != nil {
		return nil, err
	}

	title, text, url := settings.GetShareMeta()
	exporter := share.NewAdapter(
		share.WithMeta(title, text, url),
		share.WithLinks(settings.GetShareLinks()),
		share.WithLogger(logger),
	)

	return &app{
		settings:   settings,
		logger:     logger,
		catalog:    catalog,
		resolver:   resolver,
		compositor: compositor,
		exporter:   exporter,
	}, nil
}

// session starts a fresh controller wired to the app's exporter.
func (a *app) session() *session.Controller {
	c := session.New(a.resolver, a.compositor, a.catalog, a.logger)
	c.SetExporter(a.exporter)
	return c
}
