// Command netcam pulls still frames from a network camera, corrects lens
// distortion with live sliders and saves snapshots on demand.
package main

import (
	"context"
	"os"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/maruel/interrupt"
	"github.com/urfave/cli"

	"philipredstone/netcam/internal/apperr"
	"philipredstone/netcam/internal/capture"
	"philipredstone/netcam/internal/config"
	"philipredstone/netcam/internal/display"
	"philipredstone/netcam/internal/frame"
	"philipredstone/netcam/internal/logger"
	"philipredstone/netcam/internal/session"
	"philipredstone/netcam/internal/snapshot"
	"philipredstone/netcam/internal/source"
	"philipredstone/netcam/internal/undistort"
)

var log = logger.Log

func newApp(action func(config.Config) error) *cli.App {
	a := cli.NewApp()
	a.Name = "netcam"
	a.Usage = "Network camera viewer with lens undistortion"
	a.UsageText = "netcam [options] url"
	a.HideVersion = true
	a.Flags = []cli.Flag{
		cli.StringFlag{Name: "id, i", Usage: "login id (digest auth needs both --id and --pw)"},
		cli.StringFlag{Name: "pw, p", Usage: "login password"},
		cli.Float64Flag{Name: "sec, s", Usage: "save interval in seconds (required)"},
		cli.StringFlag{Name: "config, c", Usage: "YAML configuration file"},
		cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "timeout of one camera request"},
		cli.IntFlag{Name: "retries", Usage: "extra attempts for a failed camera request"},
		cli.StringFlag{Name: "out", Value: ".", Usage: "snapshot directory"},
		cli.StringFlag{Name: "format", Value: "png", Usage: "snapshot format: png, bmp or jpeg"},
		cli.StringFlag{Name: "backend", Value: undistort.DefaultBackend, Usage: "undistortion backend"},
		cli.BoolFlag{Name: "skip-bad-frames", Usage: "skip undecodable frames instead of stopping"},
		cli.BoolFlag{Name: "debug", Usage: "debug logging"},
	}
	a.OnUsageError = func(c *cli.Context, err error, _ bool) error {
		return apperr.New(apperr.Config, err, "usage")
	}
	a.Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		return action(cfg)
	}
	return a
}

// loadConfig layers the config file and the flags that were given on top of
// the defaults.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if c.NArg() > 1 {
		return cfg, apperr.Newf(apperr.Config, "unexpected arguments %v", c.Args().Tail())
	}
	if u := c.Args().First(); u != "" {
		cfg.URL = u
	}
	if c.IsSet("id") {
		cfg.ID = c.String("id")
	}
	if c.IsSet("pw") {
		cfg.PW = c.String("pw")
	}
	if c.IsSet("sec") {
		sec := c.Float64("sec")
		cfg.Sec = &sec
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	if c.IsSet("out") {
		cfg.Out = c.String("out")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.Bool("skip-bad-frames") {
		cfg.SkipBadFrames = true
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config) error {
	logger.SetDebug(cfg.Debug)
	log.Infof("starting with %s", cfg)
	if (cfg.ID == "") != (cfg.PW == "") {
		log.Warn("digest auth needs both --id and --pw, connecting without credentials")
	}

	src, err := source.New(source.Options{
		URL:      cfg.URL,
		User:     cfg.ID,
		Password: cfg.PW,
		Timeout:  cfg.Timeout,
		Retries:  cfg.Retries,
	})
	if err != nil {
		return err
	}
	store, err := snapshot.New(cfg.Out, cfg.Format)
	if err != nil {
		return err
	}
	u, err := undistort.New(cfg.Backend)
	if err != nil {
		return apperr.New(apperr.Config, err, "backend")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt.HandleCtrlC()
	go func() {
		select {
		case <-interrupt.Channel:
			log.Info("interrupted")
			cancel()
		case <-ctx.Done():
		}
	}()

	// The crop sliders are sized from the first frame.
	first, err := firstFrame(ctx, src, cfg.SkipBadFrames)
	if err != nil || first == nil {
		return err
	}
	log.Infof("camera frame size %dx%d", first.Width, first.Height)

	a := app.New()
	win := display.New(a, cfg.Distortion)
	win.SetFrameSize(first.Height, first.Width)

	loop := capture.New(src, win, u, store, session.Seconds(cfg.Interval()))
	loop.SkipBadFrames = cfg.SkipBadFrames

	done := make(chan error, 1)
	go func() {
		defer win.Close()
		done <- loop.Run(ctx, first)
	}()
	win.Show()
	a.Run()
	cancel()
	err = <-done
	log.Infof("stopped after %d frames", loop.Cycles())
	return err
}

// firstFrame returns nil without an error when ctx is cancelled first.
func firstFrame(ctx context.Context, src capture.Source, skipBad bool) (*frame.Frame, error) {
	for {
		f, err := src.Fetch(ctx)
		if ctx.Err() != nil {
			return nil, nil
		}
		if err == nil {
			return f, nil
		}
		if apperr.KindOf(err) != apperr.Decode || !skipBad {
			return nil, err
		}
		log.Warnf("skipping frame: %v", err)
	}
}

func main() {
	if err := newApp(run).Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(apperr.ExitCode(err))
	}
}
