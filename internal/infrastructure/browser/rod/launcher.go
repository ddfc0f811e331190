package rod

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
)

// Error is the class of browser launch and extension-context errors.
var Error = errs.Class("rod")

var _ output.BrowserLauncher = (*Launcher)(nil)

type Config struct {
	// ReadySelector marks an extension page as rendered.
	ReadySelector string
	ReadyTimeout  time.Duration
	NoSandbox     bool
	Trace         bool
	// ExitTimeout bounds the wait for the browser process to flush the
	// profile and exit on Close.
	ExitTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ReadySelector: "#app-content .app",
		ReadyTimeout:  15 * time.Second,
		NoSandbox:     true,
		ExitTimeout:   10 * time.Second,
	}
}

type Launcher struct {
	cfg    Config
	logger output.LoggerPort
}

func NewLauncher(cfg Config, logger output.LoggerPort) *Launcher {
	def := DefaultConfig()
	if cfg.ReadySelector == "" {
		cfg.ReadySelector = def.ReadySelector
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = def.ReadyTimeout
	}
	if cfg.ExitTimeout <= 0 {
		cfg.ExitTimeout = def.ExitTimeout
	}
	return &Launcher{cfg: cfg, logger: logger.Named("rod")}
}

// flags builds the launcher for a persistent profile with one unpacked
// extension. Extensions need a headful browser or the "new" headless mode.
func (l *Launcher) flags(opts output.LaunchOptions) *launcher.Launcher {
	ln := launcher.New().
		Headless(false).
		NoSandbox(l.cfg.NoSandbox).
		UserDataDir(opts.UserDataDir).
		Delete("no-startup-window").
		Delete("use-mock-keychain").
		Set("disable-extensions-except", opts.ExtensionPath).
		Set("load-extension", opts.ExtensionPath)
	if opts.Headless {
		ln = ln.Set("headless", "new")
	}
	if opts.BrowserBin != "" {
		ln = ln.Bin(opts.BrowserBin)
	}
	return ln
}

func (l *Launcher) Launch(ctx context.Context, opts output.LaunchOptions) (output.ExtensionContext, error) {
	if opts.UserDataDir == "" || opts.ExtensionPath == "" {
		return nil, Error.New("user data dir and extension path are required")
	}

	if err := ctx.Err(); err != nil {
		return nil, Error.Wrap(err)
	}

	ln := l.flags(opts)
	controlURL, err := ln.Launch()
	if err != nil {
		return nil, Error.New("launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		Trace(l.cfg.Trace).
		SlowMotion(opts.SlowMotion)
	if err := browser.Connect(); err != nil {
		ln.Kill()
		return nil, Error.New("connect to browser: %w", err)
	}

	l.logger.Debug("browser launched",
		"profile", opts.UserDataDir,
		"extension", opts.ExtensionPath,
		"headless", opts.Headless)

	return &ExtensionContext{
		browser:  browser,
		launcher: ln,
		cfg:      l.cfg,
		logger:   l.logger,
	}, nil
}
