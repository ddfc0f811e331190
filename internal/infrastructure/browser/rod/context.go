package rod

import (
	"context"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/infrastructure/browser/rodwrapper"
)

const (
	extensionScheme  = "chrome-extension://"
	notificationPath = "notification.html"
	pollInterval     = 250 * time.Millisecond
)

var _ output.ExtensionContext = (*ExtensionContext)(nil)

// ExtensionContext is a running browser on a persistent profile with the
// wallet extension loaded.
type ExtensionContext struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
	logger   output.LoggerPort

	mu          sync.Mutex
	extensionID string

	closeOnce sync.Once
	closeErr  error
}

// poll calls fn until it reports done, ctx ends or timeout elapses.
func poll(ctx context.Context, timeout time.Duration, fn func() (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *ExtensionContext) findPage(match func(u *url.URL) bool) (*rod.Page, error) {
	pages, err := c.browser.Pages()
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		u, err := url.Parse(info.URL)
		if err != nil || !match(u) {
			continue
		}
		return p, nil
	}
	return nil, nil
}

func isExtensionURL(u *url.URL) bool { return u.Scheme == "chrome-extension" }

func (c *ExtensionContext) rememberID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.extensionID == "" && id != "" {
		c.extensionID = id
		c.logger.Debug("extension registered", "id", id)
	}
}

// ready waits for the extension UI to render on p.
func (c *ExtensionContext) ready(ctx context.Context, p *rod.Page) (output.UIPage, error) {
	page := rodwrapper.NewPage(p)
	rp := p.Context(ctx)
	if err := rp.WaitLoad(); err != nil {
		return nil, Error.New("wait extension page load: %w", err)
	}
	if err := page.WaitVisible(ctx, entity.CSS(c.cfg.ReadySelector), c.cfg.ReadyTimeout); err != nil {
		return nil, Error.New("extension ui not ready: %w", err)
	}
	return page, nil
}

func (c *ExtensionContext) ExtensionPage(ctx context.Context, timeout time.Duration) (output.UIPage, error) {
	var found *rod.Page
	err := poll(ctx, timeout, func() (bool, error) {
		p, err := c.findPage(isExtensionURL)
		if err != nil {
			return false, Error.Wrap(err)
		}
		found = p
		return p != nil, nil
	})
	if err != nil {
		return nil, Error.New("no extension page after %s: %w", timeout, err)
	}

	if info, err := found.Info(); err == nil {
		if u, err := url.Parse(info.URL); err == nil {
			c.rememberID(u.Host)
		}
	}
	return c.ready(ctx, found)
}

func (c *ExtensionContext) ExtensionID(ctx context.Context, timeout time.Duration) (string, error) {
	c.mu.Lock()
	id := c.extensionID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	err := poll(ctx, timeout, func() (bool, error) {
		res, err := proto.TargetGetTargets{}.Call(c.browser)
		if err != nil {
			return false, Error.Wrap(err)
		}
		for _, t := range res.TargetInfos {
			if !strings.HasPrefix(t.URL, extensionScheme) {
				continue
			}
			if u, err := url.Parse(t.URL); err == nil && u.Host != "" {
				id = u.Host
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return "", Error.New("extension id not found after %s: %w", timeout, err)
	}
	c.rememberID(id)
	return id, nil
}

func (c *ExtensionContext) OpenExtensionPage(ctx context.Context, path string, timeout time.Duration) (output.UIPage, error) {
	id, err := c.ExtensionID(ctx, timeout)
	if err != nil {
		return nil, err
	}
	target := extensionScheme + id + "/" + strings.TrimPrefix(path, "/")
	p, err := c.browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, Error.New("open %s: %w", target, err)
	}
	return c.ready(ctx, p)
}

// NotificationPage returns the confirmation popup the extension opened,
// or opens notification.html directly when no popup shows up in time.
func (c *ExtensionContext) NotificationPage(ctx context.Context, timeout time.Duration) (output.UIPage, error) {
	wait := timeout / 2
	if wait > 5*time.Second {
		wait = 5 * time.Second
	}

	var found *rod.Page
	_ = poll(ctx, wait, func() (bool, error) {
		p, err := c.findPage(func(u *url.URL) bool {
			return isExtensionURL(u) && strings.HasSuffix(u.Path, "/"+notificationPath)
		})
		if err != nil {
			return false, nil
		}
		found = p
		return p != nil, nil
	})
	if found != nil {
		return c.ready(ctx, found)
	}
	if err := ctx.Err(); err != nil {
		return nil, Error.Wrap(err)
	}
	return c.OpenExtensionPage(ctx, notificationPath, timeout-wait)
}

func (c *ExtensionContext) NewPage(ctx context.Context, rawURL string) (output.UIPage, error) {
	p, err := c.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, Error.New("new page: %w", err)
	}
	page := rodwrapper.NewPage(p)
	if rawURL == "" || rawURL == "about:blank" {
		return page, nil
	}
	if err := page.Navigate(ctx, rawURL); err != nil {
		_ = p.Close()
		return nil, err
	}
	return page, nil
}

// Screenshot captures the first open page.
func (c *ExtensionContext) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	pages, err := c.browser.Pages()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if len(pages) == 0 {
		return nil, Error.New("no open pages")
	}
	return rodwrapper.Screenshot(pages[0].Context(ctx))
}

// Close shuts the browser down and waits for it to release the profile.
// It is safe to call more than once.
func (c *ExtensionContext) Close() error {
	c.closeOnce.Do(func() {
		if err := c.browser.Close(); err != nil {
			c.logger.Warn("graceful browser close failed", "error", err)
		}
		if !waitExit(c.launcher.PID(), c.cfg.ExitTimeout) {
			c.logger.Warn("browser did not exit in time, killing", "pid", c.launcher.PID())
			c.launcher.Kill()
			if !waitExit(c.launcher.PID(), c.cfg.ExitTimeout) {
				c.closeErr = Error.New("browser process %d still running", c.launcher.PID())
			}
		}
	})
	return c.closeErr
}

func waitExit(pid int, timeout time.Duration) bool {
	if pid <= 0 {
		return true
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		proc, err := os.FindProcess(pid)
		if err != nil || proc.Signal(syscall.Signal(0)) != nil {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
