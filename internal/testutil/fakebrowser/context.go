package fakebrowser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

var _ output.ExtensionContext = (*ExtensionContext)(nil)

type ExtensionContext struct {
	mu sync.Mutex

	ID           string
	Extension    *Page
	ExtensionErr error
	// Notification is handed out by NotificationPage; nil means no popup.
	Notification *Page
	Opened       []string
	NewPages     []*Page
	Shot         *entity.Screenshot
	closes       int
}

func NewExtensionContext() *ExtensionContext {
	return &ExtensionContext{
		ID:        "nkbihfbeogaeaoehlefnkodbefgpgknn",
		Extension: NewPage("chrome-extension://nkbihfbeogaeaoehlefnkodbefgpgknn/home.html"),
	}
}

func (c *ExtensionContext) ExtensionPage(ctx context.Context, timeout time.Duration) (output.UIPage, error) {
	if c.ExtensionErr != nil {
		return nil, c.ExtensionErr
	}
	return c.Extension, nil
}

func (c *ExtensionContext) OpenExtensionPage(ctx context.Context, path string, timeout time.Duration) (output.UIPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Opened = append(c.Opened, path)
	c.Extension.setURL(fmt.Sprintf("chrome-extension://%s/%s", c.ID, path))
	return c.Extension, nil
}

func (c *ExtensionContext) NotificationPage(ctx context.Context, timeout time.Duration) (output.UIPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Notification == nil {
		return nil, fmt.Errorf("%w: no notification page", ErrTimeout)
	}
	return c.Notification, nil
}

func (c *ExtensionContext) ExtensionID(ctx context.Context, timeout time.Duration) (string, error) {
	return c.ID, nil
}

func (c *ExtensionContext) NewPage(ctx context.Context, url string) (output.UIPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := NewPage(url)
	c.NewPages = append(c.NewPages, p)
	return p, nil
}

func (c *ExtensionContext) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if c.Shot == nil {
		return nil, errors.New("fake: no screenshot")
	}
	return c.Shot, nil
}

func (c *ExtensionContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *ExtensionContext) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

var _ output.BrowserLauncher = (*Launcher)(nil)

// Launcher hands out contexts built by New and records every launch. It
// writes a marker file into the user data dir like a real browser would.
type Launcher struct {
	mu        sync.Mutex
	New       func(opts output.LaunchOptions) *ExtensionContext
	LaunchErr error
	launches  []output.LaunchOptions
	contexts  []*ExtensionContext
}

func (l *Launcher) Launch(ctx context.Context, opts output.LaunchOptions) (output.ExtensionContext, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches = append(l.launches, opts)
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	if err := os.WriteFile(filepath.Join(opts.UserDataDir, "Local State"), []byte("{}"), 0o600); err != nil {
		return nil, err
	}
	ext := NewExtensionContext()
	if l.New != nil {
		ext = l.New(opts)
	}
	l.contexts = append(l.contexts, ext)
	return ext, nil
}

func (l *Launcher) Launches() []output.LaunchOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]output.LaunchOptions(nil), l.launches...)
}

func (l *Launcher) Contexts() []*ExtensionContext {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*ExtensionContext(nil), l.contexts...)
}
