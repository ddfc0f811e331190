package output

import (
	"context"
	"time"

	"marketplace-e2e/internal/domain/entity"
)

// UIPage is the driver surface the page objects and the wallet automation
// are written against. Every wait is bounded by the given timeout.
type UIPage interface {
	URL() string
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error

	Exists(ctx context.Context, sel entity.Selector, timeout time.Duration) bool
	IsVisible(ctx context.Context, sel entity.Selector, timeout time.Duration) bool
	WaitVisible(ctx context.Context, sel entity.Selector, timeout time.Duration) error
	WaitHidden(ctx context.Context, sel entity.Selector, timeout time.Duration) error

	Click(ctx context.Context, sel entity.Selector, timeout time.Duration) error
	Fill(ctx context.Context, sel entity.Selector, text string, timeout time.Duration) error
	Hover(ctx context.Context, sel entity.Selector, timeout time.Duration) error
	// Select picks the option with the given visible text in a <select>.
	Select(ctx context.Context, sel entity.Selector, option string, timeout time.Duration) error
	Text(ctx context.Context, sel entity.Selector, timeout time.Duration) (string, error)

	Content(ctx context.Context) (*entity.PageContent, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	Close() error
}

// ExtensionContext is a live browser with the wallet extension loaded. The
// caller that launched it owns it and must Close it.
type ExtensionContext interface {
	// ExtensionPage waits for a page served by the extension to register.
	ExtensionPage(ctx context.Context, timeout time.Duration) (UIPage, error)
	// OpenExtensionPage opens chrome-extension://<id>/<path> in a new tab.
	OpenExtensionPage(ctx context.Context, path string, timeout time.Duration) (UIPage, error)
	// NotificationPage waits for the extension's confirmation popup.
	NotificationPage(ctx context.Context, timeout time.Duration) (UIPage, error)
	ExtensionID(ctx context.Context, timeout time.Duration) (string, error)

	NewPage(ctx context.Context, url string) (UIPage, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	Close() error
}

type LaunchOptions struct {
	UserDataDir   string
	ExtensionPath string
	Headless      bool
	SlowMotion    time.Duration
	BrowserBin    string
}

type BrowserLauncher interface {
	Launch(ctx context.Context, opts LaunchOptions) (ExtensionContext, error)
}
