package rodwrapper

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

var (
	// Error is the class of driver errors.
	Error = errs.Class("browser")

	ErrTimeout    = errors.New("timed out")
	ErrInvalidURL = errors.New("invalid url")
)

const (
	defaultPollInterval = 100 * time.Millisecond
	minProbeTime        = time.Second
	maxScreenshotWidth  = 1024
)

var _ output.UIPage = (*Page)(nil)

// Page implements output.UIPage on top of a rod page. Locators are resolved
// on every poll, so stale handles never leak out of a call.
type Page struct {
	rp   *rod.Page
	poll time.Duration
}

func NewPage(rp *rod.Page) *Page {
	return &Page{rp: rp, poll: defaultPollInterval}
}

// Rod exposes the underlying page for driver-specific callers.
func (p *Page) Rod() *rod.Page { return p.rp }

func (p *Page) URL() string {
	info, err := p.rp.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *Page) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	rp := p.rp.Context(ctx)
	if err := rp.Navigate(rawURL); err != nil {
		return Error.New("navigate %s: %w", rawURL, err)
	}
	if err := rp.WaitLoad(); err != nil {
		return Error.New("wait load %s: %w", rawURL, err)
	}
	_ = rp.WaitIdle(2 * time.Second)
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	rp := p.rp.Context(ctx)
	if err := rp.Reload(); err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(rp.WaitLoad())
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return Error.New("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Error.New("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https", "chrome-extension", "about", "file":
		return nil
	}
	return Error.New("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
}

// resolve finds the element sel points at right now, or nil.
func (p *Page) resolve(rp *rod.Page, sel entity.Selector) (*rod.Element, error) {
	var (
		root   queryable = rp
		scoped bool
	)
	if sel.Parent != nil {
		parent, err := p.resolve(rp, *sel.Parent)
		if err != nil || parent == nil {
			return nil, err
		}
		root, scoped = parent, true
	}
	els, err := query(root, scoped, sel)
	if err != nil {
		return nil, err
	}
	return pick(els, sel.Index), nil
}

// waitFor polls until check accepts the current element for sel. The first
// probe always runs, so a zero timeout checks exactly once.
func (p *Page) waitFor(ctx context.Context, sel entity.Selector, timeout time.Duration, check func(*rod.Element) bool) (*rod.Element, error) {
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()
	for {
		if el, ok := p.probe(ctx, sel, deadline, check); ok {
			return el, nil
		}
		if !time.Now().Before(deadline) {
			return nil, Error.New("%w after %s waiting for %s", ErrTimeout, timeout, sel)
		}
		select {
		case <-ctx.Done():
			return nil, Error.New("%w waiting for %s: %v", ErrTimeout, sel, ctx.Err())
		case <-ticker.C:
		}
	}
}

// probe resolves sel once. A single probe may outlive deadline by up to
// minProbeTime so that zero and tiny timeouts still get an answer.
func (p *Page) probe(ctx context.Context, sel entity.Selector, deadline time.Time, check func(*rod.Element) bool) (*rod.Element, bool) {
	budget := time.Until(deadline)
	if budget < minProbeTime {
		budget = minProbeTime
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	el, err := p.resolve(p.rp.Context(ctx), sel)
	if err != nil || !check(el) {
		return nil, false
	}
	// el is bound to the probe context; callers rebind it before use
	return el, true
}

func attached(el *rod.Element) bool { return el != nil }

func visible(el *rod.Element) bool {
	if el == nil {
		return false
	}
	ok, err := el.Visible()
	return err == nil && ok
}

func (p *Page) Exists(ctx context.Context, sel entity.Selector, timeout time.Duration) bool {
	_, err := p.waitFor(ctx, sel, timeout, attached)
	return err == nil
}

func (p *Page) IsVisible(ctx context.Context, sel entity.Selector, timeout time.Duration) bool {
	_, err := p.waitFor(ctx, sel, timeout, visible)
	return err == nil
}

func (p *Page) WaitVisible(ctx context.Context, sel entity.Selector, timeout time.Duration) error {
	_, err := p.waitFor(ctx, sel, timeout, visible)
	return err
}

func (p *Page) WaitHidden(ctx context.Context, sel entity.Selector, timeout time.Duration) error {
	_, err := p.waitFor(ctx, sel, timeout, func(el *rod.Element) bool { return !visible(el) })
	return err
}

// act waits for sel to become visible and runs fn on it, retrying while the
// element keeps getting detached under us.
func (p *Page) act(ctx context.Context, sel entity.Selector, timeout time.Duration, fn func(*rod.Element) error) error {
	deadline := time.Now().Add(timeout)
	for {
		el, err := p.waitFor(ctx, sel, time.Until(deadline), visible)
		if err != nil {
			return err
		}
		err = fn(el.Context(ctx))
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return Error.New("%s: %w", sel, err)
		}
		time.Sleep(p.poll)
	}
}

func (p *Page) Click(ctx context.Context, sel entity.Selector, timeout time.Duration) error {
	return p.act(ctx, sel, timeout, func(el *rod.Element) error {
		if err := el.ScrollIntoView(); err != nil {
			return err
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (p *Page) Fill(ctx context.Context, sel entity.Selector, text string, timeout time.Duration) error {
	return p.act(ctx, sel, timeout, func(el *rod.Element) error {
		if err := el.SelectAllText(); err == nil {
			_ = el.Input("")
		}
		return el.Input(text)
	})
}

func (p *Page) Hover(ctx context.Context, sel entity.Selector, timeout time.Duration) error {
	return p.act(ctx, sel, timeout, func(el *rod.Element) error { return el.Hover() })
}

func (p *Page) Select(ctx context.Context, sel entity.Selector, option string, timeout time.Duration) error {
	return p.act(ctx, sel, timeout, func(el *rod.Element) error {
		return el.Select([]string{option}, true, rod.SelectorTypeText)
	})
}

func (p *Page) Text(ctx context.Context, sel entity.Selector, timeout time.Duration) (string, error) {
	el, err := p.waitFor(ctx, sel, timeout, attached)
	if err != nil {
		return "", err
	}
	text, err := el.Context(ctx).Text()
	if err != nil {
		return "", Error.New("%s: %w", sel, err)
	}
	return strings.TrimSpace(text), nil
}

func (p *Page) Content(ctx context.Context) (*entity.PageContent, error) {
	rp := p.rp.Context(ctx)
	info, err := rp.Info()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	raw, err := rp.HTML()
	if err != nil {
		return nil, Error.New("html: %w", err)
	}
	elements, err := ExtractUI(rp, nil)
	if err != nil {
		elements = nil
	}
	return &entity.PageContent{
		URL:        info.URL,
		Title:      info.Title,
		HTML:       CleanHTML(raw, nil),
		UIElements: elements,
	}, nil
}

func (p *Page) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return Screenshot(p.rp.Context(ctx))
}

func (p *Page) Close() error {
	return Error.Wrap(p.rp.Close())
}

// Screenshot captures rp as a JPEG no wider than 1024px.
func Screenshot(rp *rod.Page) (*entity.Screenshot, error) {
	imgBytes, err := rp.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, Error.New("screenshot: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, Error.New("decode screenshot: %w", err)
	}
	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, Error.New("encode screenshot: %w", err)
	}
	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}
