// Package fakebrowser provides in-memory implementations of the browser
// ports for unit tests. Elements are keyed by their selector string, so a
// test registers exactly the selectors the code under test is expected to
// use.
package fakebrowser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

var ErrTimeout = errors.New("fake: timed out")

type Element struct {
	Hidden   bool
	Text     string
	Value    string
	ClickErr error
	// OnClick runs after a successful click, e.g. to reveal the next screen.
	OnClick func(p *Page)
}

type Action struct {
	Kind     string
	Selector string
	Value    string
}

var _ output.UIPage = (*Page)(nil)

type Page struct {
	mu       sync.Mutex
	url      string
	elements map[string]*Element
	actions  []Action
	closed   bool

	NavigateErr error
	Shot        *entity.Screenshot
}

func NewPage(url string) *Page {
	return &Page{url: url, elements: make(map[string]*Element)}
}

// Add registers el under sel and returns it for further tweaking.
func (p *Page) Add(sel entity.Selector, el *Element) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el == nil {
		el = &Element{}
	}
	p.elements[sel.String()] = el
	return el
}

func (p *Page) Show(sel entity.Selector) *Element { return p.Add(sel, &Element{}) }

func (p *Page) Remove(sel entity.Selector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, sel.String())
}

func (p *Page) Actions() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Action(nil), p.actions...)
}

func (p *Page) count(kind string, sel entity.Selector) int {
	n := 0
	for _, a := range p.Actions() {
		if a.Kind == kind && a.Selector == sel.String() {
			n++
		}
	}
	return n
}

func (p *Page) Clicked(sel entity.Selector) bool { return p.count("click", sel) > 0 }
func (p *Page) Clicks(sel entity.Selector) int   { return p.count("click", sel) }

// Filled returns the last value typed into sel.
func (p *Page) Filled(sel entity.Selector) (string, bool) {
	var (
		value string
		ok    bool
	)
	for _, a := range p.Actions() {
		if a.Kind == "fill" && a.Selector == sel.String() {
			value, ok = a.Value, true
		}
	}
	return value, ok
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) record(kind string, sel entity.Selector, value string) {
	p.actions = append(p.actions, Action{Kind: kind, Selector: sel.String(), Value: value})
}

func (p *Page) lookup(sel entity.Selector) (*Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[sel.String()]
	return el, ok
}

func (p *Page) visible(sel entity.Selector) (*Element, error) {
	el, ok := p.lookup(sel)
	if !ok || el.Hidden {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, sel)
	}
	return el, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) setURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.actions = append(p.actions, Action{Kind: "navigate", Value: url})
	return nil
}

func (p *Page) Reload(ctx context.Context) error { return nil }

func (p *Page) Exists(ctx context.Context, sel entity.Selector, timeout time.Duration) bool {
	_, ok := p.lookup(sel)
	return ok
}

func (p *Page) IsVisible(ctx context.Context, sel entity.Selector, timeout time.Duration) bool {
	_, err := p.visible(sel)
	return err == nil
}

func (p *Page) WaitVisible(ctx context.Context, sel entity.Selector, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.visible(sel)
	return err
}

func (p *Page) WaitHidden(ctx context.Context, sel entity.Selector, timeout time.Duration) error {
	if _, err := p.visible(sel); err == nil {
		return fmt.Errorf("%w: %s still visible", ErrTimeout, sel)
	}
	return nil
}

func (p *Page) Click(ctx context.Context, sel entity.Selector, timeout time.Duration) error {
	el, err := p.visible(sel)
	if err != nil {
		return err
	}
	if el.ClickErr != nil {
		return el.ClickErr
	}
	p.mu.Lock()
	p.record("click", sel, "")
	p.mu.Unlock()
	if el.OnClick != nil {
		el.OnClick(p)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, sel entity.Selector, text string, timeout time.Duration) error {
	el, err := p.visible(sel)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	el.Value = text
	p.record("fill", sel, text)
	return nil
}

func (p *Page) Hover(ctx context.Context, sel entity.Selector, timeout time.Duration) error {
	if _, err := p.visible(sel); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("hover", sel, "")
	return nil
}

func (p *Page) Select(ctx context.Context, sel entity.Selector, option string, timeout time.Duration) error {
	el, err := p.visible(sel)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	el.Value = option
	p.record("select", sel, option)
	return nil
}

func (p *Page) Text(ctx context.Context, sel entity.Selector, timeout time.Duration) (string, error) {
	el, ok := p.lookup(sel)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTimeout, sel)
	}
	return el.Text, nil
}

func (p *Page) Content(ctx context.Context) (*entity.PageContent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	content := &entity.PageContent{URL: p.url, Title: "fake", HTML: "<body></body>"}
	for key, el := range p.elements {
		if el.Hidden {
			continue
		}
		content.UIElements = append(content.UIElements, entity.UIElement{
			ID:       fmt.Sprintf("ui-%04d", len(content.UIElements)),
			Type:     "element",
			Text:     el.Text,
			Selector: key,
		})
	}
	return content, nil
}

func (p *Page) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if p.Shot == nil {
		return nil, errors.New("fake: no screenshot")
	}
	return p.Shot, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
