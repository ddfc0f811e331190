// Package pages holds the page objects of the marketplace suite. Every page
// object is a set of Locators over one output.UIPage.
package pages

import (
	"context"
	"time"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

// DefaultTimeout bounds every locator wait that is not given an explicit
// timeout.
const DefaultTimeout = 5 * time.Second

// Locator binds a selector to the page it is resolved against.
type Locator struct {
	page output.UIPage
	sel  entity.Selector
}

func NewLocator(page output.UIPage, sel entity.Selector) Locator {
	return Locator{page: page, sel: sel}
}

func (l Locator) Selector() entity.Selector { return l.sel }
func (l Locator) String() string            { return l.sel.String() }

// Locate narrows the search to descendants of l.
func (l Locator) Locate(sel entity.Selector) Locator {
	return Locator{page: l.page, sel: sel.Within(l.sel)}
}

func (l Locator) First() Locator    { return Locator{page: l.page, sel: l.sel.First()} }
func (l Locator) Last() Locator     { return Locator{page: l.page, sel: l.sel.Last()} }
func (l Locator) Nth(i int) Locator { return Locator{page: l.page, sel: l.sel.Nth(i)} }

func (l Locator) Click(ctx context.Context) error {
	return l.page.Click(ctx, l.sel, DefaultTimeout)
}

func (l Locator) Fill(ctx context.Context, text string) error {
	return l.page.Fill(ctx, l.sel, text, DefaultTimeout)
}

func (l Locator) Hover(ctx context.Context) error {
	return l.page.Hover(ctx, l.sel, DefaultTimeout)
}

// IsVisible checks once, without waiting.
func (l Locator) IsVisible(ctx context.Context) bool {
	return l.page.IsVisible(ctx, l.sel, 0)
}

// VisibleWithin reports whether l becomes visible before timeout.
func (l Locator) VisibleWithin(ctx context.Context, timeout time.Duration) bool {
	return l.page.IsVisible(ctx, l.sel, timeout)
}

func (l Locator) WaitVisible(ctx context.Context, timeout time.Duration) error {
	return l.page.WaitVisible(ctx, l.sel, timeout)
}

func (l Locator) WaitHidden(ctx context.Context, timeout time.Duration) error {
	return l.page.WaitHidden(ctx, l.sel, timeout)
}

func (l Locator) Text(ctx context.Context) (string, error) {
	return l.page.Text(ctx, l.sel, DefaultTimeout)
}
