package pages

import (
	"context"
	"strings"

	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

// Error is the class of page object errors.
var Error = errs.Class("pages")

// BasePage knows the path of a page relative to the site base URL.
type BasePage struct {
	Page    output.UIPage
	BaseURL string
	Path    string
}

func NewBasePage(page output.UIPage, baseURL, path string) BasePage {
	return BasePage{Page: page, BaseURL: strings.TrimRight(baseURL, "/"), Path: path}
}

// Navigate opens path, or the page's own path when path is empty. Paths
// starting with "/" are resolved against BaseURL, anything else is used as
// an absolute URL.
func (p BasePage) Navigate(ctx context.Context, path ...string) error {
	target := p.Path
	if len(path) > 0 && path[0] != "" {
		target = path[0]
	}
	if strings.HasPrefix(target, "/") {
		target = p.BaseURL + target
	}
	if err := p.Page.Navigate(ctx, target); err != nil {
		return Error.New("navigate to %s: %w", target, err)
	}
	return nil
}

// Locator returns sel bound to the page.
func (p BasePage) Locator(sel entity.Selector) Locator { return NewLocator(p.Page, sel) }
