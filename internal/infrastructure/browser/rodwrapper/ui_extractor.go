package rodwrapper

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	"marketplace-e2e/internal/domain/entity"
)

type ExtractConfig struct {
	OnlyInViewport   bool
	MaxElements      int
	PriorityKeywords []string
}

var DefaultExtractConfig = ExtractConfig{
	OnlyInViewport: false,
	MaxElements:    300,
}

// interactive groups, in the order they are listed to the model
var extractGroups = []struct {
	typ string
	css string
}{
	{"button", `button, [role="button"], input[type="submit"]`},
	{"input", `input:not([type="hidden"]), textarea, select`},
	{"checkbox", `input[type="checkbox"], [role="checkbox"]`},
	{"link", `a[href]`},
	{"element", `[data-testid]`},
}

// ExtractUI lists the visible interactive elements of the page with a
// selector string for each that ParseSelector understands.
func ExtractUI(page *rod.Page, cfg *ExtractConfig) ([]entity.UIElement, error) {
	if cfg == nil {
		cfg = &DefaultExtractConfig
	}

	var result []entity.UIElement
	seen := make(map[string]bool)

	add := func(el *rod.Element, typ string) {
		if el == nil || len(result) >= cfg.MaxElements {
			return
		}
		if ok, err := el.Visible(); err != nil || !ok {
			return
		}

		inViewport := true
		// rod не умеет IsIntersectingViewport, считаем через JS
		if res, err := el.Eval(`() => {
			const r = this.getBoundingClientRect();
			return r.top < window.innerHeight && r.bottom >= 0 &&
				r.left < window.innerWidth && r.right >= 0;
		}`); err == nil {
			inViewport = res.Value.Bool()
		}
		if cfg.OnlyInViewport && !inViewport {
			return
		}

		text, _ := el.Text()
		text = strings.Join(strings.Fields(text), " ")
		aria := attr(el, "aria-label")
		testID := attr(el, "data-testid")
		placeholder := attr(el, "placeholder")

		if !matchesKeywords(cfg.PriorityKeywords, text, aria, testID, placeholder) {
			return
		}

		selector := bestSelector(attr(el, "id"), testID, aria, placeholder, text)
		if selector == "" || seen[selector] {
			return
		}
		seen[selector] = true

		result = append(result, entity.UIElement{
			ID:         fmt.Sprintf("ui-%04d", len(result)),
			Type:       typ,
			Text:       truncate(text, 120),
			AriaLabel:  firstNonEmpty(aria, attr(el, "title"), placeholder),
			Role:       attr(el, "role"),
			TestID:     testID,
			InViewport: inViewport,
			Selector:   selector,
		})
	}

	for _, g := range extractGroups {
		els, err := page.Elements(g.css)
		if err != nil {
			continue
		}
		for _, el := range els {
			add(el, g.typ)
		}
	}
	return result, nil
}

func matchesKeywords(keywords []string, fields ...string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), kw) {
				return true
			}
		}
	}
	return false
}

// bestSelector prefers stable hooks over visible text.
func bestSelector(id, testID, aria, placeholder, text string) string {
	switch {
	case testID != "":
		return fmt.Sprintf("[data-testid=%s]", cssString(testID))
	case id != "" && !strings.ContainsAny(id, " \"'"):
		return "#" + id
	case aria != "":
		return fmt.Sprintf("[aria-label=%s]", cssString(aria))
	case placeholder != "":
		return fmt.Sprintf("[placeholder=%s]", cssString(placeholder))
	case text != "" && len(text) <= 60:
		return "text=" + text
	}
	return ""
}

func attr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
