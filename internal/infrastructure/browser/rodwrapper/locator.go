package rodwrapper

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	"marketplace-e2e/internal/domain/entity"
)

// roleCSS: упрощённое соответствие ARIA-ролей и тегов, достаточное для
// страниц маркетплейса и экранов кошелька.
var roleCSS = map[string]string{
	"button":      `button, [role="button"], input[type="button"], input[type="submit"]`,
	"link":        `a[href], [role="link"]`,
	"dialog":      `dialog, [role="dialog"], [role="alertdialog"]`,
	"list":        `ul, ol, [role="list"]`,
	"listitem":    `li, [role="listitem"]`,
	"heading":     `h1, h2, h3, h4, h5, h6, [role="heading"]`,
	"checkbox":    `input[type="checkbox"], [role="checkbox"]`,
	"textbox":     `input:not([type]), input[type="text"], input[type="email"], input[type="password"], input[type="search"], input[type="url"], input[type="number"], textarea, [role="textbox"]`,
	"img":         `img, [role="img"]`,
	"tooltip":     `[role="tooltip"]`,
	"menu":        `[role="menu"]`,
	"menuitem":    `[role="menuitem"]`,
	"combobox":    `select, [role="combobox"]`,
	"banner":      `header, [role="banner"]`,
	"navigation":  `nav, [role="navigation"]`,
	"progressbar": `progress, [role="progressbar"]`,
}

const accessibleNameJS = `() => {
	const clean = (s) => (s || '').replace(/\s+/g, ' ').trim();
	const aria = clean(this.getAttribute('aria-label'));
	if (aria) return aria;
	const ids = this.getAttribute('aria-labelledby');
	if (ids) {
		const text = ids.split(/\s+/).map((id) => {
			const el = document.getElementById(id);
			return el ? clean(el.innerText || el.textContent) : '';
		}).join(' ').trim();
		if (text) return text;
	}
	const text = clean(this.innerText || this.textContent);
	if (text) return text;
	return clean(this.getAttribute('title') || this.getAttribute('alt') || this.value);
}`

type queryable interface {
	Elements(selector string) (rod.Elements, error)
	ElementsX(xpath string) (rod.Elements, error)
}

func cssString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// xpathLiteral quotes s for use inside an XPath 1.0 expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

const (
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
)

// textXPath matches the deepest elements whose normalized text contains
// (or equals, when exact) text. Non-exact matching is case-insensitive.
func textXPath(prefix, text string, exact bool) string {
	norm := "normalize-space(.)"
	var cond string
	if exact {
		cond = fmt.Sprintf("%s=%s", norm, xpathLiteral(strings.Join(strings.Fields(text), " ")))
	} else {
		lowered := fmt.Sprintf("translate(%s, '%s', '%s')", norm, upperAlpha, lowerAlpha)
		cond = fmt.Sprintf("contains(%s, %s)", lowered, xpathLiteral(strings.ToLower(strings.Join(strings.Fields(text), " "))))
	}
	return fmt.Sprintf("%s*[not(self::script) and not(self::style) and not(self::head) and %s and not(.//*[%s])]", prefix, cond, cond)
}

func cssFor(sel entity.Selector) (string, bool) {
	switch sel.Kind {
	case entity.ByCSS:
		return sel.Value, true
	case entity.ByTestID:
		return fmt.Sprintf("[data-testid=%s]", cssString(sel.Value)), true
	case entity.ByPlaceholder:
		if sel.Exact {
			return fmt.Sprintf("[placeholder=%s]", cssString(sel.Value)), true
		}
		return fmt.Sprintf("[placeholder*=%s i]", cssString(sel.Value)), true
	case entity.ByRole:
		if css, ok := roleCSS[sel.Value]; ok {
			return css, true
		}
		return fmt.Sprintf("[role=%s]", cssString(sel.Value)), true
	}
	return "", false
}

func nameMatches(name, want string, exact bool) bool {
	name = strings.Join(strings.Fields(name), " ")
	want = strings.Join(strings.Fields(want), " ")
	if exact {
		return name == want
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(want))
}

// query returns every element under root matching sel, ignoring sel.Parent
// and sel.Index.
func query(root queryable, scoped bool, sel entity.Selector) (rod.Elements, error) {
	prefix := "//"
	if scoped {
		prefix = ".//"
	}

	switch sel.Kind {
	case entity.ByXPath:
		xp := sel.Value
		if scoped && strings.HasPrefix(xp, "/") {
			xp = "." + xp
		}
		return root.ElementsX(xp)
	case entity.ByText:
		return root.ElementsX(textXPath(prefix, sel.Value, sel.Exact))
	}

	css, ok := cssFor(sel)
	if !ok {
		return nil, Error.New("unsupported selector kind %q", sel.Kind)
	}
	els, err := root.Elements(css)
	if err != nil || sel.Kind != entity.ByRole {
		return els, err
	}

	// role queries only see rendered elements, like the accessibility tree
	var out rod.Elements
	for _, el := range els {
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		if sel.Name != "" {
			res, err := el.Eval(accessibleNameJS)
			if err != nil || !nameMatches(res.Value.Str(), sel.Name, sel.Exact) {
				continue
			}
		}
		out = append(out, el)
	}
	return out, nil
}

func pick(els rod.Elements, index int) *rod.Element {
	if len(els) == 0 {
		return nil
	}
	if index < 0 {
		index = len(els) + index
	}
	if index < 0 || index >= len(els) {
		return nil
	}
	return els[index]
}
