package entity

import (
	"fmt"
	"strings"
)

type SelectorKind string

const (
	ByCSS         SelectorKind = "css"
	ByXPath       SelectorKind = "xpath"
	ByRole        SelectorKind = "role"
	ByText        SelectorKind = "text"
	ByTestID      SelectorKind = "testid"
	ByPlaceholder SelectorKind = "placeholder"
)

// Selector is a driver-independent locator. Index picks one element out of
// the matches: 0 is the first, negative values count from the end.
type Selector struct {
	Kind   SelectorKind
	Value  string
	Name   string
	Exact  bool
	Index  int
	Parent *Selector
}

func CSS(css string) Selector          { return Selector{Kind: ByCSS, Value: css} }
func XPath(xpath string) Selector      { return Selector{Kind: ByXPath, Value: xpath} }
func Text(text string) Selector        { return Selector{Kind: ByText, Value: text} }
func ExactText(text string) Selector   { return Selector{Kind: ByText, Value: text, Exact: true} }
func TestID(id string) Selector        { return Selector{Kind: ByTestID, Value: id} }
func Placeholder(text string) Selector { return Selector{Kind: ByPlaceholder, Value: text} }
func Role(role, name string) Selector  { return Selector{Kind: ByRole, Value: role, Name: name} }

func ExactRole(role, name string) Selector {
	return Selector{Kind: ByRole, Value: role, Name: name, Exact: true}
}

// Within scopes the selector to the first element matched by parent.
func (s Selector) Within(parent Selector) Selector {
	p := parent
	if s.Parent != nil {
		p = s.Parent.Within(parent)
	}
	s.Parent = &p
	return s
}

func (s Selector) First() Selector {
	s.Index = 0
	return s
}

func (s Selector) Last() Selector {
	s.Index = -1
	return s
}

func (s Selector) Nth(i int) Selector {
	s.Index = i
	return s
}

func (s Selector) String() string {
	var b strings.Builder
	if s.Parent != nil {
		b.WriteString(s.Parent.String())
		b.WriteString(" >> ")
	}
	switch s.Kind {
	case ByRole:
		fmt.Fprintf(&b, "role=%s", s.Value)
		if s.Name != "" {
			fmt.Fprintf(&b, "[name=%q]", s.Name)
		}
	default:
		fmt.Fprintf(&b, "%s=%q", s.Kind, s.Value)
	}
	if s.Exact {
		b.WriteString("[exact]")
	}
	switch {
	case s.Index < 0:
		b.WriteString(" >> last")
	case s.Index > 0:
		fmt.Fprintf(&b, " >> nth=%d", s.Index)
	}
	return b.String()
}

// ParseSelector reads the selector strings used in tool calls:
// "text=...", "testid=...", "xpath=..." (or a leading "/"), otherwise CSS.
func ParseSelector(s string) Selector {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "text="):
		return Text(strings.TrimPrefix(s, "text="))
	case strings.HasPrefix(s, "testid="):
		return TestID(strings.TrimPrefix(s, "testid="))
	case strings.HasPrefix(s, "xpath="):
		return XPath(strings.TrimPrefix(s, "xpath="))
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "("):
		return XPath(s)
	}
	return CSS(s)
}
