package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

const DefaultActionTimeout = 10 * time.Second

func objectSchema(required []string, props map[string]interface{}) map[string]interface{} {
	if props == nil {
		props = map[string]interface{}{}
	}
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func decode(args string, v interface{}) error {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

const selectorHelp = `Element selector: "text=<visible text>", "testid=<data-testid>", an XPath starting with "/", or CSS. Prefer selectors from browser_ui_summary.`

type NavigateTool struct {
	page    output.UIPage
	baseURL string
}

// NewNavigateTool resolves paths that start with "/" against baseURL.
func NewNavigateTool(page output.UIPage, baseURL string) *NavigateTool {
	return &NavigateTool{page: page, baseURL: strings.TrimRight(baseURL, "/")}
}

func (t *NavigateTool) Name() entity.ToolName { return entity.ToolBrowserNavigate }
func (t *NavigateTool) Description() string   { return "Navigates the page to a URL or site path" }
func (t *NavigateTool) Parameters() map[string]interface{} {
	return objectSchema([]string{"url"}, map[string]interface{}{
		"url": stringProp("Absolute URL or a path such as /marketplace"),
	})
}

func (t *NavigateTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		URL string `json:"url"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	target := input.URL
	if strings.HasPrefix(target, "/") && t.baseURL != "" {
		target = t.baseURL + target
	}
	if err := t.page.Navigate(ctx, target); err != nil {
		return "", err
	}
	return fmt.Sprintf("Navigated to %s", t.page.URL()), nil
}

type ClickTool struct {
	page    output.UIPage
	timeout time.Duration
}

func NewClickTool(page output.UIPage, timeout time.Duration) *ClickTool {
	return &ClickTool{page: page, timeout: timeout}
}

func (t *ClickTool) Name() entity.ToolName { return entity.ToolBrowserClick }
func (t *ClickTool) Description() string   { return "Clicks a visible element" }
func (t *ClickTool) Parameters() map[string]interface{} {
	return objectSchema([]string{"selector"}, map[string]interface{}{
		"selector": stringProp(selectorHelp),
	})
}

func (t *ClickTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	sel := entity.ParseSelector(input.Selector)
	if err := t.page.Click(ctx, sel, t.timeout); err != nil {
		return "", err
	}
	return fmt.Sprintf("Clicked %s", sel), nil
}

type FillTool struct {
	page    output.UIPage
	timeout time.Duration
}

func NewFillTool(page output.UIPage, timeout time.Duration) *FillTool {
	return &FillTool{page: page, timeout: timeout}
}

func (t *FillTool) Name() entity.ToolName { return entity.ToolBrowserFill }
func (t *FillTool) Description() string   { return "Replaces the value of an input field" }
func (t *FillTool) Parameters() map[string]interface{} {
	return objectSchema([]string{"selector", "text"}, map[string]interface{}{
		"selector": stringProp(selectorHelp),
		"text":     stringProp("Text to type"),
	})
}

func (t *FillTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
		Text     string `json:"text"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	sel := entity.ParseSelector(input.Selector)
	if err := t.page.Fill(ctx, sel, input.Text, t.timeout); err != nil {
		return "", err
	}
	return fmt.Sprintf("Filled %s", sel), nil
}

type UISummaryTool struct {
	page output.UIPage
}

func NewUISummaryTool(page output.UIPage) *UISummaryTool {
	return &UISummaryTool{page: page}
}

func (t *UISummaryTool) Name() entity.ToolName { return entity.ToolBrowserUISummary }
func (t *UISummaryTool) Description() string {
	return "Lists the visible interactive elements of the page with a selector for each"
}
func (t *UISummaryTool) Parameters() map[string]interface{} { return objectSchema(nil, nil) }

func (t *UISummaryTool) Execute(ctx context.Context, args string) (string, error) {
	content, err := t.page.Content(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(struct {
		URL      string             `json:"url"`
		Title    string             `json:"title"`
		Elements []entity.UIElement `json:"elements"`
	}{content.URL, content.Title, content.UIElements})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type PageHTMLTool struct {
	page output.UIPage
}

func NewPageHTMLTool(page output.UIPage) *PageHTMLTool {
	return &PageHTMLTool{page: page}
}

func (t *PageHTMLTool) Name() entity.ToolName { return entity.ToolBrowserPageHTML }
func (t *PageHTMLTool) Description() string {
	return "Returns the cleaned HTML of the page body, for when the element summary is not enough"
}
func (t *PageHTMLTool) Parameters() map[string]interface{} { return objectSchema(nil, nil) }

func (t *PageHTMLTool) Execute(ctx context.Context, args string) (string, error) {
	content, err := t.page.Content(ctx)
	if err != nil {
		return "", err
	}
	return content.HTML, nil
}

// RegisterBrowserTools adds every page tool to registry.
func RegisterBrowserTools(registry output.ToolRegistry, page output.UIPage, baseURL string, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	registry.Register(NewNavigateTool(page, baseURL))
	registry.Register(NewClickTool(page, timeout))
	registry.Register(NewFillTool(page, timeout))
	registry.Register(NewUISummaryTool(page))
	registry.Register(NewPageHTMLTool(page))
}
