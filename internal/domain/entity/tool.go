package entity

type ToolName string

const (
	ToolBrowserNavigate  ToolName = "browser_navigate"
	ToolBrowserClick     ToolName = "browser_click"
	ToolBrowserFill      ToolName = "browser_fill"
	ToolBrowserUISummary ToolName = "browser_ui_summary"
	ToolBrowserPageHTML  ToolName = "browser_page_html"
)

func (t ToolName) String() string {
	return string(t)
}
