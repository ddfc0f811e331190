package prompts

import (
	"bytes"
	"text/template"

	"marketplace-e2e/internal/application/port/output"
)

type ToolInfo struct {
	Name        string
	Description string
}

type StepPromptData struct {
	BaseURL string
	Tools   []ToolInfo
}

// GenerateStepPrompt renders the system prompt of the AI step for the tools
// in registry.
func GenerateStepPrompt(baseTemplate, baseURL string, registry output.ToolRegistry) (string, error) {
	data := StepPromptData{BaseURL: baseURL}
	for _, t := range registry.All() {
		data.Tools = append(data.Tools, ToolInfo{
			Name:        t.Name().String(),
			Description: t.Description(),
		})
	}

	tmpl, err := template.New("aistep").Option("missingkey=error").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
