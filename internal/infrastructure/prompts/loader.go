package prompts

import (
	_ "embed"
)

//go:embed aistep.txt
var StepPrompt string
