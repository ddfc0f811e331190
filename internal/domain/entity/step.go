package entity

import "time"

type StepOutcome string

const (
	StepPerformed StepOutcome = "performed"
	StepSkipped   StepOutcome = "skipped"
	StepFailed    StepOutcome = "failed"
)

type StepResult struct {
	Name     string
	Optional bool
	Outcome  StepOutcome
	Err      error
	Duration time.Duration
}

type SetupReport struct {
	Script  string
	Hash    string
	Results []StepResult
}

func (r SetupReport) Count(outcome StepOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

func (r SetupReport) Outcome(step string) (StepOutcome, bool) {
	for _, res := range r.Results {
		if res.Name == step {
			return res.Outcome, true
		}
	}
	return "", false
}
