package aistep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/errs"

	"marketplace-e2e/internal/adapter/tool"
	"marketplace-e2e/internal/application/port/input"
	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/application/service"
	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/infrastructure/prompts"
)

var (
	// Error is the class of AI step errors.
	Error = errs.Class("aistep")

	ErrStepFailed = errors.New("instruction not completed")
)

var _ input.TaskExecutor = (*Runner)(nil)

const (
	defaultMaxIterations = 12
	maxObservationLen    = 20000

	donePrefix   = "DONE:"
	failedPrefix = "FAILED:"
)

type Options struct {
	BaseURL       string
	MaxIterations int
	ActionTimeout time.Duration
}

// Runner carries out natural-language instructions on one page through a
// bounded tool-calling loop.
type Runner struct {
	llm           output.LLMPort
	tools         output.ToolRegistry
	logger        output.LoggerPort
	systemPrompt  string
	maxIterations int
}

func New(llm output.LLMPort, page output.UIPage, opts Options, logger output.LoggerPort) (*Runner, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	registry := service.NewToolRegistry()
	tool.RegisterBrowserTools(registry, page, opts.BaseURL, opts.ActionTimeout)

	systemPrompt, err := prompts.GenerateStepPrompt(prompts.StepPrompt, opts.BaseURL, registry)
	if err != nil {
		return nil, Error.New("render prompt: %w", err)
	}
	return &Runner{
		llm:           llm,
		tools:         registry,
		logger:        logger.Named("aistep"),
		systemPrompt:  systemPrompt,
		maxIterations: opts.MaxIterations,
	}, nil
}

// Step runs instruction and returns the model's closing sentence. A step
// the model reports as failed returns ErrStepFailed.
func (r *Runner) Step(ctx context.Context, instruction string) (string, error) {
	res, err := r.Execute(ctx, instruction)
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(res.FinalAnswer)
	switch {
	case strings.HasPrefix(answer, donePrefix):
		return strings.TrimSpace(strings.TrimPrefix(answer, donePrefix)), nil
	case strings.HasPrefix(answer, failedPrefix):
		return "", Error.New("%q: %w: %s", instruction, ErrStepFailed, strings.TrimSpace(strings.TrimPrefix(answer, failedPrefix)))
	}
	// models do not always follow the answer format; no explicit failure
	// counts as success
	return answer, nil
}

func (r *Runner) Execute(ctx context.Context, task string) (*input.ExecuteResult, error) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: r.systemPrompt},
		{Role: entity.RoleUser, Content: task},
	}
	toolDefs := r.tools.Definitions()

	for iteration := 1; iteration <= r.maxIterations; iteration++ {
		r.logger.Debug("starting iteration", "iteration", iteration)

		resp, err := r.llm.Chat(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: 0.0,
		})
		if err != nil {
			return nil, Error.New("llm request: %w", err)
		}

		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			r.logger.Info("instruction finished", "task", task, "iterations", iteration)
			return &input.ExecuteResult{
				FinalAnswer: resp.Message.Content,
				Iterations:  iteration,
			}, nil
		}

		for _, tc := range resp.Message.ToolCalls {
			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    r.executeTool(ctx, tc),
			})
		}
	}

	return nil, Error.New("%q: max iterations (%d) exceeded", task, r.maxIterations)
}

func (r *Runner) executeTool(ctx context.Context, tc entity.ToolCall) string {
	t, ok := r.tools.Get(entity.ToolName(tc.Name))
	if !ok {
		r.logger.Warn("unknown tool called", "name", tc.Name)
		return fmt.Sprintf("Error: unknown tool '%s'", tc.Name)
	}

	r.logger.Info("executing tool", "name", tc.Name, "args", tc.Arguments)

	result, err := t.Execute(ctx, tc.Arguments)
	if err != nil {
		r.logger.Warn("tool execution failed", "name", tc.Name, "error", err)
		return "Error: " + err.Error()
	}

	if len(result) > maxObservationLen {
		result = result[:maxObservationLen] + "\n... (truncated)"
	}
	return result
}
