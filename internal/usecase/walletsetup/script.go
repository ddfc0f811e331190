package walletsetup

import (
	"context"
	"strings"
	"time"

	"github.com/tyler-smith/go-bip39"
	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

// Error is the class of setup errors. A failed mandatory step is fatal for
// provisioning.
var Error = errs.Class("walletsetup")

const (
	ScriptName = "metamask-import"

	minPasswordLength = 8
)

type Options struct {
	// ProbeTimeout bounds the existence check of optional steps.
	ProbeTimeout time.Duration
	// ActionTimeout bounds each click or fill.
	ActionTimeout time.Duration
	// CompletionTimeout bounds the wait for the post-import screen, which
	// appears only after the vault has been created.
	CompletionTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		ProbeTimeout:      time.Second,
		ActionTimeout:     10 * time.Second,
		CompletionTimeout: 15 * time.Second,
	}
}

// Script is the onboarding sequence that turns a fresh extension install
// into an imported, unlocked wallet.
type Script struct {
	cfg     entity.WalletSetupConfig
	network NetworkAdder
	opts    Options
	logger  output.LoggerPort
	steps   []Step
}

// New builds the script for cfg. network may be nil, in which case the
// add-network step is always skipped.
func New(cfg entity.WalletSetupConfig, network NetworkAdder, opts Options, logger output.LoggerPort) *Script {
	def := DefaultOptions()
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = def.ProbeTimeout
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = def.ActionTimeout
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = def.CompletionTimeout
	}
	s := &Script{
		cfg:     cfg,
		network: network,
		opts:    opts,
		logger:  logger.Named("walletsetup"),
	}
	s.steps = s.buildSteps()
	return s
}

func (s *Script) Name() string { return ScriptName }
func (s *Script) Hash() string { return s.cfg.Hash() }

func (s *Script) Steps() []Step {
	return append([]Step(nil), s.steps...)
}

// Validate checks the credentials before any UI is touched.
func Validate(cfg entity.WalletSetupConfig) error {
	if err := cfg.Validate(); err != nil {
		return Error.Wrap(err)
	}
	words := cfg.SeedWords()
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return Error.New("seed phrase has %d words, want 12, 15, 18, 21 or 24", len(words))
	}
	if !bip39.IsMnemonicValid(strings.Join(words, " ")) {
		return Error.New("seed phrase is not a valid BIP-39 mnemonic")
	}
	if len(cfg.Password()) < minPasswordLength {
		return Error.New("wallet password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Run executes the steps in order on the extension's onboarding page. The
// report covers every step that was reached, including on failure.
func (s *Script) Run(ctx context.Context, page output.UIPage) (entity.SetupReport, error) {
	report := entity.SetupReport{Script: ScriptName, Hash: s.Hash()}

	if err := Validate(s.cfg); err != nil {
		return report, err
	}

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return report, Error.New("step %q: %w", step.Name, err)
		}

		res := s.runStep(ctx, page, step)
		report.Results = append(report.Results, res)

		log := s.logger.WithFields(map[string]any{
			"step":     res.Name,
			"outcome":  string(res.Outcome),
			"duration": res.Duration,
		})
		switch {
		case res.Outcome != entity.StepFailed:
			log.Info("setup step finished")
		case step.Optional:
			log.Warn("optional setup step failed", "error", res.Err)
		default:
			log.Error("setup step failed", "error", res.Err)
			return report, Error.New("step %q: %w", step.Name, res.Err)
		}
	}
	return report, nil
}

func (s *Script) runStep(ctx context.Context, page output.UIPage, step Step) (res entity.StepResult) {
	start := time.Now()
	res = entity.StepResult{Name: step.Name, Optional: step.Optional}
	defer func() { res.Duration = time.Since(start) }()

	switch {
	case step.skip != nil && step.skip():
		res.Outcome = entity.StepSkipped
		return res
	case step.probe != nil:
		timeout := step.probeTimeout
		if timeout <= 0 {
			timeout = s.opts.ProbeTimeout
		}
		if !page.Exists(ctx, *step.probe, timeout) {
			res.Outcome = entity.StepSkipped
			return res
		}
	}

	if err := step.run(ctx, page); err != nil {
		res.Outcome, res.Err = entity.StepFailed, err
		return res
	}
	res.Outcome = entity.StepPerformed
	return res
}
