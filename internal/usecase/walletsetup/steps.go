package walletsetup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

const (
	StepAcceptTerms        = "accept-terms"
	StepImportWallet       = "import-wallet"
	StepDeclineMetrics     = "decline-metrics"
	StepSeedPhrase         = "enter-seed-phrase"
	StepCreatePassword     = "create-password"
	StepCompleteOnboarding = "complete-onboarding"
	StepPinExtension       = "pin-extension"
	StepDismissWhatsNew    = "dismiss-whats-new"
	StepAddNetwork         = "add-network"
)

// onboarding screen hooks
var (
	termsCheckbox      = entity.TestID("onboarding-terms-checkbox")
	importWalletButton = entity.TestID("onboarding-import-wallet")
	metricsNoThanks    = entity.TestID("metametrics-no-thanks")

	srpWordCountSelect = entity.CSS(".import-srp__number-of-words-dropdown select")
	srpConfirm         = entity.TestID("import-srp-confirm")

	newPassword     = entity.TestID("create-password-new")
	confirmPassword = entity.TestID("create-password-confirm")
	passwordTerms   = entity.TestID("create-password-terms")
	passwordImport  = entity.TestID("create-password-import")

	onboardingDone = entity.TestID("onboarding-complete-done")
	pinNext        = entity.TestID("pin-extension-next")
	pinDone        = entity.TestID("pin-extension-done")
	popoverClose   = entity.TestID("popover-close")
)

func srpWord(i int) entity.Selector {
	return entity.TestID("import-srp__srp-word-" + strconv.Itoa(i))
}

// NetworkAdder registers a custom network in the wallet.
type NetworkAdder interface {
	AddNetwork(ctx context.Context, network entity.NetworkSpec) error
}

// Step is one named stage of onboarding. Optional steps carry a probe: when
// the probed element does not show up the step is skipped.
type Step struct {
	Name     string
	Optional bool

	probe        *entity.Selector
	probeTimeout time.Duration
	// skip decides from configuration alone that the step does not apply.
	skip func() bool
	run  func(ctx context.Context, page output.UIPage) error
}

func (s *Script) buildSteps() []Step {
	t := s.opts.ActionTimeout
	click := func(sel entity.Selector) func(context.Context, output.UIPage) error {
		return func(ctx context.Context, page output.UIPage) error {
			return page.Click(ctx, sel, t)
		}
	}

	return []Step{
		{Name: StepAcceptTerms, Optional: true, probe: &termsCheckbox, run: click(termsCheckbox)},
		{Name: StepImportWallet, run: click(importWalletButton)},
		{Name: StepDeclineMetrics, Optional: true, probe: &metricsNoThanks, run: click(metricsNoThanks)},
		{Name: StepSeedPhrase, run: s.enterSeedPhrase},
		{Name: StepCreatePassword, run: s.createPassword},
		{
			Name:         StepCompleteOnboarding,
			Optional:     true,
			probe:        &onboardingDone,
			probeTimeout: s.opts.CompletionTimeout,
			run:          click(onboardingDone),
		},
		{Name: StepPinExtension, Optional: true, probe: &pinNext, run: func(ctx context.Context, page output.UIPage) error {
			if err := page.Click(ctx, pinNext, t); err != nil {
				return err
			}
			return page.Click(ctx, pinDone, t)
		}},
		{Name: StepDismissWhatsNew, Optional: true, probe: &popoverClose, run: click(popoverClose)},
		{
			Name:     StepAddNetwork,
			Optional: true,
			skip:     func() bool { return !s.cfg.HasNetwork() || s.network == nil },
			run: func(ctx context.Context, _ output.UIPage) error {
				return s.network.AddNetwork(ctx, s.cfg.Network())
			},
		},
	}
}

func (s *Script) enterSeedPhrase(ctx context.Context, page output.UIPage) error {
	words := s.cfg.SeedWords()
	t := s.opts.ActionTimeout

	if len(words) != 12 {
		label := fmt.Sprintf("I have a %d-word phrase", len(words))
		if err := page.Select(ctx, srpWordCountSelect, label, t); err != nil {
			return fmt.Errorf("choose %d-word phrase: %w", len(words), err)
		}
	}
	for i, w := range words {
		if err := page.Fill(ctx, srpWord(i), w, t); err != nil {
			// the word itself is never part of the error
			return fmt.Errorf("enter word %d: %w", i+1, err)
		}
	}
	return page.Click(ctx, srpConfirm, t)
}

func (s *Script) createPassword(ctx context.Context, page output.UIPage) error {
	t := s.opts.ActionTimeout
	pw := s.cfg.Password()

	if err := page.Fill(ctx, newPassword, pw, t); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	if err := page.Fill(ctx, confirmPassword, pw, t); err != nil {
		return fmt.Errorf("confirm password: %w", err)
	}
	if err := page.Click(ctx, passwordTerms, t); err != nil {
		return fmt.Errorf("acknowledge password terms: %w", err)
	}
	return page.Click(ctx, passwordImport, t)
}
