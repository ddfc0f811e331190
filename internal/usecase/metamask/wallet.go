package metamask

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

var (
	// Error is the class of wallet prompt errors. They fail the current test
	// only.
	Error = errs.Class("metamask")

	ErrPromptTimeout     = errors.New("wallet prompt timed out")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

const (
	DefaultPromptTimeout   = 30 * time.Second
	DefaultFollowUpTimeout = 3 * time.Second
	probeInterval          = 250 * time.Millisecond
)

type Options struct {
	Password      string
	PromptTimeout time.Duration
	// FollowUpTimeout bounds the wait for optional second screens.
	FollowUpTimeout time.Duration
	// Verifier, when set, checks a network's RPC endpoint before it is added.
	Verifier output.ChainVerifier
}

// Wallet drives the extension's own UI: its confirmation popups and
// settings screens.
type Wallet struct {
	ext    output.ExtensionContext
	opts   Options
	logger output.LoggerPort
}

func New(ext output.ExtensionContext, opts Options, logger output.LoggerPort) *Wallet {
	if opts.PromptTimeout <= 0 {
		opts.PromptTimeout = DefaultPromptTimeout
	}
	if opts.FollowUpTimeout <= 0 {
		opts.FollowUpTimeout = DefaultFollowUpTimeout
	}
	return &Wallet{ext: ext, opts: opts, logger: logger.Named("metamask")}
}

func describe(candidates []entity.Selector) string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

// waitAny polls the candidates until one is visible and returns it.
func waitAny(ctx context.Context, page output.UIPage, candidates []entity.Selector, timeout time.Duration) (entity.Selector, bool) {
	deadline := time.Now().Add(timeout)
	for {
		for _, sel := range candidates {
			if page.IsVisible(ctx, sel, 0) {
				return sel, true
			}
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			return entity.Selector{}, false
		}
		select {
		case <-ctx.Done():
		case <-time.After(probeInterval):
		}
	}
}

// clickAny clicks the first visible candidate, or fails with a timeout
// error that names the operation, the candidates and the bound.
func (w *Wallet) clickAny(ctx context.Context, op string, page output.UIPage, candidates []entity.Selector, timeout time.Duration) error {
	sel, ok := waitAny(ctx, page, candidates, timeout)
	if !ok {
		return Error.New("%s: %w: none of [%s] visible within %s", op, ErrPromptTimeout, describe(candidates), timeout)
	}
	if err := page.Click(ctx, sel, timeout); err != nil {
		return Error.New("%s: click %s: %w", op, sel, err)
	}
	w.logger.Debug("prompt button clicked", "op", op, "selector", sel.String())
	return nil
}

func (w *Wallet) notification(ctx context.Context, op string) (output.UIPage, error) {
	page, err := w.ext.NotificationPage(ctx, w.opts.PromptTimeout)
	if err != nil {
		return nil, Error.New("%s: %w: notification page did not open within %s: %v", op, ErrPromptTimeout, w.opts.PromptTimeout, err)
	}
	return page, nil
}

func (w *Wallet) prompt(ctx context.Context, op string, candidates []entity.Selector) error {
	page, err := w.notification(ctx, op)
	if err != nil {
		return err
	}
	if err := w.clickAny(ctx, op, page, candidates, w.opts.PromptTimeout); err != nil {
		return err
	}
	w.logger.Info("wallet prompt handled", "op", op)
	return nil
}

// ConnectToDapp approves a pending connection request. Older releases split
// it into an account selection screen and a permissions screen, each with
// its own confirm button.
func (w *Wallet) ConnectToDapp(ctx context.Context) error {
	const op = "connect"
	page, err := w.notification(ctx, op)
	if err != nil {
		return err
	}
	if err := w.clickAny(ctx, op, page, confirmCandidates, w.opts.PromptTimeout); err != nil {
		return err
	}
	// the clicked button may linger while a single screen popup closes
	if sel, ok := waitAny(ctx, page, confirmCandidates, w.opts.FollowUpTimeout); ok {
		if err := page.Click(ctx, sel, w.opts.PromptTimeout); err != nil {
			w.logger.Warn("confirm permissions screen failed", "selector", sel.String(), "error", err)
		}
	}
	w.logger.Info("wallet prompt handled", "op", op)
	return nil
}

// ApproveTransaction confirms a pending transaction. When the account cannot
// pay for it the request is cancelled and ErrInsufficientFunds is returned,
// leaving the wallet without a pending confirmation.
func (w *Wallet) ApproveTransaction(ctx context.Context) error {
	const op = "approve transaction"
	page, err := w.notification(ctx, op)
	if err != nil {
		return err
	}
	if _, ok := waitAny(ctx, page, confirmCandidates, w.opts.PromptTimeout); !ok {
		return Error.New("%s: %w: none of [%s] visible within %s", op, ErrPromptTimeout, describe(confirmCandidates), w.opts.PromptTimeout)
	}
	if sel, ok := waitAny(ctx, page, insufficientFundsIndicators, 0); ok {
		if err := w.clickAny(ctx, op, page, cancelCandidates, w.opts.PromptTimeout); err != nil {
			w.logger.Warn("cancel unaffordable transaction failed", "error", err)
		}
		return Error.New("%s: %w: %s", op, ErrInsufficientFunds, sel)
	}
	if err := w.clickAny(ctx, op, page, confirmCandidates, w.opts.PromptTimeout); err != nil {
		return err
	}
	w.logger.Info("wallet prompt handled", "op", op)
	return nil
}

func (w *Wallet) RejectTransaction(ctx context.Context) error {
	return w.prompt(ctx, "reject transaction", cancelCandidates)
}

// ConfirmSignature signs a pending request. Typed-data requests keep the
// sign button disabled until the message has been scrolled through.
func (w *Wallet) ConfirmSignature(ctx context.Context) error {
	const op = "confirm signature"
	page, err := w.notification(ctx, op)
	if err != nil {
		return err
	}
	if page.IsVisible(ctx, signatureScrollButton, time.Second) {
		if err := page.Click(ctx, signatureScrollButton, w.opts.PromptTimeout); err != nil {
			w.logger.Warn("scroll to end of signature request failed", "error", err)
		}
	}
	if err := w.clickAny(ctx, op, page, signCandidates, w.opts.PromptTimeout); err != nil {
		return err
	}
	w.logger.Info("wallet prompt handled", "op", op)
	return nil
}

func (w *Wallet) RejectSignature(ctx context.Context) error {
	return w.prompt(ctx, "reject signature", rejectSignatureCandidates)
}

// Unlock enters the password when the extension shows its lock screen.
// An already unlocked wallet is left alone.
func (w *Wallet) Unlock(ctx context.Context) error {
	page, err := w.ext.OpenExtensionPage(ctx, "home.html", w.opts.PromptTimeout)
	if err != nil {
		return Error.New("unlock: %w", err)
	}
	return w.unlockOn(ctx, page)
}

func (w *Wallet) unlockOn(ctx context.Context, page output.UIPage) error {
	if !page.IsVisible(ctx, unlockPassword, 2*time.Second) {
		return nil
	}
	if w.opts.Password == "" {
		return Error.New("unlock: wallet is locked and no password is configured")
	}
	if err := page.Fill(ctx, unlockPassword, w.opts.Password, w.opts.PromptTimeout); err != nil {
		return Error.New("unlock: enter password: %w", err)
	}
	if err := page.Click(ctx, unlockSubmit, w.opts.PromptTimeout); err != nil {
		return Error.New("unlock: submit: %w", err)
	}
	if err := page.WaitHidden(ctx, unlockPassword, w.opts.PromptTimeout); err != nil {
		return Error.New("unlock: lock screen still shown: %w", err)
	}
	w.logger.Info("wallet unlocked")
	return nil
}

// AddNetwork registers network through the extension's settings screen and
// switches to it.
func (w *Wallet) AddNetwork(ctx context.Context, network entity.NetworkSpec) error {
	if err := network.Validate(); err != nil {
		return Error.New("add network: %w", err)
	}
	if w.opts.Verifier != nil {
		if err := w.opts.Verifier.VerifyChainID(ctx, network.RPCURL, network.ChainID); err != nil {
			return Error.New("add network %q: %w", network.Name, err)
		}
	}

	page, err := w.ext.OpenExtensionPage(ctx, addNetworkPath, w.opts.PromptTimeout)
	if err != nil {
		return Error.New("add network: open settings: %w", err)
	}
	if err := w.unlockOn(ctx, page); err != nil {
		return err
	}

	fields := []struct {
		sel   entity.Selector
		value string
	}{
		{networkNameInput, network.Name},
		{networkRPCInput, network.RPCURL},
		{networkChainIDInput, strconv.FormatInt(network.ChainID, 10)},
		{networkSymbolInput, network.CurrencySymbol()},
	}
	if network.ExplorerURL != "" {
		fields = append(fields, struct {
			sel   entity.Selector
			value string
		}{networkExplorerInput, network.ExplorerURL})
	}
	for _, f := range fields {
		if err := page.Fill(ctx, f.sel, f.value, w.opts.PromptTimeout); err != nil {
			return Error.New("add network: fill %s: %w", f.sel, err)
		}
	}

	if err := w.clickAny(ctx, "add network", page, networkSaveCandidates, w.opts.PromptTimeout); err != nil {
		return err
	}
	if sel, ok := waitAny(ctx, page, networkSwitchCandidates, w.opts.FollowUpTimeout); ok {
		if err := page.Click(ctx, sel, w.opts.PromptTimeout); err != nil {
			w.logger.Warn("switch to new network failed", "network", network.Name, "error", err)
		}
	}
	w.logger.Info("network added", "network", network.Name, "chain_id", network.ChainID)
	return nil
}
