package pages

import (
	"context"
	"strings"
	"time"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

// WalletPrompts answers the wallet extension's confirmation popups.
type WalletPrompts interface {
	ConnectToDapp(ctx context.Context) error
	ApproveTransaction(ctx context.Context) error
	RejectTransaction(ctx context.Context) error
	ConfirmSignature(ctx context.Context) error
	RejectSignature(ctx context.Context) error
}

// WalletPage drives the dApp side of the wallet widgets and hands every
// extension prompt to WalletPrompts.
type WalletPage struct {
	BasePage
	prompts WalletPrompts

	ConnectWalletButton Locator
	AddressDisplay      Locator
	BalanceDisplay      Locator
	MenuButton          Locator
	DisconnectButton    Locator
	Header              Locator
}

func NewWalletPage(page output.UIPage, baseURL string, prompts WalletPrompts) *WalletPage {
	base := NewBasePage(page, baseURL, "/")
	return &WalletPage{
		BasePage:            base,
		prompts:             prompts,
		ConnectWalletButton: base.Locator(entity.Role("button", "Connect Wallet")),
		AddressDisplay:      base.Locator(entity.TestID("wallet-address")),
		BalanceDisplay:      base.Locator(entity.TestID("wallet-balance")),
		MenuButton:          base.Locator(entity.TestID("wallet-menu")),
		DisconnectButton:    base.Locator(entity.Role("button", "Disconnect")),
		Header:              base.Locator(entity.CSS("header")),
	}
}

// ConnectWallet clicks the dApp connect button and approves the connection
// in the wallet.
func (w *WalletPage) ConnectWallet(ctx context.Context) error {
	if err := w.ConnectWalletButton.Click(ctx); err != nil {
		return Error.New("click connect wallet: %w", err)
	}
	if err := w.prompts.ConnectToDapp(ctx); err != nil {
		return Error.New("approve connection: %w", err)
	}
	return nil
}

func (w *WalletPage) DisconnectWallet(ctx context.Context) error {
	if err := w.MenuButton.Click(ctx); err != nil {
		return Error.New("open wallet menu: %w", err)
	}
	if err := w.DisconnectButton.Click(ctx); err != nil {
		return Error.New("click disconnect: %w", err)
	}
	return nil
}

func (w *WalletPage) WalletAddress(ctx context.Context) (string, error) {
	text, err := w.AddressDisplay.Text(ctx)
	if err != nil {
		return "", Error.New("read wallet address: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (w *WalletPage) WalletBalance(ctx context.Context) (string, error) {
	text, err := w.BalanceDisplay.Text(ctx)
	if err != nil {
		return "", Error.New("read wallet balance: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// IsWalletConnected reports whether the address widget is on screen.
func (w *WalletPage) IsWalletConnected(ctx context.Context) bool {
	return w.AddressDisplay.IsVisible(ctx)
}

func (w *WalletPage) IsConnectButtonVisible(ctx context.Context, timeout time.Duration) bool {
	return w.ConnectWalletButton.VisibleWithin(ctx, timeout)
}

func (w *WalletPage) ApproveTransaction(ctx context.Context) error {
	return w.prompts.ApproveTransaction(ctx)
}

func (w *WalletPage) RejectTransaction(ctx context.Context) error {
	return w.prompts.RejectTransaction(ctx)
}

func (w *WalletPage) SignMessage(ctx context.Context) error {
	return w.prompts.ConfirmSignature(ctx)
}

func (w *WalletPage) RejectSignature(ctx context.Context) error {
	return w.prompts.RejectSignature(ctx)
}
