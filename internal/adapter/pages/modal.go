package pages

import (
	"context"
	"fmt"
	"time"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

// Wallets offered by the connect modal.
var Wallets = []string{"Rainbow", "Coinbase Wallet", "MetaMask", "WalletConnect", "Rabby Wallet", "Phantom"}

// QRWallets are the wallets that answer with a QR connection code.
var QRWallets = []string{"Rainbow", "Coinbase Wallet", "MetaMask", "WalletConnect"}

// ConnectWalletModal is the dialog listing the wallets a visitor can
// connect with.
type ConnectWalletModal struct {
	page output.UIPage

	Dialog             Locator
	CancelButton       Locator
	AgreeAndProceed    Locator
	CloseIcon          Locator
	Title              Locator
	WhatIsAWalletTitle Locator
	GetAWalletButton   Locator
	LearnMoreLink      Locator
}

func NewConnectWalletModal(page output.UIPage) *ConnectWalletModal {
	dialog := NewLocator(page, entity.Role("dialog", ""))
	return &ConnectWalletModal{
		page:               page,
		Dialog:             dialog,
		CancelButton:       dialog.Locate(entity.Role("button", "Cancel")),
		AgreeAndProceed:    dialog.Locate(entity.Role("button", "Agree And Proceed")),
		CloseIcon:          dialog.Locate(entity.CSS(".absolute > path")),
		Title:              dialog.Locate(entity.Text("Connect a Wallet")),
		WhatIsAWalletTitle: dialog.Locate(entity.Text("What is a Wallet?")),
		GetAWalletButton:   dialog.Locate(entity.Role("button", "Get a Wallet")),
		LearnMoreLink:      dialog.Locate(entity.Role("link", "Learn More")),
	}
}

// WalletOption is the button that picks wallet.
func (m *ConnectWalletModal) WalletOption(wallet string) Locator {
	return NewLocator(m.page, entity.Role("button", wallet))
}

// QRPrompt is the text shown next to the QR code once wallet is picked.
func (m *ConnectWalletModal) QRPrompt(wallet string) Locator {
	text := fmt.Sprintf("Scan with %s", wallet)
	if wallet == "WalletConnect" {
		text = "Scan with your phone"
	}
	return NewLocator(m.page, entity.Text(text))
}

func (m *ConnectWalletModal) WaitForOpen(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := m.Dialog.WaitVisible(ctx, timeout); err != nil {
		return Error.New("connect wallet modal did not open: %w", err)
	}
	return nil
}

func (m *ConnectWalletModal) IsOpen(ctx context.Context) bool {
	return m.Dialog.IsVisible(ctx)
}

func (m *ConnectWalletModal) Agree(ctx context.Context) error {
	if err := m.AgreeAndProceed.Click(ctx); err != nil {
		return Error.New("agree and proceed: %w", err)
	}
	return nil
}

func (m *ConnectWalletModal) Close(ctx context.Context) error {
	if err := m.CloseIcon.Click(ctx); err != nil {
		return Error.New("close connect wallet modal: %w", err)
	}
	return nil
}

// SelectWallet clicks the wallet option and waits for its QR prompt.
func (m *ConnectWalletModal) SelectWallet(ctx context.Context, wallet string) error {
	if err := m.WalletOption(wallet).Click(ctx); err != nil {
		return Error.New("select %s: %w", wallet, err)
	}
	if err := m.QRPrompt(wallet).WaitVisible(ctx, DefaultTimeout); err != nil {
		return Error.New("%s QR prompt: %w", wallet, err)
	}
	return nil
}
