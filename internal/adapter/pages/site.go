package pages

import (
	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

const BattlePassPath = "/battle-pass/home"

type HomePage struct {
	BasePage

	ConnectWalletButton Locator
	Dialog              Locator
	AgreeAndProceed     Locator
	GoToYourWalletBox   Locator
}

func NewHomePage(page output.UIPage, baseURL string) *HomePage {
	base := NewBasePage(page, baseURL, "/")
	return &HomePage{
		BasePage:            base,
		ConnectWalletButton: base.Locator(entity.Role("button", "Connect Wallet")),
		Dialog:              base.Locator(entity.Role("dialog", "")),
		AgreeAndProceed:     base.Locator(entity.Role("button", "Agree and proceed")),
		GoToYourWalletBox:   base.Locator(entity.Text("Please go to your wallet and sign")),
	}
}

type MarketplacePage struct {
	BasePage
	Header *Header
	Modal  *ConnectWalletModal
}

func NewMarketplacePage(page output.UIPage, baseURL string) *MarketplacePage {
	return &MarketplacePage{
		BasePage: NewBasePage(page, baseURL, "/"),
		Header:   NewHeader(page),
		Modal:    NewConnectWalletModal(page),
	}
}

type BattlePassPage struct {
	BasePage
	Header *Header
	Modal  *ConnectWalletModal
}

func NewBattlePassPage(page output.UIPage, baseURL string) *BattlePassPage {
	return &BattlePassPage{
		BasePage: NewBasePage(page, baseURL, BattlePassPath),
		Header:   NewHeader(page),
		Modal:    NewConnectWalletModal(page),
	}
}
