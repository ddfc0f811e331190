package pages

import (
	"context"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

// Header is the sticky site header shared by every marketplace page.
type Header struct {
	Container Locator
	LogoLink  Locator

	SellNowLink     Locator
	CollectionsLink Locator
	RewardsDropdown Locator

	// items of the rewards dropdown, visible once it is open
	ReferralsLink  Locator
	BattlePassLink Locator
	OGRewardsLink  Locator
	StakingLink    Locator
	CashbackLink   Locator

	SearchInput         Locator
	ConnectWalletButton Locator
	MobileSearchButton  Locator
	MobileMenuButton    Locator
	BannerText          Locator
}

func NewHeader(page output.UIPage) *Header {
	container := NewLocator(page, entity.CSS("header.sticky"))
	nav := container.Locate(entity.Role("list", ""))

	return &Header{
		Container: container,
		LogoLink:  container.Locate(entity.CSS(`a[href="/"]`)).First(),

		SellNowLink:     nav.Locate(entity.Text("Sell Now")),
		CollectionsLink: nav.Locate(entity.Text("Collections")),
		RewardsDropdown: nav.Locate(entity.ExactText("Rewards")).Locate(entity.XPath("..")).First(),

		ReferralsLink:  container.Locate(entity.Role("link", "Referrals")),
		BattlePassLink: container.Locate(entity.Role("link", "Battle Pass")).First(),
		OGRewardsLink:  container.Locate(entity.Role("link", "OG Rewards")),
		StakingLink:    container.Locate(entity.Role("link", "Staking")),
		CashbackLink:   container.Locate(entity.Role("link", "Cashback")),

		SearchInput:         container.Locate(entity.Placeholder("Search collections")),
		ConnectWalletButton: container.Locate(entity.Role("button", "Connect Wallet")),
		MobileSearchButton:  container.Locate(entity.CSS(`div[class~="9inch:hidden"]:has(svg[viewBox="0 0 24 24"])`)),
		MobileMenuButton:    container.Locate(entity.CSS(`div.block[class~="lg:hidden"]:has(svg[viewBox="0 0 24 24"])`)),
		BannerText:          container.Locate(entity.Text("Check your wallet for OG")),
	}
}

// Essentials lists the elements every desktop header must show.
func (h *Header) Essentials() map[string]Locator {
	return map[string]Locator{
		"container":      h.Container,
		"logo":           h.LogoLink,
		"sell now":       h.SellNowLink,
		"collections":    h.CollectionsLink,
		"rewards":        h.RewardsDropdown,
		"search":         h.SearchInput,
		"connect wallet": h.ConnectWalletButton,
		"banner":         h.BannerText,
	}
}

// RewardsItems lists the links revealed by the rewards dropdown.
func (h *Header) RewardsItems() map[string]Locator {
	return map[string]Locator{
		"referrals":   h.ReferralsLink,
		"battle pass": h.BattlePassLink,
		"og rewards":  h.OGRewardsLink,
		"staking":     h.StakingLink,
		"cashback":    h.CashbackLink,
	}
}

func (h *Header) ClickRewardsDropdown(ctx context.Context) error {
	if err := h.RewardsDropdown.Click(ctx); err != nil {
		return Error.New("open rewards dropdown: %w", err)
	}
	return nil
}

func (h *Header) ClickConnectWallet(ctx context.Context) error {
	if err := h.ConnectWalletButton.Click(ctx); err != nil {
		return Error.New("click connect wallet: %w", err)
	}
	return nil
}
