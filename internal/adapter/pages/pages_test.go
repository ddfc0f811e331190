package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-e2e/internal/testutil/fakebrowser"
)

const baseURL = "https://spaace.io/"

func TestBasePage_Navigate(t *testing.T) {
	ctx := context.Background()
	page := fakebrowser.NewPage("about:blank")

	require.NoError(t, NewBattlePassPage(page, baseURL).Navigate(ctx))
	assert.Equal(t, "https://spaace.io/battle-pass/home", page.URL())

	home := NewHomePage(page, baseURL)
	require.NoError(t, home.Navigate(ctx))
	assert.Equal(t, "https://spaace.io/", page.URL())

	require.NoError(t, home.Navigate(ctx, "/collections"))
	assert.Equal(t, "https://spaace.io/collections", page.URL())

	require.NoError(t, home.Navigate(ctx, "https://example.org/x"))
	assert.Equal(t, "https://example.org/x", page.URL())
}

func TestBasePage_NavigateError(t *testing.T) {
	page := fakebrowser.NewPage("about:blank")
	page.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	err := NewHomePage(page, baseURL).Navigate(context.Background())
	require.Error(t, err)
	assert.True(t, Error.Has(err))
	assert.Contains(t, err.Error(), "https://spaace.io/")
}

func TestHome_ConnectFlow(t *testing.T) {
	ctx := context.Background()
	page := fakebrowser.NewPage(baseURL)
	home := NewHomePage(page, baseURL)

	page.Add(home.ConnectWalletButton.Selector(), &fakebrowser.Element{
		OnClick: func(p *fakebrowser.Page) { p.Show(home.Dialog.Selector()) },
	})
	page.Add(home.AgreeAndProceed.Selector(), &fakebrowser.Element{
		OnClick: func(p *fakebrowser.Page) { p.Show(home.GoToYourWalletBox.Selector()) },
	})

	assert.False(t, home.Dialog.IsVisible(ctx))
	require.NoError(t, home.ConnectWalletButton.Click(ctx))
	require.NoError(t, home.Dialog.WaitVisible(ctx, 5*time.Second))
	require.NoError(t, home.AgreeAndProceed.Click(ctx))
	assert.True(t, home.GoToYourWalletBox.IsVisible(ctx))
}

func TestHeader_LocatorsAreScoped(t *testing.T) {
	h := NewHeader(fakebrowser.NewPage(baseURL))

	for name, l := range h.Essentials() {
		assert.Contains(t, l.String(), `css="header.sticky"`, name)
	}
	for name, l := range h.RewardsItems() {
		assert.Contains(t, l.String(), `css="header.sticky" >> role=link`, name)
	}
	assert.Equal(t,
		`css="header.sticky" >> role=list >> text="Rewards"[exact] >> xpath=".."`,
		h.RewardsDropdown.String())
	assert.Equal(t, `css="header.sticky" >> css="a[href=\"/\"]"`, h.LogoLink.String())
}

func TestHeader_RewardsDropdown(t *testing.T) {
	ctx := context.Background()
	page := fakebrowser.NewPage(baseURL)
	h := NewHeader(page)

	page.Add(h.RewardsDropdown.Selector(), &fakebrowser.Element{
		OnClick: func(p *fakebrowser.Page) {
			for _, l := range h.RewardsItems() {
				p.Show(l.Selector())
			}
		},
	})

	require.NoError(t, h.ClickRewardsDropdown(ctx))
	for name, l := range h.RewardsItems() {
		assert.True(t, l.IsVisible(ctx), name)
	}
}

func TestHeader_ClickConnectWalletMissing(t *testing.T) {
	err := NewHeader(fakebrowser.NewPage(baseURL)).ClickConnectWallet(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fakebrowser.ErrTimeout)
}

func TestModal_OpenAgreeClose(t *testing.T) {
	ctx := context.Background()
	page := fakebrowser.NewPage(baseURL)
	market := NewMarketplacePage(page, baseURL)
	modal := market.Modal

	page.Add(market.Header.ConnectWalletButton.Selector(), &fakebrowser.Element{
		OnClick: func(p *fakebrowser.Page) { p.Show(modal.Dialog.Selector()) },
	})
	page.Add(modal.AgreeAndProceed.Selector(), &fakebrowser.Element{
		OnClick: func(p *fakebrowser.Page) { p.Show(modal.Title.Selector()) },
	})
	page.Add(modal.CloseIcon.Selector(), &fakebrowser.Element{
		OnClick: func(p *fakebrowser.Page) { p.Remove(modal.Dialog.Selector()) },
	})

	require.Error(t, modal.WaitForOpen(ctx, time.Second))

	require.NoError(t, market.Header.ClickConnectWallet(ctx))
	require.NoError(t, modal.WaitForOpen(ctx, 0))
	assert.True(t, modal.IsOpen(ctx))

	require.NoError(t, modal.Agree(ctx))
	assert.True(t, modal.Title.IsVisible(ctx))

	require.NoError(t, modal.Close(ctx))
	assert.False(t, modal.IsOpen(ctx))
	assert.NoError(t, modal.Dialog.WaitHidden(ctx, time.Second))
}

func TestModal_QRPrompt(t *testing.T) {
	modal := NewConnectWalletModal(fakebrowser.NewPage(baseURL))

	assert.Equal(t, `text="Scan with MetaMask"`, modal.QRPrompt("MetaMask").String())
	assert.Equal(t, `text="Scan with Coinbase Wallet"`, modal.QRPrompt("Coinbase Wallet").String())
	assert.Equal(t, `text="Scan with your phone"`, modal.QRPrompt("WalletConnect").String())
	assert.Subset(t, Wallets, QRWallets)
}

func TestModal_SelectWallet(t *testing.T) {
	ctx := context.Background()
	page := fakebrowser.NewPage(baseURL)
	modal := NewConnectWalletModal(page)

	page.Add(modal.WalletOption("Rainbow").Selector(), &fakebrowser.Element{
		OnClick: func(p *fakebrowser.Page) { p.Show(modal.QRPrompt("Rainbow").Selector()) },
	})
	page.Show(modal.WalletOption("Phantom").Selector())

	require.NoError(t, modal.SelectWallet(ctx, "Rainbow"))

	err := modal.SelectWallet(ctx, "Phantom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Phantom QR prompt")
}

type recordingPrompts struct {
	calls []string
	err   error
}

func (r *recordingPrompts) record(name string) error {
	r.calls = append(r.calls, name)
	return r.err
}

func (r *recordingPrompts) ConnectToDapp(context.Context) error      { return r.record("connect") }
func (r *recordingPrompts) ApproveTransaction(context.Context) error { return r.record("approve") }
func (r *recordingPrompts) RejectTransaction(context.Context) error  { return r.record("reject") }
func (r *recordingPrompts) ConfirmSignature(context.Context) error   { return r.record("sign") }
func (r *recordingPrompts) RejectSignature(context.Context) error    { return r.record("reject-signature") }

func TestWalletPage_ConnectAndDisconnect(t *testing.T) {
	ctx := context.Background()
	page := fakebrowser.NewPage(baseURL)
	prompts := &recordingPrompts{}
	w := NewWalletPage(page, baseURL, prompts)

	page.Show(w.ConnectWalletButton.Selector())
	page.Add(w.MenuButton.Selector(), nil)
	page.Add(w.DisconnectButton.Selector(), &fakebrowser.Element{
		OnClick: func(p *fakebrowser.Page) { p.Remove(w.AddressDisplay.Selector()) },
	})

	require.NoError(t, w.ConnectWallet(ctx))
	assert.Equal(t, []string{"connect"}, prompts.calls)

	page.Add(w.AddressDisplay.Selector(), &fakebrowser.Element{Text: "  0xf39f...2266 \n"})
	assert.True(t, w.IsWalletConnected(ctx))
	addr, err := w.WalletAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xf39f...2266", addr)

	require.NoError(t, w.DisconnectWallet(ctx))
	assert.False(t, w.IsWalletConnected(ctx))
	assert.True(t, w.IsConnectButtonVisible(ctx, time.Second))
}

func TestWalletPage_ConnectRejected(t *testing.T) {
	page := fakebrowser.NewPage(baseURL)
	prompts := &recordingPrompts{err: errors.New("no confirmation popup")}
	w := NewWalletPage(page, baseURL, prompts)
	page.Show(w.ConnectWalletButton.Selector())

	err := w.ConnectWallet(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approve connection")
	assert.Contains(t, err.Error(), "no confirmation popup")
}

func TestWalletPage_Delegates(t *testing.T) {
	ctx := context.Background()
	prompts := &recordingPrompts{}
	w := NewWalletPage(fakebrowser.NewPage(baseURL), baseURL, prompts)

	require.NoError(t, w.ApproveTransaction(ctx))
	require.NoError(t, w.RejectTransaction(ctx))
	require.NoError(t, w.SignMessage(ctx))
	require.NoError(t, w.RejectSignature(ctx))
	assert.Equal(t, []string{"approve", "reject", "sign", "reject-signature"}, prompts.calls)

	_, err := w.WalletBalance(ctx)
	assert.Error(t, err)
}
