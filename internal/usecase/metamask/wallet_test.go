package metamask

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/infrastructure/logger"
	"marketplace-e2e/internal/testutil/fakebrowser"
)

func newWallet(ext *fakebrowser.ExtensionContext, opts Options) *Wallet {
	if opts.PromptTimeout == 0 {
		opts.PromptTimeout = 50 * time.Millisecond
	}
	if opts.FollowUpTimeout == 0 {
		opts.FollowUpTimeout = 10 * time.Millisecond
	}
	return New(ext, opts, logger.NewNop())
}

func withPopup(ext *fakebrowser.ExtensionContext) *fakebrowser.Page {
	popup := fakebrowser.NewPage("chrome-extension://" + ext.ID + "/notification.html")
	ext.Notification = popup
	return popup
}

type fakeVerifier struct {
	err   error
	calls int
}

func (v *fakeVerifier) VerifyChainID(ctx context.Context, rpcURL string, want int64) error {
	v.calls++
	return v.err
}

func (v *fakeVerifier) Balance(ctx context.Context, rpcURL, address string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func TestApproveTransaction_UsesFirstVisibleCandidate(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	popup := withPopup(ext)
	legacy := entity.TestID("page-container-footer-next")
	popup.Show(legacy)

	require.NoError(t, newWallet(ext, Options{}).ApproveTransaction(context.Background()))
	assert.True(t, popup.Clicked(legacy))
}

func TestApproveTransaction_InsufficientFunds(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	popup := withPopup(ext)
	confirm := entity.TestID("confirm-footer-button")
	cancel := entity.TestID("confirm-footer-cancel-button")
	popup.Show(confirm)
	popup.Show(entity.CSS(`[data-testid="confirm-footer-button"]:disabled`))
	popup.Show(cancel).OnClick = func(*fakebrowser.Page) { ext.Notification = nil }

	w := newWallet(ext, Options{})
	err := w.ApproveTransaction(context.Background())
	require.Error(t, err)
	assert.True(t, Error.Has(err))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.False(t, popup.Clicked(confirm))
	assert.Equal(t, 1, popup.Clicks(cancel))

	// the request is gone and the wallet keeps working
	assert.ErrorIs(t, w.RejectTransaction(context.Background()), ErrPromptTimeout)
	require.NoError(t, w.Unlock(context.Background()))
}

func TestRejectTransaction(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	popup := withPopup(ext)
	cancel := entity.TestID("confirm-footer-cancel-button")
	popup.Show(cancel)
	popup.Show(entity.TestID("confirm-footer-button"))

	require.NoError(t, newWallet(ext, Options{}).RejectTransaction(context.Background()))
	assert.True(t, popup.Clicked(cancel))
	assert.False(t, popup.Clicked(entity.TestID("confirm-footer-button")))
}

func TestPrompt_NoNotificationPage(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()

	err := newWallet(ext, Options{}).ApproveTransaction(context.Background())
	require.Error(t, err)
	assert.True(t, Error.Has(err))
	assert.ErrorIs(t, err, ErrPromptTimeout)
	assert.Contains(t, err.Error(), "approve transaction")
}

func TestPrompt_TimeoutNamesCandidates(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	withPopup(ext)

	err := newWallet(ext, Options{}).RejectSignature(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPromptTimeout)
	assert.Contains(t, err.Error(), "reject signature")
	assert.Contains(t, err.Error(), `testid="signature-cancel-button"`)
	assert.Contains(t, err.Error(), "50ms")
}

func TestConnectToDapp_TwoScreens(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	popup := withPopup(ext)
	next := entity.TestID("page-container-footer-next")
	popup.Show(next)

	require.NoError(t, newWallet(ext, Options{}).ConnectToDapp(context.Background()))
	assert.Equal(t, 2, popup.Clicks(next))
}

func TestConnectToDapp_SingleScreen(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	popup := withPopup(ext)
	confirm := entity.TestID("confirm-footer-button")
	popup.Show(confirm).OnClick = func(p *fakebrowser.Page) { p.Remove(confirm) }

	require.NoError(t, newWallet(ext, Options{}).ConnectToDapp(context.Background()))
	assert.Equal(t, 1, popup.Clicks(confirm))
}

func TestConnectToDapp_ClosingPopupIsNotAnError(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	popup := withPopup(ext)
	confirm := entity.TestID("confirm-footer-button")
	el := popup.Show(confirm)
	el.OnClick = func(*fakebrowser.Page) { el.ClickErr = errors.New("node is detached") }

	require.NoError(t, newWallet(ext, Options{}).ConnectToDapp(context.Background()))
	assert.Equal(t, 1, popup.Clicks(confirm))
}

func TestConfirmSignature_ScrollsFirst(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	popup := withPopup(ext)
	popup.Show(signatureScrollButton)
	sign := entity.TestID("signature-sign-button")
	popup.Show(sign)

	require.NoError(t, newWallet(ext, Options{}).ConfirmSignature(context.Background()))

	actions := popup.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, signatureScrollButton.String(), actions[0].Selector)
	assert.Equal(t, sign.String(), actions[1].Selector)
}

func TestClickFailureIsReported(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	popup := withPopup(ext)
	popup.Add(entity.TestID("confirm-footer-button"), &fakebrowser.Element{ClickErr: errors.New("detached")})

	err := newWallet(ext, Options{}).ApproveTransaction(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPromptTimeout)
	assert.Contains(t, err.Error(), "detached")
}

func sepolia() entity.NetworkSpec {
	return entity.NetworkSpec{
		Name:    "sepolia",
		RPCURL:  "https://rpc.sepolia.example",
		ChainID: 11155111,
	}
}

func TestAddNetwork(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	page := ext.Extension
	for _, sel := range []entity.Selector{networkNameInput, networkRPCInput, networkChainIDInput, networkSymbolInput} {
		page.Show(sel)
	}
	save := networkSaveCandidates[1]
	page.Show(save)
	verifier := &fakeVerifier{}

	err := newWallet(ext, Options{Verifier: verifier}).AddNetwork(context.Background(), sepolia())
	require.NoError(t, err)

	assert.Equal(t, []string{addNetworkPath}, ext.Opened)
	assert.Equal(t, 1, verifier.calls)
	chainID, _ := page.Filled(networkChainIDInput)
	assert.Equal(t, "11155111", chainID)
	symbol, _ := page.Filled(networkSymbolInput)
	assert.Equal(t, "ETH", symbol)
	_, explorer := page.Filled(networkExplorerInput)
	assert.False(t, explorer)
	assert.True(t, page.Clicked(save))
}

func TestAddNetwork_InvalidSpec(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	network := sepolia()
	network.RPCURL = entity.PlaceholderRPCURL

	err := newWallet(ext, Options{}).AddNetwork(context.Background(), network)
	require.Error(t, err)
	assert.True(t, Error.Has(err))
	assert.Empty(t, ext.Opened)
}

func TestAddNetwork_ChainMismatch(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	verifier := &fakeVerifier{err: errors.New("rpc reports chain 1")}

	err := newWallet(ext, Options{Verifier: verifier}).AddNetwork(context.Background(), sepolia())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc reports chain 1")
	assert.Empty(t, ext.Opened)
}

func TestUnlock(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	page := ext.Extension
	page.Show(unlockPassword)
	page.Show(unlockSubmit).OnClick = func(p *fakebrowser.Page) { p.Remove(unlockPassword) }

	require.NoError(t, newWallet(ext, Options{Password: "Tester@1234"}).Unlock(context.Background()))
	pw, ok := page.Filled(unlockPassword)
	require.True(t, ok)
	assert.Equal(t, "Tester@1234", pw)
}

func TestUnlock_AlreadyUnlocked(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()

	require.NoError(t, newWallet(ext, Options{}).Unlock(context.Background()))
	assert.Empty(t, ext.Extension.Actions())
}

func TestUnlock_NoPassword(t *testing.T) {
	ext := fakebrowser.NewExtensionContext()
	ext.Extension.Show(unlockPassword)

	err := newWallet(ext, Options{}).Unlock(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no password")
}
