//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/require"

	"marketplace-e2e/internal/adapter/pages"
	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/infrastructure/browser/rodwrapper"
	"marketplace-e2e/internal/usecase/session"
)

const (
	testTimeout   = 3 * time.Minute
	probeTimeout  = 5 * time.Second
	connectSettle = 2 * time.Second
	desktopWidth  = 1920
	desktopHeight = 1080
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// newPage opens a plain browser without the wallet extension.
func newPage(t *testing.T) output.UIPage {
	t.Helper()
	cfg := container.Config.Browser

	l := launcher.New().Headless(cfg.Headless).NoSandbox(true)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	} else if bin, ok := launcher.LookPath(); ok {
		l = l.Bin(bin)
	} else {
		t.Skip("no chromium available")
	}
	controlURL, err := l.Launch()
	require.NoError(t, err)

	browser := rod.New().ControlURL(controlURL).SlowMotion(cfg.SlowMotion)
	require.NoError(t, browser.Connect())
	t.Cleanup(func() {
		_ = browser.Close()
		l.Cleanup()
	})

	rp, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	require.NoError(t, err)
	require.NoError(t, proto.EmulationSetDeviceMetricsOverride{
		Width:             desktopWidth,
		Height:            desktopHeight,
		DeviceScaleFactor: 1,
	}.Call(rp))
	return rodwrapper.NewPage(rp)
}

// openSession starts a wallet session on the provisioned profile.
func openSession(t *testing.T) *session.Session {
	t.Helper()
	if walletProfile == nil {
		t.Skip("wallet credentials not configured")
	}
	s, err := container.OpenSession(testContext(t), walletProfile)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("closing session: %v", err)
		}
	})
	return s
}

// connectedWallet opens a session and connects the wallet to the dApp when
// the dApp offers to.
func connectedWallet(t *testing.T) (*session.Session, *pages.WalletPage) {
	t.Helper()
	ctx := testContext(t)
	s := openSession(t)
	wp := pages.NewWalletPage(s.Page(), container.Config.Suite.BaseURL, s.Wallet())

	if wp.IsConnectButtonVisible(ctx, probeTimeout) {
		require.NoError(t, wp.ConnectWallet(ctx))
		sleep(ctx, connectSettle)
	}
	return s, wp
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
