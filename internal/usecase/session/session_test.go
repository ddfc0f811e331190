package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/infrastructure/logger"
	"marketplace-e2e/internal/infrastructure/profilestore"
	"marketplace-e2e/internal/testutil/fakebrowser"
)

type staticResolver string

func (r staticResolver) Resolve(ctx context.Context) (string, error) { return string(r), nil }

type fixture struct {
	deps     Deps
	launcher *fakebrowser.Launcher
	store    *profilestore.Store
	profile  *entity.CachedProfile
	scratch  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	store, err := profilestore.New(filepath.Join(root, "cache"))
	require.NoError(t, err)

	key := entity.NewWalletSetupConfig("", 0, "", "", "", "").Hash()
	staging, err := store.Stage(key)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(staging, "Preferences"), []byte("{}"), 0o600))
	profile, err := store.Commit(key, staging)
	require.NoError(t, err)

	launcher := &fakebrowser.Launcher{}
	return &fixture{
		deps: Deps{
			Store:    store,
			Launcher: launcher,
			Resolver: staticResolver(filepath.Join(root, "metamask")),
			Logger:   logger.NewNop(),
		},
		launcher: launcher,
		store:    store,
		profile:  profile,
		scratch:  filepath.Join(root, "scratch"),
	}
}

func (f *fixture) options(t *testing.T) Options {
	require.NoError(t, os.MkdirAll(f.scratch, 0o755))
	return Options{
		Password:      "Tester@1234",
		PromptTimeout: 50 * time.Millisecond,
		ScratchDir:    f.scratch,
		DappURL:       "https://spaace.io",
	}
}

func TestOpen_UsesPrivateCopy(t *testing.T) {
	f := newFixture(t)

	s, err := Open(context.Background(), f.deps, f.profile, f.options(t))
	require.NoError(t, err)
	defer s.Close()

	require.Len(t, f.launcher.Launches(), 1)
	opts := f.launcher.Launches()[0]
	assert.True(t, strings.HasPrefix(opts.UserDataDir, f.scratch))
	assert.FileExists(t, filepath.Join(opts.UserDataDir, "Preferences"))
	assert.NoFileExists(t, filepath.Join(f.profile.Dir, "Local State"), "cached profile must stay untouched")

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "https://spaace.io", s.Page().URL())
	assert.NotNil(t, s.Wallet())
}

func TestOpen_UnlocksWallet(t *testing.T) {
	f := newFixture(t)
	password := entity.TestID("unlock-password")
	f.launcher.New = func(output.LaunchOptions) *fakebrowser.ExtensionContext {
		ext := fakebrowser.NewExtensionContext()
		ext.Extension.Show(password)
		ext.Extension.Show(entity.TestID("unlock-submit")).OnClick = func(p *fakebrowser.Page) { p.Remove(password) }
		return ext
	}

	s, err := Open(context.Background(), f.deps, f.profile, f.options(t))
	require.NoError(t, err)
	defer s.Close()

	typed, ok := f.launcher.Contexts()[0].Extension.Filled(password)
	require.True(t, ok)
	assert.Equal(t, "Tester@1234", typed)
}

func TestConnect(t *testing.T) {
	f := newFixture(t)
	confirm := entity.TestID("confirm-footer-button")
	f.launcher.New = func(output.LaunchOptions) *fakebrowser.ExtensionContext {
		ext := fakebrowser.NewExtensionContext()
		ext.Notification = fakebrowser.NewPage("chrome-extension://id/notification.html")
		ext.Notification.Show(confirm).OnClick = func(p *fakebrowser.Page) { p.Remove(confirm) }
		return ext
	}

	s, err := Open(context.Background(), f.deps, f.profile, f.options(t))
	require.NoError(t, err)
	defer s.Close()

	triggered := false
	err = s.Connect(context.Background(), func(ctx context.Context, page output.UIPage) error {
		triggered = page == s.Page()
		return nil
	})
	require.NoError(t, err)
	assert.True(t, triggered)
	assert.True(t, f.launcher.Contexts()[0].Notification.Clicked(confirm))

	err = s.Connect(context.Background(), func(context.Context, output.UIPage) error {
		return errors.New("button missing")
	})
	require.Error(t, err)
	assert.True(t, Error.Has(err))
}

func TestClose_RemovesScratchOnce(t *testing.T) {
	f := newFixture(t)

	s, err := Open(context.Background(), f.deps, f.profile, f.options(t))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, f.launcher.Contexts()[0].Closes())
	entries, err := os.ReadDir(f.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.DirExists(t, f.profile.Dir)
}

func TestOpen_FailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.launcher.LaunchErr = errors.New("no chromium")

	_, err := Open(context.Background(), f.deps, f.profile, f.options(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch browser")

	entries, err := os.ReadDir(f.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpen_MissingProfile(t *testing.T) {
	f := newFixture(t)

	_, err := Open(context.Background(), f.deps, nil, f.options(t))
	require.Error(t, err)

	gone := &entity.CachedProfile{Key: "0000000000000000dead"}
	_, err = Open(context.Background(), f.deps, gone, f.options(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, profilestore.ErrNotFound)
	assert.Empty(t, f.launcher.Launches())
}
