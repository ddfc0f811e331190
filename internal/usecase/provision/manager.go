package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/input"
	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/usecase/metamask"
	"marketplace-e2e/internal/usecase/walletsetup"
)

var (
	// Error is the class of provisioning errors. They abort the whole run.
	Error = errs.Class("provision")

	ErrExtensionPageTimeout = errors.New("extension page did not appear")
)

const DefaultExtensionTimeout = 20 * time.Second

type Options struct {
	Headless   bool
	SlowMotion time.Duration
	BrowserBin string

	// ExtensionTimeout bounds the wait for the extension's first page.
	ExtensionTimeout time.Duration
	PromptTimeout    time.Duration
	// ScreenshotPath receives a capture of the browser when setup fails.
	ScreenshotPath string
	Setup          walletsetup.Options
}

var _ input.WalletCacheProvisioner = (*Manager)(nil)

// Manager builds onboarded wallet profiles and keeps one per configuration
// hash in the profile store.
type Manager struct {
	store    output.ProfileStore
	launcher output.BrowserLauncher
	resolver output.ExtensionResolver
	verifier output.ChainVerifier
	opts     Options
	logger   output.LoggerPort
}

// New wires a Manager. verifier may be nil to skip the RPC preflight.
func New(store output.ProfileStore, launcher output.BrowserLauncher, resolver output.ExtensionResolver,
	verifier output.ChainVerifier, opts Options, logger output.LoggerPort) *Manager {
	if opts.ExtensionTimeout <= 0 {
		opts.ExtensionTimeout = DefaultExtensionTimeout
	}
	return &Manager{
		store:    store,
		launcher: launcher,
		resolver: resolver,
		verifier: verifier,
		opts:     opts,
		logger:   logger.Named("provision"),
	}
}

// EnsureWalletCache returns the cached profile for cfg, provisioning it
// first when it does not exist yet. Concurrent callers for the same hash,
// in this process or others, provision at most once.
func (m *Manager) EnsureWalletCache(ctx context.Context, cfg entity.WalletSetupConfig) (*entity.CachedProfile, error) {
	key := cfg.Hash()
	log := m.logger.WithField("key", key)

	if profile, ok, err := m.lookup(key); err != nil || ok {
		if ok {
			log.Debug("wallet cache hit", "dir", profile.Dir)
		}
		return profile, err
	}

	if err := walletsetup.Validate(cfg); err != nil {
		return nil, Error.Wrap(err)
	}

	unlock, err := m.store.Lock(ctx, key)
	if err != nil {
		return nil, Error.New("lock %s: %w", key, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn("release provisioning lock", "error", err)
		}
	}()

	// another worker may have finished while we waited for the lock
	if profile, ok, err := m.lookup(key); err != nil || ok {
		if ok {
			log.Info("wallet cache provisioned by another worker", "dir", profile.Dir)
		}
		return profile, err
	}

	log.Info("wallet cache miss, provisioning", "config", cfg.String())
	start := time.Now()
	profile, err := m.provision(ctx, cfg, key)
	if err != nil {
		log.Error("provisioning failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	log.Info("wallet cache ready", "dir", profile.Dir, "duration", time.Since(start))
	return profile, nil
}

func (m *Manager) lookup(key string) (*entity.CachedProfile, bool, error) {
	ok, err := m.store.Exists(key)
	if err != nil {
		return nil, false, Error.Wrap(err)
	}
	if !ok {
		return nil, false, nil
	}
	profile, err := m.store.Lookup(key)
	if err != nil {
		return nil, false, Error.Wrap(err)
	}
	return profile, true, nil
}

// provision onboards a fresh profile in a staging directory and publishes
// it only once setup succeeded.
func (m *Manager) provision(ctx context.Context, cfg entity.WalletSetupConfig, key string) (*entity.CachedProfile, error) {
	staging, err := m.store.Stage(key)
	if err != nil {
		return nil, Error.New("stage %s: %w", key, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := m.store.Discard(staging); err != nil {
			m.logger.Warn("discard staging profile", "dir", staging, "error", err)
		}
	}()

	extensionPath, err := m.resolver.Resolve(ctx)
	if err != nil {
		return nil, Error.New("resolve extension: %w", err)
	}

	ext, err := m.launcher.Launch(ctx, output.LaunchOptions{
		UserDataDir:   staging,
		ExtensionPath: extensionPath,
		Headless:      m.opts.Headless,
		SlowMotion:    m.opts.SlowMotion,
		BrowserBin:    m.opts.BrowserBin,
	})
	if err != nil {
		return nil, Error.New("launch browser: %w", err)
	}

	report, err := m.setup(ctx, ext, cfg)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	m.logger.Info("wallet setup finished",
		"key", key,
		"performed", report.Count(entity.StepPerformed),
		"skipped", report.Count(entity.StepSkipped),
		"failed", report.Count(entity.StepFailed))

	profile, err := m.store.Commit(key, staging)
	if err != nil {
		return nil, Error.New("commit %s: %w", key, err)
	}
	committed = true
	return profile, nil
}

// setup runs the onboarding script and always closes ext, so the profile
// is flushed before it is committed.
func (m *Manager) setup(ctx context.Context, ext output.ExtensionContext, cfg entity.WalletSetupConfig) (report entity.SetupReport, err error) {
	defer func() {
		if cerr := ext.Close(); cerr != nil && err == nil {
			err = Error.New("close browser: %w", cerr)
		}
	}()

	page, err := ext.ExtensionPage(ctx, m.opts.ExtensionTimeout)
	if err != nil {
		m.screenshot(ctx, ext)
		return report, Error.New("%w within %s: %v", ErrExtensionPageTimeout, m.opts.ExtensionTimeout, err)
	}
	m.logger.Info("extension page loaded, starting wallet setup", "url", page.URL())

	wallet := metamask.New(ext, metamask.Options{
		Password:      cfg.Password(),
		PromptTimeout: m.opts.PromptTimeout,
		Verifier:      m.verifier,
	}, m.logger)
	script := walletsetup.New(cfg, wallet, m.opts.Setup, m.logger)

	report, err = script.Run(ctx, page)
	if err != nil {
		m.screenshot(ctx, ext)
		return report, err
	}
	return report, nil
}

// screenshot is best-effort diagnostics; failures are only logged.
func (m *Manager) screenshot(ctx context.Context, ext output.ExtensionContext) {
	if m.opts.ScreenshotPath == "" {
		return
	}
	shot, err := ext.Screenshot(ctx)
	if err != nil {
		m.logger.Warn("could not take failure screenshot", "error", err)
		return
	}
	if dir := filepath.Dir(m.opts.ScreenshotPath); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	if err := os.WriteFile(m.opts.ScreenshotPath, shot.Data, 0o644); err != nil {
		m.logger.Warn("could not write failure screenshot", "path", m.opts.ScreenshotPath, "error", err)
		return
	}
	m.logger.Info("failure screenshot saved", "path", m.opts.ScreenshotPath)
}
