package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/usecase/metamask"
)

// Error is the class of session errors.
var Error = errs.Class("session")

type Deps struct {
	Store    output.ProfileStore
	Launcher output.BrowserLauncher
	Resolver output.ExtensionResolver
	Verifier output.ChainVerifier
	Logger   output.LoggerPort
}

type Options struct {
	Headless   bool
	SlowMotion time.Duration
	BrowserBin string

	Password         string
	PromptTimeout    time.Duration
	ExtensionTimeout time.Duration
	// ScratchDir holds per-session profile copies; empty means os.TempDir.
	ScratchDir string
	// DappURL is opened in the first tab; empty leaves about:blank.
	DappURL string
}

// Session is one test's view of the wallet: a browser on a private copy of
// the cached profile, the dApp tab and the wallet facade.
type Session struct {
	id      string
	ext     output.ExtensionContext
	wallet  *metamask.Wallet
	page    output.UIPage
	scratch string
	logger  output.LoggerPort

	closeOnce sync.Once
	closeErr  error
}

// Open starts a session on a copy of profile. On error everything that was
// already set up is torn down again.
func Open(ctx context.Context, deps Deps, profile *entity.CachedProfile, opts Options) (_ *Session, err error) {
	if profile == nil {
		return nil, Error.New("no cached profile")
	}
	if opts.ExtensionTimeout <= 0 {
		opts.ExtensionTimeout = 20 * time.Second
	}

	id := uuid.NewString()
	log := deps.Logger.Named("session").WithField("session", id)

	scratch, err := os.MkdirTemp(opts.ScratchDir, "wallet-session-")
	if err != nil {
		return nil, Error.New("create scratch dir: %w", err)
	}
	s := &Session{id: id, scratch: scratch, logger: log}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	userData := filepath.Join(scratch, "profile")
	if err := deps.Store.Clone(profile.Key, userData); err != nil {
		return nil, Error.New("clone profile %s: %w", profile.Key, err)
	}

	extensionPath, err := deps.Resolver.Resolve(ctx)
	if err != nil {
		return nil, Error.New("resolve extension: %w", err)
	}

	s.ext, err = deps.Launcher.Launch(ctx, output.LaunchOptions{
		UserDataDir:   userData,
		ExtensionPath: extensionPath,
		Headless:      opts.Headless,
		SlowMotion:    opts.SlowMotion,
		BrowserBin:    opts.BrowserBin,
	})
	if err != nil {
		return nil, Error.New("launch browser: %w", err)
	}

	if _, err := s.ext.ExtensionID(ctx, opts.ExtensionTimeout); err != nil {
		return nil, Error.New("extension id: %w", err)
	}

	s.wallet = metamask.New(s.ext, metamask.Options{
		Password:      opts.Password,
		PromptTimeout: opts.PromptTimeout,
		Verifier:      deps.Verifier,
	}, log)

	// a cloned profile usually starts locked; a failure here surfaces again
	// on the first prompt, so it is not fatal
	if err := s.wallet.Unlock(ctx); err != nil {
		log.Warn("wallet unlock failed", "error", err)
	}

	s.page, err = s.ext.NewPage(ctx, opts.DappURL)
	if err != nil {
		return nil, Error.New("open dapp page: %w", err)
	}

	log.Info("wallet session opened", "profile", profile.Key)
	return s, nil
}

func (s *Session) ID() string                       { return s.id }
func (s *Session) Page() output.UIPage              { return s.page }
func (s *Session) Wallet() *metamask.Wallet         { return s.wallet }
func (s *Session) Context() output.ExtensionContext { return s.ext }

// Connect runs trigger on the dApp page, which is expected to make the
// dApp request a connection, and approves the request in the wallet.
func (s *Session) Connect(ctx context.Context, trigger func(ctx context.Context, page output.UIPage) error) error {
	if trigger != nil {
		if err := trigger(ctx, s.page); err != nil {
			return Error.New("trigger connect: %w", err)
		}
	}
	return s.wallet.ConnectToDapp(ctx)
}

func (s *Session) ApproveTransaction(ctx context.Context) error { return s.wallet.ApproveTransaction(ctx) }
func (s *Session) RejectTransaction(ctx context.Context) error  { return s.wallet.RejectTransaction(ctx) }
func (s *Session) ConfirmSignature(ctx context.Context) error   { return s.wallet.ConfirmSignature(ctx) }
func (s *Session) RejectSignature(ctx context.Context) error    { return s.wallet.RejectSignature(ctx) }

func (s *Session) AddNetwork(ctx context.Context, network entity.NetworkSpec) error {
	return s.wallet.AddNetwork(ctx, network)
}

// Close shuts the browser down and removes the scratch profile. It is safe
// to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var group errs.Group
		if s.ext != nil {
			group.Add(s.ext.Close())
		}
		group.Add(os.RemoveAll(s.scratch))
		s.closeErr = Error.Wrap(group.Err())
		s.logger.Debug("wallet session closed")
	})
	return s.closeErr
}
