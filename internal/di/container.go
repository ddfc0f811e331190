package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/config"
	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/infrastructure/browser/rod"
	"marketplace-e2e/internal/infrastructure/chain"
	"marketplace-e2e/internal/infrastructure/extension"
	"marketplace-e2e/internal/infrastructure/llm/openrouter"
	"marketplace-e2e/internal/infrastructure/logger"
	"marketplace-e2e/internal/infrastructure/profilestore"
	"marketplace-e2e/internal/usecase/aistep"
	"marketplace-e2e/internal/usecase/provision"
	"marketplace-e2e/internal/usecase/session"
)

const (
	downloadTimeout = 5 * time.Minute
	rpcTimeout      = 15 * time.Second
)

type Container struct {
	Config      *config.Config
	Logger      output.LoggerPort
	Store       *profilestore.Store
	Resolver    *extension.Resolver
	Verifier    *chain.Verifier
	Launcher    *rod.Launcher
	Provisioner *provision.Manager
	// LLM is nil unless OPENROUTER_API_KEY is set.
	LLM output.LLMPort
}

func NewContainer(env output.ConfigPort) (*Container, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, err
	}
	return NewContainerFromConfig(cfg)
}

func NewContainerFromConfig(cfg *config.Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := profilestore.New(cfg.Cache.Root)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	resolver := extension.NewResolver(extension.Config{
		Path:      cfg.Cache.ExtensionPath,
		Version:   cfg.Cache.MetaMaskVersion,
		CacheRoot: cfg.Cache.Root,
	}, &http.Client{Timeout: downloadTimeout}, log)

	verifier := chain.NewVerifier(rpcTimeout)
	launcher := rod.NewLauncher(rod.DefaultConfig(), log)

	provisioner := provision.New(store, launcher, resolver, verifier, provision.Options{
		Headless:         cfg.Browser.Headless,
		SlowMotion:       cfg.Browser.SlowMotion,
		BrowserBin:       cfg.Browser.Bin,
		ExtensionTimeout: cfg.Cache.ExtensionTimeout,
		PromptTimeout:    cfg.Suite.PromptTimeout,
		ScreenshotPath:   cfg.Suite.ScreenshotPath,
	}, log)

	c := &Container{
		Config:      cfg,
		Logger:      log,
		Store:       store,
		Resolver:    resolver,
		Verifier:    verifier,
		Launcher:    launcher,
		Provisioner: provisioner,
	}

	if cfg.AI.Enabled() {
		llmCfg := openrouter.DefaultConfig(cfg.AI.APIKey, cfg.AI.Model)
		llmCfg.Logger = log
		c.LLM = openrouter.NewOpenRouterAdapter(llmCfg)
	}
	return c, nil
}

// EnsureWalletCache provisions the configured wallet profile if needed.
func (c *Container) EnsureWalletCache(ctx context.Context) (*entity.CachedProfile, error) {
	return c.Provisioner.EnsureWalletCache(ctx, c.Config.Wallet)
}

// OpenSession starts a browser on a private copy of profile with the dApp
// at BASE_URL in the first tab.
func (c *Container) OpenSession(ctx context.Context, profile *entity.CachedProfile) (*session.Session, error) {
	return session.Open(ctx, session.Deps{
		Store:    c.Store,
		Launcher: c.Launcher,
		Resolver: c.Resolver,
		Verifier: c.Verifier,
		Logger:   c.Logger,
	}, profile, session.Options{
		Headless:         c.Config.Browser.Headless,
		SlowMotion:       c.Config.Browser.SlowMotion,
		BrowserBin:       c.Config.Browser.Bin,
		Password:         c.Config.Wallet.Password(),
		PromptTimeout:    c.Config.Suite.PromptTimeout,
		ExtensionTimeout: c.Config.Cache.ExtensionTimeout,
		DappURL:          c.Config.Suite.BaseURL,
	})
}

// StepRunner returns an AI step runner driving page. It fails when no LLM
// is configured.
func (c *Container) StepRunner(page output.UIPage) (*aistep.Runner, error) {
	if c.LLM == nil {
		return nil, fmt.Errorf("AI steps need OPENROUTER_API_KEY")
	}
	return aistep.New(c.LLM, page, aistep.Options{BaseURL: c.Config.Suite.BaseURL}, c.Logger)
}

func (c *Container) Close() {
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
