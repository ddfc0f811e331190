package config

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/domain/entity"
)

// Error is the class of configuration errors.
var Error = errs.Class("config")

const (
	DefaultCacheDir         = ".cache-synpress"
	DefaultMetaMaskVersion  = "11.16.0"
	DefaultBaseURL          = "https://spaace.io"
	DefaultScreenshotPath   = "metamask-error-screenshot.jpg"
	DefaultOpenRouterModel  = "openai/gpt-4o-mini"
	defaultExtensionTimeout = 20 * time.Second
	defaultPromptTimeout    = 30 * time.Second
)

type Config struct {
	Wallet  entity.WalletSetupConfig
	Browser BrowserConfig
	Cache   CacheConfig
	Suite   SuiteConfig
	Logger  LoggerConfig
	AI      AIConfig
}

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	Bin        string
}

type CacheConfig struct {
	Root             string
	ExtensionPath    string
	MetaMaskVersion  string
	ExtensionTimeout time.Duration
}

type SuiteConfig struct {
	BaseURL        string
	ScreenshotPath string
	PromptTimeout  time.Duration
}

type LoggerConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type AIConfig struct {
	APIKey string
	Model  string
}

func (a AIConfig) Enabled() bool { return a.APIKey != "" }

// Load reads the whole configuration surface. Wallet secrets are optional
// here; provisioning validates them when it actually needs them.
func Load(env output.ConfigPort) (*Config, error) {
	chainID := int64(entity.DefaultChainID)
	if raw := env.Get("CHAIN_ID"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			chainID = parsed
		}
	}

	address := env.GetWithDefault("WALLET_ADDRESS", entity.DefaultWalletAddress)
	if !common.IsHexAddress(address) {
		return nil, Error.New("WALLET_ADDRESS %q is not a hex address", address)
	}

	wallet := entity.NewWalletSetupConfig(
		env.GetWithDefault("NETWORK_NAME", entity.DefaultNetworkName),
		chainID,
		env.Get("SEPOLIA_RPC_URL"),
		address,
		env.Get("METAMASK_PASSWORD"),
		env.Get("METAMASK_SECRET_RECOVERY_PHRASE"),
	)

	cacheRoot := env.GetWithDefault("WALLET_CACHE_DIR", DefaultCacheDir)
	if abs, err := filepath.Abs(cacheRoot); err == nil {
		cacheRoot = abs
	}

	cfg := &Config{
		Wallet: wallet,
		Browser: BrowserConfig{
			// unset or a false boolean runs headed; any other value enables it
			Headless:   env.Get("HEADLESS") != "" && env.GetBool("HEADLESS", true),
			SlowMotion: env.GetDuration("SLOW_MOTION", 0),
			Bin:        env.Get("BROWSER_BIN"),
		},
		Cache: CacheConfig{
			Root:             cacheRoot,
			ExtensionPath:    env.Get("METAMASK_EXTENSION_PATH"),
			MetaMaskVersion:  env.GetWithDefault("METAMASK_VERSION", DefaultMetaMaskVersion),
			ExtensionTimeout: env.GetDuration("EXTENSION_TIMEOUT", defaultExtensionTimeout),
		},
		Suite: SuiteConfig{
			BaseURL:        env.GetWithDefault("BASE_URL", DefaultBaseURL),
			ScreenshotPath: env.GetWithDefault("SCREENSHOT_PATH", DefaultScreenshotPath),
			PromptTimeout:  env.GetDuration("PROMPT_TIMEOUT", defaultPromptTimeout),
		},
		Logger: LoggerConfig{
			Level:      env.GetWithDefault("LOG_LEVEL", "info"),
			Format:     env.GetWithDefault("LOG_FORMAT", "console"),
			File:       env.Get("LOG_FILE"),
			MaxSizeMB:  env.GetInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: env.GetInt("LOG_MAX_BACKUPS", 3),
		},
		AI: AIConfig{
			APIKey: env.Get("OPENROUTER_API_KEY"),
			Model:  env.GetWithDefault("OPENROUTER_MODEL_NAME", DefaultOpenRouterModel),
		},
	}
	return cfg, nil
}
