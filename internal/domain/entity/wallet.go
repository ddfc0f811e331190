package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultNetworkName   = "sepolia"
	DefaultChainID       = 11155111
	DefaultWalletAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	DefaultCurrency      = "ETH"

	// PlaceholderRPCURL is the value shipped in .env.example. It is never a
	// usable endpoint.
	PlaceholderRPCURL = "https://sepolia.infura.io/v3/YOUR_INFURA_KEY"

	// SetupScriptVersion is bumped whenever the onboarding sequence changes so
	// that profiles built by an older sequence stop matching.
	SetupScriptVersion = 3

	hashLength = 20
)

// WalletSetupConfig identifies a reusable wallet configuration. It is built
// once from the environment and never modified afterwards.
type WalletSetupConfig struct {
	NetworkName   string
	ChainID       int64
	RPCURL        string
	WalletAddress string

	password   string
	seedPhrase string
}

func NewWalletSetupConfig(networkName string, chainID int64, rpcURL, walletAddress, password, seedPhrase string) WalletSetupConfig {
	if strings.TrimSpace(networkName) == "" {
		networkName = DefaultNetworkName
	}
	if chainID <= 0 {
		chainID = DefaultChainID
	}
	if strings.TrimSpace(walletAddress) == "" {
		walletAddress = DefaultWalletAddress
	}
	return WalletSetupConfig{
		NetworkName:   strings.TrimSpace(networkName),
		ChainID:       chainID,
		RPCURL:        strings.TrimSpace(rpcURL),
		WalletAddress: strings.TrimSpace(walletAddress),
		password:      password,
		seedPhrase:    strings.Join(strings.Fields(seedPhrase), " "),
	}
}

func (c WalletSetupConfig) Password() string   { return c.password }
func (c WalletSetupConfig) SeedPhrase() string { return c.seedPhrase }

// SeedWords returns the normalized, lower-cased seed phrase words.
func (c WalletSetupConfig) SeedWords() []string {
	return strings.Fields(strings.ToLower(c.seedPhrase))
}

// HasNetwork reports whether a custom network should be added during setup.
func (c WalletSetupConfig) HasNetwork() bool {
	return c.RPCURL != "" && c.RPCURL != PlaceholderRPCURL
}

func (c WalletSetupConfig) Network() NetworkSpec {
	return NetworkSpec{
		Name:     c.NetworkName,
		RPCURL:   c.RPCURL,
		ChainID:  c.ChainID,
		Currency: DefaultCurrency,
	}
}

// Hash is derived from public attributes only. The seed phrase and password
// never contribute, so directory names reveal nothing about them.
func (c WalletSetupConfig) Hash() string {
	h := sha256.New()
	fields := []string{
		"v" + strconv.Itoa(SetupScriptVersion),
		strings.ToLower(c.NetworkName),
		strconv.FormatInt(c.ChainID, 10),
		c.RPCURL,
		strings.ToLower(c.WalletAddress),
	}
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:hashLength]
}

// String never prints secrets.
func (c WalletSetupConfig) String() string {
	return fmt.Sprintf("WalletSetupConfig{network=%s chain=%d rpc=%t address=%s}",
		c.NetworkName, c.ChainID, c.RPCURL != "", c.WalletAddress)
}

func (c WalletSetupConfig) Validate() error {
	if c.seedPhrase == "" {
		return fmt.Errorf("seed phrase is not configured")
	}
	if c.password == "" {
		return fmt.Errorf("wallet password is not configured")
	}
	if !common.IsHexAddress(c.WalletAddress) {
		return fmt.Errorf("invalid wallet address %q", c.WalletAddress)
	}
	return nil
}

// NetworkSpec describes a custom network to register in the wallet.
type NetworkSpec struct {
	Name        string
	RPCURL      string
	ChainID     int64
	Currency    string
	ExplorerURL string
}

func (n NetworkSpec) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("network name is empty")
	}
	if n.ChainID <= 0 {
		return fmt.Errorf("chain id must be positive, got %d", n.ChainID)
	}
	if n.RPCURL == "" || n.RPCURL == PlaceholderRPCURL {
		return fmt.Errorf("rpc url is not configured")
	}
	u, err := url.Parse(n.RPCURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid rpc url %q", n.RPCURL)
	}
	if n.ExplorerURL != "" {
		if e, err := url.Parse(n.ExplorerURL); err != nil || e.Host == "" {
			return fmt.Errorf("invalid block explorer url %q", n.ExplorerURL)
		}
	}
	return nil
}

func (n NetworkSpec) CurrencySymbol() string {
	if n.Currency == "" {
		return DefaultCurrency
	}
	return n.Currency
}

// CachedProfile is an onboarded browser profile on disk. It is read-only once
// committed.
type CachedProfile struct {
	Key       string
	Dir       string
	CreatedAt time.Time
}
