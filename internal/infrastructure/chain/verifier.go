// Package chain performs read-only JSON-RPC checks against the network the
// wallet is configured for. It never signs or sends anything.
package chain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/zeebo/errs"

	"marketplace-e2e/internal/application/port/output"
)

// Error is the class of chain preflight errors.
var Error = errs.Class("chain")

var ErrChainMismatch = errors.New("chain id mismatch")

var _ output.ChainVerifier = (*Verifier)(nil)

type Verifier struct {
	timeout time.Duration
}

func NewVerifier(timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Verifier{timeout: timeout}
}

func (v *Verifier) dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, Error.New("dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// VerifyChainID checks that rpcURL serves the chain the caller expects. A
// wrong RPC URL otherwise only shows up much later as a confusing wallet
// error.
func (v *Verifier) VerifyChainID(ctx context.Context, rpcURL string, want int64) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	client, err := v.dial(ctx, rpcURL)
	if err != nil {
		return err
	}
	defer client.Close()

	got, err := client.ChainID(ctx)
	if err != nil {
		return Error.New("eth_chainId: %w", err)
	}
	if got.Cmp(big.NewInt(want)) != 0 {
		return Error.New("%w: rpc reports %s, expected %d", ErrChainMismatch, got, want)
	}
	return nil
}

func parseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, Error.New("invalid address %q", address)
	}
	return common.HexToAddress(address), nil
}

func (v *Verifier) Balance(ctx context.Context, rpcURL, address string) (*big.Int, error) {
	account, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	client, err := v.dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	bal, err := client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, Error.New("eth_getBalance: %w", err)
	}
	return bal, nil
}

// PendingNonce is the number of transactions sent from address, including
// those not mined yet. It goes up as soon as the wallet broadcasts.
func (v *Verifier) PendingNonce(ctx context.Context, rpcURL, address string) (uint64, error) {
	account, err := parseAddress(address)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	client, err := v.dial(ctx, rpcURL)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	nonce, err := client.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, Error.New("eth_getTransactionCount: %w", err)
	}
	return nonce, nil
}
