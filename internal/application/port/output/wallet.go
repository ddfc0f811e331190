package output

import (
	"context"
	"math/big"
)

type ExtensionResolver interface {
	Resolve(ctx context.Context) (string, error)
}

type ChainVerifier interface {
	VerifyChainID(ctx context.Context, rpcURL string, want int64) error
	Balance(ctx context.Context, rpcURL, address string) (*big.Int, error)
}
