package attestation

import (
	"context"
	"time"
)

// HTTPClient is the injected collaborator for calendar, block-explorer,
// and generic HTTPS calls. Implementations live outside the core (see
// internal/otshttp) so this package never imports net/http.
type HTTPClient interface {
	Get(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
	Post(ctx context.Context, url string, body []byte, contentType string, timeout time.Duration) ([]byte, error)
}

// BitcoinBlock is the subset of a full node's getblock(verbosity=2)
// response the verifier needs: the coinbase input scriptSig and every
// output's scriptPubKey, plus the block time.
type BitcoinBlock struct {
	Hash          string
	Time          uint64
	CoinbaseInput []byte
	OutputScripts [][]byte
}

// BitcoinRPC is the injected full-node JSON-RPC collaborator.
// Implementations live outside the core (see internal/otsrpc).
type BitcoinRPC interface {
	GetBlockHash(ctx context.Context, height uint64) (string, error)
	GetBlock(ctx context.Context, hash string) (*BitcoinBlock, error)
}

// EthereumRPC is the injected Ethereum JSON-RPC collaborator.
type EthereumRPC interface {
	// GetTransactionInput returns the input data and block time of txHash.
	GetTransactionInput(ctx context.Context, txHash [32]byte) (input []byte, blockTime uint64, err error)
}

// Clock is the injected wall-clock collaborator, used for time-window
// consistency checks.
type Clock interface {
	Now() time.Time
}

// Cache is the injected read-mostly collaborator for block-header lookups
// and previous verdicts.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// VerifyContext carries every collaborator an Attestation's Verify method
// may need. A given attestation kind only touches the collaborators it
// needs (e.g. Ethereum never touches BitcoinRPC).
type VerifyContext struct {
	HTTP     HTTPClient
	Bitcoin  BitcoinRPC
	Ethereum EthereumRPC
	Clock    Clock
	Cache    Cache

	// BitcoinExplorers and LitecoinExplorers are base URLs used as the
	// fallback path when the corresponding RPC collaborator is nil.
	BitcoinExplorers  []string
	LitecoinExplorers []string
	EthereumExplorers []string

	// RequestTimeout bounds every individual HTTP/RPC call this context
	// makes.
	RequestTimeout time.Duration
}
