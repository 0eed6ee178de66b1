package otsrpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"otsproof/internal/otsproof/attestation"
)

// EthereumClient wraps go-ethereum's ethclient to implement
// attestation.EthereumRPC.
type EthereumClient struct {
	rpc *ethclient.Client
}

// DialEthereumClient connects to an Ethereum JSON-RPC endpoint (an
// Infura/Alchemy URL or a local node).
func DialEthereumClient(rpcURL string) (*EthereumClient, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("otsrpc: dialing %s: %w", rpcURL, err)
	}
	return &EthereumClient{rpc: rpc}, nil
}

// GetTransactionInput implements attestation.EthereumRPC: it fetches the
// transaction's input data and the timestamp of the block that mined it.
func (c *EthereumClient) GetTransactionInput(ctx context.Context, txHash [32]byte) ([]byte, uint64, error) {
	tx, _, err := c.rpc.TransactionByHash(ctx, common.BytesToHash(txHash[:]))
	if err != nil {
		return nil, 0, fmt.Errorf("otsrpc: fetching tx %x: %w", txHash, err)
	}

	receipt, err := c.rpc.TransactionReceipt(ctx, common.BytesToHash(txHash[:]))
	if err != nil {
		return nil, 0, fmt.Errorf("otsrpc: fetching receipt for tx %x: %w", txHash, err)
	}
	if receipt.BlockNumber == nil {
		return nil, 0, fmt.Errorf("otsrpc: tx %x has no confirmed block", txHash)
	}

	header, err := c.rpc.HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil {
		return nil, 0, fmt.Errorf("otsrpc: fetching header for block %s: %w", receipt.BlockNumber, err)
	}

	return tx.Data(), header.Time, nil
}

// Close releases the underlying RPC connection.
func (c *EthereumClient) Close() {
	c.rpc.Close()
}

var _ attestation.EthereumRPC = (*EthereumClient)(nil)
