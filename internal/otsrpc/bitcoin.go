// Package otsrpc implements the default full-node RPC collaborators:
// bitcoind-style JSON-RPC for Bitcoin, and go-ethereum's ethclient for
// Ethereum. Neither the codec nor the verifier packages import this
// package directly; callers wire it in through the attestation.BitcoinRPC
// and attestation.EthereumRPC interfaces.
package otsrpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"otsproof/internal/otsproof/attestation"
)

// BitcoinClient talks to a bitcoind-compatible JSON-RPC endpoint.
type BitcoinClient struct {
	endpoint string
	user     string
	pass     string
	http     *http.Client
}

// NewBitcoinClient returns a client for the bitcoind JSON-RPC endpoint at
// endpoint, authenticating with HTTP basic auth if user is non-empty.
func NewBitcoinClient(endpoint, user, pass string) *BitcoinClient {
	return &BitcoinClient{endpoint: endpoint, user: user, pass: pass, http: &http.Client{}}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *BitcoinClient) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	reqBody, err := json.Marshal(rpcRequest{JSONRPC: "1.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("otsrpc: decoding %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("otsrpc: %s: rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// GetBlockHash implements attestation.BitcoinRPC.
func (c *BitcoinClient) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	result, err := c.call(ctx, "getblockhash", []interface{}{height})
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

type rpcBlock struct {
	Hash string `json:"hash"`
	Time uint64 `json:"time"`
	Tx   []struct {
		Vin []struct {
			Coinbase string `json:"coinbase"`
		} `json:"vin"`
		Vout []struct {
			ScriptPubKey struct {
				Hex string `json:"hex"`
			} `json:"scriptPubKey"`
		} `json:"vout"`
	} `json:"tx"`
}

// GetBlock implements attestation.BitcoinRPC using verbosity=2 so the
// full transaction list, including scriptPubKey hex, comes back in one
// call.
func (c *BitcoinClient) GetBlock(ctx context.Context, hash string) (*attestation.BitcoinBlock, error) {
	result, err := c.call(ctx, "getblock", []interface{}{hash, 2})
	if err != nil {
		return nil, err
	}
	var block rpcBlock
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, err
	}
	if len(block.Tx) == 0 {
		return nil, errors.New("otsrpc: block has no coinbase transaction")
	}

	out := &attestation.BitcoinBlock{Hash: block.Hash, Time: block.Time}
	coinbase := block.Tx[0]
	if len(coinbase.Vin) > 0 {
		out.CoinbaseInput, _ = hex.DecodeString(coinbase.Vin[0].Coinbase)
	}
	for _, tx := range block.Tx {
		for _, vout := range tx.Vout {
			script, err := hex.DecodeString(vout.ScriptPubKey.Hex)
			if err != nil {
				continue
			}
			out.OutputScripts = append(out.OutputScripts, script)
		}
	}
	return out, nil
}

var _ attestation.BitcoinRPC = (*BitcoinClient)(nil)
