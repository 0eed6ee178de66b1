package otsrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetBlockHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "getblockhash" {
			t.Errorf("method = %q, want getblockhash", req.Method)
		}
		json.NewEncoder(w).Encode(rpcResponse{Result: json.RawMessage(`"00000000abc"`)})
	}))
	defer srv.Close()

	c := NewBitcoinClient(srv.URL, "", "")
	hash, err := c.GetBlockHash(context.Background(), 700000)
	if err != nil {
		t.Fatalf("GetBlockHash: %v", err)
	}
	if hash != "00000000abc" {
		t.Fatalf("hash = %q", hash)
	}
}

func TestGetBlockParsesCoinbaseAndOutputs(t *testing.T) {
	blockJSON := `{
		"hash": "00000000abc",
		"time": 1234567890,
		"tx": [
			{
				"vin": [{"coinbase": "0102"}],
				"vout": [{"scriptPubKey": {"hex": "6a03aabbcc"}}]
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rpcResponse{Result: json.RawMessage(blockJSON)})
	}))
	defer srv.Close()

	c := NewBitcoinClient(srv.URL, "", "")
	block, err := c.GetBlock(context.Background(), "00000000abc")
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if block.Time != 1234567890 {
		t.Fatalf("Time = %d", block.Time)
	}
	if len(block.OutputScripts) != 1 {
		t.Fatalf("got %d output scripts, want 1", len(block.OutputScripts))
	}
}

func TestCallReturnsRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rpcResponse{Error: &rpcError{Code: -5, Message: "Block not found"}})
	}))
	defer srv.Close()

	c := NewBitcoinClient(srv.URL, "", "")
	if _, err := c.GetBlockHash(context.Background(), 999999999); err == nil {
		t.Fatal("expected error for RPC error response")
	}
}
