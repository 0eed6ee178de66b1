package attestation

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
)

const opReturn = 0x6a

// commitmentInOutputs reports whether one of a block's output scripts is a
// canonical OP_RETURN push of exactly the commitment bytes: 0x6a followed
// by a single pushdata opcode encoding len(commitment).
func commitmentInOutputs(commitment []byte, outputs [][]byte) bool {
	for _, script := range outputs {
		if len(script) < 2 || script[0] != opReturn {
			continue
		}
		pushLen := int(script[1])
		if pushLen != len(commitment) {
			continue
		}
		if len(script) < 2+pushLen {
			continue
		}
		if bytes.Equal(script[2:2+pushLen], commitment) {
			return true
		}
	}
	return false
}

// commitmentInCoinbase reports whether the coinbase transaction's input
// scriptSig contains commitment as a contiguous byte run. Unlike
// commitmentInOutputs, coinbase scriptSig has no single canonical
// pushdata convention across miners, so this checks containment rather
// than an exact opcode-prefixed match.
func commitmentInCoinbase(commitment, coinbaseInput []byte) bool {
	return len(coinbaseInput) > 0 && bytes.Contains(coinbaseInput, commitment)
}

// explorerHasCommitment is the permissive fallback used only when no
// full-node RPC collaborator is configured: a byte-substring search over
// whatever the explorer returns. Weaker than the RPC path's slot-exact
// check, acceptable only as a fallback.
func explorerHasCommitment(body, commitment []byte) bool {
	return bytes.Contains(body, commitment) || bytes.Contains(body, []byte(hex.EncodeToString(commitment)))
}

// Verify checks that commitment is anchored in the Bitcoin block at Height,
// preferring a full-node RPC slot-exact check and falling back to a
// block-explorer substring check when no BitcoinRPC collaborator is
// configured.
func (a Bitcoin) Verify(ctx context.Context, commitment []byte, vc *VerifyContext) Verdict {
	if vc.Bitcoin != nil {
		hash, err := vc.Bitcoin.GetBlockHash(ctx, a.Height)
		if err != nil {
			return Unknown(err.Error())
		}
		block, err := vc.Bitcoin.GetBlock(ctx, hash)
		if err != nil {
			return Unknown(err.Error())
		}
		found := commitmentInOutputs(commitment, block.OutputScripts) || commitmentInCoinbase(commitment, block.CoinbaseInput)
		if !found {
			return Failed(FailureCommitmentNotFound)
		}
		t := block.Time
		return Verified(block.Hash, &t)
	}
	return explorerVerify(ctx, vc, vc.BitcoinExplorers, commitment, fmt.Sprintf("bitcoin block %d", a.Height))
}

// Verify checks that commitment is anchored in the Litecoin block at
// Height, following the same RPC-then-explorer strategy as Bitcoin.
func (a Litecoin) Verify(ctx context.Context, commitment []byte, vc *VerifyContext) Verdict {
	// VerifyContext.Bitcoin is scoped to Bitcoin RPC only; Litecoin always
	// goes through its explorer set unless a dedicated RPC collaborator is
	// added to VerifyContext.
	return explorerVerify(ctx, vc, vc.LitecoinExplorers, commitment, fmt.Sprintf("litecoin block %d", a.Height))
}

func explorerVerify(ctx context.Context, vc *VerifyContext, explorers []string, commitment []byte, what string) Verdict {
	if vc.HTTP == nil || len(explorers) == 0 {
		return Unknown(fmt.Sprintf("no verification path configured for %s", what))
	}
	var lastErr error
	for _, base := range explorers {
		body, err := vc.HTTP.Get(ctx, base, vc.RequestTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		if explorerHasCommitment(body, commitment) {
			return Verified(base, nil)
		}
		return Failed(FailureCommitmentNotFound)
	}
	if lastErr != nil {
		return Unknown(lastErr.Error())
	}
	return Unknown(fmt.Sprintf("no explorer reachable for %s", what))
}

// Verify checks that commitment appears in the input data of transaction
// TxHash, preferring the EthereumRPC collaborator and falling back to a
// configured block explorer.
func (a Ethereum) Verify(ctx context.Context, commitment []byte, vc *VerifyContext) Verdict {
	if vc.Ethereum != nil {
		input, blockTime, err := vc.Ethereum.GetTransactionInput(ctx, a.TxHash)
		if err != nil {
			return Unknown(err.Error())
		}
		if !bytes.Contains(input, commitment) {
			return Failed(FailureCommitmentNotFound)
		}
		t := blockTime
		return Verified(hex.EncodeToString(a.TxHash[:]), &t)
	}
	return explorerVerify(ctx, vc, vc.EthereumExplorers, commitment, fmt.Sprintf("ethereum tx %x", a.TxHash))
}

// Verify performs a calendar lookup at URI; it never checks a chain. Any
// successful response yields StatusPending with URI as UpgradeHint: the
// response body is not inspected, so a calendar that already holds a
// concrete attestation still yields StatusPending here, and the tree is
// not changed. A failed request yields StatusUnknown. Replacing a Pending
// attestation with the calendar's subtree is done by calendar.Client.Upgrade.
func (a Pending) Verify(ctx context.Context, commitment []byte, vc *VerifyContext) Verdict {
	if vc.HTTP == nil {
		return Unknown("no HTTP client configured for calendar lookup")
	}
	_, err := vc.HTTP.Get(ctx, string(a.URI), vc.RequestTimeout)
	if err != nil {
		return Unknown(err.Error())
	}
	return PendingVerdict(string(a.URI))
}
