// Package evaluator walks a timestamp tree, applying each edge's
// operation to derive every attestation's evaluated message. It never
// mutates the tree.
package evaluator

import (
	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/tree"
)

// Pair is one attestation together with the message it commits to, once
// every operation on the path from the root has been applied.
type Pair struct {
	Attestation attestation.Attestation
	Message     []byte
}

// Evaluate returns every (attestation, evaluated message) pair reachable
// from root, starting from msg at the root. It is pure: root and msg are
// read only, never modified.
func Evaluate(root *tree.Timestamp, msg []byte) ([]Pair, error) {
	var out []Pair
	if err := walk(root, msg, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walk(node *tree.Timestamp, msg []byte, out *[]Pair) error {
	for _, a := range node.Attestations {
		*out = append(*out, Pair{Attestation: a, Message: msg})
	}
	for _, e := range node.Edges {
		next, err := e.Op.Apply(msg)
		if err != nil {
			return err
		}
		if err := walk(e.Child, next, out); err != nil {
			return err
		}
	}
	return nil
}
