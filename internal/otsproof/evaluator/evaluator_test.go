package evaluator

import (
	"bytes"
	"testing"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/ops"
	"otsproof/internal/otsproof/tree"
)

func TestEvaluateSingleLeaf(t *testing.T) {
	root := tree.New()
	root.AddAttestation(attestation.Bitcoin{Height: 1})

	msg := []byte("leaf message")
	pairs, err := Evaluate(root, msg)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if !bytes.Equal(pairs[0].Message, msg) {
		t.Fatalf("Message = %q, want %q", pairs[0].Message, msg)
	}
}

func TestEvaluateAppliesOpsAlongPath(t *testing.T) {
	root := tree.New()
	child := root.AddEdge(ops.AppendOp{Data: []byte("-suffix")})
	child.AddAttestation(attestation.Litecoin{Height: 2})

	msg := []byte("base")
	pairs, err := Evaluate(root, msg)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if !bytes.Equal(pairs[0].Message, []byte("base-suffix")) {
		t.Fatalf("Message = %q, want %q", pairs[0].Message, "base-suffix")
	}
}

func TestEvaluateFansOutOverMultipleBranches(t *testing.T) {
	root := tree.New()
	sha := root.AddEdge(ops.SHA256Op{})
	sha.AddAttestation(attestation.Bitcoin{Height: 1})
	rev := root.AddEdge(ops.ReverseOp{})
	rev.AddAttestation(attestation.Pending{URI: []byte("https://cal/1")})

	pairs, err := Evaluate(root, []byte("msg"))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
}

func TestEvaluatePropagatesOpErrors(t *testing.T) {
	root := tree.New()
	child := root.AddEdge(ops.SubstrOp{Start: 0, Len: 100})
	child.AddAttestation(attestation.Bitcoin{Height: 1})

	if _, err := Evaluate(root, []byte("short")); err != ops.ErrMessageTooShort {
		t.Fatalf("got %v, want ErrMessageTooShort", err)
	}
}

func TestEvaluateDoesNotMutateTree(t *testing.T) {
	root := tree.New()
	child := root.AddEdge(ops.AppendOp{Data: []byte("x")})
	child.AddAttestation(attestation.Bitcoin{Height: 1})

	before := tree.New()
	beforeChild := before.AddEdge(ops.AppendOp{Data: []byte("x")})
	beforeChild.AddAttestation(attestation.Bitcoin{Height: 1})

	if _, err := Evaluate(root, []byte("msg")); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !tree.Equal(root, before) {
		t.Fatal("Evaluate must not mutate the tree")
	}
}
