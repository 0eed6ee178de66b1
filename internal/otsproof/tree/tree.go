// Package tree implements the recursive timestamp tree: a message-anchor
// DAG whose leaves are attestations and whose internal edges are labeled
// with the operation that must be applied to reach the child's message
// from the parent's.
package tree

import (
	"bytes"
	"sort"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/bytestream"
	"otsproof/internal/otsproof/ops"
)

// Edge is one (operation, child) pair hanging off a Timestamp node. The
// operation transforms the parent's evaluated message into the child's.
type Edge struct {
	Op    ops.Op
	Child *Timestamp
}

// Timestamp is one node of the tree: a set of attestations that directly
// commit to this node's (implicit) evaluated message, plus a list of
// edges to children whose messages are derived from this one.
type Timestamp struct {
	Attestations []attestation.Attestation
	Edges        []Edge
}

// New returns an empty timestamp node.
func New() *Timestamp {
	return &Timestamp{}
}

// AddAttestation appends a to t's attestation set unless an
// encoding-identical attestation is already present.
func (t *Timestamp) AddAttestation(a attestation.Attestation) {
	for _, existing := range t.Attestations {
		if existing.Equal(a) {
			return
		}
	}
	t.Attestations = append(t.Attestations, a)
}

// AddEdge appends an edge for op, or returns the existing child if an
// encoding-identical operation edge is already present, so callers can
// keep extending a shared subtree instead of creating a duplicate.
func (t *Timestamp) AddEdge(op ops.Op) *Timestamp {
	for _, e := range t.Edges {
		if e.Op.Equal(op) {
			return e.Child
		}
	}
	child := New()
	t.Edges = append(t.Edges, Edge{Op: op, Child: child})
	return child
}

// IsLeaf reports whether t has no outgoing edges.
func (t *Timestamp) IsLeaf() bool {
	return len(t.Edges) == 0
}

// Merge combines b into a in place and returns a. Attestations are
// unioned, deduped by encoding; edges whose operation encodes identically
// are merged recursively, and edges present only in b are appended,
// preserving each side's insertion order (a's edges first, then b's
// edges not already present). Merge is commutative and associative up to
// set-equality of the resulting tree, and merging a node with itself, or
// with an empty node, is a no-op.
func Merge(a, b *Timestamp) *Timestamp {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	for _, at := range b.Attestations {
		a.AddAttestation(at)
	}
	for _, be := range b.Edges {
		matched := false
		for i, ae := range a.Edges {
			if ae.Op.Equal(be.Op) {
				a.Edges[i].Child = Merge(ae.Child, be.Child)
				matched = true
				break
			}
		}
		if !matched {
			a.Edges = append(a.Edges, be)
		}
	}
	return a
}

// PendingRef locates one Pending attestation within a tree, together with
// the node it hangs off, so a caller can later replace it with the
// concrete subtree a calendar's upgrade response provides.
type PendingRef struct {
	Node *Timestamp
	Attn attestation.Pending
}

// FindPending walks t depth-first and returns every Pending attestation
// reachable from it, along with the node each hangs off.
func FindPending(t *Timestamp) []PendingRef {
	var out []PendingRef
	var walk func(n *Timestamp)
	walk = func(n *Timestamp) {
		for _, a := range n.Attestations {
			if p, ok := a.(attestation.Pending); ok {
				out = append(out, PendingRef{Node: n, Attn: p})
			}
		}
		for _, e := range n.Edges {
			walk(e.Child)
		}
	}
	walk(t)
	return out
}

// ReplacePending removes the given Pending attestation from its node and
// merges replacement into that node in its place, per the calendar
// upgrade protocol: a Pending promise is retired once the calendar can
// produce the concrete attestation (and any intervening operations) it
// promised.
func ReplacePending(ref PendingRef, replacement *Timestamp) {
	filtered := ref.Node.Attestations[:0]
	for _, a := range ref.Node.Attestations {
		if p, ok := a.(attestation.Pending); ok && p.Equal(ref.Attn) {
			continue
		}
		filtered = append(filtered, a)
	}
	ref.Node.Attestations = filtered
	Merge(ref.Node, replacement)
}

// Equal reports whether a and b describe the same set of attestations and
// the same set of (op, child) edges, ignoring order — the equality
// relation the merge laws are stated up to.
func Equal(a, b *Timestamp) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Attestations) != len(b.Attestations) || len(a.Edges) != len(b.Edges) {
		return false
	}
	if !sameAttestationSet(a.Attestations, b.Attestations) {
		return false
	}
	usedB := make([]bool, len(b.Edges))
	for _, ae := range a.Edges {
		found := false
		for i, be := range b.Edges {
			if usedB[i] || !ae.Op.Equal(be.Op) {
				continue
			}
			if Equal(ae.Child, be.Child) {
				usedB[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sameAttestationSet(a, b []attestation.Attestation) bool {
	encode := func(as []attestation.Attestation) [][]byte {
		out := make([][]byte, len(as))
		for i, at := range as {
			w := bytestream.NewWriter()
			w.WriteU8(at.Tag())
			at.Encode(w)
			out[i] = w.Bytes()
		}
		sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
		return out
	}
	ea, eb := encode(a), encode(b)
	if len(ea) != len(eb) {
		return false
	}
	for i := range ea {
		if !bytes.Equal(ea[i], eb[i]) {
			return false
		}
	}
	return true
}
