// Package merkle implements the incremental note-commitment tree: a
// depth-32 binary Merkle tree represented by its non-empty rightmost
// frontier, plus per-note witnesses that are kept up to date as later
// commitments are appended in the same or later blocks.
//
// The append algorithm is the standard incremental-accumulator carry chain
// (the same technique used by streaming Merkle tree implementations): each
// level holds the last completed left-sibling subtree hash ("ommer"); an
// append combines the incoming leaf up through every level whose slot is
// already occupied, and parks the result in the first empty slot it finds.
package merkle

import (
	"crypto/sha256"
	"fmt"
)

// Depth is the fixed tree depth. Position therefore ranges over
// [0, 2^Depth).
const Depth = 32

var emptyLeaf = [32]byte{} // canonical "uncommitted" leaf value

// emptyRoots[i] is the root of an empty subtree of height i.
var emptyRoots [Depth + 1][32]byte

func init() {
	emptyRoots[0] = emptyLeaf
	for i := 1; i <= Depth; i++ {
		emptyRoots[i] = combine(emptyRoots[i-1], emptyRoots[i-1])
	}
}

func combine(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ErrFrontierFull is returned when an append would exceed the tree's fixed
// depth capacity.
var ErrFrontierFull = fmt.Errorf("frontier has reached its depth-%d capacity", Depth)

// Frontier is the rightmost path of an append-only depth-32 Merkle tree:
// enough state to compute the current root and to append further leaves in
// O(Depth) time. Ommers[i] holds the last completed left-sibling subtree
// hash at level i; Filled[i] reports whether that slot is currently
// occupied.
type Frontier struct {
	Size   uint64 // number of leaves appended so far
	Ommers [Depth][32]byte
	Filled [Depth]bool
}

// Position reports the 0-indexed position of the most recently appended
// leaf. Only meaningful when Size > 0.
func (f *Frontier) Position() uint64 {
	return f.Size - 1
}

// Clone returns an independent copy, so that callers can speculatively
// append (e.g. while walking per-note witnesses) without mutating the
// canonical frontier.
func (f *Frontier) Clone() *Frontier {
	clone := *f
	return &clone
}

// Append adds a new leaf (an extracted note commitment) to the tree.
func (f *Frontier) Append(leaf [32]byte) error {
	if f.Size >= 1<<Depth {
		return ErrFrontierFull
	}
	cur := leaf
	for i := 0; i < Depth; i++ {
		if f.Filled[i] {
			cur = combine(f.Ommers[i], cur)
			f.Filled[i] = false
		} else {
			f.Ommers[i] = cur
			f.Filled[i] = true
			break
		}
	}
	f.Size++
	return nil
}

// Root computes the current tree root, treating every as-yet-unfilled
// right subtree as the canonical empty subtree for its level.
func (f *Frontier) Root() [32]byte {
	if f.Size == 0 {
		return emptyRoots[Depth]
	}
	cur := emptyRoots[0]
	for i := 0; i < Depth; i++ {
		if f.Filled[i] {
			cur = combine(f.Ommers[i], cur)
		} else {
			cur = combine(cur, emptyRoots[i])
		}
	}
	return cur
}

// EmptyRoot is the root of a tree that has never had a leaf appended.
func EmptyRoot() [32]byte { return emptyRoots[Depth] }

// Witness is the authentication-path state for one wallet-owned note: a
// snapshot of the frontier as of the block that created the note, plus
// every subsequently appended commitment in order. Per §9's "arena of
// frontiers" design, Root replays that snapshot forward to recover the
// exact root the note is anchored to; Append records one more commitment
// in O(1).
type Witness struct {
	InitFrontier Frontier // frontier state immediately before this note's own leaf
	Leaf         [32]byte
	Subsequent   [][32]byte // commitments appended after this note's own leaf, in order
}

// NewWitness starts a witness for a note whose commitment was just appended
// to frontierBeforeLeaf (which Append mutates as a side effect, matching the
// Frontier & Witness Engine's "advance together" behavior).
func NewWitness(frontierBeforeLeaf *Frontier, leaf [32]byte) (*Witness, error) {
	snapshot := frontierBeforeLeaf.Clone()
	if err := frontierBeforeLeaf.Append(leaf); err != nil {
		return nil, err
	}
	return &Witness{InitFrontier: *snapshot, Leaf: leaf}, nil
}

// Append advances the witness by one more commitment appended later to the
// tree (from the same or a subsequent block).
func (w *Witness) Append(commitment [32]byte) error {
	if uint64(len(w.Subsequent))+w.InitFrontier.Size+1 >= 1<<Depth {
		return ErrFrontierFull
	}
	w.Subsequent = append(w.Subsequent, commitment)
	return nil
}

// Root recomputes the Merkle root this witness currently authenticates
// the note's commitment against, by replaying the recorded leaf sequence
// over the initializing frontier snapshot.
func (w *Witness) Root() [32]byte {
	f := w.InitFrontier.Clone()
	_ = f.Append(w.Leaf)
	for _, c := range w.Subsequent {
		_ = f.Append(c)
	}
	return f.Root()
}

// Position returns the fixed leaf index this witness authenticates.
func (w *Witness) Position() uint64 {
	return w.InitFrontier.Size
}
