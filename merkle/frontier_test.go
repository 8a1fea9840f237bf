package merkle

import (
	"crypto/sha256"
	"testing"
)

func leafAt(i int) [32]byte {
	return sha256.Sum256([]byte{byte(i)})
}

func TestEmptyFrontierRootIsCanonical(t *testing.T) {
	f := &Frontier{}
	if f.Root() != EmptyRoot() {
		t.Errorf("empty frontier root does not match EmptyRoot()")
	}
}

func TestAppendChangesRoot(t *testing.T) {
	f := &Frontier{}
	before := f.Root()
	if err := f.Append(leafAt(1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	after := f.Root()
	if before == after {
		t.Errorf("root did not change after appending a leaf")
	}
	if f.Size != 1 {
		t.Errorf("Size = %d, want 1", f.Size)
	}
}

func TestAppendIsDeterministic(t *testing.T) {
	f1, f2 := &Frontier{}, &Frontier{}
	for i := 0; i < 10; i++ {
		leaf := leafAt(i)
		if err := f1.Append(leaf); err != nil {
			t.Fatalf("f1.Append: %v", err)
		}
		if err := f2.Append(leaf); err != nil {
			t.Fatalf("f2.Append: %v", err)
		}
	}
	if f1.Root() != f2.Root() {
		t.Errorf("two frontiers fed the same leaf sequence diverged")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := &Frontier{}
	if err := f.Append(leafAt(1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	clone := f.Clone()
	if err := clone.Append(leafAt(2)); err != nil {
		t.Fatalf("clone.Append: %v", err)
	}
	if f.Size == clone.Size {
		t.Errorf("mutating the clone affected the original frontier")
	}
}

func TestWitnessRootMatchesFrontierAtCapture(t *testing.T) {
	f := &Frontier{}
	for i := 0; i < 3; i++ {
		if err := f.Append(leafAt(i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	leaf := leafAt(99)
	w, err := NewWitness(f, leaf)
	if err != nil {
		t.Fatalf("NewWitness: %v", err)
	}

	if w.Root() != f.Root() {
		t.Errorf("witness root does not match frontier root immediately after capture")
	}
	if w.Position() != 3 {
		t.Errorf("Position() = %d, want 3", w.Position())
	}
}

func TestWitnessTracksLaterAppends(t *testing.T) {
	f := &Frontier{}
	leaf := leafAt(7)
	w, err := NewWitness(f, leaf)
	if err != nil {
		t.Fatalf("NewWitness: %v", err)
	}

	for i := 0; i < 5; i++ {
		later := leafAt(100 + i)
		if err := f.Append(later); err != nil {
			t.Fatalf("f.Append: %v", err)
		}
		if err := w.Append(later); err != nil {
			t.Fatalf("w.Append: %v", err)
		}
		if w.Root() != f.Root() {
			t.Fatalf("witness root diverged from frontier root after %d later appends", i+1)
		}
	}
}

func TestNewWitnessMutatesPassedFrontier(t *testing.T) {
	f := &Frontier{}
	before := f.Size
	if _, err := NewWitness(f, leafAt(1)); err != nil {
		t.Fatalf("NewWitness: %v", err)
	}
	if f.Size != before+1 {
		t.Errorf("NewWitness did not append the leaf to the passed frontier")
	}
}
