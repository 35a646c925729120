package block

import (
	"testing"

	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
)

func TestComputeMerkleRoot_Empty(t *testing.T) {
	root := ComputeMerkleRoot(nil)
	if !root.IsZero() {
		t.Errorf("empty set root = %s, want zero hash", root)
	}
}

func TestComputeMerkleRoot_Single(t *testing.T) {
	h := crypto.Hash([]byte("tx1"))
	root := ComputeMerkleRoot([]types.Hash{h})
	if root != h {
		t.Errorf("single-element root = %s, want %s", root, h)
	}
}

func TestComputeMerkleRoot_Pair(t *testing.T) {
	a := crypto.Hash([]byte("tx1"))
	b := crypto.Hash([]byte("tx2"))
	root := ComputeMerkleRoot([]types.Hash{a, b})
	if root != crypto.HashConcat(a, b) {
		t.Error("pair root should be HashConcat(a, b)")
	}
}

func TestComputeMerkleRoot_OddCount(t *testing.T) {
	hashes := []types.Hash{
		crypto.Hash([]byte("tx1")),
		crypto.Hash([]byte("tx2")),
		crypto.Hash([]byte("tx3")),
	}
	// Odd counts duplicate the last element.
	want := crypto.HashConcat(
		crypto.HashConcat(hashes[0], hashes[1]),
		crypto.HashConcat(hashes[2], hashes[2]),
	)
	if got := ComputeMerkleRoot(hashes); got != want {
		t.Errorf("odd-count root = %s, want %s", got, want)
	}
}

func TestComputeMerkleRoot_OrderSensitive(t *testing.T) {
	a := crypto.Hash([]byte("tx1"))
	b := crypto.Hash([]byte("tx2"))
	if ComputeMerkleRoot([]types.Hash{a, b}) == ComputeMerkleRoot([]types.Hash{b, a}) {
		t.Error("merkle root should depend on transaction order")
	}
}

func TestComputeMerkleRoot_DoesNotMutateInput(t *testing.T) {
	hashes := []types.Hash{
		crypto.Hash([]byte("tx1")),
		crypto.Hash([]byte("tx2")),
		crypto.Hash([]byte("tx3")),
	}
	orig := make([]types.Hash, len(hashes))
	copy(orig, hashes)

	ComputeMerkleRoot(hashes)

	for i := range hashes {
		if hashes[i] != orig[i] {
			t.Fatal("ComputeMerkleRoot mutated its input slice")
		}
	}
}
