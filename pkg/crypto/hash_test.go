package crypto

import (
	"testing"

	"github.com/kanari-network/kanari-go/pkg/types"
)

func TestHash_Deterministic(t *testing.T) {
	data := []byte("kanari ledger")
	h1 := Hash(data)
	h2 := Hash(data)
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
}

func TestHash_DifferentInputs(t *testing.T) {
	h1 := Hash([]byte("a"))
	h2 := Hash([]byte("b"))
	if h1 == h2 {
		t.Error("different inputs produced the same hash")
	}
}

func TestHash_Empty(t *testing.T) {
	h := Hash(nil)
	if h.IsZero() {
		t.Error("hash of empty input should not be the zero hash")
	}
}

func TestAddressFromPubKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pub := key.PublicKey()
	if len(pub) != 33 {
		t.Fatalf("pubkey length = %d, want 33", len(pub))
	}

	addr1 := AddressFromPubKey(pub)
	addr2 := AddressFromPubKey(pub)
	if addr1 != addr2 {
		t.Error("address derivation not deterministic")
	}
	if addr1.IsZero() {
		t.Error("derived address is zero")
	}
}

func TestHashConcat_OrderMatters(t *testing.T) {
	a := types.Hash{0x01}
	b := types.Hash{0x02}
	if HashConcat(a, b) == HashConcat(b, a) {
		t.Error("HashConcat should not be commutative")
	}
}
