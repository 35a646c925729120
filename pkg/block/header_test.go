package block

import (
	"encoding/json"
	"testing"

	"github.com/kanari-network/kanari-go/pkg/types"
)

func testHeader() *Header {
	return &Header{
		Version:    Version,
		PrevHash:   types.Hash{0x01},
		MerkleRoot: types.Hash{0x02},
		Time:       100,
		Height:     1,
		Nonce:      0,
	}
}

func TestHeaderHash_Deterministic(t *testing.T) {
	h1 := testHeader()
	h2 := testHeader()
	if h1.Hash() != h2.Hash() {
		t.Error("identical headers produced different hashes")
	}
}

func TestHeaderHash_FieldSensitivity(t *testing.T) {
	base := testHeader().Hash()

	cases := []struct {
		name   string
		mutate func(*Header)
	}{
		{"prev_hash", func(h *Header) { h.PrevHash[0] ^= 0x01 }},
		{"merkle_root", func(h *Header) { h.MerkleRoot[0] ^= 0x01 }},
		{"time", func(h *Header) { h.Time++ }},
		{"nonce", func(h *Header) { h.Nonce++ }},
		{"version", func(h *Header) { h.Version++ }},
	}
	for _, tc := range cases {
		h := testHeader()
		tc.mutate(h)
		if h.Hash() == base {
			t.Errorf("%s: mutation did not change the hash", tc.name)
		}
	}
}

func TestHeaderHash_ExcludesHeightAndSig(t *testing.T) {
	h := testHeader()
	base := h.Hash()

	h.Height = 99
	h.AdminSig = []byte{0xAA, 0xBB}
	if h.Hash() != base {
		t.Error("hash must be a pure function of (prev_hash, merkle_root, time, nonce)")
	}
}

func TestSigningBytes_Layout(t *testing.T) {
	h := testHeader()
	b := h.SigningBytes()

	// version(4) + prev(32) + merkle(32) + time(8) + nonce(8)
	if len(b) != 84 {
		t.Fatalf("signing bytes length = %d, want 84", len(b))
	}
	if b[0] != byte(Version) {
		t.Errorf("version byte = %d, want %d", b[0], Version)
	}
	if b[4] != 0x01 {
		t.Error("prev_hash not at offset 4")
	}
	if b[36] != 0x02 {
		t.Error("merkle_root not at offset 36")
	}
	if b[68] != 100 {
		t.Error("time not little-endian at offset 68")
	}
}

func TestHeader_JSONRoundTrip(t *testing.T) {
	h := testHeader()
	h.AdminSig = []byte{0xDE, 0xAD}

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Header
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Hash() != h.Hash() {
		t.Error("JSON round trip changed the header hash")
	}
	if string(got.AdminSig) != string(h.AdminSig) {
		t.Error("JSON round trip lost the admin signature")
	}
}
