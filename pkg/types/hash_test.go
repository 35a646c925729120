package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHexToHash_RoundTrip(t *testing.T) {
	h := Hash{0x01, 0x02, 0xFF}
	s := h.String()

	if len(s) != HashSize*2 {
		t.Fatalf("String() length = %d, want %d", len(s), HashSize*2)
	}

	parsed, err := HexToHash(s)
	if err != nil {
		t.Fatalf("HexToHash(%q): %v", s, err)
	}
	if parsed != h {
		t.Errorf("round trip mismatch: got %s, want %s", parsed, h)
	}
}

func TestHexToHash_Invalid(t *testing.T) {
	cases := []string{
		"",
		"zz",
		"0102",
		strings.Repeat("ab", HashSize+1),
	}
	for _, c := range cases {
		if _, err := HexToHash(c); err == nil {
			t.Errorf("HexToHash(%q): expected error", c)
		}
	}
}

func TestHash_JSON(t *testing.T) {
	h := Hash{0xAA, 0xBB}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Hash
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != h {
		t.Errorf("JSON round trip: got %s, want %s", got, h)
	}
}

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero hash should be zero")
	}
	if (Hash{0x01}).IsZero() {
		t.Error("non-zero hash reported zero")
	}
}
