package types

import (
	"encoding/json"
	"testing"
)

func TestParseAddress_RoundTrip(t *testing.T) {
	addr := Address{0xAB, 0xCD, 0x01}
	s := addr.String()

	if s[:2] != "0x" {
		t.Fatalf("String() = %q, want 0x prefix", s)
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	if parsed != addr {
		t.Errorf("round trip mismatch: got %s, want %s", parsed, addr)
	}
}

func TestParseAddress_RawHex(t *testing.T) {
	addr := Address{0x01, 0x02}
	raw := addr.String()[2:] // strip 0x

	parsed, err := ParseAddress(raw)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", raw, err)
	}
	if parsed != addr {
		t.Errorf("got %s, want %s", parsed, addr)
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	cases := []string{
		"",
		"0x",
		"0xzz",
		"0x0102",                                     // too short
		"0x112233445566778899aabbccddeeff0011223344556677", // too long
	}
	for _, c := range cases {
		if _, err := ParseAddress(c); err == nil {
			t.Errorf("ParseAddress(%q): expected error", c)
		}
	}
}

func TestAddress_JSON(t *testing.T) {
	addr := Address{0xDE, 0xAD}
	data, err := json.Marshal(addr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Address
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != addr {
		t.Errorf("JSON round trip: got %s, want %s", got, addr)
	}
}

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero address should be zero")
	}
	if (Address{0x01}).IsZero() {
		t.Error("non-zero address reported zero")
	}
}
