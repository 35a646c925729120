package config

import (
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/kanari-network/kanari-go/pkg/crypto"
)

func TestBuiltinGenesis_Valid(t *testing.T) {
	for _, network := range []NetworkType{Mainnet, Testnet} {
		gen := GenesisFor(network)
		if err := gen.Validate(); err != nil {
			t.Errorf("%s genesis invalid: %v", network, err)
		}
	}
}

func TestBuiltinGenesis_DistinctChainIDs(t *testing.T) {
	if GenesisMainnet().ChainID == GenesisTestnet().ChainID {
		t.Error("mainnet and testnet share a chain ID")
	}
}

func TestGenesis_TokenParameters(t *testing.T) {
	gen := GenesisMainnet()
	if gen.Token.Symbol != "KARI" {
		t.Errorf("symbol = %q, want KARI", gen.Token.Symbol)
	}
	if gen.Token.Decimals != Decimals {
		t.Errorf("decimals = %d, want %d", gen.Token.Decimals, Decimals)
	}
	if gen.Token.InitialSupply != InitialSupply {
		t.Errorf("initial supply = %d, want %d", gen.Token.InitialSupply, InitialSupply)
	}
	// 100 million KARI at 8 decimals.
	if InitialSupply != 100_000_000*uint64(Coin) {
		t.Error("initial supply does not equal 100M KARI")
	}
}

func TestGenesis_SaveLoadRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	gen := GenesisMainnet()
	gen.AdminPubKey = hex.EncodeToString(key.PublicKey())

	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := gen.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadGenesis(path)
	if err != nil {
		t.Fatalf("LoadGenesis: %v", err)
	}
	if loaded.ChainID != gen.ChainID || loaded.AdminPubKey != gen.AdminPubKey {
		t.Error("round trip lost fields")
	}
	if loaded.Token != gen.Token {
		t.Error("round trip lost token config")
	}
}

func TestGenesis_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Genesis)
	}{
		{"zero chain_id", func(g *Genesis) { g.ChainID = 0 }},
		{"empty chain_name", func(g *Genesis) { g.ChainName = "" }},
		{"empty admin_pubkey", func(g *Genesis) { g.AdminPubKey = "" }},
		{"bad admin_pubkey hex", func(g *Genesis) { g.AdminPubKey = "zz" }},
		{"short admin_pubkey", func(g *Genesis) { g.AdminPubKey = "0102" }},
		{"empty symbol", func(g *Genesis) { g.Token.Symbol = "" }},
		{"zero supply", func(g *Genesis) { g.Token.InitialSupply = 0 }},
	}
	for _, tc := range cases {
		gen := GenesisMainnet()
		tc.mutate(gen)
		if err := gen.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestGenesis_AdminAddress(t *testing.T) {
	key, _ := crypto.GenerateKey()
	gen := GenesisMainnet()
	gen.AdminPubKey = hex.EncodeToString(key.PublicKey())

	addr, err := gen.AdminAddress()
	if err != nil {
		t.Fatalf("AdminAddress: %v", err)
	}
	if addr != crypto.AddressFromPubKey(key.PublicKey()) {
		t.Error("admin address does not match pubkey derivation")
	}
}
