package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
)

// =============================================================================
// Protocol Rules (immutable, defined in genesis)
// These MUST match across all nodes or the ledgers diverge.
// =============================================================================

// KARI denomination constants.
// 1 KARI = 10^8 base units. All on-chain amounts are in base units.
const (
	Decimals = 8
	Coin     = 100_000_000 // 10^8 base units per KARI
)

// InitialSupply is the fixed genesis mint: 100 million KARI in base units.
const InitialSupply uint64 = 10_000_000_000_000_000

// CompressedPubKeySize is the length of a compressed secp256k1 public key.
const CompressedPubKeySize = 33

// TokenConfig holds the token metadata and issuance parameters fixed at
// genesis. Metadata is frozen: it cannot change after initialization.
type TokenConfig struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Description   string `json:"description,omitempty"`
	IconURL       string `json:"icon_url,omitempty"`
	Decimals      uint8  `json:"decimals"`
	InitialSupply uint64 `json:"initial_supply"`
}

// Genesis holds the deployment configuration and protocol rules.
// This is immutable after chain launch.
type Genesis struct {
	// Chain identity
	ChainID   uint64 `json:"chain_id"`
	ChainName string `json:"chain_name"`

	// Genesis block
	Timestamp uint64 `json:"timestamp"`
	ExtraData string `json:"extra_data,omitempty"`

	// Chain administrator: the only identity allowed to seal blocks.
	// Hex-encoded compressed secp256k1 public key. Immutable deployment
	// parameter, not runtime state.
	AdminPubKey string `json:"admin_pubkey"`

	// Token issuance parameters.
	Token TokenConfig `json:"token"`
}

// kariToken returns the fixed KARI token parameters.
func kariToken() TokenConfig {
	return TokenConfig{
		Name:          "Kanari",
		Symbol:        "KARI",
		Description:   "Native regulated token of the Kanari network",
		IconURL:       "https://kanari.network/icon.png",
		Decimals:      Decimals,
		InitialSupply: InitialSupply,
	}
}

// GenesisMainnet returns the built-in mainnet genesis.
func GenesisMainnet() *Genesis {
	return &Genesis{
		ChainID:   1,
		ChainName: "kanari-mainnet",
		Timestamp: 1735689600, // 2025-01-01 00:00:00 UTC
		// Compressed secp256k1 point; replaced per deployment via --genesis.
		AdminPubKey: "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		Token:       kariToken(),
	}
}

// GenesisTestnet returns the built-in testnet genesis.
func GenesisTestnet() *Genesis {
	return &Genesis{
		ChainID:     2,
		ChainName:   "kanari-testnet",
		Timestamp:   1735689600,
		AdminPubKey: "02c6047f7441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
		Token:       kariToken(),
	}
}

// GenesisFor returns the built-in genesis for a network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return GenesisTestnet()
	default:
		return GenesisMainnet()
	}
}

// LoadGenesis reads a genesis file (JSON) and validates it.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}
	var gen Genesis
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, fmt.Errorf("parse genesis file: %w", err)
	}
	if err := gen.Validate(); err != nil {
		return nil, fmt.Errorf("genesis file %s: %w", path, err)
	}
	return &gen, nil
}

// Save writes the genesis to a JSON file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal genesis: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write genesis file: %w", err)
	}
	return nil
}

// Validate checks protocol-level genesis invariants.
func (g *Genesis) Validate() error {
	if g.ChainID == 0 {
		return fmt.Errorf("chain_id must be non-zero")
	}
	if g.ChainName == "" {
		return fmt.Errorf("chain_name is required")
	}
	if _, err := g.AdminPubKeyBytes(); err != nil {
		return err
	}
	if g.Token.Name == "" || g.Token.Symbol == "" {
		return fmt.Errorf("token name and symbol are required")
	}
	if g.Token.InitialSupply == 0 {
		return fmt.Errorf("token initial_supply must be positive")
	}
	return nil
}

// AdminPubKeyBytes decodes the admin public key.
func (g *Genesis) AdminPubKeyBytes() ([]byte, error) {
	b, err := hex.DecodeString(g.AdminPubKey)
	if err != nil {
		return nil, fmt.Errorf("admin_pubkey: invalid hex: %w", err)
	}
	if len(b) != CompressedPubKeySize {
		return nil, fmt.Errorf("admin_pubkey must be %d bytes, got %d", CompressedPubKeySize, len(b))
	}
	return b, nil
}

// AdminAddress derives the administrator's address from the genesis pubkey.
func (g *Genesis) AdminAddress() (types.Address, error) {
	pub, err := g.AdminPubKeyBytes()
	if err != nil {
		return types.Address{}, err
	}
	return crypto.AddressFromPubKey(pub), nil
}
