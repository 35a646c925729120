// Package token implements the capability-gated regulated token (KARI).
//
// One token type exists per deployment. Minting and burning require the
// treasury capability; deny-list changes require the deny capability. A
// capability is an opaque handle with a recorded holder address: presenting
// it means the authenticated caller is the recorded holder. Capabilities
// move between holders as whole objects, never duplicated.
//
// Supply obeys strict conservation: at every observation point,
// supply == initial supply + all mints - all burns.
package token

import (
	"encoding/binary"

	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
)

// CapKind identifies what authority a capability grants.
type CapKind uint8

// Capability kinds.
const (
	CapTreasury CapKind = iota + 1 // mint/burn authority
	CapDeny                        // deny-list authority
)

// String returns the capability kind name.
func (k CapKind) String() string {
	switch k {
	case CapTreasury:
		return "treasury"
	case CapDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// Capability is an exclusive ownership record. Exactly one instance of
// each kind exists per deployment, created at genesis.
type Capability struct {
	ID     types.CapabilityID `json:"id"`
	Kind   CapKind            `json:"kind"`
	Holder types.Address      `json:"holder"`
}

// Metadata holds the token's descriptive information, frozen at genesis.
type Metadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
}

// DeriveCapabilityID computes the deterministic capability handle for a
// deployment: BLAKE3("kanari/cap/" || kind || chainID). Possession is
// enforced by the recorded holder, not by secrecy of the ID.
func DeriveCapabilityID(kind CapKind, chainID uint64) types.CapabilityID {
	buf := make([]byte, 0, 20)
	buf = append(buf, []byte("kanari/cap/")...)
	buf = append(buf, byte(kind))
	buf = binary.LittleEndian.AppendUint64(buf, chainID)
	return types.CapabilityID(crypto.Hash(buf))
}
