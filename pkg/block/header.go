package block

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
)

// Version is the current block header version tag.
const Version uint32 = 1

// Header contains block metadata.
//
// The block hash commits to (prev_hash, merkle_root, time, nonce) plus the
// constant version tag. Height is derived from the parent chain and AdminSig
// authenticates the header after hashing, so both are excluded from the hash.
type Header struct {
	Version    uint32     `json:"version"`
	PrevHash   types.Hash `json:"prev_hash"`
	MerkleRoot types.Hash `json:"merkle_root"`
	Time       uint64     `json:"time"`
	Height     uint64     `json:"height"`
	Nonce      uint64     `json:"nonce"`
	AdminSig   []byte     `json:"admin_sig,omitempty"`
}

// headerJSON is the JSON representation of Header with hex-encoded admin sig.
type headerJSON struct {
	Version    uint32     `json:"version"`
	PrevHash   types.Hash `json:"prev_hash"`
	MerkleRoot types.Hash `json:"merkle_root"`
	Time       uint64     `json:"time"`
	Height     uint64     `json:"height"`
	Nonce      uint64     `json:"nonce"`
	AdminSig   string     `json:"admin_sig,omitempty"`
}

// MarshalJSON encodes the header with a hex-encoded admin signature.
func (h *Header) MarshalJSON() ([]byte, error) {
	j := headerJSON{
		Version:    h.Version,
		PrevHash:   h.PrevHash,
		MerkleRoot: h.MerkleRoot,
		Time:       h.Time,
		Height:     h.Height,
		Nonce:      h.Nonce,
	}
	if h.AdminSig != nil {
		j.AdminSig = hex.EncodeToString(h.AdminSig)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a header with a hex-encoded admin signature.
func (h *Header) UnmarshalJSON(data []byte) error {
	var j headerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	h.Version = j.Version
	h.PrevHash = j.PrevHash
	h.MerkleRoot = j.MerkleRoot
	h.Time = j.Time
	h.Height = j.Height
	h.Nonce = j.Nonce
	if j.AdminSig != "" {
		b, err := hex.DecodeString(j.AdminSig)
		if err != nil {
			return err
		}
		h.AdminSig = b
	}
	return nil
}

// Hash computes the block header hash over the canonical signing bytes.
// Identical (prev_hash, merkle_root, time, nonce) inputs always reproduce
// the identical hash.
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.SigningBytes())
}

// SigningBytes returns the canonical bytes for hashing/signing.
// Format: version(4 LE) | prev_hash(32) | merkle_root(32) | time(8 LE) | nonce(8 LE)
// This layout is consensus-critical: changing it changes every block hash.
func (h *Header) SigningBytes() []byte {
	buf := make([]byte, 0, 84)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = append(buf, h.PrevHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Time)
	buf = binary.LittleEndian.AppendUint64(buf, h.Nonce)
	return buf
}
