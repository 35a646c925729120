package token

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/kanari-network/kanari-go/internal/storage"
	"github.com/kanari-network/kanari-go/pkg/types"
)

// Key layout for the token state.
var (
	keyMetadata   = []byte("k/meta")     // Metadata JSON (frozen at init)
	keySupply     = []byte("k/supply")   // supply (8 bytes BE)
	keyEventSeq   = []byte("s/eventseq") // last event sequence (8 bytes BE)
	prefixBalance = []byte("a/")         // a/<addr(20)> -> balance (8 bytes BE)
	prefixDeny    = []byte("d/")         // d/<addr(20)> -> 0x01
	prefixCap     = []byte("c/")         // c/<capID(32)> -> Capability JSON
	prefixNonce   = []byte("n/")         // n/<addr(20)> -> nonce (8 bytes BE)
	prefixEvent   = []byte("e/")         // e/<seq(8)> -> Event JSON
)

// Store persists all token state: metadata, supply, balances, the deny
// list, capability records, sender nonces, and the event journal.
type Store struct {
	db storage.DB
}

// NewStore creates a token store over db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// ── Metadata ────────────────────────────────────────────────────────────

// PutMetadata stores the frozen token metadata. Called once at init.
func (s *Store) PutMetadata(meta *Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("metadata marshal: %w", err)
	}
	return s.db.Put(keyMetadata, data)
}

// GetMetadata retrieves the token metadata. Returns ErrNotInitialized
// before init.
func (s *Store) GetMetadata() (*Metadata, error) {
	data, err := s.db.Get(keyMetadata)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("metadata get: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("metadata unmarshal: %w", err)
	}
	return &meta, nil
}

// HasMetadata reports whether init has run.
func (s *Store) HasMetadata() (bool, error) {
	return s.db.Has(keyMetadata)
}

// ── Supply ──────────────────────────────────────────────────────────────

// PutSupply stores the running total supply.
func (s *Store) PutSupply(supply uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], supply)
	return s.db.Put(keySupply, buf[:])
}

// GetSupply returns the running total supply (0 before init).
func (s *Store) GetSupply() (uint64, error) {
	data, err := s.db.Get(keySupply)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("supply get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt supply record: %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// ── Balances ────────────────────────────────────────────────────────────

// PutBalance stores an address balance. A zero balance deletes the record.
func (s *Store) PutBalance(addr types.Address, balance uint64) error {
	if balance == 0 {
		return s.db.Delete(balanceKey(addr))
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], balance)
	return s.db.Put(balanceKey(addr), buf[:])
}

// GetBalance returns an address balance (0 if absent).
func (s *Store) GetBalance(addr types.Address) (uint64, error) {
	data, err := s.db.Get(balanceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt balance record: %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// ── Deny list ───────────────────────────────────────────────────────────

// AddDeny inserts an address into the deny set.
func (s *Store) AddDeny(addr types.Address) error {
	return s.db.Put(denyKey(addr), []byte{0x01})
}

// RemoveDeny removes an address from the deny set.
func (s *Store) RemoveDeny(addr types.Address) error {
	return s.db.Delete(denyKey(addr))
}

// IsDenied checks deny-set membership.
func (s *Store) IsDenied(addr types.Address) (bool, error) {
	return s.db.Has(denyKey(addr))
}

// DenyList returns the full deny set, sorted by address.
func (s *Store) DenyList() ([]types.Address, error) {
	var addrs []types.Address
	err := s.db.ForEach(prefixDeny, func(key, value []byte) error {
		if len(key) != len(prefixDeny)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		var a types.Address
		copy(a[:], key[len(prefixDeny):])
		addrs = append(addrs, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})
	if addrs == nil {
		addrs = []types.Address{}
	}
	return addrs, nil
}

// ── Capabilities ────────────────────────────────────────────────────────

// PutCapability stores a capability record.
func (s *Store) PutCapability(c *Capability) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("capability marshal: %w", err)
	}
	return s.db.Put(capKey(c.ID), data)
}

// GetCapability resolves a capability by ID.
func (s *Store) GetCapability(id types.CapabilityID) (*Capability, error) {
	data, err := s.db.Get(capKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownCapability
	}
	if err != nil {
		return nil, fmt.Errorf("capability get: %w", err)
	}
	var c Capability
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("capability unmarshal: %w", err)
	}
	return &c, nil
}

// Capabilities lists all capability records, treasury first.
func (s *Store) Capabilities() ([]Capability, error) {
	var caps []Capability
	err := s.db.ForEach(prefixCap, func(key, value []byte) error {
		var c Capability
		if err := json.Unmarshal(value, &c); err != nil {
			return nil // Skip corrupt entries.
		}
		caps = append(caps, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Kind < caps[j].Kind })
	if caps == nil {
		caps = []Capability{}
	}
	return caps, nil
}

// ── Nonces ──────────────────────────────────────────────────────────────

// GetNonce returns the last accepted nonce for a sender (0 if none).
func (s *Store) GetNonce(addr types.Address) (uint64, error) {
	data, err := s.db.Get(nonceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("nonce get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt nonce record: %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// PutNonce stores the last accepted nonce for a sender.
func (s *Store) PutNonce(addr types.Address, nonce uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return s.db.Put(nonceKey(addr), buf[:])
}

// ── Event journal ───────────────────────────────────────────────────────

// AppendEvent assigns the next sequence number to ev and persists it.
func (s *Store) AppendEvent(ev *Event) error {
	seq, err := s.lastEventSeq()
	if err != nil {
		return err
	}
	ev.Seq = seq + 1

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("event marshal: %w", err)
	}
	if err := s.db.Put(eventKey(ev.Seq), data); err != nil {
		return fmt.Errorf("event put: %w", err)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], ev.Seq)
	return s.db.Put(keyEventSeq, buf[:])
}

// Events returns up to limit events starting at sequence from (inclusive).
// A limit of 0 means no limit.
func (s *Store) Events(from uint64, limit int) ([]Event, error) {
	last, err := s.lastEventSeq()
	if err != nil {
		return nil, err
	}
	if from == 0 {
		from = 1
	}

	events := []Event{}
	for seq := from; seq <= last; seq++ {
		if limit > 0 && len(events) >= limit {
			break
		}
		data, err := s.db.Get(eventKey(seq))
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("event get: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("event unmarshal: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *Store) lastEventSeq() (uint64, error) {
	data, err := s.db.Get(keyEventSeq)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("event seq get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt event seq: %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func balanceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixBalance)+types.AddressSize)
	copy(key, prefixBalance)
	copy(key[len(prefixBalance):], addr[:])
	return key
}

func denyKey(addr types.Address) []byte {
	key := make([]byte, len(prefixDeny)+types.AddressSize)
	copy(key, prefixDeny)
	copy(key[len(prefixDeny):], addr[:])
	return key
}

func capKey(id types.CapabilityID) []byte {
	key := make([]byte, len(prefixCap)+types.HashSize)
	copy(key, prefixCap)
	copy(key[len(prefixCap):], id[:])
	return key
}

func nonceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixNonce)+types.AddressSize)
	copy(key, prefixNonce)
	copy(key[len(prefixNonce):], addr[:])
	return key
}

func eventKey(seq uint64) []byte {
	key := make([]byte, len(prefixEvent)+8)
	copy(key, prefixEvent)
	binary.BigEndian.PutUint64(key[len(prefixEvent):], seq)
	return key
}
