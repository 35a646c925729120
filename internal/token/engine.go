package token

import (
	"fmt"
	"math"
	"sync"

	"github.com/kanari-network/kanari-go/config"
	klog "github.com/kanari-network/kanari-go/internal/log"
	"github.com/kanari-network/kanari-go/internal/storage"
	"github.com/kanari-network/kanari-go/pkg/tx"
	"github.com/kanari-network/kanari-go/pkg/types"
	"github.com/rs/zerolog"
)

// Engine is the regulated token state machine. Every entry operation is a
// single serialized state transition: it either commits fully or leaves
// the ledger unchanged.
type Engine struct {
	mu     sync.Mutex
	store  *Store
	logger zerolog.Logger
}

// NewEngine creates a token engine over db.
func NewEngine(db storage.DB) *Engine {
	return &Engine{
		store:  NewStore(db),
		logger: klog.Token,
	}
}

// Init runs the one-time genesis operation: it registers the token type
// with frozen metadata, mints the initial supply to the administrator, and
// creates the treasury and deny capabilities held by the administrator.
// A second call fails with ErrAlreadyInitialized.
func (e *Engine) Init(gen *config.Genesis) (treasury, deny *Capability, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	initialized, err := e.store.HasMetadata()
	if err != nil {
		return nil, nil, err
	}
	if initialized {
		return nil, nil, ErrAlreadyInitialized
	}

	admin, err := gen.AdminAddress()
	if err != nil {
		return nil, nil, err
	}

	meta := &Metadata{
		Name:        gen.Token.Name,
		Symbol:      gen.Token.Symbol,
		Decimals:    gen.Token.Decimals,
		Description: gen.Token.Description,
		IconURL:     gen.Token.IconURL,
	}

	treasury = &Capability{
		ID:     DeriveCapabilityID(CapTreasury, gen.ChainID),
		Kind:   CapTreasury,
		Holder: admin,
	}
	deny = &Capability{
		ID:     DeriveCapabilityID(CapDeny, gen.ChainID),
		Kind:   CapDeny,
		Holder: admin,
	}

	if err := e.store.PutCapability(treasury); err != nil {
		return nil, nil, err
	}
	if err := e.store.PutCapability(deny); err != nil {
		return nil, nil, err
	}
	if err := e.store.PutBalance(admin, gen.Token.InitialSupply); err != nil {
		return nil, nil, err
	}
	if err := e.store.PutSupply(gen.Token.InitialSupply); err != nil {
		return nil, nil, err
	}
	// Metadata last: its presence marks init as complete, so a crash
	// mid-init leaves a retryable state rather than a half-born token.
	if err := e.store.PutMetadata(meta); err != nil {
		return nil, nil, err
	}

	if err := e.store.AppendEvent(&Event{
		Type:   EventInit,
		To:     admin,
		Amount: gen.Token.InitialSupply,
		Supply: gen.Token.InitialSupply,
	}); err != nil {
		return nil, nil, err
	}

	e.logger.Info().
		Str("symbol", meta.Symbol).
		Uint64("initial_supply", gen.Token.InitialSupply).
		Str("admin", admin.String()).
		Msg("Token initialized")
	return treasury, deny, nil
}

// Initialized reports whether Init has run.
func (e *Engine) Initialized() (bool, error) {
	return e.store.HasMetadata()
}

// requireCapability resolves cap and checks that caller is its current
// holder and that it grants kind.
func (e *Engine) requireCapability(cap types.CapabilityID, kind CapKind, caller types.Address) (*Capability, error) {
	c, err := e.store.GetCapability(cap)
	if err != nil {
		return nil, err
	}
	if c.Kind != kind || c.Holder != caller {
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Mint increases supply by amount and credits recipient. The caller must
// hold the treasury capability. Returns the updated supply.
func (e *Engine) Mint(caller types.Address, cap types.CapabilityID, recipient types.Address, amount uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mint(caller, cap, recipient, amount)
}

// mint requires e.mu.
func (e *Engine) mint(caller types.Address, cap types.CapabilityID, recipient types.Address, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	if _, err := e.requireCapability(cap, CapTreasury, caller); err != nil {
		return 0, err
	}

	supply, err := e.store.GetSupply()
	if err != nil {
		return 0, err
	}
	if supply > math.MaxUint64-amount {
		return 0, ErrSupplyOverflow
	}

	balance, err := e.store.GetBalance(recipient)
	if err != nil {
		return 0, err
	}
	if balance > math.MaxUint64-amount {
		return 0, fmt.Errorf("recipient balance overflow")
	}

	if err := e.store.PutBalance(recipient, balance+amount); err != nil {
		return 0, err
	}
	newSupply := supply + amount
	if err := e.store.PutSupply(newSupply); err != nil {
		return 0, err
	}
	if err := e.store.AppendEvent(&Event{
		Type:       EventMint,
		From:       caller,
		To:         recipient,
		Amount:     amount,
		Capability: cap,
		Supply:     newSupply,
	}); err != nil {
		return 0, err
	}

	e.logger.Info().
		Uint64("amount", amount).
		Str("recipient", recipient.String()).
		Uint64("supply", newSupply).
		Msg("Minted")
	return newSupply, nil
}

// Burn decreases supply by amount, destroying funds from the caller's own
// balance. The caller must hold the treasury capability. The burned funds
// are removed from circulation; no account is credited. Returns the
// updated supply.
func (e *Engine) Burn(caller types.Address, cap types.CapabilityID, amount uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.burn(caller, cap, amount)
}

// burn requires e.mu.
func (e *Engine) burn(caller types.Address, cap types.CapabilityID, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	if _, err := e.requireCapability(cap, CapTreasury, caller); err != nil {
		return 0, err
	}

	balance, err := e.store.GetBalance(caller)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return 0, fmt.Errorf("%w: balance %d, burning %d", ErrInsufficientBalance, balance, amount)
	}

	supply, err := e.store.GetSupply()
	if err != nil {
		return 0, err
	}
	if supply < amount {
		// Conservation means this is unreachable unless the store is corrupt.
		return 0, fmt.Errorf("supply %d below burn amount %d", supply, amount)
	}

	if err := e.store.PutBalance(caller, balance-amount); err != nil {
		return 0, err
	}
	newSupply := supply - amount
	if err := e.store.PutSupply(newSupply); err != nil {
		return 0, err
	}
	if err := e.store.AppendEvent(&Event{
		Type:       EventBurn,
		From:       caller,
		Amount:     amount,
		Capability: cap,
		Supply:     newSupply,
	}); err != nil {
		return 0, err
	}

	e.logger.Info().
		Uint64("amount", amount).
		Str("from", caller.String()).
		Uint64("supply", newSupply).
		Msg("Burned")
	return newSupply, nil
}

// Transfer moves amount from sender to recipient atomically. Both parties
// must be absent from the deny list.
func (e *Engine) Transfer(sender, recipient types.Address, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transfer(sender, recipient, amount)
}

// transfer requires e.mu.
func (e *Engine) transfer(sender, recipient types.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	for _, addr := range []types.Address{sender, recipient} {
		denied, err := e.store.IsDenied(addr)
		if err != nil {
			return err
		}
		if denied {
			return fmt.Errorf("%w: %s", ErrDeniedAddress, addr)
		}
	}

	senderBal, err := e.store.GetBalance(sender)
	if err != nil {
		return err
	}
	if senderBal < amount {
		return fmt.Errorf("%w: balance %d, sending %d", ErrInsufficientBalance, senderBal, amount)
	}

	recipientBal, err := e.store.GetBalance(recipient)
	if err != nil {
		return err
	}
	if recipientBal > math.MaxUint64-amount {
		return fmt.Errorf("recipient balance overflow")
	}

	// Self-transfer is a no-op on balances but still journaled.
	if sender != recipient {
		if err := e.store.PutBalance(sender, senderBal-amount); err != nil {
			return err
		}
		if err := e.store.PutBalance(recipient, recipientBal+amount); err != nil {
			return err
		}
	}

	supply, err := e.store.GetSupply()
	if err != nil {
		return err
	}
	if err := e.store.AppendEvent(&Event{
		Type:   EventTransfer,
		From:   sender,
		To:     recipient,
		Amount: amount,
		Supply: supply,
	}); err != nil {
		return err
	}

	e.logger.Debug().
		Uint64("amount", amount).
		Str("from", sender.String()).
		Str("to", recipient.String()).
		Msg("Transferred")
	return nil
}

// DenyListAdd inserts addr into the deny set. The caller must hold the
// deny capability. Subsequent transfers involving addr are rejected.
func (e *Engine) DenyListAdd(caller types.Address, cap types.CapabilityID, addr types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.denyListAdd(caller, cap, addr)
}

// denyListAdd requires e.mu.
func (e *Engine) denyListAdd(caller types.Address, cap types.CapabilityID, addr types.Address) error {
	if _, err := e.requireCapability(cap, CapDeny, caller); err != nil {
		return err
	}
	if err := e.store.AddDeny(addr); err != nil {
		return err
	}

	supply, err := e.store.GetSupply()
	if err != nil {
		return err
	}
	if err := e.store.AppendEvent(&Event{
		Type:       EventDenyAdd,
		From:       caller,
		To:         addr,
		Capability: cap,
		Supply:     supply,
	}); err != nil {
		return err
	}

	e.logger.Info().Str("address", addr.String()).Msg("Address denied")
	return nil
}

// DenyListRemove removes addr from the deny set. The caller must hold the
// deny capability.
func (e *Engine) DenyListRemove(caller types.Address, cap types.CapabilityID, addr types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.denyListRemove(caller, cap, addr)
}

// denyListRemove requires e.mu.
func (e *Engine) denyListRemove(caller types.Address, cap types.CapabilityID, addr types.Address) error {
	if _, err := e.requireCapability(cap, CapDeny, caller); err != nil {
		return err
	}
	if err := e.store.RemoveDeny(addr); err != nil {
		return err
	}

	supply, err := e.store.GetSupply()
	if err != nil {
		return err
	}
	if err := e.store.AppendEvent(&Event{
		Type:       EventDenyRemove,
		From:       caller,
		To:         addr,
		Capability: cap,
		Supply:     supply,
	}); err != nil {
		return err
	}

	e.logger.Info().Str("address", addr.String()).Msg("Address undenied")
	return nil
}

// TransferCapability moves a capability to a new holder as a whole object.
// Only the current holder may move it; there is never more than one holder.
func (e *Engine) TransferCapability(caller types.Address, cap types.CapabilityID, newHolder types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transferCapability(caller, cap, newHolder)
}

// transferCapability requires e.mu.
func (e *Engine) transferCapability(caller types.Address, cap types.CapabilityID, newHolder types.Address) error {
	c, err := e.store.GetCapability(cap)
	if err != nil {
		return err
	}
	if c.Holder != caller {
		return ErrUnauthorized
	}

	c.Holder = newHolder
	if err := e.store.PutCapability(c); err != nil {
		return err
	}

	supply, err := e.store.GetSupply()
	if err != nil {
		return err
	}
	if err := e.store.AppendEvent(&Event{
		Type:       EventCapTransfer,
		From:       caller,
		To:         newHolder,
		Capability: cap,
		Supply:     supply,
	}); err != nil {
		return err
	}

	e.logger.Info().
		Str("capability", c.Kind.String()).
		Str("holder", newHolder.String()).
		Msg("Capability transferred")
	return nil
}

// Apply validates and executes a signed transaction envelope as a single
// state transition. The sender is authenticated by the envelope signature;
// the nonce must be exactly one past the sender's last accepted nonce and
// is consumed only when the operation commits, so a failed operation
// leaves the sequence reusable.
func (e *Engine) Apply(t *tx.Transaction) error {
	if err := tx.ValidateBasic(t); err != nil {
		return err
	}
	sender := t.Sender()

	e.mu.Lock()
	defer e.mu.Unlock()

	last, err := e.store.GetNonce(sender)
	if err != nil {
		return err
	}
	if t.Nonce != last+1 {
		return fmt.Errorf("%w: got %d, want %d", ErrBadNonce, t.Nonce, last+1)
	}

	switch t.Op {
	case tx.OpTransfer:
		err = e.transfer(sender, t.To, t.Amount)
	case tx.OpMint:
		_, err = e.mint(sender, t.Capability, t.To, t.Amount)
	case tx.OpBurn:
		_, err = e.burn(sender, t.Capability, t.Amount)
	case tx.OpDenyAdd:
		err = e.denyListAdd(sender, t.Capability, t.To)
	case tx.OpDenyRemove:
		err = e.denyListRemove(sender, t.Capability, t.To)
	case tx.OpCapTransfer:
		err = e.transferCapability(sender, t.Capability, t.To)
	default:
		err = fmt.Errorf("unknown operation %d", uint8(t.Op))
	}
	if err != nil {
		return err
	}
	return e.store.PutNonce(sender, t.Nonce)
}

// ── Queries ─────────────────────────────────────────────────────────────

// Metadata returns the frozen token metadata.
func (e *Engine) Metadata() (*Metadata, error) {
	return e.store.GetMetadata()
}

// Supply returns the current total supply.
func (e *Engine) Supply() (uint64, error) {
	return e.store.GetSupply()
}

// BalanceOf returns the balance of addr.
func (e *Engine) BalanceOf(addr types.Address) (uint64, error) {
	return e.store.GetBalance(addr)
}

// IsDenied checks deny-set membership for addr.
func (e *Engine) IsDenied(addr types.Address) (bool, error) {
	return e.store.IsDenied(addr)
}

// DenyList returns the full deny set.
func (e *Engine) DenyList() ([]types.Address, error) {
	return e.store.DenyList()
}

// Capabilities lists the capability records.
func (e *Engine) Capabilities() ([]Capability, error) {
	return e.store.Capabilities()
}

// Events returns journal events starting at from (0 = beginning),
// capped at limit (0 = unlimited).
func (e *Engine) Events(from uint64, limit int) ([]Event, error) {
	return e.store.Events(from, limit)
}

// NonceOf returns the last accepted nonce for addr.
func (e *Engine) NonceOf(addr types.Address) (uint64, error) {
	return e.store.GetNonce(addr)
}
