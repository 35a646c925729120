package tx

import (
	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
)

// NewTransfer builds and signs a transfer of amount base units to recipient.
func NewTransfer(key *crypto.PrivateKey, to types.Address, amount, nonce uint64) (*Transaction, error) {
	t := &Transaction{
		Version: Version,
		Op:      OpTransfer,
		To:      to,
		Amount:  amount,
		Nonce:   nonce,
	}
	if err := t.Sign(key); err != nil {
		return nil, err
	}
	return t, nil
}

// NewMint builds and signs a treasury-gated mint to recipient.
func NewMint(key *crypto.PrivateKey, treasury types.CapabilityID, to types.Address, amount, nonce uint64) (*Transaction, error) {
	t := &Transaction{
		Version:    Version,
		Op:         OpMint,
		To:         to,
		Amount:     amount,
		Capability: treasury,
		Nonce:      nonce,
	}
	if err := t.Sign(key); err != nil {
		return nil, err
	}
	return t, nil
}

// NewBurn builds and signs a treasury-gated burn from the sender's balance.
func NewBurn(key *crypto.PrivateKey, treasury types.CapabilityID, amount, nonce uint64) (*Transaction, error) {
	t := &Transaction{
		Version:    Version,
		Op:         OpBurn,
		Amount:     amount,
		Capability: treasury,
		Nonce:      nonce,
	}
	if err := t.Sign(key); err != nil {
		return nil, err
	}
	return t, nil
}

// NewDenyAdd builds and signs a deny-list addition.
func NewDenyAdd(key *crypto.PrivateKey, deny types.CapabilityID, addr types.Address, nonce uint64) (*Transaction, error) {
	t := &Transaction{
		Version:    Version,
		Op:         OpDenyAdd,
		To:         addr,
		Capability: deny,
		Nonce:      nonce,
	}
	if err := t.Sign(key); err != nil {
		return nil, err
	}
	return t, nil
}

// NewDenyRemove builds and signs a deny-list removal.
func NewDenyRemove(key *crypto.PrivateKey, deny types.CapabilityID, addr types.Address, nonce uint64) (*Transaction, error) {
	t := &Transaction{
		Version:    Version,
		Op:         OpDenyRemove,
		To:         addr,
		Capability: deny,
		Nonce:      nonce,
	}
	if err := t.Sign(key); err != nil {
		return nil, err
	}
	return t, nil
}

// NewCapTransfer builds and signs a whole-object capability move to a new holder.
func NewCapTransfer(key *crypto.PrivateKey, cap types.CapabilityID, newHolder types.Address, nonce uint64) (*Transaction, error) {
	t := &Transaction{
		Version:    Version,
		Op:         OpCapTransfer,
		To:         newHolder,
		Capability: cap,
		Nonce:      nonce,
	}
	if err := t.Sign(key); err != nil {
		return nil, err
	}
	return t, nil
}
