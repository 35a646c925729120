package token

import "github.com/kanari-network/kanari-go/pkg/types"

// EventType names a token state mutation.
type EventType string

// Event types.
const (
	EventInit        EventType = "init"
	EventMint        EventType = "mint"
	EventBurn        EventType = "burn"
	EventTransfer    EventType = "transfer"
	EventDenyAdd     EventType = "deny_add"
	EventDenyRemove  EventType = "deny_remove"
	EventCapTransfer EventType = "cap_transfer"
)

// Event records a single token state mutation in the persisted journal.
// Supply is the total supply after the event applied.
type Event struct {
	Seq        uint64             `json:"seq"`
	Type       EventType          `json:"type"`
	From       types.Address      `json:"from,omitempty"`
	To         types.Address      `json:"to,omitempty"`
	Amount     uint64             `json:"amount,omitempty"`
	Capability types.CapabilityID `json:"capability,omitempty"`
	Supply     uint64             `json:"supply"`
}
