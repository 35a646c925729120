package token

import (
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kanari-network/kanari-go/config"
	"github.com/kanari-network/kanari-go/internal/storage"
	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/tx"
	"github.com/kanari-network/kanari-go/pkg/types"
)

func testGenesis(t *testing.T, adminKey *crypto.PrivateKey) *config.Genesis {
	t.Helper()
	gen := config.GenesisTestnet()
	gen.AdminPubKey = hex.EncodeToString(adminKey.PublicKey())
	return gen
}

func newTestEngine(t *testing.T) (*Engine, *crypto.PrivateKey, *Capability, *Capability) {
	t.Helper()
	adminKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	e := NewEngine(storage.NewMemory())
	treasury, deny, err := e.Init(testGenesis(t, adminKey))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	return e, adminKey, treasury, deny
}

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func TestInit(t *testing.T) {
	e, adminKey, treasury, deny := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())

	supply, err := e.Supply()
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	if supply != config.InitialSupply {
		t.Errorf("supply = %d, want %d", supply, config.InitialSupply)
	}
	bal, err := e.BalanceOf(admin)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != config.InitialSupply {
		t.Errorf("admin balance = %d, want %d", bal, config.InitialSupply)
	}

	meta, err := e.Metadata()
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Symbol != "KARI" || meta.Decimals != config.Decimals {
		t.Errorf("metadata = %+v", meta)
	}

	if treasury.Kind != CapTreasury || treasury.Holder != admin {
		t.Errorf("treasury capability = %+v", treasury)
	}
	if deny.Kind != CapDeny || deny.Holder != admin {
		t.Errorf("deny capability = %+v", deny)
	}
}

func TestInitTwiceFails(t *testing.T) {
	e, adminKey, _, _ := newTestEngine(t)
	if _, _, err := e.Init(testGenesis(t, adminKey)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second init: got %v, want ErrAlreadyInitialized", err)
	}
}

func TestMintAndBurnSupply(t *testing.T) {
	e, adminKey, treasury, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())

	supply, err := e.Mint(admin, treasury.ID, admin, 500)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if supply != 10_000_000_000_000_500 {
		t.Errorf("supply after mint = %d, want 10000000000000500", supply)
	}

	supply, err = e.Burn(admin, treasury.ID, 200)
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if supply != 10_000_000_000_000_300 {
		t.Errorf("supply after burn = %d, want 10000000000000300", supply)
	}

	bal, _ := e.BalanceOf(admin)
	if bal != supply {
		t.Errorf("admin balance = %d, want %d", bal, supply)
	}
}

func TestMintUnauthorized(t *testing.T) {
	e, _, treasury, deny := newTestEngine(t)
	stranger := addr(0x11)

	// Stranger presents the treasury capability it does not hold.
	if _, err := e.Mint(stranger, treasury.ID, stranger, 100); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger mint: got %v, want ErrUnauthorized", err)
	}
	// Deny capability does not grant mint, even held by the admin.
	admin := treasury.Holder
	if _, err := e.Mint(admin, deny.ID, admin, 100); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("mint with deny cap: got %v, want ErrUnauthorized", err)
	}
	if _, err := e.Mint(admin, types.CapabilityID{0xab}, admin, 100); !errors.Is(err, ErrUnknownCapability) {
		t.Errorf("mint with bogus cap: got %v, want ErrUnknownCapability", err)
	}
}

func TestZeroAmounts(t *testing.T) {
	e, adminKey, treasury, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())

	if _, err := e.Mint(admin, treasury.ID, admin, 0); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("zero mint: got %v, want ErrZeroAmount", err)
	}
	if _, err := e.Burn(admin, treasury.ID, 0); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("zero burn: got %v, want ErrZeroAmount", err)
	}
	if err := e.Transfer(admin, addr(0x22), 0); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("zero transfer: got %v, want ErrZeroAmount", err)
	}
}

func TestBurnInsufficient(t *testing.T) {
	e, adminKey, treasury, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())
	other := addr(0x33)

	// Move the treasury capability to an account with no funds.
	if err := e.TransferCapability(admin, treasury.ID, other); err != nil {
		t.Fatalf("cap transfer: %v", err)
	}
	if _, err := e.Burn(other, treasury.ID, 1); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("burn with empty balance: got %v, want ErrInsufficientBalance", err)
	}
	// Supply unchanged after the failed burn.
	supply, _ := e.Supply()
	if supply != config.InitialSupply {
		t.Errorf("supply = %d, want %d", supply, config.InitialSupply)
	}
}

func TestTransfer(t *testing.T) {
	e, adminKey, _, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())
	alice, bob := addr(0xa1), addr(0xb2)

	if err := e.Transfer(admin, alice, 1000); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := e.Transfer(alice, bob, 400); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	for _, tc := range []struct {
		a    types.Address
		want uint64
	}{
		{alice, 600},
		{bob, 400},
		{admin, config.InitialSupply - 1000},
	} {
		bal, err := e.BalanceOf(tc.a)
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if bal != tc.want {
			t.Errorf("balance of %s = %d, want %d", tc.a, bal, tc.want)
		}
	}

	if err := e.Transfer(alice, bob, 601); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("overdraft: got %v, want ErrInsufficientBalance", err)
	}
	// Failed transfer changes nothing.
	bal, _ := e.BalanceOf(alice)
	if bal != 600 {
		t.Errorf("alice balance after failed transfer = %d, want 600", bal)
	}
}

func TestSelfTransfer(t *testing.T) {
	e, adminKey, _, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())

	if err := e.Transfer(admin, admin, 123); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	bal, _ := e.BalanceOf(admin)
	if bal != config.InitialSupply {
		t.Errorf("balance = %d, want %d", bal, config.InitialSupply)
	}
}

func TestDenyList(t *testing.T) {
	e, adminKey, _, deny := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())
	alice, bob := addr(0xa1), addr(0xb2)

	if err := e.Transfer(admin, alice, 1000); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := e.DenyListAdd(admin, deny.ID, alice); err != nil {
		t.Fatalf("deny add: %v", err)
	}

	// Denied as sender and as recipient.
	if err := e.Transfer(alice, bob, 10); !errors.Is(err, ErrDeniedAddress) {
		t.Errorf("denied sender: got %v, want ErrDeniedAddress", err)
	}
	if err := e.Transfer(admin, alice, 10); !errors.Is(err, ErrDeniedAddress) {
		t.Errorf("denied recipient: got %v, want ErrDeniedAddress", err)
	}

	denied, err := e.IsDenied(alice)
	if err != nil || !denied {
		t.Errorf("IsDenied(alice) = %v, %v", denied, err)
	}
	list, err := e.DenyList()
	if err != nil {
		t.Fatalf("deny list: %v", err)
	}
	if len(list) != 1 || list[0] != alice {
		t.Errorf("deny list = %v", list)
	}

	// Removal restores transfers.
	if err := e.DenyListRemove(admin, deny.ID, alice); err != nil {
		t.Fatalf("deny remove: %v", err)
	}
	if err := e.Transfer(alice, bob, 10); err != nil {
		t.Errorf("transfer after removal: %v", err)
	}

	// Only the deny capability holder may change the list.
	if err := e.DenyListAdd(alice, deny.ID, bob); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger deny add: got %v, want ErrUnauthorized", err)
	}
}

func TestCapabilityTransfer(t *testing.T) {
	e, adminKey, treasury, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())
	alice := addr(0xa1)

	if err := e.TransferCapability(admin, treasury.ID, alice); err != nil {
		t.Fatalf("cap transfer: %v", err)
	}

	// The old holder lost the authority, the new holder gained it.
	if _, err := e.Mint(admin, treasury.ID, admin, 100); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("old holder mint: got %v, want ErrUnauthorized", err)
	}
	if _, err := e.Mint(alice, treasury.ID, alice, 100); err != nil {
		t.Errorf("new holder mint: %v", err)
	}

	// Only the current holder may move it further.
	if err := e.TransferCapability(admin, treasury.ID, admin); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("old holder cap transfer: got %v, want ErrUnauthorized", err)
	}
}

// TestSupplyConservation churns the engine through a mixed workload and
// checks that total supply always equals the sum of all balances.
func TestSupplyConservation(t *testing.T) {
	e, adminKey, treasury, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())

	accounts := []types.Address{admin}
	for i := byte(1); i <= 5; i++ {
		accounts = append(accounts, addr(i))
	}

	check := func(step string) {
		t.Helper()
		supply, err := e.Supply()
		if err != nil {
			t.Fatalf("%s: supply: %v", step, err)
		}
		var sum uint64
		for _, a := range accounts {
			bal, err := e.BalanceOf(a)
			if err != nil {
				t.Fatalf("%s: balance: %v", step, err)
			}
			sum += bal
		}
		if sum != supply {
			t.Fatalf("%s: sum of balances %d != supply %d", step, sum, supply)
		}
	}

	check("init")
	for i := 1; i <= 5; i++ {
		if err := e.Transfer(admin, accounts[i], uint64(i)*1_000); err != nil {
			t.Fatalf("transfer: %v", err)
		}
		check("transfer")
	}
	if _, err := e.Mint(admin, treasury.ID, accounts[2], 7_777); err != nil {
		t.Fatalf("mint: %v", err)
	}
	check("mint")
	if _, err := e.Burn(admin, treasury.ID, 4_444); err != nil {
		t.Fatalf("burn: %v", err)
	}
	check("burn")
	if err := e.Transfer(accounts[2], accounts[4], 8_000); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	check("final")
}

func TestEventJournal(t *testing.T) {
	e, adminKey, treasury, deny := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())
	alice := addr(0xa1)

	if _, err := e.Mint(admin, treasury.ID, alice, 500); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := e.DenyListAdd(admin, deny.ID, alice); err != nil {
		t.Fatalf("deny add: %v", err)
	}

	events, err := e.Events(0, 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantTypes := []EventType{EventInit, EventMint, EventDenyAdd}
	for i, ev := range events {
		if ev.Seq != uint64(i+1) {
			t.Errorf("event %d seq = %d, want %d", i, ev.Seq, i+1)
		}
		if ev.Type != wantTypes[i] {
			t.Errorf("event %d type = %s, want %s", i, ev.Type, wantTypes[i])
		}
	}
	if events[1].Supply != config.InitialSupply+500 {
		t.Errorf("mint event supply = %d", events[1].Supply)
	}

	// Pagination.
	page, err := e.Events(2, 1)
	if err != nil {
		t.Fatalf("events page: %v", err)
	}
	if len(page) != 1 || page[0].Type != EventMint {
		t.Errorf("page = %+v", page)
	}
}

func TestApplyTransaction(t *testing.T) {
	e, adminKey, treasury, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())
	alice := addr(0xa1)

	mint, err := tx.NewMint(adminKey, treasury.ID, alice, 500, 1)
	if err != nil {
		t.Fatalf("build mint: %v", err)
	}
	if err := e.Apply(mint); err != nil {
		t.Fatalf("apply mint: %v", err)
	}
	supply, _ := e.Supply()
	if supply != config.InitialSupply+500 {
		t.Errorf("supply = %d, want %d", supply, config.InitialSupply+500)
	}

	transfer, err := tx.NewTransfer(adminKey, alice, 1000, 2)
	if err != nil {
		t.Fatalf("build transfer: %v", err)
	}
	if err := e.Apply(transfer); err != nil {
		t.Fatalf("apply transfer: %v", err)
	}
	bal, _ := e.BalanceOf(alice)
	if bal != 1500 {
		t.Errorf("alice balance = %d, want 1500", bal)
	}

	nonce, _ := e.NonceOf(admin)
	if nonce != 2 {
		t.Errorf("admin nonce = %d, want 2", nonce)
	}
}

func TestApplyNonceSequence(t *testing.T) {
	e, adminKey, _, _ := newTestEngine(t)
	alice := addr(0xa1)

	// Nonce must start at 1.
	t0, err := tx.NewTransfer(adminKey, alice, 100, 5)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Apply(t0); !errors.Is(err, ErrBadNonce) {
		t.Errorf("gap nonce: got %v, want ErrBadNonce", err)
	}

	t1, err := tx.NewTransfer(adminKey, alice, 100, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Apply(t1); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// Replaying the same envelope is rejected.
	if err := e.Apply(t1); !errors.Is(err, ErrBadNonce) {
		t.Errorf("replay: got %v, want ErrBadNonce", err)
	}
}

func TestApplyFailedOpReleasesNonce(t *testing.T) {
	e, adminKey, _, _ := newTestEngine(t)
	adminNonce := uint64(1)

	strangerKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	// Fund the stranger so only the deny list blocks them later.
	stranger := crypto.AddressFromPubKey(strangerKey.PublicKey())
	fund, err := tx.NewTransfer(adminKey, stranger, 1000, adminNonce)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Apply(fund); err != nil {
		t.Fatalf("fund: %v", err)
	}

	// Overdraft fails; the nonce must be reusable afterwards.
	over, err := tx.NewTransfer(strangerKey, addr(0x55), 5000, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Apply(over); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft: got %v, want ErrInsufficientBalance", err)
	}
	retry, err := tx.NewTransfer(strangerKey, addr(0x55), 500, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Apply(retry); err != nil {
		t.Errorf("retry with same nonce: %v", err)
	}
}

// TestApplyConcurrentSameSender races duplicate and failing envelopes for
// one sender. Exactly one copy of the valid transfer may commit, the
// stored nonce must never regress, and the consumed sequence number must
// stay consumed no matter how the goroutines interleave.
func TestApplyConcurrentSameSender(t *testing.T) {
	e, adminKey, _, _ := newTestEngine(t)
	admin := crypto.AddressFromPubKey(adminKey.PublicKey())
	alice := addr(0xa1)

	okTx, err := tx.NewTransfer(adminKey, alice, 7, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Same nonce, guaranteed to fail on balance.
	overTx, err := tx.NewTransfer(adminKey, alice, config.InitialSupply+1, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var wg sync.WaitGroup
	var committed int32
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := e.Apply(okTx); err == nil {
				atomic.AddInt32(&committed, 1)
			}
		}()
		go func() {
			defer wg.Done()
			_ = e.Apply(overTx)
		}()
	}
	wg.Wait()

	if committed != 1 {
		t.Fatalf("valid transfer committed %d times, want 1", committed)
	}
	if bal, _ := e.BalanceOf(alice); bal != 7 {
		t.Errorf("alice balance = %d, want 7", bal)
	}
	if nonce, _ := e.NonceOf(admin); nonce != 1 {
		t.Errorf("admin nonce = %d, want 1", nonce)
	}

	// The spent envelope stays spent, before and after the next nonce.
	if err := e.Apply(okTx); !errors.Is(err, ErrBadNonce) {
		t.Errorf("replay: got %v, want ErrBadNonce", err)
	}
	next, err := tx.NewTransfer(adminKey, alice, 3, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := e.Apply(next); err != nil {
		t.Fatalf("apply nonce 2: %v", err)
	}
	if err := e.Apply(okTx); !errors.Is(err, ErrBadNonce) {
		t.Errorf("replay after gap fill: got %v, want ErrBadNonce", err)
	}
	if bal, _ := e.BalanceOf(alice); bal != 10 {
		t.Errorf("alice balance = %d, want 10", bal)
	}
}

func TestApplyRejectsBadSignature(t *testing.T) {
	e, adminKey, _, _ := newTestEngine(t)

	transfer, err := tx.NewTransfer(adminKey, addr(0xa1), 100, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	transfer.Amount = 999_999 // Mutate after signing.
	if err := e.Apply(transfer); !errors.Is(err, tx.ErrBadSignature) {
		t.Errorf("tampered tx: got %v, want ErrBadSignature", err)
	}
}
