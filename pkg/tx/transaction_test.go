package tx

import (
	"testing"

	"github.com/kanari-network/kanari-go/pkg/crypto"
	"github.com/kanari-network/kanari-go/pkg/types"
)

func TestTransaction_SignVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	txn, err := NewTransfer(key, types.Address{0x01}, 500, 1)
	if err != nil {
		t.Fatalf("NewTransfer: %v", err)
	}
	if !txn.VerifySignature() {
		t.Error("freshly signed transaction failed verification")
	}
}

func TestTransaction_TamperedFieldFailsVerify(t *testing.T) {
	key, _ := crypto.GenerateKey()
	txn, err := NewTransfer(key, types.Address{0x01}, 500, 1)
	if err != nil {
		t.Fatalf("NewTransfer: %v", err)
	}

	txn.Amount = 999
	if txn.VerifySignature() {
		t.Error("tampered transaction passed verification")
	}
}

func TestTransaction_HashStableAcrossSigning(t *testing.T) {
	key, _ := crypto.GenerateKey()
	txn := &Transaction{
		Version: Version,
		Op:      OpTransfer,
		To:      types.Address{0x01},
		Amount:  500,
		Nonce:   1,
		PubKey:  key.PublicKey(),
	}
	before := txn.Hash()
	if err := txn.Sign(key); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if txn.Hash() != before {
		t.Error("signing changed the transaction hash")
	}
}

func TestTransaction_Sender(t *testing.T) {
	key, _ := crypto.GenerateKey()
	txn, _ := NewTransfer(key, types.Address{0x01}, 500, 1)

	want := crypto.AddressFromPubKey(key.PublicKey())
	if txn.Sender() != want {
		t.Errorf("Sender() = %s, want %s", txn.Sender(), want)
	}
}

func TestTransaction_EncodeDecode(t *testing.T) {
	key, _ := crypto.GenerateKey()
	txn, _ := NewMint(key, types.CapabilityID{0xAA}, types.Address{0x01}, 500, 7)

	data, err := txn.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Hash() != txn.Hash() {
		t.Error("encode/decode changed the transaction hash")
	}
	if !got.VerifySignature() {
		t.Error("decoded transaction failed signature verification")
	}
	if got.Op != OpMint || got.Amount != 500 || got.Nonce != 7 {
		t.Error("decoded transaction lost fields")
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("expected error decoding garbage")
	}
}

func TestOpType_String(t *testing.T) {
	ops := map[OpType]string{
		OpTransfer:    "transfer",
		OpMint:        "mint",
		OpBurn:        "burn",
		OpDenyAdd:     "deny_add",
		OpDenyRemove:  "deny_remove",
		OpCapTransfer: "cap_transfer",
	}
	for op, want := range ops {
		if op.String() != want {
			t.Errorf("%d.String() = %q, want %q", op, op.String(), want)
		}
	}
}
