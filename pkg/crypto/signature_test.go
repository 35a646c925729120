package crypto

import (
	"testing"
)

func TestSignVerify(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	hash := Hash([]byte("message"))
	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if !VerifySignature(hash[:], sig, key.PublicKey()) {
		t.Error("valid signature failed verification")
	}
}

func TestVerify_WrongKey(t *testing.T) {
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()

	hash := Hash([]byte("message"))
	sig, err := key1.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if VerifySignature(hash[:], sig, key2.PublicKey()) {
		t.Error("signature verified under wrong key")
	}
}

func TestVerify_WrongHash(t *testing.T) {
	key, _ := GenerateKey()

	hash := Hash([]byte("message"))
	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other := Hash([]byte("other"))
	if VerifySignature(other[:], sig, key.PublicKey()) {
		t.Error("signature verified against wrong hash")
	}
}

func TestVerify_Garbage(t *testing.T) {
	hash := Hash([]byte("message"))
	if VerifySignature(hash[:], []byte{0x01, 0x02}, []byte{0x03}) {
		t.Error("garbage signature verified")
	}
}

func TestSign_BadHashLength(t *testing.T) {
	key, _ := GenerateKey()
	if _, err := key.Sign([]byte("short")); err == nil {
		t.Error("expected error for non-32-byte hash")
	}
}

func TestPrivateKeyFromBytes_RoundTrip(t *testing.T) {
	key, _ := GenerateKey()
	restored, err := PrivateKeyFromBytes(key.Serialize())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	if string(restored.PublicKey()) != string(key.PublicKey()) {
		t.Error("restored key has different pubkey")
	}
}

func TestPrivateKeyFromBytes_BadLength(t *testing.T) {
	if _, err := PrivateKeyFromBytes([]byte{0x01}); err == nil {
		t.Error("expected error for short key")
	}
}
