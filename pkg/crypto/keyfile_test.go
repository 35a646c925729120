package crypto

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

// fastKDF keeps keyfile tests quick.
func fastKDF() KDFParams {
	return KDFParams{Memory: 64, Iterations: 1, Parallelism: 1}
}

func TestEncryptDecryptKey_RoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	enc, err := EncryptKey(key, []byte("passphrase"), fastKDF())
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}
	if !IsEncryptedKeyfile(enc) {
		t.Fatal("encrypted keyfile missing magic")
	}

	dec, err := DecryptKey(enc, []byte("passphrase"))
	if err != nil {
		t.Fatalf("DecryptKey: %v", err)
	}
	if string(dec.PublicKey()) != string(key.PublicKey()) {
		t.Error("decrypted key differs from original")
	}
}

func TestDecryptKey_WrongPassphrase(t *testing.T) {
	key, _ := GenerateKey()
	enc, err := EncryptKey(key, []byte("right"), fastKDF())
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}
	if _, err := DecryptKey(enc, []byte("wrong")); err == nil {
		t.Error("expected error for wrong passphrase")
	}
}

func TestDecryptKey_NotEncrypted(t *testing.T) {
	if _, err := DecryptKey([]byte("deadbeef"), []byte("pw")); err == nil {
		t.Error("expected error for non-encrypted data")
	}
}

func TestLoadKeyfile_PlainHex(t *testing.T) {
	key, _ := GenerateKey()
	path := filepath.Join(t.TempDir(), "admin.key")
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key.Serialize())+"\n"), 0600); err != nil {
		t.Fatalf("write keyfile: %v", err)
	}

	loaded, err := LoadKeyfile(path, nil)
	if err != nil {
		t.Fatalf("LoadKeyfile: %v", err)
	}
	if string(loaded.PublicKey()) != string(key.PublicKey()) {
		t.Error("loaded key differs from original")
	}
}

func TestLoadKeyfile_Encrypted(t *testing.T) {
	key, _ := GenerateKey()
	enc, err := EncryptKey(key, []byte("pw"), fastKDF())
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "admin.key")
	if err := os.WriteFile(path, enc, 0600); err != nil {
		t.Fatalf("write keyfile: %v", err)
	}

	// Missing passphrase should fail loudly.
	if _, err := LoadKeyfile(path, nil); err == nil {
		t.Error("expected error when passphrase missing")
	}

	loaded, err := LoadKeyfile(path, []byte("pw"))
	if err != nil {
		t.Fatalf("LoadKeyfile: %v", err)
	}
	if string(loaded.PublicKey()) != string(key.PublicKey()) {
		t.Error("loaded key differs from original")
	}
}
