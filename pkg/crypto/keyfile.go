package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Keyfile encryption constants.
const (
	saltSize = 32
	// Encrypted format: [salt(32)][memory(4)][iterations(4)][parallelism(1)][nonce(24)][ciphertext...]
	keyfileHeaderSize = saltSize + 4 + 4 + 1
)

// "KANARIKEY1" magic marks an encrypted keyfile; plain keyfiles are hex.
var keyfileMagic = []byte("KANARIKEY1")

// KDFParams holds Argon2id parameters for keyfile encryption.
type KDFParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultKDFParams returns the recommended Argon2id parameters.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 4,
	}
}

func deriveKeyfileKey(password, salt []byte, params KDFParams) []byte {
	return argon2.IDKey(
		password,
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		chacha20poly1305.KeySize,
	)
}

// EncryptKey encrypts a private key scalar with a passphrase using
// Argon2id + XChaCha20-Poly1305.
//
// Output: magic | salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
func EncryptKey(key *PrivateKey, password []byte, params KDFParams) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	k := deriveKeyfileKey(password, salt, params)
	defer zeroBytes(k)

	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	secret := key.Serialize()
	ciphertext := aead.Seal(nil, nonce, secret, nil)
	zeroBytes(secret)

	out := make([]byte, 0, len(keyfileMagic)+keyfileHeaderSize+len(nonce)+len(ciphertext))
	out = append(out, keyfileMagic...)
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// DecryptKey decrypts a keyfile produced by EncryptKey.
func DecryptKey(encrypted, password []byte) (*PrivateKey, error) {
	if len(encrypted) < len(keyfileMagic) || string(encrypted[:len(keyfileMagic)]) != string(keyfileMagic) {
		return nil, fmt.Errorf("not an encrypted keyfile")
	}
	encrypted = encrypted[len(keyfileMagic):]

	nonceSize := chacha20poly1305.NonceSizeX
	minSize := keyfileHeaderSize + nonceSize + chacha20poly1305.Overhead
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("encrypted keyfile too short: %d bytes, need at least %d", len(encrypted), minSize)
	}

	salt := encrypted[:saltSize]
	params := KDFParams{
		Memory:      binary.LittleEndian.Uint32(encrypted[saltSize:]),
		Iterations:  binary.LittleEndian.Uint32(encrypted[saltSize+4:]),
		Parallelism: encrypted[saltSize+8],
	}
	nonce := encrypted[keyfileHeaderSize : keyfileHeaderSize+nonceSize]
	ciphertext := encrypted[keyfileHeaderSize+nonceSize:]

	k := deriveKeyfileKey(password, salt, params)
	defer zeroBytes(k)

	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	secret, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt keyfile: wrong passphrase or corrupt file")
	}
	defer zeroBytes(secret)

	return PrivateKeyFromBytes(secret)
}

// IsEncryptedKeyfile reports whether data carries the encrypted keyfile magic.
func IsEncryptedKeyfile(data []byte) bool {
	return len(data) >= len(keyfileMagic) && string(data[:len(keyfileMagic)]) == string(keyfileMagic)
}

// LoadKeyfile reads a private key from path. Plain keyfiles hold the
// hex-encoded 32-byte scalar; encrypted keyfiles require a passphrase.
func LoadKeyfile(path string, password []byte) (*PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyfile: %w", err)
	}
	if IsEncryptedKeyfile(data) {
		if len(password) == 0 {
			return nil, fmt.Errorf("keyfile %s is encrypted: passphrase required", path)
		}
		return DecryptKey(data, password)
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("keyfile %s: invalid hex: %w", path, err)
	}
	return PrivateKeyFromBytes(keyBytes)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
