package note

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryptionFailed is returned when ciphertext authentication fails,
// which covers both a wrong password and corrupted storage — the two are
// deliberately indistinguishable to a caller.
var ErrDecryptionFailed = errors.New("note: decryption failed")

const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = chacha20poly1305.KeySize
	saltLen      = 16
)

// sealedNote is the at-rest envelope: a fresh salt and nonce per
// encryption, so encrypting the same note twice with the same password
// never produces the same ciphertext.
type sealedNote struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// EncryptForStorage seals a note's serialized form behind a password,
// deriving the symmetric key with argon2id and sealing with
// ChaCha20-Poly1305. Every call draws a fresh salt and nonce.
func EncryptForStorage(n *Note, password []byte) ([]byte, error) {
	plaintext, err := Serialize(n)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("note: salt: %w", err)
	}

	key := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("note: cipher init: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("note: nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return json.Marshal(sealedNote{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})
}

// DecryptFromStorage reverses EncryptForStorage. A wrong password and a
// corrupted envelope both surface as ErrDecryptionFailed.
func DecryptFromStorage(data []byte, password []byte) (*Note, error) {
	var sealed sealedNote
	if err := json.Unmarshal(data, &sealed); err != nil {
		return nil, fmt.Errorf("note: envelope: %w", err)
	}

	key := argon2.IDKey(password, sealed.Salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("note: cipher init: %w", err)
	}

	plaintext, err := aead.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return Deserialize(plaintext)
}
