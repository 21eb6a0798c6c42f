package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrOpen is returned when sealed data cannot be decrypted, usually because
// the passphrase is wrong.
var ErrOpen = errors.New("cannot open sealed data")

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	SaltLen uint32
}

var defaultParams = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	SaltLen: 16,
}

// Sealed is the at-rest form of a secret.
type Sealed struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

func deriveKey(passphrase string, salt []byte, params Argon2Params) []byte {
	return argon2.IDKey([]byte(passphrase), salt, params.Time, params.Memory, params.Threads, chacha20poly1305.KeySize)
}

// Seal encrypts plaintext with XChaCha20-Poly1305 under an argon2id key
// derived from passphrase and a fresh salt.
func Seal(passphrase string, plaintext []byte) (Sealed, error) {
	return SealWithParams(passphrase, plaintext, defaultParams)
}

func SealWithParams(passphrase string, plaintext []byte, params Argon2Params) (Sealed, error) {
	if passphrase == "" {
		return Sealed{}, errors.New("empty passphrase")
	}

	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return Sealed{}, fmt.Errorf("generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt, params))
	if err != nil {
		return Sealed{}, fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Sealed{}, fmt.Errorf("generate nonce: %w", err)
	}

	return Sealed{
		Salt:  salt,
		Nonce: nonce,
		Data:  aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func Open(passphrase string, sealed Sealed) ([]byte, error) {
	return OpenWithParams(passphrase, sealed, defaultParams)
}

func OpenWithParams(passphrase string, sealed Sealed, params Argon2Params) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, sealed.Salt, params))
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	if len(sealed.Nonce) != aead.NonceSize() {
		return nil, ErrOpen
	}

	plain, err := aead.Open(nil, sealed.Nonce, sealed.Data, nil)
	if err != nil {
		return nil, ErrOpen
	}
	return plain, nil
}
