package filestore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted store")

const (
	saltLength  = 16
	nonceLength = 24
	keyLength   = 32
)

// envelope is the on-disk form of an encrypted store.
type envelope struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Box     []byte `json:"box"`
}

func deriveKey(passphrase string, salt []byte) *[keyLength]byte {
	var key [keyLength]byte
	copy(key[:], argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, keyLength))
	return &key
}

func seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	box := secretbox.Seal(nil, plaintext, &nonce, deriveKey(passphrase, salt))
	return json.Marshal(envelope{Version: 1, Salt: salt, Nonce: nonce[:], Box: box})
}

func open(data []byte, passphrase string) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("not an encrypted store: %w", err)
	}
	if env.Version != 1 || len(env.Nonce) != nonceLength || len(env.Salt) != saltLength {
		return nil, ErrWrongPassphrase
	}

	var nonce [nonceLength]byte
	copy(nonce[:], env.Nonce)
	plaintext, ok := secretbox.Open(nil, env.Box, &nonce, deriveKey(passphrase, env.Salt))
	if !ok {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}
