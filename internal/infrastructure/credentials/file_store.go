// Package credentials implements durable token persistence backends for the
// session store contract. The default backend is a file under the user's
// config directory; Redis and PostgreSQL backends live under
// internal/infrastructure/persistence for deployments that already carry
// those services.
package credentials

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// FILE STORE
// ══════════════════════════════════════════════════════════════════════════════

// FileStore persists the bearer token as a single file. Writes go through a
// temp file and rename so a crash mid-write never leaves a torn token.
type FileStore struct {
	path       string
	passphrase string // empty means plaintext storage
}

// DefaultPath returns the conventional token location under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "didactic-portal", "access_token"), nil
}

// NewFileStore creates a plaintext file store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NewEncryptedFileStore creates a file store that seals the token at rest
// with a key derived from the passphrase.
func NewEncryptedFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

// Save persists the token, replacing any previous one.
func (s *FileStore) Save(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := []byte(token)
	if s.passphrase != "" {
		sealed, err := seal(data, s.passphrase)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		data = sealed
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".access_token-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Load returns the persisted token, or ok=false when none is stored.
func (s *FileStore) Load(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read token file: %w", err)
	}
	if len(data) == 0 {
		return "", false, nil
	}

	if s.passphrase != "" {
		plain, err := open(data, s.passphrase)
		if err != nil {
			return "", false, fmt.Errorf("unseal token: %w", err)
		}
		return string(plain), true, nil
	}
	return string(data), true, nil
}

// Clear removes the persisted token.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// AT-REST ENCRYPTION
// ══════════════════════════════════════════════════════════════════════════════

const saltSize = 16

// deriveKey stretches the passphrase with scrypt into a chacha20poly1305 key.
func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, chacha20poly1305.KeySize)
}

// seal produces salt || nonce || ciphertext.
func seal(plain []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plain, nil), nil
}

// open reverses seal.
func open(sealed []byte, passphrase string) ([]byte, error) {
	aeadNonce := chacha20poly1305.NonceSizeX
	if len(sealed) < saltSize+aeadNonce {
		return nil, errors.New("sealed token too short")
	}
	salt := sealed[:saltSize]
	nonce := sealed[saltSize : saltSize+aeadNonce]
	ciphertext := sealed[saltSize+aeadNonce:]

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}
