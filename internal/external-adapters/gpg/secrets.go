// Package gpg provides OpenPGP sealing and unsealing of configuration secrets.
package gpg

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

const messageType = "PGP MESSAGE"

// maxSecretSize bounds a decrypted secret; config secrets are short tokens
const maxSecretSize = 64 * 1024

// IsSealed reports whether a config value is an armored OpenPGP message
func IsSealed(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "-----BEGIN "+messageType+"-----")
}

// Decrypter unseals config secrets using ProtonMail's go-crypto
// A maintained, modern fork of golang.org/x/crypto/openpgp
type Decrypter struct {
	keyring openpgp.EntityList
}

// NewDecrypter creates a decrypter with an empty keyring
func NewDecrypter() *Decrypter {
	return &Decrypter{keyring: make(openpgp.EntityList, 0)}
}

// ImportKeyFromFile imports private keys from an armored or binary keyring
// file. Encrypted keys are unlocked with passphrase.
func (d *Decrypter) ImportKeyFromFile(keyPath string, passphrase []byte) error {
	//nolint:gosec // G304: keyPath is the operator-configured secrets keyring
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Try reading as binary
		if _, seekErr := f.Seek(0, 0); seekErr != nil {
			return fmt.Errorf("failed to reset file: %w", seekErr)
		}
		entities, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	return d.addEntities(entities, passphrase)
}

func (d *Decrypter) addEntities(entities openpgp.EntityList, passphrase []byte) error {
	if len(entities) == 0 {
		return fmt.Errorf("no keys found")
	}

	for _, entity := range entities {
		if entity.PrivateKey == nil {
			return fmt.Errorf("key %X has no private part", entity.PrimaryKey.Fingerprint)
		}
		if entity.PrivateKey.Encrypted {
			if len(passphrase) == 0 {
				return fmt.Errorf("key %X is passphrase protected", entity.PrimaryKey.Fingerprint)
			}
			if err := entity.PrivateKey.Decrypt(passphrase); err != nil {
				return fmt.Errorf("failed to unlock key: %w", err)
			}
		}
		for _, subkey := range entity.Subkeys {
			if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
				if err := subkey.PrivateKey.Decrypt(passphrase); err != nil {
					return fmt.Errorf("failed to unlock subkey: %w", err)
				}
			}
		}
	}

	d.keyring = append(d.keyring, entities...)
	return nil
}

// Decrypt unseals an armored OpenPGP message and returns the trimmed plaintext
func (d *Decrypter) Decrypt(sealed string) (string, error) {
	if len(d.keyring) == 0 {
		return "", fmt.Errorf("no private keys imported, configure a secrets keyring")
	}

	block, err := armor.Decode(strings.NewReader(strings.TrimSpace(sealed)))
	if err != nil {
		return "", fmt.Errorf("failed to decode armored secret: %w", err)
	}
	if block.Type != messageType {
		return "", fmt.Errorf("unexpected armor block type %q", block.Type)
	}

	md, err := openpgp.ReadMessage(block.Body, d.keyring, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}

	plaintext, err := io.ReadAll(io.LimitReader(md.UnverifiedBody, maxSecretSize))
	if err != nil {
		return "", fmt.Errorf("failed to read decrypted secret: %w", err)
	}

	return strings.TrimSpace(string(plaintext)), nil
}

// Seal encrypts plaintext for every public key in the armored keyring and
// returns an armored message suitable for a config file
func Seal(publicKeys io.Reader, plaintext string) (string, error) {
	recipients, err := openpgp.ReadArmoredKeyRing(publicKeys)
	if err != nil {
		return "", fmt.Errorf("failed to read public key: %w", err)
	}
	if len(recipients) == 0 {
		return "", fmt.Errorf("no public keys found")
	}

	var buf bytes.Buffer
	armored, err := armor.Encode(&buf, messageType, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start armor: %w", err)
	}

	w, err := openpgp.Encrypt(armored, recipients, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("failed to write secret: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return "", fmt.Errorf("failed to finish armor: %w", err)
	}

	return buf.String() + "\n", nil
}
