package transport

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"ehome/util"
)

const hostKeyComment = "ehome host key"

// PassphraseFunc returns the passphrase of an encrypted key file.
type PassphraseFunc func(path string) ([]byte, error)

// PromptPassphrase asks on the controlling terminal.
func PromptPassphrase(path string) ([]byte, error) {
	fmt.Fprintf(os.Stderr, "Enter passphrase for %s: ", path)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return pass, nil
}

// LoadOrCreateHostKey returns the server's host key.  An empty path
// yields a fresh key that lives as long as the process.  A path that
// does not exist yet gets a new ed25519 key written to it, so clients
// see the same key after a restart.
func LoadOrCreateHostKey(path string, passphrase PassphraseFunc, logger *util.Logger) (ssh.Signer, error) {
	if path == "" {
		logger.Verbose("generating ephemeral host key")
		signer, _, err := GenerateHostKey()
		return signer, err
	}

	signer, err := LoadHostKey(path, passphrase)
	if !errors.Is(err, fs.ErrNotExist) {
		return signer, err
	}

	logger.Info("host key %s not found, generating a new one", path)
	signer, block, err := GenerateHostKey()
	if err != nil {
		return nil, err
	}
	if err := writeHostKey(path, block); err != nil {
		return nil, err
	}
	return signer, nil
}

// LoadHostKey parses a PEM or OpenSSH private key file, asking for the
// passphrase when the key is encrypted.
func LoadHostKey(path string, passphrase PassphraseFunc) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err == nil {
		return signer, nil
	}
	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return nil, fmt.Errorf("parsing key %s: %w", path, err)
	}

	if passphrase == nil {
		passphrase = PromptPassphrase
	}
	pass, err := passphrase(path)
	if err != nil {
		return nil, err
	}
	signer, err = ssh.ParsePrivateKeyWithPassphrase(data, pass)
	if err != nil {
		return nil, fmt.Errorf("decrypting key %s: %w", path, err)
	}
	return signer, nil
}

// GenerateHostKey creates an ed25519 key and returns it both as a
// signer and as an OpenSSH PEM block ready to be saved.
func GenerateHostKey() (ssh.Signer, *pem.Block, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generating key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, nil, err
	}
	block, err := ssh.MarshalPrivateKey(priv, hostKeyComment)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding key: %w", err)
	}
	return signer, block, nil
}

func writeHostKey(path string, block *pem.Block) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return fmt.Errorf("writing key: %w", err)
	}
	return nil
}
