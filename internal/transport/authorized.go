package transport

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	ehomeerrors "ehome/internal/errors"
)

// PermFingerprint is the Permissions extension carrying the SHA256
// fingerprint of the key a client logged in with.
const PermFingerprint = "pubkey-fp"

// AuthorizedKeys is a parsed authorized_keys file.  It is read-only
// after loading and shared by every connection.
type AuthorizedKeys struct {
	keys map[string]string // marshalled key -> comment
}

// LoadAuthorizedKeys reads an OpenSSH authorized_keys file.
func LoadAuthorizedKeys(path string) (*AuthorizedKeys, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseAuthorizedKeys(data)
}

// ParseAuthorizedKeys parses authorized_keys content.  Blank lines and
// comments are skipped; options in front of a key are ignored.
func ParseAuthorizedKeys(data []byte) (*AuthorizedKeys, error) {
	ak := &AuthorizedKeys{keys: make(map[string]string)}
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		pub, comment, _, _, err := ssh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		ak.keys[string(pub.Marshal())] = comment
	}
	return ak, nil
}

// Len returns the number of distinct keys.
func (a *AuthorizedKeys) Len() int { return len(a.keys) }

// Contains reports whether pub may log in.
func (a *AuthorizedKeys) Contains(pub ssh.PublicKey) bool {
	_, ok := a.keys[string(pub.Marshal())]
	return ok
}

// Callback returns an ssh.ServerConfig.PublicKeyCallback that accepts
// the loaded keys for any user name.
func (a *AuthorizedKeys) Callback() func(ssh.ConnMetadata, ssh.PublicKey) (*ssh.Permissions, error) {
	return func(conn ssh.ConnMetadata, pub ssh.PublicKey) (*ssh.Permissions, error) {
		if !a.Contains(pub) {
			return nil, fmt.Errorf("%w: unknown public key for %q", ehomeerrors.ErrAuthFailed, conn.User())
		}
		return &ssh.Permissions{
			Extensions: map[string]string{PermFingerprint: ssh.FingerprintSHA256(pub)},
		}, nil
	}
}
