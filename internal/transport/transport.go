// Package transport builds the SSH server side of a connection: the
// host key the server presents and the rules that decide which clients
// may log in.  What happens once a session channel is open is the
// capability layer's job.
package transport

import (
	"fmt"

	"golang.org/x/crypto/ssh"

	"ehome/util"
)

// DefaultServerVersion is the identification string sent to clients.
const DefaultServerVersion = "SSH-2.0-ehome"

// Options configures NewServerConfig.
type Options struct {
	// HostKeyPath is loaded, or created when missing.  Empty generates
	// an ephemeral key for this process.
	HostKeyPath string
	// AuthorizedKeysPath lists the public keys allowed to log in.
	// Empty accepts every client without authentication.
	AuthorizedKeysPath string
	// Passphrase is asked for when the host key file is encrypted.
	// Nil prompts on the controlling terminal.
	Passphrase PassphraseFunc
	// ServerVersion defaults to DefaultServerVersion.
	ServerVersion string
	// MaxAuthTries defaults to 6, the OpenSSH value.
	MaxAuthTries int
}

// NewServerConfig returns the ssh.ServerConfig the listener hands to
// every incoming connection.
func NewServerConfig(opts Options, logger *util.Logger) (*ssh.ServerConfig, error) {
	signer, err := LoadOrCreateHostKey(opts.HostKeyPath, opts.Passphrase, logger)
	if err != nil {
		return nil, fmt.Errorf("host key: %w", err)
	}
	logger.Verbose("host key fingerprint %s", ssh.FingerprintSHA256(signer.PublicKey()))

	cfg := &ssh.ServerConfig{
		ServerVersion: opts.ServerVersion,
		MaxAuthTries:  opts.MaxAuthTries,
		AuthLogCallback: func(conn ssh.ConnMetadata, method string, err error) {
			if err != nil && method != "none" {
				logger.Verbose("auth %s for %s from %s failed: %v", method, conn.User(), conn.RemoteAddr(), err)
			}
		},
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = DefaultServerVersion
	}
	if cfg.MaxAuthTries == 0 {
		cfg.MaxAuthTries = 6
	}

	if opts.AuthorizedKeysPath == "" {
		logger.Warn("no authorized keys configured, accepting every client")
		cfg.NoClientAuth = true
	} else {
		keys, err := LoadAuthorizedKeys(opts.AuthorizedKeysPath)
		if err != nil {
			return nil, fmt.Errorf("authorized keys: %w", err)
		}
		logger.Verbose("loaded %d authorized keys from %s", keys.Len(), opts.AuthorizedKeysPath)
		cfg.PublicKeyCallback = keys.Callback()
	}

	cfg.AddHostKey(signer)
	return cfg, nil
}
