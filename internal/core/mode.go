// Package core is the orchestration layer.  It composes the SSH
// transport and the shell capability into a running server and
// provides a builder that wires everything from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  capability  →  session  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete operational mode of ehome.  It owns its full
// lifecycle from binding the listener to tearing down the last session.
type Mode interface {
	Run(ctx context.Context) error
}
