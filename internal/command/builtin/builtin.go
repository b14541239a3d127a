// Package builtin provides the commands every shell has regardless of
// which home automation backends are wired in.
package builtin

import (
	"context"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"ehome/internal/command"
	"ehome/internal/metrics"
)

// DefaultVersion is reported when the binary carries no release version.
const DefaultVersion = "Development"

// Deps are the collaborators of the built-in commands.
type Deps struct {
	Version string
	Metrics *metrics.Collector // start time for uptime and the stats source
	Now     func() time.Time
}

// Descriptors returns help, version, disconnect, uptime and stats.
func Descriptors(d Deps) []command.Descriptor {
	if d.Version == "" {
		d.Version = DefaultVersion
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return []command.Descriptor{
		{
			Name:        "help",
			Description: "Shows available commands",
			New: func(inv *command.Invocation) command.Command {
				return help{registry: inv.Registry()}
			},
		},
		{
			Name:        "version",
			Description: "Shows the server version",
			New: func(*command.Invocation) command.Command {
				return command.Func(func(_ context.Context, _ string, c command.Communicator) command.Result {
					c.NewLine().Write(d.Version)
					return command.Done()
				})
			},
		},
		{
			Name:        "disconnect",
			Description: "Disconnects from the SSH server session",
			New: func(*command.Invocation) command.Command {
				return command.Func(func(_ context.Context, _ string, c command.Communicator) command.Result {
					c.NewLine().Write("Good-bye!").NewLine()
					return command.Quit()
				})
			},
		},
		{
			Name:        "uptime",
			Description: "Gets the servers current uptime",
			New: func(*command.Invocation) command.Command {
				return command.Func(func(_ context.Context, _ string, c command.Communicator) command.Result {
					c.NewLine().Write(Uptime(d.Now().Sub(d.Metrics.StartTime())))
					return command.Done()
				})
			},
		},
		{
			Name:        "stats",
			Description: "Shows server statistics",
			New: func(*command.Invocation) command.Command {
				return command.Func(func(_ context.Context, _ string, c command.Communicator) command.Result {
					for _, line := range strings.Split(d.Metrics.JSON(), "\n") {
						c.NewLine().Write(line)
					}
					return command.Done()
				})
			},
		},
	}
}

type help struct {
	registry *command.Registry
}

func (h help) Execute(_ context.Context, _ string, c command.Communicator) command.Result {
	keys := h.registry.Keys()
	width := 0
	for _, k := range keys {
		if w := runewidth.StringWidth(k); w > width {
			width = w
		}
	}
	for _, md := range h.registry.List() {
		c.NewLine().
			Write(runewidth.FillRight(md.Key(), width)).
			Write("   ").
			Write(md.Description)
	}
	return command.Done()
}
