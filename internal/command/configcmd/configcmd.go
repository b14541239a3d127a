// Package configcmd provides the config:* commands.
package configcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"ehome/internal/command"
	"ehome/internal/store"
)

const (
	identifierWidth = 40
	timeWidth       = 20
	userWidth       = 10

	timeLayout = "2006-01-02 15:04:05Z"
)

// Descriptors returns config:show-current and config:history.
func Descriptors(cfg store.ConfigService) []command.Descriptor {
	return []command.Descriptor{
		{
			Group:       "config",
			Name:        "show-current",
			Description: "Shows the current configuration",
			New: func(*command.Invocation) command.Command {
				return showCurrent{cfg: cfg}
			},
		},
		{
			Group:       "config",
			Name:        "history",
			Description: "Shows the history of the configuration",
			New: func(*command.Invocation) command.Command {
				return history{cfg: cfg}
			},
		},
	}
}

type showCurrent struct {
	cfg store.ConfigService
}

func (s showCurrent) Execute(_ context.Context, _ string, c command.Communicator) command.Result {
	current := s.cfg.Current()
	data, err := yaml.Marshal(&current)
	if err != nil {
		return command.Crash(fmt.Errorf("render configuration: %w", err))
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		c.NewLine().Write(line)
	}
	return command.Done()
}

type history struct {
	cfg store.ConfigService
}

func (h history) Execute(_ context.Context, _ string, c command.Communicator) command.Result {
	revisions, err := h.cfg.History()
	if err != nil {
		return command.Crash(err)
	}

	c.NewLine().
		Write(runewidth.FillRight("IDENTIFIER", identifierWidth)).
		Write("   ").
		Write(runewidth.FillRight("TIME", timeWidth)).
		Write("   ").
		Write(runewidth.FillRight("USER", userWidth)).
		Write("   ").
		Write("REASON")

	for _, r := range revisions {
		c.NewLine().
			Write(runewidth.FillRight(r.Identifier, identifierWidth)).
			Write("   ").
			Write(runewidth.FillRight(r.CreatedAt.UTC().Format(timeLayout), timeWidth)).
			Write("   ").
			Write(runewidth.FillRight(runewidth.Truncate(r.User, userWidth, "..."), userWidth)).
			Write("   ").
			Write(r.Reason)
	}
	return command.Done()
}
