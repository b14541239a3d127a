// Package notifycmd provides the notification:* commands.
package notifycmd

import (
	"context"
	"errors"
	"sort"
	"strings"

	"ehome/internal/command"
	"ehome/internal/notify"
	"ehome/internal/retry"
	"ehome/internal/store"
)

// Descriptors returns notification:send and notification:configure.
// providers lists the provider names configure accepts.
func Descriptors(sender notify.Sender, cfg store.ConfigService, providers []string) []command.Descriptor {
	known := append([]string(nil), providers...)
	sort.Strings(known)

	return []command.Descriptor{
		{
			Group:       "notification",
			Name:        "send",
			Description: "Sends a notification",
			Arguments:   []command.Argument{{Name: "message", Description: "The message to send", Kind: command.String}},
			New: func(inv *command.Invocation) command.Command {
				return send{sender: sender, message: inv.String("message")}
			},
		},
		{
			Group:       "notification",
			Name:        "configure",
			Description: "Configures the notification system",
			Options: []command.Option{
				{Name: "token", Description: "The token that the provider needs", Kind: command.String},
				{Name: "token2", Description: "The second token that the provider needs", Kind: command.String},
			},
			Arguments: []command.Argument{{Name: "provider", Description: "The provider to use", Kind: command.String}},
			New: func(inv *command.Invocation) command.Command {
				return configure{
					cfg:      cfg,
					known:    known,
					provider: inv.String("provider"),
					token:    inv.String("token"),
					token2:   inv.String("token2"),
				}
			},
		},
	}
}

type send struct {
	sender  notify.Sender
	message string
}

func (s send) Execute(ctx context.Context, _ string, c command.Communicator) command.Result {
	if strings.TrimSpace(s.message) == "" {
		return command.Failf("'message' can't be blank")
	}
	if err := s.sender.Send(ctx, s.message); err != nil {
		if errors.Is(err, notify.ErrNotConfigured) || errors.Is(err, retry.ErrOpen) {
			return command.Reject(err)
		}
		return command.Crash(err)
	}
	c.NewLine().Write("Notification sent!")
	return command.Done()
}

type configure struct {
	cfg      store.ConfigService
	known    []string
	provider string
	token    string
	token2   string
}

func (cf configure) Execute(_ context.Context, user string, c command.Communicator) command.Result {
	i := sort.SearchStrings(cf.known, cf.provider)
	if i == len(cf.known) || cf.known[i] != cf.provider {
		return command.Failf("unknown provider '%s'", cf.provider)
	}
	err := cf.cfg.Modify("Configure notification system", user, func(conf *store.Config) {
		conf.Notification = &store.NotificationConfig{
			Provider: cf.provider,
			Token1:   cf.token,
			Token2:   cf.token2,
		}
	})
	if err != nil {
		return command.Crash(err)
	}
	c.NewLine().Write("Notification system was successfully set up")
	return command.Done()
}
