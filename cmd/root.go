// Package cmd wires up the CLI flags and starts the SSH shell server.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"ehome/config"
	"ehome/internal/core"
	"ehome/internal/metrics"
	"ehome/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X ehome/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// flags holds the raw command-line values.  Only the ones the user set
// override the file and environment.
type flags struct {
	configPath     string
	listenAddress  string
	port           int
	hostKey        string
	authorizedKeys string
	historyDB      string
	historySize    int
	welcome        string
	handshakeSec   int
	notifications  bool
	verbose        int
}

// Execute parses args and runs the server until ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	var f flags
	fs := flag.NewFlagSet("ehome", flag.ContinueOnError)

	// ── server ───────────────────────────────────────────────────
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fs.StringVar(&f.listenAddress, "listen-address", "", "Address to bind (all interfaces if empty)")
	fs.IntVarP(&f.port, "port", "p", config.DefaultPort, "SSH port")
	fs.StringVar(&f.hostKey, "host-key", "", "Host key file (generated if missing, ephemeral if empty)")
	fs.StringVar(&f.authorizedKeys, "authorized-keys", "", "authorized_keys file (no authentication if empty)")
	fs.IntVar(&f.handshakeSec, "handshake-timeout", int(config.DefaultHandshakeTimeout/time.Second), "SSH handshake timeout in seconds (0 waits forever)")

	// ── shell ────────────────────────────────────────────────────
	fs.StringVar(&f.welcome, "welcome", config.DefaultWelcomeText, "Welcome text; ${user} is replaced by the user name")
	fs.StringVar(&f.historyDB, "history-db", "", "SQLite database for command history (memory if empty)")
	fs.IntVar(&f.historySize, "history-size", config.DefaultPersistedHistorySize, "Lines of history kept per user")
	fs.BoolVar(&f.notifications, "notifications", false, "Enable the notification commands")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&f.verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("ehome %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	// ── configuration: defaults < file < environment < flags ─────
	cfg := config.Default()
	if f.configPath != "" {
		if err := config.LoadFile(f.configPath, cfg); err != nil {
			return err
		}
	}
	config.LoadFromEnv(cfg)
	applyFlags(fs, &f, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	defer logger.Sync() //nolint:errcheck

	srv, err := core.Build(ctx, cfg, core.Deps{
		Logger:  logger,
		Metrics: metrics.New(),
		Version: version,
	})
	if err != nil {
		return err
	}
	if dryRun {
		logger.Info("configuration OK: %d commands, listening on %s", srv.Registry.Len(), srv.Address)
		return srv.Close()
	}
	return srv.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func applyFlags(fs *flag.FlagSet, f *flags, cfg *config.Config) {
	if fs.Changed("listen-address") {
		cfg.ListenAddress = f.listenAddress
	}
	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("host-key") {
		cfg.HostKeyPath = f.hostKey
	}
	if fs.Changed("authorized-keys") {
		cfg.AuthorizedKeysPath = f.authorizedKeys
	}
	if fs.Changed("handshake-timeout") {
		cfg.HandshakeTimeout = time.Duration(f.handshakeSec) * time.Second
	}
	if fs.Changed("welcome") {
		cfg.WelcomeText = f.welcome
	}
	if fs.Changed("history-db") {
		cfg.HistoryDB = f.historyDB
	}
	if fs.Changed("history-size") {
		cfg.PersistedHistorySize = f.historySize
	}
	if fs.Changed("notifications") {
		cfg.NotificationsEnabled = f.notifications
	}
	if fs.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `eHome – SSH management shell v%s

An interactive command shell for home automation, served over SSH.

Usage:
  ehome [options]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  EHOME_LISTEN_ADDRESS, EHOME_PORT, EHOME_HOST_KEY, EHOME_AUTHORIZED_KEYS,
  EHOME_HANDSHAKE_TIMEOUT, EHOME_WELCOME_TEXT, EHOME_HISTORY_DB,
  EHOME_HISTORY_SIZE, EHOME_NOTIFICATIONS, EHOME_VERBOSE

Examples:
  ehome -p 2222                                     Ephemeral host key, no auth
  ehome --host-key /var/lib/ehome/hostkey \
        --authorized-keys ~/.ssh/authorized_keys    Persistent key, public-key auth
  ehome -c /etc/ehome/ehome.yaml -vv                File configuration, debug output
  ssh -p 8022 anton@localhost                       Connect
`)
}
