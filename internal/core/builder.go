package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ehome/config"
	"ehome/internal/capability"
	"ehome/internal/command"
	"ehome/internal/command/builtin"
	"ehome/internal/command/configcmd"
	"ehome/internal/command/notifycmd"
	"ehome/internal/command/zwave"
	"ehome/internal/device"
	"ehome/internal/history"
	"ehome/internal/metrics"
	"ehome/internal/notify"
	"ehome/internal/store"
	"ehome/internal/transport"
	"ehome/util"
)

// Deps are the process-wide values Build does not create itself.
type Deps struct {
	Logger     *util.Logger
	Metrics    *metrics.Collector
	Version    string
	Passphrase transport.PassphraseFunc // nil prompts on the terminal
}

// Server is the listen mode together with the resources it owns.  Run
// releases them when the listener stops.
type Server struct {
	*ListenMode
	Registry *command.Registry

	closers []io.Closer
}

var (
	_ Mode = (*ListenMode)(nil)
	_ Mode = (*Server)(nil)
)

// Run serves until ctx is cancelled and then closes the history
// database.
func (s *Server) Run(ctx context.Context) error {
	return errors.Join(s.ListenMode.Run(ctx), s.Close())
}

// Close releases what Build opened without serving.
func (s *Server) Close() error {
	var err error
	for _, c := range s.closers {
		err = errors.Join(err, c.Close())
	}
	s.closers = nil
	return err
}

// Build constructs the server from the given configuration.  This is
// the single place where collaborators are wired together.
func Build(ctx context.Context, cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	srv := &Server{}

	backend, closer, err := buildHistory(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		srv.closers = append(srv.closers, closer)
	}

	reg, err := buildRegistry(cfg, deps)
	if err != nil {
		closeAll(srv.closers)
		return nil, err
	}
	srv.Registry = reg
	logger.Verbose("registered %d commands", reg.Len())

	sshCfg, err := transport.NewServerConfig(transport.Options{
		HostKeyPath:        cfg.HostKeyPath,
		AuthorizedKeysPath: cfg.AuthorizedKeysPath,
		Passphrase:         deps.Passphrase,
	}, logger)
	if err != nil {
		closeAll(srv.closers)
		return nil, err
	}

	srv.ListenMode = &ListenMode{
		Address:   cfg.Address(),
		SSHConfig: sshCfg,
		Capability: &capability.Shell{
			Dispatcher: command.NewDispatcher(reg, logger),
			History:    backend,
			Welcome:    cfg.WelcomeText,
			Metrics:    deps.Metrics,
		},
		Logger:           logger,
		Metrics:          deps.Metrics,
		HandshakeTimeout: cfg.HandshakeTimeout,
		GracePeriod:      cfg.GracePeriod,
	}
	return srv, nil
}

// ── component builders ───────────────────────────────────────────────

func buildHistory(ctx context.Context, cfg *config.Config, logger *util.Logger) (history.Backend, io.Closer, error) {
	if cfg.HistoryDB == "" {
		logger.Verbose("keeping command history in memory")
		return store.NewMemoryHistory(cfg.PersistedHistorySize), nil, nil
	}
	h, err := store.OpenSQLiteHistory(ctx, cfg.HistoryDB, cfg.PersistedHistorySize)
	if err != nil {
		return nil, nil, fmt.Errorf("command history: %w", err)
	}
	logger.Verbose("command history stored in %s", cfg.HistoryDB)
	return h, h, nil
}

func buildRegistry(cfg *config.Config, deps Deps) (*command.Registry, error) {
	specs := make([]device.ControllerSpec, 0, len(cfg.Inventory))
	initial := store.Config{}
	for _, c := range cfg.Inventory {
		spec := device.ControllerSpec{Name: c.Name, SerialPort: c.SerialPort}
		for _, d := range c.Devices {
			spec.Devices = append(spec.Devices, device.Device{NodeID: d.NodeID, Type: d.Type, Meter: d.Meter})
		}
		specs = append(specs, spec)
		initial.ZWave = append(initial.ZWave, store.ZWaveConfig{Name: c.Name, SerialPort: c.SerialPort})
	}
	devices, err := device.NewInventory(specs)
	if err != nil {
		return nil, err
	}
	settings := store.NewMemoryConfigService(initial)

	descs := builtin.Descriptors(builtin.Deps{Version: deps.Version, Metrics: deps.Metrics})
	descs = append(descs, configcmd.Descriptors(settings)...)
	descs = append(descs, zwave.Descriptors(devices, settings, deps.Logger)...)
	if cfg.NotificationsEnabled {
		providers := map[string]notify.Provider{"log": notify.LogProvider(deps.Logger)}
		sender := notify.NewService(settings, providers, nil, deps.Logger)
		descs = append(descs, notifycmd.Descriptors(sender, settings, providerNames(providers))...)
	}
	return command.NewRegistry(descs...)
}

func providerNames(m map[string]notify.Provider) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

func closeAll(cs []io.Closer) {
	for _, c := range cs {
		c.Close() //nolint:errcheck
	}
}
