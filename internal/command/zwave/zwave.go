// Package zwave provides the z-wave:* commands.
package zwave

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"ehome/internal/command"
	"ehome/internal/device"
	"ehome/internal/store"
	"ehome/util"
)

const group = "z-wave"

var controllerOption = command.Option{
	Name:        "controller",
	Description: "The name of the controller that the node belongs to (not required if there is only one controller)",
	Kind:        command.String,
}

var nodeArgument = command.Argument{
	Name:        "node",
	Description: "The identifier of the node within the given controller",
	Kind:        command.Byte,
}

// Descriptors returns the z-wave:* commands.
func Descriptors(mgr device.Manager, cfg store.ConfigService, logger *util.Logger) []command.Descriptor {
	return []command.Descriptor{
		{
			Group:       group,
			Name:        "controllers",
			Description: "Lists all configured Z-Wave controllers",
			New: func(*command.Invocation) command.Command {
				return controllers{mgr: mgr}
			},
		},
		{
			Group:       group,
			Name:        "devices",
			Description: "Lists all connected Z-Wave devices",
			Options:     []command.Option{{Name: "controller", Description: "Filters devices by a controller", Kind: command.String}},
			New: func(inv *command.Invocation) command.Command {
				return devices{mgr: mgr, controller: inv.String("controller")}
			},
		},
		{
			Group:       group,
			Name:        "add-controller",
			Description: "Adds a new controller to the Z-Wave network",
			Options:     []command.Option{{Name: "name", Description: "The name of the controller", Kind: command.String, Default: "default"}},
			Arguments:   []command.Argument{{Name: "serial-port", Description: "The serial port to use", Kind: command.String}},
			New: func(inv *command.Invocation) command.Command {
				return addController{mgr: mgr, cfg: cfg, name: inv.String("name"), port: inv.String("serial-port")}
			},
		},
		{
			Group:       group,
			Name:        "remove-controller",
			Description: "Removes a controller from the Z-Wave network",
			Arguments:   []command.Argument{{Name: "name", Description: "The name of the controller to remove", Kind: command.String}},
			New: func(inv *command.Invocation) command.Command {
				return removeController{mgr: mgr, cfg: cfg, name: inv.String("name")}
			},
		},
		{
			Group:       group,
			Name:        "add-monitored-value",
			Description: "Starts monitoring a value in the Z-Wave network",
			Options:     []command.Option{controllerOption},
			Arguments:   []command.Argument{nodeArgument},
			New: func(inv *command.Invocation) command.Command {
				return addMonitored{target: target{mgr: mgr, controller: inv.String("controller"), node: inv.Byte("node")}, cfg: cfg, logger: logger}
			},
		},
		{
			Group:       group,
			Name:        "remove-monitored-value",
			Description: "Stops monitoring a value in the Z-Wave network",
			Options:     []command.Option{controllerOption},
			Arguments:   []command.Argument{nodeArgument},
			New: func(inv *command.Invocation) command.Command {
				return removeMonitored{target: target{mgr: mgr, controller: inv.String("controller"), node: inv.Byte("node")}, cfg: cfg, logger: logger}
			},
		},
	}
}

// ── listings ─────────────────────────────────────────────────────────

type controllers struct {
	mgr device.Manager
}

func (l controllers) Execute(_ context.Context, _ string, c command.Communicator) command.Result {
	cs := l.mgr.Controllers()
	width := 0
	for _, ctrl := range cs {
		if w := runewidth.StringWidth(ctrl.Name()); w > width {
			width = w
		}
	}
	c.NewLine().Write(runewidth.FillRight("NAME", width) + "   SERIAL PORT")
	for _, ctrl := range cs {
		c.NewLine().Write(runewidth.FillRight(ctrl.Name(), width) + "   " + ctrl.SerialPort())
	}
	return command.Done()
}

type devices struct {
	mgr        device.Manager
	controller string
}

type deviceRow struct {
	controller string
	device     device.Device
}

func (l devices) Execute(_ context.Context, _ string, c command.Communicator) command.Result {
	var rows []deviceRow
	for _, ctrl := range l.mgr.Controllers() {
		if strings.TrimSpace(l.controller) != "" && ctrl.Name() != l.controller {
			continue
		}
		for _, d := range ctrl.Devices() {
			rows = append(rows, deviceRow{controller: ctrl.Name(), device: d})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].controller != rows[j].controller {
			return rows[i].controller < rows[j].controller
		}
		return rows[i].device.NodeID < rows[j].device.NodeID
	})

	const nodeHeader = "NODE ID"
	width := runewidth.StringWidth("DEVICE")
	for _, r := range rows {
		if w := runewidth.StringWidth(r.device.Type); w > width {
			width = w
		}
	}

	c.NewLine().Write(nodeHeader + "   " + runewidth.FillRight("DEVICE", width) + "   CONTROLLER")
	for _, r := range rows {
		c.NewLine().Write(
			runewidth.FillRight(strconv.Itoa(int(r.device.NodeID)), len(nodeHeader)) + "   " +
				runewidth.FillRight(r.device.Type, width) + "   " + r.controller)
	}
	return command.Done()
}

// ── controllers ──────────────────────────────────────────────────────

type addController struct {
	mgr  device.Manager
	cfg  store.ConfigService
	name string
	port string
}

func (a addController) Execute(_ context.Context, user string, c command.Communicator) command.Result {
	if strings.TrimSpace(a.port) == "" {
		return command.Failf("You must provide a serial port")
	}
	for _, ctrl := range a.mgr.Controllers() {
		if ctrl.Name() == a.name {
			return command.Failf("The name '%s' is already used by another controller", a.name)
		}
	}
	if err := a.mgr.AddController(a.name, a.port); err != nil {
		return command.Crash(err)
	}
	err := a.cfg.Modify("Added Z-Wave controller", user, func(conf *store.Config) {
		conf.ZWave = append(conf.ZWave, store.ZWaveConfig{Name: a.name, SerialPort: a.port})
	})
	if err != nil {
		return command.Crash(err)
	}
	c.NewLine().Write("Controller added successfully")
	return command.Done()
}

type removeController struct {
	mgr  device.Manager
	cfg  store.ConfigService
	name string
}

func (r removeController) Execute(_ context.Context, user string, c command.Communicator) command.Result {
	current := r.cfg.Current()
	if _, ok := current.Controller(r.name); !ok {
		return command.Failf("No controller named '%s' could be found", r.name)
	}
	if err := r.mgr.RemoveController(r.name); err != nil {
		return command.Crash(err)
	}
	err := r.cfg.Modify("Removed Z-Wave controller", user, func(conf *store.Config) {
		kept := conf.ZWave[:0]
		for _, z := range conf.ZWave {
			if z.Name != r.name {
				kept = append(kept, z)
			}
		}
		conf.ZWave = kept
	})
	if err != nil {
		return command.Crash(err)
	}
	c.NewLine().Write("Controller removed successfully")
	return command.Done()
}

// ── monitoring ───────────────────────────────────────────────────────

// target resolves the controller and device a monitoring command acts on.
type target struct {
	mgr        device.Manager
	controller string
	node       uint8
}

func (t target) resolve() (device.Controller, device.Device, *command.Result) {
	cs := t.mgr.Controllers()
	blank := strings.TrimSpace(t.controller) == ""

	var ctrl device.Controller
	switch {
	case len(cs) == 0:
		return nil, device.Device{}, fail("There are no Z-Wave controllers configured")
	case len(cs) > 1 && blank:
		return nil, device.Device{}, fail("There are more than one Z-Wave controller configured, please specify a controller")
	case len(cs) == 1 && blank:
		ctrl = cs[0]
	default:
		for _, cand := range cs {
			if cand.Name() == t.controller {
				ctrl = cand
				break
			}
		}
		if ctrl == nil {
			return nil, device.Device{}, fail("No controller with the given name was found")
		}
	}

	for _, d := range ctrl.Devices() {
		if d.NodeID == t.node {
			return ctrl, d, nil
		}
	}
	return nil, device.Device{}, fail("No device with the given identifier was found")
}

func fail(msg string) *command.Result {
	r := command.Failf("%s", msg)
	return &r
}

type addMonitored struct {
	target
	cfg    store.ConfigService
	logger *util.Logger
}

func (a addMonitored) Execute(_ context.Context, user string, c command.Communicator) command.Result {
	ctrl, dev, res := a.resolve()
	if res != nil {
		return *res
	}
	a.logger.Debug("using controller %s and device %s", ctrl.Name(), dev.Type)

	if !dev.Meter {
		return command.Failf("The given node cannot report monitoring values")
	}
	if err := a.record(ctrl, dev, user); err != nil {
		return command.Crash(err)
	}
	if err := ctrl.StartMonitor(dev.NodeID); err != nil {
		return command.Crash(err)
	}
	c.NewLine().Write("Started monitoring device")
	return command.Done()
}

// record adds the node to the controller's monitored values unless the
// current revision already has it.
func (a addMonitored) record(ctrl device.Controller, dev device.Device, user string) error {
	cur := a.cfg.Current()
	if z, ok := cur.Controller(ctrl.Name()); ok && z.Monitors(dev.NodeID) {
		a.logger.Debug("node %d is already in the configuration", dev.NodeID)
		return nil
	}
	return a.cfg.Modify("Monitor device", user, func(conf *store.Config) {
		z, ok := conf.Controller(ctrl.Name())
		if !ok {
			conf.ZWave = append(conf.ZWave, store.ZWaveConfig{Name: ctrl.Name(), SerialPort: ctrl.SerialPort()})
			z = &conf.ZWave[len(conf.ZWave)-1]
		}
		z.MonitoringValues = append(z.MonitoringValues, store.MonitoringConfig{
			NodeID:   dev.NodeID,
			Scale:    "WATTS",
			Interval: store.DefaultMonitoringInterval,
		})
	})
}

type removeMonitored struct {
	target
	cfg    store.ConfigService
	logger *util.Logger
}

func (r removeMonitored) Execute(_ context.Context, user string, c command.Communicator) command.Result {
	ctrl, dev, res := r.resolve()
	if res != nil {
		return *res
	}
	r.logger.Debug("using controller %s and device %s", ctrl.Name(), dev.Type)

	if !ctrl.StopMonitor(dev.NodeID) {
		return command.Failf("Device is not monitored")
	}
	err := r.cfg.Modify("Stopped monitoring device", user, func(conf *store.Config) {
		z, ok := conf.Controller(ctrl.Name())
		if !ok {
			return
		}
		kept := z.MonitoringValues[:0]
		for _, v := range z.MonitoringValues {
			if v.NodeID != dev.NodeID {
				kept = append(kept, v)
			}
		}
		z.MonitoringValues = kept
	})
	if err != nil {
		return command.Crash(err)
	}
	c.NewLine().Write("Stopped monitoring device")
	return command.Done()
}
