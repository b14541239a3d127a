// Package device is the narrow view the shell has of the home automation
// network: Z-Wave controllers and the devices paired with them.
package device

import (
	"fmt"
	"sort"
	"sync"
)

// Device is a node paired with a controller.
type Device struct {
	NodeID uint8
	Type   string
	Meter  bool // the node can report meter values
}

// Controller is one Z-Wave controller.
type Controller interface {
	Name() string
	SerialPort() string
	Devices() []Device
	StartMonitor(node uint8) error
	StopMonitor(node uint8) bool
}

// Manager owns the set of controllers.
type Manager interface {
	Controllers() []Controller
	AddController(name, serialPort string) error
	RemoveController(name string) error
}

// ControllerSpec seeds a controller of an Inventory.
type ControllerSpec struct {
	Name       string
	SerialPort string
	Devices    []Device
}

// Inventory is a Manager over a fixed, configured set of devices.  It
// records monitoring requests but talks to no hardware.  It is safe for
// concurrent use.
type Inventory struct {
	mu          sync.RWMutex
	controllers []*staticController
}

// NewInventory builds an inventory from specs.
func NewInventory(specs []ControllerSpec) (*Inventory, error) {
	inv := &Inventory{}
	for _, s := range specs {
		if err := inv.AddController(s.Name, s.SerialPort); err != nil {
			return nil, err
		}
		c := inv.controllers[len(inv.controllers)-1]
		c.devices = append(c.devices, s.Devices...)
		sort.Slice(c.devices, func(i, j int) bool { return c.devices[i].NodeID < c.devices[j].NodeID })
	}
	return inv, nil
}

// Controllers returns the controllers in the order they were added.
func (i *Inventory) Controllers() []Controller {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]Controller, len(i.controllers))
	for n, c := range i.controllers {
		out[n] = c
	}
	return out
}

// AddController registers a controller without devices.
func (i *Inventory) AddController(name, serialPort string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, c := range i.controllers {
		if c.name == name {
			return fmt.Errorf("the name '%s' is already used by another controller", name)
		}
	}
	i.controllers = append(i.controllers, &staticController{
		name:      name,
		port:      serialPort,
		monitored: make(map[uint8]bool),
	})
	return nil
}

// RemoveController drops the named controller.
func (i *Inventory) RemoveController(name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for n, c := range i.controllers {
		if c.name == name {
			i.controllers = append(i.controllers[:n], i.controllers[n+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no controller named '%s' could be found", name)
}

type staticController struct {
	mu        sync.Mutex
	name      string
	port      string
	devices   []Device
	monitored map[uint8]bool
}

func (c *staticController) Name() string       { return c.name }
func (c *staticController) SerialPort() string { return c.port }

func (c *staticController) Devices() []Device {
	return append([]Device(nil), c.devices...)
}

func (c *staticController) StartMonitor(node uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.devices {
		if d.NodeID == node {
			c.monitored[node] = true
			return nil
		}
	}
	return fmt.Errorf("node %d is not paired with %s", node, c.name)
}

func (c *staticController) StopMonitor(node uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.monitored[node] {
		return false
	}
	delete(c.monitored, node)
	return true
}
