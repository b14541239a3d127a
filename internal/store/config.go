// Package store holds the server's persistent state: the revisioned
// home configuration and every user's command history.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config is the home configuration the shell commands edit.
type Config struct {
	Identifier   string              `yaml:"identifier" json:"identifier"`
	ZWave        []ZWaveConfig       `yaml:"zwave" json:"zwave"`
	Notification *NotificationConfig `yaml:"notification,omitempty" json:"notification,omitempty"`
}

// ZWaveConfig is one configured Z-Wave controller.
type ZWaveConfig struct {
	Name             string             `yaml:"name" json:"name"`
	SerialPort       string             `yaml:"serial_port" json:"serial_port"`
	MonitoringValues []MonitoringConfig `yaml:"monitoring_values" json:"monitoring_values"`
}

// MonitoringConfig is a node whose meter readings are collected.
type MonitoringConfig struct {
	NodeID   uint8  `yaml:"node_id" json:"node_id"`
	Scale    string `yaml:"scale" json:"scale"`
	Interval int    `yaml:"interval" json:"interval"` // seconds
}

// DefaultMonitoringInterval is used when a monitored value is added
// without an interval.
const DefaultMonitoringInterval = 10

// NotificationConfig selects the notification provider.
type NotificationConfig struct {
	Provider string `yaml:"provider" json:"provider"`
	Token1   string `yaml:"token1,omitempty" json:"token1,omitempty"`
	Token2   string `yaml:"token2,omitempty" json:"token2,omitempty"`
}

// Controller returns the controller config with the given name.
func (c *Config) Controller(name string) (*ZWaveConfig, bool) {
	for i := range c.ZWave {
		if c.ZWave[i].Name == name {
			return &c.ZWave[i], true
		}
	}
	return nil, false
}

// Monitors reports whether node is one of the monitored values.
func (z ZWaveConfig) Monitors(node uint8) bool {
	for _, v := range z.MonitoringValues {
		if v.NodeID == node {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.ZWave = make([]ZWaveConfig, len(c.ZWave))
	for i, z := range c.ZWave {
		z.MonitoringValues = append([]MonitoringConfig(nil), z.MonitoringValues...)
		out.ZWave[i] = z
	}
	if c.Notification != nil {
		n := *c.Notification
		out.Notification = &n
	}
	return out
}

// ConfigHistory describes one stored revision.
type ConfigHistory struct {
	Identifier string
	CreatedAt  time.Time
	User       string
	Reason     string
}

// ConfigService reads and revises the home configuration.
type ConfigService interface {
	Current() Config
	Modify(reason, user string, mutate func(*Config)) error
	History() ([]ConfigHistory, error)
	ByID(id string) (Config, bool)
}

type revision struct {
	meta   ConfigHistory
	config Config
}

// MemoryConfigService keeps every revision in memory.  It is safe for
// concurrent use.
type MemoryConfigService struct {
	mu        sync.RWMutex
	revisions []revision // oldest first
	now       func() time.Time
}

// NewMemoryConfigService starts the revision log with initial.
func NewMemoryConfigService(initial Config) *MemoryConfigService {
	s := &MemoryConfigService{now: time.Now}
	s.append(initial, "", "")
	return s
}

func (s *MemoryConfigService) append(c Config, reason, user string) {
	c = c.Clone()
	c.Identifier = uuid.NewString()
	s.revisions = append(s.revisions, revision{
		meta: ConfigHistory{
			Identifier: c.Identifier,
			CreatedAt:  s.now().UTC(),
			User:       user,
			Reason:     reason,
		},
		config: c,
	})
}

// Current returns a copy of the latest revision.
func (s *MemoryConfigService) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revisions[len(s.revisions)-1].config.Clone()
}

// Modify applies mutate to a copy of the current configuration and
// stores the result as a new revision.
func (s *MemoryConfigService) Modify(reason, user string, mutate func(*Config)) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("reason can't be blank")
	}
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("user can't be blank")
	}
	if mutate == nil {
		return fmt.Errorf("mutator can't be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.revisions[len(s.revisions)-1].config.Clone()
	mutate(&next)
	s.append(next, reason, user)
	return nil
}

// History lists all revisions, newest first.
func (s *MemoryConfigService) History() ([]ConfigHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConfigHistory, 0, len(s.revisions))
	for i := len(s.revisions) - 1; i >= 0; i-- {
		out = append(out, s.revisions[i].meta)
	}
	return out, nil
}

// ByID returns the revision with the given identifier.
func (s *MemoryConfigService) ByID(id string) (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.revisions {
		if r.meta.Identifier == id {
			return r.config.Clone(), true
		}
	}
	return Config{}, false
}
