// Package config loads recents configuration from TOML.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/recents/bus"
	"github.com/vinayprograms/recents/errors"
	"github.com/vinayprograms/recents/logging"
	"github.com/vinayprograms/recents/palette"
	"github.com/vinayprograms/recents/stack"
	"github.com/vinayprograms/recents/task"
	"github.com/vinayprograms/recents/telemetry"
)

// Config is the full configuration.
type Config struct {
	Stacks     StacksConfig     `toml:"stacks"`
	Grouping   GroupingConfig   `toml:"grouping"`
	Components ComponentsConfig `toml:"components"`
	Relay      RelayConfig      `toml:"relay"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Log        LogConfig        `toml:"log"`
}

// StacksConfig names the well-known stack ids.
type StacksConfig struct {
	Freeform   int   `toml:"freeform"`
	Fullscreen int   `toml:"fullscreen"`
	Docked     []int `toml:"docked"`
}

// GroupingConfig controls CreateAffiliatedGroupings.
type GroupingConfig struct {
	MinAlphaFraction   float64 `toml:"min_alpha_fraction"`
	Simulated          bool    `toml:"simulated"`
	SimulatedRunLength int     `toml:"simulated_run_length"`
}

// ComponentsConfig lists components reported as uninstalled, in
// "package/class" form.
type ComponentsConfig struct {
	Uninstalled []string `toml:"uninstalled"`
}

// RelayConfig controls the settings relay.
type RelayConfig struct {
	// Subject is the bus subject change events travel on.
	Subject string `toml:"subject"`

	// NATSURL selects the NATS bus. Empty means in-process.
	NATSURL string `toml:"nats_url"`

	// NATSCreds is an optional NATS credentials file.
	NATSCreds string `toml:"nats_creds"`

	// Listen is the websocket listen address. Empty disables it.
	Listen string `toml:"listen"`

	// Bucket names the JetStream bucket holding last values when NATS is
	// used.
	Bucket string `toml:"bucket"`
}

// TelemetryConfig controls span export and the event journal.
type TelemetryConfig struct {
	// Endpoint is the OTLP collector. Empty disables span export.
	Endpoint    string  `toml:"endpoint"`
	Protocol    string  `toml:"protocol"`
	Insecure    bool    `toml:"insecure"`
	ServiceName string  `toml:"service_name"`
	SampleRatio float64 `toml:"sample_ratio"`

	// Journal is "http", "file" or "noop"; JournalEndpoint is its URL or path.
	Journal         string `toml:"journal"`
	JournalEndpoint string `toml:"journal_endpoint"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultSubject is the relay subject used when none is configured.
const DefaultSubject = "recents.settings"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Stacks: StacksConfig{
			Freeform:   stack.DefaultFreeformStackID,
			Fullscreen: stack.DefaultFullscreenStackID,
			Docked:     []int{3},
		},
		Grouping: GroupingConfig{
			MinAlphaFraction:   stack.DefaultMinAlphaFraction,
			SimulatedRunLength: stack.DefaultSimulatedGroupRunLength,
		},
		Relay: RelayConfig{
			Subject: DefaultSubject,
			Bucket:  "recents-settings",
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "recents",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(string(content))
}

// Parse decodes TOML content over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(content string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(content, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.InvalidInput("unknown config keys: " + strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Grouping.MinAlphaFraction <= 0 || c.Grouping.MinAlphaFraction > 1 {
		return errors.InvalidInput(fmt.Sprintf("grouping.min_alpha_fraction %v outside (0, 1]", c.Grouping.MinAlphaFraction))
	}
	if c.Grouping.SimulatedRunLength < 1 {
		return errors.InvalidInput("grouping.simulated_run_length must be at least 1")
	}
	if c.Stacks.Freeform == 0 || c.Stacks.Fullscreen == 0 {
		return errors.InvalidInput("stacks.freeform and stacks.fullscreen must be set")
	}
	if c.Stacks.Freeform == c.Stacks.Fullscreen {
		return errors.InvalidInput(fmt.Sprintf("stacks.freeform and stacks.fullscreen share id %d", c.Stacks.Freeform))
	}
	for _, id := range c.Stacks.Docked {
		if id == c.Stacks.Freeform || id == c.Stacks.Fullscreen {
			return errors.InvalidInput(fmt.Sprintf("stacks.docked id %d is also freeform or fullscreen", id))
		}
	}
	for _, s := range c.Components.Uninstalled {
		if _, ok := task.ParseComponentName(s); !ok {
			return errors.InvalidInput(fmt.Sprintf("components.uninstalled entry %q is not package/class", s))
		}
	}
	switch c.Telemetry.Protocol {
	case "", telemetry.ProtocolGRPC, telemetry.ProtocolHTTP:
	default:
		return errors.InvalidInput(fmt.Sprintf("telemetry.protocol %q (use grpc or http)", c.Telemetry.Protocol))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return errors.InvalidInput(fmt.Sprintf("telemetry.sample_ratio %v outside [0, 1]", c.Telemetry.SampleRatio))
	}
	switch c.Telemetry.Journal {
	case "", "noop":
	case "http", "file":
		if c.Telemetry.JournalEndpoint == "" {
			return errors.InvalidInput("telemetry.journal_endpoint must be set for " + c.Telemetry.Journal)
		}
	default:
		return errors.InvalidInput(fmt.Sprintf("telemetry.journal %q (use http, file or noop)", c.Telemetry.Journal))
	}
	if c.Relay.Subject == "" {
		return errors.InvalidInput("relay.subject must be set")
	}
	return nil
}

// StackConfig builds the stack configuration. A nil services uses
// StaticServices built from this configuration.
func (c *Config) StackConfig(services stack.Services, blender palette.Blender, logger *logging.Logger) stack.Config {
	if services == nil {
		services = c.StaticServices()
	}
	return stack.Config{
		Services:                services,
		Blender:                 blender,
		MinAlphaFraction:        c.Grouping.MinAlphaFraction,
		FreeformStackID:         c.Stacks.Freeform,
		FullscreenStackID:       c.Stacks.Fullscreen,
		SimulatedGroupRunLength: c.Grouping.SimulatedRunLength,
		Logger:                  logger,
	}
}

// ProviderConfig builds the span exporter configuration.
func (c *Config) ProviderConfig(version string) telemetry.ProviderConfig {
	return telemetry.ProviderConfig{
		ServiceName:    c.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       c.Telemetry.Endpoint,
		Protocol:       c.Telemetry.Protocol,
		Insecure:       c.Telemetry.Insecure,
		Debug:          logging.ParseLevel(c.Log.Level) == logging.LevelDebug,
		SampleRatio:    c.Telemetry.SampleRatio,
		Attributes:     map[string]string{"recents.relay.subject": c.Relay.Subject},
	}
}

// NATSConfig builds the bus connection configuration. It is only
// meaningful when relay.nats_url is set.
func (c *Config) NATSConfig(clientName string, logger *logging.Logger) bus.NATSConfig {
	cfg := bus.DefaultNATSConfig()
	cfg.URL = c.Relay.NATSURL
	cfg.CredsFile = c.Relay.NATSCreds
	cfg.Name = clientName
	cfg.Logger = logger
	return cfg
}

// StaticServices answers stack queries from the configuration alone.
type StaticServices struct {
	docked      map[int]bool
	uninstalled map[task.ComponentName]bool
}

// StaticServices builds the configured services.
func (c *Config) StaticServices() *StaticServices {
	s := &StaticServices{
		docked:      make(map[int]bool, len(c.Stacks.Docked)),
		uninstalled: make(map[task.ComponentName]bool, len(c.Components.Uninstalled)),
	}
	for _, id := range c.Stacks.Docked {
		s.docked[id] = true
	}
	for _, name := range c.Components.Uninstalled {
		if cn, ok := task.ParseComponentName(name); ok {
			s.uninstalled[cn] = true
		}
	}
	return s
}

// IsDockedStack reports whether stackID is listed in stacks.docked.
func (s *StaticServices) IsDockedStack(stackID int) bool {
	return s.docked[stackID]
}

// ActivityInfo resolves every component not listed as uninstalled.
func (s *StaticServices) ActivityInfo(c task.ComponentName, _ int) (stack.ActivityInfo, bool) {
	if s.uninstalled[c] {
		return stack.ActivityInfo{}, false
	}
	return stack.ActivityInfo{Component: c}, true
}
