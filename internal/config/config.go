// Package config loads the service configuration from built-in defaults,
// an optional TOML or YAML file and RECEIPT_* environment variables, in
// that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppName names the configuration and data directories.
const AppName = "receipt-templater"

// EnvPrefix prefixes environment overrides. Nested keys are separated by
// a double underscore: RECEIPT_PRINTER__HOST sets printer.host.
const EnvPrefix = "RECEIPT_"

// Printer transports.
const (
	TransportNetwork = "network"
	TransportSerial  = "serial"
)

type Config struct {
	Server    ServerConfig      `koanf:"server"`
	Printer   PrinterConfig     `koanf:"printer"`
	Templates TemplatesConfig   `koanf:"templates"`
	Render    RenderConfig      `koanf:"render"`
	Bindings  map[string]string `koanf:"bindings"`
	Log       LogConfig         `koanf:"log"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type PrinterConfig struct {
	Transport  string        `koanf:"transport"`
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Device     string        `koanf:"device"`
	Baud       int           `koanf:"baud"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`
}

type TemplatesConfig struct {
	// Path is the JSON document holding all named templates.
	Path     string        `koanf:"path"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
	Watch    bool          `koanf:"watch"`
}

type RenderConfig struct {
	PaperWidth      string   `koanf:"paper_width"`
	Language        string   `koanf:"language"`
	LocalCurrency   string   `koanf:"local_currency"`
	ForeignCurrency string   `koanf:"foreign_currency"`
	Timezone        string   `koanf:"timezone"`
	RequiredFields  []string `koanf:"required_fields"`
	// FontPath is the preview TTF. Empty looks up a system monospace font
	// with Cyrillic glyphs.
	FontPath        string   `koanf:"font_path"`
}

type LogConfig struct {
	Verbosity int    `koanf:"verbosity"`
	File      string `koanf:"file"`
}

// DefaultPath is the config file looked up when none is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// DefaultTemplatesPath is the default template store location.
func DefaultTemplatesPath() string {
	return filepath.Join(xdg.DataHome, AppName, "templates.json")
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":             ":8080",
		"printer.transport":       TransportNetwork,
		"printer.host":            "192.168.123.100",
		"printer.port":            9100,
		"printer.device":          "",
		"printer.baud":            9600,
		"printer.timeout":         "10s",
		"printer.max_retries":     3,
		"printer.retry_delay":     "2s",
		"templates.path":          DefaultTemplatesPath(),
		"templates.cache_ttl":     "5m",
		"templates.watch":         true,
		"render.paper_width":      "80mm",
		"render.language":         "uz",
		"render.local_currency":   "uzs",
		"render.foreign_currency": "usd",
		"render.timezone":         "",
		"render.font_path":        "",
		"log.verbosity":           0,
		"log.file":                "",
	}
}

// Load builds the configuration. An explicit path must exist; with an
// empty path DefaultPath is used when present.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultPath()); err == nil {
			path = DefaultPath()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

func (c *Config) validate() error {
	switch c.Printer.Transport {
	case TransportNetwork:
	case TransportSerial:
		if c.Printer.Device == "" {
			return fmt.Errorf("printer.device is required for the serial transport")
		}
	default:
		return fmt.Errorf("unknown printer.transport %q", c.Printer.Transport)
	}
	if c.Printer.MaxRetries < 1 {
		return fmt.Errorf("printer.max_retries must be at least 1")
	}
	return nil
}

// BindingFor returns the template bound to an event; events without a
// binding use the template of the same name.
func (c *Config) BindingFor(event string) string {
	if name, ok := c.Bindings[event]; ok && name != "" {
		return name
	}
	return event
}

// Location returns the render time zone, the local zone when unset.
func (r RenderConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid render.timezone: %w", err)
	}
	return loc, nil
}
