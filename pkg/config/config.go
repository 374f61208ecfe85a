package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxTurns       = 5
	DefaultToolTimeoutSec = 30
	DefaultModel          = "gpt-3.5-turbo"
	DefaultTemperature    = 0.1
	DefaultEventsBaseURL  = "https://serpapi.com/search.json"
	DefaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/forecast"
)

type Config struct {
	App        AppConfig                 `json:"app" yaml:"app" toml:"app"`
	Gateways   map[string]GatewayConfig  `json:"gateways" yaml:"gateways" toml:"gateways"`
	Providers  map[string]ProviderConfig `json:"providers" yaml:"providers" toml:"providers"`
	Tools      ToolsConfig               `json:"tools" yaml:"tools" toml:"tools"`
	Agent      AgentConfig               `json:"agent" yaml:"agent" toml:"agent"`
	Governance GovernanceConfig          `json:"governance" yaml:"governance" toml:"governance"`
}

type AppConfig struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	LogDir  string `json:"log_dir" yaml:"log_dir" toml:"log_dir"`
	Verbose bool   `json:"verbose" yaml:"verbose" toml:"verbose"`
}

type GatewayConfig struct {
	Token   string `json:"token" yaml:"token" toml:"token"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

type ProviderConfig struct {
	APIKey      string  `json:"api_key" yaml:"api_key" toml:"api_key"`
	Model       string  `json:"model" yaml:"model" toml:"model"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	Enabled     bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// GetTemperature returns the configured temperature, or DefaultTemperature
// when the field was absent.
func (p ProviderConfig) GetTemperature() float64 {
	if p.Temperature == nil {
		return DefaultTemperature
	}
	return *p.Temperature
}

// ToolsConfig holds credentials and endpoints for the events and weather APIs.
type ToolsConfig struct {
	SerpAPIKey     string `json:"serpapi_key" yaml:"serpapi_key" toml:"serpapi_key"`
	WeatherAPIKey  string `json:"weather_api_key" yaml:"weather_api_key" toml:"weather_api_key"`
	EventsBaseURL  string `json:"events_base_url,omitempty" yaml:"events_base_url,omitempty" toml:"events_base_url,omitempty"`
	WeatherBaseURL string `json:"weather_base_url,omitempty" yaml:"weather_base_url,omitempty" toml:"weather_base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"`
}

type AgentConfig struct {
	MaxTurns   int    `json:"max_turns,omitempty" yaml:"max_turns,omitempty" toml:"max_turns,omitempty"`
	PromptsDir string `json:"prompts_dir,omitempty" yaml:"prompts_dir,omitempty" toml:"prompts_dir,omitempty"`
}

type GovernanceConfig struct {
	DeniedTools     []string `json:"denied_tools,omitempty" yaml:"denied_tools,omitempty" toml:"denied_tools,omitempty"`
	DeniedArguments []string `json:"denied_arguments,omitempty" yaml:"denied_arguments,omitempty" toml:"denied_arguments,omitempty"`
}

// Load decodes the file at path. The format is chosen by extension:
// .yaml/.yml, .toml, anything else is treated as JSON. Environment
// variables override file values and defaults are filled afterwards.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = json.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// FromEnv builds a config purely from environment variables and defaults.
func FromEnv() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderConfig)
		}
		enable := !c.anyProviderEnabled()
		p := c.Providers["openai"]
		p.APIKey = v
		if enable {
			p.Enabled = true
		}
		c.Providers["openai"] = p
	}
	if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
		c.Tools.SerpAPIKey = v
	}
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		c.Tools.WeatherAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		if c.Gateways == nil {
			c.Gateways = make(map[string]GatewayConfig)
		}
		g := c.Gateways["telegram"]
		g.Token = v
		c.Gateways["telegram"] = g
	}
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "Weekend Away"
	}
	if c.App.LogDir == "" {
		c.App.LogDir = "logs"
	}
	if c.Agent.MaxTurns <= 0 {
		c.Agent.MaxTurns = DefaultMaxTurns
	}
	if c.Tools.EventsBaseURL == "" {
		c.Tools.EventsBaseURL = DefaultEventsBaseURL
	}
	if c.Tools.WeatherBaseURL == "" {
		c.Tools.WeatherBaseURL = DefaultWeatherBaseURL
	}
	if c.Tools.TimeoutSeconds <= 0 {
		c.Tools.TimeoutSeconds = DefaultToolTimeoutSec
	}
	for name, p := range c.Providers {
		if p.Model == "" && (name == "openai" || name == "openrouter") {
			p.Model = DefaultModel
		}
		if p.Temperature == nil {
			t := DefaultTemperature
			p.Temperature = &t
		}
		c.Providers[name] = p
	}
}

func (c *Config) anyProviderEnabled() bool {
	for _, p := range c.Providers {
		if p.Enabled {
			return true
		}
	}
	return false
}

// GetDefaultProvider returns the first enabled provider, preferring openai
// so the choice is stable across map iteration.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	if p, ok := c.Providers["openai"]; ok && p.Enabled {
		return "openai", p
	}
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled && tg.Token != "" {
		return tg, true
	}
	return GatewayConfig{}, false
}
