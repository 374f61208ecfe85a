package tools

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/treadly55/weekend-away-event-finder/pkg/config"
)

// NewDefaultRegistry registers the two tools the agent may call. Transport
// failures are logged to log; nil means the logrus standard logger.
func NewDefaultRegistry(cfg config.ToolsConfig, log logrus.FieldLogger) *Registry {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	events := NewEventsTool(cfg.SerpAPIKey, cfg.EventsBaseURL, timeout)
	weather := NewWeatherTool(cfg.WeatherAPIKey, cfg.WeatherBaseURL, timeout)
	if log != nil {
		events.Log = log
		weather.Log = log
	}

	registry := NewRegistry()
	registry.Register(events)
	registry.Register(weather)
	return registry
}
