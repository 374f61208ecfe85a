package agent

import (
	"fmt"
	"strings"
	"time"
)

const (
	EventKeyToday    = "date:today"
	EventKeyTomorrow = "date:tomorrow"
)

// Timeframe pairs the events API key with the forecast date it implies.
type Timeframe struct {
	Name        string
	EventKey    string
	WeatherDate string
}

// ResolveTimeframe maps "today" or "tomorrow" relative to now.
func ResolveTimeframe(name string, now time.Time) (Timeframe, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "today":
		return Timeframe{Name: "today", EventKey: EventKeyToday, WeatherDate: now.Format("2006-01-02")}, nil
	case "tomorrow":
		return Timeframe{Name: "tomorrow", EventKey: EventKeyTomorrow, WeatherDate: now.AddDate(0, 0, 1).Format("2006-01-02")}, nil
	default:
		return Timeframe{}, fmt.Errorf("invalid timeframe %q: use today or tomorrow", name)
	}
}
