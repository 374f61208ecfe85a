package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/treadly55/weekend-away-event-finder/internal/agent"
	"github.com/treadly55/weekend-away-event-finder/internal/tools"
)

// telegramPolicy keeps only the tags Telegram's HTML parse mode accepts.
var telegramPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	// Telegram rejects any attribute on <a> other than href.
	p.RequireNoFollowOnLinks(false)
	return p
}()

var blockReplacer = strings.NewReplacer(
	"<h3>", "<b>",
	"</h3>", "</b>\n",
	"<p>", "",
	"</p>", "\n\n",
	"<br>", "\n",
	"<br/>", "\n",
)

// RenderTelegramHTML turns the agent's HTML recommendation into the subset
// Telegram can display.
func RenderTelegramHTML(answer string) string {
	out := telegramPolicy.Sanitize(blockReplacer.Replace(answer))
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

// ParseEventsCommand reads "<city> <today|tomorrow>". The city may be given
// as a bare name ("Sydney") or in "City, AU" form.
func ParseEventsCommand(args string, now time.Time) (string, agent.Timeframe, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", agent.Timeframe{}, fmt.Errorf("usage: /events <city> <today|tomorrow>")
	}

	tf, err := agent.ResolveTimeframe(fields[len(fields)-1], now)
	if err != nil {
		return "", agent.Timeframe{}, err
	}

	city, err := resolveCity(strings.Join(fields[:len(fields)-1], " "))
	if err != nil {
		return "", agent.Timeframe{}, err
	}
	return city, tf, nil
}

func resolveCity(input string) (string, error) {
	input = strings.TrimSpace(input)
	for _, city := range tools.SupportedCities() {
		name, _, _ := strings.Cut(city, ",")
		if strings.EqualFold(input, city) || strings.EqualFold(input, name) {
			return city, nil
		}
	}
	return "", fmt.Errorf("unsupported city %q: choose one of %s", input, strings.Join(tools.SupportedCities(), "; "))
}
