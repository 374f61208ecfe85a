package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

// Event is one entry of the getEvents observation.
type Event struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Location    string  `json:"location"`
	Category    string  `json:"category"`
	Link        *string `json:"link"`
}

type serpResponse struct {
	Error         string       `json:"error"`
	EventsResults []serpResult `json:"events_results"`
}

type serpResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Date        struct {
		When string `json:"when"`
	} `json:"date"`
	Address []string `json:"address"`
	Venue   struct {
		Name string `json:"name"`
	} `json:"venue"`
	EventLocationMap struct {
		Link string `json:"link"`
	} `json:"event_location_map"`
	KnowledgeGraph struct {
		Type string `json:"type"`
	} `json:"knowledge_graph"`
}

// EventsTool searches Google Events through SerpApi.
type EventsTool struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Log     logrus.FieldLogger

	sanitizer *bluemonday.Policy
}

func NewEventsTool(apiKey, baseURL string, timeout time.Duration) *EventsTool {
	return &EventsTool{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Client:    &http.Client{Timeout: timeout},
		Log:       logrus.StandardLogger(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (e *EventsTool) Name() string {
	return "getEvents"
}

func (e *EventsTool) Description() string {
	return "Finds events happening in the specified 'city' for the timeframe represented by the 'eventKey'. " +
		"Returns a JSON array of events with id, name, description, date, location, category and link."
}

func (e *EventsTool) RequiredArgs() []string {
	return []string{"city", "eventKey"}
}

// Execute never fails on upstream problems: they are reported to the model
// as a JSON error object. Only cancellation surfaces as an error.
func (e *EventsTool) Execute(ctx context.Context, args Args) (string, error) {
	var categories []string
	if raw := args["categories"]; raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categories = append(categories, c)
			}
		}
	}

	events, err := e.Search(ctx, args["city"], args["eventKey"], categories)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		e.Log.WithField("tool", e.Name()).Warnf("events lookup failed: %v", err)
		return errorJSON(fmt.Sprintf("Failed to get events via proxy: %v", err)), nil
	}

	data, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("failed to encode events: %w", err)
	}
	return string(data), nil
}

// Search queries SerpApi and normalises the results.
func (e *EventsTool) Search(ctx context.Context, city, eventKey string, categories []string) ([]Event, error) {
	if city == "" || eventKey == "" {
		return nil, fmt.Errorf("missing 'eventKey' or 'city' parameter")
	}
	if e.APIKey == "" {
		return nil, fmt.Errorf("server configuration error: SerpApi Key missing")
	}

	location := EventLocation(city)
	query := "events"
	if len(categories) > 0 {
		query = strings.Join(categories, " ") + " events"
	}

	params := url.Values{}
	params.Set("engine", "google_events")
	params.Set("q", query)
	params.Set("location", location)
	params.Set("gl", "au")
	params.Set("hl", "en")
	params.Set("htichips", eventKey)
	params.Set("api_key", e.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for %s: %w", location, err)
	}
	defer resp.Body.Close()

	var data serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("events request failed with status %d: %w", resp.StatusCode, err)
	}
	if data.Error != "" {
		return nil, fmt.Errorf("SerpApi Error: %s", data.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("events request failed with status %d", resp.StatusCode)
	}

	events := make([]Event, 0, len(data.EventsResults))
	for _, r := range data.EventsResults {
		events = append(events, e.normalise(r))
	}
	return events, nil
}

func (e *EventsTool) normalise(r serpResult) Event {
	ev := Event{
		Name:        r.Title,
		Description: strings.TrimSpace(e.sanitizer.Sanitize(r.Description)),
		Date:        r.Date.When,
		Location:    strings.Join(r.Address, ", "),
		Category:    r.KnowledgeGraph.Type,
	}
	if ev.Name == "" {
		ev.Name = "Unnamed Event"
	}
	if ev.Description == "" {
		ev.Description = "No description available."
	}
	if ev.Date == "" {
		ev.Date = "Date unknown"
	}
	if ev.Location == "" {
		ev.Location = r.Venue.Name
	}
	if ev.Location == "" {
		ev.Location = "Location unknown"
	}
	if ev.Category == "" {
		ev.Category = "Event"
	}

	link := r.Link
	if link == "" {
		link = r.EventLocationMap.Link
	}
	if link != "" {
		ev.ID = link
		ev.Link = &link
	} else {
		ev.ID = "serpapi_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	return ev
}

func errorJSON(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}
