package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/treadly55/weekend-away-event-finder/pkg/config"
)

func TestEventsTool_Execute(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{"events_results": [
			{"title": "Harbour Kayak Race", "description": "<b>Paddle</b> the harbour", "link": "https://example.com/kayak",
			 "date": {"when": "Sat, 10 AM"}, "address": ["Circular Quay", "Sydney"], "knowledge_graph": {"type": "Sport"}},
			{"venue": {"name": "Town Hall"}}
		]}`))
	}))
	defer srv.Close()

	tool := NewEventsTool("serp-key", srv.URL, 5*time.Second)
	out, err := tool.Execute(context.Background(), Args{"city": "Sydney, AU", "eventKey": "date:today"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if gotQuery["location"] != "Sydney, New South Wales, Australia" {
		t.Errorf("expected mapped location, got %q", gotQuery["location"])
	}
	if gotQuery["htichips"] != "date:today" || gotQuery["engine"] != "google_events" || gotQuery["api_key"] != "serp-key" {
		t.Errorf("unexpected query: %v", gotQuery)
	}

	var events []Event
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("output is not an event array: %v (%s)", err, out)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.Name != "Harbour Kayak Race" || first.Location != "Circular Quay, Sydney" || first.Category != "Sport" {
		t.Errorf("unexpected first event: %+v", first)
	}
	if first.Description != "Paddle the harbour" {
		t.Errorf("description should be sanitised, got %q", first.Description)
	}
	if first.Link == nil || *first.Link != "https://example.com/kayak" || first.ID != "https://example.com/kayak" {
		t.Errorf("unexpected link/id: %+v", first)
	}

	second := events[1]
	if second.Name != "Unnamed Event" || second.Location != "Town Hall" || second.Date != "Date unknown" {
		t.Errorf("defaults not applied: %+v", second)
	}
	if second.Link != nil || !strings.HasPrefix(second.ID, "serpapi_") {
		t.Errorf("expected generated id and null link: %+v", second)
	}
}

func TestEventsTool_Categories(t *testing.T) {
	var q string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query().Get("q")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tool := NewEventsTool("k", srv.URL, time.Second)
	out, err := tool.Execute(context.Background(), Args{"city": "Perth, AU", "eventKey": "date:tomorrow", "categories": "music, food"})
	if err != nil {
		t.Fatal(err)
	}
	if q != "music food events" {
		t.Errorf("unexpected query %q", q)
	}
	if out != "[]" {
		t.Errorf("missing events_results should yield empty array, got %s", out)
	}
}

func TestEventsTool_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer srv.Close()

	tool := NewEventsTool("bad", srv.URL, time.Second)
	out, err := tool.Execute(context.Background(), Args{"city": "Sydney, AU", "eventKey": "date:today"})
	if err != nil {
		t.Fatalf("upstream errors should be reported as JSON, got %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["error"] != "Failed to get events via proxy: SerpApi Error: Invalid API key" {
		t.Errorf("unexpected error payload %q", payload["error"])
	}
}

func TestEventsTool_MissingKey(t *testing.T) {
	tool := NewEventsTool("", "http://127.0.0.1:0", time.Second)
	out, err := tool.Execute(context.Background(), Args{"city": "Sydney, AU", "eventKey": "date:today"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "SerpApi Key missing") {
		t.Errorf("expected configuration error, got %s", out)
	}
}

func TestEventsTool_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tool := NewEventsTool("k", srv.URL, time.Second)
	if _, err := tool.Execute(ctx, Args{"city": "Sydney, AU", "eventKey": "date:today"}); err == nil {
		t.Error("expected cancellation to surface as an error")
	}
}

func TestEventsTool_UpstreamErrorIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer srv.Close()

	logger, hook := logtest.NewNullLogger()
	reg := NewDefaultRegistry(config.ToolsConfig{SerpAPIKey: "bad", EventsBaseURL: srv.URL, TimeoutSeconds: 1}, logger)
	if _, err := reg.Get("getEvents").Execute(context.Background(), Args{"city": "Sydney, AU", "eventKey": "date:today"}); err != nil {
		t.Fatal(err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected the upstream failure to be logged")
	}
	if entry.Level != logrus.WarnLevel || entry.Data["tool"] != "getEvents" || !strings.Contains(entry.Message, "Invalid API key") {
		t.Errorf("unexpected entry %v %q %v", entry.Level, entry.Message, entry.Data)
	}
}
