package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const forecastBody = `{"cod": "200", "list": [
	{"dt_txt": "2025-05-12 21:00:00", "weather": [{"main": "Rain", "description": "light rain", "icon": "10n"}], "main": {"temp": 14, "temp_min": 13, "temp_max": 15}},
	{"dt_txt": "2025-05-13 09:00:00", "weather": [{"main": "Clouds", "description": "few clouds", "icon": "02d"}], "main": {"temp": 17, "temp_min": 16.44, "temp_max": 17.2}},
	{"dt_txt": "2025-05-13 12:00:00", "weather": [{"main": "Clear", "description": "clear sky", "icon": "01d"}], "main": {"temp": 22, "temp_min": 21.5, "temp_max": 22.96}},
	{"dt_txt": "2025-05-13 18:00:00", "weather": [{"main": "Clear", "description": "clear sky", "icon": "01n"}], "main": {"temp": 19}}
]}`

func TestWeatherTool_Execute(t *testing.T) {
	var lat, units string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lat = r.URL.Query().Get("lat")
		units = r.URL.Query().Get("units")
		w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	tool := NewWeatherTool("owm", srv.URL, 5*time.Second)
	out, err := tool.Execute(context.Background(), Args{"city": "Sydney, AU", "date": "2025-05-13"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if lat != "-33.8688" || units != "metric" {
		t.Errorf("unexpected query lat=%q units=%q", lat, units)
	}

	var f Forecast
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatalf("output is not a forecast: %v (%s)", err, out)
	}
	if f.City != "Sydney" || f.Date != "2025-05-13" {
		t.Errorf("unexpected city/date: %+v", f)
	}
	if f.Main != "Clear" || f.Icon != "01d" {
		t.Errorf("expected the 12:00 slot as representative, got %+v", f)
	}
	if f.TempMin != 16.4 || f.TempMax != 23 {
		t.Errorf("unexpected temperature range %v..%v", f.TempMin, f.TempMax)
	}
}

func TestWeatherTool_NoSlotsForDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	tool := NewWeatherTool("owm", srv.URL, time.Second)
	out, err := tool.Execute(context.Background(), Args{"city": "Sydney, AU", "date": "2030-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no weather forecast entries found for 2030-01-01 in Sydney") {
		t.Errorf("unexpected output %s", out)
	}
}

func TestWeatherTool_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod": 401, "message": "Invalid API key."}`))
	}))
	defer srv.Close()

	tool := NewWeatherTool("bad", srv.URL, time.Second)
	out, err := tool.Execute(context.Background(), Args{"city": "Melbourne, AU", "date": "2025-05-13"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Invalid API key.") || !strings.HasPrefix(out, `{"error":"Failed to get weather via proxy`) {
		t.Errorf("unexpected output %s", out)
	}
}

func TestWeatherTool_UnsupportedCity(t *testing.T) {
	tool := NewWeatherTool("owm", "http://127.0.0.1:0", time.Second)
	_, err := tool.Forecast(context.Background(), "Hobart, AU", "2025-05-13")
	if !errors.Is(err, ErrUnsupportedCity) {
		t.Errorf("expected ErrUnsupportedCity, got %v", err)
	}
}

func TestRegistry_DefaultNames(t *testing.T) {
	r := NewRegistry()
	r.Register(NewWeatherTool("", "", time.Second))
	r.Register(NewEventsTool("", "", time.Second))

	names := r.Names()
	if len(names) != 2 || names[0] != "getEvents" || names[1] != "getWeather" {
		t.Errorf("unexpected names %v", names)
	}
	if r.Get("search") != nil {
		t.Error("unknown tool should not resolve")
	}
}
