package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Forecast is the getWeather observation: one representative record per day.
type Forecast struct {
	Date        string  `json:"date"`
	City        string  `json:"city"`
	Main        string  `json:"main"`
	Description string  `json:"description"`
	TempMax     float64 `json:"temp_max"`
	TempMin     float64 `json:"temp_min"`
	Icon        string  `json:"icon"`
}

type owmResponse struct {
	Cod     json.RawMessage `json:"cod"`
	Message json.RawMessage `json:"message"`
	List    []owmSlot       `json:"list"`
}

type owmSlot struct {
	DtTxt   string `json:"dt_txt"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp    *float64 `json:"temp"`
		TempMin *float64 `json:"temp_min"`
		TempMax *float64 `json:"temp_max"`
	} `json:"main"`
}

// WeatherTool reads the OpenWeatherMap 5 day / 3 hour forecast.
type WeatherTool struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Log     logrus.FieldLogger
}

func NewWeatherTool(apiKey, baseURL string, timeout time.Duration) *WeatherTool {
	return &WeatherTool{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		Log:     logrus.StandardLogger(),
	}
}

func (w *WeatherTool) Name() string {
	return "getWeather"
}

func (w *WeatherTool) Description() string {
	return "Gets the weather forecast for the specified 'city' on the specified 'date' (YYYY-MM-DD). " +
		"Returns a JSON object such as {\"date\": \"2025-05-13\", \"main\": \"Clear\", \"description\": \"clear sky\", \"temp_max\": 25, \"temp_min\": 15}."
}

func (w *WeatherTool) RequiredArgs() []string {
	return []string{"city", "date"}
}

func (w *WeatherTool) Execute(ctx context.Context, args Args) (string, error) {
	forecast, err := w.Forecast(ctx, args["city"], args["date"])
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		w.Log.WithField("tool", w.Name()).Warnf("weather lookup failed: %v", err)
		return errorJSON(fmt.Sprintf("Failed to get weather via proxy: %v", err)), nil
	}

	data, err := json.Marshal(forecast)
	if err != nil {
		return "", fmt.Errorf("failed to encode forecast: %w", err)
	}
	return string(data), nil
}

// Forecast fetches the forecast list and reduces the slots of date
// (YYYY-MM-DD) to a single record.
func (w *WeatherTool) Forecast(ctx context.Context, city, date string) (*Forecast, error) {
	if city == "" || date == "" {
		return nil, fmt.Errorf("missing 'cityFullName' or 'date' parameter")
	}
	if w.APIKey == "" {
		return nil, fmt.Errorf("server configuration error: Weather API Key missing")
	}

	coords, err := LookupCoordinates(city)
	if err != nil {
		return nil, fmt.Errorf("%w for weather lookup: %s", err, city)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("appid", w.APIKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather function error for %s: %w", coords.DisplayName, err)
	}
	defer resp.Body.Close()

	var data owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("weather request failed with status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || rawString(data.Cod) != "200" {
		msg := rawString(data.Message)
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, fmt.Errorf("failed to fetch weather data: %s", msg)
	}

	return summarise(data.List, date, coords.DisplayName)
}

// summarise picks the 12:00 or 15:00 slot (else the first) as the
// representative conditions and takes min/max temperatures across the day.
func summarise(list []owmSlot, date, displayName string) (*Forecast, error) {
	var day []owmSlot
	for _, s := range list {
		if strings.HasPrefix(s.DtTxt, date) {
			day = append(day, s)
		}
	}
	if len(day) == 0 {
		return nil, fmt.Errorf("no weather forecast entries found for %s in %s", date, displayName)
	}

	rep := day[0]
	for _, s := range day {
		t := slotTime(s.DtTxt)
		if t == "12:00:00" || t == "15:00:00" {
			rep = s
			break
		}
	}

	minTemp, maxTemp := math.Inf(1), math.Inf(-1)
	for _, s := range day {
		if v, ok := firstOf(s.Main.TempMin, s.Main.Temp); ok {
			minTemp = math.Min(minTemp, v)
		}
		if v, ok := firstOf(s.Main.TempMax, s.Main.Temp); ok {
			maxTemp = math.Max(maxTemp, v)
		}
	}
	if math.IsInf(minTemp, 0) {
		minTemp = 0
	}
	if math.IsInf(maxTemp, 0) {
		maxTemp = 0
	}

	f := &Forecast{
		Date:        date,
		City:        displayName,
		Main:        "N/A",
		Description: "N/A",
		TempMax:     round1(maxTemp),
		TempMin:     round1(minTemp),
	}
	if len(rep.Weather) > 0 {
		f.Main = rep.Weather[0].Main
		f.Description = rep.Weather[0].Description
		f.Icon = rep.Weather[0].Icon
	}
	return f, nil
}

func slotTime(dtTxt string) string {
	if _, t, ok := strings.Cut(dtTxt, " "); ok {
		return t
	}
	return ""
}

func firstOf(vals ...*float64) (float64, bool) {
	for _, v := range vals {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// rawString reads a JSON value that may be either a string or a number.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
