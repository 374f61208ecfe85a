package tools

import "errors"

// ErrUnsupportedCity is returned when a city has no known coordinates.
var ErrUnsupportedCity = errors.New("unsupported city")

// Coordinates locate a supported city for the forecast API.
type Coordinates struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// cityLocations maps the short "City, AU" keys to the location strings
// SerpApi resolves reliably.
var cityLocations = map[string]string{
	"Sydney, AU":    "Sydney, New South Wales, Australia",
	"Melbourne, AU": "Melbourne, Victoria, Australia",
	"Brisbane, AU":  "Brisbane, Queensland, Australia",
	"Perth, AU":     "Perth, Western Australia, Australia",
	"Adelaide, AU":  "Adelaide, South Australia, Australia",
}

var cityCoordinates = map[string]Coordinates{
	"Sydney, AU":    {Lat: -33.8688, Lon: 151.2093, DisplayName: "Sydney"},
	"Melbourne, AU": {Lat: -37.8136, Lon: 144.9631, DisplayName: "Melbourne"},
	"Brisbane, AU":  {Lat: -27.4698, Lon: 153.0251, DisplayName: "Brisbane"},
	"Perth, AU":     {Lat: -31.9505, Lon: 115.8605, DisplayName: "Perth"},
	"Adelaide, AU":  {Lat: -34.9285, Lon: 138.6007, DisplayName: "Adelaide"},
}

// EventLocation returns the SerpApi location string for city, falling back
// to the input unchanged.
func EventLocation(city string) string {
	if loc, ok := cityLocations[city]; ok {
		return loc
	}
	return city
}

// LookupCoordinates returns the coordinates of a supported city.
func LookupCoordinates(city string) (Coordinates, error) {
	c, ok := cityCoordinates[city]
	if !ok {
		return Coordinates{}, ErrUnsupportedCity
	}
	return c, nil
}

// SupportedCities lists the city keys accepted by both tools.
func SupportedCities() []string {
	return []string{"Sydney, AU", "Melbourne, AU", "Brisbane, AU", "Perth, AU", "Adelaide, AU"}
}
