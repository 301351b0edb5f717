package models

import (
	"time"
)

// Provider code tables understood by the classifier.
const (
	SourceOpenMeteo   = "open-meteo"
	SourceOpenWeather = "openweathermap"
)

type WeatherCategory string

const (
	WeatherClear  WeatherCategory = "CLEAR"
	WeatherCloudy WeatherCategory = "CLOUDY"
	WeatherRainy  WeatherCategory = "RAINY"
	WeatherSnowy  WeatherCategory = "SNOWY"
	WeatherWindy  WeatherCategory = "WINDY"
)

// ParseWeatherCategory accepts the upper case names plus the lower case tags
// stored with garments ("sunny" is an alias of CLEAR).
func ParseWeatherCategory(s string) (WeatherCategory, bool) {
	switch s {
	case "CLEAR", "clear", "sunny", "SUNNY":
		return WeatherClear, true
	case "CLOUDY", "cloudy":
		return WeatherCloudy, true
	case "RAINY", "rainy":
		return WeatherRainy, true
	case "SNOWY", "snowy":
		return WeatherSnowy, true
	case "WINDY", "windy":
		return WeatherWindy, true
	}
	return "", false
}

type ComfortBand string

const (
	BandVeryHot  ComfortBand = "VERY_HOT"
	BandHot      ComfortBand = "HOT"
	BandWarm     ComfortBand = "WARM"
	BandMild     ComfortBand = "MILD"
	BandCool     ComfortBand = "COOL"
	BandChilly   ComfortBand = "CHILLY"
	BandCold     ComfortBand = "COLD"
	BandVeryCold ComfortBand = "VERY_COLD"
)

// WeatherObservation is a single current-conditions reading. Only
// TemperatureCelsius, ConditionCode, IsDaytime and Source drive recommendations.
type WeatherObservation struct {
	TemperatureCelsius int       `json:"temperature"`
	FeelsLikeCelsius   int       `json:"feels_like"`
	ConditionCode      int       `json:"condition_code"`
	IsDaytime          bool      `json:"is_daytime"`
	Source             string    `json:"source"`
	WindSpeed          float64   `json:"wind_speed"`
	Summary            string    `json:"summary,omitempty"`
	Description        string    `json:"description,omitempty"`
	Icon               string    `json:"icon,omitempty"`
	City               string    `json:"city,omitempty"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	ObservedAt         time.Time `json:"observed_at"`
}

type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherReport is the API view of an observation after classification.
type WeatherReport struct {
	WeatherObservation
	Category    WeatherCategory `json:"weather_type"`
	ComfortBand ComfortBand     `json:"temperature_level"`
}
