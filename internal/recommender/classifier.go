package recommender

import (
	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

type bandThreshold struct {
	min  int
	band models.ComfortBand
}

// Ordered from warmest to coldest; the first threshold not above the
// temperature wins.
var comfortBands = []bandThreshold{
	{28, models.BandVeryHot},
	{23, models.BandHot},
	{20, models.BandWarm},
	{17, models.BandMild},
	{12, models.BandCool},
	{9, models.BandChilly},
	{5, models.BandCold},
}

// WMOCondition describes one WMO weather interpretation code.
type WMOCondition struct {
	Category    models.WeatherCategory
	Summary     string
	Description string
	DayIcon     string
	NightIcon   string
}

var wmoConditions = map[int]WMOCondition{
	0:  {models.WeatherClear, "Clear", "Clear sky", "01d", "01n"},
	1:  {models.WeatherClear, "Clouds", "Mainly clear", "02d", "02n"},
	2:  {models.WeatherCloudy, "Clouds", "Partly cloudy", "03d", "03n"},
	3:  {models.WeatherCloudy, "Clouds", "Overcast", "04d", "04n"},
	45: {models.WeatherCloudy, "Fog", "Foggy", "50d", "50n"},
	48: {models.WeatherCloudy, "Fog", "Depositing rime fog", "50d", "50n"},
	51: {models.WeatherRainy, "Drizzle", "Light drizzle", "09d", "09n"},
	53: {models.WeatherRainy, "Drizzle", "Moderate drizzle", "09d", "09n"},
	55: {models.WeatherRainy, "Drizzle", "Dense drizzle", "09d", "09n"},
	56: {models.WeatherRainy, "Drizzle", "Light freezing drizzle", "13d", "13n"},
	57: {models.WeatherRainy, "Drizzle", "Dense freezing drizzle", "13d", "13n"},
	61: {models.WeatherRainy, "Rain", "Slight rain", "10d", "10n"},
	63: {models.WeatherRainy, "Rain", "Moderate rain", "10d", "10n"},
	65: {models.WeatherRainy, "Rain", "Heavy rain", "10d", "10n"},
	66: {models.WeatherRainy, "Rain", "Light freezing rain", "13d", "13n"},
	67: {models.WeatherRainy, "Rain", "Heavy freezing rain", "13d", "13n"},
	71: {models.WeatherSnowy, "Snow", "Slight snow fall", "13d", "13n"},
	73: {models.WeatherSnowy, "Snow", "Moderate snow fall", "13d", "13n"},
	75: {models.WeatherSnowy, "Snow", "Heavy snow fall", "13d", "13n"},
	77: {models.WeatherSnowy, "Snow", "Snow grains", "13d", "13n"},
	80: {models.WeatherRainy, "Rain", "Slight rain showers", "09d", "09n"},
	81: {models.WeatherRainy, "Rain", "Moderate rain showers", "09d", "09n"},
	82: {models.WeatherRainy, "Rain", "Violent rain showers", "09d", "09n"},
	85: {models.WeatherSnowy, "Snow", "Slight snow showers", "13d", "13n"},
	86: {models.WeatherSnowy, "Snow", "Heavy snow showers", "13d", "13n"},
	95: {models.WeatherRainy, "Thunderstorm", "Thunderstorm", "11d", "11n"},
	96: {models.WeatherRainy, "Thunderstorm", "Thunderstorm with slight hail", "11d", "11n"},
	99: {models.WeatherRainy, "Thunderstorm", "Thunderstorm with heavy hail", "11d", "11n"},
}

// OpenWeatherMap condition ids. Descriptions come with the provider payload,
// so only the category is tabled here.
var owmCategories = map[int]models.WeatherCategory{
	200: models.WeatherRainy, 201: models.WeatherRainy, 202: models.WeatherRainy,
	210: models.WeatherRainy, 211: models.WeatherRainy, 212: models.WeatherRainy,
	221: models.WeatherRainy, 230: models.WeatherRainy, 231: models.WeatherRainy,
	232: models.WeatherRainy,

	300: models.WeatherRainy, 301: models.WeatherRainy, 302: models.WeatherRainy,
	310: models.WeatherRainy, 311: models.WeatherRainy, 312: models.WeatherRainy,
	313: models.WeatherRainy, 314: models.WeatherRainy, 321: models.WeatherRainy,

	500: models.WeatherRainy, 501: models.WeatherRainy, 502: models.WeatherRainy,
	503: models.WeatherRainy, 504: models.WeatherRainy, 511: models.WeatherRainy,
	520: models.WeatherRainy, 521: models.WeatherRainy, 522: models.WeatherRainy,
	531: models.WeatherRainy,

	600: models.WeatherSnowy, 601: models.WeatherSnowy, 602: models.WeatherSnowy,
	611: models.WeatherSnowy, 612: models.WeatherSnowy, 613: models.WeatherSnowy,
	615: models.WeatherSnowy, 616: models.WeatherSnowy, 620: models.WeatherSnowy,
	621: models.WeatherSnowy, 622: models.WeatherSnowy,

	701: models.WeatherCloudy, 711: models.WeatherCloudy, 721: models.WeatherCloudy,
	731: models.WeatherCloudy, 741: models.WeatherCloudy, 751: models.WeatherCloudy,
	761: models.WeatherCloudy, 762: models.WeatherCloudy,
	771: models.WeatherWindy, 781: models.WeatherWindy,

	800: models.WeatherClear, 801: models.WeatherClear,
	802: models.WeatherCloudy, 803: models.WeatherCloudy, 804: models.WeatherCloudy,
}

// Classify maps an observation to its weather category and comfort band.
// It never fails: unknown codes and sources fall back to CLEAR.
func Classify(obs models.WeatherObservation) (models.WeatherCategory, models.ComfortBand) {
	return CategoryFor(obs.Source, obs.ConditionCode), ComfortBandFor(obs.TemperatureCelsius)
}

func ComfortBandFor(temperature int) models.ComfortBand {
	for _, t := range comfortBands {
		if temperature >= t.min {
			return t.band
		}
	}
	return models.BandVeryCold
}

// CategoryFor looks the code up in the table for source. An empty source is
// treated as WMO.
func CategoryFor(source string, code int) models.WeatherCategory {
	if source == models.SourceOpenWeather {
		if c, ok := owmCategories[code]; ok {
			return c
		}
		return models.WeatherClear
	}
	if c, ok := wmoConditions[code]; ok {
		return c.Category
	}
	return models.WeatherClear
}

// DescribeWMO returns the summary, description and icon for a WMO code.
// Unknown codes are described as clear sky.
func DescribeWMO(code int, isDay bool) (summary, description, icon string) {
	c, ok := wmoConditions[code]
	if !ok {
		c = wmoConditions[0]
	}
	icon = c.NightIcon
	if isDay {
		icon = c.DayIcon
	}
	return c.Summary, c.Description, icon
}
