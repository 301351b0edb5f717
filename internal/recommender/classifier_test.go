package recommender

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

func TestComfortBandBoundaries(t *testing.T) {
	cases := []struct {
		temp int
		want models.ComfortBand
	}{
		{50, models.BandVeryHot},
		{28, models.BandVeryHot},
		{27, models.BandHot},
		{23, models.BandHot},
		{22, models.BandWarm},
		{20, models.BandWarm},
		{19, models.BandMild},
		{17, models.BandMild},
		{16, models.BandCool},
		{12, models.BandCool},
		{11, models.BandChilly},
		{9, models.BandChilly},
		{8, models.BandCold},
		{5, models.BandCold},
		{4, models.BandVeryCold},
		{-40, models.BandVeryCold},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ComfortBandFor(tc.temp), "temperature %d", tc.temp)
	}
}

func TestComfortBandMonotonic(t *testing.T) {
	severity := map[models.ComfortBand]int{
		models.BandVeryHot:  0,
		models.BandHot:      1,
		models.BandWarm:     2,
		models.BandMild:     3,
		models.BandCool:     4,
		models.BandChilly:   5,
		models.BandCold:     6,
		models.BandVeryCold: 7,
	}
	prev := -1
	for temp := 60; temp >= -60; temp-- {
		s, ok := severity[ComfortBandFor(temp)]
		require.True(t, ok)
		require.GreaterOrEqual(t, s, prev, "temperature %d", temp)
		prev = s
	}
}

func TestCategoryForWMO(t *testing.T) {
	cases := map[int]models.WeatherCategory{
		0:  models.WeatherClear,
		1:  models.WeatherClear,
		2:  models.WeatherCloudy,
		3:  models.WeatherCloudy,
		45: models.WeatherCloudy,
		48: models.WeatherCloudy,
		51: models.WeatherRainy,
		57: models.WeatherRainy,
		61: models.WeatherRainy,
		67: models.WeatherRainy,
		71: models.WeatherSnowy,
		77: models.WeatherSnowy,
		80: models.WeatherRainy,
		82: models.WeatherRainy,
		85: models.WeatherSnowy,
		86: models.WeatherSnowy,
		95: models.WeatherRainy,
		99: models.WeatherRainy,
	}
	for code, want := range cases {
		require.Equal(t, want, CategoryFor(models.SourceOpenMeteo, code), "code %d", code)
		require.Equal(t, want, CategoryFor("", code), "code %d without source", code)
	}
}

func TestCategoryForOpenWeather(t *testing.T) {
	cases := map[int]models.WeatherCategory{
		211: models.WeatherRainy,
		301: models.WeatherRainy,
		502: models.WeatherRainy,
		601: models.WeatherSnowy,
		741: models.WeatherCloudy,
		771: models.WeatherWindy,
		781: models.WeatherWindy,
		800: models.WeatherClear,
		801: models.WeatherClear,
		804: models.WeatherCloudy,
	}
	for code, want := range cases {
		require.Equal(t, want, CategoryFor(models.SourceOpenWeather, code), "code %d", code)
	}
}

func TestUnknownCodesDefaultToClear(t *testing.T) {
	for _, code := range []int{-1, 4, 44, 50, 100, 999, 1 << 20} {
		cat, _ := Classify(models.WeatherObservation{ConditionCode: code, Source: models.SourceOpenMeteo})
		require.Equal(t, models.WeatherClear, cat, "code %d", code)
	}
	cat, _ := Classify(models.WeatherObservation{ConditionCode: 999, Source: models.SourceOpenWeather})
	require.Equal(t, models.WeatherClear, cat)

	cat, _ = Classify(models.WeatherObservation{ConditionCode: 61, Source: "some-other-provider"})
	require.Equal(t, models.WeatherRainy, cat)
}

func TestDescribeWMO(t *testing.T) {
	summary, desc, icon := DescribeWMO(0, true)
	require.Equal(t, "Clear", summary)
	require.Equal(t, "Clear sky", desc)
	require.Equal(t, "01d", icon)

	_, _, icon = DescribeWMO(0, false)
	require.Equal(t, "01n", icon)

	summary, desc, _ = DescribeWMO(61, true)
	require.Equal(t, "Rain", summary)
	require.Equal(t, "Slight rain", desc)

	_, desc, _ = DescribeWMO(12345, true)
	require.Equal(t, "Clear sky", desc)
}
