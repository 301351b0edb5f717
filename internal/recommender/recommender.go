// Package recommender turns a weather observation and a wardrobe into an
// outfit. Everything here is pure: no I/O, no shared state, safe to call
// concurrently.
package recommender

import (
	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

// Recommend classifies the observation, filters the wardrobe and composes an
// outfit. When no garment matches the weather tags the filter is retried once
// on temperature alone. Failures are one of ErrNoSuitableGarments,
// *MissingLayerError or *InconsistentCategoryModelError.
func Recommend(obs models.WeatherObservation, garments []models.Garment, categories models.CategoryModel) (models.Outfit, error) {
	category, band := Classify(obs)

	relaxed := false
	eligible := FilterEligible(garments, obs.TemperatureCelsius, category)
	if len(eligible) == 0 {
		relaxed = true
		eligible = FilterByTemperature(garments, obs.TemperatureCelsius)
	}
	if len(eligible) == 0 {
		return models.Outfit{}, ErrNoSuitableGarments
	}

	outfit, err := Compose(eligible, categories)
	if err != nil {
		return models.Outfit{}, err
	}
	if len(outfit.Items) == 0 {
		return models.Outfit{}, ErrNoSuitableGarments
	}

	temperature := obs.TemperatureCelsius
	outfit.ComfortBand = band
	outfit.WeatherCategory = category
	outfit.Temperature = &temperature
	outfit.Range = outfit.CommonRange()
	outfit.WeatherRelaxed = relaxed
	return outfit, nil
}
