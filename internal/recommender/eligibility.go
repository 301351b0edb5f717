package recommender

import (
	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

// FilterEligible returns the active garments whose temperature range covers
// temperature and whose weather tags admit category. The input is not modified.
func FilterEligible(garments []models.Garment, temperature int, category models.WeatherCategory) []models.Garment {
	return filter(garments, func(g models.Garment) bool {
		return g.TemperatureRange.Contains(temperature) && g.HasTag(category)
	})
}

// FilterByTemperature is FilterEligible without the weather tag check.
func FilterByTemperature(garments []models.Garment, temperature int) []models.Garment {
	return filter(garments, func(g models.Garment) bool {
		return g.TemperatureRange.Contains(temperature)
	})
}

func filter(garments []models.Garment, keep func(models.Garment) bool) []models.Garment {
	eligible := make([]models.Garment, 0, len(garments))
	for _, g := range garments {
		if !g.IsActive || !keep(g) {
			continue
		}
		eligible = append(eligible, g)
	}
	return eligible
}
