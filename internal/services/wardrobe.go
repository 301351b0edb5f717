package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/recommender"
)

// WardrobeStore persists garments, categories and saved outfits.
type WardrobeStore interface {
	ListCategories(ctx context.Context) ([]models.ClothCategory, error)
	ListActiveGarments(ctx context.Context, userID int64) ([]models.Garment, error)
	ListGarments(ctx context.Context, userID int64, activeOnly bool) ([]models.Garment, error)
	GetGarments(ctx context.Context, userID int64, garmentIDs []int64) ([]models.Garment, error)
	CreateGarment(ctx context.Context, garment models.Garment) (models.Garment, error)
	SetGarmentActive(ctx context.Context, userID, garmentID int64, active bool) (models.Garment, error)
	RecordWear(ctx context.Context, userID int64, garmentIDs []int64, at time.Time) error
	SaveOutfit(ctx context.Context, outfit models.Outfit, wornAt *time.Time) (models.Outfit, error)
	ListOutfits(ctx context.Context, userID int64, filter models.OutfitFilter) ([]models.Outfit, error)
}

// WeatherSource is the observation lookup the wardrobe service depends on.
type WeatherSource interface {
	CurrentByCoordinates(ctx context.Context, lat, lon float64) (*models.WeatherObservation, error)
	CurrentByCity(ctx context.Context, city string) (*models.WeatherObservation, error)
}

// OutfitCache memoises composed outfits per user. Entries are dropped
// whenever the user's wardrobe changes.
type OutfitCache interface {
	GetOutfit(ctx context.Context, userID int64, key string) (*models.Outfit, bool, error)
	SetOutfit(ctx context.Context, userID int64, key string, outfit models.Outfit) error
	ClearUserOutfits(ctx context.Context, userID int64) error
}

// LocationQuery names a place by city or by coordinates.
type LocationQuery struct {
	City      string
	Latitude  *float64
	Longitude *float64
}

type Recommendation struct {
	Weather models.WeatherReport `json:"weather"`
	Outfit  models.Outfit        `json:"outfit"`
}

type SaveOutfitRequest struct {
	Name            string                   `json:"name"`
	GarmentIDs      []int64                  `json:"garment_ids"`
	WeatherCategory models.WeatherCategory   `json:"weather_category"`
	Temperature     *int                     `json:"temperature,omitempty"`
	Range           *models.TemperatureRange `json:"temperature_range,omitempty"`
	Source          models.OutfitSource      `json:"source"`
	Worn            bool                     `json:"worn"`
}

type WardrobeService struct {
	store   WardrobeStore
	weather WeatherSource
	outfits OutfitCache
	logger  *zap.Logger
	now     func() time.Time
}

func NewWardrobeService(store WardrobeStore, weather WeatherSource, outfits OutfitCache, logger *zap.Logger) *WardrobeService {
	return &WardrobeService{
		store:   store,
		weather: weather,
		outfits: outfits,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *WardrobeService) Categories(ctx context.Context) (models.CategoryModel, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return models.NewCategoryModel(categories), nil
}

// Recommend fetches the current weather for the location and composes an
// outfit from the user's active garments. Nothing is persisted.
func (s *WardrobeService) Recommend(ctx context.Context, userID int64, loc LocationQuery) (*Recommendation, error) {
	obs, err := s.observe(ctx, loc)
	if err != nil {
		return nil, err
	}

	category, band := recommender.Classify(*obs)
	report := models.WeatherReport{
		WeatherObservation: *obs,
		Category:           category,
		ComfortBand:        band,
	}

	cacheKey := outfitCacheKey(*obs)
	if outfit, ok := s.cachedOutfit(ctx, userID, cacheKey); ok {
		return &Recommendation{Weather: report, Outfit: *outfit}, nil
	}

	garments, err := s.store.ListActiveGarments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load garments: %w", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}

	outfit, err := recommender.Recommend(*obs, garments, categories)
	if err != nil {
		s.logRecommendFailure(userID, obs, err)
		return nil, err
	}
	outfit.UserID = userID

	if s.outfits != nil {
		if err := s.outfits.SetOutfit(ctx, userID, cacheKey, outfit); err != nil {
			s.logger.Warn("Outfit cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	s.logger.Info("Outfit recommended",
		zap.Int64("user_id", userID),
		zap.Int("temperature", obs.TemperatureCelsius),
		zap.String("weather", string(category)),
		zap.String("band", string(band)),
		zap.Int("items", len(outfit.Items)),
		zap.Bool("weather_relaxed", outfit.WeatherRelaxed))

	return &Recommendation{Weather: report, Outfit: outfit}, nil
}

func (s *WardrobeService) observe(ctx context.Context, loc LocationQuery) (*models.WeatherObservation, error) {
	if city := strings.TrimSpace(loc.City); city != "" {
		return s.weather.CurrentByCity(ctx, city)
	}
	if loc.Latitude == nil || loc.Longitude == nil {
		return nil, fmt.Errorf("%w: city or coordinates required", ErrLocationNotFound)
	}
	return s.weather.CurrentByCoordinates(ctx, *loc.Latitude, *loc.Longitude)
}

func (s *WardrobeService) logRecommendFailure(userID int64, obs *models.WeatherObservation, err error) {
	fields := []zap.Field{
		zap.Int64("user_id", userID),
		zap.Int("temperature", obs.TemperatureCelsius),
		zap.String("reason", recommender.Reason(err)),
		zap.Error(err),
	}
	if errors.Is(err, recommender.ErrInconsistentCategoryModel) {
		s.logger.Error("Category model is inconsistent", fields...)
		return
	}
	s.logger.Info("No outfit could be composed", fields...)
}

func (s *WardrobeService) cachedOutfit(ctx context.Context, userID int64, key string) (*models.Outfit, bool) {
	if s.outfits == nil {
		return nil, false
	}
	outfit, ok, err := s.outfits.GetOutfit(ctx, userID, key)
	if err != nil {
		s.logger.Warn("Outfit cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, false
	}
	if ok {
		s.logger.Debug("Cache hit for outfit", zap.Int64("user_id", userID), zap.String("key", key))
	}
	return outfit, ok
}

// outfitCacheKey covers every observation field the recommendation reads.
func outfitCacheKey(obs models.WeatherObservation) string {
	return fmt.Sprintf("%s:%d:%d", obs.Source, obs.ConditionCode, obs.TemperatureCelsius)
}

func (s *WardrobeService) invalidate(ctx context.Context, userID int64) {
	if s.outfits == nil {
		return
	}
	if err := s.outfits.ClearUserOutfits(ctx, userID); err != nil {
		s.logger.Warn("Outfit cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *WardrobeService) ListGarments(ctx context.Context, userID int64, activeOnly bool) ([]models.Garment, error) {
	return s.store.ListGarments(ctx, userID, activeOnly)
}

func (s *WardrobeService) AddGarment(ctx context.Context, userID int64, garment models.Garment) (models.Garment, error) {
	garment.UserID = userID
	garment.Name = strings.TrimSpace(garment.Name)
	if garment.Name == "" {
		return models.Garment{}, fmt.Errorf("%w: name is required", models.ErrInvalidGarment)
	}
	r := garment.TemperatureRange
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return models.Garment{}, fmt.Errorf("%w: temperature range min %d exceeds max %d", models.ErrInvalidGarment, *r.Min, *r.Max)
	}

	categories, err := s.Categories(ctx)
	if err != nil {
		return models.Garment{}, err
	}
	if _, ok := categories[garment.CategoryID]; !ok {
		return models.Garment{}, fmt.Errorf("%w: %d", models.ErrCategoryNotFound, garment.CategoryID)
	}

	garment.IsActive = true
	garment.WearCount = 0
	garment.LastWornAt = nil

	created, err := s.store.CreateGarment(ctx, garment)
	if err != nil {
		return models.Garment{}, fmt.Errorf("failed to create garment: %w", err)
	}
	s.invalidate(ctx, userID)
	return created, nil
}

func (s *WardrobeService) SetGarmentActive(ctx context.Context, userID, garmentID int64, active bool) (models.Garment, error) {
	garment, err := s.store.SetGarmentActive(ctx, userID, garmentID, active)
	if err != nil {
		return models.Garment{}, err
	}
	s.invalidate(ctx, userID)
	return garment, nil
}

// RecordWear increments the wear count of each garment and stamps it as
// worn now.
func (s *WardrobeService) RecordWear(ctx context.Context, userID int64, garmentIDs []int64) error {
	if len(garmentIDs) == 0 {
		return nil
	}
	if err := s.store.RecordWear(ctx, userID, dedupe(garmentIDs), s.now().UTC()); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// SaveOutfit stores an outfit assembled from the user's garments. When the
// request is marked worn the garments' wear history is updated in the same
// write.
func (s *WardrobeService) SaveOutfit(ctx context.Context, userID int64, req SaveOutfitRequest) (models.Outfit, error) {
	ids := dedupe(req.GarmentIDs)
	if len(ids) == 0 {
		return models.Outfit{}, fmt.Errorf("%w: at least one garment is required", models.ErrInvalidOutfit)
	}
	if req.WeatherCategory != "" {
		if _, ok := models.ParseWeatherCategory(string(req.WeatherCategory)); !ok {
			return models.Outfit{}, fmt.Errorf("%w: unknown weather category %q", models.ErrInvalidOutfit, req.WeatherCategory)
		}
	}

	garments, err := s.store.GetGarments(ctx, userID, ids)
	if err != nil {
		return models.Outfit{}, err
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return models.Outfit{}, err
	}

	outfit := models.Outfit{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Temperature: req.Temperature,
		Source:      req.Source,
	}
	if req.WeatherCategory != "" {
		outfit.WeatherCategory, _ = models.ParseWeatherCategory(string(req.WeatherCategory))
	}
	if outfit.Source == "" {
		outfit.Source = models.SourceManual
	}
	if req.Temperature != nil {
		outfit.ComfortBand = recommender.ComfortBandFor(*req.Temperature)
	}

	for _, g := range garments {
		c, ok := categories[g.CategoryID]
		if !ok {
			return models.Outfit{}, fmt.Errorf("%w: garment %d has unknown category %d", models.ErrInvalidOutfit, g.ID, g.CategoryID)
		}
		outfit.Items = append(outfit.Items, models.OutfitItem{
			Garment:      g,
			CategoryID:   c.ID,
			CategoryName: c.Name,
			LayerOrder:   c.LayerOrder,
		})
	}
	sortItems(outfit.Items)

	if req.Range != nil {
		outfit.Range = *req.Range
	} else {
		outfit.Range = outfit.CommonRange()
	}

	var wornAt *time.Time
	if req.Worn {
		t := s.now().UTC()
		wornAt = &t
	}

	saved, err := s.store.SaveOutfit(ctx, outfit, wornAt)
	if err != nil {
		return models.Outfit{}, fmt.Errorf("failed to save outfit: %w", err)
	}
	if req.Worn {
		s.invalidate(ctx, userID)
	}

	s.logger.Info("Outfit saved",
		zap.Int64("user_id", userID),
		zap.Int64("outfit_id", saved.ID),
		zap.Int("items", len(saved.Items)),
		zap.Bool("worn", req.Worn))
	return saved, nil
}

func (s *WardrobeService) ListOutfits(ctx context.Context, userID int64, filter models.OutfitFilter) ([]models.Outfit, error) {
	return s.store.ListOutfits(ctx, userID, filter)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// sortItems orders items innermost layer first, then by garment id.
func sortItems(items []models.OutfitItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].LayerOrder != items[j].LayerOrder {
			return items[i].LayerOrder < items[j].LayerOrder
		}
		return items[i].Garment.ID < items[j].Garment.ID
	})
}
