package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

// MemoryStore keeps the wardrobe in process. It backs tests and runs the
// server when no database is configured.
type MemoryStore struct {
	mu            sync.RWMutex
	categories    map[int64]models.ClothCategory
	garments      map[int64]models.Garment
	outfits       map[int64]models.Outfit
	nextGarmentID int64
	nextOutfitID  int64
	now           func() time.Time
}

func NewMemoryStore(categories []models.ClothCategory) *MemoryStore {
	s := &MemoryStore{
		categories: make(map[int64]models.ClothCategory, len(categories)),
		garments:   make(map[int64]models.Garment),
		outfits:    make(map[int64]models.Outfit),
		now:        time.Now,
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return s
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]models.ClothCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ClothCategory, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListActiveGarments(ctx context.Context, userID int64) ([]models.Garment, error) {
	return s.ListGarments(ctx, userID, true)
}

func (s *MemoryStore) ListGarments(_ context.Context, userID int64, activeOnly bool) ([]models.Garment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Garment, 0)
	for _, g := range s.garments {
		if g.UserID != userID || (activeOnly && !g.IsActive) {
			continue
		}
		out = append(out, cloneGarment(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetGarments(_ context.Context, userID int64, garmentIDs []int64) ([]models.Garment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Garment, 0, len(garmentIDs))
	for _, id := range garmentIDs {
		g, ok := s.garments[id]
		if !ok || g.UserID != userID {
			return nil, fmt.Errorf("%w: %d", models.ErrGarmentNotFound, id)
		}
		out = append(out, cloneGarment(g))
	}
	return out, nil
}

func (s *MemoryStore) CreateGarment(_ context.Context, garment models.Garment) (models.Garment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[garment.CategoryID]; !ok {
		return models.Garment{}, fmt.Errorf("%w: %d", models.ErrCategoryNotFound, garment.CategoryID)
	}

	s.nextGarmentID++
	garment.ID = s.nextGarmentID
	if garment.CreatedAt.IsZero() {
		garment.CreatedAt = s.now().UTC()
	}
	garment = cloneGarment(garment)
	s.garments[garment.ID] = garment
	return cloneGarment(garment), nil
}

func (s *MemoryStore) SetGarmentActive(_ context.Context, userID, garmentID int64, active bool) (models.Garment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.garments[garmentID]
	if !ok || g.UserID != userID {
		return models.Garment{}, fmt.Errorf("%w: %d", models.ErrGarmentNotFound, garmentID)
	}
	g.IsActive = active
	s.garments[garmentID] = g
	return cloneGarment(g), nil
}

func (s *MemoryStore) RecordWear(_ context.Context, userID int64, garmentIDs []int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordWearLocked(userID, garmentIDs, at)
}

// recordWearLocked validates every id before touching any garment so a bad
// id leaves the store unchanged.
func (s *MemoryStore) recordWearLocked(userID int64, garmentIDs []int64, at time.Time) error {
	for _, id := range garmentIDs {
		g, ok := s.garments[id]
		if !ok || g.UserID != userID {
			return fmt.Errorf("%w: %d", models.ErrGarmentNotFound, id)
		}
	}
	for _, id := range garmentIDs {
		g := s.garments[id]
		g.WearCount++
		worn := at
		g.LastWornAt = &worn
		s.garments[id] = g
	}
	return nil
}

func (s *MemoryStore) SaveOutfit(_ context.Context, outfit models.Outfit, wornAt *time.Time) (models.Outfit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outfit = cloneOutfit(outfit)
	ids := outfit.GarmentIDs()
	if wornAt != nil {
		if err := s.recordWearLocked(outfit.UserID, ids, *wornAt); err != nil {
			return models.Outfit{}, err
		}
		for i, item := range outfit.Items {
			outfit.Items[i].Garment = cloneGarment(s.garments[item.Garment.ID])
		}
	} else {
		for _, id := range ids {
			if g, ok := s.garments[id]; !ok || g.UserID != outfit.UserID {
				return models.Outfit{}, fmt.Errorf("%w: %d", models.ErrGarmentNotFound, id)
			}
		}
	}

	s.nextOutfitID++
	outfit.ID = s.nextOutfitID
	if outfit.CreatedAt.IsZero() {
		outfit.CreatedAt = s.now().UTC()
	}
	s.outfits[outfit.ID] = cloneOutfit(outfit)
	return cloneOutfit(outfit), nil
}

func (s *MemoryStore) ListOutfits(_ context.Context, userID int64, filter models.OutfitFilter) ([]models.Outfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Outfit, 0)
	for _, o := range s.outfits {
		if o.UserID != userID || !filter.Matches(o) {
			continue
		}
		out = append(out, cloneOutfit(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func cloneGarment(g models.Garment) models.Garment {
	if g.WeatherTags != nil {
		g.WeatherTags = append([]models.WeatherCategory(nil), g.WeatherTags...)
	}
	if g.LastWornAt != nil {
		t := *g.LastWornAt
		g.LastWornAt = &t
	}
	return g
}

func cloneOutfit(o models.Outfit) models.Outfit {
	items := make([]models.OutfitItem, len(o.Items))
	for i, item := range o.Items {
		item.Garment = cloneGarment(item.Garment)
		items[i] = item
	}
	o.Items = items
	return o
}
