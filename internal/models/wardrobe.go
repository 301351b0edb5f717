package models

import (
	"time"
)

type TemperatureRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Contains reports whether t lies inside the range; absent bounds are unbounded.
func (r TemperatureRange) Contains(t int) bool {
	if r.Min != nil && *r.Min > t {
		return false
	}
	if r.Max != nil && *r.Max < t {
		return false
	}
	return true
}

type Garment struct {
	ID               int64             `json:"id"`
	UserID           int64             `json:"user_id"`
	CategoryID       int64             `json:"category_id"`
	Name             string            `json:"name"`
	Brand            string            `json:"brand,omitempty"`
	Color            string            `json:"color,omitempty"`
	TemperatureRange TemperatureRange  `json:"temperature_range"`
	WeatherTags      []WeatherCategory `json:"weather_tags"`
	IsActive         bool              `json:"is_active"`
	IsFavorite       bool              `json:"is_favorite"`
	WearCount        int               `json:"wear_count"`
	LastWornAt       *time.Time        `json:"last_worn_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// HasTag reports whether the garment is tagged for the category. Untagged
// garments are weather-agnostic and match everything.
func (g Garment) HasTag(c WeatherCategory) bool {
	if len(g.WeatherTags) == 0 {
		return true
	}
	for _, tag := range g.WeatherTags {
		if tag == c {
			return true
		}
	}
	return false
}

// ClothCategory is a layer classification. ParentID is informational only.
type ClothCategory struct {
	ID         int64  `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	ParentID   *int64 `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	LayerOrder int    `json:"layer_order" yaml:"layer_order"`
	Mandatory  bool   `json:"mandatory" yaml:"mandatory"`
	Stackable  bool   `json:"stackable" yaml:"stackable"`
	Icon       string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// CategoryModel is the flattened category lookup keyed by category id.
type CategoryModel map[int64]ClothCategory

func NewCategoryModel(categories []ClothCategory) CategoryModel {
	m := make(CategoryModel, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}

type OutfitSource string

const (
	SourceRuleBased OutfitSource = "rule_based"
	SourceManual    OutfitSource = "manual"
)

type OutfitItem struct {
	Garment      Garment `json:"garment"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	LayerOrder   int     `json:"layer_order"`
}

// Outfit lists garments from the innermost to the outermost layer.
type Outfit struct {
	ID              int64            `json:"id,omitempty"`
	UserID          int64            `json:"user_id,omitempty"`
	Name            string           `json:"name,omitempty"`
	Items           []OutfitItem     `json:"items"`
	ComfortBand     ComfortBand      `json:"comfort_band,omitempty"`
	WeatherCategory WeatherCategory  `json:"weather_category,omitempty"`
	Temperature     *int             `json:"temperature,omitempty"`
	Range           TemperatureRange `json:"temperature_range"`
	Source          OutfitSource     `json:"source"`
	WeatherRelaxed  bool             `json:"weather_relaxed"`
	CreatedAt       time.Time        `json:"created_at,omitempty"`
}

// CommonRange narrows the outfit's range to the temperatures every item
// tolerates.
func (o Outfit) CommonRange() TemperatureRange {
	var r TemperatureRange
	for _, item := range o.Items {
		tr := item.Garment.TemperatureRange
		if tr.Min != nil && (r.Min == nil || *tr.Min > *r.Min) {
			v := *tr.Min
			r.Min = &v
		}
		if tr.Max != nil && (r.Max == nil || *tr.Max < *r.Max) {
			v := *tr.Max
			r.Max = &v
		}
	}
	return r
}

// OutfitFilter selects saved outfits; nil fields match everything.
type OutfitFilter struct {
	WeatherCategory *WeatherCategory
	Temperature     *int
}

func (f OutfitFilter) Matches(o Outfit) bool {
	if f.WeatherCategory != nil && o.WeatherCategory != *f.WeatherCategory {
		return false
	}
	if f.Temperature != nil && !o.Range.Contains(*f.Temperature) {
		return false
	}
	return true
}

func (o Outfit) GarmentIDs() []int64 {
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.Garment.ID)
	}
	return ids
}
