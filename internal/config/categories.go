package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
	"github.com/bobby-s-dev/wardrobe-advisor/internal/recommender"
)

//go:embed categories.yaml
var defaultCategories []byte

type categoryFile struct {
	Categories []models.ClothCategory `yaml:"categories"`
}

// LoadCategories reads the layer model from path, or the embedded default
// when path is empty.
func LoadCategories(path string) ([]models.ClothCategory, error) {
	data := defaultCategories
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read categories file: %w", err)
		}
		data = raw
	}
	return ParseCategories(data)
}

func ParseCategories(data []byte) ([]models.ClothCategory, error) {
	var file categoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("parse categories: no categories defined")
	}

	seen := make(map[int64]bool, len(file.Categories))
	for _, c := range file.Categories {
		if c.ID <= 0 {
			return nil, fmt.Errorf("parse categories: %q has invalid id %d", c.Name, c.ID)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("parse categories: category %d has no name", c.ID)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("parse categories: duplicate id %d", c.ID)
		}
		seen[c.ID] = true
	}
	for _, c := range file.Categories {
		if c.ParentID != nil && !seen[*c.ParentID] {
			return nil, fmt.Errorf("parse categories: %q references unknown parent %d", c.Name, *c.ParentID)
		}
	}
	if err := recommender.ValidateCategoryModel(models.NewCategoryModel(file.Categories)); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	return file.Categories, nil
}
