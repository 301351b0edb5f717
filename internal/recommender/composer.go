package recommender

import (
	"sort"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

// Compose picks one garment per category and orders the picks from the
// innermost to the outermost layer. Neither argument is modified.
func Compose(eligible []models.Garment, categories models.CategoryModel) (models.Outfit, error) {
	ordered := sortedCategories(categories)
	if err := validateCategoryModel(ordered); err != nil {
		return models.Outfit{}, err
	}

	groups := make(map[int64][]models.Garment)
	for _, g := range eligible {
		if _, ok := categories[g.CategoryID]; !ok {
			continue
		}
		groups[g.CategoryID] = append(groups[g.CategoryID], g)
	}

	var picks []pick
	for _, c := range ordered {
		group := groups[c.ID]
		if len(group) == 0 {
			if c.Mandatory {
				return models.Outfit{}, &MissingLayerError{CategoryID: c.ID, CategoryName: c.Name}
			}
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return preferred(group[i], group[j])
		})
		picks = append(picks, pick{category: c, garment: group[0]})
	}

	picks = resolveSiblings(picks)

	items := make([]models.OutfitItem, 0, len(picks))
	for _, p := range picks {
		items = append(items, models.OutfitItem{
			Garment:      p.garment,
			CategoryID:   p.category.ID,
			CategoryName: p.category.Name,
			LayerOrder:   p.category.LayerOrder,
		})
	}
	return models.Outfit{Items: items, Source: models.SourceRuleBased}, nil
}

type pick struct {
	category models.ClothCategory
	garment  models.Garment
}

// preferred is the composite selection key: favorites first, then the least
// worn, then the lowest id.
func preferred(a, b models.Garment) bool {
	if a.IsFavorite != b.IsFavorite {
		return a.IsFavorite
	}
	if a.WearCount != b.WearCount {
		return a.WearCount < b.WearCount
	}
	return a.ID < b.ID
}

func sortedCategories(categories models.CategoryModel) []models.ClothCategory {
	ordered := make([]models.ClothCategory, 0, len(categories))
	for _, c := range categories {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].LayerOrder != ordered[j].LayerOrder {
			return ordered[i].LayerOrder < ordered[j].LayerOrder
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// ValidateCategoryModel reports two mandatory non-stackable categories that
// share a layer order.
func ValidateCategoryModel(categories models.CategoryModel) error {
	return validateCategoryModel(sortedCategories(categories))
}

// validateCategoryModel expects categories sorted by layer order.
func validateCategoryModel(ordered []models.ClothCategory) error {
	var prev *models.ClothCategory
	for i := range ordered {
		c := &ordered[i]
		if !c.Mandatory || c.Stackable {
			continue
		}
		if prev != nil && prev.LayerOrder == c.LayerOrder {
			return &InconsistentCategoryModelError{
				LayerOrder: c.LayerOrder,
				First:      prev.Name,
				Second:     c.Name,
			}
		}
		prev = c
	}
	return nil
}

// resolveSiblings keeps at most one non-stackable pick per layer order. A
// mandatory category beats optional siblings; among optional siblings the
// better garment wins. Stackable picks are always kept. picks must be sorted
// by layer order.
func resolveSiblings(picks []pick) []pick {
	out := make([]pick, 0, len(picks))
	for start := 0; start < len(picks); {
		end := start
		for end < len(picks) && picks[end].category.LayerOrder == picks[start].category.LayerOrder {
			end++
		}

		winner := -1
		for i := start; i < end; i++ {
			p := picks[i]
			if p.category.Stackable {
				continue
			}
			if winner < 0 || beats(p, picks[winner]) {
				winner = i
			}
		}
		for i := start; i < end; i++ {
			if picks[i].category.Stackable || i == winner {
				out = append(out, picks[i])
			}
		}
		start = end
	}
	return out
}

func beats(a, b pick) bool {
	if a.category.Mandatory != b.category.Mandatory {
		return a.category.Mandatory
	}
	return preferred(a.garment, b.garment)
}
