package recommender

import (
	"errors"
	"fmt"
)

// Failure reasons reported to callers.
const (
	ReasonNoSuitableGarments        = "NO_SUITABLE_GARMENTS"
	ReasonMissingLayer              = "MISSING_LAYER"
	ReasonInconsistentCategoryModel = "INCONSISTENT_CATEGORY_MODEL"
)

var (
	ErrNoSuitableGarments        = errors.New(ReasonNoSuitableGarments)
	ErrMissingLayer              = errors.New(ReasonMissingLayer)
	ErrInconsistentCategoryModel = errors.New(ReasonInconsistentCategoryModel)
)

// MissingLayerError names the mandatory category that had no candidate.
type MissingLayerError struct {
	CategoryID   int64
	CategoryName string
}

func (e *MissingLayerError) Error() string {
	return ReasonMissingLayer + ":" + e.CategoryName
}

func (e *MissingLayerError) Is(target error) bool {
	return target == ErrMissingLayer
}

// InconsistentCategoryModelError reports two mandatory, non-stackable
// categories sharing a layer order.
type InconsistentCategoryModelError struct {
	LayerOrder int
	First      string
	Second     string
}

func (e *InconsistentCategoryModelError) Error() string {
	return fmt.Sprintf("%s: categories %q and %q share layer order %d",
		ReasonInconsistentCategoryModel, e.First, e.Second, e.LayerOrder)
}

func (e *InconsistentCategoryModelError) Is(target error) bool {
	return target == ErrInconsistentCategoryModel
}

// Reason maps a recommendation error to its wire reason, e.g. "MISSING_LAYER:top".
// It returns "" for errors that did not come from this package.
func Reason(err error) string {
	var missing *MissingLayerError
	switch {
	case errors.As(err, &missing):
		return missing.Error()
	case errors.Is(err, ErrMissingLayer):
		return ReasonMissingLayer
	case errors.Is(err, ErrInconsistentCategoryModel):
		return ReasonInconsistentCategoryModel
	case errors.Is(err, ErrNoSuitableGarments):
		return ReasonNoSuitableGarments
	}
	return ""
}
