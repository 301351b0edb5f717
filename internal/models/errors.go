package models

import "errors"

var (
	ErrGarmentNotFound  = errors.New("garment not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidGarment   = errors.New("invalid garment")
	ErrInvalidOutfit    = errors.New("invalid outfit")
)
