package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bobby-s-dev/wardrobe-advisor/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore persists the wardrobe in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies the schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	sql, err := migrations.ReadFile("migrations/001_create_tables.up.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	return nil
}

// SeedCategories upserts the configured category model.
func (s *PostgresStore) SeedCategories(ctx context.Context, categories []models.ClothCategory) error {
	batch := &pgx.Batch{}
	for _, c := range categories {
		batch.Queue(`
			INSERT INTO cloth_categories (id, name, parent_id, layer_order, mandatory, stackable, icon)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				parent_id = EXCLUDED.parent_id,
				layer_order = EXCLUDED.layer_order,
				mandatory = EXCLUDED.mandatory,
				stackable = EXCLUDED.stackable,
				icon = EXCLUDED.icon
		`, c.ID, c.Name, c.ParentID, c.LayerOrder, c.Mandatory, c.Stackable, c.Icon)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.ClothCategory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, parent_id, layer_order, mandatory, stackable, icon
		FROM cloth_categories
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ClothCategory
	for rows.Next() {
		var c models.ClothCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.LayerOrder, &c.Mandatory, &c.Stackable, &c.Icon); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const garmentColumns = `id, user_id, category_id, name, brand, color, temp_min, temp_max,
	weather_tags, is_active, is_favorite, wear_count, last_worn_at, created_at`

func (s *PostgresStore) ListActiveGarments(ctx context.Context, userID int64) ([]models.Garment, error) {
	return s.ListGarments(ctx, userID, true)
}

func (s *PostgresStore) ListGarments(ctx context.Context, userID int64, activeOnly bool) ([]models.Garment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+garmentColumns+`
		FROM garments
		WHERE user_id = $1 AND ($2 = FALSE OR is_active)
		ORDER BY id
	`, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	return collectGarments(rows)
}

func (s *PostgresStore) GetGarments(ctx context.Context, userID int64, garmentIDs []int64) ([]models.Garment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+garmentColumns+`
		FROM garments
		WHERE user_id = $1 AND id = ANY($2)
	`, userID, garmentIDs)
	if err != nil {
		return nil, err
	}
	garments, err := collectGarments(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Garment, len(garments))
	for _, g := range garments {
		byID[g.ID] = g
	}
	out := make([]models.Garment, 0, len(garmentIDs))
	for _, id := range garmentIDs {
		g, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", models.ErrGarmentNotFound, id)
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *PostgresStore) CreateGarment(ctx context.Context, garment models.Garment) (models.Garment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cloth_categories WHERE id = $1)`, garment.CategoryID).Scan(&exists); err != nil {
		return models.Garment{}, err
	}
	if !exists {
		return models.Garment{}, fmt.Errorf("%w: %d", models.ErrCategoryNotFound, garment.CategoryID)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO garments (user_id, category_id, name, brand, color, temp_min, temp_max,
			weather_tags, is_active, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+garmentColumns,
		garment.UserID, garment.CategoryID, garment.Name, garment.Brand, garment.Color,
		garment.TemperatureRange.Min, garment.TemperatureRange.Max, tagStrings(garment.WeatherTags),
		garment.IsActive, garment.IsFavorite)
	return scanGarment(row)
}

func (s *PostgresStore) SetGarmentActive(ctx context.Context, userID, garmentID int64, active bool) (models.Garment, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE garments SET is_active = $3
		WHERE user_id = $1 AND id = $2
		RETURNING `+garmentColumns, userID, garmentID, active)
	g, err := scanGarment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Garment{}, fmt.Errorf("%w: %d", models.ErrGarmentNotFound, garmentID)
	}
	return g, err
}

func (s *PostgresStore) RecordWear(ctx context.Context, userID int64, garmentIDs []int64, at time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return recordWear(ctx, tx, userID, garmentIDs, at)
	})
}

// recordWear updates every garment or none.
func recordWear(ctx context.Context, tx pgx.Tx, userID int64, garmentIDs []int64, at time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE garments
		SET wear_count = wear_count + 1, last_worn_at = $3
		WHERE user_id = $1 AND id = ANY($2)
	`, userID, garmentIDs, at)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(garmentIDs) {
		return fmt.Errorf("%w: %d of %d garments matched", models.ErrGarmentNotFound, tag.RowsAffected(), len(garmentIDs))
	}
	return nil
}

func (s *PostgresStore) SaveOutfit(ctx context.Context, outfit models.Outfit, wornAt *time.Time) (models.Outfit, error) {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		ids := outfit.GarmentIDs()
		if wornAt != nil {
			if err := recordWear(ctx, tx, outfit.UserID, ids, *wornAt); err != nil {
				return err
			}
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO outfits (user_id, name, weather_type, comfort_band, temperature,
				temp_min, temp_max, source, weather_relaxed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at
		`, outfit.UserID, outfit.Name, string(outfit.WeatherCategory), string(outfit.ComfortBand),
			outfit.Temperature, outfit.Range.Min, outfit.Range.Max, string(outfit.Source),
			outfit.WeatherRelaxed).Scan(&outfit.ID, &outfit.CreatedAt); err != nil {
			return err
		}
		outfit.CreatedAt = outfit.CreatedAt.UTC()

		batch := &pgx.Batch{}
		for _, item := range outfit.Items {
			batch.Queue(`
				INSERT INTO outfit_garments (outfit_id, garment_id, layer_order)
				SELECT $1, id, $3 FROM garments WHERE id = $2 AND user_id = $4
			`, outfit.ID, item.Garment.ID, item.LayerOrder, outfit.UserID)
		}
		results := tx.SendBatch(ctx, batch)
		for _, item := range outfit.Items {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return err
			}
			if tag.RowsAffected() != 1 {
				results.Close()
				return fmt.Errorf("%w: %d", models.ErrGarmentNotFound, item.Garment.ID)
			}
		}
		if err := results.Close(); err != nil {
			return err
		}

		if wornAt != nil {
			rows, err := tx.Query(ctx, `
				SELECT `+garmentColumns+`
				FROM garments WHERE id = ANY($1)
			`, ids)
			if err != nil {
				return err
			}
			fresh, err := collectGarments(rows)
			if err != nil {
				return err
			}
			byID := make(map[int64]models.Garment, len(fresh))
			for _, g := range fresh {
				byID[g.ID] = g
			}
			items := make([]models.OutfitItem, len(outfit.Items))
			for i, item := range outfit.Items {
				item.Garment = byID[item.Garment.ID]
				items[i] = item
			}
			outfit.Items = items
		}
		return nil
	})
	if err != nil {
		return models.Outfit{}, fmt.Errorf("save outfit: %w", err)
	}
	return outfit, nil
}

func (s *PostgresStore) ListOutfits(ctx context.Context, userID int64, filter models.OutfitFilter) ([]models.Outfit, error) {
	var weather *string
	if filter.WeatherCategory != nil {
		w := string(*filter.WeatherCategory)
		weather = &w
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, weather_type, comfort_band, temperature, temp_min, temp_max,
			source, weather_relaxed, created_at
		FROM outfits
		WHERE user_id = $1
			AND ($2::TEXT IS NULL OR weather_type = $2)
			AND ($3::INT IS NULL OR ((temp_min IS NULL OR temp_min <= $3) AND (temp_max IS NULL OR temp_max >= $3)))
		ORDER BY id DESC
	`, userID, weather, filter.Temperature)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outfits []models.Outfit
	index := make(map[int64]int)
	for rows.Next() {
		o, err := scanOutfit(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(outfits)
		outfits = append(outfits, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(outfits) == 0 {
		return []models.Outfit{}, nil
	}

	ids := make([]int64, 0, len(outfits))
	for _, o := range outfits {
		ids = append(ids, o.ID)
	}
	itemRows, err := s.pool.Query(ctx, `
		SELECT og.outfit_id, og.layer_order, c.name,
			g.id, g.user_id, g.category_id, g.name, g.brand, g.color, g.temp_min, g.temp_max,
			g.weather_tags, g.is_active, g.is_favorite, g.wear_count, g.last_worn_at, g.created_at
		FROM outfit_garments og
		JOIN garments g ON g.id = og.garment_id
		JOIN cloth_categories c ON c.id = g.category_id
		WHERE og.outfit_id = ANY($1)
		ORDER BY og.outfit_id, og.layer_order, g.id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var outfitID int64
		var item models.OutfitItem
		var tags []string
		g := &item.Garment
		if err := itemRows.Scan(&outfitID, &item.LayerOrder, &item.CategoryName,
			&g.ID, &g.UserID, &g.CategoryID, &g.Name, &g.Brand, &g.Color,
			&g.TemperatureRange.Min, &g.TemperatureRange.Max, &tags,
			&g.IsActive, &g.IsFavorite, &g.WearCount, &g.LastWornAt, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.WeatherTags = parseTags(tags)
		g.CreatedAt = g.CreatedAt.UTC()
		if g.LastWornAt != nil {
			t := g.LastWornAt.UTC()
			g.LastWornAt = &t
		}
		item.CategoryID = g.CategoryID
		i := index[outfitID]
		outfits[i].Items = append(outfits[i].Items, item)
	}
	return outfits, itemRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGarment(row rowScanner) (models.Garment, error) {
	var g models.Garment
	var tags []string
	if err := row.Scan(&g.ID, &g.UserID, &g.CategoryID, &g.Name, &g.Brand, &g.Color,
		&g.TemperatureRange.Min, &g.TemperatureRange.Max, &tags,
		&g.IsActive, &g.IsFavorite, &g.WearCount, &g.LastWornAt, &g.CreatedAt); err != nil {
		return models.Garment{}, err
	}
	g.WeatherTags = parseTags(tags)
	g.CreatedAt = g.CreatedAt.UTC()
	if g.LastWornAt != nil {
		t := g.LastWornAt.UTC()
		g.LastWornAt = &t
	}
	return g, nil
}

func collectGarments(rows pgx.Rows) ([]models.Garment, error) {
	defer rows.Close()
	out := make([]models.Garment, 0)
	for rows.Next() {
		g, err := scanGarment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanOutfit(row rowScanner) (models.Outfit, error) {
	var o models.Outfit
	var weather, band, source string
	if err := row.Scan(&o.ID, &o.UserID, &o.Name, &weather, &band, &o.Temperature,
		&o.Range.Min, &o.Range.Max, &source, &o.WeatherRelaxed, &o.CreatedAt); err != nil {
		return models.Outfit{}, err
	}
	o.WeatherCategory = models.WeatherCategory(weather)
	o.ComfortBand = models.ComfortBand(band)
	o.Source = models.OutfitSource(source)
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func tagStrings(tags []models.WeatherCategory) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, string(t))
	}
	return out
}

func parseTags(tags []string) []models.WeatherCategory {
	if len(tags) == 0 {
		return nil
	}
	out := make([]models.WeatherCategory, 0, len(tags))
	for _, t := range tags {
		if c, ok := models.ParseWeatherCategory(t); ok {
			out = append(out, c)
		}
	}
	return out
}
