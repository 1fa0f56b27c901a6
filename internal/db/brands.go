package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"clipforge/internal/models"
)

func (db *DB) CreateBrand(ctx context.Context, brand *models.Brand) error {
	query := `
		INSERT INTO brands (id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	return db.QueryRowContext(ctx, query, brand.ID, brand.Name, brand.Slug).Scan(&brand.CreatedAt)
}

func (db *DB) GetBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	query := `SELECT id, name, slug, created_at FROM brands WHERE id = $1`

	brand := &models.Brand{}
	err := db.QueryRowContext(ctx, query, id).Scan(&brand.ID, &brand.Name, &brand.Slug, &brand.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("brand not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return brand, nil
}

func (db *DB) ListBrands(ctx context.Context) ([]models.Brand, error) {
	query := `SELECT id, name, slug, created_at FROM brands ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (db *DB) CreateBrandAsset(ctx context.Context, asset *models.BrandAsset) error {
	query := `
		INSERT INTO brand_assets (id, brand_id, asset_type, file, label)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		asset.ID, asset.BrandID, asset.AssetType, asset.File, asset.Label,
	).Scan(&asset.CreatedAt)
}

func (db *DB) GetBrandAsset(ctx context.Context, id uuid.UUID) (*models.BrandAsset, error) {
	query := `
		SELECT id, brand_id, asset_type, file, label, created_at
		FROM brand_assets
		WHERE id = $1
	`

	asset := &models.BrandAsset{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&asset.ID, &asset.BrandID, &asset.AssetType, &asset.File, &asset.Label, &asset.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("brand asset not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand asset: %w", err)
	}
	return asset, nil
}

func (db *DB) ListBrandAssets(ctx context.Context, brandID uuid.UUID) ([]models.BrandAsset, error) {
	query := `
		SELECT id, brand_id, asset_type, file, label, created_at
		FROM brand_assets
		WHERE brand_id = $1
		ORDER BY created_at
	`

	rows, err := db.QueryContext(ctx, query, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand assets: %w", err)
	}
	defer rows.Close()

	var assets []models.BrandAsset
	for rows.Next() {
		var a models.BrandAsset
		err := rows.Scan(&a.ID, &a.BrandID, &a.AssetType, &a.File, &a.Label, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (db *DB) DeleteBrandAsset(ctx context.Context, id uuid.UUID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM brand_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand asset: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("brand asset not found")
	}
	return nil
}
