package storage

import (
	"context"
	"database/sql"
	"fmt"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

// CategoryRepository stores the scraped category snapshot.
type CategoryRepository struct {
	db *sql.DB
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository wires a sql.DB implementation.
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Replace upserts every scraped pair in one transaction. Existing keys are
// renamed, never deleted: sub_news rows reference them.
func (r *CategoryRepository) Replace(ctx context.Context, categories []domain.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin category refresh: %w", err)
	}

	for _, category := range categories {
		query, args, err := builder.
			Insert("news_categories").
			Columns("category_key", "category_name").
			Values(category.Key, category.Name).
			Suffix("ON CONFLICT (category_key) DO UPDATE SET category_name = EXCLUDED.category_name").
			ToSql()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build category upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert category %s: %w", category.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category refresh: %w", err)
	}
	return nil
}

// List returns the persisted snapshot.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	query, args, err := builder.
		Select("category_key", "category_name").
		From("news_categories").
		OrderBy("category_key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.Key, &category.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}
