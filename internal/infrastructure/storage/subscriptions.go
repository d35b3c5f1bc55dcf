package storage

import (
	"context"
	"database/sql"
	"fmt"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

// SubscriptionRepository reads and writes sub_weather and sub_news rows.
type SubscriptionRepository struct {
	db *sql.DB
}

var _ ports.SubscriptionRepository = (*SubscriptionRepository)(nil)

// NewSubscriptionRepository wires a sql.DB implementation.
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// ListActiveWeatherSubs returns weather subscriptions whose owner is
// registered, joined with the owner.
func (r *SubscriptionRepository) ListActiveWeatherSubs(ctx context.Context) ([]domain.WeatherSubscription, error) {
	query, args, err := builder.
		Select(
			"s.id", "s.user_id", "s.longitude", "s.latitude", "s.location_name",
			"u.id", "u.line_user_id", "u.display_name", "u.is_registered",
		).
		From("sub_weather s").
		Join("users u ON u.id = s.user_id").
		Where("u.is_registered = ?", true).
		OrderBy("s.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build weather subs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weather subs: %w", err)
	}
	defer rows.Close()

	var subs []domain.WeatherSubscription
	for rows.Next() {
		var (
			sub      domain.WeatherSubscription
			location sql.NullString
		)
		if err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.Longitude, &sub.Latitude, &location,
			&sub.User.ID, &sub.User.LineUserID, &sub.User.DisplayName, &sub.User.IsRegistered,
		); err != nil {
			return nil, fmt.Errorf("scan weather sub: %w", err)
		}
		sub.LocationName = location.String
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weather subs: %w", err)
	}

	return subs, nil
}

// ListActiveNewsSubs returns news subscriptions whose owner is registered,
// joined with the owner.
func (r *SubscriptionRepository) ListActiveNewsSubs(ctx context.Context) ([]domain.NewsSubscription, error) {
	query, args, err := builder.
		Select(
			"s.id", "s.user_id", "s.category_key",
			"u.id", "u.line_user_id", "u.display_name", "u.is_registered",
		).
		From("sub_news s").
		Join("users u ON u.id = s.user_id").
		Where("u.is_registered = ?", true).
		OrderBy("s.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build news subs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query news subs: %w", err)
	}
	defer rows.Close()

	var subs []domain.NewsSubscription
	for rows.Next() {
		var sub domain.NewsSubscription
		if err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.CategoryKey,
			&sub.User.ID, &sub.User.LineUserID, &sub.User.DisplayName, &sub.User.IsRegistered,
		); err != nil {
			return nil, fmt.Errorf("scan news sub: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate news subs: %w", err)
	}

	return subs, nil
}

// AddWeatherSub stores a weather subscription. A user may hold several.
func (r *SubscriptionRepository) AddWeatherSub(ctx context.Context, sub domain.SubWeather) error {
	query, args, err := builder.
		Insert("sub_weather").
		Columns("user_id", "longitude", "latitude", "location_name").
		Values(sub.UserID, sub.Longitude, sub.Latitude, sub.LocationName).
		ToSql()
	if err != nil {
		return fmt.Errorf("build weather sub insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert weather sub: %w", err)
	}
	return nil
}

// AddNewsSub stores a news subscription. A repeated (user, category) pair
// surfaces as domain.ErrDuplicate, enforced by the store's constraint.
func (r *SubscriptionRepository) AddNewsSub(ctx context.Context, sub domain.SubNews) error {
	query, args, err := builder.
		Insert("sub_news").
		Columns("user_id", "category_key").
		Values(sub.UserID, sub.CategoryKey).
		ToSql()
	if err != nil {
		return fmt.Errorf("build news sub insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("news sub (%d, %s): %w", sub.UserID, sub.CategoryKey, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert news sub: %w", err)
	}
	return nil
}
