package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core/favorite"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/storage/database"
)

type favoriteRow struct {
	placeRow
	FavoritedAt time.Time `db:"favorited_at"`
}

type favoriteRepository struct {
	db *sqlx.DB
}

var _ favorite.Repository = (*favoriteRepository)(nil) // interface compliance check

func NewFavoriteRepository(db *sqlx.DB) *favoriteRepository {
	return &favoriteRepository{db: db}
}

func (repo favoriteRepository) AddFavorite(ctx context.Context, userID, placeID string, createdAt time.Time) error {
	if !isUUID(placeID) {
		return place.ErrNotFound
	}
	q := `INSERT INTO favorites (user_id, place_id, created_at) VALUES ($1, $2, $3)`
	if _, err := repo.db.ExecContext(ctx, q, userID, placeID, createdAt.UTC()); err != nil {
		if database.IsUniqueViolation(err) {
			return favorite.ErrAlreadyFavorited
		}
		return errors.Wrap(err, "inserting favorite")
	}
	return nil
}

func (repo favoriteRepository) QueryFavorites(ctx context.Context, userID string) ([]favorite.Favorite, error) {
	if !isUUID(userID) {
		return []favorite.Favorite{}, nil
	}
	var rows []favoriteRow
	q := `SELECT p.id, p.name, p.type, p.city, p.state, p.country, p.website, p.description, p.tags,
			p.metrics, p.rating_avg, p.review_count, p.created_at, p.updated_at,
			f.created_at AS favorited_at
		FROM favorites f
		JOIN places p ON p.id = f.place_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, p.id`
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying favorites")
	}

	favs := make([]favorite.Favorite, 0, len(rows))
	for _, row := range rows {
		favs = append(favs, favorite.Favorite{
			UserID:    userID,
			Place:     row.place(),
			CreatedAt: row.FavoritedAt.UTC(),
		})
	}
	return favs, nil
}

func (repo favoriteRepository) RemoveFavorite(ctx context.Context, userID, placeID string) error {
	if !isUUID(userID) || !isUUID(placeID) {
		return favorite.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND place_id = $2`, userID, placeID)
	if err != nil {
		return errors.Wrap(err, "deleting favorite")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return favorite.ErrNotFound
	}
	return nil
}
