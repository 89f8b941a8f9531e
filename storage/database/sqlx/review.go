package sqlxrepos

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core/review"
	"github.com/medatlas/medatlas/storage/database"
)

const reviewSelect = `SELECT r.id, r.place_id, r.user_id, u.name AS author_name, r.rating, r.title,
		r.content, r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON u.id = r.user_id`

type reviewRow struct {
	ID         string    `db:"id"`
	PlaceID    string    `db:"place_id"`
	UserID     string    `db:"user_id"`
	AuthorName string    `db:"author_name"`
	Rating     int       `db:"rating"`
	Title      string    `db:"title"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row reviewRow) review() review.Review {
	return review.Review{
		ID:         row.ID,
		PlaceID:    row.PlaceID,
		UserID:     row.UserID,
		AuthorName: row.AuthorName,
		Rating:     row.Rating,
		Title:      row.Title,
		Content:    row.Content,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

type reviewRepository struct {
	db *sqlx.DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *sqlx.DB) *reviewRepository {
	return &reviewRepository{db: db}
}

// CreateReview inserts r; the (user_id, place_id) unique constraint rejects duplicates.
func (repo reviewRepository) CreateReview(ctx context.Context, r review.Review) (review.Review, error) {
	r.ID = uuid.New().String()
	row := reviewRow{
		ID:        r.ID,
		PlaceID:   r.PlaceID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	q := `INSERT INTO reviews (id, place_id, user_id, rating, title, content, created_at, updated_at)
		VALUES (:id, :place_id, :user_id, :rating, :title, :content, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if database.IsUniqueViolation(err) {
			return review.Review{}, review.ErrAlreadyReviewed
		}
		return review.Review{}, errors.Wrap(err, "inserting review")
	}
	return r, nil
}

func (repo reviewRepository) QueryReviews(ctx context.Context, placeID string, limit int) ([]review.Review, int, error) {
	if !isUUID(placeID) {
		return []review.Review{}, 0, nil
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews WHERE place_id = $1`, placeID); err != nil {
		return nil, 0, errors.Wrap(err, "counting reviews")
	}

	q := reviewSelect + ` WHERE r.place_id = $1 ORDER BY r.created_at DESC, r.id`
	if limit > 0 {
		q += ` LIMIT ` + strconv.Itoa(limit)
	}
	var rows []reviewRow
	if err := repo.db.SelectContext(ctx, &rows, q, placeID); err != nil {
		return nil, 0, errors.Wrap(err, "querying reviews")
	}

	reviews := make([]review.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.review())
	}
	return reviews, total, nil
}

func (repo reviewRepository) GetReview(ctx context.Context, id string) (review.Review, error) {
	if !isUUID(id) {
		return review.Review{}, review.ErrNotFound
	}
	var row reviewRow
	if err := repo.db.GetContext(ctx, &row, reviewSelect+` WHERE r.id = $1`, id); err != nil {
		return review.Review{}, trapNoRowsErr(err, review.ErrNotFound, "finding review")
	}
	return row.review(), nil
}

func (repo reviewRepository) DeleteReview(ctx context.Context, id string) error {
	if !isUUID(id) {
		return review.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting review")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return review.ErrNotFound
	}
	return nil
}

func (repo reviewRepository) RefreshPlaceRating(ctx context.Context, placeID string) error {
	if !isUUID(placeID) {
		return nil
	}
	return refreshPlaceRating(ctx, repo.db, placeID)
}

func refreshPlaceRating(ctx context.Context, exec sqlx.ExecerContext, placeID string) error {
	q := `UPDATE places SET
		rating_avg = COALESCE((SELECT AVG(rating) FROM reviews WHERE place_id = $1), 0),
		review_count = (SELECT COUNT(*) FROM reviews WHERE place_id = $1)
		WHERE id = $1`
	if _, err := exec.ExecContext(ctx, q, placeID); err != nil {
		return errors.Wrap(err, "refreshing place rating")
	}
	return nil
}
