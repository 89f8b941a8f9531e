package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/review"
)

type reviewRepository struct {
	db *DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *DB) *reviewRepository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) CreateReview(_ context.Context, r review.Review) (review.Review, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.places[r.PlaceID]; !ok {
		return review.Review{}, place.ErrNotFound
	}
	for _, existing := range repo.db.reviews {
		if existing.UserID == r.UserID && existing.PlaceID == r.PlaceID {
			return review.Review{}, review.ErrAlreadyReviewed
		}
	}

	r.ID = uuid.New().String()
	if usr, ok := repo.db.users[r.UserID]; ok {
		r.AuthorName = usr.Name
	}
	repo.db.reviews[r.ID] = r
	return r, nil
}

func (repo *reviewRepository) QueryReviews(_ context.Context, placeID string, limit int) ([]review.Review, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reviews := make([]review.Review, 0)
	for _, r := range repo.db.reviews {
		if r.PlaceID == placeID {
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].ID < reviews[j].ID
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})

	total := len(reviews)
	if limit > 0 && limit < total {
		reviews = reviews[:limit]
	}
	return reviews, total, nil
}

func (repo *reviewRepository) GetReview(_ context.Context, id string) (review.Review, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.reviews[id]; ok {
		return r, nil
	}
	return review.Review{}, review.ErrNotFound
}

func (repo *reviewRepository) DeleteReview(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.reviews[id]; !ok {
		return review.ErrNotFound
	}
	delete(repo.db.reviews, id)
	return nil
}

func (repo *reviewRepository) RefreshPlaceRating(_ context.Context, placeID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.refreshRating(placeID)
	return nil
}
