package review

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("review not found")
	ErrAlreadyReviewed = core.NewConflictError("you have already reviewed this school")
)

type (
	Repository interface {
		CreateReview(ctx context.Context, r Review) (Review, error)
		// QueryReviews returns the most recent reviews of a place first; limit <= 0 means all.
		QueryReviews(ctx context.Context, placeID string, limit int) ([]Review, int, error)
		GetReview(ctx context.Context, id string) (Review, error)
		DeleteReview(ctx context.Context, id string) error
		// RefreshPlaceRating recomputes the rating average & review count of a place.
		RefreshPlaceRating(ctx context.Context, placeID string) error
	}

	// PlaceService resolves reviewed places & drops stale cached copies.
	PlaceService interface {
		GetByID(ctx context.Context, id string) (place.Place, error)
		Invalidate(id string)
	}

	Service struct {
		repo         Repository
		places       PlaceService
		previewLimit int
	}
)

// NewService returns a review Service showing previewLimit reviews to non premium users.
func NewService(repo Repository, places PlaceService, previewLimit int) *Service {
	return &Service{repo: repo, places: places, previewLimit: previewLimit}
}

// Query returns the reviews of a place. usr may be nil for anonymous callers.
func (svc *Service) Query(ctx context.Context, placeID string, usr *user.User) (Page, error) {
	p, err := svc.places.GetByID(ctx, placeID)
	if err != nil {
		return Page{}, err
	}

	limit := svc.previewLimit
	if usr != nil && usr.IsPremium {
		limit = 0
	}
	reviews, total, err := svc.repo.QueryReviews(ctx, p.ID, limit)
	if err != nil {
		return Page{}, errors.Wrap(err, "querying reviews")
	}
	if reviews == nil {
		reviews = []Review{}
	}
	return Page{
		Reviews: reviews,
		Total:   total,
		Locked:  len(reviews) < total,
	}, nil
}

func (svc *Service) Create(ctx context.Context, usr user.User, placeID string, nr NewReview) (Review, error) {
	p, err := svc.places.GetByID(ctx, placeID)
	if err != nil {
		return Review{}, err
	}

	now := time.Now().UTC()
	r, err := svc.repo.CreateReview(ctx, Review{
		PlaceID:    p.ID,
		UserID:     usr.ID,
		AuthorName: usr.Name,
		Rating:     nr.Rating,
		Title:      nr.Title,
		Content:    nr.Content,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Review{}, errors.Wrap(err, "creating review")
	}
	if err = svc.refreshRating(ctx, p.ID); err != nil {
		return Review{}, err
	}
	return r, nil
}

// Delete removes a review written by usr. Moderators may remove any review.
func (svc *Service) Delete(ctx context.Context, usr user.User, id string) error {
	r, err := svc.repo.GetReview(ctx, core.CleanString(id, true /* lower */))
	if err != nil {
		return err
	}
	if r.UserID != usr.ID && !usr.CanModerate() {
		return ErrNotFound
	}
	if err = svc.repo.DeleteReview(ctx, r.ID); err != nil {
		return errors.Wrap(err, "deleting review")
	}
	return svc.refreshRating(ctx, r.PlaceID)
}

func (svc *Service) refreshRating(ctx context.Context, placeID string) error {
	if err := svc.repo.RefreshPlaceRating(ctx, placeID); err != nil {
		return errors.Wrap(err, "refreshing place rating")
	}
	svc.places.Invalidate(placeID)
	return nil
}
