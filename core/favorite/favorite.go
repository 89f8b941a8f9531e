package favorite

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("favorite not found")
	ErrAlreadyFavorited = core.NewConflictError("already in your favorites")
)

// Favorite is a place bookmarked by a user.
type Favorite struct {
	UserID    string      `json:"-"`
	Place     place.Place `json:"place"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

type NewFavorite struct {
	PlaceID string `json:"place_id" query:"place_id" validate:"required,uuid"`
}

func (nf *NewFavorite) Validate(validate *validator.Validate) error {
	nf.PlaceID = core.CleanString(nf.PlaceID, true /* lower */)
	return validate.Struct(nf)
}

type (
	Repository interface {
		AddFavorite(ctx context.Context, userID, placeID string, createdAt time.Time) error
		// QueryFavorites returns the favorites of a user, most recent first.
		QueryFavorites(ctx context.Context, userID string) ([]Favorite, error)
		RemoveFavorite(ctx context.Context, userID, placeID string) error
	}

	PlaceGetter interface {
		GetByID(ctx context.Context, id string) (place.Place, error)
	}

	Service struct {
		repo   Repository
		places PlaceGetter
	}
)

func NewService(repo Repository, places PlaceGetter) *Service {
	return &Service{repo: repo, places: places}
}

func (svc *Service) List(ctx context.Context, usr user.User) ([]Favorite, error) {
	favs, err := svc.repo.QueryFavorites(ctx, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying favorites")
	}
	if favs == nil {
		favs = []Favorite{}
	}
	return favs, nil
}

func (svc *Service) Add(ctx context.Context, usr user.User, nf NewFavorite) (Favorite, error) {
	p, err := svc.places.GetByID(ctx, nf.PlaceID)
	if err != nil {
		return Favorite{}, err
	}
	now := time.Now().UTC()
	if err = svc.repo.AddFavorite(ctx, usr.ID, p.ID, now); err != nil {
		return Favorite{}, errors.Wrap(err, "adding favorite")
	}
	return Favorite{UserID: usr.ID, Place: p, CreatedAt: now}, nil
}

func (svc *Service) Remove(ctx context.Context, usr user.User, placeID string) error {
	return svc.repo.RemoveFavorite(ctx, usr.ID, core.CleanString(placeID, true /* lower */))
}
