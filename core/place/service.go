package place

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("school not found")
)

type (
	Repository interface {
		QueryPlaces(ctx context.Context, filter QueryFilter, pagination core.Pagination, orderings ...core.DBOrdering) ([]Place, int, error)
		GetPlace(ctx context.Context, id string) (Place, error)
		CreatePlace(ctx context.Context, p Place) (Place, error)
		UpdatePlace(ctx context.Context, p Place) (Place, error)
	}

	Service struct {
		repo  Repository
		cache *cache.Cache
	}
)

// NewService returns a place Service whose lookups by ID are cached for ttl.
func NewService(repo Repository, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, pagination core.Pagination, orderings ...core.DBOrdering) ([]Place, int, error) {
	filter.Clean()
	pagination.Clean()
	orderings = core.FilterOrderings(orderings, OrderingFields...)
	return svc.repo.QueryPlaces(ctx, filter, pagination, orderings...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Place, error) {
	if p, found := svc.cache.Get(id); found {
		return p.(Place), nil
	}
	p, err := svc.repo.GetPlace(ctx, id)
	if err != nil {
		return Place{}, err
	}
	svc.cache.SetDefault(id, p)
	return p, nil
}

func (svc *Service) Create(ctx context.Context, np NewPlace) (Place, error) {
	now := time.Now().UTC()
	p := Place{
		Name:        np.Name,
		Type:        np.Type,
		City:        np.City,
		State:       np.State,
		Country:     np.Country,
		Website:     np.Website,
		Description: np.Description,
		Tags:        np.Tags,
		Metrics:     np.Metrics,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p, err := svc.repo.CreatePlace(ctx, p)
	return p, errors.Wrap(err, "creating place")
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePlace) (Place, error) {
	p, err := svc.repo.GetPlace(ctx, id)
	if err != nil {
		return Place{}, err
	}
	p.Name = up.Name
	p.Type = up.Type
	p.City = up.City
	p.State = up.State
	p.Country = up.Country
	p.Website = up.Website
	p.Description = up.Description
	p.Tags = up.Tags
	p.Metrics = up.Metrics
	p.UpdatedAt = time.Now().UTC()

	p, err = svc.repo.UpdatePlace(ctx, p)
	if err != nil {
		return Place{}, errors.Wrap(err, "updating place")
	}
	svc.Invalidate(id)
	return p, nil
}

// Invalidate drops the cached copy of a Place.
func (svc *Service) Invalidate(id string) {
	svc.cache.Delete(id)
}
