package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/place"
)

type placeRepository struct {
	db *DB
}

var _ place.Repository = (*placeRepository)(nil) // interface compliance check

func NewPlaceRepository(db *DB) *placeRepository {
	return &placeRepository{db: db}
}

func (repo *placeRepository) QueryPlaces(_ context.Context, filter place.QueryFilter, pagination core.Pagination, orderings ...core.DBOrdering) ([]place.Place, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	places := make([]place.Place, 0, len(repo.db.places))
	for _, p := range repo.db.places {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(p.Name), filter.Search) &&
			!strings.Contains(strings.ToLower(p.City), filter.Search) {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.State != "" && !strings.EqualFold(p.State, filter.State) {
			continue
		}
		places = append(places, copyPlace(p))
	}

	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	sort.SliceStable(places, func(i, j int) bool {
		for _, ord := range orderings {
			cmp := comparePlaces(places[i], places[j], ord.Field)
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return places[i].ID < places[j].ID
	})

	total := len(places)
	start := pagination.Offset()
	if start > total {
		start = total
	}
	end := start + pagination.Limit()
	if end > total {
		end = total
	}
	return places[start:end], total, nil
}

func (repo *placeRepository) GetPlace(_ context.Context, id string) (place.Place, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.places[id]; ok {
		return copyPlace(p), nil
	}
	return place.Place{}, place.ErrNotFound
}

func (repo *placeRepository) CreatePlace(_ context.Context, p place.Place) (place.Place, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = uuid.New().String()
	if p.Tags == nil {
		p.Tags = place.Tags{}
	}
	repo.db.places[p.ID] = copyPlace(p)
	return p, nil
}

func (repo *placeRepository) UpdatePlace(_ context.Context, p place.Place) (place.Place, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.places[p.ID]
	if !ok {
		return place.Place{}, place.ErrNotFound
	}
	// aggregates are maintained by reviews only
	p.RatingAvg = orig.RatingAvg
	p.ReviewCount = orig.ReviewCount
	p.CreatedAt = orig.CreatedAt
	if p.Tags == nil {
		p.Tags = place.Tags{}
	}
	repo.db.places[p.ID] = copyPlace(p)
	return p, nil
}

func comparePlaces(a, b place.Place, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "state":
		return strings.Compare(a.State, b.State)
	case "rating_avg":
		switch {
		case a.RatingAvg < b.RatingAvg:
			return -1
		case a.RatingAvg > b.RatingAvg:
			return 1
		}
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func copyPlace(p place.Place) place.Place {
	p.Tags = copyStrings(p.Tags)
	return p
}
