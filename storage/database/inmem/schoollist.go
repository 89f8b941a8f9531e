package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/core/user"
)

type schoolListRepository struct {
	db *DB
}

var _ schoollist.Repository = (*schoolListRepository)(nil) // interface compliance check

func NewSchoolListRepository(db *DB) *schoolListRepository {
	return &schoolListRepository{db: db}
}

func (repo *schoolListRepository) CreateEntry(_ context.Context, e schoollist.Entry) (schoollist.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[e.UserID]; !ok {
		return schoollist.Entry{}, user.ErrNotFound
	}
	if _, ok := repo.db.places[e.PlaceID]; !ok {
		return schoollist.Entry{}, place.ErrNotFound
	}
	for _, existing := range repo.db.entries {
		if existing.UserID == e.UserID && existing.PlaceID == e.PlaceID {
			return schoollist.Entry{}, schoollist.ErrAlreadyInList
		}
	}

	e.ID = uuid.New().String()
	repo.db.entries[e.ID] = e
	return e, nil
}

func (repo *schoolListRepository) QueryEntries(_ context.Context, userID string) ([]schoollist.EntryDetail, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]schoollist.EntryDetail, 0)
	for _, e := range repo.db.entries {
		if e.UserID != userID {
			continue
		}
		p := repo.db.places[e.PlaceID]
		entries = append(entries, schoollist.EntryDetail{
			Entry:      e,
			PlaceName:  p.Name,
			PlaceCity:  p.City,
			PlaceState: p.State,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (repo *schoolListRepository) GetEntry(_ context.Context, userID, id string) (schoollist.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.entries[id]; ok && e.UserID == userID {
		return e, nil
	}
	return schoollist.Entry{}, schoollist.ErrNotFound
}

func (repo *schoolListRepository) UpdateEntry(_ context.Context, e schoollist.Entry) (schoollist.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.entries[e.ID]
	if !ok || orig.UserID != e.UserID {
		return schoollist.Entry{}, schoollist.ErrNotFound
	}
	e.PlaceID = orig.PlaceID
	e.CreatedAt = orig.CreatedAt
	repo.db.entries[e.ID] = e
	return e, nil
}

func (repo *schoolListRepository) DeleteEntry(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if e, ok := repo.db.entries[id]; ok && e.UserID == userID {
		delete(repo.db.entries, id)
		return nil
	}
	return schoollist.ErrNotFound
}
