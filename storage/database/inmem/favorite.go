package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/medatlas/medatlas/core/favorite"
	"github.com/medatlas/medatlas/core/place"
)

type favoriteRepository struct {
	db *DB
}

var _ favorite.Repository = (*favoriteRepository)(nil) // interface compliance check

func NewFavoriteRepository(db *DB) *favoriteRepository {
	return &favoriteRepository{db: db}
}

func (repo *favoriteRepository) AddFavorite(_ context.Context, userID, placeID string, createdAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.places[placeID]; !ok {
		return place.ErrNotFound
	}
	key := favoriteKey{userID: userID, placeID: placeID}
	if _, ok := repo.db.favorites[key]; ok {
		return favorite.ErrAlreadyFavorited
	}
	repo.db.favorites[key] = createdAt
	return nil
}

func (repo *favoriteRepository) QueryFavorites(_ context.Context, userID string) ([]favorite.Favorite, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	favs := make([]favorite.Favorite, 0)
	for key, createdAt := range repo.db.favorites {
		if key.userID != userID {
			continue
		}
		favs = append(favs, favorite.Favorite{
			UserID:    userID,
			Place:     copyPlace(repo.db.places[key.placeID]),
			CreatedAt: createdAt,
		})
	}
	sort.Slice(favs, func(i, j int) bool {
		if favs[i].CreatedAt.Equal(favs[j].CreatedAt) {
			return favs[i].Place.ID < favs[j].Place.ID
		}
		return favs[i].CreatedAt.After(favs[j].CreatedAt)
	})
	return favs, nil
}

func (repo *favoriteRepository) RemoveFavorite(_ context.Context, userID, placeID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := favoriteKey{userID: userID, placeID: placeID}
	if _, ok := repo.db.favorites[key]; !ok {
		return favorite.ErrNotFound
	}
	delete(repo.db.favorites, key)
	return nil
}
