package inmemdb

import (
	"sync"
	"time"

	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/review"
	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/core/user"
)

type (
	// DB is an in-memory store emulating the constraints of the postgres schema.
	DB struct {
		sync.RWMutex
		users     map[string]user.User
		places    map[string]place.Place
		entries   map[string]schoollist.Entry
		reviews   map[string]review.Review
		favorites map[favoriteKey]time.Time
		payments  map[string]payment.Payment
	}

	favoriteKey struct {
		userID  string
		placeID string
	}
)

func Open() *DB {
	return &DB{
		users:     make(map[string]user.User),
		places:    make(map[string]place.Place),
		entries:   make(map[string]schoollist.Entry),
		reviews:   make(map[string]review.Review),
		favorites: make(map[favoriteKey]time.Time),
		payments:  make(map[string]payment.Payment),
	}
}

// deleteUser removes a user & everything that references it. Callers hold the lock.
func (db *DB) deleteUser(id string) bool {
	if _, ok := db.users[id]; !ok {
		return false
	}
	delete(db.users, id)

	for eid, e := range db.entries {
		if e.UserID == id {
			delete(db.entries, eid)
		}
	}
	touched := make(map[string]bool)
	for rid, r := range db.reviews {
		if r.UserID == id {
			touched[r.PlaceID] = true
			delete(db.reviews, rid)
		}
	}
	for pid := range touched {
		db.refreshRating(pid)
	}
	for key := range db.favorites {
		if key.userID == id {
			delete(db.favorites, key)
		}
	}
	for pid, p := range db.payments {
		if p.UserID == id {
			delete(db.payments, pid)
		}
	}
	return true
}

// refreshRating recomputes the aggregates of a place. Callers hold the lock.
func (db *DB) refreshRating(placeID string) {
	p, ok := db.places[placeID]
	if !ok {
		return
	}
	var sum, cnt int
	for _, r := range db.reviews {
		if r.PlaceID == placeID {
			sum += r.Rating
			cnt++
		}
	}
	p.ReviewCount = cnt
	p.RatingAvg = 0
	if cnt > 0 {
		p.RatingAvg = float64(sum) / float64(cnt)
	}
	db.places[placeID] = p
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
