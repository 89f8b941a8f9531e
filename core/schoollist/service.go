package schoollist

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
	ErrNotFound      = core.NewNotFoundError("school list entry not found")
	ErrAlreadyInList = core.NewConflictError("school is already in your list")
)

type (
	// Repository stores list entries. Every lookup is scoped to the owning user.
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		QueryEntries(ctx context.Context, userID string) ([]EntryDetail, error)
		GetEntry(ctx context.Context, userID, id string) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		DeleteEntry(ctx context.Context, userID, id string) error
	}

	// PlaceGetter resolves the school an entry points to.
	PlaceGetter interface {
		GetByID(ctx context.Context, id string) (place.Place, error)
	}

	// OddsObserver is notified of every computed odds value.
	OddsObserver interface {
		ObserveOdds(odds int)
	}

	Service struct {
		repo     Repository
		places   PlaceGetter
		observer OddsObserver
	}
)

func NewService(repo Repository, places PlaceGetter, observer OddsObserver) *Service {
	return &Service{repo: repo, places: places, observer: observer}
}

// Add estimates the odds of usr at the school & persists a new Entry in the planning status.
func (svc *Service) Add(ctx context.Context, usr user.User, ne NewEntry) (CreatedEntry, error) {
	p, err := svc.places.GetByID(ctx, ne.PlaceID)
	if err != nil {
		return CreatedEntry{}, err
	}

	odds, err := svc.estimate(usr.Stats, p.Metrics)
	if err != nil {
		return CreatedEntry{}, errors.Wrapf(err, "estimating odds for place %s", p.ID)
	}

	now := time.Now().UTC()
	e, err := svc.repo.CreateEntry(ctx, Entry{
		UserID:            usr.ID,
		PlaceID:           p.ID,
		Category:          ne.Category,
		AcceptanceOdds:    odds,
		Notes:             ne.Notes,
		ApplicationStatus: StatusPlanning,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return CreatedEntry{}, errors.Wrap(err, "creating entry")
	}
	return CreatedEntry{ID: e.ID, AcceptanceOdds: e.AcceptanceOdds}, nil
}

func (svc *Service) List(ctx context.Context, usr user.User) ([]EntryDetail, error) {
	entries, err := svc.repo.QueryEntries(ctx, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}
	return entries, nil
}

// Update changes the status, notes or category of an Entry. The odds are kept as is.
func (svc *Service) Update(ctx context.Context, usr user.User, ue UpdateEntry) (Entry, error) {
	e, err := svc.repo.GetEntry(ctx, usr.ID, ue.ID)
	if err != nil {
		return Entry{}, err
	}
	if ue.ApplicationStatus != nil {
		e.ApplicationStatus = *ue.ApplicationStatus
	}
	if ue.Notes != nil {
		e.Notes = *ue.Notes
	}
	if ue.Category != nil {
		e.Category = *ue.Category
	}
	e.UpdatedAt = time.Now().UTC()

	e, err = svc.repo.UpdateEntry(ctx, e)
	return e, errors.Wrap(err, "updating entry")
}

func (svc *Service) Remove(ctx context.Context, usr user.User, id string) error {
	return svc.repo.DeleteEntry(ctx, usr.ID, core.CleanString(id, true /* lower */))
}

// RefreshOdds recomputes the odds of every Entry of usr from their current stats.
func (svc *Service) RefreshOdds(ctx context.Context, usr user.User) ([]EntryDetail, error) {
	entries, err := svc.repo.QueryEntries(ctx, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}

	now := time.Now().UTC()
	for i, e := range entries {
		p, err := svc.places.GetByID(ctx, e.PlaceID)
		if err != nil {
			return nil, errors.Wrapf(err, "getting place %s", e.PlaceID)
		}
		odds, err := svc.estimate(usr.Stats, p.Metrics)
		if err != nil {
			return nil, errors.Wrapf(err, "estimating odds for place %s", p.ID)
		}
		if odds == e.AcceptanceOdds {
			continue
		}

		e.AcceptanceOdds = odds
		e.UpdatedAt = now
		if _, err = svc.repo.UpdateEntry(ctx, e.Entry); err != nil {
			return nil, errors.Wrap(err, "updating entry")
		}
		entries[i] = e
	}
	return entries, nil
}

func (svc *Service) estimate(stats user.Stats, metrics place.Metrics) (int, error) {
	odds, err := EstimateOdds(stats, metrics)
	if err != nil {
		return 0, err
	}
	if svc.observer != nil {
		svc.observer.ObserveOdds(odds)
	}
	return odds, nil
}
