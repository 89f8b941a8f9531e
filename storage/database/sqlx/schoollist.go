package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/storage/database"
)

const entryColumns = `id, user_id, place_id, category, acceptance_odds, notes, application_status,
	created_at, updated_at`

type entryRow struct {
	ID                string    `db:"id"`
	UserID            string    `db:"user_id"`
	PlaceID           string    `db:"place_id"`
	Category          string    `db:"category"`
	AcceptanceOdds    int       `db:"acceptance_odds"`
	Notes             string    `db:"notes"`
	ApplicationStatus string    `db:"application_status"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type entryDetailRow struct {
	entryRow
	PlaceName  string `db:"place_name"`
	PlaceCity  string `db:"place_city"`
	PlaceState string `db:"place_state"`
}

func (row entryRow) entry() schoollist.Entry {
	return schoollist.Entry{
		ID:                row.ID,
		UserID:            row.UserID,
		PlaceID:           row.PlaceID,
		Category:          schoollist.Category(row.Category),
		AcceptanceOdds:    row.AcceptanceOdds,
		Notes:             row.Notes,
		ApplicationStatus: schoollist.Status(row.ApplicationStatus),
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
}

func toEntryRow(e schoollist.Entry) entryRow {
	return entryRow{
		ID:                e.ID,
		UserID:            e.UserID,
		PlaceID:           e.PlaceID,
		Category:          string(e.Category),
		AcceptanceOdds:    e.AcceptanceOdds,
		Notes:             e.Notes,
		ApplicationStatus: string(e.ApplicationStatus),
		CreatedAt:         e.CreatedAt.UTC(),
		UpdatedAt:         e.UpdatedAt.UTC(),
	}
}

type schoolListRepository struct {
	db *sqlx.DB
}

var _ schoollist.Repository = (*schoolListRepository)(nil) // interface compliance check

func NewSchoolListRepository(db *sqlx.DB) *schoolListRepository {
	return &schoolListRepository{db: db}
}

// CreateEntry inserts e; the (user_id, place_id) unique constraint rejects duplicates.
func (repo schoolListRepository) CreateEntry(ctx context.Context, e schoollist.Entry) (schoollist.Entry, error) {
	e.ID = uuid.New().String()
	q := `INSERT INTO school_list_entries (` + entryColumns + `) VALUES (
		:id, :user_id, :place_id, :category, :acceptance_odds, :notes, :application_status,
		:created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toEntryRow(e)); err != nil {
		if database.IsUniqueViolation(err) {
			return schoollist.Entry{}, schoollist.ErrAlreadyInList
		}
		return schoollist.Entry{}, errors.Wrap(err, "inserting entry")
	}
	return e, nil
}

func (repo schoolListRepository) QueryEntries(ctx context.Context, userID string) ([]schoollist.EntryDetail, error) {
	if !isUUID(userID) {
		return []schoollist.EntryDetail{}, nil
	}
	var rows []entryDetailRow
	q := `SELECT e.id, e.user_id, e.place_id, e.category, e.acceptance_odds, e.notes,
			e.application_status, e.created_at, e.updated_at,
			p.name AS place_name, p.city AS place_city, p.state AS place_state
		FROM school_list_entries e
		JOIN places p ON p.id = e.place_id
		WHERE e.user_id = $1
		ORDER BY e.created_at DESC, e.id`
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}

	entries := make([]schoollist.EntryDetail, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, schoollist.EntryDetail{
			Entry:      row.entry(),
			PlaceName:  row.PlaceName,
			PlaceCity:  row.PlaceCity,
			PlaceState: row.PlaceState,
		})
	}
	return entries, nil
}

func (repo schoolListRepository) GetEntry(ctx context.Context, userID, id string) (schoollist.Entry, error) {
	if !isUUID(userID) || !isUUID(id) {
		return schoollist.Entry{}, schoollist.ErrNotFound
	}
	var row entryRow
	q := `SELECT ` + entryColumns + ` FROM school_list_entries WHERE id = $1 AND user_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, id, userID); err != nil {
		return schoollist.Entry{}, trapNoRowsErr(err, schoollist.ErrNotFound, "finding entry")
	}
	return row.entry(), nil
}

func (repo schoolListRepository) UpdateEntry(ctx context.Context, e schoollist.Entry) (schoollist.Entry, error) {
	if !isUUID(e.UserID) || !isUUID(e.ID) {
		return schoollist.Entry{}, schoollist.ErrNotFound
	}
	q := `UPDATE school_list_entries SET
		category = :category, acceptance_odds = :acceptance_odds, notes = :notes,
		application_status = :application_status, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`
	res, err := repo.db.NamedExecContext(ctx, q, toEntryRow(e))
	if err != nil {
		return schoollist.Entry{}, errors.Wrap(err, "updating entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schoollist.Entry{}, schoollist.ErrNotFound
	}
	return repo.GetEntry(ctx, e.UserID, e.ID)
}

func (repo schoolListRepository) DeleteEntry(ctx context.Context, userID, id string) error {
	if !isUUID(userID) || !isUUID(id) {
		return schoollist.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM school_list_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.Wrap(err, "deleting entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schoollist.ErrNotFound
	}
	return nil
}
