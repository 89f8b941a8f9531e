package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/place"
)

const placeColumns = `id, name, type, city, state, country, website, description, tags, metrics,
	rating_avg, review_count, created_at, updated_at`

type placeRow struct {
	ID          string        `db:"id"`
	Name        string        `db:"name"`
	Type        string        `db:"type"`
	City        string        `db:"city"`
	State       string        `db:"state"`
	Country     string        `db:"country"`
	Website     string        `db:"website"`
	Description string        `db:"description"`
	Tags        place.Tags    `db:"tags"`
	Metrics     place.Metrics `db:"metrics"`
	RatingAvg   float64       `db:"rating_avg"`
	ReviewCount int           `db:"review_count"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

func (row placeRow) place() place.Place {
	return place.Place{
		ID:          row.ID,
		Name:        row.Name,
		Type:        row.Type,
		City:        row.City,
		State:       row.State,
		Country:     row.Country,
		Website:     row.Website,
		Description: row.Description,
		Tags:        row.Tags,
		Metrics:     row.Metrics,
		RatingAvg:   row.RatingAvg,
		ReviewCount: row.ReviewCount,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func toPlaceRow(p place.Place) placeRow {
	tags := p.Tags
	if tags == nil {
		tags = place.Tags{}
	}
	return placeRow{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		City:        p.City,
		State:       p.State,
		Country:     p.Country,
		Website:     p.Website,
		Description: p.Description,
		Tags:        tags,
		Metrics:     p.Metrics,
		RatingAvg:   p.RatingAvg,
		ReviewCount: p.ReviewCount,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

type placeRepository struct {
	db *sqlx.DB
}

var _ place.Repository = (*placeRepository)(nil) // interface compliance check

func NewPlaceRepository(db *sqlx.DB) *placeRepository {
	return &placeRepository{db: db}
}

func (repo placeRepository) QueryPlaces(ctx context.Context, filter place.QueryFilter, pagination core.Pagination, orderings ...core.DBOrdering) ([]place.Place, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	addCond := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	// places with Name or City matching the search keyword
	if filter.Search != "" {
		addCond("(name ILIKE $%[1]d OR city ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.Type != "" {
		addCond("type = $%d", filter.Type)
	}
	if filter.State != "" {
		addCond("lower(state) = lower($%d)", filter.State)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM places"+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting places")
	}

	// orderings are filtered against place.OrderingFields by the service
	orderList := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		orderList = append(orderList, ord.String())
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "lower(name) ASC")
	}
	orderList = append(orderList, "id ASC")

	args = append(args, pagination.Limit(), pagination.Offset())
	q := fmt.Sprintf("SELECT %s FROM places%s ORDER BY %s LIMIT $%d OFFSET $%d",
		placeColumns, where, strings.Join(orderList, ", "), len(args)-1, len(args))

	var rows []placeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying places")
	}
	places := make([]place.Place, 0, len(rows))
	for _, row := range rows {
		places = append(places, row.place())
	}
	return places, total, nil
}

func (repo placeRepository) GetPlace(ctx context.Context, id string) (place.Place, error) {
	if !isUUID(id) {
		return place.Place{}, place.ErrNotFound
	}
	var row placeRow
	q := `SELECT ` + placeColumns + ` FROM places WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return place.Place{}, trapNoRowsErr(err, place.ErrNotFound, "finding place")
	}
	return row.place(), nil
}

func (repo placeRepository) CreatePlace(ctx context.Context, p place.Place) (place.Place, error) {
	p.ID = uuid.New().String()
	row := toPlaceRow(p)
	q := `INSERT INTO places (` + placeColumns + `) VALUES (
		:id, :name, :type, :city, :state, :country, :website, :description, :tags, :metrics,
		:rating_avg, :review_count, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return place.Place{}, errors.Wrap(err, "inserting place")
	}
	return row.place(), nil
}

// UpdatePlace saves the editable fields of p. Rating aggregates are left to the reviews.
func (repo placeRepository) UpdatePlace(ctx context.Context, p place.Place) (place.Place, error) {
	if !isUUID(p.ID) {
		return place.Place{}, place.ErrNotFound
	}
	q := `UPDATE places SET
		name = :name, type = :type, city = :city, state = :state, country = :country,
		website = :website, description = :description, tags = :tags, metrics = :metrics,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toPlaceRow(p))
	if err != nil {
		return place.Place{}, errors.Wrap(err, "updating place")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return place.Place{}, place.ErrNotFound
	}
	return repo.GetPlace(ctx, p.ID)
}
