package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/user"
)

type paymentRow struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	Amount      decimal.Decimal `db:"amount"`
	Currency    string          `db:"currency"`
	ProviderRef string          `db:"provider_ref"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (row paymentRow) payment() payment.Payment {
	return payment.Payment{
		ID:          row.ID,
		UserID:      row.UserID,
		Amount:      row.Amount,
		Currency:    row.Currency,
		ProviderRef: row.ProviderRef,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo paymentRepository) RecordPayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	if !isUUID(p.UserID) {
		return payment.Payment{}, user.ErrNotFound
	}
	p.ID = uuid.New().String()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE users SET is_premium = TRUE, updated_at = $2 WHERE id = $1`,
		p.UserID, p.CreatedAt.UTC())
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "granting premium")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return payment.Payment{}, user.ErrNotFound
	}

	q := `INSERT INTO payments (id, user_id, amount, currency, provider_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, q, p.ID, p.UserID, p.Amount, p.Currency, p.ProviderRef, p.CreatedAt.UTC()); err != nil {
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}

	if err = tx.Commit(); err != nil {
		return payment.Payment{}, errors.Wrap(err, "committing transaction")
	}
	return p, nil
}

func (repo paymentRepository) QueryPayments(ctx context.Context, userID string) ([]payment.Payment, error) {
	if !isUUID(userID) {
		return []payment.Payment{}, nil
	}
	var rows []paymentRow
	q := `SELECT id, user_id, amount, currency, provider_ref, created_at
		FROM payments WHERE user_id = $1 ORDER BY created_at DESC, id`
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}

	payments := make([]payment.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.payment())
	}
	return payments, nil
}
