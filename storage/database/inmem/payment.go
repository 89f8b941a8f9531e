package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/user"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) RecordPayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.users[p.UserID]
	if !ok {
		return payment.Payment{}, user.ErrNotFound
	}

	p.ID = uuid.New().String()
	repo.db.payments[p.ID] = p
	usr.IsPremium = true
	usr.UpdatedAt = p.CreatedAt
	repo.db.users[usr.ID] = usr
	return p, nil
}

func (repo *paymentRepository) QueryPayments(_ context.Context, userID string) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	payments := make([]payment.Payment, 0)
	for _, p := range repo.db.payments {
		if p.UserID == userID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}
