package payment

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/user"
)

const DefaultCurrency = "usd"

var (
	// errors
	ErrInvalidAmount = errors.New("amount must be greater than 0")
)

type Payment struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ProviderRef string          `json:"provider_ref"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
}

// NewPayment records a payment made outside of the platform (checkout is handled by the provider).
type NewPayment struct {
	User        string          `json:"user" validate:"required"` // username or email
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"omitempty,len=3,alpha"`
	ProviderRef string          `json:"provider_ref" validate:"max=255"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.User = core.CleanString(np.User, true /* lower */)
	np.Currency = core.CleanString(np.Currency, true /* lower */)
	np.ProviderRef = core.CleanString(np.ProviderRef)
	if np.Currency == "" {
		np.Currency = DefaultCurrency
	}
	if err := validate.Struct(np); err != nil {
		return err
	}
	if !np.Amount.IsPositive() {
		return core.NewValidationError(ErrInvalidAmount, core.FieldError{Field: "amount", Error: ErrInvalidAmount.Error()})
	}
	return nil
}

// Premium is the premium status of a user & their payment history.
type Premium struct {
	IsPremium bool      `json:"is_premium"`
	Payments  []Payment `json:"payments"`
}

type (
	Repository interface {
		// RecordPayment stores p & grants premium to its user atomically.
		RecordPayment(ctx context.Context, p Payment) (Payment, error)
		QueryPayments(ctx context.Context, userID string) ([]Payment, error)
	}

	UserGetter interface {
		GetByUsernameOrEmail(ctx context.Context, uname string) (user.User, error)
	}

	Service struct {
		repo    Repository
		users   UserGetter
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, users UserGetter, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, users: users, mailSvc: mailSvc}
}

// Record stores a payment & makes its user premium.
func (svc *Service) Record(ctx context.Context, np NewPayment) (Payment, error) {
	usr, err := svc.users.GetByUsernameOrEmail(ctx, np.User)
	if err != nil {
		return Payment{}, err
	}

	p, err := svc.repo.RecordPayment(ctx, Payment{
		UserID:      usr.ID,
		Amount:      np.Amount,
		Currency:    np.Currency,
		ProviderRef: np.ProviderRef,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Payment{}, errors.Wrap(err, "recording payment")
	}
	svc.sendPremiumMail(usr, p)
	return p, nil
}

func (svc *Service) GetPremium(ctx context.Context, usr user.User) (Premium, error) {
	payments, err := svc.repo.QueryPayments(ctx, usr.ID)
	if err != nil {
		return Premium{}, errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []Payment{}
	}
	return Premium{IsPremium: usr.IsPremium, Payments: payments}, nil
}

func (svc *Service) sendPremiumMail(usr user.User, p Payment) {
	if usr.Email == "" || svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your MedAtlas Premium access",
		TemplateName: "premium",
		TemplateData: map[string]interface{}{
			"Name":     usr.Name,
			"Amount":   p.Amount.StringFixed(2),
			"Currency": p.Currency,
		},
	})
}
