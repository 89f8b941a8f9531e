package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/medatlas/medatlas/core"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	// Moderator
	RoleModerator = "moderator:"
)

// Stages
const (
	StagePreMed    = "pre_med"
	StageMS1       = "ms1"
	StageMS2       = "ms2"
	StageMS3       = "ms3"
	StageMS4       = "ms4"
	StageResident  = "resident"
	StageAttending = "attending"
)

var (
	AdminRoles     = []string{RoleAdmin, RoleAdminOwner}
	ModeratorRoles = []string{RoleModerator}
	AllRoles       = getAllRoles()

	Stages = []string{StagePreMed, StageMS1, StageMS2, StageMS3, StageMS4, StageResident, StageAttending}

	Roles = []Role{
		{Name: "Moderator", Value: RoleModerator},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 3)
	all = append(all, AdminRoles...)
	all = append(all, ModeratorRoles...)
	return all
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Stats holds the self-reported academic metrics of a User.
// MCAT and GPA stay null until the User fills in their settings.
type Stats struct {
	MCAT  null.Int     `json:"mcat" validate:"omitempty,min=472,max=528"`
	GPA   null.Float64 `json:"gpa" validate:"omitempty,min=0,max=4"`
	Stage null.String  `json:"stage" validate:"omitempty,stage"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	IsPremium    bool      `json:"is_premium"`
	Roles        []string  `json:"roles"`
	Stats        Stats     `json:"stats"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

// CanModerate reports whether the User may remove content posted by others.
func (u *User) CanModerate() bool {
	return u.IsAdmin() || u.RoleStartsWith(RoleModerator)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"-" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// Validate cleans & validates stats submitted by a User. An empty stage is treated as null.
func (s *Stats) Validate(validate *validator.Validate) error {
	if s.Stage.Valid {
		s.Stage.String = core.CleanString(s.Stage.String, true /* lower */)
		s.Stage.Valid = s.Stage.String != ""
	}
	return validate.Struct(s)
}

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}

// PasswordResetRequest asks for a password reset link to be mailed.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

// ResetUserPassword sets a new password with the uid & token of a password reset link.
type ResetUserPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	rp.UID = core.CleanString(rp.UID)
	rp.Token = core.CleanString(rp.Token)
	if err := validate.Struct(rp); err != nil {
		return err
	}
	return ValidatePassword(validate, rp.Password)
}
