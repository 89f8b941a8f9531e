package schoollist

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/medatlas/medatlas/core"
)

type (
	Category string
	Status   string
)

// Categories
const (
	CategoryReach  Category = "reach"
	CategoryTarget Category = "target"
	CategorySafety Category = "safety"
)

// Application statuses, in their usual order
const (
	StatusPlanning           Status = "planning"
	StatusPrimarySubmitted   Status = "primary_submitted"
	StatusSecondaryReceived  Status = "secondary_received"
	StatusSecondarySubmitted Status = "secondary_submitted"
	StatusInterviewInvite    Status = "interview_invite"
	StatusInterviewed        Status = "interviewed"
	StatusAccepted           Status = "accepted"
	StatusWaitlisted         Status = "waitlisted"
	StatusRejected           Status = "rejected"
)

var (
	Categories = []Category{CategoryReach, CategoryTarget, CategorySafety}
	Statuses   = []Status{
		StatusPlanning,
		StatusPrimarySubmitted,
		StatusSecondaryReceived,
		StatusSecondarySubmitted,
		StatusInterviewInvite,
		StatusInterviewed,
		StatusAccepted,
		StatusWaitlisted,
		StatusRejected,
	}
)

func (c Category) IsValid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status. Any status may follow any other.
func (s Status) IsValid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Entry is a school tracked in a user's list.
type Entry struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	PlaceID           string    `json:"place_id"`
	Category          Category  `json:"category"`
	AcceptanceOdds    int       `json:"acceptance_odds"`
	Notes             string    `json:"notes"`
	ApplicationStatus Status    `json:"application_status"`
	CreatedAt         time.Time `json:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

// EntryDetail is an Entry joined with the name & location of its school.
type EntryDetail struct {
	Entry
	PlaceName  string `json:"place_name"`
	PlaceCity  string `json:"place_city"`
	PlaceState string `json:"place_state"`
}

type NewEntry struct {
	PlaceID  string   `json:"place_id" validate:"required,uuid"`
	Category Category `json:"category" validate:"required,category"`
	Notes    string   `json:"notes" validate:"max=5000"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.PlaceID = core.CleanString(ne.PlaceID, true /* lower */)
	ne.Category = Category(core.CleanString(string(ne.Category), true /* lower */))
	ne.Notes = core.CleanString(ne.Notes)
	return validate.Struct(ne)
}

// UpdateEntry changes the given fields of an Entry; nil fields are left untouched.
type UpdateEntry struct {
	ID                string    `json:"id" validate:"required"`
	ApplicationStatus *Status   `json:"application_status" validate:"omitempty,appstatus"`
	Notes             *string   `json:"notes" validate:"omitempty,max=5000"`
	Category          *Category `json:"category" validate:"omitempty,category"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	ue.ID = core.CleanString(ue.ID, true /* lower */)
	if ue.ApplicationStatus != nil {
		status := Status(core.CleanString(string(*ue.ApplicationStatus), true /* lower */))
		ue.ApplicationStatus = &status
	}
	if ue.Category != nil {
		cat := Category(core.CleanString(string(*ue.Category), true /* lower */))
		ue.Category = &cat
	}
	if ue.Notes != nil {
		notes := core.CleanString(*ue.Notes)
		ue.Notes = &notes
	}
	return validate.Struct(ue)
}

// CreatedEntry is returned when a school is added to a list.
type CreatedEntry struct {
	ID             string `json:"id"`
	AcceptanceOdds int    `json:"acceptance_odds"`
}
