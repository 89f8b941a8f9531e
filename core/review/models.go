package review

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/medatlas/medatlas/core"
)

type Review struct {
	ID         string    `json:"id"`
	PlaceID    string    `json:"place_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

type NewReview struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"required,min=10,max=10000"`
}

func (nr *NewReview) Validate(validate *validator.Validate) error {
	nr.Title = core.CleanString(nr.Title)
	nr.Content = core.CleanString(nr.Content)
	return validate.Struct(nr)
}

// Page is the set of reviews of a place visible to a caller.
// Locked is set when reviews were withheld from a non premium caller.
type Page struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
	Locked  bool     `json:"locked"`
}
