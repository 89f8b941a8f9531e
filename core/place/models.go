package place

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medatlas/medatlas/core"
)

// Types
const (
	TypeMD        = "md"
	TypeDO        = "do"
	TypeCaribbean = "caribbean"
	TypeResidency = "residency"
)

var (
	Types = []string{TypeMD, TypeDO, TypeCaribbean, TypeResidency}

	// OrderingFields lists the fields places can be ordered by.
	OrderingFields = []string{"name", "state", "rating_avg", "created_at"}

	errMetricsSource = errors.New("unsupported metrics source")
	errTagsSource    = errors.New("unsupported tags source")
)

// Metrics are the published admission averages of a school.
type Metrics struct {
	MCATAvg        null.Float64 `json:"mcat_avg" validate:"omitempty,min=472,max=528"`
	GPAAvg         null.Float64 `json:"gpa_avg" validate:"omitempty,min=0,max=4"`
	AcceptanceRate null.Float64 `json:"acceptance_rate" validate:"omitempty,min=0,max=100"`
}

// Value implements the driver.Valuer interface.
// JSON is sent as text; lib/pq would encode []byte as bytea.
func (m Metrics) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface.
// Unknown keys or mistyped values are reported as errors.
func (m *Metrics) Scan(src interface{}) error {
	data, err := jsonSource(src, errMetricsSource)
	if err != nil {
		return err
	}
	*m = Metrics{}
	if data == nil {
		return nil
	}
	return errors.Wrap(strictUnmarshal(data, m), "decoding place metrics")
}

// Tags is a list of labels stored as a JSON array.
type Tags []string

// Value implements the driver.Valuer interface.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (t *Tags) Scan(src interface{}) error {
	data, err := jsonSource(src, errTagsSource)
	if err != nil {
		return err
	}
	*t = Tags{}
	if data == nil {
		return nil
	}
	return errors.Wrap(strictUnmarshal(data, t), "decoding place tags")
}

func jsonSource(src interface{}, errUnsupported error) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errUnsupported
	}
}

func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type Place struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Website     string    `json:"website"`
	Description string    `json:"description"`
	Tags        Tags      `json:"tags"`
	Metrics     Metrics   `json:"metrics"`
	RatingAvg   float64   `json:"rating_avg"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewPlace contains information needed to create a new Place.
type NewPlace struct {
	Name        string   `json:"name" validate:"required"`
	Type        string   `json:"type" validate:"required,placetype"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Country     string   `json:"country"`
	Website     string   `json:"website" validate:"omitempty,url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Metrics     Metrics  `json:"metrics"`
}

func (np *NewPlace) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Type = core.CleanString(np.Type, true /* lower */)
	np.City = core.CleanString(np.City)
	np.State = core.CleanString(np.State)
	np.Country = core.CleanString(np.Country)
	np.Website = core.CleanString(np.Website)
	np.Tags = cleanTags(np.Tags)
	return validate.Struct(np)
}

// UpdatePlace replaces the editable fields of a Place.
type UpdatePlace NewPlace

func (up *UpdatePlace) Validate(validate *validator.Validate) error {
	return (*NewPlace)(up).Validate(validate)
}

type QueryFilter struct {
	Search string `query:"search"`
	Type   string `query:"type"`
	State  string `query:"state"`
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true /* lower */)
	f.Type = core.CleanString(f.Type, true /* lower */)
	f.State = core.CleanString(f.State)
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = core.CleanString(tag, true /* lower */)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		cleaned = append(cleaned, tag)
	}
	return cleaned
}
