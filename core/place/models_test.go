package place

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/medatlas/medatlas/core"
)

func TestMetrics_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		want    Metrics
		wantErr bool
	}{
		{name: "null", src: nil, want: Metrics{}},
		{name: "empty object", src: []byte(`{}`), want: Metrics{}},
		{
			name: "bytes",
			src:  []byte(`{"mcat_avg": 515.5, "gpa_avg": 3.8, "acceptance_rate": null}`),
			want: Metrics{MCATAvg: null.Float64From(515.5), GPAAvg: null.Float64From(3.8)},
		},
		{name: "string", src: `{"acceptance_rate": 4.2}`, want: Metrics{AcceptanceRate: null.Float64From(4.2)}},
		{name: "unknown key", src: []byte(`{"mcat": 515}`), wantErr: true},
		{name: "mistyped value", src: []byte(`{"gpa_avg": "high"}`), wantErr: true},
		{name: "unsupported source", src: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Metrics{GPAAvg: null.Float64From(1)}
			err := m.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestMetrics_Value(t *testing.T) {
	val, err := Metrics{MCATAvg: null.Float64From(510)}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"mcat_avg": 510, "gpa_avg": null, "acceptance_rate": null}`, val.(string))

	var m Metrics
	require.NoError(t, m.Scan(val))
	assert.Equal(t, Metrics{MCATAvg: null.Float64From(510)}, m)
}

func TestTags(t *testing.T) {
	val, err := Tags(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", val)

	var tags Tags
	require.NoError(t, tags.Scan([]byte(`["research", "urban"]`)))
	assert.Equal(t, Tags{"research", "urban"}, tags)

	require.NoError(t, tags.Scan(nil))
	assert.Equal(t, Tags{}, tags)

	assert.Error(t, tags.Scan([]byte(`{"research": true}`)))
	assert.Error(t, tags.Scan(1.5))
}

func Test_cleanTags(t *testing.T) {
	got := cleanTags([]string{" Research ", "research", "", "Rural Care", "URBAN"})
	assert.Equal(t, []string{"research", "rural care", "urban"}, got)
	assert.Equal(t, []string{}, cleanTags(nil))
}

func TestNewPlace_Validate_metrics(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	tests := []struct {
		name    string
		metrics Metrics
		wantTag string
	}{
		{name: "no metrics"},
		{name: "valid", metrics: Metrics{MCATAvg: null.Float64From(511.5), GPAAvg: null.Float64From(3.7), AcceptanceRate: null.Float64From(4)}},
		{name: "zero rate", metrics: Metrics{AcceptanceRate: null.Float64From(0)}},
		{name: "zero mcat avg", metrics: Metrics{MCATAvg: null.Float64From(0)}, wantTag: "min"},
		{name: "mcat avg too high", metrics: Metrics{MCATAvg: null.Float64From(600)}, wantTag: "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np := NewPlace{Name: "Mayo", Type: TypeMD, Metrics: tt.metrics}
			err := np.Validate(validate)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "unexpected error: %v", err)
			require.Len(t, verrs, 1)
			assert.Equal(t, "mcat_avg", verrs[0].Field())
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
		})
	}
}
