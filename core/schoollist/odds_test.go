package schoollist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/user"
)

func stats(mcat int, gpa float64) user.Stats {
	return user.Stats{MCAT: null.IntFrom(mcat), GPA: null.Float64From(gpa)}
}

func metrics(mcatAvg, gpaAvg, rate float64) place.Metrics {
	return place.Metrics{
		MCATAvg:        null.Float64From(mcatAvg),
		GPAAvg:         null.Float64From(gpaAvg),
		AcceptanceRate: null.Float64From(rate),
	}
}

func TestEstimateOdds(t *testing.T) {
	tests := []struct {
		name    string
		stats   user.Stats
		metrics place.Metrics
		want    int
		wantErr error
	}{
		{name: "above average", stats: stats(520, 3.9), metrics: metrics(510, 3.5, 5), want: 20},
		{name: "below average clamps to min", stats: stats(500, 3.0), metrics: metrics(520, 3.8, 3), want: 1},
		{name: "far above average clamps to max", stats: stats(528, 4), metrics: metrics(472, 0, 90), want: 95},
		{name: "equal stats keep the acceptance rate", stats: stats(510, 3.5), metrics: metrics(510, 3.5, 7.4), want: 7},
		{name: "equal stats with zero rate", stats: stats(510, 3.5), metrics: metrics(510, 3.5, 0), want: 1},
		{name: "equal stats with rate above max", stats: stats(510, 3.5), metrics: metrics(510, 3.5, 100), want: 95},
		{name: "default metrics", stats: stats(510, 3.7), metrics: place.Metrics{}, want: 26},
		{name: "no mcat", stats: user.Stats{GPA: null.Float64From(4)}, metrics: metrics(472, 0, 90), want: 0},
		{name: "no gpa", stats: user.Stats{MCAT: null.IntFrom(528)}, metrics: metrics(472, 0, 90), want: 0},
		{name: "no stats", metrics: metrics(510, 3.5, 5), want: 0},
		{name: "nan gpa", stats: stats(510, math.NaN()), metrics: metrics(510, 3.5, 5), wantErr: ErrInvalidOddsInput},
		{name: "inf rate", stats: stats(510, 3.5), metrics: metrics(510, 3.5, math.Inf(1)), wantErr: ErrInvalidOddsInput},
		{name: "nan with no stats", stats: user.Stats{MCAT: null.IntFrom(510)}, metrics: metrics(math.NaN(), 3.5, 5), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateOdds(tt.stats, tt.metrics)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateOdds_range(t *testing.T) {
	schools := []place.Metrics{
		metrics(472, 0, 0),
		metrics(510, 3.5, 5),
		metrics(528, 4, 100),
		{},
	}
	for mcat := 472; mcat <= 528; mcat += 4 {
		for gpa := 0.0; gpa <= 4; gpa += .25 {
			for _, m := range schools {
				odds, err := EstimateOdds(stats(mcat, gpa), m)
				require.NoError(t, err)
				if odds < MinOdds || odds > MaxOdds {
					t.Fatalf("EstimateOdds(%d, %.2f, %+v) = %d, want in [%d, %d]", mcat, gpa, m, odds, MinOdds, MaxOdds)
				}

				again, _ := EstimateOdds(stats(mcat, gpa), m)
				if again != odds {
					t.Fatalf("EstimateOdds is not idempotent: %d != %d", again, odds)
				}
			}
		}
	}
}
