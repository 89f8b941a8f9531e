package schoollist

import (
	"math"

	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/user"
)

const (
	// fallbacks for schools without published metrics
	defaultMCATAvg        = 500.0
	defaultGPAAvg         = 3.0
	defaultAcceptanceRate = 5.0

	mcatScale  = 28.0
	gpaScale   = 1.0
	oddsWeight = 20.0

	MinOdds = 1
	MaxOdds = 95
)

// ErrInvalidOddsInput is returned when a stat or metric is NaN or infinite.
var ErrInvalidOddsInput = errors.New("invalid odds input")

// EstimateOdds returns the heuristic acceptance odds (percent) of a user with stats at a school
// with metrics. It returns 0 when the user's MCAT or GPA is unknown, otherwise a value in [MinOdds, MaxOdds].
func EstimateOdds(stats user.Stats, metrics place.Metrics) (int, error) {
	if !stats.MCAT.Valid || !stats.GPA.Valid {
		return 0, nil
	}

	mcat := float64(stats.MCAT.Int)
	gpa := stats.GPA.Float64
	mcatAvg := metrics.MCATAvg.Float64
	if !metrics.MCATAvg.Valid {
		mcatAvg = defaultMCATAvg
	}
	gpaAvg := metrics.GPAAvg.Float64
	if !metrics.GPAAvg.Valid {
		gpaAvg = defaultGPAAvg
	}
	rate := metrics.AcceptanceRate.Float64
	if !metrics.AcceptanceRate.Valid {
		rate = defaultAcceptanceRate
	}

	for _, v := range [...]float64{gpa, mcatAvg, gpaAvg, rate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrInvalidOddsInput
		}
	}

	mcatDiff := (mcat - mcatAvg) / mcatScale
	gpaDiff := (gpa - gpaAvg) / gpaScale
	odds := rate + (mcatDiff+gpaDiff)*oddsWeight

	return int(math.Round(math.Max(MinOdds, math.Min(MaxOdds, odds)))), nil
}
