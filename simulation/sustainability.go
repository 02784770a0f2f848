package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/traits"
)

// ErrUnsustainable reports a population below its sustainability minimum.
var ErrUnsustainable = errors.New("population below sustainability minimum")

// CheckSustainability returns nil when every species and the total living
// count meet their minimums, and a joined error naming each shortfall otherwise.
func CheckSustainability(s PopulationSummary, c config.SustainabilityConfig) error {
	var errs []error
	for _, sp := range traits.All {
		if got, want := s.Species[sp].Living, c.MinLiving.Get(sp); got < want {
			errs = append(errs, fmt.Errorf("%w: tick %d: %s %d < %d", ErrUnsustainable, s.Tick, sp, got, want))
		}
	}
	if s.TotalLiving < c.MinTotal {
		errs = append(errs, fmt.Errorf("%w: tick %d: total %d < %d", ErrUnsustainable, s.Tick, s.TotalLiving, c.MinTotal))
	}
	return errors.Join(errs...)
}

// SustainabilityMargin is the worst relative headroom over the minimums:
// (living - min) / min, minimised over the species and the total. Negative
// means a minimum was violated.
func SustainabilityMargin(s PopulationSummary, c config.SustainabilityConfig) float64 {
	margin := math.Inf(1)
	check := func(got, want int) {
		if want <= 0 {
			return
		}
		margin = math.Min(margin, float64(got-want)/float64(want))
	}
	for _, sp := range traits.All {
		check(s.Species[sp].Living, c.MinLiving.Get(sp))
	}
	check(s.TotalLiving, c.MinTotal)
	if math.IsInf(margin, 1) {
		return 0
	}
	return margin
}
