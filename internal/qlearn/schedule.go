package qlearn

import (
	"math"

	"github.com/vancomm/minesweeper-qlearning/internal/mines"
)

// EpsilonSchedule anneals exploration from Max towards Min:
//
//	epsilon(episode) = Min + (Max - Min) * exp(-DecayRate * episode)
type EpsilonSchedule struct {
	Max       float64 `mapstructure:"epsilon_max" json:"max"`
	Min       float64 `mapstructure:"epsilon_min" json:"min"`
	DecayRate float64 `mapstructure:"epsilon_decay" json:"decay_rate"`
}

func DefaultEpsilonSchedule() EpsilonSchedule {
	return EpsilonSchedule{Max: 1.0, Min: 0.05, DecayRate: 0.00001}
}

func ConstantEpsilon(epsilon float64) EpsilonSchedule {
	return EpsilonSchedule{Max: epsilon, Min: epsilon}
}

func (s EpsilonSchedule) At(episode int) float64 {
	return s.Min + (s.Max-s.Min)*math.Exp(-s.DecayRate*float64(episode))
}

func (s EpsilonSchedule) Validate() error {
	if s.Min < 0 || s.Max > 1 || s.Min > s.Max {
		return mines.NewConfigurationError(
			"epsilon bounds must satisfy 0 <= min <= max <= 1, got [%g, %g]", s.Min, s.Max,
		)
	}
	if s.DecayRate < 0 {
		return mines.NewConfigurationError("negative epsilon decay rate %g", s.DecayRate)
	}
	return nil
}
