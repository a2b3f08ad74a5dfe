package sweep

import (
	"fmt"
	"iter"
)

// Axis names used by the sweep. The order here is the nesting order of the
// enumeration, outermost first.
const (
	AxisDataset      = "dataset"
	AxisActivation   = "activation"
	AxisInitStrategy = "init_strategy"
)

// Axis is one enumerable dimension of the sweep.
type Axis struct {
	Name   string
	Values []string
}

// Len returns the number of tokens on the axis.
func (a Axis) Len() int { return len(a.Values) }

// RunConfiguration is a single point in the sweep's configuration space.
type RunConfiguration struct {
	Dataset      string
	Activation   string
	InitStrategy string
	Seed         int64
}

// String renders the configuration identity for logs.
func (c RunConfiguration) String() string {
	return fmt.Sprintf("%s/%s/%s@%d", c.Dataset, c.Activation, c.InitStrategy, c.Seed)
}

// RunResult is the numeric outcome of one successfully executed artifact.
type RunResult struct {
	FinalEpoch   int
	FinalLoss    float64
	FinalAcc     float64
	LogPath      string
	ParamColumns int
}

// Space is the Cartesian product of the dataset, activation and init-strategy
// axes with a fixed seed. A Space is immutable after construction and safe
// for concurrent use.
type Space struct {
	datasets   Axis
	activation Axis
	strategies Axis
	seed       int64
}

// NewSpace builds a configuration space. The slices are copied so later
// mutation by the caller does not change the enumeration.
func NewSpace(datasets, activations, strategies []string, seed int64) *Space {
	return &Space{
		datasets:   Axis{Name: AxisDataset, Values: append([]string(nil), datasets...)},
		activation: Axis{Name: AxisActivation, Values: append([]string(nil), activations...)},
		strategies: Axis{Name: AxisInitStrategy, Values: append([]string(nil), strategies...)},
		seed:       seed,
	}
}

// Axes returns the axes in nesting order.
func (s *Space) Axes() []Axis {
	return []Axis{s.datasets, s.activation, s.strategies}
}

// Seed returns the seed shared by every configuration.
func (s *Space) Seed() int64 { return s.seed }

// Len returns the number of configurations in the space.
func (s *Space) Len() int {
	return s.datasets.Len() * s.activation.Len() * s.strategies.Len()
}

// At returns the i-th configuration in enumeration order.
func (s *Space) At(i int) (RunConfiguration, error) {
	if i < 0 || i >= s.Len() {
		return RunConfiguration{}, fmt.Errorf("configuration index %d out of range [0, %d)", i, s.Len())
	}
	nAct, nStrat := s.activation.Len(), s.strategies.Len()
	return RunConfiguration{
		Dataset:      s.datasets.Values[i/(nAct*nStrat)],
		Activation:   s.activation.Values[(i/nStrat)%nAct],
		InitStrategy: s.strategies.Values[i%nStrat],
		Seed:         s.seed,
	}, nil
}

// All yields every configuration with its enumeration index. Each call starts
// a fresh pass over the space.
func (s *Space) All() iter.Seq2[int, RunConfiguration] {
	return func(yield func(int, RunConfiguration) bool) {
		i := 0
		for _, ds := range s.datasets.Values {
			for _, act := range s.activation.Values {
				for _, strat := range s.strategies.Values {
					cfg := RunConfiguration{Dataset: ds, Activation: act, InitStrategy: strat, Seed: s.seed}
					if !yield(i, cfg) {
						return
					}
					i++
				}
			}
		}
	}
}

// Configurations materializes the full enumeration.
func (s *Space) Configurations() []RunConfiguration {
	out := make([]RunConfiguration, 0, s.Len())
	for _, cfg := range s.All() {
		out = append(out, cfg)
	}
	return out
}
