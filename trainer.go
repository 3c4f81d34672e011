package synadart

import (
	"errors"
	"time"

	"github.com/hako/durafmt"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Guard errors returned by Train.  ErrNoTrainingData is the
// fatal-class member of the taxonomy: a caller that cannot proceed
// without data may choose to terminate on it, while the other two are
// recoverable with corrected arguments.
var (
	ErrNoTrainingData      = errors.New("no training data supplied")
	ErrSampleCountMismatch = errors.New("inputs and expected outputs differ in length")
	ErrInvalidIterations   = errors.New("iteration count must be at least 1")
)

// ReportInterval is the number of iterations between progress reports
// when training in verbose mode.
const ReportInterval = 500

// Propagator is the contract a trainable layer satisfies: consume the
// error signal arriving from the downstream layer, update internal
// parameters, and return the error signal for the upstream layer.
type Propagator interface {
	Propagate(errs []float64) []float64
}

// Trainable is the capability a network exposes to the trainer: a
// forward pass, and the ordered layers that take part in the backward
// pass.  The input layer is not among them.
type Trainable interface {
	Process(inputs []float64) (outputs []float64)
	TrainableLayers() []Propagator
}

// Trainer adjusts a network's parameters with the backpropagation
// algorithm so that the network's output converges toward the
// expected output.  It holds no state of its own across calls; the
// parameters live in the network's layers.
type Trainer struct {
	Net Trainable
	Log *logrus.Logger
}

// NewTrainer creates a trainer for the given network, logging to the
// logrus standard logger.
func NewTrainer(net Trainable) (t *Trainer) {
	t = &Trainer{Net: net, Log: logrus.StandardLogger()}
	return
}

// PropagateBackwards runs one sample through the network: a forward
// pass, the element-wise output error, then a fold over the trainable
// layers in reverse order, each layer handing its upstream error
// signal to its upstream neighbor.  The signal returned by the first
// trainable layer is discarded.
func (t *Trainer) PropagateBackwards(input, expected []float64) {
	observed := t.Net.Process(input)
	errs := make([]float64, len(expected))
	floats.SubTo(errs, expected, observed)
	layers := t.Net.TrainableLayers()
	for i := len(layers) - 1; i >= 0; i-- {
		errs = layers[i].Propagate(errs)
	}
}

// Train runs iterations of backpropagation over the sample set.
// Samples are visited in the order given, identically every
// iteration.  Unless quiet is set, a progress line with an ETA is
// logged every ReportInterval iterations, the ETA extrapolated from
// the elapsed time of the iteration that produced it.
//
// Train validates its arguments before any sample work and returns
// one of the guard errors if they do not hold; sample-level shape
// mismatches are not caught here and surface from the network's own
// primitives.
func (t *Trainer) Train(inputs, expected [][]float64, iterations int, quiet bool) error {
	if len(inputs) == 0 || len(expected) == 0 {
		t.Log.Error("training failed: no training data supplied")
		return ErrNoTrainingData
	}
	if len(inputs) != len(expected) {
		t.Log.Errorf("training failed: %d inputs for %d expected outputs", len(inputs), len(expected))
		return ErrSampleCountMismatch
	}
	if iterations < 1 {
		t.Log.Errorf("training failed: %d is not a valid iteration count", iterations)
		return ErrInvalidIterations
	}

	if quiet {
		for iteration := 0; iteration < iterations; iteration++ {
			for i := range inputs {
				t.PropagateBackwards(inputs[i], expected[i])
			}
		}
		return nil
	}

	for iteration := 0; iteration < iterations; iteration++ {
		start := time.Now()
		for i := range inputs {
			t.PropagateBackwards(inputs[i], expected[i])
		}
		if iteration%ReportInterval == 0 {
			// time spent on this iteration extrapolated over the
			// iterations still to run, in whole seconds
			eta := (time.Since(start) * time.Duration(iterations-iteration)).Truncate(time.Second)
			t.Log.Infof("iteration %d/%d, eta %s", iteration, iterations, durafmt.Parse(eta))
		}
	}
	return nil
}
