package synadart

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/stevegt/goadapt"
)

// stubLayer records every error signal handed to it and passes a
// halved signal upstream.
type stubLayer struct {
	id    int
	calls [][]float64
	order *[]int
}

func (l *stubLayer) Propagate(errs []float64) []float64 {
	l.calls = append(l.calls, append([]float64(nil), errs...))
	*l.order = append(*l.order, l.id)
	out := make([]float64, len(errs))
	for i, e := range errs {
		out[i] = e / 2
	}
	return out
}

// stubNet is a Trainable with canned outputs that records the inputs
// it is asked to process.  A nonzero delay slows each forward pass.
type stubNet struct {
	outputs []float64
	inputs  [][]float64
	layers  []Propagator
	delay   time.Duration
}

func (n *stubNet) Process(inputs []float64) []float64 {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	n.inputs = append(n.inputs, append([]float64(nil), inputs...))
	return n.outputs
}

func (n *stubNet) TrainableLayers() []Propagator {
	return n.layers
}

func newStubNet(outputs []float64, layerCount int) (net *stubNet, stubs []*stubLayer, order *[]int) {
	order = &[]int{}
	net = &stubNet{outputs: outputs}
	for i := 0; i < layerCount; i++ {
		stub := &stubLayer{id: i, order: order}
		stubs = append(stubs, stub)
		net.layers = append(net.layers, stub)
	}
	return
}

func newQuietTrainer(net Trainable) (t *Trainer, hook *test.Hook) {
	t = NewTrainer(net)
	t.Log, hook = test.NewNullLogger()
	return
}

func TestPropagateBackwards(t *testing.T) {
	net, stubs, order := newStubNet([]float64{0.8, 0.1}, 3)
	trainer, _ := newQuietTrainer(net)

	trainer.PropagateBackwards([]float64{1, 2}, []float64{1.0, 0.0})

	// forward pass ran once on the sample
	Tassert(t, len(net.inputs) == 1, net.inputs)
	// layers visited in strict reverse order, none skipped
	Tassert(t, len(*order) == 3, *order)
	for i, id := range []int{2, 1, 0} {
		Tassert(t, (*order)[i] == id, *order)
	}
	// initial error signal is expected - observed
	last := stubs[2].calls[0]
	Tassert(t, math.Abs(last[0]-0.2) < 1e-12, last)
	Tassert(t, math.Abs(last[1]-(-0.1)) < 1e-12, last)
	// each layer consumes the signal produced by its downstream
	// neighbor
	mid := stubs[1].calls[0]
	Tassert(t, math.Abs(mid[0]-0.1) < 1e-12, mid)
	first := stubs[0].calls[0]
	Tassert(t, math.Abs(first[0]-0.05) < 1e-12, first)
}

func TestTrainCounts(t *testing.T) {
	inputs := [][]float64{{1}, {2}, {3}}
	expected := [][]float64{{0}, {0}, {0}}

	net, stubs, _ := newStubNet([]float64{0}, 2)
	trainer, _ := newQuietTrainer(net)
	err := trainer.Train(inputs, expected, 4, true)
	Tassert(t, err == nil, "train: %v", err)
	// iterations x samples forward passes, in input order each time
	Tassert(t, len(net.inputs) == 12, len(net.inputs))
	for i, in := range net.inputs {
		Tassert(t, in[0] == inputs[i%3][0], "call %d: %v", i, in)
	}
	Tassert(t, len(stubs[0].calls) == 12, len(stubs[0].calls))
	Tassert(t, len(stubs[1].calls) == 12, len(stubs[1].calls))

	// a single iteration visits each sample exactly once
	net, _, _ = newStubNet([]float64{0}, 2)
	trainer, _ = newQuietTrainer(net)
	err = trainer.Train(inputs, expected, 1, true)
	Tassert(t, err == nil, "train: %v", err)
	Tassert(t, len(net.inputs) == 3, len(net.inputs))
}

func TestTrainGuards(t *testing.T) {
	net, _, _ := newStubNet([]float64{0}, 2)
	trainer, hook := newQuietTrainer(net)

	// either sample list empty is fatal-class
	err := trainer.Train(nil, [][]float64{{0}}, 1, false)
	Tassert(t, errors.Is(err, ErrNoTrainingData), "err: %v", err)
	err = trainer.Train([][]float64{{0}}, nil, 1, false)
	Tassert(t, errors.Is(err, ErrNoTrainingData), "err: %v", err)
	err = trainer.Train(nil, nil, 1, false)
	Tassert(t, errors.Is(err, ErrNoTrainingData), "err: %v", err)

	// unequal sample lists
	err = trainer.Train([][]float64{{0}, {1}, {2}}, [][]float64{{0}, {1}}, 1, false)
	Tassert(t, errors.Is(err, ErrSampleCountMismatch), "err: %v", err)

	// iteration count below one
	err = trainer.Train([][]float64{{0}}, [][]float64{{0}}, 0, false)
	Tassert(t, errors.Is(err, ErrInvalidIterations), "err: %v", err)

	// no guard performed any sample work
	Tassert(t, len(net.inputs) == 0, net.inputs)
	// every guard logged at severe level
	Tassert(t, len(hook.Entries) == 5, hook.Entries)
	for _, entry := range hook.Entries {
		Tassert(t, entry.Level == logrus.ErrorLevel, entry)
	}
}

func TestProgressReports(t *testing.T) {
	inputs := [][]float64{{1}}
	expected := [][]float64{{0}}

	// verbose mode reports at iterations 0, 500, 1000
	net, _, _ := newStubNet([]float64{0}, 1)
	trainer, hook := newQuietTrainer(net)
	err := trainer.Train(inputs, expected, 1001, false)
	Tassert(t, err == nil, "train: %v", err)
	Tassert(t, len(hook.Entries) == 3, len(hook.Entries))
	for _, entry := range hook.Entries {
		Tassert(t, entry.Level == logrus.InfoLevel, entry)
	}

	// quiet mode never reports
	hook.Reset()
	err = trainer.Train(inputs, expected, 1001, true)
	Tassert(t, err == nil, "train: %v", err)
	Tassert(t, len(hook.Entries) == 0, hook.Entries)
}

func TestProgressEta(t *testing.T) {
	inputs := [][]float64{{1}}
	expected := [][]float64{{0}}

	// an iteration taking 150ms with 8 iterations left extrapolates
	// to at least a second, so the report must not round the sub-second
	// iteration time down to zero before scaling it up
	net, _, _ := newStubNet([]float64{0}, 1)
	net.delay = 150 * time.Millisecond
	trainer, hook := newQuietTrainer(net)
	err := trainer.Train(inputs, expected, 8, false)
	Tassert(t, err == nil, "train: %v", err)
	Tassert(t, len(hook.Entries) == 1, len(hook.Entries))
	msg := hook.LastEntry().Message
	Tassert(t, strings.Contains(msg, "eta "), msg)
	Tassert(t, !strings.Contains(msg, "eta 0 "), msg)
}
