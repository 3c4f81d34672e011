// Package synadart implements a layered feed-forward neural network
// trained by backpropagation.
package synadart

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/emicklei/dot"
	. "github.com/stevegt/goadapt"

	"github.com/WordCollector/synadart/shape"
)

// DefaultLearningRate is the learning rate layers are given when a
// network is built without an explicit rate.
const DefaultLearningRate = 0.3

// Neuron holds the weights and bias for one node in a layer.
type Neuron struct {
	Weights        []float64 // weights for the inputs of this neuron
	Bias           float64   // bias for this neuron
	ActivationName string    // name of the activation function
	activation     func(float64) float64
	activationD1   func(float64) float64
	sum            float64 // pre-activation sum of the most recent forward pass
	output         float64 // output of the most recent forward pass
}

// newNeuron creates a new neuron with the named activation function.
func newNeuron(activationName string) (n *Neuron) {
	n = &Neuron{ActivationName: activationName}
	return
}

// setActivation sets the activation function and its derivative.
func (n *Neuron) setActivation(name string) {
	n.ActivationName = name
	n.activation, n.activationD1 = activationFuncs(name)
}

// init wires the activation functions and creates a weight slot for
// each input.
func (n *Neuron) init(inputCount int) {
	n.setActivation(n.ActivationName)
	// allow for test cases to pre-set weights by only creating the
	// weights slice if it's not already set
	if n.Weights == nil {
		n.Weights = make([]float64, inputCount)
	}
}

// process executes the forward function of a neuron and returns its
// output value.  The pre-activation sum is cached for the backward
// pass.
func (n *Neuron) process(inputs []float64) (output float64) {
	Assert(len(inputs) == len(n.Weights), "input count mismatch")
	sum := n.Bias
	for i, input := range inputs {
		sum += input * n.Weights[i]
	}
	n.sum = sum
	n.output = n.activation(sum)
	return n.output
}

// adjust applies one gradient step to the weights and bias of this
// neuron for the given downstream error.
func (n *Neuron) adjust(err float64, inputs []float64, rate float64) {
	Assert(!math.IsNaN(err), "error is NaN")
	delta := err * n.activationD1(n.sum)
	for j, input := range inputs {
		n.Weights[j] += rate * delta * input
	}
	n.Bias += rate * delta
}

// setWeights sets the weights of this neuron to the given values.
func (n *Neuron) setWeights(weights []float64) {
	Assert(len(n.Weights) == len(weights))
	copy(n.Weights, weights)
}

func (n *Neuron) randomize() {
	for i := range n.Weights {
		n.Weights[i] = rand.Float64()*2 - 1
	}
	n.Bias = rand.Float64()*2 - 1
}

// Layer represents a layer of neurons.  The layer at index 0 of a
// network is the input layer: it carries no parameters, hands the
// network inputs through unchanged, and never takes part in the
// backward pass.
type Layer struct {
	Neurons      []*Neuron `json:",omitempty"`
	LearningRate float64   `json:",omitempty"`
	Input        bool      `json:",omitempty"` // input-layer role
	Width        int       `json:",omitempty"` // input layer only
	inputs       []float64 // inputs seen by the most recent Process call
}

// init wires each neuron to the given number of inputs.
func (l *Layer) init(inputCount int) {
	for _, neuron := range l.Neurons {
		neuron.init(inputCount)
	}
}

// Process executes the forward function of a layer and returns its
// output values.  The inputs are recorded for the backward pass.
func (l *Layer) Process(inputs []float64) (outputs []float64) {
	if l.Input {
		Assert(len(inputs) == l.Width, "input count mismatch")
		l.inputs = inputs
		return inputs
	}
	l.inputs = inputs
	outputs = make([]float64, len(l.Neurons))
	for i, neuron := range l.Neurons {
		outputs[i] = neuron.process(inputs)
	}
	return
}

// Propagate consumes the error signal arriving from the downstream
// layer, updates this layer's weights and biases, and returns the
// error signal for the upstream layer.  Upstream errors are computed
// from the pre-update weights.
func (l *Layer) Propagate(errs []float64) (upstream []float64) {
	Assert(!l.Input, "input layer cannot propagate")
	Assert(len(errs) == len(l.Neurons), "error count mismatch")
	upstream = make([]float64, len(l.inputs))
	for i, neuron := range l.Neurons {
		delta := errs[i] * neuron.activationD1(neuron.sum)
		for j, weight := range neuron.Weights {
			upstream[j] += weight * delta
		}
	}
	for i, neuron := range l.Neurons {
		neuron.adjust(errs[i], l.inputs, l.LearningRate)
	}
	return
}

// randomize sets the weights and biases to random values.
func (l *Layer) randomize() {
	for _, neuron := range l.Neurons {
		neuron.randomize()
	}
}

// setWeights sets the weights of all neurons to the given values.
func (l *Layer) setWeights(weights [][]float64) {
	Assert(len(l.Neurons) == len(weights))
	for i, neuron := range l.Neurons {
		neuron.setWeights(weights[i])
	}
}

// setBiases accepts a slice of bias values and sets the bias of each
// neuron to the corresponding value.
func (l *Layer) setBiases(biases []float64) {
	Assert(len(l.Neurons) == len(biases))
	for i, neuron := range l.Neurons {
		neuron.Bias = biases[i]
	}
}

// Network represents a feed-forward neural network.  Layers[0] is the
// input layer; the remaining layers carry the parameters.
type Network struct {
	Name   string
	Layers []*Layer
	lock   sync.Mutex
}

// New creates a new network with the given input width and layer
// sizes.  Each layer defaults to sigmoid activation and
// DefaultLearningRate; the defaults can be overridden with
// SetActivation() and SetLearningRate().  Weights start randomized.
func New(name string, inputCount int, layerSizes ...int) (net *Network) {
	Assert(inputCount > 0, "input count must be positive")
	Assert(len(layerSizes) > 0, "no layers")
	net = &Network{Name: name}
	net.Layers = append(net.Layers, &Layer{Input: true, Width: inputCount})
	for _, size := range layerSizes {
		Assert(size > 0, "layer size must be positive")
		layer := &Layer{LearningRate: DefaultLearningRate}
		for i := 0; i < size; i++ {
			layer.Neurons = append(layer.Neurons, newNeuron("sigmoid"))
		}
		net.Layers = append(net.Layers, layer)
	}
	net.init()
	net.Randomize()
	return
}

// FromShape builds a randomized network from a parsed shape.
func FromShape(s *shape.Shape) (net *Network) {
	Assert(s.Inputs > 0, "input count must be positive")
	Assert(len(s.LayerShapes) > 0, "no layers")
	net = &Network{Name: s.Name}
	net.Layers = append(net.Layers, &Layer{Input: true, Width: s.Inputs})
	for _, ls := range s.LayerShapes {
		layer := &Layer{LearningRate: DefaultLearningRate}
		for _, ns := range ls.Nodes {
			layer.Neurons = append(layer.Neurons, newNeuron(ns.ActivationName))
		}
		net.Layers = append(net.Layers, layer)
	}
	net.init()
	net.Randomize()
	return
}

// ParseShape builds a randomized network from a shape string, e.g.
// "(xor 2 (sigmoid 4) (sigmoid 1))".
func ParseShape(txt string) (net *Network, err error) {
	defer Return(&err)
	s, err := shape.Parse(txt)
	Ck(err)
	net = FromShape(s)
	return
}

// ShapeString returns the network's shape string.
func (n *Network) ShapeString() string {
	s := &shape.Shape{Name: n.Name, Inputs: n.Layers[0].Width}
	for _, layer := range n.Layers[1:] {
		ls := &shape.LayerShape{}
		for _, neuron := range layer.Neurons {
			ls.Nodes = append(ls.Nodes, &shape.NodeShape{ActivationName: neuron.ActivationName})
		}
		s.LayerShapes = append(s.LayerShapes, ls)
	}
	return s.String()
}

// init connects the layers, giving each neuron a weight slot per
// upstream value.
func (n *Network) init() {
	Assert(len(n.Layers) > 1, "network needs an input layer and at least one more")
	input := n.Layers[0]
	Assert(input.Input, "layer 0 is not the input layer")
	Assert(input.Width > 0, "input count must be positive")
	width := input.Width
	for _, layer := range n.Layers[1:] {
		Assert(!layer.Input, "only layer 0 may be the input layer")
		layer.init(width)
		width = len(layer.Neurons)
	}
}

// Process executes the forward function of the network and returns
// its output values.
func (n *Network) Process(inputs []float64) (outputs []float64) {
	n.lock.Lock()
	defer n.lock.Unlock()
	outputs = inputs
	for _, layer := range n.Layers {
		outputs = layer.Process(outputs)
	}
	return
}

// TrainableLayers returns the layers that take part in the backward
// pass: every layer except the input layer, in forward order.
func (n *Network) TrainableLayers() (layers []Propagator) {
	for _, layer := range n.Layers[1:] {
		layers = append(layers, layer)
	}
	return
}

// SetActivation sets the activation function for the given layer and
// neuron.  The layerNum and neuronNum args are 0-based network layer
// indices; layer 0 is the input layer and has no activation.  If
// layerNum is -1 the activation function is set for all layers.  If
// neuronNum is -1 it is set for all neurons in the given layer.
func (n *Network) SetActivation(layerNum, neuronNum int, activation string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	if layerNum < 0 {
		for _, layer := range n.Layers[1:] {
			for _, neuron := range layer.Neurons {
				neuron.setActivation(activation)
			}
		}
		return
	}
	Assert(layerNum > 0 && layerNum < len(n.Layers), "no such layer: %d", layerNum)
	layer := n.Layers[layerNum]
	if neuronNum < 0 {
		for _, neuron := range layer.Neurons {
			neuron.setActivation(activation)
		}
		return
	}
	Assert(neuronNum < len(layer.Neurons))
	layer.Neurons[neuronNum].setActivation(activation)
}

// SetLearningRate sets the learning rate of every trainable layer.
func (n *Network) SetLearningRate(rate float64) {
	n.lock.Lock()
	defer n.lock.Unlock()
	for _, layer := range n.Layers[1:] {
		layer.LearningRate = rate
	}
}

// Randomize sets the weights and biases of all neurons to random
// values.
func (n *Network) Randomize() {
	n.lock.Lock()
	defer n.lock.Unlock()
	for _, layer := range n.Layers[1:] {
		layer.randomize()
	}
}

// Save serializes the network configuration, weights, and biases to a
// JSON string.
func (n *Network) Save() (out string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	buf, err := json.MarshalIndent(n, "", "  ")
	Ck(err)
	out = string(buf)
	return
}

// Load deserializes a network configuration, weights, and biases from
// a JSON string.
func Load(txt string) (n *Network, err error) {
	defer Return(&err)
	n = &Network{}
	err = json.Unmarshal([]byte(txt), n)
	Ck(err)
	n.init()
	return
}

// Clone returns a deep copy of the network, giving it a new name.
func (n *Network) Clone(newName string) (clone *Network) {
	txt := n.Save()
	clone, err := Load(txt)
	Ck(err)
	clone.Name = newName
	return
}

// Validate checks the network against the given samples, ensuring
// each output is within maxCost of the expected output.
func (n *Network) Validate(inputs, expected [][]float64, maxCost float64) (err error) {
	Assert(len(inputs) == len(expected), "sample count mismatch")
	for i, input := range inputs {
		outputs := n.Process(input)
		cost := 0.0
		for j, output := range outputs {
			cost += math.Abs(output - expected[i][j])
		}
		if cost > maxCost {
			return fmt.Errorf("cost too high for inputs: %v, expected: %v, got: %v", input, expected[i], outputs)
		}
	}
	return
}

// Graph renders the network topology as a graphviz graph, one node
// per neuron, edges labeled with the current weights.
func (n *Network) Graph() (g *dot.Graph) {
	n.lock.Lock()
	defer n.lock.Unlock()
	g = dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")
	var prev []dot.Node
	for i, layer := range n.Layers {
		var cur []dot.Node
		if layer.Input {
			for j := 0; j < layer.Width; j++ {
				cur = append(cur, g.Node(Spf("in%d", j)))
			}
			prev = cur
			continue
		}
		for j, neuron := range layer.Neurons {
			node := g.Node(Spf("l%dn%d", i, j)).Attr("label", neuron.ActivationName)
			for k, upstream := range prev {
				g.Edge(upstream, node).Attr("label", Spf("%.3f", neuron.Weights[k]))
			}
			cur = append(cur, node)
		}
		prev = cur
	}
	return
}
