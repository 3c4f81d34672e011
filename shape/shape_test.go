package shape

import (
	"testing"

	. "github.com/stevegt/goadapt"
)

func TestParse(t *testing.T) {
	txt := "(foo 3 (tanh 4) (sigmoid 5) (+(tanh 2)(relu 1)))"
	s, err := Parse(txt)
	Tassert(t, err == nil, err)
	Tassert(t, s.Name == "foo", "name %s", s.Name)
	Tassert(t, s.Inputs == 3, s.Inputs)
	Tassert(t, len(s.LayerShapes) == 3, s.LayerShapes)
	Tassert(t, len(s.LayerShapes[0].Nodes) == 4, s.LayerShapes[0].Nodes)
	Tassert(t, s.LayerShapes[0].Nodes[0].ActivationName == "tanh", s.LayerShapes[0].Nodes[0].ActivationName)
	Tassert(t, s.LayerShapes[0].Nodes[3].ActivationName == "tanh", s.LayerShapes[0].Nodes[3].ActivationName)
	Tassert(t, len(s.LayerShapes[1].Nodes) == 5, s.LayerShapes[1].Nodes)
	Tassert(t, s.LayerShapes[1].Nodes[0].ActivationName == "sigmoid", s.LayerShapes[1].Nodes[0].ActivationName)
	Tassert(t, len(s.LayerShapes[2].Nodes) == 3, s.LayerShapes[2].Nodes)
	Tassert(t, s.LayerShapes[2].Nodes[0].ActivationName == "tanh", s.LayerShapes[2].Nodes[0].ActivationName)
	Tassert(t, s.LayerShapes[2].Nodes[1].ActivationName == "tanh", s.LayerShapes[2].Nodes[1].ActivationName)
	Tassert(t, s.LayerShapes[2].Nodes[2].ActivationName == "relu", s.LayerShapes[2].Nodes[2].ActivationName)
}

func TestParseErrors(t *testing.T) {
	// missing layers
	_, err := Parse("(foo 3)")
	Tassert(t, err != nil, "expected error")
	// input count is not a number
	_, err = Parse("(foo bar (tanh 4))")
	Tassert(t, err != nil, "expected error")
	// neuron count is not a number
	_, err = Parse("(foo 3 (tanh x))")
	Tassert(t, err != nil, "expected error")
}

func TestString(t *testing.T) {
	txt := "(foo 3 (tanh 4) (sigmoid 5) (+ (tanh 2) (relu 1)))"
	s, err := Parse(txt)
	Tassert(t, err == nil, err)
	got := s.String()
	Tassert(t, got == txt, "\nwant %s\ngot  %s", txt, got)
}
