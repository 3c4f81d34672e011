// Package shape implements a small s-expression language describing a
// network's topology, e.g. "(xor 2 (sigmoid 4) (sigmoid 1))": the
// network name, the input width, then one expression per layer.  A
// layer expression is an activation name and a neuron count; layers
// mixing activations are written as groups, e.g.
// "(+ (tanh 2) (relu 1))".
package shape

import (
	"strconv"
	"strings"

	. "github.com/stevegt/goadapt"
	"github.com/xiam/sexpr/ast"
	"github.com/xiam/sexpr/parser"
)

// Shape is a representation of a network's topology.
type Shape struct {
	Name        string
	Inputs      int
	LayerShapes []*LayerShape
}

func (s *Shape) String() (out string) {
	parts := []string{s.Name, strconv.Itoa(s.Inputs)}
	for _, layer := range s.LayerShapes {
		parts = append(parts, layer.String())
	}
	out = Spf("(%s)", strings.Join(parts, " "))
	return
}

// LayerShape describes one layer of the network.
type LayerShape struct {
	Nodes []*NodeShape
}

func (s *LayerShape) String() (out string) {
	// group consecutive runs of the same activation
	groups := []string{}
	for i := 0; i < len(s.Nodes); {
		j := i
		for j < len(s.Nodes) && s.Nodes[j].ActivationName == s.Nodes[i].ActivationName {
			j++
		}
		groups = append(groups, Spf("(%s %d)", s.Nodes[i].ActivationName, j-i))
		i = j
	}
	if len(groups) == 1 {
		out = groups[0]
	} else {
		out = Spf("(+ %s)", strings.Join(groups, " "))
	}
	return
}

// NodeShape describes one neuron in a layer.
type NodeShape struct {
	ActivationName string
}

// SyntaxError is a syntax error.
type SyntaxError struct {
	msg  string
	node *ast.Node
}

func (e *SyntaxError) Error() string {
	return Spf("[shape:%s] %s:\n%s", e.node.Token().Pos, e.msg, e.node.String())
}

// synck raises a syntax err if cond is false.
func synck(node *ast.Node, cond bool, args ...interface{}) {
	if !cond {
		msg := FormatArgs(args...)
		panic(&SyntaxError{msg, node})
	}
}

// Parse parses a shape string.  Syntax errors are returned as a
// *SyntaxError.
func Parse(txt string) (s *Shape, err error) {
	defer Return(&err)
	defer func() {
		switch r := recover().(type) {
		case nil:
		case *SyntaxError:
			err = r
		default:
			panic(r)
		}
	}()
	root, err := parser.Parse([]byte(txt))
	Ck(err)

	// root is a list
	synck(root, root.Type() == ast.NodeTypeList, "root is not a list")
	// root has one child
	children := root.List()
	synck(root, len(children) == 1, "root has %d children", len(children))
	// root's child is an expression
	expr := children[0]
	synck(expr, expr.Type() == ast.NodeTypeExpression, "root's child is not an expression")
	// the shape code is the several children of the expression
	s, err = parseShape(expr)
	Ck(err)

	return
}

type Expr struct {
	Op   string
	Args []Expr
}

func parseShape(n *ast.Node) (s *Shape, err error) {
	defer Return(&err)

	s = &Shape{}

	expr, err := parseExpr(n)
	Ck(err)
	s.Name = expr.Op
	synck(n, len(expr.Args) > 1, "missing input count or layers")
	first := expr.Args[0]
	synck(n, len(first.Args) == 0, "input count is not a number")
	s.Inputs, err = strconv.Atoi(first.Op)
	synck(n, err == nil, "input count is not a number: %s", first.Op)
	for _, arg := range expr.Args[1:] {
		synck(n, len(arg.Args) > 0, "not a layer expression: %s", arg.Op)
		layerShape, err := parseLayer(n, arg)
		Ck(err)
		s.LayerShapes = append(s.LayerShapes, layerShape)
	}
	return
}

func parseLayer(n *ast.Node, arg Expr) (layerShape *LayerShape, err error) {
	defer Return(&err)
	layerShape = &LayerShape{}
	if arg.Op == "+" {
		// node groups
		for _, groupExpr := range arg.Args {
			subLayerShape, err := parseLayer(n, groupExpr)
			Ck(err)
			layerShape.Nodes = append(layerShape.Nodes, subLayerShape.Nodes...)
		}
		return
	}
	actName := arg.Op
	for _, countExpr := range arg.Args {
		count, err := strconv.Atoi(countExpr.Op)
		synck(n, err == nil, "neuron count is not a number: %s", countExpr.Op)
		synck(n, count > 0, "neuron count is not positive: %d", count)
		for i := 0; i < count; i++ {
			layerShape.Nodes = append(layerShape.Nodes, &NodeShape{ActivationName: actName})
		}
	}
	return
}

func parseExpr(n *ast.Node) (expr *Expr, err error) {
	defer Return(&err)
	children := n.List()
	synck(n, len(children) > 0, "missing opcode")
	synck(n, children[0].Type() == ast.NodeTypeSymbol, "first word is not a symbol")
	expr = &Expr{}
	expr.Op = children[0].Encode()
	for i := 1; i < len(children); i++ {
		switch children[i].Type() {
		case ast.NodeTypeSymbol, ast.NodeTypeInt, ast.NodeTypeFloat, ast.NodeTypeString:
			expr.Args = append(expr.Args, Expr{children[i].Encode(), nil})
		case ast.NodeTypeExpression:
			arg, err := parseExpr(children[i])
			Ck(err)
			expr.Args = append(expr.Args, *arg)
		default:
			synck(children[i], false, "unknown node type %v", children[i].Type())
		}
	}
	return
}
