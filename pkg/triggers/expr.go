package triggers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Ref names a metric by key and arg.
type Ref struct {
	Key string
	Arg string
}

func (r Ref) String() string {
	if r.Arg == "" {
		return r.Key
	}
	return r.Key + "." + r.Arg
}

// Lookup resolves a reference against a report. It returns string, int64 or
// float64 and false when the value is absent.
type Lookup func(Ref) (any, bool)

// ErrMissingValue is returned when a condition names a value the report lacks.
var ErrMissingValue = errors.New("missing value")

// Expr is a parsed condition.
type Expr interface {
	Eval(lookup Lookup) (bool, error)
	Refs() []Ref
}

// valueFunc is the env function every metric reference is rewritten into.
const valueFunc = "__value"

var comparisons = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true,
}

// Parse compiles a condition such as `cpu.load > 0.9 and host.os == "linux"`.
// References are `key`, `key.arg` and `key["arg"]`; an arg may itself contain
// dots (`net.eth0.rx` is key net, arg eth0.rx).
func Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("empty expression")
	}
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, exprError(err)
	}
	rw := &refRewriter{}
	ast.Walk(&tree.Node, rw)
	if rw.err != nil {
		return nil, rw.err
	}
	if err := checkCondition(tree.Node); err != nil {
		return nil, err
	}

	program, err := expr.Compile(src, expr.Patch(&refRewriter{}), expr.AsBool())
	if err != nil {
		return nil, exprError(err)
	}
	return &condition{program: program, refs: collectRefs(tree.Node)}, nil
}

type condition struct {
	program *vm.Program
	refs    []Ref
}

func (c *condition) Eval(lookup Lookup) (bool, error) {
	var missing *Ref
	env := map[string]any{
		valueFunc: func(key, arg string) (any, error) {
			r := Ref{Key: key, Arg: arg}
			v, ok := lookup(r)
			if !ok {
				missing = &r
				return nil, fmt.Errorf("%w %s", ErrMissingValue, r)
			}
			return v, nil
		},
	}
	out, err := expr.Run(c.program, env)
	if missing != nil {
		return false, fmt.Errorf("%w %s", ErrMissingValue, *missing)
	}
	if err != nil {
		return false, exprError(err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition produced %T, not a boolean", out)
	}
	return matched, nil
}

func (c *condition) Refs() []Ref {
	return c.refs
}

// refRewriter replaces each metric reference with a call to valueFunc so
// missing values surface as ErrMissingValue instead of nil comparisons.
// Nodes are visited children first, so a member chain folds left to right.
type refRewriter struct {
	err error
}

func (r *refRewriter) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		ast.Patch(node, refCall(Ref{Key: n.Value}))
	case *ast.MemberNode:
		base, ok := refOf(n.Node)
		if !ok {
			r.fail(errors.New("member access is only allowed on metric keys"))
			return
		}
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			r.fail(errors.New("metric args must be quoted strings"))
			return
		}
		arg := prop.Value
		if base.Arg != "" {
			arg = base.Arg + "." + arg
		}
		ast.Patch(node, refCall(Ref{Key: base.Key, Arg: arg}))
	case *ast.CallNode:
		r.fail(errors.New("function calls are not supported"))
	}
}

func (r *refRewriter) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func refCall(ref Ref) *ast.CallNode {
	return &ast.CallNode{
		Callee: &ast.IdentifierNode{Value: valueFunc},
		Arguments: []ast.Node{
			&ast.StringNode{Value: ref.Key},
			&ast.StringNode{Value: ref.Arg},
		},
	}
}

// refOf reports the reference a rewritten call stands for.
func refOf(node ast.Node) (Ref, bool) {
	call, ok := node.(*ast.CallNode)
	if !ok || len(call.Arguments) != 2 {
		return Ref{}, false
	}
	if callee, ok := call.Callee.(*ast.IdentifierNode); !ok || callee.Value != valueFunc {
		return Ref{}, false
	}
	key, ok := call.Arguments[0].(*ast.StringNode)
	if !ok {
		return Ref{}, false
	}
	arg, ok := call.Arguments[1].(*ast.StringNode)
	if !ok {
		return Ref{}, false
	}
	return Ref{Key: key.Value, Arg: arg.Value}, true
}

// checkCondition requires a boolean structure of comparisons so `cpu.load`
// or `not cpu.load > 1` are rejected when the trigger is added.
func checkCondition(node ast.Node) error {
	switch n := node.(type) {
	case *ast.BoolNode:
		return nil
	case *ast.UnaryNode:
		if n.Operator == "not" || n.Operator == "!" {
			return checkCondition(n.Node)
		}
	case *ast.BinaryNode:
		switch {
		case n.Operator == "and" || n.Operator == "&&" || n.Operator == "or" || n.Operator == "||":
			if err := checkCondition(n.Left); err != nil {
				return err
			}
			return checkCondition(n.Right)
		case comparisons[n.Operator]:
			if err := checkOperand(n.Left); err != nil {
				return err
			}
			return checkOperand(n.Right)
		}
	}
	return errors.New("expected a comparison such as cpu.load > 0.9")
}

func checkOperand(node ast.Node) error {
	switch n := node.(type) {
	case *ast.IntegerNode, *ast.FloatNode, *ast.StringNode:
		return nil
	case *ast.UnaryNode:
		if n.Operator == "-" || n.Operator == "+" {
			return checkOperand(n.Node)
		}
	default:
		if _, ok := refOf(node); ok {
			return nil
		}
	}
	return errors.New("comparison operands must be numbers, strings or metric references")
}

type refCollector struct {
	seen map[Ref]bool
	refs []Ref
}

func (c *refCollector) Visit(node *ast.Node) {
	if r, ok := refOf(*node); ok && !c.seen[r] {
		c.seen[r] = true
		c.refs = append(c.refs, r)
	}
}

func collectRefs(node ast.Node) []Ref {
	c := &refCollector{seen: make(map[Ref]bool)}
	ast.Walk(&node, c)
	return c.refs
}

// exprError drops the source snippet expr attaches so the message fits on
// one line in admin replies.
func exprError(err error) error {
	var fe *file.Error
	if errors.As(err, &fe) && fe.Message != "" {
		return errors.New(fe.Message)
	}
	return err
}
