package schema

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

// env resolves the names an expression may mention.
type env interface {
	number(name string) int
	size(name string) int
	selfLength() int
}

// expr is a compiled integer expression. Division or modulo by zero
// evaluates to zero.
type expr struct {
	text string
	eval func(env) int
	// refs are the item names the expression reads, plus layout.SelfLength.
	refs []string
}

// resolver tells the compiler what kind of item a name denotes.
type resolver interface {
	lookup(name string) (Type, bool)
}

func compileExpr(text string, names resolver) (*expr, error) {
	node, err := parser.ParseExpr(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadExpression, text, err)
	}
	c := &exprCompiler{names: names, seen: map[string]bool{}}
	eval, err := c.compile(node)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadExpression, text, err)
	}
	return &expr{text: text, eval: eval, refs: c.refs}, nil
}

type exprCompiler struct {
	names resolver
	refs  []string
	seen  map[string]bool
}

func (c *exprCompiler) ref(name string) {
	if !c.seen[name] {
		c.seen[name] = true
		c.refs = append(c.refs, name)
	}
}

func (c *exprCompiler) compile(node ast.Expr) (func(env) int, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT {
			return nil, fmt.Errorf("unsupported literal %s", n.Value)
		}
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, err
		}
		k := int(v)
		return func(env) int { return k }, nil

	case *ast.ParenExpr:
		return c.compile(n.X)

	case *ast.Ident:
		typ, ok := c.names.lookup(n.Name)
		if !ok {
			return nil, fmt.Errorf("unknown name %s", n.Name)
		}
		if !typ.numeric() {
			return nil, fmt.Errorf("%s is %s, not a number", n.Name, typ)
		}
		c.ref(n.Name)
		name := n.Name
		return func(e env) int { return e.number(name) }, nil

	case *ast.SelectorExpr:
		x, ok := n.X.(*ast.Ident)
		if !ok || x.Name != "self" || n.Sel.Name != "length" {
			return nil, fmt.Errorf("only self.length may be selected")
		}
		c.ref(layout.SelfLength)
		return func(e env) int { return e.selfLength() }, nil

	case *ast.UnaryExpr:
		if n.Op != token.SUB && n.Op != token.ADD {
			return nil, fmt.Errorf("unsupported operator %s", n.Op)
		}
		x, err := c.compile(n.X)
		if err != nil {
			return nil, err
		}
		if n.Op == token.ADD {
			return x, nil
		}
		return func(e env) int { return -x(e) }, nil

	case *ast.BinaryExpr:
		x, err := c.compile(n.X)
		if err != nil {
			return nil, err
		}
		y, err := c.compile(n.Y)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD:
			return func(e env) int { return x(e) + y(e) }, nil
		case token.SUB:
			return func(e env) int { return x(e) - y(e) }, nil
		case token.MUL:
			return func(e env) int { return x(e) * y(e) }, nil
		case token.QUO:
			return func(e env) int {
				d := y(e)
				if d == 0 {
					return 0
				}
				return x(e) / d
			}, nil
		case token.REM:
			return func(e env) int {
				d := y(e)
				if d == 0 {
					return 0
				}
				return x(e) % d
			}, nil
		}
		return nil, fmt.Errorf("unsupported operator %s", n.Op)

	case *ast.CallExpr:
		fn, ok := n.Fun.(*ast.Ident)
		if !ok || len(n.Args) != 1 {
			return nil, fmt.Errorf("unsupported call")
		}
		switch fn.Name {
		case "len":
			arg, ok := n.Args[0].(*ast.Ident)
			if !ok {
				return nil, fmt.Errorf("len takes an item name")
			}
			typ, known := c.names.lookup(arg.Name)
			if !known {
				return nil, fmt.Errorf("unknown name %s", arg.Name)
			}
			if typ.numeric() {
				return nil, fmt.Errorf("len of number %s", arg.Name)
			}
			c.ref(arg.Name)
			name := arg.Name
			return func(e env) int { return e.size(name) }, nil
		case "pad":
			x, err := c.compile(n.Args[0])
			if err != nil {
				return nil, err
			}
			return func(e env) int { return wire.Pad(x(e)) }, nil
		}
		return nil, fmt.Errorf("unknown function %s", fn.Name)
	}
	return nil, fmt.Errorf("unsupported expression %T", node)
}
