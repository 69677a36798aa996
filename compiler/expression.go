package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Expression: general expression compiler
// ---------------------------------------------------------------------------

// Expression compiles one expression node. Indexed reads are delegated to
// NativeArrayAccess and calls to the call compilers.
type Expression struct {
	node              Expr
	expecting         bool
	expectingVariable *Variable
	readOnly          bool
}

// NewExpression wraps node. By default a return value is expected.
func NewExpression(node Expr) *Expression {
	return &Expression{node: node, expecting: true}
}

// SetExpectReturn sets whether the value is used and, optionally, which
// variable should receive it.
func (e *Expression) SetExpectReturn(expecting bool, variable *Variable) {
	e.expecting = expecting
	e.expectingVariable = variable
}

// SetReadOnly requests a borrowed result.
func (e *Expression) SetReadOnly(readOnly bool) { e.readOnly = readOnly }

// IsReadOnly reports whether a borrowed result was requested.
func (e *Expression) IsReadOnly() bool { return e.readOnly }

// Compile compiles the wrapped node.
func (e *Expression) Compile(ctx *Context) (*CompiledExpression, error) {
	switch n := e.node.(type) {
	case *IntLiteral:
		return NewCompiledExpression(TypeInt, n.Value, n), nil
	case *DoubleLiteral:
		return NewCompiledExpression(TypeDouble, n.Value, n), nil
	case *BoolLiteral:
		if n.Value {
			return NewCompiledExpression(TypeBool, "1", n), nil
		}
		return NewCompiledExpression(TypeBool, "0", n), nil
	case *StringLiteral:
		return NewCompiledExpression(TypeString, n.Value, n), nil
	case *CharLiteral:
		return NewCompiledExpression(TypeChar, "'"+n.Value+"'", n), nil
	case *NullLiteral:
		return NewCompiledExpression(TypeNull, "null", n), nil
	case *EmptyArray:
		return NewCompiledExpression(TypeEmptyArr, "array", n), nil
	case *VariableRef:
		return NewCompiledExpression(TypeVariable, n.Name, n), nil
	case *ListExpr:
		inner := NewExpression(n.Inner)
		inner.SetExpectReturn(e.expecting, e.expectingVariable)
		inner.SetReadOnly(e.readOnly)
		return inner.Compile(ctx)
	case *ArrayAccess:
		access := NewNativeArrayAccess()
		access.SetExpectReturn(e.expecting, e.expectingVariable)
		access.SetReadOnly(e.readOnly)
		return access.Compile(n, ctx)
	case *FetchExpr:
		return compileFetch(n, ctx)
	case *FunctionCall:
		return compileFunctionCall(n, e, ctx)
	case *MethodCall:
		return compileMethodCall(n, e, ctx)
	case *StaticCall:
		return compileStaticCall(n, e, ctx)
	case *BinaryExpr:
		return compileBinary(n, ctx)
	case *UnaryExpr:
		return compileUnary(n, ctx)
	case *UnknownExpr:
		return nil, errorAt(n, "unknown expression type %s", n.KindName)
	}
	return nil, errorAt(e.node, "unknown expression type %T", e.node)
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// operand is a compiled operator argument reduced to either a C scalar or
// a zval.
type operand struct {
	code    string
	typ     Type
	variant bool
	literal *CompiledExpression
}

func resolveOperand(ctx *Context, node Expr) (operand, error) {
	ce, err := NewExpression(node).Compile(ctx)
	if err != nil {
		return operand{}, err
	}
	if ce.Type != TypeVariable {
		return operand{code: ce.Code, typ: ce.Type, literal: ce}, nil
	}
	v, err := ctx.Symbols.GetVariableForRead(ce.Code, node)
	if err != nil {
		return operand{}, err
	}
	if v.Type().IsScalar() {
		return operand{code: v.RealName(), typ: v.Type()}, nil
	}
	return operand{code: v.RealName(), typ: v.Type(), variant: true}, nil
}

var arithmeticOps = map[string]string{
	"add": "+",
	"sub": "-",
	"mul": "*",
	"div": "/",
	"mod": "%",
}

var comparisonOps = map[string]string{
	"equals":        "==",
	"identical":     "==",
	"not-equals":    "!=",
	"not-identical": "!=",
	"less":          "<",
	"greater":       ">",
	"less-equal":    "<=",
	"greater-equal": ">=",
}

// mirrored gives the operator to use when the operands are swapped.
var mirrored = map[string]string{
	"less":          "greater",
	"greater":       "less",
	"less-equal":    "greater-equal",
	"greater-equal": "less-equal",
}

var variantOrdering = map[string]string{
	"less":          "ZEPHIR_LT",
	"greater":       "ZEPHIR_GT",
	"less-equal":    "ZEPHIR_LE",
	"greater-equal": "ZEPHIR_GE",
}

func compileBinary(n *BinaryExpr, ctx *Context) (*CompiledExpression, error) {
	left, err := resolveOperand(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := resolveOperand(ctx, n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "and", "or":
		op := "&&"
		if n.Op == "or" {
			op = "||"
		}
		return NewCompiledExpression(TypeBool, "("+condition(left)+" "+op+" "+condition(right)+")", n), nil
	}

	if op, ok := arithmeticOps[n.Op]; ok {
		if !left.variant && !right.variant {
			typ := TypeLong
			if left.typ == TypeDouble || right.typ == TypeDouble {
				typ = TypeDouble
			} else if left.typ.IsIntegerFamily() && left.typ == right.typ {
				typ = left.typ
			}
			return NewCompiledExpression(typ, "("+left.code+" "+op+" "+right.code+")", n), nil
		}
		ctx.Headers.Add(HeaderOperators)
		return NewCompiledExpression(TypeDouble, "("+numberval(left)+" "+op+" "+numberval(right)+")", n), nil
	}

	op, ok := comparisonOps[n.Op]
	if !ok {
		return nil, errorAt(n, "unknown expression type %s", n.Op)
	}
	if !left.variant && !right.variant {
		return NewCompiledExpression(TypeBool, "("+left.code+" "+op+" "+right.code+")", n), nil
	}

	kind := n.Op
	if !left.variant {
		left, right = right, left
		if m, ok := mirrored[kind]; ok {
			kind = m
		}
	}
	ctx.Headers.Add(HeaderOperators)
	code, err := variantComparison(kind, left, right, n)
	if err != nil {
		return nil, err
	}
	return NewCompiledExpression(TypeBool, code, n), nil
}

// variantComparison compares the zval left against right.
func variantComparison(kind string, left, right operand, n Node) (string, error) {
	negate := kind == "not-equals" || kind == "not-identical"
	var code string
	if fn, ok := variantOrdering[kind]; ok {
		switch {
		case right.variant:
			code = fn + "(" + left.code + ", " + right.code + ")"
		case right.typ.IsIntegerFamily() || right.typ == TypeChar:
			code = fn + "_LONG(" + left.code + ", " + right.code + ")"
		case right.typ == TypeDouble:
			code = fn + "_DOUBLE(" + left.code + ", " + right.code + ")"
		default:
			return "", errorAt(n, "cannot compare variable with %s", right.typ)
		}
		return code, nil
	}

	switch {
	case right.variant:
		code = "ZEPHIR_IS_EQUAL(" + left.code + ", " + right.code + ")"
	case right.typ.IsIntegerFamily() || right.typ == TypeChar || right.typ == TypeULong:
		code = "ZEPHIR_IS_LONG(" + left.code + ", " + right.code + ")"
	case right.typ == TypeDouble:
		code = "ZEPHIR_IS_DOUBLE(" + left.code + ", " + right.code + ")"
	case right.typ == TypeString:
		code = "ZEPHIR_IS_STRING(" + left.code + ", \"" + right.code + "\")"
	case right.typ == TypeBool:
		if right.code == "1" {
			code = "ZEPHIR_IS_TRUE(" + left.code + ")"
		} else if right.code == "0" {
			code = "ZEPHIR_IS_FALSE(" + left.code + ")"
		} else {
			code = "ZEPHIR_IS_BOOL(" + left.code + ", " + right.code + ")"
		}
	case right.typ == TypeNull:
		code = "Z_TYPE_P(" + left.code + ") == IS_NULL"
	default:
		return "", errorAt(n, "cannot compare variable with %s", right.typ)
	}
	if negate {
		code = "!" + wrap(code)
	}
	return code, nil
}

func compileUnary(n *UnaryExpr, ctx *Context) (*CompiledExpression, error) {
	op, err := resolveOperand(ctx, n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "not":
		return NewCompiledExpression(TypeBool, "!"+wrap(condition(op)), n), nil
	case "minus":
		if op.variant {
			ctx.Headers.Add(HeaderOperators)
			return NewCompiledExpression(TypeDouble, "-"+numberval(op), n), nil
		}
		return NewCompiledExpression(op.typ, "-"+op.code, n), nil
	}
	return nil, errorAt(n, "unknown expression type %s", n.Op)
}

func condition(o operand) string {
	if o.variant {
		return "zephir_is_true(" + o.code + ")"
	}
	if o.literal != nil {
		return o.literal.BooleanCode()
	}
	return o.code
}

func numberval(o operand) string {
	if o.variant {
		return "zephir_get_numberval(" + o.code + ")"
	}
	return o.code
}

func wrap(code string) string {
	if len(code) > 0 && code[0] == '(' && code[len(code)-1] == ')' {
		return code
	}
	return fmt.Sprintf("(%s)", code)
}
