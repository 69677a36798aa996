package compiler

import "strings"

// ---------------------------------------------------------------------------
// Calls and fetch
// ---------------------------------------------------------------------------

// builtinOptimizer replaces a call to a known function whose single
// argument is a zval with a direct kernel expression.
type builtinOptimizer struct {
	header string
	typ    Type
	format func(arg string) string
}

var builtinOptimizers = map[string]builtinOptimizer{
	"count": {
		header: HeaderArray,
		typ:    TypeInt,
		format: func(arg string) string { return "zephir_fast_count_int(" + arg + ")" },
	},
	"strlen": {
		header: "kernel/string",
		typ:    TypeInt,
		format: func(arg string) string { return "zephir_fast_strlen_ev(" + arg + ")" },
	},
	"is_array": {
		typ:    TypeBool,
		format: func(arg string) string { return "Z_TYPE_P(" + arg + ") == IS_ARRAY" },
	},
	"is_null": {
		typ:    TypeBool,
		format: func(arg string) string { return "Z_TYPE_P(" + arg + ") == IS_NULL" },
	},
}

// callParameters resolves call arguments to zval names, materializing
// literals into temporaries.
func callParameters(params []Expr, ctx *Context) ([]string, error) {
	names := make([]string, 0, len(params))
	for _, p := range params {
		ce, err := NewExpression(p).Compile(ctx)
		if err != nil {
			return nil, err
		}
		if ce.Type == TypeVariable {
			v, err := ctx.Symbols.GetVariableForRead(ce.Code, p)
			if err != nil {
				return nil, err
			}
			if !v.Type().IsScalar() {
				names = append(names, v.RealName())
				continue
			}
		}
		tmp := ctx.Symbols.GetTempVariableForWrite(TypeVariable)
		if err := assignToVariant(ctx, tmp, ce, p); err != nil {
			return nil, err
		}
		names = append(names, tmp.RealName())
	}
	return names, nil
}

// callDestination returns the C target of a call result ("NULL" when the
// result is discarded) and the variable receiving it.
func callDestination(e *Expression, ctx *Context) (string, *Variable) {
	if !e.expecting {
		return "NULL", nil
	}
	dest := e.expectingVariable
	if dest != nil && dest.Type() == TypeVariable && dest.Name() != ReturnValueName {
		dest.ObserveVariant(ctx)
	} else {
		dest = ctx.Symbols.GetTempVariableForObserve(TypeVariable)
	}
	dest.SetDynamicTypes(TypeUndefined)
	return "&" + dest.RealName(), dest
}

func emitCall(macro string, head []string, params []string, e *Expression, node Node, ctx *Context) *CompiledExpression {
	target, dest := callDestination(e, ctx)
	args := append([]string{target}, head...)
	args = append(args, "NULL")
	args = append(args, params...)
	ctx.Headers.Add(HeaderFcall)
	ctx.Printer.Output(macro + "(" + strings.Join(args, ", ") + ");")
	ctx.Printer.Output("zephir_check_call_status();")
	if dest == nil {
		return NewCompiledExpression(TypeNull, "", node)
	}
	return NewCompiledExpression(TypeVariable, dest.RealName(), node)
}

func compileFunctionCall(call *FunctionCall, e *Expression, ctx *Context) (*CompiledExpression, error) {
	if opt, ok := builtinOptimizers[strings.ToLower(call.Name)]; ok && len(call.Parameters) == 1 {
		if arg, ok := variantArgument(call.Parameters[0], ctx); ok {
			if opt.header != "" {
				ctx.Headers.Add(opt.header)
			}
			return NewCompiledExpression(opt.typ, opt.format(arg), call), nil
		}
	}
	params, err := callParameters(call.Parameters, ctx)
	if err != nil {
		return nil, err
	}
	return emitCall("ZEPHIR_CALL_FUNCTION", []string{`"` + call.Name + `"`}, params, e, call, ctx), nil
}

// variantArgument reports the zval name of p when p is a declared
// polymorphic variable.
func variantArgument(p Expr, ctx *Context) (string, bool) {
	ref, ok := p.(*VariableRef)
	if !ok {
		return "", false
	}
	v := ctx.Symbols.GetVariable(ref.Name)
	if v == nil || v.Type() != TypeVariable {
		return "", false
	}
	v.IncreaseUses()
	return v.RealName(), true
}

func compileMethodCall(call *MethodCall, e *Expression, ctx *Context) (*CompiledExpression, error) {
	recv := NewExpression(call.Receiver)
	recv.SetReadOnly(true)
	ce, err := recv.Compile(ctx)
	if err != nil {
		return nil, err
	}
	if ce.Type != TypeVariable {
		return nil, errorAt(call.Receiver, "cannot use expression of type %s as an object", ce.Type)
	}
	obj, err := ctx.Symbols.GetVariableForRead(ce.Code, call)
	if err != nil {
		return nil, err
	}
	if obj.Type() != TypeVariable {
		return nil, errorAt(call.Receiver, "variable of type %s cannot be used as an object", obj.Type())
	}
	params, err := callParameters(call.Parameters, ctx)
	if err != nil {
		return nil, err
	}
	return emitCall("ZEPHIR_CALL_METHOD", []string{obj.RealName(), `"` + call.Name + `"`}, params, e, call, ctx), nil
}

func compileStaticCall(call *StaticCall, e *Expression, ctx *Context) (*CompiledExpression, error) {
	params, err := callParameters(call.Parameters, ctx)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(call.Class) {
	case "self", "static":
		return emitCall("ZEPHIR_CALL_SELF", []string{`"` + call.Name + `"`}, params, e, call, ctx), nil
	}
	ce := classEntryName(call.Class)
	return emitCall("ZEPHIR_CALL_CE_STATIC", []string{ce, `"` + call.Name + `"`}, params, e, call, ctx), nil
}

// classEntryName maps Foo\Bar to the C class entry foo_bar_ce.
func classEntryName(class string) string {
	name := strings.Trim(class, `\`)
	name = strings.ReplaceAll(name, `\`, "_")
	return strings.ToLower(name) + "_ce"
}

// compileFetch compiles `fetch target, base[index]`, a read that also
// tests whether the index exists.
func compileFetch(n *FetchExpr, ctx *Context) (*CompiledExpression, error) {
	ref, ok := n.Left.(*VariableRef)
	if !ok {
		return nil, errorAt(n.Left, "fetch target must be a variable")
	}
	access, ok := n.Right.(*ArrayAccess)
	if !ok {
		return nil, errorAt(n.Right, "fetch source must be an array access")
	}

	target, err := ctx.Symbols.GetVariableForWrite(ref.Name, n.Left)
	if err != nil {
		return nil, err
	}
	if target.Type() != TypeVariable {
		return nil, errorAt(n.Left, "cannot use variable of type %s to receive an indexed read", target.Type())
	}

	left := NewExpression(access.Left)
	left.SetReadOnly(true)
	baseExpr, err := left.Compile(ctx)
	if err != nil {
		return nil, err
	}
	if baseExpr.Type != TypeVariable {
		return nil, errorAt(access.Left, "cannot use expression of type %s as an array", baseExpr.Type)
	}
	base, err := ctx.Symbols.GetVariableForRead(baseExpr.Code, access)
	if err != nil {
		return nil, err
	}
	if base.Type() != TypeVariable && base.Type() != TypeArray {
		return nil, errorAt(access.Left, "variable of type %s cannot be used as array", base.Type())
	}

	index, err := NewExpression(access.Right).Compile(ctx)
	if err != nil {
		return nil, err
	}

	target.ObserveVariant(ctx)
	target.SetInitialized(true)
	target.SetDynamicTypes(TypeUndefined)
	ctx.Headers.Add(HeaderArray)

	dest := "&" + target.RealName()
	switch {
	case index.Type.IsIntegerFamily():
		return NewCompiledExpression(TypeBool, "zephir_array_isset_long_fetch("+dest+", "+base.RealName()+", "+index.Code+", 0)", n), nil
	case index.Type == TypeString:
		return NewCompiledExpression(TypeBool, "zephir_array_isset_string_fetch("+dest+", "+base.RealName()+", SS(\""+index.Code+"\"), 0)", n), nil
	case index.Type == TypeVariable:
		indexVar, err := ctx.Symbols.GetVariableForRead(index.Code, access)
		if err != nil {
			return nil, err
		}
		fn := "zephir_array_isset_fetch"
		if indexVar.Type().IsIntegerFamily() {
			fn = "zephir_array_isset_long_fetch"
		} else if indexVar.Type() != TypeVariable && indexVar.Type() != TypeString {
			return nil, errorAt(access.Right, "variable type %s cannot be used as array index without a cast", indexVar.Type())
		}
		return NewCompiledExpression(TypeBool, fn+"("+dest+", "+base.RealName()+", "+indexVar.RealName()+", 0)", n), nil
	}
	return nil, errorAt(access.Right, "expression type %s cannot be used as array index without a cast", index.Type)
}
