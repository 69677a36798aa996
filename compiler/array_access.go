package compiler

// ---------------------------------------------------------------------------
// NativeArrayAccess: reads of base[index]
// ---------------------------------------------------------------------------

// Access flags passed to the array fetch primitives.
const (
	flagsNoisy         = "PH_NOISY"
	flagsNoisyReadOnly = "PH_NOISY | PH_READONLY"
)

// NativeArrayAccess compiles base[index] reads on strings, dynamic
// variables and static arrays.
type NativeArrayAccess struct {
	expecting         bool
	expectingVariable *Variable
	readOnly          bool
}

// NewNativeArrayAccess creates a compiler that expects a return value.
func NewNativeArrayAccess() *NativeArrayAccess {
	return &NativeArrayAccess{expecting: true}
}

// SetExpectReturn sets whether the result is used and, optionally, the
// variable that should receive it.
func (a *NativeArrayAccess) SetExpectReturn(expecting bool, variable *Variable) {
	a.expecting = expecting
	a.expectingVariable = variable
}

// SetReadOnly requests a borrowed (read-only) result.
func (a *NativeArrayAccess) SetReadOnly(readOnly bool) {
	a.readOnly = readOnly
}

// Compile resolves the base's type and emits the matching primitive.
func (a *NativeArrayAccess) Compile(expr *ArrayAccess, ctx *Context) (*CompiledExpression, error) {
	left := NewExpression(expr.Left)
	left.SetReadOnly(true)
	exprVariable, err := left.Compile(ctx)
	if err != nil {
		return nil, err
	}

	if exprVariable.Type != TypeVariable {
		return nil, errorAt(expr.Left, "cannot use expression of type %s as an array", exprVariable.Type)
	}
	base, err := ctx.Symbols.GetVariableForRead(exprVariable.Code, expr)
	if err != nil {
		return nil, err
	}

	switch base.Type() {
	case TypeVariable:
		return a.accessDimensionArray(expr, base, ctx, true)
	case TypeArray:
		return a.accessDimensionArray(expr, base, ctx, false)
	case TypeString:
		return a.accessStringOffset(expr, base, ctx)
	}
	return nil, errorAt(expr.Left, "variable of type %s cannot be used as array", base.Type())
}

// accessStringOffset reads one character of a string.
func (a *NativeArrayAccess) accessStringOffset(expr *ArrayAccess, base *Variable, ctx *Context) (*CompiledExpression, error) {
	var dest *Variable
	if a.expecting && a.expectingVariable != nil && a.expectingVariable.Type() == TypeChar {
		dest = a.expectingVariable
	} else {
		dest = ctx.Symbols.GetTempNonTrackedVariable(TypeChar)
	}

	index, err := NewExpression(expr.Right).Compile(ctx)
	if err != nil {
		return nil, err
	}

	var offset string
	switch {
	case index.Type.IsIntegerFamily():
		offset = index.Code
	case index.Type == TypeVariable:
		indexVar, err := ctx.Symbols.GetVariableForRead(index.Code, expr)
		if err != nil {
			return nil, err
		}
		if !indexVar.Type().IsIntegerFamily() {
			return nil, errorAt(expr.Right, "cannot use index type %s as offset", indexVar.Type())
		}
		offset = indexVar.RealName()
	default:
		return nil, errorAt(expr.Right, "cannot use index type %s as offset", index.Type)
	}

	ctx.Headers.Add(HeaderOperators)
	ctx.Printer.Output(dest.RealName() + " = ZEPHIR_STRING_OFFSET(" + base.RealName() + ", " + offset + ");")
	return NewCompiledExpression(TypeChar, dest.RealName(), expr), nil
}

// resolveDestination picks the variable that receives a fetched element.
// On return a.readOnly tells whether the fetch borrows the element.
func (a *NativeArrayAccess) resolveDestination(expr *ArrayAccess, ctx *Context) *Variable {
	fallback := func() *Variable {
		if a.readOnly {
			return ctx.Symbols.GetTempNonTrackedUninitializedVariable(TypeVariable)
		}
		return ctx.Symbols.GetTempVariableForObserve(TypeVariable)
	}

	if !a.expecting || a.expectingVariable == nil {
		return fallback()
	}

	dest := a.expectingVariable
	isReturnSlot := dest.Name() == ReturnValueName

	// A variable assigned exactly once in the method, and this is that
	// assignment, can hold a borrowed value.
	if !isReturnSlot {
		expected := ctx.Symbols.ExpectedMutations(dest.Name())
		if expected == 1 && dest.NumberMutations() == expected {
			dest.SetMemoryTracked(false)
			a.readOnly = true
			return dest
		}
	}

	if isReturnSlot {
		return fallback()
	}
	dest.ObserveVariant(ctx)
	a.readOnly = false
	return dest
}

// accessDimensionArray fetches an element from a dynamic variable or, with
// dynamic false, from a statically typed array.
func (a *NativeArrayAccess) accessDimensionArray(expr *ArrayAccess, base *Variable, ctx *Context, dynamic bool) (*CompiledExpression, error) {
	if dynamic {
		if base.HasAnyDynamicType(TypeUnknown) {
			return nil, errorAt(expr.Left, "cannot use non-initialized variable as an array")
		}
		if base.HasDifferentDynamicType(TypeUndefined, TypeArray, TypeNull) {
			ctx.Logger.Warning("Possible attempt to access array-index on a non-array dynamic variable", WarnNonArrayAccess, expr.Left)
		}
	}

	dest := a.resolveDestination(expr, ctx)
	if dest.Type() != TypeVariable {
		return nil, errorAt(expr, "cannot use variable of type %s to receive an indexed read", dest.Type())
	}
	dest.SetDynamicTypes(TypeUndefined)

	flags := flagsNoisy
	if a.readOnly {
		flags = flagsNoisyReadOnly
	}

	index, err := NewExpression(expr.Right).Compile(ctx)
	if err != nil {
		return nil, err
	}

	target := "&" + dest.RealName()
	array := base.RealName()
	switch {
	case index.Type.IsIntegerFamily():
		ctx.Headers.Add(HeaderArray)
		ctx.Printer.Output("zephir_array_fetch_long(" + target + ", " + array + ", " + index.Code + ", " + flags + ");")
	case index.Type == TypeString:
		ctx.Headers.Add(HeaderArray)
		ctx.Printer.Output("zephir_array_fetch_string(" + target + ", " + array + ", SL(\"" + index.Code + "\"), " + flags + ");")
	case index.Type == TypeVariable:
		indexVar, err := ctx.Symbols.GetVariableForRead(index.Code, expr)
		if err != nil {
			return nil, err
		}
		switch t := indexVar.Type(); {
		case t.IsIntegerFamily():
			ctx.Headers.Add(HeaderArray)
			ctx.Printer.Output("zephir_array_fetch_long(" + target + ", " + array + ", " + indexVar.RealName() + ", " + flags + ");")
		case t == TypeString || t == TypeVariable:
			ctx.Headers.Add(HeaderArray)
			ctx.Printer.Output("zephir_array_fetch(" + target + ", " + array + ", " + indexVar.RealName() + ", " + flags + ");")
		default:
			return nil, errorAt(expr.Right, "variable type %s cannot be used as array index without a cast", t)
		}
	default:
		return nil, errorAt(expr.Right, "expression type %s cannot be used as array index without a cast", index.Type)
	}

	return NewCompiledExpression(TypeVariable, dest.RealName(), expr), nil
}
