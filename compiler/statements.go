package compiler

import (
	"strings"
)

// ---------------------------------------------------------------------------
// let
// ---------------------------------------------------------------------------

func compileLet(s *LetStatement, ctx *Context) error {
	for _, a := range s.Assignments {
		if err := compileAssignment(a, ctx); err != nil {
			return err
		}
	}
	return nil
}

var compoundOps = map[string]string{
	"add-assign": "+=",
	"sub-assign": "-=",
	"mul-assign": "*=",
	"div-assign": "/=",
}

func compileAssignment(a *Assignment, ctx *Context) error {
	v, err := ctx.Symbols.GetVariableForWrite(a.Variable, a)
	if err != nil {
		return err
	}

	switch a.AssignType {
	case "incr", "decr":
		return compileIncrDecr(a, v, ctx)
	case "", "variable":
	default:
		return errorAt(a, "unsupported assignment type %s", a.AssignType)
	}

	expr := NewExpression(a.Expr)
	expr.SetExpectReturn(true, v)
	ce, err := expr.Compile(ctx)
	if err != nil {
		return err
	}

	if a.Operator != "" && a.Operator != "assign" {
		op, ok := compoundOps[a.Operator]
		if !ok || !v.Type().IsScalar() {
			return errorAt(a, "operator %s is not supported for variable of type %s", a.Operator, v.Type())
		}
		if !ce.Type.IsScalar() {
			return errorAt(a, "cannot use expression of type %s with operator %s", ce.Type, a.Operator)
		}
		ctx.Printer.Output(v.RealName() + " " + op + " " + ce.Code + ";")
		return nil
	}

	switch v.Type() {
	case TypeVariable, TypeString, TypeArray:
		err = assignToVariant(ctx, v, ce, a)
	default:
		err = assignToScalar(ctx, v, ce, a)
	}
	if err != nil {
		return err
	}
	v.SetInitialized(true)
	return nil
}

func compileIncrDecr(a *Assignment, v *Variable, ctx *Context) error {
	switch {
	case v.Type().IsScalar() && v.Type() != TypeBool:
		op := "++"
		if a.AssignType == "decr" {
			op = "--"
		}
		ctx.Printer.Output(v.RealName() + op + ";")
	case v.Type() == TypeVariable:
		fn := "zephir_increment"
		if a.AssignType == "decr" {
			fn = "zephir_decrement"
		}
		ctx.Headers.Add(HeaderOperators)
		ctx.Printer.Output(fn + "(" + v.RealName() + ");")
	default:
		return errorAt(a, "cannot %s variable of type %s", a.AssignType, v.Type())
	}
	return nil
}

// assignToVariant stores a compiled value into a zval variable.
func assignToVariant(ctx *Context, v *Variable, ce *CompiledExpression, node Node) error {
	name := v.RealName()
	switch ce.Type {
	case TypeInt, TypeUInt, TypeLong, TypeULong, TypeChar, TypeUChar:
		v.InitVariant(ctx)
		ctx.Printer.Output("ZVAL_LONG(" + name + ", " + ce.Code + ");")
		v.SetDynamicTypes(TypeLong)
	case TypeDouble:
		v.InitVariant(ctx)
		ctx.Printer.Output("ZVAL_DOUBLE(" + name + ", " + ce.Code + ");")
		v.SetDynamicTypes(TypeDouble)
	case TypeBool:
		v.InitVariant(ctx)
		ctx.Printer.Output("ZVAL_BOOL(" + name + ", " + ce.Code + ");")
		v.SetDynamicTypes(TypeBool)
	case TypeString:
		v.InitVariant(ctx)
		ctx.Printer.Output("ZVAL_STRING(" + name + ", \"" + ce.Code + "\", 1);")
		v.SetDynamicTypes(TypeString)
	case TypeNull:
		v.InitVariant(ctx)
		ctx.Printer.Output("ZVAL_NULL(" + name + ");")
		v.SetDynamicTypes(TypeNull)
	case TypeEmptyArr:
		v.InitVariant(ctx)
		ctx.Printer.Output("array_init(" + name + ");")
		v.SetDynamicTypes(TypeArray)
	case TypeVariable:
		if ce.Code == name || ce.Code == v.Name() {
			// Written in place by the expression.
			break
		}
		src, err := ctx.Symbols.GetVariableForRead(ce.Code, node)
		if err != nil {
			return err
		}
		if src.Type().IsScalar() {
			return assignToVariant(ctx, v, NewCompiledExpression(src.Type(), src.RealName(), node), node)
		}
		ctx.Headers.Add(HeaderMemory)
		ctx.Printer.Output("ZEPHIR_CPY_WRT(" + name + ", " + src.RealName() + ");")
		v.SetDynamicTypes(src.DynamicTypes()...)
	default:
		return errorAt(node, "cannot assign expression of type %s to a variable", ce.Type)
	}
	v.SetInitialized(true)
	return nil
}

// assignToScalar stores a compiled value into a native C variable.
func assignToScalar(ctx *Context, v *Variable, ce *CompiledExpression, node Node) error {
	name := v.RealName()
	if ce.Code == name {
		return nil
	}
	switch {
	case ce.Type.IsScalar():
		if (v.Type() == TypeChar || v.Type() == TypeUChar) && ce.Type == TypeDouble {
			return errorAt(node, "cannot assign expression of type %s to variable of type %s", ce.Type, v.Type())
		}
		ctx.Printer.Output(name + " = " + ce.Code + ";")
	case ce.Type == TypeNull:
		ctx.Printer.Output(name + " = 0;")
	case ce.Type == TypeVariable:
		src, err := ctx.Symbols.GetVariableForRead(ce.Code, node)
		if err != nil {
			return err
		}
		if src.Type().IsScalar() {
			ctx.Printer.Output(name + " = " + src.RealName() + ";")
			break
		}
		ctx.Headers.Add(HeaderOperators)
		switch v.Type() {
		case TypeDouble:
			ctx.Printer.Output(name + " = zephir_get_doubleval(" + src.RealName() + ");")
		case TypeBool:
			ctx.Printer.Output(name + " = zephir_is_true(" + src.RealName() + ");")
		default:
			ctx.Printer.Output(name + " = zephir_get_intval(" + src.RealName() + ");")
		}
	default:
		return errorAt(node, "cannot assign expression of type %s to variable of type %s", ce.Type, v.Type())
	}
	v.SetInitialized(true)
	return nil
}

// ---------------------------------------------------------------------------
// echo, declare
// ---------------------------------------------------------------------------

func printfFormat(t Type) (string, bool) {
	switch t {
	case TypeInt, TypeUInt:
		return "%d", true
	case TypeLong, TypeULong:
		return "%ld", true
	case TypeDouble:
		return "%f", true
	case TypeChar, TypeUChar:
		return "%c", true
	}
	return "", false
}

func compileEcho(s *EchoStatement, ctx *Context) error {
	for _, x := range s.Expressions {
		ce, err := NewExpression(x).Compile(ctx)
		if err != nil {
			return err
		}
		typ, code := ce.Type, ce.Code
		if typ == TypeVariable {
			v, err := ctx.Symbols.GetVariableForRead(ce.Code, x)
			if err != nil {
				return err
			}
			typ, code = v.Type(), v.RealName()
			if !typ.IsScalar() {
				ctx.Printer.Output("zend_print_zval(" + code + ", 0);")
				continue
			}
		}
		if format, ok := printfFormat(typ); ok {
			ctx.Printer.Output("php_printf(\"" + format + "\", " + code + ");")
			continue
		}
		switch typ {
		case TypeBool:
			ctx.Printer.Output("php_printf(\"%s\", " + code + " ? \"1\" : \"\");")
		case TypeString:
			ctx.Printer.Output("php_printf(\"%s\", \"" + code + "\");")
		case TypeNull:
		default:
			return errorAt(x, "cannot echo expression of type %s", typ)
		}
	}
	return nil
}

func compileDeclare(s *DeclareStatement, ctx *Context) error {
	for _, dv := range s.Variables {
		if ctx.Symbols.HasVariable(dv.Name) {
			return errorAt(dv, "variable '%s' is already declared", dv.Name)
		}
		v := ctx.Symbols.AddVariable(s.DataType, dv.Name, dv)
		if dv.Default == nil {
			continue
		}
		v.IncreaseMutations()
		ce, err := NewExpression(dv.Default).Compile(ctx)
		if err != nil {
			return err
		}
		switch s.DataType {
		case TypeVariable, TypeString, TypeArray:
			err = assignToVariant(ctx, v, ce, dv)
		default:
			err = assignToScalar(ctx, v, ce, dv)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Conditionals
// ---------------------------------------------------------------------------

// evalCondition compiles expr into a C condition.
func evalCondition(expr Expr, ctx *Context) (string, *CompiledExpression, error) {
	ce, err := NewExpression(expr).Compile(ctx)
	if err != nil {
		return "", nil, err
	}
	switch ce.Type {
	case TypeVariable:
		v, err := ctx.Symbols.GetVariableForRead(ce.Code, expr)
		if err != nil {
			return "", nil, err
		}
		if v.Type().IsScalar() {
			return v.RealName(), ce, nil
		}
		return "zephir_is_true(" + v.RealName() + ")", ce, nil
	case TypeString, TypeEmptyArr:
		return "", nil, errorAt(expr, "cannot use expression of type %s as a condition", ce.Type)
	}
	return unwrap(ce.BooleanCode()), ce, nil
}

// unwrap strips one pair of parentheses enclosing the whole of code.
func unwrap(code string) string {
	if len(code) < 2 || code[0] != '(' || code[len(code)-1] != ')' {
		return code
	}
	depth := 0
	for i, c := range code {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(code)-1 {
				return code
			}
		}
	}
	return code[1 : len(code)-1]
}

func isLiteralBool(ce *CompiledExpression, value string) bool {
	return ce.Type == TypeBool && ce.Code == value
}

func compileIf(s *IfStatement, ctx *Context) error {
	cond, ce, err := evalCondition(s.Expr, ctx)
	if err != nil {
		return err
	}
	unreachable := ctx.currentUnreachable()

	ctx.Printer.Output("if (" + cond + ") {")
	block := NewStatementsBlock(s.Statements)
	block.SetRelatedStatement(s)
	if _, err := block.Compile(ctx, unreachable || isLiteralBool(ce, "0"), BranchCondTrue); err != nil {
		return err
	}
	if s.ElseStatements != nil {
		ctx.Printer.Output("} else {")
		elseBlock := NewStatementsBlock(s.ElseStatements)
		elseBlock.SetRelatedStatement(s)
		if _, err := elseBlock.Compile(ctx, unreachable || isLiteralBool(ce, "1"), BranchCondFalse); err != nil {
			return err
		}
	}
	ctx.Printer.Output("}")
	return nil
}

func compileSwitch(s *SwitchStatement, ctx *Context) error {
	subject, err := resolveOperand(ctx, s.Expr)
	if err != nil {
		return err
	}
	defer ctx.enterSwitch()()
	unreachable := ctx.currentUnreachable()

	ctx.Printer.Output("do {")
	ctx.Printer.IncreaseLevel()

	var pending []string
	var defaultClause *SwitchClause
	for _, clause := range s.Clauses {
		if clause.Expr == nil {
			defaultClause = clause
			continue
		}
		value, err := resolveOperand(ctx, clause.Expr)
		if err != nil {
			ctx.Printer.DecreaseLevel()
			return err
		}
		cond, err := equalityCondition(subject, value, clause, ctx)
		if err != nil {
			ctx.Printer.DecreaseLevel()
			return err
		}
		pending = append(pending, cond)
		if len(clause.Statements) == 0 {
			continue
		}
		ctx.Printer.Output("if (" + strings.Join(pending, " || ") + ") {")
		pending = nil
		block := NewStatementsBlock(clause.Statements)
		block.SetRelatedStatement(s)
		if _, err := block.Compile(ctx, unreachable, BranchSwitch); err != nil {
			ctx.Printer.DecreaseLevel()
			return err
		}
		ctx.Printer.Output("}")
	}

	ctx.Printer.DecreaseLevel()
	if defaultClause != nil {
		block := NewStatementsBlock(defaultClause.Statements)
		block.SetRelatedStatement(s)
		if _, err := block.Compile(ctx, unreachable, BranchSwitch); err != nil {
			return err
		}
	}
	ctx.Printer.Output("} while(0);")
	return nil
}

func equalityCondition(subject, value operand, node Node, ctx *Context) (string, error) {
	if !subject.variant && !value.variant {
		return subject.code + " == " + value.code, nil
	}
	if !subject.variant {
		subject, value = value, subject
	}
	ctx.Headers.Add(HeaderOperators)
	return variantComparison("equals", subject, value, node)
}

// ---------------------------------------------------------------------------
// Loops
// ---------------------------------------------------------------------------

func compileWhile(s *WhileStatement, ctx *Context) error {
	defer ctx.enterCycle()()

	ctx.Printer.Output("while (1) {")
	ctx.Printer.IncreaseLevel()
	cond, _, err := evalCondition(s.Expr, ctx)
	if err != nil {
		ctx.Printer.DecreaseLevel()
		return err
	}
	ctx.Printer.Output("if (!(" + cond + ")) {")
	ctx.Printer.Output("\tbreak;")
	ctx.Printer.Output("}")
	ctx.Printer.DecreaseLevel()

	block := NewStatementsBlock(s.Statements)
	block.SetRelatedStatement(s)
	if _, err := block.Compile(ctx, ctx.currentUnreachable(), BranchLoopConditional); err != nil {
		return err
	}
	continueLabel(ctx)
	ctx.Printer.Output("}")
	return nil
}

func compileDoWhile(s *DoWhileStatement, ctx *Context) error {
	defer ctx.enterCycle()()

	ctx.Printer.Output("do {")
	block := NewStatementsBlock(s.Statements)
	block.SetRelatedStatement(s)
	if _, err := block.Compile(ctx, ctx.currentUnreachable(), BranchLoopConditional); err != nil {
		return err
	}
	continueLabel(ctx)
	ctx.Printer.IncreaseLevel()
	cond, _, err := evalCondition(s.Expr, ctx)
	ctx.Printer.DecreaseLevel()
	if err != nil {
		return err
	}
	ctx.Printer.Output("} while (" + cond + ");")
	return nil
}

func compileLoop(s *LoopStatement, ctx *Context) error {
	defer ctx.enterCycle()()

	ctx.Printer.Output("while (1) {")
	block := NewStatementsBlock(s.Statements)
	block.SetRelatedStatement(s)
	if _, err := block.Compile(ctx, ctx.currentUnreachable(), BranchLoopInfinite); err != nil {
		return err
	}
	continueLabel(ctx)
	ctx.Printer.Output("}")
	return nil
}

func compileFor(s *ForStatement, ctx *Context) error {
	expr := NewExpression(s.Expr)
	expr.SetReadOnly(true)
	ce, err := expr.Compile(ctx)
	if err != nil {
		return err
	}
	if ce.Type != TypeVariable {
		return errorAt(s.Expr, "cannot iterate over expression of type %s", ce.Type)
	}
	iterable, err := ctx.Symbols.GetVariableForRead(ce.Code, s.Expr)
	if err != nil {
		return err
	}
	if iterable.Type() != TypeVariable && iterable.Type() != TypeArray {
		return errorAt(s.Expr, "cannot iterate over variable of type %s", iterable.Type())
	}

	value, err := ctx.Symbols.GetVariableForWrite(s.Value, s)
	if err != nil {
		return err
	}
	if value.Type() != TypeVariable {
		return errorAt(s, "cannot use variable of type %s as iteration value", value.Type())
	}
	var key *Variable
	if s.Key != "" {
		if key, err = ctx.Symbols.GetVariableForWrite(s.Key, s); err != nil {
			return err
		}
		if key.Type() != TypeVariable {
			return errorAt(s, "cannot use variable of type %s as iteration key", key.Type())
		}
	}

	defer ctx.enterCycle()()

	hash := ctx.Symbols.GetTempVariable(typeHashTable).RealName()
	pos := ctx.Symbols.GetTempVariable(typeHashPosition).RealName()
	data := ctx.Symbols.GetTempVariable(typeHashData).RealName()

	ctx.Headers.Add(HeaderHash)
	ctx.Printer.Output("zephir_is_iterable(" + iterable.RealName() + ", &" + hash + ", &" + pos + ", 0, 0);")
	ctx.Printer.Output("for (")
	ctx.Printer.Output("  ; zephir_hash_get_current_data_ex(" + hash + ", (void**) &" + data + ", &" + pos + ") == SUCCESS")
	ctx.Printer.Output("  ; zephir_hash_move_forward_ex(" + hash + ", &" + pos + ")")
	ctx.Printer.Output(") {")
	ctx.Printer.IncreaseLevel()
	if key != nil {
		ctx.Printer.Output("ZEPHIR_GET_HMKEY(" + key.RealName() + ", " + hash + ", " + pos + ");")
		key.SetInitialized(true)
		key.SetDynamicTypes(TypeLong, TypeString)
	}
	ctx.Printer.Output("ZEPHIR_GET_HVALUE(" + value.RealName() + ", " + data + ");")
	ctx.Printer.DecreaseLevel()
	value.SetInitialized(true)
	value.SetDynamicTypes(TypeUndefined)

	block := NewStatementsBlock(s.Statements)
	block.SetRelatedStatement(s)
	if _, err := block.Compile(ctx, ctx.currentUnreachable(), BranchLoopConditional); err != nil {
		return err
	}
	continueLabel(ctx)
	ctx.Printer.Output("}")
	return nil
}

// ---------------------------------------------------------------------------
// Terminators
// ---------------------------------------------------------------------------

func compileReturn(s *ReturnStatement, ctx *Context) error {
	if s.Expr == nil {
		ctx.Printer.Output("RETURN_MM_NULL();")
		return nil
	}

	expr := NewExpression(s.Expr)
	expr.SetExpectReturn(true, ctx.Symbols.GetVariable(ReturnValueName))
	expr.SetReadOnly(true)
	ce, err := expr.Compile(ctx)
	if err != nil {
		return err
	}

	typ, code := ce.Type, ce.Code
	var v *Variable
	if typ == TypeVariable {
		if v, err = ctx.Symbols.GetVariableForRead(ce.Code, s.Expr); err != nil {
			return err
		}
		typ, code = v.Type(), v.RealName()
	}

	switch typ {
	case TypeInt, TypeUInt, TypeLong, TypeULong, TypeChar, TypeUChar:
		ctx.Printer.Output("RETURN_MM_LONG(" + code + ");")
	case TypeDouble:
		ctx.Printer.Output("RETURN_MM_DOUBLE(" + code + ");")
	case TypeBool:
		ctx.Printer.Output("RETURN_MM_BOOL(" + code + ");")
	case TypeString:
		if v == nil {
			ctx.Printer.Output("RETURN_MM_STRING(\"" + code + "\", 1);")
			break
		}
		ctx.Printer.Output("RETURN_CTOR(" + code + ");")
	case TypeNull:
		ctx.Printer.Output("RETURN_MM_NULL();")
	case TypeEmptyArr:
		ctx.Printer.Output("array_init(return_value);")
		ctx.Printer.Output("RETURN_MM();")
	case TypeVariable, TypeArray:
		switch {
		case v.Name() == ReturnValueName:
			ctx.Printer.Output("RETURN_MM();")
		case v.IsMemoryTracked():
			ctx.Printer.Output("RETURN_CCTOR(" + code + ");")
		default:
			ctx.Printer.Output("RETURN_CTOR(" + code + ");")
		}
	default:
		return errorAt(s.Expr, "cannot return expression of type %s", typ)
	}
	return nil
}

func compileBreak(s *BreakStatement, ctx *Context) error {
	if ctx.InsideCycle == 0 && ctx.InsideSwitch == 0 {
		return errorAt(s, "cannot use 'break' outside of a loop or switch")
	}
	ctx.Printer.Output("break;")
	return nil
}

func compileContinue(s *ContinueStatement, ctx *Context) error {
	if ctx.InsideCycle == 0 {
		return errorAt(s, "cannot use 'continue' outside of a loop")
	}
	// A switch is a do-while(0) in C, where continue would only leave the
	// switch. Jump to the end of the loop body instead.
	for i := len(ctx.flow) - 1; i >= 0; i-- {
		f := ctx.flow[i]
		if !f.loop {
			continue
		}
		if i == len(ctx.flow)-1 {
			ctx.Printer.Output("continue;")
		} else {
			f.continued = true
			ctx.Printer.Output("goto " + f.label + ";")
		}
		break
	}
	return nil
}

// continueLabel prints the loop's continue target when a continue inside a
// switch jumped to it. Call it after the loop body, before closing it.
func continueLabel(ctx *Context) {
	if f := ctx.innermostFlow(); f != nil && f.loop && f.continued {
		ctx.Printer.Output("\t" + f.label + ": ;")
	}
}

func compileThrow(s *ThrowStatement, ctx *Context) error {
	ce, err := NewExpression(s.Expr).Compile(ctx)
	if err != nil {
		return err
	}
	ctx.Headers.Add(HeaderException)
	switch ce.Type {
	case TypeVariable:
		v, err := ctx.Symbols.GetVariableForRead(ce.Code, s.Expr)
		if err != nil {
			return err
		}
		if v.Type() != TypeVariable {
			return errorAt(s.Expr, "cannot throw variable of type %s", v.Type())
		}
		ctx.Printer.Output("zephir_throw_exception(" + v.RealName() + ");")
		ctx.Printer.Output("ZEPHIR_MM_RESTORE();")
		ctx.Printer.Output("return;")
	case TypeString:
		ctx.Printer.Output("ZEPHIR_THROW_EXCEPTION_STR(zend_exception_get_default(), \"" + ce.Code + "\");")
		ctx.Printer.Output("return;")
	default:
		return errorAt(s.Expr, "cannot throw expression of type %s", ce.Type)
	}
	return nil
}

// ---------------------------------------------------------------------------
// require, unset
// ---------------------------------------------------------------------------

func compileRequire(s *RequireStatement, ctx *Context) error {
	names, err := callParameters([]Expr{s.Expr}, ctx)
	if err != nil {
		return err
	}
	ctx.Headers.Add(HeaderRequire)
	ctx.Printer.Output("if (zephir_require_zval(" + names[0] + ") == FAILURE) {")
	ctx.Printer.Output("\tRETURN_MM_NULL();")
	ctx.Printer.Output("}")
	return nil
}

func compileUnset(s *UnsetStatement, ctx *Context) error {
	access, ok := s.Expr.(*ArrayAccess)
	if !ok {
		return errorAt(s.Expr, "cannot use expression type %T in unset", s.Expr)
	}
	ref, ok := access.Left.(*VariableRef)
	if !ok {
		return errorAt(access.Left, "cannot unset an index of a non-variable")
	}
	base, err := ctx.Symbols.GetVariableForWrite(ref.Name, access.Left)
	if err != nil {
		return err
	}
	if base.Type() != TypeVariable && base.Type() != TypeArray {
		return errorAt(access.Left, "variable of type %s cannot be used as array", base.Type())
	}
	index, err := NewExpression(access.Right).Compile(ctx)
	if err != nil {
		return err
	}

	ctx.Headers.Add(HeaderArray)
	target := "&" + base.RealName()
	switch {
	case index.Type.IsIntegerFamily():
		ctx.Printer.Output("zephir_array_unset_long(" + target + ", " + index.Code + ", PH_SEPARATE);")
	case index.Type == TypeString:
		ctx.Printer.Output("zephir_array_unset_string(" + target + ", SS(\"" + index.Code + "\"), PH_SEPARATE);")
	case index.Type == TypeVariable:
		indexVar, err := ctx.Symbols.GetVariableForRead(index.Code, access.Right)
		if err != nil {
			return err
		}
		if indexVar.Type().IsIntegerFamily() {
			ctx.Printer.Output("zephir_array_unset_long(" + target + ", " + indexVar.RealName() + ", PH_SEPARATE);")
			break
		}
		ctx.Printer.Output("zephir_array_unset(" + target + ", " + indexVar.RealName() + ", PH_SEPARATE);")
	default:
		return errorAt(access.Right, "expression type %s cannot be used as array index without a cast", index.Type)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Expression statements
// ---------------------------------------------------------------------------

// compileExprStatement compiles a call or fetch whose value is discarded.
func compileExprStatement(s *CallStatement, ctx *Context) (*CompiledExpression, error) {
	expr := NewExpression(s.Expr)
	expr.SetExpectReturn(false, nil)
	return expr.Compile(ctx)
}
