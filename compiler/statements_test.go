package compiler

import (
	"strings"
	"testing"
)

func v(name string) *VariableRef  { return &VariableRef{PosVal: at(1), Name: name} }
func lit(value string) *IntLiteral { return &IntLiteral{PosVal: at(1), Value: value} }

func let(variable string, expr Expr) *LetStatement {
	return &LetStatement{PosVal: at(1), Assignments: []*Assignment{
		{PosVal: at(1), AssignType: "variable", Operator: "assign", Variable: variable, Expr: expr},
	}}
}

// compileLines compiles stmts as a root block and returns the output
// lines with the block indentation removed.
func compileLines(t *testing.T, ctx *Context, stmts ...Statement) []string {
	t.Helper()
	if _, err := NewStatementsBlock(stmts).Compile(ctx, false, BranchRoot); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	lines := ctx.Printer.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimPrefix(l, "\t")
	}
	return out
}

func assertLines(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("output =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestLet_Variants(t *testing.T) {
	ctx := NewContext(Options{})
	ctx.Symbols.AddVariable(TypeVariable, "x", nil)
	declareVariant(ctx, "y", TypeString)

	got := compileLines(t, ctx,
		let("x", lit("5")),
		let("x", v("y")),
		let("x", &EmptyArray{PosVal: at(1)}),
	)
	assertLines(t, got,
		"ZEPHIR_INIT_VAR(x);",
		"ZVAL_LONG(x, 5);",
		"ZEPHIR_CPY_WRT(x, y);",
		"ZEPHIR_INIT_NVAR(x);",
		"array_init(x);",
	)
	x := ctx.Symbols.GetVariable("x")
	if types := x.DynamicTypes(); len(types) != 1 || types[0] != TypeArray {
		t.Errorf("dynamic types = %v, want [array]", types)
	}
}

func TestLet_Scalars(t *testing.T) {
	ctx := NewContext(Options{})
	ctx.Symbols.AddVariable(TypeInt, "i", nil)
	ctx.Symbols.AddVariable(TypeDouble, "d", nil)
	declareVariant(ctx, "z", TypeLong)

	got := compileLines(t, ctx,
		let("i", lit("1")),
		&LetStatement{PosVal: at(2), Assignments: []*Assignment{
			{PosVal: at(2), AssignType: "incr", Variable: "i"},
			{PosVal: at(2), AssignType: "variable", Operator: "add-assign", Variable: "i", Expr: lit("2")},
		}},
		let("d", v("z")),
	)
	assertLines(t, got,
		"i = 1;",
		"i++;",
		"i += 2;",
		"d = zephir_get_doubleval(z);",
	)
}

func TestLet_CompoundOnVariantIsFatal(t *testing.T) {
	ctx := NewContext(Options{})
	declareVariant(ctx, "x", TypeLong)
	stmt := &LetStatement{PosVal: at(1), Assignments: []*Assignment{
		{PosVal: at(1), AssignType: "variable", Operator: "mul-assign", Variable: "x", Expr: lit("2")},
	}}
	_, err := NewStatementsBlock([]Statement{stmt}).Compile(ctx, false, BranchRoot)
	if err == nil || !strings.Contains(err.Error(), "operator mul-assign is not supported") {
		t.Errorf("err = %v", err)
	}
}

func TestLet_CallResult(t *testing.T) {
	ctx := NewContext(Options{})
	ctx.Symbols.AddVariable(TypeVariable, "r", nil)

	got := compileLines(t, ctx, let("r", &FunctionCall{PosVal: at(1), Name: "f", Parameters: []Expr{lit("1")}}))
	assertLines(t, got,
		"ZEPHIR_INIT_VAR(_0);",
		"ZVAL_LONG(_0, 1);",
		"ZEPHIR_OBS_VAR(r);",
		"ZEPHIR_CALL_FUNCTION(&r, \"f\", NULL, _0);",
		"zephir_check_call_status();",
	)
}

func TestDeclare(t *testing.T) {
	ctx := NewContext(Options{})
	got := compileLines(t, ctx, &DeclareStatement{PosVal: at(1), DataType: TypeVariable, Variables: []*DeclaredVariable{
		{PosVal: at(1), Name: "a"},
		{PosVal: at(1), Name: "b", Default: &NullLiteral{PosVal: at(1)}},
	}})
	assertLines(t, got, "ZEPHIR_INIT_VAR(b);", "ZVAL_NULL(b);")

	if !ctx.Symbols.GetVariable("a").HasAnyDynamicType(TypeUnknown) {
		t.Error("a variable declared without default stays unknown")
	}

	dup := &DeclareStatement{PosVal: at(2), DataType: TypeInt, Variables: []*DeclaredVariable{{PosVal: at(2), Name: "a"}}}
	_, err := NewStatementsBlock([]Statement{dup}).Compile(ctx, false, BranchRoot)
	if err == nil || !strings.Contains(err.Error(), "variable 'a' is already declared") {
		t.Errorf("err = %v", err)
	}
}

func TestIf_Conditions(t *testing.T) {
	ctx := NewContext(Options{})
	declareVariant(ctx, "a", TypeLong)
	ctx.Symbols.AddVariable(TypeInt, "n", nil)

	got := compileLines(t, ctx,
		&IfStatement{PosVal: at(1), Expr: &BinaryExpr{PosVal: at(1), Op: "equals", Left: v("a"), Right: lit("1")}},
		&IfStatement{PosVal: at(2), Expr: &BinaryExpr{PosVal: at(2), Op: "less", Left: v("n"), Right: lit("3")}},
		&IfStatement{PosVal: at(3), Expr: &BinaryExpr{PosVal: at(3), Op: "greater", Left: lit("3"), Right: v("a")}},
		&IfStatement{PosVal: at(4), Expr: &UnaryExpr{PosVal: at(4), Op: "not", Operand: v("a")}},
	)
	assertLines(t, got,
		"if (ZEPHIR_IS_LONG(a, 1)) {",
		"}",
		"if (n < 3) {",
		"}",
		"if (ZEPHIR_LT_LONG(a, 3)) {",
		"}",
		"if (!(zephir_is_true(a))) {",
		"}",
	)
}

func TestWhile(t *testing.T) {
	ctx := NewContext(Options{})
	declareVariant(ctx, "a", TypeArray)
	ctx.Symbols.AddVariable(TypeVariable, "x", nil)
	ctx.Symbols.SetExpectedMutations("x", 2)

	got := compileLines(t, ctx, &WhileStatement{
		PosVal: at(1),
		Expr:   &BoolLiteral{PosVal: at(1), Value: true},
		Statements: []Statement{
			let("x", indexed("a", lit("0"))),
			let("x", indexed("a", lit("1"))),
		},
	})
	assertLines(t, got,
		"while (1) {",
		"\tif (!(1)) {",
		"\t\tbreak;",
		"\t}",
		"\tZEPHIR_OBS_NVAR(x);",
		"\tzephir_array_fetch_long(&x, a, 0, PH_NOISY);",
		"\tZEPHIR_OBS_NVAR(x);",
		"\tzephir_array_fetch_long(&x, a, 1, PH_NOISY);",
		"}",
	)
	if ctx.InsideCycle != 0 {
		t.Errorf("InsideCycle = %d after loop, want 0", ctx.InsideCycle)
	}
}

func TestDoWhile(t *testing.T) {
	ctx := NewContext(Options{})
	ctx.Symbols.AddVariable(TypeInt, "i", nil)

	got := compileLines(t, ctx, &DoWhileStatement{
		PosVal: at(1),
		Expr:   &BinaryExpr{PosVal: at(1), Op: "less", Left: v("i"), Right: lit("10")},
		Statements: []Statement{
			&LetStatement{PosVal: at(2), Assignments: []*Assignment{{PosVal: at(2), AssignType: "incr", Variable: "i"}}},
			&ContinueStatement{PosVal: at(3)},
		},
	})
	assertLines(t, got,
		"do {",
		"\ti++;",
		"\tcontinue;",
		"} while (i < 10);",
	)
}

func TestFor(t *testing.T) {
	ctx := NewContext(Options{})
	declareVariant(ctx, "a", TypeArray)
	ctx.Symbols.AddVariable(TypeVariable, "k", nil)
	ctx.Symbols.AddVariable(TypeVariable, "val", nil)

	got := compileLines(t, ctx, &ForStatement{
		PosVal: at(1), Expr: v("a"), Key: "k", Value: "val",
		Statements: []Statement{&EchoStatement{PosVal: at(2), Expressions: []Expr{v("val")}}},
	})
	assertLines(t, got,
		"zephir_is_iterable(a, &_0, &_1, 0, 0);",
		"for (",
		"  ; zephir_hash_get_current_data_ex(_0, (void**) &_2, &_1) == SUCCESS",
		"  ; zephir_hash_move_forward_ex(_0, &_1)",
		") {",
		"\tZEPHIR_GET_HMKEY(k, _0, _1);",
		"\tZEPHIR_GET_HVALUE(val, _2);",
		"\tzend_print_zval(val, 0);",
		"}",
	)
	if !ctx.Headers.Has(HeaderHash) {
		t.Error("for should request kernel/hash")
	}
}

func TestSwitch(t *testing.T) {
	ctx := NewContext(Options{})
	declareVariant(ctx, "a", TypeLong)

	echo := func(value string) Statement {
		return &EchoStatement{PosVal: at(1), Expressions: []Expr{lit(value)}}
	}
	got := compileLines(t, ctx, &SwitchStatement{
		PosVal: at(1),
		Expr:   v("a"),
		Clauses: []*SwitchClause{
			{PosVal: at(2), Expr: lit("1")},
			{PosVal: at(3), Expr: lit("2"), Statements: []Statement{echo("1"), &BreakStatement{PosVal: at(4)}}},
			{PosVal: at(5), Statements: []Statement{echo("3")}},
		},
	})
	assertLines(t, got,
		"do {",
		"\tif (ZEPHIR_IS_LONG(a, 1) || ZEPHIR_IS_LONG(a, 2)) {",
		"\t\tphp_printf(\"%d\", 1);",
		"\t\tbreak;",
		"\t}",
		"\tphp_printf(\"%d\", 3);",
		"} while(0);",
	)
	if ctx.InsideSwitch != 0 {
		t.Errorf("InsideSwitch = %d, want 0", ctx.InsideSwitch)
	}
}

func TestContinueOutsideLoop(t *testing.T) {
	ctx := NewContext(Options{})
	ctx.InsideSwitch = 1
	_, err := NewStatementsBlock([]Statement{&ContinueStatement{PosVal: at(1)}}).Compile(ctx, false, BranchRoot)
	if err == nil || !strings.Contains(err.Error(), "cannot use 'continue' outside of a loop") {
		t.Errorf("err = %v", err)
	}
}

func TestReturnForms(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"int", lit("3"), "RETURN_MM_LONG(3);"},
		{"bool", &BoolLiteral{PosVal: at(1), Value: true}, "RETURN_MM_BOOL(1);"},
		{"string", &StringLiteral{PosVal: at(1), Value: "ok"}, "RETURN_MM_STRING(\"ok\", 1);"},
		{"null", &NullLiteral{PosVal: at(1)}, "RETURN_MM_NULL();"},
		{"variant", v("a"), "RETURN_CCTOR(a);"},
		{"scalar variable", v("n"), "RETURN_MM_LONG(n);"},
	}
	for _, tt := range tests {
		ctx := NewContext(Options{})
		declareVariant(ctx, "a", TypeLong)
		ctx.Symbols.AddVariable(TypeLong, "n", nil)
		got := compileLines(t, ctx, &ReturnStatement{PosVal: at(1), Expr: tt.expr})
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("%s: output = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUnsetThrowRequire(t *testing.T) {
	ctx := NewContext(Options{})
	declareVariant(ctx, "a", TypeArray)
	declareVariant(ctx, "e", TypeUndefined)

	got := compileLines(t, ctx,
		&UnsetStatement{PosVal: at(1), Expr: indexed("a", &StringLiteral{PosVal: at(1), Value: "k"})},
		&RequireStatement{PosVal: at(2), Expr: &StringLiteral{PosVal: at(2), Value: "boot.php"}},
		&ThrowStatement{PosVal: at(3), Expr: v("e")},
	)
	assertLines(t, got,
		"zephir_array_unset_string(&a, SS(\"k\"), PH_SEPARATE);",
		"ZEPHIR_INIT_VAR(_0);",
		"ZVAL_STRING(_0, \"boot.php\", 1);",
		"if (zephir_require_zval(_0) == FAILURE) {",
		"\tRETURN_MM_NULL();",
		"}",
		"zephir_throw_exception(e);",
		"ZEPHIR_MM_RESTORE();",
		"return;",
	)
	for _, h := range []string{HeaderArray, HeaderRequire, HeaderException} {
		if !ctx.Headers.Has(h) {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestCallStatements(t *testing.T) {
	ctx := NewContext(Options{})
	this := ctx.Symbols.AddVariable(TypeVariable, ThisName, nil)
	this.SetDynamicTypes(TypeUndefined)
	declareVariant(ctx, "a", TypeArray)
	ctx.Symbols.AddVariable(TypeVariable, "f", nil)

	got := compileLines(t, ctx,
		&CallStatement{PosVal: at(1), StmtKind: KindMcall, Expr: &MethodCall{
			PosVal: at(1), Receiver: v("this"), Name: "run", Parameters: []Expr{v("a")},
		}},
		&CallStatement{PosVal: at(2), StmtKind: KindScall, Expr: &StaticCall{
			PosVal: at(2), Class: `\App\Util`, Name: "reset",
		}},
		&CallStatement{PosVal: at(3), StmtKind: KindFetch, Expr: &FetchExpr{
			PosVal: at(3), Left: v("f"), Right: indexed("a", lit("2")),
		}},
	)
	assertLines(t, got,
		"ZEPHIR_CALL_METHOD(NULL, this_ptr, \"run\", NULL, a);",
		"zephir_check_call_status();",
		"ZEPHIR_CALL_CE_STATIC(NULL, app_util_ce, \"reset\", NULL);",
		"zephir_check_call_status();",
		"ZEPHIR_OBS_VAR(f);",
		"zephir_array_isset_long_fetch(&f, a, 2, 0);",
	)
}

func TestContinueInsideSwitchJumpsToLoopEnd(t *testing.T) {
	ctx := NewContext(Options{})
	declareVariant(ctx, "a", TypeLong)

	got := compileLines(t, ctx, &LoopStatement{
		PosVal: at(1),
		Statements: []Statement{
			&SwitchStatement{
				PosVal: at(2),
				Expr:   v("a"),
				Clauses: []*SwitchClause{
					{PosVal: at(3), Expr: lit("1"), Statements: []Statement{&ContinueStatement{PosVal: at(4)}}},
				},
			},
			&EchoStatement{PosVal: at(5), Expressions: []Expr{lit("2")}},
		},
	})
	assertLines(t, got,
		"while (1) {",
		"\tdo {",
		"\t\tif (ZEPHIR_IS_LONG(a, 1)) {",
		"\t\t\tgoto zephir_continue_0;",
		"\t\t}",
		"\t} while(0);",
		"\tphp_printf(\"%d\", 2);",
		"\tzephir_continue_0: ;",
		"}",
	)
	if len(ctx.flow) != 0 {
		t.Errorf("flow stack = %d frames after the loop, want 0", len(ctx.flow))
	}
}

func TestContinueInsideSwitchOutsideLoop(t *testing.T) {
	ctx := NewContext(Options{})
	declareVariant(ctx, "a", TypeLong)

	_, err := NewStatementsBlock([]Statement{&SwitchStatement{
		PosVal: at(1),
		Expr:   v("a"),
		Clauses: []*SwitchClause{
			{PosVal: at(2), Expr: lit("1"), Statements: []Statement{&ContinueStatement{PosVal: at(3)}}},
		},
	}}).Compile(ctx, false, BranchRoot)
	if err == nil || !strings.Contains(err.Error(), "cannot use 'continue' outside of a loop") {
		t.Errorf("err = %v", err)
	}
}
