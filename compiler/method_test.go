package compiler

import (
	"strings"
	"testing"
)

// unitJSON builds a one-class, one-method unit in the parser's IR.
func unitJSON(visibility, params, statements string) string {
	return `[
		{"type": "namespace", "name": "Test"},
		{"type": "class", "name": "Fetch", "definition": {"methods": [
			{"type": "method", "name": "first", "visibility": ` + visibility + `,
			 "parameters": ` + params + `,
			 "statements": ` + statements + `,
			 "file": "fetch.zep", "line": 5, "char": 1}
		]}}
	]`
}

const paramA = `[{"type": "parameter", "name": "a", "data-type": "variable"}]`

func compileOne(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	u, err := DecodeUnit([]byte(src))
	if err != nil {
		t.Fatalf("DecodeUnit: %v", err)
	}
	results, err := CompileUnit(u, opts)
	if err != nil {
		t.Fatalf("CompileUnit: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	return results[0]
}

func TestCompileMethod_ReadOnlyFetch(t *testing.T) {
	src := unitJSON(`["public"]`, paramA, `[
		{"type": "declare", "data-type": "variable", "variables": [{"variable": "x"}]},
		{"type": "let", "assignments": [{"assign-type": "variable", "operator": "assign", "variable": "x",
			"expr": {"type": "array-access", "left": {"type": "variable", "value": "a"}, "right": {"type": "int", "value": "0"}}}]},
		{"type": "return", "expr": {"type": "variable", "value": "x"}}
	]`)
	r := compileOne(t, src, Options{})

	want := strings.Join([]string{
		"PHP_METHOD(Test_Fetch, first) {",
		"",
		"\tzval *a, *x;",
		"",
		"\tZEPHIR_MM_GROW();",
		"\tzephir_fetch_params(1, 1, 0, &a);",
		"",
		"\tzephir_array_fetch_long(&x, a, 0, PH_NOISY | PH_READONLY);",
		"\tRETURN_CTOR(x);",
		"}",
	}, "\n") + "\n"
	if r.Code != want {
		t.Errorf("Code =\n%s\nwant\n%s", r.Code, want)
	}
	if r.Class != "Test_Fetch" || r.Method != "first" {
		t.Errorf("Class/Method = %s/%s", r.Class, r.Method)
	}
	if strings.Join(r.Headers, ",") != "kernel/memory,kernel/array" {
		t.Errorf("Headers = %v", r.Headers)
	}
	if r.LastStatement != KindReturn {
		t.Errorf("LastStatement = %q, want return", r.LastStatement)
	}
}

func TestCompileMethod_ReturnSlotUsesTemporary(t *testing.T) {
	src := unitJSON(`["public"]`, paramA, `[
		{"type": "return", "expr": {"type": "array-access",
			"left": {"type": "variable", "value": "a"}, "right": {"type": "string", "value": "id"}}}
	]`)
	r := compileOne(t, src, Options{})

	for _, line := range []string{
		"\tzval *a, *_0;",
		"\tzephir_array_fetch_string(&_0, a, SL(\"id\"), PH_NOISY | PH_READONLY);",
		"\tRETURN_CTOR(_0);",
	} {
		if !strings.Contains(r.Code, line+"\n") {
			t.Errorf("Code missing %q:\n%s", line, r.Code)
		}
	}
}

func TestCompileMethod_ScalarParameterAndImplicitReturn(t *testing.T) {
	src := unitJSON(`["public", "static"]`, `[{"type": "parameter", "name": "n", "data-type": "int"}]`, `[
		{"type": "echo", "expressions": [{"type": "variable", "value": "n"}]}
	]`)
	r := compileOne(t, src, Options{})

	for _, line := range []string{
		"\tint n;",
		"\tzval *n_param;",
		"\tzephir_fetch_params(1, 1, 0, &n_param);",
		"\tn = zephir_get_intval(n_param);",
		"\tphp_printf(\"%d\", n);",
		"\tRETURN_MM_NULL();",
	} {
		if !strings.Contains(r.Code, line+"\n") {
			t.Errorf("Code missing %q:\n%s", line, r.Code)
		}
	}
	if strings.Contains(r.Code, "this_ptr") {
		t.Error("static methods have no this")
	}
}

func TestCompileMethod_ThisReturn(t *testing.T) {
	src := unitJSON(`["public"]`, `[]`, `[{"type": "return", "expr": {"type": "variable", "value": "this"}}]`)
	r := compileOne(t, src, Options{})
	if !strings.Contains(r.Code, "\tRETURN_CCTOR(this_ptr);\n") {
		t.Errorf("Code =\n%s", r.Code)
	}
	if strings.Contains(r.Code, "zephir_fetch_params") {
		t.Error("no parameters should be fetched")
	}
}

func TestCompileMethod_Diagnostics(t *testing.T) {
	src := unitJSON(`["public"]`, paramA, `[
		{"type": "declare", "data-type": "variable", "variables": [{"variable": "b", "expr": {"type": "int", "value": "1"}}]},
		{"type": "echo", "expressions": [{"type": "array-access",
			"left": {"type": "variable", "value": "b", "file": "fetch.zep", "line": 7, "char": 9},
			"right": {"type": "int", "value": "0"}}]},
		{"type": "return"},
		{"type": "echo", "expressions": [{"type": "int", "value": "2", "file": "fetch.zep", "line": 9, "char": 9}]}
	]`)
	r := compileOne(t, src, Options{})

	if len(r.Diagnostics) != 2 {
		t.Fatalf("Diagnostics = %v, want 2", r.Diagnostics)
	}
	if d := r.Diagnostics[0]; d.Code != WarnNonArrayAccess || d.Position.Line != 7 {
		t.Errorf("first diagnostic = %v", d)
	}
	if d := r.Diagnostics[1]; d.Code != WarnUnreachableCode || d.Position.Line != 9 {
		t.Errorf("second diagnostic = %v", d)
	}
	if r.LastStatement != KindEcho {
		t.Errorf("LastStatement = %q, want echo", r.LastStatement)
	}
	if strings.Count(r.Code, "RETURN_MM_NULL();") != 1 {
		t.Errorf("an unreachable root needs no implicit return:\n%s", r.Code)
	}

	r = compileOne(t, src, Options{Warnings: map[string]bool{WarnNonArrayAccess: false}})
	if len(r.Diagnostics) != 1 {
		t.Errorf("Diagnostics with non-array-access disabled = %v", r.Diagnostics)
	}
}

func TestCompileMethod_FatalError(t *testing.T) {
	src := unitJSON(`["public"]`, paramA, `[
		{"type": "let", "assignments": [{"assign-type": "variable", "operator": "assign", "variable": "y",
			"expr": {"type": "int", "value": "1"}, "file": "fetch.zep", "line": 6, "char": 3}]}
	]`)
	u, err := DecodeUnit([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	results, err := CompileUnit(u, Options{})
	if err == nil {
		t.Fatal("expected a fatal error")
	}
	if len(results) != 0 {
		t.Errorf("got %d results before the failing method, want 0", len(results))
	}
	if !IsCompilerError(err) {
		t.Errorf("error %T does not wrap a CompilerError", err)
	}
	if !strings.Contains(err.Error(), "fetch.zep:6:3: cannot mutate variable 'y' because it wasn't declared") {
		t.Errorf("err = %q", err)
	}
}

func TestCompileUnit_StopsAtFirstError(t *testing.T) {
	u := &Unit{Classes: []*Class{{Name: "A", Methods: []*Method{
		{Name: "ok", Statements: []Statement{&ReturnStatement{PosVal: at(1)}}},
		{Name: "bad", Statements: []Statement{&EchoStatement{PosVal: at(2), Expressions: []Expr{v("nope")}}}},
		{Name: "never"},
	}}}}
	results, err := CompileUnit(u, Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(results) != 1 || results[0].Method != "ok" {
		t.Errorf("results = %v", results)
	}
}

func TestCompileMethod_DebugHints(t *testing.T) {
	src := unitJSON(`["public"]`, `[]`, `[
		{"type": "echo", "expressions": [{"type": "int", "value": "1"}], "file": "fetch.zep", "line": 6, "char": 3}
	]`)
	r := compileOne(t, src, Options{Debug: true})
	if !strings.Contains(r.Code, "#line 6 \"fetch.zep\"\n") {
		t.Errorf("Code =\n%s", r.Code)
	}
}

func TestCompileMethod_DeclareDefaultCountsAsWrite(t *testing.T) {
	src := unitJSON(`["public"]`, paramA, `[
		{"type": "declare", "data-type": "variable", "variables": [
			{"variable": "x", "expr": {"type": "string", "value": "hello"}}]},
		{"type": "let", "assignments": [{"assign-type": "variable", "operator": "assign", "variable": "x",
			"expr": {"type": "array-access", "left": {"type": "variable", "value": "a"}, "right": {"type": "int", "value": "0"}}}]},
		{"type": "return", "expr": {"type": "variable", "value": "x"}}
	]`)
	r := compileOne(t, src, Options{})

	for _, line := range []string{
		"\tzval *a, *x = NULL;",
		"\tZEPHIR_INIT_VAR(x);",
		"\tZVAL_STRING(x, \"hello\", 1);",
		"\tZEPHIR_OBS_NVAR(x);",
		"\tzephir_array_fetch_long(&x, a, 0, PH_NOISY);",
		"\tRETURN_CCTOR(x);",
	} {
		if !strings.Contains(r.Code, line+"\n") {
			t.Errorf("Code missing %q:\n%s", line, r.Code)
		}
	}
	if strings.Contains(r.Code, "PH_READONLY") {
		t.Errorf("a variable written twice must not borrow the element:\n%s", r.Code)
	}
}
