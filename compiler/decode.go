package compiler

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// IR decoding: the parser's JSON intermediate representation to AST
// ---------------------------------------------------------------------------

// irNode is one JSON object of the IR. Fields are decoded lazily.
type irNode map[string]json.RawMessage

func (n irNode) str(key string) string {
	raw, ok := n[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Numbers and booleans keep their JSON spelling.
	return strings.TrimSpace(string(raw))
}

func (n irNode) integer(key string) int {
	var v int
	if raw, ok := n[key]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}

func (n irNode) has(key string) bool {
	raw, ok := n[key]
	return ok && string(raw) != "null"
}

func (n irNode) child(key string) (irNode, error) {
	if !n.has(key) {
		return nil, nil
	}
	var c irNode
	if err := json.Unmarshal(n[key], &c); err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	return c, nil
}

func (n irNode) children(key string) ([]irNode, error) {
	if !n.has(key) {
		return nil, nil
	}
	var cs []irNode
	if err := json.Unmarshal(n[key], &cs); err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	return cs, nil
}

func (n irNode) pos() Position {
	return Position{File: n.str("file"), Line: n.integer("line"), Char: n.integer("char")}
}

// DecodeUnit decodes a whole file: a JSON array of top-level namespace and
// class entries.
func DecodeUnit(data []byte) (*Unit, error) {
	var top []irNode
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	u := &Unit{}
	for _, entry := range top {
		switch entry.str("type") {
		case "namespace":
			u.Namespace = entry.str("name")
		case "class":
			c, err := decodeClass(entry)
			if err != nil {
				return nil, fmt.Errorf("decode class %s: %w", entry.str("name"), err)
			}
			u.Classes = append(u.Classes, c)
		}
	}
	return u, nil
}

func decodeClass(n irNode) (*Class, error) {
	c := &Class{PosVal: n.pos(), Name: n.str("name")}
	def, err := n.child("definition")
	if err != nil || def == nil {
		return c, err
	}
	methods, err := def.children("methods")
	if err != nil {
		return nil, err
	}
	for _, mn := range methods {
		m, err := decodeMethod(mn)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", mn.str("name"), err)
		}
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}

func decodeMethod(n irNode) (*Method, error) {
	m := &Method{PosVal: n.pos(), Name: n.str("name")}
	if n.has("visibility") {
		if err := json.Unmarshal(n["visibility"], &m.Visibility); err != nil {
			return nil, fmt.Errorf("field \"visibility\": %w", err)
		}
	}
	for _, v := range m.Visibility {
		if v == "static" {
			m.Static = true
		}
	}
	params, err := n.children("parameters")
	if err != nil {
		return nil, err
	}
	for _, pn := range params {
		m.Parameters = append(m.Parameters, &Parameter{
			PosVal:   pn.pos(),
			Name:     pn.str("name"),
			DataType: Type(pn.str("data-type")),
		})
	}
	if m.Statements, err = decodeStatementList(n, "statements"); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeStatements decodes a JSON array of statements.
func DecodeStatements(data []byte) ([]Statement, error) {
	var nodes []irNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("decode statements: %w", err)
	}
	return decodeStatements(nodes)
}

// DecodeExpr decodes one JSON expression.
func DecodeExpr(data []byte) (Expr, error) {
	var n irNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode expression: %w", err)
	}
	return decodeExpr(n)
}

func decodeStatementList(n irNode, key string) ([]Statement, error) {
	nodes, err := n.children(key)
	if err != nil {
		return nil, err
	}
	return decodeStatements(nodes)
}

func decodeStatements(nodes []irNode) ([]Statement, error) {
	out := make([]Statement, 0, len(nodes))
	for _, n := range nodes {
		s, err := decodeStatement(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeStatement(n irNode) (Statement, error) {
	pos := n.pos()
	kind := n.str("type")
	expr, err := decodeChildExpr(n, "expr")
	if err != nil {
		return nil, fmt.Errorf("%s statement: %w", kind, err)
	}
	body := func() ([]Statement, error) { return decodeStatementList(n, "statements") }

	switch StatementKind(kind) {
	case KindLet:
		s := &LetStatement{PosVal: pos}
		assignments, err := n.children("assignments")
		if err != nil {
			return nil, err
		}
		for _, an := range assignments {
			x, err := decodeChildExpr(an, "expr")
			if err != nil {
				return nil, err
			}
			s.Assignments = append(s.Assignments, &Assignment{
				PosVal:     an.pos(),
				AssignType: an.str("assign-type"),
				Operator:   an.str("operator"),
				Variable:   an.str("variable"),
				Expr:       x,
			})
		}
		return s, nil
	case KindEcho:
		s := &EchoStatement{PosVal: pos}
		if s.Expressions, err = decodeExprList(n, "expressions"); err != nil {
			return nil, err
		}
		return s, nil
	case KindDeclare:
		s := &DeclareStatement{PosVal: pos, DataType: Type(n.str("data-type"))}
		vars, err := n.children("variables")
		if err != nil {
			return nil, err
		}
		for _, vn := range vars {
			def, err := decodeChildExpr(vn, "expr")
			if err != nil {
				return nil, err
			}
			s.Variables = append(s.Variables, &DeclaredVariable{PosVal: vn.pos(), Name: vn.str("variable"), Default: def})
		}
		return s, nil
	case KindIf:
		s := &IfStatement{PosVal: pos, Expr: expr}
		if s.Statements, err = body(); err != nil {
			return nil, err
		}
		if n.has("else_statements") {
			if s.ElseStatements, err = decodeStatementList(n, "else_statements"); err != nil {
				return nil, err
			}
		}
		return s, nil
	case KindWhile:
		s := &WhileStatement{PosVal: pos, Expr: expr}
		s.Statements, err = body()
		return s, err
	case KindDoWhile:
		s := &DoWhileStatement{PosVal: pos, Expr: expr}
		s.Statements, err = body()
		return s, err
	case KindLoop:
		s := &LoopStatement{PosVal: pos}
		s.Statements, err = body()
		return s, err
	case KindFor:
		s := &ForStatement{PosVal: pos, Expr: expr, Key: n.str("key"), Value: n.str("value")}
		s.Statements, err = body()
		return s, err
	case KindSwitch:
		s := &SwitchStatement{PosVal: pos, Expr: expr}
		clauses, err := n.children("clauses")
		if err != nil {
			return nil, err
		}
		for _, cn := range clauses {
			c := &SwitchClause{PosVal: cn.pos()}
			if cn.str("type") != "default" {
				if c.Expr, err = decodeChildExpr(cn, "expr"); err != nil {
					return nil, err
				}
			}
			if c.Statements, err = decodeStatementList(cn, "statements"); err != nil {
				return nil, err
			}
			s.Clauses = append(s.Clauses, c)
		}
		return s, nil
	case KindReturn:
		return &ReturnStatement{PosVal: pos, Expr: expr}, nil
	case KindRequire:
		return &RequireStatement{PosVal: pos, Expr: expr}, nil
	case KindBreak:
		return &BreakStatement{PosVal: pos}, nil
	case KindContinue:
		return &ContinueStatement{PosVal: pos}, nil
	case KindUnset:
		return &UnsetStatement{PosVal: pos, Expr: expr}, nil
	case KindThrow:
		return &ThrowStatement{PosVal: pos, Expr: expr}, nil
	case KindFetch, KindFcall, KindMcall, KindScall:
		return &CallStatement{PosVal: pos, StmtKind: StatementKind(kind), Expr: expr}, nil
	case KindCBlock, "c-block":
		return &CBlockStatement{PosVal: pos, Value: n.str("value")}, nil
	case KindComment:
		return &CommentStatement{PosVal: pos, Value: n.str("value")}, nil
	}
	return &UnknownStatement{PosVal: pos, KindName: kind}, nil
}

func decodeChildExpr(n irNode, key string) (Expr, error) {
	c, err := n.child(key)
	if err != nil || c == nil {
		return nil, err
	}
	return decodeExpr(c)
}

func decodeExprList(n irNode, key string) ([]Expr, error) {
	nodes, err := n.children(key)
	if err != nil {
		return nil, err
	}
	out := make([]Expr, 0, len(nodes))
	for _, c := range nodes {
		x, err := decodeExpr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

// decodeParameters decodes call arguments, given as {"parameter": expr}.
func decodeParameters(n irNode) ([]Expr, error) {
	nodes, err := n.children("parameters")
	if err != nil {
		return nil, err
	}
	out := make([]Expr, 0, len(nodes))
	for _, pn := range nodes {
		x, err := decodeChildExpr(pn, "parameter")
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, fmt.Errorf("call parameter without expression")
		}
		out = append(out, x)
	}
	return out, nil
}

var binaryOps = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true, "mod": true,
	"and": true, "or": true,
	"equals": true, "not-equals": true, "identical": true, "not-identical": true,
	"less": true, "greater": true, "less-equal": true, "greater-equal": true,
}

func decodeExpr(n irNode) (Expr, error) {
	pos := n.pos()
	kind := n.str("type")
	if kind == "array" {
		// Only the empty literal is modelled.
		if !n.has("left") || string(n["left"]) == "[]" {
			return &EmptyArray{PosVal: pos}, nil
		}
		return &UnknownExpr{PosVal: pos, KindName: kind}, nil
	}
	left, err := decodeChildExpr(n, "left")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "int", "integer":
		return &IntLiteral{PosVal: pos, Value: n.str("value")}, nil
	case "double":
		return &DoubleLiteral{PosVal: pos, Value: n.str("value")}, nil
	case "bool":
		return &BoolLiteral{PosVal: pos, Value: n.str("value") == "true"}, nil
	case "string":
		return &StringLiteral{PosVal: pos, Value: n.str("value")}, nil
	case "char":
		return &CharLiteral{PosVal: pos, Value: n.str("value")}, nil
	case "null":
		return &NullLiteral{PosVal: pos}, nil
	case "empty-array":
		return &EmptyArray{PosVal: pos}, nil
	case "variable":
		return &VariableRef{PosVal: pos, Name: n.str("value")}, nil
	case "array-access", "fetch":
		right, err := decodeChildExpr(n, "right")
		if err != nil {
			return nil, err
		}
		if left == nil || right == nil {
			return nil, fmt.Errorf("%s expression needs left and right", kind)
		}
		if kind == "fetch" {
			return &FetchExpr{PosVal: pos, Left: left, Right: right}, nil
		}
		return &ArrayAccess{PosVal: pos, Left: left, Right: right}, nil
	case "fcall":
		params, err := decodeParameters(n)
		if err != nil {
			return nil, err
		}
		return &FunctionCall{PosVal: pos, Name: n.str("name"), Parameters: params}, nil
	case "mcall":
		recv, err := decodeChildExpr(n, "variable")
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return nil, fmt.Errorf("method call %s without receiver", n.str("name"))
		}
		params, err := decodeParameters(n)
		if err != nil {
			return nil, err
		}
		return &MethodCall{PosVal: pos, Receiver: recv, Name: n.str("name"), Parameters: params}, nil
	case "scall":
		params, err := decodeParameters(n)
		if err != nil {
			return nil, err
		}
		return &StaticCall{PosVal: pos, Class: n.str("class"), Name: n.str("name"), Parameters: params}, nil
	case "list":
		if left == nil {
			return nil, fmt.Errorf("list expression without inner expression")
		}
		return &ListExpr{PosVal: pos, Inner: left}, nil
	case "not", "minus":
		if left == nil {
			return nil, fmt.Errorf("%s expression without operand", kind)
		}
		return &UnaryExpr{PosVal: pos, Op: kind, Operand: left}, nil
	}

	if binaryOps[kind] {
		right, err := decodeChildExpr(n, "right")
		if err != nil {
			return nil, err
		}
		if left == nil || right == nil {
			return nil, fmt.Errorf("%s expression needs left and right", kind)
		}
		return &BinaryExpr{PosVal: pos, Op: kind, Left: left, Right: right}, nil
	}
	return &UnknownExpr{PosVal: pos, KindName: kind}, nil
}
