package compiler

// ---------------------------------------------------------------------------
// AST: statement and expression tree produced by the external parser
// ---------------------------------------------------------------------------

// Position represents a source location as reported by the parser.
type Position struct {
	File string // source file, empty when unknown
	Line int    // 1-based line number
	Char int    // 1-based column
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// IntLiteral is an integer literal. Value keeps the source spelling.
type IntLiteral struct {
	PosVal Position
	Value  string
}

func (n *IntLiteral) Pos() Position { return n.PosVal }
func (n *IntLiteral) node()         {}
func (n *IntLiteral) expr()         {}

// DoubleLiteral is a floating-point literal.
type DoubleLiteral struct {
	PosVal Position
	Value  string
}

func (n *DoubleLiteral) Pos() Position { return n.PosVal }
func (n *DoubleLiteral) node()         {}
func (n *DoubleLiteral) expr()         {}

// BoolLiteral is true or false.
type BoolLiteral struct {
	PosVal Position
	Value  bool
}

func (n *BoolLiteral) Pos() Position { return n.PosVal }
func (n *BoolLiteral) node()         {}
func (n *BoolLiteral) expr()         {}

// StringLiteral is a string literal. Value is already escaped for C.
type StringLiteral struct {
	PosVal Position
	Value  string
}

func (n *StringLiteral) Pos() Position { return n.PosVal }
func (n *StringLiteral) node()         {}
func (n *StringLiteral) expr()         {}

// CharLiteral is a single character literal ('a').
type CharLiteral struct {
	PosVal Position
	Value  string
}

func (n *CharLiteral) Pos() Position { return n.PosVal }
func (n *CharLiteral) node()         {}
func (n *CharLiteral) expr()         {}

// NullLiteral is null.
type NullLiteral struct {
	PosVal Position
}

func (n *NullLiteral) Pos() Position { return n.PosVal }
func (n *NullLiteral) node()         {}
func (n *NullLiteral) expr()         {}

// EmptyArray is the [] literal.
type EmptyArray struct {
	PosVal Position
}

func (n *EmptyArray) Pos() Position { return n.PosVal }
func (n *EmptyArray) node()         {}
func (n *EmptyArray) expr()         {}

// VariableRef is a reference to a declared variable.
type VariableRef struct {
	PosVal Position
	Name   string
}

func (n *VariableRef) Pos() Position { return n.PosVal }
func (n *VariableRef) node()         {}
func (n *VariableRef) expr()         {}

// ArrayAccess is base[index].
type ArrayAccess struct {
	PosVal Position
	Left   Expr
	Right  Expr
}

func (n *ArrayAccess) Pos() Position { return n.PosVal }
func (n *ArrayAccess) node()         {}
func (n *ArrayAccess) expr()         {}

// FetchExpr is `fetch target, base[index]`: an isset check that also
// reads the element into target.
type FetchExpr struct {
	PosVal Position
	Left   Expr
	Right  Expr
}

func (n *FetchExpr) Pos() Position { return n.PosVal }
func (n *FetchExpr) node()         {}
func (n *FetchExpr) expr()         {}

// FunctionCall is name(params...).
type FunctionCall struct {
	PosVal     Position
	Name       string
	Parameters []Expr
}

func (n *FunctionCall) Pos() Position { return n.PosVal }
func (n *FunctionCall) node()         {}
func (n *FunctionCall) expr()         {}

// MethodCall is receiver->name(params...).
type MethodCall struct {
	PosVal     Position
	Receiver   Expr
	Name       string
	Parameters []Expr
}

func (n *MethodCall) Pos() Position { return n.PosVal }
func (n *MethodCall) node()         {}
func (n *MethodCall) expr()         {}

// StaticCall is Class::name(params...).
type StaticCall struct {
	PosVal     Position
	Class      string
	Name       string
	Parameters []Expr
}

func (n *StaticCall) Pos() Position { return n.PosVal }
func (n *StaticCall) node()         {}
func (n *StaticCall) expr()         {}

// BinaryExpr is a binary operator. Op is the IR operator name
// ("add", "equals", "less", ...).
type BinaryExpr struct {
	PosVal Position
	Op     string
	Left   Expr
	Right  Expr
}

func (n *BinaryExpr) Pos() Position { return n.PosVal }
func (n *BinaryExpr) node()         {}
func (n *BinaryExpr) expr()         {}

// UnaryExpr is a prefix operator ("not", "minus").
type UnaryExpr struct {
	PosVal  Position
	Op      string
	Operand Expr
}

func (n *UnaryExpr) Pos() Position { return n.PosVal }
func (n *UnaryExpr) node()         {}
func (n *UnaryExpr) expr()         {}

// ListExpr is a parenthesised expression.
type ListExpr struct {
	PosVal Position
	Inner  Expr
}

func (n *ListExpr) Pos() Position { return n.PosVal }
func (n *ListExpr) node()         {}
func (n *ListExpr) expr()         {}

// UnknownExpr carries an expression kind the decoder does not model.
type UnknownExpr struct {
	PosVal   Position
	KindName string
}

func (n *UnknownExpr) Pos() Position { return n.PosVal }
func (n *UnknownExpr) node()         {}
func (n *UnknownExpr) expr()         {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// StatementKind is the IR name of a statement.
type StatementKind string

const (
	KindLet      StatementKind = "let"
	KindEcho     StatementKind = "echo"
	KindDeclare  StatementKind = "declare"
	KindIf       StatementKind = "if"
	KindWhile    StatementKind = "while"
	KindDoWhile  StatementKind = "do-while"
	KindSwitch   StatementKind = "switch"
	KindFor      StatementKind = "for"
	KindReturn   StatementKind = "return"
	KindRequire  StatementKind = "require"
	KindLoop     StatementKind = "loop"
	KindBreak    StatementKind = "break"
	KindContinue StatementKind = "continue"
	KindUnset    StatementKind = "unset"
	KindThrow    StatementKind = "throw"
	KindFetch    StatementKind = "fetch"
	KindMcall    StatementKind = "mcall"
	KindFcall    StatementKind = "fcall"
	KindScall    StatementKind = "scall"
	KindCBlock   StatementKind = "cblock"
	KindComment  StatementKind = "comment"
)

// Statement is the interface for statement nodes.
type Statement interface {
	Node
	Kind() StatementKind
	stmt() // marker method
}

// Assignment is one target of a let statement.
type Assignment struct {
	PosVal     Position
	AssignType string // "variable", "incr", "decr"
	Operator   string // "assign", "add-assign", ...
	Variable   string
	Expr       Expr
}

func (n *Assignment) Pos() Position { return n.PosVal }
func (n *Assignment) node()         {}

// LetStatement is let a = expr, b = expr.
type LetStatement struct {
	PosVal      Position
	Assignments []*Assignment
}

func (n *LetStatement) Pos() Position       { return n.PosVal }
func (n *LetStatement) Kind() StatementKind { return KindLet }
func (n *LetStatement) node()               {}
func (n *LetStatement) stmt()               {}

// EchoStatement is echo a, b.
type EchoStatement struct {
	PosVal      Position
	Expressions []Expr
}

func (n *EchoStatement) Pos() Position       { return n.PosVal }
func (n *EchoStatement) Kind() StatementKind { return KindEcho }
func (n *EchoStatement) node()               {}
func (n *EchoStatement) stmt()               {}

// DeclaredVariable is one name of a declare statement.
type DeclaredVariable struct {
	PosVal  Position
	Name    string
	Default Expr // optional
}

func (n *DeclaredVariable) Pos() Position { return n.PosVal }
func (n *DeclaredVariable) node()         {}

// DeclareStatement is `var a, b = 1;` or `int i;`.
type DeclareStatement struct {
	PosVal    Position
	DataType  Type
	Variables []*DeclaredVariable
}

func (n *DeclareStatement) Pos() Position       { return n.PosVal }
func (n *DeclareStatement) Kind() StatementKind { return KindDeclare }
func (n *DeclareStatement) node()               {}
func (n *DeclareStatement) stmt()               {}

// IfStatement is if expr { ... } else { ... }.
type IfStatement struct {
	PosVal         Position
	Expr           Expr
	Statements     []Statement
	ElseStatements []Statement // nil when there is no else arm
}

func (n *IfStatement) Pos() Position       { return n.PosVal }
func (n *IfStatement) Kind() StatementKind { return KindIf }
func (n *IfStatement) node()               {}
func (n *IfStatement) stmt()               {}

// WhileStatement is while expr { ... }.
type WhileStatement struct {
	PosVal     Position
	Expr       Expr
	Statements []Statement
}

func (n *WhileStatement) Pos() Position       { return n.PosVal }
func (n *WhileStatement) Kind() StatementKind { return KindWhile }
func (n *WhileStatement) node()               {}
func (n *WhileStatement) stmt()               {}

// DoWhileStatement is do { ... } while expr.
type DoWhileStatement struct {
	PosVal     Position
	Expr       Expr
	Statements []Statement
}

func (n *DoWhileStatement) Pos() Position       { return n.PosVal }
func (n *DoWhileStatement) Kind() StatementKind { return KindDoWhile }
func (n *DoWhileStatement) node()               {}
func (n *DoWhileStatement) stmt()               {}

// SwitchClause is a case (Expr != nil) or the default clause.
type SwitchClause struct {
	PosVal     Position
	Expr       Expr
	Statements []Statement
}

func (n *SwitchClause) Pos() Position { return n.PosVal }
func (n *SwitchClause) node()         {}

// SwitchStatement is switch expr { case ...: }.
type SwitchStatement struct {
	PosVal  Position
	Expr    Expr
	Clauses []*SwitchClause
}

func (n *SwitchStatement) Pos() Position       { return n.PosVal }
func (n *SwitchStatement) Kind() StatementKind { return KindSwitch }
func (n *SwitchStatement) node()               {}
func (n *SwitchStatement) stmt()               {}

// ForStatement is for key, value in expr { ... }.
type ForStatement struct {
	PosVal     Position
	Expr       Expr
	Key        string // optional
	Value      string
	Statements []Statement
}

func (n *ForStatement) Pos() Position       { return n.PosVal }
func (n *ForStatement) Kind() StatementKind { return KindFor }
func (n *ForStatement) node()               {}
func (n *ForStatement) stmt()               {}

// ReturnStatement is return [expr].
type ReturnStatement struct {
	PosVal Position
	Expr   Expr // nil for a bare return
}

func (n *ReturnStatement) Pos() Position       { return n.PosVal }
func (n *ReturnStatement) Kind() StatementKind { return KindReturn }
func (n *ReturnStatement) node()               {}
func (n *ReturnStatement) stmt()               {}

// RequireStatement is require expr.
type RequireStatement struct {
	PosVal Position
	Expr   Expr
}

func (n *RequireStatement) Pos() Position       { return n.PosVal }
func (n *RequireStatement) Kind() StatementKind { return KindRequire }
func (n *RequireStatement) node()               {}
func (n *RequireStatement) stmt()               {}

// LoopStatement is loop { ... }.
type LoopStatement struct {
	PosVal     Position
	Statements []Statement
}

func (n *LoopStatement) Pos() Position       { return n.PosVal }
func (n *LoopStatement) Kind() StatementKind { return KindLoop }
func (n *LoopStatement) node()               {}
func (n *LoopStatement) stmt()               {}

// BreakStatement is break.
type BreakStatement struct {
	PosVal Position
}

func (n *BreakStatement) Pos() Position       { return n.PosVal }
func (n *BreakStatement) Kind() StatementKind { return KindBreak }
func (n *BreakStatement) node()               {}
func (n *BreakStatement) stmt()               {}

// ContinueStatement is continue.
type ContinueStatement struct {
	PosVal Position
}

func (n *ContinueStatement) Pos() Position       { return n.PosVal }
func (n *ContinueStatement) Kind() StatementKind { return KindContinue }
func (n *ContinueStatement) node()               {}
func (n *ContinueStatement) stmt()               {}

// UnsetStatement is unset base[index].
type UnsetStatement struct {
	PosVal Position
	Expr   Expr
}

func (n *UnsetStatement) Pos() Position       { return n.PosVal }
func (n *UnsetStatement) Kind() StatementKind { return KindUnset }
func (n *UnsetStatement) node()               {}
func (n *UnsetStatement) stmt()               {}

// ThrowStatement is throw expr.
type ThrowStatement struct {
	PosVal Position
	Expr   Expr
}

func (n *ThrowStatement) Pos() Position       { return n.PosVal }
func (n *ThrowStatement) Kind() StatementKind { return KindThrow }
func (n *ThrowStatement) node()               {}
func (n *ThrowStatement) stmt()               {}

// CallStatement is an expression used as a statement: fetch, fcall,
// mcall or scall. StmtKind tells which.
type CallStatement struct {
	PosVal   Position
	StmtKind StatementKind
	Expr     Expr
}

func (n *CallStatement) Pos() Position       { return n.PosVal }
func (n *CallStatement) Kind() StatementKind { return n.StmtKind }
func (n *CallStatement) node()               {}
func (n *CallStatement) stmt()               {}

// CBlockStatement is raw C code copied to the output.
type CBlockStatement struct {
	PosVal Position
	Value  string
}

func (n *CBlockStatement) Pos() Position       { return n.PosVal }
func (n *CBlockStatement) Kind() StatementKind { return KindCBlock }
func (n *CBlockStatement) node()               {}
func (n *CBlockStatement) stmt()               {}

// CommentStatement is a docblock or comment kept by the parser.
type CommentStatement struct {
	PosVal Position
	Value  string
}

func (n *CommentStatement) Pos() Position       { return n.PosVal }
func (n *CommentStatement) Kind() StatementKind { return KindComment }
func (n *CommentStatement) node()               {}
func (n *CommentStatement) stmt()               {}

// UnknownStatement carries a statement kind the decoder does not model.
type UnknownStatement struct {
	PosVal   Position
	KindName string
}

func (n *UnknownStatement) Pos() Position       { return n.PosVal }
func (n *UnknownStatement) Kind() StatementKind { return StatementKind(n.KindName) }
func (n *UnknownStatement) node()               {}
func (n *UnknownStatement) stmt()               {}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// Parameter is a method parameter.
type Parameter struct {
	PosVal   Position
	Name     string
	DataType Type
}

func (n *Parameter) Pos() Position { return n.PosVal }
func (n *Parameter) node()         {}

// Method is a class method with its body.
type Method struct {
	PosVal     Position
	Name       string
	Visibility []string
	Static     bool
	Parameters []*Parameter
	Statements []Statement
}

func (n *Method) Pos() Position { return n.PosVal }
func (n *Method) node()         {}

// Class is a class definition.
type Class struct {
	PosVal  Position
	Name    string
	Methods []*Method
}

func (n *Class) Pos() Position { return n.PosVal }
func (n *Class) node()         {}

// Unit is one decoded source file.
type Unit struct {
	Namespace string
	Classes   []*Class
}
