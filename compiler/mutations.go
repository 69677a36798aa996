package compiler

// MutationGatherer counts, before compilation, how many times each variable
// is written in a method body. Read-only promotion of indexed reads relies
// on these totals.
type MutationGatherer struct {
	counts map[string]int
}

// NewMutationGatherer creates an empty gatherer.
func NewMutationGatherer() *MutationGatherer {
	return &MutationGatherer{counts: make(map[string]int)}
}

// Count returns the writes recorded for name.
func (g *MutationGatherer) Count(name string) int { return g.counts[name] }

// Counts returns every recorded total.
func (g *MutationGatherer) Counts() map[string]int { return g.counts }

func (g *MutationGatherer) increase(name string) {
	if name != "" {
		g.counts[name]++
	}
}

// Apply stores the recorded totals in st.
func (g *MutationGatherer) Apply(st *SymbolTable) {
	for name, n := range g.counts {
		st.SetExpectedMutations(name, n)
	}
}

// Gather walks statements, including nested blocks.
func (g *MutationGatherer) Gather(statements []Statement) {
	for _, s := range statements {
		g.gatherStatement(s)
	}
}

func (g *MutationGatherer) gatherStatement(s Statement) {
	switch st := s.(type) {
	case *LetStatement:
		for _, a := range st.Assignments {
			g.increase(a.Variable)
			g.gatherExpr(a.Expr)
		}
	case *EchoStatement:
		for _, x := range st.Expressions {
			g.gatherExpr(x)
		}
	case *DeclareStatement:
		for _, dv := range st.Variables {
			if dv.Default != nil {
				g.increase(dv.Name)
			}
			g.gatherExpr(dv.Default)
		}
	case *IfStatement:
		g.gatherExpr(st.Expr)
		g.Gather(st.Statements)
		g.Gather(st.ElseStatements)
	case *WhileStatement:
		g.gatherExpr(st.Expr)
		g.Gather(st.Statements)
	case *DoWhileStatement:
		g.Gather(st.Statements)
		g.gatherExpr(st.Expr)
	case *LoopStatement:
		g.Gather(st.Statements)
	case *SwitchStatement:
		g.gatherExpr(st.Expr)
		for _, c := range st.Clauses {
			g.gatherExpr(c.Expr)
			g.Gather(c.Statements)
		}
	case *ForStatement:
		g.increase(st.Key)
		g.increase(st.Value)
		g.gatherExpr(st.Expr)
		g.Gather(st.Statements)
	case *ReturnStatement:
		g.gatherExpr(st.Expr)
	case *RequireStatement:
		g.gatherExpr(st.Expr)
	case *UnsetStatement:
		g.gatherExpr(st.Expr)
	case *ThrowStatement:
		g.gatherExpr(st.Expr)
	case *CallStatement:
		g.gatherExpr(st.Expr)
	}
}

func (g *MutationGatherer) gatherExpr(e Expr) {
	switch x := e.(type) {
	case *FetchExpr:
		if ref, ok := x.Left.(*VariableRef); ok {
			g.increase(ref.Name)
		}
		g.gatherExpr(x.Right)
	case *ArrayAccess:
		g.gatherExpr(x.Left)
		g.gatherExpr(x.Right)
	case *BinaryExpr:
		g.gatherExpr(x.Left)
		g.gatherExpr(x.Right)
	case *UnaryExpr:
		g.gatherExpr(x.Operand)
	case *ListExpr:
		g.gatherExpr(x.Inner)
	case *FunctionCall:
		for _, p := range x.Parameters {
			g.gatherExpr(p)
		}
	case *MethodCall:
		g.gatherExpr(x.Receiver)
		for _, p := range x.Parameters {
			g.gatherExpr(p)
		}
	case *StaticCall:
		for _, p := range x.Parameters {
			g.gatherExpr(p)
		}
	}
}
