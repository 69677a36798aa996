package compiler

import (
	"errors"
	"strconv"
)

// ---------------------------------------------------------------------------
// StatementsBlock: compiles a list of statements inside its own branch
// ---------------------------------------------------------------------------

// StatementsBlock is an ordered list of statements compiled as one branch.
type StatementsBlock struct {
	statements    []Statement
	lastStatement StatementKind
	related       Statement
}

// NewStatementsBlock wraps statements.
func NewStatementsBlock(statements []Statement) *StatementsBlock {
	return &StatementsBlock{statements: statements}
}

// SetRelatedStatement records the statement that owns this block, e.g. the
// if of a then-arm.
func (sb *StatementsBlock) SetRelatedStatement(s Statement) { sb.related = s }

func (sb *StatementsBlock) Statements() []Statement { return sb.statements }

// LastStatementType returns the kind of the last non-comment statement
// compiled, or "" when there was none.
func (sb *StatementsBlock) LastStatementType() StatementKind { return sb.lastStatement }

// Compile emits the block inside a new branch of type branchType. The
// branch starts unreachable when unreachable is true. The branch, the
// depth counter and the indentation are released on every return path.
func (sb *StatementsBlock) Compile(ctx *Context, unreachable bool, branchType BranchType) (branch *Branch, err error) {
	branch = NewBranch(branchType, unreachable, sb.related)
	release := ctx.enterBranch(branch)
	defer func() {
		if rerr := release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	for _, s := range sb.statements {
		kind := s.Kind()

		if ctx.Options.Debug && kind != KindDeclare && kind != KindComment {
			if pos := s.Pos(); pos.File != "" {
				ctx.Printer.OutputNoIndent("#line " + strconv.Itoa(pos.Line) + " \"" + pos.File + "\"")
			}
		}

		if branch.Unreachable() {
			ctx.Logger.Warning("Unreachable code", WarnUnreachableCode, unreachableAnchor(s))
		}

		if err := sb.compileStatement(s, ctx, branch); err != nil {
			return branch, err
		}

		if kind != KindComment {
			sb.lastStatement = kind
		}
	}

	ctx.Symbols.MarkTemporalVariablesIdle(ctx)
	return branch, nil
}

func (sb *StatementsBlock) compileStatement(s Statement, ctx *Context, branch *Branch) error {
	switch st := s.(type) {
	case *LetStatement:
		return compileLet(st, ctx)
	case *EchoStatement:
		return compileEcho(st, ctx)
	case *DeclareStatement:
		return compileDeclare(st, ctx)
	case *IfStatement:
		return compileIf(st, ctx)
	case *WhileStatement:
		return compileWhile(st, ctx)
	case *DoWhileStatement:
		return compileDoWhile(st, ctx)
	case *SwitchStatement:
		return compileSwitch(st, ctx)
	case *ForStatement:
		return compileFor(st, ctx)
	case *LoopStatement:
		return compileLoop(st, ctx)
	case *RequireStatement:
		return compileRequire(st, ctx)
	case *UnsetStatement:
		return compileUnset(st, ctx)
	case *ReturnStatement:
		if err := compileReturn(st, ctx); err != nil {
			return err
		}
		branch.SetUnreachable(true)
	case *BreakStatement:
		if err := compileBreak(st, ctx); err != nil {
			return err
		}
		branch.SetUnreachable(true)
	case *ContinueStatement:
		if err := compileContinue(st, ctx); err != nil {
			return err
		}
		branch.SetUnreachable(true)
	case *ThrowStatement:
		if err := compileThrow(st, ctx); err != nil {
			return err
		}
		branch.SetUnreachable(true)
	case *CallStatement:
		ce, err := compileExprStatement(st, ctx)
		if err != nil {
			return err
		}
		if st.StmtKind == KindFetch || (st.StmtKind == KindFcall && ce.Type.IsScalar()) {
			ctx.Printer.Output(ce.Code + ";")
		}
	case *CBlockStatement:
		ctx.Printer.Output(st.Value)
	case *CommentStatement:
	case *UnknownStatement:
		ctx.Printer.Output("//missing " + st.KindName)
	default:
		ctx.Printer.Output("//missing " + string(s.Kind()))
	}
	return nil
}

// unreachableAnchor returns the node an unreachable-code warning points at.
func unreachableAnchor(s Statement) Node {
	switch st := s.(type) {
	case *EchoStatement:
		if len(st.Expressions) > 0 {
			return st.Expressions[0]
		}
	case *LetStatement:
		if len(st.Assignments) > 0 {
			return st.Assignments[0]
		}
	case *CallStatement:
		if st.Expr != nil {
			return st.Expr
		}
	case *IfStatement:
		if st.Expr != nil {
			return st.Expr
		}
	case *WhileStatement:
		if st.Expr != nil {
			return st.Expr
		}
	case *DoWhileStatement:
		if st.Expr != nil {
			return st.Expr
		}
	case *SwitchStatement:
		if st.Expr != nil {
			return st.Expr
		}
	case *ForStatement:
		if st.Expr != nil {
			return st.Expr
		}
	case *ReturnStatement:
		if st.Expr != nil {
			return st.Expr
		}
	}
	return s
}
