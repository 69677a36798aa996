package compiler

import (
	"errors"
	"fmt"
)

// CompilerError is a fatal compile error. It aborts the compilation unit.
type CompilerError struct {
	Msg   string
	Node  Node // offending node, may be nil for internal errors
	Cause error
}

// Pos returns the position of the offending node.
func (e *CompilerError) Pos() Position {
	if e.Node == nil {
		return Position{}
	}
	return e.Node.Pos()
}

func (e *CompilerError) Error() string {
	pos := e.Pos()
	if pos.File == "" && pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s:%d:%d: %s", pos.File, pos.Line, pos.Char, e.Msg)
}

func (e *CompilerError) Unwrap() error { return e.Cause }

// errorAt builds a CompilerError anchored at node.
func errorAt(node Node, format string, args ...any) *CompilerError {
	return &CompilerError{Msg: fmt.Sprintf(format, args...), Node: node}
}

// IsCompilerError reports whether err is (or wraps) a CompilerError.
func IsCompilerError(err error) bool {
	var ce *CompilerError
	return errors.As(err, &ce)
}
