package compiler

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// Diagnostic codes for non-fatal warnings.
const (
	WarnUnreachableCode = "unrecheable-code"
	WarnNonArrayAccess  = "non-array-access"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one recorded message.
type Diagnostic struct {
	Message  string   `cbor:"1,keyasint"`
	Code     string   `cbor:"2,keyasint"`
	Severity Severity `cbor:"3,keyasint"`
	Position Position `cbor:"4,keyasint"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", d.Position.File, d.Position.Line, d.Position.Char, d.Severity, d.Message, d.Code)
}

// Logger records non-fatal diagnostics and forwards them to commonlog.
type Logger struct {
	log         commonlog.Logger
	disabled    map[string]bool
	diagnostics []Diagnostic
}

// NewLogger creates a logger. warnings maps diagnostic codes to whether
// they are reported; codes not present are reported.
func NewLogger(warnings map[string]bool) *Logger {
	l := &Logger{
		log:      commonlog.GetLogger("zephir.compiler"),
		disabled: make(map[string]bool),
	}
	for code, enabled := range warnings {
		if !enabled {
			l.disabled[code] = true
		}
	}
	return l
}

// Warning records a warning anchored at node.
func (l *Logger) Warning(message, code string, node Node) {
	if l.disabled[code] {
		return
	}
	var pos Position
	if node != nil {
		pos = node.Pos()
	}
	d := Diagnostic{Message: message, Code: code, Severity: SeverityWarning, Position: pos}
	l.diagnostics = append(l.diagnostics, d)
	l.log.Warning(message, "code", code, "file", pos.File, "line", pos.Line, "char", pos.Char)
}

// Diagnostics returns the recorded diagnostics in emission order.
func (l *Logger) Diagnostics() []Diagnostic { return l.diagnostics }
