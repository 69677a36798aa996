package compiler

import "strings"

// CodePrinter accumulates indented lines of generated C.
type CodePrinter struct {
	lines []string
	level int
}

// NewCodePrinter creates an empty printer at level 0.
func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Output appends a line at the current indentation level.
func (p *CodePrinter) Output(line string) {
	p.lines = append(p.lines, strings.Repeat("\t", p.level)+line)
}

// OutputNoIndent appends a line without indentation (preprocessor hints).
func (p *CodePrinter) OutputNoIndent(line string) {
	p.lines = append(p.lines, line)
}

// OutputBlankLine appends an empty line.
func (p *CodePrinter) OutputBlankLine() {
	p.lines = append(p.lines, "")
}

// IncreaseLevel indents subsequent lines one more tab.
func (p *CodePrinter) IncreaseLevel() { p.level++ }

// DecreaseLevel undoes one IncreaseLevel.
func (p *CodePrinter) DecreaseLevel() {
	if p.level > 0 {
		p.level--
	}
}

// Level returns the current indentation level.
func (p *CodePrinter) Level() int { return p.level }

// Lines returns the printed lines.
func (p *CodePrinter) Lines() []string { return p.lines }

// String returns the printed code, one line per printed line.
func (p *CodePrinter) String() string {
	if len(p.lines) == 0 {
		return ""
	}
	return strings.Join(p.lines, "\n") + "\n"
}
