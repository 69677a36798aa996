package compiler

import "strconv"

// Options controls code generation for a compilation unit.
type Options struct {
	// Debug emits #line hints before each statement.
	Debug bool `cbor:"1,keyasint"`
	// Warnings enables or disables diagnostics by code. Codes that are
	// not listed are reported.
	Warnings map[string]bool `cbor:"2,keyasint"`
}

// Context is the state shared by every compiler invoked while compiling
// one method. It is passed explicitly through all compile calls; there is
// a single writer at any time.
type Context struct {
	Options  Options
	Printer  *CodePrinter
	Symbols  *SymbolTable
	Branches *BranchManager
	Headers  *HeadersManager
	Logger   *Logger

	ClassName  string
	MethodName string

	// CurrentBranch is the number of blocks being compiled.
	CurrentBranch int
	// InsideCycle counts enclosing loops.
	InsideCycle int
	// InsideSwitch counts enclosing switch statements.
	InsideSwitch int

	flow      []*flowFrame
	nextLabel int
}

// flowFrame is one enclosing loop or switch, innermost last.
type flowFrame struct {
	loop      bool
	label     string // continue target, loops only
	continued bool   // a goto to label was emitted
}

// NewContext creates a context with fresh collaborators.
func NewContext(opts Options) *Context {
	ctx := &Context{
		Options:  opts,
		Printer:  NewCodePrinter(),
		Branches: NewBranchManager(),
		Headers:  NewHeadersManager(),
		Logger:   NewLogger(opts.Warnings),
	}
	ctx.Symbols = NewSymbolTable(ctx)
	return ctx
}

// enterBranch indents output and activates a new branch. The returned
// function undoes both and must run on every exit path.
func (c *Context) enterBranch(b *Branch) func() error {
	c.Printer.IncreaseLevel()
	c.CurrentBranch++
	c.Branches.AddBranch(b)
	return func() error {
		err := c.Branches.RemoveBranch(b)
		c.CurrentBranch--
		c.Printer.DecreaseLevel()
		return err
	}
}

// enterCycle marks the start of a loop body. Call the returned function
// when the loop has been compiled.
func (c *Context) enterCycle() func() {
	c.InsideCycle++
	c.flow = append(c.flow, &flowFrame{loop: true, label: "zephir_continue_" + strconv.Itoa(c.nextLabel)})
	c.nextLabel++
	return func() {
		c.InsideCycle--
		c.flow = c.flow[:len(c.flow)-1]
	}
}

func (c *Context) enterSwitch() func() {
	c.InsideSwitch++
	c.flow = append(c.flow, &flowFrame{})
	return func() {
		c.InsideSwitch--
		c.flow = c.flow[:len(c.flow)-1]
	}
}

// innermostFlow returns the innermost loop or switch, nil outside both.
func (c *Context) innermostFlow() *flowFrame {
	if len(c.flow) == 0 {
		return nil
	}
	return c.flow[len(c.flow)-1]
}

// currentUnreachable reports whether the active branch is unreachable.
func (c *Context) currentUnreachable() bool {
	if b := c.Branches.Current(); b != nil {
		return b.Unreachable()
	}
	return false
}
