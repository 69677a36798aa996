package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Branches: lexical control-flow regions
// ---------------------------------------------------------------------------

// BranchType records why a branch exists.
type BranchType int

const (
	BranchRoot BranchType = iota
	BranchCondTrue
	BranchCondFalse
	BranchLoopInfinite
	BranchLoopConditional
	BranchSwitch
	BranchExternal
	BranchUnknown
)

var branchTypeNames = [...]string{
	BranchRoot:            "root",
	BranchCondTrue:        "cond-true",
	BranchCondFalse:       "cond-false",
	BranchLoopInfinite:    "loop-infinite",
	BranchLoopConditional: "loop-conditional",
	BranchSwitch:          "switch",
	BranchExternal:        "external",
	BranchUnknown:         "unknown",
}

func (t BranchType) String() string {
	if t >= 0 && int(t) < len(branchTypeNames) {
		return branchTypeNames[t]
	}
	return fmt.Sprintf("BranchType(%d)", int(t))
}

// Branch is one lexical control-flow region. The parent is kept by id;
// resolve it through BranchManager.Parent.
type Branch struct {
	id          int
	parentID    int
	level       int
	typ         BranchType
	unreachable bool
	related     Statement
}

// NewBranch creates an unregistered branch.
func NewBranch(typ BranchType, unreachable bool, related Statement) *Branch {
	return &Branch{typ: typ, unreachable: unreachable, related: related}
}

func (b *Branch) ID() int                     { return b.id }
func (b *Branch) ParentID() int               { return b.parentID }
func (b *Branch) Level() int                  { return b.level }
func (b *Branch) Type() BranchType            { return b.typ }
func (b *Branch) Unreachable() bool           { return b.unreachable }
func (b *Branch) RelatedStatement() Statement { return b.related }

// SetUnreachable marks the branch unreachable. Once set the flag stays set.
func (b *Branch) SetUnreachable(unreachable bool) {
	if unreachable {
		b.unreachable = true
	}
}

// BranchManager keeps the stack of active branches for one compilation
// unit and hands out unique ids.
type BranchManager struct {
	stack  []*Branch
	arena  map[int]*Branch
	nextID int
}

// NewBranchManager creates an empty branch manager.
func NewBranchManager() *BranchManager {
	return &BranchManager{
		arena:  make(map[int]*Branch),
		nextID: 1,
	}
}

// AddBranch activates b on top of the current branch.
func (m *BranchManager) AddBranch(b *Branch) {
	if top := m.Current(); top != nil {
		b.parentID = top.id
	}
	b.level = len(m.stack)
	b.id = m.nextID
	m.nextID++
	m.stack = append(m.stack, b)
	m.arena[b.id] = b
}

// RemoveBranch deactivates b, which must be the current branch.
func (m *BranchManager) RemoveBranch(b *Branch) error {
	top := m.Current()
	if top == nil || top != b {
		return &CompilerError{Msg: fmt.Sprintf("branch %d is not the active branch", b.id)}
	}
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}

// Current returns the active branch, or nil outside any block.
func (m *BranchManager) Current() *Branch {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// CurrentID returns the id of the active branch, 0 when none is active.
func (m *BranchManager) CurrentID() int {
	if top := m.Current(); top != nil {
		return top.id
	}
	return 0
}

// Depth returns the number of active branches.
func (m *BranchManager) Depth() int { return len(m.stack) }

// Parent returns the branch that was active when b was added.
func (m *BranchManager) Parent(b *Branch) *Branch {
	if b.parentID == 0 {
		return nil
	}
	return m.arena[b.parentID]
}

// InsideLoop reports whether any active branch is a loop body.
func (m *BranchManager) InsideLoop() bool {
	for _, b := range m.stack {
		if b.typ == BranchLoopInfinite || b.typ == BranchLoopConditional {
			return true
		}
	}
	return false
}
