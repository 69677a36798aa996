package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Variables
// ---------------------------------------------------------------------------

// Names with fixed meaning in generated code.
const (
	ReturnValueName = "return_value"
	ThisName        = "this"
	thisPtrName     = "this_ptr"
)

// Internal types used by iteration temporaries.
const (
	typeHashTable    Type = "HashTable"
	typeHashPosition Type = "HashPosition"
	typeHashData     Type = "zval-ref"
)

// Temporary pools. A temporary is only reused for a request of the same
// type from the same pool.
const (
	locationHeap          = "heap"
	locationNonTracked    = "non-tracked"
	locationUninitialized = "non-tracked-uninitialized"
	locationObserve       = "observe"
	locationPlain         = "plain"
)

// Variable describes a declared variable or a compiler temporary.
type Variable struct {
	name          string
	typ           Type
	dynamicTypes  map[Type]bool
	mutations     int
	uses          int
	memoryTracked bool
	initialized   bool
	variantInits  int
	mustInitNull  bool
	node          Node

	temporal bool
	idle     bool
	location string
	level    int // branch level that last claimed the temporary
}

func newVariable(typ Type, name string, node Node) *Variable {
	v := &Variable{
		name:          name,
		typ:           typ,
		dynamicTypes:  map[Type]bool{TypeUnknown: true},
		memoryTracked: true,
		node:          node,
	}
	return v
}

func (v *Variable) Name() string { return v.name }
func (v *Variable) Type() Type   { return v.typ }
func (v *Variable) Node() Node   { return v.node }

// RealName returns the name used in generated code.
func (v *Variable) RealName() string {
	if v.name == ThisName {
		return thisPtrName
	}
	return v.name
}

// NumberMutations returns how many writes have been compiled so far.
func (v *Variable) NumberMutations() int { return v.mutations }

// IncreaseMutations counts one more write.
func (v *Variable) IncreaseMutations() { v.mutations++ }

func (v *Variable) Uses() int        { return v.uses }
func (v *Variable) IncreaseUses()    { v.uses++ }
func (v *Variable) IsTemporal() bool { return v.temporal }
func (v *Variable) IsIdle() bool     { return v.idle }

// IsMemoryTracked reports whether the variable gets reference-count
// instrumentation.
func (v *Variable) IsMemoryTracked() bool { return v.memoryTracked }

func (v *Variable) SetMemoryTracked(tracked bool) { v.memoryTracked = tracked }

func (v *Variable) IsInitialized() bool { return v.initialized }

func (v *Variable) SetInitialized(initialized bool) { v.initialized = initialized }

// SetDynamicTypes replaces the dynamic type set.
func (v *Variable) SetDynamicTypes(types ...Type) {
	v.dynamicTypes = make(map[Type]bool, len(types))
	for _, t := range types {
		v.dynamicTypes[t] = true
	}
}

// DynamicTypes returns the dynamic type set, sorted.
func (v *Variable) DynamicTypes() []Type {
	out := make([]Type, 0, len(v.dynamicTypes))
	for t := range v.dynamicTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasAnyDynamicType reports whether any of types may be held.
func (v *Variable) HasAnyDynamicType(types ...Type) bool {
	for _, t := range types {
		if v.dynamicTypes[t] {
			return true
		}
	}
	return false
}

// HasDifferentDynamicType reports whether the variable can hold none of
// types, i.e. it is definitely something else.
func (v *Variable) HasDifferentDynamicType(types ...Type) bool {
	return !v.HasAnyDynamicType(types...)
}

func (v *Variable) fixedName() bool {
	return v.name == ReturnValueName || v.name == ThisName
}

// ObserveVariant prepares a polymorphic variable to receive a borrowed
// value.
func (v *Variable) ObserveVariant(ctx *Context) {
	if v.fixedName() {
		return
	}
	if v.variantInits > 0 || ctx.InsideCycle > 0 {
		v.mustInitNull = true
		ctx.Printer.Output("ZEPHIR_OBS_NVAR(" + v.RealName() + ");")
	} else {
		ctx.Headers.Add(HeaderMemory)
		ctx.Printer.Output("ZEPHIR_OBS_VAR(" + v.RealName() + ");")
	}
	v.variantInits++
}

// InitVariant prepares a polymorphic variable to receive a new value.
func (v *Variable) InitVariant(ctx *Context) {
	if v.fixedName() {
		return
	}
	if v.memoryTracked {
		if v.variantInits > 0 || ctx.InsideCycle > 0 {
			v.mustInitNull = true
			ctx.Printer.Output("ZEPHIR_INIT_NVAR(" + v.RealName() + ");")
		} else {
			ctx.Headers.Add(HeaderMemory)
			ctx.Printer.Output("ZEPHIR_INIT_VAR(" + v.RealName() + ");")
		}
	}
	v.variantInits++
}

// ---------------------------------------------------------------------------
// Symbol table
// ---------------------------------------------------------------------------

// SymbolTable holds the variables of one method, its temporaries and the
// expected mutation counts computed before compilation.
type SymbolTable struct {
	ctx       *Context
	variables map[string]*Variable
	order     []*Variable
	expected  map[string]int

	temps    []*Variable
	byBranch map[int][]*Variable
	nextTemp int
}

// NewSymbolTable creates a table with the return slot declared.
func NewSymbolTable(ctx *Context) *SymbolTable {
	st := &SymbolTable{
		ctx:       ctx,
		variables: make(map[string]*Variable),
		expected:  make(map[string]int),
		byBranch:  make(map[int][]*Variable),
	}
	rv := st.AddVariable(TypeVariable, ReturnValueName, nil)
	rv.SetInitialized(true)
	rv.SetDynamicTypes(TypeUndefined)
	return st
}

// AddVariable declares a variable. Redeclaring returns the existing one.
func (st *SymbolTable) AddVariable(typ Type, name string, node Node) *Variable {
	if v, ok := st.variables[name]; ok {
		return v
	}
	v := newVariable(typ, name, node)
	if typ != TypeVariable && typ != TypeString && typ != TypeArray {
		v.memoryTracked = false
	}
	st.variables[name] = v
	st.order = append(st.order, v)
	return v
}

func (st *SymbolTable) HasVariable(name string) bool {
	_, ok := st.variables[name]
	return ok
}

func (st *SymbolTable) GetVariable(name string) *Variable {
	return st.variables[name]
}

// GetVariableForRead returns a declared variable that is about to be read.
func (st *SymbolTable) GetVariableForRead(name string, node Node) (*Variable, error) {
	v, ok := st.variables[name]
	if !ok {
		return nil, errorAt(node, "cannot read variable '%s' because it wasn't declared", name)
	}
	v.IncreaseUses()
	return v, nil
}

// GetVariableForWrite returns a declared variable that is about to be
// written, counting the mutation.
func (st *SymbolTable) GetVariableForWrite(name string, node Node) (*Variable, error) {
	v, ok := st.variables[name]
	if !ok {
		return nil, errorAt(node, "cannot mutate variable '%s' because it wasn't declared", name)
	}
	v.IncreaseUses()
	v.IncreaseMutations()
	return v, nil
}

// SetExpectedMutations records how many writes name receives across the
// whole method.
func (st *SymbolTable) SetExpectedMutations(name string, n int) {
	st.expected[name] = n
}

// ExpectedMutations returns the total writes name receives in the method.
func (st *SymbolTable) ExpectedMutations(name string) int {
	return st.expected[name]
}

// ---------------------------------------------------------------------------
// Temporaries
// ---------------------------------------------------------------------------

func (st *SymbolTable) currentLevel() int {
	if b := st.ctx.Branches.Current(); b != nil {
		return b.Level()
	}
	return 0
}

// claim registers a temporary with the active branch.
func (st *SymbolTable) claim(v *Variable) {
	v.idle = false
	v.level = st.currentLevel()
	id := st.ctx.Branches.CurrentID()
	st.byBranch[id] = append(st.byBranch[id], v)
}

// reuse returns an idle temporary of the same type and pool that was
// released by a branch at the same or a deeper level.
func (st *SymbolTable) reuse(typ Type, location string) *Variable {
	level := st.currentLevel()
	for _, v := range st.temps {
		if v.idle && v.typ == typ && v.location == location && v.level >= level {
			st.claim(v)
			return v
		}
	}
	return nil
}

func (st *SymbolTable) newTemp(typ Type, location string) *Variable {
	name := "_" + strconv.Itoa(st.nextTemp)
	st.nextTemp++
	v := st.AddVariable(typ, name, nil)
	v.temporal = true
	v.location = location
	st.temps = append(st.temps, v)
	st.claim(v)
	return v
}

func (st *SymbolTable) tempFor(typ Type, location string) (*Variable, bool) {
	if v := st.reuse(typ, location); v != nil {
		return v, true
	}
	return st.newTemp(typ, location), false
}

// GetTempVariableForWrite returns a memory-tracked temporary that will be
// initialized by the caller.
func (st *SymbolTable) GetTempVariableForWrite(typ Type) *Variable {
	v, _ := st.tempFor(typ, locationHeap)
	v.SetInitialized(true)
	v.IncreaseUses()
	v.IncreaseMutations()
	return v
}

// GetTempNonTrackedVariable returns a temporary without reference-count
// instrumentation.
func (st *SymbolTable) GetTempNonTrackedVariable(typ Type) *Variable {
	v, _ := st.tempFor(typ, locationNonTracked)
	v.memoryTracked = false
	v.SetInitialized(true)
	v.IncreaseUses()
	v.IncreaseMutations()
	return v
}

// GetTempNonTrackedUninitializedVariable returns an untracked temporary
// that receives a borrowed value.
func (st *SymbolTable) GetTempNonTrackedUninitializedVariable(typ Type) *Variable {
	v, _ := st.tempFor(typ, locationUninitialized)
	v.memoryTracked = false
	v.SetInitialized(false)
	v.IncreaseUses()
	v.IncreaseMutations()
	return v
}

// GetTempVariableForObserve returns a tracked temporary already observed
// for a borrowed value.
func (st *SymbolTable) GetTempVariableForObserve(typ Type) *Variable {
	v, _ := st.tempFor(typ, locationObserve)
	v.SetInitialized(true)
	v.IncreaseUses()
	v.IncreaseMutations()
	v.ObserveVariant(st.ctx)
	return v
}

// GetTempVariable returns a plain C temporary (hash iterators and the like).
func (st *SymbolTable) GetTempVariable(typ Type) *Variable {
	v, _ := st.tempFor(typ, locationPlain)
	v.memoryTracked = false
	v.IncreaseUses()
	return v
}

// MarkTemporalVariablesIdle releases the temporaries claimed by the active
// branch so later branches can reuse them.
func (st *SymbolTable) MarkTemporalVariablesIdle(ctx *Context) {
	id := ctx.Branches.CurrentID()
	for _, v := range st.byBranch[id] {
		v.idle = true
	}
	delete(st.byBranch, id)
}

// Temporaries returns every temporary created so far.
func (st *SymbolTable) Temporaries() []*Variable {
	return st.temps
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

var cTypeNames = map[Type]string{
	TypeInt:          "int",
	TypeUInt:         "unsigned int",
	TypeLong:         "long",
	TypeULong:        "unsigned long",
	TypeDouble:       "double",
	TypeChar:         "char",
	TypeUChar:        "unsigned char",
	TypeBool:         "zend_bool",
	typeHashTable:    "HashTable",
	typeHashPosition: "HashPosition",
	typeHashData:     "zval",
}

func declarator(v *Variable) string {
	switch v.typ {
	case TypeVariable, TypeString, TypeArray, typeHashTable:
		if v.mustInitNull {
			return "*" + v.RealName() + " = NULL"
		}
		return "*" + v.RealName()
	case typeHashData:
		return "**" + v.RealName()
	}
	return v.RealName()
}

// Declarations returns the C declarations of every variable used by the
// method, one line per C type in first-use order.
func (st *SymbolTable) Declarations() []string {
	var types []string
	names := make(map[string][]string)
	for _, v := range st.order {
		if v.fixedName() {
			continue
		}
		ctype, ok := cTypeNames[v.typ]
		if !ok {
			ctype = "zval"
		}
		if _, seen := names[ctype]; !seen {
			types = append(types, ctype)
		}
		names[ctype] = append(names[ctype], declarator(v))
	}
	lines := make([]string, 0, len(types))
	for _, ctype := range types {
		lines = append(lines, fmt.Sprintf("%s %s;", ctype, strings.Join(names[ctype], ", ")))
	}
	return lines
}
