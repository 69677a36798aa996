package compiler

// Type is a type tag: the declared type of a variable, a member of a
// variable's dynamic type set, or the type of a compiled expression.
type Type string

const (
	TypeInt       Type = "int"
	TypeUInt      Type = "uint"
	TypeLong      Type = "long"
	TypeULong     Type = "ulong"
	TypeDouble    Type = "double"
	TypeChar      Type = "char"
	TypeUChar     Type = "uchar"
	TypeBool      Type = "bool"
	TypeString    Type = "string"
	TypeVariable  Type = "variable"
	TypeArray     Type = "array"
	TypeNull      Type = "null"
	TypeUndefined Type = "undefined"
	TypeUnknown   Type = "unknown"
	TypeEmptyArr  Type = "empty-array"
)

// IsIntegerFamily reports whether t can be used directly as a numeric
// index or offset.
func (t Type) IsIntegerFamily() bool {
	switch t {
	case TypeInt, TypeUInt, TypeLong:
		return true
	}
	return false
}

// IsScalar reports whether values of t live in native C scalars.
func (t Type) IsScalar() bool {
	switch t {
	case TypeInt, TypeDouble, TypeUInt, TypeLong, TypeULong, TypeChar, TypeUChar, TypeBool:
		return true
	}
	return false
}

// CompiledExpression is the result of compiling any expression. Type
// drives how callers consume Code.
type CompiledExpression struct {
	Type Type
	Code string
	Node Node
}

// NewCompiledExpression creates a CompiledExpression.
func NewCompiledExpression(typ Type, code string, node Node) *CompiledExpression {
	return &CompiledExpression{Type: typ, Code: code, Node: node}
}

// BooleanCode returns Code as a C condition.
func (c *CompiledExpression) BooleanCode() string {
	switch c.Type {
	case TypeVariable:
		return "zephir_is_true(" + c.Code + ")"
	case TypeNull:
		return "0"
	}
	return c.Code
}
