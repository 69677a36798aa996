package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Result is the generated C for one method.
type Result struct {
	Class         string        `cbor:"1,keyasint"`
	Method        string        `cbor:"2,keyasint"`
	Code          string        `cbor:"3,keyasint"`
	Headers       []string      `cbor:"4,keyasint"`
	Diagnostics   []Diagnostic  `cbor:"5,keyasint"`
	LastStatement StatementKind `cbor:"6,keyasint"`
}

// classCName maps a namespaced class to the C prefix used by PHP_METHOD,
// e.g. Test\Fetch becomes Test_Fetch.
func classCName(namespace, class string) string {
	name := strings.Trim(class, `\`)
	if namespace != "" && !strings.Contains(name, `\`) {
		name = strings.Trim(namespace, `\`) + `\` + name
	}
	return strings.ReplaceAll(name, `\`, "_")
}

// CompileMethod compiles one method of class. Warnings are returned in the
// result; the first fatal error aborts the method.
func CompileMethod(namespace, class string, m *Method, opts Options) (*Result, error) {
	ctx := NewContext(opts)
	ctx.ClassName = classCName(namespace, class)
	ctx.MethodName = m.Name

	if !m.Static {
		this := ctx.Symbols.AddVariable(TypeVariable, ThisName, m)
		this.SetInitialized(true)
		this.SetDynamicTypes(TypeUndefined)
	}

	var fetched []string
	var conversions []string
	for _, p := range m.Parameters {
		if ctx.Symbols.HasVariable(p.Name) {
			return nil, errorAt(p, "variable '%s' is already declared", p.Name)
		}
		typ := p.DataType
		if typ == "" {
			typ = TypeVariable
		}
		v := ctx.Symbols.AddVariable(typ, p.Name, p)
		v.SetInitialized(true)
		if !typ.IsScalar() {
			v.SetDynamicTypes(TypeUndefined)
			fetched = append(fetched, "&"+v.RealName())
			continue
		}
		raw := ctx.Symbols.AddVariable(TypeVariable, p.Name+"_param", p)
		raw.SetInitialized(true)
		raw.SetDynamicTypes(TypeUndefined)
		fetched = append(fetched, "&"+raw.RealName())
		conversions = append(conversions, paramConversion(v, raw))
		ctx.Headers.Add(HeaderOperators)
	}

	gatherer := NewMutationGatherer()
	gatherer.Gather(m.Statements)
	gatherer.Apply(ctx.Symbols)

	ctx.Headers.Add(HeaderMemory)
	ctx.Printer.IncreaseLevel()
	ctx.Printer.Output("ZEPHIR_MM_GROW();")
	if len(fetched) > 0 {
		n := strconv.Itoa(len(fetched))
		ctx.Printer.Output("zephir_fetch_params(1, " + n + ", 0, " + strings.Join(fetched, ", ") + ");")
	}
	if len(conversions) > 0 {
		ctx.Printer.OutputBlankLine()
		for _, c := range conversions {
			ctx.Printer.Output(c)
		}
	}
	ctx.Printer.OutputBlankLine()
	ctx.Printer.DecreaseLevel()

	block := NewStatementsBlock(m.Statements)
	root, err := block.Compile(ctx, false, BranchRoot)
	if err != nil {
		return nil, fmt.Errorf("%s::%s: %w", class, m.Name, err)
	}
	if !root.Unreachable() && block.LastStatementType() != KindReturn {
		ctx.Printer.IncreaseLevel()
		ctx.Printer.Output("RETURN_MM_NULL();")
		ctx.Printer.DecreaseLevel()
	}

	var sb strings.Builder
	sb.WriteString("PHP_METHOD(" + ctx.ClassName + ", " + m.Name + ") {\n\n")
	for _, decl := range ctx.Symbols.Declarations() {
		sb.WriteString("\t" + decl + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(ctx.Printer.String())
	sb.WriteString("}\n")

	return &Result{
		Class:         ctx.ClassName,
		Method:        m.Name,
		Code:          sb.String(),
		Headers:       ctx.Headers.Headers(),
		Diagnostics:   ctx.Logger.Diagnostics(),
		LastStatement: block.LastStatementType(),
	}, nil
}

func paramConversion(v, raw *Variable) string {
	switch v.Type() {
	case TypeDouble:
		return v.RealName() + " = zephir_get_doubleval(" + raw.RealName() + ");"
	case TypeBool:
		return v.RealName() + " = zephir_get_boolval(" + raw.RealName() + ");"
	}
	return v.RealName() + " = zephir_get_intval(" + raw.RealName() + ");"
}

// CompileUnit compiles every method of every class in u. It stops at the
// first fatal error and returns the results compiled before it.
func CompileUnit(u *Unit, opts Options) ([]*Result, error) {
	var results []*Result
	for _, class := range u.Classes {
		for _, m := range class.Methods {
			r, err := CompileMethod(u.Namespace, class.Name, m, opts)
			if err != nil {
				return results, err
			}
			results = append(results, r)
		}
	}
	return results, nil
}
