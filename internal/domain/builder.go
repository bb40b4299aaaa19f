package domain

import (
	"strconv"
	"strings"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// BuildProgram assembles the program model from the markers of an
// instrumented source and the trace of its execution.
//
// Block structure, function entries and heap declarations are always
// recorded. Every other record is kept only while the most recent insertion
// site executed: code after a dead site is dead as well.
func BuildProgram(src string, markers []m.Marker, trace *m.Trace) *m.Program {
	prog := m.NewProgram(src, trace)
	cursor := prog.Scopes.Root()
	alive := false

	for _, mk := range markers {
		base := m.Base{ID: mk.ID, Span: mk.Span, Scope: cursor}

		switch mk.Kind {
		case m.KindFunctionEntry:
			prog.Records = append(prog.Records, &m.FunctionEntry{Base: base})

			continue
		case m.KindScopeStart:
			cursor = prog.Scopes.Open(cursor, mk.ID)

			continue
		case m.KindScopeEnd:
			cursor = prog.Scopes.Parent(cursor)

			continue
		case m.KindHeapDecl:
			addHeapVar(prog, mk.Fields)

			continue
		case m.KindInsertionSite:
			alive = prog.Trace.IsAlive(mk.ID)
			if alive {
				prog.Records = append(prog.Records, &m.InsertionSite{Base: base})
			}

			continue
		}

		if !alive {
			continue
		}

		if rec := newReference(mk, base); rec != nil {
			if decl, ok := rec.(*m.VarDecl); ok {
				prog.DeclByName[decl.Name] = decl
				if strings.Contains(decl.Type, "[") {
					prog.ArrayVars[decl.Name] = struct{}{}
				}
			}

			prog.Records = append(prog.Records, rec)
		}
	}

	return prog
}

func addHeapVar(prog *m.Program, fields []string) {
	if len(fields) < 2 {
		return
	}

	name := fields[1]
	if _, seen := prog.HeapVars[name]; seen {
		return
	}

	depth := strings.Count(fields[0], "[") + 1
	if len(fields) >= 3 {
		if n, err := strconv.Atoi(fields[2]); err == nil {
			depth = n
		}
	}

	prog.HeapVars[name] = depth
}

// newReference builds the typed record for a reference or declaration
// marker. Expressions may themselves contain ':', so for two-field markers
// everything after the type is the expression.
func newReference(mk m.Marker, base m.Base) m.Record {
	f := mk.Fields

	switch mk.Kind {
	case m.KindVarDecl:
		if len(f) < 2 {
			return nil
		}

		return &m.VarDecl{Base: base, Type: f[0], Name: f[1]}
	case m.KindPointerRef:
		if typ, expr, ok := typedExpr(f); ok {
			return &m.PointerRef{Base: base, Type: typ, Expr: expr}
		}
	case m.KindPointerIndex:
		if typ, expr, ok := typedExpr(f); ok {
			return &m.PointerIndex{Base: base, Type: typ, Var: expr}
		}
	case m.KindArrayRef:
		if len(f) < 3 {
			return nil
		}

		return &m.ArrayRef{Base: base, Type: f[0], Array: strings.Join(f[1:len(f)-1], ":"), Index: f[len(f)-1]}
	case m.KindMemoryRef:
		if typ, expr, ok := typedExpr(f); ok {
			return &m.MemoryRef{Base: base, Type: typ, Expr: expr}
		}
	case m.KindIntegerRef:
		return newIntegerRef(f, base)
	case m.KindAssignment:
		if typ, expr, ok := typedExpr(f); ok {
			return &m.Assignment{Base: base, Type: typ, Expr: expr}
		}
	case m.KindFree:
		if typ, expr, ok := typedExpr(f); ok {
			return &m.Free{Base: base, Type: typ, Var: expr}
		}
	case m.KindInitUse:
		if typ, expr, ok := typedExpr(f); ok {
			return &m.InitUse{Base: base, Type: typ, Expr: expr}
		}
	}

	return nil
}

func typedExpr(f []string) (string, string, bool) {
	if len(f) < 2 {
		return "", "", false
	}

	return f[0], strings.Join(f[1:], ":"), true
}

// newIntegerRef accepts the binary form lhsType:lhs:rhsType:rhs:op and the
// single-operand form type:expr.
func newIntegerRef(f []string, base m.Base) m.Record {
	switch len(f) {
	case 2:
		return &m.IntegerRef{Base: base, LHSType: f[0], LHS: f[1]}
	case 5:
		return &m.IntegerRef{Base: base, LHSType: f[0], LHS: f[1], RHSType: f[2], RHS: f[3], Op: f[4]}
	default:
		return nil
	}
}
