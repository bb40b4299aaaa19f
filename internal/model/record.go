package model

// RecordKind is the kind of an instrumentation marker.
type RecordKind int

// Marker kinds emitted by the instrumentation passes.
const (
	KindUnknown RecordKind = iota
	KindFunctionEntry
	KindScopeStart
	KindScopeEnd
	KindHeapDecl
	KindInsertionSite
	KindVarDecl
	KindPointerRef
	KindPointerIndex
	KindArrayRef
	KindMemoryRef
	KindIntegerRef
	KindAssignment
	KindFree
	KindInitUse
)

var kindWireNames = map[RecordKind]string{
	KindFunctionEntry: "FUNCTIONENTER",
	KindScopeStart:    "BRACESTART",
	KindScopeEnd:      "BRACEEND",
	KindHeapDecl:      "VARDECLHEAP",
	KindInsertionSite: "INSERTIONSITE",
	KindVarDecl:       "VARDECL",
	KindPointerRef:    "VARREF_POINTER",
	KindPointerIndex:  "VARREF_POINTERINDEX",
	KindArrayRef:      "VARREF_ARRAY",
	KindMemoryRef:     "VARREF_MEMORY",
	KindIntegerRef:    "VARREF_INTEGER",
	KindAssignment:    "VARREF_ASSIGN",
	KindFree:          "VARREF_FREE",
	KindInitUse:       "VARREF_INIT",
}

var kindsByWireName = func() map[string]RecordKind {
	out := make(map[string]RecordKind, len(kindWireNames))
	for k, name := range kindWireNames {
		out[name] = k
	}

	return out
}()

// ParseRecordKind maps a marker keyword such as "VARREF_MEMORY" to its kind.
func ParseRecordKind(name string) (RecordKind, bool) {
	k, ok := kindsByWireName[name]
	return k, ok
}

func (k RecordKind) String() string {
	if name, ok := kindWireNames[k]; ok {
		return name
	}

	return "UNKNOWN"
}

// IsCandidate reports whether records of this kind are mutation targets.
func (k RecordKind) IsCandidate() bool {
	switch k {
	case KindPointerRef, KindPointerIndex, KindArrayRef, KindMemoryRef,
		KindIntegerRef, KindFree, KindInitUse:
		return true
	default:
		return false
	}
}

// Span is a half-open byte range [Start, End) in the instrumented source.
type Span struct {
	Start int
	End   int
}

// Marker is one raw instrumentation comment as found by the tokenizer.
// ID is -1 for markers that carry no numeric identifier.
type Marker struct {
	Kind   RecordKind
	ID     int
	Fields []string
	Span   Span
}

// Base carries what every record knows about itself.
type Base struct {
	ID    int
	Span  Span
	Scope ScopeID
}

// Record is one entry of the program model. The concrete types below form a
// closed set; switch on them with a type switch.
type Record interface {
	Kind() RecordKind
	Meta() Base
}

// FunctionEntry marks the start of a function body.
type FunctionEntry struct{ Base }

// InsertionSite is a statement boundary where new code may be spliced.
type InsertionSite struct{ Base }

// VarDecl is a local or global variable declaration.
type VarDecl struct {
	Base
	Type string
	Name string
}

// PointerRef is a use of a pointer-typed expression.
type PointerRef struct {
	Base
	Type string
	Expr string
}

// PointerIndex is a pointer-offset counter introduced by the index rewriter.
type PointerIndex struct {
	Base
	Type string
	Var  string
}

// ArrayRef is an array subscript together with the variable used as index.
type ArrayRef struct {
	Base
	Type  string
	Array string
	Index string
}

// MemoryRef is a memory access whose address and width are traced.
type MemoryRef struct {
	Base
	Type string
	Expr string
}

// IntegerRef is a binary integer operation with both operands traced.
type IntegerRef struct {
	Base
	LHSType string
	LHS     string
	RHSType string
	RHS     string
	Op      string
}

// Assignment is a write to an expression.
type Assignment struct {
	Base
	Type string
	Expr string
}

// Free is a heap release of a variable.
type Free struct {
	Base
	Type string
	Var  string
}

// InitUse is a read of a variable that could be left uninitialized.
type InitUse struct {
	Base
	Type string
	Expr string
}

func (r *FunctionEntry) Kind() RecordKind { return KindFunctionEntry }
func (r *InsertionSite) Kind() RecordKind { return KindInsertionSite }
func (r *VarDecl) Kind() RecordKind       { return KindVarDecl }
func (r *PointerRef) Kind() RecordKind    { return KindPointerRef }
func (r *PointerIndex) Kind() RecordKind  { return KindPointerIndex }
func (r *ArrayRef) Kind() RecordKind      { return KindArrayRef }
func (r *MemoryRef) Kind() RecordKind     { return KindMemoryRef }
func (r *IntegerRef) Kind() RecordKind    { return KindIntegerRef }
func (r *Assignment) Kind() RecordKind    { return KindAssignment }
func (r *Free) Kind() RecordKind          { return KindFree }
func (r *InitUse) Kind() RecordKind       { return KindInitUse }

// Meta returns the shared record fields.
func (b Base) Meta() Base { return b }

// Operand returns the declared type and the source expression a record
// refers to. For integer operations that is the left operand, for array
// references the array variable.
func Operand(r Record) (typ, expr string, ok bool) {
	switch rec := r.(type) {
	case *VarDecl:
		return rec.Type, rec.Name, true
	case *PointerRef:
		return rec.Type, rec.Expr, true
	case *PointerIndex:
		return rec.Type, rec.Var, true
	case *ArrayRef:
		return rec.Type, rec.Array, true
	case *MemoryRef:
		return rec.Type, rec.Expr, true
	case *IntegerRef:
		return rec.LHSType, rec.LHS, true
	case *Assignment:
		return rec.Type, rec.Expr, true
	case *Free:
		return rec.Type, rec.Var, true
	case *InitUse:
		return rec.Type, rec.Expr, true
	default:
		return "", "", false
	}
}
