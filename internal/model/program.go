package model

// Program is the model of one instrumented source file: its records in
// source order, the lexical block tree and name indices derived while
// building it.
type Program struct {
	Source  string
	Records []Record
	Scopes  *ScopeTree
	Trace   *Trace

	// DeclByName maps a variable name to its last recorded declaration.
	DeclByName map[string]*VarDecl
	// HeapVars maps heap-promoted variables to their pointer depth.
	HeapVars map[string]int
	// ArrayVars holds variables whose declared type is an array.
	ArrayVars map[string]struct{}
}

// NewProgram returns an empty program over source.
func NewProgram(source string, trace *Trace) *Program {
	if trace == nil {
		trace = NewTrace()
	}

	return &Program{
		Source:     source,
		Scopes:     NewScopeTree(),
		Trace:      trace,
		DeclByName: make(map[string]*VarDecl),
		HeapVars:   make(map[string]int),
		ArrayVars:  make(map[string]struct{}),
	}
}

// Candidates returns the indices of records that are mutation targets.
func (p *Program) Candidates() []int {
	var out []int

	for i, r := range p.Records {
		if r.Kind().IsCandidate() {
			out = append(out, i)
		}
	}

	return out
}

// IsArray reports whether name was declared with an array type.
func (p *Program) IsArray(name string) bool {
	_, ok := p.ArrayVars[name]
	return ok
}
