package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mouse-blink/ubsynth/internal/domain/mutagens"
	m "github.com/mouse-blink/ubsynth/internal/model"
)

// Planner decides how a single candidate record is mutated.
type Planner interface {
	// Eligible lists the categories a record could exhibit, regardless of target.
	Eligible(prog *m.Program, rec m.Record) []m.Category
	// Plan returns the edits for the candidate at index idx of prog.Records,
	// or a *model.Rejection when it cannot be mutated soundly.
	Plan(prog *m.Program, idx int) (m.Plan, error)
}

type planner struct {
	target m.Category
	rng    *rand.Rand
	log    *logrus.Entry
}

// NewPlanner constructs a Planner for a single target category. All random
// choices are drawn from rng.
func NewPlanner(target m.Category, rng *rand.Rand, log *logrus.Entry) Planner {
	return &planner{
		target: target,
		rng:    rng,
		log:    log.WithField("category", target),
	}
}

func (p *planner) Eligible(prog *m.Program, rec m.Record) []m.Category {
	switch r := rec.(type) {
	case *m.PointerRef:
		var out []m.Category

		if strings.Contains(r.Type, "*") {
			out = append(out, m.NullPointerDereference)
			if !strings.Contains(r.Type, "[") {
				out = append(out, m.UseAfterScope)
			}
		}

		if _, ok := prog.HeapVars[mutagens.BaseName(r.Expr)]; ok {
			out = append(out, m.UseAfterFree)
		}

		return out
	case *m.MemoryRef:
		return []m.Category{m.BufferOverflow, m.OutOfBound}
	case *m.IntegerRef:
		return []m.Category{m.IntegerOverflow, m.DivisionByZero}
	case *m.Free:
		return []m.Category{m.DoubleFree, m.MemoryLeak}
	case *m.InitUse:
		return []m.Category{m.UseOfUninit}
	default:
		return nil
	}
}

func (p *planner) Plan(prog *m.Program, idx int) (m.Plan, error) {
	if idx < 0 || idx >= len(prog.Records) {
		return m.Plan{}, fmt.Errorf("candidate index %d out of range", idx)
	}

	rec := prog.Records[idx]
	if !slices.Contains(p.Eligible(prog, rec), p.target) {
		return m.Plan{}, m.Reject(m.RejectNoApplicableCategory, "%s record %d", rec.Kind(), rec.Meta().ID)
	}

	plan := m.Plan{
		Category:    p.target,
		Candidate:   idx,
		CandidateID: rec.Meta().ID,
		Site:        m.NoSite,
	}

	var err error

	switch p.target {
	case m.BufferOverflow:
		err = p.planBufferOverflow(prog, idx, rec.(*m.MemoryRef), &plan)
	case m.OutOfBound:
		err = p.planOutOfBound(prog, rec.(*m.MemoryRef), &plan)
	case m.UseAfterFree:
		err = p.planUseAfterFree(prog, idx, rec.(*m.PointerRef), &plan)
	case m.DoubleFree:
		err = p.planDoubleFree(prog, idx, rec.(*m.Free), &plan)
	case m.MemoryLeak:
		err = p.planMemoryLeak(prog, rec.(*m.Free), &plan)
	case m.NullPointerDereference:
		err = p.planNullPointer(prog, idx, rec.(*m.PointerRef), &plan)
	case m.IntegerOverflow:
		err = p.planIntegerOverflow(prog, rec.(*m.IntegerRef), &plan)
	case m.DivisionByZero:
		err = p.planDivisionByZero(prog, rec.(*m.IntegerRef), &plan)
	case m.UseAfterScope:
		err = p.planUseAfterScope(prog, idx, rec.(*m.PointerRef), &plan)
	case m.UseOfUninit:
		err = p.planUseOfUninit(prog, idx, rec.(*m.InitUse), &plan)
	default:
		err = m.Reject(m.RejectNoApplicableCategory, "category %q", p.target)
	}

	if err != nil {
		return m.Plan{}, err
	}

	p.log.WithFields(logrus.Fields{
		"candidate": plan.CandidateID,
		"site":      plan.Site,
		"edits":     len(plan.Edits),
	}).Debug("planned mutation")

	return plan, nil
}

func (p *planner) planBufferOverflow(prog *m.Program, idx int, r *m.MemoryRef, plan *m.Plan) error {
	acc, ok := prog.Trace.Memory[r.ID]
	if !ok {
		return m.Reject(m.RejectMissingTrace, "no access recorded for %s", r.Expr)
	}

	offset, err := mutagens.BufferOverflowOffset(acc, p.rng)
	if err != nil {
		return err
	}

	edits, err := substituteIndex(prog.Source, r.Expr, offset)
	if err != nil {
		return err
	}

	sites := dropLoopSites(prog.Trace, searchSites(prog, idx, siteQuery{
		category: m.BufferOverflow,
		target:   r.Expr,
		base:     mutagens.BaseName(r.Expr),
	}))
	if len(sites) == 0 {
		return m.Reject(m.RejectNoInsertionSite, "%s", r.Expr)
	}

	// index counters referenced by the access must survive cleanup
	for _, counter := range mutagens.LoopCounters(r.Expr) {
		edits = append(edits, renameAll(prog.Source, counter, survivingCounter(counter))...)
	}

	plan.Site = pickOne(p.rng, sites).ID
	plan.Edits = edits

	return nil
}

func (p *planner) planOutOfBound(prog *m.Program, r *m.MemoryRef, plan *m.Plan) error {
	if !prog.IsArray(mutagens.BaseName(r.Expr)) {
		return m.Reject(m.RejectNotAnArray, "%s", r.Expr)
	}

	acc, ok := prog.Trace.Memory[r.ID]
	if !ok {
		return m.Reject(m.RejectMissingTrace, "no access recorded for %s", r.Expr)
	}

	edits, err := substituteIndex(prog.Source, r.Expr, mutagens.OutOfBoundOffset(acc, p.rng))
	if err != nil {
		return err
	}

	plan.Edits = edits

	return nil
}

func (p *planner) planUseAfterFree(prog *m.Program, idx int, r *m.PointerRef, plan *m.Plan) error {
	name := mutagens.BaseName(r.Expr)

	stmt, err := mutagens.FreeStatement(r.Expr, name, prog.HeapVars[name])
	if err != nil {
		return err
	}

	return p.insertAtSite(prog, idx, stmt, siteQuery{category: m.UseAfterFree, target: r.Expr, base: name}, plan)
}

func (p *planner) planDoubleFree(prog *m.Program, idx int, r *m.Free, plan *m.Plan) error {
	name := mutagens.BaseName(r.Var)

	depth, ok := prog.HeapVars[name]
	if !ok {
		return m.Reject(m.RejectNotHeap, "%s is not heap-promoted", name)
	}

	stmt, err := mutagens.FreeStatement(r.Var, name, depth)
	if err != nil {
		return err
	}

	return p.insertAtSite(prog, idx, stmt, siteQuery{category: m.DoubleFree, target: r.Var, base: name}, plan)
}

func (p *planner) planMemoryLeak(prog *m.Program, r *m.Free, plan *m.Plan) error {
	rel := strings.Index(prog.Source[r.Span.End:], mutagens.FreeCallPrefix)
	if rel < 0 {
		return m.Reject(m.RejectNoFreeCall, "no release follows %s", r.Var)
	}

	start := r.Span.End + rel
	plan.Edits = []m.Edit{{Start: start, End: start + len(mutagens.FreeCallPrefix), Text: mutagens.LeakReplacement()}}

	return nil
}

func (p *planner) planNullPointer(prog *m.Program, idx int, r *m.PointerRef, plan *m.Plan) error {
	stmt, err := mutagens.NullAssignment(r.Expr, prog.Trace.Pointers[r.ID], p.rng)
	if err != nil {
		return err
	}

	q := siteQuery{category: m.NullPointerDereference, target: r.Expr, base: mutagens.BaseName(r.Expr)}

	return p.insertAtSite(prog, idx, stmt, q, plan)
}

func (p *planner) planIntegerOverflow(prog *m.Program, r *m.IntegerRef, plan *m.Plan) error {
	if r.Op == "" {
		return m.Reject(m.RejectUnsupportedOperator, "%s is not a binary operation", r.LHS)
	}

	sample, ok := prog.Trace.Ints[r.ID]
	if !ok {
		return m.Reject(m.RejectMissingTrace, "no operands recorded for %s %s %s", r.LHS, r.Op, r.RHS)
	}

	if sample.Repeated {
		return m.Reject(m.RejectUnstableTrace, "operands of %s %s %s vary", r.LHS, r.Op, r.RHS)
	}

	patch, err := mutagens.OverflowPatch(r.Op, r.LHSType, r.RHSType, sample.LHS, sample.RHS, p.rng)
	if err != nil {
		return err
	}

	operand := r.LHS
	if patch.Side == mutagens.RightOperand {
		operand = r.RHS
	}

	holder, ok := mutagens.OperandPlaceholder(operand)
	if !ok {
		return m.Reject(m.RejectPlaceholderMissing, "operand %s", operand)
	}

	define := "#define " + holder + " "

	start := strings.Index(prog.Source, define)
	if start < 0 {
		return m.Reject(m.RejectPlaceholderMissing, "no definition of %s", holder)
	}

	// the value goes through a global so the compiler cannot fold it
	text := fmt.Sprintf("#include <stdint.h>\n%s MUT_VAR = %s%s;\n#define %s +(MUT_VAR) ",
		patch.Type.Name, patch.Literal(), mutagens.ExprTag, holder)
	plan.Edits = []m.Edit{{Start: start, End: start + len(define), Text: text}}

	return nil
}

func (p *planner) planDivisionByZero(prog *m.Program, r *m.IntegerRef, plan *m.Plan) error {
	sample, ok := prog.Trace.Ints[r.ID]
	if !ok {
		return m.Reject(m.RejectMissingTrace, "no operands recorded for %s %s %s", r.LHS, r.Op, r.RHS)
	}

	literal, err := mutagens.DivisionByZeroLiteral(r.Op, sample.RHS)
	if err != nil {
		return err
	}

	holder, ok := mutagens.OperandPlaceholder(r.RHS)
	if !ok {
		return m.Reject(m.RejectPlaceholderMissing, "operand %s", r.RHS)
	}

	edits := replaceAll(prog.Source, holder+")", literal+mutagens.ExprTag+")")
	if len(edits) == 0 {
		return m.Reject(m.RejectPlaceholderMissing, "no use of %s", holder)
	}

	plan.Edits = edits

	return nil
}

type escape struct {
	value string
	decl  *m.VarDecl
}

func (p *planner) planUseAfterScope(prog *m.Program, idx int, r *m.PointerRef, plan *m.Plan) error {
	escapes := p.escapeCandidates(prog, idx, r)
	if len(escapes) == 0 {
		return m.Reject(m.RejectNoOutOfScopeVariable, "for %s", r.Expr)
	}

	p.rng.Shuffle(len(escapes), func(i, j int) { escapes[i], escapes[j] = escapes[j], escapes[i] })

	for _, e := range escapes {
		sites := searchSites(prog, idx, siteQuery{
			category: m.UseAfterScope,
			target:   r.Expr,
			base:     mutagens.BaseName(r.Expr),
			escapee:  e.decl,
		})
		if len(sites) == 0 {
			continue
		}

		stmt := mutagens.EscapeAssignment(r.Expr, e.value)
		site := pickOne(p.rng, sites)

		plan.Site = site.ID
		plan.Statement = stmt
		plan.Edits = []m.Edit{spliceAt(site, stmt)}

		return nil
	}

	return m.Reject(m.RejectNoInsertionSite, "no site keeps an escapee of %s in scope", r.Expr)
}

// escapeCandidates collects earlier references to variables declared in a
// block nested strictly inside the candidate's block, adjusted to the
// candidate's pointer depth.
func (p *planner) escapeCandidates(prog *m.Program, idx int, r *m.PointerRef) []escape {
	targetDepth := mutagens.IndirectionDepth(r.Type)
	seen := make(map[string]bool)

	var out []escape

	for i := idx - 1; i >= 0; i-- {
		var typ, expr string

		switch s := prog.Records[i].(type) {
		case *m.FunctionEntry:
			return out
		case *m.PointerRef:
			typ, expr = s.Type, s.Expr
		case *m.ArrayRef:
			typ, expr = s.Type, s.Array
		case *m.IntegerRef:
			// only plain variables can have their address taken
			if s.LHS != mutagens.BaseName(s.LHS) {
				continue
			}

			typ, expr = s.LHSType, s.LHS
		case *m.VarDecl:
			typ, expr = s.Type, s.Name
		default:
			continue
		}

		if strings.Contains(typ, "*") || expr == r.Expr {
			continue
		}

		decl, ok := prog.DeclByName[mutagens.BaseName(expr)]
		if !ok || !prog.Scopes.IsDescendant(decl.Scope, r.Scope) {
			continue
		}

		value, ok := mutagens.AdjustIndirection(expr, mutagens.IndirectionDepth(typ), targetDepth)
		if !ok || seen[value] {
			continue
		}

		seen[value] = true

		out = append(out, escape{value: value, decl: decl})
	}

	return out
}

func (p *planner) planUseOfUninit(prog *m.Program, idx int, r *m.InitUse, plan *m.Plan) error {
	uses := findUses(prog.Source, r.Span.Start, r.Expr, 2)
	if len(uses) < 2 {
		return m.Reject(m.RejectNoUse, "%s is not read after its marker", r.Expr)
	}

	name := mutagens.ShadowName(p.rng)

	sites := searchSites(prog, idx, siteQuery{
		category: m.UseOfUninit,
		target:   r.Expr,
		base:     mutagens.BaseName(r.Expr),
		scope:    r.Scope,
	})
	if len(sites) == 0 {
		return m.Reject(m.RejectNoInsertionSite, "%s", r.Expr)
	}

	stmt := mutagens.ShadowDeclaration(r.Type, name)
	site := pickOne(p.rng, sites)

	plan.Site = site.ID
	plan.Statement = stmt
	plan.Edits = []m.Edit{spliceAt(site, stmt)}

	for _, start := range uses {
		plan.Edits = append(plan.Edits, m.Edit{Start: start, End: start + len(r.Expr), Text: name})
	}

	return nil
}

// insertAtSite places stmt at a random legal site before the candidate.
func (p *planner) insertAtSite(prog *m.Program, idx int, stmt string, q siteQuery, plan *m.Plan) error {
	sites := searchSites(prog, idx, q)
	if len(sites) == 0 {
		return m.Reject(m.RejectNoInsertionSite, "%s", q.target)
	}

	site := pickOne(p.rng, sites)

	plan.Site = site.ID
	plan.Statement = stmt
	plan.Edits = []m.Edit{spliceAt(site, stmt)}

	return nil
}

// spliceAt replaces an insertion-site marker with stmt. The trailing marker
// opener keeps the rest of the line, which is tracing code, subject to cleanup.
func spliceAt(site *m.InsertionSite, stmt string) m.Edit {
	return m.Edit{Start: site.Span.Start, End: site.Span.End, Text: stmt + " " + markerOpen}
}

// substituteIndex replaces every use of the subscript placeholder of expr.
func substituteIndex(src, expr, offset string) ([]m.Edit, error) {
	holder, ok := mutagens.IndexPlaceholder(expr)
	if !ok {
		return nil, m.Reject(m.RejectPlaceholderMissing, "no index placeholder in %s", expr)
	}

	edits := replaceAll(src, holder+")", offset+mutagens.ExprTag+")")
	if len(edits) == 0 {
		return nil, m.Reject(m.RejectPlaceholderMissing, "no use of %s", holder)
	}

	return edits, nil
}

// replaceAll returns one edit per non-overlapping occurrence of old.
func replaceAll(src, old, replacement string) []m.Edit {
	var edits []m.Edit

	for pos := 0; ; {
		rel := strings.Index(src[pos:], old)
		if rel < 0 {
			return edits
		}

		start := pos + rel
		edits = append(edits, m.Edit{Start: start, End: start + len(old), Text: replacement})
		pos = start + len(old)
	}
}

// renameAll renames every whole-word occurrence of ident.
func renameAll(src, ident, replacement string) []m.Edit {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(ident) + `\b`)

	var edits []m.Edit

	for _, loc := range re.FindAllStringIndex(src, -1) {
		edits = append(edits, m.Edit{Start: loc[0], End: loc[1], Text: replacement})
	}

	return edits
}

// survivingCounter renames an index counter out of the cleanup pattern while
// keeping distinct counters distinct: MUT_ARR_3 -> MUT_ARR3.
func survivingCounter(counter string) string {
	if i := strings.LastIndexByte(counter, '_'); i > 0 {
		return counter[:i] + counter[i+1:]
	}

	return counter
}

// findUses returns the offsets of the first n occurrences of expr at or after
// from that are not part of a longer identifier.
func findUses(src string, from int, expr string, n int) []int {
	var out []int

	if expr == "" {
		return out
	}

	for pos := from; len(out) < n; {
		rel := strings.Index(src[pos:], expr)
		if rel < 0 {
			break
		}

		start := pos + rel
		end := start + len(expr)
		pos = end

		if isWordByte(expr[0]) && start > 0 && isWordByte(src[start-1]) {
			pos = start + 1
			continue
		}

		if isWordByte(expr[len(expr)-1]) && end < len(src) && isWordByte(src[end]) {
			pos = start + 1
			continue
		}

		out = append(out, start)
	}

	return out
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func pickOne[T any](rng *rand.Rand, options []T) T {
	return options[rng.IntN(len(options))]
}
