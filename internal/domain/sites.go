package domain

import (
	"github.com/mouse-blink/ubsynth/internal/domain/mutagens"
	m "github.com/mouse-blink/ubsynth/internal/model"
)

// siteQuery describes what a statement inserted ahead of a candidate must
// respect.
type siteQuery struct {
	category m.Category
	target   string     // candidate expression
	base     string     // first identifier of target
	scope    m.ScopeID  // candidate scope, for uninitialized reads
	escapee  *m.VarDecl // variable that must still be in scope, for use-after-scope
}

// searchSites walks backward from the candidate at idx and returns the
// executed insertion sites where a statement can legally be placed, nearest
// first. The walk stops at the enclosing function entry, at an assignment to
// the candidate expression, at the declaration of the candidate variable and
// at an earlier use of the candidate variable once a site has been passed.
func searchSites(prog *m.Program, idx int, q siteQuery) []*m.InsertionSite {
	var sites []*m.InsertionSite

	passedSite := false

	for i := idx - 1; i >= 0; i-- {
		switch r := prog.Records[i].(type) {
		case *m.FunctionEntry:
			return sites
		case *m.Assignment:
			if r.Expr == q.target {
				return sites
			}
		case *m.InsertionSite:
			passedSite = true

			switch q.category {
			case m.UseAfterScope:
				if prog.Scopes.Contains(q.escapee.Scope, r.Scope) {
					sites = append(sites, r)
				}
			case m.UseOfUninit:
				if r.Scope != q.scope {
					return sites
				}

				sites = append(sites, r)
			default:
				sites = append(sites, r)
			}
		case *m.PointerRef, *m.ArrayRef, *m.IntegerRef:
			_, expr, _ := m.Operand(r)
			if passedSite && mutagens.BaseName(expr) == q.base {
				return sites
			}
		case *m.VarDecl:
			if mutagens.BaseName(r.Name) == q.base {
				return sites
			}

			if q.escapee != nil && r.Name == q.escapee.Name {
				return sites
			}
		}
	}

	return sites
}

// dropLoopSites removes sites that ran more than once between the first
// execution of the earliest site and the first execution of the nearest one.
// A statement placed there would run on every iteration.
func dropLoopSites(trace *m.Trace, sites []*m.InsertionSite) []*m.InsertionSite {
	if len(sites) == 0 {
		return sites
	}

	start := trace.FirstExecution(sites[len(sites)-1].ID)
	end := trace.FirstExecution(sites[0].ID)

	if start < 0 || end < start {
		return sites
	}

	counts := make(map[int]int)
	for _, id := range trace.AliveSites[start:end] {
		counts[id]++
	}

	kept := sites[:0:0]

	for _, s := range sites {
		if counts[s.ID] <= 1 {
			kept = append(kept, s)
		}
	}

	return kept
}
