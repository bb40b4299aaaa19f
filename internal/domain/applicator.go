package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// helperRe matches the index-counter helpers the rewriters leave behind.
var helperRe = regexp.MustCompile(`int MUT_ARR_\d+ = 0;|MUT_ARR_\d+\+|int MUT_PTR_\d+ = 0;|\+MUT_PTR_\d+`)

// Applicator turns plans into finished mutants and filters duplicates.
type Applicator interface {
	// Apply returns the mutant for plan and whether it was accepted. A mutant
	// is refused when an identical one was already produced or when it fails
	// the category's sanity check.
	Apply(baseline string, plan m.Plan) (m.Mutant, bool, error)
}

type applicator struct {
	category m.Category
	seen     map[string]struct{}
}

// NewApplicator constructs an Applicator with an empty duplicate set. Use one
// per seed program.
func NewApplicator(category m.Category) Applicator {
	return &applicator{
		category: category,
		seen:     make(map[string]struct{}),
	}
}

func (a *applicator) Apply(baseline string, plan m.Plan) (m.Mutant, bool, error) {
	edited, err := ApplyEdits(baseline, plan.Edits)
	if err != nil {
		return m.Mutant{}, false, err
	}

	content := Cleanup(edited)

	if a.category == m.UseOfUninit && strings.Count(content, "UNINIT") != 2 {
		return m.Mutant{}, false, nil
	}

	sum := sha256.Sum256([]byte(content))
	id := hex.EncodeToString(sum[:])

	if _, dup := a.seen[id]; dup {
		return m.Mutant{}, false, nil
	}

	a.seen[id] = struct{}{}

	return m.Mutant{
		ID:       id,
		Category: plan.Category,
		Plan:     plan,
		Content:  []byte(content),
	}, true, nil
}

// ApplyEdits applies non-overlapping edits to src in a single pass.
func ApplyEdits(src string, edits []m.Edit) (string, error) {
	sorted := make([]m.Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder

	b.Grow(len(src))

	pos := 0

	for _, e := range sorted {
		if e.Start < pos || e.End < e.Start || e.End > len(src) {
			return "", fmt.Errorf("edit [%d,%d) overlaps or exceeds source of %d bytes", e.Start, e.End, len(src))
		}

		b.WriteString(src[pos:e.Start])
		b.WriteString(e.Text)
		pos = e.End
	}

	b.WriteString(src[pos:])

	return b.String(), nil
}

// Cleanup strips every instrumentation marker through the end of its line
// and the helper declarations and increments of index counters.
func Cleanup(src string) string {
	var b strings.Builder

	b.Grow(len(src))

	pos := 0

	for pos < len(src) {
		rel := strings.Index(src[pos:], markerOpen)
		if rel < 0 {
			break
		}

		start := pos + rel
		b.WriteString(src[pos:start])

		pos = len(src)
		if nl := strings.IndexByte(src[start:], '\n'); nl >= 0 {
			pos = start + nl
		}
	}

	b.WriteString(src[pos:])

	return helperRe.ReplaceAllString(b.String(), "")
}
