package mutagens

import (
	"fmt"
	"math/rand/v2"
	"strings"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// FreeCallPrefix starts every generated heap release helper call.
const FreeCallPrefix = "free_"

// NullAssignment nulls the pointer reached through a random number of
// dereferences of expr, from none up to one less than expr already applies.
func NullAssignment(expr string, sample m.PointerSample, rng *rand.Rand) (string, error) {
	if sample.Repeated {
		return "", m.Reject(m.RejectUnstableTrace, "pointer %s varies across executions", expr)
	}

	depth := 0
	if stars := strings.Count(expr, "*"); stars > 0 {
		depth = rng.IntN(stars)
	}

	return strings.Repeat("*", depth) + expr + " = 0;" + StmtTag, nil
}

// FreeStatement releases the heap object behind name ahead of a use of expr.
// The object must have more pointer levels than expr already dereferences,
// otherwise the release would act on an element rather than the object.
func FreeStatement(expr, name string, depth int) (string, error) {
	if used := strings.Count(expr, "*") + strings.Count(expr, "["); used >= depth {
		return "", m.Reject(m.RejectHeapDepth, "%s dereferences %d of %d levels", expr, used, depth)
	}

	return fmt.Sprintf("%s%d(%s);%s", FreeCallPrefix, depth, name, StmtTag), nil
}

// LeakReplacement comments out a release call.
func LeakReplacement() string {
	return StmtTag + " //" + FreeCallPrefix
}
