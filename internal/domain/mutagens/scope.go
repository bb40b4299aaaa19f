package mutagens

import (
	"math/rand/v2"
	"strings"
)

// AdjustIndirection wraps src so that it has tgtDepth pointer levels.
// Only a single level of difference can be bridged.
func AdjustIndirection(src string, srcDepth, tgtDepth int) (string, bool) {
	switch srcDepth - tgtDepth {
	case 0:
		return src, true
	case 1:
		return "*(" + src + ")", true
	case -1:
		return "&(" + src + ")", true
	default:
		return "", false
	}
}

// EscapeAssignment points expr at value, which is about to leave its scope.
func EscapeAssignment(expr, value string) string {
	return expr + " = " + value + ";" + StmtTag
}

// ShadowName returns a fresh name for an uninitialized stand-in variable.
func ShadowName(rng *rand.Rand) string {
	var b strings.Builder

	b.WriteString("UNINIT_")

	for range 5 {
		b.WriteByte(shadowNameLetter[rng.IntN(len(shadowNameLetter))])
	}

	return b.String()
}

// ShadowDeclaration declares name with type ctype and no initializer.
func ShadowDeclaration(ctype, name string) string {
	return ctype + " " + name + ";" + StmtTag
}
