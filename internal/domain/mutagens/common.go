// Package mutagens computes the perturbation each undefined-behavior
// category applies to a traced reference.
package mutagens

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	// ExprTag follows every injected expression.
	ExprTag = "/*UBFUZZ*/"
	// StmtTag ends every injected statement.
	StmtTag = "//UBFUZZ"
)

var (
	identRe          = regexp.MustCompile(`[A-Za-z_]\w*`)
	indexHolderRe    = regexp.MustCompile(`\b_MUT(?:ARR|PTR)\d+\b`)
	operandHolderRe  = regexp.MustCompile(`\b_INTOP[LR]\d+\b`)
	loopCounterRe    = regexp.MustCompile(`\bMUT_(?:ARR|PTR)_\d+\b`)
	shadowNameLetter = "abcdefghijklmnopqrstuvwxyz"
)

// BaseName is the first identifier of an expression: "p" for "*(p + 1)".
func BaseName(expr string) string {
	return identRe.FindString(expr)
}

// IndirectionDepth counts pointer and array levels of a declared type.
func IndirectionDepth(ctype string) int {
	return strings.Count(ctype, "*") + strings.Count(ctype, "[")
}

// IndexPlaceholder returns the last subscript placeholder macro of expr.
func IndexPlaceholder(expr string) (string, bool) {
	return lastMatch(indexHolderRe, expr)
}

// OperandPlaceholder returns the last integer operand placeholder macro of expr.
func OperandPlaceholder(expr string) (string, bool) {
	return lastMatch(operandHolderRe, expr)
}

// LoopCounters returns the distinct index counters referenced by expr.
func LoopCounters(expr string) []string {
	var out []string

	seen := make(map[string]bool)

	for _, c := range loopCounterRe.FindAllString(expr, -1) {
		if !seen[c] {
			seen[c] = true

			out = append(out, c)
		}
	}

	return out
}

func lastMatch(re *regexp.Regexp, s string) (string, bool) {
	all := re.FindAllString(s, -1)
	if len(all) == 0 {
		return "", false
	}

	return all[len(all)-1], true
}

func pick[T any](rng *rand.Rand, options []T) T {
	return options[rng.IntN(len(options))]
}
