package mutagens

import (
	"fmt"
	"math/big"
	"math/rand/v2"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// OperandSide selects the operand placeholder a patch is applied to.
type OperandSide int

// Operand sides.
const (
	LeftOperand OperandSide = iota
	RightOperand
)

// IntegerPatch is an additive correction for one operand of an integer
// operation. Value is what the injected variable holds; the operand becomes
// operand + Value.
type IntegerPatch struct {
	Side  OperandSide
	Value *big.Int
	Type  IntDomain
}

// Literal renders the patch value the way it is written into the source.
func (p IntegerPatch) Literal() string {
	return fmt.Sprintf("+(%s)", p.Value.String())
}

// OverflowPatch finds a correction that moves the result of lhs op rhs one
// past the range of its promoted type while keeping the corrected operand in
// the range of its declared type. Several placements may be legal; one is
// chosen at random.
func OverflowPatch(op, lhsType, rhsType string, lhs, rhs *big.Int, rng *rand.Rand) (IntegerPatch, error) {
	lhsDomain, okL := Primitive(lhsType)
	rhsDomain, okR := Primitive(rhsType)

	if !okL || !okR || lhsDomain.Name != rhsDomain.Name {
		return IntegerPatch{}, m.Reject(m.RejectTypeMismatch, "%q %s %q", lhsType, op, rhsType)
	}

	// the result overflows in the promoted type, operands stay in their own
	resultDomain := lhsDomain.Promoted()

	switch op {
	case "+", "-", "*":
		if !resultDomain.Signed {
			return IntegerPatch{}, m.Reject(m.RejectUnsignedWrap, "unsigned %s wraps", op)
		}
	case "<<", ">>":
	default:
		return IntegerPatch{}, m.Reject(m.RejectUnsupportedOperator, "operator %q", op)
	}

	result, ok := evalBinary(op, lhs, rhs)
	if !ok {
		return IntegerPatch{}, m.Reject(m.RejectNoBoundary, "cannot evaluate %s %s %s", lhs, op, rhs)
	}

	var options []IntegerPatch

	switch op {
	case "+", "-", "*":
		options = arithmeticPatches(op, lhsDomain, rhsDomain, resultDomain, lhs, rhs, overflowDelta(resultDomain, result))
	case ">>":
		options = []IntegerPatch{shiftPastWidth(rhsDomain, rhs)}
	case "<<":
		if resultDomain.Signed {
			options = []IntegerPatch{shiftOutOfRange(resultDomain, lhs, rhs)}
		} else {
			options = []IntegerPatch{shiftPastWidth(rhsDomain, rhs)}
		}
	}

	// the value lives in a variable of the operand type
	var legal []IntegerPatch

	for _, p := range options {
		p.Type = rhsDomain
		if rhsDomain.Contains(p.Value) {
			legal = append(legal, p)
		}
	}

	if len(legal) == 0 {
		return IntegerPatch{}, m.Reject(m.RejectNoBoundary, "no in-range operand for %s %s %s", lhs, op, rhs)
	}

	return pick(rng, legal), nil
}

// overflowDelta is the distance from result to the first value outside d,
// in the direction of result's sign.
func overflowDelta(d IntDomain, result *big.Int) *big.Int {
	one := big.NewInt(1)

	var boundary *big.Int
	if result.Sign() >= 0 {
		boundary = new(big.Int).Add(d.Max, one)
	} else {
		boundary = new(big.Int).Sub(d.Min, one)
	}

	return boundary.Sub(boundary, result)
}

func arithmeticPatches(op string, lhsDomain, rhsDomain, result IntDomain, lhs, rhs, delta *big.Int) []IntegerPatch {
	var out []IntegerPatch

	inRange := func(d IntDomain, operand, change *big.Int) bool {
		return d.Contains(new(big.Int).Add(operand, change))
	}

	switch op {
	case "+":
		if inRange(lhsDomain, lhs, delta) {
			out = append(out, IntegerPatch{Side: LeftOperand, Value: delta})
		}

		if inRange(rhsDomain, rhs, delta) {
			out = append(out, IntegerPatch{Side: RightOperand, Value: delta})
		}
	case "-":
		neg := new(big.Int).Neg(delta)

		if inRange(lhsDomain, lhs, delta) {
			out = append(out, IntegerPatch{Side: LeftOperand, Value: delta})
		}

		if inRange(rhsDomain, rhs, neg) {
			out = append(out, IntegerPatch{Side: RightOperand, Value: neg})
		}
	case "*":
		if p, ok := productPatch(lhsDomain, result, lhs, rhs, delta, LeftOperand); ok {
			out = append(out, p)
		}

		if p, ok := productPatch(rhsDomain, result, rhs, lhs, delta, RightOperand); ok {
			out = append(out, p)
		}
	}

	return out
}

// productPatch corrects operand so that operand*other leaves result:
// operand + floor(delta/other) + 1.
func productPatch(operandDomain, result IntDomain, operand, other, delta *big.Int, side OperandSide) (IntegerPatch, bool) {
	if other.Sign() == 0 {
		return IntegerPatch{}, false
	}

	change := floorDiv(delta, other)
	change.Add(change, big.NewInt(1))

	corrected := new(big.Int).Add(operand, change)
	if !operandDomain.Contains(corrected) || result.Contains(new(big.Int).Mul(corrected, other)) {
		return IntegerPatch{}, false
	}

	return IntegerPatch{Side: side, Value: change}, true
}

// shiftPastWidth makes the shift count one more than the largest defined one.
func shiftPastWidth(d IntDomain, rhs *big.Int) IntegerPatch {
	v := big.NewInt(d.MaxShift() + 1)

	return IntegerPatch{Side: RightOperand, Value: v.Sub(v, rhs)}
}

// shiftOutOfRange finds the smallest shift count for which lhs << count no
// longer fits, searching counts up to 64.
func shiftOutOfRange(d IntDomain, lhs, rhs *big.Int) IntegerPatch {
	lo, hi := int64(1), int64(64)
	for lo < hi-1 {
		mid := (lo + hi + 1) / 2
		if d.Contains(new(big.Int).Lsh(lhs, uint(mid))) {
			lo = mid
		} else {
			hi = mid
		}
	}

	v := big.NewInt(hi)

	return IntegerPatch{Side: RightOperand, Value: v.Sub(v, rhs)}
}

// DivisionByZeroLiteral cancels the observed divisor.
func DivisionByZeroLiteral(op string, rhs *big.Int) (string, error) {
	if op != "/" && op != "%" {
		return "", m.Reject(m.RejectUnsupportedOperator, "operator %q is not a division", op)
	}

	return fmt.Sprintf("-(%s)", rhs.String()), nil
}
