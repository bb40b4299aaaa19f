package mutagens

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

func requireReason(t *testing.T, err error, reason m.RejectReason) {
	t.Helper()

	var rej *m.Rejection
	require.True(t, errors.As(err, &rej), "expected rejection, got %v", err)
	assert.Equal(t, reason, rej.Reason)
}

// patched recomputes the operation with the patch applied.
func patched(t *testing.T, op string, lhs, rhs int64, p IntegerPatch) *big.Int {
	t.Helper()

	l, r := big.NewInt(lhs), big.NewInt(rhs)
	if p.Side == LeftOperand {
		l.Add(l, p.Value)
	} else {
		r.Add(r, p.Value)
	}

	out, ok := evalBinary(op, l, r)
	require.True(t, ok)

	return out
}

func TestPrimitive(t *testing.T) {
	d, ok := Primitive("volatile unsigned int")
	require.True(t, ok)
	assert.Equal(t, "uint32_t", d.Name)

	d, ok = Primitive("const long")
	require.True(t, ok)
	assert.Equal(t, "int64_t", d.Name)

	d, ok = Primitive("unsigned short")
	require.True(t, ok)
	assert.Equal(t, "65535", d.Max.String())

	_, ok = Primitive("float")
	assert.False(t, ok)
}

func TestIntDomain(t *testing.T) {
	assert.True(t, int8Domain.Contains(big.NewInt(-128)))
	assert.False(t, int8Domain.Contains(big.NewInt(128)))
	assert.Equal(t, "18446744073709551615", uint64Domain.Max.String())
	assert.Equal(t, int64(31), int16Domain.MaxShift())
	assert.Equal(t, int64(63), uint64Domain.MaxShift())
	assert.Equal(t, "int32_t", int8Domain.Promoted().Name)
	assert.Equal(t, "int32_t", uint16Domain.Promoted().Name)
	assert.Equal(t, "uint32_t", uint32Domain.Promoted().Name)
	assert.Equal(t, "int64_t", int64Domain.Promoted().Name)
}

func TestOverflowPatch(t *testing.T) {
	arithmetic := []struct {
		name     string
		op       string
		lhs, rhs int64
	}{
		{"addition", "+", 2147483640, 5},
		{"subtraction", "-", -2147483640, 5},
		{"multiplication", "*", 65536, 2},
		{"negative product", "*", -65536, 3},
	}

	for _, tt := range arithmetic {
		t.Run(tt.name+" leaves the type range", func(t *testing.T) {
			p, err := OverflowPatch(tt.op, "int", "int", big.NewInt(tt.lhs), big.NewInt(tt.rhs), testRand())
			require.NoError(t, err)

			assert.Equal(t, "int32_t", p.Type.Name)
			assert.False(t, int32Domain.Contains(patched(t, tt.op, tt.lhs, tt.rhs, p)))

			operand := tt.lhs
			if p.Side == RightOperand {
				operand = tt.rhs
			}

			assert.True(t, int32Domain.Contains(new(big.Int).Add(big.NewInt(operand), p.Value)))
		})
	}

	t.Run("addition lands exactly one past the maximum", func(t *testing.T) {
		p, err := OverflowPatch("+", "int", "int", big.NewInt(2147483640), big.NewInt(5), testRand())
		require.NoError(t, err)

		assert.Equal(t, "+(3)", p.Literal())
	})

	t.Run("right shift by the type width", func(t *testing.T) {
		p, err := OverflowPatch(">>", "int", "int", big.NewInt(100), big.NewInt(3), testRand())
		require.NoError(t, err)

		assert.Equal(t, RightOperand, p.Side)
		assert.Equal(t, "+(29)", p.Literal())
	})

	t.Run("signed left shift past the top bit", func(t *testing.T) {
		p, err := OverflowPatch("<<", "int", "int", big.NewInt(1), big.NewInt(2), testRand())
		require.NoError(t, err)

		assert.Equal(t, RightOperand, p.Side)
		assert.Equal(t, "+(29)", p.Literal())
	})

	t.Run("unsigned left shift by the type width", func(t *testing.T) {
		p, err := OverflowPatch("<<", "unsigned long", "unsigned long", big.NewInt(1), big.NewInt(4), testRand())
		require.NoError(t, err)

		assert.Equal(t, "+(60)", p.Literal())
		assert.Equal(t, "uint64_t", p.Type.Name)
	})

	t.Run("narrow left shift leaves int after promotion", func(t *testing.T) {
		p, err := OverflowPatch("<<", "int8_t", "int8_t", big.NewInt(1), big.NewInt(0), testRand())
		require.NoError(t, err)

		assert.Equal(t, "+(31)", p.Literal())
		assert.Equal(t, "int8_t", p.Type.Name)
		assert.False(t, int32Domain.Contains(patched(t, "<<", 1, 0, p)))
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name     string
			op       string
			lt, rt   string
			lhs, rhs int64
			reason   m.RejectReason
		}{
			{"different types", "+", "int", "long", 1, 1, m.RejectTypeMismatch},
			{"unknown type", "+", "float", "float", 1, 1, m.RejectTypeMismatch},
			{"unsigned wrap", "+", "unsigned int", "unsigned int", 1, 1, m.RejectUnsignedWrap},
			{"division", "/", "int", "int", 1, 1, m.RejectUnsupportedOperator},
			{"zero product", "*", "int", "int", 0, 0, m.RejectNoBoundary},
			{"negative shift", "<<", "int", "int", 1, -1, m.RejectNoBoundary},
			{"int8_t sum is promoted to int", "+", "int8_t", "int8_t", 100, 20, m.RejectNoBoundary},
			{"short product is promoted to int", "*", "short", "short", 200, 100, m.RejectNoBoundary},
			{"unsigned char difference is promoted to int", "-", "unsigned char", "unsigned char", 0, 255, m.RejectNoBoundary},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := OverflowPatch(tt.op, tt.lt, tt.rt, big.NewInt(tt.lhs), big.NewInt(tt.rhs), testRand())
				requireReason(t, err, tt.reason)
			})
		}
	})
}

func TestDivisionByZeroLiteral(t *testing.T) {
	lit, err := DivisionByZeroLiteral("/", big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, "-(7)", lit)

	lit, err = DivisionByZeroLiteral("%", big.NewInt(-3))
	require.NoError(t, err)
	assert.Equal(t, "-(-3)", lit)

	_, err = DivisionByZeroLiteral("+", big.NewInt(1))
	requireReason(t, err, m.RejectUnsupportedOperator)
}
