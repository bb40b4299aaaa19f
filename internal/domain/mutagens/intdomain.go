package mutagens

import (
	"math/big"
	"strings"
)

// IntDomain is a fixed-width C integer type with its exact value range.
type IntDomain struct {
	Name   string // stdint spelling, e.g. "int32_t"
	Bits   uint
	Signed bool
	Min    *big.Int
	Max    *big.Int
}

func newIntDomain(name string, bits uint, signed bool) IntDomain {
	one := big.NewInt(1)
	d := IntDomain{Name: name, Bits: bits, Signed: signed}

	if signed {
		half := new(big.Int).Lsh(one, bits-1)
		d.Min = new(big.Int).Neg(half)
		d.Max = new(big.Int).Sub(half, one)
	} else {
		d.Min = new(big.Int)
		d.Max = new(big.Int).Sub(new(big.Int).Lsh(one, bits), one)
	}

	return d
}

var (
	int8Domain   = newIntDomain("int8_t", 8, true)
	uint8Domain  = newIntDomain("uint8_t", 8, false)
	int16Domain  = newIntDomain("int16_t", 16, true)
	uint16Domain = newIntDomain("uint16_t", 16, false)
	int32Domain  = newIntDomain("int32_t", 32, true)
	uint32Domain = newIntDomain("uint32_t", 32, false)
	int64Domain  = newIntDomain("int64_t", 64, true)
	uint64Domain = newIntDomain("uint64_t", 64, false)
)

var primitiveTypes = map[string]IntDomain{
	"char":                   int8Domain,
	"signed char":            int8Domain,
	"int8_t":                 int8Domain,
	"unsigned char":          uint8Domain,
	"uint8_t":                uint8Domain,
	"short":                  int16Domain,
	"short int":              int16Domain,
	"signed short":           int16Domain,
	"signed short int":       int16Domain,
	"int16_t":                int16Domain,
	"unsigned short":         uint16Domain,
	"unsigned short int":     uint16Domain,
	"uint16_t":               uint16Domain,
	"int":                    int32Domain,
	"signed":                 int32Domain,
	"signed int":             int32Domain,
	"int32_t":                int32Domain,
	"unsigned":               uint32Domain,
	"unsigned int":           uint32Domain,
	"uint32_t":               uint32Domain,
	"long":                   int64Domain,
	"long int":               int64Domain,
	"signed long":            int64Domain,
	"signed long int":        int64Domain,
	"long long":              int64Domain,
	"long long int":          int64Domain,
	"int64_t":                int64Domain,
	"unsigned long":          uint64Domain,
	"unsigned long int":      uint64Domain,
	"unsigned long long":     uint64Domain,
	"unsigned long long int": uint64Domain,
	"uint64_t":               uint64Domain,
}

// Primitive resolves a C integer type spelling to its fixed-width domain.
// Qualifiers are ignored.
func Primitive(ctype string) (IntDomain, bool) {
	fields := strings.Fields(ctype)
	kept := fields[:0]

	for _, f := range fields {
		if f != "volatile" && f != "const" {
			kept = append(kept, f)
		}
	}

	d, ok := primitiveTypes[strings.Join(kept, " ")]

	return d, ok
}

// Contains reports whether v is representable in the domain.
func (d IntDomain) Contains(v *big.Int) bool {
	return v.Cmp(d.Min) >= 0 && v.Cmp(d.Max) <= 0
}

// Promoted is the domain the operation is evaluated in: types narrower than
// int are promoted to int before arithmetic.
func (d IntDomain) Promoted() IntDomain {
	if d.Bits < int32Domain.Bits {
		return int32Domain
	}

	return d
}

// MaxShift is the largest shift count defined for operands promoted from
// this type.
func (d IntDomain) MaxShift() int64 {
	if d.Bits == 64 {
		return 63
	}

	return 31
}

// floorDiv is floor(a/b) for b != 0.
func floorDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && (r.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
	}

	return q
}

// evalBinary computes lhs op rhs with unbounded precision.
func evalBinary(op string, lhs, rhs *big.Int) (*big.Int, bool) {
	switch op {
	case "+":
		return new(big.Int).Add(lhs, rhs), true
	case "-":
		return new(big.Int).Sub(lhs, rhs), true
	case "*":
		return new(big.Int).Mul(lhs, rhs), true
	case "<<":
		if !rhs.IsInt64() || rhs.Sign() < 0 || rhs.Int64() > 128 {
			return nil, false
		}

		return new(big.Int).Lsh(lhs, uint(rhs.Int64())), true
	case ">>":
		if !rhs.IsInt64() || rhs.Sign() < 0 || rhs.Int64() > 128 {
			return nil, false
		}

		return new(big.Int).Rsh(lhs, uint(rhs.Int64())), true
	default:
		return nil, false
	}
}
