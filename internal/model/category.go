package model

import (
	"strconv"
	"strings"
)

// Category identifies the undefined behavior a mutant is meant to trigger.
type Category string

const (
	// BufferOverflow moves a memory access past the end (or before the start) of its object.
	BufferOverflow Category = "buffer-overflow"
	// DoubleFree frees a heap object a second time.
	DoubleFree Category = "double-free"
	// NullPointerDereference nulls a pointer before it is dereferenced.
	NullPointerDereference Category = "null-pointer-dereference"
	// UseAfterFree frees a heap object before a later use.
	UseAfterFree Category = "use-after-free"
	// UseAfterScope redirects a pointer to a variable whose block has ended.
	UseAfterScope Category = "use-after-scope"
	// DivisionByZero forces the divisor of a / or % to zero.
	DivisionByZero Category = "division-by-zero"
	// IntegerOverflow pushes a signed arithmetic result past its type's range.
	IntegerOverflow Category = "integer-overflow"
	// OutOfBound indexes an array outside its declared extent.
	OutOfBound Category = "out-of-bound"
	// UseOfUninit reads a variable that was never initialized.
	UseOfUninit Category = "use-of-uninit"
	// MemoryLeak drops the release of a heap object.
	MemoryLeak Category = "memory-leak"
)

// Categories lists every category in alias order: Categories[i] is selected by "i".
var Categories = []Category{
	BufferOverflow,
	DoubleFree,
	NullPointerDereference,
	UseAfterFree,
	UseAfterScope,
	DivisionByZero,
	IntegerOverflow,
	OutOfBound,
	UseOfUninit,
	MemoryLeak,
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves a category name or its numeric alias ("3" or "(3)").
func ParseCategory(raw string) (Category, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(s, ",") {
		return "", &ConfigError{Key: "ub", Reason: "exactly one target category is allowed, got " + strconv.Quote(raw)}
	}

	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < len(Categories) {
			return Categories[n], nil
		}

		return "", &ConfigError{Key: "ub", Reason: "unknown category alias " + strconv.Quote(raw)}
	}

	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}

	return "", &ConfigError{Key: "ub", Reason: "unknown category " + strconv.Quote(raw)}
}

// UsesHeapRewrite reports whether instrumentation must move stack objects to the heap.
func (c Category) UsesHeapRewrite() bool {
	switch c {
	case BufferOverflow, UseAfterFree, UseAfterScope, DoubleFree, MemoryLeak:
		return true
	default:
		return false
	}
}

// UsesIntegerRewrite reports whether integer operands need placeholder macros.
func (c Category) UsesIntegerRewrite() bool {
	return c == IntegerOverflow || c == DivisionByZero
}

// UsesIndexRewrite reports whether array subscripts need placeholder macros.
func (c Category) UsesIndexRewrite() bool {
	return c == BufferOverflow || c == OutOfBound
}

// InstrumentMode is the instrumenter mode that emits the records this category consumes.
func (c Category) InstrumentMode() string {
	switch c {
	case IntegerOverflow:
		return "int"
	case DivisionByZero:
		return "zero"
	case BufferOverflow, OutOfBound:
		return "mem"
	case UseOfUninit:
		return "init"
	default:
		return "ptr"
	}
}
