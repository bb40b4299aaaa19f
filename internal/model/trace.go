package model

import (
	"math/big"
	"time"
)

// ExecResult is the captured outcome of one external process.
type ExecResult struct {
	Tool     string
	Output   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Failed reports whether the process did not exit cleanly.
func (r ExecResult) Failed() bool {
	return r.TimedOut || r.ExitCode != 0
}

// IntSample is the last observed operand pair of an integer operation.
type IntSample struct {
	LHS      *big.Int
	RHS      *big.Int
	Repeated bool
}

// PointerSample is the last observed value of a pointer expression.
// Value keeps the printed form, "(nil)" for null.
type PointerSample struct {
	Value    string
	Repeated bool
}

// RegionKind says which kind of object a memory access was resolved to.
type RegionKind int

// Region kinds.
const (
	RegionUnknown RegionKind = iota
	RegionGlobal
	RegionLocal
)

func (k RegionKind) String() string {
	switch k {
	case RegionGlobal:
		return "global"
	case RegionLocal:
		return "local"
	default:
		return "unknown"
	}
}

// MemoryAccess is a traced access together with the object that contains it.
// For unresolved accesses the region is the access itself.
type MemoryAccess struct {
	Addr       uint64
	Size       uint64
	RegionBase uint64
	RegionSize uint64
	Region     RegionKind
	Repeated   bool
}

// Trace is the interpreted output of one run of an instrumented program.
type Trace struct {
	// AliveSites lists insertion-site ids in execution order, repeats included.
	AliveSites []int
	Ints       map[int]IntSample
	Pointers   map[int]PointerSample
	Memory     map[int]MemoryAccess

	alive map[int]struct{}
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{
		Ints:     make(map[int]IntSample),
		Pointers: make(map[int]PointerSample),
		Memory:   make(map[int]MemoryAccess),
		alive:    make(map[int]struct{}),
	}
}

// MarkAlive records that insertion site id executed.
func (t *Trace) MarkAlive(id int) {
	t.AliveSites = append(t.AliveSites, id)
	t.alive[id] = struct{}{}
}

// IsAlive reports whether insertion site id executed at least once.
func (t *Trace) IsAlive(id int) bool {
	_, ok := t.alive[id]
	return ok
}

// FirstExecution returns the position of the first execution of site id in
// AliveSites, or -1.
func (t *Trace) FirstExecution(id int) int {
	for i, s := range t.AliveSites {
		if s == id {
			return i
		}
	}

	return -1
}
