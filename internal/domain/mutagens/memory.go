package mutagens

import (
	"fmt"
	"math/rand/v2"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// MaxAccessSize is the widest access that still lands inside a sanitizer
// redzone once moved past its object.
const MaxAccessSize = 32

const (
	maxPositiveOffset = 1<<31 - 1
	maxNegativeOffset = 1 << 31
)

// Steps returns how many elements of the access width move the access just
// past the end of its region (over) and just before its start (under).
func Steps(acc m.MemoryAccess) (over, under uint64) {
	offset := acc.Addr - acc.RegionBase
	over = ceilDiv(acc.RegionSize-offset, acc.Size)
	under = ceilDiv(offset, acc.Size) + 1

	return over, under
}

// BufferOverflowOffset returns the index adjustment that moves a resolved
// access one object-width out of its region. Only locals may underflow: the
// bytes before a global belong to another global.
func BufferOverflowOffset(acc m.MemoryAccess, rng *rand.Rand) (string, error) {
	switch {
	case acc.Repeated:
		return "", m.Reject(m.RejectUnstableTrace, "access address varies across executions")
	case acc.Size > MaxAccessSize:
		return "", m.Reject(m.RejectAccessTooWide, "access of %d bytes", acc.Size)
	case acc.Region == m.RegionUnknown:
		return "", m.Reject(m.RejectUnresolvedRegion, "no object contains 0x%x", acc.Addr)
	}

	over, under := Steps(acc)
	options := []string{fmt.Sprintf("+%d", over)}

	if acc.Region == m.RegionLocal {
		options = append(options, fmt.Sprintf("-%d", under))
	}

	return pick(rng, options), nil
}

// OutOfBoundOffset returns an index adjustment that leaves the array, either
// by the minimal step or by an arbitrary larger distance.
func OutOfBoundOffset(acc m.MemoryAccess, rng *rand.Rand) string {
	over, under := Steps(acc)

	options := []string{
		fmt.Sprintf("+%d", over),
		fmt.Sprintf("-%d", under),
		fmt.Sprintf("+%d", randBetween(rng, over, maxPositiveOffset)),
		fmt.Sprintf("-%d", randBetween(rng, under, maxNegativeOffset)),
	}

	return pick(rng, options)
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}

	return (a + b - 1) / b
}

// randBetween draws from [lo, hi]; lo wins when the range is empty.
func randBetween(rng *rand.Rand, lo, hi uint64) uint64 {
	if lo >= hi {
		return lo
	}

	return lo + rng.Uint64N(hi-lo+1)
}
