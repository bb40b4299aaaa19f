package domain

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// traceTagRe matches one trace event anywhere in a line of program output.
var traceTagRe = regexp.MustCompile(`\b(INST|INT|PTR|GLOBAL|LOCAL|MEM):(\S+)`)

type traceEvent struct {
	tag    string
	fields []string
}

type region struct {
	base uint64
	size uint64
}

// InterpretExecution turns the captured run of an instrumented program into
// a Trace. A run that timed out or exited non-zero is a tool failure: its
// output cannot be trusted as a trace.
func InterpretExecution(res m.ExecResult) (*m.Trace, error) {
	if res.Failed() {
		return nil, &m.ToolFailure{
			Tool:     res.Tool,
			Output:   res.Output,
			ExitCode: res.ExitCode,
			TimedOut: res.TimedOut,
		}
	}

	return ParseTrace(res.Output), nil
}

// ParseTrace interprets the tagged lines printed by an instrumented program.
// Malformed events are ignored.
func ParseTrace(output string) *m.Trace {
	events := scanTraceEvents(output)
	trace := m.NewTrace()

	var globals []region

	for _, ev := range events {
		if ev.tag != "GLOBAL" {
			continue
		}

		if r, ok := parseRegion(ev.fields); ok {
			globals = append(globals, r)
		}
	}

	var locals []region

	for _, ev := range events {
		switch ev.tag {
		case "INST":
			if id, err := strconv.Atoi(ev.fields[0]); err == nil {
				trace.MarkAlive(id)
			}
		case "INT":
			recordIntSample(trace, ev.fields)
		case "PTR":
			recordPointerSample(trace, ev.fields)
		case "LOCAL":
			if r, ok := parseRegion(ev.fields); ok {
				locals = append(locals, r)
			}
		case "MEM":
			recordMemorySample(trace, ev.fields, globals, locals)
		}
	}

	return trace
}

func scanTraceEvents(output string) []traceEvent {
	var events []traceEvent

	for line := range strings.SplitSeq(output, "\n") {
		for _, match := range traceTagRe.FindAllStringSubmatch(line, -1) {
			events = append(events, traceEvent{tag: match[1], fields: strings.Split(match[2], ":")})
		}
	}

	return events
}

func recordIntSample(trace *m.Trace, fields []string) {
	if len(fields) < 3 {
		return
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}

	lhs, ok := new(big.Int).SetString(fields[1], 10)
	if !ok {
		return
	}

	rhs, ok := new(big.Int).SetString(fields[2], 10)
	if !ok {
		return
	}

	sample := m.IntSample{LHS: lhs, RHS: rhs}
	if prev, seen := trace.Ints[id]; seen {
		sample.Repeated = prev.Repeated || prev.LHS.Cmp(lhs) != 0 || prev.RHS.Cmp(rhs) != 0
	}

	trace.Ints[id] = sample
}

func recordPointerSample(trace *m.Trace, fields []string) {
	if len(fields) < 2 {
		return
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}

	sample := m.PointerSample{Value: fields[1]}
	if prev, seen := trace.Pointers[id]; seen {
		sample.Repeated = prev.Repeated || prev.Value != fields[1]
	}

	trace.Pointers[id] = sample
}

func recordMemorySample(trace *m.Trace, fields []string, globals, locals []region) {
	if len(fields) < 3 {
		return
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}

	addr, ok := parseAddress(fields[1])
	if !ok {
		return
	}

	size, ok := parseAccessSize(addr, fields[2])
	if !ok {
		return
	}

	access := m.MemoryAccess{Addr: addr, Size: size, RegionBase: addr, RegionSize: size}

	if r, found := findRegion(globals, addr, size, false); found {
		access.Region, access.RegionBase, access.RegionSize = m.RegionGlobal, r.base, r.size
	} else if r, found := findRegion(locals, addr, size, true); found {
		access.Region, access.RegionBase, access.RegionSize = m.RegionLocal, r.base, r.size
	}

	if prev, seen := trace.Memory[id]; seen {
		access.Repeated = prev.Repeated || prev.Addr != addr
	}

	trace.Memory[id] = access
}

// findRegion returns the region that fully contains [addr, addr+size).
func findRegion(regions []region, addr, size uint64, newestFirst bool) (region, bool) {
	for i := range regions {
		r := regions[i]
		if newestFirst {
			r = regions[len(regions)-1-i]
		}

		if r.base <= addr && addr+size <= r.base+r.size {
			return r, true
		}
	}

	return region{}, false
}

func parseRegion(fields []string) (region, bool) {
	if len(fields) < 3 {
		return region{}, false
	}

	base, ok := parseAddress(fields[1])
	if !ok {
		return region{}, false
	}

	size, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return region{}, false
	}

	return region{base: base, size: size}, true
}

// parseAccessSize accepts either the one-past-end address of the access or
// its width in bytes.
func parseAccessSize(addr uint64, field string) (uint64, bool) {
	if strings.HasPrefix(field, "0x") || strings.HasPrefix(field, "0X") {
		end, ok := parseAddress(field)
		if !ok || end <= addr {
			return 0, false
		}

		return end - addr, true
	}

	size, err := strconv.ParseUint(field, 10, 64)
	if err != nil || size == 0 {
		return 0, false
	}

	return size, true
}

func parseAddress(s string) (uint64, bool) {
	if s == "(nil)" {
		return 0, true
	}

	hex, found := strings.CutPrefix(strings.ToLower(s), "0x")
	if !found {
		return 0, false
	}

	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
