package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mouse-blink/ubsynth/internal/adapter"
	m "github.com/mouse-blink/ubsynth/internal/model"
)

// fullHeapProb makes stack-to-heap move every eligible object, which the free
// statements of double-free and memory-leak rely on.
const fullHeapProb = 100

// Instrumenter rewrites a seed copy in place, traces one execution of it and
// builds the program model.
type Instrumenter interface {
	Instrument(ctx context.Context, file m.Path) (*m.Program, error)
}

type instrumenter struct {
	target    m.Category
	toolchain adapter.Toolchain
	fsAdapter adapter.SourceFSAdapter
	heapProb  int
	log       *logrus.Entry
}

// NewInstrumenter constructs an Instrumenter for target.
func NewInstrumenter(target m.Category, toolchain adapter.Toolchain, fsAdapter adapter.SourceFSAdapter,
	heapProb int, log *logrus.Entry,
) Instrumenter {
	return &instrumenter{
		target:    target,
		toolchain: toolchain,
		fsAdapter: fsAdapter,
		heapProb:  heapProb,
		log:       log,
	}
}

// Instrument runs the rewriters the target needs, compiles and runs the
// result, then models the instrumented text against the recorded trace.
func (in *instrumenter) Instrument(ctx context.Context, file m.Path) (*m.Program, error) {
	log := in.log.WithField("file", file.Base())

	for _, step := range in.rewrites() {
		res, err := in.toolchain.Rewrite(ctx, step.tool, file, step.flags...)
		if err := toolError(res, err); err != nil {
			log.WithError(err).Warn("source rewrite failed")
			return nil, err
		}
	}

	binary := m.Path(strings.TrimSuffix(string(file), ".c") + ".out")

	res, err := in.toolchain.Compile(ctx, file, binary)
	if err := toolError(res, err); err != nil {
		log.WithError(err).Warn("compiling instrumented file failed")
		return nil, err
	}

	defer func() {
		_ = in.fsAdapter.RemoveAll(binary)
	}()

	res, err = in.toolchain.Run(ctx, binary)
	if err != nil {
		return nil, toolError(res, err)
	}

	trace, err := InterpretExecution(res)
	if err != nil {
		log.WithError(err).Warn("instrumented run failed")
		return nil, err
	}

	content, err := in.fsAdapter.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read instrumented file: %w", err)
	}

	src := string(content)
	prog := BuildProgram(src, Tokenize(src), trace)

	log.WithFields(logrus.Fields{
		"records":    len(prog.Records),
		"candidates": len(prog.Candidates()),
	}).Debug("program modeled")

	return prog, nil
}

type rewriteStep struct {
	tool  adapter.Tool
	flags []string
}

// rewrites lists the source rewriters for the target in the order they must run.
func (in *instrumenter) rewrites() []rewriteStep {
	steps := []rewriteStep{{tool: adapter.ToolAddBraces}}

	if in.target.UsesIntegerRewrite() {
		steps = append(steps, rewriteStep{tool: adapter.ToolAddInteger})
	}

	if in.target.UsesIndexRewrite() {
		steps = append(steps, rewriteStep{tool: adapter.ToolAddArrayIndex})
	}

	steps = append(steps, rewriteStep{
		tool:  adapter.ToolInstrumenter,
		flags: []string{"--mode=" + in.target.InstrumentMode()},
	})

	if in.target.UsesHeapRewrite() {
		prob := in.heapProb
		if in.target == m.DoubleFree || in.target == m.MemoryLeak {
			prob = fullHeapProb
		}

		steps = append(steps, rewriteStep{
			tool:  adapter.ToolStackToHeap,
			flags: []string{"--mutate-prob", fmt.Sprint(prob)},
		})
	}

	return steps
}

// toolError converts a process outcome into an error: cancellation passes
// through, everything else becomes a *model.ToolFailure.
func toolError(res m.ExecResult, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return &m.ToolFailure{Tool: res.Tool, Output: res.Output, Err: err}
	}

	if res.Failed() {
		return &m.ToolFailure{
			Tool:     res.Tool,
			Output:   res.Output,
			ExitCode: res.ExitCode,
			TimedOut: res.TimedOut,
		}
	}

	return nil
}
