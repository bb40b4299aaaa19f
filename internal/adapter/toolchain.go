package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// Tool names an external program the synthesizer drives.
type Tool string

// Tools known to the toolchain.
const (
	ToolAddBraces     Tool = "add-braces"
	ToolAddInteger    Tool = "add-integer"
	ToolAddArrayIndex Tool = "add-array-index"
	ToolInstrumenter  Tool = "instrumenter"
	ToolStackToHeap   Tool = "stack-to-heap"
	ToolCompiler      Tool = "cc"
	ToolProgram       Tool = "program"
	ToolCsmith        Tool = "csmith"
)

// ToolPaths locates the external programs.
type ToolPaths struct {
	AddBraces     string
	AddInteger    string
	AddArrayIndex string
	Instrumenter  string
	StackToHeap   string
	Compiler      string
	Csmith        string
}

// ToolchainOptions configures a LocalToolchain.
type ToolchainOptions struct {
	Paths ToolPaths
	// CompileArgs are passed to every compilation and, after "--", to every
	// source rewriter.
	CompileArgs []string
	CsmithArgs  []string

	CompileTimeout  time.Duration
	RunTimeout      time.Duration
	GenerateTimeout time.Duration
}

// Toolchain runs source rewriters, the C compiler, compiled programs and the
// seed generator. A process that starts but fails is reported through the
// returned ExecResult; the error is reserved for processes that could not be
// started at all.
type Toolchain interface {
	// Rewrite rewrites file in place with one of the source-to-source tools.
	Rewrite(ctx context.Context, tool Tool, file m.Path, flags ...string) (m.ExecResult, error)
	// Compile builds src into the executable out.
	Compile(ctx context.Context, src, out m.Path, flags ...string) (m.ExecResult, error)
	// Run executes a compiled program with extra environment entries.
	Run(ctx context.Context, binary m.Path, env ...string) (m.ExecResult, error)
	// Generate writes a random C program to out.
	Generate(ctx context.Context, out m.Path) (m.ExecResult, error)
}

// LocalToolchain runs every tool as a local process.
type LocalToolchain struct {
	opts ToolchainOptions
}

// NewLocalToolchain constructs a LocalToolchain.
func NewLocalToolchain(opts ToolchainOptions) *LocalToolchain {
	return &LocalToolchain{opts: opts}
}

// Rewrite runs `<tool> <flags...> <file> -- -w <compile args...>`.
func (t *LocalToolchain) Rewrite(ctx context.Context, tool Tool, file m.Path, flags ...string) (m.ExecResult, error) {
	path, err := t.pathFor(tool)
	if err != nil {
		return m.ExecResult{Tool: string(tool)}, err
	}

	args := make([]string, 0, len(flags)+len(t.opts.CompileArgs)+3)
	args = append(args, flags...)
	args = append(args, string(file), "--", "-w")
	args = append(args, t.opts.CompileArgs...)

	return t.exec(ctx, tool, t.opts.CompileTimeout, "", nil, path, args...)
}

// Compile runs `cc -w <compile args...> <flags...> <src> -o <out>`.
func (t *LocalToolchain) Compile(ctx context.Context, src, out m.Path, flags ...string) (m.ExecResult, error) {
	args := make([]string, 0, len(flags)+len(t.opts.CompileArgs)+4)
	args = append(args, "-w")
	args = append(args, t.opts.CompileArgs...)
	args = append(args, flags...)
	args = append(args, string(src), "-o", string(out))

	return t.exec(ctx, ToolCompiler, t.opts.CompileTimeout, "", nil, t.opts.Paths.Compiler, args...)
}

// Run executes binary in its own directory.
func (t *LocalToolchain) Run(ctx context.Context, binary m.Path, env ...string) (m.ExecResult, error) {
	abs, err := filepath.Abs(string(binary))
	if err != nil {
		return m.ExecResult{Tool: string(ToolProgram)}, err
	}

	return t.exec(ctx, ToolProgram, t.opts.RunTimeout, filepath.Dir(abs), env, abs)
}

// Generate runs `csmith <csmith args...> --output <out>`.
func (t *LocalToolchain) Generate(ctx context.Context, out m.Path) (m.ExecResult, error) {
	args := make([]string, 0, len(t.opts.CsmithArgs)+2)
	args = append(args, t.opts.CsmithArgs...)
	args = append(args, "--output", string(out))

	return t.exec(ctx, ToolCsmith, t.opts.GenerateTimeout, "", nil, t.opts.Paths.Csmith, args...)
}

func (t *LocalToolchain) pathFor(tool Tool) (string, error) {
	var path string

	switch tool {
	case ToolAddBraces:
		path = t.opts.Paths.AddBraces
	case ToolAddInteger:
		path = t.opts.Paths.AddInteger
	case ToolAddArrayIndex:
		path = t.opts.Paths.AddArrayIndex
	case ToolInstrumenter:
		path = t.opts.Paths.Instrumenter
	case ToolStackToHeap:
		path = t.opts.Paths.StackToHeap
	default:
		return "", fmt.Errorf("%s is not a source rewriter", tool)
	}

	if path == "" {
		return "", fmt.Errorf("no path configured for %s", tool)
	}

	return path, nil
}

func (t *LocalToolchain) exec(ctx context.Context, tool Tool, timeout time.Duration, dir string, env []string,
	name string, args ...string,
) (m.ExecResult, error) {
	res := m.ExecResult{Tool: string(tool)}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	cmd.WaitDelay = time.Second

	killProcessGroup(cmd)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Output = out.String()

	if errors.Is(ctx.Err(), context.Canceled) {
		return res, ctx.Err()
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1

		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()

		return res, nil
	}

	if err != nil {
		return res, fmt.Errorf("start %s: %w", tool, err)
	}

	return res, nil
}
