package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mouse-blink/ubsynth/internal/adapter"
	adaptermocks "github.com/mouse-blink/ubsynth/internal/adapter/mocks"
	controllermocks "github.com/mouse-blink/ubsynth/internal/controller/mocks"
	m "github.com/mouse-blink/ubsynth/internal/model"
)

const divisionTrace = "INST:2\nINT:3:1:2\nINT:4:4:2\nINT:5:1:1\n"

// fakeInstrumenter models the copied seed against a canned trace instead of
// running the rewriters.
type fakeInstrumenter struct {
	mu    sync.Mutex
	trace string
	fail  map[string]error
	files []m.Path
}

func (f *fakeInstrumenter) Instrument(_ context.Context, file m.Path) (*m.Program, error) {
	f.mu.Lock()
	f.files = append(f.files, file)
	f.mu.Unlock()

	for name, err := range f.fail {
		if strings.HasSuffix(string(file), name) {
			return nil, err
		}
	}

	content, err := os.ReadFile(string(file))
	if err != nil {
		return nil, err
	}

	src := string(content)

	return BuildProgram(src, Tokenize(src), ParseTrace(f.trace)), nil
}

func (f *fakeInstrumenter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.files)
}

type fakeVerifier struct {
	verdict m.Verdict
	output  string
	err     error
}

func (f fakeVerifier) Verify(context.Context, m.Path, m.Mutant) (Verification, error) {
	return Verification{Verdict: f.verdict, Sanitizer: "undefined", Output: f.output}, f.err
}

// permissiveUI accepts every display call of a run or an estimate.
func permissiveUI(t *testing.T) *controllermocks.MockUI {
	t.Helper()

	ui := controllermocks.NewMockUI(t)
	ui.EXPECT().Start(mock.Anything).Return(nil).Maybe()
	ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	ui.EXPECT().DisplayUpcomingSeeds(mock.Anything).Return().Maybe()
	ui.EXPECT().DisplayStartingSeed(mock.Anything, mock.Anything).Return().Maybe()
	ui.EXPECT().DisplayCompletedSeed(mock.Anything).Return().Maybe()
	ui.EXPECT().Close().Return().Maybe()
	ui.EXPECT().Wait().Return().Maybe()

	return ui
}

type workflowFixture struct {
	wf           *workflow
	instrumenter *fakeInstrumenter
	store        adapter.ReportStore
}

func newWorkflowFixture(t *testing.T, opts WorkflowOptions, tc adapter.Toolchain, ui *controllermocks.MockUI) workflowFixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := adapter.NewLocalReportStore()
	wf := NewWorkflow(opts, adapter.NewLocalSourceFSAdapter(), tc, store, ui, log).(*workflow)

	inst := &fakeInstrumenter{trace: divisionTrace}
	wf.instrumenter = inst
	wf.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	return workflowFixture{wf: wf, instrumenter: inst, store: store}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func divisionOptions() WorkflowOptions {
	return WorkflowOptions{Category: m.DivisionByZero, RNGSeed: 7}
}

func TestWorkflow_Run(t *testing.T) {
	t.Run("writes mutants and manifests", func(t *testing.T) {
		// Arrange
		seeds := t.TempDir()
		out := filepath.Join(t.TempDir(), "out")
		seed := writeSeed(t, seeds, "seed.c", integerSource)

		fx := newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), permissiveUI(t))

		// Act
		err := fx.wf.Run(context.Background(), RunArgs{
			EstimateArgs: EstimateArgs{Paths: []m.Path{m.Path(seeds)}, Threads: 2},
			Out:          m.Path(out),
		})

		// Assert
		require.NoError(t, err)
		require.Len(t, fx.instrumenter.files, 1)
		assert.Equal(t, "instrument_seed.c", fx.instrumenter.files[0].Base())

		content, err := os.ReadFile(filepath.Join(out, "mutated_0_seed.c"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "d = (a _INTOPL2) / (b -(2)/*UBFUZZ*/);")

		reports, err := fx.store.LoadReports(m.Path(filepath.Join(out, ReportsDirName)))
		require.NoError(t, err)
		require.Len(t, reports, 1)

		r := reports[0]
		assert.Equal(t, seed, r.Seed)
		assert.Equal(t, sha256Hex(integerSource), r.SeedHash)
		assert.Equal(t, m.DivisionByZero, r.Category)
		assert.Equal(t, 4, r.CandidateID)
		assert.Equal(t, m.Unverified, r.Verdict)
		assert.Equal(t, m.Path(filepath.Join(out, "mutated_0_seed.c")), r.Output)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), r.CreatedAt)

		if _, err := os.Stat(filepath.Join(out, ReportsDirName, adapter.IndexFile)); err != nil {
			t.Fatalf("index not written: %v", err)
		}
	})

	t.Run("same seed and run seed give the same mutant", func(t *testing.T) {
		seeds := t.TempDir()
		writeSeed(t, seeds, "seed.c", integerSource)

		var contents []string

		for range 2 {
			out := t.TempDir()
			fx := newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), permissiveUI(t))

			require.NoError(t, fx.wf.Run(context.Background(), RunArgs{
				EstimateArgs: EstimateArgs{Paths: []m.Path{m.Path(seeds)}},
				Out:          m.Path(out),
			}))

			content, err := os.ReadFile(filepath.Join(out, "mutated_0_seed.c"))
			require.NoError(t, err)

			contents = append(contents, string(content))
		}

		assert.Equal(t, contents[0], contents[1])
	})

	t.Run("verification drops unconfirmed mutants", func(t *testing.T) {
		seeds := t.TempDir()
		out := t.TempDir()
		writeSeed(t, seeds, "seed.c", integerSource)

		opts := divisionOptions()
		opts.Verify = true

		fx := newWorkflowFixture(t, opts, adaptermocks.NewMockToolchain(t), permissiveUI(t))
		fx.wf.verifier = fakeVerifier{verdict: m.Unconfirmed}

		require.NoError(t, fx.wf.Run(context.Background(), RunArgs{
			EstimateArgs: EstimateArgs{Paths: []m.Path{m.Path(seeds)}},
			Out:          m.Path(out),
		}))

		_, err := os.Stat(filepath.Join(out, "mutated_0_seed.c"))
		assert.True(t, os.IsNotExist(err))

		reports, err := fx.store.LoadReports(m.Path(filepath.Join(out, ReportsDirName)))
		require.NoError(t, err)
		assert.Empty(t, reports)
	})

	t.Run("verification records the sanitizer verdict", func(t *testing.T) {
		seeds := t.TempDir()
		out := t.TempDir()
		reportsDir := filepath.Join(t.TempDir(), "reports")
		writeSeed(t, seeds, "seed.c", integerSource)

		opts := divisionOptions()
		opts.Verify = true

		fx := newWorkflowFixture(t, opts, adaptermocks.NewMockToolchain(t), permissiveUI(t))
		fx.wf.verifier = fakeVerifier{verdict: m.Confirmed, output: "runtime error: division by zero"}

		require.NoError(t, fx.wf.Run(context.Background(), RunArgs{
			EstimateArgs: EstimateArgs{Paths: []m.Path{m.Path(seeds)}},
			Out:          m.Path(out),
			Reports:      m.Path(reportsDir),
		}))

		reports, err := fx.store.LoadReports(m.Path(reportsDir))
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, m.Confirmed, reports[0].Verdict)
		assert.Equal(t, "runtime error: division by zero", reports[0].Sanitizer)
	})

	t.Run("failing seed does not stop the run", func(t *testing.T) {
		seeds := t.TempDir()
		out := t.TempDir()
		writeSeed(t, seeds, "broken.c", integerSource)
		writeSeed(t, seeds, "seed.c", integerSource)

		boom := &m.ToolFailure{Tool: "instrumenter", ExitCode: 1}

		var (
			mu      sync.Mutex
			results []m.FileResult
		)

		ui := controllermocks.NewMockUI(t)
		ui.EXPECT().Start(mock.Anything).Return(nil).Once()
		ui.EXPECT().DisplayConcurrencyInfo(1, 0, 1).Return().Once()
		ui.EXPECT().DisplayUpcomingSeeds(2).Return().Once()
		ui.EXPECT().DisplayStartingSeed(mock.Anything, 0).Return().Twice()
		ui.EXPECT().DisplayCompletedSeed(mock.Anything).Run(func(res m.FileResult) {
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}).Return().Twice()
		ui.EXPECT().Close().Return().Once()
		ui.EXPECT().Wait().Return().Once()

		fx := newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), ui)
		fx.instrumenter.fail = map[string]error{"instrument_broken.c": boom}

		err := fx.wf.Run(context.Background(), RunArgs{
			EstimateArgs: EstimateArgs{Paths: []m.Path{m.Path(seeds)}},
			Out:          m.Path(out),
		})

		require.NoError(t, err)
		require.Len(t, results, 2)

		for _, res := range results {
			if res.Seed.Base() == "broken.c" {
				assert.ErrorIs(t, res.Err, boom)
				assert.Empty(t, res.Mutants)
			} else {
				assert.NoError(t, res.Err)
				assert.Len(t, res.Mutants, 1)
			}
		}
	})

	t.Run("incremental run skips unchanged seeds", func(t *testing.T) {
		seeds := t.TempDir()
		out := t.TempDir()
		writeSeed(t, seeds, "seed.c", integerSource)

		fx := newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), permissiveUI(t))
		args := RunArgs{
			EstimateArgs: EstimateArgs{Paths: []m.Path{m.Path(seeds)}},
			Out:          m.Path(out),
			Incremental:  true,
		}

		require.NoError(t, fx.wf.Run(context.Background(), args))
		require.NoError(t, fx.wf.Run(context.Background(), args))
		assert.Equal(t, 1, fx.instrumenter.calls())

		writeSeed(t, seeds, "seed.c", integerSource+"\n")

		require.NoError(t, fx.wf.Run(context.Background(), args))
		assert.Equal(t, 2, fx.instrumenter.calls())
	})

	t.Run("requires a category and an output directory", func(t *testing.T) {
		fx := newWorkflowFixture(t, WorkflowOptions{}, adaptermocks.NewMockToolchain(t), controllermocks.NewMockUI(t))

		var cfgErr *m.ConfigError
		require.ErrorAs(t, fx.wf.Run(context.Background(), RunArgs{Out: "out"}), &cfgErr)
		assert.Equal(t, "ub", cfgErr.Key)

		fx = newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), controllermocks.NewMockUI(t))
		assert.EqualError(t, fx.wf.Run(context.Background(), RunArgs{}), "output directory is required")
	})
}

func TestWorkflow_RunGenerated(t *testing.T) {
	t.Run("keeps the first generated seed that yields mutants", func(t *testing.T) {
		out := t.TempDir()

		tc := adaptermocks.NewMockToolchain(t)
		tc.EXPECT().Generate(mock.Anything, mock.Anything).
			RunAndReturn(func(_ context.Context, path m.Path) (m.ExecResult, error) {
				if err := os.WriteFile(string(path), []byte(integerSource), 0o600); err != nil {
					t.Fatalf("write generated seed: %v", err)
				}

				return m.ExecResult{Tool: "csmith"}, nil
			}).Once()
		tc.EXPECT().Compile(mock.Anything, mock.Anything, mock.Anything, "-O0").Return(m.ExecResult{}, nil).Once()
		tc.EXPECT().Run(mock.Anything, mock.Anything).Return(m.ExecResult{}, nil).Once()

		opts := divisionOptions()
		opts.Generate = GenerateOptions{MinProgramSize: 10, MaxAttempts: 3, CheckArgs: []string{"-O0"}}

		fx := newWorkflowFixture(t, opts, tc, permissiveUI(t))

		require.NoError(t, fx.wf.Run(context.Background(), RunArgs{Out: m.Path(out)}))

		seeds, err := filepath.Glob(filepath.Join(out, "seed_*_0.c"))
		require.NoError(t, err)
		require.Len(t, seeds, 1)

		mutants, err := filepath.Glob(filepath.Join(out, "mutated_0_seed_*_0.c"))
		require.NoError(t, err)
		assert.Len(t, mutants, 1)

		reports, err := fx.store.LoadReports(m.Path(filepath.Join(out, ReportsDirName)))
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, m.Path(seeds[0]), reports[0].Seed)
	})

	t.Run("generated seed without mutants is removed", func(t *testing.T) {
		out := t.TempDir()

		tc := adaptermocks.NewMockToolchain(t)
		tc.EXPECT().Generate(mock.Anything, mock.Anything).
			RunAndReturn(func(_ context.Context, path m.Path) (m.ExecResult, error) {
				return m.ExecResult{}, os.WriteFile(string(path), []byte(integerSource), 0o600)
			}).Twice()
		tc.EXPECT().Compile(mock.Anything, mock.Anything, mock.Anything).Return(m.ExecResult{}, nil).Twice()
		tc.EXPECT().Run(mock.Anything, mock.Anything).Return(m.ExecResult{}, nil).Twice()

		opts := divisionOptions()
		opts.Generate = GenerateOptions{MaxAttempts: 2}

		fx := newWorkflowFixture(t, opts, tc, permissiveUI(t))
		fx.instrumenter.trace = "INST:2\n"

		require.NoError(t, fx.wf.Run(context.Background(), RunArgs{Out: m.Path(out)}))

		seeds, err := filepath.Glob(filepath.Join(out, "seed_*.c"))
		require.NoError(t, err)
		assert.Empty(t, seeds)
		assert.Equal(t, 2, fx.instrumenter.calls())
	})

	t.Run("csmith never produces a usable program", func(t *testing.T) {
		tc := adaptermocks.NewMockToolchain(t)
		tc.EXPECT().Generate(mock.Anything, mock.Anything).
			Return(m.ExecResult{Tool: "csmith", ExitCode: 1}, nil).Times(2)

		opts := divisionOptions()
		opts.Generate = GenerateOptions{MaxAttempts: 2}

		fx := newWorkflowFixture(t, opts, tc, permissiveUI(t))

		err := fx.wf.Run(context.Background(), RunArgs{Out: m.Path(t.TempDir())})

		assert.EqualError(t, err, "no usable csmith program after 2 attempts")
	})
}

func TestWorkflow_Estimate(t *testing.T) {
	t.Run("displays the census of every seed", func(t *testing.T) {
		seeds := t.TempDir()
		writeSeed(t, seeds, "a.c", integerSource)
		writeSeed(t, seeds, "b.c", integerSource)
		writeSeed(t, seeds, "notes.txt", "not a seed")

		var got []m.Estimate

		ui := controllermocks.NewMockUI(t)
		ui.EXPECT().Start(mock.Anything).Return(nil).Once()
		ui.EXPECT().DisplayEstimation(mock.Anything, nil).
			RunAndReturn(func(estimates []m.Estimate, _ error) error {
				got = estimates
				return nil
			}).Once()
		ui.EXPECT().Close().Return().Once()
		ui.EXPECT().Wait().Return().Once()

		fx := newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), ui)

		err := fx.wf.Estimate(context.Background(), EstimateArgs{Paths: []m.Path{m.Path(seeds)}, Threads: 2})

		require.NoError(t, err)
		require.Len(t, got, 2)

		for _, est := range got {
			assert.NoError(t, est.Err)
			assert.Equal(t, 3, est.Candidates)
			assert.Positive(t, est.Eligible)
		}
	})

	t.Run("instrumentation failure is reported per seed", func(t *testing.T) {
		seeds := t.TempDir()
		writeSeed(t, seeds, "a.c", integerSource)

		ui := controllermocks.NewMockUI(t)
		ui.EXPECT().Start(mock.Anything).Return(nil)
		ui.EXPECT().DisplayEstimation(mock.MatchedBy(func(estimates []m.Estimate) bool {
			return len(estimates) == 1 && estimates[0].Err != nil
		}), nil).Return(nil).Once()
		ui.EXPECT().Close().Return()
		ui.EXPECT().Wait().Return()

		fx := newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), ui)
		fx.instrumenter.fail = map[string]error{"instrument_a.c": errors.New("instrumenter crashed")}

		require.NoError(t, fx.wf.Estimate(context.Background(), EstimateArgs{Paths: []m.Path{m.Path(seeds)}}))
	})

	t.Run("no seeds given", func(t *testing.T) {
		fx := newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), controllermocks.NewMockUI(t))

		assert.EqualError(t, fx.wf.Estimate(context.Background(), EstimateArgs{}), "no seed programs given")
	})

	t.Run("invalid exclude pattern", func(t *testing.T) {
		seeds := t.TempDir()
		writeSeed(t, seeds, "a.c", integerSource)

		fx := newWorkflowFixture(t, divisionOptions(), adaptermocks.NewMockToolchain(t), controllermocks.NewMockUI(t))

		err := fx.wf.Estimate(context.Background(), EstimateArgs{Paths: []m.Path{m.Path(seeds)}, Exclude: []string{"("}})

		assert.ErrorContains(t, err, "invalid exclude pattern")
	})
}

func TestWorkflow_View(t *testing.T) {
	t.Run("displays stored reports", func(t *testing.T) {
		reports := []m.Report{{MutantID: testMutantID, Category: m.DivisionByZero}}

		store := adaptermocks.NewMockReportStore(t)
		store.EXPECT().LoadReports(m.Path("reports")).Return(reports, nil).Once()

		ui := controllermocks.NewMockUI(t)
		ui.EXPECT().Start(mock.Anything).Return(nil).Once()
		ui.EXPECT().DisplayReports(reports, nil).Return(nil).Once()
		ui.EXPECT().Close().Return().Once()
		ui.EXPECT().Wait().Return().Once()

		wf := NewWorkflow(divisionOptions(), adapter.NewLocalSourceFSAdapter(), adaptermocks.NewMockToolchain(t), store, ui, testLogger().Logger)

		assert.NoError(t, wf.View(ViewArgs{Reports: "reports"}))
	})

	t.Run("load failure is shown and returned", func(t *testing.T) {
		boom := errors.New("permission denied")

		store := adaptermocks.NewMockReportStore(t)
		store.EXPECT().LoadReports(mock.Anything).Return(nil, boom).Once()

		ui := controllermocks.NewMockUI(t)
		ui.EXPECT().Start(mock.Anything).Return(nil).Once()
		ui.EXPECT().DisplayReports(mock.Anything, boom).Return(nil).Once()
		ui.EXPECT().Close().Return().Once()
		ui.EXPECT().Wait().Return().Once()

		wf := NewWorkflow(divisionOptions(), adapter.NewLocalSourceFSAdapter(), adaptermocks.NewMockToolchain(t), store, ui, testLogger().Logger)

		err := wf.View(ViewArgs{Reports: "reports"})

		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "load reports")
	})
}

func TestOutputBases(t *testing.T) {
	sources := []m.Source{
		{Origin: "/a/seed.c", Hash: "aaaaaaaaaaaaaaaa"},
		{Origin: "/b/seed.c", Hash: "bbbbbbbbbbbbbbbb"},
		{Origin: "/c/other.c", Hash: "cccccccccccccccc"},
	}

	assert.Equal(t, []string{"seed_aaaaaaaa.c", "seed_bbbbbbbb.c", "other.c"}, outputBases(sources))
}

func TestSelectHelpers(t *testing.T) {
	sources := []m.Source{
		{Origin: "/seeds/a.c"},
		{Origin: "/seeds/skip/b.c"},
		{Origin: "/seeds/c.c"},
		{Origin: "/seeds/d.c"},
	}

	t.Run("exclude", func(t *testing.T) {
		kept, err := excludeSources(sources, []string{"/skip/", `d\.c$`})

		require.NoError(t, err)
		assert.Equal(t, []m.Source{{Origin: "/seeds/a.c"}, {Origin: "/seeds/c.c"}}, kept)
	})

	t.Run("shard", func(t *testing.T) {
		assert.Equal(t, sources, shardSources(sources, 0, 1))
		assert.Equal(t, []m.Source{{Origin: "/seeds/a.c"}, {Origin: "/seeds/c.c"}}, shardSources(sources, 0, 2))
		assert.Equal(t, []m.Source{{Origin: "/seeds/skip/b.c"}, {Origin: "/seeds/d.c"}}, shardSources(sources, 1, 2))
	})

	t.Run("hash seed", func(t *testing.T) {
		assert.Equal(t, uint64(0x0123456789abcdef), hashSeed(testMutantID))
		assert.Equal(t, uint64(0), hashSeed("not hex"))
	})

	t.Run("truncate", func(t *testing.T) {
		assert.Equal(t, "abc", truncate("abc", 3))
		assert.Equal(t, "ab\n[truncated]", truncate("abc", 2))
	})
}
