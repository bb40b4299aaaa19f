package domain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mouse-blink/ubsynth/internal/adapter"
	"github.com/mouse-blink/ubsynth/internal/controller"
	m "github.com/mouse-blink/ubsynth/internal/model"
)

// ReportsDirName is the default reports directory inside the output directory.
const ReportsDirName = ".ubsynth-reports"

const (
	mutantPerm   = 0o644
	maxSanOutput = 4096
)

// GenerateOptions configures csmith seed generation.
type GenerateOptions struct {
	MinProgramSize int64
	MaxAttempts    int
	CheckArgs      []string
}

// WorkflowOptions fixes what every operation of a workflow synthesizes.
type WorkflowOptions struct {
	Category m.Category
	HeapProb int
	// RNGSeed makes runs reproducible; zero draws a fresh seed per run.
	RNGSeed  uint64
	Verify   bool
	Generate GenerateOptions
}

// EstimateArgs selects the seeds to work on.
type EstimateArgs struct {
	Paths           []m.Path
	Exclude         []string
	Threads         int
	ShardIndex      int
	TotalShardCount int
}

// RunArgs configures a synthesis run.
type RunArgs struct {
	EstimateArgs
	Out         m.Path
	Reports     m.Path
	Incremental bool
}

// ViewArgs configures report viewing.
type ViewArgs struct {
	Reports m.Path
}

// Workflow drives instrumentation, synthesis, verification and reporting
// over a set of seed programs.
type Workflow interface {
	Estimate(ctx context.Context, args EstimateArgs) error
	Run(ctx context.Context, args RunArgs) error
	View(args ViewArgs) error
}

type workflow struct {
	opts         WorkflowOptions
	fsAdapter    adapter.SourceFSAdapter
	toolchain    adapter.Toolchain
	reportStore  adapter.ReportStore
	ui           controller.UI
	instrumenter Instrumenter
	verifier     Verifier
	log          *logrus.Logger
	now          func() time.Time
}

// NewWorkflow creates a new Workflow instance with the provided adapters.
func NewWorkflow(
	opts WorkflowOptions,
	fsAdapter adapter.SourceFSAdapter,
	toolchain adapter.Toolchain,
	reportStore adapter.ReportStore,
	ui controller.UI,
	log *logrus.Logger,
) Workflow {
	entry := log.WithField("category", opts.Category)

	return &workflow{
		opts:         opts,
		fsAdapter:    fsAdapter,
		toolchain:    toolchain,
		reportStore:  reportStore,
		ui:           ui,
		instrumenter: NewInstrumenter(opts.Category, toolchain, fsAdapter, opts.HeapProb, entry),
		verifier:     NewVerifier(toolchain, fsAdapter, entry),
		log:          log,
		now:          time.Now,
	}
}

// Estimate instruments every selected seed and displays its candidate census.
func (w *workflow) Estimate(ctx context.Context, args EstimateArgs) error {
	if err := w.requireCategory(); err != nil {
		return err
	}

	if len(args.Paths) == 0 {
		return errors.New("no seed programs given")
	}

	sources, err := w.selectSources(args)
	if err != nil {
		return err
	}

	if err := w.ui.Start(controller.WithEstimateMode()); err != nil {
		return err
	}

	defer func() {
		w.ui.Close()
		w.ui.Wait()
	}()

	estimates := make([]m.Estimate, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threadCount(args.Threads))

	for i, source := range sources {
		g.Go(func() error {
			estimates[i] = w.estimateSeed(gctx, source)
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		_ = w.ui.DisplayEstimation(nil, err)
		return err
	}

	return w.ui.DisplayEstimation(estimates, nil)
}

// Run synthesizes mutants for the selected seeds, or for generated seeds when
// no path is given, and stores a manifest per mutant.
func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	if err := w.requireCategory(); err != nil {
		return err
	}

	if args.Out == "" {
		return errors.New("output directory is required")
	}

	if args.Reports == "" {
		args.Reports = w.fsAdapter.JoinPath(string(args.Out), ReportsDirName)
	}

	if err := w.fsAdapter.MkdirAll(args.Out); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	runID := uuid.NewString()
	runSeed := w.opts.RNGSeed

	if runSeed == 0 {
		runSeed = rand.Uint64()
	}

	log := w.log.WithFields(logrus.Fields{"run_id": runID, "category": w.opts.Category})
	log.WithField("rng_seed", runSeed).Info("run started")

	r := &run{
		workflow: w,
		id:       runID,
		rngSeed:  runSeed,
		out:      args.Out,
		log:      log,
	}

	var (
		results []m.FileResult
		err     error
	)

	if len(args.Paths) == 0 {
		results, err = r.generated(ctx)
	} else {
		results, err = r.seeds(ctx, args)
	}

	if err != nil {
		return err
	}

	return w.storeReports(args.Reports, results, log)
}

// View displays the manifests stored in a reports directory.
func (w *workflow) View(args ViewArgs) error {
	reports, loadErr := w.reportStore.LoadReports(args.Reports)

	if err := w.ui.Start(controller.WithViewMode()); err != nil {
		return err
	}

	err := w.ui.DisplayReports(reports, loadErr)

	w.ui.Close()
	w.ui.Wait()

	if loadErr != nil {
		return fmt.Errorf("load reports: %w", loadErr)
	}

	return err
}

func (w *workflow) requireCategory() error {
	if w.opts.Category == "" {
		return &m.ConfigError{Key: "ub", Reason: "a target category is required"}
	}

	return nil
}

// selectSources resolves paths to seeds, drops excluded ones and keeps this
// shard's share.
func (w *workflow) selectSources(args EstimateArgs) ([]m.Source, error) {
	sources, err := w.fsAdapter.Get(args.Paths)
	if err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}

	sources, err = excludeSources(sources, args.Exclude)
	if err != nil {
		return nil, err
	}

	return shardSources(sources, args.ShardIndex, args.TotalShardCount), nil
}

func (w *workflow) estimateSeed(ctx context.Context, source m.Source) m.Estimate {
	est := m.Estimate{Seed: source.Origin}

	work, err := w.fsAdapter.CreateTempDir("ubsynth-estimate-*")
	if err != nil {
		est.Err = fmt.Errorf("create work dir: %w", err)
		return est
	}

	defer w.removeWorkDir(work)

	prog, err := w.instrumentCopy(ctx, work, source.Origin, source.Origin.Base())
	if err != nil {
		est.Err = err
		return est
	}

	res := NewSynthesizer(w.opts.Category, rand.New(rand.NewPCG(0, 0)), w.log.WithField("seed", source.Origin)).Estimate(prog)
	res.Seed = source.Origin

	return res
}

// instrumentCopy copies seed into work as instrument_<base> and instruments it.
func (w *workflow) instrumentCopy(ctx context.Context, work, seed m.Path, base string) (*m.Program, error) {
	file := w.fsAdapter.JoinPath(string(work), "instrument_"+base)

	if err := w.fsAdapter.CopyFile(seed, file); err != nil {
		return nil, fmt.Errorf("copy seed: %w", err)
	}

	return w.instrumenter.Instrument(ctx, file)
}

func (w *workflow) storeReports(dir m.Path, results []m.FileResult, log *logrus.Entry) error {
	var reports []m.Report

	for _, res := range results {
		reports = append(reports, res.Reports...)
	}

	if err := w.reportStore.SaveReports(dir, reports); err != nil {
		return fmt.Errorf("save reports: %w", err)
	}

	if err := w.reportStore.RegenerateIndex(dir); err != nil {
		return fmt.Errorf("regenerate report index: %w", err)
	}

	log.WithField("mutants", len(reports)).Info("run finished")

	return nil
}

func (w *workflow) removeWorkDir(dir m.Path) {
	if err := w.fsAdapter.RemoveAll(dir); err != nil {
		w.log.WithError(err).WithField("dir", dir).Warn("removing work dir failed")
	}
}

// run holds the state shared by the seeds of one Run call.
type run struct {
	*workflow
	id      string
	rngSeed uint64
	out     m.Path
	log     *logrus.Entry
}

func (r *run) seeds(ctx context.Context, args RunArgs) ([]m.FileResult, error) {
	sources, err := r.selectSources(args.EstimateArgs)
	if err != nil {
		return nil, err
	}

	if args.Incremental {
		total := len(sources)

		sources, err = r.reportStore.CheckUpdates(args.Reports, sources, r.opts.Category)
		if err != nil {
			return nil, fmt.Errorf("check updates: %w", err)
		}

		r.log.WithField("skipped", total-len(sources)).Info("unchanged seeds skipped")
	}

	threads := threadCount(args.Threads)

	if err := r.ui.Start(controller.WithRunMode()); err != nil {
		return nil, err
	}

	r.ui.DisplayConcurrencyInfo(threads, args.ShardIndex, max(args.TotalShardCount, 1))
	r.ui.DisplayUpcomingSeeds(len(sources))

	bases := outputBases(sources)
	results := make([]m.FileResult, len(sources))

	workers := make(chan int, threads)
	for i := range threads {
		workers <- i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for i, source := range sources {
		g.Go(func() error {
			worker := <-workers
			defer func() { workers <- worker }()

			r.ui.DisplayStartingSeed(source.Origin, worker)

			results[i] = r.seed(gctx, source, bases[i])

			r.ui.DisplayCompletedSeed(results[i])

			return nil
		})
	}

	_ = g.Wait()

	r.ui.Close()
	r.ui.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// generated draws csmith seeds until one yields mutants or the attempts run out.
func (r *run) generated(ctx context.Context) ([]m.FileResult, error) {
	attempts := max(r.opts.Generate.MaxAttempts, 1)

	if err := r.ui.Start(controller.WithRunMode()); err != nil {
		return nil, err
	}

	defer func() {
		r.ui.Close()
		r.ui.Wait()
	}()

	r.ui.DisplayConcurrencyInfo(1, 0, 1)

	var results []m.FileResult

	for attempt := range attempts {
		r.ui.DisplayUpcomingSeeds(attempt + 1)

		res, err := r.generatedSeed(ctx, attempt)
		if err != nil {
			return nil, err
		}

		r.ui.DisplayCompletedSeed(res)
		results = append(results, res)

		if len(res.Mutants) > 0 {
			return results, nil
		}

		r.log.WithField("attempt", attempt+1).Info("no mutants synthesized, trying another seed")
	}

	r.log.WithField("attempts", attempts).Warn("no generated seed produced mutants")

	return results, nil
}

func (r *run) generatedSeed(ctx context.Context, attempt int) (m.FileResult, error) {
	work, err := r.fsAdapter.CreateTempDir("ubsynth-generate-*")
	if err != nil {
		return m.FileResult{}, fmt.Errorf("create work dir: %w", err)
	}

	defer r.removeWorkDir(work)

	base := fmt.Sprintf("seed_%s_%d.c", r.id[:8], attempt)
	generated := r.fsAdapter.JoinPath(string(work), base)

	r.ui.DisplayStartingSeed(m.Path(base), 0)

	if err := r.generate(ctx, work, generated); err != nil {
		return m.FileResult{}, err
	}

	// Keep the seed next to its mutants so every manifest can be reproduced.
	seed := r.fsAdapter.JoinPath(string(r.out), base)
	if err := r.fsAdapter.CopyFile(generated, seed); err != nil {
		return m.FileResult{}, fmt.Errorf("store generated seed: %w", err)
	}

	hash, err := r.fsAdapter.HashFile(seed)
	if err != nil {
		return m.FileResult{}, err
	}

	res := r.seed(ctx, m.Source{Origin: seed, Hash: hash}, base)
	if len(res.Mutants) == 0 {
		_ = r.fsAdapter.RemoveAll(seed)
	}

	return res, nil
}

// generate runs csmith until it emits a program that is large enough and
// builds and runs cleanly under the sanity flags.
func (r *run) generate(ctx context.Context, work, out m.Path) error {
	check := r.fsAdapter.JoinPath(string(work), "check.out")
	attempts := max(r.opts.Generate.MaxAttempts, 1)

	for range attempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := r.toolchain.Generate(ctx, out)
		if err := toolError(res, err); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			r.log.WithError(err).Debug("csmith failed")

			continue
		}

		info, err := r.fsAdapter.FileInfo(out)
		if err != nil || info.Size() < r.opts.Generate.MinProgramSize {
			continue
		}

		res, err = r.toolchain.Compile(ctx, out, check, r.opts.Generate.CheckArgs...)
		if err := toolError(res, err); err != nil {
			continue
		}

		res, err = r.toolchain.Run(ctx, check)
		if err := toolError(res, err); err != nil {
			continue
		}

		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("no usable csmith program after %d attempts", attempts)
}

// seed runs one seed end to end. Failures are reported in the result.
func (r *run) seed(ctx context.Context, source m.Source, base string) m.FileResult {
	res := m.FileResult{Seed: source.Origin}
	log := r.log.WithField("seed", source.Origin)

	work, err := r.fsAdapter.CreateTempDir("ubsynth-run-*")
	if err != nil {
		res.Err = fmt.Errorf("create work dir: %w", err)
		return res
	}

	defer r.removeWorkDir(work)

	prog, err := r.instrumentCopy(ctx, work, source.Origin, base)
	if err != nil {
		log.WithError(err).Warn("instrumentation failed")

		res.Err = err

		return res
	}

	res.Candidates = len(prog.Candidates())

	rng := rand.New(rand.NewPCG(r.rngSeed, hashSeed(source.Hash)))
	mutants := NewSynthesizer(r.opts.Category, rng, log).Synthesize(prog, source.Origin)

	for _, mutant := range mutants {
		report := m.Report{
			RunID:       r.id,
			MutantID:    mutant.ID,
			Seed:        source.Origin,
			SeedHash:    source.Hash,
			Category:    mutant.Category,
			CandidateID: mutant.Plan.CandidateID,
			Site:        mutant.Plan.Site,
			Statement:   mutant.Plan.Statement,
			Verdict:     m.Unverified,
		}

		if r.opts.Verify {
			v, err := r.verifier.Verify(ctx, work, mutant)
			if err != nil {
				if ctx.Err() != nil {
					res.Err = ctx.Err()
					return res
				}

				v.Verdict, v.Output = m.VerifyError, err.Error()
			}

			if v.Verdict == m.Unconfirmed {
				log.WithField("mutant", shortID(mutant.ID)).Debug("sanitizer did not confirm mutant")
				continue
			}

			report.Verdict = v.Verdict
			report.Sanitizer = truncate(v.Output, maxSanOutput)
		}

		out := r.fsAdapter.JoinPath(string(r.out), fmt.Sprintf("mutated_%d_%s", len(res.Mutants), base))
		if err := r.fsAdapter.WriteFile(out, mutant.Content, mutantPerm); err != nil {
			res.Err = fmt.Errorf("write mutant: %w", err)
			return res
		}

		report.Output = out
		report.CreatedAt = r.now().UTC()

		res.Mutants = append(res.Mutants, mutant)
		res.Reports = append(res.Reports, report)
	}

	log.WithFields(logrus.Fields{"candidates": res.Candidates, "mutants": len(res.Mutants)}).Info("seed finished")

	return res
}

// outputBases names each seed's mutants. Seeds sharing a base name get the
// prefix of their content hash appended.
func outputBases(sources []m.Source) []string {
	count := make(map[string]int)
	for _, s := range sources {
		count[s.Origin.Base()]++
	}

	bases := make([]string, len(sources))

	for i, s := range sources {
		base := s.Origin.Base()
		if count[base] > 1 {
			stem := strings.TrimSuffix(base, filepath.Ext(base))
			base = fmt.Sprintf("%s_%s.c", stem, shortHash(s.Hash))
		}

		bases[i] = base
	}

	return bases
}

func excludeSources(sources []m.Source, patterns []string) ([]m.Source, error) {
	if len(patterns) == 0 {
		return sources, nil
	}

	res := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}

		res = append(res, re)
	}

	kept := make([]m.Source, 0, len(sources))

outer:
	for _, s := range sources {
		for _, re := range res {
			if re.MatchString(string(s.Origin)) {
				continue outer
			}
		}

		kept = append(kept, s)
	}

	return kept, nil
}

func shardSources(sources []m.Source, index, total int) []m.Source {
	if total <= 1 {
		return sources
	}

	kept := make([]m.Source, 0, len(sources)/total+1)

	for i, s := range sources {
		if i%total == index {
			kept = append(kept, s)
		}
	}

	return kept
}

func threadCount(threads int) int {
	if threads <= 0 {
		return 1
	}

	return threads
}

// hashSeed derives a stream id from a hex content hash.
func hashSeed(hash string) uint64 {
	if len(hash) > 16 {
		hash = hash[:16]
	}

	n, err := strconv.ParseUint(hash, 16, 64)
	if err != nil {
		return 0
	}

	return n
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}

	return hash
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "\n[truncated]"
}
