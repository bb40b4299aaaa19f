package controller

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// SimpleUI implements UI with plain lines and tables on the command's output.
type SimpleUI struct {
	cmd *cobra.Command

	mu      sync.Mutex
	mode    StartMode
	results []m.FileResult
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(options ...StartOption) error {
	cfg := newStartConfig(options)

	s.mu.Lock()
	s.mode = cfg.mode
	s.results = nil
	s.mu.Unlock()

	return nil
}

// Close prints the run summary once every seed has completed.
func (s *SimpleUI) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeRun || len(s.results) == 0 {
		return
	}

	s.printRunSummary()
	s.results = nil
}

// Wait returns immediately; nothing runs in the background.
func (s *SimpleUI) Wait() {}

// DisplayEstimation prints the per-seed candidate census or error.
func (s *SimpleUI) DisplayEstimation(estimates []m.Estimate, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.printf("estimation error: %v\n", err)
		return err
	}

	sorted := append([]m.Estimate(nil), estimates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seed < sorted[j].Seed })

	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Seed", "Candidates", "Eligible", "Error"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
	})

	candidates, eligible := 0, 0

	for _, est := range sorted {
		table.Append([]string{
			string(est.Seed),
			fmt.Sprintf("%d", est.Candidates),
			fmt.Sprintf("%d", est.Eligible),
			errText(est.Err),
		})

		candidates += est.Candidates
		eligible += est.Eligible
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Seeds %d", len(sorted)),
		fmt.Sprintf("%d", candidates),
		fmt.Sprintf("%d", eligible),
		"",
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayConcurrencyInfo prints worker and shard settings.
func (s *SimpleUI) DisplayConcurrencyInfo(threads int, shardIndex int, shardCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.printf("Running with %d worker(s), shard %d/%d\n", threads, shardIndex, shardCount)
}

// DisplayUpcomingSeeds prints how many seeds will be processed.
func (s *SimpleUI) DisplayUpcomingSeeds(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.printf("Upcoming seeds: %d\n", count)
}

// DisplayStartingSeed prints the seed a worker picked up.
func (s *SimpleUI) DisplayStartingSeed(seed m.Path, worker int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.printf("[worker %d] %s\n", worker, seed)
}

// DisplayCompletedSeed prints the outcome of one seed.
func (s *SimpleUI) DisplayCompletedSeed(result m.FileResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, result)

	if result.Err != nil {
		s.printf("%s: failed: %v\n", result.Seed, result.Err)
		return
	}

	s.printf("%s: %d candidate(s), %d mutant(s)\n", result.Seed, result.Candidates, len(result.Mutants))
}

// DisplayReports prints stored manifests as a table.
func (s *SimpleUI) DisplayReports(reports []m.Report, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.printf("report error: %v\n", err)
		return err
	}

	if len(reports) == 0 {
		s.printf("No reports found\n")
		return nil
	}

	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Mutant", "Category", "Verdict", "Seed", "Output"})

	verdicts := make(map[m.Verdict]int)

	for _, r := range reports {
		table.Append([]string{
			shortMutantID(r.MutantID),
			string(r.Category),
			string(r.Verdict),
			string(r.Seed),
			string(r.Output),
		})

		verdicts[r.Verdict]++
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(reports)),
		"",
		fmt.Sprintf("%d confirmed", verdicts[m.Confirmed]),
		"",
		"",
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

func (s *SimpleUI) printRunSummary() {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Seed", "Candidates", "Mutants", "Error"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
	})

	mutants, failed := 0, 0

	for _, res := range s.results {
		table.Append([]string{
			string(res.Seed),
			fmt.Sprintf("%d", res.Candidates),
			fmt.Sprintf("%d", len(res.Mutants)),
			errText(res.Err),
		})

		mutants += len(res.Mutants)

		if res.Err != nil {
			failed++
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Seeds %d", len(s.results)),
		"",
		fmt.Sprintf("%d", mutants),
		fmt.Sprintf("%d failed", failed),
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

func errText(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

func shortMutantID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}

	return id
}
