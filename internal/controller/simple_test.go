package controller

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

func newSimpleUIForTest() (*SimpleUI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	return NewSimpleUI(cmd), &buf
}

func assertOutputContains(t *testing.T, output string, wants ...string) {
	t.Helper()

	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q\noutput:\n%s", want, output)
		}
	}
}

func TestSimpleUI_DisplayEstimation_PrintsTable(t *testing.T) {
	ui, buf := newSimpleUIForTest()

	estimates := []m.Estimate{
		{Seed: "seeds/b.c", Candidates: 4, Eligible: 1},
		{Seed: "seeds/a.c", Candidates: 3, Eligible: 2},
		{Seed: "seeds/c.c", Err: errors.New("instrumenter failed with exit code 1")},
	}

	if err := ui.DisplayEstimation(estimates, nil); err != nil {
		t.Fatalf("DisplayEstimation() error = %v", err)
	}

	output := buf.String()
	assertOutputContains(t, output,
		"seeds/a.c",
		"seeds/b.c",
		"instrumenter failed with exit code 1",
		"TOTAL SEEDS 3",
		"7",
	)

	if strings.Index(output, "seeds/a.c") > strings.Index(output, "seeds/b.c") {
		t.Fatalf("seeds are not sorted\noutput:\n%s", output)
	}
}

func TestSimpleUI_DisplayEstimation_Error(t *testing.T) {
	ui, buf := newSimpleUIForTest()
	boom := errors.New("boom")

	if err := ui.DisplayEstimation(nil, boom); err == nil {
		t.Fatalf("DisplayEstimation() expected error")
	}

	assertOutputContains(t, buf.String(), "estimation error: boom")
}

func TestSimpleUI_RunProgress(t *testing.T) {
	ui, buf := newSimpleUIForTest()

	if err := ui.Start(WithRunMode()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ui.DisplayConcurrencyInfo(2, 0, 1)
	ui.DisplayUpcomingSeeds(2)
	ui.DisplayStartingSeed("seeds/a.c", 0)
	ui.DisplayStartingSeed("seeds/b.c", 1)
	ui.DisplayCompletedSeed(m.FileResult{Seed: "seeds/a.c", Candidates: 5, Mutants: make([]m.Mutant, 2)})
	ui.DisplayCompletedSeed(m.FileResult{Seed: "seeds/b.c", Err: errors.New("cc timed out")})
	ui.Close()
	ui.Wait()

	assertOutputContains(t, buf.String(),
		"Running with 2 worker(s), shard 0/1",
		"Upcoming seeds: 2",
		"[worker 1] seeds/b.c",
		"seeds/a.c: 5 candidate(s), 2 mutant(s)",
		"seeds/b.c: failed: cc timed out",
		"TOTAL SEEDS 2",
		"1 FAILED",
	)
}

func TestSimpleUI_CloseWithoutRun(t *testing.T) {
	ui, buf := newSimpleUIForTest()

	if err := ui.Start(WithEstimateMode()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ui.Close()

	if buf.Len() != 0 {
		t.Fatalf("Close() printed %q, want nothing", buf.String())
	}
}

func TestSimpleUI_DisplayReports(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		ui, buf := newSimpleUIForTest()

		reports := []m.Report{
			{
				MutantID: "0123456789abcdef0123",
				Category: m.DivisionByZero,
				Verdict:  m.Confirmed,
				Seed:     "seeds/a.c",
				Output:   "out/mutated_0_a.c",
			},
			{
				MutantID: "fedcba9876543210fedc",
				Category: m.DivisionByZero,
				Verdict:  m.Unverified,
				Seed:     "seeds/a.c",
				Output:   "out/mutated_1_a.c",
			},
		}

		if err := ui.DisplayReports(reports, nil); err != nil {
			t.Fatalf("DisplayReports() error = %v", err)
		}

		assertOutputContains(t, buf.String(),
			"0123456789ab",
			"division-by-zero",
			"confirmed",
			"out/mutated_1_a.c",
			"TOTAL 2",
			"1 CONFIRMED",
		)
	})

	t.Run("empty", func(t *testing.T) {
		ui, buf := newSimpleUIForTest()

		if err := ui.DisplayReports(nil, nil); err != nil {
			t.Fatalf("DisplayReports() error = %v", err)
		}

		assertOutputContains(t, buf.String(), "No reports found")
	})

	t.Run("error", func(t *testing.T) {
		ui, buf := newSimpleUIForTest()

		if err := ui.DisplayReports(nil, errors.New("denied")); err == nil {
			t.Fatalf("DisplayReports() expected error")
		}

		assertOutputContains(t, buf.String(), "report error: denied")
	})
}
