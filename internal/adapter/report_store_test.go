package adapter

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

const (
	mutantA = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	mutantB = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
	mutantC = "aaaabbbbccccdddd0000000000000000000000000000000000000000000000ff"
)

func TestLocalReportStore_SaveReports_WritesOneYAMLPerReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rs := NewLocalReportStore()

	report := m.Report{
		RunID:       "run-1",
		MutantID:    mutantA,
		Seed:        "/abs/seeds/a.c",
		SeedHash:    "hashA",
		Output:      "/abs/out/mutated_0_a.c",
		Category:    m.DivisionByZero,
		CandidateID: 4,
		Site:        m.NoSite,
		Verdict:     m.Confirmed,
		Sanitizer:   "runtime error: division by zero",
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := rs.SaveReports(m.Path(dir), []m.Report{report}); err != nil {
		t.Fatalf("SaveReports returned error: %v", err)
	}

	expectedFile := filepath.Join(dir, mutantA[:16]+".yaml")

	info, err := os.Stat(expectedFile)
	if err != nil {
		t.Fatalf("expected report file %s to exist: %v", expectedFile, err)
	}

	if !info.Mode().IsRegular() {
		t.Fatalf("expected %s to be a regular file", expectedFile)
	}

	if !regexp.MustCompile(`^[0-9a-f]{16}\.yaml$`).MatchString(filepath.Base(expectedFile)) {
		t.Fatalf("unexpected filename: %s", filepath.Base(expectedFile))
	}

	data, err := os.ReadFile(expectedFile)
	if err != nil {
		t.Fatalf("read report file: %v", err)
	}

	if !strings.Contains(string(data), "category: division-by-zero") {
		t.Fatalf("expected category in YAML, got:\n%s", data)
	}

	var decoded m.Report
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal YAML: %v", err)
	}

	if !reflect.DeepEqual(decoded, report) {
		t.Fatalf("decoded report = %#v, want %#v", decoded, report)
	}
}

func TestLocalReportStore_SaveReports_RejectsReportWithoutID(t *testing.T) {
	t.Parallel()

	rs := NewLocalReportStore()

	if err := rs.SaveReports(m.Path(t.TempDir()), []m.Report{{Seed: "a.c"}}); err == nil {
		t.Fatalf("expected error for report without mutant id")
	}
}

func TestLocalReportStore_SaveReports_NoReportsWritesNothing(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "reports")
	rs := NewLocalReportStore()

	if err := rs.SaveReports(m.Path(dir), nil); err != nil {
		t.Fatalf("SaveReports returned error: %v", err)
	}

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected reports directory to not be created, stat err: %v", err)
	}
}

func TestLocalReportStore_LoadReports(t *testing.T) {
	t.Parallel()

	rs := NewLocalReportStore()

	reports, err := rs.LoadReports(m.Path(filepath.Join(t.TempDir(), "absent")))
	if err != nil || reports != nil {
		t.Fatalf("LoadReports on missing dir = (%v, %v), want (nil, nil)", reports, err)
	}

	dir := t.TempDir()
	saved := []m.Report{
		{MutantID: mutantA, Seed: "/a.c", Category: m.UseAfterFree, Verdict: m.Unverified},
		{MutantID: mutantB, Seed: "/b.c", Category: m.UseAfterFree, Verdict: m.Unverified},
	}

	if err := rs.SaveReports(m.Path(dir), saved); err != nil {
		t.Fatalf("SaveReports returned error: %v", err)
	}

	if err := rs.RegenerateIndex(m.Path(dir)); err != nil {
		t.Fatalf("RegenerateIndex returned error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := rs.LoadReports(m.Path(dir))
	if err != nil {
		t.Fatalf("LoadReports returned error: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 reports (index and non-yaml files skipped), got %d", len(loaded))
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("mutant_id: [\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := rs.LoadReports(m.Path(dir)); err == nil {
		t.Fatalf("expected decode error for broken manifest")
	}
}

func TestLocalReportStore_RegenerateIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rs := NewLocalReportStore()

	reports := []m.Report{
		{MutantID: mutantA, Seed: "/abs/b.c", SeedHash: "hb", Category: m.BufferOverflow, Verdict: m.Confirmed},
		{MutantID: mutantB, Seed: "/abs/a.c", SeedHash: "ha", Category: m.BufferOverflow, Verdict: m.Unconfirmed},
		{MutantID: mutantC, Seed: "/abs/b.c", SeedHash: "hb", Category: m.BufferOverflow, Verdict: m.VerifyError},
	}

	if err := rs.SaveReports(m.Path(dir), reports); err != nil {
		t.Fatalf("SaveReports returned error: %v", err)
	}

	indexPath := filepath.Join(dir, IndexFile)
	if _, err := os.Stat(indexPath); !os.IsNotExist(err) {
		t.Fatalf("expected %s to not exist until RegenerateIndex is called", IndexFile)
	}

	if err := rs.RegenerateIndex(m.Path(dir)); err != nil {
		t.Fatalf("RegenerateIndex returned error: %v", err)
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		t.Fatalf("expected %s to exist: %v", IndexFile, err)
	}

	var idx ReportIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		t.Fatalf("unmarshal %s: %v", IndexFile, err)
	}

	want := ReportIndex{
		TotalMutants: 3,
		Confirmed:    1,
		Unconfirmed:  1,
		Errors:       1,
		Seeds: []IndexEntry{
			{Seed: "/abs/a.c", SeedHash: "ha", Reports: []string{mutantB[:16] + ".yaml"}},
			{Seed: "/abs/b.c", SeedHash: "hb", Reports: []string{mutantA[:16] + ".yaml", mutantC[:16] + ".yaml"}},
		},
	}

	if !reflect.DeepEqual(idx, want) {
		t.Fatalf("index = %#v, want %#v", idx, want)
	}
}

func TestLocalReportStore_CheckUpdates_EmptyPath_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := NewLocalReportStore().CheckUpdates("", nil, m.DoubleFree)
	if err == nil {
		t.Fatalf("expected error")
	}

	if !strings.Contains(err.Error(), "reports directory path is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLocalReportStore_CheckUpdates_PathIsFile_ReturnsError(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "reports")
	if err := os.WriteFile(filePath, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := NewLocalReportStore().CheckUpdates(m.Path(filePath), nil, m.DoubleFree)
	if err == nil {
		t.Fatalf("expected error")
	}

	if !strings.Contains(err.Error(), "path is not a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLocalReportStore_CheckUpdates_NoReportsDir_ReturnsAllSources(t *testing.T) {
	t.Parallel()

	sources := []m.Source{{Origin: "/a.c", Hash: "ha"}, {Origin: "/b.c", Hash: "hb"}}

	changed, err := NewLocalReportStore().CheckUpdates(m.Path(filepath.Join(t.TempDir(), "absent")), sources, m.DoubleFree)
	if err != nil {
		t.Fatalf("CheckUpdates returned error: %v", err)
	}

	if !reflect.DeepEqual(changed, sources) {
		t.Fatalf("changed sources = %#v, want %#v", changed, sources)
	}
}

func TestLocalReportStore_CheckUpdates_SkipsUnchangedSeeds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rs := NewLocalReportStore()

	stored := []m.Report{
		{MutantID: mutantA, Seed: "/a.c", SeedHash: "ha", Category: m.DoubleFree},
		{MutantID: mutantB, Seed: "/b.c", SeedHash: "hb-old", Category: m.DoubleFree},
		{MutantID: mutantC, Seed: "/c.c", SeedHash: "hc", Category: m.MemoryLeak},
	}

	if err := rs.SaveReports(m.Path(dir), stored); err != nil {
		t.Fatalf("SaveReports returned error: %v", err)
	}

	current := []m.Source{
		{Origin: "/a.c", Hash: "ha"},
		{Origin: "/b.c", Hash: "hb-new"},
		{Origin: "/c.c", Hash: "hc"},
		{Origin: "/d.c", Hash: "hd"},
	}

	changed, err := rs.CheckUpdates(m.Path(dir), current, m.DoubleFree)
	if err != nil {
		t.Fatalf("CheckUpdates returned error: %v", err)
	}

	want := current[1:]
	if !reflect.DeepEqual(changed, want) {
		t.Fatalf("changed sources = %#v, want %#v", changed, want)
	}
}
