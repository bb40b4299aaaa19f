package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// IndexFile is the name of the summary written by RegenerateIndex.
const IndexFile = "_index.yaml"

const reportNameLen = 16

// ReportStore persists and retrieves mutant manifests.
type ReportStore interface {
	// SaveReports writes one YAML manifest per report into dir.
	SaveReports(dir m.Path, reports []m.Report) error
	// LoadReports reads every manifest stored in dir.
	LoadReports(dir m.Path) ([]m.Report, error)
	// RegenerateIndex rebuilds the summary of dir from its manifests.
	RegenerateIndex(dir m.Path) error
	// CheckUpdates returns the sources that have no manifest for category
	// recorded against their current content hash.
	CheckUpdates(dir m.Path, sources []m.Source, category m.Category) ([]m.Source, error)
}

// ReportIndex summarizes a report directory.
type ReportIndex struct {
	TotalMutants int          `yaml:"total_mutants"`
	Confirmed    int          `yaml:"confirmed"`
	Unconfirmed  int          `yaml:"unconfirmed"`
	Unverified   int          `yaml:"unverified"`
	Errors       int          `yaml:"errors"`
	Seeds        []IndexEntry `yaml:"seeds"`
}

// IndexEntry lists the manifests written for one seed.
type IndexEntry struct {
	Seed     m.Path   `yaml:"seed"`
	SeedHash string   `yaml:"seed_hash"`
	Reports  []string `yaml:"reports"`
}

// LocalReportStore stores manifests as YAML files on the local disk.
type LocalReportStore struct{}

// NewLocalReportStore constructs a LocalReportStore.
func NewLocalReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// SaveReports writes each report to <mutant id prefix>.yaml. Existing
// manifests for the same mutant are replaced.
func (rs *LocalReportStore) SaveReports(dir m.Path, reports []m.Report) error {
	if len(reports) == 0 {
		return nil
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}

	for _, report := range reports {
		name := reportFileName(report)
		if name == "" {
			return fmt.Errorf("report for %s has no mutant id", report.Output)
		}

		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal report %s: %w", name, err)
		}

		if err := atomic.WriteFile(filepath.Join(string(dir), name), bytes.NewReader(data)); err != nil {
			return fmt.Errorf("write report %s: %w", name, err)
		}
	}

	return nil
}

// LoadReports reads every manifest in dir. A missing directory holds no reports.
func (rs *LocalReportStore) LoadReports(dir m.Path) ([]m.Report, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	var reports []m.Report

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == IndexFile || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		// #nosec G304 - manifests live in the configured reports directory
		data, err := os.ReadFile(filepath.Join(string(dir), entry.Name()))
		if err != nil {
			return nil, err
		}

		var report m.Report
		if err := yaml.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Name(), err)
		}

		reports = append(reports, report)
	}

	return reports, nil
}

// RegenerateIndex rewrites _index.yaml from the manifests currently in dir.
func (rs *LocalReportStore) RegenerateIndex(dir m.Path) error {
	reports, err := rs.LoadReports(dir)
	if err != nil {
		return err
	}

	idx := ReportIndex{TotalMutants: len(reports)}
	bySeed := make(map[m.Path]*IndexEntry)

	for _, report := range reports {
		switch report.Verdict {
		case m.Confirmed:
			idx.Confirmed++
		case m.Unconfirmed:
			idx.Unconfirmed++
		case m.Unverified:
			idx.Unverified++
		case m.VerifyError:
			idx.Errors++
		}

		entry, ok := bySeed[report.Seed]
		if !ok {
			entry = &IndexEntry{Seed: report.Seed, SeedHash: report.SeedHash}
			bySeed[report.Seed] = entry
		}

		entry.Reports = append(entry.Reports, reportFileName(report))
	}

	idx.Seeds = make([]IndexEntry, 0, len(bySeed))
	for _, entry := range bySeed {
		sort.Strings(entry.Reports)
		idx.Seeds = append(idx.Seeds, *entry)
	}

	sort.Slice(idx.Seeds, func(i, j int) bool { return idx.Seeds[i].Seed < idx.Seeds[j].Seed })

	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return err
	}

	return atomic.WriteFile(filepath.Join(string(dir), IndexFile), bytes.NewReader(data))
}

// CheckUpdates filters sources down to those that still need work for category.
func (rs *LocalReportStore) CheckUpdates(dir m.Path, sources []m.Source, category m.Category) ([]m.Source, error) {
	if strings.TrimSpace(string(dir)) == "" {
		return nil, errors.New("reports directory path is required")
	}

	info, err := os.Stat(string(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sources, nil
		}

		return nil, err
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	reports, err := rs.LoadReports(dir)
	if err != nil {
		return nil, err
	}

	type key struct {
		seed m.Path
		hash string
	}

	done := make(map[key]struct{})

	for _, report := range reports {
		if report.Category == category {
			done[key{report.Seed, report.SeedHash}] = struct{}{}
		}
	}

	changed := make([]m.Source, 0, len(sources))

	for _, source := range sources {
		if _, ok := done[key{source.Origin, source.Hash}]; !ok {
			changed = append(changed, source)
		}
	}

	return changed, nil
}

func reportFileName(report m.Report) string {
	id := report.MutantID
	if id == "" {
		return ""
	}

	if len(id) > reportNameLen {
		id = id[:reportNameLen]
	}

	return id + ".yaml"
}
