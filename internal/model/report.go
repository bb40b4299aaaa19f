package model

import "time"

// Verdict is the outcome of running a mutant under its reference sanitizer.
type Verdict string

const (
	// Confirmed means the sanitizer aborted the mutant.
	Confirmed Verdict = "confirmed"
	// Unconfirmed means the mutant ran to completion under the sanitizer.
	Unconfirmed Verdict = "unconfirmed"
	// Unverified means verification was disabled.
	Unverified Verdict = "unverified"
	// VerifyError means the mutant could not be built with the sanitizer.
	VerifyError Verdict = "error"
)

// Report is the manifest stored next to every written mutant.
type Report struct {
	RunID       string    `yaml:"run_id"`
	MutantID    string    `yaml:"mutant_id"`
	Seed        Path      `yaml:"seed"`
	SeedHash    string    `yaml:"seed_hash"`
	Output      Path      `yaml:"output"`
	Category    Category  `yaml:"category"`
	CandidateID int       `yaml:"candidate_id"`
	Site        int       `yaml:"site"`
	Statement   string    `yaml:"statement,omitempty"`
	Verdict     Verdict   `yaml:"verdict"`
	Sanitizer   string    `yaml:"sanitizer_output,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// FileResult holds everything produced for a single seed program.
type FileResult struct {
	Seed       Path
	Candidates int
	Mutants    []Mutant
	Reports    []Report
	Err        error
}

// Estimate is the candidate census of one seed program.
type Estimate struct {
	Seed       Path
	Candidates int
	Eligible   int
	Err        error
}
