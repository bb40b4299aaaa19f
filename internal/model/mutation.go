// Package model defines the data structures shared by the synthesizer.
package model

// Edit replaces the bytes [Start, End) of a baseline with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// NoSite is the Plan.Site value of plans that only substitute placeholders.
const NoSite = -1

// Plan is a fully decided mutation of one candidate: a set of
// non-overlapping edits against the instrumented baseline.
type Plan struct {
	Category    Category
	Candidate   int // index into Program.Records
	CandidateID int

	// Site is the insertion-site marker id the statement is spliced at, or
	// NoSite. Buffer-overflow plans splice nothing: their Site is the site
	// that made the access legal to perturb.
	Site      int
	Statement string
	Edits     []Edit
}

// Mutant is a finished, marker-free source produced from a plan.
type Mutant struct {
	ID       string // sha256 of Content
	Seed     Path
	Category Category
	Plan     Plan
	Content  []byte
}
