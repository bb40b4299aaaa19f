package domain

import (
	"errors"
	"math/rand/v2"
	"slices"

	"github.com/sirupsen/logrus"

	m "github.com/mouse-blink/ubsynth/internal/model"
)

// Synthesizer produces every mutant a program model admits for one category.
type Synthesizer interface {
	Synthesize(prog *m.Program, seed m.Path) []m.Mutant
	Estimate(prog *m.Program) m.Estimate
}

type synthesizer struct {
	target m.Category
	rng    *rand.Rand
	log    *logrus.Entry
}

// NewSynthesizer constructs a Synthesizer for target drawing randomness from rng.
func NewSynthesizer(target m.Category, rng *rand.Rand, log *logrus.Entry) Synthesizer {
	return &synthesizer{target: target, rng: rng, log: log}
}

// Synthesize plans and applies every candidate in program order. Rejected
// candidates are skipped; a program with no legal candidate yields nil.
func (s *synthesizer) Synthesize(prog *m.Program, seed m.Path) []m.Mutant {
	log := s.log.WithField("seed", seed)
	planner := NewPlanner(s.target, s.rng, log)
	app := NewApplicator(s.target)

	var mutants []m.Mutant

	for _, idx := range prog.Candidates() {
		plan, err := planner.Plan(prog, idx)
		if err != nil {
			var rej *m.Rejection
			if errors.As(err, &rej) {
				log.WithField("candidate", prog.Records[idx].Meta().ID).Debug(rej.Error())
			} else {
				log.WithError(err).Warn("planning failed")
			}

			continue
		}

		mutant, ok, err := app.Apply(prog.Source, plan)
		if err != nil {
			log.WithError(err).WithField("candidate", plan.CandidateID).Warn("applying plan failed")
			continue
		}

		if !ok {
			log.WithField("candidate", plan.CandidateID).Debug("duplicate or failed sanity check")
			continue
		}

		mutant.Seed = seed
		mutants = append(mutants, mutant)
	}

	log.WithField("mutants", len(mutants)).Info("synthesis finished")

	return mutants
}

// Estimate counts candidates and those whose shape admits the target.
func (s *synthesizer) Estimate(prog *m.Program) m.Estimate {
	planner := NewPlanner(s.target, s.rng, s.log)
	candidates := prog.Candidates()

	est := m.Estimate{Candidates: len(candidates)}

	for _, idx := range candidates {
		if slices.Contains(planner.Eligible(prog, prog.Records[idx]), s.target) {
			est.Eligible++
		}
	}

	return est
}
