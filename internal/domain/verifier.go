package domain

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mouse-blink/ubsynth/internal/adapter"
	m "github.com/mouse-blink/ubsynth/internal/model"
)

const (
	asanOptions     = "ASAN_OPTIONS=detect_leaks=0,detect_stack_use_after_return=1"
	asanLeakOptions = "ASAN_OPTIONS=detect_leaks=1,detect_stack_use_after_return=1"
)

// Sanitizer is the reference detector a category is checked against.
type Sanitizer struct {
	Name  string
	Flags []string
	Env   []string
}

// SanitizerFor returns the reference sanitizer of category.
func SanitizerFor(category m.Category) Sanitizer {
	switch category {
	case m.IntegerOverflow, m.DivisionByZero:
		return Sanitizer{
			Name:  "undefined",
			Flags: []string{"-fsanitize=undefined", "-fno-sanitize-recover=all"},
		}
	case m.UseOfUninit:
		return Sanitizer{
			Name:  "memory",
			Flags: []string{"-fsanitize=memory"},
		}
	case m.OutOfBound:
		return Sanitizer{
			Name:  "address,undefined",
			Flags: []string{"-fsanitize=address,undefined", "-fno-sanitize-recover=all"},
			Env:   []string{asanOptions},
		}
	case m.MemoryLeak:
		return Sanitizer{
			Name:  "address",
			Flags: []string{"-fsanitize=address"},
			Env:   []string{asanLeakOptions},
		}
	default:
		return Sanitizer{
			Name:  "address",
			Flags: []string{"-fsanitize=address"},
			Env:   []string{asanOptions},
		}
	}
}

// Verification is the outcome of running one mutant under its sanitizer.
type Verification struct {
	Verdict   m.Verdict
	Sanitizer string
	Output    string
}

// Verifier builds a mutant with its reference sanitizer and runs it.
type Verifier interface {
	Verify(ctx context.Context, dir m.Path, mutant m.Mutant) (Verification, error)
}

type verifier struct {
	toolchain adapter.Toolchain
	fsAdapter adapter.SourceFSAdapter
	log       *logrus.Entry
}

// NewVerifier constructs a Verifier working inside scratch directories.
func NewVerifier(toolchain adapter.Toolchain, fsAdapter adapter.SourceFSAdapter, log *logrus.Entry) Verifier {
	return &verifier{toolchain: toolchain, fsAdapter: fsAdapter, log: log}
}

// Verify writes mutant into dir, compiles and runs it. A sanitizer abort
// confirms the mutant, a clean exit or a timeout leaves it unconfirmed and a
// failed build is a VerifyError. Only infrastructure failures are returned as
// errors.
func (v *verifier) Verify(ctx context.Context, dir m.Path, mutant m.Mutant) (Verification, error) {
	san := SanitizerFor(mutant.Category)
	out := Verification{Sanitizer: san.Name}

	name := "verify_" + shortID(mutant.ID)
	src := v.fsAdapter.JoinPath(string(dir), name+".c")
	binary := v.fsAdapter.JoinPath(string(dir), name+".out")

	if err := v.fsAdapter.WriteFile(src, mutant.Content, 0o600); err != nil {
		return out, err
	}

	defer func() {
		_ = v.fsAdapter.RemoveAll(src)
		_ = v.fsAdapter.RemoveAll(binary)
	}()

	res, err := v.toolchain.Compile(ctx, src, binary, san.Flags...)
	if err != nil {
		return out, err
	}

	if res.Failed() {
		out.Verdict = m.VerifyError
		out.Output = res.Output

		return out, nil
	}

	res, err = v.toolchain.Run(ctx, binary, san.Env...)
	if err != nil {
		return out, err
	}

	out.Output = res.Output

	switch {
	case res.TimedOut:
		out.Verdict = m.Unconfirmed
	case res.ExitCode != 0:
		out.Verdict = m.Confirmed
	default:
		out.Verdict = m.Unconfirmed
	}

	v.log.WithFields(logrus.Fields{
		"mutant":  shortID(mutant.ID),
		"verdict": out.Verdict,
	}).Debug("mutant verified")

	return out, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}

	return id
}
