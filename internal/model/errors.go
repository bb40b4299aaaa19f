package model

import "fmt"

// ToolFailure reports a failed external step: a source rewriter, the compiler,
// the instrumented program itself or the seed generator.
type ToolFailure struct {
	Tool     string
	Output   string
	ExitCode int
	TimedOut bool
	Err      error
}

func (e *ToolFailure) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("%s timed out", e.Tool)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("%s failed with exit code %d", e.Tool, e.ExitCode)
	}
}

func (e *ToolFailure) Unwrap() error {
	return e.Err
}

// RejectReason names why a candidate could not be mutated.
type RejectReason string

// Rejection reasons.
const (
	RejectNoApplicableCategory RejectReason = "NoApplicableCategory"
	RejectMissingTrace         RejectReason = "MissingTrace"
	RejectUnstableTrace        RejectReason = "UnstableTrace"
	RejectUnresolvedRegion     RejectReason = "UnresolvedRegion"
	RejectAccessTooWide        RejectReason = "AccessTooWide"
	RejectNotAnArray           RejectReason = "NotAnArray"
	RejectPlaceholderMissing   RejectReason = "PlaceholderMissing"
	RejectHeapDepth            RejectReason = "HeapDepth"
	RejectNotHeap              RejectReason = "NotHeap"
	RejectNoFreeCall           RejectReason = "NoFreeCall"
	RejectTypeMismatch         RejectReason = "TypeMismatch"
	RejectUnsupportedOperator  RejectReason = "UnsupportedOperator"
	RejectUnsignedWrap         RejectReason = "UnsignedWrap"
	RejectNoBoundary           RejectReason = "NoBoundary"
	RejectNoOutOfScopeVariable RejectReason = "NoOutOfScopeVariable"
	RejectNoInsertionSite      RejectReason = "NoInsertionSite"
	RejectNoUse                RejectReason = "NoUse"
	RejectDuplicate            RejectReason = "Duplicate"
	RejectSanityCheck          RejectReason = "SanityCheck"
)

// Rejection means a candidate cannot be soundly mutated. It is not a failure:
// callers skip to the next candidate.
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (e *Rejection) Error() string {
	if e.Detail == "" {
		return "rejected: " + string(e.Reason)
	}

	return fmt.Sprintf("rejected: %s: %s", e.Reason, e.Detail)
}

// Reject builds a Rejection with a formatted detail message.
func Reject(reason RejectReason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ConfigError is raised at startup for unusable configuration.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Key, e.Reason)
}
