// Package explain derives the presentation-level view of a pipeline result:
// which explanation sections have real content and which fields are sentinel
// no-ops. Everything here is a pure function of the result, so the flags can
// be unit-tested against literal fixture payloads.
package explain

import (
	"strings"

	"github.com/opticode/core/core/pipeline"
)

// SentinelNoRuleChanges is the distinguished rule-change entry meaning "no
// change occurred". A change list containing only this phrase reports an
// already-optimal run, not a real change.
const SentinelNoRuleChanges = "No rule-based optimizations applicable — code is already optimal"

// sentinelMatch is the case-insensitive core of the sentinel phrase; backend
// versions vary the suffix.
const sentinelMatch = "no rule-based optimizations applicable"

// Flags are the derived booleans that gate which explanation sections render.
type Flags struct {
	HasSecurityIssues bool
	HasRuntimeRisks   bool

	// HasRealRuleChanges is true when the rule-based change list contains at
	// least one non-sentinel entry.
	HasRealRuleChanges bool

	// IsAlreadyOptimal is true when the rule-based change list exists solely
	// to report the sentinel.
	IsAlreadyOptimal bool

	// HasRealAIChanges is true when an AI winning model is present and its
	// applied-changes list is non-empty.
	HasRealAIChanges bool

	HasOptimizerFindings bool

	// HasAnyExplanation is the OR of the four explanation flags above.
	HasAnyExplanation bool
}

// Classify computes the flags for result without mutating it.
func Classify(result *pipeline.Result) Flags {
	var flags Flags
	if result == nil {
		return flags
	}

	flags.HasSecurityIssues = len(result.ErrorReport.Security) > 0
	flags.HasRuntimeRisks = len(result.ErrorReport.RuntimeRisks) > 0

	if len(result.L1Changes) > 0 {
		flags.HasRealRuleChanges = !allSentinel(result.L1Changes)
		flags.IsAlreadyOptimal = !flags.HasRealRuleChanges
	}

	flags.HasRealAIChanges = result.L2.WinningModel != "" && len(result.L2.ChangesApplied) > 0
	flags.HasOptimizerFindings = len(result.ErrorReport.Optimization.Findings) > 0

	flags.HasAnyExplanation = flags.HasRealRuleChanges ||
		flags.HasRealAIChanges ||
		flags.HasOptimizerFindings ||
		flags.IsAlreadyOptimal

	return flags
}

// IsSentinel reports whether change is a "no applicable optimization" entry.
func IsSentinel(change string) bool {
	return strings.Contains(strings.ToLower(change), sentinelMatch)
}

func allSentinel(changes []string) bool {
	for _, change := range changes {
		if !IsSentinel(change) {
			return false
		}
	}
	return true
}
