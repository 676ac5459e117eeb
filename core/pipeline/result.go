// Package pipeline defines the wire types for the optimizer backend's
// analysis pipeline. A Result is the JSON document returned by the analyse
// endpoint: stage flags, the pre-flight error report, complexity analyses of
// the original and optimized code, and per-level optimization metadata.
//
// Field names and JSON tags mirror the backend's snake_case payload exactly;
// this package never interprets the result; see the explain package for the
// presentation-level classification.
package pipeline

// Level is the optimization mode requested for a run.
type Level string

const (
	// LevelNone analyses the code without optimizing it.
	LevelNone Level = "none"
	// LevelRule runs the rule-based (AST rewrite) optimizer.
	LevelRule Level = "level1"
	// LevelAI runs the multi-model AI optimizer.
	LevelAI Level = "level2"
)

// Valid reports whether l is a member of the closed level set.
func (l Level) Valid() bool {
	switch l {
	case LevelNone, LevelRule, LevelAI:
		return true
	}
	return false
}

// Result is the unified document produced by one pipeline run.
type Result struct {
	// Stage flags
	PassedErrorCheck bool `json:"passed_error_check"`
	PassedComplexity bool `json:"passed_complexity"`
	OptimizationRan  bool `json:"optimization_ran"`

	// Stage payloads
	ErrorReport       ErrorReport `json:"error_report"`
	OriginalAnalysis  Analysis    `json:"original_analysis"`
	OptimizedAnalysis Analysis    `json:"optimized_analysis"`

	// Code snapshots
	OriginalCode      string `json:"original_code"`
	OptimizedCode     string `json:"optimized_code"`
	OptimizationLevel Level  `json:"optimization_level"`

	// Rule-based (level1) change summaries, order-significant for display.
	L1Changes []string `json:"l1_changes"`

	// AI (level2) outcome. Zero value when the AI optimizer did not run.
	L2 AIOutcome `json:"l2"`

	// Error is the top-level abort reason; empty on success.
	Error string `json:"error,omitempty"`
}

// AIOutcome carries the AI optimizer's winning result and model ranking.
type AIOutcome struct {
	WinningModel          string        `json:"winning_model"`
	Score                 float64       `json:"score"`
	Confidence            float64       `json:"confidence"`
	Risk                  string        `json:"risk"`
	ChangesApplied        []string      `json:"changes_applied"`
	AdditionalSuggestions []string      `json:"additional_suggestions"`
	RankedModels          []RankedModel `json:"ranked_models"`
	SyntaxValid           bool          `json:"syntax_valid"`
}

// RankedModel is one candidate model's scored attempt.
type RankedModel struct {
	Model      string  `json:"model"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Risk       string  `json:"risk"`
	SyntaxOK   bool    `json:"syntax_ok"`
	LatencyMS  float64 `json:"latency_ms"`
	Error      string  `json:"error,omitempty"`
}
