// Package session implements the dual-store session persistence layer: a
// chronological history of optimization runs and a curated library of
// user-saved runs, kept over a shared key-value substrate with identity
// reconciled between the two collections.
package session

import (
	"strings"

	"github.com/google/uuid"
	"github.com/opticode/core/core/pipeline"
)

// Record is one persisted optimization run. JSON tags match the remote
// session API payload, so a Record round-trips unchanged between the local
// cache and the gateway.
type Record struct {
	// ID is the opaque session identifier, unique across the union of the
	// history and library collections. Assigned on first save, immutable
	// thereafter.
	ID string `json:"id"`

	// Name is the user-visible label. Blank names are replaced with a
	// placeholder derived from the ID.
	Name string `json:"name"`

	// Email identifies the owning account; empty for anonymous local runs.
	Email string `json:"email,omitempty"`

	Level pipeline.Level `json:"optimization_level"`

	// Code snapshots. Immutable once a run completes; a re-run under the same
	// ID replaces them wholesale together with the analyses and metrics.
	OriginalCode  string `json:"original_code"`
	OptimizedCode string `json:"optimized_code"`

	OriginalAnalysis  pipeline.Analysis `json:"original_analysis"`
	OptimizedAnalysis pipeline.Analysis `json:"optimized_analysis"`

	// L1Changes and L2 are the per-level explanation payloads,
	// order-significant for display, never deduplicated.
	L1Changes []string           `json:"l1_changes"`
	L2        pipeline.AIOutcome `json:"l2"`

	ErrorReport pipeline.ErrorReport `json:"error_report"`

	// Metrics is the quality snapshot of the optimized code. It is not
	// independently mutable; it is replaced with the code it measures.
	Metrics Metrics `json:"metrics"`

	SavedAt Timestamp `json:"saved_at"`
}

// Metrics is a numeric quality snapshot associated with one code snapshot.
type Metrics struct {
	CyclomaticComplexity int     `json:"cyclomatic_complexity"`
	MaintainabilityIndex float64 `json:"maintainability_index"`
	LinesOfCode          int     `json:"lines_of_code"`
	// SpeedupEstimate is the Halstead-effort ratio of original to optimized
	// code: a rough "how much cheaper did this get" signal, 1.0 when unchanged.
	SpeedupEstimate float64 `json:"speedup_estimate"`
}

// FromResult builds a Record from a completed pipeline run. The record
// carries no ID or name; both are assigned on first save.
func FromResult(result *pipeline.Result) Record {
	analysis := result.OptimizedAnalysis
	if analysis.IsZero() {
		analysis = result.OriginalAnalysis
	}

	speedup := 1.0
	if orig, opt := result.OriginalAnalysis.Halstead.Effort, analysis.Halstead.Effort; orig > 0 && opt > 0 {
		speedup = orig / opt
	}

	return Record{
		Level:             result.OptimizationLevel,
		OriginalCode:      result.OriginalCode,
		OptimizedCode:     result.OptimizedCode,
		OriginalAnalysis:  result.OriginalAnalysis,
		OptimizedAnalysis: result.OptimizedAnalysis,
		L1Changes:         result.L1Changes,
		L2:                result.L2,
		ErrorReport:       result.ErrorReport,
		Metrics: Metrics{
			CyclomaticComplexity: analysis.TotalCyclomaticComplexity,
			MaintainabilityIndex: analysis.MaintainabilityIndex,
			LinesOfCode:          analysis.LOC.Code,
			SpeedupEstimate:      speedup,
		},
	}
}

// PlaceholderName derives the default label for an unnamed session. Full
// UUIDs make unusable labels, so the slug keeps the first ID segment only.
func PlaceholderName(id string) string {
	slug := id
	if len(slug) > 8 {
		slug = slug[:8]
	}
	return "Session-" + slug
}

// finalize assigns identity and defaults before the record is persisted:
// a time-ordered UUID when the ID is absent, a placeholder name when the name
// is blank, and the save instant when unset.
func (r *Record) finalize(now Timestamp) {
	if r.ID == "" {
		r.ID = uuid.Must(uuid.NewV7()).String()
	}
	if strings.TrimSpace(r.Name) == "" {
		r.Name = PlaceholderName(r.ID)
	}
	if r.SavedAt.IsZero() {
		r.SavedAt = now
	}
}

// User is the current-user marker stored alongside the collections.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
