package handoff

import (
	"github.com/opticode/core/core/pipeline"
	"github.com/opticode/core/session"
)

// PageState is the optimizer page's reconstructed view of a session. Every
// collection field is non-nil and every nested sub-object is present, so
// rendering code never has to guard against absent fields.
type PageState struct {
	SessionID string
	Name      string
	Level     pipeline.Level

	OriginalCode  string
	OptimizedCode string

	OriginalAnalysis  pipeline.Analysis
	OptimizedAnalysis pipeline.Analysis

	RuleChanges   []string
	AIChanges     []string
	AISuggestions []string
	AIOutcome     pipeline.AIOutcome

	SecurityIssues []string
	RuntimeRisks   []string
	Findings       []pipeline.Finding
}

// HydratePage builds the page state for rec, defaulting every missing nested
// field to an empty or neutral value. A nil rec yields the fresh/default
// state used when no hydration applies.
func HydratePage(rec *session.Record) PageState {
	state := PageState{
		Level:          pipeline.LevelNone,
		RuleChanges:    []string{},
		AIChanges:      []string{},
		AISuggestions:  []string{},
		SecurityIssues: []string{},
		RuntimeRisks:   []string{},
		Findings:       []pipeline.Finding{},
	}
	state.OriginalAnalysis = normalizeAnalysis(pipeline.Analysis{})
	state.OptimizedAnalysis = normalizeAnalysis(pipeline.Analysis{})
	state.AIOutcome = normalizeOutcome(pipeline.AIOutcome{})
	if rec == nil {
		return state
	}

	state.SessionID = rec.ID
	state.Name = rec.Name
	if rec.Level.Valid() {
		state.Level = rec.Level
	}
	state.OriginalCode = rec.OriginalCode
	state.OptimizedCode = rec.OptimizedCode
	state.OriginalAnalysis = normalizeAnalysis(rec.OriginalAnalysis)
	state.OptimizedAnalysis = normalizeAnalysis(rec.OptimizedAnalysis)

	state.RuleChanges = orEmpty(rec.L1Changes)
	state.AIOutcome = normalizeOutcome(rec.L2)
	state.AIChanges = state.AIOutcome.ChangesApplied
	state.AISuggestions = state.AIOutcome.AdditionalSuggestions

	state.SecurityIssues = orEmpty(rec.ErrorReport.Security)
	state.RuntimeRisks = orEmpty(rec.ErrorReport.RuntimeRisks)
	if rec.ErrorReport.Optimization.Findings != nil {
		state.Findings = rec.ErrorReport.Optimization.Findings
	}

	return state
}

func normalizeAnalysis(a pipeline.Analysis) pipeline.Analysis {
	if a.Functions == nil {
		a.Functions = []pipeline.FunctionAnalysis{}
	}
	if a.BigODistribution == nil {
		a.BigODistribution = map[string]int{}
	}
	return a
}

func normalizeOutcome(o pipeline.AIOutcome) pipeline.AIOutcome {
	o.ChangesApplied = orEmpty(o.ChangesApplied)
	o.AdditionalSuggestions = orEmpty(o.AdditionalSuggestions)
	if o.RankedModels == nil {
		o.RankedModels = []pipeline.RankedModel{}
	}
	return o
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
