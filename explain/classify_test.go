package explain_test

import (
	"testing"

	"github.com/opticode/core/core/pipeline"
	"github.com/opticode/core/explain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		result *pipeline.Result
		want   explain.Flags
	}{
		{
			name:   "nil result",
			result: nil,
			want:   explain.Flags{},
		},
		{
			name:   "empty result",
			result: &pipeline.Result{},
			want:   explain.Flags{},
		},
		{
			name: "sentinel only is already optimal",
			result: &pipeline.Result{
				L1Changes: []string{explain.SentinelNoRuleChanges},
			},
			want: explain.Flags{
				IsAlreadyOptimal:  true,
				HasAnyExplanation: true,
			},
		},
		{
			name: "sentinel suffix variant still matches",
			result: &pipeline.Result{
				L1Changes: []string{"No rule-based optimizations applicable"},
			},
			want: explain.Flags{
				IsAlreadyOptimal:  true,
				HasAnyExplanation: true,
			},
		},
		{
			name: "real rule changes",
			result: &pipeline.Result{
				L1Changes: []string{"Removed double negation (not not x → x)"},
			},
			want: explain.Flags{
				HasRealRuleChanges: true,
				HasAnyExplanation:  true,
			},
		},
		{
			name: "mixed sentinel and real change counts as real",
			result: &pipeline.Result{
				L1Changes: []string{
					explain.SentinelNoRuleChanges,
					"Folded arithmetic identity (x + 0 → x)",
				},
			},
			want: explain.Flags{
				HasRealRuleChanges: true,
				HasAnyExplanation:  true,
			},
		},
		{
			name: "ai changes require a winning model",
			result: &pipeline.Result{
				L2: pipeline.AIOutcome{ChangesApplied: []string{"hoisted invariant"}},
			},
			want: explain.Flags{},
		},
		{
			name: "ai changes with winning model",
			result: &pipeline.Result{
				L2: pipeline.AIOutcome{
					WinningModel:   "model-a",
					ChangesApplied: []string{"hoisted invariant"},
				},
			},
			want: explain.Flags{
				HasRealAIChanges:  true,
				HasAnyExplanation: true,
			},
		},
		{
			name: "winning model without changes is not an explanation",
			result: &pipeline.Result{
				L2: pipeline.AIOutcome{WinningModel: "model-a"},
			},
			want: explain.Flags{},
		},
		{
			name: "security and runtime findings do not gate explanations",
			result: &pipeline.Result{
				ErrorReport: pipeline.ErrorReport{
					Security:     []string{"eval() usage"},
					RuntimeRisks: []string{"unbounded recursion"},
				},
			},
			want: explain.Flags{
				HasSecurityIssues: true,
				HasRuntimeRisks:   true,
			},
		},
		{
			name: "optimizer findings",
			result: &pipeline.Result{
				ErrorReport: pipeline.ErrorReport{
					Optimization: pipeline.Readiness{
						Findings: []pipeline.Finding{{Type: "loop", Line: 2}},
					},
				},
			},
			want: explain.Flags{
				HasOptimizerFindings: true,
				HasAnyExplanation:    true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := explain.Classify(tt.result)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		change string
		want   bool
	}{
		{explain.SentinelNoRuleChanges, true},
		{"no rule-based optimizations applicable", true},
		{"NO RULE-BASED OPTIMIZATIONS APPLICABLE - already optimal", true},
		{"Removed double negation", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := explain.IsSentinel(tt.change); got != tt.want {
			t.Errorf("IsSentinel(%q) = %v, want %v", tt.change, got, tt.want)
		}
	}
}
