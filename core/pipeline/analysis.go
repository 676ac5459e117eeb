package pipeline

// Analysis is one complexity analysis of a code snapshot.
type Analysis struct {
	LOC       LOC                `json:"loc"`
	Halstead  Halstead           `json:"halstead"`
	Functions []FunctionAnalysis `json:"functions"`

	TotalCyclomaticComplexity int     `json:"total_cyclomatic_complexity"`
	MaintainabilityIndex      float64 `json:"maintainability_index"`
	MILabel                   string  `json:"mi_label"`

	// BigODistribution counts functions per estimated complexity class,
	// e.g. {"O(n)": 2, "O(n^2)": 1}.
	BigODistribution map[string]int `json:"big_o_distribution"`

	// Error is set when the snapshot failed to parse; all other fields are
	// zero in that case.
	Error string `json:"error,omitempty"`
}

// IsZero reports whether the analysis carries no data, which is how the
// backend represents "analysis never ran" for this snapshot.
func (a Analysis) IsZero() bool {
	return a.Error == "" && len(a.Functions) == 0 && a.LOC.Total == 0 &&
		a.TotalCyclomaticComplexity == 0 && len(a.BigODistribution) == 0
}

// LOC is a line-count breakdown.
type LOC struct {
	Total   int `json:"total"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
}

// Halstead carries the Halstead software-science metrics.
type Halstead struct {
	DistinctOperators int     `json:"distinct_operators"`
	DistinctOperands  int     `json:"distinct_operands"`
	TotalOperators    int     `json:"total_operators"`
	TotalOperands     int     `json:"total_operands"`
	Volume            float64 `json:"volume"`
	Difficulty        float64 `json:"difficulty"`
	Effort            float64 `json:"effort"`
	TimeToProgram     float64 `json:"time_to_program"`
	BugsDelivered     float64 `json:"bugs_delivered"`
}

// FunctionAnalysis is the per-function slice of an Analysis. Signals is the
// raw analyzer output, passed through untyped for display.
type FunctionAnalysis struct {
	Name                 string         `json:"name"`
	Line                 int            `json:"line"`
	TimeComplexity       string         `json:"time_complexity"`
	SpaceComplexity      string         `json:"space_complexity"`
	CyclomaticComplexity int            `json:"cyclomatic_complexity"`
	Signals              map[string]any `json:"signals"`
	LOC                  LOC            `json:"loc"`
	Halstead             Halstead       `json:"halstead"`
	MaintainabilityIndex float64        `json:"maintainability_index"`
	MILabel              string         `json:"mi_label"`
}
