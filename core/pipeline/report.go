package pipeline

import "encoding/json"

// ErrorReport is the pre-flight check report. The backend gates on language
// and syntax (setting Aborted and stopping), then collects security findings,
// runtime risks, and optimization-readiness findings without blocking.
type ErrorReport struct {
	Language LanguageCheck `json:"language"`
	// Syntax is "OK" or a syntax error description.
	Syntax string `json:"syntax,omitempty"`
	// Aborted is set when the language or syntax gate rejected the code.
	Aborted      string    `json:"aborted,omitempty"`
	Security     []string  `json:"security"`
	RuntimeRisks []string  `json:"runtime_risks"`
	Optimization Readiness `json:"optimization"`
}

// LanguageCheck is the result of the language validation gate.
type LanguageCheck struct {
	IsPython bool   `json:"is_python"`
	Reason   string `json:"reason"`
}

// Readiness reports structures with optimization potential.
type Readiness struct {
	Optimizable  bool      `json:"optimizable"`
	FindingCount int       `json:"finding_count"`
	Findings     []Finding `json:"findings"`
}

// Finding is one optimization-readiness observation tied to a source line.
type Finding struct {
	Type       string `json:"type"`
	Line       int    `json:"line"`
	Name       string `json:"name,omitempty"`
	Suggestion string `json:"suggestion"`
}

// UnmarshalJSON tolerates the backend's placeholder line marker ("?", emitted
// for synthesized AST nodes with no position); a non-numeric line decodes as 0.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       string          `json:"type"`
		Line       json.RawMessage `json:"line"`
		Name       string          `json:"name"`
		Suggestion string          `json:"suggestion"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Type = raw.Type
	f.Name = raw.Name
	f.Suggestion = raw.Suggestion
	f.Line = 0
	if len(raw.Line) > 0 {
		var line int
		if err := json.Unmarshal(raw.Line, &line); err == nil {
			f.Line = line
		}
	}
	return nil
}
