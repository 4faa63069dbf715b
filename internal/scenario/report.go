package scenario

import (
	"fmt"
	"strings"

	"github.com/aretw0/remodel/pkg/domain"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index    int          `json:"index"`
	Name     string       `json:"name"`
	Phase    domain.Phase `json:"phase"`
	Error    string       `json:"error,omitempty"`
	Passed   bool         `json:"passed"`
	Failures []string     `json:"failures,omitempty"`
}

// Report is the outcome of a scenario run.
type Report struct {
	Scenario    string               `json:"scenario"`
	Description string               `json:"description,omitempty"`
	Family      domain.Family        `json:"family"`
	Steps       []StepResult         `json:"steps"`
	Final       *domain.Snapshot     `json:"final"`
	Commands    []domain.CommandKind `json:"commands"`
}

// Passed reports whether every step met its expectations.
func (r *Report) Passed() bool {
	return r.FailedSteps() == 0
}

// FailedSteps counts the steps with at least one failed expectation.
func (r *Report) FailedSteps() int {
	n := 0
	for _, st := range r.Steps {
		if !st.Passed {
			n++
		}
	}
	return n
}

// Markdown renders the report for the terminal renderer.
func (r *Report) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", r.Scenario)
	if r.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", r.Description)
	}
	status := "✅ passed"
	if !r.Passed() {
		status = fmt.Sprintf("❌ %d of %d steps failed", r.FailedSteps(), len(r.Steps))
	}
	fmt.Fprintf(&sb, "**Family:** %s · **Result:** %s\n\n", r.Family.Title(), status)

	sb.WriteString("| # | Step | Phase | Result |\n")
	sb.WriteString("|---|------|-------|--------|\n")
	for _, st := range r.Steps {
		mark := "✅"
		if !st.Passed {
			mark = "❌"
		}
		result := mark
		if st.Error != "" {
			result += " " + escapeCell(st.Error)
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", st.Index, escapeCell(st.Name), st.Phase, result)
	}

	if !r.Passed() {
		sb.WriteString("\n## Failures\n\n")
		for _, st := range r.Steps {
			for _, f := range st.Failures {
				fmt.Fprintf(&sb, "- step %d (%s): %s\n", st.Index, st.Name, f)
			}
		}
	}

	if r.Final != nil {
		sb.WriteString("\n## Final state\n\n")
		fmt.Fprintf(&sb, "- **Phase:** %s\n", r.Final.Phase)
		fmt.Fprintf(&sb, "- **Visited:** %s\n", joinPhases(r.Final.Visited))
		fmt.Fprintf(&sb, "- **Paint:** %s\n", r.Final.Selection.Paint.Name)
		if len(r.Commands) > 0 {
			fmt.Fprintf(&sb, "- **Engine commands:** %d\n", len(r.Commands))
		}
	}
	return sb.String()
}

func joinPhases(phases []domain.Phase) string {
	parts := make([]string, len(phases))
	for i, p := range phases {
		parts[i] = string(p)
	}
	return strings.Join(parts, " → ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
