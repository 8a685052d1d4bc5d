// Package render turns decisions and traces into terminal text.
//
// Rendering is a presentation concern layered on top of the session store: a
// decision is committed to the model the moment it is recorded, independent
// of how long any reveal takes to finish.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sentinelops/copilot/internal/types"
)

var (
	summaryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	riskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	agentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("cyan"))

	pillStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))

	warnPillStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// Decision renders a final decision as summary, risk score, and numbered
// recommendations.
func Decision(final *types.FinalDecision) string {
	if final == nil {
		return "No decision."
	}

	var b strings.Builder
	b.WriteString(summaryStyle.Render(final.Summary))
	b.WriteString("\n")
	b.WriteString(riskStyle.Render(fmt.Sprintf("Risk score: %.2f", final.RiskScore)))
	for i, rec := range final.Recommendations {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, rec))
	}
	return b.String()
}

// Trace renders the agent trace: one block per step with agent, confidence,
// rationale, and any tool-call or policy-hit pills.
func Trace(steps []types.AgentStep) string {
	if len(steps) == 0 {
		return "No trace."
	}

	var b strings.Builder
	for i, step := range steps {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(agentStyle.Render(step.Agent))
		b.WriteString(riskStyle.Render(fmt.Sprintf("  conf %.2f", step.Confidence)))
		if step.Rationale != "" {
			b.WriteString("\n" + step.Rationale)
		}
		if len(step.ToolCalls) > 0 {
			names := make([]string, len(step.ToolCalls))
			for j, call := range step.ToolCalls {
				names[j] = pillStyle.Render("[" + call.Name + "]")
			}
			b.WriteString("\n" + strings.Join(names, " "))
		}
		if len(step.PolicyHits) > 0 {
			hits := make([]string, len(step.PolicyHits))
			for j, hit := range step.PolicyHits {
				hits[j] = warnPillStyle.Render("[" + hit + "]")
			}
			b.WriteString("\n" + strings.Join(hits, " "))
		}
		if len(step.Outputs) > 0 {
			keys := make([]string, 0, len(step.Outputs))
			for k := range step.Outputs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				b.WriteString(fmt.Sprintf("\n  %s: %v", k, step.Outputs[k]))
			}
		}
	}
	return b.String()
}

// Typewriter reveals text on w one rune at a time. A zero or negative delay
// writes the whole text at once.
func Typewriter(w io.Writer, text string, delay time.Duration) {
	if delay <= 0 {
		io.WriteString(w, text)
		return
	}
	for _, r := range text {
		io.WriteString(w, string(r))
		time.Sleep(delay)
	}
}
