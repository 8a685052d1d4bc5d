package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelops/copilot/internal/types"
)

func TestDecision(t *testing.T) {
	t.Run("nil decision", func(t *testing.T) {
		assert.Equal(t, "No decision.", Decision(nil))
	})

	t.Run("summary, risk, and numbered recommendations", func(t *testing.T) {
		out := Decision(&types.FinalDecision{
			Summary:         "Credential stuffing likely.",
			Recommendations: []string{"Reset the password", "Review sign-in logs"},
			RiskScore:       0.72,
		})
		assert.Contains(t, out, "Credential stuffing likely.")
		assert.Contains(t, out, "Risk score: 0.72")
		assert.Contains(t, out, "1. Reset the password")
		assert.Contains(t, out, "2. Review sign-in logs")
	})
}

func TestTrace(t *testing.T) {
	t.Run("empty trace", func(t *testing.T) {
		assert.Equal(t, "No trace.", Trace(nil))
	})

	t.Run("steps with pills", func(t *testing.T) {
		out := Trace([]types.AgentStep{
			{
				Agent:      "triage",
				Confidence: 0.91,
				Rationale:  "Matched known pattern",
				ToolCalls:  []types.ToolCall{{Name: "geoip.lookup"}},
				PolicyHits: []string{"mfa-missing"},
			},
			{Agent: "recommender", Confidence: 0.66},
		})
		assert.Contains(t, out, "triage")
		assert.Contains(t, out, "conf 0.91")
		assert.Contains(t, out, "Matched known pattern")
		assert.Contains(t, out, "geoip.lookup")
		assert.Contains(t, out, "mfa-missing")
		assert.Contains(t, out, "recommender")
	})
}

func TestTypewriter(t *testing.T) {
	var b strings.Builder
	Typewriter(&b, "hello", 0)
	assert.Equal(t, "hello", b.String())
}
