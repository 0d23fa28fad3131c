// Package lead defines the sales-qualification record collected by the SDR agent.
package lead

import (
	"time"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/slotfill"
)

// Fields is the order in which a lead is collected.
var Fields = []slotfill.Field{
	{Key: "name", Label: "Name"},
	{Key: "company", Label: "Company"},
	{Key: "email", Label: "Email"},
	{Key: "role", Label: "Role"},
	{Key: "use_case", Label: "Use Case"},
	{Key: "team_size", Label: "Team Size"},
	{Key: "timeline", Label: "Timeline"},
}

// Outcome records how a lead session ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeAbandoned Outcome = "abandoned"
)

// Record is one persisted lead.
type Record struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Outcome   Outcome           `json:"outcome"`
	SavedAt   time.Time         `json:"saved_at"`
	Fields    map[string]string `json:"fields"`
}

// Greeting opens every SDR session.
const Greeting = "Hi, thanks for calling Swiggy! I can answer questions about Swiggy for Business and help set up a follow-up with our team."

// Lines are the SDR agent's sentences.
var Lines = slotfill.Lines{
	Ack:          slotfill.DefaultLines.Ack,
	Prompt:       slotfill.DefaultLines.Prompt,
	FinishHint:   slotfill.DefaultLines.FinishHint,
	AnythingElse: slotfill.DefaultLines.AnythingElse,
	Summary:      slotfill.RenderSummary("Here’s your summary:", "Thank you for speaking with Swiggy SDR!"),
}

// NewController returns the SDR slot-filling controller. faq may be nil.
func NewController(faq slotfill.Matcher) (*slotfill.Controller, error) {
	return slotfill.New(slotfill.Config{
		Fields:      Fields,
		EndTriggers: slotfill.DefaultEndTriggers,
		FAQ:         faq,
		Lines:       Lines,
	})
}
