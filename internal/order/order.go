// Package order defines the coffee order collected by the barista agent.
package order

import (
	"regexp"
	"strings"
	"time"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/slotfill"
)

// Fields is the order in which a coffee order is collected.
var Fields = []slotfill.Field{
	{Key: "drinkType", Label: "Drink", Question: "What would you like to drink today?"},
	{Key: "size", Label: "Size", Question: "What size would you like: small, medium or large?"},
	{Key: "milk", Label: "Milk", Question: "Which milk should I use?"},
	{Key: "extras", Label: "Extras", Question: "Any extras, like an extra shot or caramel? Say none if not."},
	{Key: "name", Label: "Name", Question: "And what name should I put on the order?"},
}

// Greeting opens every barista session.
const Greeting = "Hi, I'm Ram, your barista today. Let's get your coffee order started."

// Lines are the barista's sentences.
var Lines = slotfill.Lines{
	Ack:          "Got it, %s noted.",
	Prompt:       "Could you tell me your %s?",
	FinishHint:   "",
	AnythingElse: "Your order is already complete.",
	Summary:      slotfill.RenderSummary("Here's your order:", "Your coffee will be ready shortly. Thank you!"),
}

// Order is one persisted coffee order.
type Order struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	SavedAt   time.Time `json:"saved_at"`
	DrinkType string    `json:"drinkType"`
	Size      string    `json:"size"`
	Milk      string    `json:"milk"`
	Extras    []string  `json:"extras"`
	Name      string    `json:"name"`
}

// NewController returns the barista controller. The order completes as soon
// as every field is filled; there are no end-trigger phrases.
func NewController() (*slotfill.Controller, error) {
	return slotfill.New(slotfill.Config{
		Fields:             Fields,
		EndTriggers:        []string{},
		CompleteWhenFilled: true,
		Lines:              Lines,
	})
}

// FromValues builds an order from slot values keyed by field key.
func FromValues(values map[string]string) Order {
	return Order{
		DrinkType: values["drinkType"],
		Size:      values["size"],
		Milk:      values["milk"],
		Extras:    ParseExtras(values["extras"]),
		Name:      values["name"],
	}
}

var extrasSep = regexp.MustCompile(`\s*(?:,|\band\b|&)\s*`)

var noExtras = map[string]bool{"none": true, "no": true, "nothing": true, "no extras": true, "nope": true}

// ParseExtras splits a spoken list of extras. "none", "no" and "nothing" mean no extras.
func ParseExtras(s string) []string {
	s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".!"))
	if noExtras[strings.ToLower(s)] || s == "" {
		return []string{}
	}
	out := []string{}
	for _, part := range extrasSep.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
