// Package slotfill implements an ordered slot-filling dialogue: each utterance
// fills the next empty field of a record until the caller ends the session
// or, for controllers configured to do so, the record is complete.
//
// The controller is pure. Handle never mutates the state it is given and
// performs no I/O; persistence is returned to the caller as part of the Turn.
package slotfill

import (
	"fmt"
	"strings"
)

// Field is one slot of the record being collected.
type Field struct {
	// Key is the persisted name, e.g. "use_case".
	Key string
	// Label is the human-facing name, e.g. "Use Case".
	Label string
	// Question, when set, replaces the generic prompt for this field.
	Question string
}

// Spoken returns the lower-cased label used inside prompts.
func (f Field) Spoken() string {
	if f.Label == "" {
		return strings.ReplaceAll(f.Key, "_", " ")
	}
	return strings.ToLower(f.Label)
}

// Matcher answers a query from a static knowledge list.
type Matcher interface {
	Match(query string) (string, bool)
}

// Lines are the sentences a controller speaks.
type Lines struct {
	Ack          string // format, field
	Prompt       string // format, field
	FinishHint   string
	AnythingElse string
	// Summary renders the final record; unset fields hold "".
	Summary func(fields []Field, values map[string]string) string
}

// DefaultLines are the sales-agent sentences.
var DefaultLines = Lines{
	Ack:          "Great, noted your %s.",
	Prompt:       "Could you tell me your %s?",
	FinishHint:   "Thanks! Say 'That's all' to finish.",
	AnythingElse: "Thanks! Feel free to ask anything else!",
	Summary:      RenderSummary("Here’s your summary:", "Thank you!"),
}

// DefaultEndTriggers end a session when contained in an utterance.
var DefaultEndTriggers = []string{"that's all", "thanks", "bye", "i'm done"}

// Config describes a controller.
type Config struct {
	Fields      []Field
	EndTriggers []string
	// FAQ, when set, is consulted for every utterance that does not end the session.
	FAQ Matcher
	// CompleteWhenFilled ends the session as soon as the last field is filled.
	CompleteWhenFilled bool
	Lines              Lines
}

// Controller decides the next prompt for an ordered field list.
type Controller struct {
	cfg Config
}

// State is one session's partially filled record.
type State struct {
	Values map[string]string
	Done   bool
}

// Reason says why a session ended.
type Reason string

const (
	ReasonEndTrigger Reason = "end_trigger"
	ReasonComplete   Reason = "complete"
)

// Turn is the controller's response to one utterance.
type Turn struct {
	Messages []string
	// FAQHit is set when an FAQ answer was added to Messages.
	FAQHit bool
	// Filled is the key of the field filled by this utterance, if any.
	Filled string
	// Save holds the final record when the session ended in this turn.
	Save map[string]string
	// Done is set on the turn that ends the session.
	Done   bool
	Reason Reason
}

// New validates cfg and returns a controller.
func New(cfg Config) (*Controller, error) {
	if len(cfg.Fields) == 0 {
		return nil, fmt.Errorf("slotfill: no fields")
	}
	seen := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if f.Key == "" {
			return nil, fmt.Errorf("slotfill: field with empty key")
		}
		if seen[f.Key] {
			return nil, fmt.Errorf("slotfill: duplicate field %q", f.Key)
		}
		seen[f.Key] = true
	}
	if cfg.Lines.Summary == nil {
		return nil, fmt.Errorf("slotfill: summary renderer is required")
	}
	triggers := make([]string, len(cfg.EndTriggers))
	for i, t := range cfg.EndTriggers {
		triggers[i] = strings.ToLower(t)
	}
	cfg.EndTriggers = triggers
	return &Controller{cfg: cfg}, nil
}

// Fields returns the declared field order.
func (c *Controller) Fields() []Field {
	out := make([]Field, len(c.cfg.Fields))
	copy(out, c.cfg.Fields)
	return out
}

// Start returns an empty state and the prompt for the first field.
func (c *Controller) Start() (State, string) {
	return State{Values: map[string]string{}}, c.prompt(c.cfg.Fields[0])
}

// Handle consumes one utterance.
func (c *Controller) Handle(st State, text string) (State, Turn) {
	next := st.clone()
	if st.Done {
		return next, Turn{Done: true}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return next, Turn{}
	}

	var turn Turn
	lower := strings.ToLower(text)
	if c.isEndTrigger(lower) {
		return c.finish(next, turn, ReasonEndTrigger)
	}

	if c.cfg.FAQ != nil {
		if answer, ok := c.cfg.FAQ.Match(text); ok {
			turn.Messages = append(turn.Messages, answer)
			turn.FAQHit = true
		}
	}

	i := c.nextEmpty(next)
	if i < 0 {
		turn.Messages = append(turn.Messages, c.cfg.Lines.AnythingElse)
		return next, turn
	}

	f := c.cfg.Fields[i]
	next.Values[f.Key] = text
	turn.Filled = f.Key
	turn.Messages = append(turn.Messages, fmt.Sprintf(c.cfg.Lines.Ack, f.Spoken()))

	if i+1 < len(c.cfg.Fields) {
		turn.Messages = append(turn.Messages, c.prompt(c.cfg.Fields[i+1]))
		return next, turn
	}
	if c.cfg.CompleteWhenFilled {
		return c.finish(next, turn, ReasonComplete)
	}
	turn.Messages = append(turn.Messages, c.cfg.Lines.FinishHint)
	return next, turn
}

// Missing returns the fields not yet filled, in declared order.
func (c *Controller) Missing(st State) []Field {
	var out []Field
	for _, f := range c.cfg.Fields {
		if _, ok := st.Values[f.Key]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// Record returns every declared field with unset ones as "".
func (c *Controller) Record(st State) map[string]string {
	rec := make(map[string]string, len(c.cfg.Fields))
	for _, f := range c.cfg.Fields {
		rec[f.Key] = st.Values[f.Key]
	}
	return rec
}

func (c *Controller) finish(st State, turn Turn, reason Reason) (State, Turn) {
	rec := c.Record(st)
	st.Done = true
	turn.Messages = append(turn.Messages, c.cfg.Lines.Summary(c.Fields(), rec))
	turn.Save = rec
	turn.Done = true
	turn.Reason = reason
	return st, turn
}

func (c *Controller) prompt(f Field) string {
	if f.Question != "" {
		return f.Question
	}
	return fmt.Sprintf(c.cfg.Lines.Prompt, f.Spoken())
}

func (c *Controller) isEndTrigger(lower string) bool {
	for _, t := range c.cfg.EndTriggers {
		if t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func (c *Controller) nextEmpty(st State) int {
	for i, f := range c.cfg.Fields {
		if _, ok := st.Values[f.Key]; !ok {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	values := make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	return State{Values: values, Done: s.Done}
}

// RenderSummary returns a summary renderer that lists every field as
// "Label: value" between a header and a footer. Unset fields read "none".
func RenderSummary(header, footer string) func([]Field, map[string]string) string {
	return func(fields []Field, values map[string]string) string {
		var b strings.Builder
		b.WriteString(header)
		b.WriteString("\n\n")
		for _, f := range fields {
			v := values[f.Key]
			if v == "" {
				v = "none"
			}
			label := f.Label
			if label == "" {
				label = f.Key
			}
			fmt.Fprintf(&b, "%s: %s\n", label, v)
		}
		if footer != "" {
			b.WriteString("\n")
			b.WriteString(footer)
		}
		return b.String()
	}
}
