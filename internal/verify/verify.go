// Package verify runs the outbound fraud-verification call script.
//
// The script is a tagged-state machine. Each state expects exactly one reply
// from the caller; Advance consumes that reply, consults the case store and
// returns what to say next. Outcomes are returned as a Resolution for the
// caller to persist, never written by the script itself.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/fraud"
)

// State is a step of the call.
type State int

const (
	StateStart State = iota
	StateAwaitName
	StateAwaitAnswer
	StateAwaitConfirmation
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAwaitName:
		return "await_name"
	case StateAwaitAnswer:
		return "await_answer"
	case StateAwaitConfirmation:
		return "await_confirmation"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions is the full set of legal moves. Every state but Done may end the call.
var transitions = map[State][]State{
	StateStart:             {StateAwaitName, StateDone},
	StateAwaitName:         {StateAwaitAnswer, StateDone},
	StateAwaitAnswer:       {StateAwaitConfirmation, StateDone},
	StateAwaitConfirmation: {StateDone},
	StateDone:              {},
}

func canMove(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ErrFinished is returned when advancing a call that already ended.
var ErrFinished = errors.New("verification call already finished")

// Notes stored with each outcome.
const (
	NoteBadAnswer = "Bad security answer"
	NoteConfirmed = "User confirmed transaction"
	NoteFraud     = "User reported fraud"
	NoteUnclear   = "Unclear yes/no"
	NoteNoReply   = "No response before timeout"
	NoteHungUp    = "Caller disconnected"
)

// Lines are the scripted sentences of the call.
type Lines struct {
	Intro      string
	AskName    string
	NotFound   string
	Rejected   string
	Disclose   string // format: merchant, amount, card ending, time, location
	AskConfirm string
	Safe       string
	Fraud      string
	Unclear    string
	NoReply    string
}

// DefaultLines speak for the Axis Bank fraud monitoring unit.
var DefaultLines = Lines{
	Intro: "Hello, this is the Fraud Monitoring Unit calling on behalf of Axis Bank. " +
		"We detected a suspicious transaction on your account. " +
		"Before we proceed, I will verify one non-sensitive detail.",
	AskName:  "May I know your first name?",
	NotFound: "I could not find any pending fraud review. Please contact Axis Bank support. Ending the call.",
	Rejected: "That does not match our records. For security reasons, I must end this call.",
	Disclose: "Thank you. A transaction at %s for %s on your card ending %s was flagged. " +
		"It occurred on %s in %s.",
	AskConfirm: "Did you make this transaction? Yes or no?",
	Safe:       "Thank you. We will mark it as safe. Have a good day.",
	Fraud: "Thank you. We have marked it as fraudulent and placed a temporary block on your card. " +
		"Axis Bank support will contact you shortly.",
	Unclear: "I cannot continue without a clear yes or no. Ending the call.",
	NoReply: "I did not hear a response, so I am ending this call for your security. Please contact Axis Bank support.",
}

// CaseFinder looks up the case under review for a caller.
type CaseFinder interface {
	FindPending(ctx context.Context, userName string) (*fraud.Case, error)
}

// Call is the state of one verification call. Outcome is set once the
// call resolved its case.
type Call struct {
	State   State
	Case    *fraud.Case
	Outcome fraud.Status
}

// Resolution is the status change to persist for a case.
type Resolution struct {
	CaseID int64
	Status fraud.Status
	Note   string
}

// Step is what the agent does next. Ask, when set, is spoken after Say and
// the caller's reply to it goes to Advance.
type Step struct {
	Say     []string
	Ask     string
	Resolve *Resolution
	Done    bool
}

// Script drives verification calls against a case store.
type Script struct {
	cases CaseFinder
	lines Lines
}

// NewScript returns a script using DefaultLines.
func NewScript(cases CaseFinder) *Script {
	return &Script{cases: cases, lines: DefaultLines}
}

// WithLines returns a copy of the script speaking lines instead.
func (s *Script) WithLines(lines Lines) *Script {
	return &Script{cases: s.cases, lines: lines}
}

// Begin opens the call: introduction, then the name question.
func (s *Script) Begin() (Call, Step) {
	call := Call{State: StateStart}
	call = move(call, StateAwaitName)
	return call, Step{Say: []string{s.lines.Intro}, Ask: s.lines.AskName}
}

// Advance consumes the caller's reply to the current question.
// Store failures are returned as errors; a missing case is not an error.
func (s *Script) Advance(ctx context.Context, call Call, reply string) (Call, Step, error) {
	h, ok := handlers[call.State]
	if !ok {
		return call, Step{Done: true}, fmt.Errorf("advance from %s: %w", call.State, ErrFinished)
	}
	return h(s, ctx, call, reply)
}

// Abandon ends a call whose question went unanswered. A case that was
// identified but not yet resolved is marked verification_failed.
func (s *Script) Abandon(call Call) (Call, Step) {
	return s.end(call, []string{s.lines.NoReply}, NoteNoReply)
}

// HungUp ends a call the caller left. An identified, unresolved case is
// marked verification_failed with NoteHungUp. Nothing is said.
func (s *Script) HungUp(call Call) (Call, Step) {
	return s.end(call, nil, NoteHungUp)
}

// Interrupt ends a call cut off on our side. The case stays pending so the
// customer can be verified on a later call.
func (s *Script) Interrupt(call Call) (Call, Step) {
	return s.end(call, nil, "")
}

// end finishes call, failing an identified case with note unless note is empty.
func (s *Script) end(call Call, say []string, note string) (Call, Step) {
	if call.State == StateDone {
		return call, Step{Done: true}
	}
	step := Step{Say: say, Done: true}
	if note != "" && call.Case != nil && call.Outcome == "" {
		step.Resolve = resolution(call.Case, fraud.StatusVerificationFailed, note)
		call.Outcome = fraud.StatusVerificationFailed
	}
	return move(call, StateDone), step
}

type handler func(s *Script, ctx context.Context, call Call, reply string) (Call, Step, error)

var handlers = map[State]handler{
	StateAwaitName:         (*Script).identify,
	StateAwaitAnswer:       (*Script).challenge,
	StateAwaitConfirmation: (*Script).confirm,
}

func (s *Script) identify(ctx context.Context, call Call, reply string) (Call, Step, error) {
	name := trimReply(reply)
	c, err := s.cases.FindPending(ctx, name)
	if errors.Is(err, fraud.ErrCaseNotFound) {
		return move(call, StateDone), Step{Say: []string{s.lines.NotFound}, Done: true}, nil
	}
	if err != nil {
		return call, Step{}, fmt.Errorf("look up case: %w", err)
	}
	call.Case = c
	return move(call, StateAwaitAnswer), Step{Ask: c.SecurityQuestion}, nil
}

func (s *Script) challenge(_ context.Context, call Call, reply string) (Call, Step, error) {
	if normalize(reply) != normalize(call.Case.SecurityAnswer) {
		call.Outcome = fraud.StatusVerificationFailed
		return move(call, StateDone), Step{
			Say:     []string{s.lines.Rejected},
			Resolve: resolution(call.Case, fraud.StatusVerificationFailed, NoteBadAnswer),
			Done:    true,
		}, nil
	}
	c := call.Case
	disclose := fmt.Sprintf(s.lines.Disclose, c.MerchantName, c.TransactionAmount, c.CardEnding, c.TransactionTime, c.Location)
	return move(call, StateAwaitConfirmation), Step{Say: []string{disclose}, Ask: s.lines.AskConfirm}, nil
}

func (s *Script) confirm(_ context.Context, call Call, reply string) (Call, Step, error) {
	var (
		status fraud.Status
		note   string
		line   string
	)
	switch normalize(reply) {
	case "yes", "y":
		status, note, line = fraud.StatusConfirmedSafe, NoteConfirmed, s.lines.Safe
	case "no", "n":
		status, note, line = fraud.StatusConfirmedFraud, NoteFraud, s.lines.Fraud
	default:
		status, note, line = fraud.StatusVerificationFailed, NoteUnclear, s.lines.Unclear
	}
	call.Outcome = status
	return move(call, StateDone), Step{
		Say:     []string{line},
		Resolve: resolution(call.Case, status, note),
		Done:    true,
	}, nil
}

func resolution(c *fraud.Case, status fraud.Status, note string) *Resolution {
	return &Resolution{CaseID: c.ID, Status: status, Note: note}
}

// move applies a transition from the table. An illegal move is a bug in this package.
func move(call Call, to State) Call {
	if !canMove(call.State, to) {
		panic(fmt.Sprintf("verify: illegal transition %s -> %s", call.State, to))
	}
	call.State = to
	return call
}

// trimReply strips surrounding spaces and the sentence punctuation speech
// recognition appends to short answers.
func trimReply(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".!?,"))
}

func normalize(s string) string {
	return strings.ToLower(trimReply(s))
}
