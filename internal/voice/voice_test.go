package voice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/agent"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/logging"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/metrics"
)

type namedAgent string

func (n namedAgent) Name() string { return string(n) }

func (n namedAgent) Run(context.Context, agent.Conversation) (agent.Outcome, error) {
	return agent.OutcomeCompleted, nil
}

func testServer() *Server {
	return &Server{agent: namedAgent("fraud"), metrics: metrics.New("test"), log: logging.New("voice")}
}

func TestInboundCall_TwiML(t *testing.T) {
	form := url.Values{"From": {"+15550100"}, "To": {"+15550199"}, "CallSid": {"CA<1>"}}
	req := httptest.NewRequest(http.MethodPost, "http://agent.example.com/voice/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	testServer().Routes().ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<Stream url="wss://agent.example.com/media-stream">`,
		`<Parameter name="callSid" value="CA&lt;1&gt;"/>`,
		`<Parameter name="caller" value="+15550100"/>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("TwiML missing %s:\n%s", want, body)
		}
	}
	if strings.Count(body, "<Parameter ") != 2 {
		t.Errorf("TwiML should carry only callSid and caller:\n%s", body)
	}
}

func TestRoutes_Metrics(t *testing.T) {
	s := testServer()
	s.metrics.RecordSessionStart("fraud")
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `test_sessions_active{agent="fraud"} 1`) {
		t.Errorf("metrics body missing sessions_active:\n%s", body)
	}
}

func TestCall_FinalTranscriptsBecomeUtterances(t *testing.T) {
	c := newCall("s1", nil)
	c.transcript("hello there", false)
	c.transcript("  John ", true)
	c.transcript("   ", true)
	c.transcript("fluffy", true)

	ctx := context.Background()
	for _, want := range []string{"John", "fluffy"} {
		got, err := c.Listen(ctx)
		if err != nil || got != want {
			t.Fatalf("Listen = %q, %v; want %q", got, err, want)
		}
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := c.Listen(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Listen with nothing pending = %v", err)
	}
}

func TestCall_Hangup(t *testing.T) {
	var said []string
	c := newCall("s1", func(_ context.Context, text string) error {
		said = append(said, text)
		return nil
	})
	if err := c.Say(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}

	c.hangup()
	c.hangup()

	if _, err := c.Listen(context.Background()); !errors.Is(err, agent.ErrConversationClosed) {
		t.Errorf("Listen after hangup = %v", err)
	}
	if err := c.Say(context.Background(), "bye"); !errors.Is(err, agent.ErrConversationClosed) {
		t.Errorf("Say after hangup = %v", err)
	}
	if len(said) != 1 {
		t.Errorf("said = %q", said)
	}
	c.transcript("late", true)
}
