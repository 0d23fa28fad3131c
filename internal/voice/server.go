// Package voice puts a dialogue agent on the phone.
//
// Each inbound Twilio call is connected to Media Streams. Caller audio goes
// to Deepgram streaming STT, final transcripts drive the agent, and the
// agent's replies are synthesized by ElevenLabs and streamed back as mu-law:
//
//	Caller ──PSTN── Twilio ──WebSocket (μ-law)── Server
//	                                              │
//	                            Deepgram STT ─► Agent ─► ElevenLabs TTS
package voice

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agentplexus/omnivoice/pipeline"
	"github.com/agentplexus/omnivoice/transport"
	"golang.org/x/sync/errgroup"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/agent"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/config"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/logging"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/metrics"
)

const (
	inboundPath     = "/voice/inbound"
	mediaStreamPath = "/media-stream"
	metricsPath     = "/metrics"

	sttLanguage     = "en-US"
	telephonyRate   = 8000
	shutdownTimeout = 5 * time.Second
)

// Server answers calls and runs one agent session per Media Streams connection.
type Server struct {
	providers *Providers
	voice     config.Voice
	agent     agent.Agent
	metrics   *metrics.Metrics
	log       *slog.Logger

	sessions sync.WaitGroup
}

// NewServer returns a server that runs a for every call.
func NewServer(p *Providers, voice config.Voice, a agent.Agent, m *metrics.Metrics) *Server {
	return &Server{
		providers: p,
		voice:     voice,
		agent:     a,
		metrics:   m,
		log:       logging.New("voice"),
	}
}

// Routes returns the HTTP handler: TwiML webhook, Media Streams socket and metrics.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(inboundPath, s.handleInboundCall)
	mux.HandleFunc(mediaStreamPath, s.handleMediaStream)
	mux.Handle(metricsPath, s.metrics.Handler())
	return mux
}

// Run serves HTTP on addr until ctx is cancelled, then waits for live calls to end.
func (s *Server) Run(ctx context.Context, addr string) error {
	connCh, err := s.providers.Transport.Listen(ctx, mediaStreamPath)
	if err != nil {
		return fmt.Errorf("start Media Streams listener: %w", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.handleConnections(gctx, connCh)
		return nil
	})
	g.Go(func() error {
		s.log.Info("voice agent server listening", "addr", addr, "agent", s.agent.Name())
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	s.sessions.Wait()
	return err
}

// handleInboundCall returns TwiML to connect the call to Media Streams.
func (s *Server) handleInboundCall(w http.ResponseWriter, r *http.Request) {
	from := r.FormValue("From")
	to := r.FormValue("To")
	callSID := r.FormValue("CallSid")

	s.log.Info("incoming call", "from", from, "to", to, "call_sid", callSID)

	wsURL := fmt.Sprintf("wss://%s%s", r.Host, mediaStreamPath)

	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Connect>
        <Stream url="%s">
            <Parameter name="callSid" value="%s"/>
            <Parameter name="caller" value="%s"/>
        </Stream>
    </Connect>
</Response>`, html.EscapeString(wsURL), html.EscapeString(callSID), html.EscapeString(from))

	w.Header().Set("Content-Type", "application/xml")
	if _, err := w.Write([]byte(twiml)); err != nil {
		s.log.Error("failed to write TwiML", "error", err)
	}
}

// handleMediaStream upgrades HTTP to WebSocket and hands the stream to the transport.
func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	if err := s.providers.Transport.HandleWebSocket(w, r, mediaStreamPath); err != nil {
		s.log.Error("WebSocket handling failed", "error", err)
	}
}

func (s *Server) handleConnections(ctx context.Context, connCh <-chan transport.Connection) {
	for {
		select {
		case <-ctx.Done():
			return
		case conn, ok := <-connCh:
			if !ok {
				return
			}
			s.sessions.Add(1)
			go func() {
				defer s.sessions.Done()
				s.handleSession(ctx, conn)
			}()
		}
	}
}

// handleSession wires STT and TTS to one connection and runs the agent on it.
func (s *Server) handleSession(ctx context.Context, conn transport.Connection) {
	sessionID := conn.ID()
	log := logging.ForSession("voice", sessionID, s.agent.Name())

	sessionCtx, cancelSession := context.WithCancel(ctx)
	defer cancelSession()

	ttsPipeline := pipeline.NewTTSPipeline(s.providers.TTS, pipeline.TTSPipelineConfig{
		VoiceID:      s.voice.ElevenLabsVoiceID,
		OutputFormat: "ulaw",
		SampleRate:   telephonyRate,
		Model:        s.voice.ElevenLabsModel,
		OnError: func(err error) {
			log.Error("TTS error", "error", err)
		},
		OnComplete: func() {
			log.Debug("TTS complete")
		},
	})

	c := newCall(sessionID, func(ctx context.Context, text string) error {
		return ttsPipeline.SynthesizeToConnection(ctx, text, conn)
	})

	sttPipeline := pipeline.NewSTTPipeline(s.providers.STT, pipeline.STTPipelineConfig{
		Model:      s.voice.DeepgramModel,
		Language:   sttLanguage,
		Encoding:   "mulaw",
		SampleRate: telephonyRate,
		Channels:   1,

		OnTranscript: func(transcript string, isFinal bool) {
			if isFinal {
				log.Debug("caller said", "text", transcript)
			}
			c.transcript(transcript, isFinal)
		},
		OnSpeechStart: func() {
			// Barge-in: the caller talking over the agent cuts it off.
			if ttsPipeline.IsActive() {
				ttsPipeline.Stop()
			}
		},
		OnError: func(err error) {
			log.Error("STT error", "error", err)
		},
	})

	if err := sttPipeline.StartFromConnection(sessionCtx, conn); err != nil {
		log.Error("failed to start STT pipeline", "error", err)
		_ = conn.Close()
		return
	}

	go watchDisconnect(sessionCtx, conn, c, log)

	if err := agent.Run(sessionCtx, s.agent, c, s.metrics); err != nil {
		log.Error("agent session failed", "error", err)
	}

	c.hangup()
	sttPipeline.Stop()
	ttsPipeline.Stop()
	_ = conn.Close()
}

// watchDisconnect hangs up c when the caller leaves.
func watchDisconnect(ctx context.Context, conn transport.Connection, c *call, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-conn.Events():
			if !ok || event.Type == transport.EventDisconnected {
				log.Info("connection closed")
				c.hangup()
				return
			}
		}
	}
}
