package voice

import (
	"fmt"

	elevenlabs "github.com/agentplexus/go-elevenlabs"
	elevenvoice "github.com/agentplexus/go-elevenlabs/omnivoice/tts"
	deepgramstt "github.com/agentplexus/omnivoice-deepgram/omnivoice/stt"
	twiliotransport "github.com/agentplexus/omnivoice-twilio/transport"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/config"
)

// Providers are the speech and telephony backends shared by all calls.
type Providers struct {
	TTS       *elevenvoice.Provider
	STT       *deepgramstt.Provider
	Transport *twiliotransport.Provider
}

// NewProviders connects ElevenLabs TTS, Deepgram STT and Twilio Media Streams.
func NewProviders(cfg config.Voice) (*Providers, error) {
	elevenClient, err := elevenlabs.NewClient(elevenlabs.WithAPIKey(cfg.ElevenLabsAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create ElevenLabs client: %w", err)
	}

	sttProvider, err := deepgramstt.New(deepgramstt.WithAPIKey(cfg.DeepgramAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create Deepgram provider: %w", err)
	}

	twilioTransport, err := twiliotransport.New(
		twiliotransport.WithAccountSID(cfg.TwilioAccountSID),
		twiliotransport.WithAuthToken(cfg.TwilioAuthToken),
	)
	if err != nil {
		return nil, fmt.Errorf("create Twilio transport: %w", err)
	}

	return &Providers{
		TTS:       elevenvoice.NewWithClient(elevenClient),
		STT:       sttProvider,
		Transport: twilioTransport,
	}, nil
}

// Close releases the Twilio transport.
func (p *Providers) Close() error {
	return p.Transport.Close()
}
