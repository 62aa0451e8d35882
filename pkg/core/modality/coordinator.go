// Package modality arbitrates the input/output channels so at most one
// voice activity (speech capture, speech playback, realtime voice
// channel) is active at any instant.
package modality

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/zeempo/zeempo-go/pkg/core"
)

// State is the single top-level modality state. Exactly one holds at any
// instant; the microphone and speaker are only touched by the activity
// the current state permits.
type State int

const (
	// StateIdle permits any activity to start.
	StateIdle State = iota
	// StateCapturing means the recognizer owns the microphone.
	StateCapturing
	// StateAwaitingTranslation means a recognized utterance is in flight.
	StateAwaitingTranslation
	// StateSpeaking means the synthesizer owns the speaker.
	StateSpeaking
	// StateVoiceChannelActive means the realtime voice-agent channel owns
	// both devices.
	StateVoiceChannelActive
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCapturing:
		return "CAPTURING"
	case StateAwaitingTranslation:
		return "AWAITING_TRANSLATION"
	case StateSpeaking:
		return "SPEAKING"
	case StateVoiceChannelActive:
		return "VOICE_CHANNEL_ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// RecognizerEvents receives speech-capture outcomes. Exactly one of
// OnResult or OnError fires per capture.
type RecognizerEvents struct {
	OnResult func(transcript string)
	OnError  func(err error)
}

// SpeechRecognizer is the speech-capture engine, an event-emitting black
// box owning the microphone while started.
type SpeechRecognizer interface {
	Supported() bool
	Start(ctx context.Context, events RecognizerEvents) error
	Stop()
}

// SpeechSynthesizer plays assistant text, invoking done exactly once when
// playback finishes or fails.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string, done func(err error))
}

// VoiceChannel is the realtime voice-agent transport: a connect/disconnect
// channel with its own full-duplex audio.
type VoiceChannel interface {
	Connect(ctx context.Context) error
	Disconnect() error
}

// Conversation forwards a recognized utterance into the text pipeline as
// a voice-origin message. The orchestrator hands the assistant reply back
// through PlayAssistant.
type Conversation interface {
	SendMessage(ctx context.Context, text string) error
}

// Coordinator is the modality state machine.
type Coordinator struct {
	recognizer   SpeechRecognizer
	synthesizer  SpeechSynthesizer
	channel      VoiceChannel
	conversation Conversation
	logger       *slog.Logger

	mu sync.Mutex
	// connecting guards the voice-channel dial window: the state is still
	// Idle while Connect is in flight, but no other activity may start.
	connecting bool
	state      State
	lastErr    error
	onChange   func(State)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecognizer installs the speech-capture engine.
func WithRecognizer(r SpeechRecognizer) Option {
	return func(c *Coordinator) { c.recognizer = r }
}

// WithSynthesizer installs the speech-playback engine.
func WithSynthesizer(s SpeechSynthesizer) Option {
	return func(c *Coordinator) { c.synthesizer = s }
}

// WithVoiceChannel installs the realtime voice-agent transport.
func WithVoiceChannel(ch VoiceChannel) Option {
	return func(c *Coordinator) { c.channel = ch }
}

// WithLogger sets the coordinator logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates an idle coordinator feeding recognized utterances into conv.
func New(conv Conversation, opts ...Option) *Coordinator {
	c := &Coordinator{
		conversation: conv,
		logger:       slog.Default(),
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers a state observer for the presentation layer.
func (c *Coordinator) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// State returns the current modality state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the current error slot.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError dismisses the current error.
func (c *Coordinator) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

// StartCapture begins one speech-capture cycle.
//
// Hosts without a capture capability fail fast with an unsupported error.
// While the voice channel is active, capture is rejected; while a
// capture/playback cycle is already running, a second start is an
// idempotent no-op.
func (c *Coordinator) StartCapture(ctx context.Context) error {
	if c.recognizer == nil || !c.recognizer.Supported() {
		return c.fail(core.NewUnsupportedError("speech capture is not available on this host"))
	}

	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return c.fail(core.NewValidationError("voice channel is connecting"))
	}
	switch c.state {
	case StateVoiceChannelActive:
		c.mu.Unlock()
		return c.fail(core.NewValidationError("voice channel is active"))
	case StateIdle:
	default:
		// One outstanding cycle at a time; repeated starts are not queued.
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateCapturing)
	c.mu.Unlock()

	err := c.recognizer.Start(ctx, RecognizerEvents{
		OnResult: func(transcript string) { c.captureResult(ctx, transcript) },
		OnError:  func(err error) { c.captureError(err) },
	})
	if err != nil {
		c.toIdle()
		return c.fail(err)
	}
	return nil
}

// StopCapture asks the recognizer to finish early. The outcome still
// arrives through the capture callbacks.
func (c *Coordinator) StopCapture() {
	c.mu.Lock()
	capturing := c.state == StateCapturing
	c.mu.Unlock()
	if capturing && c.recognizer != nil {
		c.recognizer.Stop()
	}
}

// PlayAssistant speaks assistant text. The orchestrator's playback sink
// lands here for voice-origin sends.
func (c *Coordinator) PlayAssistant(ctx context.Context, text string) {
	c.mu.Lock()
	if c.connecting || (c.state != StateAwaitingTranslation && c.state != StateIdle) {
		c.mu.Unlock()
		return
	}
	if c.synthesizer == nil || strings.TrimSpace(text) == "" {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateSpeaking)
	c.mu.Unlock()

	c.synthesizer.Speak(ctx, text, func(err error) {
		if err != nil {
			c.logger.Warn("assistant playback failed", "err", err)
			_ = c.fail(err)
		}
		c.toIdle()
	})
}

// ConnectVoiceChannel opens the realtime voice-agent channel. Only legal
// from Idle; a capture or playback in progress rejects the connect, and
// while the dial itself is in flight no other activity may start.
// Connection failures (permission denied, handshake rejection) leave the
// state at Idle.
func (c *Coordinator) ConnectVoiceChannel(ctx context.Context) error {
	if c.channel == nil {
		return c.fail(core.NewUnsupportedError("no realtime voice channel is configured"))
	}

	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return nil
	}
	switch c.state {
	case StateVoiceChannelActive:
		c.mu.Unlock()
		return nil
	case StateIdle:
	default:
		c.mu.Unlock()
		return c.fail(core.NewValidationError("a capture or playback cycle is active"))
	}
	c.connecting = true
	c.mu.Unlock()

	err := c.channel.Connect(ctx)

	c.mu.Lock()
	c.connecting = false
	if err != nil {
		c.mu.Unlock()
		return c.fail(err)
	}
	c.setStateLocked(StateVoiceChannelActive)
	c.mu.Unlock()
	return nil
}

// DisconnectVoiceChannel closes the realtime channel and returns to Idle.
func (c *Coordinator) DisconnectVoiceChannel() error {
	c.mu.Lock()
	if c.state != StateVoiceChannelActive {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	err := c.channel.Disconnect()
	c.toIdle()
	return err
}

func (c *Coordinator) captureResult(ctx context.Context, transcript string) {
	transcript = strings.TrimSpace(transcript)

	c.mu.Lock()
	if c.state != StateCapturing {
		c.mu.Unlock()
		return
	}
	if transcript == "" {
		// Unintelligible capture: no translation, straight back to Idle.
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateAwaitingTranslation)
	c.mu.Unlock()

	if err := c.conversation.SendMessage(ctx, transcript); err != nil {
		_ = c.fail(err)
		c.toIdle()
		return
	}
	// On success the orchestrator hands the reply to PlayAssistant, which
	// advances the machine to Speaking and back to Idle. When no playback
	// sink was wired the machine must not stall here.
	c.mu.Lock()
	if c.state == StateAwaitingTranslation {
		c.setStateLocked(StateIdle)
	}
	c.mu.Unlock()
}

func (c *Coordinator) captureError(err error) {
	c.mu.Lock()
	if c.state != StateCapturing {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	_ = c.fail(err)
	c.toIdle()
}

func (c *Coordinator) toIdle() {
	c.mu.Lock()
	if c.state != StateIdle {
		c.setStateLocked(StateIdle)
	}
	c.mu.Unlock()
}

// setStateLocked transitions the machine. Callers hold c.mu.
func (c *Coordinator) setStateLocked(next State) {
	if c.state == next {
		return
	}
	c.logger.Debug("modality transition", "from", c.state, "to", next)
	c.state = next
	if c.onChange != nil {
		observer := c.onChange
		state := next
		go observer(state)
	}
}

func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	return err
}
