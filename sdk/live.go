package zeempo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeempo/zeempo-go/pkg/core"
)

const defaultLiveConnectTimeout = 15 * time.Second

// LiveService provides access to the realtime voice-agent channel: a
// persistent full-duplex audio conversation with a remote agent,
// independent of the text pipeline.
type LiveService struct {
	client *Client
}

// LiveConnectRequest configures a voice-agent session.
type LiveConnectRequest struct {
	AgentID  string
	Language string
}

// LiveEvent is an event emitted by LiveSession.Events().
type LiveEvent interface {
	liveEventType() string
}

// LiveConnectedEvent is emitted once the agent accepted the session.
type LiveConnectedEvent struct {
	SessionID string `json:"session_id"`
}

func (e LiveConnectedEvent) liveEventType() string { return "connected" }

// LiveTranscriptEvent carries a transcript line from either side of the
// conversation.
type LiveTranscriptEvent struct {
	Role    string `json:"role"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

func (e LiveTranscriptEvent) liveEventType() string { return "transcript" }

// LiveAudioEvent carries an opaque agent audio frame for playback.
type LiveAudioEvent struct {
	Data []byte
}

func (e LiveAudioEvent) liveEventType() string { return "audio" }

// LiveErrorEvent carries a server-reported error.
type LiveErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e LiveErrorEvent) liveEventType() string { return "error" }

// LiveClosedEvent is emitted when the channel ends.
type LiveClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e LiveClosedEvent) liveEventType() string { return "closed" }

type liveClientHello struct {
	Type     string `json:"type"`
	AgentID  string `json:"agent_id"`
	Language string `json:"language,omitempty"`
}

type liveServerFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Text      string `json:"text,omitempty"`
	IsFinal   bool   `json:"is_final,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// LiveSession is an open voice-agent channel.
type LiveSession struct {
	conn      *websocket.Conn
	events    chan LiveEvent
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	writeMu sync.Mutex
	errMu   sync.Mutex
	err     error
}

// Connect opens a voice-agent channel. The handshake requires the first
// server frame to be hello_ack; anything else (including a server error
// frame) fails the connect and leaves no session behind.
func (s *LiveService) Connect(ctx context.Context, req LiveConnectRequest) (*LiveSession, error) {
	if s == nil || s.client == nil {
		return nil, core.NewValidationError("live service is not initialized")
	}
	if strings.TrimSpace(req.AgentID) == "" {
		return nil, core.NewValidationError("agent id must not be empty")
	}

	wsURL, err := s.websocketEndpoint("/voice-agent")
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	if s.client.tokens != nil {
		if token := s.client.tokens.Token(); token != "" {
			headers.Set("Authorization", "Bearer "+token)
		}
	}

	dialer := websocket.DefaultDialer
	if dialer == nil {
		dialer = &websocket.Dialer{}
	}

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultLiveConnectTimeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(dialCtx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, &TransportError{Op: "GET", URL: wsURL, Err: fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)}
		}
		return nil, &TransportError{Op: "GET", URL: wsURL, Err: err}
	}

	hello := liveClientHello{Type: "hello", AgentID: req.AgentID, Language: req.Language}
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(defaultLiveConnectTimeout))
	messageType, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read hello_ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if messageType != websocket.TextMessage {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first frame type %d", messageType)
	}

	var first liveServerFrame
	if err := json.Unmarshal(payload, &first); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("decode first frame: %w", err)
	}
	switch first.Type {
	case "hello_ack":
		session := &LiveSession{
			conn:   conn,
			events: make(chan LiveEvent, 64),
			done:   make(chan struct{}),
		}
		session.emit(LiveConnectedEvent{SessionID: first.SessionID})
		go session.readLoop()
		return session, nil
	case "error":
		_ = conn.Close()
		return nil, &core.Error{Type: core.ErrAuth, Message: strings.TrimSpace(first.Message), Code: strings.TrimSpace(first.Code)}
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first frame type %q", first.Type)
	}
}

func (s *LiveService) websocketEndpoint(path string) (string, error) {
	parsed, err := url.Parse(s.client.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + path
	return parsed.String(), nil
}

// Events returns the session event stream. The channel closes when the
// session ends.
func (s *LiveSession) Events() <-chan LiveEvent {
	return s.events
}

// SendAudio forwards one captured audio frame to the agent.
func (s *LiveSession) SendAudio(frame []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("live session is closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Close closes the channel and waits for the read loop to drain.
func (s *LiveSession) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err returns the terminal session error (if any).
func (s *LiveSession) Err() error {
	if s == nil {
		return nil
	}
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *LiveSession) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *LiveSession) emit(event LiveEvent) {
	select {
	case s.events <- event:
	default:
		// Slow consumer; drop rather than block the read loop.
	}
}

func (s *LiveSession) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || s.closed.Load() {
				s.emit(LiveClosedEvent{})
				return
			}
			s.setErr(err)
			s.emit(LiveClosedEvent{Reason: err.Error()})
			return
		}

		switch messageType {
		case websocket.TextMessage:
			var frame liveServerFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				s.setErr(fmt.Errorf("decode frame: %w", err))
				return
			}
			switch frame.Type {
			case "transcript":
				s.emit(LiveTranscriptEvent{Role: frame.Role, Text: frame.Text, IsFinal: frame.IsFinal})
			case "error":
				s.emit(LiveErrorEvent{Message: frame.Message, Code: frame.Code})
				s.setErr(core.NewAPIError(strings.TrimSpace(frame.Message)))
			case "closed":
				s.emit(LiveClosedEvent{Reason: frame.Reason})
				return
			}
		case websocket.BinaryMessage:
			s.emit(LiveAudioEvent{Data: data})
		}
	}
}
