package zeempo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// VoiceService wraps the speech endpoints. Synthesis and recognition run
// server-side; the client only moves opaque audio bytes.
type VoiceService struct {
	client *Client
}

// VoiceInfo describes one available synthesis voice.
type VoiceInfo struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}

// VoiceTurn is the result of a full voice-to-voice exchange.
type VoiceTurn struct {
	Audio          []byte
	UserText       string
	AssistantText  string
	ProcessingTime time.Duration
}

// Synthesize converts assistant text into playable audio.
func (s *VoiceService) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text, VoiceID: voiceID})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	audio, _, err := s.client.doRaw(ctx, http.MethodPost, "/pidgin-to-voice", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return audio, nil
}

// VoiceToVoice sends a recorded utterance and returns the spoken reply
// together with both transcripts from the response headers.
func (s *VoiceService) VoiceToVoice(ctx context.Context, audio io.Reader, filename string) (*VoiceTurn, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	reply, headers, err := s.client.doRaw(ctx, http.MethodPost, "/voice-to-voice", form.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}

	turn := &VoiceTurn{
		Audio:         reply,
		UserText:      headers.Get("X-User-Text"),
		AssistantText: headers.Get("X-AI-Response"),
	}
	if raw := headers.Get("X-Processing-Time"); raw != "" {
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
			turn.ProcessingTime = time.Duration(seconds * float64(time.Second))
		}
	}
	return turn, nil
}

// List returns the available synthesis voices.
func (s *VoiceService) List(ctx context.Context) ([]VoiceInfo, error) {
	var out []VoiceInfo
	if err := s.client.doGET(ctx, "/voices", &out); err != nil {
		return nil, err
	}
	return out, nil
}
