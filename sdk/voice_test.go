package zeempo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestSynthesize_ReturnsAudioBytes(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x01}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/pidgin-to-voice" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Text    string `json:"text"`
			VoiceID string `json:"voice_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Text != "how you dey" || payload.VoiceID != "v7" {
			t.Fatalf("payload = %+v", payload)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	})
	client := newTestClient(t, handler)

	got, err := client.Voice.Synthesize(context.Background(), "how you dey", "v7")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Fatalf("Synthesize() = %v, want %v", got, audio)
	}
}

func TestVoiceToVoice_SendsMultipartAndReadsHeaders(t *testing.T) {
	reply := []byte("mp3-bytes")
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("form file audio: %v", err)
		}
		defer file.Close()
		if header.Filename != "utterance.webm" {
			t.Fatalf("uploaded filename = %q", header.Filename)
		}
		uploaded, _ := io.ReadAll(file)
		if string(uploaded) != "recorded-audio" {
			t.Fatalf("uploaded body = %q", uploaded)
		}

		w.Header().Set("X-User-Text", "good morning")
		w.Header().Set("X-AI-Response", "gud morin o")
		w.Header().Set("X-Processing-Time", "1.5")
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(reply)
	})
	client := newTestClient(t, handler)

	turn, err := client.Voice.VoiceToVoice(context.Background(), bytes.NewReader([]byte("recorded-audio")), "utterance.webm")
	if err != nil {
		t.Fatalf("VoiceToVoice() error = %v", err)
	}
	if !bytes.Equal(turn.Audio, reply) {
		t.Fatalf("VoiceToVoice() audio = %q", turn.Audio)
	}
	if turn.UserText != "good morning" || turn.AssistantText != "gud morin o" {
		t.Fatalf("VoiceToVoice() transcripts = %q / %q", turn.UserText, turn.AssistantText)
	}
	if turn.ProcessingTime != 1500*time.Millisecond {
		t.Fatalf("VoiceToVoice() processing time = %v, want 1.5s", turn.ProcessingTime)
	}
}

func TestVoiceList_DecodesVoices(t *testing.T) {
	client := newTestClient(t, jsonHandler(t, http.StatusOK, `[
		{"voice_id":"v1","name":"Amara"},
		{"voice_id":"v2","name":"Kwame"}
	]`))

	voices, err := client.Voice.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(voices) != 2 || voices[0].ID != "v1" || voices[1].Name != "Kwame" {
		t.Fatalf("List() = %+v", voices)
	}
}
