package zeempo

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestTextToPidgin_FirstTurnOmitsSessionID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-pidgin" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Fatalf("first turn carried query %q, want none", r.URL.RawQuery)
		}
		var payload struct {
			Message  string `json:"message"`
			Language string `json:"language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Message != "good morning" || payload.Language != "pidgin" {
			t.Fatalf("payload = %+v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"gud morin o","session_id":"s-new"}`))
	})
	client := newTestClient(t, handler)

	resp, err := client.Translate.TextToPidgin(context.Background(), TranslateRequest{
		Message: "good morning", Language: "pidgin",
	})
	if err != nil {
		t.Fatalf("TextToPidgin() error = %v", err)
	}
	if resp.Response != "gud morin o" {
		t.Fatalf("TextToPidgin() response = %q", resp.Response)
	}
	if resp.SessionID != "s-new" {
		t.Fatalf("TextToPidgin() session_id = %q, want s-new", resp.SessionID)
	}
}

func TestTextToPidgin_FollowupCarriesSessionIDQuery(t *testing.T) {
	var query string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("session_id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"ok","session_id":"s 1"}`))
	})
	client := newTestClient(t, handler)

	_, err := client.Translate.TextToPidgin(context.Background(), TranslateRequest{
		Message: "again", Language: "swahili", SessionID: "s 1",
	})
	if err != nil {
		t.Fatalf("TextToPidgin() error = %v", err)
	}
	if query != "s 1" {
		t.Fatalf("session_id query = %q, want %q", query, "s 1")
	}
}
