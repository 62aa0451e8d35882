package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if s.ServerURL != "http://localhost:8000" || s.Language != LanguagePidgin {
		t.Fatalf("Load(missing) = %+v, want defaults", s)
	}
}

func TestLoad_UnparseableFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- not yaml"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	s := Load(path)
	if s.Language != LanguagePidgin {
		t.Fatalf("Load(garbage) = %+v, want defaults", s)
	}
}

func TestLoad_NormalizesUnknownLanguage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("language: klingon\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if s := Load(path); s.Language != LanguagePidgin {
		t.Fatalf("unknown language normalized to %q, want pidgin", s.Language)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	in := &Settings{
		ServerURL:      "https://api.example.com",
		Language:       LanguageSwahili,
		VoiceID:        "v7",
		SwahiliAgentID: "agent-sw",
	}
	if err := in.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out := Load(path)
	if out.ServerURL != in.ServerURL || out.Language != in.Language || out.VoiceID != in.VoiceID {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestAgentID_FollowsLanguage(t *testing.T) {
	s := &Settings{Language: LanguagePidgin, PidginAgentID: "agent-pi", SwahiliAgentID: "agent-sw"}
	if got := s.AgentID(); got != "agent-pi" {
		t.Fatalf("AgentID() = %q, want agent-pi", got)
	}
	s.Language = LanguageSwahili
	if got := s.AgentID(); got != "agent-sw" {
		t.Fatalf("AgentID() = %q, want agent-sw", got)
	}
}
