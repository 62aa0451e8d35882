// Package settings stores user preferences persisted as YAML.
package settings

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Supported target languages.
const (
	LanguagePidgin  = "pidgin"
	LanguageSwahili = "swahili"
)

// Settings holds the user-facing knobs of the chat client.
type Settings struct {
	ServerURL string `yaml:"server_url"`
	Language  string `yaml:"language"`
	VoiceID   string `yaml:"voice_id,omitempty"`

	// Realtime voice-agent ids, one per target language.
	PidginAgentID  string `yaml:"pidgin_agent_id,omitempty"`
	SwahiliAgentID string `yaml:"swahili_agent_id,omitempty"`
}

// Default returns default settings.
func Default() *Settings {
	return &Settings{
		ServerURL: "http://localhost:8000",
		Language:  LanguagePidgin,
	}
}

// AgentID returns the voice-agent id for the configured language.
func (s *Settings) AgentID() string {
	if s.Language == LanguageSwahili {
		return s.SwahiliAgentID
	}
	return s.PidginAgentID
}

// Load reads settings from path, or returns defaults when the file is
// absent or unparseable.
func Load(path string) *Settings {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		slog.Error("parse settings", "path", path, "err", err)
		return Default()
	}
	if s.Language != LanguagePidgin && s.Language != LanguageSwahili {
		s.Language = LanguagePidgin
	}
	return s
}

// Save writes settings to path, creating parent directories as needed.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}
