package janus

import (
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.DefaultMediaType != MediaTypeJSON {
		t.Errorf("DefaultMediaType = %q, want %q", s.DefaultMediaType, MediaTypeJSON)
	}
	if s.DateTimeLayout != "2006-01-02 15:04:05" {
		t.Errorf("DateTimeLayout = %q", s.DateTimeLayout)
	}
	if s.TimeLayout != "15:04:05" {
		t.Errorf("TimeLayout = %q", s.TimeLayout)
	}
	if s.BaseURL != "" {
		t.Errorf("BaseURL = %q, want empty", s.BaseURL)
	}
}

func TestSettingsNormalized(t *testing.T) {
	s := Settings{BaseURL: "https://api.example.com///"}.normalized()

	if s.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q, want trailing slashes trimmed", s.BaseURL)
	}
	if s.DefaultMediaType != MediaTypeJSON {
		t.Errorf("DefaultMediaType = %q, want the default filled in", s.DefaultMediaType)
	}
	if s.DateTimeLayout == "" || s.TimeLayout == "" {
		t.Error("layouts must be filled from the defaults")
	}

	// Explicit values survive normalization.
	s = Settings{DefaultMediaType: MediaTypeXML, DateTimeLayout: "2006"}.normalized()
	if s.DefaultMediaType != MediaTypeXML {
		t.Errorf("DefaultMediaType = %q, want %q", s.DefaultMediaType, MediaTypeXML)
	}
	if s.DateTimeLayout != "2006" {
		t.Errorf("DateTimeLayout = %q, want %q", s.DateTimeLayout, "2006")
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("JANUS_BASE_URL", "https://env.example.com/")
	t.Setenv("JANUS_USER_AGENT", "janus-test/1.0")
	t.Setenv("JANUS_DEFAULT_MEDIA_TYPE", MediaTypeXML)

	s, err := SettingsFromEnv()
	if err != nil {
		t.Fatalf("SettingsFromEnv() error = %v", err)
	}
	if s.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q", s.BaseURL)
	}
	if s.UserAgent != "janus-test/1.0" {
		t.Errorf("UserAgent = %q", s.UserAgent)
	}
	if s.DefaultMediaType != MediaTypeXML {
		t.Errorf("DefaultMediaType = %q", s.DefaultMediaType)
	}
	if s.DateTimeLayout == "" {
		t.Error("unset fields must fall back to the defaults")
	}
}

func TestSettingsFormats(t *testing.T) {
	s := Settings{DateTimeLayout: "2006-01-02", TimeLayout: "15:04"}
	f := s.formats()
	if f.DateTime != "2006-01-02" || f.Time != "15:04" {
		t.Errorf("formats() = %+v", f)
	}
}
