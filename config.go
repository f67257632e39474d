package janus

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Settings is the immutable client configuration value. It is copied into
// the client at construction time; later changes to a Settings variable do
// not affect an existing client.
type Settings struct {
	// BaseURL is prefixed to relative request paths. Paths that already
	// start with http:// or https:// bypass it.
	BaseURL string `envconfig:"BASE_URL"`

	// UserAgent is sent on every request when non-empty.
	UserAgent string `envconfig:"USER_AGENT"`

	// AuthHeader/AuthValue configure one static authentication header
	// (e.g. "Authorization" / "Bearer ..."). No refresh logic is applied.
	AuthHeader string `envconfig:"AUTH_HEADER"`
	AuthValue  string `envconfig:"AUTH_VALUE"`

	// DefaultMediaType selects the body translator when a request does not
	// declare one.
	DefaultMediaType string `envconfig:"DEFAULT_MEDIA_TYPE"`

	// DateTimeLayout and TimeLayout override the shared formatting rules.
	DateTimeLayout string `envconfig:"DATETIME_LAYOUT"`
	TimeLayout     string `envconfig:"TIME_LAYOUT"`
}

// DefaultSettings returns the stock configuration: JSON bodies and the
// default date/duration layouts.
func DefaultSettings() Settings {
	f := DefaultFormats()
	return Settings{
		DefaultMediaType: MediaTypeJSON,
		DateTimeLayout:   f.DateTime,
		TimeLayout:       f.Time,
	}
}

// SettingsFromEnv loads settings from JANUS_* environment variables on top
// of the defaults (JANUS_BASE_URL, JANUS_DEFAULT_MEDIA_TYPE, ...).
func SettingsFromEnv() (Settings, error) {
	s := DefaultSettings()
	if err := envconfig.Process("janus", &s); err != nil {
		return s, &Error{Type: ErrorTypeConfiguration, Message: "loading settings from environment", Cause: err}
	}
	return s.normalized(), nil
}

// normalized fills zero fields with defaults so a hand-built Settings value
// stays usable.
func (s Settings) normalized() Settings {
	d := DefaultSettings()
	if s.DefaultMediaType == "" {
		s.DefaultMediaType = d.DefaultMediaType
	}
	if s.DateTimeLayout == "" {
		s.DateTimeLayout = d.DateTimeLayout
	}
	if s.TimeLayout == "" {
		s.TimeLayout = d.TimeLayout
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	return s
}

func (s Settings) formats() Formats {
	return Formats{DateTime: s.DateTimeLayout, Time: s.TimeLayout}
}
