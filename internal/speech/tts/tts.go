// Package tts provides text-to-speech synthesis backends.
package tts

import (
	"context"
	"time"

	"podnest/internal/domain/podcast"
)

// Config configures a synthesis backend.
type Config struct {
	Type    string        `mapstructure:"backend"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Speed   float64       `mapstructure:"speed"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Engine turns text into a self-contained audio stream.
type Engine interface {
	// Name identifies the backend; it is part of every audio cache key.
	Name() string
	// Synthesize renders text with a backend voice name. It must return
	// promptly once ctx is done.
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	// VoiceName maps a narration persona to a backend voice.
	VoiceName(v podcast.Voice) string
	// Format is the container of produced audio, e.g. "mp3".
	Format() string
	// MaxInputChars is the longest text accepted by a single call.
	MaxInputChars() int
	GetAvailableVoices(ctx context.Context) ([]string, error)
}

// VoiceInfo provides detailed information about a backend voice.
type VoiceInfo struct {
	Persona podcast.Voice `json:"persona"`
	Name    string        `json:"name"`
}

// Personas lists the backend voice chosen for every persona.
func Personas(e Engine) []VoiceInfo {
	out := make([]VoiceInfo, 0, len(podcast.Voices))
	for _, v := range podcast.Voices {
		out = append(out, VoiceInfo{Persona: v, Name: e.VoiceName(v)})
	}
	return out
}
