package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"podnest/internal/domain/podcast"
)

// mockFormat is a small mono format so placeholder files stay tiny.
var mockFormat = beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}

// MockTTSEngine renders silence whose length follows the reading time of the
// text. It needs no credentials and produces valid WAV files.
type MockTTSEngine struct {
	speed float64
}

func NewMockTTSEngine(c Config) *MockTTSEngine {
	speed := c.Speed
	if speed <= 0 {
		speed = 1.0
	}
	return &MockTTSEngine{speed: speed}
}

func (m *MockTTSEngine) Name() string {
	return EngineTypeMock.String()
}

func (m *MockTTSEngine) Format() string {
	return "wav"
}

func (m *MockTTSEngine) MaxInputChars() int {
	return 4096
}

func (m *MockTTSEngine) VoiceName(v podcast.Voice) string {
	return "mock-" + v.String()
}

// readingTime estimates 150 words per minute, capped so files stay small.
func (m *MockTTSEngine) readingTime(text string) time.Duration {
	words := len(strings.Fields(text))
	d := time.Duration(float64(words) / 150.0 / m.speed * float64(time.Minute))
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	return d
}

func (m *MockTTSEngine) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// wav.Encode needs an io.WriteSeeker to patch the header
	f, err := os.CreateTemp("", "podnest-mock-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp audio file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	samples := mockFormat.SampleRate.N(m.readingTime(text))
	if err := wav.Encode(f, beep.Silence(samples), mockFormat); err != nil {
		return nil, fmt.Errorf("failed to encode mock audio: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

func (m *MockTTSEngine) GetAvailableVoices(ctx context.Context) ([]string, error) {
	voices := make([]string, 0, len(podcast.Voices))
	for _, v := range podcast.Voices {
		voices = append(voices, m.VoiceName(v))
	}
	return voices, nil
}
