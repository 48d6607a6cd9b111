package tts

import (
	"bytes"
	"context"
	"testing"

	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podnest/internal/domain/podcast"
)

func TestNewEngineMock(t *testing.T) {
	engine, err := NewEngine(Config{Type: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", engine.Name())
	assert.Equal(t, "wav", engine.Format())
}

func TestNewEngineUnsupported(t *testing.T) {
	_, err := NewEngine(Config{Type: "sapi"})
	assert.Error(t, err)
}

func TestNewEngineOpenAIRequiresKey(t *testing.T) {
	_, err := NewEngine(Config{Type: "openai"})
	assert.Error(t, err)

	engine, err := NewEngine(Config{Type: "openai", APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, "openai:tts-1", engine.Name())
	assert.Equal(t, "onyx", engine.VoiceName(podcast.VoiceMale))
	assert.Equal(t, "alloy", engine.VoiceName(podcast.Voice("unknown")))
}

func TestBestEnginePrefersAPIKey(t *testing.T) {
	assert.Equal(t, EngineTypeOpenAI, getBestEngine(Config{APIKey: "key"}))
	assert.Contains(t, GetAvailableEngines(Config{}), EngineTypeMock)
}

func TestMockSynthesizeProducesWav(t *testing.T) {
	engine := NewMockTTSEngine(Config{})
	audio, err := engine.Synthesize(context.Background(), "a few words of narration", engine.VoiceName(podcast.VoiceDefault))
	require.NoError(t, err)

	streamer, format, err := wav.Decode(bytes.NewReader(audio))
	require.NoError(t, err)
	defer streamer.Close()
	assert.Equal(t, mockFormat.SampleRate, format.SampleRate)
	assert.Greater(t, streamer.Len(), 0)
}

func TestMockSynthesizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockTTSEngine(Config{}).Synthesize(ctx, "text", "mock-default")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPersonas(t *testing.T) {
	personas := Personas(NewMockTTSEngine(Config{}))
	require.Len(t, personas, len(podcast.Voices))
	assert.Equal(t, VoiceInfo{Persona: podcast.VoiceFemale, Name: "mock-female"}, personas[2])
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "en-GB", languageCode("en-GB-Chirp3-HD-Umbriel"))
	assert.Equal(t, "en-US", languageCode("odd"))
}

func TestParseESpeakVoices(t *testing.T) {
	output := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-gb           --/M      English_(Great_Britain) gmw/en
`
	assert.Equal(t, []string{"Afrikaans", "English_(Great_Britain)"}, parseESpeakVoices(output))
}

func TestESpeakArgs(t *testing.T) {
	e := &ESpeakEngine{path: "espeak", speed: 1.2}
	assert.Equal(t, []string{"--stdout", "-v", "en+f3", "-s", "210", "hello"},
		e.args("hello", e.VoiceName(podcast.VoiceFemale)))
}
