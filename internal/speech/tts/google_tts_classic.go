package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"

	"podnest/internal/domain/podcast"
)

var googleVoices = map[podcast.Voice]string{
	podcast.VoiceDefault: "en-US-Chirp3-HD-Charon",
	podcast.VoiceEmotive: "en-US-Chirp3-HD-Puck",
	podcast.VoiceFemale:  "en-US-Chirp3-HD-Aoede",
	podcast.VoiceMale:    "en-GB-Chirp3-HD-Umbriel",
}

// GoogleClassicTTSEngine synthesizes MP3 with Google Cloud Text-to-Speech.
type GoogleClassicTTSEngine struct {
	once   sync.Once
	client *texttospeech.Client
	err    error
	speed  float64
}

func newGoogleClassicTTSEngine(config Config) (*GoogleClassicTTSEngine, error) {
	if !hasGoogleCredentials() {
		return nil, fmt.Errorf("google tts: GOOGLE_APPLICATION_CREDENTIALS is not set")
	}
	speed := config.Speed
	if speed <= 0 {
		speed = 1.0
	}
	return &GoogleClassicTTSEngine{speed: speed}, nil
}

// connect creates the gRPC client on first use.
func (g *GoogleClassicTTSEngine) connect(ctx context.Context) (*texttospeech.Client, error) {
	g.once.Do(func() {
		g.client, g.err = texttospeech.NewClient(context.WithoutCancel(ctx))
		if g.err != nil {
			g.err = fmt.Errorf("failed to create TTS client: %w", g.err)
		}
	})
	return g.client, g.err
}

func (g *GoogleClassicTTSEngine) Name() string {
	return EngineTypeGoogleClassic.String()
}

func (g *GoogleClassicTTSEngine) Format() string {
	return "mp3"
}

// MaxInputChars stays a little under the 5000 byte request limit.
func (g *GoogleClassicTTSEngine) MaxInputChars() int {
	return 4800
}

func (g *GoogleClassicTTSEngine) VoiceName(v podcast.Voice) string {
	if name, ok := googleVoices[v]; ok {
		return name
	}
	return googleVoices[podcast.VoiceDefault]
}

func (g *GoogleClassicTTSEngine) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	client, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}

	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}
	// Chirp voices don't support speakingRate/pitch/SSML
	if !strings.Contains(strings.ToLower(voice), "chirp") {
		audioCfg.SpeakingRate = g.speed
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode(voice),
			Name:         voice,
		},
		AudioConfig: audioCfg,
	}

	logrus.WithFields(logrus.Fields{
		"voice":       voice,
		"text_length": len(text),
	}).Debug("Requesting speech")

	resp, err := client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("google tts: %w", err)
	}
	return resp.AudioContent, nil
}

// languageCode extracts "en-GB" from "en-GB-Chirp3-HD-Umbriel".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

func (g *GoogleClassicTTSEngine) GetAvailableVoices(ctx context.Context) ([]string, error) {
	client, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}
	voices := []string{}
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}
