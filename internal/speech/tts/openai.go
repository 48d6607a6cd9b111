package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"podnest/internal/domain/podcast"
)

// openAIVoices maps personas onto OpenAI speech voices.
var openAIVoices = map[podcast.Voice]string{
	podcast.VoiceDefault: "alloy",
	podcast.VoiceEmotive: "fable",
	podcast.VoiceFemale:  "nova",
	podcast.VoiceMale:    "onyx",
}

// OpenAITTSEngine synthesizes MP3 through the OpenAI audio speech endpoint.
type OpenAITTSEngine struct {
	client oai.Client
	model  string
	speed  float64
}

func newOpenAIEngine(config Config) (*OpenAITTSEngine, error) {
	if config.APIKey == "" {
		return nil, errors.New("openai tts: api key must not be empty (set OPENAI_API_KEY)")
	}
	model := config.Model
	if model == "" {
		model = string(oai.SpeechModelTTS1)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: config.Timeout}))
	}

	return &OpenAITTSEngine{
		client: oai.NewClient(reqOpts...),
		model:  model,
		speed:  config.Speed,
	}, nil
}

func (o *OpenAITTSEngine) Name() string {
	return EngineTypeOpenAI.String() + ":" + o.model
}

func (o *OpenAITTSEngine) Format() string {
	return "mp3"
}

// MaxInputChars is the documented input limit of the speech endpoint.
func (o *OpenAITTSEngine) MaxInputChars() int {
	return 4096
}

func (o *OpenAITTSEngine) VoiceName(v podcast.Voice) string {
	if name, ok := openAIVoices[v]; ok {
		return name
	}
	return openAIVoices[podcast.VoiceDefault]
}

func (o *OpenAITTSEngine) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	params := oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(o.model),
		Input:          text,
		Voice:          oai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if o.speed > 0 && o.speed != 1.0 {
		params.Speed = oai.Float(o.speed)
	}

	logrus.WithFields(logrus.Fields{
		"model":       o.model,
		"voice":       voice,
		"text_length": len(text),
	}).Debug("Requesting speech")

	resp, err := o.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai tts: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai tts: failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("openai tts: empty audio response")
	}
	return audio, nil
}

func (o *OpenAITTSEngine) GetAvailableVoices(ctx context.Context) ([]string, error) {
	return []string{"alloy", "ash", "ballad", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer"}, nil
}
