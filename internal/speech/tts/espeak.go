package tts

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"podnest/internal/domain/podcast"
)

var espeakVoices = map[podcast.Voice]string{
	podcast.VoiceDefault: "en",
	podcast.VoiceEmotive: "en+m7",
	podcast.VoiceFemale:  "en+f3",
	podcast.VoiceMale:    "en+m3",
}

// ESpeakEngine renders WAV audio locally with eSpeak/eSpeak-NG.
type ESpeakEngine struct {
	path  string
	speed float64
}

// newESpeakEngine creates a new eSpeak TTS engine
func newESpeakEngine(config Config) (*ESpeakEngine, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	engine := &ESpeakEngine{path: espeakPath, speed: config.Speed}
	if engine.speed <= 0 {
		engine.speed = 1.0
	}

	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}
	return engine, nil
}

func (e *ESpeakEngine) Name() string {
	return EngineTypeESpeak.String()
}

func (e *ESpeakEngine) Format() string {
	return "wav"
}

// MaxInputChars keeps command lines comfortably below ARG_MAX.
func (e *ESpeakEngine) MaxInputChars() int {
	return 8000
}

func (e *ESpeakEngine) VoiceName(v podcast.Voice) string {
	if name, ok := espeakVoices[v]; ok {
		return name
	}
	return espeakVoices[podcast.VoiceDefault]
}

func (e *ESpeakEngine) args(text, voice string) []string {
	args := []string{"--stdout"}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	// words per minute, default is 175
	args = append(args, "-s", strconv.Itoa(int(math.Round(175*e.speed))))
	return append(args, text)
}

func (e *ESpeakEngine) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.path, e.args(text, voice)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("eSpeak error: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("eSpeak produced no audio")
	}
	return stdout.Bytes(), nil
}

func (e *ESpeakEngine) GetAvailableVoices(ctx context.Context) ([]string, error) {
	output, err := exec.CommandContext(ctx, e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}
	return parseESpeakVoices(string(output)), nil
}

func parseESpeakVoices(output string) []string {
	lines := strings.Split(output, "\n")
	voices := make([]string, 0)

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		// Parse voice line: Pty Language Age/Gender VoiceName          File          Other Languages
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			voices = append(voices, fields[3])
		}
	}

	return voices
}
