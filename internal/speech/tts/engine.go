package tts

import (
	"fmt"
	"os"
	"os/exec"
)

type EngineType string

const (
	EngineTypeMock          EngineType = "mock"
	EngineTypeOpenAI        EngineType = "openai"
	EngineTypeGoogleClassic EngineType = "googleclassic"
	EngineTypeESpeak        EngineType = "espeak"
	EngineTypeAuto          EngineType = "auto" // Pick the best available backend
)

func (e EngineType) String() string {
	return string(e)
}

// NewEngine creates a new TTS engine based on the provided config
func NewEngine(config Config) (Engine, error) {
	if config.Type == EngineTypeAuto.String() || config.Type == "" {
		config.Type = getBestEngine(config).String()
	}

	switch config.Type {
	case EngineTypeMock.String():
		return NewMockTTSEngine(config), nil

	case EngineTypeOpenAI.String():
		return newOpenAIEngine(config)

	case EngineTypeGoogleClassic.String():
		return newGoogleClassicTTSEngine(config)

	case EngineTypeESpeak.String():
		return newESpeakEngine(config)

	default:
		return nil, fmt.Errorf("unsupported TTS engine type: %s", config.Type)
	}
}

// getBestEngine prefers hosted voices when credentials exist and falls back to
// a local espeak install.
func getBestEngine(config Config) EngineType {
	if config.APIKey != "" {
		return EngineTypeOpenAI
	}
	if hasGoogleCredentials() {
		return EngineTypeGoogleClassic
	}
	if _, err := findESpeakExecutable(); err == nil {
		return EngineTypeESpeak
	}
	return EngineTypeOpenAI
}

// GetAvailableEngines returns engines usable with the current environment
func GetAvailableEngines(config Config) []EngineType {
	engines := []EngineType{EngineTypeMock}

	if config.APIKey != "" {
		engines = append(engines, EngineTypeOpenAI)
	}
	if hasGoogleCredentials() {
		engines = append(engines, EngineTypeGoogleClassic)
	}
	if _, err := findESpeakExecutable(); err == nil {
		engines = append(engines, EngineTypeESpeak)
	}
	return engines
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}

func findESpeakExecutable() (string, error) {
	for _, candidate := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("eSpeak executable not found in PATH")
}
