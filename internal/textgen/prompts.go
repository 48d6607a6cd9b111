package textgen

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"podnest/internal/domain/podcast"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("").
	Funcs(template.FuncMap{"join": joinVoices}).
	ParseFS(promptFS, "prompts/*.tmpl"))

func joinVoices(voices []podcast.Voice, sep string) string {
	names := make([]string, len(voices))
	for i, v := range voices {
		names[i] = v.String()
	}
	return strings.Join(names, sep)
}

// promptData is the input of every prompt template.
type promptData struct {
	Topic    podcast.Topic
	Voices   []podcast.Voice
	Voice    podcast.Voice
	Numbered string
	Number   int
	Subtopic string
}

func renderPrompt(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
