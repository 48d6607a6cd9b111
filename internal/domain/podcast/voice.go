package podcast

import (
	"fmt"
	"strings"
)

// Voice is the narration persona applied uniformly across a run.
type Voice string

const (
	VoiceDefault Voice = "default"
	VoiceEmotive Voice = "emotive"
	VoiceFemale  Voice = "female"
	VoiceMale    Voice = "male"
)

// Voices lists every supported voice.
var Voices = []Voice{VoiceDefault, VoiceEmotive, VoiceFemale, VoiceMale}

func (v Voice) String() string {
	return string(v)
}

// ParseVoice normalises a voice name. Trailing punctuation and case are ignored
// since the value often comes straight from a model answer.
func ParseVoice(s string) (Voice, error) {
	s = strings.ToLower(strings.TrimRight(strings.TrimSpace(s), ".!"))
	for _, v := range Voices {
		if s == string(v) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown voice %q", s)
}
