package podcast

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	extendedSuffix = regexp.MustCompile(`(?i)\s*\(extended\)$`)
	languageSuffix = regexp.MustCompile(`(?i)\s*\(in ([\p{L} -]+)\)$`)
)

// Topic is the subject of an episode along with its generation modifiers.
type Topic struct {
	Name     string `json:"name"`
	Extended bool   `json:"extended"`
	Language string `json:"language,omitempty"`
}

// ParseTopic validates raw user input and strips the modifier annotations.
// Modifiers may appear in either order at the end of the input, e.g.
// "Volcanoes (in French) (extended)".
func ParseTopic(raw string) (Topic, error) {
	if err := ValidateTopic(raw); err != nil {
		return Topic{}, err
	}

	t := Topic{}
	name := raw
	for {
		if loc := extendedSuffix.FindStringIndex(name); loc != nil {
			t.Extended = true
			name = name[:loc[0]]
			continue
		}
		if m := languageSuffix.FindStringSubmatchIndex(name); m != nil && t.Language == "" {
			t.Language = strings.TrimSpace(name[m[2]:m[3]])
			name = name[:m[0]]
			continue
		}
		break
	}

	t.Name = strings.TrimSpace(name)
	if err := ValidateTopic(t.Name); err != nil {
		return Topic{}, err
	}
	return t, nil
}

// ValidateTopic checks that a topic is structurally usable.
func ValidateTopic(topic string) error {
	switch {
	case topic == "":
		return fmt.Errorf("%w: no topic was provided", ErrInvalidTopic)
	case topic != strings.TrimSpace(topic):
		return fmt.Errorf("%w: topic must not have leading or trailing whitespace", ErrInvalidTopic)
	case len([]rune(topic)) < 2:
		return fmt.Errorf("%w: topic must be at least two characters long", ErrInvalidTopic)
	case strings.ContainsAny(topic, "\r\n"):
		return fmt.Errorf("%w: topic must be in a single line", ErrInvalidTopic)
	case len(topic) >= 2 && (topic[0] == '"' || topic[0] == '\'') && topic[0] == topic[len(topic)-1]:
		return fmt.Errorf("%w: topic must not be quoted", ErrInvalidTopic)
	}
	return nil
}

// WithExtended returns a copy of the topic with the extended flag set.
func (t Topic) WithExtended(extended bool) Topic {
	t.Extended = t.Extended || extended
	return t
}

// String returns the canonical form, which is also what cache keys are derived from.
func (t Topic) String() string {
	s := t.Name
	if t.Language != "" {
		s += " (in " + t.Language + ")"
	}
	if t.Extended {
		s += " (extended)"
	}
	return s
}
