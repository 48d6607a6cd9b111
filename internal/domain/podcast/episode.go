package podcast

import (
	"fmt"
	"html"
	"strings"
)

// Disclaimer is spoken at the start of every episode and included in its description.
const Disclaimer = "Both the text and the audio of this podcast are AI generated, and inaccuracies may exist."

// IntroText is the spoken opening of an episode.
func IntroText(t Topic) string {
	return fmt.Sprintf("%q.\n\n%s", t.Name, Disclaimer)
}

// OutroText is the spoken closing of an episode.
func OutroText(t Topic) string {
	return fmt.Sprintf("This concludes the episode about %s. Thank you for listening.", t.Name)
}

// DescriptionFormat selects how an episode description is rendered.
type DescriptionFormat string

const (
	DescriptionHTML  DescriptionFormat = "html"
	DescriptionPlain DescriptionFormat = "plain"
)

// Description renders the show notes of an episode from its subtopics.
func Description(subtopics SubtopicList, format DescriptionFormat) (string, error) {
	switch format {
	case DescriptionHTML:
		var b strings.Builder
		b.WriteString("<p><strong>Sections</strong>:</p>\n<ol>\n")
		for _, s := range subtopics {
			fmt.Fprintf(&b, "  <li>%s</li>\n", html.EscapeString(s))
		}
		b.WriteString("</ol>\n<p><br></p><p><strong>Disclaimer</strong>: <em>")
		b.WriteString(Disclaimer)
		b.WriteString("</em></p>")
		return b.String(), nil
	case DescriptionPlain:
		return "Sections:\n\n" + subtopics.Numbered(), nil
	}
	return "", fmt.Errorf("unsupported description format %q", format)
}
