package podcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescription(t *testing.T) {
	list := SubtopicList{"Formation", "Rock & ash"}

	plain, err := Description(list, DescriptionPlain)
	require.NoError(t, err)
	assert.Equal(t, "Sections:\n\n1. Formation\n2. Rock & ash", plain)

	html, err := Description(list, DescriptionHTML)
	require.NoError(t, err)
	assert.Contains(t, html, "<ol>\n  <li>Formation</li>\n  <li>Rock &amp; ash</li>\n</ol>")
	assert.Contains(t, html, Disclaimer)

	_, err = Description(list, "markdown")
	assert.Error(t, err)
}

func TestIntroText(t *testing.T) {
	assert.Equal(t, "\"Volcanoes\".\n\n"+Disclaimer, IntroText(Topic{Name: "Volcanoes", Extended: true}))
	assert.Contains(t, OutroText(Topic{Name: "Volcanoes"}), "Volcanoes")
}
