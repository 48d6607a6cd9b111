package podcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopicPlain(t *testing.T) {
	topic, err := ParseTopic("PyTorch")
	require.NoError(t, err)
	assert.Equal(t, Topic{Name: "PyTorch"}, topic)
	assert.Equal(t, "PyTorch", topic.String())
}

func TestParseTopicModifiers(t *testing.T) {
	topic, err := ParseTopic("Volcanoes (in French) (Extended)")
	require.NoError(t, err)
	assert.Equal(t, "Volcanoes", topic.Name)
	assert.Equal(t, "French", topic.Language)
	assert.True(t, topic.Extended)
	assert.Equal(t, "Volcanoes (in French) (extended)", topic.String())

	other, err := ParseTopic("Volcanoes (extended) (in French)")
	require.NoError(t, err)
	assert.Equal(t, topic, other)
}

func TestParseTopicInvalid(t *testing.T) {
	for _, raw := range []string{"", " leading", "trailing ", "x", "two\nlines", `"quoted"`, "'quoted'", "(extended)"} {
		_, err := ParseTopic(raw)
		assert.ErrorIs(t, err, ErrInvalidTopic, "input %q", raw)
	}
}

func TestTopicWithExtended(t *testing.T) {
	topic := Topic{Name: "Rust"}
	assert.True(t, topic.WithExtended(true).Extended)
	assert.False(t, topic.WithExtended(false).Extended)
	assert.True(t, Topic{Name: "Rust", Extended: true}.WithExtended(false).Extended)
}

func TestParseVoice(t *testing.T) {
	v, err := ParseVoice(" Female.")
	require.NoError(t, err)
	assert.Equal(t, VoiceFemale, v)

	_, err = ParseVoice("robot")
	assert.Error(t, err)
}
