package studio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podnest/internal/assemble"
	"podnest/internal/cache"
	"podnest/internal/config"
	"podnest/internal/domain/podcast"
	"podnest/internal/llm"
	"podnest/internal/pipeline"
	"podnest/internal/speech/tts"
)

// copyAssembler writes the first part of every segment back to back.
type copyAssembler struct{}

func (copyAssembler) Check() error { return nil }

func (copyAssembler) Concatenate(ctx context.Context, segments []podcast.AudioSegment, markers assemble.Markers, outputPath string) (string, error) {
	var out []byte
	for _, s := range assemble.Order(segments, markers) {
		out = append(out, s.Parts[0]...)
	}
	return outputPath, os.WriteFile(outputPath, out, 0644)
}

func newTestStudio(t *testing.T) (*Studio, *llm.Mock) {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	completer := llm.NewMock()

	cfg := &config.Config{
		Pipeline: pipeline.Config{Workers: 2},
		Cache:    cache.Config{Backend: cache.BackendFile, Dir: store.Dir(), TextTTL: 24 * time.Hour},
		Speech:   tts.Config{Type: "mock"},
		Assemble: assemble.Config{Markers: true},
		Output:   config.OutputConfig{Dir: t.TempDir()},
	}
	s := New(cfg,
		WithStore(store),
		WithCompleter(completer),
		WithEngine(tts.NewMockTTSEngine(cfg.Speech)),
		WithAssembler(copyAssembler{}))
	t.Cleanup(func() { s.Close() })
	return s, completer
}

// command builds a throwaway command carrying the flags a handler reads.
func command(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("voice", "", "")
	cmd.Flags().String("output", "", "")
	cmd.Flags().Bool("no-markers", false, "")
	cmd.Flags().Bool("extended", false, "")
	cmd.Flags().Int("max-subtopics", 0, "")
	cmd.Flags().String("format", "html", "")
	cmd.Flags().String("stage", "", "")
	cmd.Flags().Bool("all", false, "")
	cmd.SetOut(out)
	return cmd
}

func TestGenerate(t *testing.T) {
	s, _ := newTestStudio(t)
	var out bytes.Buffer
	cmd := command(&out)
	path := filepath.Join(t.TempDir(), "volcanoes.wav")
	require.NoError(t, cmd.Flags().Set("output", path))
	require.NoError(t, cmd.Flags().Set("voice", "female"))

	require.NoError(t, s.Generate(cmd, []string{"Volcanoes"}))
	assert.Contains(t, out.String(), "OUTPUT: "+path)
	assert.Contains(t, out.String(), "Section 4: Looking ahead")
	assert.FileExists(t, path)
}

func TestGenerateInvalidTopic(t *testing.T) {
	s, completer := newTestStudio(t)
	var out bytes.Buffer
	err := s.Generate(command(&out), []string{`"Volcanoes"`})
	assert.ErrorIs(t, err, podcast.ErrInvalidTopic)
	assert.Zero(t, completer.Calls())
}

func TestGenerateFailurePrintsRemedy(t *testing.T) {
	s, _ := newTestStudio(t)
	var out bytes.Buffer
	cmd := command(&out)
	require.NoError(t, cmd.Flags().Set("output", filepath.Join(t.TempDir(), "volcanoes.mp3")))

	err := s.Generate(cmd, []string{"Volcanoes"})
	require.Error(t, err)
	assert.Contains(t, out.String(), podcast.Remedy(err))
}

func TestListSubtopicsAndDescribe(t *testing.T) {
	s, completer := newTestStudio(t)
	var out bytes.Buffer
	cmd := command(&out)
	require.NoError(t, cmd.Flags().Set("max-subtopics", "2"))

	require.NoError(t, s.ListSubtopics(cmd, []string{"Volcanoes"}))
	assert.Contains(t, out.String(), "2. Core ideas")
	assert.NotContains(t, out.String(), "3. In practice")

	out.Reset()
	require.NoError(t, cmd.Flags().Set("format", "plain"))
	require.NoError(t, s.Describe(cmd, []string{"Volcanoes"}))
	assert.Equal(t, "Sections:\n\n1. Introduction\n2. Core ideas\n", out.String())
	assert.Equal(t, int64(1), completer.Calls())
}

func TestCacheCommands(t *testing.T) {
	s, _ := newTestStudio(t)
	var out bytes.Buffer
	cmd := command(&out)
	require.NoError(t, s.ListSubtopics(cmd, []string{"Volcanoes"}))

	out.Reset()
	require.NoError(t, s.CacheStatus(cmd, nil))
	assert.Contains(t, out.String(), "Entries: 1")
	assert.Contains(t, out.String(), "subtopics")

	out.Reset()
	require.NoError(t, cmd.Flags().Set("stage", "subtopics"))
	require.NoError(t, s.CacheEvict(cmd, []string{"Volcanoes"}))
	assert.Contains(t, out.String(), "Evicted 1 entries")

	require.NoError(t, cmd.Flags().Set("stage", "audio"))
	assert.Error(t, s.CacheEvict(cmd, []string{"Volcanoes"}))

	out.Reset()
	require.NoError(t, s.CacheClear(cmd, nil))
	assert.Contains(t, out.String(), "Cache cleared")
}

func TestVoices(t *testing.T) {
	s, _ := newTestStudio(t)
	var out bytes.Buffer
	require.NoError(t, s.Voices(command(&out), nil))
	assert.Contains(t, out.String(), "mock-emotive")
	assert.Contains(t, out.String(), "mock")
}
