// Package assemble joins ordered audio segments into one episode file with
// ffmpeg's concat demuxer.
package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"podnest/internal/domain/podcast"
)

// Markers are optional segments played before and after the sections.
type Markers struct {
	Intro *podcast.AudioSegment
	Outro *podcast.AudioSegment
}

// Config configures the assembler and the episode markers.
type Config struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	Markers    bool   `mapstructure:"markers"`
	IntroFile  string `mapstructure:"intro_file"`
	OutroFile  string `mapstructure:"outro_file"`
}

// Assembler concatenates segments. It never retries; every failure wraps
// podcast.ErrExternalTool.
type Assembler struct {
	ffmpeg string
	runner Runner
	probe  Probe
	log    logrus.FieldLogger
}

type Option func(*Assembler)

func WithRunner(r Runner) Option {
	return func(a *Assembler) {
		a.runner = r
	}
}

func WithProbe(p Probe) Option {
	return func(a *Assembler) {
		a.probe = p
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Assembler) {
		a.log = l
	}
}

func New(ffmpegPath string, opts ...Option) *Assembler {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	a := &Assembler{
		ffmpeg: ffmpegPath,
		runner: ExecRunner{},
		probe:  DecodeProbe,
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Check verifies that the audio tool is installed.
func (a *Assembler) Check() error {
	if _, err := a.runner.LookPath(a.ffmpeg); err != nil {
		return fmt.Errorf("%w: %s not found: %v", podcast.ErrExternalTool, a.ffmpeg, err)
	}
	return nil
}

// Concatenate writes the markers and segments, ordered by index, into
// outputPath and returns the path.
func (a *Assembler) Concatenate(ctx context.Context, segments []podcast.AudioSegment, markers Markers, outputPath string) (string, error) {
	ordered := Order(segments, markers)
	if len(ordered) == 0 {
		return "", fmt.Errorf("%w: nothing to assemble", podcast.ErrExternalTool)
	}
	format := ordered[0].Format
	for _, s := range ordered {
		if s.Format != format {
			return "", fmt.Errorf("%w: mixed audio formats %s and %s", podcast.ErrExternalTool, format, s.Format)
		}
	}

	workDir, err := os.MkdirTemp("", "podnest-assemble-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	paths, err := writeParts(workDir, ordered)
	if err != nil {
		return "", err
	}
	listPath := filepath.Join(workDir, "ffmpeg.list")
	if err := os.WriteFile(listPath, []byte(ConcatList(paths)), 0644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	a.log.WithFields(logrus.Fields{
		"parts":  len(paths),
		"output": outputPath,
	}).Info("Merging speech parts")

	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", "-loglevel", "error", outputPath}
	if err := a.runner.Run(ctx, a.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("%w: %v", podcast.ErrExternalTool, err)
	}

	if err := a.probe(outputPath); err != nil {
		return "", fmt.Errorf("%w: invalid output %s: %v", podcast.ErrExternalTool, outputPath, err)
	}

	a.log.WithField("output", outputPath).Info("Merged speech parts")
	return outputPath, nil
}

// Order returns the intro, the segments sorted by index and the outro.
func Order(segments []podcast.AudioSegment, markers Markers) []podcast.AudioSegment {
	sorted := make([]podcast.AudioSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	out := make([]podcast.AudioSegment, 0, len(sorted)+2)
	if markers.Intro != nil {
		out = append(out, *markers.Intro)
	}
	out = append(out, sorted...)
	if markers.Outro != nil {
		out = append(out, *markers.Outro)
	}
	return out
}

func writeParts(dir string, segments []podcast.AudioSegment) ([]string, error) {
	var paths []string
	for i, seg := range segments {
		for j, part := range seg.Parts {
			path := filepath.Join(dir, fmt.Sprintf("%03d-%02d.%s", i, j, seg.Format))
			if err := os.WriteFile(path, part, 0644); err != nil {
				return nil, fmt.Errorf("failed to write speech part: %w", err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// ConcatList renders an ffmpeg concat demuxer file list.
func ConcatList(paths []string) string {
	lines := make([]string, len(paths))
	for i, p := range paths {
		lines[i] = "file '" + strings.ReplaceAll(p, "'", `'\''`) + "'"
	}
	return strings.Join(lines, "\n") + "\n"
}
