package studio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"podnest/internal/cache"
	"podnest/internal/cli/scheme/colours"
	"podnest/internal/domain/podcast"
	"podnest/internal/pipeline"
	"podnest/internal/player"
	"podnest/internal/speech/tts"
)

func (s *Studio) ShowWelcome(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	colours.Title.Fprintln(w, "🎙️  Welcome to PodNest! 🎙️")
	fmt.Fprintln(w)
	colours.Info.Fprintln(w, "📚 Available commands:")
	fmt.Fprintln(w, "  • podnest generate <topic>   - Generate an episode")
	fmt.Fprintln(w, "  • podnest subtopics <topic>  - Preview the sections of an episode")
	fmt.Fprintln(w, "  • podnest describe <topic>   - Print the show notes of an episode")
	fmt.Fprintln(w, "  • podnest cache status       - Inspect the cache")
	fmt.Fprintln(w, "  • podnest voices             - List narrator voices")
	fmt.Fprintln(w, "  • podnest play <file>        - Listen to an episode")
	fmt.Fprintln(w)
}

func (s *Studio) Generate(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	topic, err := parseTopic(cmd, args)
	if err != nil {
		return err
	}

	req := pipeline.Request{Topic: topic, Markers: s.cfg.Assemble.Markers}
	if name, _ := cmd.Flags().GetString("voice"); name != "" {
		if req.Voice, err = podcast.ParseVoice(name); err != nil {
			return err
		}
	}
	req.MaxSubtopics, _ = cmd.Flags().GetInt("max-subtopics")
	req.OutputPath, _ = cmd.Flags().GetString("output")
	if noMarkers, _ := cmd.Flags().GetBool("no-markers"); noMarkers {
		req.Markers = false
	}

	coordinator, err := s.coordinator()
	if err != nil {
		return err
	}

	colours.Title.Fprintf(w, "🎙️  TOPIC: %s\n", topic)
	colours.Info.Fprintf(w, "📁 CACHE: %s (%s)\n", s.cfg.Cache.Dir, s.cfg.Cache.Backend)
	colours.Info.Fprintf(w, "⚙️  WORKERS: %d\n", s.cfg.Pipeline.Workers)

	res, err := coordinator.Run(s.ctx, req)
	if err != nil {
		logFailure(err)
		colours.Warning.Fprintf(w, "💡 %s\n", podcast.Remedy(err))
		return err
	}

	fmt.Fprintln(w)
	colours.Info.Fprintf(w, "🗣️  VOICE: %s\n", res.Run.Voice)
	colours.Info.Fprintln(w, "📋 SECTIONS:")
	for i := range res.Run.Subtopics {
		colours.Section.Fprintf(w, "  %s\n", res.Run.Subtopics.Heading(i))
	}
	colours.Success.Fprintf(w, "✅ OUTPUT: %s (generated in %s)\n", res.OutputPath, res.Duration.Round(time.Second))
	return nil
}

func (s *Studio) ListSubtopics(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	topic, err := parseTopic(cmd, args)
	if err != nil {
		return err
	}
	text, err := s.textGenerator()
	if err != nil {
		return err
	}

	list, err := text.ListSubtopics(s.ctx, topic)
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-subtopics"); n > 0 {
		list = list.Limit(n)
	}

	colours.Title.Fprintf(w, "📋 %s\n", topic)
	for i := range list {
		colours.Section.Fprintf(w, "  %d. %s\n", i+1, list[i])
	}
	return nil
}

func (s *Studio) Describe(cmd *cobra.Command, args []string) error {
	topic, err := parseTopic(cmd, args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	text, err := s.textGenerator()
	if err != nil {
		return err
	}
	list, err := text.ListSubtopics(s.ctx, topic)
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-subtopics"); n > 0 {
		list = list.Limit(n)
	}

	description, err := podcast.Description(list, podcast.DescriptionFormat(format))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), description)
	return nil
}

func (s *Studio) Voices(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	engine, err := s.ttsEngine()
	if err != nil {
		return err
	}

	colours.Title.Fprintf(w, "🗣️  Voices of %s\n", engine.Name())
	for _, v := range tts.Personas(engine) {
		fmt.Fprintf(w, "  • %-8s → %s\n", v.Persona, v.Name)
	}

	if all, _ := cmd.Flags().GetBool("all"); all {
		names, err := engine.GetAvailableVoices(s.ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		colours.Info.Fprintf(w, "🎤 %d backend voices:\n", len(names))
		for _, name := range names {
			fmt.Fprintf(w, "  • %s\n", name)
		}
	}

	fmt.Fprintln(w)
	colours.Info.Fprintln(w, "🔌 Engines usable here:")
	for _, e := range tts.GetAvailableEngines(s.cfg.Speech) {
		fmt.Fprintf(w, "  • %s\n", e)
	}
	return nil
}

func (s *Studio) CacheStatus(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	store, err := s.cacheStore()
	if err != nil {
		return err
	}
	stats, err := store.Stats(s.ctx)
	if err != nil {
		return fmt.Errorf("failed to get cache info: %w", err)
	}

	colours.Title.Fprintln(w, "📊 Cache Status")
	colours.Info.Fprintf(w, "📁 Location: %s\n", stats.Location)
	colours.Info.Fprintf(w, "📦 Entries: %d\n", stats.Entries)
	colours.Info.Fprintf(w, "📏 Size: %s\n", humanize.Bytes(uint64(stats.TotalBytes)))

	stages := make([]string, 0, len(stats.ByStage))
	for stage := range stats.ByStage {
		stages = append(stages, string(stage))
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(w, "  • %-10s %d\n", stage, stats.ByStage[cache.Stage(stage)])
	}

	if stats.Expired > 0 {
		colours.Warning.Fprintf(w, "⏰ %d stale text entries will be regenerated\n", stats.Expired)
	} else {
		colours.Success.Fprintln(w, "🔄 All entries are fresh")
	}
	return nil
}

func (s *Studio) CacheEvict(cmd *cobra.Command, args []string) error {
	topic, err := parseTopic(cmd, args)
	if err != nil {
		return err
	}
	stageName, _ := cmd.Flags().GetString("stage")
	stage, err := parseStage(stageName)
	if err != nil {
		return err
	}

	store, err := s.cacheStore()
	if err != nil {
		return err
	}
	removed, err := store.Purge(s.ctx, cache.Namespace(topic.String()), stage)
	if err != nil {
		return err
	}
	colours.Success.Fprintf(cmd.OutOrStdout(), "🧹 Evicted %d entries of %s\n", removed, topic)
	return nil
}

func parseStage(name string) (cache.Stage, error) {
	if name == "" {
		return "", nil
	}
	for _, s := range []cache.Stage{cache.StageSubtopics, cache.StageVoice, cache.StageText, cache.StageSpeech, cache.StageMarker} {
		if cache.Stage(name) == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown cache stage %q", name)
}

func (s *Studio) CacheClear(cmd *cobra.Command, args []string) error {
	store, err := s.cacheStore()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	colours.Success.Fprintln(cmd.OutOrStdout(), "🧹 Cache cleared")
	return nil
}

func (s *Studio) Play(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	p, err := player.Open(args[0])
	if err != nil {
		return err
	}
	defer p.Close()

	colours.Success.Fprintf(w, "🎵 Playing %s (%s)\n", args[0], p.Length().Round(time.Second))
	fmt.Fprintln(w, "💡 Press Ctrl+C to stop anytime")

	errc := make(chan error, 1)
	go func() {
		errc <- p.Play(s.ctx)
	}()

	return s.waitForUserInput(w, cmd.InOrStdin(), p, errc)
}

func (s *Studio) waitForUserInput(w io.Writer, in io.Reader, p *player.Player, errc <-chan error) error {
	lines := make(chan string)
	go func() {
		reader := bufio.NewReader(in)
		for {
			input, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			lines <- strings.TrimSpace(strings.ToLower(input))
		}
	}()

	for {
		fmt.Fprint(w, "\n⏸️  Press 'p' to pause/resume, 's' to stop: ")
		select {
		case err := <-errc:
			fmt.Fprintln(w)
			if err != nil && s.ctx.Err() == nil {
				return err
			}
			colours.Success.Fprintln(w, "✅ Episode finished!")
			return nil
		case input := <-lines:
			switch input {
			case "p", "pause":
				if p.TogglePause() {
					colours.Warning.Fprintln(w, "⏸️  Paused")
				} else {
					colours.Success.Fprintln(w, "▶️  Resumed")
				}
			case "s", "stop":
				p.Stop()
				colours.Warning.Fprintln(w, "⏹️  Stopped")
				return nil
			case "":
				continue
			default:
				colours.Info.Fprintln(w, "ℹ️  Use 'p' for pause/resume, 's' to stop")
			}
		}
	}
}
