package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"podnest/internal/cli/scheme/colours"
	"podnest/internal/config"
	"podnest/internal/studio"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("failed to load .env file")
	}

	v := viper.GetViper()
	config.Init(v)
	cfg, err := config.Load(v)
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}

	app := studio.New(cfg)
	defer app.Close()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		colours.Warning.Println("\n👋 Stopping, finished sections stay cached...")
		app.Cancel()
		<-sigChan
		os.Exit(130)
	}()

	rootCmd := newRootCmd(app)
	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		app.Close()
		os.Exit(1)
	}
}

func newRootCmd(app *studio.Studio) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "podnest",
		Short: "🎙️ Generate narrated podcast episodes about any topic",
		Long: `
┌─────────────────────────────────────┐
│  🎙️  Welcome to PodNest!            │
│  Any topic, one narrated episode    │
└─────────────────────────────────────┘

PodNest plans an episode with a language model, writes every section,
narrates it with a text-to-speech voice and joins it all into one file.
Everything generated is cached, so reruns are quick and cheap.
		`,
		Run:           app.ShowWelcome,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Generate command
	generateCmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "🎧 Generate an episode",
		Long:  "Generate an episode for a topic. Append \" (extended)\" or \" (in <Language>)\" to the topic to change the plan.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  app.Generate,
	}

	// Subtopics command
	subtopicsCmd := &cobra.Command{
		Use:   "subtopics <topic>",
		Short: "📋 Preview the sections of an episode",
		Args:  cobra.MinimumNArgs(1),
		RunE:  app.ListSubtopics,
	}

	// Describe command
	describeCmd := &cobra.Command{
		Use:   "describe <topic>",
		Short: "📝 Print the show notes of an episode",
		Args:  cobra.MinimumNArgs(1),
		RunE:  app.Describe,
	}

	// Voices command
	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🗣️ List narrator voices",
		Args:  cobra.NoArgs,
		RunE:  app.Voices,
	}

	// Play command
	playCmd := &cobra.Command{
		Use:   "play <file>",
		Short: "🎵 Listen to an episode",
		Args:  cobra.ExactArgs(1),
		RunE:  app.Play,
	}

	// Cache parent command
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "📦 Manage cached text and audio",
	}
	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "📊 Show cache status",
			Args:  cobra.NoArgs,
			RunE:  app.CacheStatus,
		},
		evictCmd(app),
		&cobra.Command{
			Use:   "clear",
			Short: "🧹 Remove every cached entry",
			Args:  cobra.NoArgs,
			RunE:  app.CacheClear,
		},
	)

	// Add flags
	generateCmd.Flags().StringP("voice", "v", "", "Narrator voice: default, emotive, female or male. Chosen per topic when empty")
	generateCmd.Flags().StringP("output", "o", "", "Output file or directory")
	generateCmd.Flags().Bool("no-markers", false, "Leave out the intro and outro")
	for _, cmd := range []*cobra.Command{generateCmd, subtopicsCmd, describeCmd} {
		cmd.Flags().BoolP("extended", "e", false, "Plan a longer episode with more sections")
		cmd.Flags().IntP("max-subtopics", "n", 0, "Use at most this many sections")
	}
	describeCmd.Flags().StringP("format", "f", "html", "Description format: html or plain")
	voicesCmd.Flags().Bool("all", false, "Also list every voice the backend offers")

	rootCmd.AddCommand(generateCmd, subtopicsCmd, describeCmd, voicesCmd, playCmd, cacheCmd)
	return rootCmd
}

func evictCmd(app *studio.Studio) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evict <topic>",
		Short: "🗑️ Remove the cached entries of a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE:  app.CacheEvict,
	}
	cmd.Flags().String("stage", "", "Only evict one stage: subtopics, voice, text, speech or marker")
	cmd.Flags().BoolP("extended", "e", false, "Evict the extended variant of the topic")
	return cmd
}
