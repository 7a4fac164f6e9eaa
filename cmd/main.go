package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"storyteller/internal/cli/scheme/colours"
	"storyteller/internal/config"
	"storyteller/internal/story/generator"
	"storyteller/internal/story/provider"
	"storyteller/internal/story/teller"
	"storyteller/internal/story/tts"
)

var (
	cfgFile string
	noColor bool
	app     *teller.Storyteller
)

func main() {
	config.SetDefaults()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		if app != nil {
			app.Close()
		}
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye! Come back for more stories 🌙"))
		os.Exit(0)
	}()

	rootCmd := &cobra.Command{
		Use:   "storyteller",
		Short: "🌍 Illustrated stories from the world's cultures",
		Long: `
┌──────────────────────────────────────────┐
│  🌍 Welcome to the Cultural Storyteller! │
│  Folk tales, legends and traditions      │
│  written, illustrated and read aloud 🔊  │
└──────────────────────────────────────────┘

Pick a category, describe the story you'd like, and get back an original
tale with an illustration and a moral. Export it to PDF to keep it.
		`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		Run: func(cmd *cobra.Command, args []string) {
			app.Interactive(cmd, args)
		},
	}

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "🌍 List story categories",
		Long:  "Display the cultural categories a story can be told in",
		Run: func(cmd *cobra.Command, args []string) {
			app.ListCategories(cmd, args)
		},
	}

	tellCmd := &cobra.Command{
		Use:   "tell [prompt]",
		Short: "📜 Tell a new story",
		Long:  "Generate an illustrated story from a prompt, then read, export or save it",
		Run: func(cmd *cobra.Command, args []string) {
			app.Tell(cmd, args)
		},
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List available voices",
		Long:  "List the voices the configured speech engine offers",
		Run: func(cmd *cobra.Command, args []string) {
			app.Voices(cmd, args)
		},
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show current settings",
		Long:  "Display the generation, voice and export settings in effect",
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowSettings(cmd, args)
		},
	}

	// Add flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.storyteller/storyteller.yaml)")
	rootCmd.PersistentFlags().String("provider", "", "Generation provider: gemini or openai")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	teller.RegisterTellFlags(tellCmd)

	viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("tts.voice", tellCmd.Flags().Lookup("voice"))

	rootCmd.AddCommand(categoriesCmd, tellCmd, voicesCmd, settingsCmd)

	err := rootCmd.Execute()
	if app != nil {
		app.Close()
	}
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the app before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if noColor {
		colours.SetEnabled(false)
	}

	if err := readConfigFile(); err != nil {
		return err
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			logrus.WithError(err).Fatal("Invalid configuration")
		}
		return err
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, keeping default")
	}

	p, err := provider.New(context.Background(), cfg)
	if err != nil {
		logrus.WithError(err).WithField("provider", cfg.Provider).Fatal("Failed to create provider client")
	}

	engine, err := tts.NewEngine(tts.Config{
		Type:     cfg.TTS.Type,
		Speed:    cfg.TTS.Speed,
		Volume:   cfg.TTS.Volume,
		Voice:    cfg.TTS.Voice,
		Language: cfg.TTS.Language,
	})
	if err != nil {
		logrus.WithError(err).Warn("Speech is unavailable, read aloud disabled")
		engine = nil
	}

	app = teller.New(cfg, generator.New(p), engine)
	return nil
}

// Configuration management with Viper
func readConfigFile() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("storyteller")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("$HOME/.storyteller")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	logrus.WithField("file", viper.ConfigFileUsed()).Debug("Loaded config file")
	return nil
}
