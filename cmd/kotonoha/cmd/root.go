package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kotonoha-app/kotonoha/internal/app"
	"github.com/kotonoha-app/kotonoha/internal/config"
)

var (
	debug    bool
	provider string
	model    string
	thinking bool
	dbPath   string
)

var kotonohaApp *app.App
var frames *app.FrameScheduler
var logger *log.Logger

var rootCmd = &cobra.Command{
	Use:   "kotonoha [prompt]",
	Short: "Streaming AI chat for studying and everyday questions",
	Long: `Kotonoha is a streaming chat client for Gemini and Groq models.

Usage:
  kotonoha                     # Start interactive chat
  kotonoha "your question"     # Get direct answer
  echo "question" | kotonoha   # Pipe input

Features:
- Gemini and Groq model catalogs with per-model capability gating
- Live reasoning display for thinking-capable models
- File attachments on models that accept them
- Chat history persisted locally across sessions`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: debug,
			Level:           log.WarnLevel,
		})
		if debug {
			logger.SetLevel(log.DebugLevel)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Debug = cfg.Debug || debug

		frames = app.NewFrameScheduler(app.DefaultFrameInterval)
		kotonohaApp, err = app.New(cmd.Context(), cfg, app.Options{
			DatabasePath: dbPath,
			Scheduler:    frames,
			Logger:       logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}

		applySelectionFlags()
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		switch {
		case len(args) > 0:
			runOnce(cmd.Context(), strings.Join(args, " "))
		case hasStdinInput():
			runPiped(cmd.Context())
		default:
			runInteractive(cmd.Context())
		}
	},
}

// applySelectionFlags lets --provider/--model/--thinking override the
// persisted selection for this invocation without saving it.
func applySelectionFlags() {
	if provider != "" {
		kotonohaApp.Selection.Provider = provider
	}
	if model != "" {
		kotonohaApp.Selection.Model = model
	}
	if thinking {
		kotonohaApp.Selection.Thinking = true
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Chat database path (default ~/.kotonoha/chats.db)")
	rootCmd.Flags().StringVarP(&provider, "provider", "p", "", "Provider to use (gemini, groq)")
	rootCmd.Flags().StringVarP(&model, "model", "m", "", "Model to use")
	rootCmd.Flags().BoolVarP(&thinking, "thinking", "t", false, "Show model reasoning when supported")
}

// Execute runs the root command.
func Execute() {
	defer func() {
		if frames != nil {
			frames.Stop()
		}
		if kotonohaApp != nil {
			kotonohaApp.Close()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func hasStdinInput() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func runPiped(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	prompt := strings.TrimSpace(strings.Join(lines, "\n"))
	if prompt == "" {
		return
	}
	runOnce(ctx, prompt)
}
