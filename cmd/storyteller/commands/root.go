package commands

import (
	"fmt"

	"github.com/koscakluka/ema-storyteller/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "storyteller",
	Short: "Push-to-talk storyteller",
	Long: `storyteller listens while you hold the conversation open, sends what it
heard to a local language model and reads the story back to you while an
illustration is generated alongside.

Secrets are read from the environment or a .env file:
DEEPGRAM_API_KEY for speech and GEMINI_API_KEY for illustrations.`,
	SilenceUsage: true,
	RunE:         runStoryteller,
}

func Command() *cobra.Command {
	return rootCmd
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("%s: %w", cfgFile, err)
	}
	return cfg, nil
}
