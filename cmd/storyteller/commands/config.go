package commands

import (
	"fmt"

	"github.com/koscakluka/ema-storyteller/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long: `Inspect the storyteller configuration.

Settings are read from storyteller.yaml unless --config points elsewhere.
Any key left out keeps its default.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := redact(cfg).YAML()
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.Schema()
		if err != nil {
			return fmt.Errorf("failed to build schema: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSchemaCmd)
}

func redact(cfg config.Config) config.Config {
	for _, key := range []*string{
		&cfg.SpeechToText.APIKey,
		&cfg.ImageGeneration.APIKey,
		&cfg.TextToSpeech.APIKey,
	} {
		if *key != "" {
			*key = "********"
		}
	}
	return cfg
}
