package commands

import (
	"fmt"
	"strings"

	orchestration "github.com/koscakluka/ema-storyteller/core"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Answer a single prompt without audio",
	Long: `Send one prompt to the language model and print the reply chunk by chunk
as it streams in. Nothing is recorded, spoken or illustrated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	storyteller, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer storyteller.Close()

	out := cmd.OutOrStdout()
	finished := make(chan orchestration.Turn, 1)
	storyteller.orchestrator.Orchestrate(ctx,
		orchestration.WithResponseCallback(func(chunk string) {
			fmt.Fprintln(out, chunk)
		}),
		orchestration.WithTurnStateCallback(func(turn orchestration.Turn) {
			if turn.Status.IsTerminal() {
				select {
				case finished <- turn:
				default:
				}
			}
		}),
	)

	if err := storyteller.orchestrator.SendPrompt(strings.Join(args, " ")); err != nil {
		return err
	}

	select {
	case turn := <-finished:
		if turn.Status == orchestration.TurnFailed {
			return turn.Err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
