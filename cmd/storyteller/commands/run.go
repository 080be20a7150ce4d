package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-storyteller/core"
	"github.com/koscakluka/ema-storyteller/internal/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the storyteller",
	Long: `Run the storyteller in the terminal.

Press space to start speaking and press it again when you are done. The story
is read back and shown as it streams in; illustrations are saved to the
configured output directory.`,
	RunE: runStoryteller,
}

func runStoryteller(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := tui.NewDisplay()
	storyteller, err := newApp(ctx, cfg, appOptions{
		audio:  true,
		images: true,
		extra:  []orchestration.OrchestratorOption{orchestration.WithDisplay(display)},
	})
	if err != nil {
		if errors.Is(err, errNoAudioInput) {
			fmt.Fprintln(cmd.ErrOrStderr(), cfg.Messages.NoAudioInput)
		}
		return err
	}
	defer func() {
		if err := storyteller.Close(); err != nil {
			logger.WarnContext(ctx, "failed to release audio devices", "error", err)
		}
	}()

	model := tui.NewModel(storyteller.orchestrator,
		tui.WithHint(cfg.Messages.PressSpace),
		tui.WithStatus(cfg.Messages.LoadingModel),
		tui.WithImageDir(cfg.ImageGeneration.OutputDir),
	)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	display.Attach(program)

	storyteller.orchestrator.Orchestrate(ctx,
		orchestration.WithEnergyCallback(display.ShowEnergy),
		orchestration.WithErrorCallback(func(err error) {
			logger.WarnContext(ctx, "turn reported an error", "error", err)
		}),
	)
	storyteller.preload(ctx, func(error) { display.ShowStatus("") })
	storyteller.greet(ctx, cfg.Conversation.Greeting)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
