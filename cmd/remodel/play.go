package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/console"
	"github.com/aretw0/remodel/internal/presentation/tui"
	"github.com/aretw0/remodel/internal/scenario"
	"github.com/aretw0/remodel/internal/testutils"
	"github.com/aretw0/remodel/pkg/adapters/simulator"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/observability"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <family>",
	Short: "Drive a session interactively against the simulated engine",
	Long: `Starts one session in the given family and reads commands from standard input.
With --json each input line is a step object and each output line a result, which
suits scripted drivers. With --virtual-clock timers only move on 'advance'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts, err := sessionOptions(cfg)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		virtual, _ := cmd.Flags().GetBool("virtual-clock")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		provider := simulator.NewProvider(
			simulator.WithAutoRespond(cfg.Device.AutoRespond),
			simulator.WithLogger(logger),
		)
		var clock *testutils.FakeClock
		var sessionClock ports.Clock = ports.SystemClock{}
		if virtual {
			clock = testutils.NewFakeClock()
			sessionClock = clock
		}
		opts = append(opts,
			remodel.WithLogger(logger),
			remodel.WithEngineProvider(provider),
			remodel.WithClock(sessionClock),
			remodel.WithCapabilities(ports.StaticCapabilities{SceneReconstruction: cfg.Device.SceneReconstruction}),
			remodel.WithLifecycleHooks(observability.LogHooks(logger)),
		)
		s, err := remodel.New(opts...)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Start(ctx, domain.Family(args[0])); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !jsonMode && tui.IsTerminal(out) {
			tui.PrintBanner(out)
		}
		c := console.New(s, scenario.NewPlayer(s, provider, clock), cmd.InOrStdin(), out,
			console.WithJSON(jsonMode),
			console.WithLogger(logger),
		)
		if err := c.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Bool("json", false, "Read step objects and write results as NDJSON")
	playCmd.Flags().Bool("virtual-clock", false, "Only move timers with the advance command")
}
