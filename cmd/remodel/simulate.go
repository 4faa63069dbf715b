package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/aretw0/remodel/internal/presentation/tui"
	"github.com/aretw0/remodel/internal/scenario"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>...",
	Short: "Replay scenarios against the simulated engine",
	Long: `Runs each scenario file in a fresh session backed by the simulated engine and
a virtual clock, then prints a report. The command fails if any expectation fails.

With --watch the files are replayed again whenever they change, until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts, err := sessionOptions(cfg)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		watch, _ := cmd.Flags().GetBool("watch")

		runner := scenario.NewRunner(
			scenario.WithLogger(logger),
			scenario.WithSessionOptions(opts...),
		)
		out := cmd.OutOrStdout()

		failed := 0
		var reports []*scenario.Report
		for _, path := range args {
			report, err := simulate(cmd, runner, path, out, asJSON)
			if err != nil {
				return err
			}
			reports = append(reports, report)
			if !report.Passed() {
				failed++
			}
		}
		if asJSON {
			if err := writeJSON(out, reports); err != nil {
				return err
			}
		}

		if watch {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			w, err := scenario.NewWatcher(args, scenario.DefaultDebounce)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes. Press Ctrl+C to stop.")
			return w.Run(ctx, func(path string) {
				report, err := simulate(cmd, runner, path, out, asJSON)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					return
				}
				if asJSON {
					_ = writeJSON(out, report)
				}
			})
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
		}
		return nil
	},
}

// simulate runs one scenario file and, unless asJSON, prints its report.
func simulate(cmd *cobra.Command, runner *scenario.Runner, path string, out io.Writer, asJSON bool) (*scenario.Report, error) {
	sc, err := scenario.LoadFile(path)
	if err != nil {
		return nil, err
	}
	report, err := runner.Run(cmd.Context(), sc)
	if err != nil {
		return nil, err
	}
	if asJSON {
		return report, nil
	}

	if err := tui.WriteMarkdown(out, report.Markdown()); err != nil {
		return nil, err
	}
	detail := ""
	if !report.Passed() {
		detail = fmt.Sprintf("%d of %d steps failed", report.FailedSteps(), len(report.Steps))
	}
	tui.Status(out, path, report.Passed(), detail)
	return report, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Bool("json", false, "Print the reports as JSON")
	simulateCmd.Flags().Bool("watch", false, "Replay scenarios when their files change")
}
