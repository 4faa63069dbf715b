package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/remodel/internal/config"
	"github.com/aretw0/remodel/internal/presentation/graph"
	"github.com/aretw0/remodel/internal/workflow"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <family>",
	Short: "Export a family's workflow as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of a family's phases. Solid edges are user
actions, dotted edges engine events. With --session the phases visited by a
stored session are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		family, err := domain.ParseFamily(args[0])
		if err != nil {
			return err
		}
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		table, err := workflow.TableFor(family, workflow.Config{FloorScanTimeout: cfg.Session.FloorScanTimeout})
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			overlay, err = sessionOverlay(cmd, cfg, logger, id)
			if err != nil {
				return err
			}
			logger.Debug("highlighting session", "session_id", id, "phase", overlay.Current)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(table, overlay))
		return nil
	},
}

// sessionOverlay loads a stored snapshot through the configured store.
func sessionOverlay(cmd *cobra.Command, cfg config.Config, logger *slog.Logger, id string) (*graph.GraphOverlay, error) {
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	snap, err := a.Service.Get(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	return graph.OverlayFor(snap), nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the phases of a stored session")
}
