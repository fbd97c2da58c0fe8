package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deckeditor/internal/app"
	"deckeditor/internal/config"
	"deckeditor/internal/logging"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "deckeditor",
		Short:         "Slide deck editing engine with autosave and an MCP server",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("DECK_CONFIG"), "path to a YAML config file")

	root.AddCommand(
		mcpCmd(&configPath),
		inspectCmd(&configPath),
		historyCmd(&configPath),
		listCmd(&configPath),
	)
	return root
}

// setup loads the config and builds the logger every command shares.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withApp opens the store for a one-shot command. Autosave workers are not
// needed, so the checkpoint and watcher stay off.
func withApp(cmd *cobra.Command, configPath string, fn func(ctx context.Context, a *app.App) error) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	cfg.Autosave.Checkpoint = ""
	cfg.Store.Watch = false

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	a, err := app.Open(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── mcp ─────────────────────────────────────────────────────

func mcpCmd(configPath *string) *cobra.Command {
	var deckID string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve a deck to an MCP client over stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return app.ServeMCP(cmd.Context(), cfg, logger, deckID)
		},
	}
	cmd.Flags().StringVar(&deckID, "deck", "", "deck id to open (a new deck when empty)")
	return cmd
}

// ── inspect ─────────────────────────────────────────────────

func inspectCmd(configPath *string) *cobra.Command {
	var deckID string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of a stored deck",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app.App) error {
				report, err := a.Inspect(ctx, deckID)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}
	cmd.Flags().StringVar(&deckID, "deck", "", "deck id")
	cmd.MarkFlagRequired("deck")
	return cmd
}

// ── history ─────────────────────────────────────────────────

func historyCmd(configPath *string) *cobra.Command {
	var (
		deckID string
		limit  int
		wipe   bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the recorded commands of a deck",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app.App) error {
				if wipe {
					if err := a.ClearHistory(ctx, deckID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "History of %s cleared\n", deckID)
					return nil
				}
				entries, err := a.History(ctx, deckID, limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, e := range entries {
					fmt.Fprintf(w, "%6d  %s  %-22s %v\n",
						e.Seq, e.CreatedAt.Format(time.RFC3339), e.Command.Type, e.Command.TargetIDs)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&deckID, "deck", "", "deck id")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of newest entries to show")
	cmd.Flags().BoolVar(&wipe, "clear", false, "delete the history instead of printing it")
	cmd.MarkFlagRequired("deck")
	return cmd
}

// ── list ────────────────────────────────────────────────────

func listCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored decks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app.App) error {
				decks, err := a.ListDecks(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, decks)
			})
		},
	}
}
