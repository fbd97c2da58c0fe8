package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"deckeditor/internal/config"
	mcpserver "deckeditor/internal/mcp"
)

// ServeMCP opens deckID (a new deck when empty) and serves it to an MCP client
// on stdin/stdout until the client disconnects or the process is interrupted.
// Pending edits are saved before it returns.
func ServeMCP(ctx context.Context, cfg *config.Config, logger *zap.Logger, deckID string) (err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := Open(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("open app: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if cerr := a.Close(closeCtx); cerr != nil {
			logger.Warn("shutdown", zap.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()

	id, err := a.OpenDeck(ctx, deckID)
	if err != nil {
		return err
	}
	logger.Info("serving deck over mcp", zap.String("deck", id))

	srv := mcpserver.New(mcpserver.Deps{
		Editor:  a.Editor(),
		Saver:   a.Coordinator(),
		Emitter: a.emitter,
		Logger:  logger.Named("mcp"),
	})
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
