package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/config"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/service"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-minimax/transport/console"
	"github.com/rocketscienceinc/tictactoe-minimax/transport/rest"
	"github.com/rocketscienceinc/tictactoe-minimax/transport/websocket"
)

var ErrUnsupportedMode = errors.New("unsupported mode")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var bot service.BotService
	if conf.VersusComputer() {
		bot = service.NewBotService()
	}

	log.Info("Starting application", "mode", conf.Mode, "opponent", conf.Opponent)

	switch conf.Mode {
	case config.ModeConsole:
		return runConsole(ctx, logger, bot)
	case config.ModeWeb:
		return runWeb(ctx, logger, conf, bot)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, conf.Mode)
	}
}

func runConsole(ctx context.Context, logger *slog.Logger, bot service.BotService) error {
	term := console.New(logger, os.Stdin, os.Stdout)

	controller := tictactoe.NewGameController(logger, entity.NewBoard(), term, bot)

	if err := term.Run(ctx, controller); err != nil {
		return fmt.Errorf("console error: %w", err)
	}

	return nil
}

func runWeb(ctx context.Context, logger *slog.Logger, conf *config.Config, bot service.BotService) error {
	log := logger.With("component", "app")

	games := usecase.NewGameManager(logger, bot)

	go games.RunCleanup(ctx, conf.Session.CleanupInterval, conf.Session.IdleTimeout)

	wsServer := websocket.New(logger, games, conf.WebSocket.WriteTimeout, conf.Session.CookieTTL)
	defer wsServer.Close()

	log.Info("Starting HTTP server", "port", conf.HTTPPort)

	if err := rest.Start(ctx, conf.HTTPPort, rest.NewRouter(logger, wsServer)); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}
