package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shovelsgame/shovels-server/internal/config"
	"github.com/shovelsgame/shovels-server/internal/game"
	"github.com/shovelsgame/shovels-server/internal/storage"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	gameID     = flag.String("game", "", "game id to inspect")
	useReplay  = flag.Bool("replay", false, "verify the game's replay file instead of reading the store")
	replayDir  = flag.String("replay-dir", "", "replay directory (default: replay.directory from the config)")
	lastEvents = flag.Int("events", 10, "number of trailing events to print")
	listGames  = flag.Bool("list", false, "list stored game ids and exit")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Debug("starting shovelsctl",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *listGames:
		err = runList(ctx, cfg, logger, os.Stdout)
	case *gameID == "":
		flag.Usage()
		os.Exit(2)
	case *useReplay:
		err = runReplay(replayDirectory(cfg, *replayDir), *gameID, os.Stdout)
	default:
		err = runInspect(ctx, cfg, logger, *gameID, *lastEvents, os.Stdout)
	}
	if err != nil {
		logger.Error("shovelsctl failed", zap.String("game_id", *gameID), zap.Error(err))
		os.Exit(1)
	}
}

func runList(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

// runInspect loads the stored snapshot through the engine, which verifies
// its checksum, and prints the table and the trailing events.
func runInspect(ctx context.Context, cfg *config.Config, logger *zap.Logger, id string, n int, out io.Writer) error {
	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := game.NewEngine(logger, store, game.WithOptions(cfg.Game))
	state, err := engine.LoadGame(ctx, id)
	if err != nil {
		return err
	}
	version, err := engine.Version(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Game %s (version %d, checksum %s)\n", id, version, state.Checksum()[:12])
	fmt.Fprint(out, state.Summary())

	start := len(state.Events) - n
	if start < 0 || n < 0 {
		start = 0
	}
	if tail := state.EventsSince(start); len(tail) > 0 {
		fmt.Fprintf(out, "\nLast %d events:\n", len(tail))
		for _, ev := range tail {
			fmt.Fprintf(out, "  t%d %s\n", ev.TurnCount, game.DescribeEvent(ev))
		}
	}
	return nil
}

func replayDirectory(cfg *config.Config, override string) string {
	if override != "" {
		return override
	}
	return cfg.Replay.Directory
}

// runReplay walks every frame, verifying checksums and printing the events
// each operation added.
func runReplay(dir, id string, out io.Writer) error {
	replay, err := game.LoadReplayFromFile(dir, id)
	if err != nil {
		return err
	}

	var last *game.GameState
	seen := 0
	for i := 0; i < replay.Size(); i++ {
		frame := replay.Frame(i)
		if err := frame.Verify(); err != nil {
			return err
		}
		state, err := frame.State()
		if err != nil {
			return err
		}
		who := frame.PlayerID
		if who == "" {
			who = "-"
		}
		fmt.Fprintf(out, "#%d %s %s\n", frame.Seq, who, frame.Command)
		for _, ev := range state.EventsSince(seen) {
			fmt.Fprintf(out, "    %s\n", game.DescribeEvent(ev))
		}
		seen = len(state.Events)
		last = state
	}
	if last == nil {
		return fmt.Errorf("replay for game %s has no frames", id)
	}
	fmt.Fprintf(out, "\n%d frames verified\n", replay.Size())
	fmt.Fprint(out, last.Summary())
	return nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// Logs go to stderr so stdout stays clean for the report.
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
