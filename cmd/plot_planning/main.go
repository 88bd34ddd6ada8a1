// Command plot_planning draws live planning output and the vehicle pose
// over a lane map in the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/mapshow/planplot/internal/config"
	"github.com/mapshow/planplot/internal/dispatcher"
	"github.com/mapshow/planplot/internal/handlers"
	"github.com/mapshow/planplot/internal/hdmap"
	"github.com/mapshow/planplot/internal/localization"
	"github.com/mapshow/planplot/internal/logging"
	intOtel "github.com/mapshow/planplot/internal/otel"
	"github.com/mapshow/planplot/internal/planning"
	"github.com/mapshow/planplot/internal/redraw"
	"github.com/mapshow/planplot/internal/transport"
	"github.com/mapshow/planplot/internal/transport/replay"
	"github.com/mapshow/planplot/internal/transport/websocket"
)

const toolName = "plot_planning"

// Version is set at build time.
var Version = "dev"

func main() {
	// stderr logger for startup; the display takes over the terminal later
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	if err := run(os.Args[1:], boot); err != nil {
		boot.Error().Err(err).Msg("plot_planning failed")
		os.Exit(1)
	}
}

func run(args []string, boot zerolog.Logger) error {
	flags := pflag.NewFlagSet(toolName, pflag.ContinueOnError)
	flags.StringP("map", "m", defaultMapPath(), "Specify the map file in txt (WKT), GeoJSON or binary (WKB) format")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := config.Load("."); err != nil {
		boot.Warn().Err(err).Msg("Failed to load config, using defaults")
	}
	viper.SetDefault("map.path", defaultMapPath())
	if err := viper.BindPFlag("map.path", flags.Lookup("map")); err != nil {
		return fmt.Errorf("binding map flag: %w", err)
	}
	cfg, err := config.Get()
	if err != nil {
		return err
	}

	sessionStart := time.Now()
	logPath := logging.LogFilePath(cfg.LogsDir, toolName, sessionStart)
	logFile := logging.NewRotatingFile(logPath)
	defer logFile.Close()
	boot.Info().Str("path", logPath).Msg("Logging to file")

	var graylog io.Writer
	if cfg.Graylog.Enabled {
		if graylog, err = logging.NewGraylogWriter(cfg.Graylog.Address); err != nil {
			return err
		}
	}

	provider, err := intOtel.New(intOtel.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		BatchTimeout:   cfg.OTel.BatchTimeout,
		MetricInterval: cfg.OTel.MetricInterval,
		LogWriter:      logFile,
		MetricWriter:   logFile,
		Endpoint:       cfg.OTel.Endpoint,
		Insecure:       cfg.OTel.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OTel provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	// records are tagged with the redraw frame once the driver exists
	var current atomic.Pointer[redraw.Driver]
	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.Options{
		File:     logFile,
		Level:    cfg.LogLevel,
		Graylog:  graylog,
		Provider: provider.LoggerProvider(),
		Context: func(context.Context) []slog.Attr {
			if drv := current.Load(); drv != nil {
				return drv.LogAttrs()
			}
			return nil
		},
	})
	logger := slogManager.Logger().With("transport", cfg.Transport.Type)
	logger.Info("Starting up", "version", Version, "map", cfg.Map.Path)

	m, err := hdmap.Load(cfg.Map.Path)
	if err != nil {
		return err
	}
	if cfg.Map.SourceEPSG != 0 {
		if err := m.Reproject(cfg.Map.SourceEPSG, cfg.Map.TargetEPSG); err != nil {
			return fmt.Errorf("reprojecting map: %w", err)
		}
	}
	logger.Info("Map loaded", "lanes", len(m.Lanes))

	disp := newDisplay(m, cfg.Pools)
	planHolder := planning.NewHolder(cfg.Planning.MaxPathPoints)
	locHolder := localization.NewHolder()

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	svc := handlers.NewService(handlers.Dependencies{
		Planning:     planHolder,
		Localization: locHolder,
		Topics:       handlers.Topics{Planning: cfg.Topics.Planning, Localization: cfg.Topics.Localization},
	})
	svc.RegisterHandlers(d, cfg.Transport.BufferSize)

	sub := newSubscriber(cfg.Transport, logger)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset))

	driver, err := redraw.New(redraw.Config{
		Figure:       disp.figure,
		Screen:       screen,
		Main:         disp.main,
		Speed:        disp.speed,
		ST:           disp.st,
		Pools:        disp.pools,
		Position:     disp.position,
		Outline:      disp.outline,
		Planning:     planHolder,
		Localization: locHolder,
		Interval:     cfg.Redraw.Interval,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	current.Store(driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		// closing the display ends the session
		defer cancel()
		return driver.Run(runCtx)
	})
	g.Go(func() error {
		if err := sub.Run(runCtx, svc.Topics().List(), handlers.Sink(d, logger)); err != nil {
			return fmt.Errorf("transport %s: %w", cfg.Transport.Type, err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("Shutting down", "error", err)
	return err
}

func newSubscriber(cfg config.TransportConfig, logger *slog.Logger) transport.Subscriber {
	if cfg.Type == "replay" {
		return replay.New(replay.Config{
			File: cfg.Replay.File,
			Rate: cfg.Replay.Rate,
			Loop: cfg.Replay.Loop,
		}, logger)
	}
	return websocket.New(websocket.Config{URL: cfg.URL, Secret: cfg.Secret}, logger)
}

// defaultMapPath is ../../map/data/base_map.txt next to the executable.
func defaultMapPath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("map", "data", "base_map.txt")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "..", "..", "map", "data", "base_map.txt")
}
