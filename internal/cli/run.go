package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/weft/internal/config"
	"github.com/me/weft/internal/fetch"
	"github.com/me/weft/internal/script"
	"github.com/me/weft/internal/trace"
	"github.com/me/weft/pkg/fiber"
)

func newRunCmd() *cobra.Command {
	var configPath string
	var tracePath string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run <script.js>",
		Short: "Execute a JavaScript program on the fiber runtime",
		Long: `Runs a script whose value is a generator function. The generator
becomes the root fiber; the run ends when every fiber has finished.
The root fiber's return value is printed to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(args[0], configPath, tracePath, timeout)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Configuration file (YAML)")
	cmd.Flags().StringVar(&tracePath, "trace", "", "Record the run to this trace database")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the run after this duration (0 = no limit)")

	return cmd
}

func runScript(scriptPath, configPath, tracePath string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if tracePath == "" {
		tracePath = cfg.TracePath
	}

	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	name := filepath.Base(scriptPath)

	eng, err := script.NewEngine(logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	root, err := eng.Load(name, string(src))
	if err != nil {
		return err
	}

	provider := fetch.NewHTTPProvider(fetch.Config{
		Timeout:     cfg.FetchTimeout.Std(),
		MaxInFlight: cfg.MaxInFlight,
	}, logger)
	defer provider.Close()

	opts := []fiber.Option{
		fiber.WithLogger(logger),
		fiber.WithIOProvider(provider),
	}

	var rec *trace.Recorder
	if tracePath != "" {
		store, err := trace.NewSQLiteStore(tracePath, logger)
		if err != nil {
			return fmt.Errorf("open trace store: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migrate trace store: %w", err)
		}
		rec = trace.NewRecorder(store)
		if err := rec.Start(context.Background(), name); err != nil {
			return fmt.Errorf("start trace: %w", err)
		}
		opts = append(opts, fiber.WithObserver(rec))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sched := fiber.NewScheduler(opts...)
	if _, err := sched.SpawnRoot(root); err != nil {
		return err
	}

	logger.Info("run starting", "script", name)
	result, runErr := sched.Run(ctx)

	if rec != nil {
		// The run context may already be cancelled; finishing the trace
		// must still go through.
		if err := rec.Finish(context.Background(), runErr); err != nil {
			logger.Warn("trace not recorded", "error", err)
		} else {
			logger.Info("run traced", "run_id", rec.RunID())
		}
	}

	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	if result != nil {
		fmt.Println(result)
	}
	return nil
}
