package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/sequencer/api"
	"github.com/papercomputeco/sequencer/cmd/sequencer/style"
	"github.com/papercomputeco/sequencer/pkg/config"
	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/injector"
	"github.com/papercomputeco/sequencer/pkg/kernel"
	"github.com/papercomputeco/sequencer/pkg/kernel/counter"
	"github.com/papercomputeco/sequencer/pkg/kernel/echo"
	"github.com/papercomputeco/sequencer/pkg/listener"
	"github.com/papercomputeco/sequencer/pkg/logger"
	"github.com/papercomputeco/sequencer/pkg/lowlatency"
	"github.com/papercomputeco/sequencer/pkg/node"
	"github.com/papercomputeco/sequencer/pkg/storage"
	"github.com/papercomputeco/sequencer/pkg/storage/inmemory"
	"github.com/papercomputeco/sequencer/pkg/storage/sqlite"
)

const serveLongDesc string = `Run a sequencer node.

Starts the HTTP API and the kernel executor, plus the chain head
listener and the batch injector when they are enabled. Settings are
read from the configuration file (or the defaults), then from
SEQUENCER_* environment variables, then from flags.

Examples:
  sequencer serve
  sequencer serve --config sequencer.toml
  sequencer serve --kernel-name echo --storage sqlite --db ./state.db
  sequencer serve --listener --head-feed ./heads.jsonl
  SEQUENCER_LISTEN=:9090 SEQUENCER_INJECTOR=true sequencer serve`

const serveShortDesc string = "Run a sequencer node"

const shutdownTimeout = 10 * time.Second

// kernels maps kernel names to constructors.
var kernels = map[string]func() kernel.Kernel{
	"counter": func() kernel.Kernel { return counter.Kernel{} },
	"echo":    func() kernel.Kernel { return echo.Kernel{} },
}

type serveCommander struct{}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	addFlags(cmd.Flags())

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	log := logger.NewLogger(cfg.Debug, logger.WithOutput(out), logger.WithColor(style.IsTerminal(out)))
	defer log.Sync()

	newKernel, ok := kernels[cfg.Kernel.Name]
	if !ok {
		return fmt.Errorf("unknown kernel %q", cfg.Kernel.Name)
	}
	ackMode, err := node.ParseAckMode(cfg.Node.AckMode)
	if err != nil {
		return err
	}

	driver, err := openDriver(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer driver.Close()

	nodeConfig := node.Config{
		Kernel:    newKernel(),
		Driver:    driver,
		QueueSize: cfg.Node.QueueSize,
		AckMode:   ackMode,
		Executor: lowlatency.Config{
			Budget: host.Budget{
				Ticks:   cfg.Kernel.TickBudget,
				Timeout: cfg.Kernel.RoundTimeout,
			},
			SimulateLevelFraming: cfg.Kernel.SimulateLevelFraming,
		},
		Journal:      host.NewJournal(cfg.Node.JournalCapacity),
		MaxValueSize: cfg.Kernel.MaxValueSize,
	}

	if cfg.Injector.Enabled {
		worker := injector.NewWorker(injector.NewHTTPInjector(cfg.Injector.Endpoint), cfg.Injector.QueueSize, log)
		defer worker.Close()
		nodeConfig.Injector = worker
		log.Info("injecting batches", zap.String("endpoint", cfg.Injector.Endpoint))
	}

	n, err := node.New(nodeConfig, log)
	if err != nil {
		return fmt.Errorf("could not start node: %w", err)
	}
	defer n.Close()

	srv, err := api.New(api.Config{
		ListenAddr:    cfg.Listen,
		SubmitTimeout: cfg.Node.SubmitTimeout,
	}, n, log)
	if err != nil {
		return fmt.Errorf("could not create API server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Run(); err != nil && gctx.Err() == nil {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Listener.Enabled {
		l := listener.New(headSource(cfg.Listener, log), n, log)
		g.Go(func() error {
			// A lost head feed stops batching but the API keeps serving.
			if err := l.Run(gctx); err != nil && gctx.Err() == nil && !errors.Is(err, node.ErrClosed) {
				log.Error("chain head listener stopped", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

func openDriver(ctx context.Context, cfg config.StorageConfig) (storage.Driver, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		driver, err := sqlite.NewDriverWithCache(ctx, cfg.Path, cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("could not open state database %s: %w", cfg.Path, err)
		}
		return driver, nil
	default:
		return inmemory.NewDriver(), nil
	}
}

func headSource(cfg config.ListenerConfig, log *zap.Logger) listener.Source {
	if cfg.Source == config.SourceFile {
		log.Info("following head feed file", zap.String("path", cfg.Path), zap.Bool("follow", cfg.Follow))
		return &listener.FileSource{Path: cfg.Path, Follow: cfg.Follow, Logger: log}
	}
	log.Info("following chain heads", zap.String("endpoint", cfg.Endpoint))
	return listener.NewHTTPSource(cfg.Endpoint)
}
