package main

import (
	"context"
	"os"

	"github.com/4thel00z/recall/internal"
	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	_ = godotenv.Load()

	a, err := newApp()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer a.cleanup()

	rootCmd := NewRootCmd(version, a)
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    *internal.Config
	logger *zap.Logger
}

func newApp() (*app, error) {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if os.Getenv("RECALL_DEBUG") != "" {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}

	return &app{cfg: cfg, logger: logger}, nil
}

// openCore opens the store for one command invocation. The embedder behind
// it loads the model lazily, so commands that never embed stay fast.
func (a *app) openCore(ctx context.Context) (*internal.Core, error) {
	return internal.OpenCore(ctx, a.coreOptions())
}

// openCoreRebuild bypasses the dimension check and starts from an empty
// index; only the reindex command uses it.
func (a *app) openCoreRebuild(ctx context.Context) (*internal.Core, error) {
	opts := a.coreOptions()
	opts.RebuildIndex = true
	return internal.OpenCore(ctx, opts)
}

func (a *app) coreOptions() internal.CoreOptions {
	return internal.CoreOptions{
		DBPath:    a.cfg.DBPath,
		IndexPath: a.cfg.IndexPath,
		Backend:   a.cfg.Backend,
		Embedder:  internal.NewEmbedderFromConfig(a.cfg),
		Logger:    a.logger,
	}
}

func (a *app) cleanup() {
	_ = a.logger.Sync()
}
