package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sheldonrobinson/AI4All/internal/adapters/driven/config/file"
	"github.com/sheldonrobinson/AI4All/internal/adapters/driven/encoder"
	"github.com/sheldonrobinson/AI4All/internal/adapters/driven/encoder/remote"
	"github.com/sheldonrobinson/AI4All/internal/adapters/driven/storage/sqlite"
	vectorhnsw "github.com/sheldonrobinson/AI4All/internal/adapters/driven/vector/hnsw"
	"github.com/sheldonrobinson/AI4All/internal/adapters/driving/cli"
	"github.com/sheldonrobinson/AI4All/internal/core/services"
	"github.com/sheldonrobinson/AI4All/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var shutdown []func()
	defer func() {
		for i := len(shutdown) - 1; i >= 0; i-- {
			shutdown[i]()
		}
	}()

	cli.SetInitializer(func() error {
		teardown, err := buildServices(ctx)
		if teardown != nil {
			shutdown = append(shutdown, teardown)
		}
		return err
	})

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		for i := len(shutdown) - 1; i >= 0; i-- {
			shutdown[i]()
		}
		shutdown = nil
		os.Exit(1)
	}
}

// buildServices wires the store, encoder and core services and injects
// them into the CLI. The returned teardown releases everything that was
// opened, in reverse order.
func buildServices(ctx context.Context) (func(), error) {
	configPath := cli.ConfigPath()
	if configPath == "" {
		var err error
		configPath, err = file.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
	}

	settings, err := file.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg, err := settings.RetrievalConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid retrieval config: %w", err)
	}

	vindex := vectorhnsw.New(vectorhnsw.Config{})

	var store *sqlite.Store
	if settings.Data.InMemory {
		store, err = sqlite.OpenMemory("ai4all", vindex)
	} else {
		dbPath := cli.DBPath()
		if dbPath == "" {
			dbPath, err = settings.KnowledgeBasePath()
			if err != nil {
				return nil, fmt.Errorf("resolving knowledge base path: %w", err)
			}
		}
		store, err = sqlite.NewStore(dbPath, vindex)
	}
	if err != nil {
		return nil, fmt.Errorf("opening knowledge base: %w", err)
	}

	if err := store.Setup(ctx, cfg.Dimension); err != nil {
		store.Close() //nolint:errcheck
		return nil, fmt.Errorf("preparing knowledge base: %w", err)
	}

	enc := remote.New(remote.Config{
		BaseURL:           settings.Encoder.BaseURL,
		Model:             settings.Encoder.Model,
		Timeout:           settings.EncoderTimeout(),
		RequestsPerSecond: settings.Encoder.RequestsPerSecond,
	})

	var opts []encoder.Option
	if settings.Encoder.MaxQueuedBatches > 0 {
		opts = append(opts, encoder.WithMaxQueuedBatches(settings.Encoder.MaxQueuedBatches))
	}
	embedder := encoder.New(enc, cfg, opts...)

	emitter := services.NewEmitter(services.DefaultEventBuffer)

	cli.SetServices(&cli.Services{
		Query:     services.NewRetrieverService(store, embedder, emitter, cfg),
		Ingest:    services.NewPipelineService(store, embedder, emitter, cfg),
		Lifecycle: services.NewLifecycleManager(store, emitter, cfg),
		Fragments: store,
		Stats:     store,
	})

	teardown := func() {
		emitter.Close()
		if err := enc.Shutdown(); err != nil {
			logger.Warn("encoder shutdown: %v", err)
		}
		if err := sqlite.CloseAll(); err != nil {
			logger.Warn("closing knowledge base: %v", err)
		}
	}
	return teardown, nil
}
