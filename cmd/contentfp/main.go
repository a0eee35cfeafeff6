// Command contentfp runs the fingerprinting API server: C1 ingest through
// C6 match, fronted by a gin HTTP layer, backed by either the in-memory
// index or Postgres/pgvector depending on configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"contentfp/api"
	"contentfp/config"
	"contentfp/index"
	"contentfp/index/hnsw"
	"contentfp/observability"

	"go.uber.org/zap"
)

// maxMinVectorsForANN effectively disables ANN dispatch: hnsw.Index.Search
// falls back to a linear scan below MinVectorsForANN, so setting it this
// high means every search takes that path regardless of graph size.
const maxMinVectorsForANN = 1 << 30

func main() {
	port := flag.String("port", "8080", "port to run the API server on")
	flag.Parse()

	ctx := context.Background()

	logger, err := config.InitLogger()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()
	cfg := config.Load(logger)

	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize index backend", zap.Error(err))
	}

	sink := observability.NewZapSink(logger)
	server := api.NewServer(logger, cfg, backend, sink)

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := ":" + *port
	if err := server.Start(runCtx, addr); err != nil {
		logger.Error("API server error", zap.Error(err))
		os.Exit(1)
	}
}

func newBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (index.Backend, error) {
	switch cfg.Index.Backend {
	case "postgres":
		pg, err := index.NewPostgres(ctx, cfg.Index.PostgresDSN, cfg.Index.Compression)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx, cfg.Semantic.EmbeddingDim); err != nil {
			return nil, err
		}
		logger.Info("using postgres index backend", zap.String("dsn", cfg.Index.PostgresDSN))
		return pg, nil
	default:
		annCfg := annConfigFrom(cfg.Index.Ann)
		logger.Info("using in-memory index backend", zap.Bool("ann_enabled", cfg.Index.Ann.Enabled), zap.Int("min_vectors_for_ann", annCfg.MinVectorsForANN))
		return index.NewInMemoryWithOptions(annCfg, cfg.Index.Compression), nil
	}
}

func annConfigFrom(a config.AnnConfig) hnsw.Config {
	c := hnsw.DefaultConfig()
	if a.M > 0 {
		c.M = a.M
	}
	if a.EfConstruction > 0 {
		c.EfConstruction = a.EfConstruction
	}
	if a.EfSearch > 0 {
		c.EfSearch = a.EfSearch
	}
	if a.MinVectorsForAnn > 0 {
		c.MinVectorsForANN = a.MinVectorsForAnn
	}
	if !a.Enabled {
		c.MinVectorsForANN = maxMinVectorsForANN
	}
	return c
}
