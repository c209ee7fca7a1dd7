package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/salesforce-ai-backend/cmd/mainconfig"
	"github.com/wolfman30/salesforce-ai-backend/internal/app/bootstrap"
	appconfig "github.com/wolfman30/salesforce-ai-backend/internal/config"
	"github.com/wolfman30/salesforce-ai-backend/internal/indexer"
	"github.com/wolfman30/salesforce-ai-backend/internal/llm"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

// app holds the collaborators the commands build on demand, so a dry run
// never touches credentials or the network.
type app struct {
	cfg    *appconfig.Config
	logger *logging.Logger

	newLLM      func(ctx context.Context) (llm.Client, error)
	newBackend  func(ctx context.Context) (*bootstrap.VectorBackend, error)
	newManifest func(ctx context.Context) (*indexer.ManifestStore, error)
	migrateUp   func(databaseURL string) (bool, error)
}

func newApp(cfg *appconfig.Config, logger *logging.Logger) *app {
	return &app{
		cfg:    cfg,
		logger: logger,
		newLLM: func(ctx context.Context) (llm.Client, error) {
			return bootstrap.BuildLLMClient(ctx, cfg, logger)
		},
		newBackend: func(ctx context.Context) (*bootstrap.VectorBackend, error) {
			return bootstrap.BuildVectorStore(ctx, cfg, logger)
		},
		newManifest: func(ctx context.Context) (*indexer.ManifestStore, error) {
			if cfg.IndexManifestBucket == "" {
				return indexer.NewManifestStore(nil, "", logger), nil
			}
			awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return indexer.NewManifestStore(s3.NewFromConfig(awsCfg), cfg.IndexManifestBucket, logger), nil
		},
		migrateUp: bootstrap.MigrateUp,
	}
}
