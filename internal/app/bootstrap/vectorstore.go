package bootstrap

import (
	"context"
	"fmt"

	appconfig "github.com/wolfman30/salesforce-ai-backend/internal/config"
	"github.com/wolfman30/salesforce-ai-backend/internal/vectorstore"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

// VectorBackend is the store selected by VECTOR_STORE plus whatever must be
// released on shutdown.
type VectorBackend struct {
	Store vectorstore.Store
	// Manager is nil for backends that cannot provision their own index.
	Manager vectorstore.IndexManager
	closers []func()
}

// Close releases connections opened for the backend.
func (b *VectorBackend) Close() {
	if b == nil {
		return
	}
	for _, closeFn := range b.closers {
		closeFn()
	}
}

// BuildVectorStore connects the vector backend named by VECTOR_STORE.
func BuildVectorStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*VectorBackend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.VectorStore {
	case appconfig.VectorStorePinecone:
		store, err := vectorstore.NewPineconeStore(vectorstore.PineconeConfig{
			APIKey:     cfg.PineconeAPIKey,
			IndexName:  cfg.PineconeIndexName,
			IndexHost:  cfg.PineconeIndexHost,
			ControlURL: cfg.PineconeControlURL,
			Cloud:      cfg.PineconeCloud,
			Region:     cfg.PineconeRegion,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("vector store ready", "backend", cfg.VectorStore, "index", cfg.PineconeIndexName)
		return &VectorBackend{
			Store:   store,
			Manager: store,
			closers: []func(){func() { _ = store.Close() }},
		}, nil
	case appconfig.VectorStoreRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, fmt.Errorf("bootstrap: redis unavailable at %s", cfg.RedisAddr)
		}
		logger.Info("vector store ready", "backend", cfg.VectorStore, "prefix", cfg.RedisVectorPrefix)
		return &VectorBackend{
			Store:   vectorstore.NewRedisStore(client, cfg.RedisVectorPrefix),
			closers: []func(){func() { _ = client.Close() }},
		}, nil
	case appconfig.VectorStorePostgres:
		pool, err := BuildPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("vector store ready", "backend", cfg.VectorStore)
		return &VectorBackend{
			Store:   vectorstore.NewPostgresStore(pool),
			closers: []func(){pool.Close},
		}, nil
	case appconfig.VectorStoreMemory:
		logger.Warn("using in-memory vector store; contents are lost on exit")
		return &VectorBackend{Store: vectorstore.NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("bootstrap: unsupported vector store %q", cfg.VectorStore)
	}
}
