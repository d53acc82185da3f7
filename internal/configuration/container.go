package configuration

import (
	"ChatSync/internal/blob"
	"ChatSync/internal/db"
	"ChatSync/internal/handler"
	"ChatSync/internal/hub"
	"ChatSync/internal/repo"
	"ChatSync/internal/service"
	"ChatSync/internal/treestore"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultConfigPath = "config.json"

type Container struct {
	UserHandler handler.UserHandler
	ChatHandler handler.ChatHandler
	Hub         *hub.Hub
	Config      Config
	Logger      *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
	boltStore   *treestore.BoltStore
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("CHATSYNC_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()

	c := &Container{Config: *config, Logger: logger}

	store, err := c.buildStore(config, logger)
	if err != nil {
		return nil, err
	}

	mode, err := parseConsistency(config.Sync.Mode)
	if err != nil {
		return nil, err
	}

	blobs, err := blob.NewFilesystemStore(config.Blob.Root, config.Blob.BaseURL, logger)
	if err != nil {
		return nil, err
	}

	conversationRepo := repo.NewConversationRepository(store, logger, mode)
	userRepo := repo.NewUserRepository(store, logger)
	chatService := service.NewChatService(conversationRepo, userRepo, blobs, logger)

	c.UserHandler = handler.NewUserHandler(chatService)
	c.ChatHandler = handler.NewChatHandler(chatService)
	c.Hub = hub.NewHub(chatService)

	return c, nil
}

func (c *Container) buildStore(config *Config, logger *zap.Logger) (treestore.Store, error) {
	switch config.Store.Backend {
	case "", "memory":
		return treestore.NewMemoryStore(), nil
	case "bolt":
		store, err := treestore.NewBoltStore(config.Store.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		c.boltStore = store
		return store, nil
	case "mongo":
		con, err := db.OpenConnection(config.Store.Mongo.Uri, config.Store.Mongo.Database)
		if err != nil {
			return nil, err
		}
		c.mongoClient = con
		return treestore.NewMongoStore(con, config.Store.Mongo.NodesCollection, logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", config.Store.Backend)
	}
}

func parseConsistency(mode string) (repo.Consistency, error) {
	switch mode {
	case "", "serialized":
		return repo.Serialized, nil
	case "last_write_wins":
		return repo.LastWriteWins, nil
	default:
		return 0, fmt.Errorf("unknown sync mode: %q", mode)
	}
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.boltStore != nil {
		if err := c.boltStore.Close(); err != nil {
			return fmt.Errorf("failed to close bolt store: %w", err)
		}
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
