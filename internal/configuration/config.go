package configuration

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	AppPort    int `json:"app_port"`
	SocketPort int `json:"socket_port"`
}

type MongoConfig struct {
	Uri             string `json:"uri"`
	Database        string `json:"database"`
	NodesCollection string `json:"nodesCollection"`
}

// StoreConfig selects the tree store backend: "memory", "bolt" or "mongo".
type StoreConfig struct {
	Backend  string      `json:"backend"`
	BoltPath string      `json:"bolt_path"`
	Mongo    MongoConfig `json:"mongo"`
}

type BlobConfig struct {
	Root    string `json:"root"`
	BaseURL string `json:"base_url"`
}

type SessionConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// SyncConfig carries the write consistency mode: "last_write_wins" or
// "serialized".
type SyncConfig struct {
	Mode string `json:"mode"`
}

type Config struct {
	Server  ServerConfig  `json:"server"`
	Store   StoreConfig   `json:"store"`
	Blob    BlobConfig    `json:"blob"`
	Session SessionConfig `json:"session"`
	Sync    SyncConfig    `json:"sync"`
}

func LoadConfig(config_path string) (*Config, error) {
	// .env is optional; environment overrides win below.
	_ = godotenv.Load()

	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	if secret := os.Getenv("CHATSYNC_JWT_SECRET"); secret != "" {
		config.Session.JWTSecret = secret
	}
	if uri := os.Getenv("CHATSYNC_MONGO_URI"); uri != "" {
		config.Store.Mongo.Uri = uri
	}

	return &config, nil
}
