package backend

import (
	"fmt"
	"time"

	"fintrack/internal/config"
)

// Type names a storage backend for the persisted state.
type Type string

const (
	SQLite Type = "sqlite"
	File   Type = "file"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, File, Memory:
		return true
	default:
		return false
	}
}

// Types lists every supported backend.
func Types() []Type {
	return []Type{SQLite, File, Memory}
}

// Config is the subset of the application config the factory needs.
type Config struct {
	Type           Type
	Key            string
	SQLiteDBPath   string
	FileStoreDir   string
	PersistTimeout time.Duration
	IDScheme       string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:           Type(appConfig.StorageBackend),
		Key:            appConfig.StorageKey,
		SQLiteDBPath:   appConfig.SQLiteDBPath,
		FileStoreDir:   appConfig.FileStoreDir,
		PersistTimeout: appConfig.PersistTimeout,
		IDScheme:       appConfig.IDScheme,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case File:
		if c.FileStoreDir == "" {
			return fmt.Errorf("directory is required for file backend")
		}
	}
	return nil
}
