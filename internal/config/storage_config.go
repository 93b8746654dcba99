package config

import (
	"os"
	"path/filepath"
)

type StoreType string

const (
	StoreMemory StoreType = "memory"
	StoreFile   StoreType = "file"
	StoreSQLite StoreType = "sqlite"
)

type StorageConfig interface {
	GetStoreType() StoreType
	GetDataFolder() string
	GetStoreKey() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStoreType() StoreType {
	switch t := StoreType(GetEnv("LMS_STORE", string(StoreFile))); t {
	case StoreMemory, StoreFile, StoreSQLite:
		return t
	default:
		return StoreFile
	}
}

func (Storage) GetDataFolder() string {
	if folder := os.Getenv("LMS_DATA_FOLDER"); folder != "" {
		return folder
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".asto-lms")
}

// GetStoreKey is the passphrase used to encrypt the file store at rest. Empty means plaintext.
func (Storage) GetStoreKey() string {
	return os.Getenv("LMS_STORE_KEY")
}
