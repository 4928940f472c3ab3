// file: jsbridge/snapshot/store.go
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("snapshot: not found")
	ErrInvalidName = errors.New("snapshot: invalid name")
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Meta describes a stored image.
type Meta struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
}

// Store persists encoded images by name.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Meta, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// StoreConfig selects a Store implementation.
type StoreConfig struct {
	Type string `json:"type" mapstructure:"type"` // file, sqlite or postgres
	Dir  string `json:"dir" mapstructure:"dir"`   // file store directory
	DSN  string `json:"dsn" mapstructure:"dsn"`   // database connection string
}

// ValidateName rejects names that cannot be used as file names or keys.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// OpenStore returns the store described by cfg.
func OpenStore(cfg StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "file":
		return NewFileStore(cfg.Dir)
	case "sqlite", "postgres":
		return NewDBStore(cfg.Type, cfg.DSN)
	default:
		return nil, fmt.Errorf("snapshot: unknown store type %q", cfg.Type)
	}
}

// SaveImage encodes img and saves it under name.
func SaveImage(ctx context.Context, s Store, name string, img *Image) error {
	data, err := Encode(img)
	if err != nil {
		return err
	}
	return s.Save(ctx, name, data)
}

// LoadImage loads and decodes the image stored under name.
func LoadImage(ctx context.Context, s Store, name string) (*Image, error) {
	data, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
