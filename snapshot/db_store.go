// file: jsbridge/snapshot/db_store.go
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rskv-p/jsbridge/pkg/x_db"
)

// imageRow is one stored image.
type imageRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"uniqueIndex;size:128;not null"`
	Size      int64     `gorm:"not null"`
	Data      []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (imageRow) TableName() string { return "snapshot_images" }

// DBStore keeps images in a sqlite or postgres table.
type DBStore struct {
	db *gorm.DB
}

var _ Store = (*DBStore)(nil)

// NewDBStore opens the database and migrates the images table.
func NewDBStore(dialect, dsn string) (*DBStore, error) {
	db, err := x_db.Open(x_db.Config{Type: x_db.DbType(dialect), DSN: dsn, LogLevel: "warn"})
	if err != nil {
		return nil, err
	}
	return NewDBStoreFrom(db)
}

// NewDBStoreFrom uses an existing connection.
func NewDBStoreFrom(db *gorm.DB) (*DBStore, error) {
	if err := db.AutoMigrate(&imageRow{}); err != nil {
		return nil, fmt.Errorf("snapshot: migrate: %w", err)
	}
	return &DBStore{db: db}, nil
}

// Save inserts or replaces the image stored under name.
func (s *DBStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	row := imageRow{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      int64(len(data)),
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"size", "data", "created_at"}),
	}).Create(&row).Error
}

func (s *DBStore) Load(ctx context.Context, name string) ([]byte, error) {
	var row imageRow
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return row.Data, nil
}

func (s *DBStore) List(ctx context.Context) ([]Meta, error) {
	var rows []imageRow
	err := s.db.WithContext(ctx).
		Select("name", "size", "created_at").
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Meta, 0, len(rows))
	for _, r := range rows {
		out = append(out, Meta{Name: r.Name, Size: r.Size, Created: r.CreatedAt.UTC()})
	}
	return out, nil
}

func (s *DBStore) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&imageRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func (s *DBStore) Close() error {
	return x_db.Close(s.db)
}
