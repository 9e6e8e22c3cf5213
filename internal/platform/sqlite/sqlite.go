// Package sqlite provides the durable local KV backend over an embedded
// sqlite database. Nothing leaves the machine.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// KVEntry is one key-value row.
type KVEntry struct {
	Key   string `gorm:"primaryKey;size:512"`
	Value []byte `gorm:"not null"`
}

// KV implements the store.KV port over sqlite.
type KV struct {
	db *gorm.DB
}

// New opens (or creates) the database at path and migrates the KV table.
func New(path string) (*KV, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir failed: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite failed: %w", err)
	}
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv table failed: %w", err)
	}
	return &KV{db: db}, nil
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry KVEntry
	err := k.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get failed: %w", err)
	}
	return entry.Value, true, nil
}

func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: value}
	if err := k.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return fmt.Errorf("kv set failed: %w", err)
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.db.WithContext(ctx).Where("key = ?", key).Delete(&KVEntry{}).Error; err != nil {
		return fmt.Errorf("kv delete failed: %w", err)
	}
	return nil
}

func (k *KV) Clear(ctx context.Context) error {
	if err := k.db.WithContext(ctx).Where("1 = 1").Delete(&KVEntry{}).Error; err != nil {
		return fmt.Errorf("kv clear failed: %w", err)
	}
	return nil
}

// Ping verifies the database handle is still usable.
func (k *KV) Ping(ctx context.Context) error {
	sqlDB, err := k.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying database handle.
func (k *KV) Close() error {
	sqlDB, err := k.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
