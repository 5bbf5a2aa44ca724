package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/bookbuddy/storefront/pkg/config"
	"github.com/bookbuddy/storefront/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// stateEntry is one mirrored value.
type stateEntry struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;size:128"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (stateEntry) TableName() string { return "client_state" }

// GormStore persists values in a client_state table on sqlite or postgres.
type GormStore struct {
	conn      *gorm.DB
	namespace string
	owned     bool
}

// OpenGorm opens the configured SQL backend and prepares the state table.
func OpenGorm(ctx context.Context, driver string, cfg config.DBConfig, namespace string, logg *logger.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.StorageDriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		dialector = sqlite.Open(cfg.SQLitePath)
	case config.StorageDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is required")
		}
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("unsupported sql storage driver %q", driver)
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", driver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	store, err := NewGormStore(ctx, conn, namespace)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	store.owned = true

	if logg != nil {
		logg.Info(logg.WithField(ctx, "driver", driver), "storage connection established")
	}
	return store, nil
}

// NewGormStore wraps an existing connection. The caller keeps ownership of conn.
func NewGormStore(ctx context.Context, conn *gorm.DB, namespace string) (*GormStore, error) {
	if conn == nil {
		return nil, errors.New("gorm connection is required")
	}
	if err := conn.WithContext(ctx).AutoMigrate(&stateEntry{}); err != nil {
		return nil, fmt.Errorf("migrating client_state: %w", err)
	}
	return &GormStore{conn: conn, namespace: normalizeNamespace(namespace)}, nil
}

func (g *GormStore) where(key string) map[string]any {
	return map[string]any{"namespace": g.namespace, "key": key}
}

func (g *GormStore) Get(ctx context.Context, key string) (string, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return "", err
	}
	var entry stateEntry
	err = g.conn.WithContext(ctx).Where(g.where(key)).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", key, err)
	}
	return entry.Value, nil
}

func (g *GormStore) Set(ctx context.Context, key, value string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	entry := stateEntry{
		Namespace: g.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err = g.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

func (g *GormStore) Delete(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := g.conn.WithContext(ctx).Where(g.where(key)).Delete(&stateEntry{}).Error; err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Close releases the pool when the store opened it.
func (g *GormStore) Close() error {
	if !g.owned {
		return nil
	}
	sqlDB, err := g.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
