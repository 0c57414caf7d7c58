package kv

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type entryRow struct {
	K string `gorm:"primaryKey;size:191;column:k"`
	V string `gorm:"column:v;type:text;not null"`
}

func (entryRow) TableName() string { return "kv_entries" }

// Gorm persists the store as a two-column table, for deployments that
// already run MySQL or Postgres.
type Gorm struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&entryRow{}); err != nil {
		return nil, err
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) (string, bool, error) {
	var row entryRow
	err := g.db.WithContext(ctx).First(&row, "k = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.V, true, nil
}

func (g *Gorm) Set(ctx context.Context, key, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "k"}}, DoUpdates: clause.AssignmentColumns([]string{"v"})}).
		Create(&entryRow{K: key, V: value}).Error
}

func (g *Gorm) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.db.WithContext(ctx).Delete(&entryRow{}, "k = ?", key).Error
}
