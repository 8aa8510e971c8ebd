package store

import (
	"context"
	"errors"
	"fmt"

	"invoice-ai/pkg/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotConfigured is returned when no database URL was supplied.
var ErrNotConfigured = errors.New("storage not configured")

const defaultListLimit = 50

// InvoiceStore persists processed invoice summaries
type InvoiceStore struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(databaseURL string) (*InvoiceStore, error) {
	if databaseURL == "" {
		return nil, ErrNotConfigured
	}
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm connection and migrates the schema.
func New(db *gorm.DB) (*InvoiceStore, error) {
	if err := db.AutoMigrate(&models.Invoice{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &InvoiceStore{db: db}, nil
}

// Save inserts an invoice row and fills in its ID.
func (s *InvoiceStore) Save(ctx context.Context, invoice *models.Invoice) error {
	if err := s.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

// List returns the most recently stored invoices first.
func (s *InvoiceStore) List(ctx context.Context, limit int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var invoices []models.Invoice
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// Close releases the underlying connection pool.
func (s *InvoiceStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
