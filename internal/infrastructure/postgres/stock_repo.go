package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/catalogrecon/backend/internal/domain"
)

// DefaultBatchSize bounds both IN lists and multi-row inserts
const DefaultBatchSize = 500

// NewConnection opens the stock cache database and migrates its schema
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&domain.StockRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate stock records: %w", err)
	}
	return db, nil
}

// StockRepo stores merged stock per SKU. It implements domain.StockRepository.
type StockRepo struct {
	db        *gorm.DB
	batchSize int
}

func NewStockRepo(db *gorm.DB) *StockRepo {
	return &StockRepo{db: db, batchSize: DefaultBatchSize}
}

// GetBySKUs loads existing records keyed by SKU; unknown SKUs are absent from the map
func (r *StockRepo) GetBySKUs(ctx context.Context, skus []string) (map[string]*domain.StockRecord, error) {
	result := make(map[string]*domain.StockRecord)
	for _, chunk := range chunkStrings(uniqueSKUs(skus), r.batchSize) {
		var rows []domain.StockRecord
		if err := r.db.WithContext(ctx).Where("sku IN ?", chunk).Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			result[rows[i].SKU] = &rows[i]
		}
	}
	return result, nil
}

// UpsertBatch inserts records, replacing every column of rows whose SKU already exists
func (r *StockRepo) UpsertBatch(ctx context.Context, records []domain.StockRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.StockRecord, len(records))
	copy(rows, records)
	for i := range rows {
		if rows[i].UpdatedAt.IsZero() {
			rows[i].UpdatedAt = now
		}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			UpdateAll: true,
		}).
		CreateInBatches(&rows, r.batchSize).Error
}

func uniqueSKUs(skus []string) []string {
	seen := make(map[string]struct{}, len(skus))
	out := make([]string, 0, len(skus))
	for _, sku := range skus {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		if _, ok := seen[sku]; ok {
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, sku)
	}
	return out
}

func chunkStrings(values []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var chunks [][]string
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
