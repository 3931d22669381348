package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormStoreMetricsProvider implements StoreMetricsProvider using GORM.
// It queries the products and orders tables directly.
type GormStoreMetricsProvider struct {
	db *gorm.DB
}

// NewGormStoreMetricsProvider creates a new GormStoreMetricsProvider.
func NewGormStoreMetricsProvider(db *gorm.DB) *GormStoreMetricsProvider {
	return &GormStoreMetricsProvider{db: db}
}

// GetLowStockCount returns the number of active products with stock below threshold.
func (p *GormStoreMetricsProvider) GetLowStockCount(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("is_active = ? AND stock_quantity < ?", true, threshold).
		Count(&count).Error
	return count, err
}

// GetPendingOrderCount returns the number of PENDING orders.
func (p *GormStoreMetricsProvider) GetPendingOrderCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("orders").
		Where("status = ?", "PENDING").
		Count(&count).Error
	return count, err
}

var _ StoreMetricsProvider = (*GormStoreMetricsProvider)(nil)
