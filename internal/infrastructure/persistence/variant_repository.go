package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVariantRepository implements VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID finds a variant by its ID
func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	var model models.ProductVariantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProduct lists the variants of a product
func (r *GormVariantRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.ProductVariant, error) {
	var variantModels []models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("size ASC, color ASC").
		Find(&variantModels).Error; err != nil {
		return nil, err
	}
	return toVariants(variantModels), nil
}

// FindAll lists variants
func (r *GormVariantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.ProductVariant, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductVariantModel{})
	if v, ok := filter.Filters["product_id"]; ok {
		query = query.Where("product_id = ?", v)
	}
	query = applyPaging(applyOrder(query, filter, VariantSortFields, "created_at"), filter)

	var variantModels []models.ProductVariantModel
	if err := query.Find(&variantModels).Error; err != nil {
		return nil, err
	}
	return toVariants(variantModels), nil
}

// ExistsCombination checks whether another variant of the product has the size and color
func (r *GormVariantRepository) ExistsCombination(ctx context.Context, productID uuid.UUID, size, color string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductVariantModel{}).
		Where("product_id = ? AND LOWER(size) = ? AND LOWER(color) = ?",
			productID, strings.ToLower(strings.TrimSpace(size)), strings.ToLower(strings.TrimSpace(color)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a variant
func (r *GormVariantRepository) Save(ctx context.Context, variant *catalog.ProductVariant) error {
	model := &models.ProductVariantModel{}
	model.FromDomain(variant)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a variant
func (r *GormVariantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductVariantModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toVariants(variantModels []models.ProductVariantModel) []catalog.ProductVariant {
	variants := make([]catalog.ProductVariant, len(variantModels))
	for i := range variantModels {
		variants[i] = *variantModels[i].ToDomain()
	}
	return variants
}

// Ensure GormVariantRepository implements VariantRepository
var _ catalog.VariantRepository = (*GormVariantRepository)(nil)
