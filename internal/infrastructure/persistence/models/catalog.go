package models

import (
	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	AggregateModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
	}
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Description = c.Description
}

// BrandModel is the persistence model for the Brand domain entity.
type BrandModel struct {
	AggregateModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// ToDomain converts the persistence model to a domain Brand entity.
func (m *BrandModel) ToDomain() *catalog.Brand {
	return &catalog.Brand{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
	}
}

// FromDomain populates the persistence model from a domain Brand entity.
func (m *BrandModel) FromDomain(b *catalog.Brand) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Name = b.Name
	m.Description = b.Description
}

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	Name          string           `gorm:"type:varchar(100);not null;uniqueIndex"`
	Slug          string           `gorm:"type:varchar(150);not null;uniqueIndex"`
	Description   string           `gorm:"type:text"`
	Price         decimal.Decimal  `gorm:"type:decimal(15,2);not null"`
	DiscountPrice *decimal.Decimal `gorm:"type:decimal(15,2)"`
	Image         string           `gorm:"type:varchar(500)"`
	ImageKey      string           `gorm:"type:varchar(255)"`
	StockQuantity int              `gorm:"not null;default:0"`
	IsActive      bool             `gorm:"not null;default:true;index"`
	CategoryID    *uuid.UUID       `gorm:"type:uuid;index"`
	BrandID       *uuid.UUID       `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		Price:             m.Price,
		DiscountPrice:     m.DiscountPrice,
		Image:             m.Image,
		ImageKey:          m.ImageKey,
		StockQuantity:     m.StockQuantity,
		IsActive:          m.IsActive,
		CategoryID:        m.CategoryID,
		BrandID:           m.BrandID,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Slug = p.Slug
	m.Description = p.Description
	m.Price = p.Price
	m.DiscountPrice = p.DiscountPrice
	m.Image = p.Image
	m.ImageKey = p.ImageKey
	m.StockQuantity = p.StockQuantity
	m.IsActive = p.IsActive
	m.CategoryID = p.CategoryID
	m.BrandID = p.BrandID
}

// ProductVariantModel is the persistence model for the ProductVariant entity.
type ProductVariantModel struct {
	BaseModel
	ProductID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_variant_combination,priority:1"`
	Size          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_variant_combination,priority:2"`
	Color         string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_variant_combination,priority:3"`
	StockQuantity int       `gorm:"not null;default:0"`
	Image         string    `gorm:"type:varchar(500)"`
	ImageKey      string    `gorm:"type:varchar(255)"`
	IsActive      bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant entity.
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	return &catalog.ProductVariant{
		BaseEntity:    m.BaseModel.ToDomain(),
		ProductID:     m.ProductID,
		Size:          m.Size,
		Color:         m.Color,
		StockQuantity: m.StockQuantity,
		Image:         m.Image,
		ImageKey:      m.ImageKey,
		IsActive:      m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain ProductVariant entity.
func (m *ProductVariantModel) FromDomain(v *catalog.ProductVariant) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.ProductID = v.ProductID
	m.Size = v.Size
	m.Color = v.Color
	m.StockQuantity = v.StockQuantity
	m.Image = v.Image
	m.ImageKey = v.ImageKey
	m.IsActive = v.IsActive
}
