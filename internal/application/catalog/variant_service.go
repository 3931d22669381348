package catalog

import (
	"context"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// VariantService handles product variant operations
type VariantService struct {
	variantRepo catalog.VariantRepository
	productRepo catalog.ProductRepository
}

// NewVariantService creates a new VariantService
func NewVariantService(variantRepo catalog.VariantRepository, productRepo catalog.ProductRepository) *VariantService {
	return &VariantService{
		variantRepo: variantRepo,
		productRepo: productRepo,
	}
}

// ListAll returns every variant
func (s *VariantService) ListAll(ctx context.Context) ([]VariantResponse, error) {
	variants, err := s.variantRepo.FindAll(ctx, shared.Unpaged("created_at", "asc"))
	if err != nil {
		return nil, err
	}
	return toVariantResponses(variants), nil
}

// ListByProduct returns the variants of a product
func (s *VariantService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]VariantResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	variants, err := s.variantRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toVariantResponses(variants), nil
}

// GetByID retrieves a variant by ID
func (s *VariantService) GetByID(ctx context.Context, id uuid.UUID) (*VariantResponse, error) {
	variant, err := s.variantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToVariantResponse(variant)
	return &resp, nil
}

// Create adds a variant to a product. A product has at most one variant per size/color pair.
func (s *VariantService) Create(ctx context.Context, req VariantRequest) (*VariantResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	variant, err := catalog.NewProductVariant(req.ProductID,
		variantDetails(req.Size, req.Color, req.StockQuantity, req.Image, req.IsActive))
	if err != nil {
		return nil, err
	}
	if err := s.checkCombination(ctx, variant, nil); err != nil {
		return nil, err
	}

	if err := s.variantRepo.Save(ctx, variant); err != nil {
		return nil, err
	}
	resp := ToVariantResponse(variant)
	return &resp, nil
}

// Update replaces the attributes of a variant
func (s *VariantService) Update(ctx context.Context, id uuid.UUID, req UpdateVariantRequest) (*VariantResponse, error) {
	variant, err := s.variantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := variant.Update(variantDetails(req.Size, req.Color, req.StockQuantity, req.Image, req.IsActive)); err != nil {
		return nil, err
	}
	if err := s.checkCombination(ctx, variant, &id); err != nil {
		return nil, err
	}

	if err := s.variantRepo.Save(ctx, variant); err != nil {
		return nil, err
	}
	resp := ToVariantResponse(variant)
	return &resp, nil
}

// Delete removes a variant
func (s *VariantService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.variantRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.variantRepo.Delete(ctx, id)
}

func (s *VariantService) checkCombination(ctx context.Context, v *catalog.ProductVariant, excludeID *uuid.UUID) error {
	exists, err := s.variantRepo.ExistsCombination(ctx, v.ProductID, v.Size, v.Color, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Variant with this size and color already exists")
	}
	return nil
}

func toVariantResponses(variants []catalog.ProductVariant) []VariantResponse {
	out := make([]VariantResponse, len(variants))
	for i := range variants {
		out[i] = ToVariantResponse(&variants[i])
	}
	return out
}
