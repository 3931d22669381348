package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BrandService handles brand-related business operations
type BrandService struct {
	brandRepo catalog.BrandRepository
	cache     ReadCache
	logger    *zap.Logger
}

// NewBrandService creates a new BrandService. cache may be nil.
func NewBrandService(brandRepo catalog.BrandRepository, cache ReadCache, logger *zap.Logger) *BrandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrandService{
		brandRepo: brandRepo,
		cache:     cache,
		logger:    logger,
	}
}

// List returns every brand ordered by name
func (s *BrandService) List(ctx context.Context) ([]BrandResponse, error) {
	return cachedList(ctx, s.cache, s.logger, CacheKeyBrands, func() ([]BrandResponse, error) {
		brands, err := s.brandRepo.FindAll(ctx, shared.Unpaged("name", "asc"))
		if err != nil {
			return nil, err
		}
		out := make([]BrandResponse, len(brands))
		for i := range brands {
			out[i] = ToBrandResponse(&brands[i])
		}
		return out, nil
	})
}

// GetByID retrieves a brand by ID
func (s *BrandService) GetByID(ctx context.Context, id uuid.UUID) (*BrandResponse, error) {
	brand, err := s.brandRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// Create creates a new brand
func (s *BrandService) Create(ctx context.Context, req LabelRequest) (*BrandResponse, error) {
	exists, err := s.brandRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Brand with this name already exists")
	}

	brand, err := catalog.NewBrand(req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.brandRepo.Save(ctx, brand); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.logger, CacheKeyBrands)
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// Update updates a brand
func (s *BrandService) Update(ctx context.Context, id uuid.UUID, req LabelRequest) (*BrandResponse, error) {
	brand, err := s.brandRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.brandRepo.FindByName(ctx, req.Name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != id {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Brand with this name already exists")
	}

	if err := brand.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if err := s.brandRepo.Save(ctx, brand); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.logger, CacheKeyBrands)
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// Delete removes a brand that no product references
func (s *BrandService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.brandRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.brandRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Brand is used by %d products", count))
	}

	if err := s.brandRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.logger, CacheKeyBrands)
	return nil
}
