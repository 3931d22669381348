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

// CategoryService handles category-related business operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	cache        ReadCache
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService. cache may be nil.
func NewCategoryService(categoryRepo catalog.CategoryRepository, cache ReadCache, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categoryRepo: categoryRepo,
		cache:        cache,
		logger:       logger,
	}
}

// List returns every category ordered by name
func (s *CategoryService) List(ctx context.Context) ([]CategoryResponse, error) {
	return cachedList(ctx, s.cache, s.logger, CacheKeyCategories, func() ([]CategoryResponse, error) {
		categories, err := s.categoryRepo.FindAll(ctx, shared.Unpaged("name", "asc"))
		if err != nil {
			return nil, err
		}
		out := make([]CategoryResponse, len(categories))
		for i := range categories {
			out[i] = ToCategoryResponse(&categories[i])
		}
		return out, nil
	})
}

// GetByID retrieves a category by ID
func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Create creates a new category
func (s *CategoryService) Create(ctx context.Context, req LabelRequest) (*CategoryResponse, error) {
	exists, err := s.categoryRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}

	category, err := catalog.NewCategory(req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.logger, CacheKeyCategories)
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Update updates a category
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req LabelRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.categoryRepo.FindByName(ctx, req.Name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != id {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}

	if err := category.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.logger, CacheKeyCategories)
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete removes a category that no product references
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Category is used by %d products", count))
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.logger, CacheKeyCategories)
	return nil
}
