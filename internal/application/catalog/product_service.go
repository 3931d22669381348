package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	brandRepo    catalog.BrandRepository
	images       *ImageService
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewProductService creates a new ProductService. images may be nil when
// object storage is disabled.
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	brandRepo catalog.BrandRepository,
	images *ImageService,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		images:       images,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher for product events
func (s *ProductService) SetEventPublisher(p shared.EventPublisher) {
	s.events = p
}

// ListActive returns every active product, newest first
func (s *ProductService) ListActive(ctx context.Context) ([]ProductResponse, error) {
	f := shared.Unpaged("created_at", "desc").With(catalog.FilterIsActive, true)
	return s.list(ctx, f)
}

// ListAll returns every product including inactive ones
func (s *ProductService) ListAll(ctx context.Context) ([]ProductResponse, error) {
	return s.list(ctx, shared.Unpaged("created_at", "desc"))
}

// ListByCategory returns the active products of a category
func (s *ProductService) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]ProductResponse, error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}
	f := shared.Unpaged("created_at", "desc").
		With(catalog.FilterIsActive, true).
		With(catalog.FilterCategoryID, categoryID)
	return s.list(ctx, f)
}

// ListByBrand returns the active products of a brand
func (s *ProductService) ListByBrand(ctx context.Context, brandID uuid.UUID) ([]ProductResponse, error) {
	if _, err := s.brandRepo.FindByID(ctx, brandID); err != nil {
		return nil, err
	}
	f := shared.Unpaged("created_at", "desc").
		With(catalog.FilterIsActive, true).
		With(catalog.FilterBrandID, brandID)
	return s.list(ctx, f)
}

// Search matches active products by name, ignoring case. A blank query
// returns no products.
func (s *ProductService) Search(ctx context.Context, name string) ([]ProductResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []ProductResponse{}, nil
	}
	f := shared.Unpaged("name", "asc").With(catalog.FilterIsActive, true)
	f.Search = name
	return s.list(ctx, f)
}

// Filter returns one page of products matching the storefront filter
func (s *ProductService) Filter(ctx context.Context, req ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f, err := toProductFilter(req)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items, err := s.toResponses(ctx, products)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// GetActive returns an active product. Inactive products are reported as not found.
func (s *ProductService) GetActive(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.ErrNotFound
	}
	return s.toResponse(ctx, product)
}

// GetBySlug returns an active product by slug
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.ErrNotFound
	}
	return s.toResponse(ctx, product)
}

// GetByID returns any product, for administrators
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product)
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsByName(ctx, strings.TrimSpace(req.Name), nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this name already exists")
	}
	if err := s.checkReferences(ctx, req.CategoryID, req.BrandID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(req.details())
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("slug", product.Slug))
	return s.toResponse(ctx, product)
}

// Update replaces the attributes of a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ExistsByName(ctx, strings.TrimSpace(req.Name), &id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this name already exists")
	}
	if err := s.checkReferences(ctx, req.CategoryID, req.BrandID); err != nil {
		return nil, err
	}

	previousKey := product.ImageKey
	if err := product.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	// a new external image URL orphans the uploaded one
	if previousKey != "" && product.ImageKey == "" && s.images != nil {
		s.images.deleteQuietly(ctx, previousKey)
	}
	s.publish(ctx, product)

	return s.toResponse(ctx, product)
}

// Delete removes a product and its uploaded image
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	product.MarkDeleted()
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	if s.images != nil {
		s.images.deleteQuietly(ctx, product.ImageKey)
	}
	s.publish(ctx, product)

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// AttachImage uploads an image and makes it the product image
func (s *ProductService) AttachImage(ctx context.Context, id uuid.UUID, data []byte, filename, contentType string) (*ProductResponse, error) {
	if s.images == nil {
		return nil, shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured")
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	img, err := s.images.Upload(ctx, data, filename, contentType)
	if err != nil {
		return nil, err
	}

	previousKey := product.SetImage(img.URL, img.Key)
	if err := s.productRepo.Save(ctx, product); err != nil {
		s.images.deleteQuietly(ctx, img.Key)
		return nil, err
	}
	s.images.deleteQuietly(ctx, previousKey)
	s.publish(ctx, product)

	return s.toResponse(ctx, product)
}

func (s *ProductService) list(ctx context.Context, f shared.Filter) ([]ProductResponse, error) {
	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, products)
}

func (s *ProductService) checkReferences(ctx context.Context, categoryID, brandID *uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *categoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return err
		}
	}
	if brandID != nil {
		if _, err := s.brandRepo.FindByID(ctx, *brandID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_BRAND", "Brand not found")
			}
			return err
		}
	}
	return nil
}

func (s *ProductService) toResponse(ctx context.Context, p *catalog.Product) (*ProductResponse, error) {
	items, err := s.toResponses(ctx, []catalog.Product{*p})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// toResponses fills category and brand names with one lookup per table
func (s *ProductService) toResponses(ctx context.Context, products []catalog.Product) ([]ProductResponse, error) {
	out := make([]ProductResponse, len(products))
	needCategories, needBrands := false, false
	for i := range products {
		out[i] = ToProductResponse(&products[i])
		needCategories = needCategories || products[i].CategoryID != nil
		needBrands = needBrands || products[i].BrandID != nil
	}

	if needCategories {
		categories, err := s.categoryRepo.FindAll(ctx, shared.Unpaged("name", "asc"))
		if err != nil {
			return nil, err
		}
		names := make(map[uuid.UUID]string, len(categories))
		for _, c := range categories {
			names[c.ID] = c.Name
		}
		for i := range out {
			if out[i].CategoryID != nil {
				out[i].CategoryName = names[*out[i].CategoryID]
			}
		}
	}
	if needBrands {
		brands, err := s.brandRepo.FindAll(ctx, shared.Unpaged("name", "asc"))
		if err != nil {
			return nil, err
		}
		names := make(map[uuid.UUID]string, len(brands))
		for _, b := range brands {
			names[b.ID] = b.Name
		}
		for i := range out {
			if out[i].BrandID != nil {
				out[i].BrandName = names[*out[i].BrandID]
			}
		}
	}
	return out, nil
}

func (s *ProductService) publish(ctx context.Context, p *catalog.Product) {
	events := p.GetDomainEvents()
	p.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish product events", zap.Error(err))
	}
}

// toProductFilter converts the storefront query into a repository filter
func toProductFilter(req ProductListFilter) (shared.Filter, error) {
	f := shared.DefaultFilter()
	f.PageSize = DefaultProductPageSize
	if req.Page > 0 {
		f.Page = req.Page
	}
	if req.Limit > 0 {
		f.PageSize = min(req.Limit, MaxProductPageSize)
	}
	f.Search = strings.TrimSpace(req.Name)

	switch req.SortBy {
	case "name":
		f.OrderBy = "name"
	case "price":
		f.OrderBy = "price"
	default:
		f.OrderBy = "created_at"
	}
	f.OrderDir = "desc"
	if strings.EqualFold(req.SortOrder, "asc") {
		f.OrderDir = "asc"
	}

	if !req.IncludeInactive {
		f = f.With(catalog.FilterIsActive, true)
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return f, shared.NewDomainError("INVALID_INPUT", "categoryId must be a valid id")
		}
		f = f.With(catalog.FilterCategoryID, id)
	}
	if req.BrandID != "" {
		id, err := uuid.Parse(req.BrandID)
		if err != nil {
			return f, shared.NewDomainError("INVALID_INPUT", "brandId must be a valid id")
		}
		f = f.With(catalog.FilterBrandID, id)
	}

	var minPrice, maxPrice *decimal.Decimal
	if req.MinPrice != "" {
		d, err := decimal.NewFromString(req.MinPrice)
		if err != nil || d.IsNegative() {
			return f, shared.NewDomainError("INVALID_INPUT", "minPrice must be a non-negative number")
		}
		minPrice = &d
		f = f.With(catalog.FilterMinPrice, d)
	}
	if req.MaxPrice != "" {
		d, err := decimal.NewFromString(req.MaxPrice)
		if err != nil || d.IsNegative() {
			return f, shared.NewDomainError("INVALID_INPUT", "maxPrice must be a non-negative number")
		}
		maxPrice = &d
		f = f.With(catalog.FilterMaxPrice, d)
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		return f, shared.NewDomainError("INVALID_INPUT", "minPrice cannot exceed maxPrice")
	}
	return f, nil
}
