package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ecomt/storefront/internal/client/apiclient"
)

// Page is one page of filtered products.
type Page struct {
	Products []apiclient.Product
	Meta     apiclient.Meta
}

// Service browses the catalog.
type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

// ListActive returns every active product.
func (s *Service) ListActive(ctx context.Context) ([]apiclient.Product, error) {
	return s.api.Products(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (apiclient.Product, error) {
	return s.api.Product(ctx, id)
}

// GetBySlug looks a product up by its URL slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (apiclient.Product, error) {
	return s.api.ProductBySlug(ctx, slug)
}

// Filter runs a server-side filtered, sorted and paginated query.
func (s *Service) Filter(ctx context.Context, f ProductFilters) (Page, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return Page{}, err
	}
	products, meta, err := s.api.FilterProducts(ctx, f.Values())
	if err != nil {
		return Page{}, err
	}
	page := Page{Products: products}
	if meta != nil {
		page.Meta = *meta
	} else {
		page.Meta = apiclient.Meta{Total: int64(len(products)), Page: 1, PageSize: len(products), TotalPages: 1}
	}
	return page, nil
}

// Search matches product names. An empty query returns nothing.
func (s *Service) Search(ctx context.Context, q string) ([]apiclient.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	return s.api.SearchProducts(ctx, q)
}

func (s *Service) Variants(ctx context.Context, productID uuid.UUID) ([]apiclient.Variant, error) {
	return s.api.Variants(ctx, productID)
}

func (s *Service) Categories(ctx context.Context) ([]apiclient.Category, error) {
	return s.api.Categories(ctx)
}

func (s *Service) Brands(ctx context.Context) ([]apiclient.Brand, error) {
	return s.api.Brands(ctx)
}
