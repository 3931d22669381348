// Package catalog composes product queries and browses the storefront catalog.
package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomt/storefront/internal/client/apiclient"
)

// Sort keys and orders accepted by /products/filter.
const (
	SortByName      = "name"
	SortByPrice     = "price"
	SortByCreatedAt = "createdAt"

	SortAsc  = "asc"
	SortDesc = "desc"

	MaxLimit = 100
)

// ProductFilters is the product search state. Zero fields are unset.
type ProductFilters struct {
	CategoryID uuid.UUID
	BrandID    uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Name       string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// Normalize fills the default sort: newest first.
func (f ProductFilters) Normalize() ProductFilters {
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	f.SortOrder = strings.ToLower(f.SortOrder)
	f.Name = strings.TrimSpace(f.Name)
	return f
}

// Validate checks the filters before they are sent.
func (f ProductFilters) Validate() error {
	switch f.SortBy {
	case "", SortByName, SortByPrice, SortByCreatedAt:
	default:
		return fmt.Errorf("invalid sort field %q: use name, price or createdAt", f.SortBy)
	}
	switch strings.ToLower(f.SortOrder) {
	case "", SortAsc, SortDesc:
	default:
		return fmt.Errorf("invalid sort order %q: use asc or desc", f.SortOrder)
	}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return fmt.Errorf("minimum price cannot be negative")
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return fmt.Errorf("maximum price cannot be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return fmt.Errorf("minimum price %s exceeds maximum price %s", f.MinPrice, f.MaxPrice)
	}
	if f.Page < 0 {
		return fmt.Errorf("page cannot be negative")
	}
	if f.Limit < 0 || f.Limit > MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	if len(f.Name) > 100 {
		return fmt.Errorf("name filter is too long")
	}
	return nil
}

// Values encodes the set fields as /products/filter query parameters.
func (f ProductFilters) Values() url.Values {
	v := url.Values{}
	if f.CategoryID != uuid.Nil {
		v.Set("categoryId", f.CategoryID.String())
	}
	if f.BrandID != uuid.Nil {
		v.Set("brandId", f.BrandID.String())
	}
	if f.MinPrice != nil {
		v.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", f.MaxPrice.String())
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		v.Set("name", name)
	}
	if f.SortBy != "" {
		v.Set("sortBy", f.SortBy)
	}
	if f.SortOrder != "" {
		v.Set("sortOrder", f.SortOrder)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// IsEmpty reports whether no narrowing filter is set.
func (f ProductFilters) IsEmpty() bool {
	return f.CategoryID == uuid.Nil && f.BrandID == uuid.Nil &&
		f.MinPrice == nil && f.MaxPrice == nil && strings.TrimSpace(f.Name) == ""
}

// ApplyLocal filters and sorts an already-loaded product list the way the
// server would. Pagination is not applied.
func ApplyLocal(products []apiclient.Product, f ProductFilters) []apiclient.Product {
	f = f.Normalize()
	name := strings.ToLower(f.Name)

	out := make([]apiclient.Product, 0, len(products))
	for _, p := range products {
		if f.CategoryID != uuid.Nil && (p.CategoryID == nil || *p.CategoryID != f.CategoryID) {
			continue
		}
		if f.BrandID != uuid.Nil && (p.BrandID == nil || *p.BrandID != f.BrandID) {
			continue
		}
		price := EffectivePrice(p)
		if f.MinPrice != nil && price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		out = append(out, p)
	}

	less := func(i, j int) bool {
		switch f.SortBy {
		case SortByName:
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		case SortByPrice:
			return EffectivePrice(out[i]).LessThan(EffectivePrice(out[j]))
		default:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
	}
	if f.SortOrder == SortDesc {
		sort.SliceStable(out, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(out, less)
	}
	return out
}

// EffectivePrice is what a buyer pays: the discount price when it is set and
// below the list price.
func EffectivePrice(p apiclient.Product) decimal.Decimal {
	if !p.EffectivePrice.IsZero() {
		return p.EffectivePrice
	}
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() && p.DiscountPrice.LessThan(p.Price) {
		return *p.DiscountPrice
	}
	return p.Price
}
