package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/ecomt/storefront/internal/domain/shared"
)

// Category groups products for browsing
type Category struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
}

// NewCategory creates a new category
func NewCategory(name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateLabel("category", name); err != nil {
		return nil, err
	}
	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       strings.TrimSpace(description),
	}, nil
}

// Update updates the category's basic information
func (c *Category) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if err := validateLabel("category", name); err != nil {
		return err
	}
	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.IncrementVersion()
	return nil
}

// Brand is the manufacturer label shown next to a product
type Brand struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
}

// NewBrand creates a new brand
func NewBrand(name, description string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if err := validateLabel("brand", name); err != nil {
		return nil, err
	}
	return &Brand{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       strings.TrimSpace(description),
	}, nil
}

// Update updates the brand's basic information
func (b *Brand) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if err := validateLabel("brand", name); err != nil {
		return err
	}
	b.Name = name
	b.Description = strings.TrimSpace(description)
	b.IncrementVersion()
	return nil
}

func validateLabel(kind, name string) error {
	code := "INVALID_" + strings.ToUpper(kind) + "_NAME"
	if name == "" {
		return shared.NewDomainError(code, "Name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError(code, "Name cannot exceed 100 characters")
	}
	return nil
}
