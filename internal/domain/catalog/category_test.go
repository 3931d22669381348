package catalog

import (
	"strings"
	"testing"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	t.Run("creates category", func(t *testing.T) {
		c, err := NewCategory("  Áo thun ", "Cotton tees")

		require.NoError(t, err)
		assert.Equal(t, "Áo thun", c.Name)
		assert.Equal(t, "Cotton tees", c.Description)
		assert.Equal(t, 1, c.GetVersion())
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCategory("", "")

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CATEGORY_NAME", de.Code)
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		_, err := NewCategory(strings.Repeat("đ", 100), "")
		assert.NoError(t, err)

		_, err = NewCategory(strings.Repeat("đ", 101), "")
		assert.Error(t, err)
	})
}

func TestBrand_Update(t *testing.T) {
	b, err := NewBrand("Nike", "")
	require.NoError(t, err)

	require.NoError(t, b.Update("Adidas", "Three stripes"))
	assert.Equal(t, "Adidas", b.Name)
	assert.Equal(t, 2, b.GetVersion())

	var de *shared.DomainError
	require.ErrorAs(t, b.Update(" ", ""), &de)
	assert.Equal(t, "INVALID_BRAND_NAME", de.Code)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Áo Thun Đỏ":           "ao-thun-do",
		"  Giày  chạy bộ!! ":   "giay-chay-bo",
		"iPhone 15 Pro Max":    "iphone-15-pro-max",
		"Quần jean (nam) - XL": "quan-jean-nam-xl",
		"***":                  "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Slugify(in))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "dien thoai", Fold("Điện Thoại"))
	assert.Equal(t, "abc", Fold("ABC"))
}
