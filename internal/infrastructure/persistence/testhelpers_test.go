package persistence

import (
	"testing"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	identity.BcryptCost = bcrypt.MinCost
}

// newTestDB opens a migrated in-memory SQLite database private to the test
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type productOpt func(*catalog.ProductDetails)

func withDiscount(v int64) productOpt {
	return func(d *catalog.ProductDetails) {
		dp := decimal.NewFromInt(v)
		d.DiscountPrice = &dp
	}
}

func inactive() productOpt {
	return func(d *catalog.ProductDetails) { d.IsActive = false }
}

func withCategory(c *catalog.Category) productOpt {
	return func(d *catalog.ProductDetails) { d.CategoryID = &c.ID }
}

func seedProduct(t *testing.T, repo *GormProductRepository, name string, price int64, stock int, opts ...productOpt) *catalog.Product {
	t.Helper()
	d := catalog.ProductDetails{Name: name, Price: decimal.NewFromInt(price), StockQuantity: stock, IsActive: true}
	for _, opt := range opts {
		opt(&d)
	}
	p, err := catalog.NewProduct(d)
	require.NoError(t, err)
	require.NoError(t, repo.Save(t.Context(), p))
	return p
}

func seedUser(t *testing.T, repo *GormUserRepository, name, email string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(name, email, "secret123")
	require.NoError(t, err)
	require.NoError(t, repo.Save(t.Context(), u))
	return u
}
