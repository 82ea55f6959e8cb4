// Package dbtest opens isolated in-memory sqlite databases carrying the
// application schema for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/hatchery-backend/pkg/db"
	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
)

// Open returns a fresh database unique to the calling test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                db.NowUTC,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.ApplySQLiteSchema(context.Background(), conn); err != nil {
		t.Fatalf("%v", err)
	}
	return conn
}

// Client wraps Open in a db.Client so services get a real transaction runner.
func Client(t *testing.T) *db.Client {
	t.Helper()
	return db.Wrap(Open(t))
}

// ProductFixture describes a catalog row for SeedProduct.
type ProductFixture struct {
	Title      string
	FinalPrice string
	Status     enums.ProductStatus
	Deleted    bool
}

// SeedProduct inserts a product whose base price equals the final price.
func SeedProduct(t *testing.T, conn *gorm.DB, f ProductFixture) models.Product {
	t.Helper()
	price := decimal.RequireFromString(f.FinalPrice)
	status := f.Status
	if status == "" {
		status = enums.ProductStatusPublished
	}
	p := models.Product{
		Title:      f.Title,
		Category:   "incubators",
		BasePrice:  price,
		FinalPrice: price,
		Status:     status,
		IsDeleted:  f.Deleted,
	}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed product %q: %v", f.Title, err)
	}
	return p
}
