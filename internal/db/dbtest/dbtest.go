// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/go_outdoor/internal/db"
	"github.com/Skotchmaster/go_outdoor/internal/models"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// every connection to ":memory:" is a separate database
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(context.Background(), gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	return gdb
}

func SeedProduct(t *testing.T, gdb *gorm.DB, name string, price int64, stock int) models.Product {
	t.Helper()

	p := models.Product{
		Name:  name,
		Price: decimal.NewFromInt(price),
		Stock: stock,
		Image: "img/" + name + ".jpg",
	}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// AfterCreate runs fn once, inside the inserting transaction, right after the
// first row is written to table.
func AfterCreate(t *testing.T, gdb *gorm.DB, table string, fn func(tx *gorm.DB)) {
	t.Helper()

	var once sync.Once
	err := gdb.Callback().Create().After("gorm:create").Register("dbtest:after_create_"+table, func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement.Table != table {
			return
		}
		once.Do(func() { fn(tx.Session(&gorm.Session{NewDB: true})) })
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}
