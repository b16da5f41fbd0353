// Package catalog caches product and category listings in a local SQLite
// database so browsing and search keep working when the gateway is
// unreachable. The cache is a convenience mirror: the server's listing
// always replaces it wholesale, never merges into it.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/money"
	"storefront/internal/types"

	_ "modernc.org/sqlite"
)

// Cache is the SQLite-backed product mirror. Safe for concurrent use.
type Cache struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	price_minor    INTEGER NOT NULL,
	currency       TEXT NOT NULL,
	category_id    TEXT NOT NULL DEFAULT '',
	category_name  TEXT NOT NULL DEFAULT '',
	stock_quantity INTEGER NOT NULL DEFAULT 0,
	image_url      TEXT NOT NULL DEFAULT '',
	is_active      INTEGER NOT NULL DEFAULT 1,
	fetched_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);

CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_active   INTEGER NOT NULL DEFAULT 1,
	fetched_at  INTEGER NOT NULL
);
`

// Open initializes the cache database at the given path.
func Open(path string, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Cache{db: db, log: log}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// ReplaceProducts swaps the cached listing for the server's current one.
func (c *Cache) ReplaceProducts(products []types.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM products"); err != nil {
		return err
	}
	now := time.Now().Unix()
	stmt, err := tx.Prepare(`INSERT INTO products
		(id, name, description, price_minor, currency, category_id, category_name, stock_quantity, image_url, is_active, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.Exec(p.ID, p.Name, p.Description, p.Price.Amount, p.Price.Currency,
			p.CategoryID, p.CategoryName, p.StockQuantity, p.ImageURL, p.IsActive, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Debug("catalog cache refreshed", zap.Int("products", len(products)))
	return nil
}

// ReplaceCategories swaps the cached category list.
func (c *Cache) ReplaceCategories(categories []types.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM categories"); err != nil {
		return err
	}
	now := time.Now().Unix()
	for _, cat := range categories {
		if _, err := tx.Exec(`INSERT INTO categories (id, name, description, is_active, fetched_at) VALUES (?, ?, ?, ?, ?)`,
			cat.ID, cat.Name, cat.Description, cat.IsActive, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Products returns cached products, optionally narrowed by category and a
// case-insensitive substring search over name and description, matching
// the filter the live listing applies client-side.
func (c *Cache) Products(categoryID, search string) ([]types.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query := `SELECT id, name, description, price_minor, currency, category_id, category_name,
		stock_quantity, image_url, is_active FROM products`
	var conds []string
	var args []any
	if categoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, categoryID)
	}
	if search != "" {
		conds = append(conds, "(lower(name) LIKE ? OR lower(description) LIKE ?)")
		needle := "%" + strings.ToLower(search) + "%"
		args = append(args, needle, needle)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []types.Product
	for rows.Next() {
		var p types.Product
		var amount int64
		var currency string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &amount, &currency,
			&p.CategoryID, &p.CategoryName, &p.StockQuantity, &p.ImageURL, &p.IsActive); err != nil {
			return nil, err
		}
		p.Price = money.Money{Amount: amount, Currency: currency}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Categories returns the cached category list.
func (c *Cache) Categories() ([]types.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.Query(`SELECT id, name, description, is_active FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []types.Category
	for rows.Next() {
		var cat types.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.IsActive); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}
