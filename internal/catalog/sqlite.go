package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
)

// SQLiteCatalog implements Catalog using modernc.org/sqlite. Meant for
// development and single-host deployments; sync runs are serialized with a
// process-local mutex since there is only one writer process.
type SQLiteCatalog struct {
	db     *sql.DB
	lockMu sync.Mutex
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteCatalog{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS categories (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS category_keywords (
	id          TEXT PRIMARY KEY,
	category_id TEXT NOT NULL REFERENCES categories(id),
	keyword     TEXT NOT NULL,
	UNIQUE (category_id, keyword)
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	price       REAL NOT NULL DEFAULT 0,
	condition   TEXT NOT NULL DEFAULT 'nieuw',
	stock       INTEGER NOT NULL DEFAULT 0,
	images      TEXT NOT NULL DEFAULT '[]',
	active      INTEGER NOT NULL DEFAULT 1,
	featured    INTEGER NOT NULL DEFAULT 0,
	category_id TEXT REFERENCES categories(id),
	source_url  TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_products_source_url ON products(source_url) WHERE source_url IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_products_active ON products(active);
CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_category_keywords_category_id ON category_keywords(category_id);
`

func (c *SQLiteCatalog) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return c.seed(ctx)
}

func (c *SQLiteCatalog) seed(ctx context.Context) error {
	for _, sc := range seedCategories {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO categories (id, name, slug) VALUES (?, ?, ?) ON CONFLICT (slug) DO NOTHING`,
			uuid.New().String(), sc.Name, sc.Slug,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed category %s", sc.Slug)
		}
		for _, kw := range sc.Keywords {
			_, err := c.db.ExecContext(ctx,
				`INSERT INTO category_keywords (id, category_id, keyword)
				 SELECT ?, id, ? FROM categories WHERE slug = ?
				 ON CONFLICT (category_id, keyword) DO NOTHING`,
				uuid.New().String(), kw, sc.Slug,
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: seed keyword %s/%s", sc.Slug, kw)
			}
		}
	}
	return nil
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.slug, k.keyword
		 FROM categories c
		 LEFT JOIN category_keywords k ON k.category_id = c.id
		 ORDER BY c.created_at, c.id, k.keyword`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list categories")
	}
	defer rows.Close()

	var cats []model.Category
	index := make(map[string]int)
	for rows.Next() {
		var id, name, slug string
		var keyword sql.NullString
		if err := rows.Scan(&id, &name, &slug, &keyword); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category")
		}
		i, ok := index[id]
		if !ok {
			i = len(cats)
			index[id] = i
			cats = append(cats, model.Category{ID: id, Name: name, Slug: slug})
		}
		if keyword.Valid {
			cats[i].Keywords = append(cats[i].Keywords, keyword.String)
		}
	}
	return cats, eris.Wrap(rows.Err(), "sqlite: list categories iterate")
}

func (c *SQLiteCatalog) ListSourceLinked(ctx context.Context) ([]model.Product, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, slug, price, active, source_url FROM products WHERE source_url IS NOT NULL`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list source-linked products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.Active, &p.SourceURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: list source-linked iterate")
}

func (c *SQLiteCatalog) InsertProduct(ctx context.Context, p model.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	images := p.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal images")
	}

	var categoryID any
	if p.CategoryID != "" {
		categoryID = p.CategoryID
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO products (id, name, slug, description, price, condition, stock, images, active, featured, category_id, source_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Condition, p.Stock,
		string(imagesJSON), p.Active, p.Featured, categoryID, p.SourceURL, now, now,
	)
	return eris.Wrapf(err, "sqlite: insert product %s", p.Slug)
}

func (c *SQLiteCatalog) ReactivateProduct(ctx context.Context, id string, price float64) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE products SET active = 1, price = ?, updated_at = ? WHERE id = ?`,
		price, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: reactivate product %s", id)
	}
	return checkRowsAffected(res, id)
}

func (c *SQLiteCatalog) DeactivateProduct(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE products SET active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: deactivate product %s", id)
	}
	return checkRowsAffected(res, id)
}

func (c *SQLiteCatalog) AcquireSyncLock(ctx context.Context) (func(), error) {
	if !c.lockMu.TryLock() {
		return nil, eris.New("sqlite: another sync run holds the lock")
	}
	var once sync.Once
	return func() { once.Do(c.lockMu.Unlock) }, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("product not found: %s", id)
	}
	return nil
}
