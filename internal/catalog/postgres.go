package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/db"
	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
)

// syncLockKey is the advisory lock key serializing sync runs. Arbitrary but
// fixed: every deployment of this pipeline against the same database must
// agree on it.
const syncLockKey = 7346911

// PostgresCatalog implements Catalog using pgxpool.
type PostgresCatalog struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot sync-loop operations.
var preparedStatements = map[string]string{
	"list_source_linked": `SELECT id, name, slug, price, active, source_url FROM products WHERE source_url IS NOT NULL`,
	"insert_product":     `INSERT INTO products (id, name, slug, description, price, condition, stock, images, active, featured, category_id, source_url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
	"reactivate_product": `UPDATE products SET active = true, price = $1, updated_at = $2 WHERE id = $3`,
	"deactivate_product": `UPDATE products SET active = false, updated_at = $1 WHERE id = $2`,
}

// NewPostgres creates a PostgresCatalog with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresCatalog, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresCatalog{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS categories (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS category_keywords (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	category_id TEXT NOT NULL REFERENCES categories(id),
	keyword     TEXT NOT NULL,
	UNIQUE (category_id, keyword)
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	price       NUMERIC(10,2) NOT NULL DEFAULT 0,
	condition   TEXT NOT NULL DEFAULT 'nieuw',
	stock       INTEGER NOT NULL DEFAULT 0,
	images      JSONB NOT NULL DEFAULT '[]',
	active      BOOLEAN NOT NULL DEFAULT true,
	featured    BOOLEAN NOT NULL DEFAULT false,
	category_id TEXT REFERENCES categories(id),
	source_url  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_products_source_url ON products(source_url) WHERE source_url IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_products_active ON products(active);
CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_category_keywords_category_id ON category_keywords(category_id);
`

func (c *PostgresCatalog) Migrate(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return c.seed(ctx)
}

// seed inserts the default categories and keywords. Idempotent: conflicts on
// slug and (category_id, keyword) are ignored, so re-running a migration
// never duplicates rows or disturbs staff edits.
func (c *PostgresCatalog) seed(ctx context.Context) error {
	for _, sc := range seedCategories {
		_, err := c.pool.Exec(ctx,
			`INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3) ON CONFLICT (slug) DO NOTHING`,
			uuid.New().String(), sc.Name, sc.Slug,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed category %s", sc.Slug)
		}
		for _, kw := range sc.Keywords {
			_, err := c.pool.Exec(ctx,
				`INSERT INTO category_keywords (id, category_id, keyword)
				 SELECT $1, id, $2 FROM categories WHERE slug = $3
				 ON CONFLICT (category_id, keyword) DO NOTHING`,
				uuid.New().String(), kw, sc.Slug,
			)
			if err != nil {
				return eris.Wrapf(err, "postgres: seed keyword %s/%s", sc.Slug, kw)
			}
		}
	}
	return nil
}

func (c *PostgresCatalog) Close() error {
	if c.closeFn != nil {
		c.closeFn()
	}
	return nil
}

func (c *PostgresCatalog) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT c.id, c.name, c.slug, k.keyword
		 FROM categories c
		 LEFT JOIN category_keywords k ON k.category_id = c.id
		 ORDER BY c.created_at, c.id, k.keyword`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list categories")
	}
	defer rows.Close()

	var cats []model.Category
	index := make(map[string]int)
	for rows.Next() {
		var id, name, slug string
		var keyword *string
		if err := rows.Scan(&id, &name, &slug, &keyword); err != nil {
			return nil, eris.Wrap(err, "postgres: scan category")
		}
		i, ok := index[id]
		if !ok {
			i = len(cats)
			index[id] = i
			cats = append(cats, model.Category{ID: id, Name: name, Slug: slug})
		}
		if keyword != nil {
			cats[i].Keywords = append(cats[i].Keywords, *keyword)
		}
	}
	return cats, eris.Wrap(rows.Err(), "postgres: list categories iterate")
}

func (c *PostgresCatalog) ListSourceLinked(ctx context.Context) ([]model.Product, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, name, slug, price, active, source_url FROM products WHERE source_url IS NOT NULL`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list source-linked products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.Active, &p.SourceURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list source-linked iterate")
}

func (c *PostgresCatalog) InsertProduct(ctx context.Context, p model.Product) error {
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
		return eris.Wrap(err, "postgres: marshal images")
	}

	var categoryID *string
	if p.CategoryID != "" {
		categoryID = &p.CategoryID
	}

	_, err = c.pool.Exec(ctx,
		`INSERT INTO products (id, name, slug, description, price, condition, stock, images, active, featured, category_id, source_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Condition, p.Stock,
		imagesJSON, p.Active, p.Featured, categoryID, p.SourceURL, now, now,
	)
	return eris.Wrapf(err, "postgres: insert product %s", p.Slug)
}

func (c *PostgresCatalog) ReactivateProduct(ctx context.Context, id string, price float64) error {
	tag, err := c.pool.Exec(ctx,
		`UPDATE products SET active = true, price = $1, updated_at = $2 WHERE id = $3`,
		price, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: reactivate product %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("product not found: %s", id)
	}
	return nil
}

func (c *PostgresCatalog) DeactivateProduct(ctx context.Context, id string) error {
	tag, err := c.pool.Exec(ctx,
		`UPDATE products SET active = false, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: deactivate product %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("product not found: %s", id)
	}
	return nil
}

// AcquireSyncLock takes a transaction-scoped advisory lock. The transaction
// stays open until release is called, which pins the lock to one connection;
// a plain pool-level Exec could release it on a different session.
func (c *PostgresCatalog) AcquireSyncLock(ctx context.Context) (func(), error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin lock tx")
	}

	var locked bool
	if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, syncLockKey).Scan(&locked); err != nil {
		_ = tx.Rollback(ctx)
		return nil, eris.Wrap(err, "postgres: acquire sync lock")
	}
	if !locked {
		_ = tx.Rollback(ctx)
		return nil, eris.New("postgres: another sync run holds the lock")
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = tx.Commit(context.Background())
		})
	}
	return release, nil
}
