package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vaderpos/inventory-service/pkg/model"
)

// PGPoolConfig tunes the pgx connection pool.
type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// HybridStore is a Redis-cached, Postgres-backed Store. Single-entity reads
// go through a per-id JSON cache; listings and counts always hit Postgres.
// Writes invalidate the cached entry.
type HybridStore struct {
	redis    *redis.Client
	pg       *pgxpool.Pool
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewHybrid connects to Redis and Postgres and returns the combined store.
func NewHybrid(redisAddr string, redisDB int, pgURL string, cacheTTL time.Duration, poolCfg PGPoolConfig, logger *zap.Logger) (*HybridStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(pgURL)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if poolCfg.MaxConns > 0 {
		cfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		cfg.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = poolCfg.MaxConnLifetime
	}
	if poolCfg.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}
	if poolCfg.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = poolCfg.HealthCheckPeriod
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &HybridStore{redis: rdb, pg: pool, cacheTTL: cacheTTL, logger: logger}, nil
}

func productKey(id int64) string  { return fmt.Sprintf("product:%d", id) }
func categoryKey(id int64) string { return fmt.Sprintf("category:%d", id) }

func (s *HybridStore) FindProduct(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if data, err := s.redis.Get(ctx, productKey(id)).Bytes(); err == nil {
		if err := json.Unmarshal(data, &p); err == nil {
			return p, nil
		}
	}

	var priceStr string
	row := s.pg.QueryRow(ctx, `
		SELECT product_id, product_name, quantity, price::text, category_id
		FROM inventory.products
		WHERE product_id = $1;
	`, id)
	if err := row.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &priceStr, &p.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, fmt.Errorf("FindProduct scan failed: %w", err)
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return model.Product{}, fmt.Errorf("FindProduct bad price value: %w", err)
	}
	p.Price = price

	s.cacheSet(ctx, productKey(id), p)
	return p, nil
}

func (s *HybridStore) FindAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT product_id, product_name, quantity, price::text, category_id
		FROM inventory.products
		ORDER BY product_id;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var priceStr string
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &priceStr, &p.CategoryID); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("FindAllProducts bad price value: %w", err)
		}
		p.Price = price
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *HybridStore) SaveProduct(ctx context.Context, p model.Product) (model.Product, error) {
	if p.ProductID == 0 {
		row := s.pg.QueryRow(ctx, `
			INSERT INTO inventory.products (product_name, quantity, price, category_id)
			VALUES ($1, $2, $3, $4)
			RETURNING product_id;
		`, p.ProductName, p.Quantity, p.Price.String(), p.CategoryID)
		if err := row.Scan(&p.ProductID); err != nil {
			s.logger.Error("store.pg.insert_product_failed", zap.Error(err))
			return model.Product{}, err
		}
	} else {
		_, err := s.pg.Exec(ctx, `
			INSERT INTO inventory.products (product_id, product_name, quantity, price, category_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (product_id)
			DO UPDATE SET
				product_name = EXCLUDED.product_name,
				quantity = EXCLUDED.quantity,
				price = EXCLUDED.price,
				category_id = EXCLUDED.category_id;
		`, p.ProductID, p.ProductName, p.Quantity, p.Price.String(), p.CategoryID)
		if err != nil {
			s.logger.Error("store.pg.upsert_product_failed", zap.Error(err))
			return model.Product{}, err
		}
	}

	s.cacheSet(ctx, productKey(p.ProductID), p)
	return p, nil
}

func (s *HybridStore) DeleteProductByID(ctx context.Context, id int64) error {
	tag, err := s.pg.Exec(ctx, `DELETE FROM inventory.products WHERE product_id = $1;`, id)
	if err != nil {
		return err
	}
	if err := s.redis.Del(ctx, productKey(id)).Err(); err != nil {
		s.logger.Warn("store.redis.invalidate_failed", zap.Int64("product_id", id), zap.Error(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *HybridStore) CountProductsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	row := s.pg.QueryRow(ctx, `
		SELECT COUNT(*) FROM inventory.products WHERE category_id = $1;
	`, categoryID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *HybridStore) FindCategory(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	if data, err := s.redis.Get(ctx, categoryKey(id)).Bytes(); err == nil {
		if err := json.Unmarshal(data, &c); err == nil {
			return c, nil
		}
	}

	row := s.pg.QueryRow(ctx, `
		SELECT category_id, category_name
		FROM inventory.categories
		WHERE category_id = $1;
	`, id)
	if err := row.Scan(&c.CategoryID, &c.CategoryName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, ErrNotFound
		}
		return model.Category{}, fmt.Errorf("FindCategory scan failed: %w", err)
	}

	s.cacheSet(ctx, categoryKey(id), c)
	return c, nil
}

func (s *HybridStore) FindAllCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT category_id, category_name
		FROM inventory.categories
		ORDER BY category_id;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.CategoryID, &c.CategoryName); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *HybridStore) SaveCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if c.CategoryID == 0 {
		row := s.pg.QueryRow(ctx, `
			INSERT INTO inventory.categories (category_name)
			VALUES ($1)
			RETURNING category_id;
		`, c.CategoryName)
		if err := row.Scan(&c.CategoryID); err != nil {
			s.logger.Error("store.pg.insert_category_failed", zap.Error(err))
			return model.Category{}, err
		}
	} else {
		_, err := s.pg.Exec(ctx, `
			INSERT INTO inventory.categories (category_id, category_name)
			VALUES ($1, $2)
			ON CONFLICT (category_id)
			DO UPDATE SET category_name = EXCLUDED.category_name;
		`, c.CategoryID, c.CategoryName)
		if err != nil {
			s.logger.Error("store.pg.upsert_category_failed", zap.Error(err))
			return model.Category{}, err
		}
	}

	s.cacheSet(ctx, categoryKey(c.CategoryID), c)
	return c, nil
}

func (s *HybridStore) DeleteCategoryByID(ctx context.Context, id int64) error {
	tag, err := s.pg.Exec(ctx, `DELETE FROM inventory.categories WHERE category_id = $1;`, id)
	if err != nil {
		return err
	}
	if err := s.redis.Del(ctx, categoryKey(id)).Err(); err != nil {
		s.logger.Warn("store.redis.invalidate_failed", zap.Int64("category_id", id), zap.Error(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *HybridStore) cacheSet(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("store.redis.cache_set_failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if err := s.pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (s *HybridStore) Close() error {
	if s.pg != nil {
		s.pg.Close()
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
