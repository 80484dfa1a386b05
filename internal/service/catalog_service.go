package service

import (
	"context"
	"time"

	"roastery-service/internal/models"
	"roastery-service/internal/redisclient"
	"roastery-service/internal/store"
	"roastery-service/internal/util"

	"go.uber.org/zap"
)

const catalogCacheKey = "catalog:products"

// CatalogService serves the product catalog, with a Redis read-through cache
// in front of the database.
type CatalogService struct {
	store    *store.Store
	cache    *redisclient.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(st *store.Store, cache *redisclient.Client, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:    st,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// ListProducts returns all active products. Cache failures fall through to
// the database.
func (cs *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	var products []models.Product
	hit, err := cs.cache.GetJSON(ctx, catalogCacheKey, &products)
	if err != nil {
		cs.logger.Warn("Catalog cache read failed", zap.Error(err))
	}
	if hit {
		util.CacheHitsTotal.WithLabelValues("catalog").Inc()
		return products, nil
	}
	util.CacheMissesTotal.WithLabelValues("catalog").Inc()

	products, err = cs.store.GetActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	if err := cs.cache.SetJSON(ctx, catalogCacheKey, products, cs.cacheTTL); err != nil {
		cs.logger.Warn("Catalog cache write failed", zap.Error(err))
	}

	return products, nil
}

// GetProduct retrieves one product by id
func (cs *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return cs.store.GetProductByID(ctx, id)
}

// WarmCache preloads the catalog cache at startup
func (cs *CatalogService) WarmCache(ctx context.Context) error {
	products, err := cs.store.GetActiveProducts(ctx)
	if err != nil {
		return err
	}
	if err := cs.cache.SetJSON(ctx, catalogCacheKey, products, cs.cacheTTL); err != nil {
		return err
	}
	cs.logger.Info("Catalog cache warmed", zap.Int("count", len(products)))
	return nil
}
