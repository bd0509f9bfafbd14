package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/humidityzone-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/angelmondragon/humidityzone-backend/pkg/shopify"
)

const (
	FeaturedTag = "featured"

	labelNoInventory      = "No Inventory Info"
	labelOutOfStock       = "Out of Stock"
	labelStockUnavailable = "Stock Info Unavailable"
	shippingUnavailable   = "Shipping Info Unavailable"
	shippingNamespace     = "custom"
	shippingKey           = "shipping_location"
	enrichConcurrency     = 4
	defaultProductsTTL    = time.Hour
	defaultFeaturedTTL    = 5 * time.Minute
	defaultInventoryTTL   = 5 * time.Minute
	defaultMetafieldsTTL  = time.Hour
)

// Source is the commerce platform's product API.
type Source interface {
	Products(ctx context.Context, tag string) ([]shopify.Product, error)
	Product(ctx context.Context, productID int64) (*shopify.Product, error)
	InventoryLevels(ctx context.Context, inventoryItemID int64) ([]shopify.InventoryLevel, error)
	ProductMetafields(ctx context.Context, productID int64) ([]shopify.Metafield, error)
}

// Cache stores serialized responses with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// ProductView is a product enriched with its stock label and shipping origin.
type ProductView struct {
	shopify.Product
	Inventory        string `json:"inventory"`
	ShippingLocation any    `json:"shippingLocation"`
}

type ttls struct {
	products   time.Duration
	featured   time.Duration
	inventory  time.Duration
	metafields time.Duration
}

type Service struct {
	source Source
	cache  Cache
	ttl    ttls
	logg   *logger.Logger
	group  singleflight.Group
}

// NewService builds a catalog reader. A nil cache disables caching.
func NewService(source Source, cache Cache, cfg config.CatalogConfig, logg *logger.Logger) (*Service, error) {
	if source == nil {
		return nil, errors.New("catalog source required")
	}
	return &Service{
		source: source,
		cache:  cache,
		ttl: ttls{
			products:   orDefault(cfg.ProductsTTL, defaultProductsTTL),
			featured:   orDefault(cfg.FeaturedTTL, defaultFeaturedTTL),
			inventory:  orDefault(cfg.InventoryTTL, defaultInventoryTTL),
			metafields: defaultMetafieldsTTL,
		},
		logg: logg,
	}, nil
}

// Products lists every product.
func (s *Service) Products(ctx context.Context) ([]ProductView, error) {
	products, err := readThrough(ctx, s, "products", s.ttl.products, func(ctx context.Context) ([]shopify.Product, error) {
		return s.source.Products(ctx, "")
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "fetch products")
	}
	return s.enrich(ctx, products), nil
}

// Featured lists the products tagged for the home page.
func (s *Service) Featured(ctx context.Context) ([]ProductView, error) {
	products, err := readThrough(ctx, s, "products:"+FeaturedTag, s.ttl.featured, func(ctx context.Context) ([]shopify.Product, error) {
		return s.source.Products(ctx, FeaturedTag)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "fetch featured products")
	}
	return s.enrich(ctx, products), nil
}

// Product returns one product by id.
func (s *Service) Product(ctx context.Context, productID int64) (*ProductView, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	product, err := readThrough(ctx, s, "product:"+strconv.FormatInt(productID, 10), s.ttl.products, func(ctx context.Context) (*shopify.Product, error) {
		return s.source.Product(ctx, productID)
	})
	if err != nil {
		if shopify.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "fetch product")
	}
	view := s.view(ctx, *product)
	return &view, nil
}

func (s *Service) enrich(ctx context.Context, products []shopify.Product) []ProductView {
	views := make([]ProductView, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range products {
		i := i
		g.Go(func() error {
			views[i] = s.view(gctx, products[i])
			return nil
		})
	}
	_ = g.Wait()
	return views
}

func (s *Service) view(ctx context.Context, product shopify.Product) ProductView {
	return ProductView{
		Product:          product,
		Inventory:        s.inventoryLabel(ctx, product),
		ShippingLocation: s.shippingLocation(ctx, product.ID),
	}
}

func (s *Service) inventoryLabel(ctx context.Context, product shopify.Product) string {
	if len(product.Variants) == 0 || product.Variants[0].InventoryItemID == 0 {
		return labelNoInventory
	}
	itemID := product.Variants[0].InventoryItemID
	levels, err := readThrough(ctx, s, "inventory:"+strconv.FormatInt(itemID, 10), s.ttl.inventory, func(ctx context.Context) ([]shopify.InventoryLevel, error) {
		return s.source.InventoryLevels(ctx, itemID)
	})
	if err != nil {
		s.warn(ctx, "catalog.inventory_failed", err)
		return labelStockUnavailable
	}
	return InventoryLabel(levels)
}

func (s *Service) shippingLocation(ctx context.Context, productID int64) any {
	fields, err := readThrough(ctx, s, "metafields:"+strconv.FormatInt(productID, 10), s.ttl.metafields, func(ctx context.Context) ([]shopify.Metafield, error) {
		return s.source.ProductMetafields(ctx, productID)
	})
	if err != nil {
		s.warn(ctx, "catalog.metafields_failed", err)
		return shippingUnavailable
	}
	return ShippingLocation(fields)
}

// InventoryLabel renders the stock of the first inventory level.
func InventoryLabel(levels []shopify.InventoryLevel) string {
	if len(levels) == 0 || levels[0].Available == nil || *levels[0].Available <= 0 {
		return labelOutOfStock
	}
	return fmt.Sprintf("In Stock (%d)", *levels[0].Available)
}

// ShippingLocation returns the custom.shipping_location metafield, decoded when it holds JSON.
func ShippingLocation(fields []shopify.Metafield) any {
	for _, mf := range fields {
		if mf.Namespace != shippingNamespace || mf.Key != shippingKey {
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(mf.Value), &decoded); err == nil {
			return decoded
		}
		return mf.Value
	}
	return shippingUnavailable
}

// readThrough serves key from the cache, loading and storing it on a miss.
// Concurrent misses for the same key share one load.
func readThrough[T any](ctx context.Context, s *Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if s.cache == nil {
		return load(ctx)
	}
	cacheKey := s.cache.CacheKey("catalog", key)

	raw, err := s.cache.Get(ctx, cacheKey)
	switch {
	case err == nil:
		var cached T
		if decodeErr := json.Unmarshal([]byte(raw), &cached); decodeErr == nil {
			return cached, nil
		}
	case !errors.Is(err, redis.Nil):
		s.warn(ctx, "catalog.cache_read_failed", err)
	}

	value, err, _ := s.group.Do(cacheKey, func() (any, error) {
		loaded, loadErr := load(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if payload, marshalErr := json.Marshal(loaded); marshalErr == nil {
			if setErr := s.cache.Set(ctx, cacheKey, string(payload), ttl); setErr != nil {
				s.warn(ctx, "catalog.cache_write_failed", setErr)
			}
		}
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}
	return value.(T), nil
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.WarnErr(ctx, msg, err)
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
