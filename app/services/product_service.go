package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/pkg/cache"
	"github.com/pizzanova/backend/pkg/logger"
	"github.com/pizzanova/backend/pkg/metrics"
	"github.com/pizzanova/backend/pkg/paginate"
	"github.com/pizzanova/backend/pkg/reqid"
	"github.com/pizzanova/backend/pkg/storage"
)

const (
	catalogCacheTTL    = 5 * time.Minute
	catalogCachePrefix = "pizzanova:catalog:"
)

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name        string  `json:"name"         validate:"required,min=2,max=150"`
	Description string  `json:"description"  validate:"nullable,max=1000"`
	Category    string  `json:"category"     validate:"required,min=2,max=60"`
	Price       float64 `json:"price"        validate:"required,numeric,gte=0.5,lte=500"`
	IsAvailable *bool   `json:"is_available" validate:"nullable"`
}

type cachedList struct {
	Products   []models.Product    `json:"products"`
	Pagination paginate.Pagination `json:"pagination"`
}

// ProductService fronts the catalog with an opportunistic Redis cache.
// Reads go cache-first; any admin write invalidates the whole catalog
// prefix rather than tracking per-key dependencies.
type ProductService struct {
	products *repositories.ProductRepository
}

func NewProductService(products *repositories.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// List returns catalog products, serving repeat queries from cache.
func (s *ProductService) List(ctx context.Context, filter repositories.ProductFilter, page, limit int) ([]models.Product, paginate.Pagination, error) {
	key := fmt.Sprintf("%slist:%s:%t:%s:%d:%d",
		catalogCachePrefix, filter.Category, filter.OnlyAvailable, filter.Search, page, limit)

	var hit cachedList
	if cache.Get(key, &hit) {
		metrics.CacheHits.Inc()
		return s.decorate(hit.Products), hit.Pagination, nil
	}
	metrics.CacheMisses.Inc()

	products, pg, err := s.products.List(ctx, filter, page, limit)
	if err != nil {
		return nil, pg, err
	}

	if err := cache.Set(key, cachedList{Products: products, Pagination: pg}, catalogCacheTTL); err != nil {
		logger.WithCtx(ctx).Warn("catalog cache write", "error", err)
	}
	return s.decorate(products), pg, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	return s.decorateOne(p), nil
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	key := catalogCachePrefix + "categories"

	var cats []string
	if cache.Get(key, &cats) {
		metrics.CacheHits.Inc()
		return cats, nil
	}
	metrics.CacheMisses.Inc()

	cats, err := s.products.Categories(ctx)
	if err != nil {
		return nil, err
	}
	_ = cache.Set(key, cats, catalogCacheTTL)
	return cats, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	p := models.Product{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		IsAvailable: true,
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return p, err
	}
	s.invalidate(ctx)
	return s.decorateOne(p), nil
}

func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	fields := bson.M{
		"name":        in.Name,
		"description": in.Description,
		"category":    in.Category,
		"price":       in.Price,
	}
	if in.IsAvailable != nil {
		fields["is_available"] = *in.IsAvailable
	}

	if err := s.products.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, err
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// SetAvailability flips the availability flag without touching anything else.
func (s *ProductService) SetAvailability(ctx context.Context, id string, available bool) (models.Product, error) {
	if err := s.products.UpdateFields(ctx, id, bson.M{"is_available": available}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, err
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if p.ImagePath != "" {
		if err := storage.Delete(p.ImagePath); err != nil {
			logger.WithCtx(ctx).Warn("delete product image", "error", err)
		}
	}
	s.invalidate(ctx)
	return nil
}

// AttachImage writes an uploaded image to the configured disk and stores
// its path on the product.
func (s *ProductService) AttachImage(ctx context.Context, id, filename string, body io.Reader) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return p, fmt.Errorf("read image: %w", err)
	}

	dst := fmt.Sprintf("products/%s/%s%s", id, reqid.New(), path.Ext(filename))
	if err := storage.Put(dst, content); err != nil {
		return p, fmt.Errorf("store image: %w", err)
	}

	if p.ImagePath != "" && p.ImagePath != dst {
		if err := storage.Delete(p.ImagePath); err != nil {
			logger.WithCtx(ctx).Warn("delete replaced image", "error", err)
		}
	}

	if err := s.products.UpdateFields(ctx, id, bson.M{"image_path": dst}); err != nil {
		return p, err
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// invalidate drops every cached catalog key.
func (s *ProductService) invalidate(ctx context.Context) {
	if cache.RDB == nil {
		return
	}
	keys, err := cache.RDB.Keys(ctx, catalogCachePrefix+"*").Result()
	if err != nil {
		logger.WithCtx(ctx).Warn("catalog cache invalidation", "error", err)
		return
	}
	if err := cache.Del(keys...); err != nil {
		logger.WithCtx(ctx).Warn("catalog cache invalidation", "error", err)
	}
}

func (s *ProductService) decorate(products []models.Product) []models.Product {
	for i := range products {
		products[i] = s.decorateOne(products[i])
	}
	return products
}

func (s *ProductService) decorateOne(p models.Product) models.Product {
	if p.ImagePath != "" {
		p.ImageURL = storage.URL(p.ImagePath)
	}
	return p
}
