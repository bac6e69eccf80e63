package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"pos-edge-sync/internal/cache"
	"pos-edge-sync/internal/connectivity"
	"pos-edge-sync/internal/gateway"
	"pos-edge-sync/internal/model"
	"pos-edge-sync/internal/store"
	"pos-edge-sync/pkg/validate"
)

const catalogCacheKey = "catalog:list"

// CatalogService serves the product catalog: refreshed wholesale from the
// remote when online, read-only from the local products partition
// otherwise. An optional read cache fronts listings.
type CatalogService struct {
	store    store.Store
	gateway  gateway.Gateway
	monitor  *connectivity.Monitor
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewCatalogService creates a catalog service. cache may be nil, in which
// case listings go straight to the store.
func NewCatalogService(st store.Store, gw gateway.Gateway, monitor *connectivity.Monitor, c cache.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{
		store:    st,
		gateway:  gw,
		monitor:  monitor,
		cache:    c,
		cacheTTL: ttl,
	}
}

// List returns the catalog sorted by name. Remote failure or store
// unavailability degrades to whatever cached data exists, down to an empty
// list — the read path never errors out to the UI.
func (s *CatalogService) List(ctx context.Context) []model.Product {
	if s.cache != nil {
		data, err := s.cache.GetOrSet(ctx, catalogCacheKey, s.cacheTTL, func() ([]byte, error) {
			return json.Marshal(s.listFromStore(ctx))
		})
		if err == nil {
			var products []model.Product
			if err := json.Unmarshal(data, &products); err == nil {
				return products
			}
		}
	}
	return s.listFromStore(ctx)
}

// listFromStore reads the products partition, degrading to empty on error.
func (s *CatalogService) listFromStore(ctx context.Context) []model.Product {
	docs, err := s.store.GetAll(ctx, store.PartitionProducts)
	if err != nil {
		log.Printf("[CatalogService] Failed to read products partition: %v", err)
		return []model.Product{}
	}

	products := make([]model.Product, 0, len(docs))
	for key, doc := range docs {
		var p model.Product
		if err := json.Unmarshal(doc, &p); err != nil {
			log.Printf("[CatalogService] Skipping undecodable product %s: %v", key, err)
			continue
		}
		products = append(products, p)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products
}

// Refresh fetches the remote catalog and replaces the local products
// partition wholesale. On transport failure the cached partition stays as
// is and the error is returned for the caller to log.
func (s *CatalogService) Refresh(ctx context.Context) error {
	products, err := s.gateway.FetchCatalog(ctx)
	if err != nil {
		s.monitor.ReportFailure()
		return fmt.Errorf("catalog refresh failed: %w", err)
	}
	s.monitor.ReportSuccess()

	docs := make(map[string][]byte, len(products))
	for _, p := range products {
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal product %d: %w", p.ID, err)
		}
		docs[strconv.FormatInt(p.ID, 10)] = doc
	}

	if err := s.store.BulkPut(ctx, store.PartitionProducts, docs); err != nil {
		return fmt.Errorf("failed to persist catalog: %w", err)
	}

	s.invalidateCache(ctx)
	log.Printf("[CatalogService] Catalog refreshed: %d products", len(products))
	return nil
}

// Create validates a new product, forwards it to the remote (admin editor
// path) and mirrors the created entry into the local partition.
func (s *CatalogService) Create(ctx context.Context, p model.Product) (*model.Product, error) {
	if errs := validate.Struct(p); errs != nil {
		return nil, fmt.Errorf("invalid product: %s failed %s", errs[0].Field, errs[0].Tag)
	}

	created, err := s.gateway.CreateProduct(ctx, p)
	if err != nil {
		s.monitor.ReportFailure()
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.monitor.ReportSuccess()

	doc, err := json.Marshal(created)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product: %w", err)
	}
	if err := s.store.Put(ctx, store.PartitionProducts, strconv.FormatInt(created.ID, 10), doc); err != nil {
		log.Printf("[CatalogService] Failed to mirror product %d locally: %v", created.ID, err)
	}

	s.invalidateCache(ctx)
	return created, nil
}

// SeedIfEmpty installs a small demo catalog when the local partition holds
// nothing, so a terminal is usable before its first successful refresh.
func (s *CatalogService) SeedIfEmpty(ctx context.Context) {
	docs, err := s.store.GetAll(ctx, store.PartitionProducts)
	if err != nil || len(docs) > 0 {
		return
	}

	samples := []model.Product{
		{ID: 1, Name: "Coffee", Price: 3.50, Stock: 100, Category: "Beverages", Barcode: "1234567890123"},
		{ID: 2, Name: "Sandwich", Price: 8.99, Stock: 50, Category: "Food", Barcode: "1234567890124"},
		{ID: 3, Name: "Water Bottle", Price: 1.99, Stock: 200, Category: "Beverages", Barcode: "1234567890125"},
		{ID: 4, Name: "Chips", Price: 2.49, Stock: 75, Category: "Snacks", Barcode: "1234567890126"},
		{ID: 5, Name: "Energy Bar", Price: 4.99, Stock: 30, Category: "Snacks", Barcode: "1234567890127"},
	}

	seed := make(map[string][]byte, len(samples))
	for _, p := range samples {
		doc, _ := json.Marshal(p)
		seed[strconv.FormatInt(p.ID, 10)] = doc
	}
	if err := s.store.BulkPut(ctx, store.PartitionProducts, seed); err != nil {
		log.Printf("[CatalogService] Failed to seed sample catalog: %v", err)
		return
	}
	log.Printf("[CatalogService] Seeded %d sample products", len(samples))
}

// invalidateCache drops the cached listing after a write.
func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
		log.Printf("[CatalogService] Failed to invalidate catalog cache: %v", err)
	}
}
