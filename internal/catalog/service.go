// Package catalog serves the read-only product and fabric catalogs and the
// cascading system, collection and color selection built on them.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/diewo77/go-quotes/internal/models"
)

// ErrProductNotFound is returned for an unknown product id.
var ErrProductNotFound = errors.New("product not found")

// Service memoizes catalog reads for ttl.
type Service struct {
	store    Store
	products *Cache[struct{}, []models.Product]
	eligible *Cache[uint, []uint]
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{
		store:    store,
		products: NewCache[struct{}, []models.Product](ttl),
		eligible: NewCache[uint, []uint](ttl),
	}
}

// Products lists every system, ordered by name.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	return s.products.GetOrLoad(ctx, struct{}{}, s.store.Products)
}

// Product finds one system by id.
func (s *Service) Product(ctx context.Context, id uint) (models.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return models.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (s *Service) eligibleIDs(ctx context.Context, productID uint) ([]uint, error) {
	return s.eligible.GetOrLoad(ctx, productID, func(ctx context.Context) ([]uint, error) {
		return s.store.EligibleFabricIDs(ctx, productID)
	})
}

// Collections returns the distinct collections of the fabrics linked to the
// product, sorted.
func (s *Service) Collections(ctx context.Context, productID uint) ([]string, error) {
	ids, err := s.eligibleIDs(ctx, productID)
	if err != nil {
		return nil, err
	}
	fabrics, err := s.store.Fabrics(ctx, ids, "")
	if err != nil {
		return nil, err
	}
	return DistinctCollections(fabrics), nil
}

// Colors returns the fabrics linked to the product that belong to collection,
// sorted by color name.
func (s *Service) Colors(ctx context.Context, productID uint, collection string) ([]models.Fabric, error) {
	if collection == "" {
		return nil, nil
	}
	ids, err := s.eligibleIDs(ctx, productID)
	if err != nil {
		return nil, err
	}
	fabrics, err := s.store.Fabrics(ctx, ids, collection)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(fabrics, func(a, b models.Fabric) int {
		return cmp.Compare(a.ColorName, b.ColorName)
	})
	return fabrics, nil
}

// Invalidate drops every memoized read, e.g. after a catalog seed.
func (s *Service) Invalidate() {
	s.products.InvalidateAll()
	s.eligible.InvalidateAll()
}

// DistinctCollections returns the sorted set of collection names.
func DistinctCollections(fabrics []models.Fabric) []string {
	seen := make(map[string]struct{}, len(fabrics))
	out := make([]string, 0, len(fabrics))
	for _, f := range fabrics {
		if _, ok := seen[f.Collection]; ok {
			continue
		}
		seen[f.Collection] = struct{}{}
		out = append(out, f.Collection)
	}
	slices.Sort(out)
	return out
}
