package catalog

import (
	"context"
	"fmt"

	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/gorm"
)

// Store is the read side of the catalog tables.
type Store interface {
	Products(ctx context.Context) ([]models.Product, error)
	EligibleFabricIDs(ctx context.Context, productID uint) ([]uint, error)
	// Fabrics returns the fabrics with the given ids, optionally limited to one
	// collection, ordered by color name.
	Fabrics(ctx context.Context, ids []uint, collection string) ([]models.Fabric, error)
}

// GormStore reads the catalog with gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

func (s *GormStore) EligibleFabricIDs(ctx context.Context, productID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.ProductFabric{}).
		Where("product_id = ?", productID).
		Pluck("fabric_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load fabrics of product %d: %w", productID, err)
	}
	return ids, nil
}

func (s *GormStore) Fabrics(ctx context.Context, ids []uint, collection string) ([]models.Fabric, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Where("id IN ?", ids)
	if collection != "" {
		q = q.Where("collection = ?", collection)
	}
	var fabrics []models.Fabric
	if err := q.Order("color_name").Order("id").Find(&fabrics).Error; err != nil {
		return nil, fmt.Errorf("load fabrics: %w", err)
	}
	return fabrics, nil
}
