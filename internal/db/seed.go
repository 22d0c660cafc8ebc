package db

import (
	"context"
	"fmt"
	"io"

	"github.com/diewo77/go-quotes/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// CatalogFile is the YAML layout accepted by SeedCatalog.
//
//	fabrics:
//	  - code: BO-101
//	    color_name: Ivory
//	    collection: Blackout
//	    system_code: RB
//	products:
//	  - code: RB
//	    name: Roller Blind
//	    fabrics: [BO-101]
type CatalogFile struct {
	Fabrics  []CatalogFabric  `yaml:"fabrics"`
	Products []CatalogProduct `yaml:"products"`
}

type CatalogFabric struct {
	Code       string `yaml:"code"`
	ColorName  string `yaml:"color_name"`
	Collection string `yaml:"collection"`
	SystemCode string `yaml:"system_code"`
}

type CatalogProduct struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Fabrics []string `yaml:"fabrics"`
}

// SeedStats reports how many catalog rows were written.
type SeedStats struct {
	Products int
	Fabrics  int
	Links    int
}

// ParseCatalog decodes and checks a catalog file.
func ParseCatalog(r io.Reader) (*CatalogFile, error) {
	var f CatalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	codes := make(map[string]bool, len(f.Fabrics))
	for i, fab := range f.Fabrics {
		if fab.Code == "" || fab.ColorName == "" || fab.Collection == "" {
			return nil, fmt.Errorf("fabric #%d: code, color_name and collection are required", i+1)
		}
		if codes[fab.Code] {
			return nil, fmt.Errorf("fabric %s: duplicate code", fab.Code)
		}
		codes[fab.Code] = true
	}
	for i, p := range f.Products {
		if p.Code == "" || p.Name == "" {
			return nil, fmt.Errorf("product #%d: code and name are required", i+1)
		}
		for _, code := range p.Fabrics {
			if !codes[code] {
				return nil, fmt.Errorf("product %s: unknown fabric %s", p.Code, code)
			}
		}
	}
	return &f, nil
}

// SeedCatalog upserts products, fabrics and their associations from a YAML catalog.
// Rows are matched by code, so running it twice is harmless.
func SeedCatalog(ctx context.Context, db *gorm.DB, r io.Reader) (SeedStats, error) {
	var stats SeedStats
	f, err := ParseCatalog(r)
	if err != nil {
		return stats, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fabricIDs := make(map[string]uint, len(f.Fabrics))
		for _, cf := range f.Fabrics {
			fabric := models.Fabric{
				ColorName:  cf.ColorName,
				Collection: cf.Collection,
			}
			if cf.SystemCode != "" {
				sc := cf.SystemCode
				fabric.SystemCode = &sc
			}
			if err := tx.Where(models.Fabric{Code: cf.Code}).
				Assign(fabric).
				FirstOrCreate(&fabric).Error; err != nil {
				return fmt.Errorf("fabric %s: %w", cf.Code, err)
			}
			fabricIDs[cf.Code] = fabric.ID
			stats.Fabrics++
		}

		for _, cp := range f.Products {
			product := models.Product{Name: cp.Name}
			if err := tx.Where(models.Product{Code: cp.Code}).
				Assign(product).
				FirstOrCreate(&product).Error; err != nil {
				return fmt.Errorf("product %s: %w", cp.Code, err)
			}
			stats.Products++
			for _, code := range cp.Fabrics {
				link := models.ProductFabric{ProductID: product.ID, FabricID: fabricIDs[code]}
				if err := tx.Where(link).FirstOrCreate(&link).Error; err != nil {
					return fmt.Errorf("link %s/%s: %w", cp.Code, code, err)
				}
				stats.Links++
			}
		}
		return nil
	})
	return stats, err
}
