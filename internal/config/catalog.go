package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Product catalog loaded from an optional YAML file. Prices here are
// list prices; per-client negotiated prices live in the order store.
type Catalog struct {
	DefaultUnitPrice float64 `yaml:"defaultUnitPrice"`
	Products         []struct {
		Name  string  `yaml:"name"`
		Price float64 `yaml:"price"`
	} `yaml:"products"`
}

// LoadCatalog parses the catalog file at path.
// A missing path returns an empty catalog, not an error.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return &Catalog{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}

	return &cat, nil
}

// ListPrice returns the catalog price for a product, if present.
func (c *Catalog) ListPrice(product string) (float64, bool) {
	for _, p := range c.Products {
		if p.Name == product {
			return p.Price, true
		}
	}
	return 0, false
}
