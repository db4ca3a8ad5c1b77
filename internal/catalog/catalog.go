// Package catalog holds the read-only set of loan products that applications are scored against.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"loan-application-engine/internal/models"
)

//go:embed products.yaml
var defaultCatalog []byte

// Catalog is an ordered, immutable list of validated loan products.
// It is safe for concurrent reads.
type Catalog struct {
	version  int
	products []models.LoanProduct
}

type catalogFile struct {
	Version  int                  `yaml:"version"`
	Products []models.LoanProduct `yaml:"products"`
}

// New validates the products and copies them into a catalog.
func New(version int, products []models.LoanProduct) (*Catalog, error) {
	seen := make(map[string]bool, len(products))
	copied := make([]models.LoanProduct, len(products))

	for i, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", models.ErrInvalidProduct, p.ID)
		}
		seen[p.ID] = true

		p.Purposes = append([]string(nil), p.Purposes...)
		p.EmploymentTypes = append([]models.EmploymentType(nil), p.EmploymentTypes...)
		copied[i] = p
	}

	return &Catalog{version: version, products: copied}, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(file.Version, file.Products)
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the bundled one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Version returns the catalog document version.
func (c *Catalog) Version() int {
	return c.version
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// Products returns the products in insertion order. Callers must not modify them.
func (c *Catalog) Products() []models.LoanProduct {
	if c == nil {
		return nil
	}
	return c.products
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (*models.LoanProduct, bool) {
	for i := range c.Products() {
		if c.products[i].ID == id {
			return &c.products[i], true
		}
	}
	return nil, false
}
