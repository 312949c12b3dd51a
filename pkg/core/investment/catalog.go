package investment

import (
	"encoding/json"
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"
)

// Catalog is the read-only set of reference products.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

type catalogFile struct {
	Products []Product `json:"products"`
}

// NewCatalog validates products: IDs must be present and unique, risk levels
// known, and published rates non-negative.
func NewCatalog(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]Product, len(products)),
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: product %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %q", ErrInvalidCatalog, p.ID)
		}
		if _, err := ParseRiskLevel(string(p.RiskLevel)); err != nil {
			return nil, fmt.Errorf("%w: product %q: %v", ErrInvalidCatalog, p.ID, err)
		}
		if p.Returns.ThreeMonths < 0 || p.Returns.SixMonths < 0 || p.Returns.TwelveMonths < 0 {
			return nil, fmt.Errorf("%w: product %q has a negative rate", ErrInvalidCatalog, p.ID)
		}
		c.products = append(c.products, p)
		c.byID[p.ID] = p
	}
	return c, nil
}

// ParseCatalog reads an Hjson document with a top-level "products" list.
func ParseCatalog(data []byte) (*Catalog, error) {
	// Hjson decodes to generic values first so the json tags on Product apply.
	var raw interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("HJSON_PARSE_ERROR: %w", err)
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("JSON_MARSHAL_ERROR: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(normalized, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewCatalog(file.Products)
}

// LoadCatalog reads the catalog file at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Products returns a copy of every product in catalog order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product looks up a product by ID.
func (c *Catalog) Product(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	p, ok := c.byID[id]
	return p, ok
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}
