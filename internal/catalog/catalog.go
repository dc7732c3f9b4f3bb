// Package catalog holds the read-only product list the cart prices against.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/angelmondragon/greencart/pkg/pagination"
	"github.com/shopspring/decimal"
)

//go:embed products.json
var seedProducts []byte

type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	OfferPrice  decimal.Decimal `json:"offerPrice"`
	Description []string        `json:"description,omitempty"`
	Images      []string        `json:"image,omitempty"`
	InStock     bool            `json:"inStock"`
}

// Catalog is immutable once built and safe for concurrent reads.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

func New(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]Product, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.products = append(c.products, p)
		c.byID[p.ID] = p
	}
	return c
}

// Default returns the catalog shipped with the client.
func Default() (*Catalog, error) {
	return parse(seedProducts)
}

// LoadFile reads a catalog from a JSON array of products.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return parse(data)
}

// Load uses path when set and falls back to the shipped catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

func parse(data []byte) (*Catalog, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return New(products), nil
}

func (c *Catalog) All() []Product {
	return append([]Product(nil), c.products...)
}

func (c *Catalog) Find(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// OfferPrice is the unit price the cart charges for id.
func (c *Catalog) OfferPrice(id string) (decimal.Decimal, bool) {
	p, ok := c.byID[id]
	if !ok {
		return decimal.Zero, false
	}
	return p.OfferPrice, true
}

// Search returns in-stock products whose name or category contains query,
// case-insensitively. An empty query matches every in-stock product.
func (c *Catalog) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Product
	for _, p := range c.products {
		if !p.InStock {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) ByCategory(category string) []Product {
	var out []Product
	for _, p := range c.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists distinct categories in sorted order.
func (c *Catalog) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// Paginate returns one page of products and the cursor of the next page.
func Paginate(products []Product, params pagination.Params) ([]Product, string, error) {
	return pagination.Page(products, params, func(p Product) string { return p.ID })
}
