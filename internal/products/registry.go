package products

import (
	"fmt"
	"sort"
	"strings"
)

// Registry manages the known products
type Registry struct {
	products map[string]Product
}

// NewRegistry creates an empty product registry
func NewRegistry() *Registry {
	return &Registry{
		products: make(map[string]Product),
	}
}

// Register adds a product to the registry, replacing one with the same code
func (r *Registry) Register(p Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("product code cannot be empty")
	}
	r.products[strings.ToLower(p.Code)] = p
	return nil
}

// Get retrieves a product by code (case-insensitive)
func (r *Registry) Get(code string) (Product, bool) {
	p, ok := r.products[strings.ToLower(strings.TrimSpace(code))]
	return p, ok
}

// MustGet retrieves a product or returns a descriptive error
func (r *Registry) MustGet(code string) (Product, error) {
	p, ok := r.Get(code)
	if !ok {
		return Product{}, fmt.Errorf("unknown product: %s (available: %s)", code, strings.Join(r.List(), ", "))
	}
	return p, nil
}

// List returns all registered product codes in sorted order
func (r *Registry) List() []string {
	codes := make([]string, 0, len(r.products))
	for code := range r.products {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// All returns every registered product ordered by code
func (r *Registry) All() []Product {
	out := make([]Product, 0, len(r.products))
	for _, code := range r.List() {
		out = append(out, r.products[code])
	}
	return out
}
