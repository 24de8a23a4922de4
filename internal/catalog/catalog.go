package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"storefront/internal/models"

	"gopkg.in/yaml.v3"
)

// AllCategories is the category value that disables category filtering.
const AllCategories = "All"

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrProductNotFound = errors.New("product not found")

type catalogFile struct {
	Products []models.Product `yaml:"products"`
}

// Index is the read-only product catalog. It is safe for concurrent use.
type Index struct {
	products []models.Product
	byID     map[string]int
}

// LoadCatalog reads a YAML catalog from path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (*Index, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Index, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return NewIndex(file.Products)
}

func NewIndex(products []models.Product) (*Index, error) {
	idx := &Index{
		products: make([]models.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}

	for _, p := range products {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, dup := idx.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		idx.byID[p.ID] = len(idx.products)
		idx.products = append(idx.products, p)
	}

	return idx, nil
}

func validate(p models.Product) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("product %q has no id", p.Name)
	case p.Price < 0:
		return fmt.Errorf("product %s has negative price", p.ID)
	case p.Stock < 0:
		return fmt.Errorf("product %s has negative stock", p.ID)
	case p.Rating < 0 || p.Rating > 5:
		return fmt.Errorf("product %s has rating %.1f outside 0-5", p.ID, p.Rating)
	case !p.Category.Valid():
		return fmt.Errorf("product %s has unknown category %q", p.ID, p.Category)
	}
	return nil
}

// All returns the products in catalog order. The slice is a copy.
func (i *Index) All() []models.Product {
	out := make([]models.Product, len(i.products))
	copy(out, i.products)
	return out
}

func (i *Index) Len() int {
	return len(i.products)
}

func (i *Index) ByID(id string) (models.Product, error) {
	pos, ok := i.byID[id]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return i.products[pos], nil
}

func (i *Index) ByCategory(category models.Category) []models.Product {
	var out []models.Product
	for _, p := range i.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the selectable category values, "All" first.
func (i *Index) Categories() []string {
	out := []string{AllCategories}
	for _, c := range models.Categories {
		out = append(out, string(c))
	}
	return out
}
