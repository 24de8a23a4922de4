package models

type Category string

const (
	CategoryComponents  Category = "Components"
	CategoryPeripherals Category = "Peripherals"
	CategoryLaptops     Category = "Laptops"
	CategoryAudio       Category = "Audio"
)

// Categories lists the catalog categories in display order.
var Categories = []Category{
	CategoryComponents,
	CategoryPeripherals,
	CategoryLaptops,
	CategoryAudio,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product is an immutable catalog record. Prices are whole Kenyan shillings.
type Product struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Category    Category          `json:"category" yaml:"category"`
	Price       int64             `json:"price" yaml:"price"`
	Image       string            `json:"image" yaml:"image"`
	Description string            `json:"description" yaml:"description"`
	Specs       map[string]string `json:"specs" yaml:"specs"`
	Rating      float64           `json:"rating" yaml:"rating"`
	Stock       int               `json:"stock" yaml:"stock"`
	IsNew       bool              `json:"is_new,omitempty" yaml:"is_new"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}
