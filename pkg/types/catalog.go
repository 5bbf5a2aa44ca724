package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category is a product grouping served by the catalog API.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryRef accepts either a bare category id or a populated category
// object, which is how the API returns product.category depending on the route.
type CategoryRef struct {
	ID   string
	Name string
	Slug string
}

func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = CategoryRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("category ref: %w", err)
		}
		*c = CategoryRef{ID: id}
		return nil
	}
	var cat Category
	if err := json.Unmarshal(data, &cat); err != nil {
		return fmt.Errorf("category ref: %w", err)
	}
	*c = CategoryRef{ID: cat.ID, Name: cat.Name, Slug: cat.Slug}
	return nil
}

func (c CategoryRef) MarshalJSON() ([]byte, error) {
	if c.Name == "" && c.Slug == "" {
		return json.Marshal(c.ID)
	}
	return json.Marshal(Category{ID: c.ID, Name: c.Name, Slug: c.Slug})
}

// Product is a catalog entry as returned by the product endpoints.
type Product struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Category    CategoryRef `json:"category"`
	Quantity    int         `json:"quantity,omitempty"`
	Shipping    bool        `json:"shipping,omitempty"`
}

// PriceRange is an inclusive [Min, Max] price band.
type PriceRange struct {
	Min float64
	Max float64
}

// Contains reports whether price falls inside the band.
func (p PriceRange) Contains(price float64) bool {
	return price >= p.Min && price <= p.Max
}

// PriceBand is a labelled preset offered by the price filter.
type PriceBand struct {
	Name  string
	Range PriceRange
}

// PriceBands returns the preset price filter choices.
func PriceBands() []PriceBand {
	return []PriceBand{
		{Name: "$0 to 19", Range: PriceRange{Min: 0, Max: 19}},
		{Name: "$20 to 39", Range: PriceRange{Min: 20, Max: 39}},
		{Name: "$40 to 59", Range: PriceRange{Min: 40, Max: 59}},
		{Name: "$60 to 79", Range: PriceRange{Min: 60, Max: 79}},
		{Name: "$80 to 99", Range: PriceRange{Min: 80, Max: 99}},
		{Name: "$100 or more", Range: PriceRange{Min: 100, Max: 9999}},
	}
}

// FilterRequest is the body of POST product/product-filters. Radio is either
// empty or a two element [min, max] band.
type FilterRequest struct {
	Checked []string  `json:"checked" validate:"dive,required"`
	Radio   []float64 `json:"radio" validate:"omitempty,len=2"`
}

// NewFilterRequest builds the wire body for a category set and optional band.
func NewFilterRequest(checked []string, price *PriceRange) FilterRequest {
	req := FilterRequest{
		Checked: append([]string{}, checked...),
		Radio:   []float64{},
	}
	if price != nil {
		req.Radio = []float64{price.Min, price.Max}
	}
	return req
}
