package types

// CartItem is a snapshot of a Product at the time it was added. Duplicate adds
// produce duplicate entries; there is no quantity field.
type CartItem struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Slug        string  `json:"slug"`
	CategoryID  string  `json:"category"`
}

// CartItemFromProduct denormalizes a product into a cart line.
func CartItemFromProduct(p Product) CartItem {
	return CartItem{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Slug:        p.Slug,
		CategoryID:  p.Category.ID,
	}
}
