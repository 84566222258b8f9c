package domain

type Product struct {
	ID          string  `json:"id" validate:"required"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	CategoryID  string  `json:"categoryId,omitempty"`
	Stock       int64   `json:"stock,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

func (p Product) LineItem(quantity int) CartLineItem {
	return CartLineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		ImageRef:  p.ImageURL,
	}
}
