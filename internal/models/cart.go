package models

type CartItem struct {
	ProductID   string  `json:"product_id"`
	VariantID   string  `json:"variant_id,omitempty"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	VariantInfo string  `json:"variant_info,omitempty"` // snapshot JSON de la variante choisie
}
