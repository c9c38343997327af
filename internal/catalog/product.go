package catalog

// Product is a catalog entry keyed by its PLU.
type Product struct {
	PLU   int     `json:"plu"`
	Name  string  `json:"name"`
	Price float64 `json:"price"` // unit price
	Unit  string  `json:"unit"`
}
