package domain

// CatalogItem is a single sellable cut. Items are immutable after the
// catalog file is loaded.
type CatalogItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Lineage    string `json:"lineage"`
	Breeder    string `json:"breeder,omitempty"`
	BreederURL string `json:"breeder_url,omitempty"`
	Notes      string `json:"notes,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}
