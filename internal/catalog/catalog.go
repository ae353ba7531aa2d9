package catalog

import (
	"encoding/json"
	"os"
	"strings"

	"clonedirect/internal/domain"
	"go.uber.org/zap"
)

// Provider is the read-only item catalog, loaded once at startup. Lookups
// after load are in-memory and never block.
type Provider struct {
	items []domain.CatalogItem
	byID  map[string]domain.CatalogItem
}

type fileItem struct {
	Name       string `json:"name"`
	Lineage    string `json:"lineage"`
	Breeder    string `json:"breeder"`
	BreederURL string `json:"breeder_url"`
	Notes      string `json:"notes"`
	ImageURL   string `json:"image_url"`
}

// Load reads a JSON catalog file. A missing or malformed file degrades to an
// empty catalog with a logged warning rather than failing startup.
func Load(path string, logger *zap.Logger) *Provider {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("catalog file unreadable, starting with empty catalog",
			zap.String("path", path), zap.Error(err))
		return New(nil)
	}

	var raw []fileItem
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("catalog file malformed, starting with empty catalog",
			zap.String("path", path), zap.Error(err))
		return New(nil)
	}

	items := make([]domain.CatalogItem, 0, len(raw))
	for _, it := range raw {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			logger.Warn("skipping catalog entry without a name")
			continue
		}
		items = append(items, domain.CatalogItem{
			Name:       name,
			Lineage:    strings.TrimSpace(it.Lineage),
			Breeder:    strings.TrimSpace(it.Breeder),
			BreederURL: strings.TrimSpace(it.BreederURL),
			Notes:      strings.TrimSpace(it.Notes),
			ImageURL:   strings.TrimSpace(it.ImageURL),
		})
	}

	logger.Info("catalog loaded", zap.String("path", path), zap.Int("items", len(items)))
	return New(items)
}

// New builds a Provider from already-parsed items, assigning each a stable
// slug identifier derived from its name. Later duplicates of a slug are
// dropped.
func New(items []domain.CatalogItem) *Provider {
	p := &Provider{byID: make(map[string]domain.CatalogItem, len(items))}
	for _, it := range items {
		if it.ID == "" {
			it.ID = Slug(it.Name)
		}
		if _, exists := p.byID[it.ID]; exists {
			continue
		}
		p.byID[it.ID] = it
		p.items = append(p.items, it)
	}
	return p
}

// Get returns the item with the given identifier or domain.ErrNotFound.
func (p *Provider) Get(id string) (*domain.CatalogItem, error) {
	it, ok := p.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

// List returns all items in load order.
func (p *Provider) List() []domain.CatalogItem {
	out := make([]domain.CatalogItem, len(p.items))
	copy(out, p.items)
	return out
}

// Len reports the number of loaded items.
func (p *Provider) Len() int {
	return len(p.items)
}

// Slug derives a stable lowercase identifier from an item name.
func Slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
