package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"clonedirect/internal/catalog"
	"clonedirect/internal/domain"
)

// CSVImporter converts a spreadsheet export of the strain list into catalog
// items. The bot itself only reads the JSON catalog file; this keeps the
// spreadsheet the operator maintains as the source of truth.
type CSVImporter struct {
	reader *csv.Reader
}

func NewCSVImporter(r io.Reader) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{reader: csvr}
}

// Run parses CSV rows into catalog items. Rows without a name are skipped;
// duplicate names keep the first occurrence, matching catalog load order.
func (i *CSVImporter) Run() ([]domain.CatalogItem, int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return nil, 0, errors.New("missing required column: name")
	}

	var (
		items   []domain.CatalogItem
		seen    = map[string]bool{}
		skipped int
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return items, skipped, fmt.Errorf("read row: %w", err)
		}

		name := pick(record, index, "name")
		if name == "" {
			skipped++
			continue
		}
		id := catalog.Slug(name)
		if seen[id] {
			skipped++
			continue
		}
		seen[id] = true

		items = append(items, domain.CatalogItem{
			ID:         id,
			Name:       name,
			Lineage:    pick(record, index, "lineage"),
			Breeder:    pick(record, index, "breeder"),
			BreederURL: pick(record, index, "breeder_url"),
			Notes:      pick(record, index, "notes"),
			ImageURL:   pick(record, index, "image_url"),
		})
	}

	return items, skipped, nil
}

// WriteJSON writes items as the catalog file consumed at startup.
func WriteJSON(path string, items []domain.CatalogItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
