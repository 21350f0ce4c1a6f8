package catalog

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// loadXLSX reads the first sheet as the player list. A second sheet, when
// present, supplies reserve prices keyed by full name.
func loadXLSX(path string, opts LoadOptions) ([]Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyCatalog
	}

	playerRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var priceRows [][]string
	if len(sheets) > 1 {
		priceRows, err = f.GetRows(sheets[1])
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheets[1], err)
		}
	}

	return fromTables(newTable(playerRows), newTable(priceRows), opts), nil
}

func loadCSV(path string, opts LoadOptions) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	return fromTables(newTable(rows), table{}, opts), nil
}

type yamlCatalog struct {
	Items []Item `yaml:"items"`
}

func loadYAML(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseYAML(data)
}

// parseYAML reads an already-normalized catalog. Prices are taken as-is and
// missing roles or categories are derived the same way tabular rows are.
func parseYAML(data []byte) ([]Item, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml catalog: %w", err)
	}

	items := make([]Item, 0, len(doc.Items))
	for i, it := range doc.Items {
		if it.Name == "" {
			continue
		}
		if it.ID == "" {
			it.ID = fmt.Sprintf("%d", i+1)
		}
		if it.Role == "" {
			it.Role = RoleBatter
		} else {
			it.Role = ParseRole(string(it.Role))
		}
		if it.Category == "" {
			it.Category = CategoryForRating(it.Rating)
		}
		items = append(items, it)
	}
	return items, nil
}
