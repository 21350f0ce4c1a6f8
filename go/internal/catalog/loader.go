package catalog

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// LoadOptions controls how a tabular source is converted into items.
type LoadOptions struct {
	// CurrencyDivisor scales raw prices into auction units, e.g. 100 to
	// convert lakhs into crores.
	CurrencyDivisor float64
	// PremiumThreshold is the rating at or above which items are premium.
	PremiumThreshold float64
}

// DefaultLoadOptions returns the ingestion policy used by the reference dataset.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		CurrencyDivisor:  100,
		PremiumThreshold: DefaultPremiumThreshold,
	}
}

// Load reads a catalog from path, choosing the adapter by file extension.
// An empty path loads the embedded default catalog.
func Load(path string, opts LoadOptions) (*Catalog, error) {
	var (
		items []Item
		err   error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case path == "":
		items, err = parseYAML(defaultCatalog)
	case ext == ".xlsx":
		items, err = loadXLSX(path, opts)
	case ext == ".csv":
		items, err = loadCSV(path, opts)
	case ext == ".yaml" || ext == ".yml":
		items, err = loadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %q: %w", path, err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	if err := Validate(items); err != nil {
		return nil, fmt.Errorf("failed to load catalog %q: %w", sourceName(path), err)
	}

	c := New(items, opts.PremiumThreshold)
	log.Info().
		Str("source", sourceName(path)).
		Int("items", c.Len()).
		Msg("catalog loaded")
	return c, nil
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// table is a header-normalized view over raw spreadsheet rows.
type table struct {
	columns map[string]int
	rows    [][]string
}

func newTable(raw [][]string) table {
	t := table{columns: make(map[string]int)}
	if len(raw) == 0 {
		return t
	}
	for i, h := range raw[0] {
		key := normalizeHeader(h)
		if _, dup := t.columns[key]; !dup {
			t.columns[key] = i
		}
	}
	t.rows = raw[1:]
	return t
}

// normalizeHeader folds "First Name", "first_name" and "FirstName" onto "firstname".
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// cell returns the first non-empty value among the candidate columns.
func (t table) cell(row []string, candidates ...string) string {
	for _, c := range candidates {
		idx, ok := t.columns[c]
		if !ok || idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			return v
		}
	}
	return ""
}

func (t table) fullName(row []string) string {
	first := t.cell(row, "firstname")
	last := t.cell(row, "lastname")
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return t.cell(row, "name", "player", "playername", "fullname")
}

func (t table) price(row []string) float64 {
	return parseNumber(t.cell(row, "reserveprice", "baseprice", "price"))
}

func parseNumber(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// fromTables converts the player sheet, plus an optional reserve price sheet
// keyed by full name, into catalog items.
func fromTables(players, prices table, opts LoadOptions) []Item {
	divisor := opts.CurrencyDivisor
	if divisor <= 0 {
		divisor = 1
	}

	reserve := make(map[string]float64, len(prices.rows))
	for _, row := range prices.rows {
		if name := prices.fullName(row); name != "" {
			reserve[name] = prices.price(row)
		}
	}

	items := make([]Item, 0, len(players.rows))
	skipped := 0
	for _, row := range players.rows {
		name := players.fullName(row)
		if name == "" {
			skipped++
			continue
		}

		rating := parseNumber(players.cell(row, "rating"))
		base := reserve[name]
		if base == 0 {
			base = players.price(row)
		}

		items = append(items, Item{
			ID:        strconv.Itoa(len(items) + 1),
			Name:      name,
			Role:      ParseRole(players.cell(row, "specialism", "role")),
			Category:  CategoryForRating(rating),
			BasePrice: base / divisor,
			Rating:    rating,
		})
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("catalog rows without a player name were skipped")
	}
	return items
}
