/*
Package factory provides catalog definition to Go conversion.

PURPOSE:
  Converts JSON or YAML catalog definitions into generic.Catalog values.
  Event operators can describe PK tiers in a file, and the factory
  creates the proper Go structs without code changes.

DEFINITION SCHEMA (JSON shown, YAML uses the same keys):
  {
    "id": "pk-spring",
    "name": "Spring PK event",
    "unit": "diamonds",
    "options": [
      {"category": "Daily PK",  "cost": 200,  "yield": 60,  "rebate": 0.3},
      {"category": "Weekly PK", "cost": 1000, "yield": 320, "rebate": "32%"},
      {"category": "Event PK",  "cost": 500,  "yield": 150}
    ]
  }

KEY FEATURES:
  - Options go through generic.NormalizeStrict: a definition file is
    authored, so a bad option is an error, not a silent skip
  - Row numbers in errors are 1-based option positions
  - "lenient_yield": true accepts numeric text yields
  - Unit defaults to points

USAGE:
  f := factory.NewCatalogFactory()
  cat, err := f.ParseCatalog(jsonString)
  cat, err = f.ParseCatalogYAML(yamlBytes)
  cats, err := f.LoadDir("./catalogs")

SEE ALSO:
  - generic/normalize.go: Row validation rules
  - rewards/presets.go: Go-based catalogs
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warp/pk-reward-engine/generic"
)

// ErrInvalidDefinition is returned for definitions that cannot describe a catalog.
var ErrInvalidDefinition = errors.New("invalid catalog definition")

// =============================================================================
// DEFINITION SCHEMA TYPES
// =============================================================================

// CatalogJSON is the file representation of a catalog.
type CatalogJSON struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Unit         string       `json:"unit,omitempty" yaml:"unit,omitempty"`
	LenientYield bool         `json:"lenient_yield,omitempty" yaml:"lenient_yield,omitempty"`
	Options      []OptionJSON `json:"options" yaml:"options"`
}

// OptionJSON is one option. Numeric fields stay untyped until normalization
// so that "cost": "200" is reported instead of silently coerced.
type OptionJSON struct {
	Category any `json:"category" yaml:"category"`
	Cost     any `json:"cost" yaml:"cost"`
	Yield    any `json:"yield" yaml:"yield"`
	Rebate   any `json:"rebate,omitempty" yaml:"rebate,omitempty"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// CatalogFactory converts definitions to catalogs.
type CatalogFactory struct{}

// NewCatalogFactory creates a new catalog factory.
func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseCatalog parses a JSON definition.
func (f *CatalogFactory) ParseCatalog(jsonStr string) (generic.Catalog, error) {
	var cj CatalogJSON
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()
	if err := dec.Decode(&cj); err != nil {
		return generic.Catalog{}, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// ParseCatalogYAML parses a YAML definition.
func (f *CatalogFactory) ParseCatalogYAML(data []byte) (generic.Catalog, error) {
	var cj CatalogJSON
	if err := yaml.Unmarshal(data, &cj); err != nil {
		return generic.Catalog{}, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts a definition to a catalog.
func (f *CatalogFactory) FromJSON(cj CatalogJSON) (generic.Catalog, error) {
	if strings.TrimSpace(cj.ID) == "" {
		return generic.Catalog{}, fmt.Errorf("%w: id is required", ErrInvalidDefinition)
	}
	unit := generic.Unit(strings.ToLower(strings.TrimSpace(cj.Unit)))
	if unit == "" {
		unit = generic.UnitPoints
	}
	if !unit.Valid() {
		return generic.Catalog{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidDefinition, cj.Unit)
	}

	rows := make([]generic.RawRow, len(cj.Options))
	for i, o := range cj.Options {
		rows[i] = generic.RawRow{Row: i + 1, Category: o.Category, Cost: o.Cost, Yield: o.Yield, Rebate: o.Rebate}
	}
	opts := generic.DefaultNormalizeOptions()
	opts.StrictYieldTyping = !cj.LenientYield

	cat, err := generic.NormalizeStrict(rows, opts)
	if err != nil {
		return generic.Catalog{}, fmt.Errorf("catalog %s: %w", cj.ID, err)
	}
	cat.ID = cj.ID
	cat.Name = cj.Name
	if cat.Name == "" {
		cat.Name = cj.ID
	}
	cat.Unit = unit
	return cat, nil
}

// ToJSON converts a catalog back to its definition. Yields and rebates are
// carried as json.Number so a JSON round trip is exact.
func (f *CatalogFactory) ToJSON(cat generic.Catalog) CatalogJSON {
	cj := CatalogJSON{ID: cat.ID, Name: cat.Name, Unit: string(cat.Unit)}
	for _, o := range cat.Options {
		oj := OptionJSON{Category: o.Category, Cost: o.Cost, Yield: json.Number(o.Yield.String())}
		if o.Rebate != nil {
			oj.Rebate = json.Number(o.Rebate.String())
		}
		cj.Options = append(cj.Options, oj)
	}
	return cj
}

// LoadDir parses every *.json, *.yaml and *.yml file in dir, ordered by
// file name. Any bad file or an ID defined by two files fails the whole load.
func (f *CatalogFactory) LoadDir(dir string) ([]generic.Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var catalogs []generic.Catalog
	defined := make(map[string]string) // catalog ID -> file name
	for _, name := range names {
		path := filepath.Join(dir, name)
		var cat generic.Catalog
		switch strings.ToLower(filepath.Ext(name)) {
		case ".json":
			cat, err = f.loadJSONFile(path)
		case ".yaml", ".yml":
			cat, err = f.loadYAMLFile(path)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, ok := defined[cat.ID]; ok {
			return nil, fmt.Errorf("%s: %w: id %q already defined in %s", name, ErrInvalidDefinition, cat.ID, prev)
		}
		defined[cat.ID] = name
		catalogs = append(catalogs, cat)
	}
	return catalogs, nil
}

// LoadFile parses a single definition file, choosing the format by extension.
func (f *CatalogFactory) LoadFile(path string) (generic.Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return f.loadJSONFile(path)
	case ".yaml", ".yml":
		return f.loadYAMLFile(path)
	}
	return generic.Catalog{}, fmt.Errorf("%w: unsupported file %s", ErrInvalidDefinition, filepath.Base(path))
}

func (f *CatalogFactory) loadJSONFile(path string) (generic.Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return generic.Catalog{}, err
	}
	return f.ParseCatalog(string(bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))))
}

func (f *CatalogFactory) loadYAMLFile(path string) (generic.Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return generic.Catalog{}, err
	}
	return f.ParseCatalogYAML(b)
}
