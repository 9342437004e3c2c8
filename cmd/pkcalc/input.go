package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/warp/pk-reward-engine/factory"
	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
	"github.com/warp/pk-reward-engine/sheet"
)

// loadCatalog resolves --catalog or --preset into a catalog.
func loadCatalog(o *options) (generic.Catalog, error) {
	if o.preset != "" {
		cat, ok := rewards.Preset(o.preset)
		if !ok {
			return generic.Catalog{}, fmt.Errorf("%w: unknown preset %q", errUsage, o.preset)
		}
		return cat, nil
	}

	switch strings.ToLower(filepath.Ext(o.catalogPath)) {
	case ".json", ".yaml", ".yml":
		return factory.NewCatalogFactory().LoadFile(o.catalogPath)
	case ".csv":
		return loadRows(o, sheet.ReadCSV)
	default:
		return loadRows(o, func(r io.Reader) ([]generic.RawRow, error) {
			return sheet.ReadWorkbook(r, o.sheet)
		})
	}
}

func loadRows(o *options, read func(io.Reader) ([]generic.RawRow, error)) (generic.Catalog, error) {
	unit := generic.Unit(o.catalogUnit)
	if unit == "" || !unit.Valid() {
		return generic.Catalog{}, fmt.Errorf("%w: unknown catalog unit %q", errUsage, o.catalogUnit)
	}

	f, err := os.Open(o.catalogPath)
	if err != nil {
		return generic.Catalog{}, err
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return generic.Catalog{}, fmt.Errorf("%s: %w", o.catalogPath, err)
	}

	opts := generic.DefaultNormalizeOptions()
	opts.StrictYieldTyping = !o.lenientYield

	var cat generic.Catalog
	if o.strict {
		cat, err = generic.NormalizeStrict(rows, opts)
		if err != nil {
			return generic.Catalog{}, fmt.Errorf("%s: %w", o.catalogPath, err)
		}
	} else {
		var diags []generic.Diagnostic
		cat, diags = generic.NormalizeWith(rows, opts)
		for _, d := range diags {
			slog.Warn("catalog row", "file", o.catalogPath, "row", d.Row, "field", d.Field, "reason", d.Reason, "dropped", d.Dropped)
		}
	}

	base := filepath.Base(o.catalogPath)
	cat.ID = strings.TrimSuffix(base, filepath.Ext(base))
	cat.Name = base
	cat.Unit = unit
	slog.Debug("catalog loaded", "file", o.catalogPath, "options", cat.Len())
	return cat, nil
}
