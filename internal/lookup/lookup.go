// Package lookup holds the read-only display names and sector benchmarks
// consulted while building a report.
package lookup

import (
	"sort"
	"strings"

	"github.com/newthinker/checksignal/internal/config"
	"github.com/newthinker/checksignal/internal/qvt"
)

// DefaultSector is the benchmark used when a sector is requested by this name
// and the configuration does not define it.
const DefaultSector = "default"

// DefaultBenchmark is a broad-market profitability baseline.
var DefaultBenchmark = qvt.SectorBenchmark{Name: DefaultSector, ROEPct: 10, ROAPct: 4}

// Entry describes one ticker.
type Entry struct {
	Symbol string
	Name   string
	Sector string
}

// Table resolves tickers to names and sectors to benchmarks. It is built
// once and never mutated, so it is safe for concurrent use.
type Table struct {
	entries map[string]Entry
	sectors map[string]qvt.SectorBenchmark
}

// New builds a table. Keys are matched case-insensitively.
func New(entries []Entry, sectors []qvt.SectorBenchmark) *Table {
	t := &Table{
		entries: make(map[string]Entry, len(entries)),
		sectors: make(map[string]qvt.SectorBenchmark, len(sectors)+1),
	}
	t.sectors[DefaultSector] = DefaultBenchmark
	for _, s := range sectors {
		t.sectors[key(s.Name)] = s
	}
	for _, e := range entries {
		t.entries[key(e.Symbol)] = e
	}
	return t
}

// FromConfig builds the table from the names and sectors sections.
func FromConfig(cfg *config.Config) *Table {
	entries := make([]Entry, 0, len(cfg.Names))
	for _, n := range cfg.Names {
		entries = append(entries, Entry{Symbol: n.Symbol, Name: n.Name, Sector: n.Sector})
	}
	sectors := make([]qvt.SectorBenchmark, 0, len(cfg.Sectors))
	for _, s := range cfg.Sectors {
		sectors = append(sectors, qvt.SectorBenchmark{Name: s.Name, ROEPct: s.ROEPct, ROAPct: s.ROAPct})
	}
	return New(entries, sectors)
}

// Lookup returns the entry of symbol.
func (t *Table) Lookup(symbol string) (Entry, bool) {
	e, ok := t.entries[key(symbol)]
	return e, ok
}

// Name returns the display name of symbol, or "" when unknown.
func (t *Table) Name(symbol string) string {
	return t.entries[key(symbol)].Name
}

// Sector returns the configured sector of symbol, or "" when unknown.
func (t *Table) Sector(symbol string) string {
	return t.entries[key(symbol)].Sector
}

// Benchmark returns a copy of the benchmark of sector.
func (t *Table) Benchmark(sector string) (*qvt.SectorBenchmark, bool) {
	if strings.TrimSpace(sector) == "" {
		return nil, false
	}
	b, ok := t.sectors[key(sector)]
	if !ok {
		return nil, false
	}
	return &b, true
}

// Sectors returns the known sector names in order.
func (t *Table) Sectors() []string {
	names := make([]string, 0, len(t.sectors))
	for _, s := range t.sectors {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
