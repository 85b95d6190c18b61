package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
)

// File implements collector.Collector over one local CSV file. The whole
// file is served whatever range is requested, so older exports still score.
type File struct {
	path string
}

// NewFile creates a collector reading the CSV at path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string {
	return "csv"
}

func (f *File) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketUS, core.MarketJP, core.MarketHK, core.MarketEU}
}

func (f *File) Init(cfg collector.Config) error {
	if f.path == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("csv path required"))
	}
	return nil
}

func (f *File) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*collector.History, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.WrapError(core.ErrNoData, err)
		}
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	defer file.Close()

	return Decode(strings.ToUpper(strings.TrimSpace(symbol)), file)
}
