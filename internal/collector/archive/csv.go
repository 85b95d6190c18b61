package archive

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
)

const dateLayout = "2006-01-02"

// header is the column layout written by Encode.
var header = []string{"date", "open", "high", "low", "close", "volume", "dividends"}

// columns maps the recognised fields of a CSV header to their index; -1 when absent.
type columns struct {
	date, open, high, low, close, volume, dividends int
}

func locate(head []string) (columns, error) {
	c := columns{-1, -1, -1, -1, -1, -1, -1}
	closeFallback := -1
	for i, raw := range head {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "date", "time", "timestamp":
			c.date = i
		case "open":
			c.open = i
		case "high":
			c.high = i
		case "low":
			c.low = i
		case "close":
			c.close = i
		case "volume":
			c.volume = i
		case "dividends", "dividend":
			c.dividends = i
		default:
			// "Adj Close", "Close_AAPL" and similar
			if closeFallback < 0 && strings.Contains(name, "close") {
				closeFallback = i
			}
		}
	}
	if c.close < 0 {
		c.close = closeFallback
	}
	if c.close < 0 {
		return c, core.WrapError(core.ErrMissingClose, fmt.Errorf("header %v", head))
	}
	if c.date < 0 {
		return c, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("no date column in header %v", head))
	}
	return c, nil
}

// Decode parses a daily price CSV. Columns are identified by header name,
// case-insensitively. Empty or unparsable price cells leave the field at
// zero, so a row without a close is kept but carries no usable close.
func Decode(symbol string, r io.Reader) (*collector.History, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err == io.EOF {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("empty csv for %s", symbol))
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := locate(head)
	if err != nil {
		return nil, err
	}

	h := &collector.History{Symbol: symbol}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		ts, err := parseDate(cell(rec, cols.date))
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("line %d: %w", line, err))
		}

		bar := core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Time:     ts,
			Open:     number(cell(rec, cols.open)),
			High:     number(cell(rec, cols.high)),
			Low:      number(cell(rec, cols.low)),
			Close:    number(cell(rec, cols.close)),
			Volume:   int64(number(cell(rec, cols.volume))),
		}
		h.Bars = append(h.Bars, bar)

		if d := number(cell(rec, cols.dividends)); d > 0 {
			h.Dividends = append(h.Dividends, core.Dividend{Amount: d, Time: ts})
		}
	}

	if len(h.Bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("csv for %s has no rows", symbol))
	}
	return h, nil
}

// Encode writes h in the layout Decode reads, one row per bar in time order.
// Dividends are written on the row of the bar sharing their date; a dividend
// without a matching bar is dropped.
func Encode(h *collector.History) ([]byte, error) {
	bars := make([]core.OHLCV, len(h.Bars))
	copy(bars, h.Bars)
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	paid := make(map[string]float64, len(h.Dividends))
	for _, d := range h.Dividends {
		paid[d.Time.UTC().Format(dateLayout)] += d.Amount
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, b := range bars {
		day := b.Time.UTC().Format(dateLayout)
		row := []string{
			day,
			format(b.Open),
			format(b.High),
			format(b.Low),
			format(b.Close),
			strconv.FormatInt(b.Volume, 10),
			format(paid[day]),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func number(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func format(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var dateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006/01/02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
