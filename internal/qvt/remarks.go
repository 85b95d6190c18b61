package qvt

import (
	"fmt"

	"github.com/newthinker/checksignal/internal/fundamental"
)

// Remark is a short valuation comment on one ratio.
type Remark struct {
	Metric string `json:"metric"`
	Text   string `json:"text"`
}

// Remarks comments on the ratios that sit outside their usual range.
func Remarks(f fundamental.Snapshot) []Remark {
	var out []Remark
	if per, ok := fundamental.Value(f.PER); ok && per > 0 {
		switch {
		case per < 12:
			out = append(out, Remark{"per", fmt.Sprintf("PER %.1f looks cheap", per)})
		case per > 30:
			out = append(out, Remark{"per", fmt.Sprintf("PER %.1f looks expensive", per)})
		}
	}
	if pbr, ok := fundamental.Value(f.PBR); ok && pbr > 0 {
		switch {
		case pbr < 1:
			out = append(out, Remark{"pbr", fmt.Sprintf("PBR %.2f trades below book value", pbr)})
		case pbr > 3:
			out = append(out, Remark{"pbr", fmt.Sprintf("PBR %.2f looks expensive", pbr)})
		}
	}
	if y, ok := fundamental.Value(f.DividendYieldPct); ok && y >= 3 {
		out = append(out, Remark{"dividend_yield", fmt.Sprintf("dividend yield %.2f%% is high", y)})
	}
	return out
}
