// Package analysis computes the dashboard aggregates over filtered listings.
package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/rentdash/internal/dataset"
)

// Column selects a numeric listing field.
type Column string

const (
	ColumnArea  Column = "area"
	ColumnRent  Column = "rent"
	ColumnTotal Column = "total"
)

func (c Column) value(l dataset.Listing) float64 {
	switch c {
	case ColumnArea:
		return l.Area
	case ColumnRent:
		return l.Rent
	default:
		return l.Total
	}
}

// Mean returns the arithmetic mean; ok is false for empty input.
// The running update keeps the mean of identical values exact.
func Mean(vals []float64) (mean float64, ok bool) {
	if len(vals) == 0 {
		return 0, false
	}
	for i, v := range vals {
		mean += (v - mean) / float64(i+1)
	}
	return mean, true
}

// Quantile returns the q-quantile of vals using linear interpolation between
// closest ranks. vals need not be sorted; ok is false for empty input.
func Quantile(vals []float64, q float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	return quantile(cp, q), true
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Fences are the Tukey bounds Q1-1.5·IQR and Q3+1.5·IQR.
type Fences struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TukeyFences computes the fences of col over ls; ok is false for empty input.
func TukeyFences(ls []dataset.Listing, col Column) (Fences, bool) {
	if len(ls) == 0 {
		return Fences{}, false
	}
	vals := make([]float64, len(ls))
	for i, l := range ls {
		vals[i] = col.value(l)
	}
	sort.Float64s(vals)
	q1, q3 := quantile(vals, 0.25), quantile(vals, 0.75)
	iqr := q3 - q1
	return Fences{Q1: q1, Q3: q3, Lower: q1 - 1.5*iqr, Upper: q3 + 1.5*iqr}, true
}

// RemoveOutliers keeps listings whose col value lies within the Tukey fences,
// inclusive, preserving order. A single pass; the fences are not recomputed.
func RemoveOutliers(ls []dataset.Listing, col Column) []dataset.Listing {
	f, ok := TukeyFences(ls, col)
	out := make([]dataset.Listing, 0, len(ls))
	if !ok {
		return out
	}
	for _, l := range ls {
		v := col.value(l)
		if v >= f.Lower && v <= f.Upper {
			out = append(out, l)
		}
	}
	return out
}
