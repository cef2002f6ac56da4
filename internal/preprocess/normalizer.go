// Package preprocess prepares a phone catalog for similarity
// computation: it fills missing values, derives the numeric camera
// feature from free text, and min-max normalizes every canonical
// attribute.
package preprocess

import (
	"errors"
	"math"
	"sort"

	"github.com/dwisetya/recase/internal/model"
)

// ErrUnfitted is returned when a normalization operation runs before Fit.
var ErrUnfitted = errors.New("normalizer not fitted: call Fit first")

// Params are the fitted per-attribute min/max statistics.
type Params struct {
	Min map[model.Attribute]float64 `json:"min"`
	Max map[model.Attribute]float64 `json:"max"`
}

// Normalizer maps raw attribute values into [0,1] and back using
// min-max statistics fitted over a catalog snapshot. Fit is pure and
// idempotent given the same catalog.
type Normalizer struct {
	min    map[model.Attribute]float64
	max    map[model.Attribute]float64
	fitted bool
}

// NewNormalizer creates an unfitted normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		min: make(map[model.Attribute]float64),
		max: make(map[model.Attribute]float64),
	}
}

// Fit computes per-attribute min/max over the imputed, camera-derived
// catalog and returns that prepared copy.
func (n *Normalizer) Fit(catalog []model.Phone) []model.Phone {
	prepared := Prepare(catalog)

	for _, attr := range model.Attributes() {
		if len(prepared) == 0 {
			n.min[attr], n.max[attr] = 0, 0
			continue
		}
		lo, hi := prepared[0].Attr(attr), prepared[0].Attr(attr)
		for _, p := range prepared[1:] {
			v := p.Attr(attr)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		n.min[attr], n.max[attr] = lo, hi
	}

	n.fitted = true
	return prepared
}

// Fitted reports whether Fit has run.
func (n *Normalizer) Fitted() bool {
	return n.fitted
}

// Params returns a copy of the fitted statistics.
func (n *Normalizer) Params() (Params, error) {
	if !n.fitted {
		return Params{}, ErrUnfitted
	}
	p := Params{
		Min: make(map[model.Attribute]float64, len(n.min)),
		Max: make(map[model.Attribute]float64, len(n.max)),
	}
	for k, v := range n.min {
		p.Min[k] = v
	}
	for k, v := range n.max {
		p.Max[k] = v
	}
	return p, nil
}

// Transform imputes and normalizes a catalog against the fitted
// statistics, producing one feature vector per case.
//
// Values are deliberately not clamped here: transforming the catalog
// the normalizer was fitted on lands in [0,1] by construction, and
// transforming a different set (an evaluation test split) must keep
// out-of-range extremes intact.
func (n *Normalizer) Transform(catalog []model.Phone) ([]model.Features, error) {
	if !n.fitted {
		return nil, ErrUnfitted
	}

	prepared := Prepare(catalog)
	features := make([]model.Features, len(prepared))
	for i, p := range prepared {
		f := make(model.Features, len(n.min))
		for _, attr := range model.Attributes() {
			lo, hi := n.min[attr], n.max[attr]
			if hi-lo == 0 {
				f[attr] = 0
				continue
			}
			f[attr] = (p.Attr(attr) - lo) / (hi - lo)
		}
		features[i] = f
	}
	return features, nil
}

// NormalizeValue maps a single raw value into [0,1] using the fitted
// statistics. The result is clamped; an attribute without fitted
// statistics passes through unchanged.
func (n *Normalizer) NormalizeValue(v float64, attr model.Attribute) (float64, error) {
	if !n.fitted {
		return 0, ErrUnfitted
	}
	lo, ok := n.min[attr]
	if !ok {
		return v, nil
	}
	hi := n.max[attr]
	if hi-lo == 0 {
		return 0, nil
	}
	normalized := (v - lo) / (hi - lo)
	return clamp01(normalized), nil
}

// DenormalizeValue maps a normalized value back to the raw scale. An
// attribute without fitted statistics passes through unchanged.
func (n *Normalizer) DenormalizeValue(v float64, attr model.Attribute) (float64, error) {
	if !n.fitted {
		return 0, ErrUnfitted
	}
	lo, ok := n.min[attr]
	if !ok {
		return v, nil
	}
	hi := n.max[attr]
	return v*(hi-lo) + lo, nil
}

// Prepare returns a copy of the catalog with missing values imputed
// and the numeric camera feature derived from the free-text label.
func Prepare(catalog []model.Phone) []model.Phone {
	prepared := Impute(catalog)
	for i := range prepared {
		prepared[i].CameraMP = float64(ParseCameraResolution(prepared[i].CameraLabel))
	}
	return prepared
}

// Impute fills missing values in a copy of the catalog: numeric gaps
// (NaN) take the column median, brand and OS gaps the column mode,
// free-text gaps the sentinel "Unknown". Stock availability defaults
// at load time, before imputation.
func Impute(catalog []model.Phone) []model.Phone {
	out := make([]model.Phone, len(catalog))
	copy(out, catalog)

	numeric := []model.Attribute{
		model.AttrPrice, model.AttrRAM, model.AttrStorage,
		model.AttrScreen, model.AttrBattery, model.AttrRating,
	}
	for _, attr := range numeric {
		med := columnMedian(out, attr)
		for i := range out {
			if math.IsNaN(out[i].Attr(attr)) {
				out[i].SetAttr(attr, med)
			}
		}
	}

	brandMode := columnMode(out, func(p model.Phone) string { return p.Brand })
	osMode := columnMode(out, func(p model.Phone) string { return p.OS })
	for i := range out {
		if out[i].Brand == "" {
			out[i].Brand = brandMode
		}
		if out[i].OS == "" {
			out[i].OS = osMode
		}
		if out[i].Name == "" {
			out[i].Name = "Unknown"
		}
		if out[i].CameraLabel == "" {
			out[i].CameraLabel = "Unknown"
		}
	}

	return out
}

// columnMedian computes the median of the non-missing values of one
// attribute; 0 when every value is missing.
func columnMedian(catalog []model.Phone, attr model.Attribute) float64 {
	values := make([]float64, 0, len(catalog))
	for _, p := range catalog {
		if v := p.Attr(attr); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}

// columnMode returns the most frequent non-empty value; ties keep the
// value seen first in catalog order. "Unknown" when every value is empty.
func columnMode(catalog []model.Phone, get func(model.Phone) string) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, p := range catalog {
		v := get(p)
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	mode, best := "Unknown", 0
	for _, v := range order {
		if counts[v] > best {
			mode, best = v, counts[v]
		}
	}
	return mode
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
