package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Query is the sparse set of preferences a caller wants matched.
// Zero values mean "not specified"; every numeric preference in the
// domain is strictly positive when set.
type Query struct {
	MinPrice        float64  `json:"min_price,omitempty"`
	MaxPrice        float64  `json:"max_price,omitempty"`
	RAM             float64  `json:"ram,omitempty"`
	Storage         float64  `json:"storage,omitempty"`
	ScreenSize      float64  `json:"screen_size,omitempty"`
	MinBattery      float64  `json:"min_battery,omitempty"`
	MinRating       float64  `json:"min_rating,omitempty"`
	Camera          string   `json:"camera,omitempty"` // free text, e.g. "48MP"
	PreferredBrands []string `json:"preferred_brands,omitempty"`
	PreferredOS     string   `json:"preferred_os,omitempty"`
	OnlyInStock     bool     `json:"only_in_stock,omitempty"`
}

// Fields flattens the numeric preferences into the retrieval field map.
// A budget range targets its midpoint; a bare maximum targets the
// maximum itself.
func (q Query) Fields() map[string]any {
	fields := make(map[string]any)

	switch {
	case q.MinPrice > 0 && q.MaxPrice > 0:
		fields["price"] = (q.MinPrice + q.MaxPrice) / 2
	case q.MaxPrice > 0:
		fields["price"] = q.MaxPrice
	}
	if q.RAM > 0 {
		fields["ram"] = q.RAM
	}
	if q.Storage > 0 {
		fields["storage"] = q.Storage
	}
	if q.ScreenSize > 0 {
		fields["screen_size"] = q.ScreenSize
	}
	if q.MinBattery > 0 {
		fields["min_battery"] = q.MinBattery
	}
	if q.MinRating > 0 {
		fields["min_rating"] = q.MinRating
	}
	if q.Camera != "" {
		fields["camera"] = q.Camera
	}

	return fields
}

// Filters are the revise-phase adjustments carried by a query.
type Filters struct {
	PreferredBrands []string
	PreferredOS     string
	OnlyInStock     bool
}

// Filters extracts the revise-phase filters from the query.
func (q Query) Filters() Filters {
	return Filters{
		PreferredBrands: q.PreferredBrands,
		PreferredOS:     q.PreferredOS,
		OnlyInStock:     q.OnlyInStock,
	}
}

// Summary renders the query as human-readable strings for the response.
func (q Query) Summary() map[string]string {
	summary := make(map[string]string)

	if q.MinPrice > 0 || q.MaxPrice > 0 {
		summary["budget"] = fmt.Sprintf("%s - %s", GroupDigits(q.MinPrice), GroupDigits(q.MaxPrice))
	}
	if q.RAM > 0 {
		summary["ram"] = fmt.Sprintf("%g GB", q.RAM)
	}
	if q.Storage > 0 {
		summary["storage"] = fmt.Sprintf("%g GB", q.Storage)
	}
	if q.ScreenSize > 0 {
		summary["screen"] = fmt.Sprintf("%g inch", q.ScreenSize)
	}
	if q.MinBattery > 0 {
		summary["battery"] = fmt.Sprintf("Min %s mAh", GroupDigits(q.MinBattery))
	}
	if q.MinRating > 0 {
		summary["rating"] = fmt.Sprintf("Min %g", q.MinRating)
	}
	if q.Camera != "" {
		summary["camera"] = q.Camera
	}
	if len(q.PreferredBrands) > 0 {
		summary["brands"] = strings.Join(q.PreferredBrands, ", ")
	}
	if q.PreferredOS != "" {
		summary["os"] = q.PreferredOS
	}

	return summary
}

// GroupDigits formats a non-negative value as an integer with thousands
// separators, e.g. 5000000 -> "5,000,000".
func GroupDigits(v float64) string {
	s := strconv.FormatInt(int64(v), 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
