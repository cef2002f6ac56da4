package model

import "strings"

// Attribute identifies one canonical numeric feature used for similarity.
type Attribute string

const (
	AttrPrice   Attribute = "price"       // retail price
	AttrRAM     Attribute = "ram"         // GB
	AttrStorage Attribute = "storage"     // internal storage, GB
	AttrScreen  Attribute = "screen_size" // inches
	AttrBattery Attribute = "battery"     // mAh
	AttrRating  Attribute = "rating"      // user rating, 0-5
	AttrCamera  Attribute = "camera_mp"   // megapixels, derived from the camera label
)

// Attributes returns the canonical attribute set in its fixed order.
// Every feature vector, weight table, and contribution breakdown
// iterates in this order.
func Attributes() []Attribute {
	return []Attribute{
		AttrPrice,
		AttrRAM,
		AttrStorage,
		AttrScreen,
		AttrBattery,
		AttrRating,
		AttrCamera,
	}
}

// IsCanonical reports whether a is one of the seven canonical attributes.
func IsCanonical(a Attribute) bool {
	switch a {
	case AttrPrice, AttrRAM, AttrStorage, AttrScreen, AttrBattery, AttrRating, AttrCamera:
		return true
	}
	return false
}

// fieldAliases maps user-facing field names to canonical attributes.
// Unknown names are rejected by ResolveField rather than silently
// dropped, so a typo in a query surfaces as an error.
var fieldAliases = map[string]Attribute{
	"price":             AttrPrice,
	"max_price":         AttrPrice,
	"min_price":         AttrPrice,
	"budget":            AttrPrice,
	"ram":               AttrRAM,
	"memory":            AttrRAM,
	"storage":           AttrStorage,
	"internal_storage":  AttrStorage,
	"rom":               AttrStorage,
	"screen":            AttrScreen,
	"screen_size":       AttrScreen,
	"display":           AttrScreen,
	"battery":           AttrBattery,
	"min_battery":       AttrBattery,
	"battery_capacity":  AttrBattery,
	"rating":            AttrRating,
	"min_rating":        AttrRating,
	"user_rating":       AttrRating,
	"camera":            AttrCamera,
	"camera_mp":         AttrCamera,
	"camera_resolution": AttrCamera,
}

// ResolveField maps a user-facing field name to its canonical attribute.
func ResolveField(name string) (Attribute, bool) {
	attr, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	return attr, ok
}

// Features is a sparse feature vector keyed by canonical attribute.
// Values are normalized to the fitted min-max range; a query vector
// only carries the attributes the caller actually specified.
type Features map[Attribute]float64

// Clone returns an independent copy of the feature vector.
func (f Features) Clone() Features {
	out := make(Features, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Weights maps attributes to percentage weights. A valid weight table
// totals 100 within a ±1 tolerance.
type Weights map[Attribute]float64

// Clone returns an independent copy of the weight table.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Total returns the percentage sum of the weight table.
func (w Weights) Total() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}
