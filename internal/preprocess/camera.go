package preprocess

import (
	"regexp"
	"strconv"
)

// megapixelRe matches the first megapixel figure in a free-text camera
// label, e.g. "108MP", "48 MP triple", "Dual 12mp".
var megapixelRe = regexp.MustCompile(`(?i)(\d+)\s*MP`)

// DefaultCameraMP is the fallback resolution when the label carries no
// parseable megapixel figure.
const DefaultCameraMP = 12

// ParseCameraResolution extracts the megapixel count from a camera
// label. It is total: any unparseable input, including "Unknown" and
// the empty string, yields DefaultCameraMP.
func ParseCameraResolution(label string) int {
	m := megapixelRe.FindStringSubmatch(label)
	if m == nil {
		return DefaultCameraMP
	}
	mp, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultCameraMP
	}
	return mp
}
