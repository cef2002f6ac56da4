package cbr

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/preprocess"
)

// Revise-phase boosts. Both can stack on one case.
const (
	brandBoost = 1.10
	osBoost    = 1.05
)

// reuse turns raw retrieval hits into ranked recommendations with
// per-preference explanations and match highlights.
func (snap *snapshot) reuse(hits []Retrieved, q model.Query) []model.Recommendation {
	recs := make([]model.Recommendation, len(hits))
	for i, hit := range hits {
		recs[i] = model.Recommendation{
			Rank:         i + 1,
			Phone:        hit.Phone,
			Similarity:   hit.Similarity,
			Percentage:   hit.Similarity * 100,
			Explanations: buildExplanations(hit.Phone, q, snap.calc.Weights()),
			Highlights:   buildHighlights(hit.Phone, q),
		}
	}
	return recs
}

// matchScore compares two raw values on a relative scale: 1 for equal,
// decaying with the relative difference. When either side is zero the
// comparison is meaningless and scores a neutral 0.5.
func matchScore(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0.5
	}
	max := a
	if b > max {
		max = b
	}
	score := 1 - (math.Abs(a-b) / max)
	if score < 0 {
		return 0
	}
	return score
}

// buildExplanations covers exactly the preferences the caller stated,
// comparing raw values so the numbers read naturally.
func buildExplanations(p model.Phone, q model.Query, weights model.Weights) []model.Explanation {
	var out []model.Explanation

	add := func(attr model.Attribute, label, userValue, phoneValue string, score float64) {
		out = append(out, model.Explanation{
			Attribute:    label,
			UserValue:    userValue,
			PhoneValue:   phoneValue,
			MatchScore:   round2(score),
			Contribution: round2(score * weights[attr]),
		})
	}

	if q.MaxPrice > 0 {
		target := q.MaxPrice
		if q.MinPrice > 0 {
			target = (q.MinPrice + q.MaxPrice) / 2
		}
		add(model.AttrPrice, "price",
			model.GroupDigits(target),
			model.GroupDigits(p.Price),
			matchScore(target, p.Price))
	}
	if q.RAM > 0 {
		add(model.AttrRAM, "ram",
			fmt.Sprintf("%g GB", q.RAM),
			fmt.Sprintf("%g GB", p.RAM),
			matchScore(q.RAM, p.RAM))
	}
	if q.Storage > 0 {
		add(model.AttrStorage, "storage",
			fmt.Sprintf("%g GB", q.Storage),
			fmt.Sprintf("%g GB", p.Storage),
			matchScore(q.Storage, p.Storage))
	}
	if q.ScreenSize > 0 {
		add(model.AttrScreen, "screen_size",
			fmt.Sprintf("%g inch", q.ScreenSize),
			fmt.Sprintf("%g inch", p.ScreenSize),
			matchScore(q.ScreenSize, p.ScreenSize))
	}
	if q.MinBattery > 0 {
		add(model.AttrBattery, "battery",
			fmt.Sprintf("%s mAh", model.GroupDigits(q.MinBattery)),
			fmt.Sprintf("%s mAh", model.GroupDigits(p.Battery)),
			matchScore(q.MinBattery, p.Battery))
	}
	if q.MinRating > 0 {
		add(model.AttrRating, "rating",
			fmt.Sprintf("%g", q.MinRating),
			fmt.Sprintf("%g", p.Rating),
			matchScore(q.MinRating, p.Rating))
	}
	if q.Camera != "" {
		wantMP := float64(preprocess.ParseCameraResolution(q.Camera))
		haveMP := p.CameraMP
		if haveMP == 0 {
			haveMP = float64(preprocess.ParseCameraResolution(p.CameraLabel))
		}
		add(model.AttrCamera, "camera",
			q.Camera,
			p.CameraLabel,
			matchScore(wantMP, haveMP))
	}

	return out
}

// buildHighlights lists the preferences this phone satisfies, plus two
// standalone callouts for standout rating and battery.
func buildHighlights(p model.Phone, q model.Query) []string {
	var out []string

	if q.MaxPrice > 0 && p.Price <= q.MaxPrice && (q.MinPrice == 0 || p.Price >= q.MinPrice) {
		out = append(out, "✓ Within budget")
	}
	if q.RAM > 0 && p.RAM >= q.RAM {
		out = append(out, fmt.Sprintf("✓ Meets RAM requirement (%g GB)", p.RAM))
	}
	if q.MinBattery > 0 && p.Battery >= q.MinBattery {
		out = append(out, fmt.Sprintf("✓ Battery capacity %s mAh", model.GroupDigits(p.Battery)))
	}
	if q.MinRating > 0 && p.Rating >= q.MinRating {
		out = append(out, fmt.Sprintf("✓ Rated %g or better", p.Rating))
	}
	for _, brand := range q.PreferredBrands {
		if strings.EqualFold(brand, p.Brand) {
			out = append(out, fmt.Sprintf("✓ Preferred brand (%s)", p.Brand))
			break
		}
	}
	if q.PreferredOS != "" && strings.EqualFold(q.PreferredOS, p.OS) {
		out = append(out, fmt.Sprintf("✓ Runs %s", p.OS))
	}

	if p.Rating >= 4.5 {
		out = append(out, fmt.Sprintf("⭐ Highly rated (%g)", p.Rating))
	}
	if p.Battery >= 5000 {
		out = append(out, "🔋 Long battery life")
	}

	return out
}

// Revise adjusts a ranked recommendation list against the caller's
// preference filters and re-ranks. It is pure: inputs are not mutated.
// Brand and OS boosts stack multiplicatively; the reported percentage
// is capped at 100 even when the boosted score exceeds 1.
func Revise(recs []model.Recommendation, filters model.Filters) []model.Recommendation {
	out := make([]model.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if filters.OnlyInStock && !rec.Phone.InStock {
			continue
		}

		boosted := rec.Similarity
		for _, brand := range filters.PreferredBrands {
			if strings.EqualFold(brand, rec.Phone.Brand) {
				boosted *= brandBoost
				break
			}
		}
		if filters.PreferredOS != "" && strings.EqualFold(filters.PreferredOS, rec.Phone.OS) {
			boosted *= osBoost
		}

		rec.Similarity = boosted
		rec.Percentage = boosted * 100
		if rec.Percentage > 100 {
			rec.Percentage = 100
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
