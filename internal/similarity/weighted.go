// Package similarity implements the weighted Euclidean similarity
// measure over normalized feature vectors.
package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/dwisetya/recase/internal/model"
)

// defaultCaseValue stands in for a case attribute missing from its
// feature vector. The query side has no default: an attribute the
// caller never specified is skipped entirely.
const defaultCaseValue = 0.5

// Match quality tier boundaries on attribute similarity.
const (
	tierExcellent = 0.9
	tierGood      = 0.7
	tierFair      = 0.5
	tierWeak      = 0.3
)

// Calculator computes weighted Euclidean distances and similarities.
// A calculator is immutable after construction; changing weights means
// building a new one, which keeps concurrent scans race-free.
type Calculator struct {
	weights   model.Weights // percent, as configured
	fractions model.Weights // weights / total, used in distance terms
}

// NewCalculator validates a percentage weight table and builds a
// calculator from it. Zero weights are floored at 0.01 before the sum
// check; a table whose attributes are not canonical or whose floored
// sum falls outside [99,101] is rejected.
func NewCalculator(weights model.Weights) (*Calculator, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("empty weight table")
	}

	floored := make(model.Weights, len(weights))
	for attr, w := range weights {
		if !model.IsCanonical(attr) {
			return nil, fmt.Errorf("unknown attribute %q in weight table", attr)
		}
		if w < 0 {
			return nil, fmt.Errorf("negative weight %.2f for %q", w, attr)
		}
		if w == 0 {
			w = 0.01
		}
		floored[attr] = w
	}

	total := floored.Total()
	if total < 99 || total > 101 {
		return nil, fmt.Errorf("weights must total 100%% (±1), got %.2f", total)
	}

	fractions := make(model.Weights, len(floored))
	for attr, w := range floored {
		fractions[attr] = w / total
	}

	return &Calculator{weights: floored, fractions: fractions}, nil
}

// Weights returns a copy of the validated percentage weight table.
func (c *Calculator) Weights() model.Weights {
	return c.weights.Clone()
}

// Distance computes the weighted Euclidean distance between a query
// vector and a case vector. Attributes absent from the query contribute
// nothing; attributes absent from the case side default to 0.5.
func (c *Calculator) Distance(query, candidate model.Features) float64 {
	sum := 0.0
	for attr, frac := range c.fractions {
		q, ok := query[attr]
		if !ok {
			continue
		}
		cv, ok := candidate[attr]
		if !ok {
			cv = defaultCaseValue
		}
		d := q - cv
		sum += frac * d * d
	}
	return math.Sqrt(sum)
}

// Similarity maps distance into (0,1]: identical vectors score 1,
// similarity decays as 1/(1+d).
func (c *Calculator) Similarity(query, candidate model.Features) float64 {
	return 1.0 / (1.0 + c.Distance(query, candidate))
}

// Contributions decomposes a similarity score into per-attribute
// shares over every weighted attribute, in canonical order. Both sides
// default to 0.5 here so the breakdown always covers the full weight
// table; attribute similarity is the linear 1-|q-c|.
func (c *Calculator) Contributions(query, candidate model.Features) []model.AttributeContribution {
	out := make([]model.AttributeContribution, 0, len(c.weights))
	for _, attr := range model.Attributes() {
		pct, ok := c.weights[attr]
		if !ok {
			continue
		}
		q, ok := query[attr]
		if !ok {
			q = defaultCaseValue
		}
		cv, ok := candidate[attr]
		if !ok {
			cv = defaultCaseValue
		}
		diff := math.Abs(q - cv)
		sim := 1.0 - diff
		if sim < 0 {
			sim = 0
		}
		out = append(out, model.AttributeContribution{
			Attribute:     attr,
			QueryValue:    q,
			CaseValue:     cv,
			Difference:    diff,
			Similarity:    sim,
			WeightPercent: pct,
			Contribution:  c.fractions[attr] * sim * 100,
			MatchQuality:  MatchQuality(sim),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Contribution > out[j].Contribution
	})
	return out
}

// MatchQuality labels an attribute similarity score by tier.
func MatchQuality(sim float64) string {
	switch {
	case sim >= tierExcellent:
		return "excellent"
	case sim >= tierGood:
		return "good"
	case sim >= tierFair:
		return "fair"
	case sim >= tierWeak:
		return "weak"
	}
	return "poor"
}
