package eval

import (
	"math"

	"github.com/dwisetya/recase/internal/model"
)

// Confusion counts predictions over the canonical label set.
// Matrix[i][j] counts test cases with true label i predicted as j;
// labels outside the canonical set are ignored.
func Confusion(trueLabels, predLabels []string) model.ConfusionMatrix {
	labels := model.Labels()
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	matrix := make([][]int, len(labels))
	for i := range matrix {
		matrix[i] = make([]int, len(labels))
	}

	correct, wrong := 0, 0
	for i := range trueLabels {
		ti, ok := index[trueLabels[i]]
		if !ok {
			continue
		}
		pi, ok := index[predLabels[i]]
		if !ok {
			continue
		}
		matrix[ti][pi]++
		if ti == pi {
			correct++
		} else {
			wrong++
		}
	}

	return model.ConfusionMatrix{
		Matrix:        matrix,
		Labels:        labels,
		Correct:       correct,
		Misclassified: wrong,
	}
}

// Accuracy is the fraction of exact label matches.
func Accuracy(trueLabels, predLabels []string) float64 {
	if len(trueLabels) == 0 {
		return 0
	}
	correct := 0
	for i := range trueLabels {
		if trueLabels[i] == predLabels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(trueLabels))
}

// WeightedScores computes precision, recall, and F1 averaged over the
// canonical labels, each label weighted by its true-case count. A
// label with a zero denominator contributes zero, it never poisons
// the average.
func WeightedScores(trueLabels, predLabels []string) (precision, recall, f1 float64) {
	total := 0
	for _, label := range model.Labels() {
		var tp, fp, fn int
		for i := range trueLabels {
			switch {
			case trueLabels[i] == label && predLabels[i] == label:
				tp++
			case trueLabels[i] != label && predLabels[i] == label:
				fp++
			case trueLabels[i] == label && predLabels[i] != label:
				fn++
			}
		}

		support := tp + fn
		if support == 0 {
			continue
		}
		total += support

		var p, r float64
		if tp+fp > 0 {
			p = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			r = float64(tp) / float64(tp+fn)
		}
		var f float64
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}

		w := float64(support)
		precision += p * w
		recall += r * w
		f1 += f * w
	}

	if total == 0 {
		return 0, 0, 0
	}
	n := float64(total)
	return precision / n, recall / n, f1 / n
}

// BuildMetrics assembles the rounded metric bundle for one scenario.
func BuildMetrics(trueLabels, predLabels []string) model.Metrics {
	acc := Accuracy(trueLabels, predLabels)
	p, r, f := WeightedScores(trueLabels, predLabels)
	return model.Metrics{
		Accuracy:     round4(acc),
		Precision:    round4(p),
		Recall:       round4(r),
		F1:           round4(f),
		AccuracyPct:  round2(acc * 100),
		PrecisionPct: round2(p * 100),
		RecallPct:    round2(r * 100),
		F1Pct:        round2(f * 100),
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
