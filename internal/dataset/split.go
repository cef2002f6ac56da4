package dataset

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/dwisetya/recase/internal/model"
)

// StratifiedSplit partitions a labeled catalog into train and test
// sets, shuffling within each label group so both sides keep roughly
// the catalog's label proportions. The same seed always produces the
// same split: groups are visited in canonical label order and each
// group gets its own deterministic shuffle.
func StratifiedSplit(catalog []model.Phone, ratio model.SplitRatio, seed int64) (train, test []model.Phone) {
	groups := make(map[string][]model.Phone)
	var extraLabels []string
	for _, p := range catalog {
		if _, seen := groups[p.Label]; !seen && !isCanonicalLabel(p.Label) {
			extraLabels = append(extraLabels, p.Label)
		}
		groups[p.Label] = append(groups[p.Label], p)
	}

	// Canonical labels first, then anything unexpected in first-seen
	// order, so iteration never depends on map ordering.
	order := append(model.Labels(), extraLabels...)

	rng := rand.New(rand.NewSource(seed))
	frac := ratio.TrainFraction()

	for _, label := range order {
		group := groups[label]
		if len(group) == 0 {
			continue
		}
		shuffled := make([]model.Phone, len(group))
		copy(shuffled, group)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		cut := int(float64(len(shuffled)) * frac)
		// Keep at least one case on each side when the group allows it.
		if cut == 0 && len(shuffled) > 1 {
			cut = 1
		}
		if cut == len(shuffled) && len(shuffled) > 1 {
			cut--
		}

		train = append(train, shuffled[:cut]...)
		test = append(test, shuffled[cut:]...)
	}

	return train, test
}

func isCanonicalLabel(label string) bool {
	for _, l := range model.Labels() {
		if l == label {
			return true
		}
	}
	return false
}

// scenarioPath names one side of a prepared split, e.g.
// data/processed/train_70-30.csv.
func scenarioPath(dir, side string, ratio model.SplitRatio) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", side, ratio.Name()))
}

// WriteScenario persists one scenario's train and test files.
func WriteScenario(dir string, ratio model.SplitRatio, train, test []model.Phone) error {
	trainStore := NewCSVStore(scenarioPath(dir, "train", ratio))
	if err := trainStore.WriteAll(train); err != nil {
		return fmt.Errorf("write train split %s: %w", ratio.Name(), err)
	}
	testStore := NewCSVStore(scenarioPath(dir, "test", ratio))
	if err := testStore.WriteAll(test); err != nil {
		return fmt.Errorf("write test split %s: %w", ratio.Name(), err)
	}
	log.Info().
		Str("scenario", ratio.Name()).
		Int("train", len(train)).
		Int("test", len(test)).
		Msg("split written")
	return nil
}

// LoadScenario reads one scenario's train and test files back.
// Missing files surface as ErrDataUnavailable.
func LoadScenario(dir string, ratio model.SplitRatio) (train, test []model.Phone, err error) {
	train, err = NewCSVStore(scenarioPath(dir, "train", ratio)).Load()
	if err != nil {
		return nil, nil, err
	}
	test, err = NewCSVStore(scenarioPath(dir, "test", ratio)).Load()
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
