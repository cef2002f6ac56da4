package dataset

import (
	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/preprocess"
)

// Labeling thresholds. A phone is high-performance when it stacks
// enough performance signals, camera-focused when the camera signals
// dominate instead, everyday-use otherwise.
const (
	perfRAMMin     = 8
	perfBatteryMin = 5000
	perfStorageMin = 256
	perfPriceMin   = 7_000_000
	perfScoreMin   = 4

	camMPHigh    = 64
	camMPMid     = 48
	camRatingMin = 4.3
	camPriceMin  = 5_000_000
	camScoreMin  = 3
)

// AssignLabel categorizes one phone. The performance check wins over
// the camera check when both trip.
func AssignLabel(p model.Phone) string {
	perf := 0
	if p.RAM >= perfRAMMin {
		perf += 2
	}
	if p.Battery >= perfBatteryMin {
		perf++
	}
	if p.Storage >= perfStorageMin {
		perf++
	}
	if p.Price >= perfPriceMin {
		perf++
	}
	if perf >= perfScoreMin {
		return model.LabelHighPerformance
	}

	mp := p.CameraMP
	if mp == 0 {
		mp = float64(preprocess.ParseCameraResolution(p.CameraLabel))
	}
	cam := 0
	switch {
	case mp >= camMPHigh:
		cam += 2
	case mp >= camMPMid:
		cam++
	}
	if p.Rating >= camRatingMin {
		cam++
	}
	if p.Price >= camPriceMin {
		cam++
	}
	if cam >= camScoreMin {
		return model.LabelCameraFocused
	}

	return model.LabelEverydayUse
}

// ApplyLabels labels a copy of the catalog, keeping labels already
// present (a retained case may carry a human-confirmed label).
func ApplyLabels(catalog []model.Phone) []model.Phone {
	out := make([]model.Phone, len(catalog))
	copy(out, catalog)
	for i := range out {
		if out[i].Label == "" {
			out[i].Label = AssignLabel(out[i])
		}
	}
	return out
}
