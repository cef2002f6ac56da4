// Package dataset owns the phone catalog on disk: the CSV case base,
// the automatic category labeler, and the stratified train/test splits
// used for evaluation.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dwisetya/recase/internal/model"
)

// ErrDataUnavailable is returned when a required dataset file is
// missing, typically because the prepare step has not run yet.
var ErrDataUnavailable = errors.New("dataset unavailable: run prepare first")

// Store loads and extends the case base.
type Store interface {
	Load() ([]model.Phone, error)
	Append(p model.Phone) error
}

// csvHeader is the canonical column order of the catalog file.
var csvHeader = []string{
	"id", "name", "brand", "os",
	"price", "ram_gb", "storage_gb", "screen_inches", "battery_mah",
	"rating", "camera", "in_stock", "label",
}

// CSVStore reads and writes the catalog as a flat CSV file. Appends
// rewrite the whole file through a temp file plus rename so a crash
// never leaves a half-written catalog behind.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store for the catalog at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the catalog file location.
func (s *CSVStore) Path() string {
	return s.path
}

// Load reads the whole catalog. Missing numeric cells come back as
// NaN so imputation can tell "absent" from zero; a missing in_stock
// cell defaults to true.
func (s *CSVStore) Load() ([]model.Phone, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, s.path)
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	return readCatalog(f)
}

// Append validates nothing itself; it adds one case and rewrites the
// catalog. The engine is responsible for field validation and ID
// assignment before calling.
func (s *CSVStore) Append(p model.Phone) error {
	catalog, err := s.Load()
	if err != nil && !errors.Is(err, ErrDataUnavailable) {
		return err
	}
	catalog = append(catalog, p)

	if err := s.writeAll(catalog); err != nil {
		return err
	}
	log.Debug().Int("id", p.ID).Str("name", p.Name).Msg("case appended to catalog")
	return nil
}

// WriteAll replaces the catalog wholesale.
func (s *CSVStore) WriteAll(catalog []model.Phone) error {
	return s.writeAll(catalog)
}

func (s *CSVStore) writeAll(catalog []model.Phone) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.csv")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := writeCatalog(tmp, catalog); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp catalog: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}

func readCatalog(r io.Reader) ([]model.Phone, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "brand", "price"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("catalog missing required column %q", required)
		}
	}

	var catalog []model.Phone
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read catalog line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		p := model.Phone{
			ID:          parseInt(get("id"), 0),
			Name:        get("name"),
			Brand:       get("brand"),
			OS:          get("os"),
			Price:       parseFloat(get("price")),
			RAM:         parseFloat(get("ram_gb")),
			Storage:     parseFloat(get("storage_gb")),
			ScreenSize:  parseFloat(get("screen_inches")),
			Battery:     parseFloat(get("battery_mah")),
			Rating:      parseFloat(get("rating")),
			CameraLabel: get("camera"),
			InStock:     parseBool(get("in_stock"), true),
			Label:       get("label"),
		}
		catalog = append(catalog, p)
	}

	return catalog, nil
}

func writeCatalog(w io.Writer, catalog []model.Phone) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write catalog header: %w", err)
	}
	for _, p := range catalog {
		record := []string{
			strconv.Itoa(p.ID),
			p.Name,
			p.Brand,
			p.OS,
			formatFloat(p.Price),
			formatFloat(p.RAM),
			formatFloat(p.Storage),
			formatFloat(p.ScreenSize),
			formatFloat(p.Battery),
			formatFloat(p.Rating),
			p.CameraLabel,
			strconv.FormatBool(p.InStock),
			p.Label,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write catalog row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// parseFloat maps an empty or malformed cell to NaN, the missing-value
// sentinel the imputer looks for.
func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(s string, fallback bool) bool {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return fallback
	}
	return v
}

// formatFloat renders a numeric cell, mapping NaN back to empty.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Stats summarizes a catalog for the prepare report.
type Stats struct {
	Total       int            `json:"total_cases"`
	ByLabel     map[string]int `json:"by_label"`
	ByBrand     map[string]int `json:"by_brand"`
	InStock     int            `json:"in_stock"`
	PriceMin    float64        `json:"price_min"`
	PriceMax    float64        `json:"price_max"`
	MeanPrice   float64        `json:"price_mean"`
	MeanRating  float64        `json:"rating_mean"`
	MeanBattery float64        `json:"battery_mean"`
}

// Summarize computes catalog statistics, skipping NaN cells.
func Summarize(catalog []model.Phone) Stats {
	st := Stats{
		Total:   len(catalog),
		ByLabel: make(map[string]int),
		ByBrand: make(map[string]int),
	}
	if len(catalog) == 0 {
		return st
	}

	var priceSum, ratingSum, batterySum float64
	var priceN, ratingN, batteryN int
	st.PriceMin = math.Inf(1)
	st.PriceMax = math.Inf(-1)

	for _, p := range catalog {
		if p.Label != "" {
			st.ByLabel[p.Label]++
		}
		if p.Brand != "" {
			st.ByBrand[p.Brand]++
		}
		if p.InStock {
			st.InStock++
		}
		if !math.IsNaN(p.Price) {
			priceSum += p.Price
			priceN++
			if p.Price < st.PriceMin {
				st.PriceMin = p.Price
			}
			if p.Price > st.PriceMax {
				st.PriceMax = p.Price
			}
		}
		if !math.IsNaN(p.Rating) {
			ratingSum += p.Rating
			ratingN++
		}
		if !math.IsNaN(p.Battery) {
			batterySum += p.Battery
			batteryN++
		}
	}

	if priceN > 0 {
		st.MeanPrice = priceSum / float64(priceN)
	} else {
		st.PriceMin, st.PriceMax = 0, 0
	}
	if ratingN > 0 {
		st.MeanRating = ratingSum / float64(ratingN)
	}
	if batteryN > 0 {
		st.MeanBattery = batterySum / float64(batteryN)
	}
	return st
}

// WriteJSON marshals any dataset artifact (stats, prepared catalog)
// to an indented JSON file.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
