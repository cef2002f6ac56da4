// Package cbr implements the case-based reasoning cycle over the
// phone catalog: retrieve by weighted similarity, reuse with
// explanations, revise against preference filters, retain new cases.
package cbr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dwisetya/recase/internal/cache"
	"github.com/dwisetya/recase/internal/dataset"
	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/preprocess"
	"github.com/dwisetya/recase/internal/similarity"
	"github.com/dwisetya/recase/internal/worker"
)

// ErrNotInitialized is returned when the engine is used before
// LoadCaseBase has populated a snapshot.
var ErrNotInitialized = errors.New("engine not initialized: load the case base first")

// Retrieved is one raw retrieval hit, before reuse and revise.
type Retrieved struct {
	Index      int     // position in the snapshot catalog
	Phone      model.Phone
	Similarity float64
}

// Summarizer optionally turns a finished response into a narrative
// summary. It never affects scores or ranks.
type Summarizer interface {
	Summarize(ctx context.Context, resp *model.RecommendResponse) (*model.LLMSummary, error)
}

// snapshot is one immutable view of the case base. Readers grab the
// pointer under RLock and work on it without further locking; reloads
// and weight changes build a fresh snapshot and swap the pointer.
type snapshot struct {
	catalog    []model.Phone    // prepared: imputed, camera derived
	features   []model.Features // normalized, index-aligned with catalog
	normalizer *preprocess.Normalizer
	calc       *similarity.Calculator
}

// Engine runs the CBR cycle. Safe for concurrent use.
type Engine struct {
	cfg     *model.Config
	store   *dataset.CSVStore
	scanner *worker.ShardScanner
	cache   cache.Cache // nil when caching is disabled
	summary Summarizer  // nil when no LLM provider is configured

	mu   sync.RWMutex
	snap *snapshot

	writeMu sync.Mutex // serializes retains
}

// New creates an engine over the given store. Call LoadCaseBase before
// the first query.
func New(cfg *model.Config, store *dataset.CSVStore) *Engine {
	e := &Engine{
		cfg:     cfg,
		store:   store,
		scanner: worker.NewShardScanner(cfg.Concurrency.ScanWorkers, cfg.Concurrency.ShardThreshold),
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
	}
	return e
}

// SetSummarizer attaches an optional narrative summarizer.
func (e *Engine) SetSummarizer(s Summarizer) {
	e.summary = s
}

// LoadCaseBase loads the catalog from the store, fits the normalizer,
// and swaps in a fresh snapshot. The previous snapshot, if any, keeps
// serving in-flight queries until they finish.
func (e *Engine) LoadCaseBase() error {
	catalog, err := e.store.Load()
	if err != nil {
		return err
	}

	e.mu.RLock()
	var calc *similarity.Calculator
	if e.snap != nil {
		calc = e.snap.calc
	}
	weights := e.cfg.Weights
	e.mu.RUnlock()

	if calc == nil {
		calc, err = similarity.NewCalculator(weights)
		if err != nil {
			return fmt.Errorf("configured weights: %w", err)
		}
	}

	snap, err := buildSnapshot(catalog, calc)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	e.flushCache()

	log.Info().Int("cases", len(snap.catalog)).Msg("case base loaded")
	return nil
}

func buildSnapshot(catalog []model.Phone, calc *similarity.Calculator) (*snapshot, error) {
	normalizer := preprocess.NewNormalizer()
	prepared := normalizer.Fit(catalog)
	features, err := normalizer.Transform(catalog)
	if err != nil {
		return nil, fmt.Errorf("normalize catalog: %w", err)
	}
	return &snapshot{
		catalog:    prepared,
		features:   features,
		normalizer: normalizer,
		calc:       calc,
	}, nil
}

func (e *Engine) snapshot() (*snapshot, error) {
	e.mu.RLock()
	snap := e.snap
	e.mu.RUnlock()
	if snap == nil {
		return nil, ErrNotInitialized
	}
	return snap, nil
}

// Size returns the number of cases in the current snapshot.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snap == nil {
		return 0
	}
	return len(e.snap.catalog)
}

// Weights returns the weight table of the current snapshot, falling
// back to the configured table before initialization.
func (e *Engine) Weights() model.Weights {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snap == nil {
		return e.cfg.Weights.Clone()
	}
	return e.snap.calc.Weights()
}

// SetWeights validates and installs a new weight table. The case base
// snapshot is rebuilt around a new calculator; cached responses become
// stale and are flushed.
func (e *Engine) SetWeights(weights model.Weights) error {
	calc, err := similarity.NewCalculator(weights)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.snap != nil {
		e.snap = &snapshot{
			catalog:    e.snap.catalog,
			features:   e.snap.features,
			normalizer: e.snap.normalizer,
			calc:       calc,
		}
	}
	e.cfg.Weights = calc.Weights()
	e.mu.Unlock()

	e.flushCache()
	return nil
}

// buildQuery normalizes a sparse field map into a query-side feature
// vector. Unknown field names are an error, not a silent skip.
func (snap *snapshot) buildQuery(fields map[string]any) (model.Features, error) {
	query := make(model.Features)
	for name, raw := range fields {
		attr, ok := model.ResolveField(name)
		if !ok {
			return nil, fmt.Errorf("unknown query field %q", name)
		}

		var value float64
		switch v := raw.(type) {
		case float64:
			value = v
		case int:
			value = float64(v)
		case string:
			if attr != model.AttrCamera {
				return nil, fmt.Errorf("query field %q: non-numeric value %q", name, v)
			}
			value = float64(preprocess.ParseCameraResolution(v))
		default:
			return nil, fmt.Errorf("query field %q: unsupported value type %T", name, raw)
		}

		normalized, err := snap.normalizer.NormalizeValue(value, attr)
		if err != nil {
			return nil, err
		}
		query[attr] = normalized
	}
	return query, nil
}

// Retrieve scores the whole case base against the query fields and
// returns up to topK hits at or above minSimilarity, most similar
// first. Ties keep catalog order.
func (e *Engine) Retrieve(ctx context.Context, fields map[string]any, topK int, minSimilarity float64) ([]Retrieved, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.retrieve(ctx, e.scanner, fields, topK, minSimilarity)
}

func (snap *snapshot) retrieve(ctx context.Context, scanner *worker.ShardScanner, fields map[string]any, topK int, minSimilarity float64) ([]Retrieved, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}

	query, err := snap.buildQuery(fields)
	if err != nil {
		return nil, err
	}

	scores, err := scanner.Scan(ctx, snap.features, func(candidate model.Features) float64 {
		return snap.calc.Similarity(query, candidate)
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Retrieved, 0, topK)
	for i, score := range scores {
		if score >= minSimilarity {
			hits = append(hits, Retrieved{Index: i, Phone: snap.catalog[i], Similarity: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Retain validates and appends a new case, then reloads the case base
// so the next query can retrieve it. Returns false with an error when
// the case is rejected.
func (e *Engine) Retain(newCase model.Phone, feedback string) (bool, error) {
	if err := validateCase(newCase); err != nil {
		return false, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.RLock()
	var maxID int
	if e.snap != nil {
		maxID = model.MaxID(e.snap.catalog)
	}
	e.mu.RUnlock()
	newCase.ID = maxID + 1

	if newCase.Label == "" {
		newCase.Label = dataset.AssignLabel(newCase)
	}

	if err := e.store.Append(newCase); err != nil {
		return false, fmt.Errorf("retain case: %w", err)
	}
	if err := e.LoadCaseBase(); err != nil {
		return false, fmt.Errorf("reload after retain: %w", err)
	}

	log.Info().
		Int("id", newCase.ID).
		Str("name", newCase.Name).
		Str("label", newCase.Label).
		Str("feedback", feedback).
		Msg("case retained")
	return true, nil
}

func validateCase(p model.Phone) error {
	if p.Name == "" {
		return errors.New("case rejected: name is required")
	}
	if p.Brand == "" {
		return errors.New("case rejected: brand is required")
	}
	if !(p.Price > 0) {
		return errors.New("case rejected: price must be positive")
	}
	if !(p.RAM > 0) {
		return errors.New("case rejected: ram must be positive")
	}
	if !(p.Storage > 0) {
		return errors.New("case rejected: storage must be positive")
	}
	return nil
}

// Recommend runs the full cycle for a structured query: retrieve with
// headroom, reuse, revise, truncate to topK. Zero matches is a valid
// response, not an error.
func (e *Engine) Recommend(ctx context.Context, q model.Query, topK int, minSimilarity float64) (*model.RecommendResponse, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	key, cacheable := e.responseKey(q, topK, minSimilarity, snap.calc.Weights())
	if cacheable {
		if data, found := e.cache.Get(key); found {
			var resp model.RecommendResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				log.Debug().Msg("recommendation served from cache")
				return &resp, nil
			}
		}
	}

	// Retrieve twice the requested depth so revise-phase boosts can
	// promote near-miss cases into the final top K.
	hits, err := snap.retrieve(ctx, e.scanner, q.Fields(), topK*2, minSimilarity)
	if err != nil {
		return nil, err
	}

	recs := snap.reuse(hits, q)
	recs = Revise(recs, q.Filters())
	if len(recs) > topK {
		recs = recs[:topK]
	}

	resp := &model.RecommendResponse{
		Success:         true,
		TotalResults:    len(recs),
		QuerySummary:    q.Summary(),
		WeightsUsed:     snap.calc.Weights(),
		Recommendations: recs,
		GeneratedAt:     time.Now().UTC(),
	}
	if len(recs) == 0 {
		resp.Message = "no phones matched the given preferences; try relaxing the budget or lowering the similarity threshold"
	} else {
		resp.Message = fmt.Sprintf("found %d matching phones", len(recs))
	}

	if e.summary != nil && len(recs) > 0 {
		summary, err := e.summary.Summarize(ctx, resp)
		if err != nil {
			log.Warn().Err(err).Msg("summary generation failed, returning results without it")
		} else {
			resp.LLM = summary
		}
	}

	if cacheable {
		if data, err := json.Marshal(resp); err == nil {
			_ = e.cache.Set(key, data, 0)
		}
	}
	return resp, nil
}

// responseKey builds the cache key for a recommendation request. Any
// change to the query, the parameters, or the weights misses.
func (e *Engine) responseKey(q model.Query, topK int, minSimilarity float64, weights model.Weights) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	qData, err := json.Marshal(q)
	if err != nil {
		return "", false
	}
	wData, err := json.Marshal(weights)
	if err != nil {
		return "", false
	}
	params := fmt.Sprintf("k=%d;min=%.6f;n=%d", topK, minSimilarity, e.Size())
	return cache.Key(qData, wData, []byte(params)), true
}

// flushCache drops every cached response. Response keys cover the
// query, parameters, and weights but not the catalog contents, so any
// reload or weight change invalidates the whole cache rather than
// individual entries.
func (e *Engine) flushCache() {
	if e.cache != nil {
		_ = e.cache.Clear()
	}
}
