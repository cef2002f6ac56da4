package cbr

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dwisetya/recase/internal/dataset"
	"github.com/dwisetya/recase/internal/model"
)

func testCatalog() []model.Phone {
	return []model.Phone{
		{ID: 1, Name: "Galaxy S24", Brand: "Samsung", OS: "Android", Price: 13_000_000, RAM: 12, Storage: 256, ScreenSize: 6.2, Battery: 4000, Rating: 4.6, CameraLabel: "50MP", InStock: true},
		{ID: 2, Name: "iPhone 15", Brand: "Apple", OS: "iOS", Price: 15_000_000, RAM: 6, Storage: 128, ScreenSize: 6.1, Battery: 3349, Rating: 4.7, CameraLabel: "48MP", InStock: true},
		{ID: 3, Name: "Redmi Note 12", Brand: "Xiaomi", OS: "Android", Price: 2_500_000, RAM: 6, Storage: 128, ScreenSize: 6.67, Battery: 5000, Rating: 4.2, CameraLabel: "50MP", InStock: true},
		{ID: 4, Name: "Galaxy A54", Brand: "Samsung", OS: "Android", Price: 5_500_000, RAM: 8, Storage: 256, ScreenSize: 6.4, Battery: 5000, Rating: 4.4, CameraLabel: "50MP", InStock: false},
		{ID: 5, Name: "Pixel 8", Brand: "Google", OS: "Android", Price: 9_000_000, RAM: 8, Storage: 128, ScreenSize: 6.2, Battery: 4575, Rating: 4.5, CameraLabel: "50MP", InStock: true},
	}
}

func newTestEngine(t *testing.T, catalog []model.Phone) *Engine {
	t.Helper()

	store := dataset.NewCSVStore(filepath.Join(t.TempDir(), "catalog.csv"))
	if err := store.WriteAll(catalog); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	cfg := model.DefaultConfig()
	cfg.Dataset.Path = store.Path()

	e := New(cfg, store)
	if err := e.LoadCaseBase(); err != nil {
		t.Fatalf("LoadCaseBase: %v", err)
	}
	return e
}

func TestRetrieveBeforeLoad(t *testing.T) {
	cfg := model.DefaultConfig()
	e := New(cfg, dataset.NewCSVStore(filepath.Join(t.TempDir(), "absent.csv")))

	if _, err := e.Retrieve(context.Background(), map[string]any{"ram": 8}, 5, 0); err != ErrNotInitialized {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestRetrieveUnknownField(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	if _, err := e.Retrieve(context.Background(), map[string]any{"warranty": 2}, 5, 0); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestRetrieveFieldAliases(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	byCanonical, err := e.Retrieve(context.Background(), map[string]any{"ram": 8}, 5, 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	byAlias, err := e.Retrieve(context.Background(), map[string]any{"memory": 8}, 5, 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(byCanonical) != len(byAlias) {
		t.Fatalf("alias and canonical retrievals differ in size: %d vs %d", len(byCanonical), len(byAlias))
	}
	for i := range byCanonical {
		if byCanonical[i].Phone.ID != byAlias[i].Phone.ID {
			t.Errorf("rank %d: canonical %d vs alias %d", i, byCanonical[i].Phone.ID, byAlias[i].Phone.ID)
		}
	}
}

func TestRetrieveOrderingAndTruncation(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	hits, err := e.Retrieve(context.Background(), map[string]any{"price": 5_500_000, "ram": 8}, 3, 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Similarity > hits[i-1].Similarity {
			t.Errorf("hits out of order at %d: %v > %v", i, hits[i].Similarity, hits[i-1].Similarity)
		}
	}
	if hits[0].Phone.ID != 4 {
		t.Errorf("best match ID = %d, want 4 (exact price and ram)", hits[0].Phone.ID)
	}
	if hits[0].Similarity != 1.0 {
		t.Errorf("exact match similarity = %v, want 1.0", hits[0].Similarity)
	}
}

func TestRetrieveThreshold(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	all, err := e.Retrieve(context.Background(), map[string]any{"price": 2_500_000}, 10, 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	strict, err := e.Retrieve(context.Background(), map[string]any{"price": 2_500_000}, 10, 0.9)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(strict) >= len(all) {
		t.Errorf("threshold 0.9 kept %d of %d hits, expected fewer", len(strict), len(all))
	}
	for _, h := range strict {
		if h.Similarity < 0.9 {
			t.Errorf("hit %d below threshold: %v", h.Phone.ID, h.Similarity)
		}
	}
}

// Full cycle over a small catalog: a query describing one phone
// exactly must put that phone at rank 1 with a perfect score.
func TestRecommendEndToEnd(t *testing.T) {
	e := newTestEngine(t, testCatalog())
	if err := e.SetWeights(model.Weights{
		model.AttrPrice:   50,
		model.AttrRAM:     30,
		model.AttrBattery: 20,
	}); err != nil {
		t.Fatalf("SetWeights: %v", err)
	}

	resp, err := e.Recommend(context.Background(), model.Query{
		MaxPrice:   13_000_000,
		RAM:        12,
		MinBattery: 4000,
	}, 3, 0.3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if !resp.Success {
		t.Fatal("response not successful")
	}
	if len(resp.Recommendations) == 0 {
		t.Fatal("no recommendations")
	}
	top := resp.Recommendations[0]
	if top.Phone.ID != 1 {
		t.Errorf("top recommendation ID = %d, want 1", top.Phone.ID)
	}
	if top.Rank != 1 {
		t.Errorf("top rank = %d, want 1", top.Rank)
	}
	if top.Similarity != 1.0 {
		t.Errorf("top similarity = %v, want 1.0", top.Similarity)
	}
	if top.Percentage != 100 {
		t.Errorf("top percentage = %v, want 100", top.Percentage)
	}
	if len(top.Explanations) != 3 {
		t.Errorf("got %d explanations, want 3 (one per stated preference)", len(top.Explanations))
	}
	if len(resp.WeightsUsed) != 3 {
		t.Errorf("weights_used has %d entries, want 3", len(resp.WeightsUsed))
	}
}

func TestRecommendZeroMatches(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	resp, err := e.Recommend(context.Background(), model.Query{MaxPrice: 8_000_000}, 5, 0.999)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !resp.Success {
		t.Error("zero matches must still be a successful response")
	}
	if resp.TotalResults != 0 || len(resp.Recommendations) != 0 {
		t.Errorf("expected empty result set, got %d", resp.TotalResults)
	}
	if resp.Message == "" {
		t.Error("zero-match response missing guidance message")
	}
}

func TestRecommendBrandBoostPromotes(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	plain, err := e.Recommend(context.Background(), model.Query{RAM: 8}, 5, 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	boosted, err := e.Recommend(context.Background(), model.Query{RAM: 8, PreferredBrands: []string{"Xiaomi"}}, 5, 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	rankOf := func(recs []model.Recommendation, id int) int {
		for _, r := range recs {
			if r.Phone.ID == id {
				return r.Rank
			}
		}
		return -1
	}
	if rankOf(boosted.Recommendations, 3) > rankOf(plain.Recommendations, 3) {
		t.Errorf("brand boost demoted the preferred phone: %d -> %d",
			rankOf(plain.Recommendations, 3), rankOf(boosted.Recommendations, 3))
	}
}

func TestRecommendOnlyInStock(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	resp, err := e.Recommend(context.Background(), model.Query{RAM: 8, OnlyInStock: true}, 10, 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, rec := range resp.Recommendations {
		if !rec.Phone.InStock {
			t.Errorf("out-of-stock phone %d in only-in-stock results", rec.Phone.ID)
		}
	}
}

func TestSetWeightsValidation(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	if err := e.SetWeights(model.Weights{model.AttrPrice: 10}); err == nil {
		t.Error("weight table summing to 10 accepted")
	}
	// A rejected table must leave the active weights untouched.
	if total := e.Weights().Total(); math.Abs(total-100) > 1 {
		t.Errorf("active weights total %v after rejected update", total)
	}
}

// Exercises the reader/writer paths together; meaningful under -race.
func TestSetWeightsConcurrentReaders(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	alt := model.Weights{
		model.AttrPrice:   40,
		model.AttrRAM:     10,
		model.AttrStorage: 10,
		model.AttrScreen:  5,
		model.AttrBattery: 10,
		model.AttrRating:  10,
		model.AttrCamera:  15,
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if total := e.Weights().Total(); math.Abs(total-100) > 1 {
					t.Errorf("reader saw weight total %v", total)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			if err := e.SetWeights(alt); err != nil {
				t.Errorf("SetWeights: %v", err)
			}
			if err := e.LoadCaseBase(); err != nil {
				t.Errorf("LoadCaseBase: %v", err)
			}
		}
	}()

	wg.Wait()

	if got := e.Weights()[model.AttrPrice]; got != 40 {
		t.Errorf("price weight = %v after updates, want 40", got)
	}
}

func TestRetainValidatesAndExtends(t *testing.T) {
	e := newTestEngine(t, testCatalog())

	if ok, err := e.Retain(model.Phone{Name: "Incomplete"}, ""); ok || err == nil {
		t.Error("case without brand/price accepted")
	}
	if e.Size() != 5 {
		t.Fatalf("size changed after rejected retain: %d", e.Size())
	}

	ok, err := e.Retain(model.Phone{
		Name: "ROG Phone 8", Brand: "Asus", OS: "Android",
		Price: 11_000_000, RAM: 16, Storage: 512,
		ScreenSize: 6.78, Battery: 5500, Rating: 4.6,
		CameraLabel: "50MP", InStock: true,
	}, "good gaming pick")
	if err != nil || !ok {
		t.Fatalf("Retain: ok=%v err=%v", ok, err)
	}
	if e.Size() != 6 {
		t.Fatalf("size = %d after retain, want 6", e.Size())
	}

	// The retained case is immediately retrievable.
	hits, err := e.Retrieve(context.Background(), map[string]any{"ram": 16, "storage": 512}, 1, 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 1 || hits[0].Phone.Name != "ROG Phone 8" {
		t.Errorf("retained case not at top: %+v", hits)
	}
	if hits[0].Phone.ID != 6 {
		t.Errorf("retained case ID = %d, want 6", hits[0].Phone.ID)
	}
	if hits[0].Phone.Label == "" {
		t.Error("retained case not labeled")
	}
}

func TestReviseIsPure(t *testing.T) {
	recs := []model.Recommendation{
		{Rank: 1, Phone: model.Phone{ID: 1, Brand: "Apple", OS: "iOS", InStock: true}, Similarity: 0.9, Percentage: 90},
		{Rank: 2, Phone: model.Phone{ID: 2, Brand: "Samsung", OS: "Android", InStock: true}, Similarity: 0.85, Percentage: 85},
	}

	out := Revise(recs, model.Filters{PreferredBrands: []string{"samsung"}, PreferredOS: "android"})

	if recs[1].Similarity != 0.85 {
		t.Error("Revise mutated its input")
	}
	if out[0].Phone.ID != 2 {
		t.Errorf("boosted phone ID = %d at rank 1, want 2", out[0].Phone.ID)
	}
	want := 0.85 * brandBoost * osBoost
	if math.Abs(out[0].Similarity-want) > 1e-12 {
		t.Errorf("boosted similarity = %v, want %v", out[0].Similarity, want)
	}
	if out[0].Rank != 1 || out[1].Rank != 2 {
		t.Errorf("ranks not dense: %d, %d", out[0].Rank, out[1].Rank)
	}
}

func TestRevisePercentageCap(t *testing.T) {
	recs := []model.Recommendation{
		{Rank: 1, Phone: model.Phone{ID: 1, Brand: "Samsung", OS: "Android", InStock: true}, Similarity: 0.99, Percentage: 99},
	}
	out := Revise(recs, model.Filters{PreferredBrands: []string{"Samsung"}, PreferredOS: "Android"})

	if out[0].Similarity <= 1.0 {
		t.Errorf("stacked boost similarity = %v, want > 1", out[0].Similarity)
	}
	if out[0].Percentage != 100 {
		t.Errorf("percentage = %v, want capped at 100", out[0].Percentage)
	}
}

func TestMatchScore(t *testing.T) {
	if got := matchScore(8, 8); got != 1 {
		t.Errorf("matchScore(8,8) = %v, want 1", got)
	}
	if got := matchScore(0, 8); got != 0.5 {
		t.Errorf("matchScore(0,8) = %v, want 0.5", got)
	}
	if got, want := matchScore(4, 8), 0.5; got != want {
		t.Errorf("matchScore(4,8) = %v, want %v", got, want)
	}
}
