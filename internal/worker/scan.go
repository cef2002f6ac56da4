package worker

import (
	"context"

	"github.com/dwisetya/recase/internal/model"
)

// ScoreFunc scores one feature vector against an implicit query.
type ScoreFunc func(candidate model.Features) float64

// shardJob scores one contiguous slice of the feature matrix.
type shardJob struct {
	start    int
	features []model.Features
	score    ScoreFunc
}

// shardResult carries one shard's scores plus its offset so the
// caller can merge shards back into catalog order.
type shardResult struct {
	start  int
	scores []float64
	err    error
}

func (r *shardResult) GetError() error { return r.err }

func (j *shardJob) Execute(ctx context.Context) Result {
	scores := make([]float64, len(j.features))
	for i, f := range j.features {
		select {
		case <-ctx.Done():
			return &shardResult{start: j.start, scores: scores[:i], err: ctx.Err()}
		default:
		}
		scores[i] = j.score(f)
	}
	return &shardResult{start: j.start, scores: scores}
}

// ShardScanner scores a whole feature matrix, splitting it across the
// pool when the matrix is large enough to pay for the fan-out.
type ShardScanner struct {
	workers   int
	threshold int
}

// NewShardScanner builds a scanner. Matrices smaller than threshold
// are scanned inline on the calling goroutine.
func NewShardScanner(workers, threshold int) *ShardScanner {
	if workers <= 0 {
		workers = 1
	}
	if threshold <= 0 {
		threshold = 1
	}
	return &ShardScanner{workers: workers, threshold: threshold}
}

// Scan scores every feature vector and returns the scores indexed
// exactly like the input, regardless of which shard produced them.
func (s *ShardScanner) Scan(ctx context.Context, features []model.Features, score ScoreFunc) ([]float64, error) {
	n := len(features)
	if n == 0 {
		return nil, nil
	}

	if n < s.threshold || s.workers == 1 {
		scores := make([]float64, n)
		for i, f := range features {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scores[i] = score(f)
		}
		return scores, nil
	}

	shardSize := (n + s.workers - 1) / s.workers

	pool := NewPool(s.workers)
	pool.Start()
	defer pool.Shutdown()

	for start := 0; start < n; start += shardSize {
		end := start + shardSize
		if end > n {
			end = n
		}
		pool.Submit(&shardJob{start: start, features: features[start:end], score: score})
	}

	scores := make([]float64, n)
	for _, res := range pool.Wait() {
		if err := res.GetError(); err != nil {
			return nil, err
		}
		shard := res.(*shardResult)
		copy(scores[shard.start:], shard.scores)
	}
	return scores, nil
}
