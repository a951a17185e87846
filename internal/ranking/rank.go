package ranking

import (
	"context"
	"sort"
)

// Ranked is one retained candidate with its score and mapped value.
type Ranked[V any] struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Value V       `json:"value"`
}

// Options controls a single ranking run.
type Options struct {
	TopK      int
	BatchSize int
}

// Rank scores candidate labels in batches, keeps the topK by descending score and maps each
// retained label back to a value. Ties keep candidate order. When a batch fails, the labels
// scored so far are still ranked and returned alongside the error; later batches are skipped.
func Rank[C, V any](
	ctx context.Context,
	scorer Scorer,
	query string,
	candidates []C,
	label func(C) string,
	value func(C) V,
	opts Options,
) ([]Ranked[V], error) {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	labels := make([]string, 0, len(candidates))
	position := make(map[string]int, len(candidates))
	for i, c := range candidates {
		l := label(c)
		labels = append(labels, l)
		if _, seen := position[l]; !seen {
			position[l] = i
		}
	}

	merged := make(map[string]float64, len(labels))
	var scoreErr error
	for start := 0; start < len(labels); start += batch {
		end := min(start+batch, len(labels))
		scores, err := scorer.Score(ctx, query, labels[start:end])
		if err != nil {
			scoreErr = err
			break
		}
		for i, l := range scores.Labels {
			if i >= len(scores.Scores) {
				break
			}
			if _, known := position[l]; known {
				merged[l] = scores.Scores[i]
			}
		}
	}

	ranked := make([]Ranked[V], 0, len(merged))
	for l, score := range merged {
		ranked = append(ranked, Ranked[V]{Label: l, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return position[ranked[i].Label] < position[ranked[j].Label]
	})
	if opts.TopK >= 0 && len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}
	for i := range ranked {
		ranked[i].Value = value(candidates[position[ranked[i].Label]])
	}
	return ranked, scoreErr
}
