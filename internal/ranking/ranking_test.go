package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type dept struct {
	ID   int64
	Name string
}

// fakeScorer returns scores from a fixed table and records each call's labels.
type fakeScorer struct {
	table  map[string]float64
	failAt int
	calls  [][]string
}

func (f *fakeScorer) Score(_ context.Context, _ string, labels []string) (*Scores, error) {
	f.calls = append(f.calls, append([]string(nil), labels...))
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return nil, errors.New("scorer down")
	}
	out := &Scores{}
	for _, l := range labels {
		out.Labels = append(out.Labels, l)
		out.Scores = append(out.Scores, f.table[l])
	}
	return out, nil
}

func deptName(d dept) string { return d.Name }
func deptID(d dept) int64    { return d.ID }

func TestRankWifiScenario(t *testing.T) {
	scorer := &fakeScorer{table: map[string]float64{
		"Technology Support": 0.91,
		"Accommodation":      0.32,
		"Finance":            0.05,
	}}
	depts := []dept{{1, "Technology Support"}, {2, "Accommodation"}, {3, "Finance"}}

	ranked, err := Rank(context.Background(), scorer, "wifi not working", depts, deptName, deptID, Options{TopK: 3})
	require.NoError(t, err)
	require.Len(t, scorer.calls, 1)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Technology Support", ranked[0].Label)
	assert.EqualValues(t, 1, ranked[0].Value)
	assert.Equal(t, "Accommodation", ranked[1].Label)
	assert.Equal(t, "Finance", ranked[2].Label)
}

func TestRankScorerFailureYieldsEmpty(t *testing.T) {
	scorer := &fakeScorer{failAt: 1}
	depts := []dept{{1, "Technology Support"}, {2, "Accommodation"}, {3, "Finance"}}

	ranked, err := Rank(context.Background(), scorer, "wifi not working", depts, deptName, deptID, Options{TopK: 3})
	assert.Error(t, err)
	assert.Empty(t, ranked)
}

func TestRankBatchesAndKeepsPartialResults(t *testing.T) {
	table := map[string]float64{}
	var depts []dept
	for i := 0; i < 25; i++ {
		name := "Dept " + string(rune('A'+i))
		depts = append(depts, dept{int64(i + 1), name})
		table[name] = float64(i) / 100
	}
	scorer := &fakeScorer{table: table, failAt: 3}

	ranked, err := Rank(context.Background(), scorer, "q", depts, deptName, deptID, Options{TopK: 3})
	assert.Error(t, err)
	require.Len(t, scorer.calls, 3)
	assert.Len(t, scorer.calls[0], 10)
	assert.Len(t, scorer.calls[1], 10)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Dept T", ranked[0].Label, "best score from the batches that succeeded")
}

func TestRankTieBreakKeepsCandidateOrder(t *testing.T) {
	scorer := &fakeScorer{table: map[string]float64{"b": 0.5, "a": 0.5, "c": 0.9}}
	depts := []dept{{1, "b"}, {2, "a"}, {3, "c"}}

	ranked, err := Rank(context.Background(), scorer, "q", depts, deptName, deptID, Options{TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, []string{ranked[0].Label, ranked[1].Label, ranked[2].Label})
}

func TestRankTopKAndValueMapping(t *testing.T) {
	type faq struct{ Question, Answer string }
	scorer := &fakeScorer{table: map[string]float64{"How do I pay?": 0.8, "Where is housing?": 0.1}}
	faqs := []faq{{"Where is housing?", "Block C"}, {"How do I pay?", "Use the portal"}}

	ranked, err := Rank(context.Background(), scorer, "payment", faqs,
		func(f faq) string { return f.Question },
		func(f faq) string { return f.Answer },
		Options{TopK: 1})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "Use the portal", ranked[0].Value)
}

func TestRankNoCandidatesSkipsScorer(t *testing.T) {
	scorer := &fakeScorer{}
	ranked, err := Rank[dept, int64](context.Background(), scorer, "q", nil, deptName, deptID, Options{TopK: 3})
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.Empty(t, scorer.calls)
}

func TestHTTPScorerRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wifi not working", body.Inputs)
		assert.True(t, body.Parameters.MultiLabel)
		assert.Equal(t, []string{"Finance", "Technology Support"}, body.Parameters.CandidateLabels)
		_ = json.NewEncoder(w).Encode(Scores{Labels: []string{"Technology Support", "Finance"}, Scores: []float64{0.9, 0.1}})
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(config.RankingConfig{URL: srv.URL, APIToken: "secret", TimeoutMillis: 1000})
	scores, err := scorer.Score(context.Background(), "wifi not working", []string{"Finance", "Technology Support"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1}, scores.Scores)
}

func TestHTTPScorerRejectsOversizedBatch(t *testing.T) {
	scorer := NewHTTPScorer(config.RankingConfig{URL: "http://127.0.0.1:0", BatchSize: 2})
	_, err := scorer.Score(context.Background(), "q", []string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestHTTPScorerMalformedAndStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/down") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"labels":["a","b"],"scores":[0.1]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPScorer(config.RankingConfig{URL: srv.URL}).Score(context.Background(), "q", []string{"a", "b"})
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = NewHTTPScorer(config.RankingConfig{URL: srv.URL + "/down"}).Score(context.Background(), "q", []string{"a"})
	assert.Error(t, err)
}

func TestHTTPScorerTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	scorer := NewHTTPScorer(config.RankingConfig{URL: srv.URL, TimeoutMillis: 50})
	start := time.Now()
	_, err := scorer.Score(context.Background(), "q", []string{"a"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

type memoryCache struct {
	data map[string][]byte
	sets int
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) error {
	raw, ok := m.data[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.sets++
	return nil
}

func TestCachedScorerServesRepeatCallsFromCache(t *testing.T) {
	inner := &fakeScorer{table: map[string]float64{"a": 0.7}}
	cache := &memoryCache{data: map[string][]byte{}}
	scorer := NewCachedScorer(inner, cache, time.Minute, zap.NewNop())

	first, err := scorer.Score(context.Background(), "q", []string{"a"})
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), "q", []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, inner.calls, 1)
	assert.Equal(t, 1, cache.sets)
}

func TestCachedScorerDoesNotCacheFailures(t *testing.T) {
	inner := &fakeScorer{failAt: 1}
	cache := &memoryCache{data: map[string][]byte{}}
	scorer := NewCachedScorer(inner, cache, time.Minute, zap.NewNop())

	_, err := scorer.Score(context.Background(), "q", []string{"a"})
	assert.Error(t, err)
	assert.Zero(t, cache.sets)
}

func TestCacheKeyDependsOnLabelBoundaries(t *testing.T) {
	assert.NotEqual(t, CacheKey("q", []string{"ab", "c"}), CacheKey("q", []string{"a", "bc"}))
	assert.Equal(t, CacheKey("q", []string{"a"}), CacheKey("q", []string{"a"}))
}
