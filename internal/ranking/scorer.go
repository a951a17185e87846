// Package ranking scores candidate labels against free text with a zero-shot classifier.
package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spec-kit/helpdesk/internal/config"
)

// DefaultBatchSize is the classifier's practical label limit per call.
const DefaultBatchSize = 10

var (
	// ErrBatchTooLarge is returned before any call when too many labels are passed.
	ErrBatchTooLarge = errors.New("ranking: too many candidate labels")
	// ErrMalformedResponse covers unparsable bodies and mismatched label/score arrays.
	ErrMalformedResponse = errors.New("ranking: malformed scorer response")
)

// Scores holds parallel label and score arrays as returned by the classifier.
type Scores struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Scorer scores labels against a query. Implementations may fail or time out.
type Scorer interface {
	Score(ctx context.Context, query string, labels []string) (*Scores, error)
}

type classifyRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters classifyParams `json:"parameters"`
}

type classifyParams struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// HTTPScorer calls a hosted zero-shot classification endpoint.
type HTTPScorer struct {
	url       string
	token     string
	batchSize int
	client    *http.Client
}

// NewHTTPScorer builds a client with a hard per-call timeout.
func NewHTTPScorer(cfg config.RankingConfig) *HTTPScorer {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &HTTPScorer{
		url:       cfg.URL,
		token:     cfg.APIToken,
		batchSize: batch,
		client:    &http.Client{Timeout: cfg.Timeout()},
	}
}

// BatchSize reports the label limit enforced per call.
func (s *HTTPScorer) BatchSize() int {
	return s.batchSize
}

// Score posts one multi-label classification request.
func (s *HTTPScorer) Score(ctx context.Context, query string, labels []string) (*Scores, error) {
	if len(labels) > s.batchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(labels), s.batchSize)
	}

	payload, err := json.Marshal(classifyRequest{
		Inputs: query,
		Parameters: classifyParams{
			CandidateLabels: labels,
			MultiLabel:      true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ranking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ranking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ranking service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("ranking service returned status %d", resp.StatusCode)
	}

	var scores Scores
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(scores.Labels) != len(scores.Scores) {
		return nil, fmt.Errorf("%w: %d labels, %d scores", ErrMalformedResponse, len(scores.Labels), len(scores.Scores))
	}
	return &scores, nil
}
