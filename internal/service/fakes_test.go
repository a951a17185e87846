package service

import (
	"context"
	"sync"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/ranking"
)

// collaborators

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordClaim(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[outcome]++
}

func (r *countingRecorder) RecordRanking(stage, outcome string) {
	r.RecordClaim(stage + "/" + outcome)
}

type stubScorer struct {
	scores map[string]float64
	err    error
	calls  int
}

func (s *stubScorer) Score(_ context.Context, _ string, labels []string) (*ranking.Scores, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := &ranking.Scores{}
	for _, l := range labels {
		out.Labels = append(out.Labels, l)
		out.Scores = append(out.Scores, s.scores[l])
	}
	return out, nil
}
