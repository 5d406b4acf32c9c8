package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BatchTarget describes one page to extract. Name doubles as the output key.
type BatchTarget struct {
	URL  string `json:"url" yaml:"url"`
	Name string `json:"name" yaml:"name"`
}

// Outcome holds exactly one of Record or Failure.
type Outcome struct {
	Record  *ProductRecord
	Failure *ExtractionFailure
}

// Succeeded reports whether the outcome carries a product record.
func (o Outcome) Succeeded() bool {
	return o.Record != nil && o.Failure == nil
}

// MarshalJSON emits the inner record or failure.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Record != nil && o.Failure != nil:
		return nil, errors.New("outcome holds both a record and a failure")
	case o.Record != nil:
		return json.Marshal(o.Record)
	case o.Failure != nil:
		return json.Marshal(o.Failure)
	default:
		return nil, errors.New("outcome is empty")
	}
}

type batchEntry struct {
	name    string
	outcome Outcome
}

// BatchResult maps target names to outcomes, preserving insertion order.
type BatchResult struct {
	entries []batchEntry
	index   map[string]int
}

// NewBatchResult returns an empty result sized for n targets.
func NewBatchResult(n int) *BatchResult {
	return &BatchResult{
		entries: make([]batchEntry, 0, n),
		index:   make(map[string]int, n),
	}
}

// Set records the outcome for name. An existing name keeps its position.
func (r *BatchResult) Set(name string, outcome Outcome) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.entries[i].outcome = outcome
		return
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, batchEntry{name: name, outcome: outcome})
}

// Get returns the outcome recorded for name.
func (r *BatchResult) Get(name string) (Outcome, bool) {
	i, ok := r.index[name]
	if !ok {
		return Outcome{}, false
	}
	return r.entries[i].outcome, true
}

// Len returns the number of recorded outcomes.
func (r *BatchResult) Len() int {
	return len(r.entries)
}

// Names returns target names in insertion order.
func (r *BatchResult) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Succeeded counts outcomes carrying a product record.
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, e := range r.entries {
		if e.outcome.Succeeded() {
			n++
		}
	}
	return n
}

// Failed counts outcomes carrying an extraction failure.
func (r *BatchResult) Failed() int {
	return r.Len() - r.Succeeded()
}

// Each calls fn for every entry in insertion order.
func (r *BatchResult) Each(fn func(name string, outcome Outcome)) {
	for _, e := range r.entries {
		fn(e.name, e.outcome)
	}
}

// MarshalJSON writes a JSON object whose key order follows insertion order.
func (r *BatchResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.outcome)
		if err != nil {
			return nil, fmt.Errorf("marshal outcome %q: %w", e.name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// BatchSummary holds counters for a finished batch run.
type BatchSummary struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	Targets      int
	Succeeded    int
	Failed       int
	EmptyRecords int
	ErrorsByKind map[string]int
	WriteErrors  int
}
