package models

import "time"

// IngestionResult is the per-symbol envelope produced by one orchestrator
// task. Created once, never mutated after the worker hands it to the
// fan-in channel. Err is empty on success; on failure both Prices and
// Posts are empty rather than nil-and-crash downstream.
type IngestionResult struct {
	Symbol string
	Prices *PriceSeries
	Posts  []SocialPost
	Err    string
}

// Failed reports whether the symbol's ingestion degraded to empty data.
func (r *IngestionResult) Failed() bool { return r.Err != "" }

// SymbolReport summarizes one symbol's outcome inside a run.
type SymbolReport struct {
	Symbol    string `json:"symbol"`
	Bars      int    `json:"bars"`
	Posts     int    `json:"posts"`
	Rows      int    `json:"rows"`
	Sentiment int    `json:"sentiment_days"`
	Error     string `json:"error,omitempty"`
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Symbols    []SymbolReport `json:"symbols"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
}
