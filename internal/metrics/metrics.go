package metrics

import (
	"sync"
	"time"
)

type collectionStats struct {
	storeOps       int
	storeErrors    int
	events         int
	decodeFailures int
	lastOpLatency  time.Duration
}

type enrichStats struct {
	calls           int
	errors          int
	timeouts        int
	lastCallLatency time.Duration
}

// Recorder captures lightweight, in-memory metrics about store, registry, and
// enrichment activity. It is intentionally simple so it can be swapped for a
// real backend later.
type Recorder struct {
	mu     sync.Mutex
	stats  map[string]*collectionStats
	enrich map[string]*enrichStats
	otel   *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats:  make(map[string]*collectionStats),
		enrich: make(map[string]*enrichStats),
		otel:   otel,
	}
}

// RecordStoreOp increments counters for a document store call and stores the
// last observed latency.
func (r *Recorder) RecordStoreOp(collection, op string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	stats := r.ensureStats(collection)
	stats.storeOps++
	stats.lastOpLatency = duration
	if err != nil {
		stats.storeErrors++
	}
	if r.otel != nil {
		r.otel.recordStoreOp(collection, op, duration, err)
	}
}

// RecordRegistryEvents tracks change events merged into a registry, including
// how many documents in the batch failed to decode.
func (r *Recorder) RecordRegistryEvents(collection string, events, decodeFailures int) {
	if r == nil {
		return
	}

	stats := r.ensureStats(collection)
	stats.events += events
	stats.decodeFailures += decodeFailures
	if r.otel != nil {
		r.otel.recordRegistryEvents(collection, events, decodeFailures)
	}
}

// RecordEnrichAttempt increments counters for an enrichment provider call.
func (r *Recorder) RecordEnrichAttempt(provider string, duration time.Duration, err error, timedOut bool) {
	if r == nil {
		return
	}

	stats := r.ensureEnrich(provider)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	if timedOut {
		stats.timeouts++
	}
	if r.otel != nil {
		r.otel.recordEnrichAttempt(provider, duration, err, timedOut)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// StoreOps returns the total store calls recorded for a collection.
func (r *Recorder) StoreOps(collection string) int {
	return r.Snapshot(collection).StoreOps
}

// StoreErrors returns the total failed store calls recorded for a collection.
func (r *Recorder) StoreErrors(collection string) int {
	return r.Snapshot(collection).StoreErrors
}

// RegistryEvents returns the change events merged for a collection.
func (r *Recorder) RegistryEvents(collection string) int {
	return r.Snapshot(collection).Events
}

// DecodeFailures returns the documents skipped during decoding for a collection.
func (r *Recorder) DecodeFailures(collection string) int {
	return r.Snapshot(collection).DecodeFailures
}

// EnrichCalls returns the total enrichment attempts recorded for a provider.
func (r *Recorder) EnrichCalls(provider string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.enrich[provider]; ok {
		return stats.calls
	}
	return 0
}

// EnrichTimeouts returns the enrichment deadline hits recorded for a provider.
func (r *Recorder) EnrichTimeouts(provider string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.enrich[provider]; ok {
		return stats.timeouts
	}
	return 0
}

// Snapshot is a copy of the current stats for a collection.
type Snapshot struct {
	StoreOps       int
	StoreErrors    int
	Events         int
	DecodeFailures int
	LastOpLatency  time.Duration
}

func (r *Recorder) Snapshot(collection string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	stats := r.snapshot(collection)
	return Snapshot{
		StoreOps:       stats.storeOps,
		StoreErrors:    stats.storeErrors,
		Events:         stats.events,
		DecodeFailures: stats.decodeFailures,
		LastOpLatency:  stats.lastOpLatency,
	}
}

func (r *Recorder) ensureStats(collection string) *collectionStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[collection]
	if !ok {
		stats = &collectionStats{}
		r.stats[collection] = stats
	}
	return stats
}

func (r *Recorder) ensureEnrich(provider string) *enrichStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.enrich[provider]
	if !ok {
		stats = &enrichStats{}
		r.enrich[provider] = stats
	}
	return stats
}

func (r *Recorder) snapshot(collection string) collectionStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats, ok := r.stats[collection]; ok && stats != nil {
		return *stats
	}
	return collectionStats{}
}
