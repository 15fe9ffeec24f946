// Stage timing and outcome tracking
package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StageRecord is one executed stage of one frame
type StageRecord struct {
	Timestamp time.Time
	Frame     string
	Stage     string
	Duration  time.Duration
	Error     string
}

// StageRecorder collects stage timings across frames. It is safe for
// concurrent use by batch workers.
type StageRecorder struct {
	logger logrus.FieldLogger

	mu        sync.Mutex
	records   []StageRecord
	durations map[string][]time.Duration
	failures  map[string]int
}

func NewStageRecorder(logger logrus.FieldLogger) *StageRecorder {
	return &StageRecorder{
		logger:    logger,
		durations: make(map[string][]time.Duration),
		failures:  make(map[string]int),
	}
}

// Track runs fn as stage of frame and records its duration and outcome
func (r *StageRecorder) Track(frame, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.Record(frame, stage, time.Since(start), err)
	return err
}

// Record stores one stage outcome and logs it
func (r *StageRecorder) Record(frame, stage string, duration time.Duration, err error) {
	rec := StageRecord{
		Timestamp: time.Now(),
		Frame:     frame,
		Stage:     stage,
		Duration:  duration,
	}
	if err != nil {
		rec.Error = err.Error()
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.durations[stage] = append(r.durations[stage], duration)
	if err != nil {
		r.failures[stage]++
	}
	r.mu.Unlock()

	entry := r.logger.WithFields(logrus.Fields{
		"frame":       frame,
		"stage":       stage,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("Stage failed")
		return
	}
	entry.Debug("Stage complete")
}

// Records returns a copy of every record in arrival order
func (r *StageRecorder) Records() []StageRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StageRecord, len(r.records))
	copy(out, r.records)
	return out
}

// StageStats summarizes one stage
type StageStats struct {
	Stage    string
	Count    int
	Failures int
	Average  time.Duration
	Max      time.Duration
}

// Stats summarizes every stage seen so far, sorted by stage name
func (r *StageRecorder) Stats() []StageStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make([]StageStats, 0, len(r.durations))
	for stage, durations := range r.durations {
		s := StageStats{Stage: stage, Count: len(durations), Failures: r.failures[stage]}
		var total time.Duration
		for _, d := range durations {
			total += d
			if d > s.Max {
				s.Max = d
			}
		}
		s.Average = total / time.Duration(len(durations))
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Stage < stats[j].Stage })
	return stats
}

// LogSummary writes one line per stage at info level
func (r *StageRecorder) LogSummary() {
	for _, s := range r.Stats() {
		r.logger.WithFields(logrus.Fields{
			"stage":    s.Stage,
			"count":    s.Count,
			"failures": s.Failures,
			"avg_ms":   s.Average.Milliseconds(),
			"max_ms":   s.Max.Milliseconds(),
		}).Info("Stage summary")
	}
}
