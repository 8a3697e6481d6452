// SPDX-License-Identifier: GPL-3.0-only

// Package stats keeps the history of sampled page brightness and the energy
// saved per site and per period.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxRecords is the number of luminance records kept before the oldest are dropped.
const DefaultMaxRecords = 10000

// LuminanceRecord is one brightness sample of a page.
type LuminanceRecord struct {
	Luminance float64   `json:"luminance"`
	URL       string    `json:"url"`
	Date      time.Time `json:"date"`
}

// Period accumulates savings until Reset.
type Period struct {
	Savings float64   `json:"savings"`
	Reset   time.Time `json:"reset"`
}

// Lifetime accumulates savings since the first one was recorded.
type Lifetime struct {
	Savings float64   `json:"savings"`
	Since   time.Time `json:"since"`
}

// Summary is a snapshot of saved energy in watt-hours.
type Summary struct {
	CurrentSite float64 `json:"currentSite"`
	Today       float64 `json:"today"`
	Week        float64 `json:"week"`
	Total       float64 `json:"total"`
}

type state struct {
	Records []LuminanceRecord  `json:"luminanceRecords"`
	Sites   map[string]float64 `json:"savings"`
	Today   Period             `json:"today"`
	Week    Period             `json:"week"`
	Total   Lifetime           `json:"total"`
}

// Tracker records luminance samples and savings. All methods are thread-safe.
type Tracker struct {
	mu         sync.RWMutex
	state      state
	path       string
	maxRecords int
	now        func() time.Time
}

// Option is a functional option for configuring a Tracker.
type Option func(*Tracker)

// WithPath sets the file the tracker is saved to.
func WithPath(path string) Option {
	return func(t *Tracker) {
		t.path = path
	}
}

// WithMaxRecords caps the number of luminance records kept.
func WithMaxRecords(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxRecords = n
		}
	}
}

// WithClock sets the time source for testing.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		state:      state{Sites: make(map[string]float64)},
		maxRecords: DefaultMaxRecords,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load creates a tracker saved at path. A missing file yields an empty tracker.
func Load(path string, opts ...Option) (*Tracker, error) {
	t := NewTracker(append([]Option{WithPath(path)}, opts...)...)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("No stats file, starting empty")
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse stats %s: %w", path, err)
	}
	if s.Sites == nil {
		s.Sites = make(map[string]float64)
	}
	t.state = s
	t.trimLocked()

	log.Debug().Str("path", path).Int("records", len(s.Records)).Msg("Loaded stats")
	return t, nil
}

// Save writes the tracker to its path atomically. It is a no-op without a path.
func (t *Tracker) Save() error {
	if t.path == "" {
		return nil
	}

	t.mu.RLock()
	data, err := json.Marshal(t.state)
	t.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".stats-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	// Ensure the temp file is removed if anything below fails
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync stats: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close stats: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("failed to replace stats: %w", err)
	}

	success = true
	return nil
}

// RecordLuminance appends a brightness sample for url dated now.
func (t *Tracker) RecordLuminance(nits float64, url string) LuminanceRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := LuminanceRecord{Luminance: nits, URL: url, Date: t.now()}
	t.state.Records = append(t.state.Records, record)
	t.trimLocked()
	return record
}

// trimLocked drops the oldest records beyond maxRecords. Callers hold mu.
func (t *Tracker) trimLocked() {
	if extra := len(t.state.Records) - t.maxRecords; extra > 0 {
		t.state.Records = append([]LuminanceRecord(nil), t.state.Records[extra:]...)
	}
}

// Records returns a copy of all luminance records, oldest first.
func (t *Tracker) Records() []LuminanceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]LuminanceRecord(nil), t.state.Records...)
}

// Latest returns the most recent luminance record.
func (t *Tracker) Latest() (LuminanceRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.state.Records) == 0 {
		return LuminanceRecord{}, false
	}
	return t.state.Records[len(t.state.Records)-1], true
}

// AverageBetween returns the mean luminance of records dated within [start, end], or 0 if none are.
func (t *Tracker) AverageBetween(start, end time.Time) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sum float64
	var n int
	for _, r := range t.state.Records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		sum += r.Luminance
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// AverageForDate returns the mean luminance of the local day containing day.
func (t *Tracker) AverageForDate(day time.Time) float64 {
	start := startOfDay(day)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return t.AverageBetween(start, end)
}

// TrackedSites returns the number of distinct URLs with luminance records.
func (t *Tracker) TrackedSites() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]struct{}, len(t.state.Records))
	for _, r := range t.state.Records {
		seen[r.URL] = struct{}{}
	}
	return len(seen)
}

// AddSavings credits wh watt-hours to url and to every period, rolling
// expired periods over first. Negative amounts are ignored.
func (t *Tracker) AddSavings(url string, wh float64) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.rollLocked(now)

	if wh > 0 {
		t.state.Sites[url] += wh
		t.state.Today.Savings += wh
		t.state.Week.Savings += wh
		t.state.Total.Savings += wh
	}
	return t.summaryLocked(url, now)
}

// Summary returns the savings for url and the current periods.
func (t *Tracker) Summary(url string) Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.summaryLocked(url, t.now())
}

// rollLocked starts new periods once the previous ones expired. Callers hold mu.
func (t *Tracker) rollLocked(now time.Time) {
	if t.state.Today.Reset.IsZero() || !now.Before(t.state.Today.Reset) {
		t.state.Today = Period{Reset: startOfDay(now).AddDate(0, 0, 1)}
	}
	if t.state.Week.Reset.IsZero() || !now.Before(t.state.Week.Reset) {
		t.state.Week = Period{Reset: now.AddDate(0, 0, 7)}
	}
	if t.state.Total.Since.IsZero() {
		t.state.Total.Since = now
	}
}

func (t *Tracker) summaryLocked(url string, now time.Time) Summary {
	s := Summary{
		CurrentSite: t.state.Sites[url],
		Total:       t.state.Total.Savings,
	}
	if now.Before(t.state.Today.Reset) {
		s.Today = t.state.Today.Savings
	}
	if now.Before(t.state.Week.Reset) {
		s.Week = t.state.Week.Savings
	}
	return s
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
