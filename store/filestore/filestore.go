// Package filestore keeps engine data in a single JSON file.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/ranking"
	"github.com/seo-optimizer/content-engine/store"
)

// FileName is the data file inside the data directory.
const FileName = "engine.json"

const defaultFlushInterval = 5 * time.Minute

// Options configures a Store.
type Options struct {
	// FlushInterval is the periodic write interval. Zero means five minutes.
	FlushInterval time.Duration
	Logger        *logrus.Logger
	Now           func() time.Time
}

type snapshot struct {
	Rankings map[string]*ranking.History `json:"rankings"`
	Tests    map[string]*store.ABTest    `json:"tests"`
	Alerts   []alerts.Alert              `json:"alerts"`
}

// Store is a store.Repository backed by a JSON file. Every change requests
// a write; the background writer coalesces requests and also flushes on a
// timer. Writes go to a temporary file that is renamed into place.
type Store struct {
	mutex       sync.RWMutex
	data        snapshot
	filePath    string
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     sync.WaitGroup
	closeOnce   sync.Once
	logger      *logrus.Logger
	now         func() time.Time
}

var _ store.Repository = (*Store)(nil)

// New opens (or creates) the data file under dataDir and starts the writer.
func New(dataDir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		data: snapshot{
			Rankings: map[string]*ranking.History{},
			Tests:    map[string]*store.ABTest{},
		},
		filePath:    filepath.Join(dataDir, FileName),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", s.filePath, err)
	}

	s.stopped.Add(1)
	go s.backgroundWriter(opts.FlushInterval)
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Rankings != nil {
		s.data.Rankings = snap.Rankings
	}
	if snap.Tests != nil {
		s.data.Tests = snap.Tests
	}
	s.data.Alerts = snap.Alerts
	return nil
}

// save writes the snapshot to a temporary file and renames it into place.
func (s *Store) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.data)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (s *Store) backgroundWriter(interval time.Duration) {
	defer s.stopped.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.WithError(err).WithField("file", s.filePath).Error("engine data write failed")
		}
	}
}

// requestWrite signals the writer; a pending request absorbs this one.
func (s *Store) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

// Close stops the writer and flushes the final state.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.stopped.Wait()
		err = s.save()
	})
	return err
}

// AppendRanking adds a check to the keyword's history. The stored URL follows
// the most recent record.
func (s *Store) AppendRanking(ctx context.Context, r store.RankingRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	h, ok := s.data.Rankings[r.Keyword]
	if !ok {
		h = &ranking.History{Keyword: r.Keyword}
		s.data.Rankings[r.Keyword] = h
	}
	if r.URL != "" {
		h.URL = r.URL
	}
	h.Entries = append(h.Entries, r.Entry())
	s.mutex.Unlock()

	s.requestWrite()
	return nil
}

// RankingHistory returns a copy of the keyword's history.
func (s *Store) RankingHistory(ctx context.Context, keyword string) (ranking.History, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	h, ok := s.data.Rankings[keyword]
	if !ok {
		return ranking.History{}, false, nil
	}
	return copyHistory(h), true, nil
}

// RankingHistories returns every history, sorted by keyword.
func (s *Store) RankingHistories(ctx context.Context) ([]ranking.History, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]ranking.History, 0, len(s.data.Rankings))
	for _, h := range s.data.Rankings {
		out = append(out, copyHistory(h))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out, nil
}

func copyHistory(h *ranking.History) ranking.History {
	c := *h
	c.Entries = append([]ranking.Entry(nil), h.Entries...)
	return c
}

// SaveVariant inserts or replaces a variant. The test is created on first
// use, starting at the record's StartDate or now.
func (s *Store) SaveVariant(ctx context.Context, testID string, r store.VariantRecord) error {
	if err := store.ValidateTestID(testID); err != nil {
		return err
	}
	v, err := r.Variant()
	if err != nil {
		return err
	}

	s.mutex.Lock()
	t, ok := s.data.Tests[testID]
	if !ok {
		start := s.now().UTC()
		if r.StartDate != nil {
			start = r.StartDate.UTC()
		}
		t = &store.ABTest{ID: testID, StartDate: start}
		s.data.Tests[testID] = t
	}
	replaced := false
	for i := range t.Variants {
		if t.Variants[i].ID == v.ID {
			t.Variants[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		t.Variants = append(t.Variants, v)
	}
	s.mutex.Unlock()

	s.requestWrite()
	return nil
}

// Variants returns the test and its variants.
func (s *Store) Variants(ctx context.Context, testID string) (store.ABTest, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.data.Tests[testID]
	if !ok {
		return store.ABTest{}, false, nil
	}
	c := *t
	c.Variants = append(c.Variants[:0:0], t.Variants...)
	return c, true, nil
}

// SaveAlerts inserts new alerts and replaces ones with a known id.
func (s *Store) SaveAlerts(ctx context.Context, as []alerts.Alert) error {
	if len(as) == 0 {
		return nil
	}

	s.mutex.Lock()
	index := make(map[string]int, len(s.data.Alerts))
	for i, a := range s.data.Alerts {
		index[a.ID] = i
	}
	for _, a := range as {
		if i, ok := index[a.ID]; ok {
			s.data.Alerts[i] = a
			continue
		}
		index[a.ID] = len(s.data.Alerts)
		s.data.Alerts = append(s.data.Alerts, a)
	}
	s.mutex.Unlock()

	s.requestWrite()
	return nil
}

// Alerts lists matching alerts, oldest first.
func (s *Store) Alerts(ctx context.Context, f store.AlertFilter) ([]alerts.Alert, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := []alerts.Alert{}
	for _, a := range s.data.Alerts {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TriggeredAt.Before(out[j].TriggeredAt) })
	return out, nil
}

// AcknowledgeAlert marks an alert as seen.
func (s *Store) AcknowledgeAlert(ctx context.Context, id string) error {
	return s.updateAlert(id, (*alerts.Alert).Acknowledge)
}

// DismissAlert marks an alert as handled.
func (s *Store) DismissAlert(ctx context.Context, id string) error {
	return s.updateAlert(id, (*alerts.Alert).Dismiss)
}

func (s *Store) updateAlert(id string, apply func(*alerts.Alert)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.data.Alerts {
		if s.data.Alerts[i].ID == id {
			apply(&s.data.Alerts[i])
			s.requestWrite()
			return nil
		}
	}
	return fmt.Errorf("alert %s: %w", id, engineerr.ErrNotFound)
}
