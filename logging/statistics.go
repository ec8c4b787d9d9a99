// Package logging provides the logger factory and request statistics.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// StatisticsFile is the file statistics persist to inside the data dir.
const StatisticsFile = "statistics.json"

// Statistics represents the collected request statistics
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"`   // IP -> Last Visit Time
	AnalysisRequests int                  `json:"analysisRequests"` // Total number of analysis requests
	ErrorCount       int                  `json:"errorCount"`
	Endpoints        map[string]int       `json:"endpoints"` // route -> Count
	AverageLoadTime  float64              `json:"averageLoadTime"`
	TotalLoadTime    float64              `json:"totalLoadTime"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	filePath string
	devMode  bool
	now      func() time.Time
	mutex    sync.RWMutex
}

// NewStatistics loads statistics from dataDir if present. In dev mode the
// summary includes the per-endpoint breakdown.
func NewStatistics(dataDir string, devMode bool, now func() time.Time) (*Statistics, error) {
	if now == nil {
		now = time.Now
	}
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		Endpoints:      make(map[string]int),
		filePath:       filepath.Join(dataDir, StatisticsFile),
		devMode:        devMode,
		now:            now,
	}
	if err := s.Load(); err != nil {
		return s, err
	}
	return s, nil
}

// TrackVisitor records a unique visitor
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = s.now()
}

// TrackAnalysis records one analysis request against its route.
func (s *Statistics) TrackAnalysis(endpoint string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++
	if endpoint != "" {
		s.Endpoints[endpoint]++
	}
	if hasError {
		s.ErrorCount++
	}
	s.TotalLoadTime += loadTime
	s.AverageLoadTime = s.TotalLoadTime / float64(s.AnalysisRequests)
}

// Requests returns the number of tracked analysis requests.
func (s *Statistics) Requests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.AnalysisRequests
}

func (s *Statistics) uniqueVisitorsLocked() int {
	count := 0
	cutoff := s.now().Add(-24 * time.Hour)
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

func (s *Statistics) errorRateLocked() float64 {
	if s.AnalysisRequests == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.AnalysisRequests) * 100
}

// EndpointCount is one row of the endpoint breakdown.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int    `json:"count"`
}

// topEndpointsLocked returns the n busiest routes, ties by name.
func (s *Statistics) topEndpointsLocked(n int) []EndpointCount {
	out := make([]EndpointCount, 0, len(s.Endpoints))
	for e, c := range s.Endpoints {
		out = append(out, EndpointCount{Endpoint: e, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary returns the public view of the statistics. The endpoint breakdown
// is only included in dev mode.
func (s *Statistics) Summary() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	summary := map[string]interface{}{
		"uniqueVisitors24h": s.uniqueVisitorsLocked(),
		"totalRequests":     s.AnalysisRequests,
		"errorRate":         s.errorRateLocked(),
		"averageLoadTime":   s.AverageLoadTime,
	}
	if s.devMode {
		summary["topEndpoints"] = s.topEndpointsLocked(5)
	}
	return summary
}

// Save persists the statistics to a file
func (s *Statistics) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = s.now()
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("could not create statistics directory: %w", err)
	}
	file, err := os.Create(s.filePath)
	if err != nil {
		return fmt.Errorf("could not create statistics file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}
	return nil
}

// Load reads the statistics from a file. A missing file is not an error.
func (s *Statistics) Load() error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}
	defer file.Close()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.Endpoints == nil {
		s.Endpoints = make(map[string]int)
	}
	return nil
}
