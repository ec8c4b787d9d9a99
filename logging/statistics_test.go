package logging

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestStatistics(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	dir := t.TempDir()

	s, err := NewStatistics(dir, true, clock)
	if err != nil {
		t.Fatalf("NewStatistics failed: %v", err)
	}
	s.TrackVisitor("10.0.0.1")
	s.TrackVisitor("10.0.0.2")
	s.UniqueVisitors["10.0.0.3"] = now.Add(-48 * time.Hour)

	s.TrackAnalysis("/api/features", 30, false)
	s.TrackAnalysis("/api/features", 50, true)
	s.TrackAnalysis("/api/clusters", 10, false)

	summary := s.Summary()
	if summary["uniqueVisitors24h"] != 2 {
		t.Errorf("Expected 2 recent visitors, got %v", summary["uniqueVisitors24h"])
	}
	if summary["totalRequests"] != 3 {
		t.Errorf("Expected 3 requests, got %v", summary["totalRequests"])
	}
	if rate := summary["errorRate"].(float64); rate < 33.33 || rate > 33.34 {
		t.Errorf("Expected error rate 33.33, got %v", rate)
	}
	if avg := summary["averageLoadTime"].(float64); avg != 30 {
		t.Errorf("Expected average 30, got %v", avg)
	}
	top := summary["topEndpoints"].([]EndpointCount)
	if len(top) != 2 || top[0].Endpoint != "/api/features" || top[0].Count != 2 {
		t.Errorf("Unexpected endpoint breakdown %+v", top)
	}

	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := NewStatistics(dir, false, clock)
	if err != nil {
		t.Fatalf("NewStatistics failed: %v", err)
	}
	if loaded.Requests() != 3 || loaded.Endpoints["/api/clusters"] != 1 {
		t.Errorf("Expected persisted counters, got %d requests %v", loaded.Requests(), loaded.Endpoints)
	}
	if _, ok := loaded.Summary()["topEndpoints"]; ok {
		t.Error("Expected endpoint breakdown hidden outside dev mode")
	}
}

func TestNewLogger(t *testing.T) {
	if l := NewLogger("debug"); l.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %s", l.GetLevel())
	}
	if l := NewLogger("nonsense"); l.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info fallback, got %s", l.GetLevel())
	}
	if e := NewLoggerWithService("info", "engine"); e.Data["service"] != "engine" {
		t.Errorf("Expected service field, got %v", e.Data)
	}
}
