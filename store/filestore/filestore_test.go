package filestore

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/store"
	"github.com/seo-optimizer/content-engine/store/storetest"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	s, err := New(dir, Options{Logger: l, Now: func() time.Time { return storetest.Base }})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository {
		s := newTestStore(t, t.TempDir())
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := newTestStore(t, dir)
	if err := s.AppendRanking(ctx, store.RankingRecord{Keyword: "seo", Position: 4, CheckedAt: storetest.Base}); err != nil {
		t.Fatalf("AppendRanking failed: %v", err)
	}
	if err := s.SaveVariant(ctx, "t1", store.VariantRecord{ID: "a", Impressions: 10, Clicks: 1}); err != nil {
		t.Fatalf("SaveVariant failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, FileName+".tmp")); !os.IsNotExist(err) {
		t.Errorf("Expected temporary file to be renamed away, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !json.Valid(data) {
		t.Fatal("Expected valid JSON on disk")
	}

	reopened := newTestStore(t, dir)
	defer reopened.Close()

	h, ok, err := reopened.RankingHistory(ctx, "seo")
	if err != nil || !ok || len(h.Entries) != 1 {
		t.Fatalf("Expected persisted history, got %+v ok=%v err=%v", h, ok, err)
	}
	test, ok, _ := reopened.Variants(ctx, "t1")
	if !ok || !test.StartDate.Equal(storetest.Base) || len(test.Variants) != 1 {
		t.Errorf("Expected persisted test started at the injected clock, got %+v", test)
	}
}

func TestCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := New(dir, Options{}); err == nil {
		t.Error("Expected an error for a corrupt data file")
	}
}
