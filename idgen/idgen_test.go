package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestULIDIsParseableAndOrdered(t *testing.T) {
	gen := ULID()
	prev := ""
	for i := 0; i < 50; i++ {
		id := gen()
		if _, err := ulid.Parse(id); err != nil {
			t.Fatalf("Expected valid ULID, got %q: %v", id, err)
		}
		if prev != "" && id <= prev {
			t.Errorf("Expected %q to sort after %q", id, prev)
		}
		prev = id
	}
}

func TestUUIDv7(t *testing.T) {
	id := UUIDv7()()
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("Expected valid UUID, got %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("Expected version 7, got %d", parsed.Version())
	}
}

func TestPrefixedAndSequence(t *testing.T) {
	gen := Prefixed("alert-", Sequence("n"))
	if got := gen(); got != "alert-n1" {
		t.Errorf("Expected alert-n1, got %s", got)
	}
	if got := gen(); !strings.HasSuffix(got, "n2") {
		t.Errorf("Expected suffix n2, got %s", got)
	}
}
