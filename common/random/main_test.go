package random_test

import (
	"strings"
	"testing"

	"github.com/mosheduminer/lmql/common/random"
)

func TestGetUUIDShape(t *testing.T) {
	id := random.GetUUID()
	if len(id) != 32 {
		t.Fatalf("GetUUID length = %d, want 32", len(id))
	}
	if strings.Contains(id, "-") {
		t.Fatalf("GetUUID contains hyphen: %q", id)
	}
}

func TestGetStreamIDUniqueness(t *testing.T) {
	const n = 1000
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := random.GetStreamID()
		if len(id) != 12 {
			t.Fatalf("GetStreamID length = %d, want 12", len(id))
		}
		if seen[id] {
			t.Fatalf("GetStreamID collision after %d draws: %q", i, id)
		}
		seen[id] = true
	}
}
