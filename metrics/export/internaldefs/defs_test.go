package internaldefs

import (
	"testing"
	"time"

	"github.com/MrEthical07/goSession/liveness"
)

func TestHealth(t *testing.T) {
	at := time.Unix(1700000000, 500_000_000)

	if _, _, ok := Health(liveness.Signal{}); ok {
		t.Fatal("expected no gauges before the first probe")
	}

	up, last, ok := Health(liveness.Signal{Status: liveness.StatusHealthy, LastCheckedAt: at})
	if !ok || up != 1 || last != 1700000000.5 {
		t.Fatalf("healthy: up=%d last=%v ok=%v", up, last, ok)
	}

	up, _, ok = Health(liveness.Signal{Status: liveness.StatusUnhealthy, LastCheckedAt: at})
	if !ok || up != 0 {
		t.Fatalf("unhealthy: up=%d ok=%v", up, ok)
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
