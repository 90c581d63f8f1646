package internaldefs

import (
	"strings"
	"testing"

	"github.com/MrEthical07/authcore"
)

func TestCounterDefsUnique(t *testing.T) {
	names := map[string]bool{}
	ids := map[authcore.MetricID]bool{}
	for _, def := range CounterDefs {
		if names[def.Name] || ids[def.ID] {
			t.Fatalf("duplicate definition %s", def.Name)
		}
		names[def.Name] = true
		ids[def.ID] = true
		if !strings.HasPrefix(def.Name, "authcore_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %s", def.Name)
		}
	}
	if ids[authcore.MetricValidateLatency] {
		t.Fatal("latency histogram must not be exported as a counter")
	}
}

func TestBucketHelpers(t *testing.T) {
	if len(HistogramBoundSuffix) != len(HistogramBounds)+1 {
		t.Fatal("suffixes must cover every bound plus +Inf")
	}
	n := NormalizeBuckets([]uint64{1, 2})
	c := CumulativeBuckets(n)
	if c[0] != 1 || c[1] != 3 || c[7] != 3 {
		t.Fatalf("unexpected cumulative buckets %v", c)
	}
}
