package rules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store/storetest"
)

func newCircular(t *testing.T, fake *storetest.FakeStore, opts CircularFlowOptions) *CircularFlowDetector {
	t.Helper()
	d, err := NewCircularFlowDetector(fake, opts, nil, nil)
	if err != nil {
		t.Fatalf("NewCircularFlowDetector failed: %v", err)
	}
	return d
}

func TestCircular_FiresOnReturnPath(t *testing.T) {
	fake := storetest.New()
	fake.StubQuery("length(path) AS pathLength", []store.Record{
		{"pathLength": int64(2)},
	})
	d := newCircular(t, fake, DefaultCircularFlowOptions())

	alert, err := d.Detect(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if alert == nil {
		t.Fatal("Expected circular-flow alert")
	}

	circ, ok := alert.(*CircularFlowAlert)
	if !ok {
		t.Fatalf("Expected *CircularFlowAlert, got %T", alert)
	}
	// A 2-hop return path plus the queried edge closes a 3-edge cycle
	if circ.CycleLength != 3 {
		t.Errorf("CycleLength = %d, want 3", circ.CycleLength)
	}
	if !strings.Contains(circ.Reason(), "length 3") {
		t.Errorf("Reason should name the cycle length: %q", circ.Reason())
	}
}

func TestCircular_DirectReturnIsLengthTwo(t *testing.T) {
	fake := storetest.New()
	fake.StubQuery("length(path) AS pathLength", []store.Record{
		{"pathLength": int64(1)},
	})
	d := newCircular(t, fake, DefaultCircularFlowOptions())

	alert, err := d.Detect(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if circ := alert.(*CircularFlowAlert); circ.CycleLength != 2 {
		t.Errorf("A direct repayment is a 2-edge cycle, got %d", circ.CycleLength)
	}
}

func TestCircular_NoReturnPathIsClean(t *testing.T) {
	fake := storetest.New()
	d := newCircular(t, fake, DefaultCircularFlowOptions())

	alert, err := d.Detect(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("Absence of a cycle must not be an error: %v", err)
	}
	if alert != nil {
		t.Errorf("Expected no alert without a return path, got %+v", alert)
	}
}

func TestCircular_StoreFailurePropagates(t *testing.T) {
	fake := storetest.New()
	storeDown := errors.New("server unavailable")
	fake.FailQuery("length(path)", storeDown)
	d := newCircular(t, fake, DefaultCircularFlowOptions())

	if _, err := d.Detect(context.Background(), "tx-1"); !errors.Is(err, storeDown) {
		t.Fatalf("Expected store failure to propagate, got %v", err)
	}
}

func TestCircular_HopBoundValidatedBeforeQueryText(t *testing.T) {
	fake := storetest.New()

	for _, hops := range []int{0, -1, 9, 100} {
		if _, err := NewCircularFlowDetector(fake, CircularFlowOptions{MaxHops: hops}, nil, nil); err == nil {
			t.Errorf("Expected hop bound %d to be rejected", hops)
		}
	}
}

func TestCircular_HopBoundAppearsInPattern(t *testing.T) {
	fake := storetest.New()
	d := newCircular(t, fake, CircularFlowOptions{MaxHops: 3})

	if _, err := d.Detect(context.Background(), "tx-1"); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected one query, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Query, "*1..3") {
		t.Errorf("Expected variable-length bound *1..3 in query, got: %s", calls[0].Query)
	}
	if calls[0].Params["txId"] != "tx-1" {
		t.Errorf("txId must travel as a bound parameter, got %v", calls[0].Params)
	}
}
