package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_HoldCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheus(reg, "tt")
	if err != nil {
		t.Fatalf("create collector: %v", err)
	}

	c.HoldProposed()
	c.HoldProposed()
	c.ProposalRejected("slot_taken_by_room")
	c.HoldCommitted()
	c.HoldsExpired(3)
	c.ActiveHolds(5)

	if v := testutil.ToFloat64(c.holdsProposed); v != 2 {
		t.Errorf("期望 proposed=2, 实际=%v", v)
	}
	if v := testutil.ToFloat64(c.holdsExpired); v != 3 {
		t.Errorf("期望 expired=3, 实际=%v", v)
	}
	if v := testutil.ToFloat64(c.activeHolds); v != 5 {
		t.Errorf("期望 active=5, 实际=%v", v)
	}

	expected := `
# HELP tt_hold_rejected_total Total number of rejected hold proposals by reason.
# TYPE tt_hold_rejected_total counter
tt_hold_rejected_total{reason="slot_taken_by_room"} 1
`
	if err := testutil.CollectAndCompare(c.proposalsRejected, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestCollector_AssignmentAndHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheus(reg, "")
	if err != nil {
		t.Fatalf("create collector: %v", err)
	}

	c.AssignmentRun(4, 1, 120*time.Millisecond)
	if v := testutil.ToFloat64(c.assignmentCourses.WithLabelValues("assigned")); v != 4 {
		t.Errorf("期望 assigned=4, 实际=%v", v)
	}
	if n := testutil.CollectAndCount(c.assignmentDuration); n != 1 {
		t.Errorf("期望 1 个直方图, 实际=%d", n)
	}

	c.ObserveRequest("POST", "/api/v1/holds", 201, 5*time.Millisecond)
	if v := testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/api/v1/holds", "201")); v != 1 {
		t.Errorf("期望 requests=1, 实际=%v", v)
	}
}

func TestCollector_RegisterTwiceReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheus(reg, "tt")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPrometheus(reg, "tt")
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	second.HoldCancelled()
	if v := testutil.ToFloat64(first.holdsCancelled); v != 1 {
		t.Errorf("期望共享同一计数器, 实际=%v", v)
	}
}
