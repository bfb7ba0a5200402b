package engine

import "time"

// Metrics 引擎指标上报接口，Prometheus 实现见 internal/metrics
type Metrics interface {
	HoldProposed()
	ProposalRejected(kind string)
	HoldCommitted()
	HoldCancelled()
	HoldsExpired(n int)
	AttributionReverted()
	ActiveHolds(n int)
	AssignmentRun(assigned, unassigned int, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) HoldProposed() {}
func (nopMetrics) ProposalRejected(string) {}
func (nopMetrics) HoldCommitted() {}
func (nopMetrics) HoldCancelled() {}
func (nopMetrics) HoldsExpired(int) {}
func (nopMetrics) AttributionReverted() {}
func (nopMetrics) ActiveHolds(int) {}
func (nopMetrics) AssignmentRun(int, int, time.Duration) {}
