// Package metrics 排课引擎与 HTTP 层的 Prometheus 指标
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"uni-timetable/backend/internal/engine"
)

const defaultNamespace = "timetable"

// Collector 实现 engine.Metrics，并提供 HTTP 请求指标
type Collector struct {
	holdsProposed      prometheus.Counter
	proposalsRejected  *prometheus.CounterVec
	holdsCommitted     prometheus.Counter
	holdsCancelled     prometheus.Counter
	holdsExpired       prometheus.Counter
	attributionsRevert prometheus.Counter
	activeHolds        prometheus.Gauge
	assignmentCourses  *prometheus.CounterVec
	assignmentDuration prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

var _ engine.Metrics = (*Collector)(nil)

// NewPrometheus 在 reg 上注册全部指标；reg 为 nil 时使用默认注册表
// 重复注册时复用已存在的指标
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	c := &Collector{
		holdsProposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hold", Name: "proposed_total",
			Help: "Total number of holds created.",
		}),
		proposalsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hold", Name: "rejected_total",
			Help: "Total number of rejected hold proposals by reason.",
		}, []string{"reason"}),
		holdsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hold", Name: "committed_total",
			Help: "Total number of holds committed into attributions.",
		}),
		holdsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hold", Name: "cancelled_total",
			Help: "Total number of holds cancelled.",
		}),
		holdsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hold", Name: "expired_total",
			Help: "Total number of holds expired.",
		}),
		attributionsRevert: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "attribution", Name: "reverted_total",
			Help: "Total number of attributions reverted.",
		}),
		activeHolds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "hold", Name: "active",
			Help: "Current number of active holds.",
		}),
		assignmentCourses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "assignment", Name: "courses_total",
			Help: "Courses processed by automatic assignment by outcome.",
		}, []string{"outcome"}),
		assignmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "assignment", Name: "duration_seconds",
			Help:    "Automatic assignment run duration in seconds.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	var err error
	register := func(col prometheus.Collector) prometheus.Collector {
		if err != nil {
			return col
		}
		if rerr := reg.Register(col); rerr != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(rerr, &are) {
				return are.ExistingCollector
			}
			err = rerr
		}
		return col
	}

	c.holdsProposed = register(c.holdsProposed).(prometheus.Counter)
	c.proposalsRejected = register(c.proposalsRejected).(*prometheus.CounterVec)
	c.holdsCommitted = register(c.holdsCommitted).(prometheus.Counter)
	c.holdsCancelled = register(c.holdsCancelled).(prometheus.Counter)
	c.holdsExpired = register(c.holdsExpired).(prometheus.Counter)
	c.attributionsRevert = register(c.attributionsRevert).(prometheus.Counter)
	c.activeHolds = register(c.activeHolds).(prometheus.Gauge)
	c.assignmentCourses = register(c.assignmentCourses).(*prometheus.CounterVec)
	c.assignmentDuration = register(c.assignmentDuration).(prometheus.Histogram)
	c.httpRequests = register(c.httpRequests).(*prometheus.CounterVec)
	c.httpLatency = register(c.httpLatency).(*prometheus.HistogramVec)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ── engine.Metrics ──

func (c *Collector) HoldProposed() { c.holdsProposed.Inc() }

func (c *Collector) ProposalRejected(kind string) {
	c.proposalsRejected.WithLabelValues(kind).Inc()
}

func (c *Collector) HoldCommitted() { c.holdsCommitted.Inc() }

func (c *Collector) HoldCancelled() { c.holdsCancelled.Inc() }

func (c *Collector) HoldsExpired(n int) { c.holdsExpired.Add(float64(n)) }

func (c *Collector) AttributionReverted() { c.attributionsRevert.Inc() }

func (c *Collector) ActiveHolds(n int) { c.activeHolds.Set(float64(n)) }

func (c *Collector) AssignmentRun(assigned, unassigned int, elapsed time.Duration) {
	c.assignmentCourses.WithLabelValues("assigned").Add(float64(assigned))
	c.assignmentCourses.WithLabelValues("unassigned").Add(float64(unassigned))
	c.assignmentDuration.Observe(elapsed.Seconds())
}

// ObserveRequest 记录一次 HTTP 请求，route 为路由模板（如 /api/v1/holds/:id）
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
