package core

// metrics.go – Prometheus wiring for the snapshot service's observability
// hooks, registered against a private registry rather than the global
// default so multiple SnapshotService instances (as in tests) don't
// collide on metric names.

import "github.com/prometheus/client_golang/prometheus"

// SnapshotMetrics is the set of observability hooks AttemptSnapshot calls
// at each step of its algorithm. A NopMetrics implementation is used when
// the caller does not want Prometheus wired in (e.g. unit tests).
type SnapshotMetrics interface {
	SnapshotCreated(hash string, height int64)
	HeightIntervalConditionMet()
	HeightIntervalConditionNotMet()
	NoBlocksWithinHeightInterval()
	SnapshotInvalidData()
	SnapshotWriteToDiskSuccess()
	SnapshotWriteToDiskFailure()
	SnapshotCBAcceptQueryFailed()
	SetPartitionSizes(accepted, awaiting, waitingForAcceptance int)
	SetTipHeights(minTipHeight, minWaitingHeight int64)
}

// NopMetrics discards every observation; the zero value is ready to use.
type NopMetrics struct{}

func (NopMetrics) SnapshotCreated(string, int64)    {}
func (NopMetrics) HeightIntervalConditionMet()      {}
func (NopMetrics) HeightIntervalConditionNotMet()   {}
func (NopMetrics) NoBlocksWithinHeightInterval()    {}
func (NopMetrics) SnapshotInvalidData()             {}
func (NopMetrics) SnapshotWriteToDiskSuccess()      {}
func (NopMetrics) SnapshotWriteToDiskFailure()      {}
func (NopMetrics) SnapshotCBAcceptQueryFailed()     {}
func (NopMetrics) SetPartitionSizes(int, int, int)  {}
func (NopMetrics) SetTipHeights(int64, int64)       {}

// PrometheusMetrics implements SnapshotMetrics against a dedicated registry.
type PrometheusMetrics struct {
	snapshotCount                          prometheus.Counter
	lastSnapshotHash                       *prometheus.GaugeVec
	lastSnapshotHeight                     prometheus.Gauge
	nextSnapshotHeight                     prometheus.Gauge
	accepted                               prometheus.Gauge
	awaiting                               prometheus.Gauge
	waitingForAcceptance                   prometheus.Gauge
	snapshotWriteToDiskSuccess             prometheus.Counter
	snapshotWriteToDiskFailure             prometheus.Counter
	snapshotHeightIntervalConditionMet     prometheus.Counter
	snapshotHeightIntervalConditionNotMet  prometheus.Counter
	snapshotNoBlocksWithinHeightInterval   prometheus.Counter
	snapshotInvalidData                    prometheus.Counter
	snapshotCBAcceptQueryFailed            prometheus.Counter
	minTipHeight                           prometheus.Gauge
	minWaitingHeight                       prometheus.Gauge
}

// NewPrometheusMetrics registers every snapshot-service metric against reg
// and returns a SnapshotMetrics backed by them.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		snapshotCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_count", Help: "Total number of snapshots successfully created.",
		}),
		lastSnapshotHash: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "last_snapshot_hash_info", Help: "Labeled gauge carrying the most recent snapshot hash.",
		}, []string{"hash"}),
		lastSnapshotHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "last_snapshot_height", Help: "Height of the most recently committed snapshot.",
		}),
		nextSnapshotHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "next_snapshot_height", Help: "Height targeted by the most recent snapshot attempt.",
		}),
		accepted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_accepted_checkpoints", Help: "Checkpoint blocks currently in the accepted state.",
		}),
		awaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_awaiting_checkpoints", Help: "Checkpoint blocks currently awaiting acceptance.",
		}),
		waitingForAcceptance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_waiting_for_acceptance_checkpoints", Help: "Checkpoint blocks currently waiting for acceptance.",
		}),
		snapshotWriteToDiskSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_write_to_disk_success_total", Help: "Successful snapshot disk writes.",
		}),
		snapshotWriteToDiskFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_write_to_disk_failure_total", Help: "Failed snapshot disk writes.",
		}),
		snapshotHeightIntervalConditionMet: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_height_interval_condition_met_total", Help: "Times the tip-height interval condition was satisfied.",
		}),
		snapshotHeightIntervalConditionNotMet: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_height_interval_condition_not_met_total", Help: "Times the tip-height interval condition was not satisfied.",
		}),
		snapshotNoBlocksWithinHeightInterval: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_no_blocks_within_height_interval_total", Help: "Attempts that found no accepted block within the height interval.",
		}),
		snapshotInvalidData: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_invalid_data_total", Help: "Attempts that found a referenced checkpoint block missing.",
		}),
		snapshotCBAcceptQueryFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_cb_accept_query_failed_total", Help: "Failures querying checkpoint acceptance state.",
		}),
		minTipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_min_tip_height", Help: "Minimum height among current checkpoint tips.",
		}),
		minWaitingHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_min_waiting_height", Help: "Minimum height among blocks waiting for acceptance.",
		}),
	}
	reg.MustRegister(
		m.snapshotCount, m.lastSnapshotHash, m.lastSnapshotHeight, m.nextSnapshotHeight,
		m.accepted, m.awaiting, m.waitingForAcceptance,
		m.snapshotWriteToDiskSuccess, m.snapshotWriteToDiskFailure,
		m.snapshotHeightIntervalConditionMet, m.snapshotHeightIntervalConditionNotMet,
		m.snapshotNoBlocksWithinHeightInterval, m.snapshotInvalidData, m.snapshotCBAcceptQueryFailed,
		m.minTipHeight, m.minWaitingHeight,
	)
	return m
}

func (m *PrometheusMetrics) SnapshotCreated(hash string, height int64) {
	m.snapshotCount.Inc()
	m.lastSnapshotHash.Reset()
	m.lastSnapshotHash.WithLabelValues(hash).Set(1)
	m.lastSnapshotHeight.Set(float64(height))
	m.nextSnapshotHeight.Set(float64(height))
}

func (m *PrometheusMetrics) HeightIntervalConditionMet() { m.snapshotHeightIntervalConditionMet.Inc() }
func (m *PrometheusMetrics) HeightIntervalConditionNotMet() {
	m.snapshotHeightIntervalConditionNotMet.Inc()
}
func (m *PrometheusMetrics) NoBlocksWithinHeightInterval() { m.snapshotNoBlocksWithinHeightInterval.Inc() }
func (m *PrometheusMetrics) SnapshotInvalidData()          { m.snapshotInvalidData.Inc() }
func (m *PrometheusMetrics) SnapshotWriteToDiskSuccess()   { m.snapshotWriteToDiskSuccess.Inc() }
func (m *PrometheusMetrics) SnapshotWriteToDiskFailure()   { m.snapshotWriteToDiskFailure.Inc() }
func (m *PrometheusMetrics) SnapshotCBAcceptQueryFailed()  { m.snapshotCBAcceptQueryFailed.Inc() }

func (m *PrometheusMetrics) SetPartitionSizes(accepted, awaiting, waitingForAcceptance int) {
	m.accepted.Set(float64(accepted))
	m.awaiting.Set(float64(awaiting))
	m.waitingForAcceptance.Set(float64(waitingForAcceptance))
}

func (m *PrometheusMetrics) SetTipHeights(minTipHeight, minWaitingHeight int64) {
	m.minTipHeight.Set(float64(minTipHeight))
	m.minWaitingHeight.Set(float64(minWaitingHeight))
}
