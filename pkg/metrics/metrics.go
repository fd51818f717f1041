// Package metrics holds the prometheus collectors for backup and restore runs.
// Package metrics 备份/恢复相关的 prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bento_sync"

// Outcome 同步结果标签
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeSkipped  = "skipped"
	OutcomeDeclined = "declined"
)

// Sync groups the counters one orchestrator reports to.
type Sync struct {
	Runs          *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	Conflicts     prometheus.Counter
	RemoteCalls   *prometheus.CounterVec
	LastBackupSec prometheus.Gauge
}

// NewSync creates the collectors and registers them on reg (skipped when reg is nil).
// NewSync 创建指标，reg 为 nil 时不注册
func NewSync(reg prometheus.Registerer) *Sync {
	s := &Sync{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Backup and restore runs by action, mode, destination and outcome.",
		}, []string{"action", "mode", "destination", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of backup and restore runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"action"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_conflicts_total",
			Help:      "Uploads gated because the remote copy was newer than the local snapshot.",
		}),
		RemoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "WebDAV requests by method and result.",
		}, []string{"method", "result"}),
		LastBackupSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_backup_timestamp_seconds",
			Help:      "Unix time of the last successful scheduled backup.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.Runs, s.Duration, s.Conflicts, s.RemoteCalls, s.LastBackupSec)
	}
	return s
}

// Observe records one finished run.
func (s *Sync) Observe(action, mode, destination, outcome string, started time.Time) {
	if s == nil {
		return
	}
	s.Runs.WithLabelValues(action, mode, destination, outcome).Inc()
	s.Duration.WithLabelValues(action).Observe(time.Since(started).Seconds())
}

// Remote records one WebDAV request result ("ok", "status", "transport").
func (s *Sync) Remote(method, result string) {
	if s == nil {
		return
	}
	s.RemoteCalls.WithLabelValues(method, result).Inc()
}

func (s *Sync) Conflict() {
	if s == nil {
		return
	}
	s.Conflicts.Inc()
}

func (s *Sync) BackupRecorded(t time.Time) {
	if s == nil {
		return
	}
	s.LastBackupSec.Set(float64(t.Unix()))
}
