// Package metrics exposes Prometheus instrumentation for URL issuance and
// post-delete object cleanup.
package metrics

import (
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "filevault"

// Recorder is what the services report to.
type Recorder interface {
	URLIssued(mode string, err error)
	ObjectDeleted(err error)
	CleanupFinished(r models.CleanupReport)
}

// Collector is a prometheus.Collector and a Recorder.
type Collector struct {
	signedURLs     *prometheus.CounterVec
	objectDeletes  *prometheus.CounterVec
	cleanups       *prometheus.CounterVec
	pendingObjects prometheus.Counter
}

// NewCollector returns a new Collector. It must be registered before use.
func NewCollector() *Collector {
	return &Collector{
		signedURLs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "signed_urls_total",
				Help:      "Signed URLs requested from the object store.",
			}, []string{"mode", "outcome"},
		),
		objectDeletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "object_deletes_total",
				Help:      "Object deletions attempted after a committed file delete.",
			}, []string{"outcome"},
		),
		cleanups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cleanups_total",
				Help:      "File delete cleanups by final status.",
			}, []string{"status"},
		),
		pendingObjects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "orphaned_objects_total",
				Help:      "Objects left behind by incomplete cleanups.",
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.signedURLs.Describe(ch)
	c.objectDeletes.Describe(ch)
	c.cleanups.Describe(ch)
	c.pendingObjects.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.signedURLs.Collect(ch)
	c.objectDeletes.Collect(ch)
	c.cleanups.Collect(ch)
	c.pendingObjects.Collect(ch)
}

func (c *Collector) URLIssued(mode string, err error) {
	c.signedURLs.WithLabelValues(mode, outcome(err)).Inc()
}

func (c *Collector) ObjectDeleted(err error) {
	c.objectDeletes.WithLabelValues(outcome(err)).Inc()
}

func (c *Collector) CleanupFinished(r models.CleanupReport) {
	c.cleanups.WithLabelValues(string(r.Status)).Inc()
	c.pendingObjects.Add(float64(len(r.PendingKeys)))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Nop discards everything.
type Nop struct{}

func (Nop) URLIssued(string, error) {}
func (Nop) ObjectDeleted(error) {}
func (Nop) CleanupFinished(models.CleanupReport) {}
