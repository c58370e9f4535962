// Package metrics exposes download and retrieval counters in the Prometheus
// text format. Collectors are fed from the event bus and live on a private
// registry, so tests and multiple servers never collide on registration.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jthickma/webapp/internal/core/event"
)

const namespace = "webapp"

type Collector struct {
	registry *prometheus.Registry

	jobsTotal    *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	filesServed  *prometheus.CounterVec
	servedBytes  prometheus.Counter
	sweptDirs    prometheus.Counter
	unsubscribes []func()
}

// New builds the collectors. active reports the number of job directories and
// may be nil.
func New(active func() int) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Download jobs by family and final status.",
		}, []string{"family", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock time spent running the download tool.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"family"}),
		filesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_served_total",
			Help:      "File retrieval requests by result.",
		}, []string{"result"}),
		servedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "served_bytes_total",
			Help:      "Size of files handed to clients.",
		}),
		sweptDirs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_dirs_total",
			Help:      "Expired job directories removed by the retention sweep.",
		}),
	}

	c.registry.MustRegister(
		c.jobsTotal,
		c.jobDuration,
		c.filesServed,
		c.servedBytes,
		c.sweptDirs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if active != nil {
		c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Job directories currently present under the download root.",
		}, func() float64 { return float64(active()) }))
	}
	return c
}

// Subscribe attaches the collector to bus. The returned function detaches it.
func (c *Collector) Subscribe(bus event.Bus) func() {
	c.unsubscribes = append(c.unsubscribes,
		event.OnJob(bus, c.onJob, event.EventJobCompleted, event.EventJobFailed),
		event.OnFile(bus, c.onFile),
		event.OnSweep(bus, c.onSweep),
	)
	return func() {
		for _, unsubscribe := range c.unsubscribes {
			unsubscribe()
		}
		c.unsubscribes = nil
	}
}

func (c *Collector) onJob(_ context.Context, _ event.EventType, p event.JobEvent) error {
	c.jobsTotal.WithLabelValues(p.Family, p.Status).Inc()
	if p.Duration > 0 {
		c.jobDuration.WithLabelValues(p.Family).Observe(p.Duration.Seconds())
	}
	return nil
}

func (c *Collector) onFile(_ context.Context, typ event.EventType, p event.FileEvent) error {
	if typ == event.EventFileServed {
		c.filesServed.WithLabelValues("served").Inc()
		c.servedBytes.Add(float64(p.Size))
		return nil
	}
	reason := p.Reason
	if reason == "" {
		reason = "rejected"
	}
	c.filesServed.WithLabelValues(reason).Inc()
	return nil
}

func (c *Collector) onSweep(context.Context, event.SweepEvent) error {
	c.sweptDirs.Inc()
	return nil
}

// Handler serves the private registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }
