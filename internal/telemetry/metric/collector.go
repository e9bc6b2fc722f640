package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pinger is a storage backend that can report its health.
type Pinger interface {
	Backend() string
	Ping(ctx context.Context) error
}

// StorageCollector reports postvote_storage_up by pinging the backend at
// scrape time.
type StorageCollector struct {
	pinger  Pinger
	timeout time.Duration
	up      *prometheus.Desc
}

// NewStorageCollector creates a collector for pinger. Each scrape pings
// with the given timeout.
func NewStorageCollector(pinger Pinger, timeout time.Duration) *StorageCollector {
	return &StorageCollector{
		pinger:  pinger,
		timeout: timeout,
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "up"),
			"Whether the storage backend answered a ping (1) or not (0).",
			[]string{"backend"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StorageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *StorageCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	v := 1.0
	if err := c.pinger.Ping(ctx); err != nil {
		v = 0
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, v, c.pinger.Backend())
}
