package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"objectgraph/backend/internal/objectgraph"
)

type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer, store func() *objectgraph.Store) *metrics {
	factory := promauto.With(reg)
	m := &metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "objectgraph_http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "objectgraph_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"method", "path"},
		),
	}
	reg.MustRegister(&graphCollector{store: store})
	return m
}

// middleware records request counts and latencies by route pattern
func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

var (
	nodesDesc = prometheus.NewDesc(
		"objectgraph_nodes",
		"Number of nodes in the session graph",
		[]string{"type"}, nil,
	)
	edgesDesc = prometheus.NewDesc(
		"objectgraph_edges",
		"Number of edges in the session graph; mirrored edges count once",
		[]string{"kind"}, nil,
	)
)

// graphCollector reports store counts at scrape time, from one read lock
type graphCollector struct {
	store func() *objectgraph.Store
}

func (g *graphCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- nodesDesc
	ch <- edgesDesc
}

func (g *graphCollector) Collect(ch chan<- prometheus.Metric) {
	counts := g.store().Counts()
	for _, t := range objectgraph.NodeTypes {
		ch <- prometheus.MustNewConstMetric(nodesDesc, prometheus.GaugeValue, float64(counts.Nodes[t]), string(t))
	}
	for _, kind := range objectgraph.EdgeKinds {
		ch <- prometheus.MustNewConstMetric(edgesDesc, prometheus.GaugeValue, float64(counts.Edges[kind]), kind)
	}
}
