// Package promobserver implements rtps.Observer on top of
// prometheus/client_golang, so a participant's protocol counters can be
// scraped the way the rest of the domain stack's exporters do (grounded on
// runZeroInc-sockstats/pkg/exporter, which wraps a protocol-level counter
// source in prometheus.Collector the same way).
package promobserver

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gortps/rtps"
)

// Observer exports RTPS protocol events as Prometheus metrics. It
// implements rtps.Observer and can be composed with rtps.MetricsObserver
// via rtps.MultiObserver.
type Observer struct {
	datagramsSent     prometheus.Counter
	datagramsReceived prometheus.Counter
	bytesSent         prometheus.Counter
	bytesReceived     prometheus.Counter
	submessagesSent   *prometheus.CounterVec
	protocolErrors    prometheus.Counter
	wireSizeErrors    prometheus.Counter
	outOfResources    *prometheus.CounterVec
	deliveryLatency   prometheus.Histogram
}

// New constructs an Observer and registers its collectors on reg. Pass
// prometheus.DefaultRegisterer to use the global registry.
func New(reg prometheus.Registerer, constLabels prometheus.Labels) *Observer {
	o := &Observer{
		datagramsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtps_datagrams_sent_total", ConstLabels: constLabels,
		}),
		datagramsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtps_datagrams_received_total", ConstLabels: constLabels,
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtps_bytes_sent_total", ConstLabels: constLabels,
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtps_bytes_received_total", ConstLabels: constLabels,
		}),
		submessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtps_submessages_sent_total", ConstLabels: constLabels,
		}, []string{"kind"}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtps_protocol_errors_total", ConstLabels: constLabels,
		}),
		wireSizeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rtps_wire_size_errors_total", ConstLabels: constLabels,
		}),
		outOfResources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rtps_out_of_resources_total", ConstLabels: constLabels,
		}, []string{"entity"}),
		deliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "rtps_delivery_latency_seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(100e-6, 10, 6), // mirrors rtps.LatencyBuckets
		}),
	}
	reg.MustRegister(
		o.datagramsSent, o.datagramsReceived, o.bytesSent, o.bytesReceived,
		o.submessagesSent, o.protocolErrors, o.wireSizeErrors, o.outOfResources,
		o.deliveryLatency,
	)
	return o
}

var _ rtps.Observer = (*Observer)(nil)

func (o *Observer) OnDatagramSent(_ string, bytes int) {
	o.datagramsSent.Inc()
	o.bytesSent.Add(float64(bytes))
}

func (o *Observer) OnDatagramReceived(_ string, bytes int) {
	o.datagramsReceived.Inc()
	o.bytesReceived.Add(float64(bytes))
}

func (o *Observer) OnSubmessageSent(kind string) {
	o.submessagesSent.WithLabelValues(kind).Inc()
}

func (o *Observer) OnProtocolError(_ string) { o.protocolErrors.Inc() }
func (o *Observer) OnWireSizeError()         { o.wireSizeErrors.Inc() }

func (o *Observer) OnOutOfResources(entity string) {
	o.outOfResources.WithLabelValues(entity).Inc()
}

func (o *Observer) OnDeliveryLatency(latencyNs uint64) {
	o.deliveryLatency.Observe(float64(latencyNs) / 1e9)
}
