// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth tracks the number of elements owned by a named container
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gsml3_container_depth",
			Help: "Number of elements currently owned by an interthread container",
		},
		[]string{"container"},
	)

	// QueueReleasedTotal counts elements released by a container without being read
	QueueReleasedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsml3_container_released_total",
			Help: "Total number of elements released by clear, close or replace",
		},
		[]string{"container"},
	)

	// FramesTotal counts layer 3 frames entering the pipeline by outcome
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsml3_pipeline_frames_total",
			Help: "Total number of layer 3 frames handled by the pipeline",
		},
		[]string{"result"}, // decoded / malformed / unsupported / skipped
	)

	// MessagesTotal counts decoded mobility management messages by type
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsml3_mm_messages_total",
			Help: "Total number of decoded mobility management messages",
		},
		[]string{"type"},
	)

	// DecodeErrorsTotal counts decode failures by cause
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsml3_decode_errors_total",
			Help: "Total number of layer 3 decode failures",
		},
		[]string{"cause"},
	)

	// DecodeLatencySeconds measures frame decode latency
	DecodeLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gsml3_decode_latency_seconds",
			Help:    "Latency of layer 3 frame decoding in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0000001, 2, 20), // 100ns to ~50ms
		},
	)

	// ReportsTotal counts reports handed to reporters
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsml3_reports_total",
			Help: "Total number of reports delivered to reporters",
		},
		[]string{"reporter", "result"},
	)

	// SourcePacketsTotal counts packets read by sources
	SourcePacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsml3_source_packets_total",
			Help: "Total number of packets read by sources",
		},
		[]string{"source", "result"}, // accepted / filtered / invalid
	)
)
