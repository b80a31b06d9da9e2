// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts extraction and conversion outcomes and writes them
// in the Prometheus text format for the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/tiddly-engine/internal/tiddler"
)

// Recorder owns a private registry so several runs in one process do not
// collide.
type Recorder struct {
	registry    *prometheus.Registry
	extracted   prometheus.Counter
	rejected    *prometheus.CounterVec
	fieldErrors *prometheus.CounterVec
	conversions *prometheus.CounterVec
}

// New creates a Recorder with all counters registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		extracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiddly_records_extracted_total",
			Help: "Tiddlers extracted from wiki exports.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiddly_records_rejected_total",
			Help: "Store-area blocks left out, by reason.",
		}, []string{"reason"}),
		fieldErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiddly_field_errors_total",
			Help: "Attributes that failed to normalize, by field.",
		}, []string{"field"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiddly_conversions_total",
			Help: "Format conversions, by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.extracted, r.rejected, r.fieldErrors, r.conversions)
	return r
}

// Registry returns the registry holding the counters.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Extracted adds n extracted tiddlers.
func (r *Recorder) Extracted(n int) {
	r.extracted.Add(float64(n))
}

// Conversion records the outcome of one conversion.
func (r *Recorder) Conversion(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.conversions.WithLabelValues(result).Inc()
}

// Scanner returns a tiddler scanner whose hooks count rejections and field
// errors and log them at debug level.
func (r *Recorder) Scanner(log logrus.FieldLogger) tiddler.Scanner {
	return tiddler.Scanner{
		OnReject: func(rej *tiddler.Rejection) {
			r.rejected.WithLabelValues(string(rej.Reason)).Inc()
			log.WithFields(logrus.Fields{
				"reason": rej.Reason,
				"title":  rej.Title,
				"offset": rej.Offset,
			}).Debug("block rejected")
		},
		OnFieldError: func(fe *tiddler.FieldError) {
			r.fieldErrors.WithLabelValues(fe.Field).Inc()
			log.WithFields(logrus.Fields{
				"field": fe.Field,
				"value": fe.Value,
			}).WithError(fe.Err).Debug("field ignored")
		},
	}
}

// WriteFile writes all counters to path atomically. An empty path is a
// no-op.
func (r *Recorder) WriteFile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
