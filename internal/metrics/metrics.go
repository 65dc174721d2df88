// Package metrics registers the prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan outcome labels. The user-facing MatchResult contract stays
// uniform; these let operators tell service failures from genuine
// non-matches.
const (
	OutcomeMatch       = "match"
	OutcomeNoMatch     = "no_match"
	OutcomeVisionError = "vision_error"
	OutcomeBadReply    = "bad_reply"
	OutcomeUnknownID   = "unknown_id"
	OutcomeNoImage     = "no_image"
)

var (
	// ScansTotal counts identification calls by outcome.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopsnap_scans_total",
		Help: "Identification calls by outcome.",
	}, []string{"outcome"})

	// RequestDuration observes HTTP request latency by route and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopsnap_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)
