// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luontovahdit_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "luontovahdit_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	VotesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luontovahdit_votes_total",
			Help: "Accepted votes by item kind and direction.",
		},
		[]string{"kind", "direction"},
	)

	VotesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luontovahdit_votes_rejected_total",
			Help: "Votes refused because the voter had already voted.",
		},
		[]string{"kind"},
	)

	RankingQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "luontovahdit_ranking_queue_dropped_total",
			Help: "Score updates skipped because the ranking queue was full.",
		},
	)
)
