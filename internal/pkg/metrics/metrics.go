// Package metrics defines and registers all custom Prometheus metrics for the
// partner console. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Session metrics ───────────────────────────────────────────────────────────

// ConsoleSessionsActive tracks the number of console sessions held in the registry.
var ConsoleSessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of console sessions held in memory.",
	},
)

// ConsoleSessionsEvictedTotal counts console sessions closed by the registry.
// Label:
//   - reason: "expired", "capacity" or "removed"
var ConsoleSessionsEvictedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_evicted_total",
		Help:      "Total number of console sessions closed by the registry.",
	},
	[]string{"reason"},
)

// ── Resolver metrics ──────────────────────────────────────────────────────────

// ProfileFetchDuration measures profile lookups against the backend.
// Label:
//   - result: "found", "missing", "timeout" or "error"
var ProfileFetchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "profile_fetch_duration_seconds",
		Help:      "Duration of profile lookups, by result.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// RoleClassificationsTotal counts classifications by resulting tier.
var RoleClassificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_classifications_total",
		Help:      "Total number of role classifications, by tier.",
	},
	[]string{"tier"},
)

// BrandingResolvedTotal counts branding lookups by the source that answered.
// Label:
//   - source: "cache", "branding", "license", "none" or "error"
var BrandingResolvedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "branding_resolved_total",
		Help:      "Total number of branding resolutions, by answering source.",
	},
	[]string{"source"},
)

// BrandingSavesTotal counts branding save attempts.
// Label:
//   - result: "updated", "inserted", "denied" or "error"
var BrandingSavesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "branding_saves_total",
		Help:      "Total number of branding save attempts, by result.",
	},
	[]string{"result"},
)

// ── Mirror metrics ────────────────────────────────────────────────────────────

// MirrorJobsTotal counts branding mirror jobs.
// Label:
//   - result: "ok", "error" or "dropped"
var MirrorJobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mirror_jobs_total",
		Help:      "Total number of branding mirror jobs, by result.",
	},
	[]string{"result"},
)

// MirrorQueueDepth tracks pending mirror jobs in each worker channel.
var MirrorQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mirror_queue_depth",
		Help:      "Current number of jobs pending in each mirror worker channel.",
	},
	[]string{"worker_id"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Label:
//   - state: "loading", "session_error", "profile_error", "unauthenticated", "redirect" or "allow"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"state"},
)
