package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReviewDecisions counts reviewer decisions by outcome
	// (approved/rejected/needs_revision).
	ReviewDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sitio_portal",
		Subsystem: "review",
		Name:      "decisions_total",
		Help:      "Reviewer decisions applied to pending changes.",
	}, []string{"decision"})

	// SubmissionsCreated counts new pending changes by resource type.
	SubmissionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sitio_portal",
		Subsystem: "review",
		Name:      "submissions_total",
		Help:      "Pending changes created by contributors.",
	}, []string{"resource_type"})

	// ConflictsDetected counts conflict checks that found at least one
	// conflicting field.
	ConflictsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sitio_portal",
		Subsystem: "review",
		Name:      "conflicts_detected_total",
		Help:      "Conflict checks that moved a pending change into conflict.",
	})
)
