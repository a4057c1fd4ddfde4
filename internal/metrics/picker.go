// Package metrics holds the Prometheus collectors for picker sessions and the
// HTTP surface.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-picker/pkg/resolver"
)

// Namespace prefixes every collector name.
const Namespace = "picker"

var (
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resolutions_total",
			Help:      "Label resolutions by picker, strategy and outcome",
		},
		[]string{"picker", "strategy", "outcome"},
	)

	Candidates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "candidates",
			Help:      "Candidates in the installed snapshot",
		},
		[]string{"picker"},
	)

	AmbiguousLabels = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "ambiguous_labels",
			Help:      "Labels shared by more than one candidate in the installed snapshot",
		},
		[]string{"picker"},
	)
)

var registerOnce sync.Once

// Register adds every collector to reg (the default registerer when nil).
// Repeated calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			ResolutionsTotal,
			Candidates,
			AmbiguousLabels,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}

// Observer feeds picker lifecycle events into the collectors.
type Observer struct{}

// Refreshed records the size of a newly installed snapshot.
func (Observer) Refreshed(picker string, candidates, ambiguous int) {
	Candidates.WithLabelValues(picker).Set(float64(candidates))
	AmbiguousLabels.WithLabelValues(picker).Set(float64(ambiguous))
}

// Resolved counts one resolution attempt. Failures are labelled by their
// error code.
func (Observer) Resolved(picker string, strategy resolver.Strategy, err error) {
	if err != nil {
		ResolutionsTotal.WithLabelValues(picker, "none", resolver.Code(err)).Inc()
		return
	}
	ResolutionsTotal.WithLabelValues(picker, string(strategy), "ok").Inc()
}
