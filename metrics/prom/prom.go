// Package prom adapts cache.Metrics to Prometheus counters and gauges.
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/calmapf/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters and
// gauges. Safe for concurrent use from the metrics HTTP server even
// though the instance it observes is single-threaded.
type Adapter struct {
	access    prometheus.Counter
	hits      prometheus.Counter
	evictions *prometheus.CounterVec
	occupied  *prometheus.GaugeVec
	capacity  *prometheus.GaugeVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		access: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "cache_access_total",
			Help:        "Cargo cache lookups attempted",
			ConstLabels: constLabels,
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "cache_hits_total",
			Help:        "Cargo cache lookups that hit",
			ConstLabels: constLabels,
		}),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "cache_evictions_total",
				Help:        "Cache slot evictions by policy",
				ConstLabels: constLabels,
			},
			[]string{"policy"},
		),
		occupied: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "cache_group_occupied_slots",
				Help:        "Occupied cache slots per group",
				ConstLabels: constLabels,
			},
			[]string{"group"},
		),
		capacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "cache_group_total_slots",
				Help:        "Total cache slots per group",
				ConstLabels: constLabels,
			},
			[]string{"group"},
		),
	}
	reg.MustRegister(a.access, a.hits, a.evictions, a.occupied, a.capacity)
	return a
}

func (a *Adapter) CacheAccess() { a.access.Inc() }
func (a *Adapter) CacheHit()    { a.hits.Inc() }

func (a *Adapter) Eviction(policy string) { a.evictions.WithLabelValues(policy).Inc() }

func (a *Adapter) Occupancy(group int, occupied, total int) {
	label := strconv.Itoa(group)
	a.occupied.WithLabelValues(label).Set(float64(occupied))
	a.capacity.WithLabelValues(label).Set(float64(total))
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
