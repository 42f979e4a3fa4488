// Package metrics exposes simulation and renderer counters to Prometheus.
// Each Recorder owns its registry so tests and multiple sessions in one
// process never collide on the default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

const namespace = "factory"

// Recorder collects game metrics.
type Recorder struct {
	registry *prometheus.Registry

	ticks          prometheus.Counter
	energy         *prometheus.GaugeVec
	blocked        prometheus.Gauge
	unpowered      prometheus.Gauge
	credits        prometheus.Gauge
	produced       *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	sceneSync      prometheus.Histogram
	textureMisses  prometheus.Counter
	victoryReached prometheus.Gauge
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulation ticks run.",
		}),
		energy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "energy",
			Help:      "Energy of the last tick by kind (produced, consumed, requested).",
		}, []string{"kind"}),
		blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "machines_blocked",
			Help:      "Machines denied power in the last tick.",
		}),
		unpowered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generators_unpowered",
			Help:      "Generators without fuel in the last tick.",
		}),
		credits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "credits",
			Help:      "Current credit balance.",
		}),
		produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "produced_total",
			Help:      "Materials produced by machines and extractors.",
		}, []string{"material"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_rejections_total",
			Help:      "Player intents rejected, by reason.",
		}, []string{"reason"}),
		sceneSync: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scene_sync_seconds",
			Help:      "Time spent rebuilding the scene from world state.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		textureMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "texture_misses_total",
			Help:      "Sprites drawn with a placeholder because art was missing.",
		}),
		victoryReached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "victory",
			Help:      "1 once the victory condition has been met.",
		}),
	}
	r.registry.MustRegister(
		r.ticks, r.energy, r.blocked, r.unpowered, r.credits,
		r.produced, r.rejections, r.sceneSync, r.textureMisses, r.victoryReached,
	)
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveStep records one simulation tick.
func (r *Recorder) ObserveStep(state *gamestate.WorldState, report *simulation.StepReport) {
	r.ticks.Inc()
	r.energy.WithLabelValues("produced").Set(float64(state.Energy.Produced))
	r.energy.WithLabelValues("consumed").Set(float64(state.Energy.Consumed))
	r.energy.WithLabelValues("requested").Set(float64(state.Energy.Requested))
	r.credits.Set(float64(state.Credits))
	if state.Victory.Achieved {
		r.victoryReached.Set(1)
	}
	if report == nil {
		return
	}
	r.blocked.Set(float64(len(report.Blocked)))
	r.unpowered.Set(float64(len(report.Unpowered)))
	for _, ev := range report.Produced {
		for id, n := range ev.Outputs {
			r.produced.WithLabelValues(id).Add(float64(n))
		}
	}
	for id, n := range report.Extracted {
		r.produced.WithLabelValues(id).Add(float64(n))
	}
}

// ObserveResult records the outcome of a player intent.
func (r *Recorder) ObserveResult(res simulation.Result) {
	if res.State != nil {
		r.credits.Set(float64(res.State.Credits))
	}
	if !res.Accepted && res.Reason != "" {
		r.rejections.WithLabelValues(res.Reason).Inc()
	}
}

// ObserveSceneSync records one scene rebuild.
func (r *Recorder) ObserveSceneSync(d time.Duration) {
	r.sceneSync.Observe(d.Seconds())
}

// TextureMiss counts one placeholder draw.
func (r *Recorder) TextureMiss() {
	r.textureMisses.Inc()
}
