// Package metrics records per-generation simulation figures.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"batterybots/internal/model"
)

// Recorder receives episode and generation figures from the monitor.
type Recorder interface {
	ObserveEpisode(scapeName string, harvested, steps int)
	ObserveGeneration(scapeName string, diag model.GenerationDiagnostics)
}

type Nop struct{}

func (Nop) ObserveEpisode(string, int, int) {}

func (Nop) ObserveGeneration(string, model.GenerationDiagnostics) {}

// Prometheus registers its collectors on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	episodes       *prometheus.CounterVec
	steps          *prometheus.CounterVec
	harvest        *prometheus.HistogramVec
	generation     *prometheus.GaugeVec
	averageFitness *prometheus.GaugeVec
	bestFitness    *prometheus.GaugeVec
	oldest         *prometheus.GaugeVec
	diversity      *prometheus.GaugeVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		episodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batterybots_episodes_total",
			Help: "Episodes run to energy exhaustion.",
		}, []string{"scape"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batterybots_steps_total",
			Help: "Actions executed across all episodes.",
		}, []string{"scape"}),
		harvest: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batterybots_episode_harvest",
			Help:    "Energy harvested per episode.",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		}, []string{"scape"}),
		generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "batterybots_generation",
			Help: "Last evaluated generation.",
		}, []string{"scape"}),
		averageFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "batterybots_average_fitness",
			Help: "Mean energy harvested in the last generation.",
		}, []string{"scape"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "batterybots_best_fitness",
			Help: "Best energy harvested in the last generation.",
		}, []string{"scape"}),
		oldest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "batterybots_oldest_survivor_generations",
			Help: "Most generations survived by a robot in the population.",
		}, []string{"scape"}),
		diversity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "batterybots_genome_diversity",
			Help: "Distinct genomes in the last generation.",
		}, []string{"scape"}),
	}
	p.registry.MustRegister(
		p.episodes,
		p.steps,
		p.harvest,
		p.generation,
		p.averageFitness,
		p.bestFitness,
		p.oldest,
		p.diversity,
	)
	return p
}

func (p *Prometheus) ObserveEpisode(scapeName string, harvested, steps int) {
	p.episodes.WithLabelValues(scapeName).Inc()
	p.steps.WithLabelValues(scapeName).Add(float64(steps))
	p.harvest.WithLabelValues(scapeName).Observe(float64(harvested))
}

func (p *Prometheus) ObserveGeneration(scapeName string, diag model.GenerationDiagnostics) {
	p.generation.WithLabelValues(scapeName).Set(float64(diag.Generation))
	p.averageFitness.WithLabelValues(scapeName).Set(diag.MeanFitness)
	p.bestFitness.WithLabelValues(scapeName).Set(diag.BestFitness)
	p.oldest.WithLabelValues(scapeName).Set(float64(diag.OldestSurvivor))
	p.diversity.WithLabelValues(scapeName).Set(float64(diag.GenomeDiversity))
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
