package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	RunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_runs_total",
			Help: "Total number of scraper runs by source and outcome.",
		},
		[]string{"source", "status"},
	)
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Duration of each source's scrape run in seconds.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"source"},
	)
	JobsFoundCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_jobs_found_total",
			Help: "Total number of job records collected across runs.",
		},
		[]string{"source"},
	)
	NewJobsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_jobs_new_total",
			Help: "Total number of newly discovered job records.",
		},
		[]string{"source"},
	)
)

func StartMetricsServer(addr string) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(RunsCounter)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(JobsFoundCounter)
	prometheus.MustRegister(NewJobsCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(addr, nil))
	}()
}
