// Package metrics collects batch run metrics and exports them in the Prometheus text format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Video outcome statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Recorder holds the metrics of one process on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	VideosProcessed *prometheus.CounterVec
	FramesWritten   *prometheus.CounterVec
	FramesByLabel   *prometheus.CounterVec
	VideoDuration   *prometheus.HistogramVec
	LastRunSuccess  prometheus.Gauge
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		VideosProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frameset_videos_processed_total",
			Help: "Total number of videos processed, by operation and status",
		}, []string{"operation", "status"}),

		FramesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frameset_frames_written_total",
			Help: "Total number of frames written to the dataset, by operation",
		}, []string{"operation"}),

		FramesByLabel: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frameset_frames_by_label_total",
			Help: "Total number of frames written, by label",
		}, []string{"label"}),

		VideoDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frameset_video_processing_duration_seconds",
			Help:    "Duration of processing one video",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"operation"}),

		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "frameset_last_run_success",
			Help: "1 if the last batch run processed every video, 0 otherwise",
		}),
	}
}

// ObserveVideo records the outcome of one video.
func (r *Recorder) ObserveVideo(operation string, err error, elapsed time.Duration) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	r.VideosProcessed.WithLabelValues(operation, status).Inc()
	r.VideoDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveFrames records the frames written for one video.
func (r *Recorder) ObserveFrames(operation string, labelCounts map[string]int) {
	total := 0
	for label, n := range labelCounts {
		r.FramesByLabel.WithLabelValues(label).Add(float64(n))
		total += n
	}
	r.FramesWritten.WithLabelValues(operation).Add(float64(total))
}

// ObserveRun records whether a batch run had no failures.
func (r *Recorder) ObserveRun(failed int) {
	if failed == 0 {
		r.LastRunSuccess.Set(1)
	} else {
		r.LastRunSuccess.Set(0)
	}
}

// WriteTextfile writes all metrics to path, e.g. for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
