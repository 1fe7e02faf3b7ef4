package profiler

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval and mirrors them into Prometheus gauges.
type Profiler struct {
	logger         *zap.Logger
	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	registry   *prometheus.Registry
	frameStats *prometheus.GaugeVec
	heapStats  *prometheus.GaugeVec
	gcStats    *prometheus.GaugeVec
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second. Metrics are registered on a private registry
// exposed through Handler.
//
// Parameters:
//   - options: optional ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:         zap.NewNop(),
		now:            time.Now,
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		registry:       prometheus.NewRegistry(),
		frameStats: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lorenz",
				Name:      "frame_stats",
				Help:      "Frame statistics",
			},
			[]string{"type"},
		),
		heapStats: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lorenz",
				Name:      "heap_stats",
				Help:      "Heap memory statistics",
			},
			[]string{"type"},
		),
		gcStats: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lorenz",
				Name:      "gc_stats",
				Help:      "Garbage collection statistics",
			},
			[]string{"type"},
		),
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	p.registry.MustRegister(p.frameStats, p.heapStats, p.gcStats)
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap bytes. TotalAlloc: cumulative heap bytes. Sys: bytes obtained from the OS.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logger.Info("profiler",
		zap.Float64("fps", fps),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc_count", gcCount),
		zap.Uint64("gc_last_pause_us", lastPauseUs),
		zap.Uint64("gc_max_pause_us", maxPauseUs),
		zap.Float64("sys_mb", sysMB),
	)

	p.frameStats.WithLabelValues("fps").Set(fps)
	p.heapStats.WithLabelValues("alloc_bytes").Set(float64(p.memStats.Alloc))
	p.heapStats.WithLabelValues("sys_bytes").Set(float64(p.memStats.Sys))
	p.heapStats.WithLabelValues("alloc_rate_bytes").Set(float64(allocDelta) / elapsed.Seconds())
	p.gcStats.WithLabelValues("num_gc").Set(float64(gcCount))
	p.gcStats.WithLabelValues("last_pause_us").Set(float64(lastPauseUs))
	p.gcStats.WithLabelValues("max_pause_us").Set(float64(maxPauseUs))

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Registry returns the Prometheus registry holding the profiler gauges.
//
// Returns:
//   - *prometheus.Registry: the registry
func (p *Profiler) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns an HTTP handler exposing the profiler gauges in the Prometheus text format.
//
// Returns:
//   - http.Handler: the metrics handler
func (p *Profiler) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on addr in a background goroutine.
// Listen errors are logged; call Close or Shutdown on the returned server to stop it.
//
// Parameters:
//   - addr: the listen address, e.g. ":9090"
//
// Returns:
//   - *http.Server: the running server
func (p *Profiler) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		p.logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Warn("metrics server exited", zap.Error(err))
		}
	}()
	return srv
}
