// Package metrics exposes the gateway's two byte counters and connection
// gauges as Prometheus series, mirroring local atomics next to promauto
// series the way the teacher's internal/metrics package does, so a snapshot
// is available for periodic logging without scraping Prometheus in-process.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sergw-project/sergw/internal/logging"
)

var (
	BytesIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sergw_bytes_in_total",
		Help: "Total bytes forwarded from TCP clients to the serial device.",
	})
	BytesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sergw_bytes_out_total",
		Help: "Total bytes forwarded from the serial device to TCP clients.",
	})
	ActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sergw_active_clients",
		Help: "Current number of connected TCP clients.",
	})
	EvictedFull = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sergw_evicted_full_total",
		Help: "Total clients evicted because their outbound queue was full.",
	})
	EvictedDead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sergw_evicted_dead_total",
		Help: "Total clients evicted because their receiver had already gone away.",
	})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sergw_errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	ReconnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sergw_reconnect_attempts_total",
		Help: "Reconnection attempts by loop (reader|writer).",
	}, []string{"loop"})

	localBytesIn  uint64
	localBytesOut uint64

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants, kept as a small stable set to bound cardinality.
const (
	ErrSerialRead  = "serial_read"
	ErrSerialWrite = "serial_write"
	ErrSerialOpen  = "serial_open"
	ErrTCPRead     = "tcp_read"
	ErrTCPWrite    = "tcp_write"
	ErrAccept      = "accept"
	ErrBind        = "bind"
)

// AddBytesIn records n bytes forwarded from a TCP client to the serial device.
func AddBytesIn(n int) {
	BytesIn.Add(float64(n))
	atomic.AddUint64(&localBytesIn, uint64(n))
}

// AddBytesOut records n bytes forwarded from the serial device to TCP clients.
func AddBytesOut(n int) {
	BytesOut.Add(float64(n))
	atomic.AddUint64(&localBytesOut, uint64(n))
}

// IncError increments the error counter for the given subsystem label.
func IncError(where string) {
	Errors.WithLabelValues(where).Inc()
}

// IncReconnectAttempt increments the reconnect counter for "reader" or "writer".
func IncReconnectAttempt(loop string) {
	ReconnectAttempts.WithLabelValues(loop).Inc()
}

// Snapshot is a cheap, lock-free copy of the local byte counters, used by the
// periodic metrics logger.
type Snapshot struct {
	BytesIn  uint64
	BytesOut uint64
}

// Snap returns the current counter values.
func Snap() Snapshot {
	return Snapshot{
		BytesIn:  atomic.LoadUint64(&localBytesIn),
		BytesOut: atomic.LoadUint64(&localBytesOut),
	}
}

// SetReadinessFunc registers the function backing /ready.
func SetReadinessFunc(fn func() bool) {
	readinessMu.Lock()
	readinessFn = fn
	readinessMu.Unlock()
}

// IsReady reports whether the registered readiness function says so. With no
// function registered yet, it reports ready so /ready does not flap during
// startup.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// StartHTTP serves /metrics and /ready on addr, plus any extra routes the
// caller supplies (e.g. the inspector's debug websocket), and returns the
// *http.Server so the caller can shut it down.
func StartHTTP(addr string, extra map[string]http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})
	for pattern, h := range extra {
		mux.Handle(pattern, h)
	}
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}
