package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/disk"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"upload-lab/observability"
	"upload-lab/storage"
)

// HealthReporter is satisfied by *health.Server.
type HealthReporter interface {
	SetServingStatus(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus)
}

// FreeBytesFunc reads the free space of the volume holding path.
type FreeBytesFunc func(path string) (uint64, error)

// DiskFreeBytes reads free space with gopsutil.
func DiskFreeBytes(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// CapacityMonitorWorker samples the uploads volume and flips the server to
// NOT_SERVING while free space is below the configured floor.
type CapacityMonitorWorker struct {
	log      *slog.Logger
	path     string
	guard    *storage.CapacityGuard
	health   HealthReporter
	metrics  *observability.Metrics
	interval time.Duration
	free     FreeBytesFunc
}

func NewCapacityMonitorWorker(
	log *slog.Logger,
	path string,
	guard *storage.CapacityGuard,
	health HealthReporter,
	metrics *observability.Metrics,
	interval time.Duration,
	free FreeBytesFunc,
) *CapacityMonitorWorker {
	if free == nil {
		free = DiskFreeBytes
	}
	return &CapacityMonitorWorker{
		log:      log,
		path:     path,
		guard:    guard,
		health:   health,
		metrics:  metrics,
		interval: interval,
		free:     free,
	}
}

func (w *CapacityMonitorWorker) Run(ctx context.Context) error {
	w.Sample()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity monitor")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample takes one reading. A failed reading keeps the previous state.
func (w *CapacityMonitorWorker) Sample() {
	free, err := w.free(w.path)
	if err != nil {
		w.log.Error("Error while reading disk usage", "path", w.path, "err", err)
		return
	}
	w.metrics.StorageFree(free)

	low, changed := w.guard.Observe(free)
	if !changed {
		return
	}
	if low {
		w.log.Warn("Storage below floor, refusing chunks", "path", w.path, "free", free)
		w.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	w.log.Info("Storage back above floor", "path", w.path, "free", free)
	w.setStatus(healthpb.HealthCheckResponse_SERVING)
}

func (w *CapacityMonitorWorker) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	if w.health != nil {
		w.health.SetServingStatus("", status)
	}
}
