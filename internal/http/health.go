package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime"`
	Profile       string  `json:"profile"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Profile:       s.Config.Profile,
	})
}

type MetricsResponse struct {
	CapturedAt        time.Time `json:"capturedAt"`
	UptimeSeconds     float64   `json:"uptime"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	ProcessCPULoad    float64   `json:"processCpuLoad"`
	SystemCPULoad     float64   `json:"systemCpuLoad"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	DiskTotal         int64     `json:"diskTotalBytes"`
	DiskUsed          int64     `json:"diskUsedBytes"`
}

// AdminMetrics captures a live process/system sample. Nothing is persisted;
// the endpoint answers with whatever gopsutil reports at call time.
func (s *Server) AdminMetrics(w http.ResponseWriter, r *http.Request) {
	sample := MetricsResponse{
		CapturedAt:    time.Now().UTC(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil && info != nil {
			sample.ProcessRSSBytes = int64(info.RSS)
		}
		if pct, err := proc.CPUPercent(); err == nil {
			sample.ProcessCPULoad = pct / 100.0
		}
	}
	if stat, err := mem.VirtualMemory(); err == nil {
		sample.SystemMemoryTotal = int64(stat.Total)
		sample.SystemMemoryUsed = int64(stat.Total - stat.Available)
	}
	if loads, err := cpu.Percent(0, false); err == nil && len(loads) > 0 {
		sample.SystemCPULoad = loads[0] / 100.0
	}
	if usage, err := disk.Usage("/"); err == nil {
		sample.DiskTotal = int64(usage.Total)
		sample.DiskUsed = int64(usage.Used)
	}
	WriteJSON(w, http.StatusOK, sample)
}
