package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/stocklab/stocklab/internal/database"
	"github.com/stocklab/stocklab/internal/reliability"
	"github.com/stocklab/stocklab/internal/scheduler"
	"github.com/stocklab/stocklab/internal/version"
)

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	GoVersion     string  `json:"go_version"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
	LastChecked   string  `json:"last_checked"`
}

// DBInfo describes one database file
type DBInfo struct {
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	SizeMB        float64 `json:"size_mb"`
	WALSizeMB     float64 `json:"wal_size_mb"`
	PageCount     int64   `json:"page_count"`
	FreelistCount int64   `json:"freelist_count"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DiskUsageResponse represents disk usage statistics
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	ChartsMB  float64 `json:"charts_mb"`
	TotalMB   float64 `json:"total_mb"`
}

// SystemHandlers handles system-wide monitoring and job triggers
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	jobs      map[string]scheduler.Job
	backups   *reliability.BackupService
	startTime time.Time
	sysStats  func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases []*database.DB,
	jobs []scheduler.Job,
	backups *reliability.BackupService,
) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		jobs:      make(map[string]scheduler.Job, len(jobs)),
		backups:   backups,
		startTime: time.Now(),
	}
	for _, job := range jobs {
		if job != nil {
			h.jobs[job.Name()] = job
		}
	}
	h.sysStats = h.getSystemStats
	return h
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.sysStats()

	h.writeJSON(w, http.StatusOK, SystemStatusResponse{
		Status:        "healthy",
		Version:       version.Version,
		GoVersion:     runtime.Version(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		LastChecked:   time.Now().Format(time.RFC3339),
	})
}

// HandleDatabaseStats handles GET /api/system/database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	response := DatabaseStatsResponse{
		Databases:   []DBInfo{},
		LastChecked: time.Now().Format(time.RFC3339),
	}

	for _, db := range h.databases {
		if db == nil {
			continue
		}
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			continue
		}

		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		walMB := float64(stats.WALSizeBytes) / 1024 / 1024
		response.TotalSizeMB += sizeMB + walMB
		response.Databases = append(response.Databases, DBInfo{
			Name:          db.Name(),
			Path:          db.Path(),
			SizeMB:        sizeMB,
			WALSizeMB:     walMB,
			PageCount:     stats.PageCount,
			FreelistCount: stats.FreelistCount,
		})
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDiskUsage handles GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	dataDirSize := h.getDirSize(h.dataDir)
	chartsSize := h.getDirSize(filepath.Join(h.dataDir, "charts"))

	h.writeJSON(w, http.StatusOK, DiskUsageResponse{
		DataDirMB: dataDirSize,
		ChartsMB:  chartsSize,
		TotalMB:   dataDirSize,
	})
}

// HandleJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names, "count": len(names)})
}

// HandleTriggerJob handles POST /api/system/jobs/{name}.
// The job runs in the background; the response only confirms it started.
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request, name string) {
	job, ok := h.jobs[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "Job not registered: " + name})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error().Interface("panic", rec).Str("job", name).Msg("Triggered job panicked")
			}
		}()
		if err := job.Run(); err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Triggered job failed")
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "success", "message": name + " triggered"})
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "Backups not configured"})
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"backups": backups, "count": len(backups)})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats returns CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
