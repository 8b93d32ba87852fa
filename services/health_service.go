package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"checkin-kiosk/models"
	"checkin-kiosk/monitoring"

	"github.com/redis/go-redis/v9"
)

// HealthService is the heartbeat loop keeping a long-running terminal
// healthy: it recomputes the session metrics every tick, publishes a
// snapshot for the admin dashboard, and performs the scheduled restart
// and memory cleanup the kiosk needs to survive unattended days.
type HealthService struct {
	terminalID      string
	interval        time.Duration
	restartAfter    time.Duration
	restartCooldown time.Duration
	memoryThreshold uint64
	historyKeep     int

	session *ScanSession
	redis   *redis.Client
	monitor *monitoring.Monitor

	mu           sync.Mutex
	restartCount int
	last         models.SessionHealth
}

type HealthConfig struct {
	TerminalID      string
	Interval        time.Duration
	RestartAfter    time.Duration
	RestartCooldown time.Duration
	MemoryThreshold uint64
	HistoryKeep     int
}

func NewHealthService(cfg HealthConfig, session *ScanSession, redisClient *redis.Client, monitor *monitoring.Monitor) *HealthService {
	return &HealthService{
		terminalID:      cfg.TerminalID,
		interval:        cfg.Interval,
		restartAfter:    cfg.RestartAfter,
		restartCooldown: cfg.RestartCooldown,
		memoryThreshold: cfg.MemoryThreshold,
		historyKeep:     cfg.HistoryKeep,
		session:         session,
		redis:           redisClient,
		monitor:         monitor,
	}
}

// Run beats until ctx is cancelled.
func (h *HealthService) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Beat(ctx)
		}
	}
}

// Beat recomputes the health snapshot and triggers maintenance when the
// thresholds are crossed.
func (h *HealthService) Beat(ctx context.Context) {
	snapshot := h.sample()

	h.publish(ctx, snapshot)

	if snapshot.Uptime > h.restartAfter {
		if err := h.Restart(ctx, "uptime"); err != nil {
			slog.Error("scheduled restart failed", "error", err)
		}
		return
	}

	if snapshot.MemoryUsageBytes > h.memoryThreshold {
		h.Cleanup("memory")
	}
}

func (h *HealthService) sample() models.SessionHealth {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := time.Now()
	uptime := time.Duration(0)
	if started := h.session.StartedAt(); !started.IsZero() {
		uptime = now.Sub(started)
	}

	total := h.session.TotalScans()
	perHour := 0.0
	if hours := uptime.Hours(); hours > 0 {
		perHour = float64(total) / hours
	}

	h.mu.Lock()
	snapshot := models.SessionHealth{
		Uptime:           uptime,
		TotalScans:       total,
		ScansPerHour:     perHour,
		MemoryUsageBytes: mem.Alloc,
		RestartCount:     h.restartCount,
		LastHeartbeat:    now,
	}
	h.last = snapshot
	h.mu.Unlock()

	h.monitor.SetMemoryUsage(mem.Alloc)
	return snapshot
}

func (h *HealthService) publish(ctx context.Context, snapshot models.SessionHealth) {
	if h.redis == nil {
		return
	}

	key := fmt.Sprintf("kiosk:health:%s", h.terminalID)
	err := h.redis.HSet(ctx, key,
		"uptime_seconds", int64(snapshot.Uptime.Seconds()),
		"total_scans", snapshot.TotalScans,
		"scans_per_hour", snapshot.ScansPerHour,
		"memory_bytes", int64(snapshot.MemoryUsageBytes),
		"restart_count", int64(snapshot.RestartCount),
		"last_heartbeat", snapshot.LastHeartbeat.Unix(),
		"state", h.session.State().String(),
	).Err()
	if err != nil {
		slog.Warn("health snapshot publish failed", "error", err)
	}
}

// Restart performs the coordinated stop, cooldown, reinitialize sequence.
// The cooldown gives the capture device time to fully release before it
// is re-acquired.
func (h *HealthService) Restart(ctx context.Context, reason string) error {
	slog.Info("restarting scan session", "terminal_id", h.terminalID, "reason", reason)

	if err := h.session.Stop(); err != nil {
		slog.Warn("stop during restart", "error", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(h.restartCooldown):
	}

	if err := h.session.Start(ctx); err != nil {
		return fmt.Errorf("restart session: %w", err)
	}

	h.mu.Lock()
	h.restartCount++
	h.mu.Unlock()
	h.monitor.TrackRestart(reason)
	return nil
}

// Cleanup truncates the in-memory scan history and resets the session
// counters. The pending-operation queue is deliberately left alone.
func (h *HealthService) Cleanup(reason string) {
	slog.Info("session memory cleanup", "terminal_id", h.terminalID, "reason", reason)
	h.session.TrimHistory(h.historyKeep)
	h.session.ResetCounters()
	runtime.GC()
}

// Health returns the snapshot from the most recent heartbeat, sampling
// fresh if no beat has run yet.
func (h *HealthService) Health() models.SessionHealth {
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()

	if last.LastHeartbeat.IsZero() {
		return h.sample()
	}
	return last
}
