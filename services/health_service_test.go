package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkin-kiosk/models"
	"checkin-kiosk/monitoring"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHealthService(t *testing.T, session *ScanSession, redisClient *redis.Client) *HealthService {
	t.Helper()

	return NewHealthService(HealthConfig{
		TerminalID:      "test-kiosk",
		Interval:        30 * time.Second,
		RestartAfter:    4 * time.Hour,
		RestartCooldown: 5 * time.Millisecond,
		MemoryThreshold: 100 * 1024 * 1024,
		HistoryKeep:     2,
	}, session, redisClient, monitoring.NewMonitor("test-kiosk"))
}

func TestHealthService_SampleComputesThroughput(t *testing.T) {
	store := newFakeStore(testBooking(models.StatusBooked))
	session, _ := setupScanSession(t, store, "13:52")
	require.NoError(t, session.Start(context.Background()))
	health := setupHealthService(t, session, nil)

	_, err := session.Submit(testBookingID)
	require.NoError(t, err)

	snapshot := health.Health()

	assert.EqualValues(t, 1, snapshot.TotalScans)
	assert.Greater(t, snapshot.ScansPerHour, 0.0)
	assert.Greater(t, snapshot.MemoryUsageBytes, uint64(0))
	assert.Equal(t, 0, snapshot.RestartCount)
}

func TestHealthService_RestartCyclesTheSession(t *testing.T) {
	store := newFakeStore()
	session, adapter := setupScanSession(t, store, "14:10")
	require.NoError(t, session.Start(context.Background()))
	health := setupHealthService(t, session, nil)

	require.NoError(t, health.Restart(context.Background(), "uptime"))

	assert.Equal(t, StateScanning, session.State())
	assert.Equal(t, 1, adapter.stopCount)
	assert.Equal(t, 2, adapter.starts())

	health.Beat(context.Background())
	assert.Equal(t, 1, health.Health().RestartCount)
}

func TestHealthService_PublishesHeartbeatSnapshot(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := newFakeStore()
	session, _ := setupScanSession(t, store, "13:52")
	health := setupHealthService(t, session, db)

	snapshot := models.SessionHealth{
		Uptime:           90 * time.Second,
		TotalScans:       12,
		ScansPerHour:     480,
		MemoryUsageBytes: 2048,
		RestartCount:     1,
		LastHeartbeat:    time.Unix(1755244800, 0),
	}
	mock.ExpectHSet("kiosk:health:test-kiosk",
		"uptime_seconds", int64(90),
		"total_scans", int64(12),
		"scans_per_hour", float64(480),
		"memory_bytes", int64(2048),
		"restart_count", int64(1),
		"last_heartbeat", int64(1755244800),
		"state", "stopped",
	).SetVal(7)

	health.publish(context.Background(), snapshot)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthService_PublishFailureIsNonFatal(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := newFakeStore()
	session, _ := setupScanSession(t, store, "13:52")
	health := setupHealthService(t, session, db)

	snapshot := models.SessionHealth{LastHeartbeat: time.Unix(1755244800, 0)}
	mock.ExpectHSet("kiosk:health:test-kiosk",
		"uptime_seconds", int64(0),
		"total_scans", int64(0),
		"scans_per_hour", float64(0),
		"memory_bytes", int64(0),
		"restart_count", int64(0),
		"last_heartbeat", int64(1755244800),
		"state", "stopped",
	).SetErr(errors.New("connection refused"))

	// A dashboard outage only costs the snapshot, never the heartbeat.
	health.publish(context.Background(), snapshot)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthService_CleanupTrimsButKeepsQueue(t *testing.T) {
	store := newFakeStore(testBooking(models.StatusBooked))
	session, _ := setupScanSession(t, store, "13:52")
	session.sync.HandleConnectivity(context.Background(), false)
	require.NoError(t, session.Start(context.Background()))
	health := setupHealthService(t, session, nil)

	// One queued transition plus a few noise scans to fill history.
	_, err := session.Submit(testBookingID)
	require.NoError(t, err)
	for _, raw := range []string{"aa", "bb", "cc"} {
		assert.Eventually(t, func() bool {
			return session.State() == StateScanning
		}, time.Second, time.Millisecond)
		_, _ = session.Submit(raw)
	}
	require.Len(t, session.History(), 4)
	require.Len(t, session.sync.Pending(), 1)

	health.Cleanup("manual")

	assert.Len(t, session.History(), 2)
	assert.EqualValues(t, 0, session.TotalScans())
	// Memory cleanup never touches the pending-operation queue.
	assert.Len(t, session.sync.Pending(), 1)
}
