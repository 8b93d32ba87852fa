package models

import (
	"time"
)

// ScanAttempt is the transient record of one scan-to-feedback cycle.
type ScanAttempt struct {
	RawText   string    `json:"raw_text"`
	BookingID string    `json:"booking_id"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"` // applied, queued, rejected
	Message   string    `json:"message"`
	ScannedAt time.Time `json:"scanned_at"`
}

// QueuedOperation is a booking write that could not be applied directly.
// It lives only in the sync coordinator's memory and is destroyed once
// replayed successfully.
type QueuedOperation struct {
	BookingID  string       `json:"booking_id"`
	Patch      BookingPatch `json:"patch"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
}

// SessionHealth is the snapshot recomputed on every heartbeat tick.
type SessionHealth struct {
	Uptime           time.Duration `json:"uptime"`
	TotalScans       int64         `json:"total_scans"`
	ScansPerHour     float64       `json:"scans_per_hour"`
	MemoryUsageBytes uint64        `json:"memory_usage_bytes"`
	RestartCount     int           `json:"restart_count"`
	LastHeartbeat    time.Time     `json:"last_heartbeat"`
}

// FeedbackEvent is what the presentation layer consumes.
type FeedbackEvent struct {
	Message   string    `json:"message"`
	Kind      string    `json:"kind"` // success, error
	Timestamp time.Time `json:"timestamp"`
}

const (
	FeedbackSuccess = "success"
	FeedbackError   = "error"
)
