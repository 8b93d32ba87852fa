package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeedbackDurationDefaultsToWedge(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "wedge", cfg.DeviceClass)
	assert.Equal(t, cfg.WedgeFeedbackDuration, cfg.FeedbackDuration())
	assert.Equal(t, 1500*time.Millisecond, cfg.FeedbackDuration())
}

func TestFeedbackDurationForCameraClass(t *testing.T) {
	t.Setenv("DEVICE_CLASS", "camera")

	cfg := LoadConfig()

	assert.Equal(t, cfg.CameraFeedbackDuration, cfg.FeedbackDuration())
	assert.Equal(t, 3*time.Second, cfg.FeedbackDuration())
}

func TestGetEnvAsDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("WEDGE_FEEDBACK_DURATION", "not-a-duration")

	cfg := LoadConfig()

	assert.Equal(t, 1500*time.Millisecond, cfg.WedgeFeedbackDuration)
}
