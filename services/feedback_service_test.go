package services

import (
	"sync/atomic"
	"testing"
	"time"

	"checkin-kiosk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackService_ResumeFiresOnceAfterDisplayWindow(t *testing.T) {
	feedback := NewFeedbackService(nil, "test-kiosk", 10*time.Millisecond)

	var resumes atomic.Int32
	feedback.OnResume(func() { resumes.Add(1) })

	feedback.Notify("Checked in: test", models.FeedbackSuccess)

	assert.Eventually(t, func() bool {
		return resumes.Load() == 1
	}, time.Second, time.Millisecond)

	// No second fire from the same notification.
	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 1, resumes.Load())
}

func TestFeedbackService_NewNotificationReplacesPendingTimer(t *testing.T) {
	feedback := NewFeedbackService(nil, "test-kiosk", 20*time.Millisecond)

	var resumes atomic.Int32
	feedback.OnResume(func() { resumes.Add(1) })

	feedback.Notify("first", models.FeedbackError)
	feedback.Notify("second", models.FeedbackError)

	assert.Eventually(t, func() bool {
		return resumes.Load() >= 1
	}, time.Second, time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 1, resumes.Load())
}

func TestFeedbackService_StopCancelsPendingResume(t *testing.T) {
	feedback := NewFeedbackService(nil, "test-kiosk", 10*time.Millisecond)

	var resumes atomic.Int32
	feedback.OnResume(func() { resumes.Add(1) })

	feedback.Notify("stopping", models.FeedbackError)
	feedback.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 0, resumes.Load())
}

func TestFeedbackService_RecentIsBounded(t *testing.T) {
	feedback := NewFeedbackService(nil, "test-kiosk", time.Millisecond)

	for i := 0; i < 30; i++ {
		feedback.Notify("event", models.FeedbackSuccess)
	}

	recent := feedback.Recent()
	require.Len(t, recent, 20)
	assert.Equal(t, models.FeedbackSuccess, recent[0].Kind)
}
