package services

import (
	"log/slog"
	"sync"
	"time"

	"checkin-kiosk/models"

	pubnub "github.com/pubnub/go"
)

// FeedbackService shows the outcome of each scan for a fixed display
// window and then signals the scanning session to resume. Every resume
// goes through the single timer owned here, so the error path and the
// display-expiry path can never both fire.
type FeedbackService struct {
	pubnub   *pubnub.PubNub
	channel  string
	duration time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	recent []models.FeedbackEvent
	resume func()
}

// NewFeedbackService builds the channel for one terminal. duration is the
// device-class display window (camera terminals hold the message longer
// than wedge readers). pn may be nil when no realtime fan-out is
// configured.
func NewFeedbackService(pn *pubnub.PubNub, terminalID string, duration time.Duration) *FeedbackService {
	return &FeedbackService{
		pubnub:   pn,
		channel:  "kiosk-" + terminalID,
		duration: duration,
	}
}

// OnResume registers the session callback invoked when a display window
// elapses.
func (f *FeedbackService) OnResume(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resume = fn
}

// Notify publishes the event and schedules the scanning resume after the
// standard display window.
func (f *FeedbackService) Notify(message, kind string) {
	f.NotifyAfter(message, kind, f.duration)
}

// NotifyAfter is Notify with an explicit resume delay; the ingest path
// uses it for the widened data-error delay on noise bursts.
func (f *FeedbackService) NotifyAfter(message, kind string, delay time.Duration) {
	event := models.FeedbackEvent{
		Message:   message,
		Kind:      kind,
		Timestamp: time.Now(),
	}

	slog.Info("feedback", "kind", kind, "message", message)

	f.mu.Lock()
	f.recent = append(f.recent, event)
	if len(f.recent) > 20 {
		f.recent = f.recent[len(f.recent)-20:]
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(delay, f.fireResume)
	f.mu.Unlock()

	f.publish(event)
}

func (f *FeedbackService) fireResume() {
	f.mu.Lock()
	fn := f.resume
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop cancels any pending resume timer. Called on session teardown so a
// stale timer cannot poke a stopped session.
func (f *FeedbackService) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// Recent returns the latest feedback events, oldest first.
func (f *FeedbackService) Recent() []models.FeedbackEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.FeedbackEvent, len(f.recent))
	copy(out, f.recent)
	return out
}

func (f *FeedbackService) publish(event models.FeedbackEvent) {
	if f.pubnub == nil {
		return
	}

	f.pubnub.Publish().
		Channel(f.channel).
		Message(map[string]any{
			"type":      "scan_feedback",
			"message":   event.Message,
			"kind":      event.Kind,
			"timestamp": event.Timestamp.Format(time.RFC3339),
		}).
		Execute()
}
