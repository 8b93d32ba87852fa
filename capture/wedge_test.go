package capture

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"checkin-kiosk/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWedge_DeliversTrimmedLines(t *testing.T) {
	src := strings.NewReader("abc-123\n\n  padded-456  \n")
	wedge := NewWedge("test reader", src)

	var mu sync.Mutex
	var got []string
	err := wedge.Start(context.Background(), func(text string) {
		mu.Lock()
		got = append(got, text)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"abc-123", "padded-456"}, got)
	mu.Unlock()

	require.NoError(t, wedge.Stop())
}

func TestWedge_SecondStartIsDeviceBusy(t *testing.T) {
	wedge := NewWedge("test reader", strings.NewReader(""))

	require.NoError(t, wedge.Start(context.Background(), func(string) {}))
	err := wedge.Start(context.Background(), func(string) {})
	assert.ErrorIs(t, err, status.ErrDeviceBusy)

	require.NoError(t, wedge.Stop())

	// Released device can be reacquired.
	assert.NoError(t, wedge.Start(context.Background(), func(string) {}))
	assert.NoError(t, wedge.Stop())
}

func TestWedge_RestartKeepsFirstLineAfterReacquire(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	wedge := NewWedge("test reader", pr)

	var mu sync.Mutex
	var first, second []string

	require.NoError(t, wedge.Start(context.Background(), func(text string) {
		mu.Lock()
		first = append(first, text)
		mu.Unlock()
	}))
	_, err := pw.Write([]byte("before-restart\n"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(first) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, wedge.Stop())
	require.NoError(t, wedge.Start(context.Background(), func(text string) {
		mu.Lock()
		second = append(second, text)
		mu.Unlock()
	}))

	// The first scan after a restart must reach the new callback, not a
	// leftover reader from the previous run.
	_, err = pw.Write([]byte("after-restart\n"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(second) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"before-restart"}, first)
	assert.Equal(t, []string{"after-restart"}, second)
	mu.Unlock()

	require.NoError(t, wedge.Stop())
}

func TestWedge_NoSource(t *testing.T) {
	wedge := NewWedge("test reader", nil)

	_, err := wedge.Devices()
	assert.ErrorIs(t, err, status.ErrNoDevice)

	err = wedge.Start(context.Background(), func(string) {})
	assert.ErrorIs(t, err, status.ErrNoDevice)
}

func TestWedge_StopIsIdempotent(t *testing.T) {
	wedge := NewWedge("test reader", strings.NewReader("x\n"))

	require.NoError(t, wedge.Start(context.Background(), func(string) {}))
	assert.NoError(t, wedge.Stop())
	assert.NoError(t, wedge.Stop())
}
