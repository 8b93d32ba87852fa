package capture

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"checkin-kiosk/internal/status"
)

// Wedge reads newline-terminated decoded payloads from a keyboard-wedge
// barcode reader, which presents itself as a plain character stream.
//
// A single goroutine owns the stream for the life of the process.
// Start and Stop gate delivery instead of respawning readers, so a
// stopped reader can never race a fresh one for the next line.
type Wedge struct {
	label string
	src   io.Reader

	mu        sync.Mutex
	running   bool
	runCtx    context.Context
	onDecoded DecodedFunc
	readOnce  sync.Once
}

func NewWedge(label string, src io.Reader) *Wedge {
	return &Wedge{label: label, src: src}
}

func (w *Wedge) Devices() ([]Device, error) {
	if w.src == nil {
		return nil, status.ErrNoDevice
	}
	return []Device{{ID: "wedge-0", Label: w.label}}, nil
}

func (w *Wedge) Start(ctx context.Context, onDecoded DecodedFunc) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return status.ErrDeviceBusy
	}
	if w.src == nil {
		return status.ErrNoDevice
	}

	w.runCtx = ctx
	w.onDecoded = onDecoded
	w.running = true
	w.readOnce.Do(func() {
		go w.readLoop()
	})
	return nil
}

func (w *Wedge) readLoop() {
	scanner := bufio.NewScanner(w.src)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		w.mu.Lock()
		deliver := w.onDecoded
		live := w.running && w.runCtx.Err() == nil
		w.mu.Unlock()

		// Lines arriving while stopped are discarded, the same as a
		// powered-off reader.
		if !live {
			continue
		}
		deliver(text)
	}
}

// Stop releases the reader. Safe to call more than once; teardown paths
// (navigation, scheduled restarts, shutdown) all funnel through here.
func (w *Wedge) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	return nil
}
