package handlers

import (
	"errors"
	"net/http"

	"checkin-kiosk/internal/status"
	"checkin-kiosk/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type ScanHandler struct {
	app     *pocketbase.PocketBase
	session *services.ScanSession
}

func NewScanHandler(app *pocketbase.PocketBase, session *services.ScanSession) *ScanHandler {
	return &ScanHandler{
		app:     app,
		session: session,
	}
}

// Scan - entry point for network-attached readers; same path as the
// wedge adapter callback.
func (h *ScanHandler) Scan(e *core.RequestEvent) error {
	var req struct {
		RawText string `json:"raw_text"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.RawText == "" {
		return apis.NewBadRequestError("raw_text must not be empty", nil)
	}

	attempt, err := h.session.Submit(req.RawText)
	switch {
	case errors.Is(err, status.ErrScanInFlight):
		return e.JSON(http.StatusConflict, map[string]string{
			"error": "another scan is being processed",
		})
	case errors.Is(err, status.ErrSessionStopped):
		return e.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "scanning session is not running",
		})
	}

	// Guard rejections still produced an attempt with feedback; report
	// them as a normal outcome, not an HTTP failure.
	return e.JSON(http.StatusOK, attempt)
}

// History - recent scan attempts for this terminal.
func (h *ScanHandler) History(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{
		"state":    h.session.State().String(),
		"attempts": h.session.History(),
	})
}
