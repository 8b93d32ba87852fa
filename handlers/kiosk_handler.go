package handlers

import (
	"context"
	"net/http"

	"checkin-kiosk/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/crypto/bcrypt"
)

// KioskHandler exposes the manual operator controls and the terminal
// status surfaces. Mutating controls are PIN-guarded.
type KioskHandler struct {
	app *pocketbase.PocketBase
	// appCtx is the process-lifetime context; session lifecycles started
	// from here must not be tied to the request that triggered them.
	appCtx  context.Context
	session *services.ScanSession
	health  *services.HealthService
	sync    *services.SyncService
	pinHash string
}

func NewKioskHandler(app *pocketbase.PocketBase, appCtx context.Context, session *services.ScanSession,
	health *services.HealthService, syncSvc *services.SyncService, pinHash string) *KioskHandler {
	return &KioskHandler{
		app:     app,
		appCtx:  appCtx,
		session: session,
		health:  health,
		sync:    syncSvc,
		pinHash: pinHash,
	}
}

// GetHealth - current session health snapshot.
func (h *KioskHandler) GetHealth(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, h.health.Health())
}

// GetPending - pending-operation queue contents.
func (h *KioskHandler) GetPending(e *core.RequestEvent) error {
	pending := h.sync.Pending()
	return e.JSON(http.StatusOK, map[string]any{
		"count":      len(pending),
		"online":     h.sync.Online(),
		"operations": pending,
	})
}

// Start - manual session start.
func (h *KioskHandler) Start(e *core.RequestEvent) error {
	if err := h.checkPIN(e); err != nil {
		return err
	}
	if err := h.session.Start(h.appCtx); err != nil {
		return apis.NewBadRequestError("Failed to start session", err)
	}
	return e.JSON(http.StatusOK, map[string]string{"state": h.session.State().String()})
}

// Stop - manual session stop.
func (h *KioskHandler) Stop(e *core.RequestEvent) error {
	if err := h.checkPIN(e); err != nil {
		return err
	}
	if err := h.session.Stop(); err != nil {
		return apis.NewBadRequestError("Failed to stop session", err)
	}
	return e.JSON(http.StatusOK, map[string]string{"state": h.session.State().String()})
}

// ForceRestart - manual stop, cooldown, reinitialize.
func (h *KioskHandler) ForceRestart(e *core.RequestEvent) error {
	if err := h.checkPIN(e); err != nil {
		return err
	}
	if err := h.health.Restart(h.appCtx, "manual"); err != nil {
		return apis.NewBadRequestError("Failed to restart session", err)
	}
	return e.JSON(http.StatusOK, map[string]string{"state": h.session.State().String()})
}

// ForceCleanup - manual scan-history truncation and counter reset.
func (h *KioskHandler) ForceCleanup(e *core.RequestEvent) error {
	if err := h.checkPIN(e); err != nil {
		return err
	}
	h.health.Cleanup("manual")
	return e.JSON(http.StatusOK, map[string]string{"status": "cleaned"})
}

func (h *KioskHandler) checkPIN(e *core.RequestEvent) error {
	if h.pinHash == "" {
		// No PIN configured; controls stay open for development setups.
		return nil
	}

	pin := e.Request.Header.Get("X-Operator-Pin")
	if pin == "" {
		return apis.NewUnauthorizedError("Operator PIN required", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.pinHash), []byte(pin)); err != nil {
		return apis.NewUnauthorizedError("Invalid operator PIN", nil)
	}
	return nil
}
