package app

import (
	"context"
	"fmt"
	"time"

	"serialguard/internal/shared/observability"
	"serialguard/internal/shared/util"
)

// HealthService reports the state of the app's components on /health.
type HealthService struct {
	app *App
}

func NewHealthService(a *App) *HealthService {
	return &HealthService{app: a}
}

var _ observability.HealthChecker = (*HealthService)(nil)

func (h *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:    "up",
		Timestamp: time.Now().UTC(),
		Components: map[string]string{
			"model":   fmt.Sprintf("%d files, revision %d", len(h.app.Model.Files()), h.app.Model.Revision()),
			"pending": fmt.Sprintf("%d", h.app.Pipeline.Debouncer().Pending()),
			"memory":  fmt.Sprintf("%d MB", util.GetHeapAllocMB()),
		},
	}

	h.app.watcherMu.Lock()
	watching := h.app.activeWatcher != nil
	h.app.watcherMu.Unlock()
	if watching {
		status.Components["watcher"] = "running"
	} else {
		status.Components["watcher"] = "stopped"
	}

	if settings, ok := h.app.Settings.Snapshot(); ok {
		status.Components["notifications"] = fmt.Sprintf("enabled=%t cooldown=%s", settings.NotificationsEnabled, settings.Cooldown)
	}

	switch {
	case h.app.historyStore != nil:
		if err := h.app.historyStore.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Components["history"] = err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	case h.app.history == nil:
		status.Components["history"] = "disabled"
	}
	if h.app.historyQueue != nil {
		status.Components["history_queue"] = fmt.Sprintf("%d pending", h.app.historyQueue.Pending())
	}
	return status
}
