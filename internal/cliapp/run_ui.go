package cliapp

import (
	"context"

	coreapp "serialguard/internal/core/app"
	"serialguard/internal/notify"
	"serialguard/internal/ui/tui"
)

// appControls exposes the running app to the terminal UI.
type appControls struct {
	app *coreapp.App
}

func (c appControls) Status() tui.Status {
	settings, _ := c.app.Settings.Snapshot()
	return tui.Status{
		Files:                len(c.app.Model.Files()),
		Pending:              c.app.Pipeline.Debouncer().Pending(),
		NotificationsEnabled: settings.NotificationsEnabled,
		Cooldown:             settings.Cooldown,
	}
}

func (c appControls) SetNotificationsEnabled(enabled bool) {
	c.app.Settings.SetNotificationsEnabled(enabled)
}

func runUI(ctx context.Context, app *coreapp.App, channel *notify.ChannelSink) error {
	return tui.Run(ctx, channel.C(), appControls{app: app})
}
