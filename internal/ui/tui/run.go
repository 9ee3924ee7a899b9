package tui

import (
	"context"
	"errors"
	"time"

	"serialguard/internal/core/ports"

	tea "github.com/charmbracelet/bubbletea"
)

// statusInterval is how often the header is refreshed from Controls.
const statusInterval = time.Second

// Run shows notifications from src until the user quits or ctx ends.
func Run(ctx context.Context, src <-chan ports.Notification, controls Controls) error {
	m := initialModel(controls)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case n, ok := <-src:
				if !ok {
					return
				}
				p.Send(notificationMsg{n: n})
			}
		}
	}()

	if controls != nil {
		go func() {
			ticker := time.NewTicker(statusInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p.Send(statusMsg{status: controls.Status()})
				}
			}
		}()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
