package tui

import (
	"serialguard/internal/core/ports"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.warnings.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.warnings, cmd = m.warnings.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter":
		if len(m.warnings.Items()) > 0 {
			m.showDetail = true
		}
		return m, nil
	case "esc", "backspace":
		if m.showDetail {
			m.showDetail = false
			return m, nil
		}
	case "n":
		m.status.NotificationsEnabled = !m.status.NotificationsEnabled
		if m.controls != nil {
			m.controls.SetNotificationsEnabled(m.status.NotificationsEnabled)
		}
		if m.status.NotificationsEnabled {
			m.flash = "Notifications enabled"
		} else {
			m.flash = "Notifications disabled"
		}
		return m, nil
	case "c":
		m.showDetail = false
		m.counts = map[ports.Severity]int{}
		m.flash = "Cleared"
		return m, m.warnings.SetItems(nil)
	}

	if m.showDetail {
		return m, nil
	}
	var cmd tea.Cmd
	m.warnings, cmd = m.warnings.Update(msg)
	return m, cmd
}
