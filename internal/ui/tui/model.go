// Package tui is the live warning view of watch mode.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"serialguard/internal/core/ports"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FBBF24")).
			Padding(0, 1)
)

// maxItems bounds the warning list; older entries fall off the end.
const maxItems = 500

// Status is the periodic snapshot shown in the header.
type Status struct {
	Files                int
	Pending              int
	NotificationsEnabled bool
	Cooldown             time.Duration
}

// Controls is what the view may read from and change in the running app.
type Controls interface {
	Status() Status
	SetNotificationsEnabled(enabled bool)
}

type item struct {
	n ports.Notification
}

func (i item) Title() string {
	return fmt.Sprintf("%s  %s", i.n.At.Local().Format("15:04:05"), i.n.Title)
}

func (i item) Description() string {
	parts := []string{}
	if i.n.Path != "" {
		parts = append(parts, filepath.Base(i.n.Path))
	}
	if i.n.Class != "" {
		parts = append(parts, i.n.Class)
	}
	if len(parts) == 0 {
		return string(i.n.Severity)
	}
	return strings.Join(parts, " | ")
}

func (i item) FilterValue() string { return i.n.Path + " " + i.n.Class + " " + i.n.Title }

type model struct {
	warnings   list.Model
	controls   Controls
	status     Status
	lastUpdate time.Time
	counts     map[ports.Severity]int
	showDetail bool
	flash      string
}

type notificationMsg struct {
	n ports.Notification
}

type statusMsg struct {
	status Status
}

func initialModel(controls Controls) model {
	warnings := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	warnings.Title = "Serialization Warnings"
	warnings.SetShowStatusBar(false)
	warnings.SetFilteringEnabled(true)

	m := model{
		warnings:   warnings,
		controls:   controls,
		lastUpdate: time.Now(),
		counts:     make(map[ports.Severity]int),
	}
	if controls != nil {
		m.status = controls.Status()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 6
		if height < 5 {
			height = 5
		}
		m.warnings.SetSize(width, height)
	case notificationMsg:
		m.counts[msg.n.Severity]++
		m.lastUpdate = time.Now()
		items := append([]list.Item{item{n: msg.n}}, m.warnings.Items()...)
		if len(items) > maxItems {
			items = items[:maxItems]
		}
		cmd := m.warnings.SetItems(items)
		return m, cmd
	case statusMsg:
		m.status = msg.status
		return m, nil
	}

	var cmd tea.Cmd
	m.warnings, cmd = m.warnings.Update(msg)
	return m, cmd
}

func (m model) View() string {
	notifications := errorStyle.Render("notifications off")
	if m.status.NotificationsEnabled {
		notifications = successStyle.Render(fmt.Sprintf("notifications on (cooldown %s)", m.status.Cooldown))
	}
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files | %d pending",
		m.lastUpdate.Format("15:04:05"), m.status.Files, m.status.Pending))

	var summary string
	if len(m.warnings.Items()) == 0 {
		summary = successStyle.Render("No warnings")
	} else {
		summary = fmt.Sprintf("%s | %s",
			warningStyle.Render(fmt.Sprintf("%d warnings", m.counts[ports.SeverityWarning])),
			errorStyle.Render(fmt.Sprintf("%d errors", m.counts[ports.SeverityError])))
	}

	header := fmt.Sprintf("%s\n%s | %s | %s\n", titleStyle("Serialization Guard"), status, notifications, summary)
	body := m.warnings.View()
	if m.showDetail {
		body = renderDetail(m)
	}
	if m.flash != "" {
		body += "\n\n" + statusStyle.Render(m.flash)
	}
	return docStyle.Render(header + "\n" + renderHelp(m) + "\n\n" + body)
}

func renderHelp(m model) string {
	if m.showDetail {
		return statusStyle.Render("Keys: esc back | q quit")
	}
	return statusStyle.Render("Keys: enter details | / filter | n toggle notifications | c clear | q quit")
}

func renderDetail(m model) string {
	selected, ok := m.warnings.SelectedItem().(item)
	if !ok {
		return statusStyle.Render("No warning selected.")
	}
	n := selected.n
	lines := []string{
		warningStyle.Render(n.Title),
		fmt.Sprintf("Time:     %s", n.At.Local().Format(time.DateTime)),
		fmt.Sprintf("Severity: %s", n.Severity),
	}
	if n.Path != "" {
		lines = append(lines, fmt.Sprintf("File:     %s", n.Path))
	}
	if n.Class != "" {
		lines = append(lines, fmt.Sprintf("Class:    %s", n.Class))
	}
	lines = append(lines, "", n.Body)
	return detailStyle.Render(strings.Join(lines, "\n"))
}
