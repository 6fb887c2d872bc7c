// Package tui is the live agent view of agentctl. It re-reads the role from
// chain every two seconds while open.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anemonelab/agenthub/pkg/mist"
	"github.com/anemonelab/agenthub/pkg/utils"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Width(10)

	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)
)

const RefreshInterval = 2 * time.Second

// Snapshot is what one refresh shows.
type Snapshot struct {
	RoleID   string
	Name     string
	Balance  uint64
	Health   int
	Active   bool
	Locked   bool
	Online   bool
	Source   string
	Skills   int
	BotOwner string
}

// FetchFunc reads a fresh snapshot.
type FetchFunc func(ctx context.Context) (*Snapshot, error)

type tickMsg time.Time

type snapshotMsg struct{ snap *Snapshot }

type errMsg struct{ err error }

type Model struct {
	roleID    string
	fetch     FetchFunc
	interval  time.Duration
	snap      *Snapshot
	err       error
	loading   bool
	lastFetch time.Time
	fetches   int
}

func New(roleID string, fetch FetchFunc) Model {
	return Model{roleID: roleID, fetch: fetch, interval: RefreshInterval, loading: true}
}

// WithInterval changes the refresh period.
func (m Model) WithInterval(d time.Duration) Model {
	m.interval = d
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.load())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) load() tea.Cmd {
	fetch := m.fetch
	timeout := m.interval * 5
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := fetch(ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{snap}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.load()
		}
		return m, nil

	case tickMsg:
		m.loading = true
		return m, tea.Batch(m.tick(), m.load())

	case snapshotMsg:
		m.loading = false
		m.err = nil
		m.snap = msg.snap
		m.lastFetch = time.Now()
		m.fetches++
		return m, nil

	case errMsg:
		// the previous snapshot stays on screen
		m.loading = false
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m Model) Snapshot() *Snapshot { return m.snap }

func (m Model) Err() error { return m.err }

func row(label, value string) string {
	return labelStyle.Render(label) + " " + value + "\n"
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Agent " + utils.ShortID(m.roleID)))
	sb.WriteString("\n\n")

	if m.snap == nil {
		if m.err != nil {
			sb.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		} else {
			sb.WriteString(dimStyle.Render("Loading..."))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	s := m.snap
	status := offlineStyle.Render("offline")
	if s.Online {
		status = onlineStyle.Render("online")
	}
	name := s.Name
	if name == "" {
		name = "Unnamed agent"
	}
	sb.WriteString(row("Name", name))
	sb.WriteString(row("Balance", mist.FormatFixed(s.Balance, 3)+" SUI"))
	sb.WriteString(row("Health", fmt.Sprintf("%d%%", s.Health)))
	active := fmt.Sprintf("%t", s.Active)
	if s.Locked {
		active += " (locked)"
	}
	sb.WriteString(row("Active", active))
	sb.WriteString(row("Status", status+" "+dimStyle.Render("("+s.Source+")")))
	sb.WriteString(row("Skills", fmt.Sprintf("%d", s.Skills)))
	if s.BotOwner != "" {
		sb.WriteString(row("Owner", utils.ShortID(s.BotOwner)))
	}
	sb.WriteString("\n")

	footer := "r refresh · q quit"
	if !m.lastFetch.IsZero() {
		footer = "updated " + m.lastFetch.Format("15:04:05") + " · " + footer
	}
	if m.err != nil {
		sb.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	sb.WriteString(dimStyle.Render(footer))
	sb.WriteString("\n")
	return sb.String()
}
