package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kelsos/dash33/internal/models"
)

// Controller is what the monitor drives when a key is pressed
type Controller interface {
	Connect(ctx context.Context, req models.ConnectionRequest) models.SessionState
	Refresh(ctx context.Context, walletID string) models.SessionState
}

// Model is the bubbletea model of the dashboard monitor
type Model struct {
	ctx          context.Context
	controller   Controller
	request      models.ConnectionRequest
	state        models.SessionState
	logs         []string
	spinner      spinner.Model
	transactions table.Model
	width        int
	height       int
	quit         bool
}

// StateChanged carries a new session state into the program
type StateChanged struct {
	State models.SessionState
}

// LogMessage adds a line to the recent logs panel
type LogMessage struct {
	Message string
}

// NewModel creates the monitor model for request, driving controller on key presses
func NewModel(ctx context.Context, controller Controller, request models.ConnectionRequest) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	tx := table.New(
		table.WithColumns([]table.Column{
			{Title: "TxID", Width: 20},
			{Title: "Amount", Width: 14},
			{Title: "Conf", Width: 6},
			{Title: "Time", Width: 19},
		}),
		table.WithHeight(6),
	)

	return Model{
		ctx:          ctx,
		controller:   controller,
		request:      request,
		state:        models.NewSessionState(),
		logs:         []string{},
		spinner:      sp,
		transactions: tx,
		width:        80,
		height:       24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m = m.handleWindowSizeMsg(msg)

	case StateChanged:
		m = m.handleStateChanged(msg)

	case LogMessage:
		m = m.handleLogMessage(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quit = true
		return m, tea.Quit
	case "r":
		ctx, controller := m.ctx, m.controller
		return m, func() tea.Msg {
			controller.Refresh(ctx, "")
			return nil
		}
	case "c":
		ctx, controller, request := m.ctx, m.controller, m.request
		return m, func() tea.Msg {
			controller.Connect(ctx, request)
			return nil
		}
	}
	return m, nil
}

func (m Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	return m
}

func (m Model) handleStateChanged(msg StateChanged) Model {
	previous := m.state
	m.state = msg.State

	if msg.State.Error != "" && msg.State.Error != previous.Error {
		m = m.handleLogMessage(LogMessage{Message: "❌ " + msg.State.Error})
	}
	if msg.State.Snapshot != nil && msg.State.Snapshot != previous.Snapshot {
		m = m.handleLogMessage(LogMessage{Message: fmt.Sprintf("✅ Dashboard loaded for %s", msg.State.Snapshot.WalletID)})
		m.transactions.SetRows(transactionRows(msg.State.Snapshot.Transactions))
	}
	return m
}

func (m Model) handleLogMessage(msg LogMessage) Model {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s",
		time.Now().Format("15:04:05"), msg.Message))
	if len(m.logs) > 10 {
		m.logs = m.logs[len(m.logs)-10:]
	}
	return m
}

// State returns the last session state the model has seen
func (m Model) State() models.SessionState {
	return m.state
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("💼 Dash33 Wallet Monitor"))
	s.WriteString("\n\n")

	// Summary
	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(getPhaseColor(m.state.Phase)))

	summary := fmt.Sprintf("%s Wallet: %s (%s) | Phase: %s",
		getPhaseIcon(m.state.Phase),
		displayOr(m.request.WalletID, "-"),
		displayOr(string(m.request.WalletType), "-"),
		m.state.Phase)
	if m.state.Loading {
		summary += " " + m.spinner.View()
	}
	s.WriteString(summaryStyle.Render(summary))
	s.WriteString("\n")

	if m.state.Error != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		s.WriteString(errorStyle.Render("Error: " + m.state.Error))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	sectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	s.WriteString(sectionStyle.Render(m.snapshotView()))
	s.WriteString("\n\n")

	logSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(m.width - 2).
		Height(8)

	var logSection strings.Builder
	logSection.WriteString("📝 Recent Logs\n")
	for _, log := range m.logs {
		logSection.WriteString(log + "\n")
	}

	s.WriteString(logSectionStyle.Render(logSection.String()))
	s.WriteString("\n\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	footer := "Press 'r' to refresh | 'c' to reconnect | 'q' to quit | Logs: logs/dash33_*.log"
	s.WriteString(footerStyle.Render(footer))

	return s.String()
}

func (m Model) snapshotView() string {
	snapshot := m.state.Snapshot
	if snapshot == nil {
		return "📊 No dashboard data yet"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Balance: %s\n", snapshot.Balance.String())
	fmt.Fprintf(&b, "Fetched: %s\n", snapshot.FetchedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "Risk score: %.2f\n", snapshot.Analysis.RiskScore)

	if len(snapshot.Analysis.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, rec := range snapshot.Analysis.Recommendations {
			fmt.Fprintf(&b, "  • %s\n", rec)
		}
	}

	if len(snapshot.Analysis.PredictedTrends) > 0 {
		keys := make([]string, 0, len(snapshot.Analysis.PredictedTrends))
		for k := range snapshot.Analysis.PredictedTrends {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Trends:")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%.2f", k, snapshot.Analysis.PredictedTrends[k])
		}
		b.WriteString("\n")
	}

	if ln := snapshot.Lightning; ln != nil {
		fmt.Fprintf(&b, "⚡ Lightning: %s | %d channels | capacity %s | %s\n",
			truncate(displayOr(ln.NodeID, "-"), 20), ln.Channels, ln.Capacity.String(), displayOr(ln.Status, "unknown"))
	}
	if w5 := snapshot.Web5; w5 != nil {
		fmt.Fprintf(&b, "🌐 Web5: %s | connected %t | %d records\n",
			truncate(displayOr(w5.DID, "-"), 30), w5.Connected, w5.Records)
	}

	b.WriteString("\n")
	if len(snapshot.Transactions) == 0 {
		b.WriteString("No transactions")
	} else {
		b.WriteString(m.transactions.View())
	}
	return b.String()
}

func transactionRows(transactions []models.Transaction) []table.Row {
	rows := make([]table.Row, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, table.Row{
			truncate(tx.TxID, 20),
			tx.Amount.String(),
			fmt.Sprintf("%d", tx.Confirmations),
			time.Unix(tx.Time, 0).Format(time.DateTime),
		})
	}
	return rows
}

func getPhaseIcon(phase models.Phase) string {
	switch phase {
	case models.PhaseIdle:
		return "⏸"
	case models.PhaseConnecting:
		return "🔐"
	case models.PhaseFetching:
		return "🔄"
	case models.PhaseConnected:
		return "✅"
	case models.PhaseConnectError, models.PhaseFetchError:
		return "❌"
	default:
		return "❓"
	}
}

func getPhaseColor(phase models.Phase) string {
	switch phase {
	case models.PhaseIdle:
		return "244"
	case models.PhaseConnected:
		return "82"
	case models.PhaseConnectError, models.PhaseFetchError:
		return "196"
	default:
		return "39"
	}
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
