package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelsos/dash33/internal/dashboard"
	"github.com/kelsos/dash33/internal/logger"
	"github.com/kelsos/dash33/internal/models"
)

// DashboardMonitor runs the interactive dashboard for one wallet
type DashboardMonitor struct {
	controller *dashboard.Controller
	request    models.ConnectionRequest
	program    *tea.Program
}

// NewDashboardMonitor creates a monitor that connects request through controller
func NewDashboardMonitor(controller *dashboard.Controller, request models.ConnectionRequest) *DashboardMonitor {
	return &DashboardMonitor{
		controller: controller,
		request:    request,
	}
}

// Start builds the program and forwards every controller transition to it
func (dm *DashboardMonitor) Start(ctx context.Context) error {
	model := NewModel(ctx, dm.controller, dm.request)
	dm.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	dm.controller.Subscribe(func(state models.SessionState) {
		dm.program.Send(StateChanged{State: state})
	})

	return nil
}

// AddLog shows a line in the recent logs panel
func (dm *DashboardMonitor) AddLog(message string) {
	if dm.program != nil {
		dm.program.Send(LogMessage{
			Message: message,
		})
	}
}

// Run connects the wallet in the background and blocks until the user quits
func (dm *DashboardMonitor) Run(ctx context.Context) error {
	if dm.program == nil {
		return fmt.Errorf("monitor not started")
	}

	go func() {
		dm.AddLog(fmt.Sprintf("Connecting %s wallet %s", dm.request.WalletType, dm.request.WalletID))
		state := dm.controller.Connect(ctx, dm.request)
		logger.Info("Initial connect finished in phase %s", state.Phase)
	}()

	if _, err := dm.program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
