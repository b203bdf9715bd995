package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kelsos/dash33/internal/client"
	"github.com/kelsos/dash33/internal/logger"
	"github.com/kelsos/dash33/internal/models"
)

const (
	v1ConnectEndpoint   = "/api/v1/wallet/connect"
	v1DashboardEndpoint = "/api/v1/dashboard/%s"
	v1StatusEndpoint    = "/api/v1/wallet/status"
)

// WalletService talks to the /api/v1 wallet contract
type WalletService struct {
	client *client.APIClient
	now    clock
}

// NewWalletService creates a new v1 wallet service
func NewWalletService(apiClient *client.APIClient) *WalletService {
	return &WalletService{
		client: apiClient,
		now:    time.Now,
	}
}

// Connect associates the wallet with the service
func (s *WalletService) Connect(ctx context.Context, req models.ConnectionRequest) error {
	req = req.Normalize()
	logger.Info("Connecting %s wallet %s", req.WalletType, req.WalletID)

	if err := s.client.Post(ctx, v1ConnectEndpoint, req, nil); err != nil {
		return &models.ConnectFailure{WalletID: req.WalletID, Err: err}
	}

	logger.Debug("Wallet %s connected", req.WalletID)
	return nil
}

// FetchDashboard loads balance, transactions, analysis and optional status blocks for a wallet
func (s *WalletService) FetchDashboard(ctx context.Context, walletID string) (*models.WalletSnapshot, error) {
	logger.Info("Fetching dashboard data for wallet %s", walletID)

	endpoint := fmt.Sprintf(v1DashboardEndpoint, client.PathEscape(walletID))
	var response models.DashboardResponse
	if err := s.client.Get(ctx, endpoint, &response); err != nil {
		return nil, &models.FetchFailure{WalletID: walletID, Err: err}
	}

	snapshot := response.ToSnapshot(walletID, s.now())
	logger.Debug("Fetched dashboard for wallet %s: %d transactions, lightning=%t, web5=%t",
		walletID, len(snapshot.Transactions), snapshot.Lightning != nil, snapshot.Web5 != nil)
	return snapshot, nil
}

// Status reports the service status
func (s *WalletService) Status(ctx context.Context) (*models.ServiceStatus, error) {
	var status models.ServiceStatus
	if err := s.client.Get(ctx, v1StatusEndpoint, &status); err != nil {
		return nil, fmt.Errorf("failed to get service status: %w", err)
	}
	return &status, nil
}

// ReadinessEndpoint returns the status path
func (s *WalletService) ReadinessEndpoint() string {
	return v1StatusEndpoint
}
