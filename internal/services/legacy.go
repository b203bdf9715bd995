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
	legacyConnectEndpoint  = "/api/wallet/connect/%s"
	legacyAnalysisEndpoint = "/api/wallet/%s/analysis"
)

// LegacyWalletService talks to the unversioned /api/wallet contract.
// That contract only serves an analysis, so snapshots carry no balance or transactions.
type LegacyWalletService struct {
	client *client.APIClient
	now    clock
}

// NewLegacyWalletService creates a new legacy wallet service
func NewLegacyWalletService(apiClient *client.APIClient) *LegacyWalletService {
	return &LegacyWalletService{
		client: apiClient,
		now:    time.Now,
	}
}

// Connect associates the wallet with the service. The wallet type is not part of this contract.
func (s *LegacyWalletService) Connect(ctx context.Context, req models.ConnectionRequest) error {
	req = req.Normalize()
	logger.Info("Connecting wallet %s (legacy API)", req.WalletID)

	endpoint := fmt.Sprintf(legacyConnectEndpoint, client.PathEscape(req.WalletID))
	if err := s.client.Post(ctx, endpoint, nil, nil); err != nil {
		return &models.ConnectFailure{WalletID: req.WalletID, Err: err}
	}

	logger.Debug("Wallet %s connected", req.WalletID)
	return nil
}

// FetchDashboard loads the wallet analysis
func (s *LegacyWalletService) FetchDashboard(ctx context.Context, walletID string) (*models.WalletSnapshot, error) {
	logger.Info("Fetching analysis for wallet %s (legacy API)", walletID)

	endpoint := fmt.Sprintf(legacyAnalysisEndpoint, client.PathEscape(walletID))
	var analysis models.AnalysisResult
	if err := s.client.Get(ctx, endpoint, &analysis); err != nil {
		return nil, &models.FetchFailure{WalletID: walletID, Message: models.MsgAnalysisFailed, Err: err}
	}

	return models.AnalysisSnapshot(walletID, analysis, s.now()), nil
}

// Status is not served by the legacy contract
func (s *LegacyWalletService) Status(ctx context.Context) (*models.ServiceStatus, error) {
	return nil, ErrStatusUnsupported
}

// ReadinessEndpoint returns the root path, the legacy contract has nothing better
func (s *LegacyWalletService) ReadinessEndpoint() string {
	return "/"
}
