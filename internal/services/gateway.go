package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kelsos/dash33/internal/client"
	"github.com/kelsos/dash33/internal/config"
	"github.com/kelsos/dash33/internal/models"
)

// ErrStatusUnsupported is returned by gateways whose contract has no status endpoint
var ErrStatusUnsupported = errors.New("status endpoint not supported by this API version")

// Gateway speaks one HTTP contract of the wallet service
type Gateway interface {
	Connect(ctx context.Context, req models.ConnectionRequest) error
	FetchDashboard(ctx context.Context, walletID string) (*models.WalletSnapshot, error)
	Status(ctx context.Context) (*models.ServiceStatus, error)
	// ReadinessEndpoint is the path pinged while waiting for the service to come up
	ReadinessEndpoint() string
}

// NewGateway builds the gateway selected by cfg.APIVersion
func NewGateway(cfg *config.Config) (Gateway, error) {
	apiClient := client.NewAPIClient(cfg)

	switch cfg.APIVersion {
	case config.APIVersionV1, "":
		return NewWalletService(apiClient), nil
	case config.APIVersionLegacy:
		return NewLegacyWalletService(apiClient), nil
	default:
		return nil, fmt.Errorf("unsupported API version %q", cfg.APIVersion)
	}
}

type clock func() time.Time
