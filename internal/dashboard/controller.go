package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelsos/dash33/internal/logger"
	"github.com/kelsos/dash33/internal/models"
)

// Gateway is the part of the wallet service the controller needs
type Gateway interface {
	Connect(ctx context.Context, req models.ConnectionRequest) error
	FetchDashboard(ctx context.Context, walletID string) (*models.WalletSnapshot, error)
}

// Observer is called with a copy of the state after every transition
type Observer func(models.SessionState)

// Option configures a Controller
type Option func(*Controller)

// WithObserver registers an observer at construction time
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, observer)
	}
}

// Controller owns the session state of one dashboard and sequences the
// connect-then-fetch workflow against a Gateway.
//
// Calls are not serialized against each other: overlapping refreshes all hit
// the network and whichever resolves last wins. Only the application of a
// transition is atomic.
type Controller struct {
	gateway   Gateway
	mu        sync.Mutex
	state     models.SessionState
	observers []Observer
}

// NewController creates a controller in the idle state
func NewController(gateway Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway: gateway,
		state:   models.NewSessionState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers an observer for all future transitions
func (c *Controller) Subscribe(observer Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, observer)
}

// State returns a copy of the current session state
func (c *Controller) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) dispatch(action Action) models.SessionState {
	c.mu.Lock()
	c.state = Reduce(c.state, action)
	state := c.state
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, observer := range observers {
		observer(state)
	}
	return state
}

// Connect associates the wallet with the service and, only if that worked, loads its dashboard data
func (c *Controller) Connect(ctx context.Context, req models.ConnectionRequest) models.SessionState {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		logger.Warn("Rejected connection request: %v", err)
		return c.dispatch(ConnectRejected{Message: fmt.Sprintf("Invalid connection request: %v", err)})
	}

	c.dispatch(ConnectStarted{Request: req})

	if err := c.gateway.Connect(ctx, req); err != nil {
		logger.Error("Failed to connect wallet %s: %v", req.WalletID, err)
		return c.dispatch(ConnectFailed{Message: models.UserMessage(err, models.MsgConnectFailed)})
	}

	c.dispatch(ConnectSucceeded{Request: req})
	return c.fetch(ctx, req.WalletID)
}

// Refresh reloads the dashboard data of a connected wallet. An empty walletID
// means the connected one. Without a prior successful connect no call is
// made and the state reports "Wallet not connected".
func (c *Controller) Refresh(ctx context.Context, walletID string) models.SessionState {
	current := c.State()
	if !current.Connected {
		logger.Warn("Refresh rejected: %v", models.ErrNotConnected)
		return c.dispatch(RefreshRejected{Message: models.MsgNotConnected})
	}

	walletID = strings.TrimSpace(walletID)
	if walletID == "" {
		walletID = current.WalletID
	}

	c.dispatch(FetchStarted{WalletID: walletID})
	return c.fetch(ctx, walletID)
}

func (c *Controller) fetch(ctx context.Context, walletID string) models.SessionState {
	snapshot, err := c.gateway.FetchDashboard(ctx, walletID)
	if err == nil && snapshot == nil {
		err = &models.FetchFailure{WalletID: walletID, Err: fmt.Errorf("empty dashboard response")}
	}
	if err != nil {
		logger.Error("Failed to fetch dashboard data for wallet %s: %v", walletID, err)
		return c.dispatch(FetchFailed{Message: models.UserMessage(err, models.MsgFetchFailed)})
	}

	logger.Debug("Dashboard snapshot for wallet %s replaced", walletID)
	return c.dispatch(FetchSucceeded{Snapshot: snapshot})
}
