package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/dash33/internal/models"
)

// MockGateway is a mock implementation of Gateway for testing
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Connect(ctx context.Context, req models.ConnectionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockGateway) FetchDashboard(ctx context.Context, walletID string) (*models.WalletSnapshot, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletSnapshot), args.Error(1)
}

func sampleSnapshot(walletID string) *models.WalletSnapshot {
	return &models.WalletSnapshot{
		WalletID:     walletID,
		Balance:      decimal.RequireFromString("0.5"),
		Transactions: []models.Transaction{},
		Analysis: models.AnalysisResult{
			RiskScore:       3,
			Recommendations: []string{"diversify"},
			PredictedTrends: map[string]float64{"btc": 1.1},
		},
		FetchedAt: time.Unix(1700000000, 0),
	}
}

func TestConnect_SuccessReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	snapshot := sampleSnapshot("abc123")
	gw.On("Connect", ctx, bitcoinRequest).Return(nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(snapshot, nil).Once()

	c := NewController(gw)
	state := c.Connect(ctx, bitcoinRequest)

	assert.Equal(t, models.SessionState{
		Phase:      models.PhaseConnected,
		Connected:  true,
		Loading:    false,
		Error:      "",
		WalletID:   "abc123",
		WalletType: models.WalletTypeBitcoin,
		Snapshot:   snapshot,
	}, state)
	assert.Equal(t, state, c.State())
	gw.AssertExpectations(t)
}

func TestConnect_FailureIssuesNoFetch(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	gw.On("Connect", ctx, bitcoinRequest).
		Return(&models.ConnectFailure{WalletID: "abc123", Err: errors.New("HTTP error 500")}).Once()

	c := NewController(gw)
	state := c.Connect(ctx, bitcoinRequest)

	assert.False(t, state.Connected)
	assert.False(t, state.Loading)
	assert.Equal(t, models.MsgConnectFailed, state.Error)
	assert.Nil(t, state.Snapshot)
	assert.Equal(t, models.PhaseConnectError, state.Phase)
	gw.AssertNotCalled(t, "FetchDashboard", mock.Anything, mock.Anything)
}

func TestConnect_FetchFailureKeepsConnectionAndPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	previous := sampleSnapshot("abc123")
	gw.On("Connect", ctx, bitcoinRequest).Return(nil).Twice()
	gw.On("FetchDashboard", ctx, "abc123").Return(previous, nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").
		Return(nil, &models.FetchFailure{WalletID: "abc123", Err: errors.New("HTTP error 502")}).Once()

	c := NewController(gw)
	c.Connect(ctx, bitcoinRequest)
	state := c.Connect(ctx, bitcoinRequest)

	assert.True(t, state.Connected)
	assert.False(t, state.Loading)
	assert.Equal(t, models.MsgFetchFailed, state.Error)
	assert.Equal(t, models.PhaseFetchError, state.Phase)
	assert.Same(t, previous, state.Snapshot)
	gw.AssertExpectations(t)
}

func TestConnect_UntypedGatewayErrorUsesDefaultMessage(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	gw.On("Connect", ctx, bitcoinRequest).Return(context.DeadlineExceeded).Once()

	state := NewController(gw).Connect(ctx, bitcoinRequest)
	assert.Equal(t, models.MsgConnectFailed, state.Error)
}

func TestConnect_InvalidRequestIssuesNoCalls(t *testing.T) {
	gw := new(MockGateway)
	c := NewController(gw)

	state := c.Connect(context.Background(), models.ConnectionRequest{WalletID: "  ", WalletType: models.WalletTypeBitcoin})
	assert.Contains(t, state.Error, "Invalid connection request")
	assert.Equal(t, models.PhaseConnectError, state.Phase)
	assert.False(t, state.Loading)

	state = c.Connect(context.Background(), models.ConnectionRequest{WalletID: "abc123", WalletType: "dogecoin"})
	assert.Contains(t, state.Error, "wallet_type")

	gw.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "FetchDashboard", mock.Anything, mock.Anything)
}

func TestConnect_NormalizesRequest(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	gw.On("Connect", ctx, models.ConnectionRequest{WalletID: "abc123", WalletType: models.WalletTypeLightning}).Return(nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(sampleSnapshot("abc123"), nil).Once()

	state := NewController(gw).Connect(ctx, models.ConnectionRequest{WalletID: " abc123 ", WalletType: "Lightning"})
	assert.Equal(t, models.WalletTypeLightning, state.WalletType)
	gw.AssertExpectations(t)
}

func TestConnect_FailedReconnectKeepsPreviousWallet(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	other := models.ConnectionRequest{WalletID: "zzz999", WalletType: models.WalletTypeWeb5}
	snapshot := sampleSnapshot("abc123")
	gw.On("Connect", ctx, bitcoinRequest).Return(nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(snapshot, nil).Once()
	gw.On("Connect", ctx, other).Return(&models.ConnectFailure{WalletID: "zzz999", Err: errors.New("nope")}).Once()

	c := NewController(gw)
	c.Connect(ctx, bitcoinRequest)
	state := c.Connect(ctx, other)

	assert.True(t, state.Connected)
	assert.Equal(t, "abc123", state.WalletID)
	assert.Equal(t, models.WalletTypeBitcoin, state.WalletType)
	assert.Same(t, snapshot, state.Snapshot)
	assert.Equal(t, models.MsgConnectFailed, state.Error)
	gw.AssertExpectations(t)
}

func TestRefresh_NotConnectedReportsErrorWithoutCalls(t *testing.T) {
	gw := new(MockGateway)
	c := NewController(gw)

	state := c.Refresh(context.Background(), "abc123")

	assert.Equal(t, models.MsgNotConnected, state.Error)
	assert.Equal(t, models.PhaseIdle, state.Phase)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Snapshot)
	gw.AssertNotCalled(t, "FetchDashboard", mock.Anything, mock.Anything)
}

func TestRefresh_TwiceWithIdenticalResponsesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	gw.On("Connect", ctx, bitcoinRequest).Return(nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(sampleSnapshot("abc123"), nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(sampleSnapshot("abc123"), nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(sampleSnapshot("abc123"), nil).Once()

	c := NewController(gw)
	c.Connect(ctx, bitcoinRequest)

	first := c.Refresh(ctx, "abc123")
	second := c.Refresh(ctx, "")

	assert.Equal(t, first, second)
	assert.Empty(t, second.Error)
	assert.Equal(t, models.PhaseConnected, second.Phase)
	gw.AssertExpectations(t)
}

func TestRefresh_FailureAfterSuccessKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	snapshot := sampleSnapshot("abc123")
	gw.On("Connect", ctx, bitcoinRequest).Return(nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(snapshot, nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(nil, errors.New("connection reset")).Once()

	c := NewController(gw)
	c.Connect(ctx, bitcoinRequest)
	state := c.Refresh(ctx, "abc123")

	assert.Equal(t, models.MsgFetchFailed, state.Error)
	assert.True(t, state.Connected)
	assert.Same(t, snapshot, state.Snapshot)
}

func TestRefresh_NilSnapshotIsFetchFailure(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	gw.On("Connect", ctx, bitcoinRequest).Return(nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(nil, nil).Once()

	state := NewController(gw).Connect(ctx, bitcoinRequest)
	assert.Equal(t, models.MsgFetchFailed, state.Error)
	assert.Nil(t, state.Snapshot)
}

func TestObserver_SeesEveryTransition(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	gw.On("Connect", ctx, bitcoinRequest).Return(nil).Once()
	gw.On("FetchDashboard", ctx, "abc123").Return(sampleSnapshot("abc123"), nil).Once()

	var phases []models.Phase
	var loading []bool
	c := NewController(gw, WithObserver(func(s models.SessionState) {
		phases = append(phases, s.Phase)
		loading = append(loading, s.Loading)
	}))
	c.Connect(ctx, bitcoinRequest)

	assert.Equal(t, []models.Phase{models.PhaseConnecting, models.PhaseFetching, models.PhaseConnected}, phases)
	assert.Equal(t, []bool{true, true, false}, loading)
}

// blockingGateway parks every call until the test releases it
type blockingGateway struct {
	connectRelease chan error
	fetchStarted   chan string
	fetchRelease   chan *models.WalletSnapshot
}

func newBlockingGateway() *blockingGateway {
	return &blockingGateway{
		connectRelease: make(chan error),
		fetchStarted:   make(chan string, 4),
		fetchRelease:   make(chan *models.WalletSnapshot),
	}
}

func (g *blockingGateway) Connect(ctx context.Context, req models.ConnectionRequest) error {
	return <-g.connectRelease
}

func (g *blockingGateway) FetchDashboard(ctx context.Context, walletID string) (*models.WalletSnapshot, error) {
	g.fetchStarted <- walletID
	return <-g.fetchRelease, nil
}

func TestConnect_LoadingWhileOutstanding(t *testing.T) {
	gw := newBlockingGateway()
	c := NewController(gw)

	done := make(chan models.SessionState)
	go func() { done <- c.Connect(context.Background(), bitcoinRequest) }()

	require.Eventually(t, func() bool { return c.State().Phase == models.PhaseConnecting }, time.Second, time.Millisecond)
	assert.True(t, c.State().Loading)

	gw.connectRelease <- nil
	<-gw.fetchStarted
	assert.True(t, c.State().Loading)
	assert.Equal(t, models.PhaseFetching, c.State().Phase)

	gw.fetchRelease <- sampleSnapshot("abc123")
	state := <-done
	assert.False(t, state.Loading)
	assert.Equal(t, models.PhaseConnected, state.Phase)
}

func TestRefresh_OverlappingLastToResolveWins(t *testing.T) {
	gw := newBlockingGateway()
	c := NewController(gw)
	ctx := context.Background()

	go func() { gw.connectRelease <- nil }()
	go func() {
		<-gw.fetchStarted
		gw.fetchRelease <- sampleSnapshot("abc123")
	}()
	c.Connect(ctx, bitcoinRequest)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.Refresh(ctx, "") }()
	go func() { defer wg.Done(); c.Refresh(ctx, "") }()

	<-gw.fetchStarted
	<-gw.fetchStarted
	state := c.State()
	assert.Equal(t, 2, state.InFlight)
	assert.True(t, state.Loading)

	first := sampleSnapshot("abc123")
	first.Balance = decimal.RequireFromString("1")
	gw.fetchRelease <- first
	require.Eventually(t, func() bool { return c.State().InFlight == 1 }, time.Second, time.Millisecond)
	assert.True(t, c.State().Loading)

	last := sampleSnapshot("abc123")
	last.Balance = decimal.RequireFromString("2")
	gw.fetchRelease <- last
	wg.Wait()

	state = c.State()
	assert.False(t, state.Loading)
	assert.Same(t, last, state.Snapshot)
}
