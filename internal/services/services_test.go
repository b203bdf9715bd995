package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/dash33/internal/client"
	"github.com/kelsos/dash33/internal/config"
	"github.com/kelsos/dash33/internal/models"
)

func newConfig(t *testing.T, handler http.Handler, version config.APIVersion) *config.Config {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	cfg.APIVersion = version
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestNewGateway_SelectsContract(t *testing.T) {
	cfg := config.NewConfig()

	gw, err := NewGateway(cfg)
	require.NoError(t, err)
	assert.IsType(t, &WalletService{}, gw)

	cfg.APIVersion = config.APIVersionLegacy
	gw, err = NewGateway(cfg)
	require.NoError(t, err)
	assert.IsType(t, &LegacyWalletService{}, gw)

	cfg.APIVersion = "v9"
	_, err = NewGateway(cfg)
	assert.Error(t, err)
}

func TestWalletService_ConnectPostsRequestBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/wallet/connect", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"wallet_id":"abc123","wallet_type":"bitcoin"}`, string(body))
		w.WriteHeader(http.StatusOK)
	})

	svc := NewWalletService(client.NewAPIClient(newConfig(t, mux, config.APIVersionV1)))
	err := svc.Connect(context.Background(), models.ConnectionRequest{WalletID: " abc123", WalletType: "Bitcoin"})
	assert.NoError(t, err)
}

func TestWalletService_ConnectFailureIsTyped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/wallet/connect", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	svc := NewWalletService(client.NewAPIClient(newConfig(t, mux, config.APIVersionV1)))
	err := svc.Connect(context.Background(), models.ConnectionRequest{WalletID: "abc123", WalletType: models.WalletTypeBitcoin})
	require.Error(t, err)

	var connectErr *models.ConnectFailure
	require.True(t, errors.As(err, &connectErr))
	assert.Equal(t, "abc123", connectErr.WalletID)
	assert.Equal(t, models.MsgConnectFailed, connectErr.UserMessage())

	var httpErr *client.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestWalletService_FetchDashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dashboard/abc123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"wallet_info":{"balance":0.5,"transactions":[]},
			"analysis":{"risk_score":3,"recommendations":["diversify"],"predicted_trends":{"btc":1.1}},
			"web5_status":{"did":"did:ion:xyz","connected":true,"records":2}}`))
	})

	fetchedAt := time.Unix(1700000000, 0)
	svc := NewWalletService(client.NewAPIClient(newConfig(t, mux, config.APIVersionV1)))
	svc.now = func() time.Time { return fetchedAt }

	snapshot, err := svc.FetchDashboard(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "abc123", snapshot.WalletID)
	assert.True(t, snapshot.Balance.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, []string{"diversify"}, snapshot.Analysis.Recommendations)
	assert.Nil(t, snapshot.Lightning)
	require.NotNil(t, snapshot.Web5)
	assert.Equal(t, 2, snapshot.Web5.Records)
	assert.Equal(t, fetchedAt, snapshot.FetchedAt)
}

func TestWalletService_FetchDashboardEscapesWalletID(t *testing.T) {
	var gotPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"wallet_info":{"balance":0,"transactions":[]},"analysis":{}}`))
	})

	svc := NewWalletService(client.NewAPIClient(newConfig(t, handler, config.APIVersionV1)))
	_, err := svc.FetchDashboard(context.Background(), "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/dashboard/a%2Fb%20c", gotPath)
}

func TestWalletService_FetchFailureIsTyped(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	svc := NewWalletService(client.NewAPIClient(newConfig(t, handler, config.APIVersionV1)))
	_, err := svc.FetchDashboard(context.Background(), "abc123")

	var fetchErr *models.FetchFailure
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, models.MsgFetchFailed, fetchErr.UserMessage())
}

func TestWalletService_Status(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/wallet/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ready","network":"mainnet","features":["bitcoin","lightning","web5"],"ai_enabled":true}`))
	})

	svc := NewWalletService(client.NewAPIClient(newConfig(t, mux, config.APIVersionV1)))
	status, err := svc.Status(context.Background())
	require.NoError(t, err)

	assert.True(t, status.Ready())
	assert.Equal(t, "mainnet", status.Network)
	assert.Equal(t, []string{"bitcoin", "lightning", "web5"}, status.Features)
	assert.True(t, status.AIEnabled)
	assert.Equal(t, "/api/v1/wallet/status", svc.ReadinessEndpoint())
}

func TestLegacyWalletService_ConnectAndFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/wallet/connect/abc123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/wallet/abc123/analysis", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"risk_score":0.4,"recommendations":["hold"],"predicted_trends":{"price_trend":0.1}}`))
	})

	svc := NewLegacyWalletService(client.NewAPIClient(newConfig(t, mux, config.APIVersionLegacy)))
	ctx := context.Background()

	require.NoError(t, svc.Connect(ctx, models.ConnectionRequest{WalletID: "abc123", WalletType: models.WalletTypeBitcoin}))

	snapshot, err := svc.FetchDashboard(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 0.4, snapshot.Analysis.RiskScore)
	assert.Equal(t, []string{"hold"}, snapshot.Analysis.Recommendations)
	assert.True(t, snapshot.Balance.IsZero())
	assert.Empty(t, snapshot.Transactions)
}

func TestLegacyWalletService_FetchFailureMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	svc := NewLegacyWalletService(client.NewAPIClient(newConfig(t, handler, config.APIVersionLegacy)))
	_, err := svc.FetchDashboard(context.Background(), "abc123")
	assert.Equal(t, models.MsgAnalysisFailed, models.UserMessage(err, ""))

	_, err = svc.Status(context.Background())
	assert.ErrorIs(t, err, ErrStatusUnsupported)
}
