package models

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Transaction is a single wallet transaction as reported by the service
type Transaction struct {
	TxID          string          `json:"txid"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int             `json:"confirmations"`
	Time          int64           `json:"time"`
}

// AnalysisResult is the service's analysis of a wallet's activity
type AnalysisResult struct {
	RiskScore       float64            `json:"risk_score"`
	Recommendations []string           `json:"recommendations"`
	PredictedTrends map[string]float64 `json:"predicted_trends"`
}

// LightningStatus is the lightning block of the dashboard, present only for lightning capable wallets
type LightningStatus struct {
	NodeID   string          `json:"node_id,omitempty"`
	Channels int             `json:"channels,omitempty"`
	Capacity decimal.Decimal `json:"capacity"`
	Status   string          `json:"status,omitempty"`
	Extra    map[string]any  `json:"-"`
}

// Web5Status is the web5 block of the dashboard, present only when a DID is attached
type Web5Status struct {
	DID       string         `json:"did,omitempty"`
	Connected bool           `json:"connected"`
	Records   int            `json:"records,omitempty"`
	Extra     map[string]any `json:"-"`
}

// WalletInfo is the wallet_info block of the dashboard response
type WalletInfo struct {
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

// DashboardResponse is the body of GET /api/v1/dashboard/{walletId}
type DashboardResponse struct {
	WalletInfo      WalletInfo       `json:"wallet_info"`
	Analysis        AnalysisResult   `json:"analysis"`
	LightningStatus *LightningStatus `json:"lightning_status,omitempty"`
	Web5Status      *Web5Status      `json:"web5_status,omitempty"`
}

// ToSnapshot builds the snapshot for walletID from a dashboard response
func (r *DashboardResponse) ToSnapshot(walletID string, fetchedAt time.Time) *WalletSnapshot {
	transactions := r.WalletInfo.Transactions
	if transactions == nil {
		transactions = []Transaction{}
	}

	return &WalletSnapshot{
		WalletID:     walletID,
		Balance:      r.WalletInfo.Balance,
		Transactions: transactions,
		Analysis:     r.Analysis.normalized(),
		Lightning:    r.LightningStatus,
		Web5:         r.Web5Status,
		FetchedAt:    fetchedAt,
	}
}

// AnalysisSnapshot builds a snapshot that only carries an analysis, as served by the legacy contract
func AnalysisSnapshot(walletID string, analysis AnalysisResult, fetchedAt time.Time) *WalletSnapshot {
	return &WalletSnapshot{
		WalletID:     walletID,
		Balance:      decimal.Zero,
		Transactions: []Transaction{},
		Analysis:     analysis.normalized(),
		FetchedAt:    fetchedAt,
	}
}

func (a AnalysisResult) normalized() AnalysisResult {
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.PredictedTrends == nil {
		a.PredictedTrends = map[string]float64{}
	}
	return a
}

// UnmarshalJSON decodes the known lightning fields and keeps the rest in Extra
func (l *LightningStatus) UnmarshalJSON(data []byte) error {
	type plain LightningStatus
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	extra, err := unknownKeys(data, "node_id", "channels", "capacity", "status")
	if err != nil {
		return err
	}
	p.Extra = extra

	*l = LightningStatus(p)
	return nil
}

// UnmarshalJSON decodes the known web5 fields and keeps the rest in Extra
func (w *Web5Status) UnmarshalJSON(data []byte) error {
	type plain Web5Status
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	extra, err := unknownKeys(data, "did", "connected", "records")
	if err != nil {
		return err
	}
	p.Extra = extra

	*w = Web5Status(p)
	return nil
}

// MarshalJSON writes the known lightning fields and merges Extra back in
func (l LightningStatus) MarshalJSON() ([]byte, error) {
	type plain LightningStatus
	return withExtra(plain(l), l.Extra)
}

// MarshalJSON writes the known web5 fields and merges Extra back in
func (w Web5Status) MarshalJSON() ([]byte, error) {
	type plain Web5Status
	return withExtra(plain(w), w.Extra)
}

// withExtra encodes v and adds the extra keys that v does not already define
func withExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, known := merged[key]; !known {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

func unknownKeys(data []byte, known ...string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	for _, key := range known {
		delete(raw, key)
	}

	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// WalletSnapshot is the most recently fetched consistent view of a wallet.
// It is replaced as a whole on every successful fetch and must not be mutated after creation.
type WalletSnapshot struct {
	WalletID     string           `json:"wallet_id"`
	Balance      decimal.Decimal  `json:"balance"`
	Transactions []Transaction    `json:"transactions"`
	Analysis     AnalysisResult   `json:"analysis"`
	Lightning    *LightningStatus `json:"lightning_status,omitempty"`
	Web5         *Web5Status      `json:"web5_status,omitempty"`
	FetchedAt    time.Time        `json:"fetched_at"`
}
