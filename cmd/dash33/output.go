package main

import (
	"sort"
	"strings"
	"time"

	"github.com/kelsos/dash33/internal/logger"
	"github.com/kelsos/dash33/internal/models"
)

func printSnapshot(snapshot *models.WalletSnapshot) {
	if snapshot == nil {
		return
	}

	logger.Info("Wallet %s (fetched %s)", snapshot.WalletID, snapshot.FetchedAt.Format(time.RFC3339))
	logger.Info("Balance: %s", snapshot.Balance.String())
	logger.Info("Transactions: %d", len(snapshot.Transactions))
	for _, tx := range snapshot.Transactions {
		logger.Info("  %s %s (%d confirmations)", tx.TxID, tx.Amount.String(), tx.Confirmations)
	}

	printAnalysis(snapshot.Analysis)

	if ln := snapshot.Lightning; ln != nil {
		logger.Info("Lightning: node %s, %d channels, capacity %s, status %s",
			ln.NodeID, ln.Channels, ln.Capacity.String(), ln.Status)
	}
	if w5 := snapshot.Web5; w5 != nil {
		logger.Info("Web5: did %s, connected %t, %d records", w5.DID, w5.Connected, w5.Records)
	}
}

func printAnalysis(analysis models.AnalysisResult) {
	logger.Info("Risk score: %.2f", analysis.RiskScore)

	if len(analysis.Recommendations) > 0 {
		logger.Info("Recommendations: %s", strings.Join(analysis.Recommendations, "; "))
	}

	keys := make([]string, 0, len(analysis.PredictedTrends))
	for k := range analysis.PredictedTrends {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		logger.Info("Trend %s: %.4f", k, analysis.PredictedTrends[k])
	}
}

func printStatus(status *models.ServiceStatus) {
	logger.Info("Status: %s", status.Status)
	logger.Info("Network: %s", status.Network)
	logger.Info("Features: %s", strings.Join(status.Features, ", "))
	logger.Info("AI enabled: %t", status.AIEnabled)
}
