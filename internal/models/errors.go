package models

import (
	"errors"
	"fmt"
)

const (
	MsgConnectFailed  = "Failed to connect wallet"
	MsgFetchFailed    = "Failed to fetch dashboard data"
	MsgAnalysisFailed = "Failed to get analysis"
	MsgNotConnected   = "Wallet not connected"
)

// ErrNotConnected is returned when data is requested before a wallet was connected
var ErrNotConnected = errors.New("wallet not connected")

// ConnectFailure means the connect call was rejected or returned a non-success status
type ConnectFailure struct {
	WalletID string
	Message  string
	Err      error
}

func (e *ConnectFailure) Error() string {
	return fmt.Sprintf("connect wallet %s: %v", e.WalletID, e.Err)
}

func (e *ConnectFailure) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user for this failure
func (e *ConnectFailure) UserMessage() string {
	if e.Message == "" {
		return MsgConnectFailed
	}
	return e.Message
}

// FetchFailure means the dashboard data call was rejected or returned a non-success status
type FetchFailure struct {
	WalletID string
	Message  string
	Err      error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch dashboard for wallet %s: %v", e.WalletID, e.Err)
}

func (e *FetchFailure) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user for this failure
func (e *FetchFailure) UserMessage() string {
	if e.Message == "" {
		return MsgFetchFailed
	}
	return e.Message
}

// UserMessage extracts the user facing message from an error chain.
// Errors that carry no failure kind fall back to fallback.
func UserMessage(err error, fallback string) string {
	var connectErr *ConnectFailure
	if errors.As(err, &connectErr) {
		return connectErr.UserMessage()
	}

	var fetchErr *FetchFailure
	if errors.As(err, &fetchErr) {
		return fetchErr.UserMessage()
	}

	return fallback
}
