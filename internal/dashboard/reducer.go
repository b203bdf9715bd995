package dashboard

import (
	"github.com/kelsos/dash33/internal/models"
)

// Action is a state transition request applied by Reduce
type Action interface {
	isAction()
}

// ConnectStarted marks the connect call as issued
type ConnectStarted struct {
	Request models.ConnectionRequest
}

// ConnectSucceeded records the new wallet association. The connect call's
// in-flight slot is handed over to the chained fetch, so Loading stays true.
type ConnectSucceeded struct {
	Request models.ConnectionRequest
}

// ConnectFailed ends a connect attempt with an error
type ConnectFailed struct {
	Message string
}

// ConnectRejected reports a request refused before any call was made
type ConnectRejected struct {
	Message string
}

// FetchStarted marks a standalone fetch (refresh) as issued
type FetchStarted struct {
	WalletID string
}

// FetchSucceeded replaces the snapshot
type FetchSucceeded struct {
	Snapshot *models.WalletSnapshot
}

// FetchFailed ends a fetch with an error, keeping the previous snapshot
type FetchFailed struct {
	Message string
}

// RefreshRejected reports a refresh refused before any call was made
type RefreshRejected struct {
	Message string
}

func (ConnectStarted) isAction()   {}
func (ConnectSucceeded) isAction() {}
func (ConnectFailed) isAction()    {}
func (ConnectRejected) isAction()  {}
func (FetchStarted) isAction()     {}
func (FetchSucceeded) isAction()   {}
func (FetchFailed) isAction()      {}
func (RefreshRejected) isAction()  {}

// Reduce returns the state that results from applying action to state.
// It never mutates its input and is the only place session state changes.
func Reduce(state models.SessionState, action Action) models.SessionState {
	switch a := action.(type) {
	case ConnectStarted:
		state = handleConnectStarted(state)
	case ConnectSucceeded:
		state = handleConnectSucceeded(state, a)
	case ConnectFailed:
		state = handleConnectFailed(state, a)
	case ConnectRejected:
		state.Phase = models.PhaseConnectError
		state.Error = a.Message
	case FetchStarted:
		state = handleFetchStarted(state)
	case FetchSucceeded:
		state = handleFetchSucceeded(state, a)
	case FetchFailed:
		state = handleFetchFailed(state, a)
	case RefreshRejected:
		state.Error = a.Message
	}

	state.Loading = state.InFlight > 0
	return state
}

func handleConnectStarted(state models.SessionState) models.SessionState {
	state.InFlight++
	state.Error = ""
	state.Phase = models.PhaseConnecting
	return state
}

func handleConnectSucceeded(state models.SessionState, a ConnectSucceeded) models.SessionState {
	state.Connected = true
	state.WalletID = a.Request.WalletID
	state.WalletType = a.Request.WalletType
	state.Phase = models.PhaseFetching
	return state
}

func handleConnectFailed(state models.SessionState, a ConnectFailed) models.SessionState {
	state = finishRequest(state)
	state.Error = a.Message
	state.Phase = models.PhaseConnectError
	return state
}

func handleFetchStarted(state models.SessionState) models.SessionState {
	state.InFlight++
	state.Error = ""
	state.Phase = models.PhaseFetching
	return state
}

func handleFetchSucceeded(state models.SessionState, a FetchSucceeded) models.SessionState {
	state = finishRequest(state)
	state.Snapshot = a.Snapshot
	state.Error = ""
	state.Phase = models.PhaseConnected
	return state
}

func handleFetchFailed(state models.SessionState, a FetchFailed) models.SessionState {
	state = finishRequest(state)
	state.Error = a.Message
	state.Phase = models.PhaseFetchError
	return state
}

func finishRequest(state models.SessionState) models.SessionState {
	if state.InFlight > 0 {
		state.InFlight--
	}
	return state
}
