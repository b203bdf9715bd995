package models

// Phase is the position of a session in the connect/fetch state machine
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseConnecting   Phase = "connecting"
	PhaseConnected    Phase = "connected"
	PhaseConnectError Phase = "connect_error"
	PhaseFetching     Phase = "fetching"
	PhaseFetchError   Phase = "fetch_error"
)

// SessionState is the client side view of one dashboard session.
//
// Loading is true exactly while InFlight > 0. Error and a freshly replaced
// Snapshot never come from the same operation: a failure keeps the previous
// Snapshot and sets Error, a success replaces Snapshot and clears Error.
type SessionState struct {
	Phase      Phase           `json:"phase"`
	Connected  bool            `json:"connected"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
	WalletID   string          `json:"wallet_id,omitempty"`
	WalletType WalletType      `json:"wallet_type,omitempty"`
	Snapshot   *WalletSnapshot `json:"snapshot,omitempty"`
	InFlight   int             `json:"-"`
}

// NewSessionState returns the state of a session that has not done anything yet
func NewSessionState() SessionState {
	return SessionState{Phase: PhaseIdle}
}

// HasError reports whether the most recent operation failed
func (s SessionState) HasError() bool {
	return s.Error != ""
}
