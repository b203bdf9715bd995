package models

// ServiceStatus is the body of GET /api/v1/wallet/status
type ServiceStatus struct {
	Status    string   `json:"status"`
	Network   string   `json:"network"`
	Features  []string `json:"features"`
	AIEnabled bool     `json:"ai_enabled"`
}

// Ready reports whether the service declares itself ready
func (s *ServiceStatus) Ready() bool {
	return s != nil && s.Status == "ready"
}
