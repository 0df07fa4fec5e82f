package dto

// UpdateAnomalyStatusRequest moves an anomaly event through the resolution
// state machine.
type UpdateAnomalyStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open acknowledged investigating resolved false_positive"`
}
