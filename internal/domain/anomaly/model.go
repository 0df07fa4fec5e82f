package anomaly

import "time"

// Event is an immutable record of a detected cost deviation. Only
// ResolutionStatus may change after creation, and only through an operator
// action via Transition.
type Event struct {
	ID                   string               `json:"id"`
	AccountID            int64                `json:"account_id"`
	ProviderID           string               `json:"provider_id"`
	ServiceName          string               `json:"service_name"`
	DetectedDate         time.Time            `json:"detected_date"`
	AnomalyType          string               `json:"anomaly_type"`
	Severity             string               `json:"severity"`
	ExpectedCost         float64              `json:"expected_cost"`
	ActualCost           float64              `json:"actual_cost"`
	VariancePercent      float64              `json:"variance_percent"`
	ContributingServices []ContributingService `json:"contributing_services,omitempty"`
	ResolutionStatus     string               `json:"resolution_status"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at,omitempty"`
}

// ContributingService is a service whose dollar increase helps explain an
// anomaly, ranked by absolute delta.
type ContributingService struct {
	Name        string  `json:"name"`
	Delta       float64 `json:"delta"`
	CurrentCost float64 `json:"current_cost"`
}

// Anomaly types
const (
	TypeSpike = "spike"
	TypeDrop  = "drop"
	TypeTrend = "trend"
)

// Severity levels
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Resolution statuses
const (
	StatusOpen          = "open"
	StatusAcknowledged  = "acknowledged"
	StatusInvestigating = "investigating"
	StatusResolved      = "resolved"
	StatusFalsePositive = "false_positive"
)

// transitions encodes the operator-driven resolution state machine.
// resolved and false_positive are terminal.
var transitions = map[string][]string{
	StatusOpen:          {StatusAcknowledged, StatusInvestigating, StatusFalsePositive},
	StatusAcknowledged:  {StatusInvestigating, StatusResolved},
	StatusInvestigating: {StatusResolved},
	StatusResolved:      {},
	StatusFalsePositive: {},
}

// ValidStatus reports whether s names a known resolution status.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an event may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidSeverity reports whether s names a known severity.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Filter contains anomaly event filtering options
type Filter struct {
	AccountID int64
	Status    string
	Severity  string
	Type      string
}
