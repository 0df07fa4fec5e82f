package snapshot

import "time"

// NormalizedCostSnapshot is the canonical cost record produced by a provider
// adapter for one sync run. All monetary fields are non-negative after
// normalization; negative raw amounts (refunds, promo credits) are folded
// into Credits.
type NormalizedCostSnapshot struct {
	AccountID        int64         `json:"account_id"`
	ProviderID       string        `json:"provider_id"`
	PeriodStart      time.Time     `json:"period_start"`
	CurrentMonthCost float64       `json:"current_month_cost"`
	LastMonthCost    float64       `json:"last_month_cost"`
	ForecastCost     float64       `json:"forecast_cost"`
	Credits          float64       `json:"credits"`
	Savings          float64       `json:"savings"`
	Services         []ServiceCost `json:"services"`
	DailyCosts       []DailyCost   `json:"daily_costs"`
	FetchedAt        time.Time     `json:"fetched_at"`
}

// ServiceCost is one service's share of the current month spend.
type ServiceCost struct {
	Name      string  `json:"name"`
	Cost      float64 `json:"cost"`
	ChangePct float64 `json:"change_pct"`
}

// DailyCost is the total spend for one calendar day.
type DailyCost struct {
	Date time.Time `json:"date"`
	Cost float64   `json:"cost"`
}

// OtherServiceName is the synthetic bucket for spend that could not be
// attributed to a named service.
const OtherServiceName = "Other"

// ServiceCostOn returns the cost recorded for a service name, or 0.
func (s *NormalizedCostSnapshot) ServiceCostOn(name string) float64 {
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc.Cost
		}
	}
	return 0
}

// LatestDailyCost returns the most recent daily cost entry, if any.
func (s *NormalizedCostSnapshot) LatestDailyCost() (DailyCost, bool) {
	if len(s.DailyCosts) == 0 {
		return DailyCost{}, false
	}
	return s.DailyCosts[len(s.DailyCosts)-1], true
}
