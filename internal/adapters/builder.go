package adapters

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/costpulse/costpulse/internal/domain/snapshot"
)

// snapshotBuilder accumulates normalized figures and enforces the snapshot
// invariants on build: non-negative costs, unique ascending daily dates
// inside [periodStart, now], and an "Other" bucket absorbing spend the
// provider did not attribute to a named service.
type snapshotBuilder struct {
	accountID   int64
	providerID  string
	now         time.Time
	periodStart time.Time

	services  map[string]float64
	changePct map[string]float64
	daily     map[string]float64 // keyed YYYY-MM-DD

	currentMonth  float64
	haveMonthCost bool
	lastMonth     float64
	forecast      float64
	credits       float64
	savings       float64
}

func newSnapshotBuilder(accountID int64, providerID string, now time.Time) *snapshotBuilder {
	return &snapshotBuilder{
		accountID:   accountID,
		providerID:  providerID,
		now:         now.UTC(),
		periodStart: time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC),
		services:    make(map[string]float64),
		changePct:   make(map[string]float64),
		daily:       make(map[string]float64),
	}
}

// addService folds one service cost in. Negative amounts are provider
// credits and land in the credits field, never in a service cost.
func (b *snapshotBuilder) addService(name string, cost float64) {
	if name == "" {
		name = snapshot.OtherServiceName
	}
	if cost < 0 {
		b.credits += -cost
		return
	}
	b.services[name] += cost
}

func (b *snapshotBuilder) setServiceChangePct(name string, pct float64) {
	if name != "" {
		b.changePct[name] = pct
	}
}

// addDaily folds one day's spend in. Rows for the same date accumulate,
// which keeps service-by-day grouped payloads correct; negatives are
// credits.
func (b *snapshotBuilder) addDaily(date time.Time, cost float64) {
	if date.IsZero() {
		return
	}
	if cost < 0 {
		b.credits += -cost
		return
	}
	b.daily[date.UTC().Format("2006-01-02")] += cost
}

func (b *snapshotBuilder) setCurrentMonthCost(c float64) {
	if c < 0 {
		b.credits += -c
		return
	}
	b.currentMonth = c
	b.haveMonthCost = true
}

func (b *snapshotBuilder) setLastMonthCost(c float64) {
	if c >= 0 {
		b.lastMonth = c
	}
}

func (b *snapshotBuilder) addLastMonthCost(c float64) {
	if c > 0 {
		b.lastMonth += c
	}
}

func (b *snapshotBuilder) setForecast(c float64) {
	if c >= 0 {
		b.forecast = c
	}
}

func (b *snapshotBuilder) addCredits(c float64) {
	b.credits += math.Abs(c)
}

func (b *snapshotBuilder) addSavings(c float64) {
	if c > 0 {
		b.savings += c
	}
}

// build assembles the snapshot and reconciles totals.
func (b *snapshotBuilder) build() *snapshot.NormalizedCostSnapshot {
	// Daily costs: unique, ascending, within [periodStart, now].
	dates := make([]string, 0, len(b.daily))
	for d := range b.daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	dailyCosts := make([]snapshot.DailyCost, 0, len(dates))
	for _, d := range dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		if t.Before(b.periodStart) || t.After(b.now) {
			continue
		}
		dailyCosts = append(dailyCosts, snapshot.DailyCost{Date: t, Cost: b.daily[d]})
	}

	serviceSum := 0.0
	names := make([]string, 0, len(b.services))
	for name, cost := range b.services {
		names = append(names, name)
		serviceSum += cost
	}
	sort.Slice(names, func(i, j int) bool {
		if b.services[names[i]] != b.services[names[j]] {
			return b.services[names[i]] > b.services[names[j]]
		}
		return names[i] < names[j]
	})

	currentMonth := b.currentMonth
	if !b.haveMonthCost {
		currentMonth = serviceSum
		if currentMonth == 0 {
			for _, dc := range dailyCosts {
				currentMonth += dc.Cost
			}
		}
	}

	services := make([]snapshot.ServiceCost, 0, len(names)+1)
	for _, name := range names {
		services = append(services, snapshot.ServiceCost{
			Name:      name,
			Cost:      b.services[name],
			ChangePct: b.changePct[name],
		})
	}

	// Unattributed spend goes to the synthetic "Other" bucket so service
	// costs keep summing approximately to the month total.
	if residual := currentMonth - serviceSum; residual > otherEpsilon(currentMonth) {
		services = append(services, snapshot.ServiceCost{
			Name: snapshot.OtherServiceName,
			Cost: residual,
		})
	}

	forecast := b.forecast
	if forecast == 0 && currentMonth > 0 {
		forecast = extrapolateMonth(currentMonth, b.periodStart, b.now)
	}

	return &snapshot.NormalizedCostSnapshot{
		AccountID:        b.accountID,
		ProviderID:       b.providerID,
		PeriodStart:      b.periodStart,
		CurrentMonthCost: currentMonth,
		LastMonthCost:    b.lastMonth,
		ForecastCost:     forecast,
		Credits:          b.credits,
		Savings:          b.savings,
		Services:         services,
		DailyCosts:       dailyCosts,
		FetchedAt:        b.now,
	}
}

// otherEpsilon is the residual below which no "Other" bucket is emitted:
// 1% of the month total or one cent, whichever is larger.
func otherEpsilon(total float64) float64 {
	return math.Max(total*0.01, 0.01)
}

// extrapolateMonth projects the month total linearly from days elapsed.
func extrapolateMonth(currentMonth float64, periodStart, now time.Time) float64 {
	daysElapsed := now.Sub(periodStart).Hours()/24 + 1
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	daysInMonth := float64(time.Date(periodStart.Year(), periodStart.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day())
	return currentMonth / daysElapsed * daysInMonth
}

// parseMoney parses a provider money amount that may arrive as a JSON
// string or number. Invalid values parse to 0.
func parseMoney(v interface{}) float64 {
	switch amt := v.(type) {
	case string:
		d, err := decimal.NewFromString(amt)
		if err != nil {
			return 0
		}
		return d.InexactFloat64()
	case float64:
		return amt
	case int:
		return float64(amt)
	default:
		return 0
	}
}

// parseMoneyString parses a decimal amount string, returning 0 for empty or
// malformed input.
func parseMoneyString(s string) float64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// parseDay parses a YYYY-MM-DD date, returning the zero time on failure.
func parseDay(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
