package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// GCPFetcher retrieves cost data from a BigQuery billing export table:
// one row per (service, day) with usage cost and credit sums.
type GCPFetcher struct{}

func (f *GCPFetcher) ProviderID() string { return account.ProviderGCP }

type gcpRow struct {
	ServiceName string  `json:"service_name"`
	CostDate    string  `json:"cost_date"`
	DailyCost   float64 `json:"daily_cost"`
	Credits     float64 `json:"credits"`
	Currency    string  `json:"currency"`
}

func (f *GCPFetcher) Fetch(ctx context.Context, acct *account.Account, creds Credentials) (json.RawMessage, error) {
	dataset := creds.Get("billing_dataset")
	if dataset == "" {
		return nil, errors.AuthenticationError(account.ProviderGCP,
			fmt.Errorf("no billing export dataset configured"))
	}

	var opts []option.ClientOption
	if saJSON := creds.Get("service_account_json"); saJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(saJSON)))
	}

	client, err := bigquery.NewClient(ctx, creds.Get("project_id"), opts...)
	if err != nil {
		return nil, errors.AuthenticationError(account.ProviderGCP, err)
	}
	defer client.Close()

	start := time.Now().UTC().AddDate(0, -1, 0)
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	query := client.Query(fmt.Sprintf(`
		SELECT
			service.description AS service_name,
			DATE(usage_start_time) AS cost_date,
			SUM(cost) AS daily_cost,
			SUM(IFNULL((SELECT SUM(c.amount) FROM UNNEST(credits) c), 0)) AS credits,
			currency
		FROM %s
		WHERE DATE(usage_start_time) >= @start_date
		GROUP BY service_name, cost_date, currency
		ORDER BY cost_date ASC
	`, fmt.Sprintf("`%s`", dataset)))

	query.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: start.Format("2006-01-02")},
	}

	it, err := query.Read(ctx)
	if err != nil {
		return nil, classifyGCPError(err)
	}

	var rows []gcpRow
	for {
		var row struct {
			ServiceName string            `bigquery:"service_name"`
			CostDate    bigquery.NullDate `bigquery:"cost_date"`
			DailyCost   float64           `bigquery:"daily_cost"`
			Credits     float64           `bigquery:"credits"`
			Currency    string            `bigquery:"currency"`
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyGCPError(err)
		}

		if !row.CostDate.Valid {
			continue
		}
		rows = append(rows, gcpRow{
			ServiceName: row.ServiceName,
			CostDate:    row.CostDate.Date.String(),
			DailyCost:   row.DailyCost,
			Credits:     row.Credits,
			Currency:    row.Currency,
		})
	}

	raw, err := json.Marshal(map[string]interface{}{"rows": rows})
	if err != nil {
		return nil, errors.TransientFetchError(account.ProviderGCP, err)
	}
	return raw, nil
}

func classifyGCPError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "PERMISSION_DENIED") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") {
		return errors.AuthenticationError(account.ProviderGCP, err)
	}
	if strings.Contains(msg, "context deadline exceeded") {
		return errors.TimeoutError(account.ProviderGCP, err)
	}
	return errors.TransientFetchError(account.ProviderGCP, fmt.Errorf("bigquery: %w", err))
}
