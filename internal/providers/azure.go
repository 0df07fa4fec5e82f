package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// AzureFetcher retrieves daily pre-tax cost from Azure Cost Management,
// grouped by service name, scoped to the account's subscription.
type AzureFetcher struct{}

func (f *AzureFetcher) ProviderID() string { return account.ProviderAzure }

func (f *AzureFetcher) Fetch(ctx context.Context, acct *account.Account, creds Credentials) (json.RawMessage, error) {
	credential, err := azidentity.NewClientSecretCredential(
		creds.Get("tenant_id"), creds.Get("client_id"), creds.Get("client_secret"), nil)
	if err != nil {
		return nil, errors.AuthenticationError(account.ProviderAzure, err)
	}

	client, err := armcostmanagement.NewQueryClient(credential, nil)
	if err != nil {
		return nil, errors.TransientFetchError(account.ProviderAzure, err)
	}

	now := time.Now().UTC()
	start := now.AddDate(0, -1, 0)
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	scope := fmt.Sprintf("subscriptions/%s", creds.Get("subscription_id"))

	sumFunc := armcostmanagement.FunctionTypeSum
	aggregation := map[string]*armcostmanagement.QueryAggregation{
		"PreTaxCost": {
			Name:     ptrStr("PreTaxCost"),
			Function: &sumFunc,
		},
	}

	dimGrouping := armcostmanagement.QueryColumnTypeDimension
	grouping := []*armcostmanagement.QueryGrouping{
		{
			Type: &dimGrouping,
			Name: ptrStr("ServiceName"),
		},
	}

	granularity := armcostmanagement.GranularityTypeDaily
	timeframeCustom := armcostmanagement.TimeframeTypeCustom
	exportType := armcostmanagement.ExportTypeActualCost

	queryDef := armcostmanagement.QueryDefinition{
		Type:      &exportType,
		Timeframe: &timeframeCustom,
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: &start,
			To:   &now,
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: &granularity,
			Aggregation: aggregation,
			Grouping:    grouping,
		},
	}

	result, err := client.Usage(ctx, scope, queryDef, nil)
	if err != nil {
		return nil, classifyAzureError(err)
	}

	raw, err := json.Marshal(map[string]interface{}{
		"properties": result.Properties,
	})
	if err != nil {
		return nil, errors.TransientFetchError(account.ProviderAzure, err)
	}
	return raw, nil
}

func classifyAzureError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "AADSTS") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "AuthorizationFailed") {
		return errors.AuthenticationError(account.ProviderAzure, err)
	}
	if strings.Contains(msg, "context deadline exceeded") {
		return errors.TimeoutError(account.ProviderAzure, err)
	}
	return errors.TransientFetchError(account.ProviderAzure, fmt.Errorf("cost management: %w", err))
}

func ptrStr(s string) *string {
	return &s
}
