package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// AWSFetcher retrieves daily cost data from AWS Cost Explorer, grouped by
// service, for the current and previous month. Cost Explorer is only
// served out of us-east-1.
type AWSFetcher struct{}

func (f *AWSFetcher) ProviderID() string { return account.ProviderAWS }

func (f *AWSFetcher) Fetch(ctx context.Context, acct *account.Account, creds Credentials) (json.RawMessage, error) {
	region := "us-east-1"

	var cfg aws.Config
	var err error
	accessKey := creds.Get("access_key_id")
	secretKey := creds.Get("secret_access_key")
	if accessKey != "" && secretKey != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	}
	if err != nil {
		return nil, errors.AuthenticationError(account.ProviderAWS, err)
	}

	ceClient := costexplorer.NewFromConfig(cfg)

	now := time.Now().UTC()
	start := now.AddDate(0, -1, 0)
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(now.Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []cetypes.GroupDefinition{
			{
				Type: cetypes.GroupDefinitionTypeDimension,
				Key:  aws.String("SERVICE"),
			},
		},
	}

	result, err := ceClient.GetCostAndUsage(ctx, input)
	if err != nil {
		return nil, classifyAWSError(err)
	}

	payload := map[string]interface{}{
		"ResultsByTime": result.ResultsByTime,
	}

	// Forecast is best effort; accounts younger than a day have none.
	monthEnd := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	forecast, err := ceClient.GetCostForecast(ctx, &costexplorer.GetCostForecastInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(now.Format("2006-01-02")),
			End:   aws.String(monthEnd.Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityMonthly,
		Metric:      cetypes.MetricUnblendedCost,
	})
	if err == nil && forecast.Total != nil && forecast.Total.Amount != nil {
		payload["ForecastedAmount"] = *forecast.Total.Amount
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.TransientFetchError(account.ProviderAWS, err)
	}
	return raw, nil
}

func classifyAWSError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "UnrecognizedClientException") ||
		strings.Contains(msg, "InvalidClientTokenId") ||
		strings.Contains(msg, "SignatureDoesNotMatch") ||
		strings.Contains(msg, "AccessDenied") {
		return errors.AuthenticationError(account.ProviderAWS, err)
	}
	if strings.Contains(msg, "context deadline exceeded") {
		return errors.TimeoutError(account.ProviderAWS, err)
	}
	return errors.TransientFetchError(account.ProviderAWS, fmt.Errorf("cost explorer: %w", err))
}
