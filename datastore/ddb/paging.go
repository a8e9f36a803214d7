/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitycache/storagemodels"
)

// queryPages runs a query page by page and hands every page to fn.
func (d *DynamodbDataStore) queryPages(ctx context.Context, input *sdk.QueryInput, fn func([]map[string]types.AttributeValue) error) error {
	if input.Limit == nil && d.options.PageSize > 0 {
		input.Limit = &d.options.PageSize
	}
	progress := storagemodels.ScanProgress{StartTime: time.Now()}
	for {
		out, err := withRetry(ctx, d.options, func() (*sdk.QueryOutput, error) {
			return d.client.Query(ctx, input)
		})
		if err != nil {
			return err
		}
		if err := d.page(out.Items, &progress, fn); err != nil {
			return err
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// scanPages is queryPages for table scans.
func (d *DynamodbDataStore) scanPages(ctx context.Context, input *sdk.ScanInput, fn func([]map[string]types.AttributeValue) error) error {
	if input.Limit == nil && d.options.PageSize > 0 {
		input.Limit = &d.options.PageSize
	}
	progress := storagemodels.ScanProgress{StartTime: time.Now()}
	for {
		out, err := withRetry(ctx, d.options, func() (*sdk.ScanOutput, error) {
			return d.client.Scan(ctx, input)
		})
		if err != nil {
			return err
		}
		if err := d.page(out.Items, &progress, fn); err != nil {
			return err
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (d *DynamodbDataStore) page(items []map[string]types.AttributeValue, progress *storagemodels.ScanProgress, fn func([]map[string]types.AttributeValue) error) error {
	if err := fn(items); err != nil {
		return err
	}
	progress.PagesProcessed++
	progress.ItemsProcessed += int64(len(items))
	if d.options.ProgressHandler != nil {
		d.options.ProgressHandler(*progress)
	}
	return nil
}

// withRetry calls fn until it succeeds, fails with a permanent error or
// runs out of attempts. The backoff grows linearly with the attempt.
func withRetry[O any](ctx context.Context, options storagemodels.ScanOptions, fn func() (O, error)) (O, error) {
	var zero O
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return zero, err
		}

		// Don't sleep after last attempt
		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return zero, fmt.Errorf("request failed after %d retries: %w", options.MaxRetries, lastErr)
}

func isRetryableError(err error) bool {
	switch err.(type) {
	case *types.ProvisionedThroughputExceededException:
		return true
	case *types.RequestLimitExceeded:
		return true
	case *types.InternalServerError:
		return true
	}

	// Check for AWS SDK retryable errors
	if awsErr, ok := err.(interface{ IsRetryable() bool }); ok {
		return awsErr.IsRetryable()
	}

	return false
}
