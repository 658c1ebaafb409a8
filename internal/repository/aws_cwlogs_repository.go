package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
)

// CWLogsRepository encapsula operações CRUD da AWS CloudWatch Logs.
type CWLogsRepository struct {
	Client *client.AWSClient

	// RetryDelay é o primeiro passo do backoff da política de retenção.
	RetryDelay time.Duration
}

// CreateLogGroupIfNotExists cria um Log Group e define a retenção.
func (r *CWLogsRepository) CreateLogGroupIfNotExists(ctx context.Context, name string, retentionDays int32) error {
	_, err := r.Client.CWLogs.CreateLogGroup(ctx, &cw.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil && !client.IsAPIErrorCode(err, "ResourceAlreadyExistsException") {
		return fmt.Errorf("CreateLogGroup: %w", err)
	}

	delay := r.RetryDelay
	if delay == 0 {
		delay = 300 * time.Millisecond
	}

	// um grupo recém-criado nem sempre já é visível para PutRetentionPolicy
	err = client.Retry(ctx, 6, delay, func() error {
		_, perr := r.Client.CWLogs.PutRetentionPolicy(ctx, &cw.PutRetentionPolicyInput{
			LogGroupName:    aws.String(name),
			RetentionInDays: aws.Int32(retentionDays),
		})
		if client.IsAPIErrorCode(perr, "InvalidParameterException") {
			return client.Permanent(perr)
		}
		return perr
	})
	if err != nil {
		return fmt.Errorf("PutRetentionPolicy failed: %w", err)
	}
	return nil
}

// DeleteLogGroup deleta o Log Group.
func (r *CWLogsRepository) DeleteLogGroup(ctx context.Context, logGroupName string) error {
	_, err := r.Client.CWLogs.DeleteLogGroup(ctx, &cw.DeleteLogGroupInput{
		LogGroupName: aws.String(logGroupName),
	})
	if err != nil && !client.IsAPIErrorCode(err, "ResourceNotFoundException") {
		return fmt.Errorf("DeleteLogGroup failed: %w", err)
	}
	return nil
}
