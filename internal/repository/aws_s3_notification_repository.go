package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
)

// S3NotificationRepository lê e grava a configuração de notificação dos buckets.
type S3NotificationRepository struct {
	Client *client.AWSClient
}

// BucketExists verifica se o bucket está acessível com as credenciais atuais.
func (r *S3NotificationRepository) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := r.Client.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		if client.IsAPIErrorCode(err, "NotFound", "NoSuchBucket") {
			return false, nil
		}
		return false, fmt.Errorf("HeadBucket failed: %w", err)
	}
	return true, nil
}

// GetConfiguration retorna a configuração de notificação completa do bucket.
func (r *S3NotificationRepository) GetConfiguration(ctx context.Context, bucket string) (*s3types.NotificationConfiguration, error) {
	out, err := r.Client.S3.GetBucketNotificationConfiguration(ctx, &s3.GetBucketNotificationConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("GetBucketNotificationConfiguration failed: %w", err)
	}
	return &s3types.NotificationConfiguration{
		LambdaFunctionConfigurations: out.LambdaFunctionConfigurations,
		QueueConfigurations:          out.QueueConfigurations,
		TopicConfigurations:          out.TopicConfigurations,
		EventBridgeConfiguration:     out.EventBridgeConfiguration,
	}, nil
}

// PutConfiguration substitui a configuração de notificação do bucket.
func (r *S3NotificationRepository) PutConfiguration(ctx context.Context, bucket string, cfg *s3types.NotificationConfiguration) error {
	_, err := r.Client.S3.PutBucketNotificationConfiguration(ctx, &s3.PutBucketNotificationConfigurationInput{
		Bucket:                    aws.String(bucket),
		NotificationConfiguration: cfg,
	})
	if err != nil {
		return fmt.Errorf("PutBucketNotificationConfiguration failed: %w", err)
	}
	return nil
}

// FindLambdaConfiguration retorna a entrada com o ID informado, se houver.
func FindLambdaConfiguration(cfg *s3types.NotificationConfiguration, id string) *s3types.LambdaFunctionConfiguration {
	for i := range cfg.LambdaFunctionConfigurations {
		if aws.ToString(cfg.LambdaFunctionConfigurations[i].Id) == id {
			return &cfg.LambdaFunctionConfigurations[i]
		}
	}
	return nil
}

// UpsertLambdaConfiguration substitui a entrada de mesmo ID ou a adiciona.
// Filas, tópicos e EventBridge não são alterados.
func UpsertLambdaConfiguration(cfg *s3types.NotificationConfiguration, entry s3types.LambdaFunctionConfiguration) {
	id := aws.ToString(entry.Id)
	for i := range cfg.LambdaFunctionConfigurations {
		if aws.ToString(cfg.LambdaFunctionConfigurations[i].Id) == id {
			cfg.LambdaFunctionConfigurations[i] = entry
			return
		}
	}
	cfg.LambdaFunctionConfigurations = append(cfg.LambdaFunctionConfigurations, entry)
}

// RemoveLambdaConfiguration remove a entrada com o ID informado e indica se
// ela existia.
func RemoveLambdaConfiguration(cfg *s3types.NotificationConfiguration, id string) bool {
	var kept []s3types.LambdaFunctionConfiguration
	removed := false
	for _, c := range cfg.LambdaFunctionConfigurations {
		if aws.ToString(c.Id) == id {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	cfg.LambdaFunctionConfigurations = kept
	return removed
}
