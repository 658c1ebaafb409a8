package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
)

const StateKey = "terraform.tfstate"
const RollbackKey = "terraform.tfstate.rollback"

// StateRepository encapsula a lógica customizada de backup/rollback do statefile S3.
type StateRepository struct {
	Client *client.AWSClient
	Log    logrus.FieldLogger
}

// CreateBackupState copia o estado principal (StateKey) para o estado de rollback (RollbackKey).
func (r *StateRepository) CreateBackupState(ctx context.Context) error {
	if r.Client.S3Bucket == "" {
		return nil
	}

	r.log().Infof("creating rollback state backup in s3://%s/%s", r.Client.S3Bucket, RollbackKey)
	if err := r.copy(ctx, StateKey, RollbackKey); err != nil {
		return fmt.Errorf("s3 copy failed: %w", err)
	}
	return nil
}

// RestoreRollbackState copia o estado de rollback (RollbackKey) para o estado principal (StateKey).
func (r *StateRepository) RestoreRollbackState(ctx context.Context) error {
	if r.Client.S3Bucket == "" {
		return fmt.Errorf("state bucket not configured for rollback")
	}

	r.log().Infof("restoring rollback state from s3://%s/%s", r.Client.S3Bucket, RollbackKey)
	if err := r.copy(ctx, RollbackKey, StateKey); err != nil {
		return fmt.Errorf("s3 restore failed: %w", err)
	}
	r.log().Info("rollback restored, run 'terraform apply' to execute it")
	return nil
}

func (r *StateRepository) copy(ctx context.Context, from, to string) error {
	_, err := r.Client.S3.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(r.Client.S3Bucket),
		CopySource: aws.String(fmt.Sprintf("%s/%s", r.Client.S3Bucket, from)),
		Key:        aws.String(to),
	})
	return err
}

func (r *StateRepository) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
