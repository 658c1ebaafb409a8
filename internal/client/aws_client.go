package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	iam "github.com/aws/aws-sdk-go-v2/service/iam"
	lambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	sts "github.com/aws/aws-sdk-go-v2/service/sts"
)

// AWSClient agrupa os clients dos serviços AWS e a conta resolvida.
type AWSClient struct {
	Config    aws.Config
	ECR       ECRAPI
	IAM       IAMAPI
	Lambda    LambdaAPI
	CWLogs    CWLogsAPI
	STS       STSAPI
	S3        S3API
	Region    string
	AccountID string
	S3Bucket  string // statefile backup bucket
}

// New cria o AWSClient para a região informada. Região vazia usa a cadeia
// padrão de credenciais e configuração.
func New(ctx context.Context, region string) (*AWSClient, error) {
	var cfg aws.Config
	var err error
	if strings.TrimSpace(region) == "" {
		cfg, err = config.LoadDefaultConfig(ctx)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
	}
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	c := &AWSClient{
		Config: cfg,
		ECR:    ecr.NewFromConfig(cfg),
		IAM:    iam.NewFromConfig(cfg),
		Lambda: lambda.NewFromConfig(cfg),
		CWLogs: cw.NewFromConfig(cfg),
		STS:    sts.NewFromConfig(cfg),
		S3:     s3.NewFromConfig(cfg),
		Region: cfg.Region,
	}

	accountID, aerr := getAccountID(ctx, c.STS)
	if aerr != nil {
		return nil, aerr
	}
	c.AccountID = accountID

	return c, nil
}

// BucketARN retorna o ARN que o S3 usa como origem dos eventos do bucket.
func BucketARN(bucket string) string {
	return "arn:aws:s3:::" + bucket
}

func getAccountID(ctx context.Context, stsClient STSAPI) (string, error) {
	result, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("getting account ID: %w", err)
	}
	return aws.ToString(result.Account), nil
}
