package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

const s3Principal = "s3.amazonaws.com"

// S3TriggerService liga os eventos de objeto de um bucket a uma função Lambda.
type S3TriggerService struct {
	LambdaRepo       *repository.LambdaRepository
	NotificationRepo *repository.S3NotificationRepository
	Client           *client.AWSClient
	Log              logrus.FieldLogger

	// RetryDelay é o primeiro passo do backoff enquanto o S3 ainda não
	// consegue validar a permissão recém-criada.
	RetryDelay time.Duration
}

// EnsureTrigger concede ao S3 a permissão de invocar a função e adiciona (ou
// substitui) a entrada de notificação do bucket. Entradas de outros triggers
// no mesmo bucket são preservadas.
func (s *S3TriggerService) EnsureTrigger(ctx context.Context, tc *dto.TriggerConfig) (*dto.TriggerState, error) {
	if strings.TrimSpace(tc.Bucket) == "" || strings.TrimSpace(tc.FunctionName) == "" {
		return nil, fmt.Errorf("bucket and function name are required")
	}
	events := tc.Events
	if len(events) == 0 {
		events = []string{dto.DefaultTriggerEvent}
	}
	log := s.log().WithFields(logrus.Fields{"bucket": tc.Bucket, "function": tc.FunctionName})

	// 1. RESOLVER O ARN DA FUNÇÃO
	fn, err := s.LambdaRepo.GetFunction(ctx, tc.FunctionName)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("function %s not found", tc.FunctionName)
	}
	fnArn := aws.ToString(fn.FunctionArn)

	account := tc.SourceAccount
	if account == "" {
		account = s.Client.AccountID
	}
	id := dto.TriggerID(tc.Bucket, tc.FunctionName, tc.FilterPrefix, tc.FilterSuffix)

	// 2. PERMISSÃO (antes da notificação: o S3 valida se pode invocar o destino)
	if err := s.LambdaRepo.AddPermission(ctx, tc.FunctionName, id, s3Principal, client.BucketARN(tc.Bucket), account); err != nil {
		return nil, fmt.Errorf("Lambda permission failed: %w", err)
	}

	// 3. NOTIFICAÇÃO DO BUCKET (ler, mesclar a nossa entrada, gravar)
	entry := s3types.LambdaFunctionConfiguration{
		Id:                aws.String(id),
		LambdaFunctionArn: aws.String(fnArn),
		Events:            toS3Events(events),
		Filter:            keyFilter(tc.FilterPrefix, tc.FilterSuffix),
	}

	delay := s.RetryDelay
	if delay == 0 {
		delay = time.Second
	}
	err = client.Retry(ctx, 6, delay, func() error {
		cfg, gerr := s.NotificationRepo.GetConfiguration(ctx, tc.Bucket)
		if gerr != nil {
			return client.Permanent(gerr)
		}
		repository.UpsertLambdaConfiguration(cfg, entry)
		perr := s.NotificationRepo.PutConfiguration(ctx, tc.Bucket, cfg)
		if perr != nil && client.IsAPIErrorCode(perr, "InvalidArgument") && strings.Contains(perr.Error(), "validate") {
			log.Debug("destination not validated yet, retrying")
			return perr
		}
		return client.Permanent(perr)
	})
	if err != nil {
		return nil, fmt.Errorf("bucket notification failed: %w", err)
	}

	log.WithField("events", events).Info("trigger configured")

	return &dto.TriggerState{
		Bucket:         tc.Bucket,
		FunctionName:   tc.FunctionName,
		FunctionArn:    fnArn,
		StatementID:    id,
		NotificationID: id,
		Events:         events,
		FilterPrefix:   tc.FilterPrefix,
		FilterSuffix:   tc.FilterSuffix,
	}, nil
}

// CheckTrigger verifica se a entrada de notificação ainda aponta para a função.
func (s *S3TriggerService) CheckTrigger(ctx context.Context, st *dto.TriggerState) (bool, error) {
	exists, err := s.NotificationRepo.BucketExists(ctx, st.Bucket)
	if err != nil || !exists {
		return false, err
	}

	cfg, err := s.NotificationRepo.GetConfiguration(ctx, st.Bucket)
	if err != nil {
		return false, err
	}
	entry := repository.FindLambdaConfiguration(cfg, st.NotificationID)
	if entry == nil || aws.ToString(entry.LambdaFunctionArn) != st.FunctionArn {
		return false, nil
	}

	fn, err := s.LambdaRepo.GetFunction(ctx, st.FunctionName)
	if err != nil {
		return false, err
	}
	return fn != nil, nil
}

// FindTrigger reconstrói o estado de um trigger já existente a partir do
// bucket e da função (usado no import). Com notificationID vazio vale a
// primeira entrada do bucket que aponta para a função.
func (s *S3TriggerService) FindTrigger(ctx context.Context, bucket, functionName, notificationID string) (*dto.TriggerState, error) {
	fn, err := s.LambdaRepo.GetFunction(ctx, functionName)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("function %s not found", functionName)
	}
	fnArn := aws.ToString(fn.FunctionArn)

	cfg, err := s.NotificationRepo.GetConfiguration(ctx, bucket)
	if err != nil {
		return nil, err
	}

	for _, entry := range cfg.LambdaFunctionConfigurations {
		if aws.ToString(entry.LambdaFunctionArn) != fnArn {
			continue
		}
		if notificationID != "" && aws.ToString(entry.Id) != notificationID {
			continue
		}
		prefix, suffix := filterValues(entry.Filter)
		events := make([]string, 0, len(entry.Events))
		for _, e := range entry.Events {
			events = append(events, string(e))
		}
		return &dto.TriggerState{
			Bucket:         bucket,
			FunctionName:   functionName,
			FunctionArn:    fnArn,
			StatementID:    aws.ToString(entry.Id),
			NotificationID: aws.ToString(entry.Id),
			Events:         events,
			FilterPrefix:   prefix,
			FilterSuffix:   suffix,
		}, nil
	}
	return nil, fmt.Errorf("no notification on bucket %s invokes %s", bucket, functionName)
}

// DeleteTrigger remove a entrada de notificação e a permissão.
func (s *S3TriggerService) DeleteTrigger(ctx context.Context, st *dto.TriggerState) error {
	exists, err := s.NotificationRepo.BucketExists(ctx, st.Bucket)
	if err != nil {
		return err
	}
	if exists {
		cfg, err := s.NotificationRepo.GetConfiguration(ctx, st.Bucket)
		if err != nil {
			return err
		}
		if repository.RemoveLambdaConfiguration(cfg, st.NotificationID) {
			if err := s.NotificationRepo.PutConfiguration(ctx, st.Bucket, cfg); err != nil {
				return err
			}
		}
	}

	return s.LambdaRepo.RemovePermission(ctx, st.FunctionName, st.StatementID)
}

func (s *S3TriggerService) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

func toS3Events(events []string) []s3types.Event {
	out := make([]s3types.Event, 0, len(events))
	for _, e := range events {
		out = append(out, s3types.Event(e))
	}
	return out
}

func keyFilter(prefix, suffix string) *s3types.NotificationConfigurationFilter {
	var rules []s3types.FilterRule
	if prefix != "" {
		rules = append(rules, s3types.FilterRule{Name: s3types.FilterRuleNamePrefix, Value: aws.String(prefix)})
	}
	if suffix != "" {
		rules = append(rules, s3types.FilterRule{Name: s3types.FilterRuleNameSuffix, Value: aws.String(suffix)})
	}
	if len(rules) == 0 {
		return nil
	}
	return &s3types.NotificationConfigurationFilter{Key: &s3types.S3KeyFilter{FilterRules: rules}}
}

// filterValues é o inverso de keyFilter. O S3 devolve os nomes das regras
// em caixa variável ("Prefix" ou "prefix").
func filterValues(f *s3types.NotificationConfigurationFilter) (prefix, suffix string) {
	if f == nil || f.Key == nil {
		return "", ""
	}
	for _, r := range f.Key.FilterRules {
		switch strings.ToLower(string(r.Name)) {
		case "prefix":
			prefix = aws.ToString(r.Value)
		case "suffix":
			suffix = aws.ToString(r.Value)
		}
	}
	return prefix, suffix
}
