package service

import (
	"context"

	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

// LogRetentionDays é aplicado a todo log group de função.
const LogRetentionDays = 14

// CWLogsService gerencia o log group da função.
type CWLogsService struct {
	CWLogsRepo *repository.CWLogsRepository
}

// EnsureLogGroup cria /aws/lambda/<function> com a retenção informada.
func (s *CWLogsService) EnsureLogGroup(ctx context.Context, functionName string, retentionDays int32) (string, error) {
	logGroupName := dto.LogGroupName(functionName)

	if err := s.CWLogsRepo.CreateLogGroupIfNotExists(ctx, logGroupName, retentionDays); err != nil {
		return "", err
	}
	return logGroupName, nil
}

// DeleteLogGroup remove o log group.
func (s *CWLogsService) DeleteLogGroup(ctx context.Context, logGroupName string) error {
	return s.CWLogsRepo.DeleteLogGroup(ctx, logGroupName)
}
