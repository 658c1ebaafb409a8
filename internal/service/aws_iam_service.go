package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

const basePolicyArn = "arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"

// DefaultPropagationDelay é o tempo dado para uma role nova ficar visível
// para o Lambda.
const DefaultPropagationDelay = 10 * time.Second

// IAMService gerencia a role de execução da função.
type IAMService struct {
	IAMRepo          *repository.IAMRepository
	PropagationDelay time.Duration
	Log              logrus.FieldLogger
}

// CheckRoleExists verifica se a role ainda existe.
func (s *IAMService) CheckRoleExists(ctx context.Context, roleName string) (bool, error) {
	role, err := s.IAMRepo.GetRole(ctx, roleName)
	if err != nil {
		return false, err
	}
	return role != nil, nil
}

// EnsureRole garante a role de execução com a política básica e policyARNs
// anexadas, e retorna o ARN. Políticas presentes em previousARNs que não
// estão mais em policyARNs são desanexadas.
func (s *IAMService) EnsureRole(ctx context.Context, functionName string, policyARNs, previousARNs []string) (string, error) {
	roleName := dto.RoleName(functionName)
	log := s.log().WithField("role", roleName)

	// 1. GARANTIR ROLE
	role, err := s.IAMRepo.GetRole(ctx, roleName)
	if err != nil {
		return "", err
	}

	var roleArn *string
	created := false
	if role == nil {
		roleArn, err = s.IAMRepo.CreateRole(ctx, roleName)
		if err != nil {
			return "", err
		}
		created = true
	} else {
		roleArn = role.Arn
	}

	// 2. ANEXAR POLÍTICAS
	if err := s.IAMRepo.AttachPolicy(ctx, roleName, basePolicyArn); err != nil {
		return "", err
	}
	for _, arn := range policyARNs {
		if err := s.IAMRepo.AttachPolicy(ctx, roleName, arn); err != nil {
			return "", fmt.Errorf("failed to attach policy %s: %w", arn, err)
		}
	}

	// 3. DESANEXAR POLÍTICAS REMOVIDAS DA CONFIGURAÇÃO
	for _, arn := range removedPolicies(previousARNs, policyARNs) {
		log.WithField("policy", arn).Info("detaching policy no longer configured")
		if err := s.IAMRepo.DetachPolicy(ctx, roleName, arn); err != nil {
			return "", fmt.Errorf("failed to detach policy %s: %w", arn, err)
		}
	}

	// 4. PROPAGAÇÃO (só para role recém-criada)
	if created && s.PropagationDelay > 0 {
		log.Infof("waiting %s for IAM role propagation", s.PropagationDelay)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.PropagationDelay):
		}
	}

	return aws.ToString(roleArn), nil
}

// DeleteRoleAndPolicies desanexa todas as políticas e deleta a role.
func (s *IAMService) DeleteRoleAndPolicies(ctx context.Context, roleName string, policyARNs []string) error {
	var errs []error
	for _, arn := range append([]string{basePolicyArn}, policyARNs...) {
		if err := s.IAMRepo.DetachPolicy(ctx, roleName, arn); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.IAMRepo.DeleteRole(ctx, roleName); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *IAMService) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// removedPolicies retorna os ARNs de previous ausentes de current. A
// política básica nunca sai.
func removedPolicies(previous, current []string) []string {
	keep := make(map[string]bool, len(current)+1)
	keep[basePolicyArn] = true
	for _, arn := range current {
		keep[arn] = true
	}

	var out []string
	for _, arn := range previous {
		if !keep[arn] {
			keep[arn] = true
			out = append(out, arn)
		}
	}
	return out
}
