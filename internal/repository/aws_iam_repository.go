package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	iam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
)

const lambdaTrustPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":"lambda.amazonaws.com"},"Action":"sts:AssumeRole"}]}`

// IAMRepository encapsula operações IAM de baixo nível.
type IAMRepository struct {
	Client *client.AWSClient
}

// GetRole busca uma Role IAM. Retorna nil, nil se não for encontrada.
func (r *IAMRepository) GetRole(ctx context.Context, roleName string) (*iamtypes.Role, error) {
	out, err := r.Client.IAM.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err != nil {
		if client.IsAPIErrorCode(err, "NoSuchEntity") {
			return nil, nil
		}
		return nil, fmt.Errorf("GetRole failed: %w", err)
	}
	return out.Role, nil
}

// CreateRole cria a Role com a política de confiança Lambda e retorna o ARN.
func (r *IAMRepository) CreateRole(ctx context.Context, roleName string) (*string, error) {
	cr, cerr := r.Client.IAM.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(roleName),
		AssumeRolePolicyDocument: aws.String(lambdaTrustPolicy),
		Description:              aws.String("Execution role managed by hydroseg"),
	})
	if cerr != nil {
		if client.IsAPIErrorCode(cerr, "EntityAlreadyExists") {
			role, _ := r.GetRole(ctx, roleName)
			if role != nil {
				return role.Arn, nil
			}
		}
		return nil, fmt.Errorf("CreateRole failed: %w", cerr)
	}

	return cr.Role.Arn, nil
}

// AttachPolicy anexa uma política à Role.
func (r *IAMRepository) AttachPolicy(ctx context.Context, roleName, policyArn string) error {
	_, err := r.Client.IAM.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyArn),
	})
	if err != nil && !client.IsAPIErrorCode(err, "EntityAlreadyExists") {
		return fmt.Errorf("AttachPolicy failed: %w", err)
	}
	return nil
}

// DetachPolicy desanexa uma política da Role.
func (r *IAMRepository) DetachPolicy(ctx context.Context, roleName, policyArn string) error {
	_, err := r.Client.IAM.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyArn),
	})
	if err != nil && !client.IsAPIErrorCode(err, "NoSuchEntity") {
		return fmt.Errorf("DetachPolicy failed: %w", err)
	}
	return nil
}

// DeleteRole deleta a Role.
func (r *IAMRepository) DeleteRole(ctx context.Context, roleName string) error {
	_, err := r.Client.IAM.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(roleName)})
	if err != nil && !client.IsAPIErrorCode(err, "NoSuchEntity") {
		return fmt.Errorf("DeleteRole failed: %w", err)
	}
	return nil
}

// ListAttachedPolicies lista os ARNs das políticas gerenciadas anexadas à role.
func (r *IAMRepository) ListAttachedPolicies(ctx context.Context, roleName string) ([]string, error) {
	var arns []string
	p := iam.NewListAttachedRolePoliciesPaginator(r.Client.IAM, &iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(roleName),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListAttachedRolePolicies failed: %w", err)
		}
		for _, pol := range page.AttachedPolicies {
			arns = append(arns, aws.ToString(pol.PolicyArn))
		}
	}
	return arns, nil
}
