package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

// LambdaDeploymentService é o Service Orquestrador (Facade) do deploy de uma
// função por imagem de container: registry, imagem, role, função e log group.
type LambdaDeploymentService struct {
	IAMService    *IAMService
	CWLogsService *CWLogsService
	ImageService  *ImageService
	ECRRepo       *repository.ECRRepository
	LambdaRepo    *repository.LambdaRepository
	Client        *client.AWSClient
	Log           logrus.FieldLogger
}

// CheckResourceExistence verifica se a role, a função e o repositório
// registrados em st ainda existem.
func (s *LambdaDeploymentService) CheckResourceExistence(ctx context.Context, st *dto.ResourceState) (bool, error) {
	roleExists, err := s.IAMService.CheckRoleExists(ctx, st.RoleName)
	if err != nil {
		return false, err
	}
	if !roleExists {
		return false, nil
	}

	fnConfig, err := s.LambdaRepo.GetFunction(ctx, st.FunctionName)
	if err != nil {
		return false, err
	}
	if fnConfig == nil {
		return false, nil
	}

	uri, err := s.ECRRepo.GetRepositoryURI(ctx, st.RepositoryName)
	if err != nil {
		return false, err
	}
	return uri != "", nil
}

// EnsureDeployment cria ou atualiza todas as partes do deploy.
func (s *LambdaDeploymentService) EnsureDeployment(ctx context.Context, lc *dto.LambdaImageConfig) (*dto.ResourceState, error) {
	if strings.TrimSpace(lc.FunctionName) == "" {
		return nil, fmt.Errorf("function name is required")
	}
	lc.ApplyDefaults()
	log := s.log().WithField("function", lc.FunctionName)

	// 1. GARANTIR REPOSITÓRIO ECR
	repoURI, err := s.ECRRepo.EnsureRepository(ctx, lc.RepositoryName)
	if err != nil {
		return nil, fmt.Errorf("ECR repository setup failed: %w", err)
	}
	imageURI := repoURI + ":" + lc.ImageTag

	// 2. BUILD E PUSH DA IMAGEM (opcional)
	if lc.Build != nil {
		if imageURI, err = s.ImageService.BuildAndPush(ctx, lc.Build, lc.RepositoryName, repoURI, lc.ImageTag); err != nil {
			return nil, fmt.Errorf("image publish failed: %w", err)
		}
	}
	digest, err := s.ECRRepo.ImageDigest(ctx, lc.RepositoryName, lc.ImageTag)
	if err != nil {
		return nil, err
	}
	if digest == "" {
		return nil, fmt.Errorf("image %s not found in registry", imageURI)
	}
	// fixar o digest faz uma tag republicada aparecer como mudança de código
	deployURI := repoURI + "@" + digest
	log.WithField("image", deployURI).Debug("resolved image")

	// 3. GARANTIR ROLE
	roleArn, err := s.IAMService.EnsureRole(ctx, lc.FunctionName, lc.PolicyARNs, lc.PreviousPolicyARNs)
	if err != nil {
		return nil, fmt.Errorf("IAM role setup failed: %w", err)
	}

	// 4. GARANTIR FUNÇÃO LAMBDA
	fnArn, err := s.LambdaRepo.EnsureImageFunction(ctx, lc, roleArn, deployURI)
	if err != nil {
		return nil, fmt.Errorf("Lambda function setup failed: %w", err)
	}

	// 5. GARANTIR LOG GROUP
	logGroup, err := s.CWLogsService.EnsureLogGroup(ctx, lc.FunctionName, LogRetentionDays)
	if err != nil {
		return nil, fmt.Errorf("log group setup failed: %w", err)
	}

	log.WithField("arn", aws.ToString(fnArn)).Info("function deployed")

	return &dto.ResourceState{
		RoleName:              dto.RoleName(lc.FunctionName),
		RoleArn:               roleArn,
		FunctionName:          lc.FunctionName,
		FunctionArn:           fnArn,
		RepositoryName:        lc.RepositoryName,
		RepositoryURI:         repoURI,
		ImageURI:              imageURI,
		ImageDigest:           digest,
		LogGroup:              logGroup,
		AttachedPolicyARNs:    lc.PolicyARNs,
		ForceDeleteRepository: lc.ForceDeleteRepository,
	}, nil
}

// DeleteDeployment remove tudo o que EnsureDeployment criou. Uma falha não
// interrompe as demais remoções; os erros voltam agregados.
func (s *LambdaDeploymentService) DeleteDeployment(ctx context.Context, st *dto.ResourceState) error {
	var errs []error

	if err := s.LambdaRepo.DeleteFunction(ctx, st.FunctionName); err != nil {
		errs = append(errs, fmt.Errorf("Lambda deletion failed: %w", err))
	}

	if err := s.IAMService.DeleteRoleAndPolicies(ctx, st.RoleName, st.AttachedPolicyARNs); err != nil {
		errs = append(errs, fmt.Errorf("IAM role deletion failed: %w", err))
	}

	if st.LogGroup != "" {
		if err := s.CWLogsService.DeleteLogGroup(ctx, st.LogGroup); err != nil {
			s.log().WithError(err).Warn("log group deletion failed")
		}
	}

	if st.RepositoryName != "" {
		if err := s.ECRRepo.DeleteRepository(ctx, st.RepositoryName, st.ForceDeleteRepository); err != nil {
			errs = append(errs, fmt.Errorf("ECR repository deletion failed: %w", err))
		}
	}

	return errors.Join(errs...)
}

// DescribeDeployment reconstrói o estado de uma função já existente (usado no
// import). O repositório ECR é lido a partir da imagem da função.
func (s *LambdaDeploymentService) DescribeDeployment(ctx context.Context, functionName string) (*dto.ResourceState, error) {
	// 1. FUNÇÃO
	fn, image, err := s.LambdaRepo.GetImageFunction(ctx, functionName)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("function %s not found", functionName)
	}

	// 2. ROLE
	roleName := dto.RoleName(functionName)
	role, err := s.IAMService.IAMRepo.GetRole(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("execution role %s not found", roleName)
	}

	attached, err := s.IAMService.IAMRepo.ListAttachedPolicies(ctx, roleName)
	if err != nil {
		return nil, err
	}
	var extra []string
	for _, arn := range attached {
		if arn != basePolicyArn {
			extra = append(extra, arn)
		}
	}

	st := &dto.ResourceState{
		RoleName:           roleName,
		RoleArn:            aws.ToString(role.Arn),
		FunctionName:       functionName,
		FunctionArn:        fn.FunctionArn,
		LogGroup:           dto.LogGroupName(functionName),
		AttachedPolicyARNs: extra,
	}

	// 3. REPOSITÓRIO E IMAGEM
	repoName, tag, digest := parseImageURI(image)
	if repoName == "" {
		repoName = functionName
	}
	uri, err := s.ECRRepo.GetRepositoryURI(ctx, repoName)
	if err != nil {
		return nil, err
	}
	if uri == "" {
		return nil, fmt.Errorf("ECR repository %s not found", repoName)
	}
	st.RepositoryName = repoName
	st.RepositoryURI = uri
	st.ImageDigest = digest
	if tag == "" {
		tag = dto.DefaultImageTag
	}
	st.ImageURI = uri + ":" + tag

	return st, nil
}

// parseImageURI separa "<registry>/<repo>[:tag][@digest]".
func parseImageURI(uri string) (repo, tag, digest string) {
	if uri == "" {
		return "", "", ""
	}
	if i := strings.Index(uri, "@"); i >= 0 {
		uri, digest = uri[:i], uri[i+1:]
	}
	if i := strings.LastIndex(uri, ":"); i > strings.LastIndex(uri, "/") {
		uri, tag = uri[:i], uri[i+1:]
	}
	if i := strings.Index(uri, "/"); i >= 0 {
		repo = uri[i+1:]
	}
	return repo, tag, digest
}

func (s *LambdaDeploymentService) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
