package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
)

// RegistryCredentials é o que `aws ecr get-login-password` entrega ao `docker login`.
type RegistryCredentials struct {
	Username string
	Password string
	Endpoint string
}

// ECRRepository encapsula operações da Amazon ECR.
type ECRRepository struct {
	Client *client.AWSClient
}

// GetRepositoryURI retorna a URI do repositório, ou "" se ele não existir.
func (r *ECRRepository) GetRepositoryURI(ctx context.Context, name string) (string, error) {
	out, err := r.Client.ECR.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	if err != nil {
		if client.IsAPIErrorCode(err, "RepositoryNotFoundException") {
			return "", nil
		}
		return "", fmt.Errorf("DescribeRepositories failed: %w", err)
	}
	if len(out.Repositories) == 0 {
		return "", nil
	}
	return aws.ToString(out.Repositories[0].RepositoryUri), nil
}

// EnsureRepository cria o repositório se necessário e retorna a URI.
func (r *ECRRepository) EnsureRepository(ctx context.Context, name string) (string, error) {
	uri, err := r.GetRepositoryURI(ctx, name)
	if err != nil {
		return "", err
	}
	if uri != "" {
		return uri, nil
	}

	out, cerr := r.Client.ECR.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName:             aws.String(name),
		ImageTagMutability:         ecrtypes.ImageTagMutabilityMutable,
		ImageScanningConfiguration: &ecrtypes.ImageScanningConfiguration{ScanOnPush: true},
	})
	if cerr != nil {
		if client.IsAPIErrorCode(cerr, "RepositoryAlreadyExistsException") {
			return r.GetRepositoryURI(ctx, name)
		}
		return "", fmt.Errorf("CreateRepository failed: %w", cerr)
	}
	return aws.ToString(out.Repository.RepositoryUri), nil
}

// ImageDigest retorna o digest apontado pela tag, ou "" se a tag não existir.
func (r *ECRRepository) ImageDigest(ctx context.Context, name, tag string) (string, error) {
	out, err := r.Client.ECR.DescribeImages(ctx, &ecr.DescribeImagesInput{
		RepositoryName: aws.String(name),
		ImageIds:       []ecrtypes.ImageIdentifier{{ImageTag: aws.String(tag)}},
	})
	if err != nil {
		if client.IsAPIErrorCode(err, "ImageNotFoundException", "RepositoryNotFoundException") {
			return "", nil
		}
		return "", fmt.Errorf("DescribeImages failed: %w", err)
	}
	if len(out.ImageDetails) == 0 {
		return "", nil
	}
	return aws.ToString(out.ImageDetails[0].ImageDigest), nil
}

// LoginCredentials decodifica o token de autorização do ECR.
func (r *ECRRepository) LoginCredentials(ctx context.Context) (*RegistryCredentials, error) {
	out, err := r.Client.ECR.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("GetAuthorizationToken failed: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return nil, fmt.Errorf("GetAuthorizationToken returned no authorization data")
	}

	data := out.AuthorizationData[0]
	raw, err := base64.StdEncoding.DecodeString(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return nil, fmt.Errorf("decoding authorization token: %w", err)
	}
	user, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, fmt.Errorf("malformed authorization token")
	}

	return &RegistryCredentials{
		Username: user,
		Password: password,
		Endpoint: aws.ToString(data.ProxyEndpoint),
	}, nil
}

// DeleteRepository deleta o repositório. Sem force o ECR recusa apagar um
// repositório que ainda tem imagens.
func (r *ECRRepository) DeleteRepository(ctx context.Context, name string, force bool) error {
	_, err := r.Client.ECR.DeleteRepository(ctx, &ecr.DeleteRepositoryInput{
		RepositoryName: aws.String(name),
		Force:          force,
	})
	if err != nil && !client.IsAPIErrorCode(err, "RepositoryNotFoundException") {
		return fmt.Errorf("DeleteRepository failed: %w", err)
	}
	return nil
}
