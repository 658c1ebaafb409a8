package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

// ImageService gera a imagem da função com a CLI do docker e publica no ECR.
type ImageService struct {
	ECRRepo *repository.ECRRepository
	Runner  CommandRunner
	Docker  string // docker binary, defaults to "docker"
	Log     logrus.FieldLogger
}

// Build executa `docker build -t <localTag> .` no contexto configurado.
func (s *ImageService) Build(ctx context.Context, cfg *dto.ImageBuildConfig, localTag string) error {
	if cfg == nil || strings.TrimSpace(cfg.ContextDir) == "" {
		return fmt.Errorf("build context is required")
	}

	args := []string{"build", "-t", localTag}
	if cfg.Dockerfile != "" {
		dockerfile := cfg.Dockerfile
		if !filepath.IsAbs(dockerfile) {
			dockerfile = filepath.Join(cfg.ContextDir, dockerfile)
		}
		args = append(args, "-f", dockerfile)
	}
	if cfg.Platform != "" {
		args = append(args, "--platform", cfg.Platform)
	}
	// ordenados para que builds repetidos gerem a mesma linha de comando
	keys := make([]string, 0, len(cfg.BuildArgs))
	for k := range cfg.BuildArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", k+"="+cfg.BuildArgs[k])
	}
	args = append(args, cfg.ContextDir)

	s.log().WithField("tag", localTag).Info("building image")
	if _, err := s.Runner.Run(ctx, nil, s.docker(), args...); err != nil {
		return fmt.Errorf("docker build failed: %w", err)
	}
	return nil
}

// Push aplica a tag do repositório na imagem local, faz o login do docker no
// registry e envia a imagem. Retorna a URI remota.
func (s *ImageService) Push(ctx context.Context, localTag, repositoryURI, tag string) (string, error) {
	remote := repositoryURI + ":" + tag

	if _, err := s.Runner.Run(ctx, nil, s.docker(), "tag", localTag, remote); err != nil {
		return "", fmt.Errorf("docker tag failed: %w", err)
	}

	creds, err := s.ECRRepo.LoginCredentials(ctx)
	if err != nil {
		return "", err
	}
	endpoint := creds.Endpoint
	if endpoint == "" {
		endpoint = registryHost(repositoryURI)
	}
	// a senha vai pelo stdin, nunca pela linha de comando
	if _, err := s.Runner.Run(ctx, strings.NewReader(creds.Password), s.docker(),
		"login", "--username", creds.Username, "--password-stdin", endpoint); err != nil {
		return "", fmt.Errorf("docker login failed: %w", err)
	}

	s.log().WithField("image", remote).Info("pushing image")
	if _, err := s.Runner.Run(ctx, nil, s.docker(), "push", remote); err != nil {
		return "", fmt.Errorf("docker push failed: %w", err)
	}
	return remote, nil
}

// BuildAndPush é Build seguido de Push.
func (s *ImageService) BuildAndPush(ctx context.Context, cfg *dto.ImageBuildConfig, repositoryName, repositoryURI, tag string) (string, error) {
	localTag := cfg.ImageName
	if localTag == "" {
		localTag = repositoryName
	}
	if err := s.Build(ctx, cfg, localTag); err != nil {
		return "", err
	}
	return s.Push(ctx, localTag, repositoryURI, tag)
}

func (s *ImageService) docker() string {
	if s.Docker == "" {
		return "docker"
	}
	return s.Docker
}

func (s *ImageService) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

func registryHost(repositoryURI string) string {
	host, _, _ := strings.Cut(repositoryURI, "/")
	return host
}
