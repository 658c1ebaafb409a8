package models

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
	"github.com/raywall/terraform-provider-hydroseg/internal/repository"
	"github.com/raywall/terraform-provider-hydroseg/internal/service"
)

// ConfigurationBundle leva os services e o AWS client para os resources e
// para a CLI.
type ConfigurationBundle struct {
	DeployService  *service.LambdaDeploymentService
	TriggerService *service.S3TriggerService
	Client         *client.AWSClient
}

// Options ajusta os services montados por NewBundle.
type Options struct {
	Docker           string
	PropagationDelay time.Duration
	Runner           service.CommandRunner
	Log              logrus.FieldLogger
}

// NewBundle monta repositórios e services sobre awsClient.
func NewBundle(awsClient *client.AWSClient, opts Options) *ConfigurationBundle {
	if opts.Runner == nil {
		opts.Runner = service.ExecRunner{}
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	// 1. Inicializa os Repositórios (Camada de Acesso a Dados)
	iamRepo := &repository.IAMRepository{Client: awsClient}
	lambdaRepo := &repository.LambdaRepository{Client: awsClient, Log: opts.Log}
	ecrRepo := &repository.ECRRepository{Client: awsClient}
	cwLogsRepo := &repository.CWLogsRepository{Client: awsClient}
	notificationRepo := &repository.S3NotificationRepository{Client: awsClient}

	// 2. Inicializa os Services Especializados (Camada de Lógica de Negócio)
	iamService := &service.IAMService{IAMRepo: iamRepo, PropagationDelay: opts.PropagationDelay, Log: opts.Log}
	cwLogsService := &service.CWLogsService{CWLogsRepo: cwLogsRepo}
	imageService := &service.ImageService{ECRRepo: ecrRepo, Runner: opts.Runner, Docker: opts.Docker, Log: opts.Log}

	// 3. Inicializa os Services Orquestradores (Facade)
	deployService := &service.LambdaDeploymentService{
		IAMService:    iamService,
		CWLogsService: cwLogsService,
		ImageService:  imageService,
		ECRRepo:       ecrRepo,
		LambdaRepo:    lambdaRepo,
		Client:        awsClient,
		Log:           opts.Log,
	}
	triggerService := &service.S3TriggerService{
		LambdaRepo:       lambdaRepo,
		NotificationRepo: notificationRepo,
		Client:           awsClient,
		Log:              opts.Log,
	}

	return &ConfigurationBundle{
		DeployService:  deployService,
		TriggerService: triggerService,
		Client:         awsClient,
	}
}
