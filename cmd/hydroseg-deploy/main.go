// Command hydroseg-deploy publica o handler de segmentação como função Lambda
// por imagem de container e a inscreve num bucket S3, passo a passo: docker
// build, push no ECR, registro da função e ligação do trigger.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/client"
	"github.com/raywall/terraform-provider-hydroseg/internal/models"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("ignoring unreadable .env file")
	}

	err := run(os.Args[1:], os.Stdout, awsBundle)
	if err == nil {
		return
	}
	var ferr *flags.Error
	if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
		return
	}
	log.WithError(err).Fatal("hydroseg-deploy failed")
}

func awsBundle(ctx context.Context, opts *globalOptions) (*models.ConfigurationBundle, error) {
	c, err := client.New(ctx, opts.Region)
	if err != nil {
		return nil, err
	}
	return models.NewBundle(c, models.Options{
		Docker:           opts.Docker,
		PropagationDelay: opts.propagationDelay(),
		Log:              log.StandardLogger(),
	}), nil
}
