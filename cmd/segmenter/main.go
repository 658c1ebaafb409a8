package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/segment"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := segment.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.WithError(err).Fatal("loading AWS configuration")
	}

	h := &segment.Handler{
		S3:        s3.NewFromConfig(awsCfg),
		Segmenter: segment.NewHTTPSegmenter(cfg.Endpoint, cfg.Timeout),
		Config:    cfg,
		Log:       log.StandardLogger(),
	}

	lambda.Start(h.Handle)
}
