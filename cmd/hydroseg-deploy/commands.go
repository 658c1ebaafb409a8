package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/raywall/terraform-provider-hydroseg/internal/models"
	dto "github.com/raywall/terraform-provider-hydroseg/pkg/types"
)

type bundleFactory func(ctx context.Context, opts *globalOptions) (*models.ConfigurationBundle, error)

type globalOptions struct {
	Region             string `long:"region" env:"AWS_REGION" default:"us-east-1" description:"AWS region"`
	Docker             string `long:"docker" env:"HYDROSEG_DOCKER" default:"docker" description:"Docker compatible CLI"`
	PropagationSeconds int    `long:"role-propagation" default:"10" description:"Seconds to wait after creating the execution role"`
	Verbose            bool   `short:"v" long:"verbose" description:"Debug logging"`
}

func (o *globalOptions) propagationDelay() time.Duration {
	return time.Duration(o.PropagationSeconds) * time.Second
}

type functionOptions struct {
	FunctionName string `long:"function-name" required:"true" description:"Lambda function name"`
	Repository   string `long:"repository" description:"ECR repository, defaults to the function name"`
	Bucket       string `long:"bucket" description:"Bucket whose uploads trigger the function"`
	FilterPrefix string `long:"filter-prefix" description:"Object key prefix of the trigger"`
	FilterSuffix string `long:"filter-suffix" description:"Object key suffix of the trigger"`
}

type deployCommand struct {
	functionOptions

	Tag          string            `long:"tag" default:"lambda-function" description:"Image tag"`
	MemorySize   int32             `long:"memory-size" default:"128"`
	Timeout      int32             `long:"timeout" default:"30" description:"Function timeout in seconds"`
	Architecture string            `long:"architecture" default:"x86_64" choice:"x86_64" choice:"arm64"`
	PolicyARNs   []string          `long:"policy-arn" description:"Extra managed policy for the execution role (repeatable)"`
	Environment  map[string]string `long:"env" description:"Function environment variable as KEY:VALUE (repeatable)"`

	Context    string            `long:"context" default:"." description:"Docker build context"`
	Dockerfile string            `long:"dockerfile"`
	Platform   string            `long:"platform" description:"e.g. linux/amd64"`
	BuildArgs  map[string]string `long:"build-arg" description:"Build argument as KEY:VALUE (repeatable)"`
	SkipBuild  bool              `long:"skip-build" description:"Deploy an image already pushed under --tag"`

	Events []string `long:"event" description:"S3 event type (repeatable), defaults to s3:ObjectCreated:*"`

	app *app
}

type destroyCommand struct {
	functionOptions

	PolicyARNs     []string `long:"policy-arn" description:"Extra policy attached at deploy time (repeatable)"`
	KeepRepository bool     `long:"keep-repository" description:"Leave the ECR repository in place"`
	Force          bool     `long:"force-delete-repository" description:"Delete the repository even if it holds images"`

	app *app
}

type app struct {
	opts    globalOptions
	out     io.Writer
	factory bundleFactory
}

// deployResult é o que o deploy imprime.
type deployResult struct {
	Function *dto.ResourceState `json:"function"`
	Trigger  *dto.TriggerState  `json:"trigger,omitempty"`
}

func run(args []string, out io.Writer, factory bundleFactory) error {
	a := &app{out: out, factory: factory}
	parser := flags.NewParser(&a.opts, flags.Default)

	if _, err := parser.AddCommand("deploy", "Build, push, register and wire the function",
		"Runs docker build, pushes to ECR, creates or updates the function and, with --bucket, adds the S3 trigger.",
		&deployCommand{app: a}); err != nil {
		return err
	}
	if _, err := parser.AddCommand("destroy", "Remove the trigger and the function",
		"Removes the S3 trigger, the function, its role and log group and the ECR repository.",
		&destroyCommand{app: a}); err != nil {
		return err
	}

	_, err := parser.ParseArgs(args)
	return err
}

func (a *app) bundle(ctx context.Context) (*models.ConfigurationBundle, error) {
	if a.opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	return a.factory(ctx, &a.opts)
}

func (c *deployCommand) Execute(_ []string) error {
	ctx := context.Background()
	b, err := c.app.bundle(ctx)
	if err != nil {
		return err
	}

	lc := &dto.LambdaImageConfig{
		FunctionName:   c.FunctionName,
		RepositoryName: c.Repository,
		ImageTag:       c.Tag,
		MemorySize:     c.MemorySize,
		Timeout:        c.Timeout,
		Architecture:   c.Architecture,
		PolicyARNs:     c.PolicyARNs,
		Environment:    c.Environment,
	}
	if !c.SkipBuild {
		lc.Build = &dto.ImageBuildConfig{
			ContextDir: c.Context,
			Dockerfile: c.Dockerfile,
			Platform:   c.Platform,
			BuildArgs:  c.BuildArgs,
		}
	}

	res := deployResult{}
	if res.Function, err = b.DeployService.EnsureDeployment(ctx, lc); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}

	if c.Bucket != "" {
		res.Trigger, err = b.TriggerService.EnsureTrigger(ctx, &dto.TriggerConfig{
			Bucket:       c.Bucket,
			FunctionName: c.FunctionName,
			Events:       c.Events,
			FilterPrefix: c.FilterPrefix,
			FilterSuffix: c.FilterSuffix,
		})
		if err != nil {
			return fmt.Errorf("trigger: %w", err)
		}
	}

	enc := json.NewEncoder(c.app.out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (c *destroyCommand) Execute(_ []string) error {
	ctx := context.Background()
	b, err := c.app.bundle(ctx)
	if err != nil {
		return err
	}

	var errs []error
	if c.Bucket != "" {
		// o ID depende dos filtros usados no deploy
		id := dto.TriggerID(c.Bucket, c.FunctionName, c.FilterPrefix, c.FilterSuffix)
		err := b.TriggerService.DeleteTrigger(ctx, &dto.TriggerState{
			Bucket:         c.Bucket,
			FunctionName:   c.FunctionName,
			StatementID:    id,
			NotificationID: id,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("trigger: %w", err))
		}
	}

	st := &dto.ResourceState{
		RoleName:              dto.RoleName(c.FunctionName),
		FunctionName:          c.FunctionName,
		LogGroup:              dto.LogGroupName(c.FunctionName),
		AttachedPolicyARNs:    c.PolicyARNs,
		ForceDeleteRepository: c.Force,
	}
	if !c.KeepRepository {
		st.RepositoryName = c.Repository
		if st.RepositoryName == "" {
			st.RepositoryName = c.FunctionName
		}
	}
	if err := b.DeployService.DeleteDeployment(ctx, st); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "destroyed %s\n", c.FunctionName)
	return nil
}
